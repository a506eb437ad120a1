package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/illarion/kakadu/internal/config"
	"github.com/illarion/kakadu/internal/core"
	"github.com/illarion/kakadu/internal/crypto"
	"github.com/illarion/kakadu/internal/keyring"
	"github.com/illarion/kakadu/internal/logging"
	"github.com/illarion/kakadu/internal/storage"
)

// app bundles what one CLI invocation needs. The caller must defer Close.
type app struct {
	cfg       *config.Config
	vaultPath string

	log     core.Logger
	logFile *os.File
	state   *storage.Storage
	keys    *keyring.Keyring
	store   *core.Store
}

// loadConfig resolves the config path (honouring --config) and reads it.
func loadConfig(cmd *cobra.Command) (cfg *config.Config, configPath, homeDir string, err error) {
	configPath, homeDir, err = config.Paths()
	if err != nil {
		return nil, "", "", err
	}
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		configPath = p
	}
	cfg, err = config.Load(configPath, homeDir)
	if err != nil {
		return nil, "", "", err
	}
	return cfg, configPath, homeDir, nil
}

// newApp reads the config, sets up logging and opens the state database.
// operation names the CLI command being run (e.g. "AddGroup").
func newApp(cmd *cobra.Command, operation string) (*app, error) {
	cfg, _, _, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		level = slog.LevelDebug
	}

	sl, logFile, err := logging.New(cfg.LogDir, uuid.NewString()[:8], level, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	log := logging.NewAdapter(sl.With("op", operation))

	state, err := storage.Open(cfg.StatePath)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	vaultPath, _ := cmd.Flags().GetString("vault")
	if vaultPath == "" {
		vaultPath = cfg.DefaultVault
	}

	return &app{
		cfg:       cfg,
		vaultPath: vaultPath,
		log:       log,
		logFile:   logFile,
		state:     state,
		keys:      keyring.New(cfg.KeyringName),
		store:     core.NewStore(core.WithLogger(log), core.WithNotifier(&logNotifier{log: log})),
	}, nil
}

func (a *app) Close() error {
	err := a.state.Close()
	if cerr := a.logFile.Close(); err == nil {
		err = cerr
	}
	return err
}

// lockVault takes the advisory lock guarding path, exclusive for writers.
func lockVault(path string, exclusive bool) (*flock.Flock, error) {
	fl := flock.New(path + ".lock")
	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = fl.TryLock()
	} else {
		locked, err = fl.TryRLock()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: locking %s: %w", core.ErrIO, path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", path, ErrVaultBusy)
	}
	return fl, nil
}

// keyringPassword returns the cached passphrase for path, if any.
func (a *app) keyringPassword(path string) (string, bool) {
	if !a.cfg.UseKeyring {
		return "", false
	}
	vaultID, err := a.state.GetVaultID(path)
	if err != nil {
		return "", false
	}
	password, err := a.keys.GetPassword(vaultID)
	if err != nil {
		return "", false
	}
	return password, true
}

// withPassword runs try with the passphrase for path: KAKADU_PASSWORD,
// then the keyring, then a prompt. A keyring passphrase rejected with
// ErrFormat is treated as stale and the user is prompted instead.
func (a *app) withPassword(path, prompt string, try func(password string) error) (string, error) {
	if env := core.GetPasswordFromEnv(); env != nil {
		defer crypto.ClearBytes(env)
		password := string(env)
		return password, try(password)
	}

	if password, ok := a.keyringPassword(path); ok {
		err := try(password)
		if err == nil {
			a.log.Debug("used keyring passphrase", "vault", path)
			return password, nil
		}
		if !errors.Is(err, core.ErrFormat) {
			return "", err
		}
		a.log.Warn("keyring passphrase rejected, prompting", "vault", path)
	}

	entered, err := promptPassword(prompt)
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(entered)
	password := string(entered)
	return password, try(password)
}

// openVault loads path into the store and returns the passphrase used.
func (a *app) openVault(ctx context.Context, path string) (string, error) {
	return a.withPassword(path, "Enter passphrase: ", func(password string) error {
		return a.store.Open(ctx, path, password)
	})
}

// touchRecent records path in the recent list. Failures only get logged.
func (a *app) touchRecent(path string) {
	snap, err := a.store.Snapshot()
	if err != nil {
		return
	}
	if err := a.state.TouchRecent(path, len(snap.Groups), len(snap.Records)); err != nil {
		a.log.Warn("failed to update recent list", "vault", path, "error", err)
	}
}

// view opens the selected vault under a shared lock and runs fn.
func (a *app) view(ctx context.Context, fn func(s *core.Store) error) error {
	fl, err := lockVault(a.vaultPath, false)
	if err != nil {
		return err
	}
	defer fl.Unlock()

	if _, err := a.openVault(ctx, a.vaultPath); err != nil {
		return err
	}
	a.touchRecent(a.vaultPath)
	return fn(a.store)
}

// mutate opens the selected vault under an exclusive lock, runs fn and
// saves the result with the same passphrase.
func (a *app) mutate(ctx context.Context, fn func(s *core.Store) error) error {
	fl, err := lockVault(a.vaultPath, true)
	if err != nil {
		return err
	}
	defer fl.Unlock()

	password, err := a.openVault(ctx, a.vaultPath)
	if err != nil {
		return err
	}
	if err := fn(a.store); err != nil {
		return err
	}
	if err := a.store.Save(ctx, a.vaultPath, password); err != nil {
		return err
	}
	a.touchRecent(a.vaultPath)
	return nil
}
