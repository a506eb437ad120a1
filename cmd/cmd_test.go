package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/illarion/kakadu/internal/config"
	"github.com/illarion/kakadu/internal/core"
	"github.com/illarion/kakadu/internal/vault"
)

// setupEnv points config, state and logs at a temp home and returns a
// vault path inside it.
func setupEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.HomeEnv, filepath.Join(home, "kakadu"))
	t.Setenv(config.ConfigPathEnv, filepath.Join(home, "kakadu.toml"))
	t.Setenv(core.PasswordEnv, "hunter2")
	t.Setenv(core.NewPasswordEnv, "")
	gokeyring.MockInit()
	return filepath.Join(home, "vault.db")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// runVault runs a command against the vault at path.
func runVault(t *testing.T, path string, args ...string) (string, error) {
	t.Helper()
	return run(t, append(args, "--vault", path)...)
}

func mustRun(t *testing.T, path string, args ...string) string {
	t.Helper()
	out, err := runVault(t, path, args...)
	require.NoError(t, err, "kakadu %s", strings.Join(args, " "))
	return out
}

func TestNewVault(t *testing.T) {
	path := setupEnv(t)

	out := mustRun(t, path, "new")
	assert.Contains(t, out, "Created vault")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(core.FilePermSecure), info.Mode().Perm())
	assert.Zero(t, info.Size()%16)

	out = mustRun(t, path, "groups")
	assert.Equal(t, "[1] NewDatabase\n", out)

	_, err = runVault(t, path, "new")
	assert.ErrorIs(t, err, ErrVaultExists)
}

func TestNewVaultRootName(t *testing.T) {
	path := setupEnv(t)

	mustRun(t, path, "new", "--root-name", "Personal")
	assert.Equal(t, "[1] Personal\n", mustRun(t, path, "groups"))
}

func TestDefaultVaultFromConfig(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "new")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(os.Getenv(config.HomeEnv), "vault.db"))

	out, err = run(t, "groups")
	require.NoError(t, err)
	assert.Contains(t, out, "NewDatabase")
}

func TestGroupLifecycle(t *testing.T) {
	path := setupEnv(t)
	mustRun(t, path, "new")

	assert.Equal(t, "Added group [2] Email\n", mustRun(t, path, "group", "add", "1", "Email"))
	assert.Equal(t, "Added group [3] Work\n", mustRun(t, path, "group", "add", "2", "Work"))
	assert.Equal(t, "[1] NewDatabase\n  [2] Email\n    [3] Work\n", mustRun(t, path, "groups"))

	mustRun(t, path, "group", "rename", "2", "Mail")
	assert.Contains(t, mustRun(t, path, "groups"), "[2] Mail")

	// Children survive their parent
	mustRun(t, path, "group", "rm", "2")
	assert.Equal(t, "[1] NewDatabase\nOrphaned:\n  [3] Work (parent 2)\n", mustRun(t, path, "groups"))

	_, err := runVault(t, path, "group", "rm", "2")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = runVault(t, path, "group", "rename", "abc", "x")
	assert.Error(t, err)
}

func TestRecordLifecycle(t *testing.T) {
	path := setupEnv(t)
	mustRun(t, path, "new")
	mustRun(t, path, "group", "add", "1", "Email")

	out := mustRun(t, path, "record", "add", "2",
		"--name", "gmail", "--login", "me", "--password", "pw", "--url", "https://mail.example",
		"--login-symbol", "TAB", "--password-symbol", "ENTER")
	assert.Equal(t, "Added record [3] gmail\n", out)

	out = mustRun(t, path, "records", "2")
	assert.Contains(t, out, "[3] gmail")
	assert.Contains(t, out, maskedPassword)
	assert.NotContains(t, out, "password=pw")
	assert.Contains(t, mustRun(t, path, "records", "2", "--show-passwords"), "password=pw")

	mustRun(t, path, "record", "edit", "3", "--url", "https://new.example", "--url-symbol", "SPACE")
	out = mustRun(t, path, "record", "show", "3", "--show-passwords")
	assert.Contains(t, out, "Login:    me (TAB)")
	assert.Contains(t, out, "Password: pw (ENTER)")
	assert.Contains(t, out, "URL:      https://new.example (SPACE)")
	assert.Contains(t, out, "Group:    2")

	mustRun(t, path, "record", "rename", "3", "mail")
	assert.Contains(t, mustRun(t, path, "record", "show", "3"), "Name:     mail")

	mustRun(t, path, "record", "rm", "3")
	assert.Equal(t, "No records.\n", mustRun(t, path, "records", "2"))

	_, err := runVault(t, path, "record", "show", "3")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRecordInvalidSymbol(t *testing.T) {
	path := setupEnv(t)
	mustRun(t, path, "new")

	_, err := runVault(t, path, "record", "add", "1", "--name", "x", "--login-symbol", "BOGUS")
	assert.ErrorIs(t, err, vault.ErrInvalidSymbol)

	mustRun(t, path, "record", "add", "1", "--name", "x")
	_, err = runVault(t, path, "record", "edit", "2", "--url-symbol", "tab")
	assert.ErrorIs(t, err, vault.ErrInvalidSymbol)
}

func TestWrongPassphrase(t *testing.T) {
	path := setupEnv(t)
	mustRun(t, path, "new")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	t.Setenv(core.PasswordEnv, "wrong")
	_, err = runVault(t, path, "group", "add", "1", "x")
	assert.ErrorIs(t, err, core.ErrFormat)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed open must not rewrite the vault")
}

func TestMissingVault(t *testing.T) {
	path := setupEnv(t)

	_, err := runVault(t, path, "groups")
	assert.ErrorIs(t, err, core.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVaultBusy(t *testing.T) {
	path := setupEnv(t)
	mustRun(t, path, "new")

	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer fl.Unlock()

	_, err = runVault(t, path, "group", "add", "1", "x")
	assert.ErrorIs(t, err, ErrVaultBusy)
	_, err = runVault(t, path, "groups")
	assert.ErrorIs(t, err, ErrVaultBusy)
}

func TestKeyring(t *testing.T) {
	path := setupEnv(t)
	mustRun(t, path, "new")

	assert.Contains(t, mustRun(t, path, "keyring", "status"), "No passphrase stored")
	assert.Contains(t, mustRun(t, path, "keyring", "save"), "saved to keyring")
	assert.Contains(t, mustRun(t, path, "keyring", "status"), "Passphrase is stored")

	// The keyring supplies the passphrase once the environment is empty
	t.Setenv(core.PasswordEnv, "")
	assert.Contains(t, mustRun(t, path, "groups"), "NewDatabase")

	assert.Contains(t, mustRun(t, path, "keyring", "delete"), "removed from keyring")
	assert.Contains(t, mustRun(t, path, "keyring", "delete"), "No passphrase stored")
}

func TestKeyringSaveRejectsWrongPassphrase(t *testing.T) {
	path := setupEnv(t)
	mustRun(t, path, "new")

	t.Setenv(core.PasswordEnv, "wrong")
	_, err := runVault(t, path, "keyring", "save")
	assert.ErrorIs(t, err, core.ErrFormat)
	assert.Contains(t, mustRun(t, path, "keyring", "status"), "No passphrase stored")
}

func TestPasswd(t *testing.T) {
	path := setupEnv(t)
	mustRun(t, path, "new")
	mustRun(t, path, "group", "add", "1", "Email")
	mustRun(t, path, "keyring", "save")

	t.Setenv(core.NewPasswordEnv, "correct horse")
	out := mustRun(t, path, "passwd")
	assert.Contains(t, out, "Passphrase changed")
	assert.Contains(t, out, "Keyring updated")
	t.Setenv(core.NewPasswordEnv, "")

	_, err := runVault(t, path, "groups")
	assert.ErrorIs(t, err, core.ErrFormat, "old passphrase must stop working")

	t.Setenv(core.PasswordEnv, "correct horse")
	assert.Contains(t, mustRun(t, path, "groups"), "[2] Email")

	t.Setenv(core.PasswordEnv, "")
	assert.Contains(t, mustRun(t, path, "groups"), "[2] Email")
}

func TestDiff(t *testing.T) {
	path := setupEnv(t)
	other := filepath.Join(filepath.Dir(path), "other.db")
	mustRun(t, path, "new")
	mustRun(t, other, "new")

	out, err := run(t, "diff", path, other)
	require.NoError(t, err)
	assert.Equal(t, "No differences\n", out)

	mustRun(t, other, "group", "add", "1", "Email")
	mustRun(t, other, "record", "add", "2", "--name", "gmail", "--password", "s3cret")

	out, err = run(t, "diff", path, other)
	require.NoError(t, err)
	assert.Contains(t, out, "--- a/"+path)
	assert.Contains(t, out, "+++ b/"+other)
	assert.Contains(t, out, `"name":"Email"`)
	assert.NotContains(t, out, "s3cret")

	out, err = run(t, "diff", path, other, "--show-passwords")
	require.NoError(t, err)
	assert.Contains(t, out, "s3cret")
}

func TestRecent(t *testing.T) {
	path := setupEnv(t)

	assert.Equal(t, "No recent vaults.\n", mustRun(t, path, "recent"))

	mustRun(t, path, "new")
	mustRun(t, path, "group", "add", "1", "Email")
	out := mustRun(t, path, "recent")
	assert.Contains(t, out, path)
	assert.Contains(t, out, "(2 groups, 0 records)")

	mustRun(t, path, "recent", "--forget", path)
	assert.Equal(t, "No recent vaults.\n", mustRun(t, path, "recent"))

	mustRun(t, path, "groups")
	assert.Contains(t, mustRun(t, path, "recent", "--clear"), "cleared")
	assert.Equal(t, "No recent vaults.\n", mustRun(t, path, "recent"))
}

func TestConfigCommands(t *testing.T) {
	setupEnv(t)
	configPath := os.Getenv(config.ConfigPathEnv)

	out, err := run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, configPath)
	_, err = os.Stat(configPath)
	require.NoError(t, err)

	_, err = run(t, "config", "init")
	assert.Error(t, err)

	out, err = run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `log_level = "info"`)
	assert.Contains(t, out, `root_group_name = "NewDatabase"`)

	custom := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(custom, []byte(`log_level = "error"`), 0600))
	out, err = run(t, "config", "show", "--config", custom)
	require.NoError(t, err)
	assert.Contains(t, out, `log_level = "error"`)
}

func TestConfigDisablesKeyring(t *testing.T) {
	path := setupEnv(t)
	mustRun(t, path, "new")
	mustRun(t, path, "keyring", "save")

	cfg := fmt.Sprintf("use_keyring = false\nstate_path = %q\n", filepath.Join(os.Getenv(config.HomeEnv), "state.db"))
	require.NoError(t, os.WriteFile(os.Getenv(config.ConfigPathEnv), []byte(cfg), 0600))

	assert.Contains(t, mustRun(t, path, "keyring", "status"), "disabled")

	a, err := newApp(NewRootCmd(), "Test")
	require.NoError(t, err)
	defer a.Close()
	_, ok := a.keyringPassword(path)
	assert.False(t, ok, "keyring must not be consulted when disabled")
}

func TestCompletion(t *testing.T) {
	setupEnv(t)

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := run(t, "completion", shell)
		require.NoError(t, err, shell)
		assert.Contains(t, out, "kakadu", shell)
	}

	_, err := run(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err      error
		wantMsg  string
		wantHint string
	}{
		{fmt.Errorf("x: %w", core.ErrFormat), "wrong passphrase or corrupted vault file", ""},
		{core.ErrNoData, "no vault loaded", "Run 'kakadu new' to create one"},
		{fmt.Errorf("group 9: %w", core.ErrNotFound), "group 9: not found", "Use 'kakadu groups' to see ids"},
		{fmt.Errorf("%w: %w", core.ErrIO, os.ErrNotExist), "read/write failed: file does not exist", "Run 'kakadu new' to create the vault"},
		{core.ErrPoisoned, "vault store became unusable, no changes were saved", ""},
		{errors.New("boom"), "boom", ""},
	}

	for _, tt := range tests {
		msg, hint := describeError(tt.err)
		assert.Equal(t, tt.wantMsg, msg)
		assert.Equal(t, tt.wantHint, hint)
	}

	var buf bytes.Buffer
	printError(&buf, core.ErrNoData)
	assert.Equal(t, "Error: no vault loaded\nRun 'kakadu new' to create one\n", buf.String())
}

func TestPrintGroupTreeCycle(t *testing.T) {
	var buf bytes.Buffer
	printGroupTree(&buf, []vault.Group{
		{ID: 1, PID: 0, Name: "root"},
		{ID: 2, PID: 3, Name: "a"},
		{ID: 3, PID: 2, Name: "b"},
	})
	assert.Equal(t, "[1] root\nOrphaned:\n  [2] a (parent 3)\n    [3] b\n", buf.String())
}

func TestStatus(t *testing.T) {
	path := setupEnv(t)

	assert.Contains(t, mustRun(t, path, "status"), "not created")

	mustRun(t, path, "new")
	mustRun(t, path, "keyring", "save")

	out := mustRun(t, path, "status")
	assert.Contains(t, out, "Vault: "+path)
	assert.Contains(t, out, "   id: ")
	assert.Contains(t, out, "keyring: passphrase stored")
	assert.Contains(t, out, "(1 groups, 0 records)")
	assert.NotContains(t, out, "warning: size")
	assert.NotContains(t, out, "warning: permissions")
}

func TestExportImport(t *testing.T) {
	path := setupEnv(t)
	t.Setenv(KDBXPasswordEnv, "keepass")
	mustRun(t, path, "new")
	mustRun(t, path, "group", "add", "1", "Email")
	mustRun(t, path, "record", "add", "2", "--name", "gmail", "--password", "pw", "--login-symbol", "TAB")

	kdbxPath := filepath.Join(t.TempDir(), "out.kdbx")
	out := mustRun(t, path, "export", kdbxPath)
	assert.Contains(t, out, "Exported 2 groups and 1 records")

	other := filepath.Join(filepath.Dir(path), "other.db")
	mustRun(t, other, "new", "--root-name", "Target")
	out, err := runVault(t, other, "import", kdbxPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 groups and 1 records under group 1")

	assert.Equal(t, "[1] Target\n  [2] NewDatabase\n    [3] Email\n", mustRun(t, other, "groups"))
	out = mustRun(t, other, "record", "show", "4", "--show-passwords")
	assert.Contains(t, out, "Name:     gmail")
	assert.Contains(t, out, "Login:     (TAB)")
	assert.Contains(t, out, "Password: pw (NONE)")

	_, err = runVault(t, other, "import", kdbxPath, "--parent", "99")
	assert.ErrorIs(t, err, core.ErrNotFound)

	t.Setenv(KDBXPasswordEnv, "wrong")
	_, err = runVault(t, other, "import", kdbxPath)
	assert.Error(t, err)
}

type fakeClipboard struct {
	content string
	writes  []string
}

func useFakeClipboard(t *testing.T) *fakeClipboard {
	t.Helper()
	fc := &fakeClipboard{}
	prevWrite, prevRead := clipboardWrite, clipboardRead
	clipboardWrite = func(s string) error {
		fc.content = s
		fc.writes = append(fc.writes, s)
		return nil
	}
	clipboardRead = func() (string, error) { return fc.content, nil }
	t.Cleanup(func() { clipboardWrite, clipboardRead = prevWrite, prevRead })
	return fc
}

func TestCopy(t *testing.T) {
	path := setupEnv(t)
	fc := useFakeClipboard(t)
	mustRun(t, path, "new")
	mustRun(t, path, "record", "add", "1", "--name", "gmail", "--login", "me", "--password", "pw")

	out := mustRun(t, path, "record", "copy", "2", "--clear-after", "0")
	assert.Equal(t, "Copied to clipboard.\n", out)
	assert.Equal(t, "pw", fc.content)

	out = mustRun(t, path, "record", "copy", "2", "--field", "login", "--clear-after", "10ms")
	assert.Contains(t, out, "Clipboard cleared.")
	assert.Equal(t, []string{"pw", "me", ""}, fc.writes)

	_, err := runVault(t, path, "record", "copy", "2", "--field", "notes")
	assert.Error(t, err)
	_, err = runVault(t, path, "record", "copy", "9")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCopyKeepsForeignClipboard(t *testing.T) {
	fc := useFakeClipboard(t)
	clipboardRead = func() (string, error) { return "something else", nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	require.NoError(t, copyToClipboard(ctx, &out, "secret", time.Hour))
	assert.Equal(t, []string{"secret"}, fc.writes, "a foreign clipboard must not be cleared")
	assert.NotContains(t, out.String(), "cleared")
}
