// Package kdbx converts vaults to and from KeePass (KDBX) databases.
package kdbx

import (
	"errors"
	"fmt"
	"os"
	"sort"

	gokeepasslib "github.com/tobischo/gokeepasslib/v3"
	w "github.com/tobischo/gokeepasslib/v3/wrappers"

	"github.com/illarion/kakadu/internal/vault"
)

// Standard KeePass field keys plus the custom keys that carry input symbols.
const (
	fieldTitle          = "Title"
	fieldUserName       = "UserName"
	fieldPassword       = "Password"
	fieldURL            = "URL"
	fieldLoginSymbol    = "KakaduLoginSymbol"
	fieldPasswordSymbol = "KakaduPasswordSymbol"
	fieldURLSymbol      = "KakaduURLSymbol"

	orphanGroupName = "Orphaned records"
)

var ErrEmptyPassword = errors.New("password cannot be empty")

func value(key, content string, protected bool) gokeepasslib.ValueData {
	return gokeepasslib.ValueData{
		Key:   key,
		Value: gokeepasslib.V{Content: content, Protected: w.NewBoolWrapper(protected)},
	}
}

func toEntry(r vault.Record) gokeepasslib.Entry {
	e := gokeepasslib.NewEntry()
	e.Values = append(e.Values,
		value(fieldTitle, r.Name, false),
		value(fieldUserName, r.Login, false),
		value(fieldPassword, r.Password, true),
		value(fieldURL, r.URL, false),
		value(fieldLoginSymbol, string(r.LoginSymbol), false),
		value(fieldPasswordSymbol, string(r.PasswordSymbol), false),
		value(fieldURLSymbol, string(r.URLSymbol), false),
	)
	return e
}

// Build converts d into a KeePass database. Groups keep their nesting;
// groups not reachable from the top level become top-level groups, and
// records without a parent group go into one extra group.
func Build(d *vault.Data) *gokeepasslib.Database {
	groups := append([]vault.Group(nil), d.Groups...)
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })

	children := make(map[uint32][]vault.Group)
	exists := make(map[uint32]bool, len(groups))
	for _, g := range groups {
		children[g.PID] = append(children[g.PID], g)
		exists[g.ID] = true
	}
	records := make(map[uint32][]vault.Record)
	var orphans []vault.Record
	for _, r := range d.Records {
		if exists[r.PID] {
			records[r.PID] = append(records[r.PID], r)
		} else {
			orphans = append(orphans, r)
		}
	}

	seen := make(map[uint32]bool, len(groups))
	var build func(g vault.Group) gokeepasslib.Group
	build = func(g vault.Group) gokeepasslib.Group {
		seen[g.ID] = true
		kg := gokeepasslib.NewGroup()
		kg.Name = g.Name
		for _, r := range records[g.ID] {
			kg.Entries = append(kg.Entries, toEntry(r))
		}
		for _, c := range children[g.ID] {
			if !seen[c.ID] {
				kg.Groups = append(kg.Groups, build(c))
			}
		}
		return kg
	}

	var top []gokeepasslib.Group
	for _, g := range children[0] {
		if !seen[g.ID] {
			top = append(top, build(g))
		}
	}
	for _, g := range groups {
		if !seen[g.ID] {
			top = append(top, build(g))
		}
	}
	if len(orphans) > 0 {
		og := gokeepasslib.NewGroup()
		og.Name = orphanGroupName
		for _, r := range orphans {
			og.Entries = append(og.Entries, toEntry(r))
		}
		top = append(top, og)
	}

	db := gokeepasslib.NewDatabase()
	db.Content = gokeepasslib.NewContent()
	db.Content.Root = &gokeepasslib.RootData{Groups: top}
	return db
}

func symbol(e gokeepasslib.Entry, key string) vault.Symbol {
	sym, err := vault.ParseSymbol(e.GetContent(key))
	if err != nil {
		return vault.SymbolNone
	}
	return sym
}

// Extract converts a KeePass database into vault data with ids starting at
// 1. Top-level KeePass groups get parent 0.
func Extract(db *gokeepasslib.Database) (*vault.Data, error) {
	d := &vault.Data{Groups: []vault.Group{}, Records: []vault.Record{}}
	if db == nil || db.Content == nil || db.Content.Root == nil {
		return d, nil
	}

	var walk func(pid uint32, groups []gokeepasslib.Group) error
	walk = func(pid uint32, groups []gokeepasslib.Group) error {
		for _, kg := range groups {
			g, err := d.AddGroup(pid, kg.Name)
			if err != nil {
				return err
			}
			for _, e := range kg.Entries {
				_, err := d.AddRecord(vault.Record{
					PID:            g.ID,
					Name:           e.GetTitle(),
					Login:          e.GetContent(fieldUserName),
					Password:       e.GetPassword(),
					URL:            e.GetContent(fieldURL),
					LoginSymbol:    symbol(e, fieldLoginSymbol),
					PasswordSymbol: symbol(e, fieldPasswordSymbol),
					URLSymbol:      symbol(e, fieldURLSymbol),
				})
				if err != nil {
					return err
				}
			}
			if err := walk(g.ID, kg.Groups); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, db.Content.Root.Groups); err != nil {
		return nil, err
	}
	return d, nil
}

// Export writes d to a new KDBX file at path, locked with password.
func Export(d *vault.Data, path, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	db := Build(d)
	db.Credentials = gokeepasslib.NewPasswordCredentials(password)
	if err := db.LockProtectedEntries(); err != nil {
		return fmt.Errorf("failed to lock protected entries: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := gokeepasslib.NewEncoder(file).Encode(db); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}

// Import reads the KDBX file at path and converts it to vault data.
func Import(path, password string) (*vault.Data, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	db := gokeepasslib.NewDatabase()
	db.Credentials = gokeepasslib.NewPasswordCredentials(password)
	if err := gokeepasslib.NewDecoder(file).Decode(db); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if err := db.UnlockProtectedEntries(); err != nil {
		return nil, fmt.Errorf("failed to unlock protected entries: %w", err)
	}
	return Extract(db)
}
