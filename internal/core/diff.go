package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/illarion/kakadu/internal/vault"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const maskedPassword = "********"

// renderForDiff prints one group or record per line, sorted by id, so a
// line diff lines up entries regardless of their order in the file.
func renderForDiff(d *vault.Data, maskSecrets bool) (string, error) {
	c := d.Clone()
	sort.Slice(c.Groups, func(i, j int) bool { return c.Groups[i].ID < c.Groups[j].ID })
	sort.Slice(c.Records, func(i, j int) bool { return c.Records[i].ID < c.Records[j].ID })

	var b strings.Builder
	for _, g := range c.Groups {
		line, err := json.Marshal(g)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "group %s\n", line)
	}
	for _, r := range c.Records {
		if maskSecrets && r.Password != "" {
			r.Password = maskedPassword
		}
		line, err := json.Marshal(r)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "record %s\n", line)
	}
	return b.String(), nil
}

// DiffVaults returns a line diff from a to b with full context, or "" if
// they hold the same groups and records. Passwords are masked when maskSecrets is set.
func DiffVaults(aName string, a *vault.Data, bName string, b *vault.Data, maskSecrets bool) (string, error) {
	left, err := renderForDiff(a, maskSecrets)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", aName, err)
	}
	right, err := renderForDiff(b, maskSecrets)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", bName, err)
	}
	if left == right {
		return "", nil
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff for better output
	x, y, lineArray := dmp.DiffLinesToChars(left, right)
	diffs := dmp.DiffMain(x, y, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- a/%s\n", aName))
	result.WriteString(fmt.Sprintf("+++ b/%s\n", bName))
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			result.WriteString(prefix)
			result.WriteString(line)
		}
	}

	return result.String(), nil
}
