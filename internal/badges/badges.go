// Package badges updates the "max_version" fields of the website's
// crates.json from a versions table.
package badges

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	nameField    = regexp.MustCompile(`^(\s*"name"\s*:\s*)"([^"]*)"`)
	versionField = regexp.MustCompile(`^(\s*"max_version"\s*:\s*)"([^"]*)"`)
)

// Lookup returns the resolved version of a package.
type Lookup func(name string) (string, bool)

// Update is one rewritten max_version field.
type Update struct {
	Name string
	Old  string
	New  string
	Line int
}

// Rewrite returns text with the max_version following each "name" of a
// resolved package set to its version. Only those values change; every other
// byte is kept. A non-empty only restricts the rewrite to that package.
func Rewrite(text string, lookup Lookup, only string, log *zap.Logger) (string, []Update, error) {
	if log == nil {
		log = zap.NewNop()
	}

	lines := strings.Split(text, "\n")
	var (
		updates []Update
		current string
	)
	for i, line := range lines {
		if m := nameField.FindStringSubmatch(line); m != nil {
			current = m[2]
			if only != "" && current != only {
				current = ""
			}
			continue
		}
		m := versionField.FindStringSubmatchIndex(line)
		if m == nil || current == "" {
			continue
		}

		next, ok := lookup(current)
		if !ok {
			log.Debug("no resolved version", zap.String("package", current))
			current = ""
			continue
		}
		old := line[m[4]:m[5]]
		if strings.ContainsAny(next, `"\`) {
			return "", nil, fmt.Errorf("line %d: version %q of %s cannot be written", i+1, next, current)
		}
		if old != next {
			lines[i] = line[:m[4]] + next + line[m[5]:]
			updates = append(updates, Update{Name: current, Old: old, New: next, Line: i + 1})
			log.Debug("updated badge", zap.String("package", current), zap.String("old", old), zap.String("new", next))
		}
		current = ""
	}
	return strings.Join(lines, "\n"), updates, nil
}
