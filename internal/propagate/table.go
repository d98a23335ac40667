package propagate

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
)

// ErrAlreadyResolved is returned when a package is recorded twice with
// different versions.
var ErrAlreadyResolved = errors.New("version already resolved")

// Resolved is one row of the table.
type Resolved struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Table maps package names to their resolved versions for one run. Each
// package is written once; rows keep insertion order.
type Table struct {
	rows  []Resolved
	index map[string]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Record stores the version of name. Recording the same version again is a
// no-op; a different version is an error.
func (t *Table) Record(name, version string) error {
	if i, ok := t.index[name]; ok {
		if t.rows[i].Version == version {
			return nil
		}
		return fmt.Errorf("%w: %s is %s, cannot set %s", ErrAlreadyResolved, name, t.rows[i].Version, version)
	}
	t.index[name] = len(t.rows)
	t.rows = append(t.rows, Resolved{Name: name, Version: version})
	return nil
}

// Lookup returns the resolved version of name.
func (t *Table) Lookup(name string) (string, bool) {
	i, ok := t.index[name]
	if !ok {
		return "", false
	}
	return t.rows[i].Version, true
}

// Rows returns the table in insertion order.
func (t *Table) Rows() []Resolved {
	return append([]Resolved(nil), t.rows...)
}

// Len returns the number of resolved packages.
func (t *Table) Len() int {
	return len(t.rows)
}

type tableFile struct {
	Packages []Resolved `yaml:"packages"`
}

// MarshalYAML implements yaml.Marshaler.
func (t *Table) MarshalYAML() (interface{}, error) {
	return tableFile{Packages: t.Rows()}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Table) UnmarshalYAML(value *yaml.Node) error {
	var f tableFile
	if err := value.Decode(&f); err != nil {
		return err
	}
	*t = *NewTable()
	for _, r := range f.Packages {
		if r.Name == "" || r.Version == "" {
			return fmt.Errorf("versions table row needs name and version, got %+v", r)
		}
		if err := t.Record(r.Name, r.Version); err != nil {
			return err
		}
	}
	return nil
}

// SaveTable writes t as YAML to path on fs.
func SaveTable(fs afero.Fs, path string, t *Table) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding versions table: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing versions table %s: %w", path, err)
	}
	return nil
}

// LoadTable reads a table saved by SaveTable.
func LoadTable(fs afero.Fs, path string) (*Table, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading versions table %s: %w", path, err)
	}
	t := NewTable()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parsing versions table %s: %w", path, err)
	}
	return t, nil
}
