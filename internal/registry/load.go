package registry

import (
	_ "embed"
	"fmt"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
)

//go:embed default.yaml
var defaultTable []byte

// Default returns the built-in gtk-rs package table.
func Default() (*Registry, error) {
	return Parse(defaultTable)
}

// Load reads a registry table from path on fs.
func Load(fs afero.Fs, path string) (*Registry, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse validates data against the registry schema and builds a Registry.
func Parse(data []byte) (*Registry, error) {
	if err := checkSchema(data); err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return New(f.Packages, f.BindingSuffixes)
}

// Marshal renders the registry back to its YAML table form.
func (r *Registry) Marshal() ([]byte, error) {
	return yaml.Marshal(File{
		BindingSuffixes: r.bindingSuffixes,
		Packages:        r.packages,
	})
}
