package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalid is returned for a registry table that breaks its schema or
	// contains duplicate names.
	ErrInvalid = errors.New("invalid registry")

	// ErrUnknownPackage is returned when a name is not in the registry.
	ErrUnknownPackage = errors.New("unknown package")

	// ErrCycle is returned when the dependency graph has no topological order.
	ErrCycle = errors.New("dependency cycle")
)

// DefaultBindingSuffixes classify "-sys" style native binding packages.
var DefaultBindingSuffixes = []string{"-sys", "-sys-rs"}

// Package describes one released package.
type Package struct {
	Name       string   `yaml:"name" json:"name"`
	Repository string   `yaml:"repository" json:"repository"`
	Path       string   `yaml:"path" json:"path"`                                 // relative to the repository root
	DocName    string   `yaml:"doc_name,omitempty" json:"doc_name,omitempty"`     // documentation alias
	DependsOn  []string `yaml:"depends_on,omitempty" json:"depends_on,omitempty"` // edges the manifests do not show
}

// File is the on-disk shape of a registry table.
type File struct {
	BindingSuffixes []string  `yaml:"binding_suffixes,omitempty" json:"binding_suffixes,omitempty"`
	Packages        []Package `yaml:"packages" json:"packages"`
}

// Registry is the read-only package table.
type Registry struct {
	packages        []Package
	index           map[string]int
	bindingSuffixes []string
}

// New builds a registry from packages in declaration order. A nil suffix
// list selects DefaultBindingSuffixes.
func New(packages []Package, bindingSuffixes []string) (*Registry, error) {
	if bindingSuffixes == nil {
		bindingSuffixes = DefaultBindingSuffixes
	}
	r := &Registry{
		packages:        make([]Package, 0, len(packages)),
		index:           make(map[string]int, len(packages)),
		bindingSuffixes: append([]string(nil), bindingSuffixes...),
	}

	for _, p := range packages {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: package with empty name", ErrInvalid)
		}
		if p.Repository == "" {
			return nil, fmt.Errorf("%w: package %q has no repository", ErrInvalid, p.Name)
		}
		if _, dup := r.index[p.Name]; dup {
			return nil, fmt.Errorf("%w: package %q declared twice", ErrInvalid, p.Name)
		}
		p.DependsOn = append([]string(nil), p.DependsOn...)
		r.index[p.Name] = len(r.packages)
		r.packages = append(r.packages, p)
	}

	for _, p := range r.packages {
		for _, dep := range p.DependsOn {
			if !r.IsRegistered(dep) {
				return nil, fmt.Errorf("%w %q in depends_on of %q", ErrUnknownPackage, dep, p.Name)
			}
		}
	}

	return r, nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Package, bool) {
	i, ok := r.index[name]
	if !ok {
		return Package{}, false
	}
	return r.packages[i], true
}

// IsRegistered reports whether name is managed by this registry.
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.index[name]
	return ok
}

// IsBindingPackage reports whether name is a registered system-binding
// package, i.e. its name ends with one of the binding suffixes.
func (r *Registry) IsBindingPackage(name string) bool {
	if !r.IsRegistered(name) {
		return false
	}
	for _, suffix := range r.bindingSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Packages returns every descriptor in declaration order.
func (r *Registry) Packages() []Package {
	return append([]Package(nil), r.packages...)
}

// Len returns the number of registered packages.
func (r *Registry) Len() int {
	return len(r.packages)
}

// Repositories returns repository names in order of first appearance.
func (r *Registry) Repositories() []string {
	seen := make(map[string]bool)
	var repos []string
	for _, p := range r.packages {
		if !seen[p.Repository] {
			seen[p.Repository] = true
			repos = append(repos, p.Repository)
		}
	}
	return repos
}

// InRepository returns the packages hosted in repo, in declaration order.
func (r *Registry) InRepository(repo string) []Package {
	var out []Package
	for _, p := range r.packages {
		if p.Repository == repo {
			out = append(out, p)
		}
	}
	return out
}
