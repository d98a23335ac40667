package propagate

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bumpwright/bumpwright/internal/manifest"
	"github.com/bumpwright/bumpwright/internal/registry"
	"github.com/bumpwright/bumpwright/internal/version"
)

// ErrUnresolvedDependency is returned when a manifest references a
// registered package whose version has not been resolved yet.
var ErrUnresolvedDependency = errors.New("unresolved dependency")

// DefaultDependencyTables are the manifest tables whose entries are
// dependency references.
var DefaultDependencyTables = []string{"dependencies"}

// Change is one version rewrite.
type Change struct {
	Package string
	Old     string
	New     string
}

// DependencyChange is one rewritten reference inside a dependent manifest.
type DependencyChange struct {
	Change
	// Section is the manifest section holding the reference.
	Section string
	// Key is the entry key for catch-all tables, the shared first segment
	// for dotted keys, and empty for a dependency-per-section block.
	Key string
}

// Options configure an Engine.
type Options struct {
	// DependencyTables defaults to DefaultDependencyTables.
	DependencyTables []string
	Logger           *zap.Logger
}

// Engine resolves versions into a Table and rewrites manifests from it.
type Engine struct {
	reg    *registry.Registry
	table  *Table
	tables []string
	log    *zap.Logger
}

// NewEngine returns an engine recording into table.
func NewEngine(reg *registry.Registry, table *Table, opts Options) *Engine {
	e := &Engine{
		reg:    reg,
		table:  table,
		tables: opts.DependencyTables,
		log:    opts.Logger,
	}
	if len(e.tables) == 0 {
		e.tables = DefaultDependencyTables
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Table returns the table the engine records into.
func (e *Engine) Table() *Table {
	return e.table
}

// ResolveOwnVersion bumps the version entry of the "package" section of doc
// and records the result for pkg. With version.None the version is taken
// from the table when it already holds pkg, otherwise it is kept.
func (e *Engine) ResolveOwnVersion(doc *manifest.Document, pkg string, class version.Class) (Change, error) {
	section := doc.Section("package")
	if section == nil {
		return Change{}, fmt.Errorf("%s: %w: [package]", pkg, manifest.ErrSectionNotFound)
	}
	raw, ok := section.Get("version")
	if !ok {
		return Change{}, fmt.Errorf("%s: %w: no version entry in [package]", pkg, version.ErrInvalid)
	}
	old, ok := manifest.StringValue(raw)
	if !ok {
		return Change{}, fmt.Errorf("%s: %w: version is not a string: %s", pkg, version.ErrInvalid, raw)
	}

	var next string
	var err error
	if resolved, ok := e.table.Lookup(pkg); ok && class == version.None {
		_, err = version.Parse(resolved)
		next = resolved
	} else {
		next, err = version.BumpString(old, class)
	}
	if err != nil {
		return Change{}, fmt.Errorf("%s: %w", pkg, err)
	}

	if err := e.table.Record(pkg, next); err != nil {
		return Change{}, err
	}
	if next != old {
		section.Set("version", manifest.ReplaceString(raw, next))
	}
	if older, err := version.IsNewer(next, old); err == nil && older {
		e.log.Warn("version goes backwards", zap.String("package", pkg), zap.String("old", old), zap.String("new", next))
	}

	e.log.Info("resolved version", zap.String("package", pkg), zap.String("old", old), zap.String("new", next))
	return Change{Package: pkg, Old: old, New: next}, nil
}

// reference is a registered dependency found in a manifest.
type reference struct {
	section *manifest.Section
	key     string // empty for a dependency-per-section block
	// fields maps each field of a dependency written as dotted keys
	// (foo.version, foo.path) to the key spelling used in the section.
	// prefix is the spelling of the shared first segment.
	fields  map[string]string
	prefix  string
	name    string
	version string
}

// references lists every reference to a registered package in the
// dependency tables of doc, in document order.
func (e *Engine) references(doc *manifest.Document) ([]reference, error) {
	var refs []reference
	for _, section := range doc.Sections() {
		for _, table := range e.tables {
			if section.Name == table {
				dotted := make(map[string]bool)
				for _, key := range section.Keys() {
					path := manifest.SplitKey(key)
					name := path[0]
					if len(path) > 1 {
						if dotted[name] {
							continue
						}
						dotted[name] = true
						ref, ok, err := e.dottedReference(section, name)
						if err != nil {
							return nil, err
						}
						if ok {
							refs = append(refs, ref)
						}
						continue
					}

					raw, _ := section.Get(key)
					ref, err := DecodeEntry(name, raw)
					if err != nil {
						if e.reg.IsRegistered(name) {
							return nil, fmt.Errorf("[%s]: %w", section.Name, err)
						}
						continue
					}
					if e.reg.IsRegistered(ref.Package) {
						refs = append(refs, reference{section: section, key: key, name: ref.Package, version: ref.Version})
					}
				}
				continue
			}

			dep, ok := section.IsDependencyOf(table)
			if !ok {
				continue
			}
			if raw, ok := section.Get("package"); ok {
				alias, ok := manifest.StringValue(raw)
				if !ok {
					return nil, fmt.Errorf("[%s]: %w: package alias is not a string", section.Name, manifest.ErrMalformed)
				}
				dep = alias
			}
			if e.reg.IsRegistered(dep) {
				raw, _ := section.Get("version")
				current, _ := manifest.StringValue(raw)
				refs = append(refs, reference{section: section, name: dep, version: current})
			}
		}
	}
	return refs, nil
}

// dottedReference gathers the "name.field = value" entries of section into
// one reference. It reports false when the dependency is not registered.
func (e *Engine) dottedReference(section *manifest.Section, name string) (reference, bool, error) {
	ref := reference{section: section, name: name, fields: make(map[string]string)}
	for _, key := range section.Keys() {
		path := manifest.SplitKey(key)
		if len(path) < 2 || path[0] != name {
			continue
		}
		if ref.prefix == "" {
			ref.prefix = strings.TrimSpace(manifest.SplitTopLevel(key, '.')[0])
		}
		ref.fields[strings.Join(path[1:], ".")] = key
	}

	if key, ok := ref.fields["package"]; ok {
		raw, _ := section.Get(key)
		alias, ok := manifest.StringValue(raw)
		if !ok {
			return reference{}, false, fmt.Errorf("[%s]: %w: package alias of %s is not a string", section.Name, manifest.ErrMalformed, name)
		}
		ref.name = alias
	}
	if !e.reg.IsRegistered(ref.name) {
		return reference{}, false, nil
	}
	if key, ok := ref.fields["version"]; ok {
		raw, _ := section.Get(key)
		v, ok := manifest.StringValue(raw)
		if !ok {
			return reference{}, false, fmt.Errorf("[%s]: %w", section.Name, malformed(key, "version is not a string"))
		}
		ref.version = v
	}
	return ref, true, nil
}

// Dependencies returns the registered packages doc depends on, without
// duplicates, in document order.
func (e *Engine) Dependencies(doc *manifest.Document) ([]string, error) {
	refs, err := e.references(doc)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, r := range refs {
		if !seen[r.name] {
			seen[r.name] = true
			names = append(names, r.name)
		}
	}
	return names, nil
}

// PropagateDependencies points every reference to a registered package at
// its resolved version and drops local path and git overrides. It returns
// the references whose text changed. A registered package missing from the
// table is an ErrUnresolvedDependency and leaves doc untouched.
func (e *Engine) PropagateDependencies(doc *manifest.Document) ([]DependencyChange, error) {
	refs, err := e.references(doc)
	if err != nil {
		return nil, err
	}
	for _, r := range refs {
		if _, ok := e.table.Lookup(r.name); !ok {
			return nil, fmt.Errorf("%w: %s referenced from [%s] has no resolved version", ErrUnresolvedDependency, r.name, r.section.Name)
		}
	}

	var changes []DependencyChange
	for _, r := range refs {
		next, _ := e.table.Lookup(r.name)
		changed := false

		switch {
		case r.fields != nil:
			key, ok := r.fields["version"]
			if !ok {
				key = r.prefix + ".version"
			}
			raw, _ := r.section.Get(key)
			if !ok || r.version != next {
				r.section.Set(key, manifest.ReplaceString(raw, next))
				changed = true
			}
			for field := range overrideKeys {
				if key, ok := r.fields[field]; ok && r.section.Delete(key) {
					changed = true
				}
			}
		case r.key != "":
			raw, _ := r.section.Get(r.key)
			rewritten, err := RewriteEntry(r.key, raw, next)
			if err != nil {
				return nil, fmt.Errorf("[%s]: %w", r.section.Name, err)
			}
			if rewritten != raw {
				r.section.Set(r.key, rewritten)
				changed = true
			}
		default:
			raw, ok := r.section.Get("version")
			if !ok || r.version != next {
				r.section.Set("version", manifest.ReplaceString(raw, next))
				changed = true
			}
			for key := range overrideKeys {
				if r.section.Delete(key) {
					changed = true
				}
			}
		}

		if !changed {
			continue
		}
		e.log.Debug("rewrote dependency",
			zap.String("section", r.section.Name),
			zap.String("dependency", r.name),
			zap.String("old", r.version),
			zap.String("new", next))
		changes = append(changes, DependencyChange{
			Change:  Change{Package: r.name, Old: r.version, New: next},
			Section: r.section.Name,
			Key:     r.key + r.prefix,
		})
	}
	return changes, nil
}
