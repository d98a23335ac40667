package propagate

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/bumpwright/bumpwright/internal/manifest"
	"github.com/bumpwright/bumpwright/internal/registry"
	"github.com/bumpwright/bumpwright/internal/version"
	"github.com/bumpwright/bumpwright/internal/workspace"
)

// DefaultManifestName is the manifest file name inside a package directory.
const DefaultManifestName = "Cargo.toml"

// Store reads and writes whole files relative to the workspace root.
type Store interface {
	Read(path string) (string, error)
	Write(path, text string) error
}

// Request describes one run.
type Request struct {
	Class version.Class
	// Package restricts the run to one package. Only its own version is
	// rewritten.
	Package string
	// DryRun computes everything without writing.
	DryRun bool
}

// ManifestResult is the outcome for one manifest.
type ManifestResult struct {
	Package      string
	Path         string
	Version      Change
	Dependencies []DependencyChange
	// Text is the rewritten manifest.
	Text    string
	Changed bool
}

// Result is the outcome of a run.
type Result struct {
	Order     []string
	Manifests []ManifestResult
	Table     *Table
	// Written lists the paths written, empty on a dry run.
	Written []string
}

// Runner drives a run over every manifest of a registry.
type Runner struct {
	Registry         *registry.Registry
	Store            Store
	ManifestName     string
	DependencyTables []string
	Logger           *zap.Logger
}

type loaded struct {
	pkg       registry.Package
	path      string
	text      string
	doc       *manifest.Document
	validTOML bool
}

// Run loads every manifest, resolves versions in dependency order, and
// writes the rewritten manifests. table may be nil or hold versions from an
// earlier pass. Any error before the write phase leaves every file untouched.
func (r *Runner) Run(ctx context.Context, req Request, table *Table) (*Result, error) {
	log := r.logger()
	if table == nil {
		table = NewTable()
	}
	engine := r.engine(table)

	pkgs := r.Registry.Packages()
	if req.Package != "" {
		p, ok := r.Registry.Lookup(req.Package)
		if !ok {
			return nil, fmt.Errorf("%w %q", registry.ErrUnknownPackage, req.Package)
		}
		pkgs = []registry.Package{p}
	}

	manifests, err := r.load(ctx, pkgs)
	if err != nil {
		return nil, err
	}

	order := []string{req.Package}
	if req.Package == "" {
		g, err := r.graph(engine, manifests)
		if err != nil {
			return nil, err
		}
		if order, err = g.Order(); err != nil {
			return nil, err
		}
	}

	result := &Result{Order: order, Table: table}
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mr, err := r.rewrite(engine, req, manifests[name])
		if err != nil {
			return nil, err
		}
		result.Manifests = append(result.Manifests, mr)
	}

	if req.DryRun {
		log.Info("dry run, nothing written", zap.Int("manifests", len(result.Manifests)))
		return result, nil
	}

	for _, mr := range result.Manifests {
		if !mr.Changed {
			continue
		}
		if err := r.Store.Write(mr.Path, mr.Text); err != nil {
			return result, fmt.Errorf("%s: %w", mr.Package, err)
		}
		result.Written = append(result.Written, mr.Path)
	}
	log.Info("run complete", zap.Int("manifests", len(result.Manifests)), zap.Int("written", len(result.Written)))
	return result, nil
}

// Plan loads every manifest and returns the dependency graph of a full run
// with its processing order.
func (r *Runner) Plan(ctx context.Context) (*registry.Graph, []string, error) {
	manifests, err := r.load(ctx, r.Registry.Packages())
	if err != nil {
		return nil, nil, err
	}
	g, err := r.graph(r.engine(NewTable()), manifests)
	if err != nil {
		return nil, nil, err
	}
	order, err := g.Order()
	if err != nil {
		return g, nil, err
	}
	return g, order, nil
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) engine(table *Table) *Engine {
	return NewEngine(r.Registry, table, Options{DependencyTables: r.DependencyTables, Logger: r.logger()})
}

func (r *Runner) manifestPath(p registry.Package) string {
	name := r.ManifestName
	if name == "" {
		name = DefaultManifestName
	}
	return workspace.ManifestPath(p.Repository, p.Path, name)
}

// load reads and parses the manifests of pkgs, reporting every failure.
func (r *Runner) load(ctx context.Context, pkgs []registry.Package) (map[string]*loaded, error) {
	var errs error
	out := make(map[string]*loaded, len(pkgs))
	for _, p := range pkgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := r.manifestPath(p)
		text, err := r.Store.Read(path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.Name, err))
			continue
		}
		doc, err := manifest.Parse(text)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s (%s): %w", p.Name, path, err))
			continue
		}
		out[p.Name] = &loaded{
			pkg:       p,
			path:      path,
			text:      text,
			doc:       doc,
			validTOML: manifest.Validate(text) == nil,
		}
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

// graph returns the registry graph plus the edges found in the manifests.
func (r *Runner) graph(engine *Engine, manifests map[string]*loaded) (*registry.Graph, error) {
	g := r.Registry.Graph()
	var errs error
	for _, p := range r.Registry.Packages() {
		m := manifests[p.Name]
		deps, err := engine.Dependencies(m.doc)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s (%s): %w", p.Name, m.path, err))
			continue
		}
		for _, dep := range deps {
			if err := g.AddEdge(p.Name, dep); err != nil {
				return nil, err
			}
		}
	}
	if errs != nil {
		return nil, errs
	}
	return g, nil
}

func (r *Runner) rewrite(engine *Engine, req Request, m *loaded) (ManifestResult, error) {
	mr := ManifestResult{Package: m.pkg.Name, Path: m.path}

	change, err := engine.ResolveOwnVersion(m.doc, m.pkg.Name, req.Class)
	if err != nil {
		return mr, fmt.Errorf("%s (%s): %w", m.pkg.Name, m.path, err)
	}
	mr.Version = change

	if req.Package == "" {
		deps, err := engine.PropagateDependencies(m.doc)
		if err != nil {
			return mr, fmt.Errorf("%s (%s): %w", m.pkg.Name, m.path, err)
		}
		mr.Dependencies = deps
	}

	mr.Text = m.doc.String()
	mr.Changed = change.Old != change.New || len(mr.Dependencies) > 0
	if mr.Changed && m.validTOML {
		if err := manifest.Validate(mr.Text); err != nil {
			return mr, fmt.Errorf("%s (%s): rewritten manifest: %w", m.pkg.Name, m.path, err)
		}
	}
	return mr, nil
}
