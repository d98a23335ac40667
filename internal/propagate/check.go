package propagate

import (
	"context"

	"go.uber.org/multierr"

	"github.com/bumpwright/bumpwright/internal/manifest"
)

// Report is the health of one manifest.
type Report struct {
	Package string
	Path    string
	// Err is set when the manifest cannot be read, parsed or decoded.
	Err error
	// Normalized is set when rewriting the manifest would change more than
	// the values being edited (whitespace around "=", trailing blank lines).
	Normalized bool
	// TOMLErr is set when the manifest is not valid TOML. Such manifests are
	// still rewritten but their output is not validated.
	TOMLErr error
}

// Check inspects every manifest of the registry without modifying anything,
// then verifies that the registry graph plus manifest edges can be ordered.
// The returned error aggregates every failure; reports cover every package.
func (r *Runner) Check(ctx context.Context) ([]Report, error) {
	engine := r.engine(NewTable())

	var (
		reports []Report
		errs    error
	)
	for _, p := range r.Registry.Packages() {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep := Report{Package: p.Name, Path: r.manifestPath(p)}
		reports = append(reports, r.inspect(engine, rep))
		if err := reports[len(reports)-1].Err; err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return reports, errs
	}

	if _, _, err := r.Plan(ctx); err != nil {
		return reports, err
	}
	return reports, nil
}

func (r *Runner) inspect(engine *Engine, rep Report) Report {
	text, err := r.Store.Read(rep.Path)
	if err != nil {
		rep.Err = err
		return rep
	}
	doc, err := manifest.Parse(text)
	if err != nil {
		rep.Err = err
		return rep
	}
	if doc.Section("package") == nil {
		rep.Err = manifest.ErrSectionNotFound
		return rep
	}
	if _, err := engine.Dependencies(doc); err != nil {
		rep.Err = err
		return rep
	}
	rep.Normalized = doc.String() != text
	rep.TOMLErr = manifest.Validate(text)
	return rep
}
