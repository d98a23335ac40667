package propagate

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bumpwright/bumpwright/internal/manifest"
	"github.com/bumpwright/bumpwright/internal/registry"
	"github.com/bumpwright/bumpwright/internal/version"
	"github.com/bumpwright/bumpwright/internal/workspace"
)

// chainWorkspace builds A <- B <- C where C also uses A directly. The
// registry lists them backwards so only the computed order can be right.
func chainWorkspace(t *testing.T) (afero.Fs, *registry.Registry) {
	t.Helper()
	reg, err := registry.New([]registry.Package{
		{Name: "c", Repository: "c"},
		{Name: "b", Repository: "b"},
		{Name: "a", Repository: "core", Path: "a"},
	}, nil)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/ws/core/a/Cargo.toml": "[package]\nname = \"a\"\nversion = \"1.0.0\"\n",
		"/ws/b/Cargo.toml":      "[package]\nname = \"b\"\nversion = \"0.3.0\"\n\n[dependencies]\na = { version = \"1.0.0\", path = \"../core/a\" }\n",
		"/ws/c/Cargo.toml": "[package]\nname = \"c\"\nversion = \"0.1.9\"\n\n[dependencies]\nb = \"0.3.0\"\nlibc = \"0.2\"\n\n" +
			"[dependencies.a]\nversion = \"1.0.0\"\ngit = \"https://example.org/core\"\n",
	}
	for path, text := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(text), 0o644))
	}
	return fs, reg
}

func newRunner(fs afero.Fs, reg *registry.Registry) *Runner {
	return &Runner{
		Registry: reg,
		Store:    workspace.New(fs, "/ws", nil),
	}
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestRun_OrderAndPropagation(t *testing.T) {
	fs, reg := chainWorkspace(t)

	result, err := newRunner(fs, reg).Run(context.Background(), Request{Class: version.Minor}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, result.Order)
	assert.Len(t, result.Written, 3)

	assert.Equal(t, "[package]\nname = \"a\"\nversion = \"1.0.1\"\n", readFile(t, fs, "/ws/core/a/Cargo.toml"))
	assert.Equal(t, "[package]\nname = \"b\"\nversion = \"0.3.1\"\n\n[dependencies]\na = { version = \"1.0.1\" }\n",
		readFile(t, fs, "/ws/b/Cargo.toml"))
	assert.Equal(t, "[package]\nname = \"c\"\nversion = \"0.1.10\"\n\n[dependencies]\nb = \"0.3.1\"\nlibc = \"0.2\"\n\n"+
		"[dependencies.a]\nversion = \"1.0.1\"\n", readFile(t, fs, "/ws/c/Cargo.toml"))

	assert.Equal(t, []Resolved{{"a", "1.0.1"}, {"b", "0.3.1"}, {"c", "0.1.10"}}, result.Table.Rows())
}

func TestRun_DryRun(t *testing.T) {
	fs, reg := chainWorkspace(t)
	before := readFile(t, fs, "/ws/c/Cargo.toml")

	result, err := newRunner(fs, reg).Run(context.Background(), Request{Class: version.Major, DryRun: true}, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Written)
	assert.Equal(t, before, readFile(t, fs, "/ws/c/Cargo.toml"))
	require.Len(t, result.Manifests, 3)
	assert.Contains(t, result.Manifests[2].Text, "version = \"2.0.0\"")
	assert.Len(t, result.Manifests[2].Dependencies, 2)
}

func TestRun_InvalidVersionWritesNothing(t *testing.T) {
	fs, reg := chainWorkspace(t)
	require.NoError(t, afero.WriteFile(fs, "/ws/c/Cargo.toml", []byte("[package]\nname = \"c\"\nversion = \"1.2\"\n"), 0o644))
	beforeA := readFile(t, fs, "/ws/core/a/Cargo.toml")

	_, err := newRunner(fs, reg).Run(context.Background(), Request{Class: version.Minor}, nil)
	require.ErrorIs(t, err, version.ErrInvalid)
	assert.Equal(t, beforeA, readFile(t, fs, "/ws/core/a/Cargo.toml"))
}

func TestRun_ReportsEveryBrokenManifest(t *testing.T) {
	fs, reg := chainWorkspace(t)
	require.NoError(t, fs.Remove("/ws/b/Cargo.toml"))
	require.NoError(t, afero.WriteFile(fs, "/ws/c/Cargo.toml", []byte("[package]\nname = \"c\"\nx = }\n"), 0o644))

	_, err := newRunner(fs, reg).Run(context.Background(), Request{Class: version.Minor}, nil)
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.True(t, strings.HasPrefix(errs[0].Error(), "c "), errs[0].Error())
	assert.ErrorIs(t, errs[0], manifest.ErrMalformed)
	assert.True(t, strings.HasPrefix(errs[1].Error(), "b: "), errs[1].Error())
}

func TestRun_Cycle(t *testing.T) {
	fs, reg := chainWorkspace(t)
	require.NoError(t, afero.WriteFile(fs, "/ws/core/a/Cargo.toml",
		[]byte("[package]\nname = \"a\"\nversion = \"1.0.0\"\n\n[dependencies]\nc = \"0.1.9\"\n"), 0o644))

	_, err := newRunner(fs, reg).Run(context.Background(), Request{Class: version.Minor}, nil)
	assert.ErrorIs(t, err, registry.ErrCycle)
}

func TestRun_SinglePackage(t *testing.T) {
	fs, reg := chainWorkspace(t)

	result, err := newRunner(fs, reg).Run(context.Background(), Request{Class: version.Medium, Package: "c"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"c"}, result.Order)
	text := readFile(t, fs, "/ws/c/Cargo.toml")
	assert.Contains(t, text, "version = \"0.2.0\"")
	assert.Contains(t, text, "b = \"0.3.0\"", "pins untouched")
	assert.Contains(t, text, "git = ", "overrides untouched")

	_, err = newRunner(fs, reg).Run(context.Background(), Request{Class: version.Medium, Package: "zz"}, nil)
	assert.ErrorIs(t, err, registry.ErrUnknownPackage)
}

func TestRun_PinPass(t *testing.T) {
	fs, reg := chainWorkspace(t)
	table := resolved(t, "a", "1.1.0")

	result, err := newRunner(fs, reg).Run(context.Background(), Request{Class: version.None}, table)
	require.NoError(t, err)

	assert.Equal(t, []string{"core/a/Cargo.toml", "b/Cargo.toml", "c/Cargo.toml"}, result.Written)
	assert.Contains(t, readFile(t, fs, "/ws/core/a/Cargo.toml"), "version = \"1.1.0\"")
	assert.Contains(t, readFile(t, fs, "/ws/b/Cargo.toml"), "version = \"0.3.0\"\n")
	assert.Contains(t, readFile(t, fs, "/ws/b/Cargo.toml"), "a = { version = \"1.1.0\" }")

	// A second pin pass has nothing left to do.
	result, err = newRunner(fs, reg).Run(context.Background(), Request{Class: version.None}, table)
	require.NoError(t, err)
	assert.Empty(t, result.Written)
}

func TestRun_WriteFailure(t *testing.T) {
	fs, reg := chainWorkspace(t)
	runner := &Runner{Registry: reg, Store: workspace.New(afero.NewReadOnlyFs(fs), "/ws", nil)}

	_, err := runner.Run(context.Background(), Request{Class: version.Minor}, nil)
	assert.ErrorIs(t, err, workspace.ErrWriteFailure)
}

func TestRun_Canceled(t *testing.T) {
	fs, reg := chainWorkspace(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRunner(fs, reg).Run(ctx, Request{Class: version.Minor}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Logs(t *testing.T) {
	fs, reg := chainWorkspace(t)
	core, logs := observer.New(zap.DebugLevel)
	runner := newRunner(fs, reg)
	runner.Logger = zap.New(core)

	_, err := runner.Run(context.Background(), Request{Class: version.Minor, DryRun: true}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, logs.FilterMessage("resolved version").Len())
	assert.Equal(t, 3, logs.FilterMessage("rewrote dependency").Len())
}
