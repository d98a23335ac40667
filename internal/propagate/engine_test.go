package propagate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bumpwright/bumpwright/internal/manifest"
	"github.com/bumpwright/bumpwright/internal/registry"
	"github.com/bumpwright/bumpwright/internal/version"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]registry.Package{
		{Name: "foo", Repository: "foo"},
		{Name: "foo-sys", Repository: "sys", Path: "foo-sys"},
		{Name: "bar", Repository: "bar"},
	}, nil)
	require.NoError(t, err)
	return reg
}

func parse(t *testing.T, text string) *manifest.Document {
	t.Helper()
	doc, err := manifest.Parse(text)
	require.NoError(t, err)
	return doc
}

func resolved(t *testing.T, pairs ...string) *Table {
	t.Helper()
	table := NewTable()
	for i := 0; i+1 < len(pairs); i += 2 {
		require.NoError(t, table.Record(pairs[i], pairs[i+1]))
	}
	return table
}

func TestResolveOwnVersion_Minor(t *testing.T) {
	table := NewTable()
	e := NewEngine(testRegistry(t), table, Options{})
	doc := parse(t, "[package]\nname = \"foo\"\nversion = \"1.2.3\"\n")

	change, err := e.ResolveOwnVersion(doc, "foo", version.Minor)
	require.NoError(t, err)

	assert.Equal(t, Change{Package: "foo", Old: "1.2.3", New: "1.2.4"}, change)
	assert.Equal(t, "[package]\nname = \"foo\"\nversion = \"1.2.4\"\n", doc.String())
	v, ok := table.Lookup("foo")
	assert.True(t, ok)
	assert.Equal(t, "1.2.4", v)
}

func TestResolveOwnVersion_MajorKeepsPrefix(t *testing.T) {
	e := NewEngine(testRegistry(t), NewTable(), Options{})
	doc := parse(t, "[package]\nname = \"foo\"\nversion = \"v3.0.0\" # release line\n")

	change, err := e.ResolveOwnVersion(doc, "foo", version.Major)
	require.NoError(t, err)
	assert.Equal(t, "v4.0.0", change.New)
	assert.Equal(t, "[package]\nname = \"foo\"\nversion = \"v4.0.0\" # release line\n", doc.String())
}

func TestResolveOwnVersion_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"two components", "[package]\nversion = \"1.2\"\n", version.ErrInvalid},
		{"no package section", "[lib]\nname = \"foo\"\n", manifest.ErrSectionNotFound},
		{"no version", "[package]\nname = \"foo\"\n", version.ErrInvalid},
		{"version not a string", "[package]\nversion = { workspace = true }\n", version.ErrInvalid},
		{"no numeric major", "[package]\nversion = \"v.1.2\"\n", version.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable()
			e := NewEngine(testRegistry(t), table, Options{})
			doc := parse(t, tt.text)

			_, err := e.ResolveOwnVersion(doc, "foo", version.Major)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, table.Len())
			assert.Equal(t, tt.text, doc.String())
		})
	}
}

func TestResolveOwnVersion_None(t *testing.T) {
	t.Run("from table", func(t *testing.T) {
		e := NewEngine(testRegistry(t), resolved(t, "foo", "1.3.0"), Options{})
		doc := parse(t, "[package]\nversion = \"1.2.3\"\n")

		change, err := e.ResolveOwnVersion(doc, "foo", version.None)
		require.NoError(t, err)
		assert.Equal(t, "1.3.0", change.New)
		assert.Equal(t, "[package]\nversion = \"1.3.0\"\n", doc.String())
	})

	t.Run("current version", func(t *testing.T) {
		table := NewTable()
		e := NewEngine(testRegistry(t), table, Options{})
		doc := parse(t, "[package]\nversion = \"1.2.3\"\n")

		change, err := e.ResolveOwnVersion(doc, "foo", version.None)
		require.NoError(t, err)
		assert.Equal(t, change.Old, change.New)
		v, _ := table.Lookup("foo")
		assert.Equal(t, "1.2.3", v)
	})
}

func TestResolveOwnVersion_Conflict(t *testing.T) {
	e := NewEngine(testRegistry(t), resolved(t, "foo", "9.9.9"), Options{})
	doc := parse(t, "[package]\nversion = \"1.2.3\"\n")

	_, err := e.ResolveOwnVersion(doc, "foo", version.Minor)
	require.ErrorIs(t, err, ErrAlreadyResolved)
	assert.Equal(t, "[package]\nversion = \"1.2.3\"\n", doc.String())
}

func TestPropagateDependencies_Section(t *testing.T) {
	e := NewEngine(testRegistry(t), resolved(t, "foo", "1.3.0"), Options{})
	doc := parse(t, "[dependencies.foo]\nversion = \"1.2.3\"\npath = \"../foo\"\n")

	changes, err := e.PropagateDependencies(doc)
	require.NoError(t, err)
	assert.Equal(t, "[dependencies.foo]\nversion = \"1.3.0\"\n", doc.String())
	require.Len(t, changes, 1)
	assert.Equal(t, DependencyChange{
		Change:  Change{Package: "foo", Old: "1.2.3", New: "1.3.0"},
		Section: "dependencies.foo",
	}, changes[0])
}

func TestPropagateDependencies_SectionAlias(t *testing.T) {
	e := NewEngine(testRegistry(t), resolved(t, "foo-sys", "0.5.0"), Options{})
	doc := parse(t, "[dependencies.ffi]\npackage = \"foo-sys\"\ngit = \"https://example.org/sys\"\n")

	_, err := e.PropagateDependencies(doc)
	require.NoError(t, err)
	assert.Equal(t, "[dependencies.ffi]\npackage = \"foo-sys\"\nversion = \"0.5.0\"\n", doc.String())
}

func TestPropagateDependencies_Table(t *testing.T) {
	e := NewEngine(testRegistry(t), resolved(t, "foo", "2.0.0", "bar", "0.4.0"), Options{})
	doc := parse(t, "[dependencies]\n"+
		"foo = { version = \"1.2.3\", features = [\"x\"] }\n"+
		"libc = \"0.2\"\n"+
		"bar = \"0.3.0\" # bar\n"+
		"serde = { version = \"1\", path = \"../serde\" }\n")

	changes, err := e.PropagateDependencies(doc)
	require.NoError(t, err)
	assert.Equal(t, "[dependencies]\n"+
		"foo = { version = \"2.0.0\", features = [\"x\"] }\n"+
		"libc = \"0.2\"\n"+
		"bar = \"0.4.0\" # bar\n"+
		"serde = { version = \"1\", path = \"../serde\" }\n", doc.String())
	require.Len(t, changes, 2)
	assert.Equal(t, "foo", changes[0].Key)
	assert.Equal(t, "bar", changes[1].Key)
}

func TestPropagateDependencies_InlineAlias(t *testing.T) {
	e := NewEngine(testRegistry(t), resolved(t, "foo-sys", "0.5.0"), Options{})
	doc := parse(t, "[dependencies]\nffi = { package = \"foo-sys\", path = \"../sys/foo-sys\" }\n")

	_, err := e.PropagateDependencies(doc)
	require.NoError(t, err)
	assert.Equal(t, "[dependencies]\nffi = { version = \"0.5.0\", package = \"foo-sys\" }\n", doc.String())
}

func TestPropagateDependencies_QuotedKey(t *testing.T) {
	e := NewEngine(testRegistry(t), resolved(t, "foo", "2.0.0", "bar", "0.4.0"), Options{})
	doc := parse(t, "[dependencies]\n"+
		"\"foo\" = { version = \"1.2.3\", path = \"../foo\" }\n"+
		"'bar' = \"0.3.0\"\n")

	changes, err := e.PropagateDependencies(doc)
	require.NoError(t, err)
	assert.Equal(t, "[dependencies]\n"+
		"\"foo\" = { version = \"2.0.0\" }\n"+
		"'bar' = \"0.4.0\"\n", doc.String())
	require.Len(t, changes, 2)
	assert.Equal(t, "foo", changes[0].Package)
	assert.Equal(t, `"foo"`, changes[0].Key)
}

func TestPropagateDependencies_DottedKeys(t *testing.T) {
	e := NewEngine(testRegistry(t), resolved(t, "foo", "2.0.0", "foo-sys", "0.5.0"), Options{})
	doc := parse(t, "[dependencies]\n"+
		"foo.version = \"1.2.3\"\n"+
		"foo.path = \"../foo\"\n"+
		"foo.features = [\"x\"]\n"+
		"ffi.package = \"foo-sys\"\n"+
		"ffi.git = \"https://example.org/sys\"\n"+
		"serde.version = \"1\"\n"+
		"serde.path = \"../serde\"\n")

	changes, err := e.PropagateDependencies(doc)
	require.NoError(t, err)
	assert.Equal(t, "[dependencies]\n"+
		"foo.version = \"2.0.0\"\n"+
		"foo.features = [\"x\"]\n"+
		"ffi.package = \"foo-sys\"\n"+
		"serde.version = \"1\"\n"+
		"serde.path = \"../serde\"\n"+
		"ffi.version = \"0.5.0\"\n", doc.String())
	require.Len(t, changes, 2)
	assert.Equal(t, Change{Package: "foo", Old: "1.2.3", New: "2.0.0"}, changes[0].Change)
	assert.Equal(t, "foo", changes[0].Key)
	assert.Equal(t, Change{Package: "foo-sys", New: "0.5.0"}, changes[1].Change)

	again, err := e.PropagateDependencies(doc)
	require.NoError(t, err)
	assert.Empty(t, again)

	deps, err := e.Dependencies(parse(t, doc.String()))
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "foo-sys"}, deps)
}

func TestPropagateDependencies_DottedKeysMalformed(t *testing.T) {
	e := NewEngine(testRegistry(t), resolved(t, "foo", "2.0.0"), Options{})

	doc := parse(t, "[dependencies]\nfoo.version = [\"1\"]\n")
	_, err := e.PropagateDependencies(doc)
	assert.ErrorIs(t, err, manifest.ErrMalformed)

	doc = parse(t, "[dependencies]\nffi.package = 3\n")
	_, err = e.PropagateDependencies(doc)
	assert.ErrorIs(t, err, manifest.ErrMalformed)
}

func TestPropagateDependencies_OtherTables(t *testing.T) {
	text := "[dev-dependencies]\nfoo = \"1.0.0\"\n\n[dependencies]\nfoo = \"1.0.0\"\n"

	e := NewEngine(testRegistry(t), resolved(t, "foo", "1.1.0"), Options{})
	doc := parse(t, text)
	_, err := e.PropagateDependencies(doc)
	require.NoError(t, err)
	assert.Equal(t, "[dev-dependencies]\nfoo = \"1.0.0\"\n\n[dependencies]\nfoo = \"1.1.0\"\n", doc.String())

	e = NewEngine(testRegistry(t), resolved(t, "foo", "1.1.0"), Options{
		DependencyTables: []string{"dependencies", "dev-dependencies"},
	})
	doc = parse(t, text)
	_, err = e.PropagateDependencies(doc)
	require.NoError(t, err)
	assert.Equal(t, "[dev-dependencies]\nfoo = \"1.1.0\"\n\n[dependencies]\nfoo = \"1.1.0\"\n", doc.String())
}

func TestPropagateDependencies_Unresolved(t *testing.T) {
	text := "[dependencies]\nfoo = \"1.0.0\"\nbar = \"1.0.0\"\n"
	e := NewEngine(testRegistry(t), resolved(t, "foo", "1.1.0"), Options{})
	doc := parse(t, text)

	_, err := e.PropagateDependencies(doc)
	require.ErrorIs(t, err, ErrUnresolvedDependency)
	assert.Contains(t, err.Error(), "bar")
	assert.Equal(t, text, doc.String(), "document left untouched")
}

func TestPropagateDependencies_MalformedRegistered(t *testing.T) {
	e := NewEngine(testRegistry(t), resolved(t, "foo", "1.1.0"), Options{})

	doc := parse(t, "[dependencies]\nfoo = [\"1.0.0\"]\n")
	_, err := e.PropagateDependencies(doc)
	assert.ErrorIs(t, err, manifest.ErrMalformed)

	// Shapes of unregistered dependencies are not our business.
	doc = parse(t, "[dependencies]\nother = [\"1.0.0\"]\n")
	_, err = e.PropagateDependencies(doc)
	assert.NoError(t, err)
}

func TestPropagateDependencies_Idempotent(t *testing.T) {
	table := resolved(t, "foo", "2.0.0", "bar", "0.4.0", "foo-sys", "0.5.0")
	text := "[package]\nname = \"baz\"\n\n" +
		"[dependencies]\nfoo = {version=\"1.2.3\", features=[\"x\"], path=\"../foo\"}\nbar = \"0.3.0\"\n\n" +
		"[dependencies.foo-sys]\nversion = \"0.4.0\"\ngit = \"https://example.org/sys\"\n"

	e := NewEngine(testRegistry(t), table, Options{})
	doc := parse(t, text)
	_, err := e.PropagateDependencies(doc)
	require.NoError(t, err)
	once := doc.String()

	changes, err := e.PropagateDependencies(doc)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, once, doc.String())

	reparsed := parse(t, once)
	_, err = e.PropagateDependencies(reparsed)
	require.NoError(t, err)
	assert.Equal(t, once, reparsed.String())
}

func TestDependencies(t *testing.T) {
	e := NewEngine(testRegistry(t), NewTable(), Options{})
	doc := parse(t, "[dependencies]\nbar = \"1\"\nlibc = \"0.2\"\nfoo = \"1\"\n\n[dependencies.foo]\nversion = \"1\"\n")

	deps, err := e.Dependencies(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "foo"}, deps)
}
