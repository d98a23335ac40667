//go:build integration

package integration_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bumpwright/bumpwright/internal/registry"
)

// manifestDeps lists, per package, the registered packages its manifest
// depends on. It mirrors the real gtk-rs graph closely enough to exercise
// every ordering constraint of the built-in registry.
var manifestDeps = map[string][]string{
	"gobject-sys":    {"glib-sys"},
	"gio-sys":        {"glib-sys", "gobject-sys"},
	"pango-sys":      {"glib-sys", "gobject-sys"},
	"gdk-pixbuf-sys": {"gio-sys", "gobject-sys"},
	"atk-sys":        {"gobject-sys"},
	"gdkx11-sys":     {"gdk-sys"},
	"glib":           {"glib-sys", "gobject-sys", "glib-macros"},
	"gdk-sys":        {"pango-sys", "gdk-pixbuf-sys", "cairo-sys-rs"},
	"gtk-sys":        {"gdk-sys", "atk-sys"},
	"pangocairo-sys": {"pango-sys", "cairo-sys-rs"},
	"atk":            {"atk-sys", "glib"},
	"gio":            {"gio-sys", "glib"},
	"pango":          {"pango-sys", "glib"},
	"cairo-rs":       {"cairo-sys-rs", "glib"},
	"gdk-pixbuf":     {"gdk-pixbuf-sys", "gio", "glib"},
	"gdk":            {"gdk-sys", "cairo-rs", "gdk-pixbuf", "gio", "pango", "glib"},
	"gtk":            {"gtk-sys", "atk", "cairo-rs", "gdk", "gdk-pixbuf", "gio", "glib", "pango"},
	"gdkx11":         {"gdkx11-sys", "gdk", "glib"},
	"pangocairo":     {"pangocairo-sys", "pango", "cairo-rs", "glib"},
	"gtk-test":       {"gtk", "gdk", "glib"},
}

// setupWorkspace writes one manifest per registered package under a fresh
// temp dir and returns its root. Dependency references rotate through the
// bare string, inline table and per-dependency section shapes.
func setupWorkspace(t *testing.T, reg *registry.Registry) string {
	t.Helper()
	root := t.TempDir()

	for _, p := range reg.Packages() {
		var b strings.Builder
		fmt.Fprintf(&b, "# Generated for %s\n\n", p.Name)
		fmt.Fprintf(&b, "[package]\nname = %q\nversion = \"0.9.0\"\nauthors = [\"The Gtk-rs Project Developers\"]\n\n", p.Name)
		b.WriteString("[features]\ndox = []\n\n")

		var sections []string
		b.WriteString("[dependencies]\nlibc = \"0.2\"\n")
		for i, dep := range manifestDeps[p.Name] {
			switch i % 3 {
			case 0:
				fmt.Fprintf(&b, "%s = \"0.8.0\"\n", dep)
			case 1:
				fmt.Fprintf(&b, "%s = { version = \"0.8.0\", git = \"https://github.com/gtk-rs/%s\", features = [\"dox\"] }\n", dep, dep)
			case 2:
				sections = append(sections, fmt.Sprintf("[dependencies.%s]\nversion = \"0.8.0\"\npath = \"../%s\"\n", dep, dep))
			}
		}
		for _, s := range sections {
			b.WriteString("\n" + s)
		}
		b.WriteString("\n[dev-dependencies]\nshell-words = \"0.1.0\"\n")

		writeFile(t, filepath.Join(root, p.Repository, p.Path, "Cargo.toml"), b.String())
	}
	return root
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// readFile returns the content of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	if content := readFile(t, path); !strings.Contains(content, substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, content)
	}
}

// assertFileNotContains fails if the file contains substr.
func assertFileNotContains(t *testing.T, path, substr string) {
	t.Helper()
	if content := readFile(t, path); strings.Contains(content, substr) {
		t.Errorf("file %s unexpectedly contains %q.\nContents:\n%s", path, substr, content)
	}
}
