package propagate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bumpwright/bumpwright/internal/manifest"
)

// Shape is the textual form of a dependency value.
type Shape int

const (
	// ShapeString is a bare quoted version: foo = "1.2.3".
	ShapeString Shape = iota
	// ShapeInline is an inline table: foo = { version = "1.2.3", ... }.
	ShapeInline
	// ShapeIdentifier is an unquoted token: foo = 1.2.3.
	ShapeIdentifier
)

func (s Shape) String() string {
	switch s {
	case ShapeString:
		return "string"
	case ShapeInline:
		return "inline table"
	case ShapeIdentifier:
		return "identifier"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Fragments dropped from rewritten references so the manifest points at the
// published artifact.
var overrideKeys = map[string]bool{"path": true, "git": true}

var identifier = regexp.MustCompile(`^[A-Za-z0-9_.+~^*=<>-]+$`)

// Reference is a decoded dependency value.
type Reference struct {
	Shape Shape
	// Package is the referenced package: the "package" alias of an inline
	// table, otherwise the entry key.
	Package string
	// Version is the current version requirement, empty if there is none.
	Version string
}

type fragment struct {
	key  string
	text string
}

// DecodeEntry classifies the value of a dependency table entry.
func DecodeEntry(key, raw string) (Reference, error) {
	value, _ := manifest.CutValue(raw)
	switch {
	case value == "":
		return Reference{}, malformed(key, "empty value")
	case strings.HasPrefix(value, "{"):
		frags, err := splitInline(key, value)
		if err != nil {
			return Reference{}, err
		}
		ref := Reference{Shape: ShapeInline, Package: key}
		for _, f := range frags {
			switch f.key {
			case "package":
				if name, ok := manifest.StringValue(fragmentValue(f)); ok {
					ref.Package = name
				}
			case "version":
				ref.Version, _ = manifest.StringValue(fragmentValue(f))
			}
		}
		return ref, nil
	case manifest.IsString(value):
		v, _ := manifest.StringValue(value)
		return Reference{Shape: ShapeString, Package: key, Version: v}, nil
	case identifier.MatchString(value):
		return Reference{Shape: ShapeIdentifier, Package: key, Version: value}, nil
	default:
		return Reference{}, malformed(key, "unsupported dependency value "+value)
	}
}

// RewriteEntry returns raw with its version requirement set to version.
// Inline tables lose their path and git fragments and get a version fragment
// in first position when they had none. Text after the value, such as a
// comment, is kept.
func RewriteEntry(key, raw, version string) (string, error) {
	ref, err := DecodeEntry(key, raw)
	if err != nil {
		return "", err
	}
	value, rest := manifest.CutValue(raw)

	switch ref.Shape {
	case ShapeString, ShapeIdentifier:
		return manifest.Quote(version) + rest, nil
	}

	frags, err := splitInline(key, value)
	if err != nil {
		return "", err
	}
	versionFrag := "version = " + manifest.Quote(version)
	out := make([]string, 0, len(frags)+1)
	hasVersion := false
	for _, f := range frags {
		switch {
		case overrideKeys[f.key]:
			continue
		case f.key == "version":
			hasVersion = true
			out = append(out, versionFrag)
		default:
			out = append(out, f.text)
		}
	}
	if !hasVersion {
		out = append([]string{versionFrag}, out...)
	}
	return "{ " + strings.Join(out, ", ") + " }" + rest, nil
}

// splitInline breaks "{ a = 1, b = [2, 3] }" into its fragments.
func splitInline(key, value string) ([]fragment, error) {
	if !strings.HasSuffix(value, "}") {
		return nil, malformed(key, "unterminated inline table")
	}
	inner := value[1 : len(value)-1]

	var frags []fragment
	for _, part := range manifest.SplitTopLevel(inner, ',') {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		k, _, ok := strings.Cut(text, "=")
		if !ok {
			return nil, malformed(key, fmt.Sprintf("inline table fragment %q has no '='", text))
		}
		frags = append(frags, fragment{
			key:  strings.Trim(strings.TrimSpace(k), `"'`),
			text: text,
		})
	}
	return frags, nil
}

func fragmentValue(f fragment) string {
	_, v, _ := strings.Cut(f.text, "=")
	return strings.TrimSpace(v)
}

func malformed(key, msg string) error {
	return fmt.Errorf("%w: dependency %q: %s", manifest.ErrMalformed, key, msg)
}
