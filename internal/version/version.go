package version

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalid is returned when a version string does not split into exactly
// three components, or when a component cannot be bumped.
var ErrInvalid = errors.New("invalid version")

// Number is a parsed version. Prefix holds the leading non-digit characters
// of the major component ("v" in "v3.0.0").
type Number struct {
	Prefix string
	Major  uint64
	Medium uint64
	Minor  uint64
}

// Parse splits s into its three components. The input must not be quoted.
func Parse(s string) (Number, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Number{}, fmt.Errorf("%w %q: expected 3 components, got %d", ErrInvalid, s, len(parts))
	}

	prefix, digits := splitPrefix(parts[0])
	if digits == "" {
		return Number{}, fmt.Errorf("%w %q: major component has no numeric part", ErrInvalid, s)
	}
	major, err := parseComponent(digits)
	if err != nil {
		return Number{}, fmt.Errorf("%w %q: major component: %v", ErrInvalid, s, err)
	}
	medium, err := parseComponent(parts[1])
	if err != nil {
		return Number{}, fmt.Errorf("%w %q: medium component: %v", ErrInvalid, s, err)
	}
	minor, err := parseComponent(parts[2])
	if err != nil {
		return Number{}, fmt.Errorf("%w %q: minor component: %v", ErrInvalid, s, err)
	}

	return Number{Prefix: prefix, Major: major, Medium: medium, Minor: minor}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(s string) Number {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String renders the version without quotes.
func (n Number) String() string {
	return fmt.Sprintf("%s%d.%d.%d", n.Prefix, n.Major, n.Medium, n.Minor)
}

// Bump returns n incremented by class c. Bumping with None returns n as is.
// A component already at its maximum cannot be bumped.
func Bump(n Number, c Class) (Number, error) {
	switch c {
	case Major:
		if n.Major == math.MaxUint64 {
			return Number{}, overflow(n, c)
		}
		return Number{Prefix: n.Prefix, Major: n.Major + 1}, nil
	case Medium:
		if n.Medium == math.MaxUint64 {
			return Number{}, overflow(n, c)
		}
		return Number{Prefix: n.Prefix, Major: n.Major, Medium: n.Medium + 1}, nil
	case Minor:
		if n.Minor == math.MaxUint64 {
			return Number{}, overflow(n, c)
		}
		n.Minor++
		return n, nil
	case None:
		return n, nil
	default:
		return Number{}, fmt.Errorf("unknown bump class %d", int(c))
	}
}

func overflow(n Number, c Class) error {
	return fmt.Errorf("%w %q: %s component is at its maximum", ErrInvalid, n, c)
}

// BumpString parses s, bumps it and renders the result.
func BumpString(s string, c Class) (string, error) {
	n, err := Parse(s)
	if err != nil {
		return "", err
	}
	bumped, err := Bump(n, c)
	if err != nil {
		return "", err
	}
	return bumped.String(), nil
}

// splitPrefix separates the leading non-digit run of s from the rest.
func splitPrefix(s string) (prefix, rest string) {
	i := strings.IndexFunc(s, isDigit)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func parseComponent(s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("empty component")
	}
	if strings.IndexFunc(s, func(r rune) bool { return !isDigit(r) }) >= 0 {
		return 0, fmt.Errorf("%q is not numeric", s)
	}
	return strconv.ParseUint(s, 10, 64)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
