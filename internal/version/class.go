package version

import (
	"fmt"
	"strings"
)

// Class is the granularity of a version increment.
type Class int

const (
	Major Class = iota
	Medium
	Minor
	// None leaves the version untouched; only dependency pins are refreshed.
	None
)

// ValidClasses lists the accepted class names in the order they are documented.
var ValidClasses = []string{"major", "medium", "minor", "none"}

// ParseClass converts a case-insensitive class name.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major":
		return Major, nil
	case "medium":
		return Medium, nil
	case "minor":
		return Minor, nil
	case "none":
		return None, nil
	default:
		return 0, fmt.Errorf("invalid bump class %q, accepted values: %s", s, strings.Join(ValidClasses, "|"))
	}
}

func (c Class) String() string {
	switch c {
	case Major:
		return "major"
	case Medium:
		return "medium"
	case Minor:
		return "minor"
	case None:
		return "none"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}
