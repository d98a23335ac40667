package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Compare orders two version strings using semver precedence.
// Returns -1 if a < b, 0 if equal, 1 if a > b. Non-numeric prefixes on the
// major component are ignored.
func Compare(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// IsNewer returns true if candidate sorts after current.
func IsNewer(current, candidate string) (bool, error) {
	cmp, err := Compare(current, candidate)
	if err != nil {
		return false, err
	}
	return cmp == -1, nil
}

// parseSemver strips the major prefix and parses the remainder.
func parseSemver(s string) (*semver.Version, error) {
	_, rest := splitPrefix(s)
	return semver.NewVersion(rest)
}
