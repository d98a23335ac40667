package manifest

import "strings"

// StringValue extracts the contents of a quoted string value, ignoring any
// trailing comment. It reports false when raw is not a single-line string.
func StringValue(raw string) (string, bool) {
	v, _ := CutValue(raw)
	if len(v) < 2 || strings.HasPrefix(v, `"""`) || strings.HasPrefix(v, "'''") {
		return "", false
	}
	switch q := v[0]; {
	case q == '\'' && v[len(v)-1] == '\'':
		return v[1 : len(v)-1], true
	case q == '"' && v[len(v)-1] == '"':
		return unescape(v[1 : len(v)-1]), true
	}
	return "", false
}

// IsString reports whether raw starts with a quoted string.
func IsString(raw string) bool {
	_, ok := StringValue(raw)
	return ok
}

// Quote renders s as a basic string.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// ReplaceString swaps the string in raw for s, keeping whatever followed the
// old value (a trailing comment, for instance).
func ReplaceString(raw, s string) string {
	if _, rest := CutValue(raw); IsString(raw) {
		return Quote(s) + rest
	}
	return Quote(s)
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	r := strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\t`, "\t", `\n`, "\n")
	return r.Replace(s)
}

// SplitKey breaks a dotted key into its segments with quotes removed:
// `a."b.c"` gives ["a", "b.c"].
func SplitKey(key string) []string {
	parts := SplitTopLevel(key, '.')
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if s, ok := StringValue(p); ok {
			p = s
		}
		parts[i] = p
	}
	return parts
}
