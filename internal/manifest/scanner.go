package manifest

import (
	"errors"
	"strings"
)

var errUnbalanced = errors.New("unbalanced closing bracket")

// scanner tracks bracket depth and string state across the physical lines
// of one value. Characters inside strings and comments do not count.
type scanner struct {
	depth int
	str   byte   // open single-line string delimiter, or 0
	multi string // open multi-line string delimiter, or ""
}

// complete reports whether every bracket and string opened so far is closed.
func (s *scanner) complete() bool {
	return s.depth == 0 && s.str == 0 && s.multi == ""
}

// step consumes the token that starts at text[i] and returns its length.
func (s *scanner) step(text string, i int) (int, error) {
	c := text[i]
	switch {
	case s.multi != "":
		if c == '\\' && s.multi == `"""` {
			return min(2, len(text)-i), nil
		}
		if strings.HasPrefix(text[i:], s.multi) {
			s.multi = ""
			return 3, nil
		}
	case s.str != 0:
		switch {
		case c == '\n':
			s.str = 0
		case c == '\\' && s.str == '"':
			return min(2, len(text)-i), nil
		case c == s.str:
			s.str = 0
		}
	case c == '#':
		end := strings.IndexByte(text[i:], '\n')
		if end < 0 {
			end = len(text) - i
		}
		return max(end, 1), nil
	case c == '"' || c == '\'':
		delim := strings.Repeat(string(c), 3)
		if strings.HasPrefix(text[i:], delim) {
			s.multi = delim
			return 3, nil
		}
		s.str = c
	case c == '{' || c == '[':
		s.depth++
	case c == '}' || c == ']':
		s.depth--
		if s.depth < 0 {
			return 1, errUnbalanced
		}
	}
	return 1, nil
}

// feed consumes one physical line. Single-line strings never span lines.
func (s *scanner) feed(line string) error {
	for i := 0; i < len(line); {
		n, err := s.step(line, i)
		if err != nil {
			return err
		}
		i += n
	}
	s.str = 0
	return nil
}

// cutEntry splits an entry line at the first "=" that is not inside a
// quoted key.
func cutEntry(line string) (key, value string, ok bool) {
	var s scanner
	for i := 0; i < len(line); {
		if line[i] == '=' && s.complete() {
			return line[:i], line[i+1:], true
		}
		n, err := s.step(line, i)
		if err != nil {
			break
		}
		i += n
	}
	return "", "", false
}

// CutValue splits raw into its leading value and whatever follows it
// (typically whitespace and a comment). Strings, inline tables and arrays end
// at their closing delimiter; bare values end at whitespace or "#".
func CutValue(raw string) (value, rest string) {
	raw = strings.TrimLeft(raw, " \t")
	if raw == "" {
		return "", ""
	}
	switch raw[0] {
	case '"', '\'', '{', '[':
		var s scanner
		for i := 0; i < len(raw); {
			n, err := s.step(raw, i)
			if err != nil {
				break
			}
			i += n
			if s.complete() {
				return raw[:i], raw[i:]
			}
		}
		return raw, ""
	default:
		end := strings.IndexAny(raw, " \t#")
		if end < 0 {
			return raw, ""
		}
		return raw[:end], raw[end:]
	}
}

// SplitTopLevel splits s on sep wherever sep is outside strings, brackets
// and braces. Parts are returned untrimmed.
func SplitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		sc    scanner
		start int
	)
	for i := 0; i < len(s); {
		if s[i] == sep && sc.complete() {
			parts = append(parts, s[start:i])
			i++
			start = i
			continue
		}
		n, err := sc.step(s, i)
		if err != nil {
			// Stray closers are kept as text; depth restarts from zero.
			sc.depth = 0
		}
		i += n
	}
	return append(parts, s[start:])
}
