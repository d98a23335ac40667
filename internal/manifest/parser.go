package manifest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformed is returned when the text cannot be split into sections
	// and entries.
	ErrMalformed = errors.New("malformed manifest")

	// ErrSectionNotFound is returned when a required section is absent.
	ErrSectionNotFound = errors.New("section not found")
)

// SyntaxError locates a structural problem in the input.
type SyntaxError struct {
	Line int // 1-based
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: line %d: %s", ErrMalformed, e.Line, e.Msg)
}

// Unwrap makes errors.Is(err, ErrMalformed) hold for every SyntaxError.
func (e *SyntaxError) Unwrap() error {
	return ErrMalformed
}

// pendingValue accumulates the physical lines of a multi-line value.
type pendingValue struct {
	key   string
	line  int
	lines []string
	scan  scanner
}

// Parse reads manifest text into a Document. Unknown keys and comments are
// kept; only structurally impossible input is rejected.
func Parse(text string) (*Document, error) {
	doc := &Document{}
	if i := strings.IndexByte(text, '\n'); i > 0 && text[i-1] == '\r' {
		doc.CRLF = true
	}
	var (
		current *Section
		pending *pendingValue
	)

	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSuffix(raw, "\r")

		if pending != nil {
			pending.lines = append(pending.lines, line)
			if err := pending.scan.feed(line); err != nil {
				return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
			}
			if pending.scan.complete() {
				current.put(pending.key, strings.Join(pending.lines, "\n"))
				pending = nil
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			current = doc.AddSection("")
			current.Name, current.Trailer = parseHeader(trimmed)
			if current.Name == "" {
				return nil, &SyntaxError{Line: lineNo, Msg: "empty section name"}
			}
			continue
		}

		if current == nil {
			doc.Preamble = append(doc.Preamble, line)
			continue
		}

		switch {
		case trimmed == "":
			current.entries = append(current.entries, &Entry{Kind: KindBlank})
			continue
		case strings.HasPrefix(trimmed, "#"):
			current.entries = append(current.entries, &Entry{Value: line, Kind: KindComment})
			continue
		}

		key, value, ok := cutEntry(line)
		if !ok {
			return nil, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf("expected key = value, got %q", trimmed)}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			return nil, &SyntaxError{Line: lineNo, Msg: "missing key before '='"}
		}

		p := &pendingValue{key: key, line: lineNo, lines: []string{value}}
		if err := p.scan.feed(value); err != nil {
			return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
		}
		if p.scan.complete() {
			current.put(key, value)
			continue
		}
		pending = p
	}

	if pending != nil {
		return nil, &SyntaxError{Line: pending.line, Msg: fmt.Sprintf("unterminated value for key %q", pending.key)}
	}
	return doc, nil
}

// parseHeader splits a trimmed "[name] trailer" line. A missing closing
// bracket is tolerated.
func parseHeader(line string) (name, trailer string) {
	if inner, ok := strings.CutPrefix(line, "[["); ok {
		if end := strings.Index(inner, "]]"); end >= 0 {
			return "[" + strings.TrimSpace(inner[:end]) + "]", inner[end+2:]
		}
	}
	inner := line[1:]
	end := strings.IndexByte(inner, ']')
	if end < 0 {
		return strings.TrimSpace(inner), ""
	}
	return strings.TrimSpace(inner[:end]), inner[end+1:]
}

// String serializes the document. Entries render as "key = value" in stored
// order; the output always ends with a single line break.
func (d *Document) String() string {
	var b strings.Builder
	for _, line := range d.Preamble {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	for i, s := range d.sections {
		entries := s.entries
		last := i == len(d.sections)-1
		if last {
			for len(entries) > 0 && entries[len(entries)-1].Kind == KindBlank {
				entries = entries[:len(entries)-1]
			}
		}

		b.WriteString("[" + s.Name + "]" + s.Trailer + "\n")
		for _, e := range entries {
			b.WriteString(e.render())
			b.WriteByte('\n')
		}

		if !last && (len(entries) == 0 || entries[len(entries)-1].Kind != KindBlank) {
			b.WriteByte('\n')
		}
	}
	if d.CRLF {
		return strings.ReplaceAll(b.String(), "\n", "\r\n")
	}
	return b.String()
}
