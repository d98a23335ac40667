package manifest

// EntryKind distinguishes key/value entries from the layout lines kept
// alongside them.
type EntryKind int

const (
	KindValue EntryKind = iota
	KindComment
	KindBlank
)

// Entry is one line (or one multi-line value) of a section. For KindValue,
// Value holds the unparsed text after "=". For comments it holds the line
// verbatim.
type Entry struct {
	Key   string
	Value string
	Kind  EntryKind
}

func (e Entry) render() string {
	if e.Kind == KindValue {
		return e.Key + " = " + e.Value
	}
	return e.Value
}

// Section is a "[name]" block and the entries that follow it.
// Array-of-tables headers ("[[bin]]") keep their inner brackets in Name.
type Section struct {
	Name string
	// Trailer is any text after the closing bracket, usually a comment.
	Trailer string
	entries []*Entry
}

// NewSection creates an empty section.
func NewSection(name string) *Section {
	return &Section{Name: name}
}

// Get returns the raw value stored under key.
func (s *Section) Get(key string) (string, bool) {
	if e := s.find(key); e != nil {
		return e.Value, true
	}
	return "", false
}

// Set replaces the value of key in place, or appends a new entry after the
// last non-blank line of the section.
func (s *Section) Set(key, value string) {
	if e := s.find(key); e != nil {
		e.Value = value
		return
	}
	s.insert(&Entry{Key: key, Value: value, Kind: KindValue})
}

// Delete removes key. It reports whether the key was present.
func (s *Section) Delete(key string) bool {
	for i, e := range s.entries {
		if e.Kind == KindValue && e.Key == key {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns the keys of the section in stored order.
func (s *Section) Keys() []string {
	var keys []string
	for _, e := range s.entries {
		if e.Kind == KindValue {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// IsDependencyOf reports whether the section is a single dependency block
// of the given table, e.g. "dependencies.foo" for table "dependencies".
// It returns the dependency name with surrounding quotes removed.
func (s *Section) IsDependencyOf(table string) (string, bool) {
	name, prefix := SplitKey(s.Name), SplitKey(table)
	if len(name) != len(prefix)+1 || name[len(prefix)] == "" {
		return "", false
	}
	for i := range prefix {
		if name[i] != prefix[i] {
			return "", false
		}
	}
	return name[len(prefix)], true
}

// put is Set for the parser: new keys go after everything read so far.
func (s *Section) put(key, value string) {
	if e := s.find(key); e != nil {
		e.Value = value
		return
	}
	s.entries = append(s.entries, &Entry{Key: key, Value: value, Kind: KindValue})
}

func (s *Section) find(key string) *Entry {
	for _, e := range s.entries {
		if e.Kind == KindValue && e.Key == key {
			return e
		}
	}
	return nil
}

func (s *Section) insert(e *Entry) {
	at := len(s.entries)
	for at > 0 && s.entries[at-1].Kind == KindBlank {
		at--
	}
	s.entries = append(s.entries, nil)
	copy(s.entries[at+1:], s.entries[at:])
	s.entries[at] = e
}

// Document is an ordered sequence of sections. Lines that precede the first
// section are not interpreted and are kept verbatim in Preamble.
type Document struct {
	Preamble []string
	// CRLF is set when the first line of the input ended in "\r\n". String
	// then ends every line that way.
	CRLF     bool
	sections []*Section
}

// Sections returns the sections in document order.
func (d *Document) Sections() []*Section {
	return d.sections
}

// Section returns the first section with the given name, or nil.
func (d *Document) Section(name string) *Section {
	for _, s := range d.sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddSection appends a new, empty section.
func (d *Document) AddSection(name string) *Section {
	s := NewSection(name)
	d.sections = append(d.sections, s)
	return s
}
