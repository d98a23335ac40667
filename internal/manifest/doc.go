// Package manifest parses, edits and serializes package manifests: the
// line-oriented, section-based configuration files (Cargo.toml style) that
// every released package carries. Parsing is tolerant: unknown keys, comments
// and formatting are preserved so that a document serialized without edits
// reproduces its input, apart from whitespace around "=".
package manifest
