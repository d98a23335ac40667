// Package cli defines the Cobra command tree for the bumpwright CLI. Each file
// in this package registers one top-level command (plan, bump, pin, etc.)
// with the root command. Commands delegate to internal packages for the
// release logic and only handle flag parsing and output formatting.
package cli
