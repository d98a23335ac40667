// Package registry holds the static catalog of packages released together:
// where each one lives (repository and path), how it is classified, and the
// dependency graph whose topological order fixes the processing order of a
// release run. The table is loaded once, validated against an embedded JSON
// schema, and is read-only afterwards.
package registry
