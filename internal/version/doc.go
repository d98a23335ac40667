// Package version implements the three-component version numbers used by
// package manifests and the bump algorithm applied to them. A version has
// exactly three dot-separated components (major.medium.minor); the major
// component may carry a non-numeric prefix such as "v" which survives bumps.
package version
