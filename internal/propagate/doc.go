// Package propagate computes new package versions and rewrites every
// manifest that references them.
//
// A run loads all manifests of the registry first, orders the packages so
// that every dependency is resolved before its dependents, then resolves
// each package's own version and rewrites its dependency entries from the
// resolved Table. Nothing is written until every manifest has been
// rewritten successfully.
package propagate
