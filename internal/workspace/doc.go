// Package workspace models the packages of a monorepo workspace and the
// dependency edges between them.
//
// A Graph is a read-only snapshot taken once per invocation. Every dependency
// edge carries a Resolution: Local dependencies are satisfied by another
// package's source inside the workspace and must be built first, External
// dependencies come pre-built from a registry and are always satisfied.
//
// Packages keep the order in which the loader first discovered them. That
// order, not a sorted one, is what makes batch execution deterministic.
//
// NPMLoader reads the graph from `<package manager> ls --depth 1 --json` and
// the declared scripts from each package's installed package.json.
package workspace
