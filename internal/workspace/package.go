package workspace

import (
	"maps"
	"strings"
)

// Resolution describes where a dependency is sourced from.
type Resolution int

const (
	// External dependencies are pre-built artifacts from a registry.
	External Resolution = iota
	// Local dependencies are built from source inside the workspace.
	Local
)

// localMarker prefixes the resolved location of file-linked packages.
const localMarker = "file:"

// ResolutionFromLocation classifies a resolved location such as
// "file:../packages/core" or "https://registry.npmjs.org/...".
func ResolutionFromLocation(location string) Resolution {
	if strings.HasPrefix(location, localMarker) {
		return Local
	}
	return External
}

func (r Resolution) String() string {
	if r == Local {
		return "local"
	}
	return "external"
}

// Package is a single workspace member.
type Package struct {
	ID         string
	Resolution Resolution

	// Dependencies maps dependency ids to how they are resolved.
	Dependencies map[string]Resolution
	// DeclaresDependencies is false when the listing carried no
	// dependencies member at all, which is different from an empty one.
	DeclaresDependencies bool

	// Scripts holds the names of the scripts the package declares. NPMLoader
	// leaves it empty and answers script lookups from the manifests.
	Scripts map[string]bool
}

// HasScript reports whether the package declares the named script.
func (p *Package) HasScript(name string) bool {
	return p.Scripts[name]
}

// LocalDependencies returns the ids of every Local dependency.
func (p *Package) LocalDependencies() []string {
	var ids []string
	for id, kind := range p.Dependencies {
		if kind == Local {
			ids = append(ids, id)
		}
	}
	return ids
}

func (p *Package) clone() *Package {
	c := *p
	c.Dependencies = maps.Clone(p.Dependencies)
	c.Scripts = maps.Clone(p.Scripts)
	return &c
}
