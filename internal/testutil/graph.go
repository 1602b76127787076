package testutil

import (
	"testing"

	"github.com/specialistvlad/wavebuild/internal/workspace"
	"github.com/stretchr/testify/require"
)

// Local returns a workspace-linked package with a "build" script that
// depends on the given local packages.
func Local(id string, deps ...string) *workspace.Package {
	p := &workspace.Package{
		ID:                   id,
		Resolution:           workspace.Local,
		Dependencies:         map[string]workspace.Resolution{},
		DeclaresDependencies: true,
		Scripts:              map[string]bool{"build": true},
	}
	for _, d := range deps {
		p.Dependencies[d] = workspace.Local
	}
	return p
}

// External returns a registry package.
func External(id string) *workspace.Package {
	return &workspace.Package{ID: id, Resolution: workspace.External}
}

// WithExternal adds registry dependencies to p.
func WithExternal(p *workspace.Package, deps ...string) *workspace.Package {
	for _, d := range deps {
		p.Dependencies[d] = workspace.External
	}
	return p
}

// WithScripts replaces the scripts of p.
func WithScripts(p *workspace.Package, scripts ...string) *workspace.Package {
	p.Scripts = map[string]bool{}
	for _, s := range scripts {
		p.Scripts[s] = true
	}
	return p
}

// Undeclared marks p as carrying no dependency declaration.
func Undeclared(p *workspace.Package) *workspace.Package {
	p.Dependencies = nil
	p.DeclaresDependencies = false
	return p
}

// MustGraph builds a graph and fails the test on error.
func MustGraph(t *testing.T, pkgs ...*workspace.Package) *workspace.Graph {
	t.Helper()
	g, err := workspace.NewGraph(pkgs...)
	require.NoError(t, err)
	return g
}

// AllLocal selects every local package of g.
func AllLocal(g *workspace.Graph) workspace.Scope {
	scope, _ := workspace.SelectScope(g, nil, "")
	return scope
}
