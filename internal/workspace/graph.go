package workspace

import (
	"context"
	"errors"
	"fmt"
)

// Graph is an immutable snapshot of the workspace, keyed by package id and
// ordered by discovery.
type Graph struct {
	order    []string
	position map[string]int
	packages map[string]*Package
}

// NewGraph copies the given packages into a snapshot. The argument order is
// the discovery order. Empty and duplicate ids are rejected.
func NewGraph(pkgs ...*Package) (*Graph, error) {
	g := &Graph{
		order:    make([]string, 0, len(pkgs)),
		position: make(map[string]int, len(pkgs)),
		packages: make(map[string]*Package, len(pkgs)),
	}
	for _, p := range pkgs {
		if p == nil || p.ID == "" {
			return nil, errors.New("package with empty id")
		}
		if _, dup := g.packages[p.ID]; dup {
			return nil, fmt.Errorf("duplicate package %q", p.ID)
		}
		g.position[p.ID] = len(g.order)
		g.order = append(g.order, p.ID)
		g.packages[p.ID] = p.clone()
	}
	return g, nil
}

// Get returns the package with the given id. The returned package must be
// treated as read-only.
func (g *Graph) Get(id string) (*Package, bool) {
	p, ok := g.packages[id]
	return p, ok
}

// Has reports whether id is a member of the snapshot.
func (g *Graph) Has(id string) bool {
	_, ok := g.packages[id]
	return ok
}

// HasScript implements ScriptSource from the scripts recorded in the
// snapshot. Unknown ids declare nothing.
func (g *Graph) HasScript(_ context.Context, id, script string) (bool, error) {
	p, ok := g.packages[id]
	return ok && p.HasScript(script), nil
}

// Len returns the number of packages.
func (g *Graph) Len() int { return len(g.order) }

// IDs returns every package id in discovery order.
func (g *Graph) IDs() []string {
	return append([]string(nil), g.order...)
}

// Position returns the discovery index of id, or -1.
func (g *Graph) Position(id string) int {
	if i, ok := g.position[id]; ok {
		return i
	}
	return -1
}

// Local returns the ids of packages built from source, in discovery order.
func (g *Graph) Local() []string { return g.filter(Local) }

// External returns the ids of registry-resolved packages, in discovery order.
func (g *Graph) External() []string { return g.filter(External) }

func (g *Graph) filter(kind Resolution) []string {
	var ids []string
	for _, id := range g.order {
		if g.packages[id].Resolution == kind {
			ids = append(ids, id)
		}
	}
	return ids
}
