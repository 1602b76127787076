package workspace

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Cycles returns the dependency cycles among ids: every strongly connected
// component with more than one member, plus packages that depend on
// themselves. Only Local edges between members of ids are considered.
// Members of a cycle and the cycles themselves follow discovery order.
func Cycles(g *Graph, ids []string) [][]string {
	dg := simple.NewDirectedGraph()
	nodeOf := make(map[string]int64, len(ids))
	idOf := make(map[int64]string, len(ids))
	for i, id := range ids {
		n := simple.Node(int64(i))
		dg.AddNode(n)
		nodeOf[id] = n.ID()
		idOf[n.ID()] = id
	}

	selfLoops := make(map[string]bool)
	for _, id := range ids {
		pkg, ok := g.Get(id)
		if !ok {
			continue
		}
		for _, dep := range pkg.LocalDependencies() {
			to, ok := nodeOf[dep]
			if !ok {
				continue
			}
			if dep == id {
				selfLoops[id] = true
				continue
			}
			dg.SetEdge(dg.NewEdge(dg.Node(nodeOf[id]), dg.Node(to)))
		}
	}

	var cycles [][]string
	for _, component := range topo.TarjanSCC(dg) {
		if len(component) == 1 && !selfLoops[idOf[component[0].ID()]] {
			continue
		}
		members := make([]string, len(component))
		for i, n := range component {
			members[i] = idOf[n.ID()]
		}
		sort.Slice(members, func(i, j int) bool {
			return g.Position(members[i]) < g.Position(members[j])
		})
		cycles = append(cycles, members)
	}
	sort.Slice(cycles, func(i, j int) bool {
		return g.Position(cycles[i][0]) < g.Position(cycles[j][0])
	})
	return cycles
}
