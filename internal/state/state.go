package state

import (
	"fmt"

	"github.com/specialistvlad/wavebuild/internal/workspace"
)

// UndeclaredRule decides what happens to in-scope packages whose listing
// entry has no dependencies member at all.
type UndeclaredRule int

const (
	// UndeclaredExclude never schedules such packages. They are reported as
	// excluded and any package depending on them stays blocked.
	UndeclaredExclude UndeclaredRule = iota
	// UndeclaredLeaf schedules them as packages without dependencies.
	UndeclaredLeaf
)

// ParseUndeclaredRule parses "exclude" or "leaf". The empty string selects
// UndeclaredExclude.
func ParseUndeclaredRule(s string) (UndeclaredRule, error) {
	switch s {
	case "", "exclude":
		return UndeclaredExclude, nil
	case "leaf":
		return UndeclaredLeaf, nil
	default:
		return 0, fmt.Errorf("invalid undeclared dependencies rule %q: must be 'exclude' or 'leaf'", s)
	}
}

func (r UndeclaredRule) String() string {
	if r == UndeclaredLeaf {
		return "leaf"
	}
	return "exclude"
}

// ExecutionState tracks pending and compiled package ids for one run.
type ExecutionState struct {
	graph *workspace.Graph

	pending    []string
	pendingSet map[string]struct{}
	compiled   map[string]struct{}
	excluded   []string
	blocked    map[string]struct{}
}

// New initializes the state: every External package is compiled, every
// in-scope Local package is pending, except packages without a dependency
// declaration when rule is UndeclaredExclude.
func New(g *workspace.Graph, scope workspace.Scope, rule UndeclaredRule) *ExecutionState {
	s := &ExecutionState{
		graph:      g,
		pendingSet: make(map[string]struct{}),
		compiled:   make(map[string]struct{}),
		blocked:    make(map[string]struct{}),
	}
	for _, id := range g.External() {
		s.compiled[id] = struct{}{}
	}
	for _, id := range scope.IDs() {
		pkg, ok := g.Get(id)
		if !ok || pkg.Resolution != workspace.Local {
			continue
		}
		if _, done := s.compiled[id]; done {
			continue
		}
		if !pkg.DeclaresDependencies && rule == UndeclaredExclude {
			s.excluded = append(s.excluded, id)
			s.blocked[id] = struct{}{}
			continue
		}
		s.pending = append(s.pending, id)
		s.pendingSet[id] = struct{}{}
	}
	return s
}

// Ready returns, in discovery order, the pending packages whose Local
// dependencies are all satisfied.
func (s *ExecutionState) Ready() []string {
	var ready []string
	for _, id := range s.pending {
		pkg, _ := s.graph.Get(id)
		if s.dependenciesMet(pkg) {
			ready = append(ready, id)
		}
	}
	return ready
}

func (s *ExecutionState) dependenciesMet(pkg *workspace.Package) bool {
	for dep, kind := range pkg.Dependencies {
		if kind == workspace.Local && !s.satisfied(dep) {
			return false
		}
	}
	return true
}

// satisfied reports whether a Local dependency no longer holds anything up.
// Packages outside the scope count as satisfied; ids missing from the graph
// never do.
func (s *ExecutionState) satisfied(id string) bool {
	if _, ok := s.compiled[id]; ok {
		return true
	}
	if !s.graph.Has(id) {
		return false
	}
	if _, ok := s.pendingSet[id]; ok {
		return false
	}
	_, isBlocked := s.blocked[id]
	return !isBlocked
}

// MarkCompiled moves id from pending to compiled.
func (s *ExecutionState) MarkCompiled(id string) error {
	if _, ok := s.pendingSet[id]; !ok {
		return fmt.Errorf("package %q is not pending", id)
	}
	delete(s.pendingSet, id)
	for i, p := range s.pending {
		if p == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	s.compiled[id] = struct{}{}
	return nil
}

// Pending returns the ids still waiting to be built, in discovery order.
func (s *ExecutionState) Pending() []string {
	return append([]string(nil), s.pending...)
}

// Excluded returns the in-scope ids that were never made pending.
func (s *ExecutionState) Excluded() []string {
	return append([]string(nil), s.excluded...)
}

// IsCompiled reports whether id is satisfied.
func (s *ExecutionState) IsCompiled(id string) bool {
	_, ok := s.compiled[id]
	return ok
}

// Done reports whether nothing is pending.
func (s *ExecutionState) Done() bool {
	return len(s.pending) == 0
}
