package workspace

import "strings"

// Scope is the immutable set of package ids selected for a run, kept in
// discovery order.
type Scope struct {
	ids []string
	set map[string]struct{}
}

// Has reports whether id is selected.
func (s Scope) Has(id string) bool {
	_, ok := s.set[id]
	return ok
}

// IDs returns the selected ids in discovery order.
func (s Scope) IDs() []string { return append([]string(nil), s.ids...) }

// Len returns the number of selected ids.
func (s Scope) Len() int { return len(s.ids) }

// ParseAllowList splits a comma-separated allow-list, dropping blank entries.
func ParseAllowList(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// Qualify prepends prefix to name unless name already carries it.
func Qualify(prefix, name string) string {
	if prefix == "" || strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}

// SelectScope computes the run's scope. An empty allow-list selects every
// Local package. Otherwise each entry is qualified with prefix and matched
// against the graph; entries that match nothing are returned separately so
// the caller can report them.
func SelectScope(g *Graph, allowList []string, prefix string) (Scope, []string) {
	if len(allowList) == 0 {
		return newScope(g.Local()), nil
	}

	wanted := make(map[string]struct{}, len(allowList))
	var unmatched []string
	for _, name := range allowList {
		id := Qualify(prefix, name)
		if !g.Has(id) {
			unmatched = append(unmatched, name)
			continue
		}
		wanted[id] = struct{}{}
	}

	var ids []string
	for _, id := range g.order {
		if _, ok := wanted[id]; ok {
			ids = append(ids, id)
		}
	}
	return newScope(ids), unmatched
}

func newScope(ids []string) Scope {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return Scope{ids: ids, set: set}
}
