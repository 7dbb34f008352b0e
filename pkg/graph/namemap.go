package graph

import "strings"

// NameMap is one scope of the flattening pass: the global names given to
// the members of one sub-state, linked to the enclosing scope.
type NameMap struct {
	Parent *NameMap
	Local  map[string]string
}

// Child opens a nested scope.
func (m *NameMap) Child(local map[string]string) *NameMap {
	return &NameMap{Parent: m, Local: local}
}

// Resolve turns a transition target written inside this scope into a
// global name. "../x" is resolved from the parent scope; a plain name is
// looked up here, then in each ancestor. A name found nowhere is assumed
// to be global already and is returned verbatim.
func (m *NameMap) Resolve(name string) string {
	if rest, ok := strings.CutPrefix(name, "../"); ok {
		if m == nil || m.Parent == nil {
			return m.Resolve(rest)
		}
		return m.Parent.Resolve(rest)
	}
	for scope := m; scope != nil; scope = scope.Parent {
		if global, ok := scope.Local[name]; ok {
			return global
		}
	}
	return name
}
