package graph

import "strconv"

// NamingStrategy assigns a global name to every member of sub, given the
// global name of sub itself. The member named by sub.StartAt must receive
// parentGlobal, so that a transition to the sub-state lands on its entry.
// Names must be unique across one flattening.
type NamingStrategy func(parentGlobal string, sub *SubState) map[string]string

// Namer is the default NamingStrategy. A member is named after its Origin
// label when it has one, otherwise "<parent>_<local>"; clashes get a
// numeric suffix. A Namer remembers every name it handed out, so use a new
// one for each flattening.
type Namer struct {
	used map[string]bool
}

// NewNamer returns a namer with no names taken.
func NewNamer() *Namer {
	return &Namer{used: make(map[string]bool)}
}

// Names implements NamingStrategy.
func (n *Namer) Names(parentGlobal string, sub *SubState) map[string]string {
	n.used[parentGlobal] = true
	names := make(map[string]string, len(sub.States))
	for _, local := range sub.MemberNames() {
		if local == sub.StartAt {
			names[local] = parentGlobal
			continue
		}
		base := originOf(sub.States[local])
		if base == "" {
			base = parentGlobal + "_" + local
		}
		names[local] = n.unique(base)
	}
	return names
}

func (n *Namer) unique(base string) string {
	name := base
	for i := 1; n.used[name]; i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	n.used[name] = true
	return name
}

// Strategy returns n.Names as a NamingStrategy.
func (n *Namer) Strategy() NamingStrategy { return n.Names }
