// Package assembly builds the part/assembly containment hierarchy of a
// shape and derives its Hasse diagram (the transitively reduced poset of
// the is-part-of relation) for visualization.
package assembly

// Kind classifies a node in the assembly hierarchy.
type Kind string

const (
	KindAssembly Kind = "Assembly"
	KindPart     Kind = "Part"
	KindShell    Kind = "Shell"
	KindFace     Kind = "Face"
)

// Node is one element of the rooted assembly tree. The parent owns its
// children; ids are assigned at build time and are not stable across
// rebuilds.
type Node struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Kind     Kind    `json:"type"`
	Children []*Node `json:"children"`
}

// Count returns the number of nodes in the subtree rooted at n, including
// n itself.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}
