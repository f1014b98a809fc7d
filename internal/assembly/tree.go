package assembly

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nadzzz/lathe/internal/geometry"
)

// BuildTree derives the assembly hierarchy of a shape. When stepPath names
// a STEP file with product structure, its root product supplies the root
// node's name and kind; the geometry enumeration always supplies the
// solid/shell/face levels. With S solids, H shells and F faces the tree
// holds exactly S Part, H Shell and F Face nodes.
func BuildTree(shape geometry.Shape, stepPath string) *Node {
	root := &Node{
		ID:       uuid.NewString(),
		Name:     "Assembly",
		Kind:     KindAssembly,
		Children: []*Node{},
	}
	if stepPath != "" {
		if parsed := ParseStep(stepPath); parsed != nil {
			root.Name = parsed.Name
			root.Kind = parsed.Kind
		}
	}

	topo := shape.Topology()
	for i, solid := range topo.Solids {
		part := &Node{
			ID:       uuid.NewString(),
			Name:     fmt.Sprintf("Solid %d", i+1),
			Kind:     KindPart,
			Children: []*Node{},
		}
		for j, shell := range solid.Shells {
			sh := &Node{
				ID:       uuid.NewString(),
				Name:     fmt.Sprintf("Shell %d", j+1),
				Kind:     KindShell,
				Children: []*Node{},
			}
			for l := range shell.Faces {
				sh.Children = append(sh.Children, &Node{
					ID:       uuid.NewString(),
					Name:     fmt.Sprintf("Face %d", l+1),
					Kind:     KindFace,
					Children: []*Node{},
				})
			}
			part.Children = append(part.Children, sh)
		}
		root.Children = append(root.Children, part)
	}
	return root
}

// SolidFor resolves a tree node id to the index of the solid that owns it.
// Part, Shell and Face nodes all resolve to their enclosing solid; the root
// itself names no single component.
func SolidFor(root *Node, id string) (int, bool) {
	if root == nil {
		return 0, false
	}
	for i, part := range root.Children {
		if subtreeHas(part, id) {
			return i, true
		}
	}
	return 0, false
}

func subtreeHas(n *Node, id string) bool {
	if n.ID == id {
		return true
	}
	for _, c := range n.Children {
		if subtreeHas(c, id) {
			return true
		}
	}
	return false
}
