package assembly

import (
	"fmt"
	"sort"
)

// GraphNode is one element of the Hasse diagram payload. The shape matches
// what the diagram frontend consumes; layout is left to the consumer.
type GraphNode struct {
	ID       string    `json:"id"`
	Data     NodeLabel `json:"data"`
	Position Position  `json:"position"`
	Type     string    `json:"type"`
}

// NodeLabel wraps the display label.
type NodeLabel struct {
	Label string `json:"label"`
}

// Position is a layout hint; always zero, the consumer lays ranks out.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GraphEdge is one covering relation of the poset, directed child → parent
// (is-part-of points upward).
type GraphEdge struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Target   string    `json:"target"`
	Type     string    `json:"type"`
	Animated bool      `json:"animated"`
	Style    EdgeStyle `json:"style"`
}

// EdgeStyle carries the stroke hint the diagram frontend expects.
type EdgeStyle struct {
	Stroke string `json:"stroke"`
}

// Graph is the transitively reduced containment poset of an assembly tree.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type edge struct {
	from, to string
}

// Reduce converts an assembly tree into its Hasse diagram: flatten the
// tree into a node set deduplicated by id and a child→parent edge set,
// then remove every edge that is implied by a longer directed path. For a
// tree with no shared nodes the reduction is a no-op; it only bites when
// deduplication merges repeated occurrences of a shared sub-part.
func Reduce(root *Node) Graph {
	if root == nil {
		return Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	}

	labels := make(map[string]string)
	var order []string
	edgeSet := make(map[edge]bool)
	var edgeOrder []edge

	var walk func(n *Node, parentID string)
	walk = func(n *Node, parentID string) {
		if _, seen := labels[n.ID]; !seen {
			labels[n.ID] = fmt.Sprintf("%s (%s)", n.Name, n.Kind)
			order = append(order, n.ID)
		}
		if parentID != "" {
			e := edge{from: n.ID, to: parentID}
			if !edgeSet[e] {
				edgeSet[e] = true
				edgeOrder = append(edgeOrder, e)
			}
		}
		for _, c := range n.Children {
			walk(c, n.ID)
		}
	}
	walk(root, "")

	reduced := transitiveReduction(order, edgeOrder)

	g := Graph{Nodes: make([]GraphNode, 0, len(order)), Edges: make([]GraphEdge, 0, len(reduced))}
	for _, id := range order {
		g.Nodes = append(g.Nodes, GraphNode{
			ID:   id,
			Data: NodeLabel{Label: labels[id]},
			Type: "default",
		})
	}
	for _, e := range reduced {
		g.Edges = append(g.Edges, GraphEdge{
			ID:     fmt.Sprintf("e%s-%s", e.from, e.to),
			Source: e.from,
			Target: e.to,
			Type:   "smoothstep",
			Style:  EdgeStyle{Stroke: "#333"},
		})
	}
	return g
}

// transitiveReduction removes every edge (u,v) for which another directed
// path u → … → v exists. The input comes from a tree so it is acyclic, and
// acyclicity makes the minimal edge set unique.
func transitiveReduction(nodes []string, edges []edge) []edge {
	adj := make(map[string][]string, len(nodes))
	for _, e := range edges {
		adj[e.from] = append(adj[e.from], e.to)
	}
	for _, outs := range adj {
		sort.Strings(outs)
	}

	// reachable reports whether target can be reached from start without
	// taking the direct edge start→target as the first step.
	reachable := func(start, target string, skip edge) bool {
		seen := map[string]bool{start: true}
		stack := []string{start}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, next := range adj[cur] {
				if cur == skip.from && next == skip.to {
					continue
				}
				if next == target {
					return true
				}
				if !seen[next] {
					seen[next] = true
					stack = append(stack, next)
				}
			}
		}
		return false
	}

	kept := make([]edge, 0, len(edges))
	for _, e := range edges {
		if reachable(e.from, e.to, e) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
