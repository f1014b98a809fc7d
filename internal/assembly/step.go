package assembly

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	productRe = regexp.MustCompile(`#(\d+)\s*=\s*PRODUCT\s*\(\s*'([^']*)'`)
	usageRe   = regexp.MustCompile(`#(\d+)\s*=\s*NEXT_ASSEMBLY_USAGE_OCCURRENCE\s*\(\s*'[^']*'\s*,\s*[^,]*,\s*#(\d+)\s*,\s*#(\d+)`)
)

type product struct {
	name     string
	children []string
}

// ParseStep extracts the product structure of a STEP file: PRODUCT
// entities are nodes, NEXT_ASSEMBLY_USAGE_OCCURRENCE entities are
// parent/child links. Returns nil when the file has no product structure,
// which tells the caller to fall back to a geometry-derived tree.
func ParseStep(path string) *Node {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	content := string(data)

	products := make(map[string]*product)
	for _, m := range productRe.FindAllStringSubmatch(content, -1) {
		products[m[1]] = &product{name: m[2]}
	}
	if len(products) == 0 {
		return nil
	}
	for _, m := range usageRe.FindAllStringSubmatch(content, -1) {
		parent, child := m[2], m[3]
		if _, ok := products[parent]; !ok {
			continue
		}
		if _, ok := products[child]; !ok {
			continue
		}
		products[parent].children = append(products[parent].children, child)
	}

	// The root is the product never used as a child. Fall back to the
	// lowest entity id when the file links every product.
	used := make(map[string]bool)
	for _, p := range products {
		for _, c := range p.children {
			used[c] = true
		}
	}
	ids := make([]string, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return entityLess(ids[i], ids[j])
	})
	rootID := ids[0]
	for _, id := range ids {
		if !used[id] {
			rootID = id
			break
		}
	}

	return buildProductNode(products, rootID, make(map[string]bool))
}

// buildProductNode resolves one product into a tree node. visited holds the
// ids on the current path: a usage link that closes a cycle is dropped, so a
// malformed file cannot recurse without bound.
func buildProductNode(products map[string]*product, id string, visited map[string]bool) *Node {
	p, ok := products[id]
	if !ok {
		return &Node{ID: uuid.NewString(), Name: "Unknown " + id, Kind: KindPart, Children: []*Node{}}
	}
	visited[id] = true
	defer delete(visited, id)
	children := make([]*Node, 0, len(p.children))
	for _, c := range p.children {
		if visited[c] {
			continue
		}
		children = append(children, buildProductNode(products, c, visited))
	}
	kind := KindPart
	if len(children) > 0 {
		kind = KindAssembly
	}
	name := p.name
	if name == "" {
		name = "Component " + id
	}
	return &Node{ID: uuid.NewString(), Name: name, Kind: kind, Children: children}
}

// entityLess orders STEP entity ids numerically by digit count then value.
func entityLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return strings.Compare(a, b) < 0
}
