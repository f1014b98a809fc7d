package assembly_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/lathe/internal/assembly"
	"github.com/nadzzz/lathe/internal/geometry/sdfx"
)

func TestBuildTreeCounts(t *testing.T) {
	compound, err := sdfx.Compound(sdfx.Box(10, 10, 10), sdfx.Cylinder(20, 3))
	require.NoError(t, err)

	root := assembly.BuildTree(compound, "")
	require.NotNil(t, root)
	assert.Equal(t, "Assembly", root.Name)
	assert.Equal(t, assembly.KindAssembly, root.Kind)

	// 1 root + 2 parts + 2 shells + (6 + 3) faces
	assert.Equal(t, 14, root.Count())
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Solid 1", root.Children[0].Name)
	assert.Equal(t, assembly.KindPart, root.Children[0].Kind)
	require.Len(t, root.Children[0].Children, 1)
	assert.Len(t, root.Children[0].Children[0].Children, 6)
	assert.Len(t, root.Children[1].Children[0].Children, 3)
}

func TestBuildTreeEmptyShape(t *testing.T) {
	root := assembly.BuildTree(sdfx.Empty(), "")
	require.NotNil(t, root)
	assert.Equal(t, 1, root.Count())
	assert.Empty(t, root.Children)
}

func TestParseStep(t *testing.T) {
	content := `ISO-10303-21;
DATA;
#10 = PRODUCT('Gearbox','Gearbox','',(#1));
#20 = PRODUCT('Housing','Housing','',(#1));
#30 = PRODUCT('Shaft','Shaft','',(#1));
#40 = NEXT_ASSEMBLY_USAGE_OCCURRENCE('1','',#10,#20,$);
#50 = NEXT_ASSEMBLY_USAGE_OCCURRENCE('2','',#10,#30,$);
ENDSEC;
END-ISO-10303-21;
`
	path := filepath.Join(t.TempDir(), "asm.step")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	root := assembly.ParseStep(path)
	require.NotNil(t, root)
	assert.Equal(t, "Gearbox", root.Name)
	assert.Equal(t, assembly.KindAssembly, root.Kind)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Housing", root.Children[0].Name)
	assert.Equal(t, assembly.KindPart, root.Children[0].Kind)
	assert.Equal(t, "Shaft", root.Children[1].Name)
}

func TestParseStepCyclicUsageTerminates(t *testing.T) {
	// A malformed file whose usage links form a cycle must still produce a
	// finite tree: the link that closes the cycle is dropped.
	content := `DATA;
#10 = PRODUCT('A','A','',(#1));
#20 = PRODUCT('B','B','',(#1));
#30 = NEXT_ASSEMBLY_USAGE_OCCURRENCE('u1','',#10,#20,$);
#40 = NEXT_ASSEMBLY_USAGE_OCCURRENCE('u2','',#20,#10,$);
ENDSEC;
`
	path := filepath.Join(t.TempDir(), "cycle.step")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	root := assembly.ParseStep(path)
	require.NotNil(t, root)
	assert.Equal(t, "A", root.Name)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "B", root.Children[0].Name)
	assert.Empty(t, root.Children[0].Children)
}

func TestParseStepNoProducts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.step")
	require.NoError(t, os.WriteFile(path, []byte("DATA;\n#1 = CARTESIAN_POINT('',(0.,0.,0.));\nENDSEC;"), 0o644))
	assert.Nil(t, assembly.ParseStep(path))
}

func TestParseStepMissingFile(t *testing.T) {
	assert.Nil(t, assembly.ParseStep(filepath.Join(t.TempDir(), "nope.step")))
}

func TestBuildTreeUsesProductName(t *testing.T) {
	content := `DATA;
#10 = PRODUCT('Bracket','Bracket','',(#1));
ENDSEC;
`
	path := filepath.Join(t.TempDir(), "bracket.step")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	root := assembly.BuildTree(sdfx.Box(5, 5, 5), path)
	assert.Equal(t, "Bracket", root.Name)
	assert.Equal(t, assembly.KindPart, root.Kind)
	require.Len(t, root.Children, 1) // geometry levels still present
}

func TestReduceTreeIsNoOp(t *testing.T) {
	root := assembly.BuildTree(sdfx.Box(10, 10, 10), "")
	g := assembly.Reduce(root)

	// A tree with unique node ids reduces to itself: n nodes, n-1 edges.
	assert.Len(t, g.Nodes, root.Count())
	assert.Len(t, g.Edges, root.Count()-1)

	assert.Equal(t, "Assembly (Assembly)", g.Nodes[0].Data.Label)
	assert.Equal(t, "Solid 1 (Part)", g.Nodes[1].Data.Label)
	for _, e := range g.Edges {
		assert.Equal(t, "smoothstep", e.Type)
		assert.Equal(t, "e"+e.Source+"-"+e.Target, e.ID)
		assert.False(t, e.Animated)
		assert.Equal(t, "#333", e.Style.Stroke)
	}
}

func TestSolidFor(t *testing.T) {
	compound, err := sdfx.Compound(sdfx.Box(10, 10, 10), sdfx.Cylinder(20, 3))
	require.NoError(t, err)
	root := assembly.BuildTree(compound, "")

	t.Run("part id resolves to its index", func(t *testing.T) {
		idx, ok := assembly.SolidFor(root, root.Children[1].ID)
		require.True(t, ok)
		assert.Equal(t, 1, idx)
	})

	t.Run("face id resolves to the enclosing solid", func(t *testing.T) {
		face := root.Children[1].Children[0].Children[2]
		idx, ok := assembly.SolidFor(root, face.ID)
		require.True(t, ok)
		assert.Equal(t, 1, idx)
	})

	t.Run("root id names no component", func(t *testing.T) {
		_, ok := assembly.SolidFor(root, root.ID)
		assert.False(t, ok)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, ok := assembly.SolidFor(root, "nope")
		assert.False(t, ok)
	})

	t.Run("nil tree", func(t *testing.T) {
		_, ok := assembly.SolidFor(nil, "x")
		assert.False(t, ok)
	})
}

func TestReduceNil(t *testing.T) {
	g := assembly.Reduce(nil)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
	assert.NotNil(t, g.Nodes)
	assert.NotNil(t, g.Edges)
}

func TestReduceRemovesTransitiveEdges(t *testing.T) {
	// A shared child occurring both directly under the root and under an
	// intermediate node: the direct edge is implied by the longer path.
	shared := &assembly.Node{ID: "c", Name: "Pin", Kind: assembly.KindPart, Children: []*assembly.Node{}}
	mid := &assembly.Node{ID: "b", Name: "Sub", Kind: assembly.KindAssembly, Children: []*assembly.Node{shared}}
	root := &assembly.Node{ID: "a", Name: "Top", Kind: assembly.KindAssembly, Children: []*assembly.Node{mid, shared}}

	g := assembly.Reduce(root)
	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Edges, 2)

	got := map[string]string{}
	for _, e := range g.Edges {
		got[e.Source] = e.Target
	}
	// Kept: b→a and c→b. Dropped: c→a (implied by c→b→a).
	assert.Equal(t, "a", got["b"])
	assert.Equal(t, "b", got["c"])
}

func TestNodeCount(t *testing.T) {
	var nilNode *assembly.Node
	assert.Equal(t, 0, nilNode.Count())

	leaf := &assembly.Node{ID: "1"}
	assert.Equal(t, 1, leaf.Count())
}
