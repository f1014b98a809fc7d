package features_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/lathe/internal/features"
	"github.com/nadzzz/lathe/internal/geometry/sdfx"
)

func TestListEnumeratesCylinders(t *testing.T) {
	compound, err := sdfx.Compound(sdfx.Box(10, 10, 10), sdfx.Cylinder(20, 3))
	require.NoError(t, err)

	feats := features.List(compound)
	require.Len(t, feats, 1)
	assert.Equal(t, 0, feats[0].Index)
	assert.Equal(t, 1, feats[0].Ref.Solid)
	assert.InDelta(t, 3, feats[0].Radius, 1e-9)
	assert.InDelta(t, 1, feats[0].Axis.Z, 1e-9)
}

func TestListEmptyWithoutCylinders(t *testing.T) {
	assert.Empty(t, features.List(sdfx.Box(1, 1, 1)))
	assert.Empty(t, features.List(sdfx.Empty()))
}

func TestSummary(t *testing.T) {
	got := features.Summary(sdfx.Cylinder(10, 5))
	assert.Contains(t, got, "Total faces: 3")
	assert.Contains(t, got, "Cylindrical faces (possible holes/bosses): 1")
	assert.Contains(t, got, "Cylinder 1: radius = 5.00, axis direction = (0.00, 0.00, 1.00)")
}

func TestSummaryNoFeatures(t *testing.T) {
	got := features.Summary(sdfx.Box(2, 2, 2))
	assert.Contains(t, got, "Total faces: 6")
	assert.Contains(t, got, "Cylindrical faces (possible holes/bosses): 0")
	assert.NotContains(t, got, "Cylinder 1")
}
