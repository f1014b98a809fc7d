package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Intent
	}{
		{
			name: "scale with factor",
			raw:  `{"command": "SCALE", "factor": 2.5}`,
			want: Intent{Command: CommandScale, Factor: 2.5},
		},
		{
			name: "scale missing factor defaults to identity",
			raw:  `{"command": "SCALE"}`,
			want: Intent{Command: CommandScale, Factor: 1.0},
		},
		{
			name: "move with partial offsets",
			raw:  `{"command": "MOVE", "dx": 10}`,
			want: Intent{Command: CommandMove, DX: 10},
		},
		{
			name: "delete without index means first",
			raw:  `{"command": "DELETE"}`,
			want: Intent{Command: CommandDelete, Index: -1},
		},
		{
			name: "delete with index",
			raw:  `{"command": "DELETE", "index": 1}`,
			want: Intent{Command: CommandDelete, Index: 1},
		},
		{
			name: "rotate defaults to 90 around Z",
			raw:  `{"command": "ROTATE"}`,
			want: Intent{Command: CommandRotate, Axis: "Z", AngleDegrees: 90},
		},
		{
			name: "rotate invalid axis falls back to Z",
			raw:  `{"command": "ROTATE", "axis": "w", "angle_degrees": 45}`,
			want: Intent{Command: CommandRotate, Axis: "Z", AngleDegrees: 45},
		},
		{
			name: "lowercase command tag accepted",
			raw:  `{"command": "scale", "factor": 3}`,
			want: Intent{Command: CommandScale, Factor: 3},
		},
		{
			name: "question carries no payload",
			raw:  `{"command": "QUESTION", "factor": 99}`,
			want: Intent{Command: CommandQuestion},
		},
		{
			name: "mass props",
			raw:  `{"command": "GET_MASS_PROPS"}`,
			want: Intent{Command: CommandMassProps},
		},
		{
			name: "color",
			raw:  `{"command": "COLOR", "color": "red"}`,
			want: Intent{Command: CommandColor, Color: "red"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse([]byte(tt.raw)))
		})
	}
}

func TestParseResizeFeature(t *testing.T) {
	t.Run("absolute radius", func(t *testing.T) {
		in := Parse([]byte(`{"command": "RESIZE_FEATURE", "new_radius": 15.0}`))
		assert.Equal(t, CommandResizeFeature, in.Command)
		assert.Equal(t, "hole", in.FeatureType)
		assert.Equal(t, 0, in.Index)
		require.NotNil(t, in.NewRadius)
		assert.Equal(t, 15.0, *in.NewRadius)
		assert.Nil(t, in.Scale)
	})

	t.Run("relative scale", func(t *testing.T) {
		in := Parse([]byte(`{"command": "RESIZE_FEATURE", "feature_type": "boss", "index": 2, "scale": 1.5}`))
		assert.Equal(t, "boss", in.FeatureType)
		assert.Equal(t, 2, in.Index)
		assert.Nil(t, in.NewRadius)
		require.NotNil(t, in.Scale)
		assert.Equal(t, 1.5, *in.Scale)
	})

	t.Run("neither size field stays nil", func(t *testing.T) {
		in := Parse([]byte(`{"command": "RESIZE_FEATURE"}`))
		assert.Nil(t, in.NewRadius)
		assert.Nil(t, in.Scale)
	})
}

func TestParseScaleNonUniform(t *testing.T) {
	t.Run("axis form pins other factors", func(t *testing.T) {
		in := Parse([]byte(`{"command": "SCALE_NON_UNIFORM", "axis": "y", "axis_factor": 2.0}`))
		assert.Equal(t, "Y", in.Axis)
		require.NotNil(t, in.AxisFactor)
		assert.Equal(t, 2.0, *in.AxisFactor)
		assert.Equal(t, 1.0, in.FactorX)
		assert.Equal(t, 2.0, in.FactorY)
		assert.Equal(t, 1.0, in.FactorZ)
	})

	t.Run("triple form", func(t *testing.T) {
		in := Parse([]byte(`{"command": "SCALE_NON_UNIFORM", "factor_x": 2, "factor_z": 0.5}`))
		assert.Nil(t, in.AxisFactor)
		assert.Equal(t, 2.0, in.FactorX)
		assert.Equal(t, 1.0, in.FactorY)
		assert.Equal(t, 0.5, in.FactorZ)
	})

	t.Run("axis without factor scales by one", func(t *testing.T) {
		in := Parse([]byte(`{"command": "SCALE_NON_UNIFORM", "axis": "X"}`))
		assert.Nil(t, in.AxisFactor)
		assert.Equal(t, 1.0, in.FactorX)
		assert.Equal(t, 1.0, in.FactorY)
		assert.Equal(t, 1.0, in.FactorZ)
	})
}

func TestParseDowngradesToUnsure(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `scale it by two`},
		{"empty", ``},
		{"missing command", `{"factor": 2.0}`},
		{"unknown tag", `{"command": "EXTRUDE"}`},
		{"null command", `{"command": null}`},
		{"wrong command type", `{"command": 7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Unsure(), Parse([]byte(tt.raw)))
		})
	}
}

func TestUnknownIsNotDowngraded(t *testing.T) {
	// UNKNOWN routes to question answering, so it must survive parsing.
	in := Parse([]byte(`{"command": "UNKNOWN"}`))
	assert.Equal(t, CommandUnknown, in.Command)
}
