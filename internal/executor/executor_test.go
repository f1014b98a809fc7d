package executor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/lathe/internal/executor"
	"github.com/nadzzz/lathe/internal/geometry"
	"github.com/nadzzz/lathe/internal/geometry/sdfx"
	"github.com/nadzzz/lathe/internal/intent"
	"github.com/nadzzz/lathe/internal/session"
)

// stubAnswerer records the question it was asked.
type stubAnswerer struct {
	answer  string
	err     error
	summary string
	asked   string
}

func (s *stubAnswerer) Answer(_ context.Context, summary, utterance string) (string, error) {
	s.summary = summary
	s.asked = utterance
	return s.answer, s.err
}

func newSession(t *testing.T, shape geometry.Shape) *session.Session {
	t.Helper()
	s := session.New("test", t.TempDir()+"/model.stl")
	if shape != nil {
		s.Replace(shape)
	}
	return s
}

func floatPtr(f float64) *float64 { return &f }

func TestExecuteUnsure(t *testing.T) {
	e := executor.New(sdfx.New(), nil)
	sess := newSession(t, nil) // UNSURE needs no shape

	out, err := e.Execute(context.Background(), sess, intent.Unsure(), "mumble")
	require.NoError(t, err)
	assert.Equal(t, executor.ClarificationPrompt, out.Response)
	assert.False(t, out.Modified)
}

func TestExecuteQuestion(t *testing.T) {
	ans := &stubAnswerer{answer: "It looks like the model is 10 units wide."}
	e := executor.New(sdfx.New(), ans)
	sess := newSession(t, sdfx.Box(10, 10, 10))

	out, err := e.Execute(context.Background(), sess, intent.Intent{Command: intent.CommandQuestion}, "how wide is it?")
	require.NoError(t, err)
	assert.Equal(t, ans.answer, out.Response)
	assert.False(t, out.Modified)
	assert.Equal(t, "how wide is it?", ans.asked)
	assert.Contains(t, ans.summary, "CAD Model Summary:")
}

func TestExecuteQuestionAnswererFails(t *testing.T) {
	e := executor.New(sdfx.New(), &stubAnswerer{err: errors.New("api down")})
	sess := newSession(t, sdfx.Box(10, 10, 10))

	out, err := e.Execute(context.Background(), sess, intent.Intent{Command: intent.CommandQuestion}, "how wide?")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I'm having trouble answering that right now.", out.Response)
}

func TestExecuteEmptySession(t *testing.T) {
	e := executor.New(sdfx.New(), nil)
	sess := newSession(t, nil)

	_, err := e.Execute(context.Background(), sess, intent.Intent{Command: intent.CommandScale, Factor: 2}, "scale by 2")
	require.ErrorIs(t, err, session.ErrEmpty)
}

func TestExecuteScale(t *testing.T) {
	e := executor.New(sdfx.New(), nil)
	sess := newSession(t, sdfx.Box(10, 10, 10))

	out, err := e.Execute(context.Background(), sess, intent.Intent{Command: intent.CommandScale, Factor: 2}, "scale by 2")
	require.NoError(t, err)
	assert.True(t, out.Modified)
	assert.Contains(t, out.Response, "2")

	shape, err := sess.Current()
	require.NoError(t, err)
	assert.InDelta(t, 20, shape.BoundingBox().Width(), 1e-9)
}

func TestExecuteScaleZeroRetainsShape(t *testing.T) {
	e := executor.New(sdfx.New(), nil)
	sess := newSession(t, sdfx.Box(10, 10, 10))

	out, err := e.Execute(context.Background(), sess, intent.Intent{Command: intent.CommandScale, Factor: 0}, "scale by zero")
	require.NoError(t, err)
	assert.False(t, out.Modified)
	assert.Contains(t, out.Response, "Error:")

	shape, err := sess.Current()
	require.NoError(t, err)
	assert.InDelta(t, 10, shape.BoundingBox().Width(), 1e-9)
}

func TestExecuteMove(t *testing.T) {
	e := executor.New(sdfx.New(), nil)
	sess := newSession(t, sdfx.Box(10, 10, 10))

	out, err := e.Execute(context.Background(), sess, intent.Intent{Command: intent.CommandMove, DX: 5, DY: -1, DZ: 0}, "move it")
	require.NoError(t, err)
	assert.True(t, out.Modified)
	assert.Equal(t, "I've moved the model by (5, -1, 0).", out.Response)

	shape, err := sess.Current()
	require.NoError(t, err)
	assert.InDelta(t, 0, shape.BoundingBox().Min.X, 1e-9)
}

func TestExecuteDelete(t *testing.T) {
	compound, err := sdfx.Compound(sdfx.Box(1, 1, 1), sdfx.Box(2, 2, 2), sdfx.Box(3, 3, 3))
	require.NoError(t, err)

	e := executor.New(sdfx.New(), nil)
	sess := newSession(t, compound)

	out, err := e.Execute(context.Background(), sess, intent.Intent{Command: intent.CommandDelete, Index: -1}, "delete this part")
	require.NoError(t, err)
	assert.True(t, out.Modified)
	assert.Equal(t, "I've removed that part for you.", out.Response)

	shape, err := sess.Current()
	require.NoError(t, err)
	assert.Len(t, shape.Topology().Solids, 2)
}

func TestExecuteDeleteNothingLeft(t *testing.T) {
	e := executor.New(sdfx.New(), nil)
	sess := newSession(t, sdfx.Empty())

	out, err := e.Execute(context.Background(), sess, intent.Intent{Command: intent.CommandDelete, Index: -1}, "delete it")
	require.NoError(t, err)
	assert.False(t, out.Modified)
	assert.Equal(t, "There's nothing left to delete.", out.Response)
}

func TestExecuteResizeFeature(t *testing.T) {
	e := executor.New(sdfx.New(), nil)

	t.Run("absolute radius", func(t *testing.T) {
		sess := newSession(t, sdfx.Cylinder(10, 5))
		in := intent.Intent{Command: intent.CommandResizeFeature, FeatureType: "hole", NewRadius: floatPtr(12)}

		out, err := e.Execute(context.Background(), sess, in, "change hole size to 12")
		require.NoError(t, err)
		assert.True(t, out.Modified)
		assert.Contains(t, out.Response, "12")

		shape, err := sess.Current()
		require.NoError(t, err)
		require.Len(t, shape.Cylinders(), 1)
		assert.InDelta(t, 12, shape.Cylinders()[0].Radius, 1e-9)
	})

	t.Run("relative scale", func(t *testing.T) {
		sess := newSession(t, sdfx.Cylinder(10, 5))
		in := intent.Intent{Command: intent.CommandResizeFeature, FeatureType: "hole", Scale: floatPtr(1.5)}

		out, err := e.Execute(context.Background(), sess, in, "make the hole bigger")
		require.NoError(t, err)
		assert.True(t, out.Modified)

		shape, err := sess.Current()
		require.NoError(t, err)
		assert.InDelta(t, 7.5, shape.Cylinders()[0].Radius, 1e-9)
	})

	t.Run("out-of-range index clamps to first", func(t *testing.T) {
		sess := newSession(t, sdfx.Cylinder(10, 5))
		in := intent.Intent{Command: intent.CommandResizeFeature, FeatureType: "hole", Index: 7, NewRadius: floatPtr(6)}

		out, err := e.Execute(context.Background(), sess, in, "resize hole 8")
		require.NoError(t, err)
		assert.True(t, out.Modified)

		shape, err := sess.Current()
		require.NoError(t, err)
		assert.InDelta(t, 6, shape.Cylinders()[0].Radius, 1e-9)
	})

	t.Run("no cylindrical features", func(t *testing.T) {
		sess := newSession(t, sdfx.Box(10, 10, 10))
		in := intent.Intent{Command: intent.CommandResizeFeature, FeatureType: "hole", NewRadius: floatPtr(6)}

		out, err := e.Execute(context.Background(), sess, in, "make the hole bigger")
		require.NoError(t, err)
		assert.False(t, out.Modified)
		assert.Equal(t, "No holes found.", out.Response)
	})

	t.Run("no size given", func(t *testing.T) {
		sess := newSession(t, sdfx.Cylinder(10, 5))
		in := intent.Intent{Command: intent.CommandResizeFeature, FeatureType: "hole"}

		out, err := e.Execute(context.Background(), sess, in, "resize the hole")
		require.NoError(t, err)
		assert.False(t, out.Modified)
		assert.Equal(t, "I didn't get a new size for the feature.", out.Response)
	})
}

func TestExecuteRotate(t *testing.T) {
	e := executor.New(sdfx.New(), nil)
	sess := newSession(t, sdfx.Box(10, 20, 30))

	in := intent.Intent{Command: intent.CommandRotate, Axis: "Z", AngleDegrees: 90}
	out, err := e.Execute(context.Background(), sess, in, "rotate 90 around z")
	require.NoError(t, err)
	assert.True(t, out.Modified)
	assert.Contains(t, out.Response, "90")

	shape, err := sess.Current()
	require.NoError(t, err)
	assert.InDelta(t, 20, shape.BoundingBox().Width(), 1e-9)
}

func TestExecuteScaleNonUniform(t *testing.T) {
	e := executor.New(sdfx.New(), nil)
	sess := newSession(t, sdfx.Box(10, 10, 10))

	in := intent.Intent{
		Command: intent.CommandScaleNonUniform,
		Axis:    "Z", AxisFactor: floatPtr(2),
		FactorX: 1, FactorY: 1, FactorZ: 2,
	}
	out, err := e.Execute(context.Background(), sess, in, "stretch it in z")
	require.NoError(t, err)
	assert.True(t, out.Modified)
	assert.Equal(t, "Scaled Z axis by 2.", out.Response)

	shape, err := sess.Current()
	require.NoError(t, err)
	assert.InDelta(t, 20, shape.BoundingBox().Height(), 1e-9)
	assert.InDelta(t, 10, shape.BoundingBox().Width(), 1e-9)
}

func TestExecuteMassProps(t *testing.T) {
	e := executor.New(sdfx.New(sdfx.WithMeshCells(32)), nil)
	sess := newSession(t, sdfx.Box(10, 10, 10))

	in := intent.Intent{Command: intent.CommandMassProps}
	out, err := e.Execute(context.Background(), sess, in, "what is the volume")
	require.NoError(t, err)
	assert.False(t, out.Modified)
	assert.Contains(t, out.Response, "volume")
	assert.Contains(t, out.Response, "surface area")
}

func TestExecuteColor(t *testing.T) {
	e := executor.New(sdfx.New(), nil)
	sess := newSession(t, sdfx.Box(1, 1, 1))

	out, err := e.Execute(context.Background(), sess, intent.Intent{Command: intent.CommandColor, Color: "red"}, "make it red")
	require.NoError(t, err)
	assert.False(t, out.Modified)
	assert.Contains(t, out.Response, "red")

	out, err = e.Execute(context.Background(), sess, intent.Intent{Command: intent.CommandColor}, "change the color")
	require.NoError(t, err)
	assert.Contains(t, out.Response, "requested color")
}
