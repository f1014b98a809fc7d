// Package executor applies validated intents to a session's shape.
//
// Every mutating command is a pure transform producing a replacement
// shape, so a failed operation can never leave the session torn: on any
// kernel error the prior shape is retained and the user gets a failure
// string. All per-command failures are contained here; only an empty
// session aborts the turn.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nadzzz/lathe/internal/features"
	"github.com/nadzzz/lathe/internal/geometry"
	"github.com/nadzzz/lathe/internal/intent"
	"github.com/nadzzz/lathe/internal/session"
)

// ClarificationPrompt is the fixed response for UNSURE intents.
const ClarificationPrompt = "I didn't quite catch that. Could you please say it again?"

// apology is the fallback when the answering collaborator is unavailable.
const apology = "Sorry, I'm having trouble answering that right now."

// Answerer answers free-form questions grounded in the model summary.
type Answerer interface {
	Answer(ctx context.Context, summary, utterance string) (string, error)
}

// Outcome is the user-facing result of one executed intent.
type Outcome struct {
	// Response is the confirmation or answer to speak back.
	Response string

	// Modified reports whether the session's shape was replaced, which
	// obliges the caller to regenerate derived artifacts.
	Modified bool
}

// Executor dispatches intents against a session.
type Executor struct {
	kernel   geometry.Kernel
	answerer Answerer
}

// New creates an executor.
func New(kernel geometry.Kernel, answerer Answerer) *Executor {
	return &Executor{kernel: kernel, answerer: answerer}
}

// Execute runs one validated intent against the session. The caller holds
// the session lock. Only session.ErrEmpty is returned as an error; every
// other failure becomes a response string.
func (e *Executor) Execute(ctx context.Context, sess *session.Session, in intent.Intent, utterance string) (Outcome, error) {
	switch in.Command {
	case intent.CommandUnsure:
		return Outcome{Response: ClarificationPrompt}, nil
	case intent.CommandQuestion, intent.CommandUnknown:
		return e.answer(ctx, sess, utterance)
	}

	shape, err := sess.Current()
	if err != nil {
		return Outcome{}, err
	}

	out, err := e.apply(sess, shape, in)
	if err != nil {
		slog.Warn("command failed, session retains prior shape",
			"session_id", sess.ID(), "command", in.Command, "error", err)
		return Outcome{Response: fmt.Sprintf("Error: %v", err)}, nil
	}
	return out, nil
}

// apply handles the mutating and reporting commands. A returned error
// means the shape was not replaced.
func (e *Executor) apply(sess *session.Session, shape geometry.Shape, in intent.Intent) (Outcome, error) {
	switch in.Command {
	case intent.CommandScale:
		next, err := e.kernel.Scale(shape, in.Factor)
		if err != nil {
			return Outcome{}, err
		}
		sess.Replace(next)
		return Outcome{
			Response: fmt.Sprintf("I've scaled the model by a factor of %v.", in.Factor),
			Modified: true,
		}, nil

	case intent.CommandMove:
		next, err := e.kernel.Translate(shape, in.DX, in.DY, in.DZ)
		if err != nil {
			return Outcome{}, err
		}
		sess.Replace(next)
		return Outcome{
			Response: fmt.Sprintf("I've moved the model by (%v, %v, %v).", in.DX, in.DY, in.DZ),
			Modified: true,
		}, nil

	case intent.CommandDelete:
		if len(shape.Topology().Solids) == 0 {
			return Outcome{Response: "There's nothing left to delete."}, nil
		}
		next, err := e.kernel.DeleteSolid(shape, in.Index)
		if err != nil {
			return Outcome{}, err
		}
		sess.Replace(next)
		return Outcome{Response: "I've removed that part for you.", Modified: true}, nil

	case intent.CommandResizeFeature:
		return e.resizeFeature(sess, shape, in)

	case intent.CommandRotate:
		next, err := e.kernel.Rotate(shape, geometry.ParseAxis(in.Axis), in.AngleDegrees)
		if err != nil {
			return Outcome{}, err
		}
		sess.Replace(next)
		return Outcome{
			Response: fmt.Sprintf("Done. I've rotated the model %v degrees around the %s axis.", in.AngleDegrees, geometry.ParseAxis(in.Axis)),
			Modified: true,
		}, nil

	case intent.CommandScaleNonUniform:
		next, err := e.kernel.ScaleNonUniform(shape, in.FactorX, in.FactorY, in.FactorZ)
		if err != nil {
			return Outcome{}, err
		}
		sess.Replace(next)
		if in.AxisFactor != nil {
			return Outcome{
				Response: fmt.Sprintf("Scaled %s axis by %v.", in.Axis, *in.AxisFactor),
				Modified: true,
			}, nil
		}
		return Outcome{
			Response: fmt.Sprintf("Scaled non-uniformly (%v, %v, %v).", in.FactorX, in.FactorY, in.FactorZ),
			Modified: true,
		}, nil

	case intent.CommandMassProps:
		props, err := e.kernel.MassProperties(shape)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Response: fmt.Sprintf("The model's volume is %.2f cubic units, and the surface area is %.2f square units.", props.Volume, props.Area),
		}, nil

	case intent.CommandColor:
		color := in.Color
		if color == "" {
			color = "requested color"
		}
		return Outcome{
			Response: fmt.Sprintf("Color change to %s is simpler in the UI, but I've noted it.", color),
		}, nil

	default:
		return Outcome{Response: ClarificationPrompt}, nil
	}
}

// resizeFeature re-enumerates features on the current shape: a stored
// index from an earlier turn has no persistent identity, so resolution
// always happens against a fresh scan. Out-of-range indexes clamp to 0.
func (e *Executor) resizeFeature(sess *session.Session, shape geometry.Shape, in intent.Intent) (Outcome, error) {
	feats := features.List(shape)
	if len(feats) == 0 {
		return Outcome{Response: fmt.Sprintf("No %ss found.", in.FeatureType)}, nil
	}

	idx := in.Index
	if idx < 0 || idx >= len(feats) {
		idx = 0
	}
	target := feats[idx]

	switch {
	case in.NewRadius != nil:
		next, err := e.kernel.ResizeCylindricalFace(shape, target.Ref, *in.NewRadius)
		if err != nil {
			return Outcome{}, err
		}
		sess.Replace(next)
		return Outcome{
			Response: fmt.Sprintf("Resized %s to radius %v.", in.FeatureType, *in.NewRadius),
			Modified: true,
		}, nil

	case in.Scale != nil:
		newRadius := target.Radius * *in.Scale
		next, err := e.kernel.ResizeCylindricalFace(shape, target.Ref, newRadius)
		if err != nil {
			return Outcome{}, err
		}
		sess.Replace(next)
		return Outcome{
			Response: fmt.Sprintf("Resized %s by scale %v.", in.FeatureType, *in.Scale),
			Modified: true,
		}, nil

	default:
		return Outcome{Response: "I didn't get a new size for the feature."}, nil
	}
}

// answer delegates to the question-answering collaborator with the latest
// summary text. Unavailability degrades to an apology, never an error.
func (e *Executor) answer(ctx context.Context, sess *session.Session, utterance string) (Outcome, error) {
	summary, err := sess.Summary()
	if err != nil {
		return Outcome{}, err
	}
	if e.answerer == nil {
		return Outcome{Response: apology}, nil
	}
	text, err := e.answerer.Answer(ctx, summary, utterance)
	if err != nil {
		slog.Warn("answering failed", "session_id", sess.ID(), "error", err)
		return Outcome{Response: apology}, nil
	}
	return Outcome{Response: text}, nil
}
