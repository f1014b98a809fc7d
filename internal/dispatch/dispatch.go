// Package dispatch implements the voice turn pipeline.
//
// The dispatcher takes one utterance (audio or text) through the full
// flow: transcribe → echo suppression → interpret → execute → re-derive
// artifacts → synthesize. The caller always receives a TurnResult; per
// turn failures degrade the result instead of erroring, so one bad
// utterance never takes the session down.
package dispatch

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nadzzz/lathe/internal/assembly"
	"github.com/nadzzz/lathe/internal/executor"
	"github.com/nadzzz/lathe/internal/geometry"
	"github.com/nadzzz/lathe/internal/intent"
	"github.com/nadzzz/lathe/internal/interpreter"
	"github.com/nadzzz/lathe/internal/session"
	"github.com/nadzzz/lathe/internal/tts"
)

// TranscribePrompt primes the speech model with CAD vocabulary so domain
// terms survive transcription.
const TranscribePrompt = "CAD design, engineering, 3D modeling, scale, rotate, extrude, feature, radius, diameter"

// echoThreshold is the similarity ratio above which a transcription is
// treated as the microphone picking up the assistant's own speech.
const echoThreshold = 0.8

// Turn statuses.
const (
	StatusSuccess = "success"
	StatusIgnored = "ignored"
	StatusError   = "error"
)

// TurnResult is the outcome of one dispatched utterance.
type TurnResult struct {
	Status        string         `json:"status"`
	Transcription string         `json:"transcription"`
	Response      string         `json:"response"`
	Modified      bool           `json:"modified"`
	Tree          *assembly.Node `json:"tree"`

	// ResponseAudio is the base64-encoded spoken response, empty when
	// synthesis is disabled or failed.
	ResponseAudio       string `json:"response_audio,omitempty"`
	ResponseContentType string `json:"response_content_type,omitempty"`
}

// Dispatcher runs utterances through the turn pipeline.
type Dispatcher struct {
	interp      interpreter.Interpreter
	exec        *executor.Executor
	kernel      geometry.Kernel
	synthesizer tts.Synthesizer // nil if TTS is disabled
	deflection  float64
}

// New creates a dispatcher. A nil synthesizer disables spoken responses.
func New(interp interpreter.Interpreter, exec *executor.Executor, kernel geometry.Kernel, synthesizer tts.Synthesizer, deflection float64) *Dispatcher {
	return &Dispatcher{
		interp:      interp,
		exec:        exec,
		kernel:      kernel,
		synthesizer: synthesizer,
		deflection:  deflection,
	}
}

// HandleVoice processes one audio utterance against the session.
func (d *Dispatcher) HandleVoice(ctx context.Context, sess *session.Session, audio []byte, contentType string) TurnResult {
	sess.Lock()
	defer sess.Unlock()

	start := time.Now()
	logger := slog.With("session_id", sess.ID())

	text, err := d.interp.Transcribe(ctx, audio, contentType, interpreter.TranscribeOpts{
		Language: "en",
		Prompt:   TranscribePrompt,
	})
	if err != nil {
		logger.Error("transcription failed", "error", err)
		return TurnResult{
			Status:        StatusError,
			Transcription: "(Audio Processing Failed)",
			Response:      "System Error: " + err.Error(),
		}
	}
	logger.Info("transcription complete", "text_length", len(text))

	// Echo suppression: when the transcription is mostly the assistant's
	// own last utterance, the microphone heard the speaker.
	if last := sess.LastSpoken(); last != "" {
		sim := similarity(strings.ToLower(text), strings.ToLower(last))
		if sim > echoThreshold {
			logger.Info("ignored echo", "similarity", sim)
			return TurnResult{
				Status:        StatusIgnored,
				Transcription: text,
				Response:      "Ignored (Echo)",
			}
		}
	}

	return d.runTurn(ctx, sess, text, logger, start)
}

// HandleText processes one typed utterance against the session. Typed
// input skips transcription and echo suppression.
func (d *Dispatcher) HandleText(ctx context.Context, sess *session.Session, text string) TurnResult {
	sess.Lock()
	defer sess.Unlock()

	logger := slog.With("session_id", sess.ID())
	return d.runTurn(ctx, sess, text, logger, time.Now())
}

// runTurn interprets and executes one utterance. The caller holds the
// session lock.
func (d *Dispatcher) runTurn(ctx context.Context, sess *session.Session, text string, logger *slog.Logger, start time.Time) TurnResult {
	// Interpretation transport failures downgrade to a clarification
	// request rather than failing the turn.
	var in intent.Intent
	raw, err := d.interp.Interpret(ctx, text)
	if err != nil {
		logger.Warn("interpretation failed, asking for a repeat", "error", err)
		in = intent.Unsure()
	} else {
		in = intent.Parse(raw)
	}
	logger.Info("interpretation complete", "command", in.Command)

	out, err := d.exec.Execute(ctx, sess, in, text)
	if err != nil {
		if errors.Is(err, session.ErrEmpty) {
			return TurnResult{Status: StatusError, Transcription: text, Response: "No model loaded."}
		}
		logger.Error("execution failed", "error", err)
		return TurnResult{Status: StatusError, Transcription: text, Response: "System Error: " + err.Error()}
	}

	result := TurnResult{
		Status:        StatusSuccess,
		Transcription: text,
		Response:      out.Response,
		Modified:      out.Modified,
	}

	// A modified shape invalidates the mesh export and the assembly tree.
	// The export happens first so a tree reader never sees a newer tree
	// than mesh.
	if out.Modified {
		shape, err := sess.Current()
		if err == nil {
			if err := d.kernel.MeshExport(shape, sess.ExportPath(), d.deflection); err != nil {
				logger.Error("mesh re-export failed", "error", err)
			}
			tree := assembly.BuildTree(shape, sess.Source())
			sess.SetTree(tree)
			result.Tree = tree
		}
	}

	d.speak(ctx, sess, &result, logger)

	logger.Info("turn complete", "status", result.Status, "modified", result.Modified, "duration", time.Since(start))
	return result
}

// speak synthesizes the response and records it for echo suppression.
// Synthesis failures degrade the turn to text only.
func (d *Dispatcher) speak(ctx context.Context, sess *session.Session, result *TurnResult, logger *slog.Logger) {
	if result.Response == "" {
		return
	}
	sess.SetLastSpoken(result.Response)

	if d.synthesizer == nil {
		return
	}
	synth, err := d.synthesizer.Synthesize(ctx, result.Response, tts.SynthesizeOpts{})
	if err != nil {
		logger.Warn("TTS synthesis failed, continuing without audio", "error", err)
		return
	}
	result.ResponseAudio = base64.StdEncoding.EncodeToString(synth.Audio)
	result.ResponseContentType = synth.ContentType
	logger.Info("TTS synthesis complete", "audio_bytes", len(synth.Audio))
}

// similarity is the ratio of matched characters to total characters,
// 2*M/T over the longest-common-substring decomposition of the two
// strings. 1.0 means identical, 0.0 means nothing in common.
func similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	m := matchedChars([]rune(a), []rune(b))
	return 2.0 * float64(m) / float64(len([]rune(a))+len([]rune(b)))
}

// matchedChars finds the longest common substring, then recurses on the
// pieces to its left and right.
func matchedChars(a, b []rune) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchedChars(a[:ai], b[:bi])
	total += matchedChars(a[ai+size:], b[bi+size:])
	return total
}

func longestMatch(a, b []rune) (ai, bi, size int) {
	// lengths[j] holds the match length ending at a[i-1], b[j-1].
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return ai, bi, size
}
