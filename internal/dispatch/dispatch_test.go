package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/lathe/internal/dispatch"
	"github.com/nadzzz/lathe/internal/executor"
	"github.com/nadzzz/lathe/internal/geometry/sdfx"
	"github.com/nadzzz/lathe/internal/interpreter"
	"github.com/nadzzz/lathe/internal/session"
	"github.com/nadzzz/lathe/internal/tts"
)

// fakeInterp is a canned interpreter backend.
type fakeInterp struct {
	transcribeText string
	transcribeErr  error
	interpretRaw   string
	interpretErr   error
	answerText     string
}

func (f *fakeInterp) Name() string { return "fake" }

func (f *fakeInterp) Transcribe(_ context.Context, _ []byte, _ string, _ interpreter.TranscribeOpts) (string, error) {
	return f.transcribeText, f.transcribeErr
}

func (f *fakeInterp) Interpret(_ context.Context, _ string) (json.RawMessage, error) {
	if f.interpretErr != nil {
		return nil, f.interpretErr
	}
	return json.RawMessage(f.interpretRaw), nil
}

func (f *fakeInterp) Answer(_ context.Context, _, _ string) (string, error) {
	return f.answerText, nil
}

func (f *fakeInterp) Close() error { return nil }

// fakeSynth is a canned synthesizer.
type fakeSynth struct {
	err error
}

func (f *fakeSynth) Synthesize(_ context.Context, _ string, _ tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tts.SynthesizeResult{Audio: []byte("RIFFfake"), ContentType: "audio/wav"}, nil
}

func (f *fakeSynth) Close() error { return nil }

func newDispatcher(interp interpreter.Interpreter, synth tts.Synthesizer) *dispatch.Dispatcher {
	kernel := sdfx.New(sdfx.WithMeshCells(32))
	return dispatch.New(interp, executor.New(kernel, interp), kernel, synth, 0)
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	sess := session.New("test", filepath.Join(t.TempDir(), "model.stl"))
	sess.Replace(sdfx.Box(10, 10, 10))
	return sess
}

func TestHandleTextScale(t *testing.T) {
	interp := &fakeInterp{interpretRaw: `{"command": "SCALE", "factor": 2.0}`}
	d := newDispatcher(interp, nil)
	sess := newSession(t)

	result := d.HandleText(context.Background(), sess, "scale the model by 2")
	assert.Equal(t, dispatch.StatusSuccess, result.Status)
	assert.True(t, result.Modified)
	assert.Contains(t, result.Response, "2")
	require.NotNil(t, result.Tree)
	assert.Equal(t, "Assembly", result.Tree.Name)

	// The mesh export must be regenerated for the modified shape.
	_, err := os.Stat(sess.ExportPath())
	require.NoError(t, err)

	// The spoken response is recorded for echo suppression.
	sess.Lock()
	assert.Equal(t, result.Response, sess.LastSpoken())
	sess.Unlock()
}

func TestHandleTextQuestionDoesNotExport(t *testing.T) {
	interp := &fakeInterp{interpretRaw: `{"command": "QUESTION"}`, answerText: "It is 10 units wide."}
	d := newDispatcher(interp, nil)
	sess := newSession(t)

	result := d.HandleText(context.Background(), sess, "how wide is it?")
	assert.Equal(t, dispatch.StatusSuccess, result.Status)
	assert.False(t, result.Modified)
	assert.Nil(t, result.Tree)
	assert.Equal(t, "It is 10 units wide.", result.Response)

	_, err := os.Stat(sess.ExportPath())
	assert.True(t, os.IsNotExist(err))
}

func TestHandleTextInterpretFailure(t *testing.T) {
	interp := &fakeInterp{interpretErr: errors.New("llm unreachable")}
	d := newDispatcher(interp, nil)
	sess := newSession(t)

	result := d.HandleText(context.Background(), sess, "scale it")
	assert.Equal(t, dispatch.StatusSuccess, result.Status)
	assert.False(t, result.Modified)
	assert.Equal(t, executor.ClarificationPrompt, result.Response)
}

func TestHandleTextMalformedCommand(t *testing.T) {
	interp := &fakeInterp{interpretRaw: `certainly! here is your json`}
	d := newDispatcher(interp, nil)
	sess := newSession(t)

	result := d.HandleText(context.Background(), sess, "do the thing")
	assert.Equal(t, executor.ClarificationPrompt, result.Response)
}

func TestHandleTextEmptySession(t *testing.T) {
	interp := &fakeInterp{interpretRaw: `{"command": "SCALE", "factor": 2.0}`}
	d := newDispatcher(interp, nil)
	sess := session.New("empty", filepath.Join(t.TempDir(), "model.stl"))

	result := d.HandleText(context.Background(), sess, "scale it")
	assert.Equal(t, dispatch.StatusError, result.Status)
	assert.Equal(t, "No model loaded.", result.Response)
}

func TestHandleVoiceEchoIgnored(t *testing.T) {
	interp := &fakeInterp{transcribeText: "I've scaled the model by a factor of 2."}
	d := newDispatcher(interp, nil)
	sess := newSession(t)
	sess.SetLastSpoken("I've scaled the model by a factor of 2.")

	result := d.HandleVoice(context.Background(), sess, []byte("audio"), "audio/wav")
	assert.Equal(t, dispatch.StatusIgnored, result.Status)
	assert.Equal(t, "Ignored (Echo)", result.Response)
	assert.False(t, result.Modified)
}

func TestHandleVoiceDistinctUtterancePasses(t *testing.T) {
	interp := &fakeInterp{
		transcribeText: "rotate it ninety degrees",
		interpretRaw:   `{"command": "ROTATE", "axis": "Z", "angle_degrees": 90}`,
	}
	d := newDispatcher(interp, nil)
	sess := newSession(t)
	sess.SetLastSpoken("I've scaled the model by a factor of 2.")

	result := d.HandleVoice(context.Background(), sess, []byte("audio"), "audio/wav")
	assert.Equal(t, dispatch.StatusSuccess, result.Status)
	assert.True(t, result.Modified)
	assert.Equal(t, "rotate it ninety degrees", result.Transcription)
}

func TestHandleVoiceTranscribeFailure(t *testing.T) {
	interp := &fakeInterp{transcribeErr: errors.New("whisper down")}
	d := newDispatcher(interp, nil)
	sess := newSession(t)

	result := d.HandleVoice(context.Background(), sess, []byte("audio"), "audio/wav")
	assert.Equal(t, dispatch.StatusError, result.Status)
	assert.Equal(t, "(Audio Processing Failed)", result.Transcription)
	assert.Contains(t, result.Response, "System Error")
}

func TestSynthesisAttachesAudio(t *testing.T) {
	interp := &fakeInterp{interpretRaw: `{"command": "UNSURE"}`}
	d := newDispatcher(interp, &fakeSynth{})
	sess := newSession(t)

	result := d.HandleText(context.Background(), sess, "mumble")
	assert.NotEmpty(t, result.ResponseAudio)
	assert.Equal(t, "audio/wav", result.ResponseContentType)
}

func TestSynthesisFailureDegradesToText(t *testing.T) {
	interp := &fakeInterp{interpretRaw: `{"command": "UNSURE"}`}
	d := newDispatcher(interp, &fakeSynth{err: errors.New("piper down")})
	sess := newSession(t)

	result := d.HandleText(context.Background(), sess, "mumble")
	assert.Equal(t, dispatch.StatusSuccess, result.Status)
	assert.Equal(t, executor.ClarificationPrompt, result.Response)
	assert.Empty(t, result.ResponseAudio)
}
