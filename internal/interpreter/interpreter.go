// Package interpreter defines the interface for LLM-based speech and
// command interpretation.
//
// An interpreter transcribes audio, converts transcribed text into a raw
// command JSON document, and answers free-form questions grounded in a
// model summary. Lathe ships with two backends: OpenAI-compatible (cloud,
// Groq by default) and Local (self-hosted via Ollama/whisper.cpp).
package interpreter

import (
	"context"
	"encoding/json"
)

// TranscribeOpts controls transcription behavior.
type TranscribeOpts struct {
	// Language is the ISO-639-1 code (e.g., "en", "fr") to guide transcription.
	Language string

	// Prompt provides context to improve recognition of domain-specific terms.
	Prompt string

	// Model overrides the default transcription model.
	Model string
}

// Interpreter is the interface for transcription, command generation, and
// model question answering.
type Interpreter interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Transcribe converts audio bytes to text.
	Transcribe(ctx context.Context, audio []byte, contentType string, opts TranscribeOpts) (string, error)

	// Interpret converts transcribed text into a raw command JSON document.
	// The caller validates the document; transport failures surface as errors.
	Interpret(ctx context.Context, text string) (json.RawMessage, error)

	// Answer responds to a free-form question using only the given model summary.
	Answer(ctx context.Context, summary, text string) (string, error)

	// Close releases any resources held by the interpreter.
	Close() error
}
