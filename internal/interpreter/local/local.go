// Package local implements the Interpreter interface using self-hosted models.
//
// It supports any OpenAI-compatible transcription endpoint (e.g., whisper.cpp
// server, faster-whisper) and Ollama's /api/generate for command generation
// and question answering.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/nadzzz/lathe/internal/config"
	"github.com/nadzzz/lathe/internal/interpreter"
)

// Interpreter uses self-hosted models for transcription, command
// generation, and question answering.
type Interpreter struct {
	whisperEndpoint string
	llmEndpoint     string
	llmModel        string
	defaultLanguage string
	client          *http.Client
}

// New creates a new local interpreter from config.
func New(cfg config.LocalConfig) *Interpreter {
	model := cfg.LLMModel
	if model == "" {
		model = "llama3"
	}
	return &Interpreter{
		whisperEndpoint: cfg.WhisperEndpoint,
		llmEndpoint:     cfg.LLMEndpoint,
		llmModel:        model,
		defaultLanguage: cfg.Language,
		client:          &http.Client{},
	}
}

// Name returns the backend identifier.
func (i *Interpreter) Name() string { return "local" }

// Transcribe sends audio to the local Whisper-compatible endpoint.
func (i *Interpreter) Transcribe(ctx context.Context, audio []byte, contentType string, opts interpreter.TranscribeOpts) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	ext := extFromContentType(contentType)
	part, err := writer.CreateFormFile("file", "audio"+ext)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}

	if opts.Model != "" {
		_ = writer.WriteField("model", opts.Model)
	}
	lang := opts.Language
	if lang == "" {
		lang = i.defaultLanguage
	}
	if lang != "" {
		_ = writer.WriteField("language", lang)
	}
	if opts.Prompt != "" {
		_ = writer.WriteField("prompt", opts.Prompt)
	}
	_ = writer.WriteField("response_format", "json")
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.whisperEndpoint, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("local transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("local transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding transcription: %w", err)
	}

	slog.Debug("local transcription complete", "text_length", len(result.Text))
	return strings.TrimSpace(result.Text), nil
}

// Interpret sends the transcribed text to the local LLM. Ollama's JSON
// format mode constrains the output the way response_format does on the
// cloud backends.
func (i *Interpreter) Interpret(ctx context.Context, text string) (json.RawMessage, error) {
	content, err := i.generate(ctx, interpreter.CommandSystemPrompt, text, true)
	if err != nil {
		return nil, err
	}
	slog.Debug("local interpretation complete", "content_length", len(content))
	return json.RawMessage(content), nil
}

// Answer responds to a free-form question grounded in the model summary.
func (i *Interpreter) Answer(ctx context.Context, summary, text string) (string, error) {
	content, err := i.generate(ctx, interpreter.AnswerSystemPrompt(summary), text, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// Close is a no-op for the local interpreter.
func (i *Interpreter) Close() error { return nil }

// generate performs one LLM round trip. Supports Ollama's /api/generate
// and OpenAI-compatible /v1/chat/completions, selected by endpoint path.
func (i *Interpreter) generate(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	var reqBody map[string]any
	if strings.HasSuffix(i.llmEndpoint, "/api/generate") {
		reqBody = map[string]any{
			"model":  i.llmModel,
			"system": system,
			"prompt": prompt,
			"stream": false,
		}
		if jsonMode {
			reqBody["format"] = "json"
		}
	} else {
		reqBody = map[string]any{
			"model": i.llmModel,
			"messages": []map[string]string{
				{"role": "system", "content": system},
				{"role": "user", "content": prompt},
			},
			"temperature": 0.0,
			"stream":      false,
		}
		if jsonMode {
			reqBody["response_format"] = map[string]string{"type": "json_object"}
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.llmEndpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("local LLM request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("local LLM failed (status %d): %s", resp.StatusCode, respBody)
	}

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading LLM response: %w", err)
	}

	content := extractContent(respData)
	if content == "" {
		return "", fmt.Errorf("empty response from local LLM")
	}
	return content, nil
}

// --- Internal helpers ---

func extractContent(data []byte) string {
	// Try Ollama format: {"response": "..."}
	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &ollamaResp); err == nil && ollamaResp.Response != "" {
		return ollamaResp.Response
	}

	// Try OpenAI-compatible format: {"choices": [{"message": {"content": "..."}}]}
	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &chatResp); err == nil && len(chatResp.Choices) > 0 {
		return chatResp.Choices[0].Message.Content
	}

	return string(data)
}

func extFromContentType(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return ".mp3"
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "webm"):
		return ".webm"
	default:
		return ".wav"
	}
}
