// Package providers defines the upstream AI capabilities the gateway depends on
// and the HTTP plumbing shared by their adapters.
package providers

import (
	"context"
	"time"
)

// SpeechProvider covers speech recognition, translation and synthesis for
// Indian languages.
type SpeechProvider interface {
	// Name returns the provider name (e.g., "sarvam")
	Name() string

	// SpeechToText transcribes the audio file at path. An empty languageCode
	// lets the provider detect the language.
	SpeechToText(ctx context.Context, audioPath, languageCode string) (string, error)

	// Translate converts text between two language codes.
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error)

	// TextToSpeech synthesises text and returns the decoded audio bytes.
	TextToSpeech(ctx context.Context, text, languageCode string) ([]byte, error)
}

// GenerativeProvider covers text generation, multimodal analysis and embeddings.
type GenerativeProvider interface {
	// Name returns the provider name (e.g., "gemini")
	Name() string

	// GenerateText sends a single text prompt and returns the model's text.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateContent sends a multimodal request.
	GenerateContent(ctx context.Context, req *GenerateRequest) (string, error)

	// EmbedContent returns the embedding of text. Empty text yields nil.
	EmbedContent(ctx context.Context, text string, taskType EmbedTaskType) ([]float64, error)

	// TranscribeAudio transcribes an audio file and reports the detected
	// language on the first line as "[Language: X]".
	TranscribeAudio(ctx context.Context, audioPath, mimeType string) (string, error)
}

// Part is one element of a multimodal prompt: text or inline binary data.
type Part struct {
	Text     string
	MimeType string
	Data     []byte
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// InlinePart builds a binary part.
func InlinePart(mimeType string, data []byte) Part {
	return Part{MimeType: mimeType, Data: data}
}

// IsInline reports whether the part carries binary data.
func (p Part) IsInline() bool {
	return len(p.Data) > 0
}

// GenerateRequest is a multimodal generation request.
type GenerateRequest struct {
	Parts []Part

	// ResponseMimeType requests structured output, e.g. "application/json".
	ResponseMimeType string

	// ResponseSchema is an optional JSON schema for structured output.
	ResponseSchema map[string]interface{}
}

// EmbedTaskType tells the embedding model how the vector will be used.
type EmbedTaskType string

const (
	TaskRetrievalDocument EmbedTaskType = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    EmbedTaskType = "RETRIEVAL_QUERY"
)

// Config holds common configuration for provider adapters
type Config struct {
	// BaseURL for the API (optional override)
	BaseURL string

	// Timeout for requests, clamped by NewTransport
	Timeout time.Duration

	// MaxAttempts bounds the rotation executor. Zero means one try per key.
	MaxAttempts int
}
