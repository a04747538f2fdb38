// Package gemini is the generative provider adapter: text and multimodal
// generation, embeddings and audio transcription over the Generative Language
// REST API.
package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gramgyan/backend/services"
	"github.com/gramgyan/backend/services/providers"
	"github.com/gramgyan/backend/services/rotation"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	providerName   = "gemini"
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	authHeader     = "x-goog-api-key"

	defaultMaxAttempts = 3

	transcribePrompt = "Transcribe this audio exactly as spoken. Detect the language and return the language code/name at the start like [Language: Tamil] then the text."
)

// Models names the generation and embedding models used by the adapter
type Models struct {
	Generate          string
	Embedding         string
	FallbackEmbedding string
}

// DefaultModels returns the models the gateway was built against.
func DefaultModels() Models {
	return Models{
		Generate:          "gemini-2.5-flash",
		Embedding:         "gemini-embedding-001",
		FallbackEmbedding: "embedding-001",
	}
}

// Adapter implements providers.GenerativeProvider
type Adapter struct {
	baseURL     string
	models      Models
	maxAttempts int
	pool        *rotation.Pool
	executor    *rotation.Executor
	transport   *providers.Transport
	logger      *zap.Logger
}

var _ providers.GenerativeProvider = (*Adapter)(nil)

// NewAdapter creates a Gemini adapter. A zero MaxAttempts selects 3.
func NewAdapter(cfg providers.Config, models Models, pool *rotation.Pool, executor *rotation.Executor, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if executor == nil {
		executor = rotation.NewExecutor(logger, nil)
	}
	d := DefaultModels()
	if models.Generate == "" {
		models.Generate = d.Generate
	}
	if models.Embedding == "" {
		models.Embedding = d.Embedding
	}
	if models.FallbackEmbedding == "" {
		models.FallbackEmbedding = d.FallbackEmbedding
	}
	return &Adapter{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		models:      models,
		maxAttempts: cfg.MaxAttempts,
		pool:        pool,
		executor:    executor,
		transport:   providers.NewTransport(providerName, cfg.Timeout),
		logger:      logger,
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return providerName
}

// GenerateText sends a single text prompt.
func (a *Adapter) GenerateText(ctx context.Context, prompt string) (string, error) {
	return a.generate(ctx, "gemini.generate", providers.OperationGenerate, &providers.GenerateRequest{
		Parts: []providers.Part{providers.TextPart(prompt)},
	})
}

// GenerateContent sends a multimodal request, optionally constrained to a JSON schema.
func (a *Adapter) GenerateContent(ctx context.Context, req *providers.GenerateRequest) (string, error) {
	op := providers.OperationGenerate
	for _, p := range req.Parts {
		if p.IsInline() && strings.HasPrefix(p.MimeType, "image/") {
			op = providers.OperationAnalyzeImage
			break
		}
	}
	return a.generate(ctx, "gemini."+string(op), op, req)
}

// TranscribeAudio sends the audio inline with a transcription prompt that asks
// the model to prefix the detected language.
func (a *Adapter) TranscribeAudio(ctx context.Context, audioPath, mimeType string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", providers.NewProviderError(providerName, providers.OperationTranscribeAudio, providers.CodeFileError, "failed to read audio file", err)
	}
	if mimeType == "" {
		mimeType = "audio/mp4"
	}
	return a.generate(ctx, "gemini.transcribe_audio", providers.OperationTranscribeAudio, &providers.GenerateRequest{
		Parts: []providers.Part{
			providers.InlinePart(mimeType, data),
			providers.TextPart(transcribePrompt),
		},
	})
}

// EmbedContent embeds text for retrieval. When the primary model fails for a
// reason other than quota, the fallback model is tried once with the same key.
func (a *Adapter) EmbedContent(ctx context.Context, text string, taskType providers.EmbedTaskType) ([]float64, error) {
	if text == "" {
		return nil, nil
	}
	if taskType == "" {
		taskType = providers.TaskRetrievalDocument
	}

	resp, err := rotation.Execute(ctx, a.executor, rotation.Call[[]byte]{
		Name:        "gemini.embed",
		Pool:        a.pool,
		MaxAttempts: a.maxAttempts,
		Classify:    rotation.ClassifyGenerative,
		Do: func(ctx context.Context, key string) ([]byte, error) {
			body, err := a.embed(ctx, key, a.models.Embedding, text, taskType)
			if err == nil || rotation.IsQuotaError(err) {
				return body, err
			}
			a.logger.Warn("primary embedding model failed, trying fallback",
				zap.String("model", a.models.Embedding),
				zap.String("fallback", a.models.FallbackEmbedding),
				zap.Error(err))
			return a.embed(ctx, key, a.models.FallbackEmbedding, text, taskType)
		},
	})
	if err != nil {
		return nil, err
	}

	values := gjson.GetBytes(resp, "embedding.values")
	if !values.IsArray() || len(values.Array()) == 0 {
		return nil, services.NewParseError("gemini returned no embedding", nil)
	}
	out := make([]float64, 0, len(values.Array()))
	for _, v := range values.Array() {
		out = append(out, v.Float())
	}
	return out, nil
}

type embedRequest struct {
	Model    string  `json:"model"`
	Content  content `json:"content"`
	TaskType string  `json:"taskType"`
}

func (a *Adapter) embed(ctx context.Context, key, model, text string, taskType providers.EmbedTaskType) ([]byte, error) {
	payload := embedRequest{
		Model:    "models/" + model,
		Content:  content{Parts: []part{{Text: text}}},
		TaskType: string(taskType),
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:embedContent", a.baseURL, model)
	return a.transport.PostJSON(ctx, providers.OperationEmbed, url, a.header(key), payload)
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]interface{} `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

func buildGenerateRequest(req *providers.GenerateRequest) generateRequest {
	parts := make([]part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.IsInline() {
			parts = append(parts, part{InlineData: &inlineData{
				MimeType: p.MimeType,
				Data:     base64.StdEncoding.EncodeToString(p.Data),
			}})
			continue
		}
		parts = append(parts, part{Text: p.Text})
	}

	out := generateRequest{Contents: []content{{Role: "user", Parts: parts}}}
	if req.ResponseMimeType != "" || req.ResponseSchema != nil {
		out.GenerationConfig = &generationConfig{
			ResponseMimeType: req.ResponseMimeType,
			ResponseSchema:   req.ResponseSchema,
		}
	}
	return out
}

func (a *Adapter) generate(ctx context.Context, name string, op providers.Operation, req *providers.GenerateRequest) (string, error) {
	payload := buildGenerateRequest(req)
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.baseURL, a.models.Generate)

	resp, err := rotation.Execute(ctx, a.executor, rotation.Call[[]byte]{
		Name:        name,
		Pool:        a.pool,
		MaxAttempts: a.maxAttempts,
		Classify:    rotation.ClassifyGenerative,
		Do: func(ctx context.Context, key string) ([]byte, error) {
			return a.transport.PostJSON(ctx, op, url, a.header(key), payload)
		},
	})
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// responseText joins the text parts of the first candidate.
func responseText(body []byte) (string, error) {
	parts := gjson.GetBytes(body, "candidates.0.content.parts.#.text")
	var b strings.Builder
	for _, p := range parts.Array() {
		b.WriteString(p.String())
	}
	if b.Len() == 0 {
		reason := gjson.GetBytes(body, "promptFeedback.blockReason").String()
		if reason == "" {
			reason = gjson.GetBytes(body, "candidates.0.finishReason").String()
		}
		return "", services.NewParseError("gemini returned no text", nil).WithDetail("reason", reason)
	}
	return b.String(), nil
}

func (a *Adapter) header(key string) http.Header {
	h := http.Header{}
	h.Set(authHeader, key)
	return h
}
