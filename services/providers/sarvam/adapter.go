// Package sarvam is the speech provider adapter: speech-to-text, translation
// and text-to-speech for Indian languages.
package sarvam

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gramgyan/backend/services"
	"github.com/gramgyan/backend/services/providers"
	"github.com/gramgyan/backend/services/rotation"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	providerName   = "sarvam"
	defaultBaseURL = "https://api.sarvam.ai"
	authHeader     = "api-subscription-key"
)

// Models and voice settings sent with every request
type Models struct {
	STT           string
	Translate     string
	TTS           string
	Speaker       string
	SpeakerGender string
	Mode          string
}

// DefaultModels returns the models the gateway was built against.
func DefaultModels() Models {
	return Models{
		STT:           "saarika:v2.5",
		Translate:     "mayura:v1",
		TTS:           "bulbul:v3",
		Speaker:       "kavitha",
		SpeakerGender: "Female",
		Mode:          "formal",
	}
}

// Adapter implements providers.SpeechProvider against the Sarvam REST API
type Adapter struct {
	baseURL   string
	models    Models
	pool      *rotation.Pool
	executor  *rotation.Executor
	transport *providers.Transport
	logger    *zap.Logger
}

var _ providers.SpeechProvider = (*Adapter)(nil)

// NewAdapter creates a Sarvam adapter. Empty model fields fall back to DefaultModels.
func NewAdapter(cfg providers.Config, models Models, pool *rotation.Pool, executor *rotation.Executor, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if executor == nil {
		executor = rotation.NewExecutor(logger, nil)
	}
	return &Adapter{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		models:    withDefaults(models),
		pool:      pool,
		executor:  executor,
		transport: providers.NewTransport(providerName, cfg.Timeout),
		logger:    logger,
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return providerName
}

// SpeechToText uploads the audio file as multipart form data. The file is
// re-read on every attempt so a rotated retry sends the full body again.
func (a *Adapter) SpeechToText(ctx context.Context, audioPath, languageCode string) (string, error) {
	return rotation.Execute(ctx, a.executor, rotation.Call[string]{
		Name:     "sarvam.stt",
		Pool:     a.pool,
		Classify: rotation.ClassifyHTTPStatus,
		Do: func(ctx context.Context, key string) (string, error) {
			body, contentType, err := a.sttForm(audioPath, languageCode)
			if err != nil {
				return "", err
			}
			resp, err := a.transport.Post(ctx, providers.OperationSTT, a.baseURL+"/speech-to-text", a.header(key), contentType, body)
			if err != nil {
				return "", err
			}
			return gjson.GetBytes(resp, "transcript").String(), nil
		},
	})
}

type translateRequest struct {
	Input              string `json:"input"`
	SourceLanguageCode string `json:"source_language_code"`
	TargetLanguageCode string `json:"target_language_code"`
	SpeakerGender      string `json:"speaker_gender"`
	Mode               string `json:"mode"`
	Model              string `json:"model"`
}

// Translate converts text between two language codes. A response without
// translated_text yields "".
func (a *Adapter) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	payload := translateRequest{
		Input:              text,
		SourceLanguageCode: sourceLanguage,
		TargetLanguageCode: targetLanguage,
		SpeakerGender:      a.models.SpeakerGender,
		Mode:               a.models.Mode,
		Model:              a.models.Translate,
	}
	return rotation.Execute(ctx, a.executor, rotation.Call[string]{
		Name:     "sarvam.translate",
		Pool:     a.pool,
		Classify: rotation.ClassifyHTTPStatus,
		Do: func(ctx context.Context, key string) (string, error) {
			resp, err := a.transport.PostJSON(ctx, providers.OperationTranslate, a.baseURL+"/translate", a.header(key), payload)
			if err != nil {
				return "", err
			}
			return gjson.GetBytes(resp, "translated_text").String(), nil
		},
	})
}

type ttsRequest struct {
	Inputs             []string `json:"inputs"`
	TargetLanguageCode string   `json:"target_language_code"`
	Speaker            string   `json:"speaker"`
	Model              string   `json:"model"`
}

// TextToSpeech returns the decoded bytes of the first synthesised clip.
func (a *Adapter) TextToSpeech(ctx context.Context, text, languageCode string) ([]byte, error) {
	payload := ttsRequest{
		Inputs:             []string{text},
		TargetLanguageCode: languageCode,
		Speaker:            a.models.Speaker,
		Model:              a.models.TTS,
	}
	resp, err := rotation.Execute(ctx, a.executor, rotation.Call[[]byte]{
		Name:     "sarvam.tts",
		Pool:     a.pool,
		Classify: rotation.ClassifyHTTPStatus,
		Do: func(ctx context.Context, key string) ([]byte, error) {
			return a.transport.PostJSON(ctx, providers.OperationTTS, a.baseURL+"/text-to-speech", a.header(key), payload)
		},
	})
	if err != nil {
		return nil, err
	}

	clip := gjson.GetBytes(resp, "audios.0")
	if !clip.Exists() || clip.String() == "" {
		return nil, services.NewParseError("sarvam returned no audio", nil)
	}
	audio, err := base64.StdEncoding.DecodeString(clip.String())
	if err != nil {
		return nil, services.NewParseError("sarvam returned invalid audio encoding", err)
	}
	return audio, nil
}

func (a *Adapter) header(key string) http.Header {
	h := http.Header{}
	h.Set(authHeader, key)
	return h
}

func (a *Adapter) sttForm(audioPath, languageCode string) (io.Reader, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", providers.NewProviderError(providerName, providers.OperationSTT, providers.CodeFileError, "failed to open audio file", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", `form-data; name="file"; filename="`+filepath.Base(audioPath)+`"`)
	partHeader.Set("Content-Type", "audio/wav")
	part, err := w.CreatePart(partHeader)
	if err != nil {
		return nil, "", providers.NewProviderError(providerName, providers.OperationSTT, providers.CodeRequestError, "failed to build form", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", providers.NewProviderError(providerName, providers.OperationSTT, providers.CodeFileError, "failed to read audio file", err)
	}

	_ = w.WriteField("model", a.models.STT)
	if languageCode != "" {
		_ = w.WriteField("language_code", languageCode)
	}
	if err := w.Close(); err != nil {
		return nil, "", providers.NewProviderError(providerName, providers.OperationSTT, providers.CodeRequestError, "failed to build form", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func withDefaults(m Models) Models {
	d := DefaultModels()
	if m.STT == "" {
		m.STT = d.STT
	}
	if m.Translate == "" {
		m.Translate = d.Translate
	}
	if m.TTS == "" {
		m.TTS = d.TTS
	}
	if m.Speaker == "" {
		m.Speaker = d.Speaker
	}
	if m.SpeakerGender == "" {
		m.SpeakerGender = d.SpeakerGender
	}
	if m.Mode == "" {
		m.Mode = d.Mode
	}
	return m
}
