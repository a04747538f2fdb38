package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gramgyan/backend/middleware"
	"github.com/gramgyan/backend/services/speech"
	"github.com/gramgyan/backend/utils"
	"go.uber.org/zap"
)

// SpeechService defines the speech operations exposed over HTTP
type SpeechService interface {
	Transcribe(ctx context.Context, audioPath, languageCode string) (string, error)
	Translate(ctx context.Context, text, source, target string) (string, error)
	Process(ctx context.Context, audioPath, source, target string) (*speech.ProcessResult, error)
	Speak(ctx context.Context, text, languageCode string) ([]byte, error)
	DetectAndTranscribe(ctx context.Context, audioPath, mimeType string) (*speech.DetectResult, error)
}

// FileStager stages an upload on disk for the duration of fn
type FileStager interface {
	WithStagedFile(r io.Reader, filename string, fn func(path string) error) error
}

// TranslateRequest is the body of POST /speech/translate
type TranslateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language" validate:"omitempty,min=2,max=16"`
	TargetLanguage string `json:"target_language" validate:"omitempty,min=2,max=16"`
}

// TranslateResponse is returned by POST /speech/translate
type TranslateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// TranscribeResponse is returned by POST /speech/transcribe
type TranscribeResponse struct {
	Transcript   string `json:"transcript"`
	LanguageCode string `json:"language_code"`
}

// SpeakRequest is the body of POST /speech/speak
type SpeakRequest struct {
	Text         string `json:"text" validate:"required"`
	LanguageCode string `json:"language_code" validate:"omitempty,min=2,max=16"`
}

// SpeechHandler handles speech HTTP requests
type SpeechHandler struct {
	service  SpeechService
	stager   FileStager
	maxBytes int64
	logger   *zap.Logger
}

// NewSpeechHandler creates a new SpeechHandler
func NewSpeechHandler(service SpeechService, stager FileStager, maxBytes int64, logger *zap.Logger) *SpeechHandler {
	return &SpeechHandler{
		service:  service,
		stager:   stager,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// HandleTranscribe handles POST /speech/transcribe
func (h *SpeechHandler) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	languageCode := queryOr(r, "language_code", speech.DefaultSourceLanguage)

	var transcript string
	err := h.withUpload(w, r, "file", func(path, _ string) error {
		var err error
		transcript, err = h.service.Transcribe(r.Context(), path, languageCode)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, TranscribeResponse{
		Transcript:   transcript,
		LanguageCode: languageCode,
	})
}

// HandleTranslate handles POST /speech/translate
func (h *SpeechHandler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	translated, err := h.service.Translate(r.Context(), req.Text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, TranslateResponse{TranslatedText: translated})
}

// HandleProcess handles POST /speech/process and /speech/process-audio
func (h *SpeechHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	source := queryOr(r, "source_language", speech.DefaultSourceLanguage)
	target := queryOr(r, "target_language", speech.DefaultTargetLanguage)

	var result *speech.ProcessResult
	err := h.withUpload(w, r, "file", func(path, _ string) error {
		var err error
		result, err = h.service.Process(r.Context(), path, source, target)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, result)
}

// HandleSpeak handles POST /speech/speak and returns WAV audio
func (h *SpeechHandler) HandleSpeak(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	audio, err := h.service.Speak(r.Context(), req.Text, req.LanguageCode)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		h.logger.Warn("failed to write audio response", zap.Error(err))
	}
}

// HandleDetect handles POST /speech/detect
func (h *SpeechHandler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	var result *speech.DetectResult
	err := h.withUpload(w, r, "file", func(path, mimeType string) error {
		var err error
		result, err = h.service.DetectAndTranscribe(r.Context(), path, mimeType)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, result)
}

func (h *SpeechHandler) withUpload(w http.ResponseWriter, r *http.Request, field string, fn func(path, mimeType string) error) error {
	file, header, err := formFile(w, r, field, h.maxBytes)
	if err != nil {
		return err
	}
	defer file.Close()

	mimeType := contentType(header, "audio/wav")
	return h.stager.WithStagedFile(file, header.Filename, func(path string) error {
		return fn(path, mimeType)
	})
}

func (h *SpeechHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	HandleServiceError(w, err, h.logger.With(
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("path", r.URL.Path)))
}
