package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gramgyan/backend/middleware"
	"github.com/gramgyan/backend/services"
	"github.com/gramgyan/backend/services/advisory"
	"github.com/gramgyan/backend/utils"
	"go.uber.org/zap"
)

// AdvisoryService defines the generative advisory operations exposed over HTTP
type AdvisoryService interface {
	Answer(ctx context.Context, query string) (string, error)
	CheckSafety(ctx context.Context, text string) (advisory.SafetyVerdict, error)
	AnalyzeCrop(ctx context.Context, image []byte, mimeType, query string) string
	EmbedDocument(ctx context.Context, text string) ([]float64, error)
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// AnswerRequest is the body of POST /advisory/answer
type AnswerRequest struct {
	Query string `json:"query" validate:"required"`
}

// AnswerResponse is returned by POST /advisory/answer
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// SafetyRequest is the body of POST /advisory/safety
type SafetyRequest struct {
	Text string `json:"text" validate:"required"`
}

// EmbeddingRequest is the body of POST /advisory/embeddings
type EmbeddingRequest struct {
	Text     string `json:"text" validate:"required"`
	TaskType string `json:"task_type" validate:"omitempty,oneof=document query"`
}

// EmbeddingResponse is returned by POST /advisory/embeddings
type EmbeddingResponse struct {
	Embedding  []float64 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}

// CropAnalysisResponse is returned by POST /advisory/crop-analysis
type CropAnalysisResponse struct {
	Analysis string `json:"analysis"`
}

// AdvisoryHandler handles advisory HTTP requests
type AdvisoryHandler struct {
	service  AdvisoryService
	maxBytes int64
	logger   *zap.Logger
}

// NewAdvisoryHandler creates a new AdvisoryHandler
func NewAdvisoryHandler(service AdvisoryService, maxBytes int64, logger *zap.Logger) *AdvisoryHandler {
	return &AdvisoryHandler{
		service:  service,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// HandleAnswer handles POST /advisory/answer
func (h *AdvisoryHandler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !h.decode(w, r, &req) {
		return
	}

	answer, err := h.service.Answer(r.Context(), req.Query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, AnswerResponse{Answer: answer})
}

// HandleSafety handles POST /advisory/safety
func (h *AdvisoryHandler) HandleSafety(w http.ResponseWriter, r *http.Request) {
	var req SafetyRequest
	if !h.decode(w, r, &req) {
		return
	}

	verdict, err := h.service.CheckSafety(r.Context(), req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, verdict)
}

// HandleEmbeddings handles POST /advisory/embeddings
func (h *AdvisoryHandler) HandleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req EmbeddingRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		embedding []float64
		err       error
	)
	if req.TaskType == "query" {
		embedding, err = h.service.EmbedQuery(r.Context(), req.Text)
	} else {
		embedding, err = h.service.EmbedDocument(r.Context(), req.Text)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, EmbeddingResponse{Embedding: embedding, Dimensions: len(embedding)})
}

// HandleCropAnalysis handles POST /advisory/crop-analysis (multipart image + query).
// Analysis failures are reported in the body, never as an error status.
func (h *AdvisoryHandler) HandleCropAnalysis(w http.ResponseWriter, r *http.Request) {
	file, header, err := formFile(w, r, "image", h.maxBytes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer file.Close()

	src := io.Reader(file)
	if h.maxBytes > 0 {
		src = io.LimitReader(file, h.maxBytes+1)
	}
	image, err := io.ReadAll(src)
	if err != nil {
		h.fail(w, r, services.WrapInternal("failed to read image", err))
		return
	}
	if len(image) == 0 {
		h.fail(w, r, services.NewValidationError("image is empty"))
		return
	}
	if h.maxBytes > 0 && int64(len(image)) > h.maxBytes {
		h.fail(w, r, services.NewValidationError("image is too large"))
		return
	}

	analysis := h.service.AnalyzeCrop(r.Context(), image, contentType(header, "image/jpeg"), r.FormValue("query"))
	_ = utils.WriteJSON(w, http.StatusOK, CropAnalysisResponse{Analysis: analysis})
}

func (h *AdvisoryHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, h.logger)
		return false
	}
	return true
}

func (h *AdvisoryHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	HandleServiceError(w, err, h.logger.With(
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("path", r.URL.Path)))
}
