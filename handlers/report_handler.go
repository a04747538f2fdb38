package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gramgyan/backend/middleware"
	"github.com/gramgyan/backend/services/reports"
	"github.com/gramgyan/backend/utils"
	"go.uber.org/zap"
)

// ReportService processes knowledge posts
type ReportService interface {
	Process(ctx context.Context, reportID uuid.UUID, englishText string) (*reports.Result, error)
}

// ProcessReportRequest is the optional body of POST /reports/{id}/process.
// When english_text is empty the report is translated first.
type ProcessReportRequest struct {
	EnglishText string `json:"english_text" validate:"omitempty,max=10000"`
}

// ReportHandler handles knowledge report HTTP requests
type ReportHandler struct {
	service ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{service: service, logger: logger}
}

// HandleProcess handles POST /reports/{id}/process
func (h *ReportHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	reportID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid report ID", nil)
		return
	}

	var req ProcessReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.Process(r.Context(), reportID, req.EnglishText)
	if err != nil {
		HandleServiceError(w, err, h.logger.With(
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("report_id", reportID.String())))
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, result)
}
