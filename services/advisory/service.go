// Package advisory holds the farmer-facing generative features: answers,
// content moderation, crop image analysis and embeddings.
package advisory

import (
	"context"
	"strings"

	"github.com/gramgyan/backend/services"
	"github.com/gramgyan/backend/services/providers"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Service runs advisory prompts against the generative provider
type Service struct {
	provider providers.GenerativeProvider
	logger   *zap.Logger
}

// NewService creates a new advisory service
func NewService(provider providers.GenerativeProvider, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
	}
}

// Answer returns a short Tamil answer to a farmer's question.
func (s *Service) Answer(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", services.NewValidationError("query is required")
	}
	answer, err := s.provider.GenerateText(ctx, answerPrompt(query))
	if err != nil {
		s.logger.Error("answer generation failed", zap.Error(err))
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// CheckSafety asks the model to moderate a knowledge tip. Provider failures
// are returned; an unreadable verdict is unsafe.
func (s *Service) CheckSafety(ctx context.Context, text string) (SafetyVerdict, error) {
	if strings.TrimSpace(text) == "" {
		return SafetyVerdict{}, services.NewValidationError("text is required")
	}
	raw, err := s.provider.GenerateText(ctx, safetyPrompt(text))
	if err != nil {
		s.logger.Error("safety check failed", zap.Error(err))
		return SafetyVerdict{}, err
	}
	verdict := ParseSafetyVerdict(raw)
	if !verdict.IsSafe {
		s.logger.Info("content flagged", zap.String("reason", verdict.Reason))
	}
	return verdict, nil
}

// AnalyzeCrop diagnoses a crop photo. It never fails: any error, including a
// response that is not the expected JSON, yields CropAnalysisFallback.
func (s *Service) AnalyzeCrop(ctx context.Context, image []byte, mimeType, query string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	out, err := s.provider.GenerateContent(ctx, &providers.GenerateRequest{
		Parts: []providers.Part{
			providers.TextPart(cropAnalysisPrompt(query)),
			providers.InlinePart(mimeType, image),
		},
		ResponseMimeType: "application/json",
		ResponseSchema:   cropAnalysisSchema(),
	})
	if err != nil {
		s.logger.Error("crop analysis failed", zap.Error(err))
		return CropAnalysisFallback
	}

	out = strings.TrimSpace(out)
	if !gjson.Valid(out) || !gjson.Get(out, "diagnosis").Exists() {
		s.logger.Warn("crop analysis returned unexpected shape", zap.Int("length", len(out)))
		return CropAnalysisFallback
	}
	return out
}

// EmbedDocument embeds text that will be stored and searched against.
func (s *Service) EmbedDocument(ctx context.Context, text string) ([]float64, error) {
	return s.provider.EmbedContent(ctx, text, providers.TaskRetrievalDocument)
}

// EmbedQuery embeds a search query.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return s.provider.EmbedContent(ctx, text, providers.TaskRetrievalQuery)
}
