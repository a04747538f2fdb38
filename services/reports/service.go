// Package reports turns a farmer's knowledge post into searchable English
// text and, for questions, attaches an answer.
package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gramgyan/backend/models"
	"github.com/gramgyan/backend/repositories"
	"github.com/gramgyan/backend/services"
	"github.com/gramgyan/backend/services/providers"
	"go.uber.org/zap"
)

const (
	// MatchThreshold is the minimum cosine similarity for reusing an answer.
	MatchThreshold = 0.8
	matchCount     = 1

	validatedPrefix = "(Use Validated Answer) "
)

// Embedder produces document embeddings
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float64, error)
}

// Result summarises a processed report
type Result struct {
	ReportID    uuid.UUID           `json:"report_id"`
	EnglishText string              `json:"english_text"`
	Solution    *models.Solution    `json:"solution,omitempty"`
	Match       *models.ReportMatch `json:"match,omitempty"`
}

// Service processes knowledge posts
type Service struct {
	knowledge  repositories.KnowledgeRepository
	txMgr      repositories.TransactionManager
	generative providers.GenerativeProvider
	embedder   Embedder
	logger     *zap.Logger
}

// NewService creates a new report service
func NewService(
	knowledge repositories.KnowledgeRepository,
	txMgr repositories.TransactionManager,
	generative providers.GenerativeProvider,
	embedder Embedder,
	logger *zap.Logger,
) *Service {
	return &Service{
		knowledge:  knowledge,
		txMgr:      txMgr,
		generative: generative,
		embedder:   embedder,
		logger:     logger,
	}
}

// Process translates the report to English unless englishText is supplied,
// stores its embedding and opens it. Questions additionally get a solution:
// a validated answer from a similar report when one exists, otherwise a
// generated one.
func (s *Service) Process(ctx context.Context, reportID uuid.UUID, englishText string) (*Result, error) {
	post, err := s.knowledge.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrReportNotFound
		}
		return nil, services.WrapInternal("failed to load report", err)
	}

	logger := s.logger.With(zap.String("report_id", reportID.String()), zap.String("type", string(post.Type)))

	englishText = strings.TrimSpace(englishText)
	if englishText == "" {
		if strings.TrimSpace(post.OriginalText) == "" {
			return nil, services.NewValidationError("report has no text")
		}
		englishText, err = s.translate(ctx, post.OriginalText)
		if err != nil {
			return nil, err
		}
	}

	embedding, err := s.embedder.EmbedDocument(ctx, englishText)
	if err != nil {
		return nil, err
	}
	if len(embedding) == 0 {
		return nil, services.NewParseError("empty embedding", nil)
	}

	if err := s.knowledge.UpdateAnalysis(ctx, reportID, englishText, embedding); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrReportNotFound
		}
		return nil, services.WrapInternal("failed to store report analysis", err)
	}

	result := &Result{ReportID: reportID, EnglishText: englishText}
	if post.Type != models.ReportTypeQuestion {
		logger.Info("report processed")
		return result, nil
	}

	matches, err := s.knowledge.MatchReports(ctx, embedding, MatchThreshold, matchCount)
	if err != nil {
		return nil, services.WrapInternal("failed to match reports", err)
	}

	var solutionText string
	if len(matches) > 0 {
		result.Match = matches[0]
		solutionText = validatedPrefix + matches[0].SolutionText
		logger.Info("reusing validated answer",
			zap.String("matched_report_id", matches[0].ReportID.String()),
			zap.Float64("similarity", matches[0].Similarity))
	} else {
		solutionText, err = s.generateSolution(ctx, englishText)
		if err != nil {
			return nil, err
		}
		logger.Info("generated answer")
	}

	solution := models.NewAISolution(reportID, solutionText)
	err = services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		return s.knowledge.WithTx(tx).InsertSolution(ctx, solution)
	})
	if err != nil {
		return nil, services.WrapInternal("failed to save solution", err)
	}

	result.Solution = solution
	return result, nil
}

func (s *Service) translate(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf("Translate the following agricultural text to clear English. Return ONLY the English translation.\n\n%s", text)
	out, err := s.generative.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", services.NewParseError("empty translation", nil)
	}
	return out, nil
}

func (s *Service) generateSolution(ctx context.Context, englishText string) (string, error) {
	prompt := fmt.Sprintf("You are an expert agriculturalist. A farmer has asked: \"%s\". Provide a short, practical, and helpful solution in simple language.", englishText)
	out, err := s.generative.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
