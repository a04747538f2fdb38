package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gramgyan/backend/models"
	"github.com/gramgyan/backend/repositories"
	"go.uber.org/zap"
)

// KnowledgeRepository implements the repositories.KnowledgeRepository interface
type KnowledgeRepository struct {
	db     *DB
	tx     *Transaction
	logger *zap.Logger
}

// NewKnowledgeRepository creates a new knowledge repository
func NewKnowledgeRepository(db *DB, logger *zap.Logger) repositories.KnowledgeRepository {
	return &KnowledgeRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a knowledge post by ID
func (r *KnowledgeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.KnowledgePost, error) {
	query := `
		SELECT id, user_id, type, original_text, english_text, status, created_at
		FROM knowledge_posts
		WHERE id = $1
	`

	executor := getExecutor(ctx, r.db, r.tx)
	post := &models.KnowledgePost{}
	var userID uuid.NullUUID
	var english sql.NullString

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&userID,
		&post.Type,
		&post.OriginalText,
		&english,
		&post.Status,
		&post.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get knowledge post: %w", err)
	}

	if userID.Valid {
		post.UserID = &userID.UUID
	}
	if english.Valid {
		post.EnglishText = &english.String
	}
	return post, nil
}

// UpdateAnalysis stores the English text and embedding and opens the post
func (r *KnowledgeRepository) UpdateAnalysis(ctx context.Context, id uuid.UUID, englishText string, embedding []float64) error {
	query := `
		UPDATE knowledge_posts
		SET english_text = $2,
		    embedding = $3::vector,
		    status = $4
		WHERE id = $1
	`

	executor := getExecutor(ctx, r.db, r.tx)
	result, err := executor.ExecContext(ctx, query,
		id,
		englishText,
		vectorLiteral(embedding),
		models.ReportStatusOpen,
	)
	if err != nil {
		return fmt.Errorf("failed to update knowledge post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repositories.ErrNotFound
	}

	r.logger.Debug("knowledge post analysed", zap.String("id", id.String()), zap.Int("dimensions", len(embedding)))
	return nil
}

// MatchReports returns answered reports whose embedding similarity exceeds threshold
func (r *KnowledgeRepository) MatchReports(ctx context.Context, embedding []float64, threshold float64, count int) ([]*models.ReportMatch, error) {
	query := `SELECT report_id, solution_text, similarity FROM match_reports($1::vector, $2, $3)`

	executor := getExecutor(ctx, r.db, r.tx)
	rows, err := executor.QueryContext(ctx, query, vectorLiteral(embedding), threshold, count)
	if err != nil {
		return nil, fmt.Errorf("failed to match reports: %w", err)
	}
	defer rows.Close()

	var matches []*models.ReportMatch
	for rows.Next() {
		m := &models.ReportMatch{}
		if err := rows.Scan(&m.ReportID, &m.SolutionText, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan report match: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report matches: %w", err)
	}

	return matches, nil
}

// InsertSolution inserts a solution for a report
func (r *KnowledgeRepository) InsertSolution(ctx context.Context, solution *models.Solution) error {
	query := `
		INSERT INTO solutions (id, report_id, user_id, solution_text, ai_generated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var userID uuid.NullUUID
	if solution.UserID != nil {
		userID = uuid.NullUUID{UUID: *solution.UserID, Valid: true}
	}

	executor := getExecutor(ctx, r.db, r.tx)
	_, err := executor.ExecContext(ctx, query,
		solution.ID,
		solution.ReportID,
		userID,
		solution.SolutionText,
		solution.AIGenerated,
		solution.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert solution: %w", err)
	}

	r.logger.Debug("solution inserted",
		zap.String("id", solution.ID.String()),
		zap.String("report_id", solution.ReportID.String()),
		zap.Bool("ai_generated", solution.AIGenerated))
	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *KnowledgeRepository) WithTx(tx repositories.Transaction) repositories.KnowledgeRepository {
	return &KnowledgeRepository{
		db:     r.db,
		tx:     asTransaction(tx),
		logger: r.logger,
	}
}

// vectorLiteral formats an embedding in pgvector's text input form, e.g. "[0.1,0.2]".
func vectorLiteral(v []float64) string {
	var b strings.Builder
	b.Grow(len(v) * 10)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
