package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gramgyan/backend/models"
	"github.com/gramgyan/backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[]", vectorLiteral(nil))
	assert.Equal(t, "[0.5]", vectorLiteral([]float64{0.5}))
	assert.Equal(t, "[0.1,-2,3.25]", vectorLiteral([]float64{0.1, -2, 3.25}))
}

func TestKnowledgeRepository_GetByID(t *testing.T) {
	id, userID := uuid.New(), uuid.New()
	columns := []string{"id", "user_id", "type", "original_text", "english_text", "status", "created_at"}

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewKnowledgeRepository(db, zap.NewNop())

		mock.ExpectQuery("SELECT (.+) FROM knowledge_posts WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(id.String(), userID.String(), "question", "இலைகள் மஞ்சள்", nil, "pending", time.Now()))

		post, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, models.ReportTypeQuestion, post.Type)
		assert.Equal(t, models.ReportStatusPending, post.Status)
		require.NotNil(t, post.UserID)
		assert.Equal(t, userID, *post.UserID)
		assert.Nil(t, post.EnglishText)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewKnowledgeRepository(db, zap.NewNop())

		mock.ExpectQuery("SELECT (.+) FROM knowledge_posts").WillReturnRows(sqlmock.NewRows(columns))

		_, err := repo.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestKnowledgeRepository_UpdateAnalysis(t *testing.T) {
	id := uuid.New()

	t.Run("stores vector literal and opens post", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewKnowledgeRepository(db, zap.NewNop())

		mock.ExpectExec("UPDATE knowledge_posts").
			WithArgs(id, "Leaves are yellow", "[0.1,0.2]", models.ReportStatusOpen).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateAnalysis(context.Background(), id, "Leaves are yellow", []float64{0.1, 0.2}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing post", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewKnowledgeRepository(db, zap.NewNop())

		mock.ExpectExec("UPDATE knowledge_posts").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateAnalysis(context.Background(), id, "x", []float64{1})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestKnowledgeRepository_MatchReports(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewKnowledgeRepository(db, zap.NewNop())
	reportID := uuid.New()

	mock.ExpectQuery("FROM match_reports\\(\\$1::vector, \\$2, \\$3\\)").
		WithArgs("[0.3,0.4]", 0.8, 1).
		WillReturnRows(sqlmock.NewRows([]string{"report_id", "solution_text", "similarity"}).
			AddRow(reportID.String(), "Apply neem oil", 0.91))

	matches, err := repo.MatchReports(context.Background(), []float64{0.3, 0.4}, 0.8, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, reportID, matches[0].ReportID)
	assert.Equal(t, "Apply neem oil", matches[0].SolutionText)
	assert.InDelta(t, 0.91, matches[0].Similarity, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKnowledgeRepository_MatchReports_None(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewKnowledgeRepository(db, zap.NewNop())

	mock.ExpectQuery("match_reports").
		WillReturnRows(sqlmock.NewRows([]string{"report_id", "solution_text", "similarity"}))

	matches, err := repo.MatchReports(context.Background(), []float64{1}, 0.8, 1)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestKnowledgeRepository_InsertSolution(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewKnowledgeRepository(db, zap.NewNop())
	txMgr := NewTransactionManager(db, zap.NewNop())
	solution := models.NewAISolution(uuid.New(), "Water early in the morning")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO solutions").
		WithArgs(solution.ID, solution.ReportID, nil, "Water early in the morning", true, solution.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := txMgr.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.WithTx(tx).InsertSolution(context.Background(), solution))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
