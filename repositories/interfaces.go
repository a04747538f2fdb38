package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/gramgyan/backend/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("record already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

type transactionContextKey struct{}

// ContextWithTransaction returns a context carrying tx. Repositories use the
// transaction found in the context instead of the pool.
func ContextWithTransaction(ctx context.Context, tx Transaction) context.Context {
	return context.WithValue(ctx, transactionContextKey{}, tx)
}

// TransactionFromContext retrieves a transaction from the context if available
func TransactionFromContext(ctx context.Context) (Transaction, bool) {
	tx, ok := ctx.Value(transactionContextKey{}).(Transaction)
	return tx, ok
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByFirebaseUID retrieves a user by Firebase UID
	GetByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)

	// GetByPhone retrieves a user by phone number
	GetByPhone(ctx context.Context, phone string) (*models.User, error)

	// Update updates the profile fields of a user
	Update(ctx context.Context, user *models.User) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) UserRepository
}

// KnowledgeRepository handles knowledge posts and their solutions
type KnowledgeRepository interface {
	// GetByID retrieves a knowledge post by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.KnowledgePost, error)

	// UpdateAnalysis stores the English text and embedding and opens the post
	UpdateAnalysis(ctx context.Context, id uuid.UUID, englishText string, embedding []float64) error

	// MatchReports returns answered reports whose embedding similarity exceeds threshold
	MatchReports(ctx context.Context, embedding []float64, threshold float64, count int) ([]*models.ReportMatch, error)

	// InsertSolution inserts a solution for a report
	InsertSolution(ctx context.Context, solution *models.Solution) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) KnowledgeRepository
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users     UserRepository
	Knowledge KnowledgeRepository
}
