package account

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gramgyan/backend/auth"
	"github.com/gramgyan/backend/firebase"
	"github.com/gramgyan/backend/models"
	"github.com/gramgyan/backend/repositories"
	"github.com/gramgyan/backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) WithTx(tx repositories.Transaction) repositories.UserRepository {
	return m
}

// fakeTxManager runs every transaction against a no-op Transaction.
type fakeTxManager struct {
	committed, rolledBack int
}

type fakeTx struct{ m *fakeTxManager }

func (t *fakeTx) Commit() error            { t.m.committed++; return nil }
func (t *fakeTx) Rollback() error          { t.m.rolledBack++; return nil }
func (t *fakeTx) Context() context.Context { return context.Background() }

func (m *fakeTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return &fakeTx{m: m}, nil
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) ValidateToken(ctx context.Context, idToken string) (*firebase.Identity, error) {
	args := m.Called(ctx, idToken)
	if id := args.Get(0); id != nil {
		return id.(*firebase.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) Issue(userID uuid.UUID, provider string) (*auth.Session, error) {
	args := m.Called(userID, provider)
	if s := args.Get(0); s != nil {
		return s.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

type fixture struct {
	users    *MockUserRepository
	tx       *fakeTxManager
	verifier *MockVerifier
	issuer   *MockIssuer
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		users:    new(MockUserRepository),
		tx:       &fakeTxManager{},
		verifier: new(MockVerifier),
		issuer:   new(MockIssuer),
	}
	f.svc = NewService(f.users, f.tx, f.verifier, f.issuer, zap.NewNop())
	return f
}

var testSession = &auth.Session{AccessToken: "session-token", TokenType: "bearer", ExpiresIn: 604800, ExpiresAt: time.Now().Add(7 * 24 * time.Hour)}

func TestLogin_ExistingUser(t *testing.T) {
	f := newFixture()
	existing := models.NewUser("uid-1", nil)

	f.verifier.On("ValidateToken", mock.Anything, "id-token").
		Return(&firebase.Identity{UID: "uid-1", Provider: "phone"}, nil)
	f.users.On("GetByFirebaseUID", mock.Anything, "uid-1").Return(existing, nil)
	f.issuer.On("Issue", existing.ID, "phone").Return(testSession, nil)

	login, err := f.svc.Login(context.Background(), "id-token")
	require.NoError(t, err)

	assert.Same(t, existing, login.User)
	assert.False(t, login.Created)
	assert.Equal(t, "session-token", login.Session.AccessToken)
	assert.Equal(t, 1, f.tx.committed)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin_CreatesUserOnFirstSignIn(t *testing.T) {
	f := newFixture()

	f.verifier.On("ValidateToken", mock.Anything, "id-token").
		Return(&firebase.Identity{UID: "uid-new", Phone: "+919876543210", Provider: "phone"}, nil)
	f.users.On("GetByFirebaseUID", mock.Anything, "uid-new").Return(nil, repositories.ErrNotFound)
	f.users.On("Create", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := repositories.TransactionFromContext(ctx)
		return ok
	}), mock.MatchedBy(func(u *models.User) bool {
		return u.FirebaseUID == "uid-new" && u.Phone != nil && *u.Phone == "+919876543210"
	})).Return(nil)
	f.issuer.On("Issue", mock.AnythingOfType("uuid.UUID"), "phone").Return(testSession, nil)

	login, err := f.svc.Login(context.Background(), "id-token")
	require.NoError(t, err)

	assert.True(t, login.Created)
	assert.False(t, login.User.IsProfileComplete())
	assert.Equal(t, models.DefaultLanguage, login.User.Language)
	f.users.AssertExpectations(t)
}

func TestLogin_ConcurrentCreateFallsBackToRead(t *testing.T) {
	f := newFixture()
	winner := models.NewUser("uid-race", nil)

	f.verifier.On("ValidateToken", mock.Anything, "id-token").
		Return(&firebase.Identity{UID: "uid-race", Provider: "phone"}, nil)
	f.users.On("GetByFirebaseUID", mock.Anything, "uid-race").Return(nil, repositories.ErrNotFound).Once()
	f.users.On("Create", mock.Anything, mock.Anything).
		Return(fmt.Errorf("failed to create user: %w", repositories.ErrDuplicate))
	f.users.On("GetByFirebaseUID", mock.Anything, "uid-race").Return(winner, nil).Once()
	f.issuer.On("Issue", winner.ID, "phone").Return(testSession, nil)

	login, err := f.svc.Login(context.Background(), "id-token")
	require.NoError(t, err)

	assert.Same(t, winner, login.User)
	assert.False(t, login.Created)
	assert.Equal(t, 1, f.tx.rolledBack)
}

func TestLogin_Errors(t *testing.T) {
	t.Run("blank token", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Login(context.Background(), "  ")
		assert.True(t, services.IsValidationError(err))
	})

	t.Run("invalid firebase token", func(t *testing.T) {
		f := newFixture()
		f.verifier.On("ValidateToken", mock.Anything, "bad").Return(nil, firebase.ErrTokenExpired)

		_, err := f.svc.Login(context.Background(), "bad")
		assert.True(t, services.IsUnauthorizedError(err))
		assert.ErrorIs(t, err, firebase.ErrTokenExpired)
	})

	t.Run("firebase not configured", func(t *testing.T) {
		f := newFixture()
		f.verifier.On("ValidateToken", mock.Anything, "tok").Return(nil, firebase.ErrNotConfigured)

		_, err := f.svc.Login(context.Background(), "tok")
		assert.True(t, services.IsConfigurationError(err))
	})

	t.Run("session secret missing", func(t *testing.T) {
		f := newFixture()
		user := models.NewUser("uid-1", nil)
		f.verifier.On("ValidateToken", mock.Anything, "tok").Return(&firebase.Identity{UID: "uid-1", Provider: "phone"}, nil)
		f.users.On("GetByFirebaseUID", mock.Anything, "uid-1").Return(user, nil)
		f.issuer.On("Issue", user.ID, "phone").Return(nil, services.NewConfigurationError("session secret is not configured"))

		_, err := f.svc.Login(context.Background(), "tok")
		assert.True(t, services.IsConfigurationError(err))
	})

	t.Run("database failure", func(t *testing.T) {
		f := newFixture()
		f.verifier.On("ValidateToken", mock.Anything, "tok").Return(&firebase.Identity{UID: "uid-1"}, nil)
		f.users.On("GetByFirebaseUID", mock.Anything, "uid-1").Return(nil, errors.New("connection refused"))

		_, err := f.svc.Login(context.Background(), "tok")
		assert.True(t, services.IsInternalError(err))
		assert.Equal(t, 1, f.tx.rolledBack)
	})
}

func TestGetProfile(t *testing.T) {
	f := newFixture()
	user := models.NewUser("uid-1", nil)
	missing := uuid.New()

	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("GetByID", mock.Anything, missing).Return(nil, repositories.ErrNotFound)

	got, err := f.svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Same(t, user, got)

	_, err = f.svc.GetProfile(context.Background(), missing)
	assert.True(t, services.IsNotFoundError(err))
}

func TestUpdateProfile(t *testing.T) {
	t.Run("completes profile", func(t *testing.T) {
		f := newFixture()
		user := models.NewUser("uid-1", nil)
		name, role, state, city := "Ravi", "farmer", "TN", "Madurai"

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)

		got, err := f.svc.UpdateProfile(context.Background(), user.ID, models.ProfileUpdate{
			Name: &name, Role: &role, State: &state, City: &city,
		})
		require.NoError(t, err)
		assert.True(t, got.IsProfileComplete())
	})

	t.Run("partial profile stays incomplete", func(t *testing.T) {
		f := newFixture()
		user := models.NewUser("uid-1", nil)
		name, role, state, city := "Ravi", "farmer", "TN", ""

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)

		got, err := f.svc.UpdateProfile(context.Background(), user.ID, models.ProfileUpdate{
			Name: &name, Role: &role, State: &state, City: &city,
		})
		require.NoError(t, err)
		assert.False(t, got.IsProfileComplete())
	})

	t.Run("blank language rejected", func(t *testing.T) {
		f := newFixture()
		blank := " "
		_, err := f.svc.UpdateProfile(context.Background(), uuid.New(), models.ProfileUpdate{Language: &blank})
		assert.True(t, services.IsValidationError(err))
		f.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("user vanished during update", func(t *testing.T) {
		f := newFixture()
		user := models.NewUser("uid-1", nil)
		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(repositories.ErrNotFound)

		_, err := f.svc.UpdateProfile(context.Background(), user.ID, models.ProfileUpdate{})
		assert.ErrorIs(t, err, services.ErrUserNotFound)
	})
}
