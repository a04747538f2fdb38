// Package account signs users in with Firebase and manages their profile.
package account

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/gramgyan/backend/auth"
	"github.com/gramgyan/backend/firebase"
	"github.com/gramgyan/backend/models"
	"github.com/gramgyan/backend/repositories"
	"github.com/gramgyan/backend/services"
	"go.uber.org/zap"
)

// IdentityVerifier verifies a Firebase ID token
type IdentityVerifier interface {
	ValidateToken(ctx context.Context, idToken string) (*firebase.Identity, error)
}

// SessionIssuer mints session tokens
type SessionIssuer interface {
	Issue(userID uuid.UUID, provider string) (*auth.Session, error)
}

// Service handles sign-in and profile operations
type Service struct {
	users    repositories.UserRepository
	txMgr    repositories.TransactionManager
	verifier IdentityVerifier
	issuer   SessionIssuer
	logger   *zap.Logger
}

// NewService creates a new account service
func NewService(
	users repositories.UserRepository,
	txMgr repositories.TransactionManager,
	verifier IdentityVerifier,
	issuer SessionIssuer,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:    users,
		txMgr:    txMgr,
		verifier: verifier,
		issuer:   issuer,
		logger:   logger,
	}
}

// Login verifies idToken, creates the user on first sign-in and issues a session.
func (s *Service) Login(ctx context.Context, idToken string) (*auth.Login, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, services.NewValidationError("id_token is required")
	}

	identity, err := s.verifier.ValidateToken(ctx, idToken)
	if err != nil {
		if errors.Is(err, firebase.ErrNotConfigured) {
			return nil, services.NewDomainError(services.ErrorTypeConfiguration, "firebase is not configured", err)
		}
		return nil, services.NewDomainError(services.ErrorTypeUnauthorized, "invalid firebase token", err)
	}

	user, created, err := s.getOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	session, err := s.issuer.Issue(user.ID, identity.Provider)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed in",
		zap.String("user_id", user.ID.String()),
		zap.String("provider", identity.Provider),
		zap.Bool("new_user", created))

	return &auth.Login{User: user, Session: session, Created: created}, nil
}

func (s *Service) getOrCreate(ctx context.Context, identity *firebase.Identity) (*models.User, bool, error) {
	type result struct {
		user    *models.User
		created bool
	}

	res, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (result, error) {
		user, err := s.users.GetByFirebaseUID(ctx, identity.UID)
		if err == nil {
			return result{user: user}, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return result{}, err
		}

		var phone *string
		if identity.Phone != "" {
			p := identity.Phone
			phone = &p
		}
		user = models.NewUser(identity.UID, phone)
		if err := s.users.Create(ctx, user); err != nil {
			return result{}, err
		}
		return result{user: user, created: true}, nil
	})

	switch {
	case err == nil:
		return res.user, res.created, nil
	case errors.Is(err, repositories.ErrDuplicate):
		// A concurrent first sign-in won the insert.
		user, err := s.users.GetByFirebaseUID(ctx, identity.UID)
		if err != nil {
			return nil, false, services.WrapInternal("failed to load user", err)
		}
		return user, false, nil
	default:
		return nil, false, services.WrapInternal("failed to resolve user", err)
	}
}

// GetProfile returns the user with the given ID
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, services.WrapInternal("failed to load user", err)
	}
	return user, nil
}

// UpdateProfile applies update to the user and returns the stored result
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	if update.Language != nil && strings.TrimSpace(*update.Language) == "" {
		return nil, services.NewValidationError("language must not be blank")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	update.Apply(user)
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, services.WrapInternal("failed to update user", err)
	}

	s.logger.Debug("profile updated",
		zap.String("user_id", user.ID.String()),
		zap.Bool("complete", user.IsProfileComplete()))
	return user, nil
}
