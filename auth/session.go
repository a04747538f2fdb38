package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gramgyan/backend/config"
	"github.com/gramgyan/backend/services"
)

const (
	// SessionAudience and SessionRole are fixed for every issued session.
	SessionAudience = "authenticated"
	SessionRole     = "authenticated"

	defaultSessionTTL = 7 * 24 * time.Hour
)

// AppMetadata records how the user signed in.
type AppMetadata struct {
	Provider  string   `json:"provider"`
	Providers []string `json:"providers"`
}

// SessionClaims are the claims of a session token minted by this service.
// Audience shadows the embedded field so aud is encoded as a plain string.
type SessionClaims struct {
	jwt.RegisteredClaims
	Audience     string                 `json:"aud,omitempty"`
	Role         string                 `json:"role"`
	AppMetadata  AppMetadata            `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

// GetAudience reports the string audience to the jwt validator.
func (c SessionClaims) GetAudience() (jwt.ClaimStrings, error) {
	if c.Audience == "" {
		return nil, nil
	}
	return jwt.ClaimStrings{c.Audience}, nil
}

// UserID parses the subject as a user ID.
func (c *SessionClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Session is an issued bearer token
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SessionIssuer mints and validates HS256 session tokens with a shared secret
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionIssuer creates an issuer. An empty secret is accepted here and
// reported as a configuration error on first use.
func NewSessionIssuer(cfg config.SessionConfig) *SessionIssuer {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionIssuer{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a session token for userID.
func (s *SessionIssuer) Issue(userID uuid.UUID, provider string) (*Session, error) {
	if len(s.secret) == 0 {
		return nil, services.NewConfigurationError("session secret is not configured")
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Audience: SessionAudience,
		Role: SessionRole,
		AppMetadata: AppMetadata{
			Provider:  provider,
			Providers: []string{provider},
		},
		UserMetadata: map[string]interface{}{},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, services.WrapInternal("failed to sign session token", err)
	}

	return &Session{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
		ExpiresAt:   expires.UTC(),
	}, nil
}

// ValidateToken verifies a session token and returns its claims.
func (s *SessionIssuer) ValidateToken(ctx context.Context, tokenString string) (*SessionClaims, error) {
	if len(s.secret) == 0 {
		return nil, services.NewConfigurationError("session secret is not configured")
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithAudience(SessionAudience),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, services.NewDomainError(services.ErrorTypeUnauthorized, "session expired", err)
		}
		return nil, services.NewDomainError(services.ErrorTypeUnauthorized, "invalid session token", err)
	}
	if !token.Valid {
		return nil, services.ErrInvalidToken
	}

	if _, err := claims.UserID(); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeUnauthorized, "invalid session subject", err)
	}
	return claims, nil
}
