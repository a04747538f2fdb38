package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gramgyan/backend/models"
	"github.com/gramgyan/backend/services"
	"github.com/gramgyan/backend/utils"
	"go.uber.org/zap"
)

const (
	// SessionCookieName is the cookie name for the session token
	SessionCookieName = "session"
)

// Login is the outcome of exchanging a Firebase ID token.
type Login struct {
	User    *models.User
	Session *Session
	Created bool
}

// Authenticator exchanges a verified identity token for a session.
type Authenticator interface {
	Login(ctx context.Context, idToken string) (*Login, error)
}

// ErrorWriter renders a service error as an HTTP response.
type ErrorWriter func(w http.ResponseWriter, err error, logger *zap.Logger)

// Handler handles session exchange and logout.
type Handler struct {
	authenticator Authenticator
	secureCookie  bool
	writeError    ErrorWriter
	logger        *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(authenticator Authenticator, secureCookie bool, writeError ErrorWriter, logger *zap.Logger) *Handler {
	return &Handler{
		authenticator: authenticator,
		secureCookie:  secureCookie,
		writeError:    writeError,
		logger:        logger,
	}
}

// SessionRequest is the body of POST /auth/session
type SessionRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// SessionResponse is returned after a successful exchange
type SessionResponse struct {
	Success         bool         `json:"success"`
	UserID          string       `json:"user_id"`
	AccessToken     string       `json:"access_token"`
	TokenType       string       `json:"token_type"`
	ExpiresIn       int64        `json:"expires_in"`
	ProfileComplete bool         `json:"profile_complete"`
	NewUser         bool         `json:"new_user"`
	User            *models.User `json:"user"`
}

// HandleSession verifies a Firebase ID token, gets or creates the user and
// returns a session token, also set as an HttpOnly cookie.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", fieldDetails(err))
		return
	}

	login, err := h.authenticator.Login(r.Context(), req.IDToken)
	if err != nil {
		if !services.IsConfigurationError(err) {
			h.logger.Warn("session exchange failed", zap.Error(err))
		}
		h.writeError(w, err, h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    login.Session.AccessToken,
		Path:     "/",
		MaxAge:   int(login.Session.ExpiresIn),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	_ = utils.WriteJSON(w, http.StatusOK, SessionResponse{
		Success:         true,
		UserID:          login.User.ID.String(),
		AccessToken:     login.Session.AccessToken,
		TokenType:       login.Session.TokenType,
		ExpiresIn:       login.Session.ExpiresIn,
		ProfileComplete: login.User.IsProfileComplete(),
		NewUser:         login.Created,
		User:            login.User,
	})
}

// HandleLogout clears the session cookie
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	utils.WriteNoContent(w)
}

func fieldDetails(err error) map[string]interface{} {
	details := make(map[string]interface{})
	for k, v := range utils.GetValidationFields(err) {
		details[k] = v
	}
	return details
}
