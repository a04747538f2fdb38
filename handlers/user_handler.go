package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gramgyan/backend/middleware"
	"github.com/gramgyan/backend/models"
	"github.com/gramgyan/backend/utils"
	"go.uber.org/zap"
)

// AccountService defines the profile operations exposed over HTTP
type AccountService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update models.ProfileUpdate) (*models.User, error)
}

// UpdateProfileRequest is the body of PUT /users/me. Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Role     *string `json:"role" validate:"omitempty,max=64"`
	State    *string `json:"state" validate:"omitempty,max=64"`
	City     *string `json:"city" validate:"omitempty,max=64"`
	Language *string `json:"language" validate:"omitempty,min=2,max=16"`
}

// ProfileResponse is the user's profile plus its onboarding state
type ProfileResponse struct {
	ID              uuid.UUID `json:"id"`
	Phone           *string   `json:"phone,omitempty"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	State           string    `json:"state"`
	City            string    `json:"city"`
	Language        string    `json:"language"`
	ProfileComplete bool      `json:"profile_complete"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newProfileResponse(u *models.User) ProfileResponse {
	return ProfileResponse{
		ID:              u.ID,
		Phone:           u.Phone,
		Name:            u.Name,
		Role:            u.Role,
		State:           u.State,
		City:            u.City,
		Language:        u.Language,
		ProfileComplete: u.IsProfileComplete(),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// UserHandler handles profile HTTP requests
type UserHandler struct {
	service AccountService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service AccountService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// HandleGetMe handles GET /users/me
func (h *UserHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		_ = utils.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		HandleServiceError(w, err, h.logger.With(zap.String("user_id", userID.String())))
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, newProfileResponse(user))
}

// HandleUpdateMe handles PUT /users/me
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		_ = utils.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, models.ProfileUpdate{
		Name:     req.Name,
		Role:     req.Role,
		State:    req.State,
		City:     req.City,
		Language: req.Language,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger.With(zap.String("user_id", userID.String())))
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, newProfileResponse(user))
}
