package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gramgyan/backend/middleware"
	"github.com/gramgyan/backend/models"
	"github.com/gramgyan/backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockAccountService is a mock implementation of AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, userID, update)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func TestHandleGetMe(t *testing.T) {
	userID := uuid.New()

	t.Run("returns profile with completion flag", func(t *testing.T) {
		svc := new(MockAccountService)
		handler := NewUserHandler(svc, zap.NewNop())

		user := models.NewUser("fb-uid-1", nil)
		user.ID = userID
		user.Name = "Murugan"
		svc.On("GetProfile", mock.Anything, userID).Return(user, nil)

		rec := httptest.NewRecorder()
		handler.HandleGetMe(rec, authedRequest(http.MethodGet, "/api/v1/users/me", "", userID))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body ProfileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, userID, body.ID)
		assert.Equal(t, "Murugan", body.Name)
		assert.Equal(t, models.DefaultLanguage, body.Language)
		assert.False(t, body.ProfileComplete)
	})

	t.Run("returns 401 when user missing in context", func(t *testing.T) {
		handler := NewUserHandler(new(MockAccountService), zap.NewNop())

		rec := httptest.NewRecorder()
		handler.HandleGetMe(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("returns 404 for deleted user", func(t *testing.T) {
		svc := new(MockAccountService)
		handler := NewUserHandler(svc, zap.NewNop())
		svc.On("GetProfile", mock.Anything, userID).Return(nil, services.ErrUserNotFound)

		rec := httptest.NewRecorder()
		handler.HandleGetMe(rec, authedRequest(http.MethodGet, "/api/v1/users/me", "", userID))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleUpdateMe(t *testing.T) {
	userID := uuid.New()

	t.Run("applies only supplied fields", func(t *testing.T) {
		svc := new(MockAccountService)
		handler := NewUserHandler(svc, zap.NewNop())

		updated := models.NewUser("fb-uid-1", nil)
		updated.ID = userID
		updated.Name = "Murugan"
		updated.Role = "farmer"
		updated.State = "Tamil Nadu"
		updated.City = "Madurai"

		svc.On("UpdateProfile", mock.Anything, userID, mock.MatchedBy(func(u models.ProfileUpdate) bool {
			return u.Name != nil && *u.Name == "Murugan" &&
				u.City != nil && *u.City == "Madurai" &&
				u.Role == nil && u.Language == nil
		})).Return(updated, nil)

		rec := httptest.NewRecorder()
		handler.HandleUpdateMe(rec, authedRequest(http.MethodPut, "/api/v1/users/me", `{"name":"Murugan","city":"Madurai"}`, userID))

		require.Equal(t, http.StatusOK, rec.Code)
		var body ProfileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.True(t, body.ProfileComplete)
		svc.AssertExpectations(t)
	})

	t.Run("rejects invalid language code", func(t *testing.T) {
		svc := new(MockAccountService)
		handler := NewUserHandler(svc, zap.NewNop())

		rec := httptest.NewRecorder()
		handler.HandleUpdateMe(rec, authedRequest(http.MethodPut, "/api/v1/users/me", `{"language":"x"}`, userID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		handler := NewUserHandler(new(MockAccountService), zap.NewNop())

		rec := httptest.NewRecorder()
		handler.HandleUpdateMe(rec, authedRequest(http.MethodPut, "/api/v1/users/me", `{`, userID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("service validation error is a 400", func(t *testing.T) {
		svc := new(MockAccountService)
		handler := NewUserHandler(svc, zap.NewNop())
		svc.On("UpdateProfile", mock.Anything, userID, mock.Anything).
			Return(nil, services.NewValidationError("language must not be blank"))

		rec := httptest.NewRecorder()
		handler.HandleUpdateMe(rec, authedRequest(http.MethodPut, "/api/v1/users/me", `{"name":"A"}`, userID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "language must not be blank")
	})

	t.Run("returns 401 when user missing in context", func(t *testing.T) {
		handler := NewUserHandler(new(MockAccountService), zap.NewNop())

		rec := httptest.NewRecorder()
		handler.HandleUpdateMe(rec, httptest.NewRequest(http.MethodPut, "/api/v1/users/me", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
