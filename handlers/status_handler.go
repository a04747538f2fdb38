package handlers

import (
	"net/http"

	"github.com/gramgyan/backend/services/rotation"
	"github.com/gramgyan/backend/utils"
)

// PoolReporter reports credential pool positions
type PoolReporter interface {
	Status() []rotation.PoolStatus
}

// StatusResponse describes the running service
type StatusResponse struct {
	AppName     string                `json:"app_name"`
	Environment string                `json:"environment"`
	Providers   []rotation.PoolStatus `json:"providers"`
}

// StatusHandler serves GET /api/v1/status
type StatusHandler struct {
	appName     string
	environment string
	pools       PoolReporter
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(appName, environment string, pools PoolReporter) *StatusHandler {
	return &StatusHandler{appName: appName, environment: environment, pools: pools}
}

// HandleStatus reports how many credentials each provider has and which one is active.
// Credential values are never included.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, StatusResponse{
		AppName:     h.appName,
		Environment: h.environment,
		Providers:   h.pools.Status(),
	})
}
