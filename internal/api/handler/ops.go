// Package handler provides HTTP handlers for the OmniRoute API.
package handler

import (
	"net/http"
	"time"

	"github.com/omniroute/omniroute/internal/api/models"
	"github.com/omniroute/omniroute/internal/api/response"
	"github.com/omniroute/omniroute/internal/connectivity"
	"github.com/omniroute/omniroute/internal/provider/resilience"
	"github.com/omniroute/omniroute/internal/storage"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version      string
	buildTime    string
	store        storage.Store
	connectivity *connectivity.Monitor
	registry     *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, store storage.Store, monitor *connectivity.Monitor, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:      version,
		buildTime:    buildTime,
		store:        store,
		connectivity: monitor,
		registry:     registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// Probes the backing store; a failed probe returns 503.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.store != nil {
		if _, _, err := h.store.Get(r.Context(), "readiness_probe"); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"store": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	connectivityStatus := models.HealthStatusOK
	if h.connectivity != nil && !h.connectivity.Online() {
		connectivityStatus = models.HealthStatusDegraded
		status.Status = models.HealthStatusDegraded
		status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, "offline-mode")
	}
	status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
		Name:   "connectivity",
		Status: connectivityStatus,
	})

	storeStatus := models.HealthStatusOK
	if h.store != nil {
		if _, _, err := h.store.Get(r.Context(), "readiness_probe"); err != nil {
			storeStatus = models.HealthStatusFail
			status.Status = models.HealthStatusFail
		}
	}
	status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
		Name:   "store",
		Status: storeStatus,
	})

	if h.registry != nil {
		for _, health := range h.registry.GetAllHealth() {
			ps := models.ProviderStatus{
				Provider: health.Name,
				Status:   models.HealthStatusOK,
			}
			switch {
			case health.IsUnhealthy():
				ps.Status = models.HealthStatusFail
				if status.Status == models.HealthStatusOK {
					status.Status = models.HealthStatusDegraded
				}
			case health.IsDegraded():
				ps.Status = models.HealthStatusDegraded
				if status.Status == models.HealthStatusOK {
					status.Status = models.HealthStatusDegraded
				}
			}
			if health.LastSuccessAt != nil {
				ts := models.Timestamp(*health.LastSuccessAt)
				ps.LastSuccessAt = &ts
			}
			if health.LastFailureAt != nil {
				ts := models.Timestamp(*health.LastFailureAt)
				ps.LastFailureAt = &ts
			}
			if health.LastError != "" {
				msg := health.LastError
				ps.Message = &msg
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}
