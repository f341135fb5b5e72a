// Package health exposes the liveness/readiness/health HTTP handlers wired
// into cmd/publishengine/main.go.
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nexus-edge/publish-engine/internal/registry"
)

// Checker reports process and registry health over HTTP.
type Checker struct {
	serviceName    string
	serviceVersion string
	reg            *registry.Registry
	logger         zerolog.Logger
}

// NewChecker constructs a Checker bound to the server's Registry.
func NewChecker(serviceName, serviceVersion string, reg *registry.Registry, logger zerolog.Logger) *Checker {
	return &Checker{
		serviceName:    serviceName,
		serviceVersion: serviceVersion,
		reg:            reg,
		logger:         logger.With().Str("component", "health-checker").Logger(),
	}
}

// HealthResponse is the body returned by HealthHandler.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// HealthHandler reports overall process health. The registry has no
// external dependency to go unhealthy on, so this always reports healthy
// once the process is serving requests at all.
func (c *Checker) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Service:   c.serviceName,
		Version:   c.serviceVersion,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// LivenessHandler returns 200 if the process is running at all.
func (c *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessHandler returns 200 once the registry exists and can be queried
// without panicking; this server has no external readiness dependency
// (no database, no broker on the hot path).
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ready := c.reg != nil

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "not_ready",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "ready",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
