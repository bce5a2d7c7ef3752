package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"lan-file-drop/internal/storage"
)

// HealthStatus represents the overall health of the system
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentStatus represents the health of an individual component
type ComponentStatus string

const (
	ComponentStatusUp   ComponentStatus = "up"
	ComponentStatusDown ComponentStatus = "down"
)

// Health is the /ready response body.
type Health struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents the health of a single system component
type ComponentHealth struct {
	Status    ComponentStatus `json:"status"`
	Message   string          `json:"message,omitempty"`
	LatencyMs float64         `json:"latency_ms"`
}

const readyCheckTimeout = 2 * time.Second

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// healthHandler answers as long as the process is serving requests.
func (cfg Config) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": cfg.Build.Version,
		"commit":  cfg.Build.Commit,
	})
}

// readyHandler checks the storage directory and, when configured, the
// mirror and the audit database. Storage down is fatal (503); a failing
// mirror or audit store only degrades the service.
func (cfg Config) readyHandler(dir *storage.Dir) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		health := Health{
			Status:     HealthStatusHealthy,
			Timestamp:  time.Now().UTC(),
			Version:    cfg.Build.Version,
			Components: make(map[string]ComponentHealth),
		}

		health.Components["storage"] = checkComponent(func() error {
			if err := dir.Ensure(); err != nil {
				return err
			}
			_, err := os.Stat(dir.Path())
			return err
		})
		if cfg.Mirror != nil {
			health.Components["mirror"] = checkComponent(func() error { return cfg.Mirror.Ping(ctx) })
		}
		if cfg.Audit != nil {
			health.Components["audit"] = checkComponent(func() error { return cfg.Audit.Ping(ctx) })
		}

		for name, c := range health.Components {
			if c.Status == ComponentStatusUp {
				continue
			}
			if name == "storage" {
				health.Status = HealthStatusUnhealthy
				break
			}
			health.Status = HealthStatusDegraded
		}

		status := http.StatusOK
		if health.Status == HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, health)
	})
}

func checkComponent(check func() error) ComponentHealth {
	start := time.Now()
	err := check()
	c := ComponentHealth{
		Status:    ComponentStatusUp,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		c.Status = ComponentStatusDown
		c.Message = err.Error()
	}
	return c
}
