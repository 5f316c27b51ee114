// Package meta serves operational endpoints that sit outside the API versioning.
package meta

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/communitylink/membership-api/internal/config"
	"github.com/gin-gonic/gin"
)

const checkTimeout = 5 * time.Second

// Pinger is anything the health check can probe, e.g. *database.DB.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type Handler struct {
	cfg    *config.Config
	checks map[string]Pinger
}

// NewHandler builds the health handler. checks are keyed by the name reported
// in the response body.
func NewHandler(cfg *config.Config, checks map[string]Pinger) *Handler {
	return &Handler{
		cfg:    cfg,
		checks: checks,
	}
}

type checkResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Health probes every dependency and answers 503 when any of them is down.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	healthy := true
	results := make(map[string]checkResult, len(h.checks))
	for name, check := range h.checks {
		start := time.Now()
		result := checkResult{Status: "up"}
		if err := check.HealthCheck(ctx); err != nil {
			healthy = false
			result.Status = "down"
			result.Error = err.Error()
			slog.Error("Health check 실패", "check", name, "error", err)
		}
		result.LatencyMS = time.Since(start).Milliseconds()
		results[name] = result
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status": status,
		"service": gin.H{
			"name":         h.cfg.App.Name,
			"environment":  h.cfg.App.Env,
			"organization": h.cfg.Membership.Organization,
		},
		"checks": results,
	})
}
