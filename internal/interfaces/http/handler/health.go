package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/printapi/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler reports whether the service can serve PDFs.
type HealthHandler struct {
	BaseHandler
	checks  []HealthCheck
	timeout time.Duration
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(logger *zap.Logger, checks ...HealthCheck) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{checks: checks, timeout: 3 * time.Second, logger: logger}
}

// Health runs every check and answers 503 when one fails.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	report := dto.HealthResponse{Status: dto.HealthStatusOK, Checks: make(map[string]string, len(h.checks))}
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("check", check.Name), zap.Error(err))
			report.Status = dto.HealthStatusDegraded
			report.Checks[check.Name] = err.Error()
			continue
		}
		report.Checks[check.Name] = dto.HealthStatusOK
	}

	if report.Status != dto.HealthStatusOK {
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: report})
		return
	}
	h.Success(c, report)
}
