package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paysynclabs/paysync/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	actionImportPayments  = "payments.import"
	actionDeletePayments  = "payments.delete"
	actionRefreshPayments = "payments.refresh"
)

func (s *Server) adminLimit() ratelimit.Limit {
	return ratelimit.Limit{
		Requests: s.cfg.RateLimit.AdminRequests,
		Window:   s.cfg.RateLimit.AdminWindow,
	}
}

type importPaymentsRequest struct {
	Provider string `json:"provider" binding:"required"`
}

// ImportPayments
// POST /api/admin/payments/import
func (s *Server) ImportPayments(c *gin.Context) {
	admin := s.userFromContext(c)

	var req importPaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.limiter.Check(c.Request.Context(), admin.ID.String(), actionImportPayments, s.adminLimit()); err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	provider := strings.ToLower(strings.TrimSpace(req.Provider))

	if provider == "all" {
		results, err := s.importer.ImportAll(ctx)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		s.log.Info("admin triggered import",
			zap.String("admin_id", admin.ID.String()),
			zap.String("provider", "all"),
		)
		c.JSON(http.StatusOK, gin.H{"data": results})
		return
	}

	stats, err := s.importer.ImportProvider(ctx, provider)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.log.Info("admin triggered import",
		zap.String("admin_id", admin.ID.String()),
		zap.String("provider", provider),
	)
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// DeleteAllPayments
// DELETE /api/admin/payments
func (s *Server) DeleteAllPayments(c *gin.Context) {
	admin := s.userFromContext(c)

	if err := s.limiter.Check(c.Request.Context(), admin.ID.String(), actionDeletePayments, s.adminLimit()); err != nil {
		AbortWithError(c, err)
		return
	}

	deleted, err := s.importer.DeleteAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.log.Info("admin deleted all payments",
		zap.String("admin_id", admin.ID.String()),
		zap.Int64("deleted_count", deleted),
	)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted_count": deleted}})
}

// RefreshAllPayments
// POST /api/admin/payments/refresh
func (s *Server) RefreshAllPayments(c *gin.Context) {
	admin := s.userFromContext(c)

	if err := s.limiter.Check(c.Request.Context(), admin.ID.String(), actionRefreshPayments, s.adminLimit()); err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.importer.RefreshAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.log.Info("admin refreshed all payments",
		zap.String("admin_id", admin.ID.String()),
		zap.Int64("deleted_count", result.DeletedCount),
	)
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ListProviders
// GET /api/admin/providers
func (s *Server) ListProviders(c *gin.Context) {
	type providerInfo struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		IsConfigured bool   `json:"is_configured"`
		IsEnabled    bool   `json:"is_enabled"`
	}

	all := s.registry.All()
	out := make([]providerInfo, 0, len(all))
	for _, p := range all {
		out = append(out, providerInfo{
			ID:           p.ID(),
			Name:         p.Name(),
			IsConfigured: p.IsConfigured(),
			IsEnabled:    p.IsEnabled(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
