package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// HandleWebhook
// POST /api/webhooks/:provider
func (s *Server) HandleWebhook(c *gin.Context) {
	providerID := strings.ToLower(strings.TrimSpace(c.Param("provider")))

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.importer.HandleWebhook(c.Request.Context(), providerID, payload); err != nil {
		s.log.Warn("webhook rejected",
			zap.String("provider", providerID),
			zap.Error(err),
		)
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"received": true}})
}
