package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	providerdomain "github.com/paysynclabs/paysync/internal/provider/domain"
	"go.uber.org/zap"
)

type createCheckoutRequest struct {
	Provider     string            `json:"provider" binding:"required"`
	ProductID    string            `json:"product_id" binding:"required"`
	SuccessURL   string            `json:"success_url"`
	DiscountCode string            `json:"discount_code"`
	Metadata     map[string]string `json:"metadata"`
}

// CreateCheckout
// POST /api/checkout
func (s *Server) CreateCheckout(c *gin.Context) {
	user := s.userFromContext(c)

	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	p, ok := s.registry.Get(strings.ToLower(strings.TrimSpace(req.Provider)))
	if !ok {
		AbortWithError(c, providerdomain.ErrInvalidCheckout)
		return
	}

	url, err := p.CreateCheckoutURL(c.Request.Context(), providerdomain.CheckoutOptions{
		ProductID:    req.ProductID,
		Email:        user.Email,
		Name:         user.Name,
		SuccessURL:   req.SuccessURL,
		DiscountCode: req.DiscountCode,
		Metadata:     req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("checkout created",
		zap.String("provider", p.ID()),
		zap.String("product_id", req.ProductID),
	)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}})
}
