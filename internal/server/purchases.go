package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	importerdomain "github.com/paysynclabs/paysync/internal/importer/domain"
	providerdomain "github.com/paysynclabs/paysync/internal/provider/domain"
	"go.uber.org/zap"
)

// providersForQuery resolves the optional ?provider= filter. Empty
// means every enabled provider.
func (s *Server) providersForQuery(c *gin.Context) ([]providerdomain.Provider, error) {
	id := strings.ToLower(strings.TrimSpace(c.Query("provider")))
	if id == "" {
		return s.registry.Enabled(), nil
	}
	p, ok := s.registry.Get(id)
	if !ok {
		return nil, importerdomain.ErrUnknownProvider
	}
	return []providerdomain.Provider{p}, nil
}

// GetPurchasedProducts
// GET /api/purchases/products
func (s *Server) GetPurchasedProducts(c *gin.Context) {
	user := s.userFromContext(c)

	providers, err := s.providersForQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	products := make([]providerdomain.NormalizedProduct, 0)
	for _, p := range providers {
		got, err := p.GetUserPurchasedProducts(ctx, user.Email)
		if err != nil {
			s.log.Warn("purchased products lookup failed",
				zap.String("provider", p.ID()),
				zap.Error(err),
			)
			continue
		}
		products = append(products, got...)
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

// CheckProductPurchase
// GET /api/purchases/product/:id/status
func (s *Server) CheckProductPurchase(c *gin.Context) {
	user := s.userFromContext(c)
	productID := c.Param("id")

	providers, err := s.providersForQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	purchased := false
	for _, p := range providers {
		ok, err := p.HasUserPurchasedProduct(ctx, user.Email, productID)
		if err != nil {
			s.log.Warn("product purchase check failed",
				zap.String("provider", p.ID()),
				zap.Error(err),
			)
			continue
		}
		if ok {
			purchased = true
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"product_id": productID, "purchased": purchased}})
}

// CheckSubscription
// GET /api/purchases/subscription
func (s *Server) CheckSubscription(c *gin.Context) {
	user := s.userFromContext(c)

	providers, err := s.providersForQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	active := false
	for _, p := range providers {
		ok, err := p.HasActiveSubscription(ctx, user.Email)
		if err != nil {
			s.log.Warn("subscription check failed",
				zap.String("provider", p.ID()),
				zap.Error(err),
			)
			continue
		}
		if ok {
			active = true
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"active": active}})
}
