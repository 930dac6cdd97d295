package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Healthz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Signature verification happens upstream of this service.
	engine.POST("/api/webhooks/:provider", s.HandleWebhook)

	authed := engine.Group("/api", s.APIKeyRequired())
	{
		authed.GET("/purchases/products", s.GetPurchasedProducts)
		authed.GET("/purchases/product/:id/status", s.CheckProductPurchase)
		authed.GET("/purchases/subscription", s.CheckSubscription)
		authed.POST("/checkout", s.CreateCheckout)
	}

	admin := engine.Group("/api/admin", s.APIKeyRequired(), s.AdminRequired())
	{
		admin.POST("/payments/import", s.ImportPayments)
		admin.DELETE("/payments", s.DeleteAllPayments)
		admin.POST("/payments/refresh", s.RefreshAllPayments)
		admin.GET("/providers", s.ListProviders)
	}
}

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
