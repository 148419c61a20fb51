package routes

import (
	"github.com/gin-gonic/gin"

	"lotuspay/internal/interfaces/http/handlers"
)

// PaymentRouteConfig holds dependencies for payment routes.
type PaymentRouteConfig struct {
	PaymentHandler *handlers.PaymentHandler
}

// SetupPaymentRoutes configures payment routes. The return and IPN endpoints
// carry no session auth; the gateway authenticates itself through the HMAC
// signature on every callback.
func SetupPaymentRoutes(engine *gin.Engine, cfg *PaymentRouteConfig) {
	payments := engine.Group("/payments")
	{
		payments.POST("/vnpay", cfg.PaymentHandler.CreatePayment)
		payments.GET("/vnpay/return", cfg.PaymentHandler.HandleReturn)
		payments.GET("/vnpay/ipn", cfg.PaymentHandler.HandleIPN)
	}
}
