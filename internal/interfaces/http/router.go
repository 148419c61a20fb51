package http

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	paymentUsecases "lotuspay/internal/application/payment/usecases"
	"lotuspay/internal/application/payment/paymentgateway"
	"lotuspay/internal/infrastructure/cache"
	"lotuspay/internal/infrastructure/config"
	"lotuspay/internal/infrastructure/email"
	"lotuspay/internal/infrastructure/repository"
	"lotuspay/internal/interfaces/http/handlers"
	"lotuspay/internal/interfaces/http/middleware"
	"lotuspay/internal/interfaces/http/routes"
	"lotuspay/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	engine         *gin.Engine
	paymentHandler *handlers.PaymentHandler
}

// NewRouter wires repositories, the gateway adapter, and use cases into
// handlers. The redis client is optional: without it settlement falls back to
// the database-only replay guard.
func NewRouter(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logger.Interface) *Router {
	engine := gin.New()

	orderRepo := repository.NewOrderRepository(db)
	gateway := paymentgateway.NewVNPayGateway(cfg.VNPay, log)

	settleUC := paymentUsecases.NewSettleOrderUseCase(orderRepo, log)
	if redisClient != nil {
		settleUC.SetSettlementCache(cache.NewSettlementCache(redisClient))
	}
	if cfg.Email.NotifyAddress != "" {
		settleUC.SetConfirmationNotifier(email.NewConfirmationNotifier(cfg.Email))
	}

	createPaymentURLUC := paymentUsecases.NewCreatePaymentURLUseCase(orderRepo, gateway, log)
	handleReturnUC := paymentUsecases.NewHandleReturnUseCase(gateway, settleUC, log)
	handleIPNUC := paymentUsecases.NewHandleIPNUseCase(gateway, settleUC, log)

	paymentHandler := handlers.NewPaymentHandler(
		createPaymentURLUC,
		handleReturnUC,
		handleIPNUC,
		cfg.VNPay.FrontendReturnURL,
		log,
	)

	return &Router{
		engine:         engine,
		paymentHandler: paymentHandler,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes(cfg *config.Config, log logger.Interface) {
	r.engine.Use(middleware.Logger(log))
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.engine.GET("/health", r.paymentHandler.HealthCheck)

	routes.SetupPaymentRoutes(r.engine, &routes.PaymentRouteConfig{
		PaymentHandler: r.paymentHandler,
	})
}

// Engine returns the underlying gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
