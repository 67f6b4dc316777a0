package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/http/handlers"
	"github.com/jsamuelsen/eyewear-quotes/internal/adapters/http/middleware"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/config"
	"github.com/jsamuelsen/eyewear-quotes/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds each /api/v1 request.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig collects what SetupRouter mounts. Nil handlers are skipped.
type RouterConfig struct {
	Logger        *slog.Logger
	AppConfig     *config.AppConfig
	HealthHandler *handlers.HealthHandler

	QuoteHandler    *handlers.QuoteHandler
	LineItemHandler *handlers.LineItemHandler
	PaymentHandler  *handlers.PaymentHandler

	// Timeout is the deadline of each API request. Zero disables it.
	Timeout time.Duration
}

// SetupRouter installs the middleware chain and mounts the routes.
//
// Order: recovery, request id, correlation id, otel span and metrics,
// logging. The timeout only wraps /api/v1 so probes under /-/ never 504.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.AppConfig.Name),
		telemetry.Middleware(cfg.AppConfig.Name),
		middleware.Logging(cfg.Logger),
	)

	// Probes get no timeout.
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	apiV1.Use(middleware.Timeout(cfg.Timeout))

	setupAPIRoutes(apiV1, cfg)
}

func setupAPIRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(rg)
	}

	if cfg.LineItemHandler != nil {
		cfg.LineItemHandler.RegisterLineItemRoutes(rg)
	}

	if cfg.PaymentHandler != nil {
		cfg.PaymentHandler.RegisterPaymentRoutes(rg)
	}
}

// NewDefaultRouterConfig returns a config with DefaultRequestTimeout and no API handlers.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	healthHandler *handlers.HealthHandler,
) RouterConfig {
	return RouterConfig{
		Logger:        logger,
		AppConfig:     appCfg,
		HealthHandler: healthHandler,
		Timeout:       DefaultRequestTimeout,
	}
}
