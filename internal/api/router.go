// Package api is the HTTP surface: the Telegram webhook, health, metrics
// and the read-only admin API.
package api

import (
	"net/http"

	"github.com/AlexanderMakarov/tgjournals/internal/metrics"
	"github.com/AlexanderMakarov/tgjournals/internal/middleware"
	"github.com/AlexanderMakarov/tgjournals/internal/service"
	"github.com/AlexanderMakarov/tgjournals/internal/telegram"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig selects which routes are mounted and where.
type RouterConfig struct {
	WebhookPath   string
	SecretToken   string
	MetricsPath   string
	EnableAdmin   bool
	EnableMetrics bool
}

// Router owns the gin engine.
type Router struct {
	engine         *gin.Engine
	config         RouterConfig
	services       *service.Services
	dispatcher     *telegram.Dispatcher
	metrics        *metrics.Metrics
	authMiddleware *middleware.AuthMiddleware
	log            *zap.Logger
}

// NewRouter builds the engine. dispatcher may be nil when updates are
// polled, in which case no webhook route is mounted.
func NewRouter(cfg RouterConfig, services *service.Services, dispatcher *telegram.Dispatcher, m *metrics.Metrics, log *zap.Logger) *Router {
	if cfg.WebhookPath == "" {
		cfg.WebhookPath = "/webhook"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	log = log.Named("http")
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.AccessLog(log, m))

	router := &Router{
		engine:         engine,
		config:         cfg,
		services:       services,
		dispatcher:     dispatcher,
		metrics:        m,
		authMiddleware: middleware.NewAuthMiddleware(services.Auth),
		log:            log,
	}

	router.setupRoutes()

	return router
}

func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthCheck)

	if r.dispatcher != nil {
		r.engine.POST(r.config.WebhookPath, middleware.WebhookSecret(r.config.SecretToken), r.webhook)
	}

	if r.config.EnableMetrics && r.metrics != nil {
		r.engine.GET(r.config.MetricsPath, gin.WrapH(r.metrics.Handler()))
	}

	if r.config.EnableAdmin {
		admin := newAdminHandler(r.services, r.log)

		v1 := r.engine.Group("/api/v1")
		{
			v1.POST("/auth/token", admin.issueToken)

			authed := v1.Group("")
			authed.Use(r.authMiddleware.RequireAdmin())
			{
				authed.GET("/sessions/active", admin.activeSession)
				authed.GET("/participants", admin.participants)
				authed.GET("/users/:telegram_id/journals", admin.journals)
			}
		}

		registerOpenAPIRoutes(r.engine)
		registerSwaggerRoutes(r.engine)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "route not found",
		})
	})
}

// Handler returns the engine as an http.Handler.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine returns the gin engine, for tests.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
