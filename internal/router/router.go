package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	appointmentHandler "github.com/agendly/agenda-api/internal/handler/appointment"
	authHandler "github.com/agendly/agenda-api/internal/handler/auth"
	establishmentHandler "github.com/agendly/agenda-api/internal/handler/establishment"
	healthHandler "github.com/agendly/agenda-api/internal/handler/health"
	inviteHandler "github.com/agendly/agenda-api/internal/handler/invite"
	"github.com/agendly/agenda-api/internal/middleware"
	"github.com/agendly/agenda-api/internal/model"
)

type Config struct {
	RateLimit      rate.Limit
	RateBurst      int
	RedeemRate     rate.Limit
	RedeemBurst    int
	CORSConfig     middleware.CORSConfig
	MetricsPrefix  string
	RequestTimeout time.Duration
}

type Router struct {
	engine         *gin.Engine
	auth           *middleware.AuthMiddleware
	authH          *authHandler.Handler
	establishmentH *establishmentHandler.Handler
	inviteH        *inviteHandler.Handler
	appointmentH   *appointmentHandler.Handler
	healthH        *healthHandler.Handler
	config         Config
	metrics        *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authHandler.Handler,
	establishmentH *establishmentHandler.Handler,
	inviteH *inviteHandler.Handler,
	appointmentH *appointmentHandler.Handler,
	healthH *healthHandler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}

	r := &Router{
		engine:         engine,
		auth:           auth,
		authH:          authH,
		establishmentH: establishmentH,
		inviteH:        inviteH,
		appointmentH:   appointmentH,
		healthH:        healthH,
		config:         config,
		metrics:        initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
		middleware.CORS(config.CORSConfig),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	// Public surface: signup/login and the public establishment page.
	r.authH.RegisterRoutes(api)
	r.establishmentH.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	// Redemption is authenticated but throttled hard: a 6-digit code must
	// not be brute-forceable within its 7-day lifetime.
	redeem := protected.Group("")
	redeem.Use(r.auth.RequireRoles(model.RoleClient))
	redeemLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  r.config.RedeemRate,
		Burst: r.config.RedeemBurst,
	})
	redeem.Use(redeemLimiter.RateLimit())
	r.inviteH.RegisterRedeemRoute(redeem)

	// Owner surface: establishment management, catalogs, hours, clients,
	// invites.
	owners := protected.Group("")
	owners.Use(r.auth.RequireRoles(model.RoleAdministrator, model.RoleEstablishment))
	r.establishmentH.RegisterRoutes(owners)
	establishments := owners.Group("/establishments")
	r.inviteH.RegisterEstablishmentRoutes(establishments)

	// Client surface.
	clients := protected.Group("")
	clients.Use(r.auth.RequireRoles(model.RoleClient))
	r.establishmentH.RegisterClientRoutes(clients)

	// Appointments are reachable by every signed-in role; the service
	// enforces per-record access.
	appointments := protected.Group("")
	appointments.Use(r.auth.RequireRoles(model.RoleAdministrator, model.RoleEstablishment, model.RoleClient))
	r.appointmentH.RegisterRoutes(appointments)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
