package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/mediahub/account-service/internal/api/handler"
	"github.com/mediahub/account-service/internal/api/middleware"
	"github.com/mediahub/account-service/internal/core/ports"

	_ "github.com/mediahub/account-service/docs"
)

// RouterConfig carries everything NewRouter wires into the Echo instance.
type RouterConfig struct {
	Sessions ports.SessionService
	Profiles ports.ProfileService
	Tokens   ports.TokenService
	Denylist ports.TokenDenylist

	// Readiness lists the dependency probes behind /health/ready.
	Readiness map[string]handler.Check

	Cookies        handler.CookieConfig
	MaxUploadBytes int64
	// BodyLimit caps whole request bodies, e.g. "12M".
	BodyLimit string

	Log zerolog.Logger

	// Registerer and Gatherer back the HTTP metrics and /metrics. Nil means
	// the Prometheus defaults.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "12M"
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: cfg.Registerer,
	}))
	// The logger renders errors itself, so the metrics middleware above sees the final status.
	e.Use(requestLogger(cfg.Log))
	e.Use(echomiddleware.BodyLimit(cfg.BodyLimit))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(cfg.Sessions, cfg.Profiles, cfg.Cookies, cfg.MaxUploadBytes)
	userHandler := handler.NewUserHandler(cfg.Sessions, cfg.Profiles, cfg.MaxUploadBytes)
	requireAuth := middleware.Auth(cfg.Tokens, cfg.Denylist, cfg.Log)
	logoutAuth := middleware.Auth(cfg.Tokens, cfg.Denylist, cfg.Log, middleware.AllowRevoked())

	// --- User routes ---
	users := e.Group("/api/v1/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.POST("/refresh-token", authHandler.RefreshToken)
	users.POST("/logout", authHandler.Logout, logoutAuth)

	users.GET("/current-user", userHandler.CurrentUser, requireAuth)
	users.PATCH("/change-password", userHandler.ChangePassword, requireAuth)
	users.PATCH("/update-details", userHandler.UpdateDetails, requireAuth)
	users.PATCH("/update-avatar", userHandler.UpdateAvatar, requireAuth)
	users.PATCH("/cover-image", userHandler.UpdateCoverImage, requireAuth)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(cfg.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: cfg.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
