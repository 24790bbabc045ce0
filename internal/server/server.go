package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"example.com/construction-budget/backend/internal/auth"
	"example.com/construction-budget/backend/internal/config"
	"example.com/construction-budget/backend/internal/finance"
	"example.com/construction-budget/backend/internal/handlers"
	"example.com/construction-budget/backend/internal/notifications"
	"example.com/construction-budget/backend/internal/repository"
)

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, db *pgxpool.Pool) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	financeCfg := cfg.FinanceDefaults()

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	phaseRepo := repository.NewPhaseRepository(db)
	spendRepo := repository.NewSpendRepository(db)
	drawRepo := repository.NewContingencyRepository(db)
	reallocationStore := repository.NewReallocationStore(db)
	ledgerStore := repository.NewLedgerStore(db, financeCfg)
	auditRepo := repository.NewAuditRepository(db)
	notificationHub := notifications.NewHub()

	workflow := finance.NewWorkflow(reallocationStore, ledgerStore, auditRepo, logger)
	drawWorkflow := finance.NewDrawWorkflow(drawRepo, auditRepo, logger)

	authHandler := handlers.NewAuthHandler(userRepo, tokenRepo, tokenManager)
	projectHandler := handlers.NewProjectHandler(projectRepo, phaseRepo, spendRepo, financeCfg)
	phaseHandler := handlers.NewPhaseHandler(phaseRepo, projectRepo, financeCfg)
	spendHandler := handlers.NewSpendHandler(spendRepo, projectRepo, notificationHub)
	contingencyHandler := handlers.NewContingencyHandler(projectRepo, drawRepo, drawWorkflow, notificationHub, financeCfg)
	alertHandler := handlers.NewAlertHandler(projectRepo, phaseRepo, spendRepo, financeCfg)
	analyticsHandler := handlers.NewAnalyticsHandler(projectRepo, spendRepo, financeCfg)
	reallocationHandler := handlers.NewReallocationHandler(workflow, reallocationStore, notificationHub)
	auditHandler := handlers.NewAuditHandler(auditRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationHub)

	registerRoutes(
		e,
		authHandler,
		projectHandler,
		phaseHandler,
		spendHandler,
		contingencyHandler,
		alertHandler,
		analyticsHandler,
		reallocationHandler,
		auditHandler,
		notificationHandler,
		auth.JWTMiddleware(tokenManager),
		authRateLimiter(cfg.Auth),
	)

	return e
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

func authRateLimiter(cfg config.AuthConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.RateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.RateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
