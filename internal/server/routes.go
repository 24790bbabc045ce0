package server

import (
	"github.com/labstack/echo/v4"

	"example.com/construction-budget/backend/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	authHandler *handlers.AuthHandler,
	projectHandler *handlers.ProjectHandler,
	phaseHandler *handlers.PhaseHandler,
	spendHandler *handlers.SpendHandler,
	contingencyHandler *handlers.ContingencyHandler,
	alertHandler *handlers.AlertHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	reallocationHandler *handlers.ReallocationHandler,
	auditHandler *handlers.AuditHandler,
	notificationHandler *handlers.NotificationHandler,
	authMiddleware echo.MiddlewareFunc,
	authRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", handlers.Health)

	api := e.Group("/api/v1")
	authGroup := api.Group("/auth", authRateLimiter)

	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", authHandler.Me, authMiddleware)

	projects := api.Group("/projects", authMiddleware)
	projects.POST("", projectHandler.Create)
	projects.GET("", projectHandler.List)
	projects.GET("/:id", projectHandler.Get)
	projects.DELETE("/:id", projectHandler.Delete)
	projects.GET("/:id/summary", projectHandler.Summary)
	projects.GET("/:id/categories/:category/summary", projectHandler.CategorySummary)

	projects.POST("/:id/phases", phaseHandler.Create)
	projects.GET("/:id/phases", phaseHandler.List)
	projects.GET("/:id/phases/:phaseId", phaseHandler.Get)
	projects.GET("/:id/phases/:phaseId/summary", phaseHandler.Summary)

	projects.POST("/:id/spend", spendHandler.Record)
	projects.GET("/:id/spend", spendHandler.List)

	projects.GET("/:id/contingency", contingencyHandler.Summary)
	projects.POST("/:id/contingency/draws", contingencyHandler.CreateDraw)
	projects.GET("/:id/contingency/draws", contingencyHandler.ListDraws)
	projects.POST("/:id/contingency/draws/:drawId/approve", contingencyHandler.ApproveDraw)
	projects.POST("/:id/contingency/draws/:drawId/reject", contingencyHandler.RejectDraw)

	projects.GET("/:id/alerts", alertHandler.List)
	projects.GET("/:id/phases/:phaseId/alerts", alertHandler.PhaseAlerts)
	projects.GET("/:id/trends", analyticsHandler.Trends)
	projects.GET("/:id/forecast", analyticsHandler.Forecast)

	projects.POST("/:id/reallocations", reallocationHandler.Create)
	projects.GET("/:id/reallocations", reallocationHandler.List)

	projects.GET("/:id/audit", auditHandler.List)
	projects.GET("/:id/events", notificationHandler.Stream)

	reallocations := api.Group("/reallocations", authMiddleware)
	reallocations.GET("/:requestId", reallocationHandler.Get)
	reallocations.POST("/:requestId/approve", reallocationHandler.Approve)
	reallocations.POST("/:requestId/reject", reallocationHandler.Reject)
	reallocations.DELETE("/:requestId", reallocationHandler.Delete)
}
