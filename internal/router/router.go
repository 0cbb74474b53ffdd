package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/centilliongw/portal-api/internal/handler"
	"github.com/centilliongw/portal-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes.  The credential
// endpoints (register, login) sit behind the rate limiter; the session
// endpoints require a valid JWT.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.GET("/verify-email", a.VerifyEmail)
	g.POST("/verify-email", a.VerifyEmail)

	auth := e.Group("/api/auth", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/change-password", a.ChangePassword)
	auth.PUT("/profile", a.UpdateProfile)
}
