package router

import (
	"github.com/labstack/echo/v4"

	"github.com/centilliongw/portal-api/internal/handler"
	"github.com/centilliongw/portal-api/internal/middleware"
	"github.com/centilliongw/portal-api/internal/repository"
)

// RegisterAdmin registers the admin endpoints under /api/admin.  Every route
// requires a valid JWT and a live admin role; the dashboard stats route is
// additionally wrapped in the response cache when one is configured.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, f *handler.FormHandler,
	accounts repository.AccountStore, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireAdmin(accounts),
	)

	// ---- Dashboard ----
	g.GET("/dashboard/stats", a.DashboardStats, cache)

	// ---- Users ----
	g.GET("/users", a.ListUsers)
	g.GET("/users/:userId", a.GetUser)
	g.PATCH("/users/:userId/role", a.UpdateUserRole)

	// ---- Treatment forms ----
	g.GET("/forms", a.ListForms)
	g.PATCH("/forms/:formId/status", a.UpdateFormStatus)

	// ---- Documents ----
	g.GET("/documents", a.ListDocuments)
	g.GET("/documents/:userId", a.ListUserDocuments)
	g.GET("/documents/:userId/:documentId", a.GetUserDocument)

	// Aggregate form counters live under the form prefix but are admin-only.
	e.GET("/api/treatment-form/stats", f.Stats,
		middleware.JWTAuth(jwtSecret), middleware.RequireAdmin(accounts))
}
