package router

import (
	"github.com/labstack/echo/v4"

	"github.com/centilliongw/portal-api/internal/handler"
	"github.com/centilliongw/portal-api/internal/middleware"
)

// RegisterPortal registers the user-scoped portal endpoints: the treatment
// questionnaire and the document vault.  Everything requires a valid JWT.
func RegisterPortal(e *echo.Echo, f *handler.FormHandler, d *handler.DocumentHandler, jwtSecret string) {
	g := e.Group("/api", middleware.JWTAuth(jwtSecret))

	// ---- Treatment form ----
	g.GET("/treatment-form", f.Get)
	g.POST("/treatment-form", f.Save)
	g.PUT("/treatment-form", f.Save) // alias, the save is a merge either way
	g.POST("/treatment-form/submit", f.Submit)
	g.DELETE("/treatment-form", f.Delete)
	g.GET("/treatment-form/steps", f.Steps)

	// ---- Documents ----
	g.POST("/documents", d.Upload)
	g.GET("/documents", d.List)
	g.GET("/documents/:id", d.Get)
	g.DELETE("/documents/:id", d.Delete)
}
