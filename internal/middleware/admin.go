package middleware // middleware provides shared request processing for handlers

import (
	"context"  // context carries the DB call timeout
	"net/http" // http package defines standard HTTP status codes
	"time"     // time provides the timeout duration

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/centilliongw/portal-api/internal/model"
	"github.com/centilliongw/portal-api/internal/repository"
)

// RequireAdmin returns a middleware that gates the admin API.  It assumes
// JWTAuth already ran and stored the account ID in the context; the account
// is then re-fetched so a stale token cannot outlive a demotion, and the
// request is rejected with 403 unless the stored role is admin.
func RequireAdmin(accounts repository.AccountStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := c.Get("account_id").(string)
			if !ok || id == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false, "error": "not authorized to access this route"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			a, err := accounts.GetByID(ctx, id)
			if err != nil {
				if err == repository.ErrNotFound {
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"success": false, "error": "user not found"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{
					"success": false, "error": "server error"})
			}
			if a.Role != model.RoleAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false, "error": "admin access required"})
			}

			// Expose the full admin account to handlers that want it.
			c.Set("admin_account", a)
			return next(c)
		}
	}
}
