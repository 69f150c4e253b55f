package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole lets the request through if the user holds any of roles.
// Admins always pass.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			for _, has := range userRoles {
				if has == "admin" {
					return next(c)
				}
				for _, required := range roles {
					if has == required {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// RequireScope checks for "<resource>.<operation>" among the token scopes,
// e.g. "anc.write".
func RequireScope(resource, operation string) echo.MiddlewareFunc {
	required := resource + "." + operation
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, scope := range ScopesFromContext(c.Request().Context()) {
				if matchScope(scope, required) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required scope: %s", required))
		}
	}
}

// matchScope supports "*" for either half: "anc.*", "*.read", "*.*".
func matchScope(granted, required string) bool {
	if granted == required {
		return true
	}
	g := strings.SplitN(granted, ".", 2)
	r := strings.SplitN(required, ".", 2)
	if len(g) != 2 || len(r) != 2 {
		return false
	}
	return (g[0] == r[0] || g[0] == "*") && (g[1] == r[1] || g[1] == "*")
}
