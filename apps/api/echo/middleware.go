package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// protectedPrefixes are the page sections reserved to an authenticated
// operator; any other path passes through the guard untouched.
var protectedPrefixes = []string{
	"/administrar",
	"/certificado",
	"/inicio",
	"/reporte",
}

const loginPath = "/autenticar"

// routeGuard redirects unauthenticated navigation on protected page
// prefixes to the login page.
func routeGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		path := ctx.Request().URL.Path
		for _, prefix := range protectedPrefixes {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				if !validSessionCookie(ctx) {
					return ctx.Redirect(http.StatusFound, loginPath)
				}
				break
			}
		}
		return next(ctx)
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsSuperAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
