package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/certiko/backoffice/core"
)

// registerPages mounts the operator page sections behind the route
// guard. The pages themselves are a single shell; the interesting part
// is who gets to navigate where.
func registerPages(app *echo.Echo) {
	app.GET(loginPath, pageShell, routeGuard)
	for _, prefix := range protectedPrefixes {
		app.GET(prefix, pageShell, routeGuard)
		app.GET(prefix+"/*", pageShell, routeGuard)
	}
}

func pageShell(ctx echo.Context) error {
	return ctx.HTML(http.StatusOK, `<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>`+core.Conf.AppName+`</title></head>
<body><div id="app"></div></body>
</html>`)
}
