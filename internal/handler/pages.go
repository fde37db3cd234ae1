package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shortly-app/shortly/web"
)

// PageHandler serves the embedded shell pages. The real dashboard is an
// external consumer of the JSON API; these pages are just enough to sign in
// and land somewhere.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

func (h *PageHandler) ServeLoginPage(c echo.Context) error {
	return servePage(c, "login.html")
}

func (h *PageHandler) ServeDashboard(c echo.Context) error {
	return servePage(c, "dashboard.html")
}

func (h *PageHandler) ServeNotFound(c echo.Context) error {
	return servePage(c, "notfound.html")
}

func servePage(c echo.Context, name string) error {
	data, err := web.FS.ReadFile(name)
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to read "+name)
	}
	return c.Blob(http.StatusOK, "text/html", data)
}
