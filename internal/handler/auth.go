package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shortly-app/shortly/internal/auth"
)

type AuthHandler struct {
	authenticator *auth.Authenticator
}

func NewAuthHandler(authenticator *auth.Authenticator) *AuthHandler {
	return &AuthHandler{authenticator: authenticator}
}

// Login handles POST /login: checks credentials and sets the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var creds auth.Credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	cookie, err := h.authenticator.Login(creds)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	cookie.Secure = c.IsTLS()
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Logout clears the session cookie and sends the user back to the login page.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(auth.ExpireCookie())
	return c.Redirect(http.StatusFound, "/")
}
