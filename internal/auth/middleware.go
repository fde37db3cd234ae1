package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const identityContextKey = "auth.identity"

var ErrUnauthorized = errors.New("unauthorized")

// Identity is the authenticated caller, resolved once per request by the
// middleware and passed explicitly to handlers. There is no shared
// "current user" state anywhere.
type Identity struct {
	Subject string
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Check(other Credentials) bool {
	return c.Username == other.Username && c.Password == other.Password
}

func NewCredentials(s string) (Credentials, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Credentials{}, fmt.Errorf("invalid credentials format")
	}

	return Credentials{
		Username: parts[0],
		Password: parts[1],
	}, nil
}

type Authenticator struct {
	credentials Credentials
	jwtSecret   string
}

func NewAuthenticator(credentials Credentials, jwtSecret string) *Authenticator {
	return &Authenticator{credentials: credentials, jwtSecret: jwtSecret}
}

// Login checks the supplied credentials and returns a session cookie.
func (a *Authenticator) Login(creds Credentials) (*http.Cookie, error) {
	if !a.credentials.Check(creds) {
		return nil, ErrUnauthorized
	}
	return a.SessionCookie(creds.Username)
}

// SessionCookie issues a fresh signed session cookie for a subject. Also used
// by the OAuth callback once the external provider has vouched for the user.
func (a *Authenticator) SessionCookie(subject string) (*http.Cookie, error) {
	token, err := signToken(subject, a.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(tokenExpiry / time.Second),
	}, nil
}

// Middleware resolves the caller's identity from the session cookie or basic
// auth and stores it in the request context. Requests with neither get 401
// before any handler or store access.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	type strategy func(c echo.Context) (*Identity, error)
	strategies := []strategy{
		a.identityFromCookie,
		a.identityFromBasicAuth,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, resolve := range strategies {
				identity, err := resolve(c)
				if err != nil || identity == nil {
					continue
				}
				c.Set(identityContextKey, *identity)
				return next(c)
			}
			return echo.ErrUnauthorized
		}
	}
}

// IdentityFromContext returns the identity the middleware resolved for this
// request, if any.
func IdentityFromContext(c echo.Context) (Identity, bool) {
	identity, ok := c.Get(identityContextKey).(Identity)
	return identity, ok
}

func (a *Authenticator) identityFromCookie(c echo.Context) (*Identity, error) {
	cookie, err := c.Cookie(cookieName)
	if err != nil || cookie == nil || cookie.Value == "" {
		return nil, nil
	}

	claims, err := validateToken(cookie.Value, a.jwtSecret)
	if err != nil {
		return nil, nil
	}

	// Sliding expiry: every authenticated request refreshes the cookie.
	refreshed, err := a.SessionCookie(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh cookie: %w", err)
	}
	c.SetCookie(refreshed)

	return &Identity{Subject: claims.Subject}, nil
}

func (a *Authenticator) identityFromBasicAuth(c echo.Context) (*Identity, error) {
	username, password, ok := c.Request().BasicAuth()
	if !ok {
		return nil, nil
	}

	cookie, err := a.Login(Credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	cookie.Secure = c.IsTLS()
	c.SetCookie(cookie)

	return &Identity{Subject: username}, nil
}

func ExpireCookie() *http.Cookie {
	return &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	}
}
