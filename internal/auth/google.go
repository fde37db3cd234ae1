package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const stateCookieName = "oauthstate"

// GoogleConfig enables the Google login flow when a client id and secret are
// configured. The flow ends in the same session cookie as credential login.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type GoogleAuth struct {
	oauthConfig   *oauth2.Config
	authenticator *Authenticator
	successURL    string
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func NewGoogleAuth(cfg GoogleConfig, authenticator *Authenticator, successURL string) *GoogleAuth {
	return &GoogleAuth{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
		authenticator: authenticator,
		successURL:    successURL,
	}
}

func (g *GoogleAuth) Login(c echo.Context) error {
	state, err := g.setStateCookie(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start login")
	}
	return c.Redirect(http.StatusTemporaryRedirect, g.oauthConfig.AuthCodeURL(state))
}

func (g *GoogleAuth) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	stateCookie, err := c.Cookie(stateCookieName)
	if err != nil || c.FormValue("state") != stateCookie.Value {
		log.Warn().Msg("oauth callback with missing or mismatched state")
		return c.Redirect(http.StatusTemporaryRedirect, "/")
	}

	token, err := g.oauthConfig.Exchange(ctx, c.FormValue("code"))
	if err != nil {
		log.Error().Err(err).Msg("oauth code exchange failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "code exchange failed")
	}

	user, err := g.fetchUser(ctx, token)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch google user info")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch user info")
	}

	cookie, err := g.authenticator.SessionCookie(user.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session")
	}
	cookie.Secure = c.IsTLS()
	c.SetCookie(cookie)

	log.Info().Str("subject", user.Email).Msg("google login successful")
	return c.Redirect(http.StatusTemporaryRedirect, g.successURL)
}

func (g *GoogleAuth) fetchUser(ctx context.Context, token *oauth2.Token) (*googleUser, error) {
	client := g.oauthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user googleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (g *GoogleAuth) setStateCookie(c echo.Context) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)

	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.IsTLS(),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(20 * time.Minute),
	})
	return state, nil
}
