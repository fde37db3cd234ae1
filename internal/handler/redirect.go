package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shortly-app/shortly/internal"
	"github.com/shortly-app/shortly/internal/service"
)

// reservedPrefixes are path segments that belong to the app itself and must
// never be treated as slug lookups.
var reservedPrefixes = []string{"api", "static", "auth", "health", "_"}

type RedirectHandler struct {
	links *service.Links
}

func NewRedirectHandler(links *service.Links) *RedirectHandler {
	return &RedirectHandler{links: links}
}

func (h *RedirectHandler) Redirect(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")

	if !isSlugCandidate(slug) {
		return echo.ErrNotFound
	}

	visit := internal.Visit{
		UserAgent: c.Request().UserAgent(),
		Referrer:  c.Request().Referer(),
	}

	dest, err := h.links.Resolve(ctx, slug, visit)
	if err != nil {
		// The public path never leaks internals; anything but a clean
		// resolution looks like an unknown link.
		if !errors.Is(err, internal.ErrNotFound) {
			log.Error().Err(err).Str("slug", slug).Msg("resolve failed")
		}
		return c.Redirect(http.StatusFound, "/not-found")
	}

	log.Info().Str("slug", slug).Str("dest", dest).Msg("redirecting")

	// 302 rather than 301: a permanent redirect gets cached by browsers and
	// stops click accounting after the first visit.
	return c.Redirect(http.StatusFound, dest)
}

// isSlugCandidate screens out internal routes and static asset paths so they
// fall through to normal routing instead of a not-found redirect.
func isSlugCandidate(slug string) bool {
	if slug == "" || strings.Contains(slug, ".") {
		return false
	}
	return !lo.SomeBy(reservedPrefixes, func(prefix string) bool {
		return strings.HasPrefix(slug, prefix)
	})
}
