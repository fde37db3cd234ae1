package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shortly-app/shortly/internal"
	"github.com/shortly-app/shortly/internal/auth"
	"github.com/shortly-app/shortly/internal/service"
)

type LinkHandler struct {
	links *service.Links
}

func NewLinkHandler(links *service.Links) *LinkHandler {
	return &LinkHandler{links: links}
}

type CreateLinkRequest struct {
	OriginalURL string `json:"original_url"`
	CustomSlug  string `json:"custom_slug"`
}

type UpdateLinkRequest struct {
	OriginalURL *string `json:"original_url"`
	ShortSlug   *string `json:"short_slug"`
}

type LinkResponse struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"original_url"`
	ShortSlug   string    `json:"short_slug"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
}

type DeleteLinkResponse struct {
	Success bool `json:"success"`
}

func (h *LinkHandler) CreateLink(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req CreateLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.OriginalURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}

	link, err := h.links.Create(ctx, identity.Subject, req.OriginalURL, req.CustomSlug)
	if err != nil {
		return apiError(err)
	}

	return c.JSON(http.StatusCreated, toResponse(link))
}

func (h *LinkHandler) ListLinks(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	links, err := h.links.List(ctx, identity.Subject)
	if err != nil {
		log.Error().Err(err).Msg("failed to list links")
		return apiError(err)
	}

	responses := lo.Map(links, func(link *internal.ShortLink, _ int) LinkResponse {
		return toResponse(link)
	})

	return c.JSON(http.StatusOK, responses)
}

func (h *LinkHandler) GetLink(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	link, err := h.links.Get(ctx, identity.Subject, c.Param("id"))
	if err != nil {
		return apiError(err)
	}

	return c.JSON(http.StatusOK, toResponse(link))
}

func (h *LinkHandler) UpdateLink(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req UpdateLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	update := internal.LinkUpdate{URL: req.OriginalURL, Slug: req.ShortSlug}
	link, err := h.links.Update(ctx, identity.Subject, c.Param("id"), update)
	if err != nil {
		return apiError(err)
	}

	return c.JSON(http.StatusOK, toResponse(link))
}

func (h *LinkHandler) DeleteLink(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	if err := h.links.Delete(ctx, identity.Subject, c.Param("id")); err != nil {
		return apiError(err)
	}

	return c.JSON(http.StatusOK, DeleteLinkResponse{Success: true})
}

func toResponse(link *internal.ShortLink) LinkResponse {
	return LinkResponse{
		ID:          link.ID,
		OriginalURL: link.URL,
		ShortSlug:   link.Slug,
		Clicks:      link.Clicks,
		CreatedAt:   link.CreatedAt,
	}
}

func apiError(err error) error {
	switch {
	case errors.Is(err, internal.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "link not found")
	case errors.Is(err, internal.ErrSlugTaken):
		return echo.NewHTTPError(http.StatusBadRequest, "this slug is already taken")
	case errors.Is(err, internal.ErrInvalidURL):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid url")
	case errors.Is(err, internal.ErrInvalidSlug):
		return echo.NewHTTPError(http.StatusBadRequest, "slug may only contain letters, digits, - and _")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
