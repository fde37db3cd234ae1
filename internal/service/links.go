package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/shortly-app/shortly/internal"
	"github.com/shortly-app/shortly/internal/slug"
	"github.com/shortly-app/shortly/internal/storage"
)

// createAttempts bounds the insert retry loop for generated slugs. The unique
// index is the real backstop; this just keeps collision races from surfacing.
const createAttempts = 3

type Links struct {
	store  storage.LinkStore
	events storage.EventStore
	gen    *slug.Generator
}

func NewLinks(store storage.LinkStore, events storage.EventStore, gen *slug.Generator) *Links {
	return &Links{store: store, events: events, gen: gen}
}

func (s *Links) Create(ctx context.Context, ownerID, originalURL, customSlug string) (*internal.ShortLink, error) {
	if !validURL(originalURL) {
		return nil, internal.ErrInvalidURL
	}

	if customSlug != "" {
		if !slug.Valid(customSlug) {
			return nil, internal.ErrInvalidSlug
		}
		taken, err := s.store.SlugExists(ctx, customSlug)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, internal.ErrSlugTaken
		}
		// The check above races with concurrent inserts; the store's unique
		// index reports the loser as ErrSlugTaken. No renaming, no retry.
		return s.store.Create(ctx, ownerID, customSlug, originalURL)
	}

	candidate := s.gen.Generate(slug.DefaultLength)
	if taken, err := s.store.SlugExists(ctx, candidate); err != nil {
		return nil, err
	} else if taken {
		candidate = s.gen.Generate(slug.RetryLength)
	}

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		link, err := s.store.Create(ctx, ownerID, candidate, originalURL)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, internal.ErrSlugTaken) {
			return nil, err
		}
		log.Warn().Str("slug", candidate).Int("attempt", attempt+1).Msg("generated slug collided on insert")
		lastErr = err
		candidate = s.gen.Generate(slug.RetryLength)
	}

	return nil, fmt.Errorf("could not allocate a unique slug: %w", lastErr)
}

func (s *Links) List(ctx context.Context, ownerID string) ([]*internal.ShortLink, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

func (s *Links) Get(ctx context.Context, ownerID, id string) (*internal.ShortLink, error) {
	return s.store.GetByID(ctx, id, ownerID)
}

func (s *Links) Update(ctx context.Context, ownerID, id string, update internal.LinkUpdate) (*internal.ShortLink, error) {
	if update.URL != nil && !validURL(*update.URL) {
		return nil, internal.ErrInvalidURL
	}
	if update.Slug != nil && !slug.Valid(*update.Slug) {
		return nil, internal.ErrInvalidSlug
	}
	return s.store.Update(ctx, id, ownerID, update)
}

func (s *Links) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.Delete(ctx, id, ownerID)
}

// Resolve looks up a slug and accounts for the visit. Once the lookup
// succeeds the destination is always returned: click accounting and event
// recording are best-effort and their failures are swallowed here.
func (s *Links) Resolve(ctx context.Context, slugStr string, visit internal.Visit) (string, error) {
	link, err := s.store.GetBySlug(ctx, slugStr)
	if err != nil {
		return "", err
	}

	if err := s.store.IncrementClicks(ctx, link.ID); err != nil {
		log.Warn().Err(err).Str("slug", slugStr).Msg("atomic click increment failed, trying fallback")
		s.fallbackIncrement(ctx, slugStr, link.ID)
	}

	if err := s.events.Record(ctx, link.ID, visit.UserAgent, visit.Referrer); err != nil {
		log.Warn().Err(err).Str("slug", slugStr).Msg("failed to record visit")
	}

	return link.URL, nil
}

// fallbackIncrement is the degraded read-then-write path. It can lose updates
// under concurrency and only exists so a broken atomic path doesn't zero out
// accounting entirely.
func (s *Links) fallbackIncrement(ctx context.Context, slugStr, id string) {
	current, err := s.store.GetBySlug(ctx, slugStr)
	if err != nil {
		log.Warn().Err(err).Str("slug", slugStr).Msg("fallback increment read failed")
		return
	}
	if err := s.store.SetClicks(ctx, id, current.Clicks+1); err != nil {
		log.Warn().Err(err).Str("slug", slugStr).Msg("fallback increment write failed")
	}
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}
