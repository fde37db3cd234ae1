package storage

import (
	"context"

	"github.com/shortly-app/shortly/internal"
)

// LinkStore is the persistence contract for short links. Implementations must
// enforce slug uniqueness and report violations as internal.ErrSlugTaken;
// owner-scoped misses are internal.ErrNotFound.
type LinkStore interface {
	Create(ctx context.Context, ownerID, slug, url string) (*internal.ShortLink, error)
	GetBySlug(ctx context.Context, slug string) (*internal.ShortLink, error)
	GetByID(ctx context.Context, id, ownerID string) (*internal.ShortLink, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*internal.ShortLink, error)
	Update(ctx context.Context, id, ownerID string, update internal.LinkUpdate) (*internal.ShortLink, error)
	Delete(ctx context.Context, id, ownerID string) error
	SlugExists(ctx context.Context, slug string) (bool, error)

	// IncrementClicks bumps the counter atomically; concurrent callers must
	// not lose updates.
	IncrementClicks(ctx context.Context, id string) error
	// SetClicks is the degraded fallback write used when the atomic path
	// fails. It races by design.
	SetClicks(ctx context.Context, id string, clicks int64) error
}

// EventStore records visits. Callers treat failures as non-fatal.
type EventStore interface {
	Record(ctx context.Context, linkID, userAgent, referrer string) error
}
