package internal

import "time"

// ShortLink maps a short slug to a destination URL. Clicks is a denormalized
// counter kept on the row itself so lookups don't need an aggregate query.
type ShortLink struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	URL       string    `json:"original_url"`
	Slug      string    `json:"short_slug"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
}

// LinkEvent is one recorded visit. Append-only, best-effort.
type LinkEvent struct {
	ID        string    `json:"id"`
	LinkID    string    `json:"link_id"`
	UserAgent string    `json:"user_agent"`
	Referrer  string    `json:"referrer"`
	CreatedAt time.Time `json:"created_at"`
}

// Visit carries the request metadata recorded alongside a resolution.
type Visit struct {
	UserAgent string
	Referrer  string
}

// LinkUpdate is a partial update: nil fields are left untouched.
type LinkUpdate struct {
	URL  *string
	Slug *string
}
