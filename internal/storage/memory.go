package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shortly-app/shortly/internal"
)

// Memory is an in-process store for demo mode and tests. It is selected
// explicitly via STORE_DRIVER=memory, never by sniffing credentials.
type Memory struct {
	mu     sync.Mutex
	links  map[string]*internal.ShortLink // by id
	events []internal.LinkEvent
}

func NewMemory() *Memory {
	return &Memory{links: make(map[string]*internal.ShortLink)}
}

func (m *Memory) Create(ctx context.Context, ownerID, slug, url string) (*internal.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.links {
		if l.Slug == slug {
			return nil, internal.ErrSlugTaken
		}
	}

	link := &internal.ShortLink{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		URL:       url,
		Slug:      slug,
		Clicks:    0,
		CreatedAt: time.Now().UTC(),
	}
	m.links[link.ID] = link

	out := *link
	return &out, nil
}

func (m *Memory) GetBySlug(ctx context.Context, slug string) (*internal.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.links {
		if l.Slug == slug {
			out := *l
			return &out, nil
		}
	}
	return nil, internal.ErrNotFound
}

func (m *Memory) GetByID(ctx context.Context, id, ownerID string) (*internal.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[id]
	if !ok || l.OwnerID != ownerID {
		return nil, internal.ErrNotFound
	}
	out := *l
	return &out, nil
}

func (m *Memory) ListByOwner(ctx context.Context, ownerID string) ([]*internal.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var links []*internal.ShortLink
	for _, l := range m.links {
		if l.OwnerID == ownerID {
			out := *l
			links = append(links, &out)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, nil
}

func (m *Memory) Update(ctx context.Context, id, ownerID string, update internal.LinkUpdate) (*internal.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[id]
	if !ok || l.OwnerID != ownerID {
		return nil, internal.ErrNotFound
	}

	if update.Slug != nil && *update.Slug != l.Slug {
		for _, other := range m.links {
			if other.ID != id && other.Slug == *update.Slug {
				return nil, internal.ErrSlugTaken
			}
		}
		l.Slug = *update.Slug
	}
	if update.URL != nil {
		l.URL = *update.URL
	}

	out := *l
	return &out, nil
}

func (m *Memory) Delete(ctx context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[id]
	if !ok || l.OwnerID != ownerID {
		return internal.ErrNotFound
	}
	delete(m.links, l.ID)
	return nil
}

func (m *Memory) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.links {
		if l.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) IncrementClicks(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[id]
	if !ok {
		return internal.ErrNotFound
	}
	l.Clicks++
	return nil
}

func (m *Memory) SetClicks(ctx context.Context, id string, clicks int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[id]
	if !ok {
		return internal.ErrNotFound
	}
	l.Clicks = clicks
	return nil
}

func (m *Memory) Record(ctx context.Context, linkID, userAgent, referrer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, internal.LinkEvent{
		ID:        uuid.NewString(),
		LinkID:    linkID,
		UserAgent: userAgent,
		Referrer:  referrer,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// Events returns a snapshot of recorded visits, newest last. Used by tests.
func (m *Memory) Events() []internal.LinkEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]internal.LinkEvent, len(m.events))
	copy(out, m.events)
	return out
}
