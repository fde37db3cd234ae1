package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shortly-app/shortly/internal"
)

type linkRow struct {
	ID        string `db:"id"`
	OwnerID   string `db:"owner_id"`
	Slug      string `db:"slug"`
	URL       string `db:"url"`
	Clicks    int64  `db:"clicks"`
	CreatedAt date   `db:"created_at"`
}

type Links struct {
	db *sql.DB
}

func NewLinks(db *sql.DB) *Links {
	return &Links{db: db}
}

func (r *Links) Create(ctx context.Context, ownerID, slug, url string) (*internal.ShortLink, error) {
	executor := goqu.New("sqlite", r.db)

	log.Debug().Str("slug", slug).Str("owner", ownerID).Msg("creating link")

	now := date(time.Now().UTC())
	query := executor.Insert("links").
		Cols("id", "owner_id", "slug", "url", "clicks", "created_at").
		Vals([]any{uuid.NewString(), ownerID, slug, url, 0, now}).
		Returning("id", "owner_id", "slug", "url", "clicks", "created_at")

	var row linkRow
	found, err := query.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		if isUniqueViolation(err) {
			log.Debug().Str("slug", slug).Msg("slug collision on insert")
			return nil, internal.ErrSlugTaken
		}
		log.Error().Err(err).Str("slug", slug).Msg("failed to create link")
		return nil, err
	}
	if !found {
		return nil, internal.ErrNotFound
	}

	link := row.toDomain()
	log.Info().Str("id", link.ID).Str("slug", link.Slug).Msg("link created")

	return link, nil
}

func (r *Links) GetBySlug(ctx context.Context, slug string) (*internal.ShortLink, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("links").Where(goqu.Ex{"slug": slug}).Select(
		"id", "owner_id", "slug", "url", "clicks", "created_at",
	)

	var row linkRow
	found, err := query.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to fetch link")
		return nil, err
	}
	if !found {
		log.Debug().Str("slug", slug).Msg("link not found")
		return nil, internal.ErrNotFound
	}

	return row.toDomain(), nil
}

func (r *Links) GetByID(ctx context.Context, id, ownerID string) (*internal.ShortLink, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("links").Where(goqu.Ex{"id": id, "owner_id": ownerID}).Select(
		"id", "owner_id", "slug", "url", "clicks", "created_at",
	)

	var row linkRow
	found, err := query.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, internal.ErrNotFound
	}

	return row.toDomain(), nil
}

func (r *Links) ListByOwner(ctx context.Context, ownerID string) ([]*internal.ShortLink, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("links").Where(goqu.Ex{"owner_id": ownerID}).Select(
		"id", "owner_id", "slug", "url", "clicks", "created_at",
	).Order(goqu.C("created_at").Desc())

	var rows []linkRow
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, err
	}

	links := make([]*internal.ShortLink, len(rows))
	for i, row := range rows {
		links[i] = row.toDomain()
	}
	return links, nil
}

func (r *Links) Update(ctx context.Context, id, ownerID string, update internal.LinkUpdate) (*internal.ShortLink, error) {
	executor := goqu.New("sqlite", r.db)

	record := goqu.Record{}
	if update.URL != nil {
		record["url"] = *update.URL
	}
	if update.Slug != nil {
		record["slug"] = *update.Slug
	}
	if len(record) == 0 {
		return r.GetByID(ctx, id, ownerID)
	}

	query := executor.Update("links").
		Set(record).
		Where(goqu.Ex{"id": id, "owner_id": ownerID}).
		Returning("id", "owner_id", "slug", "url", "clicks", "created_at")

	var row linkRow
	found, err := query.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, internal.ErrSlugTaken
		}
		log.Error().Err(err).Str("id", id).Msg("failed to update link")
		return nil, err
	}
	if !found {
		return nil, internal.ErrNotFound
	}

	return row.toDomain(), nil
}

func (r *Links) Delete(ctx context.Context, id, ownerID string) error {
	executor := goqu.New("sqlite", r.db)

	query := executor.Delete("links").Where(goqu.Ex{"id": id, "owner_id": ownerID})

	res, err := query.Executor().ExecContext(ctx)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to delete link")
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return internal.ErrNotFound
	}

	log.Info().Str("id", id).Msg("link deleted")
	return nil
}

func (r *Links) SlugExists(ctx context.Context, slug string) (bool, error) {
	executor := goqu.New("sqlite", r.db)

	count, err := executor.From("links").Where(goqu.Ex{"slug": slug}).CountContext(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IncrementClicks pushes the addition into SQL so concurrent resolutions of
// the same slug cannot lose updates to a read-modify-write race.
func (r *Links) IncrementClicks(ctx context.Context, id string) error {
	executor := goqu.New("sqlite", r.db)

	query := executor.Update("links").
		Set(goqu.Record{"clicks": goqu.L("clicks + 1")}).
		Where(goqu.Ex{"id": id})

	res, err := query.Executor().ExecContext(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return internal.ErrNotFound
	}
	return nil
}

func (r *Links) SetClicks(ctx context.Context, id string, clicks int64) error {
	executor := goqu.New("sqlite", r.db)

	query := executor.Update("links").
		Set(goqu.Record{"clicks": clicks}).
		Where(goqu.Ex{"id": id})

	_, err := query.Executor().ExecContext(ctx)
	return err
}

func (r *linkRow) toDomain() *internal.ShortLink {
	return &internal.ShortLink{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		URL:       r.URL,
		Slug:      r.Slug,
		Clicks:    r.Clicks,
		CreatedAt: r.CreatedAt.Time(),
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
