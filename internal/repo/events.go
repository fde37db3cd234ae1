package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Events struct {
	db *sql.DB
}

func NewEvents(db *sql.DB) *Events {
	return &Events{db: db}
}

// Record appends a visit. Callers treat a failure here as non-fatal; the
// redirect must not depend on analytics health.
func (r *Events) Record(ctx context.Context, linkID, userAgent, referrer string) error {
	executor := goqu.New("sqlite", r.db)

	log.Debug().Str("link_id", linkID).Msg("recording visit")

	now := date(time.Now().UTC())
	query := executor.Insert("link_events").
		Cols("id", "link_id", "user_agent", "referrer", "created_at").
		Vals([]any{uuid.NewString(), linkID, userAgent, referrer, now})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		log.Error().Err(err).Str("link_id", linkID).Msg("failed to record visit")
		return err
	}
	return nil
}
