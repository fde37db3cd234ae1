package db

import (
	"context"
	"database/sql"
	"net/url"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

func Open(ctx context.Context, dbPath string) (*sql.DB, error) {
	instance, err := sql.Open("sqlite", formatDSN(dbPath))
	if err != nil {
		log.Error().Err(err).Msg("failed to open database")
		return nil, err
	}

	if err := instance.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("failed to ping database")
		return nil, err
	}

	log.Debug().Msg("database connection successful")

	if err := migrate(ctx, instance); err != nil {
		log.Error().Err(err).Msg("failed to run migrations")
		return nil, err
	}
	log.Info().Msg("migrations completed successfully")

	return instance, nil
}

func formatDSN(path string) string {
	// Pragmas for better performance and safety
	// See: https://pkg.go.dev/modernc.org/sqlite#pkg-overview
	params := url.Values{}
	params.Set("cache", "shared")
	params.Set("mode", "rwc")
	params.Set("_time_format", "sqlite")
	params.Set("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Set("_busy_timeout", "5000")

	return "file:" + path + "?" + params.Encode()
}

func migrate(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		slug TEXT UNIQUE NOT NULL,
		url TEXT NOT NULL,
		clicks INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS link_events (
		id TEXT PRIMARY KEY,
		link_id TEXT NOT NULL,
		user_agent TEXT,
		referrer TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(link_id) REFERENCES links(id) ON DELETE CASCADE
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_links_slug ON links(slug);
	CREATE INDEX IF NOT EXISTS idx_links_owner ON links(owner_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_link_events_link_id ON link_events(link_id);
	`

	_, err := db.ExecContext(ctx, schema)
	return err
}
