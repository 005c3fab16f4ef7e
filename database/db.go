// Package database opens the Postgres pool and owns the schema and user
// records.
package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"adwin-rewards/config"
)

// Connect opens and pings the pool described by cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	// Pool sizing
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.Info("connected to database", "host", cfg.Host, "name", cfg.Name)
	return db, nil
}

// InitDB creates the schema. It is idempotent.
func InitDB(ctx context.Context, db *sql.DB) error {
	// Users
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            uid VARCHAR(128) PRIMARY KEY,
            display_name VARCHAR(100) NOT NULL DEFAULT '',
            email VARCHAR(255) NOT NULL DEFAULT '',
            photo_url TEXT NOT NULL DEFAULT '',
            coins INTEGER NOT NULL DEFAULT 0,
            audio_enabled BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMP NOT NULL DEFAULT NOW(),
            last_login TIMESTAMP NOT NULL DEFAULT NOW()
        )
    `)
	if err != nil {
		return err
	}

	// Balance notifications
	_, err = db.ExecContext(ctx, `
        CREATE OR REPLACE FUNCTION notify_coins_changed() RETURNS trigger AS $$
        BEGIN
            PERFORM pg_notify('coins_changed',
                json_build_object('uid', NEW.uid, 'coins', NEW.coins)::text);
            RETURN NEW;
        END;
        $$ LANGUAGE plpgsql
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `DROP TRIGGER IF EXISTS users_coins_changed ON users`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE TRIGGER users_coins_changed
            AFTER UPDATE OF coins ON users
            FOR EACH ROW
            WHEN (OLD.coins IS DISTINCT FROM NEW.coins)
            EXECUTE FUNCTION notify_coins_changed()
    `)
	if err != nil {
		return err
	}

	// Indexes
	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
    `)
	return err
}
