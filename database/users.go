package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"adwin-rewards/models"
)

// ErrUserNotFound is returned when no record exists for a uid.
var ErrUserNotFound = errors.New("user not found")

// Users reads and bootstraps user records.
type Users struct {
	db  *sql.DB
	log *slog.Logger
}

// NewUsers creates the user store.
func NewUsers(db *sql.DB, logger *slog.Logger) *Users {
	return &Users{db: db, log: logger.With("component", "users")}
}

// Bootstrap creates the record of id with startingCoins the first time the
// uid is seen and refreshes last_login otherwise. An existing balance is never
// reset. created reports whether a new record was inserted.
func (u *Users) Bootstrap(ctx context.Context, id models.Identity, startingCoins int) (models.User, bool, error) {
	res, err := u.db.ExecContext(ctx, `
        INSERT INTO users (uid, display_name, email, photo_url, coins)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (uid) DO NOTHING
    `, id.UID, id.DisplayName, id.Email, id.PhotoURL, startingCoins)
	if err != nil {
		return models.User{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.User{}, false, err
	}
	created := n == 1

	if created {
		u.log.Info("user profile created", "user_id", id.UID, "coins", startingCoins)
	} else {
		_, err = u.db.ExecContext(ctx,
			`UPDATE users SET last_login = NOW() WHERE uid = $1`, id.UID)
		if err != nil {
			return models.User{}, false, err
		}
	}

	user, err := u.Get(ctx, id.UID)
	return user, created, err
}

// Get returns the record of uid.
func (u *Users) Get(ctx context.Context, uid string) (models.User, error) {
	var user models.User
	err := u.db.QueryRowContext(ctx, `
        SELECT uid, display_name, email, photo_url, coins, created_at, last_login
        FROM users WHERE uid = $1
    `, uid).Scan(&user.UID, &user.DisplayName, &user.Email, &user.PhotoURL,
		&user.Coins, &user.CreatedAt, &user.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// AudioEnabled reports the background audio preference of uid.
func (u *Users) AudioEnabled(ctx context.Context, uid string) (bool, error) {
	var enabled bool
	err := u.db.QueryRowContext(ctx,
		`SELECT audio_enabled FROM users WHERE uid = $1`, uid).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrUserNotFound
	}
	return enabled, err
}

// SetAudio stores the background audio preference of uid.
func (u *Users) SetAudio(ctx context.Context, uid string, enabled bool) error {
	res, err := u.db.ExecContext(ctx,
		`UPDATE users SET audio_enabled = $1 WHERE uid = $2`, enabled, uid)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
