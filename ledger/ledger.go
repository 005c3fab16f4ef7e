// Package ledger applies coin rewards to the users table.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrInvalidAmount is returned for non-positive credits.
	ErrInvalidAmount = errors.New("credit amount must be positive")
	// ErrUnauthenticated is returned when no user is signed in.
	ErrUnauthenticated = errors.New("no signed-in user")
	// ErrUserNotFound is returned when the user has no record.
	ErrUserNotFound = errors.New("user record not found")
)

// RemoteWriteError wraps every failed credit.
type RemoteWriteError struct {
	UserID string
	Amount int
	Err    error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("credit %d coins to %q: %v", e.Amount, e.UserID, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// Ledger credits coins with relative increments so concurrent credits from
// other devices are never overwritten.
type Ledger struct {
	db  *sql.DB
	log *slog.Logger
}

// New creates a ledger on db.
func New(db *sql.DB, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{db: db, log: logger.With("component", "ledger")}
}

// Credit adds amount to the coins of userID and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, userID string, amount int) (int, error) {
	if err := validate(userID, amount); err != nil {
		return 0, l.fail(userID, amount, err)
	}

	var coins int
	err := l.db.QueryRowContext(ctx,
		`UPDATE users SET coins = coins + $1 WHERE uid = $2 RETURNING coins`,
		amount, userID,
	).Scan(&coins)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, l.fail(userID, amount, ErrUserNotFound)
	}
	if err != nil {
		return 0, l.fail(userID, amount, err)
	}
	l.log.Debug("credit applied", "user_id", userID, "amount", amount, "coins", coins)
	return coins, nil
}

func validate(userID string, amount int) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// fail wraps err for the caller, which owns reporting it.
func (l *Ledger) fail(userID string, amount int, err error) error {
	return &RemoteWriteError{UserID: userID, Amount: amount, Err: err}
}
