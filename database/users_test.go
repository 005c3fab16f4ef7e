package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"adwin-rewards/logging"
	"adwin-rewards/models"
)

// openTestDB connects to ADWIN_TEST_DSN and applies the schema. Tests that
// need a live Postgres are skipped when it is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("ADWIN_TEST_DSN")
	if dsn == "" {
		t.Skip("ADWIN_TEST_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := InitDB(ctx, db); err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	return db
}

func testUID(t *testing.T) string {
	return fmt.Sprintf("test-%s-%d", t.Name(), time.Now().UnixNano())
}

func TestBootstrapKeepsBalance(t *testing.T) {
	db := openTestDB(t)
	users := NewUsers(db, logging.Discard())
	ctx := context.Background()

	id := models.Identity{UID: testUID(t), DisplayName: "Tester", Email: "tester@example.com"}
	t.Cleanup(func() { db.Exec(`DELETE FROM users WHERE uid = $1`, id.UID) })

	user, created, err := users.Bootstrap(ctx, id, 100)
	if err != nil {
		t.Fatalf("first Bootstrap() error = %v", err)
	}
	if !created || user.Coins != 100 {
		t.Fatalf("first Bootstrap() = (%+v, %v), want 100 coins and created", user, created)
	}

	if _, err := db.ExecContext(ctx,
		`UPDATE users SET coins = coins + $1 WHERE uid = $2`, 25, id.UID); err != nil {
		t.Fatal(err)
	}

	user, created, err = users.Bootstrap(ctx, id, 100)
	if err != nil {
		t.Fatalf("second Bootstrap() error = %v", err)
	}
	if created {
		t.Error("second Bootstrap() reported a new record")
	}
	if user.Coins != 125 {
		t.Errorf("coins after second Bootstrap() = %d, want 125", user.Coins)
	}
	if user.LastLogin.Before(user.CreatedAt) {
		t.Errorf("last_login %v before created_at %v", user.LastLogin, user.CreatedAt)
	}
}

func TestGetMissingUser(t *testing.T) {
	db := openTestDB(t)
	users := NewUsers(db, logging.Discard())

	if _, err := users.Get(context.Background(), testUID(t)); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Get() error = %v, want ErrUserNotFound", err)
	}
}

func TestAudioPreference(t *testing.T) {
	db := openTestDB(t)
	users := NewUsers(db, logging.Discard())
	ctx := context.Background()

	id := models.Identity{UID: testUID(t)}
	t.Cleanup(func() { db.Exec(`DELETE FROM users WHERE uid = $1`, id.UID) })
	if _, _, err := users.Bootstrap(ctx, id, 100); err != nil {
		t.Fatal(err)
	}

	if on, err := users.AudioEnabled(ctx, id.UID); err != nil || !on {
		t.Fatalf("default AudioEnabled() = (%v, %v), want (true, nil)", on, err)
	}
	if err := users.SetAudio(ctx, id.UID, false); err != nil {
		t.Fatalf("SetAudio() error = %v", err)
	}
	if on, err := users.AudioEnabled(ctx, id.UID); err != nil || on {
		t.Errorf("AudioEnabled() = (%v, %v), want (false, nil)", on, err)
	}
	if err := users.SetAudio(ctx, testUID(t), true); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("SetAudio() for missing user error = %v, want ErrUserNotFound", err)
	}
}
