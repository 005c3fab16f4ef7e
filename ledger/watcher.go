package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"adwin-rewards/models"
)

// Channel is the NOTIFY channel raised by the users trigger.
const Channel = "coins_changed"

// Publisher receives balance events.
type Publisher interface {
	Publish(ev models.Event)
}

// Watcher republishes coins_changed notifications as balance events, so
// every stream of a user sees credits made from any device.
type Watcher struct {
	dsn string
	pub Publisher
	log *slog.Logger

	minReconnect time.Duration
	maxReconnect time.Duration
	pingInterval time.Duration
}

// NewWatcher creates a watcher for the database at dsn.
func NewWatcher(dsn string, pub Publisher, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dsn:          dsn,
		pub:          pub,
		log:          logger.With("component", "ledger-watcher"),
		minReconnect: 10 * time.Second,
		maxReconnect: time.Minute,
		pingInterval: 90 * time.Second,
	}
}

// Run listens until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	listener := pq.NewListener(w.dsn, w.minReconnect, w.maxReconnect, w.onEvent)
	defer listener.Close()

	if err := listener.Listen(Channel); err != nil {
		return fmt.Errorf("listen %s: %w", Channel, err)
	}
	w.log.Info("watching balance changes", "channel", Channel)

	ticker := time.NewTicker(w.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; notifications may have been missed.
			if n == nil {
				continue
			}
			ev, err := parseNotification(n.Extra)
			if err != nil {
				w.log.Warn("ignoring malformed notification", "payload", n.Extra, "error", err)
				continue
			}
			w.pub.Publish(ev)
		case <-ticker.C:
			if err := listener.Ping(); err != nil {
				w.log.Warn("listener ping failed", "error", err)
			}
		}
	}
}

func (w *Watcher) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		w.log.Debug("listener connected")
	case pq.ListenerEventDisconnected:
		w.log.Warn("listener disconnected", "error", err)
	case pq.ListenerEventReconnected:
		w.log.Info("listener reconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		w.log.Warn("listener connection attempt failed", "error", err)
	}
}

type coinsChanged struct {
	UID   string `json:"uid"`
	Coins int    `json:"coins"`
}

func parseNotification(payload string) (models.Event, error) {
	var p coinsChanged
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return models.Event{}, err
	}
	if p.UID == "" {
		return models.Event{}, fmt.Errorf("payload has no uid")
	}
	coins := p.Coins
	return models.Event{
		Type:   models.EventBalance,
		UserID: p.UID,
		Coins:  &coins,
		SentAt: time.Now(),
	}, nil
}
