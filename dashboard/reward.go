package dashboard

import (
	"context"
	"log/slog"
	"time"

	"adwin-rewards/models"
	"adwin-rewards/recommender"
)

// Ledger applies relative balance increments to the user's remote record.
type Ledger interface {
	Credit(ctx context.Context, userID string, amount int) (int, error)
}

// Recommender proposes a widget order from engagement data.
type Recommender interface {
	Recommend(ctx context.Context, req recommender.Request) (recommender.Response, error)
}

// Publisher delivers events to the user's notice stream.
type Publisher interface {
	Publish(ev models.Event)
}

// rewarder credits the ledger on behalf of one user and reports the outcome
// on the notice stream.
type rewarder struct {
	userID string
	ledger Ledger
	pub    Publisher
	log    *slog.Logger
}

func (r rewarder) notice(variant, title, description string) {
	r.pub.Publish(models.Event{
		Type:   models.EventNotice,
		UserID: r.userID,
		Notice: &models.Notice{Variant: variant, Title: title, Description: description},
		SentAt: time.Now(),
	})
}

// credit applies amount and publishes the new balance. Failures are logged
// and surfaced as an error notice; they are never retried.
func (r rewarder) credit(ctx context.Context, source string, amount int) (int, error) {
	coins, err := r.ledger.Credit(ctx, r.userID, amount)
	if err != nil {
		r.log.Error("failed to credit reward",
			"user_id", r.userID, "source", source, "amount", amount, "error", err)
		r.notice(models.NoticeError, "Error", "Failed to update your coin balance.")
		return 0, err
	}

	r.log.Info("reward credited",
		"user_id", r.userID, "source", source, "amount", amount, "coins", coins)
	r.pub.Publish(models.Event{
		Type:   models.EventBalance,
		UserID: r.userID,
		Coins:  &coins,
		SentAt: time.Now(),
	})
	return coins, nil
}
