package dashboard

import (
	"context"
	"fmt"

	"adwin-rewards/models"
)

// AdWatch grants a fixed reward after a simulated ad view.
type AdWatch struct {
	amount int
	task   *TimedTask
	reward rewarder
}

// NewAdWatch creates the ad card.
func NewAdWatch(amount int, task *TimedTask, r rewarder) *AdWatch {
	return &AdWatch{amount: amount, task: task, reward: r}
}

// Watch starts an ad view. A second call while one is running returns
// ErrTaskPending and credits nothing.
func (a *AdWatch) Watch(ctx context.Context) error {
	announce := func() {
		a.reward.notice(models.NoticeInfo, "Watching Ad...", "You will be rewarded shortly.")
	}
	return a.task.Start(ctx, announce, func(ctx context.Context) {
		if _, err := a.reward.credit(ctx, "ad", a.amount); err != nil {
			return
		}
		a.reward.notice(models.NoticeSuccess, "Ad Finished!",
			fmt.Sprintf("You have earned %d coins.", a.amount))
	})
}

// Watching reports whether an ad view is in progress.
func (a *AdWatch) Watching() bool {
	return a.task.Pending()
}

// Reward returns the coins granted per ad.
func (a *AdWatch) Reward() int {
	return a.amount
}
