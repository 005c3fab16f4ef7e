package dashboard

import (
	"context"
	"fmt"
	"sync"

	"adwin-rewards/models"
)

// DayStatus is the state of a single check-in day.
type DayStatus string

// Day states
const (
	DayUnclaimed DayStatus = "unclaimed"
	DayClaimable DayStatus = "claimable"
	DayClaimed   DayStatus = "claimed"
)

// Day is one entry of the check-in sequence.
type Day struct {
	Number int       `json:"day"`
	Reward int       `json:"reward"`
	Status DayStatus `json:"status"`
}

// CheckInState is a read-only view of the sequencer.
type CheckInState struct {
	Days []Day `json:"days"`
	// Claimable is the only day that may be selected next; 0 once every
	// day is claimed.
	Claimable int  `json:"claimable"`
	Selected  int  `json:"selected,omitempty"`
	Pending   bool `json:"pending"`
}

// CheckIn enforces strict day-order claiming. Claimed days always form the
// prefix 1..k; only day k+1 can be selected. A day is marked claimed only
// after its reward was credited.
type CheckIn struct {
	rewards []int
	task    *TimedTask
	reward  rewarder

	mu       sync.Mutex
	claimed  int
	selected int
}

// NewCheckIn creates a sequencer with one reward per day.
func NewCheckIn(rewards []int, task *TimedTask, r rewarder) *CheckIn {
	return &CheckIn{
		rewards: append([]int(nil), rewards...),
		task:    task,
		reward:  r,
	}
}

// Select handles a click on day. The claimable day opens the confirmation
// prompt; anything else is a SequencingError with a notice and no state
// change.
func (c *CheckIn) Select(day int) (Day, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if day < 1 || day > len(c.rewards) {
		return Day{}, &SequencingError{Day: day, Err: ErrInvalidDay}
	}
	// The confirmation prompt blocks every day button.
	if c.selected != 0 {
		return Day{}, ErrTaskPending
	}

	switch {
	case day == c.claimed+1:
		if c.task.Pending() {
			return Day{}, ErrTaskPending
		}
		c.selected = day
		return Day{Number: day, Reward: c.rewards[day-1], Status: DayClaimable}, nil
	case day <= c.claimed:
		c.reward.notice(models.NoticeInfo, "Already Claimed",
			fmt.Sprintf("You have already claimed the reward for Day %d.", day))
		return Day{}, &SequencingError{Day: day, Err: ErrAlreadyClaimed}
	default:
		c.reward.notice(models.NoticeError, "Wait for your turn!",
			"Please claim your previous rewards first.")
		return Day{}, &SequencingError{Day: day, Err: ErrOutOfOrder}
	}
}

// Dismiss closes the confirmation prompt without claiming.
func (c *CheckIn) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = 0
}

// Confirm starts the timed claim for the selected day. The reward is granted
// after the task delay; the day becomes claimed only if the credit succeeds.
func (c *CheckIn) Confirm(ctx context.Context) (Day, error) {
	c.mu.Lock()
	day := c.selected
	if day == 0 {
		c.mu.Unlock()
		return Day{}, ErrNoSelection
	}
	amount := c.rewards[day-1]

	announce := func() {
		c.reward.notice(models.NoticeInfo, "Watching Ad...",
			"You will be rewarded shortly for checking in.")
	}
	err := c.task.Start(ctx, announce, func(ctx context.Context) {
		c.grant(ctx, day, amount)
	})
	if err != nil {
		c.mu.Unlock()
		return Day{}, err
	}
	c.selected = 0
	c.mu.Unlock()
	return Day{Number: day, Reward: amount, Status: DayClaimable}, nil
}

func (c *CheckIn) grant(ctx context.Context, day, amount int) {
	if _, err := c.reward.credit(ctx, "checkin", amount); err != nil {
		return
	}

	c.mu.Lock()
	if day == c.claimed+1 {
		c.claimed = day
	}
	c.mu.Unlock()

	c.reward.notice(models.NoticeSuccess, "Reward Claimed!",
		fmt.Sprintf("You have earned %d coins for Day %d.", amount, day))
}

// State returns the current sequencer view.
func (c *CheckIn) State() CheckInState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := CheckInState{
		Days:     make([]Day, len(c.rewards)),
		Selected: c.selected,
		Pending:  c.task.Pending(),
	}
	for i, amount := range c.rewards {
		n := i + 1
		status := DayUnclaimed
		switch {
		case n <= c.claimed:
			status = DayClaimed
		case n == c.claimed+1:
			status = DayClaimable
			state.Claimable = n
		}
		state.Days[i] = Day{Number: n, Reward: amount, Status: status}
	}
	return state
}
