package dashboard

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"adwin-rewards/models"
)

// Question is a single-step addition problem.
type Question struct {
	A    int    `json:"-"`
	B    int    `json:"-"`
	Text string `json:"text"`
}

func newQuestion(rng *rand.Rand) Question {
	a := rng.IntN(10) + 1
	b := rng.IntN(10) + 1
	return Question{A: a, B: b, Text: fmt.Sprintf("%d + %d = ?", a, b)}
}

// Quiz serves one outstanding question at a time and credits a correct
// answer.
type Quiz struct {
	amount int
	reward rewarder

	mu        sync.Mutex
	rng       *rand.Rand
	current   Question
	answering bool
}

// NewQuiz creates the quiz card with its first question.
func NewQuiz(amount int, rng *rand.Rand, r rewarder) *Quiz {
	q := &Quiz{amount: amount, reward: r, rng: rng}
	q.current = newQuestion(rng)
	return q
}

// Question returns the outstanding question.
func (q *Quiz) Question() Question {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// Answer checks n against the outstanding question. A correct answer is
// credited and replaced with a new question; the question is kept when the
// answer is wrong or the credit fails.
func (q *Quiz) Answer(ctx context.Context, n int) (bool, error) {
	q.mu.Lock()
	if q.answering {
		q.mu.Unlock()
		return false, ErrTaskPending
	}
	question := q.current
	if n != question.A+question.B {
		q.mu.Unlock()
		q.reward.notice(models.NoticeInfo, "Not quite", "Try again.")
		return false, nil
	}
	q.answering = true
	q.mu.Unlock()

	_, err := q.reward.credit(ctx, "quiz", q.amount)

	q.mu.Lock()
	q.answering = false
	if err == nil {
		q.current = newQuestion(q.rng)
	}
	q.mu.Unlock()

	if err != nil {
		return true, err
	}
	q.reward.notice(models.NoticeSuccess, "Correct!",
		fmt.Sprintf("You have earned %d coins.", q.amount))
	return true, nil
}

// Reward returns the coins granted per correct answer.
func (q *Quiz) Reward() int {
	return q.amount
}
