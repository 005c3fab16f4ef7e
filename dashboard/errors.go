package dashboard

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownWidget is returned for widget ids outside the known set.
	ErrUnknownWidget = errors.New("unknown widget")
	// ErrTaskPending is returned when a widget already has a reward task or
	// confirmation prompt outstanding.
	ErrTaskPending = errors.New("reward task already pending")
	// ErrSessionClosed is returned by operations on a torn-down session.
	ErrSessionClosed = errors.New("dashboard session closed")

	// ErrInvalidDay is returned for check-in days outside 1..5.
	ErrInvalidDay = errors.New("invalid check-in day")
	// ErrAlreadyClaimed is returned when the selected day was already claimed.
	ErrAlreadyClaimed = errors.New("check-in day already claimed")
	// ErrOutOfOrder is returned when the selected day is not the claimable one.
	ErrOutOfOrder = errors.New("check-in day out of order")
	// ErrNoSelection is returned by Confirm without an open prompt.
	ErrNoSelection = errors.New("no check-in day selected")

	// ErrOptimizeInFlight is returned while a layout request is outstanding.
	ErrOptimizeInFlight = errors.New("layout optimization already in progress")
	// ErrInvalidLayout is returned when a suggested order is not a
	// permutation of the known widget set.
	ErrInvalidLayout = errors.New("invalid layout")
)

// SequencingError reports a check-in attempt that violates day order. It is
// handled locally with a notice and never reaches the ledger.
type SequencingError struct {
	Day int
	Err error
}

func (e *SequencingError) Error() string {
	return fmt.Sprintf("check-in day %d: %v", e.Day, e.Err)
}

func (e *SequencingError) Unwrap() error {
	return e.Err
}

// RecommendationError reports a failed layout recommendation. The previous
// layout is kept.
type RecommendationError struct {
	Message string
	Err     error
}

func (e *RecommendationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("layout recommendation failed: %s: %v", e.Message, e.Err)
	}
	return "layout recommendation failed: " + e.Message
}

func (e *RecommendationError) Unwrap() error {
	return e.Err
}

// IsSequencing reports whether err is a check-in sequencing violation.
func IsSequencing(err error) bool {
	var se *SequencingError
	return errors.As(err, &se)
}
