// Package dashboard holds the per-user dashboard session: engagement
// tracking, timed reward tasks, the daily check-in sequence, the quiz card and
// the adaptive widget layout.
//
// A Session lives from the moment the client opens the dashboard until it is
// closed (explicit teardown, sign-out, replacement by a newer session or server
// shutdown). Closing a session cancels every pending reward timer; no grant
// begins after Close returns.
package dashboard

import (
	"fmt"
	"strings"
)

// WidgetID identifies one engagement card.
type WidgetID string

// Known widgets
const (
	WidgetDaily WidgetID = "daily"
	WidgetAd    WidgetID = "ad"
	WidgetQuiz  WidgetID = "quiz"
)

// KnownWidgets is the full widget set in default display order.
var KnownWidgets = []WidgetID{WidgetDaily, WidgetAd, WidgetQuiz}

// ParseWidget converts a raw id into a WidgetID.
func ParseWidget(s string) (WidgetID, error) {
	for _, w := range KnownWidgets {
		if string(w) == s {
			return w, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWidget, s)
}

// Order is the display sequence of widgets. A valid Order is a permutation
// of KnownWidgets.
type Order []WidgetID

// DefaultOrder returns a fresh copy of the default layout.
func DefaultOrder() Order {
	return append(Order(nil), KnownWidgets...)
}

// ParseOrder converts raw ids into an Order and checks that it is a
// permutation of the known widget set.
func ParseOrder(ids []string) (Order, error) {
	order := make(Order, 0, len(ids))
	for _, id := range ids {
		order = append(order, WidgetID(id))
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate reports ErrInvalidLayout unless o contains every known widget
// exactly once and nothing else.
func (o Order) Validate() error {
	if len(o) != len(KnownWidgets) {
		return fmt.Errorf("%w: got %d widgets, want %d", ErrInvalidLayout, len(o), len(KnownWidgets))
	}
	seen := make(map[WidgetID]bool, len(o))
	for _, w := range o {
		if _, err := ParseWidget(string(w)); err != nil {
			return fmt.Errorf("%w: unknown widget %q", ErrInvalidLayout, w)
		}
		if seen[w] {
			return fmt.Errorf("%w: duplicate widget %q", ErrInvalidLayout, w)
		}
		seen[w] = true
	}
	return nil
}

// Clone returns an independent copy.
func (o Order) Clone() Order {
	return append(Order(nil), o...)
}

// Strings returns the raw ids.
func (o Order) Strings() []string {
	out := make([]string, len(o))
	for i, w := range o {
		out[i] = string(w)
	}
	return out
}

// Describe renders the human-readable description handed to the recommender.
func (o Order) Describe() string {
	return "The current layout is: " + strings.Join(o.Strings(), ", ") + "."
}
