package recommender

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Heuristic orders widgets by interaction count, most used first. Ties keep
// the order of Widgets.
type Heuristic struct {
	Widgets []string
}

// Recommend implements the recommendation contract locally.
func (h Heuristic) Recommend(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if len(h.Widgets) == 0 {
		return Response{Success: false, Error: "no widgets to arrange"}, nil
	}

	layout := append([]string(nil), h.Widgets...)
	sort.SliceStable(layout, func(i, j int) bool {
		return req.Engagement[layout[i]] > req.Engagement[layout[j]]
	})

	return Response{
		Success:   true,
		Layout:    layout,
		Reasoning: reasoning(layout, req.Engagement),
	}, nil
}

func reasoning(layout []string, counts map[string]int) string {
	total := 0
	for _, w := range layout {
		total += counts[w]
	}
	if total == 0 {
		return "There is no activity yet, so the default layout is kept."
	}

	parts := make([]string, 0, len(layout))
	for _, w := range layout {
		parts = append(parts, fmt.Sprintf("%s (%d)", w, counts[w]))
	}
	return fmt.Sprintf("You interact most with %s, so it is shown first. Activity: %s.",
		layout[0], strings.Join(parts, ", "))
}
