// Package catalog derives the visible event listing from the full set of
// upcoming events, a free-text query and an optional category.
package catalog

import (
	"strings"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filter returns the events matching both query and category, in input order.
//
// The query is matched case-insensitively as a literal substring of the
// title, the description or the location; an empty query matches every
// event. A zero category matches every event, otherwise the category must
// be equal. The input slice is never modified.
func Filter(events []model.Event, query string, category model.Category) []model.Event {
	// A Caser carries state and must not be shared across goroutines.
	lower := cases.Lower(language.Und)
	needle := lower.String(query)

	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if category != "" && e.Category != category {
			continue
		}
		if needle != "" && !matchesText(lower, e, needle) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesText(lower cases.Caser, e model.Event, needle string) bool {
	if strings.Contains(lower.String(e.Title), needle) {
		return true
	}
	if e.Description != "" && strings.Contains(lower.String(e.Description), needle) {
		return true
	}
	return strings.Contains(lower.String(e.Location), needle)
}
