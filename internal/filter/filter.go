// Package filter evaluates the list-screen filter criteria over fetched item
// slices. Filtering happens in memory against the full fetched list; the data
// store is never asked to filter.
package filter

import (
	"strings"

	"github.com/dugoutapp/dugout/internal/domain"
)

// Criteria is a set of independently optional predicates combined with AND.
// Empty fields impose no constraint. Team and Location match exactly
// (case-sensitive); ColorDesign and Player match as case-insensitive
// substrings, and an item whose field is empty never matches a non-empty
// substring criterion.
type Criteria struct {
	Team        string
	ColorDesign string
	Location    string
	Player      string
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// Apply returns the items satisfying every supplied criterion, preserving the
// input order. The input slice is never mutated.
func Apply(items []*domain.Item, c Criteria) []*domain.Item {
	if c.IsZero() {
		return items
	}

	out := make([]*domain.Item, 0, len(items))
	for _, item := range items {
		if Matches(item, c) {
			out = append(out, item)
		}
	}
	return out
}

// Matches reports whether a single item satisfies all supplied criteria.
func Matches(item *domain.Item, c Criteria) bool {
	if c.Team != "" && item.Team != c.Team {
		return false
	}
	if c.Location != "" && item.Location != c.Location {
		return false
	}
	if c.ColorDesign != "" && !containsFold(item.ColorDesign, c.ColorDesign) {
		return false
	}
	if c.Player != "" && !containsFold(item.Player, c.Player) {
		return false
	}
	return true
}

func containsFold(value, query string) bool {
	if value == "" {
		return false
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(query))
}
