// Package dashboard computes the summary projections shown on the home
// screen. Everything is recomputed from the current in-memory item lists on
// each request; there is no incremental aggregation to invalidate.
package dashboard

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dugoutapp/dugout/internal/domain"
)

// TypeFilter narrows the dashboard to one merchandise kind. It empties the
// opposite kind's list wholesale before the other projections run, rather
// than filtering per item.
type TypeFilter string

const (
	TypeAll     TypeFilter = "all"
	TypeHats    TypeFilter = "hats"
	TypeJerseys TypeFilter = "jerseys"
)

// recentLimit is how many merged items the recent view keeps.
const recentLimit = 12

type BinCount struct {
	Bin   string
	Count int
}

type TeamCount struct {
	Team  string
	Count int
}

type Stats struct {
	TotalHats    int
	TotalJerseys int
	TotalItems   int
	// BinCounts has one entry per configured bin, in enumeration order;
	// bins with no hats report zero rather than being omitted.
	BinCounts []BinCount
	// TeamCounts is the full descending-count list; the chart renders only
	// the top entries (see TopTeams).
	TeamCounts []TeamCount
	// Recent holds the newest items across both kinds, newest first, at most
	// recentLimit entries.
	Recent []*domain.Item
}

// itemLister is the subset of store.ItemStore the dashboard needs.
type itemLister interface {
	ListByKind(ctx context.Context, kind domain.Kind) ([]*domain.Item, error)
}

// Load fetches both item lists concurrently. If either fetch fails, neither
// list is returned; the dashboard shows an error rather than a partial
// aggregate.
func Load(ctx context.Context, store itemLister) (hats, jerseys []*domain.Item, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hats, err = store.ListByKind(ctx, domain.KindHat)
		return err
	})
	g.Go(func() error {
		var err error
		jerseys, err = store.ListByKind(ctx, domain.KindJersey)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return hats, jerseys, nil
}

// Compute builds the dashboard projections from already-filtered hat and
// jersey lists. Bin counts always reflect the filtered hats regardless of the
// type filter; the remaining projections see the type-narrowed lists.
func Compute(hats, jerseys []*domain.Item, bins []string, typeFilter TypeFilter) *Stats {
	displayHats := hats
	displayJerseys := jerseys
	switch typeFilter {
	case TypeHats:
		displayJerseys = nil
	case TypeJerseys:
		displayHats = nil
	}

	stats := &Stats{
		TotalHats:    len(displayHats),
		TotalJerseys: len(displayJerseys),
		TotalItems:   len(displayHats) + len(displayJerseys),
		BinCounts:    binCounts(hats, bins),
		TeamCounts:   teamCounts(displayHats, displayJerseys),
		Recent:       recent(displayHats, displayJerseys),
	}
	return stats
}

// TopTeams returns at most n leading entries of TeamCounts.
func (s *Stats) TopTeams(n int) []TeamCount {
	if len(s.TeamCounts) <= n {
		return s.TeamCounts
	}
	return s.TeamCounts[:n]
}

func binCounts(hats []*domain.Item, bins []string) []BinCount {
	counts := make([]BinCount, len(bins))
	for i, bin := range bins {
		counts[i].Bin = bin
	}
	index := make(map[string]int, len(bins))
	for i, bin := range bins {
		index[bin] = i
	}
	for _, hat := range hats {
		if i, ok := index[hat.Location]; ok {
			counts[i].Count++
		}
	}
	return counts
}

// teamCounts merges both lists keyed by exact team name and sorts descending
// by count. Ties keep first-encountered order, with hats enumerated before
// jerseys.
func teamCounts(hats, jerseys []*domain.Item) []TeamCount {
	index := make(map[string]int)
	var counts []TeamCount
	tally := func(items []*domain.Item) {
		for _, item := range items {
			if i, ok := index[item.Team]; ok {
				counts[i].Count++
				continue
			}
			index[item.Team] = len(counts)
			counts = append(counts, TeamCount{Team: item.Team, Count: 1})
		}
	}
	tally(hats)
	tally(jerseys)

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

func recent(hats, jerseys []*domain.Item) []*domain.Item {
	merged := make([]*domain.Item, 0, len(hats)+len(jerseys))
	merged = append(merged, hats...)
	merged = append(merged, jerseys...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	if len(merged) > recentLimit {
		merged = merged[:recentLimit]
	}
	return merged
}
