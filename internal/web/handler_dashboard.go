package web

import (
	"context"
	"net/http"

	"github.com/dugoutapp/dugout/internal/dashboard"
	"github.com/dugoutapp/dugout/internal/domain"
	"github.com/dugoutapp/dugout/internal/filter"
	"github.com/dugoutapp/dugout/internal/service"
)

// topTeamsShown is how many entries the team chart renders; the full ranking
// is computed regardless.
const topTeamsShown = 10

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	typeFilter := parseTypeFilter(r.URL.Query().Get("type"))
	criteria := parseCriteria(r)

	hats, jerseys, err := dashboard.Load(r.Context(), serviceLister{s.service})
	if err != nil {
		http.Error(w, "failed to load items", http.StatusInternalServerError)
		s.logger.Error("dashboard load failed", "error", err)
		return
	}

	stats := dashboard.Compute(
		filter.Apply(hats, criteria),
		filter.Apply(jerseys, criteria),
		s.service.Catalog().Bins,
		typeFilter,
	)

	// The dashboard spans both kinds, so its location filter offers the hat
	// bins and the jersey locations together.
	cat := s.service.Catalog()
	locations := make([]string, 0, len(cat.Bins)+len(cat.Locations))
	locations = append(locations, cat.Bins...)
	locations = append(locations, cat.Locations...)

	data := map[string]any{
		"Stats":      stats,
		"TopTeams":   stats.TopTeams(topTeamsShown),
		"TypeFilter": typeFilter,
		"Criteria":   criteria,
		"Teams":      cat.Teams,
		"Locations":  locations,
		"ActiveNav":  "dashboard",
	}

	if isHTMX(r) {
		if err := s.renderPartial(w, "dashboard_stats", data,
			"partials/dashboard_stats.html", "partials/item_card.html",
		); err != nil {
			s.logger.Error("render partial failed", "error", err)
		}
		return
	}

	if err := s.renderPage(w, data,
		"base.html", "pages/dashboard.html",
		"partials/dashboard_stats.html", "partials/item_card.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// serviceLister adapts ItemService to the lister the dashboard loads from.
type serviceLister struct {
	svc *service.ItemService
}

func (l serviceLister) ListByKind(ctx context.Context, kind domain.Kind) ([]*domain.Item, error) {
	return l.svc.ListItems(ctx, kind)
}

func parseTypeFilter(v string) dashboard.TypeFilter {
	switch dashboard.TypeFilter(v) {
	case dashboard.TypeHats:
		return dashboard.TypeHats
	case dashboard.TypeJerseys:
		return dashboard.TypeJerseys
	default:
		return dashboard.TypeAll
	}
}

// parseCriteria reads the shared filter query parameters. Absent parameters
// leave their criterion unset.
func parseCriteria(r *http.Request) filter.Criteria {
	q := r.URL.Query()
	return filter.Criteria{
		Team:        q.Get("team"),
		ColorDesign: q.Get("color"),
		Location:    q.Get("location"),
		Player:      q.Get("player"),
	}
}
