package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/models"
	"github.com/gridsync-io/gridsync-engine/pkg/repositories"
)

// AggregationQuery selects the table to aggregate and how to find its
// fields. Hints are matched against the synced rows' variable names; empty
// hints and noise token fall back to the service defaults. Zero Start/End
// leave that side of the date filter open.
type AggregationQuery struct {
	ConnectionID uuid.UUID `json:"connection_id"`
	DatabaseID   uuid.UUID `json:"database_id"`
	TableID      uuid.UUID `json:"table_id"`

	AmountHint   string `json:"amount_hint,omitempty"`
	DateHint     string `json:"date_hint,omitempty"`
	LocationHint string `json:"location_hint,omitempty"`
	NoiseToken   string `json:"noise_token,omitempty"`

	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// LocationSummary is one location's share of the total.
type LocationSummary struct {
	Name    string  `json:"name"`
	Total   float64 `json:"total"`
	Percent float64 `json:"percent"`
}

// DashboardSummary is the aggregation result. Resolved field names are
// included so the caller can tell which columns fed the numbers.
type DashboardSummary struct {
	Total         float64           `json:"total"`
	RowCount      int               `json:"row_count"`
	AmountField   string            `json:"amount_field,omitempty"`
	DateField     string            `json:"date_field,omitempty"`
	LocationField string            `json:"location_field,omitempty"`
	Locations     []LocationSummary `json:"locations,omitempty"`
}

// DashboardService reduces a table's synced rows into KPI numbers. Field
// resolution is best effort: an unresolvable amount field yields zero
// totals, an unresolvable date field disables the date filter, and an
// unresolvable location field yields no location breakdown. Aggregation
// itself never fails.
type DashboardService interface {
	Summarize(ctx context.Context, q *AggregationQuery) (*DashboardSummary, error)
}

type dashboardService struct {
	rowRepo      repositories.SyncedRowRepository
	defaultNoise string
	logger       *zap.Logger
}

// NewDashboardService creates a dashboard service. defaultNoise is the
// noise token used when a query does not carry its own.
func NewDashboardService(rowRepo repositories.SyncedRowRepository, defaultNoise string, logger *zap.Logger) DashboardService {
	return &dashboardService{rowRepo: rowRepo, defaultNoise: defaultNoise, logger: logger}
}

func (s *dashboardService) Summarize(ctx context.Context, q *AggregationQuery) (*DashboardSummary, error) {
	rows, err := s.rowRepo.List(ctx, q.ConnectionID, q.DatabaseID, q.TableID)
	if err != nil {
		return nil, err
	}

	amountHint := q.AmountHint
	if amountHint == "" {
		amountHint = "amount"
	}
	dateHint := q.DateHint
	if dateHint == "" {
		dateHint = "date"
	}
	locationHint := q.LocationHint
	if locationHint == "" {
		locationHint = "location"
	}
	noise := q.NoiseToken
	if noise == "" {
		noise = s.defaultNoise
	}

	candidates := fieldNames(rows)
	summary := &DashboardSummary{
		AmountField:   resolveField(candidates, amountHint, noise),
		DateField:     resolveField(candidates, dateHint, noise),
		LocationField: resolveField(candidates, locationHint, noise),
	}

	filterDates := (!q.Start.IsZero() || !q.End.IsZero()) && summary.DateField != ""
	byLocation := make(map[string]float64)

	for _, row := range rows {
		if filterDates {
			day, ok := parseDay(row.Fields[summary.DateField])
			if !ok || !withinDays(day, q.Start, q.End) {
				continue
			}
		}

		summary.RowCount++
		if summary.AmountField == "" {
			continue
		}
		amount := parseAmount(row.Fields[summary.AmountField])
		summary.Total += amount

		if summary.LocationField != "" {
			if loc := strings.TrimSpace(row.Fields[summary.LocationField]); loc != "" {
				byLocation[loc] += amount
			}
		}
	}

	for name, total := range byLocation {
		pct := 0.0
		if summary.Total != 0 {
			pct = total / summary.Total * 100
		}
		summary.Locations = append(summary.Locations, LocationSummary{Name: name, Total: total, Percent: pct})
	}
	// Largest share first; name breaks ties deterministically.
	sort.Slice(summary.Locations, func(i, j int) bool {
		if summary.Locations[i].Total != summary.Locations[j].Total {
			return summary.Locations[i].Total > summary.Locations[j].Total
		}
		return summary.Locations[i].Name < summary.Locations[j].Name
	})

	return summary, nil
}

// fieldNames returns the sorted union of variable names across rows.
func fieldNames(rows []*models.SyncedRow) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for name := range row.Fields {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveField picks the variable name best matching hint. Candidates
// without the noise token are tried first, suffix matches before substring
// matches, shortest match winning ties. Candidates are sorted before the
// tie-break so resolution never depends on map iteration order.
func resolveField(candidates []string, hint, noise string) string {
	if hint == "" || len(candidates) == 0 {
		return ""
	}
	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)

	var clean, noisy []string
	for _, c := range sorted {
		if noise != "" && strings.Contains(c, noise) {
			noisy = append(noisy, c)
		} else {
			clean = append(clean, c)
		}
	}

	for _, pool := range [][]string{clean, noisy} {
		if f := shortestMatch(pool, func(c string) bool { return strings.HasSuffix(c, hint) }); f != "" {
			return f
		}
		if f := shortestMatch(pool, func(c string) bool { return strings.Contains(c, hint) }); f != "" {
			return f
		}
	}
	return ""
}

func shortestMatch(pool []string, match func(string) bool) string {
	best := ""
	for _, c := range pool {
		if match(c) && (best == "" || len(c) < len(best)) {
			best = c
		}
	}
	return best
}

// parseAmount reads a cell as a number, tolerating currency symbols and
// thousands separators. Anything unparseable counts as zero.
func parseAmount(s string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '$', '€', '£', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

var dayFormats = []string{"01/02/2006", "2006-01-02", time.RFC3339}

// parseDay reads a cell as a calendar day.
func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// withinDays reports whether day falls in [start, end] inclusive by
// calendar day; a zero bound is open.
func withinDays(day, start, end time.Time) bool {
	y, m, d := day.Date()
	day = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if !start.IsZero() {
		y, m, d = start.Date()
		if day.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
			return false
		}
	}
	if !end.IsZero() {
		y, m, d = end.Date()
		if day.After(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
			return false
		}
	}
	return true
}

// Ensure dashboardService implements DashboardService at compile time.
var _ DashboardService = (*dashboardService)(nil)
