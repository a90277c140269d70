package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

func TestResolveField(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		hint       string
		noise      string
		want       string
	}{
		{
			name:       "exact suffix beats longer noisy alternative",
			candidates: []string{"x_total_book", "x_total_book_plus"},
			hint:       "book",
			noise:      "_plus",
			want:       "x_total_book",
		},
		{
			name:       "suffix preferred over substring",
			candidates: []string{"x_date_created", "x_booking_date"},
			hint:       "date",
			noise:      "_plus",
			want:       "x_booking_date",
		},
		{
			name:       "shortest match wins ties",
			candidates: []string{"a_very_long_name_amount", "a_amount"},
			hint:       "amount",
			noise:      "_plus",
			want:       "a_amount",
		},
		{
			name:       "noisy candidate used only as last resort",
			candidates: []string{"x_total_plus"},
			hint:       "total",
			noise:      "_plus",
			want:       "x_total_plus",
		},
		{
			name:       "no match",
			candidates: []string{"x_name", "x_city"},
			hint:       "amount",
			noise:      "_plus",
			want:       "",
		},
		{
			name:       "empty candidates",
			candidates: nil,
			hint:       "amount",
			noise:      "_plus",
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveField(tt.candidates, tt.hint, tt.noise)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 1234.5, parseAmount("1,234.50"))
	assert.Equal(t, 1200.0, parseAmount("$1,200"))
	assert.Equal(t, 99.0, parseAmount(" 99 "))
	assert.Equal(t, 0.0, parseAmount("n/a"))
	assert.Equal(t, 0.0, parseAmount(""))
	assert.Equal(t, -50.0, parseAmount("-50"))
}

func TestParseDay(t *testing.T) {
	d, ok := parseDay("03/15/2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), d)

	d, ok = parseDay("2024-03-15")
	require.True(t, ok)
	assert.Equal(t, 2024, d.Year())

	_, ok = parseDay("not a date")
	assert.False(t, ok)

	_, ok = parseDay("")
	assert.False(t, ok)
}

func dashboardRows() []*models.SyncedRow {
	return []*models.SyncedRow{
		{DocID: "1", Fields: map[string]string{
			"c_d_t_total_book": "1,000", "c_d_t_date": "03/01/2024", "c_d_t_location": "Berlin",
		}},
		{DocID: "2", Fields: map[string]string{
			"c_d_t_total_book": "500", "c_d_t_date": "03/10/2024", "c_d_t_location": "Berlin",
		}},
		{DocID: "3", Fields: map[string]string{
			"c_d_t_total_book": "1,500", "c_d_t_date": "04/01/2024", "c_d_t_location": "Paris",
		}},
	}
}

func TestDashboard_Summarize(t *testing.T) {
	repo := &fakeRowRepo{rows: dashboardRows()}
	svc := NewDashboardService(repo, "_plus", zap.NewNop())

	summary, err := svc.Summarize(context.Background(), &AggregationQuery{
		ConnectionID: uuid.New(),
		DatabaseID:   uuid.New(),
		TableID:      uuid.New(),
		AmountHint:   "book",
		DateHint:     "date",
		LocationHint: "location",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.RowCount)
	assert.Equal(t, 3000.0, summary.Total)
	assert.Equal(t, "c_d_t_total_book", summary.AmountField)

	require.Len(t, summary.Locations, 2)
	assert.Equal(t, "Berlin", summary.Locations[0].Name)
	assert.Equal(t, 1500.0, summary.Locations[0].Total)
	assert.Equal(t, 50.0, summary.Locations[0].Percent)
	assert.Equal(t, "Paris", summary.Locations[1].Name)
}

func TestDashboard_DateFilterInclusive(t *testing.T) {
	repo := &fakeRowRepo{rows: dashboardRows()}
	svc := NewDashboardService(repo, "_plus", zap.NewNop())

	summary, err := svc.Summarize(context.Background(), &AggregationQuery{
		AmountHint: "book",
		DateHint:   "date",
		Start:      time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC), // time of day ignored
		End:        time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.RowCount)
	assert.Equal(t, 1500.0, summary.Total)
}

func TestDashboard_DegradesWithoutResolvableFields(t *testing.T) {
	rows := []*models.SyncedRow{
		{DocID: "1", Fields: map[string]string{"c_d_t_name": "Alice"}},
		{DocID: "2", Fields: map[string]string{"c_d_t_name": "Bob"}},
	}
	repo := &fakeRowRepo{rows: rows}
	svc := NewDashboardService(repo, "_plus", zap.NewNop())

	summary, err := svc.Summarize(context.Background(), &AggregationQuery{
		AmountHint: "amount",
		DateHint:   "date",
		// Date filter requested but no date field exists: rows still count.
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.RowCount)
	assert.Equal(t, 0.0, summary.Total)
	assert.Empty(t, summary.AmountField)
	assert.Empty(t, summary.Locations)
}

func TestDashboard_EmptyTable(t *testing.T) {
	svc := NewDashboardService(&fakeRowRepo{}, "_plus", zap.NewNop())

	summary, err := svc.Summarize(context.Background(), &AggregationQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.RowCount)
	assert.Equal(t, 0.0, summary.Total)
}

func TestDashboard_NonNumericAmountsCountAsZero(t *testing.T) {
	rows := []*models.SyncedRow{
		{DocID: "1", Fields: map[string]string{"c_d_t_amount": "100"}},
		{DocID: "2", Fields: map[string]string{"c_d_t_amount": "pending"}},
	}
	svc := NewDashboardService(&fakeRowRepo{rows: rows}, "_plus", zap.NewNop())

	summary, err := svc.Summarize(context.Background(), &AggregationQuery{AmountHint: "amount"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, summary.Total)
	assert.Equal(t, 2, summary.RowCount)
}
