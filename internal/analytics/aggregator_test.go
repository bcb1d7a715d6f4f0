package analytics

import (
	"LinkHub-Backend/internal/domain"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func day(loc *time.Location, d, h int) time.Time {
	return time.Date(2026, 5, d, h, 15, 0, 0, loc)
}

func TestAggregate_ZeroDaysIncluded(t *testing.T) {
	agg := NewAggregator(time.UTC, 5)
	rng, err := NewRange(day(time.UTC, 1, 0), day(time.UTC, 7, 0), time.UTC)
	require.NoError(t, err)

	events := []domain.VisitEvent{
		{ID: 1, LinkID: 1, Kind: domain.EventClick, OccurredAt: day(time.UTC, 2, 9)},
		{ID: 2, LinkID: 1, Kind: domain.EventView, OccurredAt: day(time.UTC, 2, 9)},
		{ID: 3, LinkID: 1, Kind: domain.EventClick, OccurredAt: day(time.UTC, 6, 22)},
	}
	r := agg.Aggregate(events, rng)

	require.Len(t, r.Summary, 7)
	assert.Equal(t, "2026-05-01", r.Summary[0].Date)
	assert.Equal(t, "2026-05-07", r.Summary[6].Date)
	assert.Equal(t, DailyCount{Date: "2026-05-02", Clicks: 1, Views: 1}, r.Summary[1])
	assert.Equal(t, DailyCount{Date: "2026-05-03"}, r.Summary[2])
	assert.Equal(t, int64(2), r.TotalClicks)
	assert.Equal(t, int64(1), r.TotalViews)

	assert.Len(t, r.HourlyDistribution, 24)
	assert.Equal(t, int64(2), r.HourlyDistribution[9])
	assert.Equal(t, int64(1), r.HourlyDistribution[22])
	assert.Equal(t, int64(0), r.HourlyDistribution[0])
}

func TestAggregate_CountsMatchEvents(t *testing.T) {
	agg := NewAggregator(time.UTC, 3)
	rng := LastDays(3, day(time.UTC, 10, 12), time.UTC)

	var events []domain.VisitEvent
	for i := 0; i < 40; i++ {
		kind := domain.EventClick
		if i%4 == 0 {
			kind = domain.EventView
		}
		events = append(events, domain.VisitEvent{
			ID:         int64(i + 1),
			Kind:       kind,
			OccurredAt: day(time.UTC, 8+i%3, i%24),
			Country:    []string{"FR", "US", ""}[i%3],
			DeviceType: "mobile",
			Browser:    "Safari",
		})
	}
	r := agg.Aggregate(events, rng)

	var daily, hourly int64
	for _, d := range r.Summary {
		daily += d.Clicks + d.Views
	}
	for _, c := range r.HourlyDistribution {
		hourly += c
	}
	assert.Equal(t, int64(len(events)), daily)
	assert.Equal(t, int64(len(events)), hourly)
	assert.Equal(t, int64(len(events)), r.TotalClicks+r.TotalViews)
	assert.Contains(t, r.TopCountries, LabelCount{Label: "unknown", Count: 13})
}

func TestAggregate_IgnoresEventsOutsideRange(t *testing.T) {
	agg := NewAggregator(time.UTC, 5)
	rng, err := NewRange(day(time.UTC, 3, 0), day(time.UTC, 3, 0), time.UTC)
	require.NoError(t, err)

	events := []domain.VisitEvent{
		{ID: 1, Kind: domain.EventClick, OccurredAt: time.Date(2026, 5, 2, 23, 59, 59, 0, time.UTC)},
		{ID: 2, Kind: domain.EventClick, OccurredAt: time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)},
		{ID: 3, Kind: domain.EventClick, OccurredAt: time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)},
	}
	r := agg.Aggregate(events, rng)
	assert.Equal(t, int64(1), r.TotalClicks)
	require.Len(t, r.Summary, 1)
}

func TestAggregate_UsesConfiguredZone(t *testing.T) {
	paris := mustLoad(t, "Europe/Paris")
	agg := NewAggregator(paris, 5)
	rng, err := NewRange(day(paris, 1, 12), day(paris, 2, 12), paris)
	require.NoError(t, err)

	// 22:30 UTC on May 1st is 00:30 on May 2nd in Paris (UTC+2)
	ev := domain.VisitEvent{ID: 1, Kind: domain.EventClick, OccurredAt: time.Date(2026, 5, 1, 22, 30, 0, 0, time.UTC)}
	r := agg.Aggregate([]domain.VisitEvent{ev}, rng)

	assert.Equal(t, int64(0), r.Summary[0].Clicks)
	assert.Equal(t, int64(1), r.Summary[1].Clicks)
	assert.Equal(t, int64(1), r.HourlyDistribution[0])
	assert.Equal(t, "Europe/Paris", r.Timezone)
}

func TestAggregate_TopNTieBreak(t *testing.T) {
	agg := NewAggregator(time.UTC, 2)
	rng := LastDays(1, day(time.UTC, 5, 12), time.UTC)

	mk := func(id int64, browser string) domain.VisitEvent {
		return domain.VisitEvent{ID: id, Kind: domain.EventClick, OccurredAt: day(time.UTC, 5, 1), Browser: browser}
	}
	events := []domain.VisitEvent{mk(1, "Firefox"), mk(2, "Chrome"), mk(3, "Safari"), mk(4, "Safari")}
	r := agg.Aggregate(events, rng)

	assert.Equal(t, []LabelCount{{"Safari", 2}, {"Chrome", 1}}, r.TopBrowsers)
}

func TestAggregate_Deterministic(t *testing.T) {
	agg := NewAggregator(time.UTC, 5)
	rng := LastDays(7, day(time.UTC, 10, 0), time.UTC)
	events := []domain.VisitEvent{
		{ID: 1, Kind: domain.EventClick, OccurredAt: day(time.UTC, 9, 3), Country: "DE", DeviceType: "desktop", Browser: "Chrome"},
		{ID: 2, Kind: domain.EventClick, OccurredAt: day(time.UTC, 9, 4), Country: "FR", DeviceType: "mobile", Browser: "Safari"},
		{ID: 3, Kind: domain.EventView, OccurredAt: day(time.UTC, 5, 4), Country: "FR", DeviceType: "mobile", Browser: "Safari", Decision: domain.DecisionBlocked},
	}

	a, err := json.Marshal(agg.Aggregate(events, rng))
	require.NoError(t, err)
	b, err := json.Marshal(agg.Aggregate(events, rng))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Contains(t, string(a), `"top_countries":[["DE",1],["FR",1]]`)
	assert.Contains(t, string(a), `"blocked":1`)
}

func TestAggregate_BlockedVisitsOnlyCountedAsBlocked(t *testing.T) {
	agg := NewAggregator(time.UTC, 5)
	rng := LastDays(7, day(time.UTC, 10, 0), time.UTC)
	bot := func(id int64) domain.VisitEvent {
		return domain.VisitEvent{ID: id, Kind: domain.EventClick, OccurredAt: day(time.UTC, 8, 3),
			Country: "CN", DeviceType: domain.DeviceBot, Browser: "HeadlessChrome", Decision: domain.DecisionBlocked}
	}
	events := []domain.VisitEvent{
		bot(1),
		bot(2),
		{ID: 3, Kind: domain.EventClick, OccurredAt: day(time.UTC, 8, 14), Country: "DE", DeviceType: domain.DeviceDesktop, Browser: "Firefox", Decision: "delay"},
	}
	r := agg.Aggregate(events, rng)

	assert.Equal(t, int64(1), r.TotalClicks)
	assert.Equal(t, int64(0), r.TotalViews)
	assert.Equal(t, int64(2), r.Blocked)
	assert.Equal(t, int64(1), r.Summary[4].Clicks, "only the human click lands on 2026-05-08")
	assert.Equal(t, int64(0), r.HourlyDistribution[3])
	assert.Equal(t, int64(1), r.HourlyDistribution[14])
	assert.Equal(t, []LabelCount{{domain.DeviceDesktop, 1}}, r.TopDevices)
	assert.Equal(t, []LabelCount{{"DE", 1}}, r.TopCountries)
	assert.Equal(t, []LabelCount{{"Firefox", 1}}, r.TopBrowsers)
}

func TestNewRange_RejectsReversed(t *testing.T) {
	_, err := NewRange(day(time.UTC, 5, 0), day(time.UTC, 4, 0), time.UTC)
	assert.Error(t, err)
}

func TestRange_DaysAcrossDST(t *testing.T) {
	paris := mustLoad(t, "Europe/Paris")
	// DST starts on the last Sunday of March
	rng, err := NewRange(time.Date(2026, 3, 28, 12, 0, 0, 0, paris), time.Date(2026, 3, 30, 12, 0, 0, 0, paris), paris)
	require.NoError(t, err)
	assert.Equal(t, 3, rng.Days())

	r := NewAggregator(paris, 5).Aggregate(nil, rng)
	require.Len(t, r.Summary, 3)
	assert.Equal(t, "2026-03-29", r.Summary[1].Date)
}

func TestLabelCount_JSONRoundTrip(t *testing.T) {
	var lc LabelCount
	require.NoError(t, json.Unmarshal([]byte(`["mobile", 12]`), &lc))
	assert.Equal(t, LabelCount{Label: "mobile", Count: 12}, lc)
	assert.Error(t, json.Unmarshal([]byte(`["mobile"]`), &lc))
}
