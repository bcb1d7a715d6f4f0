package http

import (
	"LinkHub-Backend/internal/analytics"
	"LinkHub-Backend/internal/domain"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) appendEvent(linkID int64, kind domain.EventKind, at time.Time, country string) {
	ts.t.Helper()
	require.NoError(ts.t, ts.store.AppendEvent(context.Background(), &domain.VisitEvent{
		LinkID:     linkID,
		Kind:       kind,
		OccurredAt: at,
		Country:    country,
		DeviceType: domain.DeviceMobile,
		Browser:    "Safari",
	}))
}

func TestLinkAnalytics(t *testing.T) {
	ts := newTestServer(t)
	link := ts.createLink(standardOwner, multiLink("Stats"))
	now := time.Now()

	ts.appendEvent(link.ID, domain.EventView, now, "FR")
	ts.appendEvent(link.ID, domain.EventClick, now, "FR")
	ts.appendEvent(link.ID, domain.EventClick, now, "DE")
	ts.appendEvent(link.ID, domain.EventClick, now.AddDate(0, 0, -40), "DE") // outside 30d

	rec := ts.do(http.MethodGet, fmt.Sprintf("/analytics/%d?range=30d", link.ID), nil, standardOwner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rollup := decodeBody[analytics.Rollup](t, rec)
	assert.Len(t, rollup.Summary, 30)
	assert.Equal(t, int64(2), rollup.TotalClicks)
	assert.Equal(t, int64(1), rollup.TotalViews)
	require.NotEmpty(t, rollup.TopCountries)
	assert.Equal(t, analytics.LabelCount{Label: "FR", Count: 2}, rollup.TopCountries[0])
	assert.Len(t, rollup.HourlyDistribution, 24)
	assert.Equal(t, "UTC", rollup.Timezone)
}

func TestLinkAnalytics_ClampedToRetention(t *testing.T) {
	ts := newTestServer(t)
	link := ts.createLink(freeOwner, multiLink("Free Stats"))

	rec := ts.do(http.MethodGet, fmt.Sprintf("/analytics/%d?range=90d", link.ID), nil, freeOwner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[analytics.Rollup](t, rec).Summary, 7)
}

func TestLinkAnalytics_Errors(t *testing.T) {
	ts := newTestServer(t)
	link := ts.createLink(freeOwner, multiLink("Mine"))
	path := fmt.Sprintf("/analytics/%d", link.ID)

	rec := ts.do(http.MethodGet, path, nil, standardOwner)
	assert.Equal(t, http.StatusNotFound, rec.Code, "another owner's link")

	rec = ts.do(http.MethodGet, path, nil, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, query := range []string{"?range=abc", "?range=0d", "?from=2026-01-01", "?from=2026-13-01&to=2026-13-02", "?from=2026-02-10&to=2026-02-01"} {
		rec = ts.do(http.MethodGet, path+query, nil, freeOwner)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestOwnerAnalytics(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createLink(standardOwner, multiLink("First"))
	b := ts.createLink(standardOwner, multiLink("Second"))
	foreign := ts.createLink(freeOwner, multiLink("Foreign"))
	now := time.Now()

	ts.appendEvent(a.ID, domain.EventClick, now, "US")
	ts.appendEvent(b.ID, domain.EventClick, now, "US")
	ts.appendEvent(foreign.ID, domain.EventClick, now, "US")

	rec := ts.do(http.MethodGet, "/api/analytics", nil, standardOwner)
	require.Equal(t, http.StatusOK, rec.Code)
	rollup := decodeBody[analytics.Rollup](t, rec)
	assert.Equal(t, int64(2), rollup.TotalClicks)
	assert.Len(t, rollup.Summary, 7)

	// Owner without links gets an all-zero rollup
	rec = ts.do(http.MethodGet, "/api/analytics?range=30d", nil, premiumOwner)
	require.Equal(t, http.StatusOK, rec.Code)
	rollup = decodeBody[analytics.Rollup](t, rec)
	assert.Zero(t, rollup.TotalClicks)
	assert.Len(t, rollup.Summary, 30)
}

func TestParseRange(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	parse := func(query string) (analytics.Range, error) {
		return parseRange(httptest.NewRequest(http.MethodGet, "/x"+query, nil), now, time.UTC, 7)
	}

	rng, err := parse("")
	require.NoError(t, err)
	assert.Equal(t, 7, rng.Days())
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), rng.To)

	rng, err = parse("?range=30d")
	require.NoError(t, err)
	assert.Equal(t, 30, rng.Days())

	rng, err = parse("?from=2026-03-01&to=2026-03-03")
	require.NoError(t, err)
	assert.Equal(t, 3, rng.Days())

	_, err = parse("?range=1000d")
	assert.True(t, domain.IsValidation(err))

	_, err = parse("?to=2026-03-03")
	assert.True(t, domain.IsValidation(err))
}
