package analytics

import (
	"LinkHub-Backend/internal/domain"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
)

const dateLayout = "2006-01-02"

// DefaultTopN is used when the aggregator is created with a non-positive N.
const DefaultTopN = 5

// Range is an inclusive range of calendar days in the aggregator's zone.
type Range struct {
	From time.Time
	To   time.Time
}

// NewRange builds a range covering the calendar days of from and to in loc.
func NewRange(from, to time.Time, loc *time.Location) (Range, error) {
	f := startOfDay(from, loc)
	t := startOfDay(to, loc)
	if t.Before(f) {
		return Range{}, fmt.Errorf("range end %s is before start %s", t.Format(dateLayout), f.Format(dateLayout))
	}
	return Range{From: f, To: t}, nil
}

// LastDays returns the range of n days ending on the day containing now.
func LastDays(n int, now time.Time, loc *time.Location) Range {
	if n < 1 {
		n = 1
	}
	end := startOfDay(now, loc)
	return Range{From: end.AddDate(0, 0, -(n - 1)), To: end}
}

// Bounds returns the half-open instant interval [start, end) covered by the range.
func (r Range) Bounds() (time.Time, time.Time) {
	return r.From, r.To.AddDate(0, 0, 1)
}

// Days returns the number of calendar days in the range.
func (r Range) Days() int {
	n := 0
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// DailyCount is one entry of the daily summary.
type DailyCount struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
	Views  int64  `json:"views"`
}

// LabelCount is one ranked breakdown entry. It serialises as a [label, count] pair.
type LabelCount struct {
	Label string
	Count int64
}

func (lc LabelCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{lc.Label, lc.Count})
}

func (lc *LabelCount) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("expected [label, count], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &lc.Label); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &lc.Count)
}

// Rollup is the derived view of the event log over a range.
type Rollup struct {
	From               string        `json:"from"`
	To                 string        `json:"to"`
	Timezone           string        `json:"timezone"`
	Summary            []DailyCount  `json:"summary"`
	HourlyDistribution map[int]int64 `json:"hourly_distribution"`
	TopCountries       []LabelCount  `json:"top_countries"`
	TopDevices         []LabelCount  `json:"top_devices"`
	TopBrowsers        []LabelCount  `json:"top_browsers"`
	TotalClicks        int64         `json:"total_clicks"`
	TotalViews         int64         `json:"total_views"`
	Blocked            int64         `json:"blocked"`
}

// Aggregator rolls visit events up into summaries. It holds no state besides its
// configuration and is safe for concurrent use.
type Aggregator struct {
	loc  *time.Location
	topN int
}

// NewAggregator creates an aggregator that buckets days and hours in loc.
func NewAggregator(loc *time.Location, topN int) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Aggregator{loc: loc, topN: topN}
}

// Location returns the zone days and hours are computed in.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// Aggregate computes the rollup of events over rng. Events outside the range are
// ignored; every day of the range appears in the summary even without events.
func (a *Aggregator) Aggregate(events []domain.VisitEvent, rng Range) Rollup {
	from := startOfDay(rng.From, a.loc)
	to := startOfDay(rng.To, a.loc)
	start, end := from, to.AddDate(0, 0, 1)

	rollup := Rollup{
		From:               from.Format(dateLayout),
		To:                 to.Format(dateLayout),
		Timezone:           a.loc.String(),
		Summary:            []DailyCount{},
		HourlyDistribution: make(map[int]int64, 24),
	}

	dayIndex := make(map[string]int)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		dayIndex[key] = len(rollup.Summary)
		rollup.Summary = append(rollup.Summary, DailyCount{Date: key})
	}
	for h := 0; h < 24; h++ {
		rollup.HourlyDistribution[h] = 0
	}

	countries := make(map[string]int64)
	devices := make(map[string]int64)
	browsers := make(map[string]int64)

	for i := range events {
		ev := &events[i]
		if ev.OccurredAt.Before(start) || !ev.OccurredAt.Before(end) {
			continue
		}
		local := ev.OccurredAt.In(a.loc)
		idx, ok := dayIndex[local.Format(dateLayout)]
		if !ok {
			continue
		}

		if ev.Blocked() {
			rollup.Blocked++
			continue
		}

		switch ev.Kind {
		case domain.EventClick:
			rollup.Summary[idx].Clicks++
			rollup.TotalClicks++
		case domain.EventView:
			rollup.Summary[idx].Views++
			rollup.TotalViews++
		default:
			continue
		}

		rollup.HourlyDistribution[local.Hour()]++
		countries[labelOrUnknown(ev.Country)]++
		devices[labelOrUnknown(ev.DeviceType)]++
		browsers[labelOrUnknown(ev.Browser)]++
	}

	rollup.TopCountries = topN(countries, a.topN)
	rollup.TopDevices = topN(devices, a.topN)
	rollup.TopBrowsers = topN(browsers, a.topN)
	return rollup
}

// topN ranks counts descending, ties broken by label, and keeps the first n.
func topN(counts map[string]int64, n int) []LabelCount {
	entries := lo.Map(lo.Entries(counts), func(e lo.Entry[string, int64], _ int) LabelCount {
		return LabelCount{Label: e.Key, Count: e.Value}
	})
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func labelOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
