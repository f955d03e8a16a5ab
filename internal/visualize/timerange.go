package visualize

import (
	"time"

	"github.com/sergeknystautas/gitviz/internal/api/contracts"
)

// RangeKey selects a relative time window.
type RangeKey string

const (
	Range1W RangeKey = "1w"
	Range1M RangeKey = "1m"
	Range3M RangeKey = "3m"
	Range6M RangeKey = "6m"
	Range1Y RangeKey = "1y"

	DefaultRange = Range3M
)

const dateLayout = "2006-01-02"

type calendarOffset struct {
	years, months, days int
}

var rangeOffsets = map[RangeKey]calendarOffset{
	Range1W: {days: 7},
	Range1M: {months: 1},
	Range3M: {months: 3},
	Range6M: {months: 6},
	Range1Y: {years: 1},
}

// RangeKeys lists the accepted keys, shortest first.
func RangeKeys() []RangeKey {
	return []RangeKey{Range1W, Range1M, Range3M, Range6M, Range1Y}
}

// ParseRangeKey returns the key for s, or DefaultRange when s is not one of
// the accepted keys.
func ParseRangeKey(s string) RangeKey {
	k := RangeKey(s)
	if _, ok := rangeOffsets[k]; ok {
		return k
	}
	return DefaultRange
}

// Window is a [Start, End] pair of UTC calendar dates.
type Window struct {
	Start time.Time
	End   time.Time
}

// Window computes the window ending on now's UTC date. Offsets are calendar
// offsets, so "1m" from 2024-03-15 starts on 2024-02-15.
func (k RangeKey) Window(now time.Time) Window {
	off, ok := rangeOffsets[k]
	if !ok {
		off = rangeOffsets[DefaultRange]
	}
	now = now.UTC()
	start := now.AddDate(-off.years, -off.months, -off.days)
	return Window{Start: startOfDay(start), End: startOfDay(now)}
}

// Since is the first instant of the window.
func (w Window) Since() time.Time { return w.Start }

// Until is the last second of the window's end date.
func (w Window) Until() time.Time { return w.End.Add(24*time.Hour - time.Second) }

// Contains reports whether t falls inside [Since, Until].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Since()) && !t.After(w.Until())
}

func (w Window) StartDate() string { return w.Start.Format(dateLayout) }
func (w Window) EndDate() string   { return w.End.Format(dateLayout) }

// Contract converts the window to its wire form.
func (w Window) Contract() contracts.TimeRange {
	return contracts.TimeRange{StartDate: w.StartDate(), EndDate: w.EndDate()}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
