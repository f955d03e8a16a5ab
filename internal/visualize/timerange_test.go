package visualize

import (
	"testing"
	"time"
)

func TestRangeKeyWindow(t *testing.T) {
	now := time.Date(2024, 3, 15, 17, 42, 0, 0, time.UTC)

	tests := []struct {
		key       string
		wantStart string
	}{
		{"1w", "2024-03-08"},
		{"1m", "2024-02-15"},
		{"3m", "2023-12-15"},
		{"6m", "2023-09-15"},
		{"1y", "2023-03-15"},
		{"bogus", "2023-12-15"},
		{"", "2023-12-15"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			w := ParseRangeKey(tt.key).Window(now)
			if got := w.StartDate(); got != tt.wantStart {
				t.Errorf("StartDate() = %q, want %q", got, tt.wantStart)
			}
			if got := w.EndDate(); got != "2024-03-15" {
				t.Errorf("EndDate() = %q, want 2024-03-15", got)
			}
		})
	}
}

func TestWindowBoundsAreUTCDays(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	// 2024-03-16 01:00 in UTC+9 is still 2024-03-15 in UTC.
	now := time.Date(2024, 3, 16, 1, 0, 0, 0, loc)

	w := Range1M.Window(now)
	if w.EndDate() != "2024-03-15" {
		t.Fatalf("EndDate() = %q, want 2024-03-15", w.EndDate())
	}
	if got := w.Since().Format(time.RFC3339); got != "2024-02-15T00:00:00Z" {
		t.Errorf("Since() = %s", got)
	}
	if got := w.Until().Format(time.RFC3339); got != "2024-03-15T23:59:59Z" {
		t.Errorf("Until() = %s", got)
	}
}

func TestWindowContains(t *testing.T) {
	w := Range1W.Window(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	cases := map[string]bool{
		"2024-03-07T23:59:59Z": false,
		"2024-03-08T00:00:00Z": true,
		"2024-03-15T23:59:59Z": true,
		"2024-03-16T00:00:00Z": false,
	}
	for ts, want := range cases {
		tm, _ := time.Parse(time.RFC3339, ts)
		if got := w.Contains(tm); got != want {
			t.Errorf("Contains(%s) = %v, want %v", ts, got, want)
		}
	}
}

func TestMonthOffsetNormalizes(t *testing.T) {
	// AddDate normalizes Feb 31 to Mar 2 in a leap year.
	w := Range1M.Window(time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC))
	if w.StartDate() != "2024-03-02" {
		t.Errorf("StartDate() = %q, want 2024-03-02", w.StartDate())
	}
}
