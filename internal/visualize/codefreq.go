package visualize

import (
	"context"
	"fmt"

	"github.com/sergeknystautas/gitviz/internal/api/contracts"
	"github.com/sergeknystautas/gitviz/internal/github"
)

// CodeFrequency returns weekly additions and deletions with running totals.
// While GitHub is still computing the statistics the error wraps
// github.ErrStatsPending.
func (r *Reporter) CodeFrequency(ctx context.Context, cred github.Credential, owner, repo string) (*contracts.CodeFrequencyResponse, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: repository owner and name are required", ErrInvalidRequest)
	}

	weeks, err := r.source.CodeFrequency(ctx, cred, owner, repo)
	if err != nil {
		r.logger.Warn("code frequency failed", "repo", owner+"/"+repo, "err", err)
		return nil, fmt.Errorf("code frequency: %w", err)
	}

	resp := &contracts.CodeFrequencyResponse{
		WeeklyData:     make([]contracts.CodeFrequencyWeek, 0, len(weeks)),
		CumulativeData: make([]contracts.CodeFrequencyTotal, 0, len(weeks)),
	}
	var adds, dels int64
	for _, w := range weeks {
		week := w.Week().Format(dateLayout)
		d := abs(w.Deletions())
		adds += w.Additions()
		dels += d

		resp.WeeklyData = append(resp.WeeklyData, contracts.CodeFrequencyWeek{
			Week:      week,
			Additions: w.Additions(),
			Deletions: d,
		})
		resp.CumulativeData = append(resp.CumulativeData, contracts.CodeFrequencyTotal{
			Week:           week,
			TotalAdditions: adds,
			TotalDeletions: dels,
		})
	}
	resp.Summary = contracts.CodeFrequencySummary{TotalAdditions: adds, TotalDeletions: dels}
	return resp, nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
