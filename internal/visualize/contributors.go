package visualize

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sergeknystautas/gitviz/internal/api/contracts"
	"github.com/sergeknystautas/gitviz/internal/github"
)

// ContributorActivity buckets commits inside the window by date and author
// and joins them against the repository's contributor list.
func (r *Reporter) ContributorActivity(ctx context.Context, cred github.Credential, owner, repo, rangeKey string) (*contracts.ContributorActivityResponse, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: repository owner and name are required", ErrInvalidRequest)
	}
	window := ParseRangeKey(rangeKey).Window(r.now())

	var (
		contributors []github.Contributor
		commits      []github.Commit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cs, err := r.source.ListContributors(gctx, cred, owner, repo)
		if err != nil {
			return fmt.Errorf("list contributors: %w", err)
		}
		contributors = cs
		return nil
	})
	g.Go(func() error {
		cs, err := r.source.ListCommits(gctx, cred, owner, repo, github.CommitListOptions{
			Since: window.Since(),
			Until: window.Until(),
		})
		if err != nil {
			return fmt.Errorf("list commits: %w", err)
		}
		commits = cs
		return nil
	})
	if err := g.Wait(); err != nil {
		r.logger.Warn("contributor activity failed", "repo", owner+"/"+repo, "err", err)
		return nil, err
	}

	perAuthor := map[string]map[string]int{}
	days := map[string]*contracts.CommitDay{}
	seen := map[string]bool{}
	for _, c := range commits {
		if seen[c.SHA] || c.Commit.Author == nil {
			continue
		}
		seen[c.SHA] = true

		author := commitAuthorKey(c)
		date := c.Commit.Author.Date.UTC().Format(dateLayout)

		d, ok := days[date]
		if !ok {
			d = &contracts.CommitDay{Date: date, ByAuthor: map[string]int{}}
			days[date] = d
		}
		d.TotalCommits++
		d.ByAuthor[author]++

		if perAuthor[author] == nil {
			perAuthor[author] = map[string]int{}
		}
		perAuthor[author][date]++
	}

	resp := &contracts.ContributorActivityResponse{
		TimeRange:           window.Contract(),
		ContributionSummary: []contracts.ContributorSummary{},
		TimeSeriesData:      make([]contracts.CommitDay, 0, len(days)),
	}
	for _, d := range days {
		resp.TimeSeriesData = append(resp.TimeSeriesData, *d)
	}
	sort.Slice(resp.TimeSeriesData, func(i, j int) bool {
		return resp.TimeSeriesData[i].Date < resp.TimeSeriesData[j].Date
	})

	for _, c := range contributors {
		byDate, ok := perAuthor[c.Login]
		if !ok {
			continue
		}
		s := contracts.ContributorSummary{
			ID:                 c.ID,
			Login:              c.Login,
			AvatarURL:          c.AvatarURL,
			TotalContributions: c.Contributions,
			Activity:           make([]contracts.ContributorDay, 0, len(byDate)),
		}
		for date, n := range byDate {
			s.TotalCommits += n
			s.CommitsInTimeRange += n
			s.Activity = append(s.Activity, contracts.ContributorDay{Date: date, Commits: n})
		}
		sort.Slice(s.Activity, func(i, j int) bool { return s.Activity[i].Date < s.Activity[j].Date })
		resp.ContributionSummary = append(resp.ContributionSummary, s)
	}
	sort.SliceStable(resp.ContributionSummary, func(i, j int) bool {
		a, b := resp.ContributionSummary[i], resp.ContributionSummary[j]
		if a.CommitsInTimeRange != b.CommitsInTimeRange {
			return a.CommitsInTimeRange > b.CommitsInTimeRange
		}
		return a.Login < b.Login
	})

	r.logger.Debug("contributor activity built", "repo", owner+"/"+repo, "commits", len(seen), "contributors", len(resp.ContributionSummary))
	return resp, nil
}

// commitAuthorKey is the account login, or the git author name for commits
// not linked to an account.
func commitAuthorKey(c github.Commit) string {
	if c.Author != nil && c.Author.Login != "" {
		return c.Author.Login
	}
	return c.Commit.Author.Name
}
