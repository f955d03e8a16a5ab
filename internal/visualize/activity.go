package visualize

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/sergeknystautas/gitviz/internal/api/contracts"
	"github.com/sergeknystautas/gitviz/internal/github"
)

// maxListedPullRequests caps the pullRequests array of the activity response.
const maxListedPullRequests = 50

// Pull request states accepted by PullRequestActivity.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// ActivitySource is the upstream data the activity reports are built from.
type ActivitySource interface {
	ListPullRequests(ctx context.Context, cred github.Credential, owner, repo string, opts github.PullListOptions) ([]github.PullRequest, error)
	SearchIssueCount(ctx context.Context, cred github.Credential, query string) (int, error)
	ListContributors(ctx context.Context, cred github.Credential, owner, repo string) ([]github.Contributor, error)
	ListCommits(ctx context.Context, cred github.Credential, owner, repo string, opts github.CommitListOptions) ([]github.Commit, error)
	CodeFrequency(ctx context.Context, cred github.Credential, owner, repo string) ([]github.CodeFrequencyWeek, error)
}

// Reporter produces the pull request, contributor and code frequency
// visualizations.
type Reporter struct {
	source ActivitySource
	logger *log.Logger
	now    func() time.Time
}

// NewReporter creates a reporter reading from source.
func NewReporter(source ActivitySource, logger *log.Logger) *Reporter {
	return &Reporter{
		source: source,
		logger: orDefault(logger).WithPrefix("activity"),
		now:    time.Now,
	}
}

// ParsePullState validates a pull request state filter. Empty means all.
func ParsePullState(s string) (string, error) {
	switch s {
	case "":
		return StateAll, nil
	case StateOpen, StateClosed, StateAll:
		return s, nil
	}
	return "", fmt.Errorf("%w: state must be one of open, closed, all (got %q)", ErrInvalidRequest, s)
}

// PullRequestActivity summarizes pull requests created inside the window.
// The closed and merged totals come from search so they count beyond the
// first listing page.
func (r *Reporter) PullRequestActivity(ctx context.Context, cred github.Credential, owner, repo, rangeKey, state string) (*contracts.PullRequestActivityResponse, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: repository owner and name are required", ErrInvalidRequest)
	}
	state, err := ParsePullState(state)
	if err != nil {
		return nil, err
	}
	window := ParseRangeKey(rangeKey).Window(r.now())

	var (
		pulls  []github.PullRequest
		closed int
		merged int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ps, err := r.source.ListPullRequests(gctx, cred, owner, repo, github.PullListOptions{
			State:     state,
			Sort:      "created",
			Direction: "desc",
		})
		if err != nil {
			return fmt.Errorf("list pull requests: %w", err)
		}
		pulls = ps
		return nil
	})
	g.Go(func() error {
		n, err := r.source.SearchIssueCount(gctx, cred, searchQuery(owner, repo, "is:closed", "closed", window))
		if err != nil {
			return fmt.Errorf("count closed pull requests: %w", err)
		}
		closed = n
		return nil
	})
	g.Go(func() error {
		n, err := r.source.SearchIssueCount(gctx, cred, searchQuery(owner, repo, "is:merged", "merged", window))
		if err != nil {
			return fmt.Errorf("count merged pull requests: %w", err)
		}
		merged = n
		return nil
	})
	if err := g.Wait(); err != nil {
		r.logger.Warn("pull request activity failed", "repo", owner+"/"+repo, "err", err)
		return nil, err
	}

	var inWindow []github.PullRequest
	for _, p := range pulls {
		if window.Contains(p.CreatedAt) {
			inWindow = append(inWindow, p)
		}
	}

	resp := &contracts.PullRequestActivityResponse{
		TimeRange: window.Contract(),
		Summary: contracts.PullRequestSummary{
			Total:  len(inWindow),
			Closed: closed,
			Merged: merged,
		},
		ByAuthor:     []contracts.PullRequestAuthor{},
		TimeSeries:   []contracts.PullRequestDay{},
		PullRequests: []contracts.PullRequestListing{},
	}

	authors := map[string]*contracts.PullRequestAuthor{}
	days := map[string]*contracts.PullRequestDay{}
	for _, p := range inWindow {
		status := pullStatus(p)
		if status == StateOpen {
			resp.Summary.Open++
		}

		login := prAuthor(p.User).Login
		a, ok := authors[login]
		if !ok {
			a = &contracts.PullRequestAuthor{Author: login, AvatarURL: prAuthor(p.User).AvatarURL}
			authors[login] = a
		}
		a.Total++

		date := p.CreatedAt.UTC().Format(dateLayout)
		d, ok := days[date]
		if !ok {
			d = &contracts.PullRequestDay{Date: date}
			days[date] = d
		}
		d.Total++

		switch status {
		case StateOpen:
			a.Open++
			d.Open++
		case "merged":
			a.Merged++
			d.Merged++
		case StateClosed:
			a.Closed++
			d.Closed++
		}
	}

	for _, a := range authors {
		resp.ByAuthor = append(resp.ByAuthor, *a)
	}
	sort.Slice(resp.ByAuthor, func(i, j int) bool {
		if resp.ByAuthor[i].Total != resp.ByAuthor[j].Total {
			return resp.ByAuthor[i].Total > resp.ByAuthor[j].Total
		}
		return resp.ByAuthor[i].Author < resp.ByAuthor[j].Author
	})

	for _, d := range days {
		resp.TimeSeries = append(resp.TimeSeries, *d)
	}
	sort.Slice(resp.TimeSeries, func(i, j int) bool {
		return resp.TimeSeries[i].Date < resp.TimeSeries[j].Date
	})

	for i, p := range inWindow {
		if i == maxListedPullRequests {
			break
		}
		resp.PullRequests = append(resp.PullRequests, pullListing(p))
	}

	r.logger.Debug("pull request activity built", "repo", owner+"/"+repo, "state", state, "total", resp.Summary.Total)
	return resp, nil
}

func searchQuery(owner, repo, qualifier, dateField string, w Window) string {
	return fmt.Sprintf("repo:%s/%s is:pr %s %s:%s..%s", owner, repo, qualifier, dateField, w.StartDate(), w.EndDate())
}

// pullStatus is "open", "merged" or "closed".
func pullStatus(p github.PullRequest) string {
	switch {
	case p.State == StateOpen:
		return StateOpen
	case p.IsMerged():
		return "merged"
	default:
		return StateClosed
	}
}

func pullListing(p github.PullRequest) contracts.PullRequestListing {
	l := contracts.PullRequestListing{
		ID:        p.ID,
		Number:    p.Number,
		Title:     p.Title,
		State:     p.State,
		CreatedAt: formatTimestamp(p.CreatedAt),
		UpdatedAt: formatTimestamp(p.UpdatedAt),
		User:      prAuthor(p.User),
		Base:      p.Base.Ref,
		Head:      p.Head.Ref,
	}
	if p.ClosedAt != nil {
		l.ClosedAt = formatTimestamp(*p.ClosedAt)
	}
	if p.MergedAt != nil {
		l.MergedAt = formatTimestamp(*p.MergedAt)
	}
	return l
}
