package visualize

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sergeknystautas/gitviz/internal/api/contracts"
	"github.com/sergeknystautas/gitviz/internal/github"
)

const (
	defaultCommitsPerPage = 30
	maxCommitsPerPage     = github.MaxPageSize
)

// CatalogSource is the upstream data the repository browser reads.
type CatalogSource interface {
	ListUserRepositories(ctx context.Context, cred github.Credential) ([]github.Repository, error)
	GetRepository(ctx context.Context, cred github.Credential, owner, repo string) (github.Repository, error)
	ListBranches(ctx context.Context, cred github.Credential, owner, repo string) ([]github.Branch, error)
	ListPullRequests(ctx context.Context, cred github.Credential, owner, repo string, opts github.PullListOptions) ([]github.PullRequest, error)
	ListCommits(ctx context.Context, cred github.Credential, owner, repo string, opts github.CommitListOptions) ([]github.Commit, error)
	ListContributors(ctx context.Context, cred github.Credential, owner, repo string) ([]github.Contributor, error)
}

// CommitQuery holds the raw commit listing filters of a request.
type CommitQuery struct {
	SHA     string
	Path    string
	Since   string
	Until   string
	PerPage string
}

// Catalog lists the caller's repositories and their branches, pull requests,
// commits and contributors, reshaped for the dashboard.
type Catalog struct {
	source CatalogSource
	logger *log.Logger
}

// NewCatalog creates a catalog reading from source.
func NewCatalog(source CatalogSource, logger *log.Logger) *Catalog {
	return &Catalog{source: source, logger: orDefault(logger).WithPrefix("catalog")}
}

// Repositories lists the repositories the credential can access, most
// recently updated first.
func (c *Catalog) Repositories(ctx context.Context, cred github.Credential) (*contracts.RepositoryListResponse, error) {
	repos, err := c.source.ListUserRepositories(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	out := make([]contracts.RepositoryInfo, 0, len(repos))
	for _, r := range repos {
		out = append(out, repositoryInfo(r))
	}
	return &contracts.RepositoryListResponse{Repositories: out}, nil
}

// Repository returns the metadata and counters of one repository.
func (c *Catalog) Repository(ctx context.Context, cred github.Credential, owner, repo string) (*contracts.RepositoryDetail, error) {
	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}
	r, err := c.source.GetRepository(ctx, cred, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}
	info := repositoryInfo(r)
	return &contracts.RepositoryDetail{
		ID:              info.ID,
		Name:            info.Name,
		FullName:        info.FullName,
		Description:     info.Description,
		Language:        info.Language,
		Visibility:      info.Visibility,
		IsArchived:      info.IsArchived,
		DefaultBranch:   info.DefaultBranch,
		HTMLURL:         info.HTMLURL,
		CreatedAt:       info.CreatedAt,
		UpdatedAt:       info.UpdatedAt,
		PushedAt:        info.PushedAt,
		ForksCount:      r.ForksCount,
		StargazersCount: r.StargazersCount,
		WatchersCount:   r.WatchersCount,
		OpenIssuesCount: r.OpenIssuesCount,
		Owner:           info.Owner,
	}, nil
}

// Branches lists the first page of branches.
func (c *Catalog) Branches(ctx context.Context, cred github.Credential, owner, repo string) ([]contracts.BranchInfo, error) {
	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}
	branches, err := c.source.ListBranches(ctx, cred, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	out := make([]contracts.BranchInfo, 0, len(branches))
	for _, b := range branches {
		out = append(out, contracts.BranchInfo{
			Name:      b.Name,
			Protected: b.Protected,
			Commit:    contracts.BranchHead{SHA: b.Commit.SHA, URL: b.Commit.URL},
		})
	}
	return out, nil
}

// PullRequests lists pull requests in state, most recently updated first.
// An empty state means all.
func (c *Catalog) PullRequests(ctx context.Context, cred github.Credential, owner, repo, state string) ([]contracts.PullRequestInfo, error) {
	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}
	state, err := ParsePullState(state)
	if err != nil {
		return nil, err
	}
	pulls, err := c.source.ListPullRequests(ctx, cred, owner, repo, github.PullListOptions{
		State:     state,
		Sort:      "updated",
		Direction: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("list pull requests: %w", err)
	}
	out := make([]contracts.PullRequestInfo, 0, len(pulls))
	for _, p := range pulls {
		out = append(out, contracts.PullRequestInfo{
			ID:        p.ID,
			Number:    p.Number,
			Title:     p.Title,
			State:     p.State,
			CreatedAt: formatTimestamp(p.CreatedAt),
			UpdatedAt: formatTimestamp(p.UpdatedAt),
			ClosedAt:  optionalTimestamp(p.ClosedAt),
			MergedAt:  optionalTimestamp(p.MergedAt),
			Draft:     p.Draft,
			User:      accountRef(p.User),
			HTMLURL:   p.HTMLURL,
			DiffURL:   p.DiffURL,
			Base:      contracts.PullRequestRef{Ref: p.Base.Ref, SHA: p.Base.SHA},
			Head:      contracts.PullRequestRef{Ref: p.Head.Ref, SHA: p.Head.SHA},
		})
	}
	return out, nil
}

// Commits lists commits matching q. since and until are RFC 3339 timestamps;
// per_page defaults to 30 and is capped at 100.
func (c *Catalog) Commits(ctx context.Context, cred github.Credential, owner, repo string, q CommitQuery) ([]contracts.CommitInfo, error) {
	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}
	opts, err := q.options()
	if err != nil {
		return nil, err
	}
	commits, err := c.source.ListCommits(ctx, cred, owner, repo, opts)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	out := make([]contracts.CommitInfo, 0, len(commits))
	for _, cm := range commits {
		out = append(out, contracts.CommitInfo{
			SHA:     cm.SHA,
			HTMLURL: cm.HTMLURL,
			Commit: contracts.CommitContent{
				Message:   cm.Commit.Message,
				Author:    gitIdentity(cm.Commit.Author),
				Committer: gitIdentity(cm.Commit.Committer),
			},
			Author:    accountRef(cm.Author),
			Committer: accountRef(cm.Committer),
		})
	}
	return out, nil
}

// Contributors lists the first page of contributors by commit count.
func (c *Catalog) Contributors(ctx context.Context, cred github.Credential, owner, repo string) ([]contracts.ContributorInfo, error) {
	if err := requireRepo(owner, repo); err != nil {
		return nil, err
	}
	contributors, err := c.source.ListContributors(ctx, cred, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}
	out := make([]contracts.ContributorInfo, 0, len(contributors))
	for _, ct := range contributors {
		out = append(out, contracts.ContributorInfo{
			ID:            ct.ID,
			Login:         ct.Login,
			AvatarURL:     ct.AvatarURL,
			HTMLURL:       ct.HTMLURL,
			Contributions: ct.Contributions,
		})
	}
	return out, nil
}

func (q CommitQuery) options() (github.CommitListOptions, error) {
	opts := github.CommitListOptions{
		SHA:     strings.TrimSpace(q.SHA),
		Path:    strings.TrimSpace(q.Path),
		PerPage: defaultCommitsPerPage,
	}
	var err error
	if opts.Since, err = parseTimestampParam("since", q.Since); err != nil {
		return opts, err
	}
	if opts.Until, err = parseTimestampParam("until", q.Until); err != nil {
		return opts, err
	}
	if !opts.Since.IsZero() && !opts.Until.IsZero() && opts.Until.Before(opts.Since) {
		return opts, fmt.Errorf("%w: until must not be before since", ErrInvalidRequest)
	}
	if q.PerPage != "" {
		n, err := strconv.Atoi(q.PerPage)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("%w: per_page must be a positive integer (got %q)", ErrInvalidRequest, q.PerPage)
		}
		opts.PerPage = min(n, maxCommitsPerPage)
	}
	return opts, nil
}

func parseTimestampParam(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be an RFC 3339 timestamp (got %q)", ErrInvalidRequest, name, v)
	}
	return t, nil
}

func requireRepo(owner, repo string) error {
	if owner == "" || repo == "" {
		return fmt.Errorf("%w: repository owner and name are required", ErrInvalidRequest)
	}
	return nil
}

func repositoryInfo(r github.Repository) contracts.RepositoryInfo {
	visibility := "public"
	if r.Private {
		visibility = "private"
	}
	var owner *contracts.RepositoryOwner
	if r.Owner != nil {
		owner = &contracts.RepositoryOwner{
			ID:        r.Owner.ID,
			Login:     r.Owner.Login,
			AvatarURL: r.Owner.AvatarURL,
			HTMLURL:   r.Owner.HTMLURL,
		}
	}
	return contracts.RepositoryInfo{
		ID:            r.ID,
		Name:          r.Name,
		FullName:      r.FullName,
		Description:   r.Description,
		Language:      r.Language,
		Visibility:    visibility,
		IsArchived:    r.Archived,
		DefaultBranch: r.DefaultBranch,
		HTMLURL:       r.HTMLURL,
		CreatedAt:     formatTimestamp(r.CreatedAt),
		UpdatedAt:     formatTimestamp(r.UpdatedAt),
		PushedAt:      optionalTimestamp(r.PushedAt),
		Owner:         owner,
	}
}

func accountRef(u *github.User) *contracts.AccountRef {
	if u == nil {
		return nil
	}
	return &contracts.AccountRef{ID: u.ID, Login: u.Login, AvatarURL: u.AvatarURL}
}

func gitIdentity(a *github.GitActor) *contracts.GitIdentity {
	if a == nil {
		return nil
	}
	return &contracts.GitIdentity{Name: a.Name, Email: a.Email, Date: formatTimestamp(a.Date)}
}

func optionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}
