// Package githubtest provides an in-memory stand-in for the GitHub client.
package githubtest

import (
	"context"
	"sync"

	"github.com/sergeknystautas/gitviz/internal/github"
)

// Method names used as keys in Fake.Errors and recorded in Fake.Calls.
const (
	GetRepository        = "GetRepository"
	ListUserRepositories = "ListUserRepositories"
	ListBranches         = "ListBranches"
	ListCommits          = "ListCommits"
	ListPullRequests     = "ListPullRequests"
	ListContributors     = "ListContributors"
	SearchIssueCount     = "SearchIssueCount"
	CodeFrequency        = "CodeFrequency"
	LatestRelease        = "LatestRelease"
)

// Call is one recorded invocation.
type Call struct {
	Method     string
	Credential github.Credential
	Owner      string
	Repo       string
	Query      string
	CommitOpts github.CommitListOptions
	PullOpts   github.PullListOptions
}

// Fake serves canned data. Set Errors[method] to make that method fail.
type Fake struct {
	Repository       github.Repository
	UserRepositories []github.Repository
	Branches         []github.Branch
	Commits          []github.Commit
	PullRequests     []github.PullRequest
	Contributors     []github.Contributor
	Weeks            []github.CodeFrequencyWeek
	Release          github.Release
	// SearchCounts maps a search query to its total_count.
	SearchCounts map[string]int
	Errors       map[string]error

	mu    sync.Mutex
	calls []Call
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Called reports whether method was invoked at least once.
func (f *Fake) Called(method string) bool {
	for _, c := range f.Calls() {
		if c.Method == method {
			return true
		}
	}
	return false
}

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.Errors[c.Method]
}

func (f *Fake) GetRepository(ctx context.Context, cred github.Credential, owner, repo string) (github.Repository, error) {
	if err := f.record(Call{Method: GetRepository, Credential: cred, Owner: owner, Repo: repo}); err != nil {
		return github.Repository{}, err
	}
	return f.Repository, nil
}

func (f *Fake) ListUserRepositories(ctx context.Context, cred github.Credential) ([]github.Repository, error) {
	if err := f.record(Call{Method: ListUserRepositories, Credential: cred}); err != nil {
		return nil, err
	}
	return f.UserRepositories, nil
}

func (f *Fake) ListBranches(ctx context.Context, cred github.Credential, owner, repo string) ([]github.Branch, error) {
	if err := f.record(Call{Method: ListBranches, Credential: cred, Owner: owner, Repo: repo}); err != nil {
		return nil, err
	}
	return f.Branches, nil
}

func (f *Fake) ListCommits(ctx context.Context, cred github.Credential, owner, repo string, opts github.CommitListOptions) ([]github.Commit, error) {
	if err := f.record(Call{Method: ListCommits, Credential: cred, Owner: owner, Repo: repo, CommitOpts: opts}); err != nil {
		return nil, err
	}
	return f.Commits, nil
}

func (f *Fake) ListPullRequests(ctx context.Context, cred github.Credential, owner, repo string, opts github.PullListOptions) ([]github.PullRequest, error) {
	if err := f.record(Call{Method: ListPullRequests, Credential: cred, Owner: owner, Repo: repo, PullOpts: opts}); err != nil {
		return nil, err
	}
	return f.PullRequests, nil
}

func (f *Fake) ListContributors(ctx context.Context, cred github.Credential, owner, repo string) ([]github.Contributor, error) {
	if err := f.record(Call{Method: ListContributors, Credential: cred, Owner: owner, Repo: repo}); err != nil {
		return nil, err
	}
	return f.Contributors, nil
}

func (f *Fake) SearchIssueCount(ctx context.Context, cred github.Credential, query string) (int, error) {
	if err := f.record(Call{Method: SearchIssueCount, Credential: cred, Query: query}); err != nil {
		return 0, err
	}
	return f.SearchCounts[query], nil
}

func (f *Fake) CodeFrequency(ctx context.Context, cred github.Credential, owner, repo string) ([]github.CodeFrequencyWeek, error) {
	if err := f.record(Call{Method: CodeFrequency, Credential: cred, Owner: owner, Repo: repo}); err != nil {
		return nil, err
	}
	return f.Weeks, nil
}

func (f *Fake) LatestRelease(ctx context.Context, cred github.Credential, owner, repo string) (github.Release, error) {
	if err := f.record(Call{Method: LatestRelease, Credential: cred, Owner: owner, Repo: repo}); err != nil {
		return github.Release{}, err
	}
	return f.Release, nil
}
