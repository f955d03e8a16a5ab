package github

import (
	"errors"
	"fmt"
	"time"
)

// Credential is the caller's delegated GitHub access token. It is forwarded
// as-is and never parsed.
type Credential string

// String keeps tokens out of logs and error messages.
func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return "[redacted]"
}

// validator is implemented by every upstream record.
type validator interface {
	Validate() error
}

// Repository is the subset of GET /repos/{owner}/{repo} and GET /user/repos
// we consume.
type Repository struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	FullName        string     `json:"full_name"`
	Description     *string    `json:"description"`
	Language        *string    `json:"language"`
	DefaultBranch   string     `json:"default_branch"`
	Private         bool       `json:"private"`
	Archived        bool       `json:"archived"`
	HTMLURL         string     `json:"html_url"`
	Owner           *User      `json:"owner"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	PushedAt        *time.Time `json:"pushed_at"`
	ForksCount      int        `json:"forks_count"`
	StargazersCount int        `json:"stargazers_count"`
	WatchersCount   int        `json:"watchers_count"`
	OpenIssuesCount int        `json:"open_issues_count"`
}

func (r Repository) Validate() error {
	switch {
	case r.Name == "":
		return errors.New("repository: missing name")
	case r.FullName == "":
		return errors.New("repository: missing full_name")
	case r.DefaultBranch == "":
		return errors.New("repository: missing default_branch")
	}
	return nil
}

// Branch is an entry of GET /repos/{owner}/{repo}/branches.
type Branch struct {
	Name      string    `json:"name"`
	Commit    CommitRef `json:"commit"`
	Protected bool      `json:"protected"`
}

func (b Branch) Validate() error {
	if b.Name == "" {
		return errors.New("branch: missing name")
	}
	if b.Commit.SHA == "" {
		return fmt.Errorf("branch %s: missing commit.sha", b.Name)
	}
	return nil
}

// CommitRef points at a commit by sha.
type CommitRef struct {
	SHA     string `json:"sha"`
	URL     string `json:"url"`
	HTMLURL string `json:"html_url,omitempty"`
}

// GitActor is the git-level author or committer of a commit.
type GitActor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// User is a GitHub account reference. It is null on commits whose author email
// is not linked to an account.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// CommitDetail is the nested "commit" object of a commit listing.
type CommitDetail struct {
	Message   string    `json:"message"`
	Author    *GitActor `json:"author"`
	Committer *GitActor `json:"committer"`
}

// Commit is an entry of GET /repos/{owner}/{repo}/commits.
type Commit struct {
	SHA       string       `json:"sha"`
	HTMLURL   string       `json:"html_url"`
	Commit    CommitDetail `json:"commit"`
	Author    *User        `json:"author"`
	Committer *User        `json:"committer"`
	Parents   []CommitRef  `json:"parents"`
}

func (c Commit) Validate() error {
	if c.SHA == "" {
		return errors.New("commit: missing sha")
	}
	if c.Commit.Author == nil {
		return fmt.Errorf("commit %s: missing commit.author", c.SHA)
	}
	for i, p := range c.Parents {
		if p.SHA == "" {
			return fmt.Errorf("commit %s: parent %d missing sha", c.SHA, i)
		}
	}
	return nil
}

// GitRef is the head or base of a pull request.
type GitRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// PullRequest is an entry of GET /repos/{owner}/{repo}/pulls.
type PullRequest struct {
	ID             int64      `json:"id"`
	Number         int        `json:"number"`
	Title          string     `json:"title"`
	State          string     `json:"state"`
	Draft          bool       `json:"draft"`
	User           *User      `json:"user"`
	HTMLURL        string     `json:"html_url"`
	DiffURL        string     `json:"diff_url"`
	Head           GitRef     `json:"head"`
	Base           GitRef     `json:"base"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ClosedAt       *time.Time `json:"closed_at"`
	MergedAt       *time.Time `json:"merged_at"`
	MergeCommitSHA *string    `json:"merge_commit_sha"`
}

func (p PullRequest) Validate() error {
	if p.Number == 0 {
		return errors.New("pull request: missing number")
	}
	if p.User == nil {
		return fmt.Errorf("pull request #%d: missing user", p.Number)
	}
	if p.Head.Ref == "" || p.Base.Ref == "" {
		return fmt.Errorf("pull request #%d: missing head or base ref", p.Number)
	}
	return nil
}

// IsMerged reports whether the pull request has a merge timestamp.
func (p PullRequest) IsMerged() bool {
	return p.MergedAt != nil
}

// Contributor is an entry of GET /repos/{owner}/{repo}/contributors.
type Contributor struct {
	ID            int64  `json:"id"`
	Login         string `json:"login"`
	AvatarURL     string `json:"avatar_url"`
	HTMLURL       string `json:"html_url"`
	Contributions int    `json:"contributions"`
}

func (c Contributor) Validate() error {
	if c.Login == "" {
		return errors.New("contributor: missing login")
	}
	return nil
}

// SearchResult is the envelope of GET /search/issues. Only the count is used.
type SearchResult struct {
	TotalCount *int `json:"total_count"`
}

func (s SearchResult) Validate() error {
	if s.TotalCount == nil {
		return errors.New("search: missing total_count")
	}
	return nil
}

// CodeFrequencyWeek is one [timestamp, additions, deletions] tuple of
// GET /repos/{owner}/{repo}/stats/code_frequency.
type CodeFrequencyWeek []int64

func (w CodeFrequencyWeek) Validate() error {
	if len(w) != 3 {
		return fmt.Errorf("code frequency: expected 3 values, got %d", len(w))
	}
	return nil
}

// Week returns the start of the week in UTC.
func (w CodeFrequencyWeek) Week() time.Time { return time.Unix(w[0], 0).UTC() }

// Additions returns the lines added that week.
func (w CodeFrequencyWeek) Additions() int64 { return w[1] }

// Deletions returns the lines deleted that week. GitHub reports them negative.
func (w CodeFrequencyWeek) Deletions() int64 { return w[2] }

// Release is the subset of GET /repos/{owner}/{repo}/releases/latest we need.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

func (r Release) Validate() error {
	if r.TagName == "" {
		return errors.New("release: missing tag_name")
	}
	return nil
}
