package contracts

// RepositoryListResponse is returned by GET /api/repositories.
type RepositoryListResponse struct {
	Repositories []RepositoryInfo `json:"repositories"`
}

// RepositoryOwner is the owning account of a repository.
type RepositoryOwner struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	HTMLURL   string `json:"htmlUrl"`
}

// RepositoryInfo is one entry of the repository list.
type RepositoryInfo struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	FullName      string           `json:"fullName"`
	Description   *string          `json:"description"`
	Language      *string          `json:"language"`
	Visibility    string           `json:"visibility"`
	IsArchived    bool             `json:"isArchived"`
	DefaultBranch string           `json:"defaultBranch"`
	HTMLURL       string           `json:"htmlUrl"`
	CreatedAt     string           `json:"createdAt"`
	UpdatedAt     string           `json:"updatedAt"`
	PushedAt      *string          `json:"pushedAt"`
	Owner         *RepositoryOwner `json:"owner"`
}

// RepositoryDetail is returned by GET /api/repositories/{owner}/{repo}.
type RepositoryDetail struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	FullName        string           `json:"fullName"`
	Description     *string          `json:"description"`
	Language        *string          `json:"language"`
	Visibility      string           `json:"visibility"`
	IsArchived      bool             `json:"isArchived"`
	DefaultBranch   string           `json:"defaultBranch"`
	HTMLURL         string           `json:"htmlUrl"`
	CreatedAt       string           `json:"createdAt"`
	UpdatedAt       string           `json:"updatedAt"`
	PushedAt        *string          `json:"pushedAt"`
	ForksCount      int              `json:"forksCount"`
	StargazersCount int              `json:"stargazersCount"`
	WatchersCount   int              `json:"watchersCount"`
	OpenIssuesCount int              `json:"openIssuesCount"`
	Owner           *RepositoryOwner `json:"owner"`
}

// BranchInfo is one entry of GET /api/repositories/{owner}/{repo}/branches.
type BranchInfo struct {
	Name      string     `json:"name"`
	Protected bool       `json:"protected"`
	Commit    BranchHead `json:"commit"`
}

// BranchHead is the commit a branch points at.
type BranchHead struct {
	SHA string `json:"sha"`
	URL string `json:"url"`
}

// AccountRef is a GitHub account attached to a pull request or commit.
type AccountRef struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
}

// PullRequestRef is the head or base of a pull request.
type PullRequestRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// PullRequestInfo is one entry of GET /api/repositories/{owner}/{repo}/pulls.
type PullRequestInfo struct {
	ID        int64          `json:"id"`
	Number    int            `json:"number"`
	Title     string         `json:"title"`
	State     string         `json:"state"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
	ClosedAt  *string        `json:"closedAt"`
	MergedAt  *string        `json:"mergedAt"`
	Draft     bool           `json:"draft"`
	User      *AccountRef    `json:"user"`
	HTMLURL   string         `json:"htmlUrl"`
	DiffURL   string         `json:"diffUrl"`
	Base      PullRequestRef `json:"base"`
	Head      PullRequestRef `json:"head"`
}

// GitIdentity is the git-level author or committer of a commit.
type GitIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

// CommitContent is the git object part of a commit listing.
type CommitContent struct {
	Message   string       `json:"message"`
	Author    *GitIdentity `json:"author"`
	Committer *GitIdentity `json:"committer"`
}

// CommitInfo is one entry of GET /api/repositories/{owner}/{repo}/commits.
// Author and Committer are null when the email is not linked to an account.
type CommitInfo struct {
	SHA       string        `json:"sha"`
	HTMLURL   string        `json:"htmlUrl"`
	Commit    CommitContent `json:"commit"`
	Author    *AccountRef   `json:"author"`
	Committer *AccountRef   `json:"committer"`
}

// ContributorInfo is one entry of GET /api/repositories/{owner}/{repo}/contributors.
type ContributorInfo struct {
	ID            int64  `json:"id"`
	Login         string `json:"login"`
	AvatarURL     string `json:"avatarUrl"`
	HTMLURL       string `json:"htmlUrl"`
	Contributions int    `json:"contributions"`
}
