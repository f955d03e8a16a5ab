package contracts

// PullRequestActivityResponse is the body of
// GET /api/visualizations/{owner}/{repo}/pull-requests.
type PullRequestActivityResponse struct {
	TimeRange    TimeRange            `json:"timeRange"`
	Summary      PullRequestSummary   `json:"summary"`
	ByAuthor     []PullRequestAuthor  `json:"byAuthor"`
	TimeSeries   []PullRequestDay     `json:"timeSeries"`
	PullRequests []PullRequestListing `json:"pullRequests"`
}

// PullRequestSummary counts pull requests in the window. Closed and Merged
// come from search totals, so they are not bounded by the listing page size.
type PullRequestSummary struct {
	Total  int `json:"total"`
	Open   int `json:"open"`
	Closed int `json:"closed"`
	Merged int `json:"merged"`
}

// PullRequestAuthor aggregates pull requests opened by one account.
type PullRequestAuthor struct {
	Author    string `json:"author"`
	AvatarURL string `json:"avatarUrl"`
	Total     int    `json:"total"`
	Open      int    `json:"open"`
	Closed    int    `json:"closed"`
	Merged    int    `json:"merged"`
}

// PullRequestDay aggregates pull requests by creation date.
type PullRequestDay struct {
	Date   string `json:"date"`
	Total  int    `json:"total"`
	Open   int    `json:"open"`
	Closed int    `json:"closed"`
	Merged int    `json:"merged"`
}

// PullRequestListing is one pull request in the window.
type PullRequestListing struct {
	ID        int64    `json:"id"`
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
	ClosedAt  string   `json:"closedAt,omitempty"`
	MergedAt  string   `json:"mergedAt,omitempty"`
	User      PRAuthor `json:"user"`
	Base      string   `json:"base"`
	Head      string   `json:"head"`
}

// ContributorActivityResponse is the body of
// GET /api/visualizations/{owner}/{repo}/contributor-activity.
type ContributorActivityResponse struct {
	TimeRange           TimeRange            `json:"timeRange"`
	ContributionSummary []ContributorSummary `json:"contributionSummary"`
	TimeSeriesData      []CommitDay          `json:"timeSeriesData"`
}

// ContributorSummary describes one contributor's commits in the window.
type ContributorSummary struct {
	ID                 int64            `json:"id"`
	Login              string           `json:"login"`
	AvatarURL          string           `json:"avatarUrl"`
	TotalCommits       int              `json:"totalCommits"`
	TotalContributions int              `json:"totalContributions"`
	CommitsInTimeRange int              `json:"commitsInTimeRange"`
	Activity           []ContributorDay `json:"activity"`
}

// ContributorDay is a contributor's commit count on one date.
type ContributorDay struct {
	Date    string `json:"date"`
	Commits int    `json:"commits"`
}

// CommitDay counts commits on one date, broken down by author.
type CommitDay struct {
	Date         string         `json:"date"`
	TotalCommits int            `json:"totalCommits"`
	ByAuthor     map[string]int `json:"byAuthor"`
}

// CodeFrequencyResponse is the body of
// GET /api/visualizations/{owner}/{repo}/code-frequency.
type CodeFrequencyResponse struct {
	WeeklyData     []CodeFrequencyWeek  `json:"weeklyData"`
	CumulativeData []CodeFrequencyTotal `json:"cumulativeData"`
	Summary        CodeFrequencySummary `json:"summary"`
}

// CodeFrequencyWeek holds one week's changes. Deletions are positive.
type CodeFrequencyWeek struct {
	Week      string `json:"week"`
	Additions int64  `json:"additions"`
	Deletions int64  `json:"deletions"`
}

// CodeFrequencyTotal is the running total up to and including Week.
type CodeFrequencyTotal struct {
	Week           string `json:"week"`
	TotalAdditions int64  `json:"totalAdditions"`
	TotalDeletions int64  `json:"totalDeletions"`
}

// CodeFrequencySummary is the final running total.
type CodeFrequencySummary struct {
	TotalAdditions int64 `json:"totalAdditions"`
	TotalDeletions int64 `json:"totalDeletions"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// PendingResponse is the 202 body returned while GitHub computes statistics.
type PendingResponse struct {
	Message string `json:"message"`
}
