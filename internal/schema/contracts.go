package schema

import "github.com/sergeknystautas/gitviz/internal/api/contracts"

// Labels for the API response contracts.
const (
	LabelNetwork             = "network"
	LabelPullRequests        = "pull-requests"
	LabelContributorActivity = "contributor-activity"
	LabelCodeFrequency       = "code-frequency"
	LabelRepositories        = "repositories"
	LabelRepository          = "repository"
	LabelHealth              = "health"
	LabelError               = "error"
)

func init() {
	Register(LabelNetwork, contracts.NetworkGraphResponse{})
	Register(LabelPullRequests, contracts.PullRequestActivityResponse{})
	Register(LabelContributorActivity, contracts.ContributorActivityResponse{})
	Register(LabelCodeFrequency, contracts.CodeFrequencyResponse{})
	Register(LabelRepositories, contracts.RepositoryListResponse{})
	Register(LabelRepository, contracts.RepositoryDetail{})
	Register(LabelHealth, contracts.HealthResponse{})
	Register(LabelError, contracts.ErrorResponse{})
}
