package contracts

// NodeType discriminates graph nodes.
type NodeType string

// EdgeType discriminates graph edges.
type EdgeType string

const (
	NodeCommit NodeType = "commit"
	NodeBranch NodeType = "branch"

	EdgeCommit EdgeType = "commit"
	EdgeBranch EdgeType = "branch"
	EdgeMerge  EdgeType = "merge"
)

// BranchNodePrefix namespaces branch node ids so they cannot collide with shas.
const BranchNodePrefix = "branch-"

// BranchNodeID returns the node id for a branch name.
func BranchNodeID(name string) string {
	return BranchNodePrefix + name
}

// NetworkGraphResponse is the body of GET /api/visualizations/{owner}/{repo}/network.
type NetworkGraphResponse struct {
	Repository RepositorySummary `json:"repository"`
	Graph      Graph             `json:"graph"`
	TimeRange  TimeRange         `json:"timeRange"`
}

// RepositorySummary identifies the repository a graph was built for.
type RepositorySummary struct {
	Name          string `json:"name"`
	FullName      string `json:"fullName"`
	DefaultBranch string `json:"defaultBranch"`
}

// TimeRange is the inclusive window as ISO calendar dates (YYYY-MM-DD, UTC).
type TimeRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Graph is a node/edge list. Every edge endpoint is the id of a node in Nodes.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode is a commit or branch. Data is CommitData or BranchData.
type GraphNode struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`
	Data any      `json:"data"`
}

// GraphEdge links two nodes. Data is MergeData for merge edges and nil otherwise.
type GraphEdge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
	Data   any      `json:"data,omitempty"`
}

// CommitData is the payload of a commit node.
type CommitData struct {
	SHA     string         `json:"sha"`
	HTMLURL string         `json:"htmlUrl"`
	Message string         `json:"message"`
	Author  CommitAuthor   `json:"author"`
	Parents []CommitParent `json:"parents"`
}

// CommitAuthor is the git author, linked to a GitHub account when possible.
type CommitAuthor struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Date      string `json:"date"`
	Login     string `json:"login,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// CommitParent references a parent commit, which may lie outside the window.
type CommitParent struct {
	SHA     string `json:"sha"`
	URL     string `json:"url"`
	HTMLURL string `json:"htmlUrl,omitempty"`
}

// BranchData is the payload of a branch node.
type BranchData struct {
	Name      string `json:"name"`
	SHA       string `json:"sha"`
	Protected bool   `json:"protected"`
	IsDefault bool   `json:"isDefault"`
}

// MergeData is the payload of a merge edge, taken from the merged pull request.
type MergeData struct {
	ID             int64    `json:"id"`
	Number         int      `json:"number"`
	Title          string   `json:"title"`
	SourceBranch   string   `json:"sourceBranch"`
	TargetBranch   string   `json:"targetBranch"`
	MergedAt       string   `json:"mergedAt"`
	MergeCommitSHA string   `json:"mergeCommitSha"`
	Author         PRAuthor `json:"author"`
}

// PRAuthor is the GitHub account that opened a pull request.
type PRAuthor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
}
