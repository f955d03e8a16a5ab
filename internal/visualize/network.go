// Package visualize builds visualization payloads from GitHub data: the
// repository network graph plus pull request, contributor and code frequency
// activity.
package visualize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/sergeknystautas/gitviz/internal/api/contracts"
	"github.com/sergeknystautas/gitviz/internal/github"
)

// ErrInvalidRequest is returned before any upstream call when the request
// itself is unusable.
var ErrInvalidRequest = errors.New("invalid request")

// NetworkSource is the upstream data a network graph is built from.
type NetworkSource interface {
	GetRepository(ctx context.Context, cred github.Credential, owner, repo string) (github.Repository, error)
	ListBranches(ctx context.Context, cred github.Credential, owner, repo string) ([]github.Branch, error)
	ListCommits(ctx context.Context, cred github.Credential, owner, repo string, opts github.CommitListOptions) ([]github.Commit, error)
	ListPullRequests(ctx context.Context, cred github.Credential, owner, repo string, opts github.PullListOptions) ([]github.PullRequest, error)
}

// GraphBuilder assembles commit/branch/merge graphs. It keeps no state
// between calls.
type GraphBuilder struct {
	source NetworkSource
	logger *log.Logger
	now    func() time.Time
}

// NewGraphBuilder creates a builder reading from source.
func NewGraphBuilder(source NetworkSource, logger *log.Logger) *GraphBuilder {
	return &GraphBuilder{
		source: source,
		logger: orDefault(logger).WithPrefix("network"),
		now:    time.Now,
	}
}

// BuildNetworkGraph fetches repository metadata, branches, commits inside the
// window selected by rangeKey, and closed pull requests, then joins them into
// a graph. All four fetches must succeed; the first failure cancels the rest
// and no partial graph is returned.
func (b *GraphBuilder) BuildNetworkGraph(ctx context.Context, cred github.Credential, owner, repo, rangeKey string) (*contracts.NetworkGraphResponse, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: repository owner and name are required", ErrInvalidRequest)
	}
	window := ParseRangeKey(rangeKey).Window(b.now())

	var (
		repository github.Repository
		branches   []github.Branch
		commits    []github.Commit
		pulls      []github.PullRequest
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := b.source.GetRepository(gctx, cred, owner, repo)
		if err != nil {
			return fmt.Errorf("fetch repository: %w", err)
		}
		repository = r
		return nil
	})
	g.Go(func() error {
		bs, err := b.source.ListBranches(gctx, cred, owner, repo)
		if err != nil {
			return fmt.Errorf("list branches: %w", err)
		}
		branches = bs
		return nil
	})
	g.Go(func() error {
		cs, err := b.source.ListCommits(gctx, cred, owner, repo, github.CommitListOptions{
			Since: window.Since(),
			Until: window.Until(),
		})
		if err != nil {
			return fmt.Errorf("list commits: %w", err)
		}
		commits = cs
		return nil
	})
	g.Go(func() error {
		ps, err := b.source.ListPullRequests(gctx, cred, owner, repo, github.PullListOptions{
			State:     "closed",
			Sort:      "updated",
			Direction: "desc",
		})
		if err != nil {
			return fmt.Errorf("list pull requests: %w", err)
		}
		pulls = ps
		return nil
	})
	if err := g.Wait(); err != nil {
		b.logger.Warn("network graph failed", "repo", owner+"/"+repo, "err", err)
		return nil, err
	}

	graph, pruned := assembleGraph(repository.DefaultBranch, branches, commits, mergedSince(pulls, window.Since()))
	b.logger.Debug("network graph built",
		"repo", owner+"/"+repo,
		"range", string(ParseRangeKey(rangeKey)),
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges),
		"pruned", pruned,
	)

	return &contracts.NetworkGraphResponse{
		Repository: contracts.RepositorySummary{
			Name:          repository.Name,
			FullName:      repository.FullName,
			DefaultBranch: repository.DefaultBranch,
		},
		Graph:     graph,
		TimeRange: window.Contract(),
	}, nil
}

// mergedSince keeps pull requests merged at or after since. There is no upper
// bound on the merge date.
func mergedSince(pulls []github.PullRequest, since time.Time) []github.PullRequest {
	var out []github.PullRequest
	for _, p := range pulls {
		if p.MergedAt != nil && !p.MergedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out
}

// assembleGraph joins the fetched records into nodes and edges and returns the
// graph along with the number of edges dropped for referencing absent nodes.
//
// Nodes: one per distinct commit, then one per branch whose head is among the
// commits. Edges, in order: parent -> child for every parent of every commit,
// branch -> head for every branch node, source branch -> target branch for
// every merge whose merge commit was fetched. Edges with an endpoint outside
// the node set are pruned last.
func assembleGraph(defaultBranch string, branches []github.Branch, commits []github.Commit, merges []github.PullRequest) (contracts.Graph, int) {
	nodes := make([]contracts.GraphNode, 0, len(commits)+len(branches))
	edges := make([]contracts.GraphEdge, 0, len(commits)+len(branches)+len(merges))
	nodeIDs := make(map[string]bool, len(commits)+len(branches))

	var kept []github.Commit
	for _, c := range commits {
		if nodeIDs[c.SHA] {
			continue
		}
		nodeIDs[c.SHA] = true
		kept = append(kept, c)
		nodes = append(nodes, contracts.GraphNode{
			ID:   c.SHA,
			Type: contracts.NodeCommit,
			Data: commitData(c),
		})
	}
	commitSHAs := make(map[string]bool, len(kept))
	for _, c := range kept {
		commitSHAs[c.SHA] = true
	}

	for _, c := range kept {
		for _, p := range c.Parents {
			edges = append(edges, contracts.GraphEdge{
				Source: p.SHA,
				Target: c.SHA,
				Type:   contracts.EdgeCommit,
			})
		}
	}

	for _, br := range branches {
		id := contracts.BranchNodeID(br.Name)
		if !commitSHAs[br.Commit.SHA] || nodeIDs[id] {
			continue
		}
		nodeIDs[id] = true
		nodes = append(nodes, contracts.GraphNode{
			ID:   id,
			Type: contracts.NodeBranch,
			Data: contracts.BranchData{
				Name:      br.Name,
				SHA:       br.Commit.SHA,
				Protected: br.Protected,
				IsDefault: br.Name == defaultBranch,
			},
		})
		edges = append(edges, contracts.GraphEdge{
			Source: id,
			Target: br.Commit.SHA,
			Type:   contracts.EdgeBranch,
		})
	}

	for _, pr := range merges {
		if pr.MergeCommitSHA == nil || !commitSHAs[*pr.MergeCommitSHA] {
			continue
		}
		edges = append(edges, contracts.GraphEdge{
			Source: contracts.BranchNodeID(pr.Head.Ref),
			Target: contracts.BranchNodeID(pr.Base.Ref),
			Type:   contracts.EdgeMerge,
			Data:   mergeData(pr),
		})
	}

	resolved := edges[:0]
	for _, e := range edges {
		if nodeIDs[e.Source] && nodeIDs[e.Target] {
			resolved = append(resolved, e)
		}
	}
	pruned := len(edges) - len(resolved)

	return contracts.Graph{Nodes: nodes, Edges: resolved}, pruned
}

func commitData(c github.Commit) contracts.CommitData {
	var author contracts.CommitAuthor
	if a := c.Commit.Author; a != nil {
		author.Name = a.Name
		author.Email = a.Email
		author.Date = formatTimestamp(a.Date)
	}
	if c.Author != nil {
		author.Login = c.Author.Login
		author.AvatarURL = c.Author.AvatarURL
	}

	parents := make([]contracts.CommitParent, 0, len(c.Parents))
	for _, p := range c.Parents {
		parents = append(parents, contracts.CommitParent{SHA: p.SHA, URL: p.URL, HTMLURL: p.HTMLURL})
	}

	return contracts.CommitData{
		SHA:     c.SHA,
		HTMLURL: c.HTMLURL,
		Message: c.Commit.Message,
		Author:  author,
		Parents: parents,
	}
}

func mergeData(pr github.PullRequest) contracts.MergeData {
	return contracts.MergeData{
		ID:             pr.ID,
		Number:         pr.Number,
		Title:          pr.Title,
		SourceBranch:   pr.Head.Ref,
		TargetBranch:   pr.Base.Ref,
		MergedAt:       formatTimestamp(*pr.MergedAt),
		MergeCommitSHA: *pr.MergeCommitSHA,
		Author:         prAuthor(pr.User),
	}
}

func prAuthor(u *github.User) contracts.PRAuthor {
	if u == nil {
		return contracts.PRAuthor{}
	}
	return contracts.PRAuthor{Login: u.Login, AvatarURL: u.AvatarURL}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func orDefault(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Default()
	}
	return l
}
