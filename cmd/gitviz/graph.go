package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sergeknystautas/gitviz/internal/api/contracts"
	"github.com/sergeknystautas/gitviz/internal/github"
	"github.com/sergeknystautas/gitviz/internal/visualize"
)

// TokenEnv is consulted when --token is not given.
const TokenEnv = "GITHUB_TOKEN"

var errNoToken = errors.New("no GitHub token: pass --token or set " + TokenEnv)

func newGraphCmd(opts *rootOptions) *cobra.Command {
	var (
		rangeKey string
		token    string
		summary  bool
	)

	cmd := &cobra.Command{
		Use:   "graph OWNER/REPO",
		Short: "Build the network graph for a repository and print it as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := parseRepoArg(args[0])
			if err != nil {
				return err
			}
			cred, err := resolveToken(token, os.Getenv, os.Stdin, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			_, s, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := newLogger(s)
			if err != nil {
				return err
			}
			logger.SetOutput(cmd.ErrOrStderr())

			builder := visualize.NewGraphBuilder(newGitHubClient(s, logger), logger)
			resp, err := builder.BuildNetworkGraph(cmd.Context(), cred, owner, repo, rangeKey)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if summary {
				return writeSummary(out, resp)
			}
			return writeGraphJSON(out, resp, isTerminal(out))
		},
	}

	cmd.Flags().StringVarP(&rangeKey, "range", "r", string(visualize.DefaultRange),
		"time range: "+strings.Join(rangeKeyStrings(), ", "))
	cmd.Flags().StringVar(&token, "token", "", "GitHub token (default $"+TokenEnv+")")
	cmd.Flags().BoolVar(&summary, "summary", false, "print node and edge counts instead of the graph")
	return cmd
}

// parseRepoArg splits OWNER/REPO.
func parseRepoArg(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected OWNER/REPO", s)
	}
	return owner, repo, nil
}

// resolveToken returns the flag value, then the environment, then prompts
// when stdin is a terminal.
func resolveToken(flag string, getenv func(string) string, stdin *os.File, prompt io.Writer) (github.Credential, error) {
	if flag != "" {
		return github.Credential(flag), nil
	}
	if t := strings.TrimSpace(getenv(TokenEnv)); t != "" {
		return github.Credential(t), nil
	}
	if stdin == nil || !term.IsTerminal(int(stdin.Fd())) {
		return "", errNoToken
	}

	fmt.Fprint(prompt, "GitHub token: ")
	b, err := term.ReadPassword(int(stdin.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	t := strings.TrimSpace(string(b))
	if t == "" {
		return "", errNoToken
	}
	return github.Credential(t), nil
}

func writeGraphJSON(w io.Writer, resp *contracts.NetworkGraphResponse, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}

func writeSummary(w io.Writer, resp *contracts.NetworkGraphResponse) error {
	nodes := map[contracts.NodeType]int{}
	for _, n := range resp.Graph.Nodes {
		nodes[n.Type]++
	}
	edges := map[contracts.EdgeType]int{}
	for _, e := range resp.Graph.Edges {
		edges[e.Type]++
	}

	rows := []struct {
		label string
		n     int
	}{
		{"commits", nodes[contracts.NodeCommit]},
		{"branches", nodes[contracts.NodeBranch]},
		{"commit edges", edges[contracts.EdgeCommit]},
		{"branch edges", edges[contracts.EdgeBranch]},
		{"merge edges", edges[contracts.EdgeMerge]},
	}

	if _, err := fmt.Fprintf(w, "%s (%s .. %s, default branch %s)\n",
		resp.Repository.FullName, resp.TimeRange.StartDate, resp.TimeRange.EndDate, resp.Repository.DefaultBranch); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "  %-13s %s\n", r.label+":", humanize.Comma(int64(r.n))); err != nil {
			return err
		}
	}
	return nil
}

func rangeKeyStrings() []string {
	keys := visualize.RangeKeys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
