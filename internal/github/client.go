// Package github provides a typed client for the subset of the GitHub REST API
// used to build repository visualizations.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com"

	// MaxPageSize is the largest per_page GitHub honors.
	MaxPageSize = 100

	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "gitviz"
	apiVersion       = "2022-11-28"
	maxErrorBody     = 64 << 10
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL   string
	PageSize  int
	Timeout   time.Duration
	UserAgent string
	Logger    *log.Logger
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client is a GitHub REST client. Only the first page of any collection is
// fetched, so listings are truncated at the configured page size.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *log.Logger

	pageSize atomic.Int64
	timeout  atomic.Int64
}

// NewClient creates a client from opts.
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		// No client-level timeout; each request carries its own deadline.
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
		logger:     logger.WithPrefix("github"),
	}
	c.SetPageSize(opts.PageSize)
	c.SetTimeout(opts.Timeout)
	return c
}

// SetPageSize changes per_page for subsequent calls. Values outside
// 1..MaxPageSize are clamped.
func (c *Client) SetPageSize(n int) {
	if n <= 0 || n > MaxPageSize {
		n = MaxPageSize
	}
	c.pageSize.Store(int64(n))
}

// PageSize returns the current per_page value.
func (c *Client) PageSize() int {
	return int(c.pageSize.Load())
}

// SetTimeout changes the per-request deadline for subsequent calls.
func (c *Client) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = defaultTimeout
	}
	c.timeout.Store(int64(d))
}

// Timeout returns the current per-request deadline.
func (c *Client) Timeout() time.Duration {
	return time.Duration(c.timeout.Load())
}

// CommitListOptions filters a commit listing. PerPage overrides the client
// page size when positive.
type CommitListOptions struct {
	SHA     string
	Path    string
	Since   time.Time
	Until   time.Time
	PerPage int
}

// PullListOptions filters a pull request listing.
type PullListOptions struct {
	State     string
	Sort      string
	Direction string
}

// GetRepository fetches repository metadata.
func (c *Client) GetRepository(ctx context.Context, cred Credential, owner, repo string) (Repository, error) {
	var out Repository
	if _, err := c.get(ctx, cred, repoPath(owner, repo, ""), nil, &out); err != nil {
		return Repository{}, err
	}
	if err := c.validate(repoPath(owner, repo, ""), out); err != nil {
		return Repository{}, err
	}
	return out, nil
}

// ListUserRepositories fetches the first page of repositories the credential
// can access, most recently updated first.
func (c *Client) ListUserRepositories(ctx context.Context, cred Credential) ([]Repository, error) {
	const path = "/user/repos"
	q := c.pageQuery()
	q.Set("sort", "updated")
	q.Set("direction", "desc")
	var out []Repository
	if _, err := c.get(ctx, cred, path, q, &out); err != nil {
		return nil, err
	}
	if err := validateAll(c, path, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBranches fetches the first page of branches.
func (c *Client) ListBranches(ctx context.Context, cred Credential, owner, repo string) ([]Branch, error) {
	path := repoPath(owner, repo, "/branches")
	var out []Branch
	if _, err := c.get(ctx, cred, path, c.pageQuery(), &out); err != nil {
		return nil, err
	}
	if err := validateAll(c, path, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCommits fetches the first page of commits matching opts.
func (c *Client) ListCommits(ctx context.Context, cred Credential, owner, repo string, opts CommitListOptions) ([]Commit, error) {
	path := repoPath(owner, repo, "/commits")
	q := c.pageQuery()
	if opts.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(min(opts.PerPage, MaxPageSize)))
	}
	if opts.SHA != "" {
		q.Set("sha", opts.SHA)
	}
	if opts.Path != "" {
		q.Set("path", opts.Path)
	}
	if !opts.Since.IsZero() {
		q.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}
	if !opts.Until.IsZero() {
		q.Set("until", opts.Until.UTC().Format(time.RFC3339))
	}
	var out []Commit
	if _, err := c.get(ctx, cred, path, q, &out); err != nil {
		return nil, err
	}
	if err := validateAll(c, path, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPullRequests fetches the first page of pull requests.
func (c *Client) ListPullRequests(ctx context.Context, cred Credential, owner, repo string, opts PullListOptions) ([]PullRequest, error) {
	path := repoPath(owner, repo, "/pulls")
	q := c.pageQuery()
	if opts.State != "" {
		q.Set("state", opts.State)
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if opts.Direction != "" {
		q.Set("direction", opts.Direction)
	}
	var out []PullRequest
	if _, err := c.get(ctx, cred, path, q, &out); err != nil {
		return nil, err
	}
	if err := validateAll(c, path, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListContributors fetches the first page of contributors.
func (c *Client) ListContributors(ctx context.Context, cred Credential, owner, repo string) ([]Contributor, error) {
	path := repoPath(owner, repo, "/contributors")
	var out []Contributor
	status, err := c.get(ctx, cred, path, c.pageQuery(), &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return []Contributor{}, nil
	}
	if err := validateAll(c, path, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchIssueCount returns total_count for an issue search query. Only one
// result is requested since the items are not used.
func (c *Client) SearchIssueCount(ctx context.Context, cred Credential, query string) (int, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("per_page", "1")
	var out SearchResult
	if _, err := c.get(ctx, cred, "/search/issues", q, &out); err != nil {
		return 0, err
	}
	if err := c.validate("/search/issues", out); err != nil {
		return 0, err
	}
	return *out.TotalCount, nil
}

// CodeFrequency fetches weekly addition/deletion totals. It returns
// ErrStatsPending while GitHub is still computing them.
func (c *Client) CodeFrequency(ctx context.Context, cred Credential, owner, repo string) ([]CodeFrequencyWeek, error) {
	path := repoPath(owner, repo, "/stats/code_frequency")
	var out []CodeFrequencyWeek
	status, err := c.get(ctx, cred, path, nil, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return []CodeFrequencyWeek{}, nil
	}
	if err := validateAll(c, path, out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestRelease fetches the newest published release.
func (c *Client) LatestRelease(ctx context.Context, cred Credential, owner, repo string) (Release, error) {
	path := repoPath(owner, repo, "/releases/latest")
	var out Release
	if _, err := c.get(ctx, cred, path, nil, &out); err != nil {
		return Release{}, err
	}
	if err := c.validate(path, out); err != nil {
		return Release{}, err
	}
	return out, nil
}

func (c *Client) pageQuery() url.Values {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(c.PageSize()))
	return q
}

// get performs a GET and decodes a 200 body into out. A 204 leaves out
// untouched. Any other status is returned as *Error.
func (c *Client) get(ctx context.Context, cred Credential, path string, query url.Values, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout())
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, &Error{Kind: ErrUnavailable, Method: http.MethodGet, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if cred != "" {
		req.Header.Set("Authorization", "Bearer "+string(cred))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "path", path, "duration", time.Since(start), "err", err)
		return 0, &Error{Kind: ErrUnavailable, Method: http.MethodGet, Path: path, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("request", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return resp.StatusCode, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &Error{
			Kind:       classifyStatus(resp),
			StatusCode: resp.StatusCode,
			Method:     http.MethodGet,
			Path:       path,
			Message:    errorMessage(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, &Error{
			Kind:       ErrUnavailable,
			StatusCode: resp.StatusCode,
			Method:     http.MethodGet,
			Path:       path,
			Err:        fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) validate(path string, v validator) error {
	if err := v.Validate(); err != nil {
		return &Error{
			Kind:   ErrUnavailable,
			Method: http.MethodGet,
			Path:   path,
			Err:    fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		}
	}
	return nil
}

func validateAll[T validator](c *Client, path string, items []T) error {
	for _, item := range items {
		if err := c.validate(path, item); err != nil {
			return err
		}
	}
	return nil
}

// errorMessage extracts GitHub's {"message": "..."} from an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return truncate(strings.TrimSpace(string(body)), 200)
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func repoPath(owner, repo, suffix string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + suffix
}
