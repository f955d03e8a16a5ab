package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sergeknystautas/gitviz/internal/api/contracts"
	"github.com/sergeknystautas/gitviz/internal/config"
	"github.com/sergeknystautas/gitviz/internal/github"
	"github.com/sergeknystautas/gitviz/internal/github/githubtest"
	"github.com/sergeknystautas/gitviz/internal/logging"
	"github.com/sergeknystautas/gitviz/internal/visualize"
)

type stubGraphs struct {
	resp  *contracts.NetworkGraphResponse
	err   error
	panic bool

	cred     github.Credential
	owner    string
	repo     string
	rangeKey string
}

func (s *stubGraphs) BuildNetworkGraph(ctx context.Context, cred github.Credential, owner, repo, rangeKey string) (*contracts.NetworkGraphResponse, error) {
	if s.panic {
		panic("boom")
	}
	s.cred, s.owner, s.repo, s.rangeKey = cred, owner, repo, rangeKey
	return s.resp, s.err
}

type stubReports struct {
	err   error
	state string
}

func (s *stubReports) PullRequestActivity(ctx context.Context, cred github.Credential, owner, repo, rangeKey, state string) (*contracts.PullRequestActivityResponse, error) {
	s.state = state
	if s.err != nil {
		return nil, s.err
	}
	return &contracts.PullRequestActivityResponse{ByAuthor: []contracts.PullRequestAuthor{}}, nil
}

func (s *stubReports) ContributorActivity(ctx context.Context, cred github.Credential, owner, repo, rangeKey string) (*contracts.ContributorActivityResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &contracts.ContributorActivityResponse{}, nil
}

func (s *stubReports) CodeFrequency(ctx context.Context, cred github.Credential, owner, repo string) (*contracts.CodeFrequencyResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &contracts.CodeFrequencyResponse{Summary: contracts.CodeFrequencySummary{TotalAdditions: 3}}, nil
}

func sampleGraph() *contracts.NetworkGraphResponse {
	return &contracts.NetworkGraphResponse{
		Repository: contracts.RepositorySummary{Name: "hello", FullName: "octo/hello", DefaultBranch: "main"},
		Graph: contracts.Graph{
			Nodes: []contracts.GraphNode{
				{ID: "a", Type: contracts.NodeCommit, Data: contracts.CommitData{SHA: "a", Parents: []contracts.CommitParent{}}},
				{ID: "branch-main", Type: contracts.NodeBranch, Data: contracts.BranchData{Name: "main", SHA: "a", IsDefault: true}},
			},
			Edges: []contracts.GraphEdge{{Source: "branch-main", Target: "a", Type: contracts.EdgeBranch}},
		},
		TimeRange: contracts.TimeRange{StartDate: "2024-02-15", EndDate: "2024-03-15"},
	}
}

func newTestServer(t *testing.T, graphs NetworkBuilder, reports ActivityReporter) *Server {
	t.Helper()
	return newTestServerWithRepos(t, graphs, reports, nil)
}

func newTestServerWithRepos(t *testing.T, graphs NetworkBuilder, reports ActivityReporter, repos RepositoryBrowser) *Server {
	t.Helper()
	old := config.DotEnvPath
	config.DotEnvPath = filepath.Join(t.TempDir(), ".env")
	t.Cleanup(func() { config.DotEnvPath = old })

	cfg, err := config.Load("")
	require.NoError(t, err)
	return NewServer(cfg, graphs, reports, repos, logging.Discard(), "1.2.3")
}

func do(t *testing.T, h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) contracts.ErrorResponse {
	t.Helper()
	var resp contracts.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

var bearer = map[string]string{"Authorization": "Bearer gho_token"}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &stubGraphs{}, nil)
	s.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	rr := do(t, s.Handler(), http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp contracts.HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, contracts.HealthResponse{Status: "ok", Timestamp: "2024-03-15T12:00:00Z", Version: "1.2.3"}, resp)
}

func TestHandleNetwork(t *testing.T) {
	graphs := &stubGraphs{resp: sampleGraph()}
	s := newTestServer(t, graphs, nil)

	rr := do(t, s.Handler(), http.MethodGet, "/api/visualizations/octo/hello/network?timeRange=1m", bearer)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.NotEmpty(t, rr.Header().Get("ETag"))

	require.Equal(t, github.Credential("gho_token"), graphs.cred)
	require.Equal(t, "octo", graphs.owner)
	require.Equal(t, "hello", graphs.repo)
	require.Equal(t, "1m", graphs.rangeKey)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Contains(t, body, "timeRange")
	repo := body["repository"].(map[string]any)
	require.Equal(t, "octo/hello", repo["fullName"])
	require.Equal(t, "main", repo["defaultBranch"])
	edge := body["graph"].(map[string]any)["edges"].([]any)[0].(map[string]any)
	require.Equal(t, "branch-main", edge["source"])
	require.NotContains(t, edge, "data")
}

func TestHandleNetwork_EmptyGraphEncodesArrays(t *testing.T) {
	f := &githubtest.Fake{Repository: github.Repository{Name: "hello", FullName: "octo/hello", DefaultBranch: "main"}}
	s := newTestServer(t, visualize.NewGraphBuilder(f, logging.Discard()), nil)

	rr := do(t, s.Handler(), http.MethodGet, "/api/visualizations/octo/hello/network", bearer)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"nodes":[]`)
	require.Contains(t, rr.Body.String(), `"edges":[]`)
	require.True(t, f.Called(githubtest.ListCommits))
}

func TestHandleNetwork_ETagRoundTrip(t *testing.T) {
	s := newTestServer(t, &stubGraphs{resp: sampleGraph()}, nil)
	h := s.Handler()

	first := do(t, h, http.MethodGet, "/api/visualizations/octo/hello/network", bearer)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.True(t, strings.HasPrefix(etag, `"`))

	headers := map[string]string{"Authorization": "Bearer gho_token", "If-None-Match": etag}
	second := do(t, h, http.MethodGet, "/api/visualizations/octo/hello/network", headers)
	require.Equal(t, http.StatusNotModified, second.Code)
	require.Empty(t, second.Body.String())

	headers["If-None-Match"] = `"stale", W/` + etag
	third := do(t, h, http.MethodGet, "/api/visualizations/octo/hello/network", headers)
	require.Equal(t, http.StatusNotModified, third.Code)

	headers["If-None-Match"] = `"stale"`
	fourth := do(t, h, http.MethodGet, "/api/visualizations/octo/hello/network", headers)
	require.Equal(t, http.StatusOK, fourth.Code)
}

func TestRequireCredential(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{name: "missing header", wantMsg: "Authorization header required"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantMsg: "Bearer token required"},
		{name: "empty token", header: "Bearer ", wantMsg: "Bearer token required"},
		{name: "scheme only", header: "Bearer", wantMsg: "Bearer token required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graphs := &stubGraphs{resp: sampleGraph()}
			s := newTestServer(t, graphs, nil)

			var headers map[string]string
			if tt.header != "" {
				headers = map[string]string{"Authorization": tt.header}
			}
			rr := do(t, s.Handler(), http.MethodGet, "/api/visualizations/octo/hello/network", headers)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
			require.Equal(t, tt.wantMsg, decodeError(t, rr).Error)
			require.Empty(t, graphs.cred, "builder must not run without a credential")
		})
	}
}

func TestVisualizationErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "invalid request", err: fmt.Errorf("%w: bad", visualize.ErrInvalidRequest), wantStatus: http.StatusBadRequest, wantError: "Invalid request"},
		{name: "not found", err: &github.Error{Kind: github.ErrNotFound, StatusCode: 404}, wantStatus: http.StatusNotFound, wantError: "Repository not found"},
		{name: "unauthorized", err: fmt.Errorf("list branches: %w", github.ErrUnauthorized), wantStatus: http.StatusUnauthorized, wantError: "Invalid or expired token"},
		{name: "unavailable", err: github.ErrUnavailable, wantStatus: http.StatusInternalServerError, wantError: "Failed to generate network graph"},
		{name: "unexpected", err: context.DeadlineExceeded, wantStatus: http.StatusInternalServerError, wantError: "Failed to generate network graph"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubGraphs{err: tt.err}, nil)
			rr := do(t, s.Handler(), http.MethodGet, "/api/visualizations/octo/hello/network", bearer)
			require.Equal(t, tt.wantStatus, rr.Code)
			require.Equal(t, tt.wantError, decodeError(t, rr).Error)
		})
	}
}

func TestUpstreamErrorKeepsDetailOutOfBody(t *testing.T) {
	err := &github.Error{
		Kind:       github.ErrUnavailable,
		StatusCode: http.StatusBadGateway,
		Method:     http.MethodGet,
		Path:       "/repos/octo/hello/commits",
		Message:    "upstream exploded at 10.0.0.7",
	}
	s := newTestServer(t, &stubGraphs{err: err}, nil)

	rr := do(t, s.Handler(), http.MethodGet, "/api/visualizations/octo/hello/network", bearer)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "10.0.0.7")
	require.NotContains(t, rr.Body.String(), "/repos/octo/hello/commits")

	resp := decodeError(t, rr)
	require.Equal(t, "Failed to generate network graph", resp.Error)
	require.Empty(t, resp.Message)
}

func TestUpstreamErrorAfterClientDisconnect(t *testing.T) {
	s := newTestServer(t, &stubGraphs{err: context.Canceled}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/visualizations/octo/hello/network", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer gho_token")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	require.NotEqual(t, http.StatusInternalServerError, rr.Code)
	require.Empty(t, rr.Body.String())
}

func TestActivityRoutes(t *testing.T) {
	reports := &stubReports{}
	s := newTestServer(t, &stubGraphs{}, reports)
	h := s.Handler()

	rr := do(t, h, http.MethodGet, "/api/visualizations/octo/hello/pull-requests?state=open", bearer)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "open", reports.state)

	rr = do(t, h, http.MethodGet, "/api/visualizations/octo/hello/contributor-activity?timeRange=1y", bearer)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/visualizations/octo/hello/code-frequency", bearer)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"totalAdditions":3`)
}

func TestActivityRoutes_Errors(t *testing.T) {
	pending := &github.Error{Kind: github.ErrStatsPending, StatusCode: http.StatusAccepted}
	s := newTestServer(t, &stubGraphs{}, &stubReports{err: pending})

	rr := do(t, s.Handler(), http.MethodGet, "/api/visualizations/octo/hello/code-frequency", bearer)
	require.Equal(t, http.StatusAccepted, rr.Code)
	var body contracts.PendingResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Equal(t, statsPendingMessage, body.Message)

	s = newTestServer(t, &stubGraphs{}, &stubReports{err: github.ErrUnavailable})
	rr = do(t, s.Handler(), http.MethodGet, "/api/visualizations/octo/hello/pull-requests", bearer)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "Failed to generate pull request visualization", decodeError(t, rr).Error)
}

func TestUnknownAPIPath(t *testing.T) {
	s := newTestServer(t, &stubGraphs{}, nil)
	h := s.Handler()

	for _, path := range []string{"/api/nope", "/api/visualizations/octo/hello/unknown", "/api/visualizations/octo/hello/code-frequency"} {
		rr := do(t, h, http.MethodGet, path, bearer)
		require.Equal(t, http.StatusNotFound, rr.Code, path)
		require.Equal(t, "API endpoint not found", decodeError(t, rr).Error, path)
	}

	rr := do(t, h, http.MethodGet, "/elsewhere", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.NotContains(t, rr.Body.String(), "API endpoint not found")
}

func TestSchemaRoutes(t *testing.T) {
	s := newTestServer(t, &stubGraphs{}, nil)
	h := s.Handler()

	rr := do(t, h, http.MethodGet, "/api/schema/network", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/schema+json", rr.Header().Get("Content-Type"))
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &parsed))
	require.Equal(t, "object", parsed["type"])

	rr = do(t, h, http.MethodGet, "/api/schema", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"network"`)

	rr = do(t, h, http.MethodGet, "/api/schema/bogus", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, &stubGraphs{resp: sampleGraph()}, nil)
	h := s.Handler()

	preflight := map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": "GET",
	}
	rr := do(t, h, http.MethodOptions, "/api/visualizations/octo/hello/network", preflight)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	preflight["Origin"] = "https://evil.example"
	rr = do(t, h, http.MethodOptions, "/api/visualizations/octo/hello/network", preflight)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	headers := map[string]string{"Origin": "http://localhost:3000", "Authorization": "Bearer t"}
	rr = do(t, h, http.MethodGet, "/api/visualizations/octo/hello/network", headers)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rr.Header().Get("Access-Control-Expose-Headers"), "ETag")
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, &stubGraphs{}, nil)
	h := s.Handler()

	rr := do(t, h, http.MethodGet, "/api/health", nil)
	require.Len(t, rr.Header().Get(RequestIDHeader), 36)

	rr = do(t, h, http.MethodGet, "/api/health", map[string]string{RequestIDHeader: "abc-123"})
	require.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, &stubGraphs{}, nil)
	s.SetRateLimit(2, time.Minute)
	h := s.Handler()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/health", nil).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/health", nil).Code)
	rr := do(t, h, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "60", rr.Header().Get("Retry-After"))

	s.SetRateLimit(0, 0)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/health", nil).Code)
}

func TestPanicIsRecovered(t *testing.T) {
	s := newTestServer(t, &stubGraphs{panic: true}, nil)
	rr := do(t, s.Handler(), http.MethodGet, "/api/visualizations/octo/hello/network", bearer)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &stubGraphs{}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
