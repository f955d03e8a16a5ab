// Package dashboard serves the visualization HTTP API.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sergeknystautas/gitviz/internal/api/contracts"
	"github.com/sergeknystautas/gitviz/internal/config"
	"github.com/sergeknystautas/gitviz/internal/github"
	"github.com/sergeknystautas/gitviz/internal/visualize"
)

// NetworkBuilder produces repository network graphs.
type NetworkBuilder interface {
	BuildNetworkGraph(ctx context.Context, cred github.Credential, owner, repo, rangeKey string) (*contracts.NetworkGraphResponse, error)
}

// ActivityReporter produces the pull request, contributor and code frequency
// visualizations.
type ActivityReporter interface {
	PullRequestActivity(ctx context.Context, cred github.Credential, owner, repo, rangeKey, state string) (*contracts.PullRequestActivityResponse, error)
	ContributorActivity(ctx context.Context, cred github.Credential, owner, repo, rangeKey string) (*contracts.ContributorActivityResponse, error)
	CodeFrequency(ctx context.Context, cred github.Credential, owner, repo string) (*contracts.CodeFrequencyResponse, error)
}

// RepositoryBrowser lists repositories and their branches, pull requests,
// commits and contributors.
type RepositoryBrowser interface {
	Repositories(ctx context.Context, cred github.Credential) (*contracts.RepositoryListResponse, error)
	Repository(ctx context.Context, cred github.Credential, owner, repo string) (*contracts.RepositoryDetail, error)
	Branches(ctx context.Context, cred github.Credential, owner, repo string) ([]contracts.BranchInfo, error)
	PullRequests(ctx context.Context, cred github.Credential, owner, repo, state string) ([]contracts.PullRequestInfo, error)
	Commits(ctx context.Context, cred github.Credential, owner, repo string, q visualize.CommitQuery) ([]contracts.CommitInfo, error)
	Contributors(ctx context.Context, cred github.Credential, owner, repo string) ([]contracts.ContributorInfo, error)
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg     *config.Config
	graphs  NetworkBuilder
	reports ActivityReporter
	repos   RepositoryBrowser
	logger  *log.Logger
	version string
	limiter atomic.Pointer[RateLimiter]
	now     func() time.Time
}

// NewServer creates a server. A nil reports disables the activity routes and a
// nil repos disables the repository routes.
func NewServer(cfg *config.Config, graphs NetworkBuilder, reports ActivityReporter, repos RepositoryBrowser, logger *log.Logger, version string) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:     cfg,
		graphs:  graphs,
		reports: reports,
		repos:   repos,
		logger:  logger.WithPrefix("dashboard"),
		version: version,
		now:     time.Now,
	}
	rl := cfg.Settings().RateLimit
	s.SetRateLimit(rl.Requests, rl.Window)
	return s
}

// SetRateLimit replaces the per-IP limiter. requests <= 0 disables limiting.
// Existing buckets are discarded.
func (s *Server) SetRateLimit(requests int, window time.Duration) {
	if requests <= 0 {
		s.limiter.Store(nil)
		return
	}
	s.limiter.Store(NewRateLimiter(requests, window))
}

// Handler builds the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withRequestID)
	r.Use(s.logRequests)
	r.Use(s.cors)
	r.Use(s.rateLimit)

	// Set before Route so the /api subrouter inherits it.
	r.NotFound(s.handleNotFound)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/schema", s.handleSchemaList)
		r.Get("/schema/{label}", s.handleSchema)

		if s.repos != nil {
			r.Route("/repositories", func(r chi.Router) {
				r.Get("/", s.handleRepositories)
				r.Route("/{owner}/{repo}", func(r chi.Router) {
					r.Get("/", s.handleRepository)
					r.Get("/branches", s.handleBranches)
					r.Get("/pulls", s.handlePulls)
					r.Get("/commits", s.handleCommits)
					r.Get("/contributors", s.handleContributors)
				})
			})
		}

		r.Route("/visualizations/{owner}/{repo}", func(r chi.Router) {
			r.Get("/network", s.handleNetwork)
			if s.reports != nil {
				r.Get("/pull-requests", s.handlePullRequests)
				r.Get("/contributor-activity", s.handleContributorActivity)
				r.Get("/code-frequency", s.handleCodeFrequency)
			}
		})
	})
	return r
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully within server.shutdown_timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.Settings().Server.ShutdownTimeout
	s.logger.Info("shutting down", "timeout", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, contracts.ErrorResponse{Error: msg, Message: detail})
}
