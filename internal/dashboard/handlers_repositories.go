package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sergeknystautas/gitviz/internal/visualize"
)

// handleRepositories handles GET /api/repositories.
func (s *Server) handleRepositories(w http.ResponseWriter, r *http.Request) {
	cred, ok := requireCredential(w, r)
	if !ok {
		return
	}
	resp, err := s.repos.Repositories(r.Context(), cred)
	if err != nil {
		s.writeUpstreamError(w, r, "Failed to fetch repositories", err)
		return
	}
	s.writeCacheable(w, r, resp)
}

// handleRepository handles GET /api/repositories/{owner}/{repo}.
func (s *Server) handleRepository(w http.ResponseWriter, r *http.Request) {
	cred, ok := requireCredential(w, r)
	if !ok {
		return
	}
	resp, err := s.repos.Repository(r.Context(), cred, chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	if err != nil {
		s.writeUpstreamError(w, r, "Failed to fetch repository details", err)
		return
	}
	s.writeCacheable(w, r, resp)
}

func (s *Server) handleBranches(w http.ResponseWriter, r *http.Request) {
	cred, ok := requireCredential(w, r)
	if !ok {
		return
	}
	resp, err := s.repos.Branches(r.Context(), cred, chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	if err != nil {
		s.writeUpstreamError(w, r, "Failed to fetch branches", err)
		return
	}
	s.writeCacheable(w, r, resp)
}

// handlePulls handles GET /api/repositories/{owner}/{repo}/pulls?state=.
func (s *Server) handlePulls(w http.ResponseWriter, r *http.Request) {
	cred, ok := requireCredential(w, r)
	if !ok {
		return
	}
	resp, err := s.repos.PullRequests(r.Context(), cred, chi.URLParam(r, "owner"), chi.URLParam(r, "repo"), r.URL.Query().Get("state"))
	if err != nil {
		s.writeUpstreamError(w, r, "Failed to fetch pull requests", err)
		return
	}
	s.writeCacheable(w, r, resp)
}

// handleCommits handles GET /api/repositories/{owner}/{repo}/commits with the
// optional sha, path, since, until and per_page filters.
func (s *Server) handleCommits(w http.ResponseWriter, r *http.Request) {
	cred, ok := requireCredential(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	resp, err := s.repos.Commits(r.Context(), cred, chi.URLParam(r, "owner"), chi.URLParam(r, "repo"), visualize.CommitQuery{
		SHA:     q.Get("sha"),
		Path:    q.Get("path"),
		Since:   q.Get("since"),
		Until:   q.Get("until"),
		PerPage: q.Get("per_page"),
	})
	if err != nil {
		s.writeUpstreamError(w, r, "Failed to fetch commits", err)
		return
	}
	s.writeCacheable(w, r, resp)
}

func (s *Server) handleContributors(w http.ResponseWriter, r *http.Request) {
	cred, ok := requireCredential(w, r)
	if !ok {
		return
	}
	resp, err := s.repos.Contributors(r.Context(), cred, chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	if err != nil {
		s.writeUpstreamError(w, r, "Failed to fetch contributors", err)
		return
	}
	s.writeCacheable(w, r, resp)
}
