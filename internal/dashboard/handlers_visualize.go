package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/sergeknystautas/gitviz/internal/api/contracts"
	"github.com/sergeknystautas/gitviz/internal/github"
	"github.com/sergeknystautas/gitviz/internal/visualize"
)

const statsPendingMessage = "GitHub is computing statistics. Please try again in a moment."

// handleNetwork handles GET /api/visualizations/{owner}/{repo}/network.
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	cred, ok := requireCredential(w, r)
	if !ok {
		return
	}
	owner, repo := chi.URLParam(r, "owner"), chi.URLParam(r, "repo")

	resp, err := s.graphs.BuildNetworkGraph(r.Context(), cred, owner, repo, r.URL.Query().Get("timeRange"))
	if err != nil {
		s.writeUpstreamError(w, r, "Failed to generate network graph", err)
		return
	}
	s.writeCacheable(w, r, resp)
}

// handlePullRequests handles GET /api/visualizations/{owner}/{repo}/pull-requests.
func (s *Server) handlePullRequests(w http.ResponseWriter, r *http.Request) {
	cred, ok := requireCredential(w, r)
	if !ok {
		return
	}
	owner, repo := chi.URLParam(r, "owner"), chi.URLParam(r, "repo")
	q := r.URL.Query()

	resp, err := s.reports.PullRequestActivity(r.Context(), cred, owner, repo, q.Get("timeRange"), q.Get("state"))
	if err != nil {
		s.writeUpstreamError(w, r, "Failed to generate pull request visualization", err)
		return
	}
	s.writeCacheable(w, r, resp)
}

// handleContributorActivity handles GET /api/visualizations/{owner}/{repo}/contributor-activity.
func (s *Server) handleContributorActivity(w http.ResponseWriter, r *http.Request) {
	cred, ok := requireCredential(w, r)
	if !ok {
		return
	}
	owner, repo := chi.URLParam(r, "owner"), chi.URLParam(r, "repo")

	resp, err := s.reports.ContributorActivity(r.Context(), cred, owner, repo, r.URL.Query().Get("timeRange"))
	if err != nil {
		s.writeUpstreamError(w, r, "Failed to generate contributor activity", err)
		return
	}
	s.writeCacheable(w, r, resp)
}

// handleCodeFrequency handles GET /api/visualizations/{owner}/{repo}/code-frequency.
func (s *Server) handleCodeFrequency(w http.ResponseWriter, r *http.Request) {
	cred, ok := requireCredential(w, r)
	if !ok {
		return
	}
	owner, repo := chi.URLParam(r, "owner"), chi.URLParam(r, "repo")

	resp, err := s.reports.CodeFrequency(r.Context(), cred, owner, repo)
	if err != nil {
		s.writeUpstreamError(w, r, "Failed to generate code frequency visualization", err)
		return
	}
	s.writeCacheable(w, r, resp)
}

// requireCredential extracts the bearer token or writes a 401.
func requireCredential(w http.ResponseWriter, r *http.Request) (github.Credential, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		writeJSONError(w, http.StatusUnauthorized, "Authorization header required", "")
		return "", false
	}
	scheme, token, _ := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !strings.EqualFold(scheme, "Bearer") || token == "" {
		writeJSONError(w, http.StatusUnauthorized, "Bearer token required", "")
		return "", false
	}
	return github.Credential(token), true
}

// writeUpstreamError maps a builder or client error to its HTTP response.
// failure is the 500 message; internal error text only goes to the log.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, failure string, err error) {
	if r.Context().Err() != nil {
		s.logger.Debug("client went away",
			"path", r.URL.Path,
			"request_id", RequestID(r.Context()),
			"err", err,
		)
		return
	}
	switch {
	case errors.Is(err, visualize.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, github.ErrStatsPending):
		writeJSON(w, http.StatusAccepted, contracts.PendingResponse{Message: statsPendingMessage})
	case errors.Is(err, github.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "Repository not found", "")
	case errors.Is(err, github.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token", "")
	default:
		s.logger.Error("upstream request failed",
			"failure", failure,
			"path", r.URL.Path,
			"request_id", RequestID(r.Context()),
			"err", err,
		)
		writeJSONError(w, http.StatusInternalServerError, failure, "")
	}
}

// writeCacheable writes v with an ETag derived from its content and answers
// a matching If-None-Match with 304.
func (s *Server) writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, err := contentETag(v)
	if err != nil {
		s.logger.Warn("etag hash failed", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusOK, v)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func contentETag(v any) (string, error) {
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`"%016x"`, h), nil
}

// etagMatches implements the If-None-Match list comparison.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
