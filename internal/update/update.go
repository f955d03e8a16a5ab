// Package update checks whether a newer gitviz release is published.
package update

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sergeknystautas/gitviz/internal/github"
)

const (
	// ReleaseOwner and ReleaseRepo locate the gitviz releases on GitHub.
	ReleaseOwner = "sergeknystautas"
	ReleaseRepo  = "gitviz"
)

// ReleaseSource looks up the latest published release of a repository.
type ReleaseSource interface {
	LatestRelease(ctx context.Context, cred github.Credential, owner, repo string) (github.Release, error)
}

// Result describes the outcome of a check.
type Result struct {
	Current         string
	Latest          string
	URL             string
	UpdateAvailable bool
}

// CheckForUpdate compares current against the latest release. Dev builds
// are never reported as outdated.
func CheckForUpdate(ctx context.Context, src ReleaseSource, cred github.Credential, current string) (Result, error) {
	res := Result{Current: current}

	rel, err := src.LatestRelease(ctx, cred, ReleaseOwner, ReleaseRepo)
	if err != nil {
		return res, fmt.Errorf("failed to check for updates: %w", err)
	}
	res.Latest = strings.TrimPrefix(rel.TagName, "v")
	res.URL = rel.HTMLURL

	if current == "" || current == "dev" {
		return res, nil
	}

	vLatest, err := semver.NewVersion(rel.TagName)
	if err != nil {
		return res, fmt.Errorf("failed to parse latest version %q: %w", rel.TagName, err)
	}
	vCurrent, err := semver.NewVersion(current)
	if err != nil {
		return res, fmt.Errorf("failed to parse current version %q: %w", current, err)
	}

	res.UpdateAvailable = vLatest.GreaterThan(vCurrent)
	return res, nil
}
