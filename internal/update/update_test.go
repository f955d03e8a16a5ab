package update

import (
	"context"
	"errors"
	"testing"

	"github.com/sergeknystautas/gitviz/internal/github"
	"github.com/sergeknystautas/gitviz/internal/github/githubtest"
)

func TestCheckForUpdate(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		tag        string
		want       bool
		wantErr    bool
		wantLatest string
	}{
		{name: "newer release", current: "1.2.0", tag: "v1.3.0", want: true, wantLatest: "1.3.0"},
		{name: "same release", current: "1.3.0", tag: "v1.3.0", want: false, wantLatest: "1.3.0"},
		{name: "older release", current: "2.0.0", tag: "v1.9.9", want: false, wantLatest: "1.9.9"},
		{name: "prerelease current", current: "1.3.0-rc.1", tag: "v1.3.0", want: true, wantLatest: "1.3.0"},
		{name: "dev build", current: "dev", tag: "v9.9.9", want: false, wantLatest: "9.9.9"},
		{name: "bad tag", current: "1.0.0", tag: "latest", wantErr: true},
		{name: "bad current", current: "banana", tag: "v1.0.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &githubtest.Fake{Release: github.Release{TagName: tt.tag, HTMLURL: "https://example.com/r"}}
			res, err := CheckForUpdate(context.Background(), f, "", tt.current)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", res)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckForUpdate() error = %v", err)
			}
			if res.UpdateAvailable != tt.want {
				t.Errorf("UpdateAvailable = %v, want %v", res.UpdateAvailable, tt.want)
			}
			if res.Latest != tt.wantLatest {
				t.Errorf("Latest = %q, want %q", res.Latest, tt.wantLatest)
			}
		})
	}
}

func TestCheckForUpdateUsesReleaseRepo(t *testing.T) {
	f := &githubtest.Fake{Release: github.Release{TagName: "v1.0.0"}}
	if _, err := CheckForUpdate(context.Background(), f, "tok", "1.0.0"); err != nil {
		t.Fatalf("CheckForUpdate() error = %v", err)
	}
	calls := f.Calls()
	if len(calls) != 1 || calls[0].Owner != ReleaseOwner || calls[0].Repo != ReleaseRepo {
		t.Errorf("unexpected calls: %+v", calls)
	}
	if calls[0].Credential != "tok" {
		t.Errorf("credential not forwarded")
	}
}

func TestCheckForUpdateUpstreamError(t *testing.T) {
	f := &githubtest.Fake{Errors: map[string]error{githubtest.LatestRelease: github.ErrNotFound}}
	_, err := CheckForUpdate(context.Background(), f, "", "1.0.0")
	if !errors.Is(err, github.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
