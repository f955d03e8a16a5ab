package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sergeknystautas/gitviz/internal/logging"
)

// isolate points the .env layer at an empty temp dir for the duration of t.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := DotEnvPath
	DotEnvPath = filepath.Join(dir, ".env")
	t.Cleanup(func() { DotEnvPath = old })
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg.Settings())
	require.Equal(t, "", cfg.Path())
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "gitviz.yaml")
	writeFile(t, path, `
server:
  addr: ":8080"
github:
  page_size: 30
  request_timeout: 2s
cors:
  allowed_origins:
    - https://viz.example.com
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	s := cfg.Settings()
	require.Equal(t, ":8080", s.Server.Addr)
	require.Equal(t, 5*time.Second, s.Server.ShutdownTimeout)
	require.Equal(t, 30, s.GitHub.PageSize)
	require.Equal(t, 2*time.Second, s.GitHub.RequestTimeout)
	require.Equal(t, "https://api.github.com", s.GitHub.APIURL)
	require.Equal(t, []string{"https://viz.example.com"}, s.CORS.AllowedOrigins)
	require.Equal(t, "json", s.Log.Format)
	require.Equal(t, 30, cfg.Settings().GitHub.PageSize)
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "gitviz.yaml")
	writeFile(t, path, "github:\n  page_size: 30\nserver:\n  addr: \":7000\"\n")
	writeFile(t, DotEnvPath, "GITVIZ_GITHUB_PAGE_SIZE=40\nGITVIZ_LOG_LEVEL=warn\nGITVIZ_RATE_LIMIT_REQUESTS=7\n")

	// Real environment beats .env, which beats the file.
	t.Setenv("GITVIZ_GITHUB_PAGE_SIZE", "50")
	t.Setenv("GITVIZ_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("GITVIZ_RATE_LIMIT_WINDOW", "30s")
	// godotenv.Load writes into the process env; make sure the test cleans up.
	t.Setenv("GITVIZ_LOG_LEVEL", "")
	os.Unsetenv("GITVIZ_LOG_LEVEL")
	t.Setenv("GITVIZ_RATE_LIMIT_REQUESTS", "")
	os.Unsetenv("GITVIZ_RATE_LIMIT_REQUESTS")

	cfg, err := Load(path)
	require.NoError(t, err)

	s := cfg.Settings()
	require.Equal(t, 50, s.GitHub.PageSize)
	require.Equal(t, "warn", s.Log.Level)
	require.Equal(t, 7, s.RateLimit.Requests)
	require.Equal(t, 30*time.Second, s.RateLimit.Window)
	require.Equal(t, ":7000", s.Server.Addr)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, s.CORS.AllowedOrigins)
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, ErrConfigNotFound)

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "github: [unclosed\n")
	_, err = Load(bad)
	require.ErrorIs(t, err, ErrInvalidConfig)

	invalid := filepath.Join(dir, "invalid.yaml")
	writeFile(t, invalid, "github:\n  page_size: 500\n")
	_, err = Load(invalid)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Settings) {}},
		{name: "empty addr", mutate: func(s *Settings) { s.Server.Addr = "" }, wantErr: true},
		{name: "zero shutdown timeout", mutate: func(s *Settings) { s.Server.ShutdownTimeout = 0 }, wantErr: true},
		{name: "page size zero", mutate: func(s *Settings) { s.GitHub.PageSize = 0 }, wantErr: true},
		{name: "page size too large", mutate: func(s *Settings) { s.GitHub.PageSize = 101 }, wantErr: true},
		{name: "page size max", mutate: func(s *Settings) { s.GitHub.PageSize = 100 }},
		{name: "negative request timeout", mutate: func(s *Settings) { s.GitHub.RequestTimeout = -time.Second }, wantErr: true},
		{name: "rate limit without window", mutate: func(s *Settings) { s.RateLimit.Window = 0 }, wantErr: true},
		{name: "rate limit disabled", mutate: func(s *Settings) { s.RateLimit.Requests = 0; s.RateLimit.Window = 0 }},
		{name: "unknown level", mutate: func(s *Settings) { s.Log.Level = "verbose" }, wantErr: true},
		{name: "unknown format", mutate: func(s *Settings) { s.Log.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "gitviz.yaml")

	want := Defaults()
	want.GitHub.PageSize = 25
	want.RateLimit.Window = 90 * time.Second
	require.NoError(t, WriteFile(path, want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "window: 1m30s")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want, cfg.Settings())
}

func TestResolvePath(t *testing.T) {
	dir := isolate(t)
	t.Chdir(dir)
	t.Setenv("GITVIZ_CONFIG", "")

	require.Equal(t, "explicit.yaml", ResolvePath("explicit.yaml"))
	require.Equal(t, "", ResolvePath(""))

	writeFile(t, filepath.Join(dir, DefaultFileName), "log:\n  level: info\n")
	require.Equal(t, DefaultFileName, ResolvePath(""))

	t.Setenv("GITVIZ_CONFIG", "/etc/gitviz.yaml")
	require.Equal(t, "/etc/gitviz.yaml", ResolvePath(""))
}

func TestSettingsReturnsCopy(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)

	s := cfg.Settings()
	s.CORS.AllowedOrigins[0] = "mutated"
	require.NotEqual(t, "mutated", cfg.GetAllowedOrigins()[0])
}

func TestWatcherReloads(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "gitviz.yaml")
	writeFile(t, path, "github:\n  page_size: 30\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	reloaded := make(chan Settings, 1)
	w, err := NewWatcher(cfg, 20*time.Millisecond, logging.Discard(), func(s Settings) {
		select {
		case reloaded <- s:
		default:
		}
	})
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	writeFile(t, path, "github:\n  page_size: 55\n")

	select {
	case s := <-reloaded:
		require.Equal(t, 55, s.GitHub.PageSize)
		require.Equal(t, 55, cfg.Settings().GitHub.PageSize)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherKeepsSettingsOnBadReload(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "gitviz.yaml")
	writeFile(t, path, "github:\n  page_size: 30\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = NewWatcher(&Config{}, time.Millisecond, logging.Discard(), nil)
	require.ErrorIs(t, err, ErrConfigNotFound)

	writeFile(t, path, "github:\n  page_size: 0\n")
	_, err = cfg.Reload()
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.Equal(t, 30, cfg.Settings().GitHub.PageSize)
}
