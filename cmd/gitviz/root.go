package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sergeknystautas/gitviz/internal/config"
	"github.com/sergeknystautas/gitviz/internal/github"
	"github.com/sergeknystautas/gitviz/internal/logging"
	"github.com/sergeknystautas/gitviz/internal/version"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "gitviz",
		Short: "Visualize GitHub repository history as commit and branch graphs.",
		Long: `gitviz builds network graphs and activity reports for GitHub repositories.
Run "gitviz serve" for the HTTP API or "gitviz graph OWNER/REPO" for a one-off graph.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $GITVIZ_CONFIG or ./gitviz.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newGraphCmd(opts),
		newConfigCmd(opts),
		newSchemaCmd(),
		newVersionCmd(opts),
	)
	return root
}

// load resolves and reads the config file, applying the --log-level override.
func (o *rootOptions) load() (*config.Config, config.Settings, error) {
	cfg, err := config.Load(config.ResolvePath(o.configPath))
	if err != nil {
		return nil, config.Settings{}, err
	}
	s := cfg.Settings()
	if o.logLevel != "" {
		s.Log.Level = o.logLevel
	}
	return cfg, s, nil
}

func newLogger(s config.Settings) (*log.Logger, error) {
	return logging.New(logging.Options{Level: s.Log.Level, Format: s.Log.Format})
}

func newGitHubClient(s config.Settings, logger *log.Logger) *github.Client {
	return github.NewClient(github.Options{
		BaseURL:   s.GitHub.APIURL,
		PageSize:  s.GitHub.PageSize,
		Timeout:   s.GitHub.RequestTimeout,
		UserAgent: "gitviz/" + version.Version,
		Logger:    logger,
	})
}
