package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sergeknystautas/gitviz/internal/github"
	"github.com/sergeknystautas/gitviz/internal/update"
	"github.com/sergeknystautas/gitviz/internal/version"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the gitviz version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gitviz %s\n", version.Version)
			if !check {
				return nil
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

			// Releases are public; the token only raises the rate limit.
			cred := github.Credential(os.Getenv(TokenEnv))
			res, err := update.CheckForUpdate(cmd.Context(), newGitHubClient(s, logger), cred, version.Version)
			if err != nil {
				return err
			}
			return writeUpdateResult(out, res)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}

func writeUpdateResult(w io.Writer, res update.Result) error {
	var err error
	switch {
	case version.IsDev():
		_, err = fmt.Fprintf(w, "latest release is %s (development build)\n", res.Latest)
	case res.UpdateAvailable:
		_, err = fmt.Fprintf(w, "update available: %s -> %s\n  %s\n", res.Current, res.Latest, res.URL)
	default:
		_, err = fmt.Fprintln(w, "up to date")
	}
	return err
}
