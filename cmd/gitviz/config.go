package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sergeknystautas/gitviz/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the gitviz config file.",
	}
	cmd.AddCommand(newConfigShowCmd(opts), newConfigInitCmd())
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as YAML.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := opts.load()
			if err != nil {
				return err
			}
			data, err := s.YAML()
			if err != nil {
				return err
			}
			if p := cfg.Path(); p != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", p)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var (
		path     string
		defaults bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a new config file, prompting for the common settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil && !force {
				if defaults || !term.IsTerminal(int(os.Stdin.Fd())) {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
				overwrite := false
				confirm := huh.NewConfirm().
					Title(fmt.Sprintf("%s already exists. Overwrite?", path)).
					Value(&overwrite)
				if err := confirm.Run(); err != nil {
					return formError(err)
				}
				if !overwrite {
					return nil
				}
			}

			s := config.Defaults()
			if !defaults && term.IsTerminal(int(os.Stdin.Fd())) {
				if err := promptSettings(&s); err != nil {
					return formError(err)
				}
			}
			if err := config.WriteFile(path, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", config.DefaultFileName, "file to write")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "write defaults without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// promptSettings edits s in place through an interactive form.
func promptSettings(s *config.Settings) error {
	origins := strings.Join(s.CORS.AllowedOrigins, ",")
	pageSize := strconv.Itoa(s.GitHub.PageSize)
	requests := strconv.Itoa(s.RateLimit.Requests)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Value(&s.Server.Addr).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return errors.New("address is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("GitHub API URL").
				Value(&s.GitHub.APIURL),
			huh.NewInput().
				Title("Page size").
				Description("Items fetched per upstream list call (1-100).").
				Value(&pageSize).
				Validate(validatePageSize),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Allowed CORS origins").
				Description("Comma separated.").
				Value(&origins),
			huh.NewInput().
				Title("Requests per client per rate limit window").
				Description("0 disables rate limiting.").
				Value(&requests).
				Validate(validateNonNegative),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&s.Log.Level),
			huh.NewSelect[string]().
				Title("Log format").
				Options(huh.NewOptions("text", "json")...).
				Value(&s.Log.Format),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	s.CORS.AllowedOrigins = splitOrigins(origins)
	s.GitHub.PageSize, _ = strconv.Atoi(strings.TrimSpace(pageSize))
	s.RateLimit.Requests, _ = strconv.Atoi(strings.TrimSpace(requests))
	return nil
}

func validatePageSize(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 || n > 100 {
		return errors.New("enter a number between 1 and 100")
	}
	return nil
}

func validateNonNegative(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return errors.New("enter a non-negative number")
	}
	return nil
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func formError(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return errors.New("aborted")
	}
	return err
}
