package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sergeknystautas/gitviz/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [LABEL]",
		Short: "List response schemas, or print the JSON schema for one.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, label := range schema.Labels() {
					fmt.Fprintln(out, label)
				}
				return nil
			}
			s, err := schema.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s)
			return nil
		},
	}
}
