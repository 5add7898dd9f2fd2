package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"motionarena/command"
	"motionarena/server"
)

func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check [notation...]",
		Short: "Validate command notations, or the configured command table when none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				var errs error
				for _, text := range args {
					c, err := command.Parse(text)
					if err != nil {
						errs = multierr.Append(errs, fmt.Errorf("%q: %w", text, err))
						continue
					}
					fmt.Fprintf(out, "%s\t%d steps\n", c, c.Len())
				}
				return errs
			}

			cfg, err := server.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			table, err := loadTable(cfg)
			if err != nil {
				for _, e := range multierr.Errors(err) {
					fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %v\n", e)
				}
				return fmt.Errorf("%d invalid commands", len(multierr.Errors(err)))
			}
			for _, b := range table.Bindings() {
				buffer, hold := b.Defaults(cfg.Judge)
				fmt.Fprintf(out, "%-20s %-30s span=%d\n", b.Name, b.Command, b.Command.Span(buffer, hold))
			}
			return nil
		},
	}
}
