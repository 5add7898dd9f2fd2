package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"motionarena/command"
	"motionarena/replay"
	"motionarena/server"
)

func newJudgeCmd(configPath *string) *cobra.Command {
	var (
		notation string
		name     string
		frames   string
		buffer   uint32
		hold     uint32
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Judge a recorded frame history against a command",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := server.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			def := cfg.Judge
			if cmd.Flags().Changed("buffer") {
				def.Buffer = buffer
			}
			if cmd.Flags().Changed("hold") {
				def.Hold = hold
			}

			var c *command.Command
			switch {
			case notation != "" && name != "":
				return fmt.Errorf("--command and --name are mutually exclusive")
			case notation != "":
				if c, err = command.Parse(notation); err != nil {
					return err
				}
			case name != "":
				table, err := loadTable(cfg)
				if err != nil {
					return err
				}
				b, err := table.Lookup(name)
				if err != nil {
					return err
				}
				c = b.Command
				def.Buffer, def.Hold = b.Defaults(def)
			default:
				return fmt.Errorf("one of --command or --name is required")
			}

			r, closeFunc, err := openFrames(frames)
			if err != nil {
				return err
			}
			defer func() { _ = closeFunc() }()
			inputs, err := replay.Read(r)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			matched, results := c.Explain(inputs, def.Buffer, def.Hold)
			if verbose {
				for _, res := range results {
					fmt.Fprintf(out, "%-12s found=%-5t position=%-4d run=%-4d ok=%t\n",
						res.Step, res.Found, res.Position, res.Run, res.OK)
				}
			}
			if !matched {
				fmt.Fprintf(out, "no match: %s (%d frames)\n", c, len(inputs))
				return errNoMatch
			}
			fmt.Fprintf(out, "match: %s (%d frames)\n", c, len(inputs))
			return nil
		},
	}
	cmd.Flags().StringVar(&notation, "command", "", "command notation, e.g. \"h4(60)[10] > p6 > pC\"")
	cmd.Flags().StringVar(&name, "name", "", "name of a command in the configured table")
	cmd.Flags().StringVarP(&frames, "frames", "f", "-", "frame recording file, - for stdin")
	cmd.Flags().Uint32Var(&buffer, "buffer", 10, "default buffer frames")
	cmd.Flags().Uint32Var(&hold, "hold", 10, "default hold frames")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-step results")
	return cmd
}

func openFrames(path string) (io.Reader, func() error, error) {
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening file %s: %w", path, err)
	}
	return f, f.Close, nil
}
