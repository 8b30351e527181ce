package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bazelment/agentpipe/session"
)

var replayCmd = &cobra.Command{
	Use:   "replay <trace.jsonl>",
	Short: "Render a recorded side log without running the CLI",
	Long: `Replay feeds the received lines of a side log (or a raw capture of the
CLI's stdout) through the same parser and renderer a live session uses.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, closeLog, err := newLogger()
		if err != nil {
			return err
		}
		defer closeLog()

		r, err := newRenderer(cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		opts := append(cfg.SessionOptions(), session.WithLogger(log))
		outcomes, err := session.Replay(cmd.Context(), f, r, opts...)
		log.Debug("replay finished", "turns", len(outcomes))
		if err != nil {
			return fmt.Errorf("replay %s: %w", args[0], err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
