package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var runSideLog string

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Send one prompt and render the response",
	Long: `Send a single prompt to a fresh CLI process, render the response, and
exit. Without an argument the prompt is read from stdin. Ctrl-C interrupts
the turn; the command exits non-zero unless the turn succeeded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, err := readPrompt(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runSideLog != "" {
			cfg.SideLog = runSideLog
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

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d := newDriver(cfg, log)
		if err := d.Start(ctx); err != nil {
			return err
		}
		defer d.Stop()

		out, err := d.PromptAndRespond(ctx, prompt, r)
		if err != nil {
			return err
		}
		if !out.Success() {
			return fmt.Errorf("turn ended %s", out.State)
		}
		log.Debug("turn complete",
			"session_id", out.SessionID,
			"num_turns", out.NumTurns,
			"cost_usd", out.CostUSD,
			"tool_calls", out.ToolCount)
		return nil
	},
}

func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("empty prompt")
	}
	return prompt, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runSideLog, "side-log", "", "Record the raw protocol to this JSONL file")
}
