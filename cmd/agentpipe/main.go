// Command agentpipe drives the Claude CLI over its stream-json protocol and
// renders the response as it streams.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bazelment/agentpipe/config"
	"github.com/bazelment/agentpipe/render"
	"github.com/bazelment/agentpipe/session"
	"github.com/bazelment/agentpipe/tracing"
)

var (
	configPath string
	logFile    string
	cliPath    string
	model      string
	output     string
	verbose    bool
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "agentpipe",
	Short: "Drive the Claude CLI over stream-json",
	Long: `agentpipe launches the Claude CLI in bidirectional stream-json mode,
sends prompts, and renders text, thinking, tool calls, and tool results
as they arrive.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $AGENTPIPE_CONFIG or ~/.config/agentpipe/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file")
	rootCmd.PersistentFlags().StringVar(&cliPath, "cli", "", "Path to the claude binary")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Model to use")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "Output format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging and full tool output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func main() {
	err := rootCmd.Execute()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = tracing.Shutdown(ctx)
	cancel()

	if err != nil {
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(cfg)
	return cfg, nil
}

func applyFlagOverrides(cfg *config.Config) {
	if cliPath != "" {
		cfg.CLIPath = cliPath
	}
	if model != "" {
		cfg.Model = model
	}
	if noColor {
		cfg.NoColor = true
	}
}

// newLogger writes to stderr and, with --log-file, to that file too.
// The returned cleanup closes the file.
func newLogger() (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	cleanup := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		cleanup = func() { f.Close() }
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), cleanup, nil
}

func newRenderer(cfg *config.Config, out io.Writer) (render.Renderer, error) {
	switch output {
	case "text":
		return render.NewTerminal(out, verbose, cfg.NoColor), nil
	case "json":
		return render.NewJSONLines(out), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", output)
	}
}

// newDriver builds an unstarted Driver from cfg.
func newDriver(cfg *config.Config, log *slog.Logger) *session.Driver {
	opts := append(cfg.SessionOptions(), session.WithLogger(log))
	return session.New(opts...)
}
