package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"

	"github.com/bazelment/agentpipe/config"
	"github.com/bazelment/agentpipe/render"
	"github.com/bazelment/agentpipe/session"
)

const replHelp = `Commands:
  /session   print the CLI session id
  /restart   start a new CLI process with the current config
  /help      show this help
  /exit      quit (also Ctrl-D)
Ctrl-C interrupts a running turn.`

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Chat with one long-lived CLI process",
	Long: `Start an interactive session. Each line is sent as a prompt to the same
CLI process, so the conversation keeps its context. Edits to the config file
are picked up by /restart.`,
	Args: cobra.NoArgs,
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

		rl, err := readline.NewFromConfig(&readline.Config{
			Prompt:          "> ",
			HistoryFile:     historyPath(),
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return fmt.Errorf("init line editor: %w", err)
		}
		defer rl.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		repl := &repl{cfg: cfg, log: log, r: r, out: cmd.OutOrStdout()}
		go repl.watchConfig(ctx, resolveConfigPath())

		if err := repl.restart(ctx); err != nil {
			return err
		}
		defer func() { repl.driver.Stop() }()

		for {
			line, err := rl.ReadLine()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}

			line = strings.TrimSpace(line)
			switch line {
			case "":
				continue
			case "/exit", "/quit":
				return nil
			case "/help":
				fmt.Fprintln(repl.out, replHelp)
				continue
			case "/session":
				fmt.Fprintln(repl.out, repl.driver.SessionID())
				continue
			case "/restart":
				if err := repl.restart(ctx); err != nil {
					fmt.Fprintf(repl.out, "restart failed: %v\n", err)
				}
				continue
			}

			if err := repl.prompt(ctx, line); err != nil {
				var exitErr *session.ProcessExitedError
				if !errors.As(err, &exitErr) {
					return err
				}
				log.Info("CLI exited, starting a new process")
				if err := repl.restart(ctx); err != nil {
					return err
				}
			}
		}
	},
}

type repl struct {
	out    io.Writer
	r      render.Renderer
	driver *session.Driver
	cfg    *config.Config
	log    *slog.Logger
	mu     sync.Mutex
}

// prompt runs one turn. Ctrl-C cancels only this turn.
func (s *repl) prompt(ctx context.Context, text string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	_, err := s.driver.PromptAndRespond(ctx, text, s.r)
	return err
}

// restart replaces the CLI process. The new process resumes the previous
// conversation when one was established.
func (s *repl) restart(ctx context.Context) error {
	s.mu.Lock()
	cfg := *s.cfg
	s.mu.Unlock()

	var opts []session.Option
	if s.driver != nil {
		if id := s.driver.SessionID(); id != "" {
			opts = append(opts, session.WithResume(id))
		}
		_ = s.driver.Stop()
	}

	d := session.New(append(append(cfg.SessionOptions(), session.WithLogger(s.log)), opts...)...)
	if err := d.Start(ctx); err != nil {
		return err
	}
	s.driver = d
	return nil
}

func (s *repl) watchConfig(ctx context.Context, path string) {
	if path == "" {
		return
	}
	err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
		if err != nil {
			s.log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		applyFlagOverrides(cfg)
		s.mu.Lock()
		s.cfg = cfg
		s.mu.Unlock()
		s.log.Info("config reloaded; /restart to apply", "path", path)
	})
	if err != nil {
		s.log.Debug("config watch unavailable", "path", path, "error", err)
	}
}

func historyPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "agentpipe")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

func init() {
	rootCmd.AddCommand(replCmd)
}
