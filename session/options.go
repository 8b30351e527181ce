package session

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/bazelment/agentpipe/toolmap"
	"github.com/bazelment/agentpipe/transport"
)

// Transport is the line channel to a running CLI. *transport.Process
// implements it; tests substitute fakes.
type Transport interface {
	WriteLine(line []byte) error
	ReadLine(ctx context.Context) ([]byte, error)
	Wait(ctx context.Context) (int, error)
	StderrTail() string
	Close() error
	KillHard() error
}

// Launcher starts a Transport for the given process configuration.
type Launcher func(ctx context.Context, cfg transport.Config) (Transport, error)

func launchProcess(ctx context.Context, cfg transport.Config) (Transport, error) {
	p, err := transport.Start(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Config holds Driver configuration.
type Config struct {
	// Launcher starts the CLI (default: transport.Start).
	Launcher Launcher

	// Decoder decodes tool inputs (default: StrictDecoder).
	Decoder InputDecoder

	Logger *slog.Logger
	Tracer trace.Tracer

	// Env is added to the inherited environment of the CLI.
	Env map[string]string

	// CLIPath is the CLI binary (uses "claude" in PATH if empty).
	CLIPath string

	// WorkDir is the CLI's working directory.
	WorkDir string

	// SideLogPath, when set, records every raw line to a JSONL trace.
	SideLogPath string

	Launch transport.LaunchOptions

	// StderrLines is how many stderr lines are kept for diagnostics.
	StderrLines int

	// PreviewLines and PreviewWidth bound tool result summaries.
	PreviewLines int
	PreviewWidth int

	// ExitWait bounds how long an unexpected EOF waits for the exit code.
	ExitWait time.Duration
}

func defaultConfig() Config {
	return Config{
		Launcher:     launchProcess,
		Decoder:      StrictDecoder{},
		Logger:       slog.New(slog.DiscardHandler),
		StderrLines:  transport.DefaultStderrLines,
		PreviewLines: toolmap.DefaultPreviewLines,
		PreviewWidth: toolmap.DefaultPreviewWidth,
		ExitWait:     2 * time.Second,
	}
}

// Option is a functional option for configuring a Driver.
type Option func(*Config)

// WithCLIPath sets the CLI binary path.
func WithCLIPath(path string) Option {
	return func(c *Config) {
		c.CLIPath = path
	}
}

// WithModel sets the model to use.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Launch.Model = model
	}
}

// WithPermissionMode sets the CLI permission mode.
func WithPermissionMode(mode string) Option {
	return func(c *Config) {
		c.Launch.PermissionMode = mode
	}
}

// WithDisallowedTools forbids the named tools.
func WithDisallowedTools(tools ...string) Option {
	return func(c *Config) {
		c.Launch.DisallowedTools = append(c.Launch.DisallowedTools, tools...)
	}
}

// WithResume continues a previous CLI session.
func WithResume(sessionID string) Option {
	return func(c *Config) {
		c.Launch.Resume = sessionID
	}
}

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Config) {
		c.Launch.SystemPrompt = prompt
	}
}

// WithExtraArgs appends raw CLI arguments.
func WithExtraArgs(args ...string) Option {
	return func(c *Config) {
		c.Launch.ExtraArgs = append(c.Launch.ExtraArgs, args...)
	}
}

// WithEnv adds environment variables for the CLI.
func WithEnv(env map[string]string) Option {
	return func(c *Config) {
		if c.Env == nil {
			c.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			c.Env[k] = v
		}
	}
}

// WithWorkDir sets the CLI's working directory.
func WithWorkDir(dir string) Option {
	return func(c *Config) {
		c.WorkDir = dir
	}
}

// WithSideLog records the raw protocol to path.
func WithSideLog(path string) Option {
	return func(c *Config) {
		c.SideLogPath = path
	}
}

// WithStderrLines sets how many stderr lines are retained.
func WithStderrLines(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.StderrLines = n
		}
	}
}

// WithPreview bounds tool result summaries. Non-positive values keep the
// defaults.
func WithPreview(lines, width int) Option {
	return func(c *Config) {
		if lines > 0 {
			c.PreviewLines = lines
		}
		if width > 0 {
			c.PreviewWidth = width
		}
	}
}

// WithInputDecoder selects how tool inputs are decoded.
func WithInputDecoder(d InputDecoder) Option {
	return func(c *Config) {
		if d != nil {
			c.Decoder = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithTracer sets the tracer used for prompt spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Config) {
		c.Tracer = t
	}
}

// WithLauncher replaces how the CLI is started.
func WithLauncher(l Launcher) Option {
	return func(c *Config) {
		if l != nil {
			c.Launcher = l
		}
	}
}

// WithExitWait bounds how long an unexpected EOF waits for the exit code.
func WithExitWait(d time.Duration) Option {
	return func(c *Config) {
		c.ExitWait = d
	}
}
