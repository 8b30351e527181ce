// Package config loads agentpipe settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/bazelment/agentpipe/session"
	"github.com/bazelment/agentpipe/toolmap"
	"github.com/bazelment/agentpipe/transport"
)

// EnvPath names an environment variable that overrides DefaultPath.
const EnvPath = "AGENTPIPE_CONFIG"

var permissionModes = []string{"default", "acceptEdits", "plan", "bypassPermissions"}

// Config holds user settings. Zero values mean "use the default".
type Config struct {
	Env              map[string]string `yaml:"env,omitempty" jsonschema:"description=Extra environment variables for the CLI process"`
	CLIPath          string            `yaml:"cli_path,omitempty" jsonschema:"description=Path to the agent CLI binary"`
	Model            string            `yaml:"model,omitempty" jsonschema:"description=Model passed with --model"`
	PermissionMode   string            `yaml:"permission_mode,omitempty" jsonschema:"enum=default,enum=acceptEdits,enum=plan,enum=bypassPermissions"`
	WorkDir          string            `yaml:"work_dir,omitempty" jsonschema:"description=Working directory of the CLI process"`
	SideLog          string            `yaml:"side_log,omitempty" jsonschema:"description=Record the raw protocol to this JSONL file"`
	DisallowedTools  []string          `yaml:"disallowed_tools,omitempty"`
	ExtraArgs        []string          `yaml:"extra_args,omitempty" jsonschema:"description=Raw arguments appended to the CLI command line"`
	StderrLines      int               `yaml:"stderr_lines,omitempty" jsonschema:"minimum=0"`
	PreviewLines     int               `yaml:"preview_lines,omitempty" jsonschema:"minimum=0"`
	PreviewWidth     int               `yaml:"preview_width,omitempty" jsonschema:"minimum=0"`
	LenientToolInput bool              `yaml:"lenient_tool_input,omitempty" jsonschema:"description=Repair truncated tool inputs instead of dropping them"`
	NoColor          bool              `yaml:"no_color,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		PermissionMode: transport.DefaultPermissionMode,
		StderrLines:    transport.DefaultStderrLines,
		PreviewLines:   toolmap.DefaultPreviewLines,
		PreviewWidth:   toolmap.DefaultPreviewWidth,
	}
}

// DefaultPath returns $AGENTPIPE_CONFIG, or ~/.config/agentpipe/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "agentpipe", "config.yaml")
}

// Load reads path on top of Default. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.PermissionMode != "" && !slices.Contains(permissionModes, c.PermissionMode) {
		errs = append(errs, fmt.Errorf("permission_mode %q is not one of %v", c.PermissionMode, permissionModes))
	}
	if c.StderrLines < 0 {
		errs = append(errs, errors.New("stderr_lines must not be negative"))
	}
	if c.PreviewLines < 0 {
		errs = append(errs, errors.New("preview_lines must not be negative"))
	}
	if c.PreviewWidth < 0 {
		errs = append(errs, errors.New("preview_width must not be negative"))
	}
	return errors.Join(errs...)
}

// SessionOptions converts the settings into session options.
func (c *Config) SessionOptions() []session.Option {
	opts := []session.Option{
		session.WithPermissionMode(c.PermissionMode),
		session.WithStderrLines(c.StderrLines),
		session.WithPreview(c.PreviewLines, c.PreviewWidth),
	}
	if c.CLIPath != "" {
		opts = append(opts, session.WithCLIPath(c.CLIPath))
	}
	if c.Model != "" {
		opts = append(opts, session.WithModel(c.Model))
	}
	if len(c.DisallowedTools) > 0 {
		opts = append(opts, session.WithDisallowedTools(c.DisallowedTools...))
	}
	if len(c.ExtraArgs) > 0 {
		opts = append(opts, session.WithExtraArgs(c.ExtraArgs...))
	}
	if len(c.Env) > 0 {
		opts = append(opts, session.WithEnv(c.Env))
	}
	if c.WorkDir != "" {
		opts = append(opts, session.WithWorkDir(c.WorkDir))
	}
	if c.SideLog != "" {
		opts = append(opts, session.WithSideLog(c.SideLog))
	}
	if c.LenientToolInput {
		opts = append(opts, session.WithInputDecoder(session.LenientDecoder{}))
	}
	return opts
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
