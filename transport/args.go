package transport

// DefaultPermissionMode is passed to the CLI when LaunchOptions leaves it empty.
const DefaultPermissionMode = "acceptEdits"

// LaunchOptions selects the CLI flags for a streaming session.
type LaunchOptions struct {
	Model           string
	PermissionMode  string
	Resume          string
	SystemPrompt    string
	DisallowedTools []string
	ExtraArgs       []string
}

// BuildArgs returns the argument list for a bidirectional stream-json
// session. The fixed flags come first, caller extras last.
func BuildArgs(opts LaunchOptions) []string {
	args := []string{
		"--print",
		"--input-format", "stream-json",
		"--output-format", "stream-json",
		"--verbose",
		"--include-partial-messages",
	}

	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}

	mode := opts.PermissionMode
	if mode == "" {
		mode = DefaultPermissionMode
	}
	args = append(args, "--permission-mode", mode)

	for _, tool := range opts.DisallowedTools {
		args = append(args, "--disallowed-tools", tool)
	}

	if opts.Resume != "" {
		args = append(args, "--resume", opts.Resume)
	}

	if opts.SystemPrompt != "" {
		args = append(args, "--system-prompt", opts.SystemPrompt)
	}

	// Escape hatch for flags not modelled above.
	args = append(args, opts.ExtraArgs...)

	return args
}
