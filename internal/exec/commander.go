// Package exec runs external commands behind an interface so callers can be
// tested without touching the real git binary.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Commander executes a command in dir and returns its combined output.
type Commander interface {
	Run(ctx context.Context, dir string, command string, args ...string) ([]byte, error)
}

// RealCommander runs commands on the host.
type RealCommander struct {
	// Env is appended to the current process environment.
	Env []string
}

// Run executes the command using exec.CommandContext.
func (c *RealCommander) Run(ctx context.Context, dir string, command string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd.CombinedOutput()
}

// CommandError is returned when a command exits unsuccessfully. Output holds
// whatever the command printed, trimmed.
type CommandError struct {
	Command string
	Args    []string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Command, strings.Join(e.Args, " "), e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// CommandExecutor wraps a Commander with the calling conventions used for git.
type CommandExecutor struct {
	commander Commander
}

// NewCommandExecutor creates a new CommandExecutor with the given Commander.
// If commander is nil, a RealCommander is used.
func NewCommandExecutor(commander Commander) *CommandExecutor {
	if commander == nil {
		commander = &RealCommander{Env: []string{"GIT_TERMINAL_PROMPT=0"}}
	}
	return &CommandExecutor{commander: commander}
}

// Run executes command and turns a failure into a *CommandError.
func (e *CommandExecutor) Run(ctx context.Context, dir string, command string, args ...string) ([]byte, error) {
	output, err := e.commander.Run(ctx, dir, command, args...)
	if err != nil {
		return output, &CommandError{
			Command: command,
			Args:    args,
			Output:  string(bytes.TrimSpace(output)),
			Err:     err,
		}
	}
	return output, nil
}

// Git runs git with args in dir and returns the trimmed output.
func (e *CommandExecutor) Git(ctx context.Context, dir string, args ...string) (string, error) {
	output, err := e.Run(ctx, dir, "git", args...)
	return strings.TrimSpace(string(output)), err
}
