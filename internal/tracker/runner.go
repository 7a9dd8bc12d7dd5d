package tracker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a git command in dir and returns its standard output.
// This abstraction allows substituting a deterministic fake in tests.
//
// A non-zero exit status is reported as an error; callers in this package
// convert every error into their own fallback (usually empty output).
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// RunnerFunc adapts an ordinary function to the Runner interface.
type RunnerFunc func(ctx context.Context, dir string, args ...string) (string, error)

// Run calls f(ctx, dir, args...).
func (f RunnerFunc) Run(ctx context.Context, dir string, args ...string) (string, error) {
	return f(ctx, dir, args...)
}

// ExecRunner runs git as a real subprocess.
type ExecRunner struct {
	Binary string // defaults to "git"
}

// Run implements Runner. An empty dir runs git in the process's current
// directory. Output that is not valid UTF-8 has invalid sequences replaced.
func (e ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := e.Binary
	if strings.TrimSpace(bin) == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git %s: %w", subcommand(args), err)
		}
		return "", fmt.Errorf("git %s: %s: %w", subcommand(args), msg, err)
	}
	return strings.ToValidUTF8(stdout.String(), "�"), nil
}

// subcommand keeps error messages short; paths and pathspecs are dropped.
func subcommand(args []string) string {
	if len(args) == 0 {
		return "<no-args>"
	}
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") && !strings.Contains(args[1], "/") && len(args[1]) < 20 {
		return args[0] + " " + args[1]
	}
	return args[0]
}
