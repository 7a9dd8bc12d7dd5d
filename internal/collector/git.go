// Package collector gathers repository context that accompanies a change set.
package collector

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fakeyudi/sessiondiff/internal/report"
	"github.com/fakeyudi/sessiondiff/internal/tracker"
)

// ErrNotRepository is returned when the directory is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// GitCollector collects the branch, HEAD and the commits made since a
// session's baseline.
type GitCollector struct {
	Dir    string
	Runner tracker.Runner // if nil, uses tracker.ExecRunner{}
}

// Collect runs the git queries and returns the repository context. Commits
// are listed newest first as "<short-hash> <subject>" and only when baseline
// is known.
func (g *GitCollector) Collect(ctx context.Context, baseline string) (*report.GitInfo, error) {
	runner := g.Runner
	if runner == nil {
		runner = tracker.ExecRunner{}
	}

	// The branch query doubles as the repository check.
	branch, err := runner.Run(ctx, g.Dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		if isExitCode128(err) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("read branch: %w", err)
	}

	head, err := runner.Run(ctx, g.Dir, "rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("read HEAD: %w", err)
	}

	info := &report.GitInfo{
		Branch: strings.TrimSpace(branch),
		Head:   strings.TrimSpace(head),
	}
	if baseline == "" || baseline == info.Head {
		return info, nil
	}

	logOut, err := runner.Run(ctx, g.Dir, "log", "--oneline", "--no-decorate", baseline+"..HEAD")
	if err != nil {
		return nil, fmt.Errorf("list session commits: %w", err)
	}
	info.Commits = parseLogLines(logOut)
	return info, nil
}

// isExitCode128 reports whether err wraps an *exec.ExitError with exit code 128.
func isExitCode128(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == 128
	}
	return false
}

// parseLogLines splits git log output into individual commit lines,
// discarding empty lines.
func parseLogLines(output string) []string {
	lines := strings.Split(output, "\n")
	result := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimRight(l, "\r"); l != "" {
			result = append(result, l)
		}
	}
	return result
}
