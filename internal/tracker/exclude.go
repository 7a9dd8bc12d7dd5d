package tracker

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fakeyudi/sessiondiff/internal/logging"
)

const excludeMagic = ":(exclude)"

// worktreeExclusions lists linked worktrees and returns exclude pathspecs for
// every one nested inside the tracker's directory. Recomputed on every call
// because worktrees can come and go during a session.
func (t *Tracker) worktreeExclusions(ctx context.Context) []string {
	out, err := t.git(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		logging.Debug(ctx, "worktree listing failed; no exclusions", slog.String("error", err.Error()))
		return nil
	}
	return exclusionPatterns(out, t.baseDir())
}

// exclusionPatterns parses `git worktree list --porcelain` output and returns
// ":(exclude)<rel>" for each worktree strictly inside dir.
func exclusionPatterns(porcelain, dir string) []string {
	own := canonicalPath(dir)
	var patterns []string
	for _, line := range strings.Split(porcelain, "\n") {
		rest, ok := strings.CutPrefix(strings.TrimRight(line, "\r"), "worktree ")
		if !ok {
			continue
		}
		wt := canonicalPath(strings.TrimSpace(rest))
		if wt == own {
			continue
		}
		rel, ok := nestedRel(own, wt)
		if !ok {
			continue
		}
		patterns = append(patterns, excludeMagic+filepath.ToSlash(rel))
	}
	return patterns
}

// nestedRel returns the path of child relative to parent when child lies
// strictly inside parent.
func nestedRel(parent, child string) (string, bool) {
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if filepath.IsAbs(rel) {
		return "", false
	}
	return rel, true
}

// canonicalPath cleans p and resolves symlinks when possible so aliases such
// as /tmp and /private/tmp compare equal.
func canonicalPath(p string) string {
	p = filepath.Clean(filepath.FromSlash(p))
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return p
}
