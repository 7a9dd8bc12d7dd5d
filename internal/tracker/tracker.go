// Package tracker captures a git baseline at session start and reports
// everything that changed in the working tree since then as one combined
// unified diff: commits made during the session, uncommitted edits, and
// files created after the session began. Changes that belong to linked
// worktrees nested inside the tracked directory are excluded.
//
// A Tracker is not safe for concurrent use. Callers that share one across
// goroutines must serialize Diff and DiffIfChanged themselves.
package tracker

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/fakeyudi/sessiondiff/internal/logging"
)

// headRef is diffed against when no baseline revision was captured.
const headRef = "HEAD"

// Status describes the outcome of DiffIfChanged.
type Status int

const (
	// Unavailable means tracking is disabled for this tracker.
	Unavailable Status = iota
	// Unchanged means the diff is identical to the one last returned.
	Unchanged
	// Changed means the returned text differs from the one last returned.
	// The text may be empty on the first call.
	Changed
)

func (s Status) String() string {
	switch s {
	case Unavailable:
		return "unavailable"
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// Options configures a Tracker.
type Options struct {
	Dir       string    // working directory; empty means the process cwd at call time
	Runner    Runner    // if nil, uses ExecRunner{Binary: "git"}
	StartTime time.Time // session start; zero means now, read from the clock that stamps files
}

// Tracker tracks working-tree changes for a single session.
type Tracker struct {
	enabled   bool
	dir       string
	baseline  string
	startTime time.Time
	runner    Runner

	lastDigest uint64
	hasDigest  bool
}

// New creates a tracker and, when enabled, captures the baseline revision.
// If the baseline cannot be captured the tracker is permanently disabled;
// no error is returned.
func New(ctx context.Context, enabled bool, opts Options) *Tracker {
	t := &Tracker{
		enabled:   enabled,
		dir:       opts.Dir,
		startTime: opts.StartTime,
		runner:    opts.Runner,
	}
	if t.startTime.IsZero() {
		t.startTime = sessionClock()
	}
	if t.runner == nil {
		t.runner = ExecRunner{}
	}
	if t.enabled {
		t.captureBaseline(logging.WithComponent(ctx, "tracker"))
	}
	return t
}

func (t *Tracker) captureBaseline(ctx context.Context) {
	out, err := t.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		// Not a repository, git missing, or HEAD unresolvable: disable.
		logging.Debug(ctx, "baseline capture failed; tracking disabled", slog.String("error", err.Error()))
		t.enabled = false
		return
	}
	rev := strings.TrimSpace(out)
	if rev == "" {
		logging.Debug(ctx, "baseline capture returned no revision; tracking disabled")
		t.enabled = false
		return
	}
	t.baseline = rev
	logging.Debug(ctx, "baseline captured", slog.String("baseline", rev))
}

// Enabled reports whether the tracker is active.
func (t *Tracker) Enabled() bool { return t.enabled }

// Baseline returns the revision captured at construction, or "".
func (t *Tracker) Baseline() string { return t.baseline }

// StartTime returns the session start time.
func (t *Tracker) StartTime() time.Time { return t.startTime }

// Dir returns the configured working directory, or "" for the process cwd.
func (t *Tracker) Dir() string { return t.dir }

// Diff returns the combined diff of everything that changed since the
// baseline. ok is false when tracking is disabled; an empty string with
// ok true means there are no changes.
func (t *Tracker) Diff(ctx context.Context) (diff string, ok bool) {
	if !t.enabled {
		return "", false
	}
	ctx = logging.WithComponent(ctx, "tracker")
	defer logging.LogDuration(ctx, slog.LevelDebug, "diff computed", time.Now())

	excludes := t.worktreeExclusions(ctx)

	var segments []string
	if tracked := strings.TrimSpace(t.trackedDiff(ctx, excludes)); tracked != "" {
		segments = append(segments, tracked)
	}
	if untracked := strings.TrimSpace(t.untrackedDiff(ctx, excludes)); untracked != "" {
		segments = append(segments, untracked)
	}
	return strings.Join(segments, "\n"), true
}

// DiffIfChanged returns the trimmed combined diff only if it differs from
// the one this method last returned. Diff calls in between do not affect
// the comparison.
func (t *Tracker) DiffIfChanged(ctx context.Context) (string, Status) {
	diff, ok := t.Diff(ctx)
	if !ok {
		return "", Unavailable
	}
	trimmed := strings.TrimSpace(diff)
	digest := xxhash.Sum64String(trimmed)
	if t.hasDigest && digest == t.lastDigest {
		return "", Unchanged
	}
	t.lastDigest = digest
	t.hasDigest = true
	return trimmed, Changed
}

// trackedDiff covers commits since the baseline and uncommitted edits in
// one pass: baseline versus the working tree.
func (t *Tracker) trackedDiff(ctx context.Context, excludes []string) string {
	rev := t.baseline
	if rev == "" {
		rev = headRef
	}
	out, err := t.git(ctx, withPathspecs([]string{"diff", rev}, excludes)...)
	if err != nil {
		logging.Debug(ctx, "tracked diff failed; treating as empty", slog.String("error", err.Error()))
		return ""
	}
	return out
}

// git runs the configured runner in the tracker's directory.
func (t *Tracker) git(ctx context.Context, args ...string) (string, error) {
	return t.runner.Run(ctx, t.dir, args...)
}

// baseDir is the directory paths are resolved against: the configured dir,
// else the current working directory, else ".".
func (t *Tracker) baseDir() string {
	if t.dir != "" {
		return t.dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// withPathspecs appends "--" and the pathspecs to args when there are any.
func withPathspecs(args, pathspecs []string) []string {
	if len(pathspecs) == 0 {
		return args
	}
	out := make([]string, 0, len(args)+1+len(pathspecs))
	out = append(out, args...)
	out = append(out, "--")
	return append(out, pathspecs...)
}
