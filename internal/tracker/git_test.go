package tracker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// settle waits past the filesystem's coarse timestamp granularity so files
// written afterwards are strictly newer than anything recorded before.
const settle = 50 * time.Millisecond

// initRepo creates a git repository with one commit containing tracked.txt.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "init", "-q")
	writeFile(t, filepath.Join(dir, "tracked.txt"), "line one\nline two\n")
	runGit(t, dir, "add", "tracked.txt")
	runGit(t, dir, "commit", "-q", "-m", "initial")
	return dir
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test",
		"GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test",
		"GIT_COMMITTER_EMAIL=test@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_CONFIG_GLOBAL="+os.DevNull,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

func newRepoTracker(t *testing.T, dir string) *Tracker {
	t.Helper()
	tr := New(context.Background(), true, Options{Dir: dir})
	if !tr.Enabled() {
		t.Fatal("expected tracker to be enabled in a repository with commits")
	}
	time.Sleep(settle)
	return tr
}

func TestGitNonRepositoryDisables(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	tr := New(context.Background(), true, Options{Dir: dir})
	if tr.Enabled() {
		t.Fatal("expected tracker to be disabled outside a repository")
	}
	if _, ok := tr.Diff(context.Background()); ok {
		t.Fatal("expected Diff to be unavailable")
	}
}

func TestGitUnbornBranchDisables(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	runGit(t, dir, "init", "-q")

	tr := New(context.Background(), true, Options{Dir: dir})
	if tr.Enabled() {
		t.Fatal("expected tracker to be disabled in a repository without commits")
	}
}

func TestGitNoChangesIsIdempotent(t *testing.T) {
	dir := initRepo(t)
	tr := newRepoTracker(t, dir)
	ctx := context.Background()

	text, st := tr.DiffIfChanged(ctx)
	if st != Changed || text != "" {
		t.Fatalf("first call = (%q, %v), want empty and Changed", text, st)
	}
	for i := 0; i < 2; i++ {
		if _, st := tr.DiffIfChanged(ctx); st != Unchanged {
			t.Fatalf("repeat call status = %v, want Unchanged", st)
		}
	}
}

func TestGitModificationDetected(t *testing.T) {
	dir := initRepo(t)
	tr := newRepoTracker(t, dir)
	ctx := context.Background()

	if _, st := tr.DiffIfChanged(ctx); st != Changed {
		t.Fatalf("first call status = %v", st)
	}

	writeFile(t, filepath.Join(dir, "tracked.txt"), "line one\nline 2\n")
	text, st := tr.DiffIfChanged(ctx)
	if st != Changed {
		t.Fatalf("status after edit = %v, want Changed", st)
	}
	for _, want := range []string{"diff --git a/tracked.txt b/tracked.txt", "-line two", "+line 2"} {
		if !strings.Contains(text, want) {
			t.Errorf("diff missing %q:\n%s", want, text)
		}
	}

	// Interleaved non-dedup calls do not reset the digest.
	if _, ok := tr.Diff(ctx); !ok {
		t.Fatal("Diff unavailable")
	}
	if _, st := tr.DiffIfChanged(ctx); st != Unchanged {
		t.Fatalf("status without further edits = %v, want Unchanged", st)
	}
}

func TestGitCommittedChangesIncluded(t *testing.T) {
	dir := initRepo(t)
	tr := newRepoTracker(t, dir)

	writeFile(t, filepath.Join(dir, "tracked.txt"), "line one\nline two\nline three\n")
	runGit(t, dir, "commit", "-q", "-am", "during session")

	diff, ok := tr.Diff(context.Background())
	if !ok {
		t.Fatal("Diff unavailable")
	}
	if !strings.Contains(diff, "+line three") {
		t.Errorf("committed change missing from diff:\n%s", diff)
	}
	if tr.Baseline() == strings.TrimSpace(runGit(t, dir, "rev-parse", "HEAD")) {
		t.Error("baseline moved with HEAD")
	}
}

func TestGitNewFileSynthesized(t *testing.T) {
	dir := initRepo(t)
	tr := newRepoTracker(t, dir)

	writeFile(t, filepath.Join(dir, "src", "new.go"), "package src\n\nfunc A() {}\n")

	diff, ok := tr.Diff(context.Background())
	if !ok {
		t.Fatal("Diff unavailable")
	}
	block := "diff --git a/src/new.go b/src/new.go\n" +
		"new file mode 100644\n" +
		"index 0000000..0000000\n" +
		"--- /dev/null\n" +
		"+++ b/src/new.go\n" +
		"@@ -0,0 +1,3 @@\n" +
		"+package src\n" +
		"+\n" +
		"+func A() {}"
	if !strings.Contains(diff, block) {
		t.Errorf("synthesized block missing:\n%s", diff)
	}
}

func TestGitNewFileRightAfterStart(t *testing.T) {
	dir := initRepo(t)
	time.Sleep(settle)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		tr := New(ctx, true, Options{Dir: dir})
		name := fmt.Sprintf("quick%d.txt", i)
		writeFile(t, filepath.Join(dir, name), "made at once\n")

		diff, ok := tr.Diff(ctx)
		if !ok {
			t.Fatal("Diff unavailable")
		}
		if !strings.Contains(diff, "+++ b/"+name) {
			t.Fatalf("file written immediately after New is missing (iteration %d):\n%s", i, diff)
		}
	}
}

func TestGitNestedRepositoryNotReportedAsFile(t *testing.T) {
	dir := initRepo(t)
	tr := newRepoTracker(t, dir)

	sub := filepath.Join(dir, "sub")
	runGit(t, dir, "init", "-q", "sub")
	writeFile(t, filepath.Join(sub, "inner.txt"), "inner\n")

	diff, _ := tr.Diff(context.Background())
	if strings.Contains(diff, "a/sub") {
		t.Errorf("nested repository reported as a new file:\n%s", diff)
	}
}

func TestGitEmptyNewFile(t *testing.T) {
	dir := initRepo(t)
	tr := newRepoTracker(t, dir)
	writeFile(t, filepath.Join(dir, "empty.txt"), "")

	diff, _ := tr.Diff(context.Background())
	if !strings.Contains(diff, "+++ b/empty.txt\n@@ -0,0 +1,0 @@\n\\ No newline at end of file") {
		t.Errorf("empty file block malformed:\n%s", diff)
	}
}

func TestGitNewFileWithoutTrailingNewline(t *testing.T) {
	dir := initRepo(t)
	tr := newRepoTracker(t, dir)

	writeFile(t, filepath.Join(dir, "note.md"), "first\nlast")

	diff, _ := tr.Diff(context.Background())
	if !strings.Contains(diff, "@@ -0,0 +1,2 @@\n+first\n+last\n\\ No newline at end of file") {
		t.Errorf("expected no-newline marker after the last line:\n%s", diff)
	}
}

func TestGitPreexistingUntrackedExcluded(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, filepath.Join(dir, "scratch.txt"), "old notes\n")
	time.Sleep(settle)

	tr := newRepoTracker(t, dir)
	writeFile(t, filepath.Join(dir, "fresh.txt"), "new\n")

	diff, _ := tr.Diff(context.Background())
	if strings.Contains(diff, "scratch.txt") {
		t.Errorf("pre-existing untracked file leaked into diff:\n%s", diff)
	}
	if !strings.Contains(diff, "+++ b/fresh.txt") {
		t.Errorf("new file missing from diff:\n%s", diff)
	}
}

func TestGitIgnoredFilesExcluded(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, filepath.Join(dir, ".gitignore"), "*.log\n")
	runGit(t, dir, "add", ".gitignore")
	runGit(t, dir, "commit", "-q", "-m", "ignore logs")

	tr := newRepoTracker(t, dir)
	writeFile(t, filepath.Join(dir, "debug.log"), "noise\n")

	diff, _ := tr.Diff(context.Background())
	if strings.Contains(diff, "debug.log") {
		t.Errorf("ignored file appeared in diff:\n%s", diff)
	}
}

func TestGitNestedWorktreeIsolated(t *testing.T) {
	dir := initRepo(t)
	runGit(t, dir, "worktree", "add", "-q", "-b", "side", filepath.Join(dir, "wt"))

	tr := newRepoTracker(t, dir)

	writeFile(t, filepath.Join(dir, "wt", "only-in-worktree.txt"), "sibling work\n")
	writeFile(t, filepath.Join(dir, "wt", "tracked.txt"), "line one\nchanged in worktree\n")
	writeFile(t, filepath.Join(dir, "mine.txt"), "mine\n")

	diff, ok := tr.Diff(context.Background())
	if !ok {
		t.Fatal("Diff unavailable")
	}
	if strings.Contains(diff, "only-in-worktree.txt") || strings.Contains(diff, "changed in worktree") || strings.Contains(diff, "wt/") {
		t.Errorf("linked worktree content leaked into diff:\n%s", diff)
	}
	if !strings.Contains(diff, "+++ b/mine.txt") {
		t.Errorf("own new file missing from diff:\n%s", diff)
	}
}

func TestGitTrackerInsideLinkedWorktree(t *testing.T) {
	dir := initRepo(t)
	wt := filepath.Join(dir, "wt")
	runGit(t, dir, "worktree", "add", "-q", "-b", "side", wt)

	tr := newRepoTracker(t, wt)
	writeFile(t, filepath.Join(wt, "tracked.txt"), "line one\nedited\n")
	writeFile(t, filepath.Join(dir, "main-only.txt"), "main\n")

	diff, _ := tr.Diff(context.Background())
	if !strings.Contains(diff, "+edited") {
		t.Errorf("worktree edit missing from diff:\n%s", diff)
	}
	if strings.Contains(diff, "main-only.txt") {
		t.Errorf("main worktree file leaked into linked worktree diff:\n%s", diff)
	}
}

func TestExecRunnerReportsFailure(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	_, err := ExecRunner{}.Run(context.Background(), t.TempDir(), "definitely-not-a-subcommand")
	if err == nil {
		t.Fatal("expected an error for an unknown subcommand")
	}
	if !strings.Contains(err.Error(), "git definitely-not-a-subcommand") {
		t.Errorf("error %q does not name the subcommand", err)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, err := ExecRunner{Binary: "sessiondiff-no-such-git"}.Run(context.Background(), "", "status")
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
	tr := New(context.Background(), true, Options{Runner: ExecRunner{Binary: "sessiondiff-no-such-git"}})
	if tr.Enabled() {
		t.Fatal("expected tracker to be disabled when git cannot be launched")
	}
}
