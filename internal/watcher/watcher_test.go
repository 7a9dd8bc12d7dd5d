package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Feature: sessiondiff, Property 10: Ignore pattern filtering
func TestIgnorePatternFiltering(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ext := rapid.StringMatching(`[a-z]{2,4}`).Draw(t, "ext")
		otherExt := rapid.StringMatching(`[a-z]{2,4}`).Draw(t, "otherExt")
		if otherExt == ext {
			otherExt += "x"
		}
		root := "/work"
		dir := rapid.StringMatching(`[a-z]{1,6}(/[a-z]{1,6}){0,2}`).Draw(t, "dir")
		stem := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "stem")
		patterns := []string{"*." + ext}

		matching := filepath.Join(root, dir, stem+"."+ext)
		if !isIgnored(root, matching, patterns) {
			t.Fatalf("%q should match %v", matching, patterns)
		}
		other := filepath.Join(root, dir, stem+"."+otherExt)
		if isIgnored(root, other, patterns) {
			t.Fatalf("%q should not match %v", other, patterns)
		}
	})
}

func TestIsIgnored(t *testing.T) {
	root := "/work"
	patterns := []string{"node_modules", "build/out", "*.swp"}
	tests := []struct {
		path string
		want bool
	}{
		{"/work/.git/index", true},
		{"/work/.git", true},
		{"/work/node_modules/x/index.js", true},
		{"/work/build/out", true},
		{"/work/src/.main.go.swp", true},
		{"/work/src/main.go", false},
		{"/work/build/other", false},
	}
	for _, tt := range tests {
		if got := isIgnored(root, tt.path, patterns); got != tt.want {
			t.Errorf("isIgnored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLoadIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "# comment\n\n*.log\n/dist/\n!keep.log\n")
	writeFile(t, filepath.Join(dir, ".sessiondiffignore"), "tmp\n")

	got, err := loadIgnorePatterns(dir, []string{"*.bak"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"*.bak", "*.log", "dist", "tmp"}
	if len(got) != len(want) {
		t.Fatalf("loadIgnorePatterns() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pattern %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadIgnorePatternsMissingFiles(t *testing.T) {
	got, err := loadIgnorePatterns(t.TempDir(), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("loadIgnorePatterns() = %q, %v", got, err)
	}
}

// startWatcher runs w in the background and returns a counter of callbacks.
func startWatcher(t *testing.T, w *Watcher) *atomic.Int32 {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) { calls.Add(1) })
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run returned %v", err)
		}
	})
	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)
	return &calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRunDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	calls := startWatcher(t, &Watcher{Dir: dir, Debounce: 200 * time.Millisecond})

	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(dir, "a.txt"), string(rune('a'+i)))
	}
	waitFor(t, func() bool { return calls.Load() >= 1 })
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("burst produced %d callbacks, want 1", n)
	}
}

func TestRunWatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	calls := startWatcher(t, &Watcher{Dir: dir, Debounce: 20 * time.Millisecond})

	sub := filepath.Join(dir, "pkg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return calls.Load() >= 1 })
	before := calls.Load()
	time.Sleep(100 * time.Millisecond)

	writeFile(t, filepath.Join(sub, "x.go"), "package pkg\n")
	waitFor(t, func() bool { return calls.Load() > before })
}

func TestRunSkipsIgnoredFiles(t *testing.T) {
	dir := t.TempDir()
	calls := startWatcher(t, &Watcher{Dir: dir, IgnorePatterns: []string{"*.tmp"}, Debounce: 20 * time.Millisecond})

	writeFile(t, filepath.Join(dir, "scratch.tmp"), "x")
	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("ignored file produced %d callbacks", n)
	}
}

func TestRunPollsOnInterval(t *testing.T) {
	calls := startWatcher(t, &Watcher{Dir: t.TempDir(), Interval: 20 * time.Millisecond})
	waitFor(t, func() bool { return calls.Load() >= 2 })
}

func TestRunMissingDirectory(t *testing.T) {
	w := &Watcher{Dir: filepath.Join(t.TempDir(), "gone")}
	if err := w.Run(context.Background(), func(context.Context) {}); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
