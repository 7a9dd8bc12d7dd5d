package tracker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fakeyudi/sessiondiff/internal/logging"
)

const binaryPlaceholder = "[Binary or unreadable file]"

// untrackedDiff synthesizes "new file" diffs for untracked, non-ignored files
// created at or after the session start. git does not diff untracked content,
// so the hunks are built by hand.
func (t *Tracker) untrackedDiff(ctx context.Context, excludes []string) string {
	args := withPathspecs([]string{"ls-files", "--others", "--exclude-standard"}, excludes)
	out, err := t.git(ctx, args...)
	if err != nil {
		logging.Debug(ctx, "untracked listing failed; no new files", slog.String("error", err.Error()))
		return ""
	}
	files := parseFileList(out)
	if len(files) == 0 {
		return ""
	}

	base := t.baseDir()
	var sb strings.Builder
	for _, rel := range files {
		// A nested repository is listed as "dir/".
		if strings.HasSuffix(rel, "/") {
			continue
		}
		abs := filepath.Join(base, filepath.FromSlash(rel))
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			continue
		}

		ts, err := fileTimestamp(abs)
		if err != nil {
			// Cannot prove the file postdates the session.
			logging.Debug(ctx, "skipping untracked file without timestamp",
				slog.String("path", rel), slog.String("error", err.Error()))
			continue
		}
		if ts.Before(t.startTime) {
			continue
		}

		data, err := os.ReadFile(abs)
		if err != nil {
			logging.Debug(ctx, "untracked file unreadable; using placeholder",
				slog.String("path", rel), slog.String("error", err.Error()))
			data = nil
		}
		writeNewFileDiff(&sb, rel, data, err == nil)
	}
	return sb.String()
}

// writeNewFileDiff appends a unified "new file" diff for rel followed by a
// blank separator line. readable=false or non-text content produces a
// one-line placeholder hunk.
func writeNewFileDiff(sb *strings.Builder, rel string, data []byte, readable bool) {
	fmt.Fprintf(sb, "diff --git a/%s b/%s\n", rel, rel)
	sb.WriteString("new file mode 100644\n")
	sb.WriteString("index 0000000..0000000\n")
	sb.WriteString("--- /dev/null\n")
	fmt.Fprintf(sb, "+++ b/%s\n", rel)

	switch {
	case !readable || !isText(data):
		sb.WriteString("@@ -0,0 +1,1 @@\n")
		sb.WriteString("+" + binaryPlaceholder + "\n")
	case len(data) == 0:
		sb.WriteString("@@ -0,0 +1,0 @@\n")
		sb.WriteString("\\ No newline at end of file\n")
	default:
		content := string(data)
		lines := splitLines(content)
		fmt.Fprintf(sb, "@@ -0,0 +1,%d @@\n", len(lines))
		for _, line := range lines {
			sb.WriteString("+" + line + "\n")
		}
		if !strings.HasSuffix(content, "\n") {
			sb.WriteString("\\ No newline at end of file\n")
		}
	}
	sb.WriteString("\n")
}

// splitLines splits content on "\n". A trailing newline does not start an
// additional empty line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

// isText reports whether data decodes as UTF-8 text without NUL bytes.
func isText(data []byte) bool {
	return utf8.Valid(data) && bytes.IndexByte(data, 0) < 0
}

// parseFileList splits git ls-files output into paths, undoing git's
// C-style quoting of names with unusual characters.
func parseFileList(out string) []string {
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) >= 2 && line[0] == '"' && line[len(line)-1] == '"' {
			if unq, err := strconv.Unquote(line); err == nil {
				line = unq
			}
		}
		files = append(files, line)
	}
	return files
}

// fileTimestamp returns the file's creation time when the platform exposes
// it, else its modification time.
func fileTimestamp(path string) (time.Time, error) {
	if bt, ok := birthTime(path); ok {
		return bt, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
