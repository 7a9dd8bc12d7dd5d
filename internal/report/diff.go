package report

import (
	"strings"

	"github.com/gitleaks/go-gitdiff/gitdiff"
)

// FileStatus classifies a file's change within a diff.
type FileStatus string

const (
	StatusModified FileStatus = "modified"
	StatusNew      FileStatus = "new"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
	StatusBinary   FileStatus = "binary"
)

// FileDiff is one file's section of a unified diff.
type FileDiff struct {
	Path    string     `json:"path"`
	OldPath string     `json:"old_path,omitempty"`
	Status  FileStatus `json:"status"`
	Added   int        `json:"added"`
	Removed int        `json:"removed"`
	Text    string     `json:"-"`
}

// binaryPlaceholder is the only line of the hunk written for new files
// that are not text.
const binaryPlaceholder = "[Binary or unreadable file]"

// ParseDiff splits a git-style unified diff into per-file sections and
// counts added and removed lines inside hunks. Text before the first
// "diff --git" header is ignored.
func ParseDiff(diff string) []FileDiff {
	var files []FileDiff
	for _, section := range splitSections(diff) {
		f := parseFile(section)
		if f == nil {
			// Hunks git itself rejects, such as the empty hunk written for
			// an empty new file, still leave the file header usable.
			f = parseFile(headerOnly(section))
		}
		if f == nil {
			continue
		}
		files = append(files, fileDiff(f, section))
	}
	return files
}

// splitSections cuts diff at each "diff --git" line.
func splitSections(diff string) []string {
	var (
		sections []string
		cur      []string
	)
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			if cur != nil {
				sections = append(sections, strings.TrimRight(strings.Join(cur, "\n"), "\n"))
			}
			cur = []string{line}
			continue
		}
		if cur != nil {
			cur = append(cur, line)
		}
	}
	if cur != nil {
		sections = append(sections, strings.TrimRight(strings.Join(cur, "\n"), "\n"))
	}
	return sections
}

// headerOnly drops everything from the first hunk header on.
func headerOnly(section string) string {
	if i := strings.Index(section, "\n@@ "); i >= 0 {
		return section[:i]
	}
	return section
}

// parseFile returns the single file described by section, or nil when
// gitdiff cannot parse it.
func parseFile(section string) *gitdiff.File {
	ch, err := gitdiff.Parse(strings.NewReader(section + "\n"))
	if err != nil {
		return nil
	}
	var first *gitdiff.File
	for f := range ch {
		if first == nil {
			first = f
		}
	}
	return first
}

func fileDiff(f *gitdiff.File, text string) FileDiff {
	fd := FileDiff{Path: f.NewName, Status: StatusModified, Text: text}
	switch {
	case f.IsDelete:
		fd.Path = f.OldName
		fd.Status = StatusDeleted
	case f.IsNew:
		fd.Status = StatusNew
	case f.IsRename:
		fd.OldPath = f.OldName
		fd.Status = StatusRenamed
	case f.IsCopy:
		fd.OldPath = f.OldName
		fd.Status = StatusNew
	}
	if f.IsBinary {
		fd.Status = StatusBinary
	}
	for _, frag := range f.TextFragments {
		fd.Added += int(frag.LinesAdded)
		fd.Removed += int(frag.LinesDeleted)
	}
	if isPlaceholder(f) {
		fd.Status = StatusBinary
		fd.Added = 0
	}
	return fd
}

// isPlaceholder reports whether f is a synthesized new file whose content
// could not be read as text.
func isPlaceholder(f *gitdiff.File) bool {
	if !f.IsNew || len(f.TextFragments) != 1 {
		return false
	}
	lines := f.TextFragments[0].Lines
	return len(lines) == 1 && lines[0].Op == gitdiff.OpAdd &&
		strings.TrimSuffix(lines[0].Line, "\n") == binaryPlaceholder
}

// Truncate keeps at most max lines of text and reports how many were
// dropped. A max of zero or less keeps everything.
func Truncate(text string, max int) (string, int) {
	if max <= 0 || text == "" {
		return text, 0
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= max {
		return text, 0
	}
	return strings.Join(lines[:max], "\n"), len(lines) - max
}
