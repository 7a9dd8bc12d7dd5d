package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Formats accepted by RendererFor.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatDiff     = "diff"
)

const (
	versionSentinel = "<!-- sessiondiff-note-version: 1 -->"
	dataPrefix      = "<!-- sessiondiff-data: "
	dataSuffix      = " -->"
)

// NoteRenderer serializes a Note to bytes.
type NoteRenderer interface {
	Render(note *Note) ([]byte, error)
	// Ext is the file extension, with dot, for rendered output.
	Ext() string
}

// RendererFor returns the renderer for format. An empty format means Markdown.
func RendererFor(format string, maxDiffLines int) (NoteRenderer, error) {
	switch strings.ToLower(format) {
	case "", FormatMarkdown, "md":
		return &MarkdownRenderer{MaxDiffLines: maxDiffLines}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatDiff, "patch":
		return &DiffRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want markdown, json or diff)", format)
	}
}

// JSONRenderer renders a Note as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(note *Note) ([]byte, error) {
	return json.MarshalIndent(note, "", "  ")
}

func (r *JSONRenderer) Ext() string { return ".json" }

// DiffRenderer writes the raw combined diff, suitable for git apply.
type DiffRenderer struct{}

func (r *DiffRenderer) Render(note *Note) ([]byte, error) {
	if note.Diff == "" || strings.HasSuffix(note.Diff, "\n") {
		return []byte(note.Diff), nil
	}
	return []byte(note.Diff + "\n"), nil
}

func (r *DiffRenderer) Ext() string { return ".diff" }

// MarkdownRenderer renders a Note as human-readable Markdown with an
// embedded base64 JSON payload for lossless round-trip parsing.
// MaxDiffLines limits the visible diff; zero shows it all.
type MarkdownRenderer struct {
	MaxDiffLines int
}

func (r *MarkdownRenderer) Ext() string { return ".md" }

func (r *MarkdownRenderer) Render(note *Note) ([]byte, error) {
	jsonBytes, err := json.Marshal(note)
	if err != nil {
		return nil, fmt.Errorf("marshal note: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder

	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, encoded, dataSuffix)

	fmt.Fprintf(&sb, "# Changes: %s (%s)\n\n",
		note.Session.WorkDir,
		note.CapturedAt.Format("2006-01-02 15:04:05 MST"),
	)

	// ## Summary
	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Files changed: %d\n", len(note.Files))
	fmt.Fprintf(&sb, "- Lines: +%d -%d\n", note.Added, note.Removed)
	fmt.Fprintf(&sb, "- Baseline: %s\n", shortRev(note.Session.Baseline))
	if note.Git != nil {
		fmt.Fprintf(&sb, "- Branch: %s\n", note.Git.Branch)
		fmt.Fprintf(&sb, "- Head: %s\n", shortRev(note.Git.Head))
	}
	fmt.Fprintf(&sb, "- Session start: %s\n", note.Session.StartTime.Format("2006-01-02 15:04:05 MST"))
	sb.WriteString("\n")

	// ## Files
	sb.WriteString("## Files\n\n")
	if len(note.Files) == 0 {
		sb.WriteString("_No changes since the baseline._\n")
	} else {
		sb.WriteString("| Path | Status | + | - |\n")
		sb.WriteString("|------|--------|---|---|\n")
		for _, f := range note.Files {
			path := f.Path
			if f.OldPath != "" {
				path = f.OldPath + " → " + f.Path
			}
			fmt.Fprintf(&sb, "| %s | %s | %d | %d |\n",
				escapeCell(path), f.Status, f.Added, f.Removed)
		}
	}
	sb.WriteString("\n")

	// ## Commits
	if note.Git != nil && len(note.Git.Commits) > 0 {
		sb.WriteString("## Commits\n\n")
		for _, c := range note.Git.Commits {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
		sb.WriteString("\n")
	}

	// ## Diff
	sb.WriteString("## Diff\n\n")
	if note.Diff == "" {
		sb.WriteString("_Empty diff._\n")
	} else {
		shown, more := Truncate(strings.TrimRight(note.Diff, "\n"), r.MaxDiffLines)
		fence := codeFence(shown)
		sb.WriteString(fence + "diff\n")
		sb.WriteString(shown)
		sb.WriteString("\n")
		sb.WriteString(fence + "\n")
		if more > 0 {
			fmt.Fprintf(&sb, "\n... (%d more lines)\n", more)
		}
	}
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}

// shortRev abbreviates a full revision id for display.
func shortRev(rev string) string {
	if rev == "" {
		return "(none)"
	}
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// codeFence returns a backtick fence longer than any run inside body.
func codeFence(body string) string {
	longest, run := 0, 0
	for _, c := range body {
		if c == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}
