package report

import "time"

// Note is the renderable snapshot of a session's combined change set.
type Note struct {
	Session    SessionMeta `json:"session"`
	CapturedAt time.Time   `json:"captured_at"`
	Files      []FileDiff  `json:"files"`
	Added      int         `json:"added"`
	Removed    int         `json:"removed"`
	Diff       string      `json:"diff"`
	Git        *GitInfo    `json:"git,omitempty"`
}

// GitInfo is repository context captured alongside the change set.
type GitInfo struct {
	Branch  string   `json:"branch"`
	Head    string   `json:"head"`
	Commits []string `json:"commits,omitempty"` // newest first, "<hash> <subject>"
}

// SessionMeta identifies the session a note was captured from.
type SessionMeta struct {
	ID        string    `json:"id,omitempty"`
	WorkDir   string    `json:"work_dir"`
	Baseline  string    `json:"baseline"`
	StartTime time.Time `json:"start_time"`
}

// NewNote builds a Note from the combined diff text, computing per-file
// stats and totals.
func NewNote(meta SessionMeta, diff string, at time.Time) *Note {
	n := &Note{
		Session:    meta,
		CapturedAt: at,
		Files:      ParseDiff(diff),
		Diff:       diff,
	}
	for _, f := range n.Files {
		n.Added += f.Added
		n.Removed += f.Removed
	}
	return n
}

// attachText restores per-file diff text, which is not serialized.
func (n *Note) attachText() {
	parsed := ParseDiff(n.Diff)
	if n.Files == nil {
		n.Files = parsed
		return
	}
	byPath := make(map[string]string, len(parsed))
	for _, f := range parsed {
		byPath[f.Path] = f.Text
	}
	for i := range n.Files {
		n.Files[i].Text = byPath[n.Files[i].Path]
	}
}
