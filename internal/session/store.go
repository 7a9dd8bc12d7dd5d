package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrNoSession is returned by Load when the directory has no session record.
var ErrNoSession = errors.New("no active session")

// Store keeps one record per tracked directory, so sessions in different
// repositories never collide:
//
//	$XDG_DATA_HOME/sessiondiff/sessions/<key>.json
//
// where key is derived from the canonical work dir.
type Store struct {
	dir string
}

// NewStore returns a Store rooted in the XDG data directory, creating it
// if needed.
func NewStore() (*Store, error) {
	base, err := DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	dir := filepath.Join(base, "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// DataDir returns $XDG_DATA_HOME/sessiondiff, or ~/.local/share/sessiondiff.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "sessiondiff"), nil
}

// Key names the record for workDir. Aliases of the same directory, such as
// a symlinked path, share a key.
func Key(workDir string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(canonical(workDir)))
}

func canonical(dir string) string {
	p := filepath.Clean(dir)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	return p
}

func (st *Store) path(workDir string) string {
	return filepath.Join(st.dir, Key(workDir)+".json")
}

// Save writes s under its WorkDir. The write goes through a temp file and
// a rename so readers never see a partial record.
func (st *Store) Save(s *Session) (err error) {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}

	tmp, err := os.CreateTemp(st.dir, "session-*.json.tmp")
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	if err = os.Rename(tmp.Name(), st.path(s.WorkDir)); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// Load returns the record for workDir, or ErrNoSession.
func (st *Store) Load(workDir string) (*Session, error) {
	s, err := readRecord(st.path(workDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	return s, err
}

// List returns every record, oldest session first.
func (st *Store) List() ([]*Session, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []*Session
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		s, err := readRecord(filepath.Join(st.dir, e.Name()))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue // removed while listing
			}
			return nil, err
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// Delete removes the record for workDir. A missing record is not an error.
func (st *Store) Delete(workDir string) error {
	if err := os.Remove(st.path(workDir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

func readRecord(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session record %s: %w", filepath.Base(path), err)
	}
	return &s, nil
}
