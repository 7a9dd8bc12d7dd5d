package session

import (
	"os"
	"syscall"
	"time"
)

// Session is the persisted record of a running watch session.
// It is informational only: a tracker is never rebuilt from it.
type Session struct {
	ID         string     `json:"id"`
	StartTime  time.Time  `json:"start_time"`
	WorkDir    string     `json:"work_dir"`
	Baseline   string     `json:"baseline"`
	PID        int        `json:"pid"`
	Updates    int        `json:"updates"`               // notes emitted so far
	LastUpdate *time.Time `json:"last_update,omitempty"` // nil until the first note
}

// Touch records that a note was emitted at t.
func (s *Session) Touch(t time.Time) {
	s.Updates++
	s.LastUpdate = &t
}

// Running reports whether the process that owns the session is still alive.
func (s *Session) Running() bool {
	if s.PID <= 0 {
		return false
	}
	p, err := os.FindProcess(s.PID)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
