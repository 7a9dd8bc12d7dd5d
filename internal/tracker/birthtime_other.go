//go:build !linux && !darwin

package tracker

import "time"

// birthTime is unsupported here; callers fall back to modification time.
func birthTime(string) (time.Time, bool) {
	return time.Time{}, false
}

func sessionClock() time.Time { return time.Now() }
