//go:build linux

package tracker

import (
	"time"

	"golang.org/x/sys/unix"
)

// birthTime reads the creation time via statx. Filesystems that do not
// record it leave STATX_BTIME unset in the returned mask.
func birthTime(path string) (time.Time, bool) {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_STATX_SYNC_AS_STAT, unix.STATX_BTIME, &stx); err != nil {
		return time.Time{}, false
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, false
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), true
}

// sessionClock reads the coarse realtime clock the kernel uses for file
// timestamps. time.Now is finer grained and runs ahead of it, so a file
// created right after the session starts could otherwise look older.
func sessionClock() time.Time {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME_COARSE, &ts); err != nil {
		return time.Now()
	}
	return time.Unix(ts.Unix())
}
