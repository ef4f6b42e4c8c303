//go:build linux

package discovery

import (
	"os"
	"syscall"
	"time"
)

// accessTime extracts atime from the platform stat structure.
func accessTime(info os.FileInfo) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(int64(st.Atim.Sec), int64(st.Atim.Nsec))
}
