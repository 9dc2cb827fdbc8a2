//go:build !windows

package launcher

import (
	"bytes"
	"errors"
	"os"
	"runtime"
	"strconv"
	"syscall"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// pidRunning reports whether pid is a live, non-zombie process. A child
// that exited but has not been reaped yet still answers kill(pid, 0), so
// the zombie state must be checked explicitly.
func pidRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	if runtime.GOOS == "linux" {
		if isZombieLinux(pid) {
			return false
		}
		err := syscall.Kill(pid, 0)
		return err == nil || errors.Is(err, syscall.EPERM)
	}
	if err := syscall.Kill(pid, 0); err != nil && !errors.Is(err, syscall.EPERM) {
		return false
	}
	// Darwin/BSD: gopsutil exposes the zombie state via sysctl.
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	sts, err := p.Status()
	if err != nil {
		return true
	}
	for _, st := range sts {
		if st == gopsproc.Zombie {
			return false
		}
	}
	return true
}

// isZombieLinux returns true if /proc/<pid>/status reports a zombie state (Z).
func isZombieLinux(pid int) bool {
	b, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/status")
	if err != nil {
		return false
	}
	return bytes.Contains(b, []byte("State:\tZ"))
}
