package detector

import (
	"os"
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// CmdlineDetector scans the process table for processes whose command line
// contains Pattern, excluding the scanning process itself. It is the
// pgrep-style fallback; matching by substring is inherently imprecise, so
// launches prefer the PID file and use this detector for operator-visible
// listings and as a safety net when no PID file survives.
type CmdlineDetector struct {
	Pattern string
	// ExtraExcludePIDs are skipped in addition to the current process.
	ExtraExcludePIDs []int
}

func (d CmdlineDetector) Alive() (bool, error) {
	ms, err := d.Matches()
	if err != nil {
		return false, err
	}
	return len(ms) > 0, nil
}

func (d CmdlineDetector) Describe() string { return "cmdline:" + d.Pattern }

// Matches returns the process-table entries whose command line contains
// the pattern. Processes that disappear mid-scan are skipped.
func (d CmdlineDetector) Matches() ([]Entry, error) {
	if strings.TrimSpace(d.Pattern) == "" {
		return nil, nil
	}
	procs, err := gopsproc.Processes()
	if err != nil {
		return nil, err
	}
	self := os.Getpid()
	skip := map[int]bool{self: true}
	for _, p := range d.ExtraExcludePIDs {
		skip[p] = true
	}
	var out []Entry
	for _, p := range procs {
		pid := int(p.Pid)
		if skip[pid] {
			continue
		}
		cl, err := p.Cmdline()
		if err != nil || cl == "" {
			continue
		}
		if strings.Contains(cl, d.Pattern) {
			out = append(out, Entry{PID: pid, Cmdline: cl})
		}
	}
	return out, nil
}
