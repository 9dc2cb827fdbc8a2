package detector

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Meta is the optional second line of a PID file. Recording the start time
// of the spawned process lets a later invocation distinguish our child from
// an unrelated process that was assigned the same PID after a reboot or
// PID-space wraparound.
type Meta struct {
	StartUnix int64  `json:"start_unix"`
	Command   string `json:"command,omitempty"`
}

// PIDFileDetector detects a live instance via a PID file written by a
// previous launch. File format: first line is the PID, optional second
// line is a JSON-encoded Meta.
type PIDFileDetector struct {
	PIDFile string
}

func (d PIDFileDetector) Alive() (bool, error) {
	pid, meta, err := ReadPIDFile(d.PIDFile)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if meta != nil && meta.StartUnix > 0 {
		if cur := ProcStartUnix(pid); cur > 0 && cur != meta.StartUnix {
			return false, nil // PID was recycled; not our process
		}
	}
	return pidAlive(pid), nil
}

func (d PIDFileDetector) Describe() string { return "pidfile:" + d.PIDFile }

// ReadPIDFile parses a PID file. The returned Meta is nil for legacy files
// that contain only a PID.
func ReadPIDFile(path string) (int, *Meta, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	pidLine, rest, _ := strings.Cut(strings.ReplaceAll(string(b), "\r\n", "\n"), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(pidLine))
	if err != nil {
		return 0, nil, fmt.Errorf("invalid pid in %s: %w", path, err)
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return pid, nil, nil
	}
	var m Meta
	if err := json.Unmarshal([]byte(rest), &m); err != nil {
		// Return the PID even when the meta line cannot be parsed.
		return pid, nil, nil
	}
	return pid, &m, nil
}

// WritePIDFile records pid and meta for later invocations.
func WritePIDFile(path string, pid int, m Meta) error {
	mb, err := json.Marshal(m)
	if err != nil {
		return err
	}
	content := strconv.Itoa(pid) + "\n" + string(mb) + "\n"
	return os.WriteFile(path, []byte(content), 0o600)
}

// PIDDetector detects by a bare PID number.
type PIDDetector struct{ PID int }

func (d PIDDetector) Alive() (bool, error) { return pidAlive(d.PID), nil }
func (d PIDDetector) Describe() string     { return fmt.Sprintf("pid:%d", d.PID) }
