package launcher

import (
	"fmt"

	"github.com/loykin/launchr/internal/detector"
)

// Exit codes reported by the CLI. Started-and-confirmed is 0; the two
// failure modes get distinct documented codes.
const (
	ExitStarted        = 0
	ExitAlreadyRunning = 1
	ExitStartupFailure = 2
)

// AlreadyRunningError is returned when a live instance of the target was
// detected before spawning. Nothing was started.
type AlreadyRunningError struct {
	DetectedBy string
	Matches    []detector.Entry
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("already running (detected by %s, %d matching process(es)); stop the existing instance first", e.DetectedBy, len(e.Matches))
}

// StartupFailureError is returned when the child was spawned but exited
// before surviving the grace period. LogDump carries the full log contents
// for diagnosis.
type StartupFailureError struct {
	PID     int
	LogPath string
	LogDump string
	ExitErr error
}

func (e *StartupFailureError) Error() string {
	if e.ExitErr != nil {
		return fmt.Sprintf("process %d exited during grace period: %v (log: %s)", e.PID, e.ExitErr, e.LogPath)
	}
	return fmt.Sprintf("process %d exited during grace period (log: %s)", e.PID, e.LogPath)
}

func (e *StartupFailureError) Unwrap() error { return e.ExitErr }
