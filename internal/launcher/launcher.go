package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/loykin/launchr/internal/detector"
	"github.com/loykin/launchr/internal/history"
)

// Launcher starts the target program if no live instance is detected and
// confirms the launch by re-checking liveness after a grace period. It
// does not supervise the child beyond that confirmation; the child keeps
// running after the launcher exits.
type Launcher struct {
	spec Spec
	log  *slog.Logger
	sink history.Sink
}

// Result describes a confirmed launch.
type Result struct {
	PID     int              `json:"pid"`
	LogPath string           `json:"log_path"`
	LogTail []string         `json:"log_tail"`
	Matches []detector.Entry `json:"matches"`
}

// Status is the outcome of a detector sweep without launching.
type Status struct {
	Running    bool             `json:"running"`
	DetectedBy string           `json:"detected_by,omitempty"`
	Matches    []detector.Entry `json:"matches,omitempty"`
}

func New(spec Spec) *Launcher {
	return &Launcher{spec: spec.Normalized(), log: slog.Default()}
}

// SetLogger replaces the launcher's diagnostic logger.
func (l *Launcher) SetLogger(log *slog.Logger) {
	if log != nil {
		l.log = log
	}
}

// SetHistorySink enables audit records for launch attempts. Sink errors
// are logged, never fatal.
func (l *Launcher) SetHistorySink(s history.Sink) { l.sink = s }

// Spec returns the normalized spec the launcher operates on.
func (l *Launcher) Spec() Spec { return l.spec }

// detectors returns the detection chain in priority order: the PID file
// (authoritative, PID-reuse safe), then the process-table scan, then any
// user-configured detectors.
func (l *Launcher) detectors() []detector.Detector {
	dets := make([]detector.Detector, 0, len(l.spec.Detectors)+2)
	if l.spec.PIDFile != "" {
		dets = append(dets, detector.PIDFileDetector{PIDFile: l.spec.PIDFile})
	}
	if l.spec.Pattern != "" {
		dets = append(dets, detector.CmdlineDetector{Pattern: l.spec.Pattern})
	}
	dets = append(dets, l.spec.Detectors...)
	return dets
}

// Status sweeps the detectors and reports liveness plus the matching
// process-table entries for operator visibility.
func (l *Launcher) Status() (Status, error) {
	var firstErr error
	for _, d := range l.detectors() {
		alive, err := d.Alive()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if alive {
			return Status{Running: true, DetectedBy: d.Describe(), Matches: l.tableMatches()}, nil
		}
	}
	return Status{}, firstErr
}

// tableMatches lists process-table rows matching the cmdline pattern.
// Best effort; an empty listing is acceptable when detection came from a
// non-listing detector.
func (l *Launcher) tableMatches(excludePIDs ...int) []detector.Entry {
	d := detector.CmdlineDetector{Pattern: l.spec.Pattern, ExtraExcludePIDs: excludePIDs}
	ms, err := d.Matches()
	if err != nil {
		l.log.Warn("process table scan failed", "error", err)
		return nil
	}
	return ms
}

// Launch performs one launch attempt. On success it returns a Result; the
// two failure modes are *AlreadyRunningError and *StartupFailureError.
// Environment problems (missing work dir, unstartable command) surface as
// wrapped plain errors. Nothing is retried.
func (l *Launcher) Launch(ctx context.Context) (*Result, error) {
	spec := l.spec

	if spec.WorkDir != "" {
		fi, err := os.Stat(spec.WorkDir)
		if err != nil {
			return nil, fmt.Errorf("work dir %s: %w", spec.WorkDir, err)
		}
		if !fi.IsDir() {
			return nil, fmt.Errorf("work dir %s: not a directory", spec.WorkDir)
		}
	}

	st, err := l.Status()
	if err != nil {
		return nil, fmt.Errorf("detect existing instance: %w", err)
	}
	if st.Running {
		l.record(ctx, history.EventAlreadyRunning, 0, nil)
		return nil, &AlreadyRunningError{DetectedBy: st.DetectedBy, Matches: st.Matches}
	}

	logCfg := spec.LogConfig()
	w, err := logCfg.Writer()
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", logCfg.Path, err)
	}

	cmd := spec.BuildCommand()
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	if w != nil {
		cmd.Stdout = w
		cmd.Stderr = w
	}
	configureSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		if w != nil {
			_ = w.Close()
		}
		return nil, fmt.Errorf("start %q: %w", spec.Command, err)
	}
	pid := cmd.Process.Pid
	l.log.Info("spawned target process", "name", spec.Name, "pid", pid, "log", logCfg.Path)

	if spec.PIDFile != "" {
		meta := detector.Meta{StartUnix: detector.ProcStartUnix(pid), Command: spec.Command}
		if err := detector.WritePIDFile(spec.PIDFile, pid, meta); err != nil {
			l.log.Warn("pid file write failed", "path", spec.PIDFile, "error", err)
		}
	}

	// The child inherited its own handle on the log file at fork; the
	// parent copy can be closed once the grace period has been decided.
	exitErr, died := l.waitGracePeriod(ctx, cmd)
	if w != nil {
		_ = w.Close()
	}

	if died {
		dump, rerr := os.ReadFile(logCfg.Path)
		if rerr != nil {
			l.log.Warn("log read failed", "path", logCfg.Path, "error", rerr)
		}
		if spec.PIDFile != "" {
			_ = os.Remove(spec.PIDFile)
		}
		l.record(ctx, history.EventStartupFailure, pid, exitErr)
		return nil, &StartupFailureError{PID: pid, LogPath: logCfg.Path, LogDump: string(dump), ExitErr: exitErr}
	}

	tail, terr := tailLines(logCfg.Path, spec.TailLines)
	if terr != nil && !os.IsNotExist(terr) {
		l.log.Warn("log tail failed", "path", logCfg.Path, "error", terr)
	}
	l.record(ctx, history.EventStarted, pid, nil)
	return &Result{
		PID:     pid,
		LogPath: logCfg.Path,
		LogTail: tail,
		Matches: l.tableMatches(),
	}, nil
}

// waitGracePeriod blocks until the grace period elapses or the child
// exits, whichever comes first. A reaper goroutine waits on the child so
// an early exit is observed immediately instead of at the next poll tick;
// the PollInterval ticker remains as a backstop for children that detach
// themselves from the spawned process (double-fork daemons), where Wait
// returns even though the target lives on under the recorded PID.
func (l *Launcher) waitGracePeriod(ctx context.Context, cmd *exec.Cmd) (error, bool) {
	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	deadline := time.NewTimer(l.spec.GracePeriod)
	defer deadline.Stop()
	tick := time.NewTicker(l.spec.PollInterval)
	defer tick.Stop()

	pid := cmd.Process.Pid
	for {
		select {
		case err := <-waitCh:
			// Reaped. If the recorded PID is still alive the command merely
			// re-spawned itself; treat that as running.
			if pidRunning(pid) {
				return nil, false
			}
			return err, true
		case <-tick.C:
			if !pidRunning(pid) {
				return nil, true
			}
		case <-deadline.C:
			return nil, !pidRunning(pid)
		case <-ctx.Done():
			return ctx.Err(), !pidRunning(pid)
		}
	}
}

func (l *Launcher) record(ctx context.Context, typ history.EventType, pid int, attemptErr error) {
	if l.sink == nil {
		return
	}
	e := history.Event{
		Type:       typ,
		OccurredAt: time.Now().UTC(),
		Name:       l.spec.Name,
		Command:    l.spec.Command,
		PID:        pid,
	}
	if attemptErr != nil {
		e.Error = attemptErr.Error()
	}
	if err := l.sink.Send(ctx, e); err != nil {
		l.log.Warn("history sink send failed", "error", err)
	}
}
