package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/loykin/launchr"
)

// command binds CLI handlers to the launchr facade. Methods take flag
// structs so tests can call them without going through cobra.
type command struct {
	out io.Writer
}

func (c command) logger(gf *GlobalFlags) *slog.Logger {
	level := slog.LevelInfo
	if gf.Verbose {
		level = slog.LevelDebug
	}
	return launchr.NewLogger(level, !gf.NoColor)
}

// resolveSpec builds the launch spec from the config file (if any) with
// flag overrides on top. needCommand is false for inspection commands
// that only need a signature to look for.
func (c command) resolveSpec(gf *GlobalFlags, sf *SpecFlags, needCommand bool) (launchr.Spec, string, error) {
	var spec launchr.Spec
	dsn := ""
	if gf.ConfigPath != "" {
		var err error
		spec, dsn, err = launchr.LoadConfig(gf.ConfigPath)
		if err != nil {
			return launchr.Spec{}, "", fmt.Errorf("load config %s: %w", gf.ConfigPath, err)
		}
	}
	if err := applyOverrides(&spec, sf); err != nil {
		return launchr.Spec{}, "", err
	}
	if sf.HistoryDSN != "" {
		dsn = sf.HistoryDSN
	}
	if needCommand && spec.Command == "" {
		return launchr.Spec{}, "", fmt.Errorf("no command to launch: set --command or provide --config")
	}
	if !needCommand && spec.Command == "" && spec.Pattern == "" && spec.PIDFile == "" {
		return launchr.Spec{}, "", fmt.Errorf("nothing to inspect: set --command, --pattern, --pidfile or provide --config")
	}
	return spec, dsn, nil
}

func applyOverrides(spec *launchr.Spec, sf *SpecFlags) error {
	if sf.Name != "" {
		spec.Name = sf.Name
	}
	if sf.Command != "" {
		spec.Command = sf.Command
	}
	if sf.WorkDir != "" {
		spec.WorkDir = sf.WorkDir
	}
	if sf.Pattern != "" {
		spec.Pattern = sf.Pattern
	}
	if sf.PIDFile != "" {
		spec.PIDFile = sf.PIDFile
	}
	if sf.LogFile != "" {
		spec.LogFile = sf.LogFile
	}
	if sf.Rotate {
		spec.Rotate = true
	}
	if sf.GracePeriod > 0 {
		spec.GracePeriod = sf.GracePeriod
	}
	if sf.PollInterval > 0 {
		spec.PollInterval = sf.PollInterval
	}
	if sf.TailLines > 0 {
		spec.TailLines = sf.TailLines
	}
	for _, f := range sf.EnvFiles {
		pairs, err := launchr.LoadEnv(f)
		if err != nil {
			return fmt.Errorf("env file %s: %w", f, err)
		}
		spec.Env = append(spec.Env, pairs...)
	}
	spec.Env = append(spec.Env, sf.EnvKVs...)
	return nil
}

// Up launches the target if no live instance is detected and reports
// the outcome. The error carries the exit code classification.
func (c command) Up(gf *GlobalFlags, sf *SpecFlags, uf UpFlags) error {
	spec, dsn, err := c.resolveSpec(gf, sf, true)
	if err != nil {
		return err
	}

	log := c.logger(gf)
	l := launchr.New(spec)
	l.SetLogger(log)
	if dsn != "" {
		sink, serr := launchr.NewHistorySink(dsn)
		if serr != nil {
			// A broken audit sink must not block the launch.
			log.Warn("history sink unavailable", "dsn", dsn, "error", serr)
		} else {
			defer func() { _ = sink.Close() }()
			l.SetHistorySink(sink)
		}
	}

	res, err := l.Launch(context.Background())
	if err != nil {
		var are *launchr.AlreadyRunningError
		if errors.As(err, &are) {
			fmt.Fprintf(c.out, "%s is already running (%s)\n", l.Spec().Name, are.DetectedBy)
			printMatches(c.out, are.Matches)
			return err
		}
		var sfe *launchr.StartupFailureError
		if errors.As(err, &sfe) {
			fmt.Fprintf(c.out, "%s exited during the grace period\n", l.Spec().Name)
			if sfe.LogDump != "" {
				fmt.Fprintf(c.out, "--- %s ---\n", sfe.LogPath)
				fmt.Fprint(c.out, sfe.LogDump)
				if sfe.LogDump[len(sfe.LogDump)-1] != '\n' {
					fmt.Fprintln(c.out)
				}
			}
			return err
		}
		return err
	}

	if uf.JSON {
		printJSON(c.out, res)
		return nil
	}
	fmt.Fprintf(c.out, "started %s (pid %d), logging to %s\n", l.Spec().Name, res.PID, res.LogPath)
	printMatches(c.out, res.Matches)
	for _, line := range res.LogTail {
		fmt.Fprintf(c.out, "  %s\n", line)
	}
	return nil
}

// Status reports whether a live instance matches the signature.
func (c command) Status(gf *GlobalFlags, sf *SpecFlags, stf StatusFlags) error {
	spec, _, err := c.resolveSpec(gf, sf, false)
	if err != nil {
		return err
	}
	l := launchr.New(spec)
	st, err := l.Status()
	if err != nil {
		return err
	}
	if stf.JSON {
		printJSON(c.out, st)
		return nil
	}
	if !st.Running {
		fmt.Fprintf(c.out, "%s is not running\n", l.Spec().Name)
		return nil
	}
	fmt.Fprintf(c.out, "%s is running (%s)\n", l.Spec().Name, st.DetectedBy)
	printMatches(c.out, st.Matches)
	return nil
}

// Logs prints the target's log file, tail by default.
func (c command) Logs(gf *GlobalFlags, sf *SpecFlags, lf LogsFlags) error {
	spec, _, err := c.resolveSpec(gf, sf, false)
	if err != nil {
		return err
	}
	path := launchr.New(spec).Spec().LogFile
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read log %s: %w", path, err)
	}
	if lf.All {
		_, _ = c.out.Write(b)
		return nil
	}
	for _, line := range lastLines(string(b), lf.Lines) {
		fmt.Fprintln(c.out, line)
	}
	return nil
}
