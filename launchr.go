// Package launchr starts a long-running target program if no live
// instance is detected, confirms the launch after a grace period, and
// reports the outcome. It deliberately does not supervise the target
// beyond that confirmation.
package launchr

import (
	"context"
	"log/slog"

	"github.com/loykin/launchr/internal/config"
	"github.com/loykin/launchr/internal/detector"
	"github.com/loykin/launchr/internal/history"
	"github.com/loykin/launchr/internal/history/factory"
	"github.com/loykin/launchr/internal/launcher"
	"github.com/loykin/launchr/internal/logger"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Spec = launcher.Spec

type Result = launcher.Result

type Status = launcher.Status

type AlreadyRunningError = launcher.AlreadyRunningError

type StartupFailureError = launcher.StartupFailureError

type HistorySink = history.Sink

// Match is one process-table entry that matched the target signature.
type Match = detector.Entry

// Exit codes for CLI consumers.
const (
	ExitStarted        = launcher.ExitStarted
	ExitAlreadyRunning = launcher.ExitAlreadyRunning
	ExitStartupFailure = launcher.ExitStartupFailure
)

// Launcher is a thin facade over internal/launcher.Launcher.
// It provides a stable public API for embedding.
type Launcher struct{ inner *launcher.Launcher }

func New(spec Spec) *Launcher { return &Launcher{inner: launcher.New(spec)} }

func (l *Launcher) SetLogger(log *slog.Logger)      { l.inner.SetLogger(log) }
func (l *Launcher) SetHistorySink(s HistorySink)    { l.inner.SetHistorySink(s) }
func (l *Launcher) Spec() Spec                      { return l.inner.Spec() }
func (l *Launcher) Status() (Status, error)         { return l.inner.Status() }
func (l *Launcher) Launch(ctx context.Context) (*Result, error) {
	return l.inner.Launch(ctx)
}

// LoadConfig reads a TOML config file and returns the launch spec plus the
// optional history DSN.
func LoadConfig(path string) (Spec, string, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return Spec{}, "", err
	}
	return cfg.Spec, cfg.HistoryDSN, nil
}

// LoadEnv reads KEY=VALUE pairs from an env file.
func LoadEnv(path string) ([]string, error) {
	return config.LoadEnvFile(path)
}

// NewHistorySink builds an audit sink from a DSN (sqlite path,
// postgres:// or clickhouse:// URL).
func NewHistorySink(dsn string) (HistorySink, error) {
	return factory.NewSinkFromDSN(dsn)
}

// NewLogger builds the launcher's diagnostic slog logger.
func NewLogger(level slog.Level, color bool) *slog.Logger {
	return logger.New(level, color)
}
