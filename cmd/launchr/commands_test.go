package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/loykin/launchr"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func testSpecFlags(t *testing.T, marker, script string) *SpecFlags {
	t.Helper()
	return &SpecFlags{
		Name:         "demo",
		Command:      "sh -c '" + script + " # " + marker + "'",
		WorkDir:      t.TempDir(),
		Pattern:      marker,
		GracePeriod:  600 * time.Millisecond,
		PollInterval: 50 * time.Millisecond,
		TailLines:    5,
	}
}

func TestUpThenStatusThenLogs(t *testing.T) {
	requireUnix(t)
	sf := testSpecFlags(t, "launchr-cli-up-marker", "echo cli-booted; sleep 30")
	gf := &GlobalFlags{NoColor: true}
	var out bytes.Buffer
	c := command{out: &out}

	if err := c.Up(gf, sf, UpFlags{JSON: true}); err != nil {
		t.Fatalf("Up: %v", err)
	}
	var res launchr.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("result JSON: %v\n%s", err, out.String())
	}
	defer func() { _ = syscall.Kill(res.PID, syscall.SIGKILL) }()

	out.Reset()
	if err := c.Status(gf, sf, StatusFlags{}); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !strings.Contains(out.String(), "demo is running") {
		t.Fatalf("unexpected status output: %q", out.String())
	}

	out.Reset()
	if err := c.Logs(gf, sf, LogsFlags{Lines: 10}); err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if !strings.Contains(out.String(), "cli-booted") {
		t.Fatalf("logs output missing child output: %q", out.String())
	}

	// Second up must refuse to spawn and report the live instance.
	out.Reset()
	err := c.Up(gf, sf, UpFlags{})
	var are *launchr.AlreadyRunningError
	if !errors.As(err, &are) {
		t.Fatalf("expected AlreadyRunningError, got %v", err)
	}
	if !strings.Contains(out.String(), "already running") {
		t.Fatalf("unexpected already-running output: %q", out.String())
	}
	if exitCodeFor(err) != launchr.ExitAlreadyRunning {
		t.Fatalf("exit code mismatch for already running: %d", exitCodeFor(err))
	}
}

func TestUpStartupFailurePrintsLog(t *testing.T) {
	requireUnix(t)
	sf := testSpecFlags(t, "launchr-cli-failure-marker", "echo cli-dying; exit 3")
	sf.GracePeriod = 2 * time.Second
	var out bytes.Buffer
	c := command{out: &out}

	err := c.Up(&GlobalFlags{NoColor: true}, sf, UpFlags{})
	var sfe *launchr.StartupFailureError
	if !errors.As(err, &sfe) {
		t.Fatalf("expected StartupFailureError, got %v", err)
	}
	if !strings.Contains(out.String(), "cli-dying") {
		t.Fatalf("expected full log dump in output, got %q", out.String())
	}
	if exitCodeFor(err) != launchr.ExitStartupFailure {
		t.Fatalf("exit code mismatch for startup failure: %d", exitCodeFor(err))
	}
}

func TestResolveSpecConfigWithFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "launchr.toml")
	content := strings.Join([]string{
		`name = "bot"`,
		`command = "python3 main.py"`,
		`workdir = "` + dir + `"`,
		`history_dsn = "history.db"`,
	}, "\n")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := command{out: &bytes.Buffer{}}
	gf := &GlobalFlags{ConfigPath: cfgPath}
	sf := &SpecFlags{
		Pattern:    "main.py",
		HistoryDSN: ":memory:",
		EnvKVs:     []string{"MODE=dry-run"},
	}
	spec, dsn, err := c.resolveSpec(gf, sf, true)
	if err != nil {
		t.Fatalf("resolveSpec: %v", err)
	}
	if spec.Name != "bot" || spec.Command != "python3 main.py" {
		t.Fatalf("config values lost: %+v", spec)
	}
	if spec.Pattern != "main.py" {
		t.Fatalf("flag override lost: %+v", spec)
	}
	if dsn != ":memory:" {
		t.Fatalf("history DSN override lost: %q", dsn)
	}
	if len(spec.Env) != 1 || spec.Env[0] != "MODE=dry-run" {
		t.Fatalf("env flag lost: %v", spec.Env)
	}
}

func TestResolveSpecRequiresCommand(t *testing.T) {
	c := command{out: &bytes.Buffer{}}
	if _, _, err := c.resolveSpec(&GlobalFlags{}, &SpecFlags{Name: "x"}, true); err == nil {
		t.Fatal("expected error without a command")
	}
	// Inspection commands can work from a pattern alone.
	if _, _, err := c.resolveSpec(&GlobalFlags{}, &SpecFlags{Pattern: "main.py"}, false); err != nil {
		t.Fatalf("pattern-only inspection should resolve: %v", err)
	}
}

func TestResolveSpecEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("A=1\n# comment\nB=2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := command{out: &bytes.Buffer{}}
	sf := &SpecFlags{
		Command:  "sleep 1",
		EnvFiles: []string{envPath},
		EnvKVs:   []string{"C=3"},
	}
	spec, _, err := c.resolveSpec(&GlobalFlags{}, sf, true)
	if err != nil {
		t.Fatalf("resolveSpec: %v", err)
	}
	// --env must win over env files, so it is appended last.
	want := []string{"A=1", "B=2", "C=3"}
	if len(spec.Env) != len(want) {
		t.Fatalf("env mismatch: %v", spec.Env)
	}
	for i := range want {
		if spec.Env[i] != want[i] {
			t.Fatalf("env order mismatch: %v", spec.Env)
		}
	}
}

func TestStatusNotRunningOutput(t *testing.T) {
	requireUnix(t)
	sf := testSpecFlags(t, "launchr-cli-status-nothing", "echo hi")
	var out bytes.Buffer
	c := command{out: &out}
	if err := c.Status(&GlobalFlags{NoColor: true}, sf, StatusFlags{}); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !strings.Contains(out.String(), "not running") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestExitCodeForPlainError(t *testing.T) {
	if exitCodeFor(errors.New("boom")) != launchr.ExitStartupFailure {
		t.Fatal("plain errors must map to the failure exit code")
	}
}
