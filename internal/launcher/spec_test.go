package launcher

import (
	"path/filepath"
	"testing"
	"time"
)

func TestBuildCommandDirectExec(t *testing.T) {
	s := Spec{Command: "python3 main.py"}
	c := s.BuildCommand()
	if len(c.Args) != 2 || c.Args[0] != "python3" || c.Args[1] != "main.py" {
		t.Fatalf("expected direct exec, got %#v", c.Args)
	}
}

func TestBuildCommandShellMeta(t *testing.T) {
	s := Spec{Command: "python3 main.py > out.txt"}
	c := s.BuildCommand()
	if len(c.Args) < 3 || c.Args[0] != "/bin/sh" || c.Args[1] != "-c" {
		t.Fatalf("expected /bin/sh -c wrapping, got %#v", c.Args)
	}
}

func TestBuildCommandExplicitShellNotDoubleWrapped(t *testing.T) {
	s := Spec{Command: "sh -c 'echo hi; sleep 1'"}
	c := s.BuildCommand()
	if len(c.Args) != 3 || c.Args[0] != "/bin/sh" || c.Args[1] != "-c" {
		t.Fatalf("expected single shell layer, got %#v", c.Args)
	}
	if c.Args[2] != "echo hi; sleep 1" {
		t.Fatalf("expected unwrapped script, got %q", c.Args[2])
	}
}

func TestBuildCommandEmpty(t *testing.T) {
	s := Spec{}
	c := s.BuildCommand()
	if len(c.Args) == 0 || c.Args[0] != "/bin/true" {
		t.Fatalf("expected /bin/true for empty command, got %#v", c.Args)
	}
}

func TestNormalizedDefaults(t *testing.T) {
	s := Spec{Command: "python3 main.py", WorkDir: "/opt/bot"}.Normalized()
	if s.Name != "target" {
		t.Fatalf("default name mismatch: %q", s.Name)
	}
	if s.Pattern != "python3 main.py" {
		t.Fatalf("pattern should default to command, got %q", s.Pattern)
	}
	if s.PIDFile != filepath.Join("/opt/bot", "target.pid") {
		t.Fatalf("pid file default mismatch: %q", s.PIDFile)
	}
	if s.LogFile != filepath.Join("/opt/bot", "target.log") {
		t.Fatalf("log file default mismatch: %q", s.LogFile)
	}
	if s.GracePeriod != DefaultGracePeriod || s.PollInterval != DefaultPollInterval || s.TailLines != DefaultTailLines {
		t.Fatalf("timing defaults mismatch: %+v", s)
	}
}

func TestNormalizedKeepsExplicitValues(t *testing.T) {
	in := Spec{
		Name:         "bot",
		Command:      "python3 main.py",
		WorkDir:      "/opt/bot",
		Pattern:      "main.py",
		PIDFile:      "/run/bot.pid",
		LogFile:      "/var/log/bot.log",
		GracePeriod:  10 * time.Second,
		PollInterval: time.Second,
		TailLines:    3,
	}
	out := in.Normalized()
	if out.Name != in.Name || out.Pattern != in.Pattern || out.PIDFile != in.PIDFile || out.LogFile != in.LogFile {
		t.Fatalf("explicit values must be preserved:\n in=%+v\nout=%+v", in, out)
	}
	if out.GracePeriod != in.GracePeriod || out.PollInterval != in.PollInterval || out.TailLines != in.TailLines {
		t.Fatalf("explicit timing values must be preserved:\n in=%+v\nout=%+v", in, out)
	}
}

func TestLogConfig(t *testing.T) {
	s := Spec{Command: "x", LogFile: "/tmp/x.log", Rotate: true}
	cfg := s.LogConfig()
	if cfg.Path != "/tmp/x.log" || !cfg.Rotate {
		t.Fatalf("log config mismatch: %+v", cfg)
	}
}
