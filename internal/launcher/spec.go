package launcher

import (
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/loykin/launchr/internal/detector"
	"github.com/loykin/launchr/internal/logger"
)

// Defaults applied by Normalized.
const (
	DefaultGracePeriod  = 3 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
	DefaultTailLines    = 10
)

// Spec describes the single long-running target program a launch attempt
// manages: how to start it, where it runs, where its output goes, and how
// an existing instance is recognized.
type Spec struct {
	Name    string `json:"name"`
	Command string `json:"command"`  // command to start the target (shell-aware)
	WorkDir string `json:"work_dir"` // installation directory; must exist

	Env     []string       `json:"env"`      // optional extra env for the child
	PIDFile string         `json:"pid_file"` // defaults to <workdir>/<name>.pid
	Pattern string         `json:"pattern"`  // cmdline match pattern; defaults to Command
	LogFile string         `json:"log_file"` // defaults to <workdir>/<name>.log
	Rotate  bool           `json:"rotate"`   // rotate the child log instead of truncating
	LogCfg  *logger.Config `json:"log,omitempty" mapstructure:"log"`

	GracePeriod  time.Duration `json:"grace_period"`  // how long the child must stay up
	PollInterval time.Duration `json:"poll_interval"` // liveness re-check interval
	TailLines    int           `json:"tail_lines"`    // log lines shown on success

	// Extra detectors consulted after the built-in pid-file and cmdline
	// checks. Populated programmatically or from config.
	Detectors []detector.Detector `json:"-" mapstructure:"-"`
}

// Normalized returns a copy with defaults filled in.
func (s Spec) Normalized() Spec {
	out := s
	if out.Name == "" {
		out.Name = "target"
	}
	if out.Pattern == "" {
		out.Pattern = strings.TrimSpace(out.Command)
	}
	if out.PIDFile == "" && out.WorkDir != "" {
		out.PIDFile = filepath.Join(out.WorkDir, out.Name+".pid")
	}
	if out.LogFile == "" && out.WorkDir != "" {
		out.LogFile = filepath.Join(out.WorkDir, out.Name+".log")
	}
	if out.GracePeriod <= 0 {
		out.GracePeriod = DefaultGracePeriod
	}
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.TailLines <= 0 {
		out.TailLines = DefaultTailLines
	}
	return out
}

// LogConfig resolves the child log sink configuration.
func (s Spec) LogConfig() logger.Config {
	if s.LogCfg != nil {
		cfg := *s.LogCfg
		if cfg.Path == "" {
			cfg.Path = s.LogFile
		}
		return cfg
	}
	return logger.Config{Path: s.LogFile, Rotate: s.Rotate}
}

// BuildCommand constructs an *exec.Cmd for the given spec.Command.
// It avoids invoking a shell when not necessary, and it also respects
// an explicit shell invocation already present in the command string
// (e.g., "sh -c 'echo hi'"), avoiding double-wrapping with another shell.
func (s *Spec) BuildCommand() *exec.Cmd {
	cmdStr := strings.TrimSpace(s.Command)
	if cmdStr == "" {
		// #nosec G204
		return exec.Command("/bin/true")
	}
	// If the command already explicitly uses a shell, honor it without adding another layer.
	if _, afterC, ok := parseExplicitShell(cmdStr); ok {
		// Always use absolute shell path to avoid PATH dependency when Env is overridden.
		// #nosec G204
		return exec.Command("/bin/sh", "-c", afterC)
	}
	// Fallback: when metacharacters are present, use /bin/sh -c
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	name := parts[0]
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// ok: intentional execution, input is validated and safe
	// #nosec G204
	return exec.Command(name, args...)
}

// parseExplicitShell detects patterns like "sh -c <ARG>" or "/bin/sh -c <ARG>" at the
// beginning of cmdStr. It returns (shellPath, afterCArg, true) when matched.
// It preserves the substring after "-c " verbatim to avoid breaking quoting.
func parseExplicitShell(cmdStr string) (string, string, bool) {
	trim := strings.TrimLeft(cmdStr, " \t")
	candidates := []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "}
	for _, p := range candidates {
		if strings.HasPrefix(trim, p) {
			after := trim[len(p):]
			// If after is wrapped in single or double quotes, strip one pair so that
			// we pass the actual script to the shell (the outer quotes would otherwise
			// inhibit parsing/redirection inside the script).
			if n := len(after); n >= 2 {
				if (after[0] == '\'' && after[n-1] == '\'') || (after[0] == '"' && after[n-1] == '"') {
					after = after[1 : n-1]
				}
			}
			return strings.Fields(p)[0], after, true
		}
	}
	return "", "", false
}
