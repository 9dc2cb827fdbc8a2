package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/launchr/internal/detector"
	"github.com/loykin/launchr/internal/launcher"
	"github.com/loykin/launchr/internal/logger"
)

// FileConfig represents the top-level TOML structure.
type FileConfig struct {
	Name         string          `toml:"name" mapstructure:"name"`
	Command      string          `toml:"command" mapstructure:"command"`
	WorkDir      string          `toml:"workdir" mapstructure:"workdir"`
	Pattern      string          `toml:"pattern" mapstructure:"pattern"`
	PIDFile      string          `toml:"pidfile" mapstructure:"pidfile"`
	LogFile      string          `toml:"log_file" mapstructure:"log_file"`
	GracePeriod  time.Duration   `toml:"grace_period" mapstructure:"grace_period"`
	PollInterval time.Duration   `toml:"poll_interval" mapstructure:"poll_interval"`
	TailLines    int             `toml:"tail_lines" mapstructure:"tail_lines"`
	Env          []string        `toml:"env" mapstructure:"env"`
	EnvFiles     []string        `toml:"env_files" mapstructure:"env_files"`
	HistoryDSN   string          `toml:"history_dsn" mapstructure:"history_dsn"`
	Log          *LogConfig      `toml:"log" mapstructure:"log"`
	Detectors    []DetectorEntry `toml:"detectors" mapstructure:"detectors"`
}

type LogConfig struct {
	Rotate     bool `toml:"rotate" mapstructure:"rotate"`
	MaxSizeMB  int  `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `toml:"compress" mapstructure:"compress"`
}

type DetectorEntry struct {
	Type    string `toml:"type" mapstructure:"type"`
	Path    string `toml:"path" mapstructure:"path"`
	PID     int    `toml:"pid" mapstructure:"pid"`
	Command string `toml:"command" mapstructure:"command"`
}

// Config is the loaded, validated configuration.
type Config struct {
	Spec       launcher.Spec
	HistoryDSN string
}

// Load parses a TOML config file into a launcher.Spec plus the optional
// history DSN. Relative pidfile/log paths resolve against the work dir.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}

	if fc.Command == "" {
		return nil, fmt.Errorf("config %s: command is required", path)
	}

	dets := make([]detector.Detector, 0, len(fc.Detectors))
	for _, d := range fc.Detectors {
		switch d.Type {
		case "pidfile":
			if d.Path == "" {
				return nil, fmt.Errorf("detector pidfile requires path")
			}
			dets = append(dets, detector.PIDFileDetector{PIDFile: d.Path})
		case "pid":
			if d.PID <= 0 {
				return nil, fmt.Errorf("detector pid requires positive pid")
			}
			dets = append(dets, detector.PIDDetector{PID: d.PID})
		case "command":
			if d.Command == "" {
				return nil, fmt.Errorf("detector command requires command")
			}
			dets = append(dets, detector.CommandDetector{Command: d.Command})
		case "cmdline":
			if d.Command == "" {
				return nil, fmt.Errorf("detector cmdline requires command pattern")
			}
			dets = append(dets, detector.CmdlineDetector{Pattern: d.Command})
		default:
			return nil, fmt.Errorf("unknown detector type %q", d.Type)
		}
	}

	env := make([]string, 0, len(fc.Env))
	for _, ef := range fc.EnvFiles {
		if !filepath.IsAbs(ef) && fc.WorkDir != "" {
			ef = filepath.Join(fc.WorkDir, ef)
		}
		pairs, err := LoadEnvFile(ef)
		if err != nil {
			return nil, fmt.Errorf("env file %s: %w", ef, err)
		}
		env = append(env, pairs...)
	}
	env = append(env, fc.Env...) // explicit entries override file entries downstream

	spec := launcher.Spec{
		Name:         fc.Name,
		Command:      fc.Command,
		WorkDir:      fc.WorkDir,
		Pattern:      fc.Pattern,
		PIDFile:      resolvePath(fc.WorkDir, fc.PIDFile),
		LogFile:      resolvePath(fc.WorkDir, fc.LogFile),
		GracePeriod:  fc.GracePeriod,
		PollInterval: fc.PollInterval,
		TailLines:    fc.TailLines,
		Env:          env,
		Detectors:    dets,
	}
	if fc.Log != nil {
		spec.Rotate = fc.Log.Rotate
		spec.LogCfg = &logger.Config{
			Path:       spec.LogFile,
			Rotate:     fc.Log.Rotate,
			MaxSizeMB:  fc.Log.MaxSizeMB,
			MaxBackups: fc.Log.MaxBackups,
			MaxAgeDays: fc.Log.MaxAgeDays,
			Compress:   fc.Log.Compress,
		}
	}

	return &Config{Spec: spec, HistoryDSN: fc.HistoryDSN}, nil
}

func resolvePath(workDir, p string) string {
	if p == "" || filepath.IsAbs(p) || workDir == "" {
		return p
	}
	return filepath.Join(workDir, p)
}

// LoadEnvFile parses a simple .env file and returns a slice of "KEY=VALUE" entries.
func LoadEnvFile(path string) ([]string, error) {
	// Mitigate G304: sanitize user-provided path by cleaning it before use.
	clean := filepath.Clean(path)
	b, err := os.ReadFile(clean)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i >= 0 {
			k := strings.TrimSpace(line[:i])
			v := strings.TrimSpace(line[i+1:])
			out = append(out, k+"="+v)
		}
	}
	return out, nil
}
