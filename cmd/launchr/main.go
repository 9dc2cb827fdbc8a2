package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/loykin/launchr"
	"github.com/spf13/cobra"
)

func main() {
	c := command{out: os.Stdout}
	root := buildRoot(c)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps error types to the documented exit codes. Anything
// that is not the already-running case counts as a failed launch.
func exitCodeFor(err error) int {
	var are *launchr.AlreadyRunningError
	if errors.As(err, &are) {
		return launchr.ExitAlreadyRunning
	}
	return launchr.ExitStartupFailure
}

// buildRoot creates the root command with all subcommands attached.
func buildRoot(c command) *cobra.Command {
	globalFlags := &GlobalFlags{}
	specFlags := &SpecFlags{}
	upFlags := &UpFlags{}
	statusFlags := &StatusFlags{}
	logsFlags := &LogsFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createUpCommand(c, globalFlags, specFlags, upFlags),
		createStatusCommand(c, globalFlags, specFlags, statusFlags),
		createLogsCommand(c, globalFlags, specFlags, logsFlags),
	)
	return root
}

// createRootCommand creates the root command with persistent flags only.
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "launchr",
		Short: "Start a program once, only if it is not already running",
		Long: `Launchr checks whether a target program already has a live instance,
starts it detached when it does not, and confirms the launch after a
grace period. It does not supervise the target beyond that.

Exit codes:
  0  the target was started and survived the grace period
  1  a live instance was already running, nothing was spawned
  2  the launch failed or the target died during the grace period

Examples:
  launchr up --name=bot --command="python3 main.py" --workdir=/opt/bot
  launchr up --config=launchr.toml
  launchr status --config=launchr.toml
  launchr logs --config=launchr.toml --lines=50`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false, "disable colored log output")

	return root
}

// addSpecFlags registers the target description flags shared by all
// subcommands.
func addSpecFlags(cmd *cobra.Command, flags *SpecFlags) {
	cmd.Flags().StringVar(&flags.Name, "name", "", "target name (used for default pid/log file names)")
	cmd.Flags().StringVar(&flags.Command, "command", "", "command line to launch")
	cmd.Flags().StringVar(&flags.WorkDir, "workdir", "", "working directory for the target")
	cmd.Flags().StringVar(&flags.Pattern, "pattern", "", "process-table match pattern (defaults to the command)")
	cmd.Flags().StringVar(&flags.PIDFile, "pidfile", "", "pid file path (defaults to <workdir>/<name>.pid)")
	cmd.Flags().StringVar(&flags.LogFile, "log-file", "", "child log file path (defaults to <workdir>/<name>.log)")
	cmd.Flags().BoolVar(&flags.Rotate, "rotate", false, "rotate the child log instead of truncating per run")
	cmd.Flags().DurationVar(&flags.GracePeriod, "grace", 0, "how long the target must survive before the launch counts")
	cmd.Flags().DurationVar(&flags.PollInterval, "poll-interval", 0, "liveness poll interval during the grace period")
	cmd.Flags().IntVar(&flags.TailLines, "tail-lines", 0, "log lines to print after a confirmed launch")
	cmd.Flags().StringArrayVar(&flags.EnvKVs, "env", nil, "extra KEY=VALUE for the target (repeatable)")
	cmd.Flags().StringArrayVar(&flags.EnvFiles, "env-file", nil, "env file merged into the target environment (repeatable)")
	cmd.Flags().StringVar(&flags.HistoryDSN, "history-dsn", "", "launch history sink DSN (sqlite path, postgres:// or clickhouse://)")
}

// createUpCommand creates the up subcommand.
func createUpCommand(c command, globalFlags *GlobalFlags, specFlags *SpecFlags, upFlags *UpFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Launch the target if it is not already running",
		Long: `Launch the target program detached, with stdout and stderr redirected
to its log file, unless a live instance is already detected.

Examples:
  launchr up --name=bot --command="python3 main.py" --workdir=/opt/bot
  launchr up --config=launchr.toml --env-file=.env`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Up(globalFlags, specFlags, *upFlags)
		},
	}
	addSpecFlags(cmd, specFlags)
	cmd.Flags().BoolVar(&upFlags.JSON, "json", false, "print the launch result as JSON")
	return cmd
}

// createStatusCommand creates the status subcommand.
func createStatusCommand(c command, globalFlags *GlobalFlags, specFlags *SpecFlags, statusFlags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a live instance matches the target signature",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Status(globalFlags, specFlags, *statusFlags)
		},
	}
	addSpecFlags(cmd, specFlags)
	cmd.Flags().BoolVar(&statusFlags.JSON, "json", false, "print the status as JSON")
	return cmd
}

// createLogsCommand creates the logs subcommand.
func createLogsCommand(c command, globalFlags *GlobalFlags, specFlags *SpecFlags, logsFlags *LogsFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the target's log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Logs(globalFlags, specFlags, *logsFlags)
		},
	}
	addSpecFlags(cmd, specFlags)
	cmd.Flags().IntVar(&logsFlags.Lines, "lines", 20, "number of trailing lines to print")
	cmd.Flags().BoolVar(&logsFlags.All, "all", false, "print the whole log file")
	return cmd
}
