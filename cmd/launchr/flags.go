package main

import "time"

// GlobalFlags holds persistent flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	NoColor    bool
}

// SpecFlags Flag structs to decouple cobra from logic for testing.
// They mirror the config file keys and override them when both are set.
type SpecFlags struct {
	Name         string
	Command      string
	WorkDir      string
	Pattern      string
	PIDFile      string
	LogFile      string
	Rotate       bool
	GracePeriod  time.Duration
	PollInterval time.Duration
	TailLines    int
	EnvKVs       []string
	EnvFiles     []string
	HistoryDSN   string
}

type UpFlags struct {
	JSON bool
}

type StatusFlags struct {
	JSON bool
}

type LogsFlags struct {
	Lines int
	All   bool
}
