package detector

// Detector is a strategy that determines whether the target program is
// already running. Implementations may check a PID file, scan the process
// table, or run a probe command. They must be safe for concurrent use.
type Detector interface {
	// Alive returns true if a live instance of the target is detected.
	Alive() (bool, error)
	// Describe returns a human-readable description of the detection method.
	Describe() string
}

// Entry is one process-table row shown to the operator when a detector
// matched live processes.
type Entry struct {
	PID     int    `json:"pid"`
	Cmdline string `json:"cmdline"`
}

// Lister is implemented by detectors that can enumerate the concrete
// process-table entries behind a positive Alive result.
type Lister interface {
	Matches() ([]Entry, error)
}
