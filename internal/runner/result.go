package runner

import "time"

// Result holds the output of a command execution.
type Result struct {
	RunID     string        // unique identifier for this execution
	Argv      []string      // command as executed
	ExitCode  int           // process exit code
	Stdout    []byte        // captured stdout (may be truncated)
	Stderr    []byte        // captured stderr (may be truncated)
	Truncated bool          // true if output exceeded the size cap
	TimedOut  bool          // true if the process was killed at the deadline
	Duration  time.Duration // wall time from start to exit
}

// Success reports whether the process exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Output returns stdout, falling back to stderr when stdout is empty.
func (r *Result) Output() []byte {
	if len(r.Stdout) > 0 {
		return r.Stdout
	}
	return r.Stderr
}
