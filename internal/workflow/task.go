package workflow

import "context"

// RunContext is the situation a task is invoked in.
type RunContext string

const (
	// PreCommit lints the files staged in git.
	PreCommit RunContext = "pre-commit"
	// AdHoc lints files named by the caller, or every tracked file.
	AdHoc RunContext = "run"
)

// Task is a unit of work a hook runner can schedule.
type Task interface {
	Name() string
	CanRunIn(rc RunContext) bool
	Run(ctx context.Context, rc RunContext, files []string) (*Outcome, error)
}

var _ Task = (*Engine)(nil)

// Name returns the task name used in grumphp.yml.
func (e *Engine) Name() string { return "phpcs_parallel" }

// CanRunIn reports whether the task supports rc.
func (e *Engine) CanRunIn(rc RunContext) bool {
	return rc == PreCommit || rc == AdHoc
}
