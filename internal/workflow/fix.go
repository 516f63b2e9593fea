package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/deixis/parallelphpcs/internal/metrics"
	"github.com/deixis/parallelphpcs/internal/report"
)

// FixResult holds the outcome of a fixer invocation.
type FixResult struct {
	ExitCode int
	// Modified is true when phpcbf reported that it changed files.
	Modified bool
	Output   string
}

// Apply runs the fixer. Exit codes outside AcceptExitCodes wrap ErrFixFailed;
// the FixResult is still returned so callers can show the output.
func (a *FixAction) Apply(ctx context.Context, r CommandRunner) (*FixResult, error) {
	if len(a.Argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrFixFailed)
	}

	res, err := r.Run(ctx, a.Argv, "")
	if err != nil {
		metrics.Fixes.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrFixFailed, err)
	}

	fr := &FixResult{
		ExitCode: res.ExitCode,
		Modified: res.ExitCode == 1,
		Output:   string(res.Output()),
	}
	if res.TimedOut {
		metrics.Fixes.WithLabelValues("failed").Inc()
		return fr, fmt.Errorf("%w: %s timed out after %s", ErrFixFailed, Fixer, res.Duration.Round(time.Millisecond))
	}
	if !a.accepts(res.ExitCode) {
		metrics.Fixes.WithLabelValues("failed").Inc()
		return fr, fmt.Errorf("%w: %s exited with status %d", ErrFixFailed, Fixer, res.ExitCode)
	}

	if fr.Modified {
		metrics.Fixes.WithLabelValues("modified").Inc()
		log.Notice("fixed %d files", len(a.Files))
	} else {
		metrics.Fixes.WithLabelValues("clean").Inc()
	}
	return fr, nil
}

// ApplyFix applies the fix offered by a stored lint run and returns a fix
// run recording the result. A fixer failure is recorded in the returned run
// as well as returned as an error.
func (e *Engine) ApplyFix(ctx context.Context, lint *report.RunResult) (*report.RunResult, error) {
	action, err := FixActionFrom(lint)
	if err != nil {
		return nil, err
	}

	run := &report.RunResult{
		ID:        uuid.New().String(),
		Kind:      report.Fix,
		Context:   lint.Context,
		Files:     action.Files,
		LintRunID: lint.ID,
	}

	fr, err := action.Apply(ctx, e.Runner)
	if fr != nil {
		run.ExitCode = fr.ExitCode
		run.Modified = fr.Modified
		run.Summary = fr.Output
	}
	if err != nil {
		run.Status = string(StatusFailed)
		run.Error = err.Error()
		return run, err
	}
	run.Status = string(StatusPassed)
	return run, nil
}
