package workflow

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/alessio/shellescape"

	"github.com/deixis/parallelphpcs/internal/report"
)

// Status is the terminal state of a lint run.
type Status string

const (
	StatusSkipped Status = "skipped"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
)

// FixerMissingAdvisory is attached to a failed run when phpcbf is absent.
const FixerMissingAdvisory = "Info: phpcbf could not be found. Please consider installing it for auto-fixing."

// FixAcceptExitCodes are the phpcbf exit codes treated as success.
// phpcbf exits 1 when it changed files.
var FixAcceptExitCodes = []int{0, 1}

// ErrFixFailed is returned when the fixer exits outside FixAcceptExitCodes.
var ErrFixFailed = errors.New("fixer failed")

// Outcome is the result of one lint run.
type Outcome struct {
	RunID   string
	Context RunContext
	Status  Status

	// Message is the linter report for a failure, or a launch error.
	Message string
	// Advisory is an extra note, e.g. the fixer is not installed.
	Advisory string
	// ToolMissing names a tool that could not be located.
	ToolMissing string
	// Err is set when the linter could not be started.
	Err error

	Files        []string
	Issues       []report.Issue
	FixableFiles []string
	// Fix is offered when fixable issues were found and phpcbf exists.
	Fix *FixAction

	Workers  int
	ExitCode int
	Duration time.Duration
}

func (o *Outcome) Skipped() bool { return o.Status == StatusSkipped }
func (o *Outcome) Passed() bool  { return o.Status == StatusPassed }
func (o *Outcome) Failed() bool  { return o.Status == StatusFailed }

// HasFix reports whether a fixer action is attached.
func (o *Outcome) HasFix() bool { return o.Fix != nil }

// Record converts the outcome into a persistable run.
func (o *Outcome) Record() *report.RunResult {
	r := &report.RunResult{
		ID:           o.RunID,
		Kind:         report.Lint,
		Context:      string(o.Context),
		Status:       string(o.Status),
		Summary:      o.Message,
		Advisory:     o.Advisory,
		Files:        o.Files,
		Issues:       o.Issues,
		FixableFiles: o.FixableFiles,
		ExitCode:     o.ExitCode,
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
	}
	if o.Fix != nil {
		r.FixCommand = o.Fix.Argv
		r.FixAccept = o.Fix.AcceptExitCodes
	}
	return r
}

// FixAction is a deferred fixer invocation. It is only run on request.
type FixAction struct {
	Argv            []string
	Files           []string
	AcceptExitCodes []int
}

// FixActionFrom rebuilds the fix offered by a stored lint run.
func FixActionFrom(r *report.RunResult) (*FixAction, error) {
	if err := r.Expect(report.Lint); err != nil {
		return nil, err
	}
	if !r.HasFix() {
		return nil, fmt.Errorf("run %s has no fix to apply", r.ID)
	}
	accept := r.FixAccept
	if len(accept) == 0 {
		accept = FixAcceptExitCodes
	}
	return &FixAction{
		Argv:            r.FixCommand,
		Files:           r.FixableFiles,
		AcceptExitCodes: accept,
	}, nil
}

// String renders the fixer command line for copy-paste.
func (a *FixAction) String() string {
	return shellescape.QuoteCommand(a.Argv)
}

func (a *FixAction) accepts(code int) bool {
	return slices.Contains(a.AcceptExitCodes, code)
}
