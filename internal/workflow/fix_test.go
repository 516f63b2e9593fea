package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/deixis/parallelphpcs/internal/report"
	"github.com/deixis/parallelphpcs/internal/runner"
)

func testAction() *FixAction {
	return &FixAction{
		Argv:            []string{"/project/vendor/bin/phpcbf", "--parallel=2", "src/Foo.php"},
		Files:           []string{"src/Foo.php"},
		AcceptExitCodes: FixAcceptExitCodes,
	}
}

func TestFixApply_ExitCodes(t *testing.T) {
	tests := []struct {
		code     int
		modified bool
		wantErr  bool
	}{
		{0, false, false},
		{1, true, false},
		{2, false, true},
		{3, false, true},
	}
	for _, tt := range tests {
		fr := &fakeRunner{results: map[string]*runner.Result{
			"phpcbf": {ExitCode: tt.code, Stdout: []byte("done")},
		}}
		res, err := testAction().Apply(context.Background(), fr)
		if gotErr := err != nil; gotErr != tt.wantErr {
			t.Errorf("Apply(exit %d) err = %v, wantErr %v", tt.code, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, ErrFixFailed) {
			t.Errorf("Apply(exit %d) err = %v, want ErrFixFailed", tt.code, err)
		}
		if res == nil {
			t.Fatalf("Apply(exit %d) result = nil", tt.code)
		}
		if res.ExitCode != tt.code || res.Output != "done" {
			t.Errorf("Apply(exit %d) = %+v", tt.code, res)
		}
		if tt.code <= 1 && res.Modified != tt.modified {
			t.Errorf("Apply(exit %d).Modified = %v, want %v", tt.code, res.Modified, tt.modified)
		}
	}
}

func TestFixApply_LaunchFailure(t *testing.T) {
	fr := &fakeRunner{errs: map[string]error{"phpcbf": runner.ErrNotFound}}
	res, err := testAction().Apply(context.Background(), fr)
	if !errors.Is(err, ErrFixFailed) || res != nil {
		t.Errorf("Apply = %v, %v; want nil, ErrFixFailed", res, err)
	}
}

func TestFixApply_EmptyArgv(t *testing.T) {
	_, err := (&FixAction{}).Apply(context.Background(), &fakeRunner{})
	if !errors.Is(err, ErrFixFailed) {
		t.Errorf("Apply(empty) err = %v, want ErrFixFailed", err)
	}
}

func TestFixActionString(t *testing.T) {
	a := &FixAction{Argv: []string{"phpcbf", "--standard=PSR12", "src/with space.php"}}
	if got, want := a.String(), "phpcbf --standard=PSR12 'src/with space.php'"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFixActionFrom(t *testing.T) {
	lint := &report.RunResult{
		ID:           "lint-1",
		Kind:         report.Lint,
		FixableFiles: []string{"src/Foo.php"},
		FixCommand:   []string{"phpcbf", "src/Foo.php"},
	}
	a, err := FixActionFrom(lint)
	if err != nil {
		t.Fatalf("FixActionFrom: %v", err)
	}
	if len(a.AcceptExitCodes) != 2 || !a.accepts(1) || a.accepts(2) {
		t.Errorf("AcceptExitCodes = %v, want [0 1]", a.AcceptExitCodes)
	}

	if _, err := FixActionFrom(&report.RunResult{ID: "lint-2", Kind: report.Lint}); err == nil {
		t.Error("FixActionFrom(no fix) err = nil")
	}
	if _, err := FixActionFrom(&report.RunResult{ID: "fix-1", Kind: report.Fix}); err == nil {
		t.Error("FixActionFrom(fix run) err = nil")
	}
}

func TestApplyFix(t *testing.T) {
	fr := &fakeRunner{results: map[string]*runner.Result{
		"phpcbf": {ExitCode: 1},
	}}
	e := newTestEngine(fr, Linter, Fixer)
	lint := &report.RunResult{
		ID:           "lint-1",
		Kind:         report.Lint,
		Context:      string(PreCommit),
		FixableFiles: []string{"src/Foo.php"},
		FixCommand:   []string{"/project/vendor/bin/phpcbf", "src/Foo.php"},
		FixAccept:    []int{0, 1},
	}

	run, err := e.ApplyFix(context.Background(), lint)
	if err != nil {
		t.Fatalf("ApplyFix: %v", err)
	}
	if run.Kind != report.Fix || run.LintRunID != "lint-1" || run.Status != "passed" || !run.Modified {
		t.Errorf("ApplyFix = %+v", run)
	}
	if run.ID == "" || run.ID == lint.ID {
		t.Errorf("ApplyFix ID = %q, want a fresh run id", run.ID)
	}
}

func TestApplyFix_Failure(t *testing.T) {
	fr := &fakeRunner{results: map[string]*runner.Result{
		"phpcbf": {ExitCode: 16, Stderr: []byte("phpcbf: internal error")},
	}}
	e := newTestEngine(fr, Linter, Fixer)
	lint := &report.RunResult{
		ID:         "lint-1",
		Kind:       report.Lint,
		FixCommand: []string{"/project/vendor/bin/phpcbf", "src/Foo.php"},
	}

	run, err := e.ApplyFix(context.Background(), lint)
	if !errors.Is(err, ErrFixFailed) {
		t.Fatalf("ApplyFix err = %v, want ErrFixFailed", err)
	}
	if run == nil || run.Status != "failed" || run.ExitCode != 16 || run.Summary != "phpcbf: internal error" {
		t.Errorf("ApplyFix run = %+v", run)
	}
}

func TestOutcomeStatusHelpers(t *testing.T) {
	out := &Outcome{Status: StatusFailed, Fix: &FixAction{Argv: []string{"phpcbf"}}}
	if !out.Failed() || out.Passed() || out.Skipped() {
		t.Errorf("status helpers disagree with %q", out.Status)
	}
	if !out.HasFix() {
		t.Error("HasFix() = false, want true")
	}
	if (&Outcome{Status: StatusSkipped}).HasFix() {
		t.Error("HasFix() on skipped outcome = true")
	}
}

func TestFixApply_TimedOut(t *testing.T) {
	fr := &fakeRunner{results: map[string]*runner.Result{
		"phpcbf": {ExitCode: -1, TimedOut: true, Duration: 30 * time.Second},
	}}
	a := &FixAction{Argv: []string{"phpcbf", "src/Foo.php"}, AcceptExitCodes: FixAcceptExitCodes}

	res, err := a.Apply(context.Background(), fr)
	if !errors.Is(err, ErrFixFailed) || !strings.Contains(err.Error(), "timed out after 30s") {
		t.Errorf("Apply err = %v, want a timeout wrapping ErrFixFailed", err)
	}
	if res == nil || res.Modified {
		t.Errorf("Apply result = %+v, want unmodified result", res)
	}
}
