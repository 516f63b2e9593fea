package workflow

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deixis/parallelphpcs/internal/config"
	"github.com/deixis/parallelphpcs/internal/metrics"
	"github.com/deixis/parallelphpcs/internal/runner"
)

// Run lints the candidate files. Candidates are filtered by extension and
// path patterns first; an empty selection is skipped without resolving
// workers or starting a process.
//
// Tool absence and launch failures are reported through the Outcome. Only an
// invalid configuration is returned as an error.
func (e *Engine) Run(ctx context.Context, rc RunContext, candidates []string) (_ *Outcome, err error) {
	out := &Outcome{RunID: uuid.New().String(), Context: rc}
	defer func() {
		if err == nil {
			metrics.Runs.WithLabelValues(string(out.Status)).Inc()
		}
	}()

	lc := &e.Config.PHPCS
	selected, err := e.SelectFiles(candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfiguration, err)
	}
	out.Files = selected
	if len(selected) == 0 {
		log.Info("no files to lint")
		out.Status = StatusSkipped
		return out, nil
	}

	args := e.builder().Cached()
	opts, err := args.LintArgs(ctx, lc)
	if err != nil {
		return nil, err
	}
	n, _ := args.Workers.Resolve(ctx, lc.Parallel)
	out.Workers = n

	linter := e.locate(Linter)
	if linter == nil {
		log.Warning("%s not found", Linter)
		out.Status = StatusFailed
		out.ToolMissing = Linter
		out.Message = NewErrToolUnavailable(Linter).Error()
		return out, nil
	}

	log.Notice("linting %d files with %d workers", len(selected), n)
	res, lerr := e.lint(ctx, linter, opts, selected)
	if lerr == nil {
		lerr = interrupted(ctx, res)
	}
	if lerr != nil {
		log.Warning("%v", lerr)
		out.Status = StatusFailed
		out.Err = lerr
		out.Message = lerr.Error()
		if res != nil {
			out.ExitCode = res.ExitCode
			out.Duration = res.Duration
		}
		return out, nil
	}
	out.ExitCode = res.ExitCode
	out.Duration = res.Duration
	metrics.RunDuration.Observe(res.Duration.Seconds())

	if res.Success() {
		out.Status = StatusPassed
		return out, nil
	}

	rep := parsePHPCSOutput(res.Stdout, res.Stderr, e.root())
	out.Status = StatusFailed
	out.Message = rep.String()
	out.Issues = rep.Issues
	out.FixableFiles = rep.FixableFiles
	if res.Truncated {
		out.Message += "\n(output truncated)"
	}

	fixer := e.locate(Fixer)
	if fixer == nil {
		log.Info("%s not found, no fix offered", Fixer)
		out.ToolMissing = Fixer
		out.Advisory = FixerMissingAdvisory
		return out, nil
	}
	fixOpts, err := args.FixArgs(ctx, lc, rep.FixableFiles)
	if err != nil {
		return nil, err
	}
	if fixOpts == nil {
		return out, nil
	}
	out.Fix = &FixAction{
		Argv:            slices.Concat(fixer, fixOpts),
		Files:           rep.FixableFiles,
		AcceptExitCodes: FixAcceptExitCodes,
	}
	return out, nil
}

// interrupted reports a linter run that was killed before it could finish.
// Its exit status and output say nothing about the files.
func interrupted(ctx context.Context, res *runner.Result) error {
	if res.TimedOut {
		return fmt.Errorf("%s timed out after %s: %w", Linter, res.Duration.Round(time.Millisecond), runner.ErrTimeout)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s interrupted: %w", Linter, err)
	}
	return nil
}

// lint writes the file list to a temp file and runs the linter on it.
// The list file is removed before returning.
func (e *Engine) lint(ctx context.Context, linter, opts, files []string) (*runner.Result, error) {
	list, err := os.CreateTemp("", "parallelphpcs-files-*.txt")
	if err != nil {
		return nil, fmt.Errorf("creating file list: %w", err)
	}
	defer os.Remove(list.Name())

	_, werr := list.WriteString(strings.Join(files, "\n") + "\n")
	cerr := list.Close()
	if werr != nil {
		return nil, fmt.Errorf("writing file list: %w", werr)
	}
	if cerr != nil {
		return nil, fmt.Errorf("writing file list: %w", cerr)
	}

	argv := make([]string, 0, len(linter)+len(opts)+2)
	argv = append(argv, linter...)
	argv = append(argv, opts...)
	argv = append(argv, "--report-json", "--file-list="+list.Name())

	start := time.Now()
	res, err := e.Runner.Run(ctx, argv, "")
	if err != nil {
		return nil, fmt.Errorf("executing %s: %w", Linter, err)
	}
	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}
	return res, nil
}
