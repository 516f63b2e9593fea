package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deixis/parallelphpcs/internal/report"
	"github.com/deixis/parallelphpcs/internal/workflow"
)

var (
	runStaged  bool
	runFix     bool
	runJSON    bool
	runTimeout time.Duration

	runCmd = &cobra.Command{
		Use:   "run [files...]",
		Short: "Lint PHP files with phpcs",
		Long: `Lint the given files, the staged files (--staged), or every tracked file.
Files are filtered by triggered_by, whitelist_patterns and ignore_patterns.
Exits 1 when phpcs reports issues.`,
		RunE: runLint,
	}

	fixJSON bool

	fixCmd = &cobra.Command{
		Use:   "fix <run-id>",
		Short: "Apply the phpcbf fix offered by a previous run",
		Args:  cobra.ExactArgs(1),
		RunE:  runStoredFix,
	}
)

func init() {
	runCmd.Flags().BoolVar(&runStaged, "staged", false, "lint the files staged in git (pre-commit)")
	runCmd.Flags().BoolVar(&runFix, "fix", false, "apply the phpcbf fix immediately when one is offered")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "output results as JSON")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "override configured timeout (e.g. 5m)")

	fixCmd.Flags().BoolVar(&fixJSON, "json", false, "output results as JSON")
}

func runLint(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eng, _, err := newEngine(runTimeout)
	if err != nil {
		return err
	}

	rc := workflow.AdHoc
	if runStaged {
		rc = workflow.PreCommit
	}

	var candidates []string
	if len(args) > 0 {
		candidates = eng.ResolveFiles(args)
	} else {
		candidates, err = eng.Candidates(ctx, rc)
		if err != nil {
			return err
		}
	}

	out, err := eng.Run(ctx, rc, candidates)
	if err != nil {
		return err
	}

	store := openStore()
	rr := out.Record()
	if err := store.Save(rr); err != nil {
		log.Warning("saving run %s: %v", rr.ID, err)
	}

	var fixRun *report.RunResult
	if runFix && out.Fix != nil {
		var ferr error
		fixRun, ferr = eng.ApplyFix(ctx, rr)
		if fixRun != nil {
			if err := store.Save(fixRun); err != nil {
				log.Warning("saving run %s: %v", fixRun.ID, err)
			}
		}
		if ferr != nil && fixRun == nil {
			return ferr
		}
	}

	w := cmd.OutOrStdout()
	if runJSON {
		if err := encodeJSON(w, rr); err != nil {
			return err
		}
		if fixRun != nil {
			if err := encodeJSON(w, fixRun); err != nil {
				return err
			}
		}
	} else {
		fmt.Fprint(w, formatRunCLI(out, rr, verbosity > 0))
		if fixRun != nil {
			fmt.Fprint(w, formatFixCLI(fixRun))
		}
	}

	if out.Status == workflow.StatusFailed {
		return errFailed
	}
	return nil
}

func runStoredFix(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eng, _, err := newEngine(0)
	if err != nil {
		return err
	}

	store := openStore()
	lint, err := store.Load(args[0])
	if err != nil {
		return err
	}

	run, ferr := eng.ApplyFix(ctx, lint)
	if run == nil {
		return ferr
	}
	if err := store.Save(run); err != nil {
		log.Warning("saving run %s: %v", run.ID, err)
	}

	w := cmd.OutOrStdout()
	if fixJSON {
		if err := encodeJSON(w, run); err != nil {
			return err
		}
	} else {
		fmt.Fprint(w, formatFixCLI(run))
	}
	if ferr != nil {
		return errFailed
	}
	return nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatRunCLI(out *workflow.Outcome, rr *report.RunResult, verbose bool) string {
	var b []byte
	w := func(format string, args ...any) {
		b = fmt.Appendf(b, format, args...)
	}

	switch out.Status {
	case workflow.StatusSkipped:
		w("skipped: no files to lint\n")
		return string(b)
	case workflow.StatusPassed:
		w("ok\t%d files\t%s\n", len(out.Files), out.Duration.Round(time.Millisecond))
		return string(b)
	}

	w("FAIL\n\n")
	if out.Message != "" {
		w("%s\n", strings.TrimRight(out.Message, "\n"))
	}
	if out.Advisory != "" {
		w("\n%s\n", out.Advisory)
	}
	if out.Fix != nil {
		w("\nphpcbf can fix %d files. Run:\n", len(out.Fix.Files))
		w("  parallelphpcs fix %s\n", rr.ID)
		if verbose {
			w("or:\n  %s\n", out.Fix)
		}
	}
	return string(b)
}

func formatFixCLI(run *report.RunResult) string {
	var b []byte
	w := func(format string, args ...any) {
		b = fmt.Appendf(b, format, args...)
	}

	if run.Error != "" {
		w("FAIL\n\n%s\n", run.Error)
		if run.Summary != "" {
			w("%s\n", strings.TrimRight(run.Summary, "\n"))
		}
		return string(b)
	}
	if run.Modified {
		w("fixed\t%d files\n", len(run.Files))
		for _, f := range run.Files {
			w("  %s\n", f)
		}
		return string(b)
	}
	w("ok\tnothing to fix\n")
	return string(b)
}
