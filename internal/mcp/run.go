package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/parallelphpcs/internal/config"
	"github.com/deixis/parallelphpcs/internal/report"
	"github.com/deixis/parallelphpcs/internal/workflow"
)

type runParams struct {
	Files  []string `json:"files,omitempty" jsonschema:"PHP files to lint, relative to the workspace or absolute. Defaults to every tracked file (or the staged files when staged=true)."`
	Staged bool     `json:"staged,omitempty" jsonschema:"Lint the files staged in git, as a pre-commit hook would. Ignored when files are given."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	rc := workflow.AdHoc
	if params.Staged {
		rc = workflow.PreCommit
	}

	var candidates []string
	if len(params.Files) > 0 {
		candidates = h.engine.ResolveFiles(params.Files)
	} else {
		var err error
		candidates, err = h.engine.Candidates(ctx, rc)
		if err != nil {
			return errorResult(fmt.Sprintf("Failed to list files: %v", err))
		}
	}

	out, err := h.engine.Run(ctx, rc, candidates)
	if err != nil {
		if errors.Is(err, config.ErrInvalidConfiguration) {
			return errorResult(fmt.Sprintf("Invalid configuration: %v", err))
		}
		return errorResult(fmt.Sprintf("run failed: %v", err))
	}

	rr := out.Record()
	if err := h.store.Save(rr); err != nil {
		log.Warning("saving run %s: %v", rr.ID, err)
	}

	return textResult(formatRun(out, rr))
}

func formatRun(out *workflow.Outcome, rr *report.RunResult) string {
	var b strings.Builder

	switch out.Status {
	case workflow.StatusSkipped:
		fmt.Fprintln(&b, "Status: SKIPPED")
	case workflow.StatusPassed:
		fmt.Fprintln(&b, "Status: PASS")
	default:
		fmt.Fprintln(&b, "Status: FAIL")
	}
	fmt.Fprintf(&b, "Run: %s\n", rr.ID)
	fmt.Fprintln(&b)

	switch out.Status {
	case workflow.StatusSkipped:
		fmt.Fprintln(&b, "No PHP files matched; nothing was linted.")
		return b.String()
	case workflow.StatusPassed:
		fmt.Fprintf(&b, "%d files linted with %d workers. No issues found.\n", len(out.Files), out.Workers)
		return b.String()
	}

	if out.ToolMissing == workflow.Linter {
		fmt.Fprintln(&b, out.Message)
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Action: install phpcs and re-run phpcs_run.")
		return b.String()
	}
	if out.Err != nil {
		fmt.Fprintf(&b, "phpcs could not be started: %s\n", out.Message)
		return b.String()
	}

	counts := report.CountByFile(rr)
	if len(counts) > 0 {
		fmt.Fprintf(&b, "Issues (%d files):\n", len(counts))
		for _, c := range counts {
			fmt.Fprintf(&b, "  %s: %d errors, %d warnings", c.File, c.Errors, c.Warnings)
			if c.Fixable > 0 {
				fmt.Fprintf(&b, ", %d fixable", c.Fixable)
			}
			fmt.Fprintln(&b)
		}
		fmt.Fprintln(&b)
	} else if out.Message != "" {
		fmt.Fprintln(&b, strings.TrimRight(out.Message, "\n"))
		fmt.Fprintln(&b)
	}

	if out.Advisory != "" {
		fmt.Fprintln(&b, out.Advisory)
		fmt.Fprintln(&b)
	}

	if out.Fix != nil {
		fmt.Fprintf(&b, "Fixable: %d files. Apply with phpcs_fix(run_id=%q).\n", len(out.Fix.Files), rr.ID)
	}
	if len(counts) > 0 {
		fmt.Fprintf(&b, "Inspect with phpcs_inspect(run_id=%q, target=\"<file or sniff>\").\n", rr.ID)
	}
	return b.String()
}
