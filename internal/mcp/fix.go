package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/parallelphpcs/internal/report"
)

type fixParams struct {
	RunID string `json:"run_id,omitempty" jsonschema:"the run ID from a phpcs_run result. Defaults to the most recent run."`
}

func (h *handler) fixHandler(ctx context.Context, req *mcp.CallToolRequest, params fixParams) (*mcp.CallToolResult, any, error) {
	runID := params.RunID
	if runID == "" {
		if ll, ok := h.store.(lastLinter); ok {
			runID = ll.LastLint()
		}
	}
	if runID == "" {
		return errorResult("run_id is required: no phpcs_run has been recorded in this session")
	}

	lint, err := h.store.Load(runID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", runID, err))
	}
	if !lint.HasFix() {
		return errorResult(fmt.Sprintf("Run %s has no fix to apply (status: %s).", runID, lint.Status))
	}

	run, err := h.engine.ApplyFix(ctx, lint)
	if run != nil {
		if serr := h.store.Save(run); serr != nil {
			log.Warning("saving run %s: %v", run.ID, serr)
		}
	}
	if err != nil {
		if run == nil {
			return errorResult(fmt.Sprintf("fix failed: %v", err))
		}
		return errorResult(formatFix(run))
	}
	return textResult(formatFix(run))
}

func formatFix(run *report.RunResult) string {
	var b strings.Builder

	if run.Error != "" {
		fmt.Fprintln(&b, "Status: FAIL")
	} else {
		fmt.Fprintln(&b, "Status: OK")
	}
	fmt.Fprintf(&b, "Run: %s (fixes %s)\n", run.ID, run.LintRunID)
	fmt.Fprintln(&b)

	if run.Error != "" {
		fmt.Fprintln(&b, run.Error)
		if run.Summary != "" {
			fmt.Fprintln(&b)
			fmt.Fprintln(&b, strings.TrimRight(run.Summary, "\n"))
		}
		return b.String()
	}

	if run.Modified {
		fmt.Fprintf(&b, "Modified: yes (%d files)\n", len(run.Files))
		for _, f := range run.Files {
			fmt.Fprintf(&b, "  %s\n", f)
		}
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Re-run phpcs_run to see the remaining issues.")
	} else {
		fmt.Fprintln(&b, "Modified: no. phpcbf found nothing to change.")
	}
	return b.String()
}
