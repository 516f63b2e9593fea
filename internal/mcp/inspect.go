package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/parallelphpcs/internal/report"
)

type inspectParams struct {
	RunID  string `json:"run_id" jsonschema:"the run ID from a phpcs_run result"`
	Target string `json:"target" jsonschema:"a file path (e.g. src/Foo.php) for every issue in the file, or a sniff code or prefix (e.g. PSR12.Files)"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}
	if params.Target == "" {
		return errorResult("target is required")
	}

	result, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	diagnostics := report.Lookup(result, params.Target)
	if len(diagnostics) == 0 {
		return textResult(fmt.Sprintf("No issues found for %s in run %s (%s).", params.Target, params.RunID, result.Kind))
	}

	return textResult(formatInspectOutput(params.RunID, result.Kind, params.Target, diagnostics))
}

func formatInspectOutput(runID string, kind report.Kind, target string, diagnostics []report.Diagnostic) string {
	var b strings.Builder

	// Run header.
	fmt.Fprintf(&b, "Run: %s (%s)\n", runID, kind)

	// Target header, grouped by type.
	types := make(map[string]int)
	fixable := 0
	for _, d := range diagnostics {
		types[strings.ToLower(d.Type)]++
		if d.Fixable {
			fixable++
		}
	}
	names := make([]string, 0, len(types))
	for t := range types {
		names = append(names, t)
	}
	sort.Strings(names)
	var parts []string
	for _, t := range names {
		parts = append(parts, fmt.Sprintf("%d %s", types[t], t))
	}
	if fixable > 0 {
		parts = append(parts, fmt.Sprintf("%d fixable", fixable))
	}
	fmt.Fprintf(&b, "%s: %s\n", target, strings.Join(parts, ", "))
	fmt.Fprintln(&b)

	for _, d := range diagnostics {
		fmt.Fprintf(&b, "%s:%d:%d: ", d.File, d.Line, d.Col)
		mark := ""
		if d.Fixable {
			mark = " [x]"
		}
		fmt.Fprintf(&b, "%s%s %s [%s]\n", d.Type, mark, d.Message, d.Sniff)
	}

	return b.String()
}
