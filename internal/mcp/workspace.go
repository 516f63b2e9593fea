package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/parallelphpcs/internal/workers"
	"github.com/deixis/parallelphpcs/internal/workflow"
)

type workspaceParams struct{}

func (h *handler) workspaceHandler(ctx context.Context, req *sdkmcp.CallToolRequest, _ workspaceParams) (*sdkmcp.CallToolResult, any, error) {
	var b strings.Builder
	e := h.engine
	cfg := e.Config

	fmt.Fprintf(&b, "Repository: %s\n", e.RepoRoot)
	if h.configPath != "" {
		fmt.Fprintf(&b, "Config: %s\n", h.configPath)
	} else {
		fmt.Fprintln(&b, "Config: (defaults)")
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Tools:")
	for _, name := range []string{workflow.Linter, workflow.Fixer} {
		override := cfg.Tools.PHPCS
		if name == workflow.Fixer {
			override = cfg.Tools.PHPCBF
		}
		argv := workflow.ResolveTool(e.RepoRoot, name, override)
		if argv == nil {
			fmt.Fprintf(&b, "  %s: not found\n", name)
			continue
		}
		fmt.Fprintf(&b, "  %s: %s\n", name, strings.Join(argv, " "))
	}
	fmt.Fprintln(&b)

	lc := &cfg.PHPCS
	if len(lc.Standard) > 0 {
		fmt.Fprintf(&b, "Standard: %s\n", strings.Join(lc.Standard, ","))
	} else {
		fmt.Fprintln(&b, "Standard: (phpcs default)")
	}
	fmt.Fprintf(&b, "Extensions: %s\n", strings.Join(lc.TriggeredBy, ","))

	n, err := e.Workers.Resolve(ctx, lc.Parallel)
	if err != nil {
		fmt.Fprintf(&b, "Workers: invalid (%v)\n", err)
	} else {
		fmt.Fprintf(&b, "Workers: %d (parallel: %s)\n", n, lc.Parallel)
	}
	if host, err := workers.DescribeHost(ctx); err == nil {
		fmt.Fprintf(&b, "Host CPUs: %s\n", host)
	}

	fmt.Fprintf(&b, "Timeout: %s\n", cfg.Timeout())
	fmt.Fprintf(&b, "Max output: %s\n", humanize.IBytes(uint64(cfg.MaxOutputBytes())))

	return textResult(b.String())
}
