// Package mcp provides the parallelphpcs MCP server, registering all tools
// and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/parallelphpcs"
	"github.com/deixis/parallelphpcs/internal/config"
	"github.com/deixis/parallelphpcs/internal/logging"
	"github.com/deixis/parallelphpcs/internal/report"
	"github.com/deixis/parallelphpcs/internal/runner"
	"github.com/deixis/parallelphpcs/internal/workflow"
)

//go:embed instructions.md
var Instructions string

var log = logging.Log

// handler holds shared dependencies for all tool handlers.
type handler struct {
	engine     *workflow.Engine
	runner     *runner.Runner // retained for updateWorkspaceFromRoots
	store      report.Store
	configPath string
}

// lastLinter is implemented by stores that remember the latest lint run.
type lastLinter interface {
	LastLint() string
}

// NewServer creates an MCP server with all parallelphpcs tools registered.
func NewServer(loaded *config.LoadResult, r *runner.Runner, store report.Store, workspace string) *mcp.Server {
	h := &handler{
		engine:     workflow.NewEngine(loaded, workspace, r),
		runner:     r,
		store:      store,
		configPath: loaded.Path,
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "parallelphpcs", Version: parallelphpcs.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "phpcs_workspace",
		Description: "Summarise the PHP workspace: repository root, configuration, located phpcs/phpcbf binaries, and worker count.",
	}, h.workspaceHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "phpcs_run",
		Description: `Run PHP_CodeSniffer over PHP files with parallel workers.

Use this after editing PHP code. Pass files to lint specific paths, staged=true to lint the git index,
or nothing to lint every tracked file. Results are stored for drill-down via phpcs_inspect.
When phpcbf can fix some issues, the result names a run ID to pass to phpcs_fix.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "phpcs_fix",
		Description: `Apply the phpcbf fix offered by an earlier phpcs_run.

Only files with fixable issues are touched. Defaults to the most recent run.
Re-run phpcs_run afterwards to confirm the remaining issues.`,
	}, h.fixHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "phpcs_inspect",
		Description: `Drill into results from a phpcs_run.

Use the run_id and a target from the run output.
Target can be a file path (e.g. src/Controller/HomeController.php) for every issue in the file,
or a sniff code prefix (e.g. PSR12.Files or Generic.Files.LineLength.TooLong).`,
	}, h.inspectHandler)

	return s
}

// updateWorkspaceFromRoots queries the client for MCP roots and updates the
// handler's engine, runner, and config if a valid root is returned.
// This is called during session initialization, before any tool calls.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		return
	}
	if len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	workspace := u.Path

	loaded, err := config.Load(workspace)
	if err != nil {
		log.Warning("ignoring root %s: %v", workspace, err)
		return
	}

	// Update runner.
	h.runner.Workspace = loaded.RepoRoot
	h.runner.Timeout = loaded.Config.Timeout()
	h.runner.MaxOutput = loaded.Config.MaxOutputBytes()

	// Update engine.
	h.engine.Config = loaded.Config
	h.engine.Workspace = workspace
	h.engine.RepoRoot = loaded.RepoRoot
	h.configPath = loaded.Path
	log.Info("workspace set from client root: %s", loaded.RepoRoot)
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
