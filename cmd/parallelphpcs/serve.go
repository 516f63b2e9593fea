package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/deixis/parallelphpcs/internal/config"
	phpcsmcp "github.com/deixis/parallelphpcs/internal/mcp"
	"github.com/deixis/parallelphpcs/internal/metrics"
	"github.com/deixis/parallelphpcs/internal/report"
	"github.com/deixis/parallelphpcs/internal/runner"
)

var (
	mcpHTTP         string
	mcpInstructions bool

	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Long: `Start the MCP server on stdio, or over streamable HTTP with --http.
In HTTP mode Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mcpInstructions {
				fmt.Fprint(cmd.OutOrStdout(), phpcsmcp.Instructions)
				return nil
			}
			return serve(cmd.Context(), mcpHTTP)
		},
	}
)

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTP, "http", "", "start HTTP server on address (e.g. :9090)")
	mcpCmd.Flags().BoolVar(&mcpInstructions, "instructions", false, "print model instructions and exit")
}

func serve(ctx context.Context, httpAddr string) error {
	workspace, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	store := report.NewLRUStore(16, openStore())

	r := &runner.Runner{
		Workspace: loaded.RepoRoot,
		Timeout:   cfg.Timeout(),
		MaxOutput: cfg.MaxOutputBytes(),
	}

	server := phpcsmcp.NewServer(loaded, r, store, workspace)

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Notice("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
