// Command parallelphpcs runs PHP_CodeSniffer over a Composer project with
// parallel workers and applies phpcbf fixes on request.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/deixis/parallelphpcs"
	"github.com/deixis/parallelphpcs/internal/config"
	"github.com/deixis/parallelphpcs/internal/logging"
	"github.com/deixis/parallelphpcs/internal/report"
	"github.com/deixis/parallelphpcs/internal/runner"
	"github.com/deixis/parallelphpcs/internal/workflow"
)

var log = logging.Log

// errFailed makes the process exit 1 without printing anything further;
// the command has already reported why.
var errFailed = errors.New("failed")

var (
	verbosity int
	storeDir  string

	rootCmd = &cobra.Command{
		Use:   "parallelphpcs",
		Short: "Run PHP_CodeSniffer with parallel workers",
		Long: `parallelphpcs lints the PHP files of a Composer project with phpcs,
forwarding a worker count resolved from the "parallel" option, and offers
phpcbf fixes for the files with fixable issues.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// WARNING by default, one level more per -v.
			logging.Init(verbosity + 1)
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), parallelphpcs.Version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", "", "directory for stored runs (default: user cache dir)")

	rootCmd.AddCommand(runCmd, fixCmd, workersCmd, mcpCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if errors.Is(err, errFailed) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "parallelphpcs: %v\n", err)
		if errors.Is(err, config.ErrInvalidConfiguration) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// --- shared ---

func newEngine(timeoutOverride time.Duration) (*workflow.Engine, *config.LoadResult, error) {
	workspace, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	timeout := cfg.Timeout()
	if timeoutOverride > 0 {
		timeout = timeoutOverride
	}

	r := &runner.Runner{
		Workspace: loaded.RepoRoot,
		Timeout:   timeout,
		MaxOutput: cfg.MaxOutputBytes(),
	}
	return workflow.NewEngine(loaded, workspace, r), loaded, nil
}

func openStore() report.Store {
	return report.NewDiskStore(storeDir)
}
