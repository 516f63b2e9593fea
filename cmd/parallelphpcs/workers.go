package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deixis/parallelphpcs/internal/workers"
)

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "Show the worker count phpcs would be given",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, _, err := newEngine(0)
		if err != nil {
			return err
		}

		p := eng.Config.PHPCS.Parallel
		n, err := eng.Workers.Resolve(ctx, p)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "parallel: %s\n", p)
		fmt.Fprintf(w, "workers:  %d\n", n)
		if host, err := workers.DescribeHost(ctx); err == nil {
			fmt.Fprintf(w, "host:     %s\n", host)
		} else {
			log.Info("describing host: %v", err)
		}
		return nil
	},
}
