package workflow

import (
	"context"
	"strconv"
	"strings"

	"github.com/deixis/parallelphpcs/internal/config"
	"github.com/deixis/parallelphpcs/internal/workers"
)

// WorkerResolver turns the parallel option into a worker count.
// Implemented by workers.Resolver.
type WorkerResolver interface {
	Resolve(ctx context.Context, p config.Parallelism) (int, error)
}

// ArgumentBuilder assembles the option arguments shared by phpcs and phpcbf.
type ArgumentBuilder struct {
	Workers WorkerResolver
}

// LintArgs returns the option arguments for the linter. Run-specific flags
// (the JSON report and the file list) are appended by the caller.
func (b ArgumentBuilder) LintArgs(ctx context.Context, lc *config.LintConfig) ([]string, error) {
	n, err := b.resolve(ctx, lc)
	if err != nil {
		return nil, err
	}
	return optionArgs(lc, n), nil
}

// FixArgs returns the fixer arguments: the same options as LintArgs followed
// by the files. It returns nil when there is nothing to fix.
func (b ArgumentBuilder) FixArgs(ctx context.Context, lc *config.LintConfig, files []string) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	n, err := b.resolve(ctx, lc)
	if err != nil {
		return nil, err
	}
	return fixArgs(lc, n, files), nil
}

// Cached returns a builder that resolves the worker count on first use and
// reuses it, so lint and fix arguments agree and "auto" probes once.
func (b ArgumentBuilder) Cached() ArgumentBuilder {
	r := b.Workers
	if r == nil {
		r = &workers.Resolver{}
	}
	return ArgumentBuilder{Workers: &cachedResolver{next: r}}
}

type cachedResolver struct {
	next WorkerResolver
	p    config.Parallelism
	n    int
	ok   bool
}

func (c *cachedResolver) Resolve(ctx context.Context, p config.Parallelism) (int, error) {
	if c.ok && c.p == p {
		return c.n, nil
	}
	n, err := c.next.Resolve(ctx, p)
	if err != nil {
		return 0, err
	}
	c.p, c.n, c.ok = p, n, true
	return n, nil
}

func (b ArgumentBuilder) resolve(ctx context.Context, lc *config.LintConfig) (int, error) {
	r := b.Workers
	if r == nil {
		r = &workers.Resolver{}
	}
	return r.Resolve(ctx, lc.Parallel)
}

// optionArgs renders lc in the fixed order phpcs documents its options.
// Absent or empty options produce no token.
func optionArgs(lc *config.LintConfig, workers int) []string {
	args := make([]string, 0, 16)
	args = appendList(args, "--standard", lc.Standard)
	args = appendList(args, "--extensions", lc.TriggeredBy)
	args = appendInt(args, "--tab-width", lc.TabWidth)
	args = appendString(args, "--encoding", lc.Encoding)
	if lc.Report != nil {
		args = appendString(args, "--report", *lc.Report)
	}
	args = appendInt(args, "--report-width", lc.ReportWidth)
	args = appendInt(args, "--severity", lc.Severity)
	args = appendInt(args, "--error-severity", lc.ErrorSeverity)
	args = appendInt(args, "--warning-severity", lc.WarningSeverity)
	args = appendList(args, "--sniffs", lc.Sniffs)
	args = appendList(args, "--ignore", lc.IgnorePatterns)
	args = appendList(args, "--exclude", lc.Exclude)
	args = append(args, "--parallel="+strconv.Itoa(workers))
	if lc.ShowSniffsErrorPath {
		args = append(args, "-s")
	}
	return args
}

func fixArgs(lc *config.LintConfig, workers int, files []string) []string {
	args := optionArgs(lc, workers)
	return append(args, files...)
}

func appendString(args []string, flag, v string) []string {
	if v == "" {
		return args
	}
	return append(args, flag+"="+v)
}

func appendInt(args []string, flag string, v *int) []string {
	if v == nil {
		return args
	}
	return append(args, flag+"="+strconv.Itoa(*v))
}

func appendList(args []string, flag string, vs []string) []string {
	kept := make([]string, 0, len(vs))
	for _, v := range vs {
		if v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return args
	}
	return append(args, flag+"="+strings.Join(kept, ","))
}
