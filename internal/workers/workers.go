// Package workers resolves the "parallel" setting into a concrete worker
// count, probing the host's CPU cores for "auto".
package workers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/deixis/parallelphpcs/internal/config"
	"github.com/deixis/parallelphpcs/internal/logging"
	"github.com/deixis/parallelphpcs/internal/metrics"
	"github.com/deixis/parallelphpcs/internal/runner"
)

var log = logging.Log

// DefaultProbeTimeout bounds a single core-count probe.
const DefaultProbeTimeout = 5 * time.Second

// Fallback is the worker count used when the host cannot be probed.
const Fallback = 1

// ErrInvalidConfiguration is returned for a parallel setting that can never run.
var ErrInvalidConfiguration = config.ErrInvalidConfiguration

// ErrProbeUnavailable is returned when the core count could not be determined.
var ErrProbeUnavailable = errors.New("cpu core probe unavailable")

// CommandRunner executes probe commands. Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, cwd string) (*runner.Result, error)
}

// Resolver turns a parallel setting into a worker count.
type Resolver struct {
	Runner  CommandRunner
	GOOS    string        // defaults to runtime.GOOS
	Timeout time.Duration // defaults to DefaultProbeTimeout
}

// Resolve returns a worker count of at least 1. Explicit counts are returned
// unchanged. "auto" probes the host and falls back to 1 on any probe failure.
// Only a malformed setting is an error.
func (r *Resolver) Resolve(ctx context.Context, p config.Parallelism) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if !p.IsAuto() {
		n, _ := p.Explicit()
		return n, nil
	}

	n, err := r.Probe(ctx)
	if err != nil {
		log.Debug("falling back to %d worker: %s", Fallback, err)
		metrics.ProbeFallbacks.Inc()
		return Fallback, nil
	}
	return n, nil
}

// probeCommands holds the core-count command for each supported platform.
var probeCommands = map[string][]string{
	"windows": {"wmic", "cpu", "get", "NumberOfCores"},
	"linux":   {"nproc"},
	"darwin":  {"nproc"},
}

// Probe asks the host how many CPU cores it has. Every failure, including an
// unsupported platform, wraps ErrProbeUnavailable.
func (r *Resolver) Probe(ctx context.Context) (int, error) {
	goos := r.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	argv, ok := probeCommands[goos]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported platform %s", ErrProbeUnavailable, goos)
	}
	if r.Runner == nil {
		return 0, fmt.Errorf("%w: no command runner", ErrProbeUnavailable)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := r.Runner.Run(ctx, argv, "")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	if ctx.Err() != nil {
		return 0, fmt.Errorf("%w: %s timed out after %s", ErrProbeUnavailable, argv[0], timeout)
	}
	if res.ExitCode != 0 {
		return 0, fmt.Errorf("%w: %s exited with status %d", ErrProbeUnavailable, argv[0], res.ExitCode)
	}

	if goos == "windows" {
		return parseFirstPositive(string(res.Stdout))
	}
	return parseSingle(string(res.Stdout))
}

// parseFirstPositive returns the first line holding a positive integer.
// wmic prints a header line and one line per socket.
func parseFirstPositive(out string) (int, error) {
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		if err != nil || n <= 0 {
			continue
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: no core count in output %q", ErrProbeUnavailable, strings.TrimSpace(out))
}

func parseSingle(out string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: unexpected output %q", ErrProbeUnavailable, strings.TrimSpace(out))
	}
	return n, nil
}
