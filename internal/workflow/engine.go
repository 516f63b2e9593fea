// Package workflow provides the lint run engine: it builds phpcs and phpcbf
// command lines, runs the linter over a file list, and turns the result into
// an Outcome with an optional deferred fix. It is consumed by both the MCP
// server and the CLI commands.
package workflow

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/shlex"

	"github.com/deixis/parallelphpcs/internal/config"
	"github.com/deixis/parallelphpcs/internal/files"
	"github.com/deixis/parallelphpcs/internal/logging"
	"github.com/deixis/parallelphpcs/internal/runner"
	"github.com/deixis/parallelphpcs/internal/workers"
)

var log = logging.Log

// Tool names.
const (
	Linter = "phpcs"
	Fixer  = "phpcbf"
)

// CommandRunner executes commands within a workspace.
// Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, cwd string) (*runner.Result, error)
}

// Engine holds shared dependencies for lint and fix runs.
type Engine struct {
	Config    *config.Config
	Runner    CommandRunner
	Workers   WorkerResolver // nil resolves "auto" to a single worker
	Workspace string         // cwd; relative file arguments are resolved from here
	RepoRoot  string         // composer root; commands run here

	// Locate overrides tool lookup. It returns nil when the tool is missing.
	Locate func(name string) []string
}

// NewEngine wires an Engine from a loaded configuration.
func NewEngine(loaded *config.LoadResult, workspace string, r *runner.Runner) *Engine {
	return &Engine{
		Config:    loaded.Config,
		Runner:    r,
		Workers:   &workers.Resolver{Runner: r},
		Workspace: workspace,
		RepoRoot:  loaded.RepoRoot,
	}
}

func (e *Engine) root() string {
	if e.RepoRoot != "" {
		return e.RepoRoot
	}
	return e.Workspace
}

func (e *Engine) builder() ArgumentBuilder {
	return ArgumentBuilder{Workers: e.Workers}
}

// locate returns the argv prefix for a tool, honouring configured overrides.
func (e *Engine) locate(name string) []string {
	if e.Locate != nil {
		return e.Locate(name)
	}
	override := ""
	switch name {
	case Linter:
		override = e.Config.Tools.PHPCS
	case Fixer:
		override = e.Config.Tools.PHPCBF
	}
	return ResolveTool(e.root(), name, override)
}

// ResolveFiles normalises file arguments so that they are relative to the
// repository root, where the linter runs. It accepts absolute paths and
// paths relative to the workspace. Paths outside the repository are dropped.
func (e *Engine) ResolveFiles(args []string) []string {
	base := e.root()
	resolved := make([]string, 0, len(args))
	for _, p := range args {
		abs := p
		if !filepath.IsAbs(p) {
			cwd := e.Workspace
			if cwd == "" {
				cwd = base
			}
			abs = filepath.Join(cwd, p)
		}
		rel, err := filepath.Rel(base, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			// Outside repo root, skip silently.
			continue
		}
		resolved = append(resolved, filepath.ToSlash(rel))
	}
	return resolved
}

// Candidates lists files from git for the given context.
func (e *Engine) Candidates(ctx context.Context, rc RunContext) ([]string, error) {
	src := files.Tracked
	if rc == PreCommit {
		src = files.Staged
	}
	c := &files.Collector{Runner: e.Runner}
	return c.Collect(ctx, src)
}

// SelectFiles applies triggered_by, whitelist_patterns and ignore_patterns.
func (e *Engine) SelectFiles(candidates []string) ([]string, error) {
	lc := &e.Config.PHPCS
	f := files.Filter{
		Extensions: lc.TriggeredBy,
		Paths:      lc.WhitelistPatterns,
		NotPaths:   lc.IgnorePatterns,
	}
	return f.Apply(candidates)
}

// ResolveTool returns the argv prefix for invoking a named tool.
// A non-empty override is split like a shell command line and its first word
// resolved. Otherwise it checks the Composer bin directory under root, then
// falls back to exec.LookPath on the system PATH.
// Returns nil if the tool is not available.
func ResolveTool(root, name, override string) []string {
	if override != "" {
		parts, err := shlex.Split(override)
		if err != nil || len(parts) == 0 {
			log.Warning("ignoring malformed %s command %q: %v", name, override, err)
			return nil
		}
		bin := lookup(root, parts[0])
		if bin == "" {
			return nil
		}
		return append([]string{bin}, parts[1:]...)
	}

	if bin := lookup(root, filepath.Join("vendor", "bin", name)); bin != "" {
		return []string{bin}
	}
	if bin := lookup(root, name); bin != "" {
		return []string{bin}
	}
	return nil
}

// lookup resolves a command word: paths are taken relative to root, bare
// names are searched on PATH.
func lookup(root, word string) string {
	if !strings.ContainsRune(word, '/') && !strings.ContainsRune(word, filepath.Separator) {
		p, err := exec.LookPath(word)
		if err != nil {
			return ""
		}
		return p
	}
	p := word
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	if !isExecutable(p) {
		return ""
	}
	return p
}

func isExecutable(p string) bool {
	fi, err := os.Stat(p)
	if err != nil || fi.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || fi.Mode().Perm()&0o111 != 0
}

// toolInfo holds install metadata for a known tool.
type toolInfo struct {
	// Package is the Composer package providing the tool.
	Package string
	// AltInstall is an alternative install URL or instruction.
	AltInstall string
}

// knownTools maps tool binary names to their install metadata.
var knownTools = map[string]toolInfo{
	Linter: {Package: "squizlabs/php_codesniffer", AltInstall: "https://github.com/PHPCSStandards/PHP_CodeSniffer#installation"},
	Fixer:  {Package: "squizlabs/php_codesniffer", AltInstall: "https://github.com/PHPCSStandards/PHP_CodeSniffer#installation"},
}

// ErrToolUnavailable is returned when a required tool is not installed.
// It includes actionable install instructions when the tool is known.
type ErrToolUnavailable struct {
	Name string
	Info *toolInfo
}

func NewErrToolUnavailable(name string) ErrToolUnavailable {
	e := ErrToolUnavailable{Name: name}
	if info, ok := knownTools[name]; ok {
		e.Info = &info
	}
	return e
}

func (e ErrToolUnavailable) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is required but not installed.", e.Name)

	if e.Info == nil {
		return b.String()
	}

	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "\nInstall:")
	fmt.Fprintf(&b, "\n  composer require --dev %s   # adds to composer.json (recommended)", e.Info.Package)
	fmt.Fprintf(&b, "\n  composer global require %s # installs globally", e.Info.Package)
	if e.Info.AltInstall != "" {
		fmt.Fprintf(&b, "\nSee also: %s", e.Info.AltInstall)
	}
	return b.String()
}
