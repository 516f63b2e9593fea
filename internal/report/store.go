// Package report provides structured persistence and retrieval of
// lint and fix run results. Results are stored as typed structs and can be
// queried by file or by sniff.
package report

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Kind identifies the type of a run.
type Kind string

const (
	// Lint is a phpcs run.
	Lint Kind = "lint"
	// Fix is a phpcbf run applied to the files of an earlier lint run.
	Fix Kind = "fix"
)

// Store persists and retrieves run results.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
}

// RunResult holds the structured output from a tool run.
type RunResult struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Context string `json:"context,omitempty"` // pre-commit or run
	Status  string `json:"status"`            // skipped, passed, failed

	Summary  string   `json:"summary,omitempty"`  // human-readable linter report
	Advisory string   `json:"advisory,omitempty"` // e.g. fixer not installed
	Error    string   `json:"error,omitempty"`    // process launch failure
	Files    []string `json:"files,omitempty"`    // files handed to the linter
	Issues   []Issue  `json:"issues,omitempty"`

	// Fix action. FixCommand is empty when no fixer can be offered.
	FixableFiles []string `json:"fixable_files,omitempty"`
	FixCommand   []string `json:"fix_command,omitempty"`
	FixAccept    []int    `json:"fix_accept,omitempty"`

	// Fix run fields.
	LintRunID string `json:"lint_run_id,omitempty"`
	ExitCode  int    `json:"exit_code,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// Expect returns an error if the run's Kind does not match want.
func (r *RunResult) Expect(want Kind) error {
	if r.Kind != want {
		return fmt.Errorf("run %s is a %s run, not a %s run", r.ID, r.Kind, want)
	}
	return nil
}

// HasFix reports whether the run carries a fixer command.
func (r *RunResult) HasFix() bool {
	return len(r.FixCommand) > 0
}

// Issue is a single violation reported by phpcs.
type Issue struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	Type     string `json:"type"`   // ERROR or WARNING
	Source   string `json:"source"` // sniff code, e.g. PSR12.Files.FileHeader.SpacingAfterBlock
	Severity int    `json:"severity"`
	Fixable  bool   `json:"fixable"`
	Message  string `json:"message"`
}

// Diagnostic is a uniform, printable view of an Issue.
type Diagnostic struct {
	File    string
	Line    int
	Col     int
	Type    string
	Sniff   string
	Fixable bool
	Message string
}

// ByFile returns diagnostics for a file. The file may be given relative to
// the repository; suffix matches on a path boundary are accepted.
func ByFile(result *RunResult, file string) []Diagnostic {
	want := path.Clean(strings.TrimPrefix(file, "./"))
	var out []Diagnostic
	for _, d := range toDiagnostics(result) {
		if d.File == want || strings.HasSuffix(d.File, "/"+want) {
			out = append(out, d)
		}
	}
	return out
}

// BySniff returns diagnostics whose sniff code equals code or starts with
// code followed by a dot, so "PSR12.Files" matches every PSR12 file sniff.
func BySniff(result *RunResult, code string) []Diagnostic {
	var out []Diagnostic
	for _, d := range toDiagnostics(result) {
		if d.Sniff == code || strings.HasPrefix(d.Sniff, code+".") {
			out = append(out, d)
		}
	}
	return out
}

// Lookup resolves target as a file first and as a sniff code second.
func Lookup(result *RunResult, target string) []Diagnostic {
	if ds := ByFile(result, target); len(ds) > 0 {
		return ds
	}
	return BySniff(result, target)
}

// CountByFile returns issue counts per file, sorted by file name.
func CountByFile(result *RunResult) []FileCount {
	counts := make(map[string]*FileCount)
	for _, is := range result.Issues {
		fc, ok := counts[is.File]
		if !ok {
			fc = &FileCount{File: is.File}
			counts[is.File] = fc
		}
		if is.Type == "WARNING" {
			fc.Warnings++
		} else {
			fc.Errors++
		}
		if is.Fixable {
			fc.Fixable++
		}
	}
	out := make([]FileCount, 0, len(counts))
	for _, fc := range counts {
		out = append(out, *fc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}

// FileCount summarises the issues in one file.
type FileCount struct {
	File     string
	Errors   int
	Warnings int
	Fixable  int
}

func toDiagnostics(r *RunResult) []Diagnostic {
	out := make([]Diagnostic, 0, len(r.Issues))
	for _, is := range r.Issues {
		out = append(out, Diagnostic{
			File:    is.File,
			Line:    is.Line,
			Col:     is.Col,
			Type:    is.Type,
			Sniff:   is.Source,
			Fixable: is.Fixable,
			Message: is.Message,
		})
	}
	return out
}
