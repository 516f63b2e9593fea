package workflow

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deixis/parallelphpcs/internal/report"
)

// LintReport holds a parsed linter run.
type LintReport struct {
	// Summary is the human-readable report, without the JSON line.
	Summary string
	Issues  []report.Issue
	// FixableFiles lists files with at least one fixable message, sorted.
	FixableFiles []string
	Errors       int
	Warnings     int
	Fixable      int
	// Parsed is false when no JSON report could be found in the output.
	Parsed bool
}

func (r *LintReport) String() string {
	var b strings.Builder
	if r.Summary != "" {
		fmt.Fprintln(&b, strings.TrimRight(r.Summary, "\n"))
		return b.String()
	}
	if !r.Parsed {
		return ""
	}
	fmt.Fprintf(&b, "FOUND %d ERRORS AND %d WARNINGS IN %d FILES\n", r.Errors, r.Warnings, countFiles(r.Issues))
	for _, is := range r.Issues {
		fmt.Fprintf(&b, "%s:%d:%d %s %s (%s)\n", is.File, is.Line, is.Col, is.Type, is.Message, is.Source)
	}
	return b.String()
}

func countFiles(issues []report.Issue) int {
	seen := make(map[string]struct{})
	for _, is := range issues {
		seen[is.File] = struct{}{}
	}
	return len(seen)
}

// phpcsJSON is the output of phpcs --report-json.
type phpcsJSON struct {
	Totals struct {
		Errors   int `json:"errors"`
		Warnings int `json:"warnings"`
		Fixable  int `json:"fixable"`
	} `json:"totals"`
	Files map[string]phpcsFile `json:"files"`
}

type phpcsFile struct {
	Errors   int            `json:"errors"`
	Warnings int            `json:"warnings"`
	Messages []phpcsMessage `json:"messages"`
}

type phpcsMessage struct {
	Message  string `json:"message"`
	Source   string `json:"source"`
	Severity int    `json:"severity"`
	Fixable  bool   `json:"fixable"`
	Type     string `json:"type"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// parsePHPCSOutput splits linter output into the human report and the JSON
// report phpcs prints as its last line. Without stdout, stderr is the
// summary. Output whose last line is not a JSON report is returned as the
// summary unchanged. File paths are made relative to root when inside it.
func parsePHPCSOutput(stdout, stderr []byte, root string) *LintReport {
	out := string(stdout)
	if strings.TrimSpace(out) == "" {
		return &LintReport{Summary: string(stderr)}
	}

	trimmed := strings.TrimRight(out, "\r\n")
	head, last := "", trimmed
	if i := strings.LastIndexByte(trimmed, '\n'); i >= 0 {
		head, last = trimmed[:i], trimmed[i+1:]
	}

	var doc phpcsJSON
	if err := json.Unmarshal([]byte(strings.TrimSpace(last)), &doc); err != nil || doc.Files == nil {
		return &LintReport{Summary: out}
	}

	r := &LintReport{
		Summary:  strings.TrimRight(head, "\r\n"),
		Errors:   doc.Totals.Errors,
		Warnings: doc.Totals.Warnings,
		Fixable:  doc.Totals.Fixable,
		Parsed:   true,
	}

	names := make([]string, 0, len(doc.Files))
	for name := range doc.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		file := relativize(root, name)
		fixable := false
		for _, m := range doc.Files[name].Messages {
			if m.Fixable {
				fixable = true
			}
			r.Issues = append(r.Issues, report.Issue{
				File:     file,
				Line:     m.Line,
				Col:      m.Column,
				Type:     m.Type,
				Source:   m.Source,
				Severity: m.Severity,
				Fixable:  m.Fixable,
				Message:  m.Message,
			})
		}
		if fixable {
			r.FixableFiles = append(r.FixableFiles, file)
		}
	}
	return r
}

// relativize returns p relative to root using forward slashes, or p
// unchanged when it lies outside root.
func relativize(root, p string) string {
	if root == "" || !filepath.IsAbs(p) {
		return filepath.ToSlash(p)
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
