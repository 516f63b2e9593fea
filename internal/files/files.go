// Package files selects the PHP files a lint run applies to.
package files

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/deixis/parallelphpcs/internal/runner"
)

// Source identifies where candidate files come from.
type Source int

const (
	// Staged selects files staged in the git index (pre-commit).
	Staged Source = iota
	// Tracked selects every tracked or untracked, non-ignored file.
	Tracked
)

// CommandRunner executes git. Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, cwd string) (*runner.Result, error)
}

// Collector lists candidate files from git.
type Collector struct {
	Runner CommandRunner
}

// Collect returns repo-relative, slash-separated paths in git's order.
func (c *Collector) Collect(ctx context.Context, src Source) ([]string, error) {
	argv := []string{"git", "ls-files", "-z", "--cached", "--others", "--exclude-standard"}
	if src == Staged {
		argv = []string{"git", "diff", "--cached", "--name-only", "--diff-filter=ACMR", "-z"}
	}

	res, err := c.Runner.Run(ctx, argv, "")
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("%s exited with status %d: %s", strings.Join(argv[:2], " "), res.ExitCode, bytes.TrimSpace(res.Stderr))
	}

	var out []string
	seen := make(map[string]bool)
	for _, f := range bytes.Split(res.Stdout, []byte{0}) {
		name := string(bytes.TrimSpace(f))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

// Filter narrows candidate files by extension and path patterns.
// Patterns follow GrumPHP's paths and notPaths: a pattern wrapped in a
// delimiter (for example "/src/", "#^app/#i", "~legacy~" or "{^lib/}") is a
// regular expression; anything else matches as a plain substring of the
// repo-relative path.
type Filter struct {
	Extensions []string // without the dot; empty keeps every extension
	Paths      []string // keep only matches; empty keeps everything
	NotPaths   []string // drop matches
}

// Apply returns the matching files, preserving order.
func (f Filter) Apply(files []string) ([]string, error) {
	include, err := compile(f.Paths)
	if err != nil {
		return nil, err
	}
	exclude, err := compile(f.NotPaths)
	if err != nil {
		return nil, err
	}

	exts := make(map[string]bool, len(f.Extensions))
	for _, e := range f.Extensions {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	var out []string
	for _, file := range files {
		p := filepath.ToSlash(file)
		if len(exts) > 0 && !exts[strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))] {
			continue
		}
		if matchAny(exclude, p) {
			continue
		}
		if len(include) > 0 && !matchAny(include, p) {
			continue
		}
		out = append(out, file)
	}
	return out, nil
}

type matcher func(string) bool

func compile(patterns []string) ([]matcher, error) {
	var ms []matcher
	for _, p := range patterns {
		if p == "" {
			continue
		}
		expr, flags, ok := splitRegexp(p)
		if !ok {
			literal := p
			ms = append(ms, func(s string) bool { return strings.Contains(s, literal) })
			continue
		}
		re, err := compileRegexp(expr, flags)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		ms = append(ms, re.MatchString)
	}
	return ms, nil
}

// regexpFlags are the PCRE modifiers allowed after the closing delimiter.
const regexpFlags = "imsxuADUn"

var bracketDelimiters = map[byte]byte{'{': '}', '(': ')', '[': ']', '<': '>'}

// splitRegexp reports whether p is a delimited regular expression and splits
// it into its body and trailing modifiers. The body is the shortest prefix of
// at least three bytes followed only by modifiers.
func splitRegexp(p string) (expr, flags string, ok bool) {
	for end := 3; end <= len(p); end++ {
		if strings.Trim(p[end:], regexpFlags) != "" {
			continue
		}
		body := p[:end]
		first, last := body[0], body[len(body)-1]
		switch {
		case first == last:
			ok = !isAlnum(first) && !strings.ContainsRune("*? \\", rune(first))
		default:
			ok = bracketDelimiters[first] == last
		}
		return body[1 : len(body)-1], p[end:], ok
	}
	return "", "", false
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func compileRegexp(expr, flags string) (*regexp.Regexp, error) {
	var inline string
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's', 'U':
			if !strings.ContainsRune(inline, f) {
				inline += string(f)
			}
		case 'A':
			expr = `\A(?:` + expr + `)`
		case 'x':
			return nil, fmt.Errorf("modifier %q is not supported", f)
		}
	}
	if inline != "" {
		expr = "(?" + inline + ")" + expr
	}
	return regexp.Compile(expr)
}

func matchAny(ms []matcher, p string) bool {
	for _, m := range ms {
		if m(p) {
			return true
		}
	}
	return false
}
