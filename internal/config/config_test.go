package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_FromRepoRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "composer.json", "{}\n")
	writeFile(t, dir, FileName, "version: 1\ntimeout: 10m\nphpcs:\n  standard: [PSR12, Custom]\n  parallel: 4\n")

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.RepoRoot != dir {
		t.Errorf("RepoRoot = %q, want %q", res.RepoRoot, dir)
	}
	if res.Path != filepath.Join(dir, FileName) {
		t.Errorf("Path = %q, want %q", res.Path, filepath.Join(dir, FileName))
	}
	if res.Config.Version != 1 {
		t.Errorf("Config.Version = %d, want 1", res.Config.Version)
	}
	if res.Config.RawTimeout != "10m" {
		t.Errorf("Config.RawTimeout = %q, want %q", res.Config.RawTimeout, "10m")
	}
	if got := strings.Join(res.Config.PHPCS.Standard, ","); got != "PSR12,Custom" {
		t.Errorf("Standard = %q, want PSR12,Custom", got)
	}
	if n, ok := res.Config.PHPCS.Parallel.Explicit(); !ok || n != 4 {
		t.Errorf("Parallel = %v, want 4", res.Config.PHPCS.Parallel)
	}
	// Defaults survive for keys that were not set.
	if got := strings.Join(res.Config.PHPCS.TriggeredBy, ","); got != "php" {
		t.Errorf("TriggeredBy = %q, want php", got)
	}
	if res.Config.PHPCS.Report == nil || *res.Config.PHPCS.Report != DefaultReport {
		t.Errorf("Report = %v, want %q", res.Config.PHPCS.Report, DefaultReport)
	}
	if !res.Config.PHPCS.ShowSniffsErrorPath {
		t.Error("ShowSniffsErrorPath = false, want true")
	}
}

func TestLoad_FromSubdirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "composer.json", "{}\n")
	writeFile(t, root, FileName, "version: 2\n")

	sub := filepath.Join(root, "src", "Foo")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := Load(sub)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.RepoRoot != root {
		t.Errorf("RepoRoot = %q, want %q", res.RepoRoot, root)
	}
	if res.Config.Version != 2 {
		t.Errorf("Config.Version = %d, want 2", res.Config.Version)
	}
}

func TestLoad_NoComposerJSON(t *testing.T) {
	dir := t.TempDir()

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.RepoRoot != dir {
		t.Errorf("RepoRoot = %q, want %q (fallback to workspace)", res.RepoRoot, dir)
	}
	if res.Config.RawTimeout != "" {
		t.Errorf("expected default config, got RawTimeout = %q", res.Config.RawTimeout)
	}
	if res.Path != "" {
		t.Errorf("Path = %q, want empty", res.Path)
	}
}

func TestLoad_GrumPHPFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "composer.json", "{}\n")
	writeFile(t, dir, GrumPHPFileName, `grumphp:
  tasks:
    phpunit: ~
    phpcs_parallel:
      standard: PSR12
      parallel: auto
      show_sniffs_error_path: false
      report: ~
`)

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	lc := res.Config.PHPCS
	if len(lc.Standard) != 1 || lc.Standard[0] != "PSR12" {
		t.Errorf("Standard = %v, want [PSR12]", lc.Standard)
	}
	if !lc.Parallel.IsAuto() {
		t.Errorf("Parallel = %v, want auto", lc.Parallel)
	}
	if lc.ShowSniffsErrorPath {
		t.Error("ShowSniffsErrorPath = true, want false")
	}
	if lc.Report != nil {
		t.Errorf("Report = %q, want nil", *lc.Report)
	}
}

func TestLoad_GrumPHPWithoutTask(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, GrumPHPFileName, "grumphp:\n  tasks:\n    phpunit: ~\n")

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Path != "" {
		t.Errorf("Path = %q, want empty (defaults)", res.Path)
	}
}

func TestLoad_InvalidParallel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "phpcs:\n  parallel: fast\n")

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for parallel: fast")
	}
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	zero := 0
	negative := -1
	cfg.PHPCS.TabWidth = &zero
	cfg.PHPCS.Severity = &negative
	cfg.PHPCS.TriggeredBy = nil
	cfg.PHPCS.Parallel = Count(0)

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"tab_width", "severity", "triggered_by", "parallel"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %q, want to mention %s", err, want)
		}
	}
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Validate(defaults) = %v, want nil", err)
	}
}

func TestParallelism_UnmarshalYAML(t *testing.T) {
	var v struct {
		P Parallelism `yaml:"p"`
	}

	if err := yaml.Unmarshal([]byte("p: 8\n"), &v); err != nil {
		t.Fatal(err)
	}
	if n, ok := v.P.Explicit(); !ok || n != 8 {
		t.Errorf("p: 8 decoded as %v", v.P)
	}

	if err := yaml.Unmarshal([]byte("p: \"8\"\n"), &v); err != nil {
		t.Fatal(err)
	}
	if _, ok := v.P.Explicit(); ok {
		t.Errorf("quoted 8 should decode as a word, got %v", v.P)
	}
	if v.P.Validate() == nil {
		t.Error("quoted 8 should be invalid")
	}

	if err := yaml.Unmarshal([]byte("p: auto\n"), &v); err != nil {
		t.Fatal(err)
	}
	if !v.P.IsAuto() {
		t.Errorf("p: auto decoded as %v", v.P)
	}

	if err := yaml.Unmarshal([]byte("p: [1]\n"), &v); err == nil {
		t.Error("expected error for a sequence")
	}
}

func TestParallelism_Validate(t *testing.T) {
	valid := []Parallelism{{}, Count(1), Count(64), Auto()}
	for _, p := range valid {
		if err := p.Validate(); err != nil {
			t.Errorf("Validate(%v) = %v, want nil", p, err)
		}
	}
	invalid := []Parallelism{Count(0), Count(-3), Word("AUTO"), Word(""), Word("4")}
	for _, p := range invalid {
		if err := p.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("Validate(%v) = %v, want ErrInvalidConfiguration", p, err)
		}
	}
}
