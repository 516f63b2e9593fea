package workflow

import (
	"slices"
	"strings"
	"testing"
)

const twoFileReport = `{"totals":{"errors":2,"warnings":1,"fixable":1},"files":{` +
	`"/project/src/B.php":{"errors":1,"warnings":1,"messages":[` +
	`{"message":"Line exceeds 120 characters","source":"Generic.Files.LineLength.TooLong","severity":5,"fixable":false,"type":"WARNING","line":9,"column":121},` +
	`{"message":"Expected 1 blank line at end of file","source":"PSR2.Files.EndFileNewline.TooMany","severity":5,"fixable":true,"type":"ERROR","line":20,"column":1}]},` +
	`"/project/src/A.php":{"errors":1,"warnings":0,"messages":[` +
	`{"message":"Each class must be in a namespace","source":"PSR1.Classes.ClassDeclaration.MissingNamespace","severity":5,"fixable":false,"type":"ERROR","line":3,"column":1}]},` +
	`"/elsewhere/C.php":{"errors":0,"warnings":0,"messages":[]}}}`

func TestParsePHPCSOutput(t *testing.T) {
	stdout := "\nFILE: /project/src/A.php\nFOUND 1 ERROR\n\nFILE: /project/src/B.php\nFOUND 1 ERROR AND 1 WARNING\n" + twoFileReport
	r := parsePHPCSOutput([]byte(stdout), nil, "/project")

	if !r.Parsed {
		t.Fatal("Parsed = false")
	}
	if r.Errors != 2 || r.Warnings != 1 || r.Fixable != 1 {
		t.Errorf("totals = %d/%d/%d, want 2/1/1", r.Errors, r.Warnings, r.Fixable)
	}
	if strings.Contains(r.Summary, "totals") || !strings.HasPrefix(r.Summary, "\nFILE: /project/src/A.php") {
		t.Errorf("Summary = %q", r.Summary)
	}
	if len(r.Issues) != 3 {
		t.Fatalf("Issues = %+v, want 3", r.Issues)
	}
	// Files are visited in name order.
	if r.Issues[0].File != "src/A.php" || r.Issues[1].File != "src/B.php" {
		t.Errorf("issue files = %s, %s", r.Issues[0].File, r.Issues[1].File)
	}
	if got := r.Issues[2]; got.Line != 20 || got.Col != 1 || !got.Fixable || got.Source != "PSR2.Files.EndFileNewline.TooMany" {
		t.Errorf("Issues[2] = %+v", got)
	}
	if !slices.Equal(r.FixableFiles, []string{"src/B.php"}) {
		t.Errorf("FixableFiles = %v, want [src/B.php]", r.FixableFiles)
	}
}

func TestParsePHPCSOutput_TrailingNewline(t *testing.T) {
	stdout := "summary line\n" + twoFileReport + "\r\n"
	r := parsePHPCSOutput([]byte(stdout), nil, "/project")
	if !r.Parsed || r.Summary != "summary line" {
		t.Errorf("parse = parsed %v summary %q", r.Parsed, r.Summary)
	}
}

func TestParsePHPCSOutput_JSONOnly(t *testing.T) {
	r := parsePHPCSOutput([]byte(twoFileReport), nil, "/project")
	if !r.Parsed || r.Summary != "" {
		t.Fatalf("parse = parsed %v summary %q", r.Parsed, r.Summary)
	}
	s := r.String()
	if !strings.HasPrefix(s, "FOUND 2 ERRORS AND 1 WARNINGS IN 2 FILES") {
		t.Errorf("String() = %q", s)
	}
	if !strings.Contains(s, "src/A.php:3:1 ERROR Each class must be in a namespace (PSR1.Classes.ClassDeclaration.MissingNamespace)") {
		t.Errorf("String() = %q, missing issue line", s)
	}
}

func TestParsePHPCSOutput_StderrFallback(t *testing.T) {
	r := parsePHPCSOutput(nil, []byte("PHP Fatal error: Allowed memory size exhausted"), "/project")
	if r.Parsed || r.Summary != "PHP Fatal error: Allowed memory size exhausted" {
		t.Errorf("parse = %+v", r)
	}
}

func TestParsePHPCSOutput_NotJSON(t *testing.T) {
	stdout := "FILE: a.php\nsomething went wrong\n"
	r := parsePHPCSOutput([]byte(stdout), []byte("ignored"), "/project")
	if r.Parsed || r.Summary != stdout {
		t.Errorf("parse = parsed %v summary %q, want raw output", r.Parsed, r.Summary)
	}
	if len(r.FixableFiles) != 0 {
		t.Errorf("FixableFiles = %v, want none", r.FixableFiles)
	}
}

func TestParsePHPCSOutput_NullMessages(t *testing.T) {
	stdout := "x\n" + `{"totals":{"errors":0,"warnings":0,"fixable":0},"files":{"/project/a.php":{"errors":0,"warnings":0,"messages":null}}}`
	r := parsePHPCSOutput([]byte(stdout), nil, "/project")
	if !r.Parsed || len(r.Issues) != 0 || len(r.FixableFiles) != 0 {
		t.Errorf("parse = %+v", r)
	}
}

func TestRelativize(t *testing.T) {
	tests := []struct {
		root, p, want string
	}{
		{"/project", "/project/src/A.php", "src/A.php"},
		{"/project", "/elsewhere/A.php", "/elsewhere/A.php"},
		{"/project", "src/A.php", "src/A.php"},
		{"", "/project/src/A.php", "/project/src/A.php"},
	}
	for _, tt := range tests {
		if got := relativize(tt.root, tt.p); got != tt.want {
			t.Errorf("relativize(%q, %q) = %q, want %q", tt.root, tt.p, got, tt.want)
		}
	}
}
