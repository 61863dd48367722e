package report

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatDiagnostic(t *testing.T) {
	tests := []struct {
		d    Diagnostic
		want string
	}{
		{
			Diagnostic{File: "src/a.ts", Line: 3, Column: 7, Category: CategoryError, Message: "Expected \";\""},
			`src/a.ts(3,7): error: Expected ";"`,
		},
		{
			Diagnostic{File: "src/a.ts", Category: CategoryWarning, Code: "TS6059", Message: "rootDir"},
			"src/a.ts: warning TS6059: rootDir",
		},
		{
			Diagnostic{Category: CategoryError, Message: "no inputs"},
			"error: no inputs",
		},
	}

	for _, tt := range tests {
		if got := FormatDiagnostic(tt.d); got != tt.want {
			t.Errorf("FormatDiagnostic() = %q, want %q", got, tt.want)
		}
	}
}

func TestText_Prefix(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf, true)

	r.ReportDiagnostic(".mjs", Diagnostic{File: "a.ts", Line: 1, Column: 1, Message: "bad"})
	r.ReportStatus(".cjs", StatusSucceeded, "Built 3 files")
	r.ReportStatus(".cjs", StatusBuilding, "")

	want := "[.mjs]: a.ts(1,1): error: bad\n[.cjs]: Built 3 files\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if r.ErrorCount() != 1 {
		t.Errorf("ErrorCount() = %d, want 1", r.ErrorCount())
	}
}

func TestText_NoPrefix(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf, false)
	r.ReportDiagnostic(".mjs", Diagnostic{Category: CategoryWarning, Message: "careful"})

	if got := buf.String(); strings.Contains(got, "[.mjs]") {
		t.Errorf("single target output should have no prefix: %q", got)
	}
	if r.ErrorCount() != 0 {
		t.Errorf("warnings should not count as errors")
	}
}

func TestCollector_Concurrent(t *testing.T) {
	var c Collector
	var wg sync.WaitGroup
	for _, target := range []string{".mjs", ".cjs"} {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			c.ReportStatus(target, StatusBuilding, "")
			c.ReportDiagnostic(target, Diagnostic{Message: target})
			c.ReportStatus(target, StatusSucceeded, "")
		}(target)
	}
	wg.Wait()

	if diff := cmp.Diff([]Status{StatusBuilding, StatusSucceeded}, c.Statuses(".mjs")); diff != "" {
		t.Errorf("Statuses mismatch (-want +got):\n%s", diff)
	}
	if got := c.Diagnostics(".cjs"); len(got) != 1 || got[0].Message != ".cjs" {
		t.Errorf("Diagnostics(.cjs) = %v", got)
	}
	if got := c.Diagnostics(""); len(got) != 2 {
		t.Errorf("Diagnostics(all) = %d entries, want 2", len(got))
	}
}

func TestCollector_Messages(t *testing.T) {
	var c Collector
	c.ReportStatus(".mjs", StatusBuilding, "")
	c.ReportStatus(".mjs", StatusBuilding, "A non-dry build would build 'a.ts'")
	c.ReportStatus(".cjs", StatusBuilding, "other target")
	c.ReportDiagnostic(".mjs", Diagnostic{Message: "not a status"})

	if diff := cmp.Diff([]string{"A non-dry build would build 'a.ts'"}, c.Messages(".mjs")); diff != "" {
		t.Errorf("Messages mismatch (-want +got):\n%s", diff)
	}
}
