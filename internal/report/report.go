// Package report carries compiler diagnostics and build status from the
// build workers to the user.
package report

import (
	"fmt"
	"io"
	"sync"
)

// Category is the severity of a diagnostic.
type Category int

const (
	CategoryError Category = iota
	CategoryWarning
	CategoryMessage
)

func (c Category) String() string {
	switch c {
	case CategoryError:
		return "error"
	case CategoryWarning:
		return "warning"
	default:
		return "message"
	}
}

// Diagnostic is one structured compiler message. Line and Column are
// 1-based; zero means unknown.
type Diagnostic struct {
	File     string
	Line     int
	Column   int
	Category Category
	Code     string
	Message  string
}

// Status is the lifecycle state of one target's build.
type Status string

const (
	StatusConfigured Status = "configured"
	StatusBuilding   Status = "building"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCleaned    Status = "cleaned"
)

// Reporter receives diagnostics and status changes. Implementations must
// be safe for concurrent use by several target workers.
type Reporter interface {
	ReportDiagnostic(target string, d Diagnostic)
	ReportStatus(target string, status Status, message string)
}

// Text writes human-readable lines, prefixed with the target name when
// more than one target builds.
type Text struct {
	w          io.Writer
	withPrefix bool
	mu         sync.Mutex
	errors     int
}

// NewText creates a text reporter.
func NewText(w io.Writer, withPrefix bool) *Text {
	return &Text{w: w, withPrefix: withPrefix}
}

// ReportDiagnostic prints "file(line,col): error CODE: message".
func (r *Text) ReportDiagnostic(target string, d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.Category == CategoryError {
		r.errors++
	}
	fmt.Fprintf(r.w, "%s%s\n", r.prefix(target), FormatDiagnostic(d))
}

// ReportStatus prints status transitions worth showing.
func (r *Text) ReportStatus(target string, status Status, message string) {
	if message == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%s%s\n", r.prefix(target), message)
}

// ErrorCount returns how many error diagnostics were reported.
func (r *Text) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

func (r *Text) prefix(target string) string {
	if !r.withPrefix || target == "" {
		return ""
	}
	return "[" + target + "]: "
}

// FormatDiagnostic renders d without a target prefix.
func FormatDiagnostic(d Diagnostic) string {
	loc := d.File
	if d.Line > 0 {
		loc = fmt.Sprintf("%s(%d,%d)", d.File, d.Line, d.Column)
	}
	code := ""
	if d.Code != "" {
		code = " " + d.Code
	}
	if loc == "" {
		return fmt.Sprintf("%s%s: %s", d.Category, code, d.Message)
	}
	return fmt.Sprintf("%s: %s%s: %s", loc, d.Category, code, d.Message)
}

// Entry is one recorded diagnostic or status change.
type Entry struct {
	Target     string
	Diagnostic *Diagnostic
	Status     Status
	Message    string
}

// Collector records everything it receives.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
}

// ReportDiagnostic records d.
func (c *Collector) ReportDiagnostic(target string, d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{Target: target, Diagnostic: &d})
}

// ReportStatus records a status change.
func (c *Collector) ReportStatus(target string, status Status, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{Target: target, Status: status, Message: message})
}

// Diagnostics returns the diagnostics reported for target, or for every
// target when target is empty.
func (c *Collector) Diagnostics(target string) []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Diagnostic
	for _, e := range c.entries {
		if e.Diagnostic != nil && (target == "" || e.Target == target) {
			out = append(out, *e.Diagnostic)
		}
	}
	return out
}

// Statuses returns the status sequence reported for target.
func (c *Collector) Statuses(target string) []Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Status
	for _, e := range c.entries {
		if e.Diagnostic == nil && e.Target == target {
			out = append(out, e.Status)
		}
	}
	return out
}

// Messages returns the non-empty status messages reported for target.
func (c *Collector) Messages(target string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.entries {
		if e.Diagnostic == nil && e.Target == target && e.Message != "" {
			out = append(out, e.Message)
		}
	}
	return out
}

// Discard drops everything.
type Discard struct{}

func (Discard) ReportDiagnostic(string, Diagnostic)   {}
func (Discard) ReportStatus(string, Status, string) {}
