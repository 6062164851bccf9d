// Package diag implements the compiler's single diagnostic format, shared
// by the scanner and the parser: "<filename>:<line>:<col>: <kind>:
// <message>", followed by the offending source line and a caret/tilde
// underline.
package diag

import (
	"fmt"
	"strings"

	"github.com/bear24rw/EECE6083/token"
)

// Kind distinguishes info/warning/error diagnostics. Only Error sets the
// sticky has-errors flag on a Reporter.
type Kind string

const (
	Info    Kind = "info"
	Warning Kind = "warning"
	Error   Kind = "error"
)

// Diagnostic is one reported scan/parse-time message.
type Diagnostic struct {
	Kind    Kind
	Origin  token.Origin
	Message string
	// Width is how many characters to underline with tildes, starting at
	// Origin.Col. Zero means "just the caret, no tildes".
	Width int
}

// String renders the diagnostic in the three-line form: header line,
// source line, caret/tilde line.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d: %s: %s\n", d.Origin.Filename, d.Origin.Line, d.Origin.Col, d.Kind, d.Message)
	b.WriteString(d.Origin.LineStr)
	b.WriteByte('\n')

	col := d.Origin.Col
	if col < 1 {
		col = 1
	}
	b.WriteString(strings.Repeat(" ", col-1))
	b.WriteByte('^')
	if d.Width > 1 {
		b.WriteString(strings.Repeat("~", d.Width-1))
	}
	return b.String()
}

// Reporter accumulates diagnostics over one compilation and tracks the
// sticky has-errors flag described in spec §7: warnings never set it,
// errors do, and once set it is never cleared.
type Reporter struct {
	diags     []Diagnostic
	hasErrors bool
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Report records a diagnostic, setting the sticky error flag if its kind
// is Error.
func (r *Reporter) Report(d Diagnostic) {
	r.diags = append(r.diags, d)
	if d.Kind == Error {
		r.hasErrors = true
	}
}

// Infof records an Info diagnostic.
func (r *Reporter) Infof(origin token.Origin, format string, args ...any) {
	r.Report(Diagnostic{Kind: Info, Origin: origin, Message: fmt.Sprintf(format, args...)})
}

// Warningf records a Warning diagnostic.
func (r *Reporter) Warningf(origin token.Origin, format string, args ...any) {
	r.Report(Diagnostic{Kind: Warning, Origin: origin, Message: fmt.Sprintf(format, args...)})
}

// Errorf records an Error diagnostic and sets the sticky has-errors flag.
func (r *Reporter) Errorf(origin token.Origin, format string, args ...any) {
	r.Report(Diagnostic{Kind: Error, Origin: origin, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any Error-kind diagnostic has ever been
// reported.
func (r *Reporter) HasErrors() bool {
	return r.hasErrors
}

// Diagnostics returns all diagnostics reported so far, in report order.
func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diags
}
