package diag

import (
	"fmt"

	"hdlc/internal/source"
)

// FatalError is the payload carried by the panic raised on a fatal
// diagnostic. The CLI recovers it at top level; library code must not
// swallow it.
type FatalError struct {
	Diag Diagnostic
}

func (e *FatalError) Error() string {
	return e.Diag.Message
}

// Session is the long-lived sink for one compiler invocation. It owns
// the error counter incremented by bounds reports during evaluation.
type Session struct {
	Files    *source.FileSet
	Reporter Reporter

	errors int
}

func NewSession(files *source.FileSet, r Reporter) *Session {
	if r == nil {
		r = NopReporter{}
	}
	return &Session{Files: files, Reporter: r}
}

// Errors returns the number of error-severity diagnostics issued so
// far.
func (s *Session) Errors() int {
	return s.errors
}

func (s *Session) NoteAt(span source.Span, code Code, format string, args ...any) {
	s.Reporter.Report(code, SevNote, span, fmt.Sprintf(format, args...), nil)
}

func (s *Session) WarnAt(span source.Span, code Code, format string, args ...any) {
	s.Reporter.Report(code, SevWarning, span, fmt.Sprintf(format, args...), nil)
}

func (s *Session) ErrorAt(span source.Span, code Code, format string, args ...any) {
	s.errors++
	s.Reporter.Report(code, SevError, span, fmt.Sprintf(format, args...), nil)
}

// FatalAt reports the diagnostic and unwinds with a *FatalError panic.
// Used for contract violations: malformed IR, division by zero in the
// source, unsupported cast or image types.
func (s *Session) FatalAt(span source.Span, code Code, format string, args ...any) {
	s.errors++
	msg := fmt.Sprintf(format, args...)
	d := Diagnostic{Severity: SevFailure, Code: code, Message: msg, Primary: span}
	s.Reporter.Report(code, SevFailure, span, msg, nil)
	panic(&FatalError{Diag: d})
}
