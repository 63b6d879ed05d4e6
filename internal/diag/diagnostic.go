package diag

import (
	"asngen/internal/source"
)

// Note attaches a secondary site to a diagnostic, e.g. the other field of a
// tag collision.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one finding produced by a schema pass.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

// WithNote returns a copy of the diagnostic with an extra note appended.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}
