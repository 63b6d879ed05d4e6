package diag

import (
	"fmt"
	"sort"
	"strings"

	"asngen/internal/source"
)

type goldenLine struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatGolden renders diagnostics into a stable one-line-per-entry form
// suitable for golden comparison in tests: "severity CODE path:line:col
// message". Entries are sorted deterministically regardless of the order the
// passes reported them; notes follow their diagnostic when includeNotes is
// set.
func FormatGolden(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]goldenLine, 0, len(diags))
	for i := range diags {
		rendered = appendGolden(rendered, &diags[i], fs, includeNotes)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendGolden(out []goldenLine, d *Diagnostic, fs *source.FileSet, includeNotes bool) []goldenLine {
	start, _ := fs.Resolve(d.Primary)
	out = append(out, goldenLine{
		Severity: strings.ToLower(d.Severity.String()),
		Code:     d.Code.ID(),
		Path:     fs.RelPath(d.Primary.File),
		Line:     start.Line,
		Column:   start.Col,
		Message:  flattenMessage(d.Message),
	})
	if includeNotes {
		for _, note := range d.Notes {
			nstart, _ := fs.Resolve(note.Span)
			out = append(out, goldenLine{
				Severity: "note",
				Code:     d.Code.ID(),
				Path:     fs.RelPath(note.Span.File),
				Line:     nstart.Line,
				Column:   nstart.Col,
				Message:  flattenMessage(note.Msg),
			})
		}
	}
	return out
}

func flattenMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
