package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"asngen/internal/diag"
	"asngen/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	codeColor    = color.New(color.Bold)
	noteColor    = color.New(color.FgBlue)
)

// Pretty renders diagnostics in a human-readable form. It walks bag.Items()
// as-is; callers sort the bag beforehand. Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// optionally followed by the offending source line with a caret underline
// and the attached notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeDiagnostic(w, d, fs, opts)
	}
}

func writeDiagnostic(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	start, _ := fs.Resolve(d.Primary)
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
		formatPath(fs, d.Primary.File, opts.PathMode),
		start.Line, start.Col,
		severityLabel(d.Severity, opts.Color),
		codeLabel(d.Code, opts.Color),
		d.Message)

	if opts.ShowPreview {
		writePreview(w, fs, d.Primary, start)
	}
	if opts.ShowNotes {
		for _, n := range d.Notes {
			nStart, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  %s: %s:%d:%d: %s\n",
				label("note", noteColor, opts.Color),
				formatPath(fs, n.Span.File, opts.PathMode),
				nStart.Line, nStart.Col, n.Msg)
			if opts.ShowPreview {
				writePreview(w, fs, n.Span, nStart)
			}
		}
	}
}

// writePreview prints the source line of the span with a caret underline.
func writePreview(w io.Writer, fs *source.FileSet, sp source.Span, start source.LineCol) {
	line, ok := lineAt(fs, sp)
	if !ok {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)

	col := int(start.Col) - 1
	if col < 0 || col > len(line) {
		return
	}
	width := int(sp.Len())
	if width < 1 {
		width = 1
	}
	if rest := len(line) - col; width > rest && rest > 0 {
		width = rest
	}
	underline := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", col), underline)
}

// lineAt extracts the full source line containing the span start.
func lineAt(fs *source.FileSet, sp source.Span) (string, bool) {
	f := fs.Get(sp.File)
	if int(sp.Start) > len(f.Content) {
		return "", false
	}
	content := string(f.Content)
	lineStart := strings.LastIndexByte(content[:sp.Start], '\n') + 1
	lineEnd := strings.IndexByte(content[sp.Start:], '\n')
	if lineEnd < 0 {
		lineEnd = len(content)
	} else {
		lineEnd += int(sp.Start)
	}
	return content[lineStart:lineEnd], true
}

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return abs
		}
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	default: // auto and relative behave the same for generator input
		return fs.RelPath(id)
	}
}

func severityLabel(sev diag.Severity, colorize bool) string {
	c := infoColor
	switch sev {
	case diag.SevError:
		c = errorColor
	case diag.SevWarning:
		c = warningColor
	}
	return label(sev.String(), c, colorize)
}

func codeLabel(code diag.Code, colorize bool) string {
	return label(code.ID(), codeColor, colorize)
}

func label(s string, c *color.Color, colorize bool) string {
	if !colorize {
		return s
	}
	return c.Sprint(s)
}
