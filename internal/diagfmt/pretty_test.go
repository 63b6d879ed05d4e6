package diagfmt

import (
	"strings"
	"testing"

	"asngen/internal/diag"
	"asngen/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	content := []byte("package p\n\ntype T struct {\n\tA int `asn1:\"bogus\"`\n}\n")
	id := fs.AddVirtual("input.go", content)

	bag := diag.NewBag(10)
	// span covers "A int" on line 4
	aStart := uint32(strings.Index(string(content), "A int"))
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SchemaBadAttribute,
		Message:  "unknown attribute \"bogus\"",
		Primary:  source.Span{File: id, Start: aStart, End: aStart + 5},
		Notes: []diag.Note{
			{Span: source.Span{File: id, Start: 0, End: 7}, Msg: "declared in this package"},
		},
	})
	return bag, fs
}

func TestPrettyHeaderLine(t *testing.T) {
	bag, fs := sampleBag(t)
	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{})
	got := sb.String()

	want := "input.go:4:2: ERROR SCH1001: unknown attribute \"bogus\"\n"
	if !strings.HasPrefix(got, want) {
		t.Fatalf("header = %q, want prefix %q", got, want)
	}
}

func TestPrettyPreviewUnderline(t *testing.T) {
	bag, fs := sampleBag(t)
	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{ShowPreview: true})
	got := sb.String()

	if !strings.Contains(got, "A int `asn1:\"bogus\"`") {
		t.Fatalf("missing source preview:\n%s", got)
	}
	if !strings.Contains(got, "^~~~~") {
		t.Fatalf("missing caret underline for 5-byte span:\n%s", got)
	}
}

func TestPrettyNotes(t *testing.T) {
	bag, fs := sampleBag(t)
	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{ShowNotes: true})
	got := sb.String()

	if !strings.Contains(got, "note: input.go:1:1: declared in this package") {
		t.Fatalf("missing note line:\n%s", got)
	}

	sb.Reset()
	Pretty(&sb, bag, fs, PrettyOpts{ShowNotes: false})
	if strings.Contains(sb.String(), "note:") {
		t.Fatalf("notes rendered despite ShowNotes=false:\n%s", sb.String())
	}
}

func TestPrettyBasenamePath(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("/abs/path/to/thing.go", []byte("package p\n"))
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.SchemaEmptyType,
		Message:  "type has no fields",
		Primary:  source.Span{File: id, Start: 0, End: 7},
	})

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if !strings.HasPrefix(sb.String(), "thing.go:1:1: WARNING") {
		t.Fatalf("basename rendering = %q", sb.String())
	}
}
