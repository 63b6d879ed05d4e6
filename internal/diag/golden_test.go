package diag

import (
	"strings"
	"testing"

	"asngen/internal/source"
)

func TestFormatGoldenStableOrder(t *testing.T) {
	fs := source.NewFileSet()
	idB := fs.AddVirtual("b.go", []byte("line one\nline two\n"))
	idA := fs.AddVirtual("a.go", []byte("x\n"))

	diags := []Diagnostic{
		{Severity: SevError, Code: TagCollision, Message: "fields A and B resolve to the same tag",
			Primary: source.Span{File: idB, Start: 9, End: 12},
			Notes:   []Note{{Span: source.Span{File: idB, Start: 0, End: 4}, Msg: "A resolved here"}}},
		{Severity: SevWarning, Code: SchemaEmptyType, Message: "type Empty has\nno fields",
			Primary: source.Span{File: idA, Start: 0, End: 1}},
	}

	got := FormatGolden(diags, fs, true)
	want := strings.Join([]string{
		"warning SCH1008 a.go:1:1 type Empty has no fields",
		"note TAG2001 b.go:1:1 A resolved here",
		"error TAG2001 b.go:2:1 fields A and B resolve to the same tag",
	}, "\n")
	if got != want {
		t.Fatalf("golden output:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatGoldenWithoutNotes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.go", []byte("package m\n"))
	diags := []Diagnostic{
		{Severity: SevError, Code: TagImplicitChoice, Message: "CHOICE cannot be implicitly tagged",
			Primary: source.Span{File: id, Start: 0, End: 7},
			Notes:   []Note{{Span: source.Span{File: id, Start: 0, End: 7}, Msg: "declared here"}}},
	}
	got := FormatGolden(diags, fs, false)
	if strings.Contains(got, "note ") {
		t.Fatalf("notes must be omitted:\n%s", got)
	}
	if got != "error TAG2003 m.go:1:1 CHOICE cannot be implicitly tagged" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestFormatGoldenEmpty(t *testing.T) {
	if got := FormatGolden(nil, source.NewFileSet(), true); got != "" {
		t.Fatalf("empty input must render empty, got %q", got)
	}
}
