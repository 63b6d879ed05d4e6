package diagfmt

import (
	"encoding/json"
	"strings"
	"testing"

	"asngen/internal/diag"
	"asngen/internal/source"
)

func TestJSONOutputShape(t *testing.T) {
	bag, fs := sampleBag(t)
	var sb strings.Builder
	err := WriteJSON(&sb, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true})
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal([]byte(sb.String()), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d, diagnostics = %d, want 1/1", out.Count, len(out.Diagnostics))
	}

	d := out.Diagnostics[0]
	if d.Code != "SCH1001" {
		t.Errorf("code = %q, want SCH1001", d.Code)
	}
	if d.Severity != "ERROR" {
		t.Errorf("severity = %q, want ERROR", d.Severity)
	}
	if d.Location.StartLine != 4 || d.Location.StartCol != 2 {
		t.Errorf("location = %d:%d, want 4:2", d.Location.StartLine, d.Location.StartCol)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "declared in this package" {
		t.Errorf("notes = %+v", d.Notes)
	}
}

func TestJSONMaxTruncatesListNotCount(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("x.go", []byte("package p\n"))
	bag := diag.NewBag(10)
	for i := 0; i < 3; i++ {
		bag.Add(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.TagCollision,
			Message:  "dup",
			Primary:  source.Span{File: id, Start: 0, End: 1},
		})
	}

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 2})
	if len(out.Diagnostics) != 2 {
		t.Fatalf("listed = %d, want 2", len(out.Diagnostics))
	}
	if out.Count != 3 {
		t.Fatalf("count = %d, want 3", out.Count)
	}
}

func TestJSONOmitsPositionsByDefault(t *testing.T) {
	bag, fs := sampleBag(t)
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{})
	loc := out.Diagnostics[0].Location
	if loc.StartLine != 0 || loc.StartCol != 0 {
		t.Fatalf("positions included without IncludePositions: %+v", loc)
	}
	if loc.StartByte == loc.EndByte {
		t.Fatalf("byte range should always be present: %+v", loc)
	}
}
