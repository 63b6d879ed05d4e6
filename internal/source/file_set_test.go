package source

import (
	"testing"
)

func TestFileSetAddAndResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.go", []byte("abc\ndef\nghi\n"))

	f := fs.Get(id)
	if f.Path != "test.go" {
		t.Fatalf("unexpected path: %q", f.Path)
	}
	if len(f.LineIdx) != 3 {
		t.Fatalf("expected 3 newlines, got %d", len(f.LineIdx))
	}

	start, end := fs.Resolve(Span{File: id, Start: 4, End: 7})
	if start.Line != 2 || start.Col != 1 {
		t.Fatalf("unexpected start: %+v", start)
	}
	if end.Line != 2 || end.Col != 4 {
		t.Fatalf("unexpected end: %+v", end)
	}
}

func TestFileSetLatestVersionWins(t *testing.T) {
	fs := NewFileSet()
	fs.AddVirtual("dup.go", []byte("old"))
	second := fs.AddVirtual("dup.go", []byte("new"))

	f, ok := fs.GetByPath("dup.go")
	if !ok {
		t.Fatal("expected dup.go to be present")
	}
	if f.ID != second {
		t.Fatalf("index should point at latest version, got %d want %d", f.ID, second)
	}
	if string(f.Content) != "new" {
		t.Fatalf("unexpected content: %q", f.Content)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 15}
	c := a.Cover(b)
	if c.Start != 5 || c.End != 20 {
		t.Fatalf("unexpected cover: %+v", c)
	}

	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Fatalf("cover across files must be a no-op, got %+v", got)
	}
}
