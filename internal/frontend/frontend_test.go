package frontend

import (
	"testing"

	"asngen/internal/decl"
	"asngen/internal/diag"
	"asngen/internal/source"
)

const sampleSrc = `package pdu

// Person is a directory entry.
// asn1:automatic,extensible
type Person struct {
	Name  string ` + "`asn1:\"size:1..64\"`" + `
	Age   *int   ` + "`asn1:\"value:0..150\"`" + `
	Score int64  ` + "`asn1:\"default:10\"`" + `
}

// asn1:choice
type Value struct {
	Num int    ` + "`asn1:\"tag:0\"`" + `
	Str string ` + "`asn1:\"tag:1,ia5\"`" + `
}

// asn1:skip
type Internal struct {
	X int
}

type plain struct {
	Y bool
}
`

func parseSample(t *testing.T) (*Result, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	bag := diag.NewBag(50)
	res, err := ParseSource(fs, "sample.go", []byte(sampleSrc), diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	return res, bag
}

func TestParseSourceDecls(t *testing.T) {
	res, bag := parseSample(t)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if res.Package != "pdu" {
		t.Fatalf("unexpected package: %q", res.Package)
	}
	// Person, Value and plain; Internal is skipped.
	if len(res.Decls) != 3 {
		t.Fatalf("expected 3 decls, got %d", len(res.Decls))
	}

	person := res.Decls[0]
	if person.Name != "Person" || person.Tagging != decl.TaggingAutomatic || !person.Extensible {
		t.Fatalf("person directive not applied: %+v", person)
	}
	if len(person.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(person.Fields))
	}
	if person.Fields[1].Type.Kind != decl.ExprPointer {
		t.Fatal("Age must be a pointer expr")
	}
	if person.Fields[2].Attrs.Default == nil || *person.Fields[2].Attrs.Default != "10" {
		t.Fatalf("default attr not decoded: %+v", person.Fields[2].Attrs)
	}

	value := res.Decls[1]
	if !value.Choice {
		t.Fatal("Value must be a choice")
	}
	if value.Fields[1].Attrs.StringKind != "ia5" {
		t.Fatalf("string kind not decoded: %+v", value.Fields[1].Attrs)
	}
	if n := value.Fields[0].Attrs.TagNumber; n == nil || *n != 0 {
		t.Fatalf("tag number not decoded: %+v", value.Fields[0].Attrs)
	}
}

func TestParseSourceSpans(t *testing.T) {
	res, _ := parseSample(t)
	fs := source.NewFileSet()
	fs.AddVirtual("sample.go", []byte(sampleSrc))
	person := res.Decls[0]
	if person.Fields[0].Span.Empty() {
		t.Fatal("field span must not be empty")
	}
	if person.Span.Start >= person.Span.End {
		t.Fatalf("bad type span: %+v", person.Span)
	}
}

func TestParseBadAttribute(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(10)
	src := "package p\n\ntype T struct {\n\tA int `asn1:\"bogus\"`\n}\n"
	_, err := ParseSource(fs, "bad.go", []byte(src), diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	if !bag.HasErrors() {
		t.Fatal("unknown attribute must be diagnosed")
	}
	if got := bag.Items()[0].Code; got != diag.SchemaBadAttribute {
		t.Fatalf("unexpected code: %v", got)
	}
}

func TestParseAttrsRanges(t *testing.T) {
	bag := diag.NewBag(10)
	attrs, ok := parseFieldAttrs("value:0..255,size:..10,extensible,value:42", source.Span{}, diag.BagReporter{Bag: bag})
	if !ok || bag.HasErrors() {
		t.Fatalf("unexpected failure: %+v", bag.Items())
	}
	if len(attrs.Constraints) != 4 {
		t.Fatalf("expected 4 clauses, got %d", len(attrs.Constraints))
	}
	first := attrs.Constraints[0]
	if first.Lo != 0 || first.Hi != 255 || !first.LoSet || !first.HiSet {
		t.Fatalf("bad value clause: %+v", first)
	}
	second := attrs.Constraints[1]
	if second.LoSet || !second.HiSet || second.Hi != 10 {
		t.Fatalf("half-open size clause mishandled: %+v", second)
	}
	if attrs.Constraints[2].Kind != decl.ConstraintExtensible {
		t.Fatalf("extensible marker missing: %+v", attrs.Constraints[2])
	}
	single := attrs.Constraints[3]
	if single.Lo != 42 || single.Hi != 42 {
		t.Fatalf("single value clause mishandled: %+v", single)
	}
}
