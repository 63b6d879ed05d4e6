package schema

import (
	"testing"

	"asngen/internal/decl"
	"asngen/internal/diag"
	"asngen/internal/source"
)

func intAttr(n uint32) *uint32 { return &n }

func strAttr(s string) *string { return &s }

func ident(name string) decl.TypeExpr {
	return decl.TypeExpr{Kind: decl.ExprIdent, Name: name}
}

func pointer(elem decl.TypeExpr) decl.TypeExpr {
	return decl.TypeExpr{Kind: decl.ExprPointer, Elem: &elem}
}

func buildOne(t *testing.T, raw *decl.TypeDecl) (*TypeDefinition, *diag.Bag, bool) {
	t.Helper()
	bag := diag.NewBag(50)
	reg := NewRegistry()
	reg.Begin(raw.Name)
	td, ok := Build(raw, reg, diag.BagReporter{Bag: bag})
	if td != nil {
		reg.Finish(td)
	}
	return td, bag, ok
}

func TestBuildSequence(t *testing.T) {
	raw := &decl.TypeDecl{
		Package: "pdu",
		Name:    "Person",
		Fields: []decl.FieldDecl{
			{Name: "Name", Type: ident("string")},
			{Name: "Age", Type: pointer(ident("int"))},
			{Name: "Score", Type: ident("int64"), Attrs: decl.Attrs{Default: strAttr("10")}},
		},
	}
	td, bag, ok := buildOne(t, raw)
	if !ok || bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if td.Kind != KindSequence || len(td.Fields) != 3 {
		t.Fatalf("unexpected shape: %v %d", td.Kind, len(td.Fields))
	}
	if td.Fields[0].Type.Primitive != PrimUtf8String {
		t.Fatalf("string must map to UTF8String, got %v", td.Fields[0].Type.Primitive)
	}
	if !td.Fields[1].Optional {
		t.Fatal("pointer field must be optional")
	}
	if td.Fields[2].Default == nil || td.Fields[2].Default.Int != 10 {
		t.Fatalf("default not parsed: %+v", td.Fields[2].Default)
	}
	if !td.Fields[2].Presence() {
		t.Fatal("defaulted field must participate in presence signaling")
	}
}

func TestBuildChoiceWithoutVariants(t *testing.T) {
	raw := &decl.TypeDecl{Name: "Empty", Choice: true}
	_, bag, ok := buildOne(t, raw)
	if ok {
		t.Fatal("expected failure for CHOICE without variants")
	}
	if got := bag.Items()[0].Code; got != diag.SchemaChoiceNoVariants {
		t.Fatalf("unexpected code: %v", got)
	}
}

func TestBuildDuplicateField(t *testing.T) {
	raw := &decl.TypeDecl{
		Name: "Dup",
		Fields: []decl.FieldDecl{
			{Name: "A", Type: ident("int"), Span: source.Span{Start: 1, End: 2}},
			{Name: "A", Type: ident("bool"), Span: source.Span{Start: 3, End: 4}},
		},
	}
	_, bag, ok := buildOne(t, raw)
	if ok {
		t.Fatal("expected failure for duplicate field")
	}
	d := bag.Items()[0]
	if d.Code != diag.SchemaDuplicateField {
		t.Fatalf("unexpected code: %v", d.Code)
	}
	if len(d.Notes) != 1 {
		t.Fatal("duplicate field diagnostic must point at the first declaration")
	}
}

func TestBuildInvalidDefault(t *testing.T) {
	raw := &decl.TypeDecl{
		Name: "Bad",
		Fields: []decl.FieldDecl{
			{Name: "N", Type: ident("int"), Attrs: decl.Attrs{Default: strAttr("abc")}},
		},
	}
	_, bag, ok := buildOne(t, raw)
	if ok {
		t.Fatal("expected failure for non-integer default")
	}
	if got := bag.Items()[0].Code; got != diag.SchemaInvalidDefault {
		t.Fatalf("unexpected code: %v", got)
	}
}

func TestBuildEmptyDefaultRejected(t *testing.T) {
	raw := &decl.TypeDecl{
		Name: "Bad",
		Fields: []decl.FieldDecl{
			{Name: "N", Type: ident("int"), Attrs: decl.Attrs{Optional: true, Default: strAttr("")}},
		},
	}
	_, bag, ok := buildOne(t, raw)
	if ok {
		t.Fatal("expected failure for optional field with undefined default")
	}
	if got := bag.Items()[0].Code; got != diag.SchemaInvalidDefault {
		t.Fatalf("unexpected code: %v", got)
	}
}

func TestBuildOptionalNeedsNilableOrDefault(t *testing.T) {
	raw := &decl.TypeDecl{
		Name: "Bad",
		Fields: []decl.FieldDecl{
			{Name: "N", Type: ident("int"), Attrs: decl.Attrs{Optional: true}},
		},
	}
	_, bag, ok := buildOne(t, raw)
	if ok {
		t.Fatal("optional on a plain value field must be rejected")
	}
	if got := bag.Items()[0].Code; got != diag.SchemaBadAttribute {
		t.Fatalf("unexpected code: %v", got)
	}

	byteSlice := decl.TypeExpr{Kind: decl.ExprSlice, Elem: &decl.TypeExpr{Kind: decl.ExprIdent, Name: "byte"}}
	good := &decl.TypeDecl{
		Name: "Good",
		Fields: []decl.FieldDecl{
			{Name: "N", Type: ident("int"), Attrs: decl.Attrs{Optional: true, Default: strAttr("3")}},
			{Name: "Body", Type: byteSlice, Attrs: decl.Attrs{Optional: true}},
		},
	}
	_, bag, ok = buildOne(t, good)
	if !ok || bag.HasErrors() {
		t.Fatalf("defaulted and nilable optionals must build cleanly: %+v", bag.Items())
	}
}

func TestBuildUnknownReference(t *testing.T) {
	raw := &decl.TypeDecl{
		Name: "Holder",
		Fields: []decl.FieldDecl{
			{Name: "Inner", Type: ident("Missing")},
		},
	}
	_, bag, ok := buildOne(t, raw)
	if ok {
		t.Fatal("expected failure for unknown reference")
	}
	if got := bag.Items()[0].Code; got != diag.SchemaUnknownReference {
		t.Fatalf("unexpected code: %v", got)
	}
}

func TestBuildSelfReferenceViaRegistry(t *testing.T) {
	// A type referencing itself resolves through the in-progress registry
	// entry instead of recursing.
	bag := diag.NewBag(10)
	reg := NewRegistry()
	reg.Begin("Node")
	raw := &decl.TypeDecl{
		Name: "Node",
		Fields: []decl.FieldDecl{
			{Name: "Value", Type: ident("int")},
			{Name: "Next", Type: pointer(ident("Node"))},
		},
	}
	td, ok := Build(raw, reg, diag.BagReporter{Bag: bag})
	if !ok || bag.HasErrors() {
		t.Fatalf("self reference must build cleanly: %+v", bag.Items())
	}
	reg.Finish(td)
	if td.Fields[1].Type.Kind != RefNamed || td.Fields[1].Type.Name != "Node" {
		t.Fatalf("self reference not modeled by identity: %+v", td.Fields[1].Type)
	}
	if !td.Fields[1].Optional {
		t.Fatal("pointer back-reference must be optional")
	}
}

func TestBuildStringKinds(t *testing.T) {
	raw := &decl.TypeDecl{
		Name: "Strs",
		Fields: []decl.FieldDecl{
			{Name: "A", Type: ident("string"), Attrs: decl.Attrs{StringKind: "ia5"}},
			{Name: "B", Type: ident("string"), Attrs: decl.Attrs{StringKind: "printable"}},
			{Name: "C", Type: ident("string"), Attrs: decl.Attrs{StringKind: "numeric"}},
		},
	}
	td, bag, ok := buildOne(t, raw)
	if !ok || bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	want := []Primitive{PrimIA5String, PrimPrintableString, PrimNumericString}
	for i, w := range want {
		if td.Fields[i].Type.Primitive != w {
			t.Fatalf("field %d: got %v want %v", i, td.Fields[i].Type.Primitive, w)
		}
	}
}

func TestBuildChoiceVariantRestrictions(t *testing.T) {
	raw := &decl.TypeDecl{
		Name:   "Value",
		Choice: true,
		Fields: []decl.FieldDecl{
			{Name: "Num", Type: ident("int"), Attrs: decl.Attrs{Optional: true}},
		},
	}
	_, bag, ok := buildOne(t, raw)
	if ok {
		t.Fatal("optional CHOICE variant must be rejected")
	}
	if got := bag.Items()[0].Code; got != diag.SchemaBadKind {
		t.Fatalf("unexpected code: %v", got)
	}
}

func TestNaturalTags(t *testing.T) {
	reg := NewRegistry()
	reg.Finish(&TypeDefinition{Name: "Inner", Kind: KindSequence})
	reg.Finish(&TypeDefinition{Name: "Pick", Kind: KindChoice})

	cases := []struct {
		ref  TypeRef
		want Tag
		ok   bool
	}{
		{TypeRef{Kind: RefPrimitive, Primitive: PrimBool}, TagBoolean, true},
		{TypeRef{Kind: RefPrimitive, Primitive: PrimInteger}, TagInteger, true},
		{TypeRef{Kind: RefSequenceOf}, TagSequence, true},
		{TypeRef{Kind: RefNamed, Name: "Inner"}, TagSequence, true},
		{TypeRef{Kind: RefNamed, Name: "Pick"}, Tag{}, false},
	}
	for i, c := range cases {
		got, ok := c.ref.NaturalTag(reg)
		if ok != c.ok || got != c.want {
			t.Fatalf("case %d: got %v/%v want %v/%v", i, got, ok, c.want, c.ok)
		}
	}
}
