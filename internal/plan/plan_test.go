package plan

import (
	"testing"

	"asngen/internal/constraint"
	"asngen/internal/diag"
	"asngen/internal/resolve"
	"asngen/internal/schema"
)

func field(name string, optional bool) schema.FieldSpec {
	return schema.FieldSpec{
		Name:     name,
		Type:     schema.TypeRef{Kind: schema.RefPrimitive, Primitive: schema.PrimInteger},
		Optional: optional,
	}
}

func defaulted(name string, def int64) schema.FieldSpec {
	f := field(name, false)
	f.Default = &schema.DefaultValue{Kind: schema.DefaultInt, Int: def, Expr: "x"}
	return f
}

func tagsFor(td *schema.TypeDefinition, t *testing.T) resolve.Table {
	t.Helper()
	bag := diag.NewBag(20)
	table, ok := resolve.Tags(td, schema.NewRegistry(), diag.BagReporter{Bag: bag})
	if !ok {
		t.Fatalf("resolve failed: %+v", bag.Items())
	}
	return table
}

func TestBitmapCoversExactlyOptionalFields(t *testing.T) {
	td := &schema.TypeDefinition{
		Name:    "S",
		Kind:    schema.KindSequence,
		Tagging: schema.EnvAutomatic,
		Fields: []schema.FieldSpec{
			field("A", false),
			field("B", true),
			field("C", false),
			defaulted("D", 5),
			field("E", true),
		},
	}
	tags := tagsFor(td, t)
	folded := make([]constraint.Folded, len(td.Fields))
	bag := diag.NewBag(20)
	p, ok := Build(td, tags, folded, UPER, diag.BagReporter{Bag: bag})
	if !ok {
		t.Fatalf("unexpected failure: %+v", bag.Items())
	}
	if p.Presence != PresenceBitmap {
		t.Fatalf("packed family must use a bitmap, got %v", p.Presence)
	}
	// exactly k bits for k optional/default fields, regardless of total
	if len(p.BitmapSlots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(p.BitmapSlots))
	}
	want := []int{1, 3, 4}
	for i, idx := range want {
		if p.BitmapSlots[i] != idx {
			t.Fatalf("slot %d: got %d want %d (declaration order)", i, p.BitmapSlots[i], idx)
		}
	}
	if p.SlotOf(3) != 1 {
		t.Fatalf("SlotOf(3): got %d want 1", p.SlotOf(3))
	}
	if p.SlotOf(0) != -1 {
		t.Fatal("required field must have no slot")
	}
}

func TestTLVUsesTagAbsence(t *testing.T) {
	td := &schema.TypeDefinition{
		Name:    "S",
		Kind:    schema.KindSequence,
		Tagging: schema.EnvAutomatic,
		Fields:  []schema.FieldSpec{field("A", true)},
	}
	tags := tagsFor(td, t)
	p, ok := Build(td, tags, make([]constraint.Folded, 1), BER, diag.NopReporter{})
	if !ok {
		t.Fatal("unexpected failure")
	}
	if p.Presence != PresenceTagAbsence {
		t.Fatalf("TLV family must signal by tag absence, got %v", p.Presence)
	}
	if len(p.BitmapSlots) != 0 {
		t.Fatal("TLV family must not build a bitmap")
	}
	if p.StrictOrder {
		t.Fatal("BER decode accepts any order")
	}
}

func TestDERCanonicalSetOrder(t *testing.T) {
	mk := func(name string, num uint32) schema.FieldSpec {
		f := field(name, false)
		f.Tag = &schema.TagAnnotation{Class: schema.ClassContext, Number: num, Mode: schema.ModeImplicit}
		return f
	}
	td := &schema.TypeDefinition{
		Name:   "S",
		Kind:   schema.KindSet,
		Fields: []schema.FieldSpec{mk("High", 9), mk("Low", 2), mk("Mid", 5)},
	}
	tags := tagsFor(td, t)
	p, ok := Build(td, tags, make([]constraint.Folded, 3), DER, diag.NopReporter{})
	if !ok {
		t.Fatal("unexpected failure")
	}
	want := []int{1, 2, 0}
	for i := range want {
		if p.Order[i] != want[i] {
			t.Fatalf("canonical order: got %v want %v", p.Order, want)
		}
	}
	if !p.StrictOrder {
		t.Fatal("DER decode must enforce canonical order")
	}
}

func TestOERUsesPresenceFlags(t *testing.T) {
	td := &schema.TypeDefinition{
		Name:    "S",
		Kind:    schema.KindSequence,
		Tagging: schema.EnvAutomatic,
		Fields:  []schema.FieldSpec{field("A", true), field("B", false)},
	}
	tags := tagsFor(td, t)
	p, ok := Build(td, tags, make([]constraint.Folded, 2), OER, diag.NopReporter{})
	if !ok {
		t.Fatal("unexpected failure")
	}
	if p.Presence != PresenceFlags {
		t.Fatalf("OER must use its own presence flags, got %v", p.Presence)
	}
	if !p.Aligned {
		t.Fatal("OER layout is octet-aligned")
	}
}

func TestChoicePlanIsDegenerate(t *testing.T) {
	td := &schema.TypeDefinition{
		Name: "Pick",
		Kind: schema.KindChoice,
		Variants: []schema.VariantSpec{
			{Name: "A", Type: schema.TypeRef{Kind: schema.RefPrimitive, Primitive: schema.PrimInteger},
				Tag: &schema.TagAnnotation{Class: schema.ClassContext, Number: 0, Mode: schema.ModeImplicit}},
		},
	}
	tags := tagsFor(td, t)
	p, ok := Build(td, tags, nil, UPER, diag.NopReporter{})
	if !ok {
		t.Fatal("unexpected failure")
	}
	if p.Presence != PresenceNone || len(p.BitmapSlots) != 0 {
		t.Fatalf("choice plan must be degenerate: %+v", p)
	}
}

func TestDefaultOutsideConstraintRange(t *testing.T) {
	td := &schema.TypeDefinition{
		Name:    "S",
		Kind:    schema.KindSequence,
		Tagging: schema.EnvAutomatic,
		Fields:  []schema.FieldSpec{defaulted("A", 500)},
	}
	tags := tagsFor(td, t)
	folded := []constraint.Folded{{Value: constraint.Bound{Lo: 0, Hi: 255, LoSet: true, HiSet: true}}}
	bag := diag.NewBag(20)
	_, ok := Build(td, tags, folded, UPER, diag.BagReporter{Bag: bag})
	if ok {
		t.Fatal("default outside folded range must fail")
	}
	if got := bag.Items()[0].Code; got != diag.PresenceDefaultUnrepresentable {
		t.Fatalf("unexpected code: %v", got)
	}
}

func TestParseFamily(t *testing.T) {
	for _, f := range Families {
		got, ok := ParseFamily(f.String())
		if !ok || got != f {
			t.Fatalf("round-trip of %v failed", f)
		}
	}
	if _, ok := ParseFamily("cer"); ok {
		t.Fatal("unknown family must not parse")
	}
}
