package constraint

import (
	"testing"

	"asngen/internal/diag"
	"asngen/internal/schema"
	"asngen/internal/source"
)

func valueClause(lo, hi int64) schema.Constraint {
	return schema.Constraint{Kind: schema.ConstraintValue, Lo: lo, Hi: hi, LoSet: true, HiSet: true}
}

func sizeClause(lo, hi int64) schema.Constraint {
	return schema.Constraint{Kind: schema.ConstraintSize, Lo: lo, Hi: hi, LoSet: true, HiSet: true}
}

func eval(t *testing.T, cs schema.ConstraintSet) (Folded, *diag.Bag, bool) {
	t.Helper()
	bag := diag.NewBag(20)
	f, ok := Evaluate(cs, source.Span{}, diag.BagReporter{Bag: bag})
	return f, bag, ok
}

func TestIntersection(t *testing.T) {
	f, bag, ok := eval(t, schema.ConstraintSet{valueClause(5, 10), valueClause(8, 20)})
	if !ok || bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if f.Value.Lo != 8 || f.Value.Hi != 10 {
		t.Fatalf("[5,10] ∩ [8,20] must fold to [8,10], got %v", f.Value)
	}
}

func TestEmptyIntersection(t *testing.T) {
	_, bag, ok := eval(t, schema.ConstraintSet{valueClause(5, 10), valueClause(20, 30)})
	if ok {
		t.Fatal("[5,10] ∩ [20,30] must fail")
	}
	if got := bag.Items()[0].Code; got != diag.ConstraintEmpty {
		t.Fatalf("unexpected code: %v", got)
	}
}

func TestReversedBounds(t *testing.T) {
	_, bag, ok := eval(t, schema.ConstraintSet{valueClause(10, 5)})
	if ok {
		t.Fatal("reversed bounds must fail")
	}
	if got := bag.Items()[0].Code; got != diag.ConstraintBadBounds {
		t.Fatalf("unexpected code: %v", got)
	}
}

func TestNegativeSizeRejected(t *testing.T) {
	_, bag, ok := eval(t, schema.ConstraintSet{sizeClause(-1, 10)})
	if ok || !bag.HasErrors() {
		t.Fatal("negative size bound must fail")
	}
}

func TestBitWidths(t *testing.T) {
	cases := []struct {
		lo, hi int64
		want   int
	}{
		{0, 255, 8},
		{0, 7, 3},
		{-5, 5, 4},   // 11 values
		{42, 42, 0},  // single value needs no bits
		{0, 65535, 16},
	}
	for _, c := range cases {
		f, _, ok := eval(t, schema.ConstraintSet{valueClause(c.lo, c.hi)})
		if !ok {
			t.Fatalf("[%d,%d]: unexpected failure", c.lo, c.hi)
		}
		if got := f.ValueBitWidth(); got != c.want {
			t.Fatalf("[%d,%d]: width %d want %d", c.lo, c.hi, got, c.want)
		}
	}
}

func TestUnboundedWidth(t *testing.T) {
	f, _, ok := eval(t, schema.ConstraintSet{
		{Kind: schema.ConstraintValue, Lo: 0, LoSet: true},
	})
	if !ok {
		t.Fatal("half-open range must evaluate")
	}
	if f.ValueBitWidth() != -1 {
		t.Fatalf("half-open range has no fixed width, got %d", f.ValueBitWidth())
	}
}

func TestExtensionFoldedIndependently(t *testing.T) {
	cs := schema.ConstraintSet{
		valueClause(0, 10),
		{Kind: schema.ConstraintExtensible},
		valueClause(0, 1000),
	}
	f, bag, ok := eval(t, cs)
	if !ok || bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if !f.Extensible {
		t.Fatal("extension marker lost")
	}
	if f.Value.Hi != 10 {
		t.Fatalf("root range polluted by extension: %v", f.Value)
	}
	if f.ExtValue.Hi != 1000 {
		t.Fatalf("extension range not folded: %v", f.ExtValue)
	}
}

func TestAlphabetClause(t *testing.T) {
	cs := schema.ConstraintSet{
		{Kind: schema.ConstraintAlphabet, Alphabet: "0123456789"},
		sizeClause(1, 12),
	}
	f, _, ok := eval(t, cs)
	if !ok {
		t.Fatal("unexpected failure")
	}
	if f.Alphabet != "0123456789" {
		t.Fatalf("alphabet lost: %q", f.Alphabet)
	}
	if f.SizeBitWidth() != 4 {
		t.Fatalf("size width: got %d want 4", f.SizeBitWidth())
	}
}
