// Package constraint folds declared constraint sets into closed-form bounds
// usable for bit-width and alignment decisions in the packed backends.
package constraint

import (
	"fmt"
	"math/bits"

	"asngen/internal/diag"
	"asngen/internal/schema"
	"asngen/internal/source"
)

// Bound is a folded numeric range. Unset sides are unbounded.
type Bound struct {
	Lo, Hi int64
	LoSet  bool
	HiSet  bool
}

// Bounded reports whether both sides are fixed.
func (b Bound) Bounded() bool {
	return b.LoSet && b.HiSet
}

// Span is the count of representable values for a bounded range.
func (b Bound) Span() uint64 {
	return uint64(b.Hi-b.Lo) + 1
}

func (b Bound) String() string {
	lo, hi := "MIN", "MAX"
	if b.LoSet {
		lo = fmt.Sprintf("%d", b.Lo)
	}
	if b.HiSet {
		hi = fmt.Sprintf("%d", b.Hi)
	}
	return fmt.Sprintf("[%s..%s]", lo, hi)
}

// intersect narrows b by other. ok is false when the result is empty.
func (b Bound) intersect(other Bound) (Bound, bool) {
	out := b
	if other.LoSet && (!out.LoSet || other.Lo > out.Lo) {
		out.Lo = other.Lo
		out.LoSet = true
	}
	if other.HiSet && (!out.HiSet || other.Hi < out.Hi) {
		out.Hi = other.Hi
		out.HiSet = true
	}
	if out.Bounded() && out.Lo > out.Hi {
		return out, false
	}
	return out, true
}

// Folded is the compile-time result of evaluating one ConstraintSet.
// The root ranges feed the compact constrained form; values outside a root
// range of an extensible set are still structurally valid but use the
// extension-addition mechanism.
type Folded struct {
	Value      Bound
	Size       Bound
	Alphabet   string
	Extensible bool
	// ExtValue/ExtSize fold the clauses after the extension marker.
	ExtValue Bound
	ExtSize  Bound
}

// ValueBitWidth is the exact number of bits a packed backend uses for a
// value in the folded root range, or -1 when the range is unbounded.
func (f Folded) ValueBitWidth() int {
	return widthOf(f.Value)
}

// SizeBitWidth is the analogous width for length counts.
func (f Folded) SizeBitWidth() int {
	return widthOf(f.Size)
}

func widthOf(b Bound) int {
	if !b.Bounded() {
		return -1
	}
	if b.Lo == b.Hi {
		return 0
	}
	return bits.Len64(uint64(b.Hi - b.Lo))
}

// Evaluate folds a constraint set to closed-form bounds. Multiple clauses of
// one kind intersect; an empty intersection and reversed bounds are fatal.
// The extension range is folded independently of the root.
func Evaluate(cs schema.ConstraintSet, site source.Span, r diag.Reporter) (Folded, bool) {
	var out Folded
	out.Extensible = cs.Extensible()

	rootOK := foldInto(&out.Value, &out.Size, &out.Alphabet, cs.Root(), site, r)
	extOK := true
	if ext := cs.Extension(); len(ext) > 0 {
		var extAlpha string
		extOK = foldInto(&out.ExtValue, &out.ExtSize, &extAlpha, ext, site, r)
	}
	return out, rootOK && extOK
}

func foldInto(value, size *Bound, alphabet *string, cs schema.ConstraintSet, site source.Span, r diag.Reporter) bool {
	ok := true
	for _, c := range cs {
		switch c.Kind {
		case schema.ConstraintValue, schema.ConstraintSize:
			clause := Bound{Lo: c.Lo, Hi: c.Hi, LoSet: c.LoSet, HiSet: c.HiSet}
			if clause.Bounded() && clause.Lo > clause.Hi {
				diag.ReportError(r, diag.ConstraintBadBounds, spanOr(c.Span, site),
					fmt.Sprintf("%s constraint %s has lower bound above upper bound", c.Kind, clause))
				ok = false
				continue
			}
			target := value
			if c.Kind == schema.ConstraintSize {
				if clause.LoSet && clause.Lo < 0 {
					diag.ReportError(r, diag.ConstraintBadBounds, spanOr(c.Span, site),
						fmt.Sprintf("size constraint %s cannot be negative", clause))
					ok = false
					continue
				}
				target = size
			}
			narrowed, nonEmpty := target.intersect(clause)
			if !nonEmpty {
				diag.ReportError(r, diag.ConstraintEmpty, spanOr(c.Span, site),
					fmt.Sprintf("intersection of %s constraints %s and %s is empty", c.Kind, *target, clause))
				ok = false
				continue
			}
			*target = narrowed
		case schema.ConstraintAlphabet:
			if c.Alphabet == "" {
				diag.ReportError(r, diag.ConstraintBadClause, spanOr(c.Span, site),
					"permitted alphabet cannot be empty")
				ok = false
				continue
			}
			*alphabet = c.Alphabet
		case schema.ConstraintExtensible:
			// handled by the caller via Root/Extension split
		default:
			diag.ReportError(r, diag.ConstraintBadClause, spanOr(c.Span, site),
				fmt.Sprintf("unknown constraint clause kind %d", c.Kind))
			ok = false
		}
	}
	return ok
}

func spanOr(sp, fallback source.Span) source.Span {
	if sp.Empty() && sp.File == 0 {
		return fallback
	}
	return sp
}
