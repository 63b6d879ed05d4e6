package schema

import (
	"asngen/internal/source"
)

// ConstraintKind identifies one constraint clause category.
type ConstraintKind uint8

const (
	ConstraintValue ConstraintKind = iota
	ConstraintSize
	ConstraintAlphabet
	// ConstraintExtensible marks the extension point of the set; clauses
	// after it belong to the extension range and are folded apart from the
	// root.
	ConstraintExtensible
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintValue:
		return "value"
	case ConstraintSize:
		return "size"
	case ConstraintAlphabet:
		return "from"
	case ConstraintExtensible:
		return "extensible"
	}
	return "unknown"
}

// Constraint is one clause of a ConstraintSet. Bounds are compile-time
// constants; LoSet/HiSet distinguish half-open ranges.
type Constraint struct {
	Kind     ConstraintKind
	Lo, Hi   int64
	LoSet    bool
	HiSet    bool
	Alphabet string
	Span     source.Span
}

// ConstraintSet is the ordered set of constraint clauses declared on one
// field or variant.
type ConstraintSet []Constraint

// Extensible reports whether the set carries an extension marker.
func (cs ConstraintSet) Extensible() bool {
	for _, c := range cs {
		if c.Kind == ConstraintExtensible {
			return true
		}
	}
	return false
}

// Root returns the clauses before the extension marker.
func (cs ConstraintSet) Root() ConstraintSet {
	for i, c := range cs {
		if c.Kind == ConstraintExtensible {
			return cs[:i]
		}
	}
	return cs
}

// Extension returns the clauses after the extension marker, if any.
func (cs ConstraintSet) Extension() ConstraintSet {
	for i, c := range cs {
		if c.Kind == ConstraintExtensible {
			return cs[i+1:]
		}
	}
	return nil
}
