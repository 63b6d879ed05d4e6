// Package decl holds the raw annotated type declarations produced by the
// front end. Attribute values are structured (numbers parsed, ranges split)
// but not yet validated; semantic checks happen in internal/schema and later
// passes.
package decl

import (
	"asngen/internal/source"
)

// TaggingMode is the module-scope tagging environment requested for a type.
type TaggingMode uint8

const (
	// TaggingExplicit is the ASN.1 default: untagged fields keep their
	// natural universal tags, annotations add explicit wrappers.
	TaggingExplicit TaggingMode = iota
	TaggingImplicit
	TaggingAutomatic
)

func (m TaggingMode) String() string {
	switch m {
	case TaggingExplicit:
		return "explicit"
	case TaggingImplicit:
		return "implicit"
	case TaggingAutomatic:
		return "automatic"
	}
	return "unknown"
}

// TypeDecl is one annotated Go type declaration.
type TypeDecl struct {
	Package string
	Name    string
	Doc     string
	Tagging TaggingMode
	// Choice marks enum-like declarations (one-of). Set marks SET semantics
	// instead of SEQUENCE. Both come from the type-level asn1 directive.
	Choice     bool
	Set        bool
	Extensible bool
	Fields     []FieldDecl
	Span       source.Span
}

// FieldDecl is one struct field or choice alternative.
type FieldDecl struct {
	Name  string
	Type  TypeExpr
	Attrs Attrs
	Span  source.Span
}

// TypeExprKind classifies a raw Go type expression.
type TypeExprKind uint8

const (
	ExprIdent TypeExprKind = iota
	ExprPointer
	ExprSlice
	ExprSelector
)

// TypeExpr is the shape of a field's Go type, reduced to what the schema
// model needs.
type TypeExpr struct {
	Kind TypeExprKind
	Name string    // identifier or selector member
	Pkg  string    // selector package, e.g. "big" for big.Int
	Elem *TypeExpr // pointee / element
}

// Render reconstructs the Go source form of the type expression.
func (e TypeExpr) Render() string {
	switch e.Kind {
	case ExprPointer:
		return "*" + e.Elem.Render()
	case ExprSlice:
		return "[]" + e.Elem.Render()
	case ExprSelector:
		return e.Pkg + "." + e.Name
	default:
		return e.Name
	}
}

// ConstraintKind identifies one constraint clause category.
type ConstraintKind uint8

const (
	ConstraintValue ConstraintKind = iota
	ConstraintSize
	ConstraintAlphabet
	// ConstraintExtensible marks the extension point: clauses after it
	// belong to the extension range.
	ConstraintExtensible
)

// Constraint is one parsed constraint clause. Lo/Hi are meaningful only for
// value and size clauses, and only when the matching Set flag is true
// (half-open ranges like "value:0.." leave HiSet false).
type Constraint struct {
	Kind     ConstraintKind
	Lo, Hi   int64
	LoSet    bool
	HiSet    bool
	Alphabet string
	Span     source.Span
}

// Attrs carries the structured attribute values of one field, exactly as the
// front end decoded them from the asn1 struct tag.
type Attrs struct {
	TagNumber   *uint32
	TagClass    string // "", "universal", "application", "context", "private"
	Implicit    bool
	Explicit    bool
	Optional    bool
	Default     *string // raw default expression, e.g. "10" or "true"
	StringKind  string  // "", "utf8", "printable", "ia5", "numeric", "visible"
	Enumerated  bool
	Null        bool
	Extensible  bool
	XMLName     string
	Constraints []Constraint
}
