// Package schema holds the normalized, encoding-rule-agnostic representation
// of an annotated type: its fields or variants with their ASN.1 semantics.
// Later passes (resolve, constraint, plan, emit) consume it read-only.
package schema

import (
	"asngen/internal/source"
)

// Kind is the ASN.1 construct a type definition maps onto.
type Kind uint8

const (
	KindSequence Kind = iota
	KindSet
	KindChoice
)

func (k Kind) String() string {
	switch k {
	case KindSequence:
		return "SEQUENCE"
	case KindSet:
		return "SET"
	case KindChoice:
		return "CHOICE"
	}
	return "unknown"
}

// FieldID indexes a field or variant within its TypeDefinition.
type FieldID uint32

// TypeDefinition is the normalized schema of one annotated Go type.
// Immutable once Build returns it.
type TypeDefinition struct {
	Name       string
	GoPackage  string
	Kind       Kind
	Tagging    TaggingEnv
	Extensible bool
	Fields     []FieldSpec   // KindSequence / KindSet
	Variants   []VariantSpec // KindChoice
	Decl       source.Span
}

// Len returns the number of fields or variants.
func (td *TypeDefinition) Len() int {
	if td.Kind == KindChoice {
		return len(td.Variants)
	}
	return len(td.Fields)
}

// Site returns the declaration span of the field or variant with the given
// id, falling back to the type's own span.
func (td *TypeDefinition) Site(id FieldID) source.Span {
	if td.Kind == KindChoice {
		if int(id) < len(td.Variants) {
			return td.Variants[id].Span
		}
	} else if int(id) < len(td.Fields) {
		return td.Fields[id].Span
	}
	return td.Decl
}

// MemberName returns the name of the field or variant with the given id.
func (td *TypeDefinition) MemberName(id FieldID) string {
	if td.Kind == KindChoice {
		if int(id) < len(td.Variants) {
			return td.Variants[id].Name
		}
	} else if int(id) < len(td.Fields) {
		return td.Fields[id].Name
	}
	return ""
}

// DefaultKind classifies a parsed default value.
type DefaultKind uint8

const (
	DefaultInt DefaultKind = iota
	DefaultBool
	DefaultString
)

// DefaultValue is a compile-time default for an omitted field.
type DefaultValue struct {
	Kind DefaultKind
	Int  int64
	Bool bool
	Str  string
	// Expr is the raw expression as written, used verbatim by emitters.
	Expr string
}

// FieldSpec describes one SEQUENCE/SET field.
type FieldSpec struct {
	Name        string
	XMLName     string
	Type        TypeRef
	Optional    bool
	Default     *DefaultValue
	Tag         *TagAnnotation
	Constraints ConstraintSet
	Extensible  bool
	Span        source.Span
}

// Presence reports whether the field participates in presence signaling:
// true for optional fields and for defaulted fields.
func (f *FieldSpec) Presence() bool {
	return f.Optional || f.Default != nil
}

// VariantSpec describes one CHOICE alternative.
type VariantSpec struct {
	Name        string
	XMLName     string
	Type        TypeRef
	Tag         *TagAnnotation
	Constraints ConstraintSet
	Span        source.Span
}
