package schema

// Primitive enumerates the supported ASN.1 primitive kinds.
type Primitive uint8

const (
	PrimNone Primitive = iota
	PrimBool
	PrimInteger
	PrimEnumerated
	PrimBitString
	PrimOctetString
	PrimNull
	PrimObjectIdentifier
	PrimReal
	PrimUtf8String
	PrimPrintableString
	PrimIA5String
	PrimNumericString
	PrimVisibleString
)

func (p Primitive) String() string {
	switch p {
	case PrimBool:
		return "BOOLEAN"
	case PrimInteger:
		return "INTEGER"
	case PrimEnumerated:
		return "ENUMERATED"
	case PrimBitString:
		return "BIT STRING"
	case PrimOctetString:
		return "OCTET STRING"
	case PrimNull:
		return "NULL"
	case PrimObjectIdentifier:
		return "OBJECT IDENTIFIER"
	case PrimReal:
		return "REAL"
	case PrimUtf8String:
		return "UTF8String"
	case PrimPrintableString:
		return "PrintableString"
	case PrimIA5String:
		return "IA5String"
	case PrimNumericString:
		return "NumericString"
	case PrimVisibleString:
		return "VisibleString"
	}
	return "NONE"
}

// UniversalTag returns the natural universal tag of the primitive.
func (p Primitive) UniversalTag() (Tag, bool) {
	switch p {
	case PrimBool:
		return TagBoolean, true
	case PrimInteger:
		return TagInteger, true
	case PrimEnumerated:
		return TagEnumerated, true
	case PrimBitString:
		return TagBitString, true
	case PrimOctetString:
		return TagOctetString, true
	case PrimNull:
		return TagNull, true
	case PrimObjectIdentifier:
		return TagObjectIdentifier, true
	case PrimReal:
		return TagReal, true
	case PrimUtf8String:
		return TagUtf8String, true
	case PrimPrintableString:
		return TagPrintableString, true
	case PrimIA5String:
		return TagIA5String, true
	case PrimNumericString:
		return TagNumericString, true
	case PrimVisibleString:
		return TagVisibleString, true
	}
	return Tag{}, false
}

// Numeric reports whether the primitive packs as an integer value.
func (p Primitive) Numeric() bool {
	return p == PrimInteger || p == PrimEnumerated
}

// StringLike reports whether the primitive is a character string kind.
func (p Primitive) StringLike() bool {
	switch p {
	case PrimUtf8String, PrimPrintableString, PrimIA5String, PrimNumericString, PrimVisibleString:
		return true
	}
	return false
}

// RefKind classifies a TypeRef.
type RefKind uint8

const (
	RefPrimitive RefKind = iota
	// RefNamed references another TypeDefinition by identity; resolved via
	// the Registry, never by copy, so cyclic types stay finite.
	RefNamed
	RefSequenceOf
)

// TypeRef is a reference to the ASN.1 type of one field or variant.
type TypeRef struct {
	Kind      RefKind
	Primitive Primitive // RefPrimitive
	Name      string    // RefNamed: identity within the Registry
	Elem      *TypeRef  // RefSequenceOf
	GoType    string    // rendered Go type, used verbatim by emitters
	// Pointer records that the Go declaration used *T; optional fields are
	// carried as pointers so absence is representable.
	Pointer bool
}

// NaturalTag returns the natural (untagged) tag of the referenced type, or
// ok=false for CHOICE, which has no tag of its own.
func (ref TypeRef) NaturalTag(reg *Registry) (Tag, bool) {
	switch ref.Kind {
	case RefPrimitive:
		return ref.Primitive.UniversalTag()
	case RefSequenceOf:
		return TagSequence, true
	case RefNamed:
		def, ok := reg.Lookup(ref.Name)
		if !ok {
			return Tag{}, false
		}
		switch def.Kind {
		case KindSequence:
			return TagSequence, true
		case KindSet:
			return TagSet, true
		case KindChoice:
			return Tag{}, false
		}
	}
	return Tag{}, false
}
