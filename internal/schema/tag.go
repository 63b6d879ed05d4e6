package schema

import (
	"fmt"
)

// Class is an ASN.1 tag class.
type Class uint8

const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContext
	ClassPrivate
)

func (c Class) String() string {
	switch c {
	case ClassUniversal:
		return "universal"
	case ClassApplication:
		return "application"
	case ClassContext:
		return "context"
	case ClassPrivate:
		return "private"
	}
	return "unknown"
}

// ParseClass maps an attribute value onto a Class.
func ParseClass(s string) (Class, bool) {
	switch s {
	case "universal":
		return ClassUniversal, true
	case "application":
		return ClassApplication, true
	case "context", "":
		return ClassContext, true
	case "private":
		return ClassPrivate, true
	}
	return ClassContext, false
}

// Tag is an identifying (class, number) pair attached to an ASN.1 value.
type Tag struct {
	Class  Class
	Number uint32
}

func (t Tag) String() string {
	return fmt.Sprintf("[%s %d]", t.Class, t.Number)
}

// Universal tag numbers per X.680 §8.
var (
	TagBoolean          = Tag{ClassUniversal, 1}
	TagInteger          = Tag{ClassUniversal, 2}
	TagBitString        = Tag{ClassUniversal, 3}
	TagOctetString      = Tag{ClassUniversal, 4}
	TagNull             = Tag{ClassUniversal, 5}
	TagObjectIdentifier = Tag{ClassUniversal, 6}
	TagReal             = Tag{ClassUniversal, 9}
	TagEnumerated       = Tag{ClassUniversal, 10}
	TagUtf8String       = Tag{ClassUniversal, 12}
	TagSequence         = Tag{ClassUniversal, 16}
	TagSet              = Tag{ClassUniversal, 17}
	TagNumericString    = Tag{ClassUniversal, 18}
	TagPrintableString  = Tag{ClassUniversal, 19}
	TagIA5String        = Tag{ClassUniversal, 22}
	TagVisibleString    = Tag{ClassUniversal, 26}
)

// TagMode distinguishes implicit replacement from explicit wrapping.
type TagMode uint8

const (
	ModeUnspecified TagMode = iota
	ModeImplicit
	ModeExplicit
)

func (m TagMode) String() string {
	switch m {
	case ModeImplicit:
		return "implicit"
	case ModeExplicit:
		return "explicit"
	}
	return "unspecified"
}

// TagAnnotation is a tag written by the user on one field or variant.
type TagAnnotation struct {
	Class  Class
	Number uint32
	Mode   TagMode
}

// TaggingEnv is the tagging environment of the enclosing type.
type TaggingEnv uint8

const (
	EnvExplicit TaggingEnv = iota
	EnvImplicit
	EnvAutomatic
)

func (e TaggingEnv) String() string {
	switch e {
	case EnvExplicit:
		return "explicit"
	case EnvImplicit:
		return "implicit"
	case EnvAutomatic:
		return "automatic"
	}
	return "unknown"
}
