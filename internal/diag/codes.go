package diag

import (
	"fmt"
)

// Code is a stable numeric identifier for a diagnostic category.
// Ranges are reserved per pass:
//
//	1000-1999 schema construction
//	2000-2999 tag resolution
//	3000-3999 constraint evaluation
//	4000-4999 presence planning
//	5000-5999 backend emission
//	6000-6999 driver / IO
type Code uint16

const (
	UnknownCode Code = 0

	// Schema construction
	SchemaInfo             Code = 1000
	SchemaBadAttribute     Code = 1001
	SchemaChoiceNoVariants Code = 1002
	SchemaInvalidDefault   Code = 1003
	SchemaDuplicateField   Code = 1004
	SchemaUnknownReference Code = 1005
	SchemaBadTaggingMode   Code = 1006
	SchemaBadKind          Code = 1007
	SchemaEmptyType        Code = 1008

	// Tag resolution
	TagInfo             Code = 2000
	TagCollision        Code = 2001
	TagDuplicateVariant Code = 2002
	TagImplicitChoice   Code = 2003
	TagMixedAutomatic   Code = 2004
	TagBadClass         Code = 2005
	TagBadNumber        Code = 2006

	// Constraint evaluation
	ConstraintInfo      Code = 3000
	ConstraintBadBounds Code = 3001
	ConstraintEmpty     Code = 3002
	ConstraintBadClause Code = 3003

	// Presence planning
	PresenceInfo                   Code = 4000
	PresenceDefaultUnrepresentable Code = 4001

	// Backend emission
	EmitInfo            Code = 5000
	EmitUnboundedPacked Code = 5001
	EmitUnsupportedKind Code = 5002

	// Driver / IO
	IOLoadFileError Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	SchemaInfo:             "Schema information",
	SchemaBadAttribute:     "Malformed asn1 attribute",
	SchemaChoiceNoVariants: "CHOICE type without variants",
	SchemaInvalidDefault:   "Invalid default for field kind",
	SchemaDuplicateField:   "Duplicate field name",
	SchemaUnknownReference: "Reference to unknown type",
	SchemaBadTaggingMode:   "Unknown tagging mode",
	SchemaBadKind:          "Incoherent ASN.1 kind",
	SchemaEmptyType:        "Type has no fields",

	TagInfo:             "Tag resolution information",
	TagCollision:        "Tag collision between fields",
	TagDuplicateVariant: "Duplicate variant tag in CHOICE",
	TagImplicitChoice:   "CHOICE cannot be implicitly tagged",
	TagMixedAutomatic:   "Mixed explicit annotations under automatic tagging",
	TagBadClass:         "Invalid tag class",
	TagBadNumber:        "Invalid tag number",

	ConstraintInfo:      "Constraint information",
	ConstraintBadBounds: "Constraint lower bound exceeds upper bound",
	ConstraintEmpty:     "Constraint intersection is empty",
	ConstraintBadClause: "Malformed constraint clause",

	PresenceInfo:                   "Presence planning information",
	PresenceDefaultUnrepresentable: "Default value not representable in field kind",

	EmitInfo:            "Emission information",
	EmitUnboundedPacked: "Unbounded field in family requiring bounded packing",
	EmitUnsupportedKind: "Encoding family cannot represent this kind",

	IOLoadFileError: "I/O load file error",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("SCH%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("TAG%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CON%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("PRS%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("EMT%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
