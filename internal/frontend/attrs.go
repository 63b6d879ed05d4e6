package frontend

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"asngen/internal/decl"
	"asngen/internal/diag"
	"asngen/internal/source"
)

// parseFieldAttrs decodes one asn1 struct tag value into structured
// attributes. The grammar is a comma-separated list of entries:
//
//	tag:N  class:C  implicit  explicit  optional  default:EXPR
//	value:LO..HI  size:LO..HI  from:CHARS  extensible
//	utf8 printable ia5 numeric visible  enumerated  null  xml:NAME
//
// Unparseable entries are reported as SchemaBadAttribute and fail the field.
func parseFieldAttrs(tag string, span source.Span, r diag.Reporter) (decl.Attrs, bool) {
	var attrs decl.Attrs
	if tag == "" || tag == "-" {
		return attrs, true
	}
	ok := true
	for _, entry := range strings.Split(tag, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, value, hasValue := strings.Cut(entry, ":")
		switch key {
		case "tag":
			n, err := parseTagNumber(value, hasValue)
			if err != nil {
				diag.ReportError(r, diag.SchemaBadAttribute, span,
					fmt.Sprintf("bad tag number %q: %v", value, err))
				ok = false
				continue
			}
			attrs.TagNumber = &n
		case "class":
			if !hasValue || value == "" {
				diag.ReportError(r, diag.SchemaBadAttribute, span, "class requires a value")
				ok = false
				continue
			}
			attrs.TagClass = value
		case "implicit":
			attrs.Implicit = true
		case "explicit":
			attrs.Explicit = true
		case "optional":
			attrs.Optional = true
		case "default":
			v := value // may legitimately be empty; schema rejects that
			attrs.Default = &v
		case "value", "size":
			c, err := parseRangeClause(key, value, hasValue, span)
			if err != nil {
				diag.ReportError(r, diag.SchemaBadAttribute, span, err.Error())
				ok = false
				continue
			}
			attrs.Constraints = append(attrs.Constraints, c)
		case "from":
			if !hasValue || value == "" {
				diag.ReportError(r, diag.SchemaBadAttribute, span, "from requires an alphabet")
				ok = false
				continue
			}
			attrs.Constraints = append(attrs.Constraints, decl.Constraint{
				Kind: decl.ConstraintAlphabet, Alphabet: value, Span: span,
			})
		case "extensible":
			attrs.Extensible = true
			attrs.Constraints = append(attrs.Constraints, decl.Constraint{
				Kind: decl.ConstraintExtensible, Span: span,
			})
		case "utf8", "printable", "ia5", "numeric", "visible":
			if attrs.StringKind != "" && attrs.StringKind != key {
				diag.ReportError(r, diag.SchemaBadAttribute, span,
					fmt.Sprintf("conflicting string kinds %q and %q", attrs.StringKind, key))
				ok = false
				continue
			}
			attrs.StringKind = key
		case "enumerated":
			attrs.Enumerated = true
		case "null":
			attrs.Null = true
		case "xml":
			if !hasValue || value == "" {
				diag.ReportError(r, diag.SchemaBadAttribute, span, "xml requires a name")
				ok = false
				continue
			}
			attrs.XMLName = value
		default:
			diag.ReportError(r, diag.SchemaBadAttribute, span,
				fmt.Sprintf("unknown asn1 attribute %q", entry))
			ok = false
		}
	}
	return attrs, ok
}

func parseTagNumber(value string, hasValue bool) (uint32, error) {
	if !hasValue || value == "" {
		return 0, fmt.Errorf("missing number")
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.Conv[uint32](n)
}

// parseRangeClause decodes "LO..HI" with either side optional.
func parseRangeClause(key, value string, hasValue bool, span source.Span) (decl.Constraint, error) {
	kind := decl.ConstraintValue
	if key == "size" {
		kind = decl.ConstraintSize
	}
	c := decl.Constraint{Kind: kind, Span: span}
	if !hasValue || value == "" {
		return c, fmt.Errorf("%s requires a range", key)
	}
	lo, hi, found := strings.Cut(value, "..")
	if !found {
		// single value: "value:5" means [5,5]
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return c, fmt.Errorf("bad %s bound %q", key, value)
		}
		c.Lo, c.Hi = n, n
		c.LoSet, c.HiSet = true, true
		return c, nil
	}
	if lo != "" {
		n, err := strconv.ParseInt(lo, 10, 64)
		if err != nil {
			return c, fmt.Errorf("bad %s lower bound %q", key, lo)
		}
		c.Lo = n
		c.LoSet = true
	}
	if hi != "" {
		n, err := strconv.ParseInt(hi, 10, 64)
		if err != nil {
			return c, fmt.Errorf("bad %s upper bound %q", key, hi)
		}
		c.Hi = n
		c.HiSet = true
	}
	return c, nil
}
