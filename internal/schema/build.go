package schema

import (
	"fmt"
	"strconv"

	"asngen/internal/decl"
	"asngen/internal/diag"
)

// Build validates one raw declaration and produces its normalized
// TypeDefinition. All findings go through the reporter; Build never panics
// and keeps going after non-fatal problems so one run surfaces as many
// independent errors as possible. ok is false when the definition has a
// fatal problem and must not be emitted.
func Build(raw *decl.TypeDecl, reg *Registry, r diag.Reporter) (*TypeDefinition, bool) {
	ok := true

	kind := KindSequence
	switch {
	case raw.Choice && raw.Set:
		diag.ReportError(r, diag.SchemaBadKind, raw.Span,
			fmt.Sprintf("type %s declared as both CHOICE and SET", raw.Name))
		ok = false
	case raw.Choice:
		kind = KindChoice
	case raw.Set:
		kind = KindSet
	}

	td := &TypeDefinition{
		Name:       raw.Name,
		GoPackage:  raw.Package,
		Kind:       kind,
		Tagging:    taggingEnv(raw.Tagging),
		Extensible: raw.Extensible,
		Decl:       raw.Span,
	}

	if kind == KindChoice && len(raw.Fields) == 0 {
		diag.ReportError(r, diag.SchemaChoiceNoVariants, raw.Span,
			fmt.Sprintf("CHOICE type %s has no variants", raw.Name))
		return td, false
	}
	if kind != KindChoice && len(raw.Fields) == 0 {
		diag.ReportWarning(r, diag.SchemaEmptyType, raw.Span,
			fmt.Sprintf("type %s has no fields", raw.Name))
	}

	seen := make(map[string]int, len(raw.Fields))
	for i := range raw.Fields {
		fd := &raw.Fields[i]
		if prev, dup := seen[fd.Name]; dup {
			r.Report(diag.SchemaDuplicateField, diag.SevError, fd.Span,
				fmt.Sprintf("duplicate field %s in %s", fd.Name, raw.Name),
				[]diag.Note{{Span: raw.Fields[prev].Span, Msg: "first declared here"}})
			ok = false
			continue
		}
		seen[fd.Name] = i

		ref, refOK := typeRefFromExpr(fd, reg, r)
		if !refOK {
			ok = false
			continue
		}

		ann, annOK := tagAnnotationFromAttrs(fd, r)
		if !annOK {
			ok = false
		}

		cs := constraintsFromAttrs(fd.Attrs.Constraints)

		if kind == KindChoice {
			if fd.Attrs.Optional || fd.Attrs.Default != nil {
				diag.ReportError(r, diag.SchemaBadKind, fd.Span,
					fmt.Sprintf("variant %s of CHOICE %s cannot be optional or defaulted", fd.Name, raw.Name))
				ok = false
			}
			// the active alternative is the one non-nil member, so every
			// variant must be nilable in Go
			if !ref.Pointer && ref.Kind != RefSequenceOf && ref.Primitive != PrimOctetString {
				diag.ReportError(r, diag.SchemaBadKind, fd.Span,
					fmt.Sprintf("variant %s of CHOICE %s must be a pointer or slice", fd.Name, raw.Name))
				ok = false
			}
			td.Variants = append(td.Variants, VariantSpec{
				Name:        fd.Name,
				XMLName:     xmlName(fd),
				Type:        ref,
				Tag:         ann,
				Constraints: cs,
				Span:        fd.Span,
			})
			continue
		}

		def, defOK := defaultFromAttrs(fd, ref, r)
		if !defOK {
			ok = false
		}
		// absence must be representable: nil for pointers and slices, the
		// default for defaulted fields
		nilable := ref.Pointer || ref.Kind == RefSequenceOf ||
			(ref.Kind == RefPrimitive && ref.Primitive == PrimOctetString)
		if fd.Attrs.Optional && def == nil && !nilable {
			diag.ReportError(r, diag.SchemaBadAttribute, fd.Span,
				fmt.Sprintf("field %s: optional requires a pointer type, a slice or a default", fd.Name))
			ok = false
		}
		td.Fields = append(td.Fields, FieldSpec{
			Name:        fd.Name,
			XMLName:     xmlName(fd),
			Type:        ref,
			Optional:    fd.Attrs.Optional || ref.Pointer,
			Default:     def,
			Tag:         ann,
			Constraints: cs,
			Extensible:  fd.Attrs.Extensible,
			Span:        fd.Span,
		})
	}

	return td, ok
}

func taggingEnv(m decl.TaggingMode) TaggingEnv {
	switch m {
	case decl.TaggingImplicit:
		return EnvImplicit
	case decl.TaggingAutomatic:
		return EnvAutomatic
	}
	return EnvExplicit
}

func xmlName(fd *decl.FieldDecl) string {
	if fd.Attrs.XMLName != "" {
		return fd.Attrs.XMLName
	}
	return fd.Name
}

// typeRefFromExpr maps the field's Go type expression onto its ASN.1 kind,
// guided by the string-kind and enumerated attributes.
func typeRefFromExpr(fd *decl.FieldDecl, reg *Registry, r diag.Reporter) (TypeRef, bool) {
	expr := fd.Type
	ref := TypeRef{GoType: expr.Render()}

	if expr.Kind == decl.ExprPointer {
		ref.Pointer = true
		expr = *expr.Elem
	}

	if fd.Attrs.Null {
		ref.Kind = RefPrimitive
		ref.Primitive = PrimNull
		return ref, true
	}

	switch expr.Kind {
	case decl.ExprSlice:
		if expr.Elem.Kind == decl.ExprIdent && expr.Elem.Name == "byte" {
			ref.Kind = RefPrimitive
			ref.Primitive = PrimOctetString
			return ref, true
		}
		elemDecl := decl.FieldDecl{Name: fd.Name, Type: *expr.Elem, Span: fd.Span}
		elem, elemOK := typeRefFromExpr(&elemDecl, reg, r)
		if !elemOK {
			return ref, false
		}
		ref.Kind = RefSequenceOf
		ref.Elem = &elem
		return ref, true

	case decl.ExprSelector:
		diag.ReportError(r, diag.SchemaBadKind, fd.Span,
			fmt.Sprintf("field %s: unsupported external type %s", fd.Name, expr.Pkg+"."+expr.Name))
		return ref, false

	case decl.ExprIdent:
		if p, isPrim := primitiveForIdent(expr.Name, fd.Attrs); isPrim {
			ref.Kind = RefPrimitive
			ref.Primitive = p
			return ref, true
		}
		if !reg.Known(expr.Name) {
			diag.ReportError(r, diag.SchemaUnknownReference, fd.Span,
				fmt.Sprintf("field %s references unknown type %s", fd.Name, expr.Name))
			return ref, false
		}
		ref.Kind = RefNamed
		ref.Name = expr.Name
		return ref, true
	}

	diag.ReportError(r, diag.SchemaBadKind, fd.Span,
		fmt.Sprintf("field %s has unsupported Go type %s", fd.Name, fd.Type.Render()))
	return ref, false
}

func primitiveForIdent(name string, attrs decl.Attrs) (Primitive, bool) {
	switch name {
	case "bool":
		return PrimBool, true
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64":
		if attrs.Enumerated {
			return PrimEnumerated, true
		}
		return PrimInteger, true
	case "float32", "float64":
		return PrimReal, true
	case "string":
		switch attrs.StringKind {
		case "", "utf8":
			return PrimUtf8String, true
		case "printable":
			return PrimPrintableString, true
		case "ia5":
			return PrimIA5String, true
		case "numeric":
			return PrimNumericString, true
		case "visible":
			return PrimVisibleString, true
		}
		return PrimUtf8String, true
	}
	return PrimNone, false
}

func tagAnnotationFromAttrs(fd *decl.FieldDecl, r diag.Reporter) (*TagAnnotation, bool) {
	attrs := fd.Attrs
	if attrs.TagNumber == nil {
		if attrs.Implicit || attrs.Explicit {
			diag.ReportError(r, diag.SchemaBadAttribute, fd.Span,
				fmt.Sprintf("field %s: implicit/explicit requires a tag number", fd.Name))
			return nil, false
		}
		return nil, true
	}
	if attrs.Implicit && attrs.Explicit {
		diag.ReportError(r, diag.SchemaBadAttribute, fd.Span,
			fmt.Sprintf("field %s: tag cannot be both implicit and explicit", fd.Name))
		return nil, false
	}
	class, classOK := ParseClass(attrs.TagClass)
	if !classOK {
		diag.ReportError(r, diag.TagBadClass, fd.Span,
			fmt.Sprintf("field %s: unknown tag class %q", fd.Name, attrs.TagClass))
		return nil, false
	}
	mode := ModeUnspecified
	if attrs.Implicit {
		mode = ModeImplicit
	} else if attrs.Explicit {
		mode = ModeExplicit
	}
	return &TagAnnotation{Class: class, Number: *attrs.TagNumber, Mode: mode}, true
}

func constraintsFromAttrs(in []decl.Constraint) ConstraintSet {
	if len(in) == 0 {
		return nil
	}
	out := make(ConstraintSet, 0, len(in))
	for _, c := range in {
		out = append(out, Constraint{
			Kind:     ConstraintKind(c.Kind),
			Lo:       c.Lo,
			Hi:       c.Hi,
			LoSet:    c.LoSet,
			HiSet:    c.HiSet,
			Alphabet: c.Alphabet,
			Span:     c.Span,
		})
	}
	return out
}

// defaultFromAttrs parses the default expression against the field's kind.
// A field may not carry a default it cannot represent, and an empty default
// expression is rejected outright.
func defaultFromAttrs(fd *decl.FieldDecl, ref TypeRef, r diag.Reporter) (*DefaultValue, bool) {
	attrs := fd.Attrs
	if attrs.Default == nil {
		return nil, true
	}
	expr := *attrs.Default
	if expr == "" {
		diag.ReportError(r, diag.SchemaInvalidDefault, fd.Span,
			fmt.Sprintf("field %s: default requires a value", fd.Name))
		return nil, false
	}
	if ref.Kind != RefPrimitive {
		diag.ReportError(r, diag.SchemaInvalidDefault, fd.Span,
			fmt.Sprintf("field %s: default is only supported for primitive kinds", fd.Name))
		return nil, false
	}
	switch {
	case ref.Primitive.Numeric():
		n, err := strconv.ParseInt(expr, 10, 64)
		if err != nil {
			diag.ReportError(r, diag.SchemaInvalidDefault, fd.Span,
				fmt.Sprintf("field %s: default %q is not an integer", fd.Name, expr))
			return nil, false
		}
		return &DefaultValue{Kind: DefaultInt, Int: n, Expr: expr}, true
	case ref.Primitive == PrimBool:
		switch expr {
		case "true":
			return &DefaultValue{Kind: DefaultBool, Bool: true, Expr: expr}, true
		case "false":
			return &DefaultValue{Kind: DefaultBool, Bool: false, Expr: expr}, true
		}
		diag.ReportError(r, diag.SchemaInvalidDefault, fd.Span,
			fmt.Sprintf("field %s: default %q is not a boolean", fd.Name, expr))
		return nil, false
	case ref.Primitive.StringLike():
		return &DefaultValue{Kind: DefaultString, Str: expr, Expr: strconv.Quote(expr)}, true
	}
	diag.ReportError(r, diag.SchemaInvalidDefault, fd.Span,
		fmt.Sprintf("field %s: %s cannot carry a default", fd.Name, ref.Primitive))
	return nil, false
}
