package emit

import (
	"asngen/internal/schema"
)

// emitXER generates the markup encode/decode pair. The outer element is
// named after the type; members become child elements named after their
// declared names, so the output round-trips without tag knowledge.
func (e *typeEmitter) emitXER() {
	x := &xerEmitter{typeEmitter: e, fam: e.methodSuffix()}
	if e.td.Kind == schema.KindChoice {
		x.emitChoiceEncode()
		x.emitChoiceDecode()
		return
	}
	x.emitStructEncode()
	x.emitStructDecode()
}

type xerEmitter struct {
	*typeEmitter
	fam string
}

func (x *xerEmitter) emitStructEncode() {
	f := x.f
	td := x.td
	f.Line(0, "// Encode%s writes v as a %s element.", x.fam, td.Name)
	f.Line(0, "func (v *%s) Encode%s(w codec.TextWriter) error {", td.Name, x.fam)
	f.Line(1, "return w.WriteElement(%q, func(w codec.TextWriter) error {", td.Name)
	f.Line(2, "return v.encode%sMembers(w)", x.fam)
	f.Line(1, "})")
	f.Line(0, "}")
	f.Line(0, "")

	f.Line(0, "func (v *%s) encode%sMembers(w codec.TextWriter) error {", td.Name, x.fam)
	for _, i := range x.plan.Order {
		fld := &td.Fields[i]
		indent := 1
		if fld.Presence() {
			f.Line(1, "if %s {", presenceCond(fld))
			indent = 2
		}
		x.encodeMember(indent, fld.XMLName, fld.Name, valueExpr(fld.Name, fld.Type), fld.Type)
		if fld.Presence() {
			f.Line(1, "}")
		}
	}
	f.Line(1, "return nil")
	f.Line(0, "}")
	f.Line(0, "")
}

// encodeMember frames one member as a child element.
func (x *xerEmitter) encodeMember(indent int, elemName, name, expr string, ref schema.TypeRef) {
	f := x.f
	f.Line(indent, "if err := w.WriteElement(%q, func(w codec.TextWriter) error {", elemName)
	x.encodeContent(indent+1, name, expr, ref)
	f.Line(indent+1, "return nil")
	f.Line(indent, "}); err != nil {")
	f.Line(indent+1, "return err")
	f.Line(indent, "}")
}

func (x *xerEmitter) encodeContent(indent int, name, expr string, ref schema.TypeRef) {
	f := x.f
	switch ref.Kind {
	case schema.RefNamed:
		def, ok := x.ctx.Reg.Lookup(ref.Name)
		if ok && def.Kind == schema.KindChoice {
			// a CHOICE contributes its alternative's element directly
			f.Line(indent, "if err := v.%s.encode%sAlternative(w); err != nil {", name, x.fam)
		} else {
			f.Line(indent, "if err := v.%s.encode%sMembers(w); err != nil {", name, x.fam)
		}
		f.Line(indent+1, "return err")
		f.Line(indent, "}")

	case schema.RefSequenceOf:
		f.Line(indent, "for i := range v.%s {", name)
		x.encodeElem(indent+1, expr+"[i]", *ref.Elem)
		f.Line(indent, "}")

	case schema.RefPrimitive:
		x.encodePrimitive(indent, expr, ref.Primitive)
	}
}

func (x *xerEmitter) encodeElem(indent int, expr string, elem schema.TypeRef) {
	f := x.f
	f.Line(indent, "if err := w.WriteElement(%q, func(w codec.TextWriter) error {", x.itemName(elem))
	switch elem.Kind {
	case schema.RefNamed:
		def, ok := x.ctx.Reg.Lookup(elem.Name)
		if ok && def.Kind == schema.KindChoice {
			f.Line(indent+1, "if err := %s.encode%sAlternative(w); err != nil {", expr, x.fam)
		} else {
			f.Line(indent+1, "if err := %s.encode%sMembers(w); err != nil {", expr, x.fam)
		}
		f.Line(indent+2, "return err")
		f.Line(indent+1, "}")
	case schema.RefSequenceOf:
		f.Line(indent+1, "for j := range %s {", expr)
		x.encodeElem(indent+2, expr+"[j]", *elem.Elem)
		f.Line(indent+1, "}")
	case schema.RefPrimitive:
		x.encodePrimitive(indent+1, expr, elem.Primitive)
	}
	f.Line(indent+1, "return nil")
	f.Line(indent, "}); err != nil {")
	f.Line(indent+1, "return err")
	f.Line(indent, "}")
}

// itemName names the repeated child of a SEQUENCE OF.
func (x *xerEmitter) itemName(elem schema.TypeRef) string {
	if elem.Kind == schema.RefNamed {
		return elem.Name
	}
	return "item"
}

func (x *xerEmitter) encodePrimitive(indent int, expr string, p schema.Primitive) {
	f := x.f
	write := func(call string) {
		f.Line(indent, "if err := %s; err != nil {", call)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
	}
	switch {
	case p == schema.PrimBool:
		write("w.WriteBoolText(" + expr + ")")
	case p.Numeric():
		write("w.WriteIntText(int64(" + expr + "))")
	case p == schema.PrimReal:
		write("w.WriteRealText(float64(" + expr + "))")
	case p == schema.PrimNull:
		f.Line(indent, "_ = %s", expr)
	case p == schema.PrimOctetString || p == schema.PrimBitString:
		write("w.WriteBytesText(" + expr + ")")
	default:
		write("w.WriteText(string(" + expr + "))")
	}
}

func (x *xerEmitter) emitStructDecode() {
	f := x.f
	td := x.td
	n := td.Len()
	f.Line(0, "// Decode%s reads v from a %s element. Child elements may appear in", x.fam, td.Name)
	f.Line(0, "// any order.")
	f.Line(0, "func (v *%s) Decode%s(r codec.TextReader) error {", td.Name, x.fam)
	f.Line(1, "return r.ReadElement(%q, func(r codec.TextReader) error {", td.Name)
	f.Line(2, "return v.decode%sMembers(r)", x.fam)
	f.Line(1, "})")
	f.Line(0, "}")
	f.Line(0, "")

	f.Import("errors")
	f.Line(0, "func (v *%s) decode%sMembers(r codec.TextReader) error {", td.Name, x.fam)
	if n > 0 {
		f.Line(1, "var seen [%d]bool", n)
	}
	f.Line(1, "for {")
	f.Line(2, "name, err := r.PeekElement()")
	f.Line(2, "if errors.Is(err, codec.ErrEndOfContents) {")
	f.Line(3, "break")
	f.Line(2, "}")
	f.Line(2, "if err != nil {")
	f.Line(3, "return err")
	f.Line(2, "}")
	f.Line(2, "switch name {")
	for _, i := range x.plan.Order {
		fld := &td.Fields[i]
		f.Line(2, "case %q:", fld.XMLName)
		f.Line(3, "if seen[%d] {", i)
		f.Line(4, "return codec.NewDecodeError(codec.ErrMalformed, %q)", td.Name+"."+fld.Name+": repeated element")
		f.Line(3, "}")
		f.Line(3, "seen[%d] = true", i)
		x.decodeMember(3, fld.XMLName, fld.Name, fld.Type)
	}
	f.Line(2, "default:")
	if td.Extensible {
		f.Line(3, "if err := r.SkipElement(); err != nil {")
		f.Line(4, "return err")
		f.Line(3, "}")
	} else {
		f.Line(3, "return codec.NewDecodeError(codec.ErrUnknownField, %q)", td.Name+": unexpected element")
	}
	f.Line(2, "}")
	f.Line(1, "}")
	for i := range td.Fields {
		fld := &td.Fields[i]
		switch {
		case fld.Default != nil:
			f.Line(1, "if !seen[%d] {", i)
			x.restoreDefault(2, fld)
			f.Line(1, "}")
		case !fld.Optional:
			f.Line(1, "if !seen[%d] {", i)
			f.Line(2, "return codec.NewDecodeError(codec.ErrTruncated, %q)", td.Name+"."+fld.Name+": missing required element")
			f.Line(1, "}")
		}
	}
	f.Line(1, "return nil")
	f.Line(0, "}")
	f.Line(0, "")
}

func (x *xerEmitter) decodeMember(indent int, elemName, name string, ref schema.TypeRef) {
	f := x.f
	f.Line(indent, "if err := r.ReadElement(%q, func(r codec.TextReader) error {", elemName)
	x.decodeContent(indent+1, name, ref)
	f.Line(indent+1, "return nil")
	f.Line(indent, "}); err != nil {")
	f.Line(indent+1, "return err")
	f.Line(indent, "}")
}

func (x *xerEmitter) decodeContent(indent int, name string, ref schema.TypeRef) {
	f := x.f
	switch ref.Kind {
	case schema.RefNamed:
		if ref.Pointer {
			f.Line(indent, "v.%s = new(%s)", name, baseGoType(ref))
		}
		def, ok := x.ctx.Reg.Lookup(ref.Name)
		if ok && def.Kind == schema.KindChoice {
			f.Line(indent, "if err := v.%s.decode%sAlternative(r); err != nil {", name, x.fam)
		} else {
			f.Line(indent, "if err := v.%s.decode%sMembers(r); err != nil {", name, x.fam)
		}
		f.Line(indent+1, "return err")
		f.Line(indent, "}")

	case schema.RefSequenceOf:
		elem := *ref.Elem
		f.Import("errors")
		f.Line(indent, "v.%s = v.%s[:0]", name, name)
		f.Line(indent, "for {")
		f.Line(indent+1, "if _, err := r.PeekElement(); err != nil {")
		f.Line(indent+2, "if errors.Is(err, codec.ErrEndOfContents) {")
		f.Line(indent+3, "break")
		f.Line(indent+2, "}")
		f.Line(indent+2, "return err")
		f.Line(indent+1, "}")
		f.Line(indent+1, "var elem %s", elem.GoType)
		x.decodeElem(indent+1, "elem", elem)
		f.Line(indent+1, "v.%s = append(v.%s, elem)", name, name)
		f.Line(indent, "}")

	case schema.RefPrimitive:
		x.decodePrimitive(indent, "v."+name, ref)
	}
}

func (x *xerEmitter) decodeElem(indent int, lvalue string, elem schema.TypeRef) {
	f := x.f
	f.Line(indent, "if err := r.ReadElement(%q, func(r codec.TextReader) error {", x.itemName(elem))
	switch elem.Kind {
	case schema.RefNamed:
		if elem.Pointer {
			f.Line(indent+1, "%s = new(%s)", lvalue, baseGoType(elem))
		}
		def, ok := x.ctx.Reg.Lookup(elem.Name)
		if ok && def.Kind == schema.KindChoice {
			f.Line(indent+1, "if err := %s.decode%sAlternative(r); err != nil {", lvalue, x.fam)
		} else {
			f.Line(indent+1, "if err := %s.decode%sMembers(r); err != nil {", lvalue, x.fam)
		}
		f.Line(indent+2, "return err")
		f.Line(indent+1, "}")
	case schema.RefSequenceOf:
		inner := *elem.Elem
		f.Import("errors")
		f.Line(indent+1, "%s = %s[:0]", lvalue, lvalue)
		f.Line(indent+1, "for {")
		f.Line(indent+2, "if _, err := r.PeekElement(); err != nil {")
		f.Line(indent+3, "if errors.Is(err, codec.ErrEndOfContents) {")
		f.Line(indent+4, "break")
		f.Line(indent+3, "}")
		f.Line(indent+3, "return err")
		f.Line(indent+2, "}")
		f.Line(indent+2, "var inner %s", inner.GoType)
		x.decodeElem(indent+2, "inner", inner)
		f.Line(indent+2, "%s = append(%s, inner)", lvalue, lvalue)
		f.Line(indent+1, "}")
	case schema.RefPrimitive:
		x.decodePrimitive(indent+1, lvalue, elem)
	}
	f.Line(indent+1, "return nil")
	f.Line(indent, "}); err != nil {")
	f.Line(indent+1, "return err")
	f.Line(indent, "}")
}

func (x *xerEmitter) decodePrimitive(indent int, lvalue string, ref schema.TypeRef) {
	f := x.f
	base := baseGoType(ref)
	assign := func(expr string) {
		if ref.Pointer {
			f.Line(indent, "tmp := %s", expr)
			f.Line(indent, "%s = &tmp", lvalue)
		} else {
			f.Line(indent, "%s = %s", lvalue, expr)
		}
	}
	p := ref.Primitive
	switch {
	case p == schema.PrimBool:
		f.Line(indent, "x, err := r.ReadBoolText()")
	case p.Numeric():
		f.Line(indent, "x, err := r.ReadIntText()")
	case p == schema.PrimReal:
		f.Line(indent, "x, err := r.ReadRealText()")
	case p == schema.PrimNull:
		return
	case p == schema.PrimOctetString || p == schema.PrimBitString:
		f.Line(indent, "x, err := r.ReadBytesText()")
	default:
		f.Line(indent, "x, err := r.ReadText()")
	}
	f.Line(indent, "if err != nil {")
	f.Line(indent+1, "return err")
	f.Line(indent, "}")
	switch {
	case p == schema.PrimOctetString || p == schema.PrimBitString:
		assign("x")
	case base == "bool" || base == "int64" || base == "float64" || base == "string":
		assign("x")
	default:
		assign(base + "(x)")
	}
}

func (x *xerEmitter) emitChoiceEncode() {
	f := x.f
	td := x.td
	f.Import("fmt")
	f.Line(0, "// Encode%s writes the active alternative of v as its own element.", x.fam)
	f.Line(0, "func (v *%s) Encode%s(w codec.TextWriter) error {", td.Name, x.fam)
	f.Line(1, "return v.encode%sAlternative(w)", x.fam)
	f.Line(0, "}")
	f.Line(0, "")
	f.Line(0, "func (v *%s) encode%sAlternative(w codec.TextWriter) error {", td.Name, x.fam)
	f.Line(1, "switch {")
	for i := range td.Variants {
		vr := &td.Variants[i]
		f.Line(1, "case v.%s != nil:", vr.Name)
		f.Line(2, "if err := w.WriteElement(%q, func(w codec.TextWriter) error {", vr.XMLName)
		x.encodeContent(3, vr.Name, valueExpr(vr.Name, vr.Type), vr.Type)
		f.Line(3, "return nil")
		f.Line(2, "}); err != nil {")
		f.Line(3, "return err")
		f.Line(2, "}")
		f.Line(2, "return nil")
	}
	f.Line(1, "}")
	f.Line(1, "return fmt.Errorf(%q)", td.Name+": no alternative set")
	f.Line(0, "}")
	f.Line(0, "")
}

func (x *xerEmitter) emitChoiceDecode() {
	f := x.f
	td := x.td
	f.Line(0, "// Decode%s dispatches on the element name to pick the alternative.", x.fam)
	f.Line(0, "func (v *%s) Decode%s(r codec.TextReader) error {", td.Name, x.fam)
	f.Line(1, "return v.decode%sAlternative(r)", x.fam)
	f.Line(0, "}")
	f.Line(0, "")
	f.Line(0, "func (v *%s) decode%sAlternative(r codec.TextReader) error {", td.Name, x.fam)
	f.Line(1, "name, err := r.PeekElement()")
	f.Line(1, "if err != nil {")
	f.Line(2, "return err")
	f.Line(1, "}")
	f.Line(1, "switch name {")
	for i := range td.Variants {
		vr := &td.Variants[i]
		f.Line(1, "case %q:", vr.XMLName)
		x.decodeVariant(2, vr)
	}
	f.Line(1, "default:")
	if td.Extensible {
		f.Line(2, "return r.SkipElement()")
	} else {
		f.Line(2, "return codec.NewDecodeError(codec.ErrUnknownAlternative, %q)", td.Name+": unknown alternative")
	}
	f.Line(1, "}")
	f.Line(1, "return nil")
	f.Line(0, "}")
	f.Line(0, "")
}

func (x *xerEmitter) decodeVariant(indent int, vr *schema.VariantSpec) {
	f := x.f
	f.Line(indent, "if err := r.ReadElement(%q, func(r codec.TextReader) error {", vr.XMLName)
	x.decodeContent(indent+1, vr.Name, vr.Type)
	f.Line(indent+1, "return nil")
	f.Line(indent, "}); err != nil {")
	f.Line(indent+1, "return err")
	f.Line(indent, "}")
}
