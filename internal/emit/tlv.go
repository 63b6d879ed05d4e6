package emit

import (
	"fmt"
	"strings"

	"asngen/internal/resolve"
	"asngen/internal/schema"
)

// emitTLV generates the tag-length-value encode/decode pair. BER and DER
// share the structure; DER additionally rejects out-of-order components on
// decode and emits SET fields in canonical order.
func (e *typeEmitter) emitTLV() {
	t := &tlvEmitter{typeEmitter: e, fam: e.methodSuffix()}
	if e.td.Kind == schema.KindChoice {
		t.emitChoiceEncode()
		t.emitChoiceDecode()
		return
	}
	t.emitStructEncode()
	t.emitStructDecode()
}

type tlvEmitter struct {
	*typeEmitter
	fam string
}

func (t *tlvEmitter) ownTag() schema.Tag {
	if t.td.Kind == schema.KindSet {
		return schema.TagSet
	}
	return schema.TagSequence
}

func (t *tlvEmitter) emitStructEncode() {
	f := t.f
	f.Line(0, "// Encode%s writes v under the %s rules.", t.fam, t.fam)
	f.Line(0, "func (v *%s) Encode%s(w codec.Writer) error {", t.td.Name, t.fam)
	f.Line(1, "return w.WriteTagged(%s, func(w codec.Writer) error {", tagLit(t.ownTag()))
	f.Line(2, "return v.encode%sFields(w)", t.fam)
	f.Line(1, "})")
	f.Line(0, "}")
	f.Line(0, "")

	f.Line(0, "func (v *%s) encode%sFields(w codec.Writer) error {", t.td.Name, t.fam)
	for _, i := range t.plan.Order {
		fld := &t.td.Fields[i]
		rt := t.tags.Get(schema.FieldID(i))
		indent := 1
		if fld.Presence() {
			f.Line(1, "if %s {", presenceCond(fld))
			indent = 2
		}
		t.encodeMember(indent, fld.Name, valueExpr(fld.Name, fld.Type), fld.Type, rt)
		if fld.Presence() {
			f.Line(1, "}")
		}
	}
	f.Line(1, "return nil")
	f.Line(0, "}")
	f.Line(0, "")
}

// encodeMember frames one member under its resolved tag. Implicit mode
// replaces the member's natural tag; explicit mode adds an outer frame
// around the natural encoding; untagged CHOICE members encode themselves.
func (t *tlvEmitter) encodeMember(indent int, name, expr string, ref schema.TypeRef, rt resolve.ResolvedTag) {
	f := t.f
	switch {
	case rt.Untagged:
		f.Line(indent, "if err := v.%s.Encode%s(w); err != nil {", name, t.fam)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")

	case rt.Mode == schema.ModeExplicit:
		f.Line(indent, "if err := w.WriteTagged(%s, func(w codec.Writer) error {", tagLit(rt.Tag))
		t.encodeNatural(indent+1, name, expr, ref)
		f.Line(indent+1, "return nil")
		f.Line(indent, "}); err != nil {")
		f.Line(indent+1, "return err")
		f.Line(indent, "}")

	default: // implicit: one frame under the replaced tag
		f.Line(indent, "if err := w.WriteTagged(%s, func(w codec.Writer) error {", tagLit(rt.Tag))
		t.encodeContent(indent+1, name, expr, ref)
		f.Line(indent+1, "return nil")
		f.Line(indent, "}); err != nil {")
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
	}
}

// encodeNatural writes the member under its own natural tag (the inner part
// of an explicit frame).
func (t *tlvEmitter) encodeNatural(indent int, name, expr string, ref schema.TypeRef) {
	f := t.f
	if ref.Kind == schema.RefNamed {
		f.Line(indent, "if err := v.%s.Encode%s(w); err != nil {", name, t.fam)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
		return
	}
	nat, _ := ref.NaturalTag(t.ctx.Reg)
	f.Line(indent, "if err := w.WriteTagged(%s, func(w codec.Writer) error {", tagLit(nat))
	t.encodeContent(indent+1, name, expr, ref)
	f.Line(indent+1, "return nil")
	f.Line(indent, "}); err != nil {")
	f.Line(indent+1, "return err")
	f.Line(indent, "}")
}

// encodeContent writes the member's content inside an already-open frame.
func (t *tlvEmitter) encodeContent(indent int, name, expr string, ref schema.TypeRef) {
	f := t.f
	switch ref.Kind {
	case schema.RefNamed:
		f.Line(indent, "if err := v.%s.encode%sFields(w); err != nil {", name, t.fam)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")

	case schema.RefSequenceOf:
		elem := *ref.Elem
		f.Line(indent, "for i := range %s {", "v."+name)
		t.encodeElem(indent+1, fmt.Sprintf("v.%s[i]", name), elem)
		f.Line(indent, "}")

	case schema.RefPrimitive:
		t.encodePrimitive(indent, expr, ref.Primitive)
	}
}

// encodeElem writes one element of a SEQUENCE OF under its natural tag.
func (t *tlvEmitter) encodeElem(indent int, expr string, elem schema.TypeRef) {
	f := t.f
	if elem.Kind == schema.RefNamed {
		f.Line(indent, "if err := %s.Encode%s(w); err != nil {", expr, t.fam)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
		return
	}
	nat, _ := elem.NaturalTag(t.ctx.Reg)
	f.Line(indent, "if err := w.WriteTagged(%s, func(w codec.Writer) error {", tagLit(nat))
	if elem.Kind == schema.RefSequenceOf {
		inner := *elem.Elem
		f.Line(indent+1, "for j := range %s {", expr)
		t.encodeElem(indent+2, expr+"[j]", inner)
		f.Line(indent+1, "}")
	} else {
		t.encodePrimitive(indent+1, expr, elem.Primitive)
	}
	f.Line(indent+1, "return nil")
	f.Line(indent, "}); err != nil {")
	f.Line(indent+1, "return err")
	f.Line(indent, "}")
}

func (t *tlvEmitter) encodePrimitive(indent int, expr string, p schema.Primitive) {
	f := t.f
	write := func(call string) {
		f.Line(indent, "if err := %s; err != nil {", call)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
	}
	switch {
	case p == schema.PrimBool:
		write("w.WriteBool(" + expr + ")")
	case p.Numeric():
		write("w.WriteInt(int64(" + expr + "))")
	case p == schema.PrimReal:
		write("w.WriteReal(float64(" + expr + "))")
	case p == schema.PrimNull:
		write("w.WriteNull()")
	case p == schema.PrimOctetString || p == schema.PrimBitString:
		write("w.WriteBytes(" + expr + ")")
	default:
		write("w.WriteString(string(" + expr + "))")
	}
}

func (t *tlvEmitter) emitStructDecode() {
	f := t.f
	td := t.td
	f.Line(0, "// Decode%s reads v under the %s rules.", t.fam, t.fam)
	f.Line(0, "func (v *%s) Decode%s(r codec.Reader) error {", td.Name, t.fam)
	f.Line(1, "return r.ReadTagged(%s, func(r codec.Reader) error {", tagLit(t.ownTag()))
	f.Line(2, "return v.decode%sFields(r)", t.fam)
	f.Line(1, "})")
	f.Line(0, "}")
	f.Line(0, "")

	if td.Kind == schema.KindSet {
		t.emitSetFieldsDecode()
		return
	}
	t.emitSequenceFieldsDecode()
}

// emitSequenceFieldsDecode reads SEQUENCE components positionally, in
// declaration order. Order is what disambiguates a SEQUENCE, so two required
// fields may legally carry the same tag; dispatching on the tag alone would
// conflate them.
func (t *tlvEmitter) emitSequenceFieldsDecode() {
	f := t.f
	td := t.td
	f.Import("errors")
	f.Line(0, "func (v *%s) decode%sFields(r codec.Reader) error {", td.Name, t.fam)
	for _, i := range t.plan.Order {
		fld := &td.Fields[i]
		rt := t.tags.Get(schema.FieldID(i))
		f.Line(1, "{")
		f.Line(2, "t, err := r.PeekTag()")
		f.Line(2, "switch {")
		f.Line(2, "case errors.Is(err, codec.ErrEndOfContents):")
		t.absentField(3, fld)
		f.Line(2, "case err != nil:")
		f.Line(3, "return err")
		f.Line(2, "case %s:", t.tagMatchExpr(fld, rt))
		t.decodeMember(3, fld.Name, fld.Type, rt)
		f.Line(2, "default:")
		t.absentField(3, fld)
		f.Line(2, "}")
		f.Line(1, "}")
	}
	f.Line(1, "for {")
	f.Line(2, "if _, err := r.PeekTag(); err != nil {")
	f.Line(3, "if errors.Is(err, codec.ErrEndOfContents) {")
	f.Line(4, "break")
	f.Line(3, "}")
	f.Line(3, "return err")
	f.Line(2, "}")
	if td.Extensible {
		f.Line(2, "if err := r.Skip(); err != nil {")
		f.Line(3, "return err")
		f.Line(2, "}")
	} else {
		f.Line(2, "return codec.NewDecodeError(codec.ErrUnknownField, %q)", td.Name+": unexpected component")
	}
	f.Line(1, "}")
	f.Line(1, "return nil")
	f.Line(0, "}")
	f.Line(0, "")
}

// absentField handles a component the stream does not carry: defaults are
// restored, optional fields keep their zero value, anything else is missing.
func (t *tlvEmitter) absentField(indent int, fld *schema.FieldSpec) {
	f := t.f
	switch {
	case fld.Default != nil:
		t.restoreDefault(indent, fld)
	case fld.Optional:
		f.Line(indent, "// absent")
	default:
		f.Line(indent, "return codec.NewDecodeError(codec.ErrTruncated, %q)", t.td.Name+"."+fld.Name+": missing required component")
	}
}

// tagMatchExpr renders the condition matching the peeked tag t against the
// member's resolved tag; untagged CHOICE members match any variant tag of the
// referenced type.
func (t *tlvEmitter) tagMatchExpr(fld *schema.FieldSpec, rt resolve.ResolvedTag) string {
	if rt.Untagged {
		tags := t.variantTagsOf(fld.Type.Name)
		if len(tags) == 0 {
			return "false"
		}
		parts := make([]string, len(tags))
		for k, vt := range tags {
			parts[k] = "t == (" + tagLit(vt) + ")"
		}
		return strings.Join(parts, " || ")
	}
	return "t == (" + tagLit(rt.Tag) + ")"
}

// emitSetFieldsDecode reads SET components by tag dispatch; the resolver
// guarantees SET tags are pairwise distinct.
func (t *tlvEmitter) emitSetFieldsDecode() {
	f := t.f
	td := t.td
	n := td.Len()
	f.Import("errors")
	f.Line(0, "func (v *%s) decode%sFields(r codec.Reader) error {", td.Name, t.fam)
	if n > 0 {
		f.Line(1, "var seen [%d]bool", n)
	}
	if t.plan.StrictOrder && n > 0 {
		f.Line(1, "prev := -1")
	}
	f.Line(1, "for {")
	f.Line(2, "t, err := r.PeekTag()")
	f.Line(2, "if errors.Is(err, codec.ErrEndOfContents) {")
	f.Line(3, "break")
	f.Line(2, "}")
	f.Line(2, "if err != nil {")
	f.Line(3, "return err")
	f.Line(2, "}")
	f.Line(2, "switch t {")
	for _, i := range t.plan.Order {
		fld := &td.Fields[i]
		rt := t.tags.Get(schema.FieldID(i))
		t.decodeFieldCase(i, fld, rt)
	}
	f.Line(2, "default:")
	if td.Extensible {
		f.Line(3, "if err := r.Skip(); err != nil {")
		f.Line(4, "return err")
		f.Line(3, "}")
	} else {
		f.Line(3, "return codec.NewDecodeError(codec.ErrUnknownField, %q)", td.Name+": unexpected component")
	}
	f.Line(2, "}")
	f.Line(1, "}")
	for i := range td.Fields {
		fld := &td.Fields[i]
		switch {
		case fld.Default != nil:
			f.Line(1, "if !seen[%d] {", i)
			t.restoreDefault(2, fld)
			f.Line(1, "}")
		case !fld.Optional:
			f.Line(1, "if !seen[%d] {", i)
			f.Line(2, "return codec.NewDecodeError(codec.ErrTruncated, %q)", td.Name+"."+fld.Name+": missing required component")
			f.Line(1, "}")
		}
	}
	f.Line(1, "return nil")
	f.Line(0, "}")
	f.Line(0, "")
}

// decodeFieldCase emits one switch arm of the component loop. Untagged
// CHOICE members match on any of the referenced type's variant tags.
func (t *tlvEmitter) decodeFieldCase(i int, fld *schema.FieldSpec, rt resolve.ResolvedTag) {
	f := t.f
	if rt.Untagged {
		tags := t.variantTagsOf(fld.Type.Name)
		lits := make([]string, len(tags))
		for k, vt := range tags {
			lits[k] = tagLit(vt)
		}
		f.Line(2, "case %s:", strings.Join(lits, ",\n\t\t"))
	} else {
		f.Line(2, "case %s:", tagLit(rt.Tag))
	}
	f.Line(3, "if seen[%d] {", i)
	f.Line(4, "return codec.NewDecodeError(codec.ErrMalformed, %q)", t.td.Name+"."+fld.Name+": repeated component")
	f.Line(3, "}")
	f.Line(3, "seen[%d] = true", i)
	if t.plan.StrictOrder {
		pos := t.orderPos(i)
		f.Line(3, "if prev >= %d {", pos)
		f.Line(4, "return codec.NewDecodeError(codec.ErrOutOfOrder, %q)", t.td.Name+"."+fld.Name+": component out of order")
		f.Line(3, "}")
		f.Line(3, "prev = %d", pos)
	}
	t.decodeMember(3, fld.Name, fld.Type, rt)
}

// orderPos returns the canonical position of field index i in the plan.
func (t *tlvEmitter) orderPos(i int) int {
	for pos, idx := range t.plan.Order {
		if idx == i {
			return pos
		}
	}
	return -1
}

func (t *tlvEmitter) decodeMember(indent int, name string, ref schema.TypeRef, rt resolve.ResolvedTag) {
	f := t.f
	switch {
	case rt.Untagged:
		t.allocIfPointer(indent, name, ref)
		f.Line(indent, "if err := %s.Decode%s(r); err != nil {", "v."+name, t.fam)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")

	case rt.Mode == schema.ModeExplicit:
		f.Line(indent, "if err := r.ReadTagged(t, func(r codec.Reader) error {")
		t.decodeNatural(indent+1, name, ref)
		f.Line(indent+1, "return nil")
		f.Line(indent, "}); err != nil {")
		f.Line(indent+1, "return err")
		f.Line(indent, "}")

	default:
		f.Line(indent, "if err := r.ReadTagged(t, func(r codec.Reader) error {")
		t.decodeContent(indent+1, name, ref)
		f.Line(indent+1, "return nil")
		f.Line(indent, "}); err != nil {")
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
	}
}

// decodeNatural reads the member under its own natural tag (the inner part
// of an explicit frame).
func (t *tlvEmitter) decodeNatural(indent int, name string, ref schema.TypeRef) {
	f := t.f
	if ref.Kind == schema.RefNamed {
		t.allocIfPointer(indent, name, ref)
		f.Line(indent, "if err := v.%s.Decode%s(r); err != nil {", name, t.fam)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
		return
	}
	nat, _ := ref.NaturalTag(t.ctx.Reg)
	f.Line(indent, "if err := r.ReadTagged(%s, func(r codec.Reader) error {", tagLit(nat))
	t.decodeContent(indent+1, name, ref)
	f.Line(indent+1, "return nil")
	f.Line(indent, "}); err != nil {")
	f.Line(indent+1, "return err")
	f.Line(indent, "}")
}

// decodeContent reads the member's content inside an already-open frame.
func (t *tlvEmitter) decodeContent(indent int, name string, ref schema.TypeRef) {
	f := t.f
	switch ref.Kind {
	case schema.RefNamed:
		t.allocIfPointer(indent, name, ref)
		f.Line(indent, "if err := v.%s.decode%sFields(r); err != nil {", name, t.fam)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")

	case schema.RefSequenceOf:
		elem := *ref.Elem
		f.Import("errors")
		f.Line(indent, "v.%s = v.%s[:0]", name, name)
		f.Line(indent, "for {")
		f.Line(indent+1, "if _, err := r.PeekTag(); err != nil {")
		f.Line(indent+2, "if errors.Is(err, codec.ErrEndOfContents) {")
		f.Line(indent+3, "break")
		f.Line(indent+2, "}")
		f.Line(indent+2, "return err")
		f.Line(indent+1, "}")
		f.Line(indent+1, "var elem %s", elem.GoType)
		t.decodeElem(indent+1, "elem", elem)
		f.Line(indent+1, "v.%s = append(v.%s, elem)", name, name)
		f.Line(indent, "}")

	case schema.RefPrimitive:
		t.decodePrimitive(indent, "v."+name, ref)
	}
}

// decodeElem reads one element of a SEQUENCE OF into lvalue.
func (t *tlvEmitter) decodeElem(indent int, lvalue string, elem schema.TypeRef) {
	f := t.f
	if elem.Kind == schema.RefNamed {
		if elem.Pointer {
			f.Line(indent, "%s = new(%s)", lvalue, baseGoType(elem))
		}
		f.Line(indent, "if err := %s.Decode%s(r); err != nil {", lvalue, t.fam)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
		return
	}
	nat, _ := elem.NaturalTag(t.ctx.Reg)
	f.Line(indent, "if err := r.ReadTagged(%s, func(r codec.Reader) error {", tagLit(nat))
	if elem.Kind == schema.RefSequenceOf {
		inner := *elem.Elem
		f.Import("errors")
		f.Line(indent+1, "%s = %s[:0]", lvalue, lvalue)
		f.Line(indent+1, "for {")
		f.Line(indent+2, "if _, err := r.PeekTag(); err != nil {")
		f.Line(indent+3, "if errors.Is(err, codec.ErrEndOfContents) {")
		f.Line(indent+4, "break")
		f.Line(indent+3, "}")
		f.Line(indent+2, "return err")
		f.Line(indent+2, "}")
		f.Line(indent+2, "var inner %s", inner.GoType)
		t.decodeElem(indent+2, "inner", inner)
		f.Line(indent+2, "%s = append(%s, inner)", lvalue, lvalue)
		f.Line(indent+1, "}")
	} else {
		t.decodePrimitive(indent+1, lvalue, elem)
	}
	f.Line(indent+1, "return nil")
	f.Line(indent, "}); err != nil {")
	f.Line(indent+1, "return err")
	f.Line(indent, "}")
}

// decodePrimitive reads a primitive content value into lvalue, converting
// through the codec's wide types and allocating pointers as needed.
func (t *tlvEmitter) decodePrimitive(indent int, lvalue string, ref schema.TypeRef) {
	f := t.f
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
		f.Line(indent, "x, err := r.ReadBool()")
	case p.Numeric():
		f.Line(indent, "x, err := r.ReadInt()")
	case p == schema.PrimReal:
		f.Line(indent, "x, err := r.ReadReal()")
	case p == schema.PrimNull:
		f.Line(indent, "if err := r.ReadNull(); err != nil {")
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
		return
	case p == schema.PrimOctetString || p == schema.PrimBitString:
		f.Line(indent, "x, err := r.ReadBytes()")
	default:
		f.Line(indent, "x, err := r.ReadString()")
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

func (t *tlvEmitter) allocIfPointer(indent int, name string, ref schema.TypeRef) {
	if ref.Pointer {
		t.f.Line(indent, "v.%s = new(%s)", name, baseGoType(ref))
	}
}

func (t *tlvEmitter) emitChoiceEncode() {
	f := t.f
	td := t.td
	f.Import("fmt")
	f.Line(0, "// Encode%s writes the active alternative of v under the %s rules.", t.fam, t.fam)
	f.Line(0, "// A CHOICE has no tag of its own; the alternative's tag leads.")
	f.Line(0, "func (v *%s) Encode%s(w codec.Writer) error {", td.Name, t.fam)
	f.Line(1, "switch {")
	for i := range td.Variants {
		vr := &td.Variants[i]
		rt := t.tags.Get(schema.FieldID(i))
		f.Line(1, "case v.%s != nil:", vr.Name)
		t.encodeMember(2, vr.Name, valueExpr(vr.Name, vr.Type), vr.Type, rt)
		f.Line(2, "return nil")
	}
	f.Line(1, "}")
	f.Line(1, "return fmt.Errorf(%q)", td.Name+": no alternative set")
	f.Line(0, "}")
	f.Line(0, "")
}

func (t *tlvEmitter) emitChoiceDecode() {
	f := t.f
	td := t.td
	f.Line(0, "// Decode%s dispatches on the next tag to pick the alternative.", t.fam)
	f.Line(0, "func (v *%s) Decode%s(r codec.Reader) error {", td.Name, t.fam)
	f.Line(1, "t, err := r.PeekTag()")
	f.Line(1, "if err != nil {")
	f.Line(2, "return err")
	f.Line(1, "}")
	f.Line(1, "switch t {")
	for i := range td.Variants {
		vr := &td.Variants[i]
		rt := t.tags.Get(schema.FieldID(i))
		if rt.Untagged {
			tags := t.variantTagsOf(vr.Type.Name)
			lits := make([]string, len(tags))
			for k, vt := range tags {
				lits[k] = tagLit(vt)
			}
			f.Line(1, "case %s:", strings.Join(lits, ",\n\t"))
		} else {
			f.Line(1, "case %s:", tagLit(rt.Tag))
		}
		t.decodeMember(2, vr.Name, vr.Type, rt)
	}
	f.Line(1, "default:")
	if td.Extensible {
		f.Line(2, "return r.Skip()")
	} else {
		f.Line(2, "return codec.NewDecodeError(codec.ErrUnknownAlternative, %q)", td.Name+": unknown alternative")
	}
	f.Line(1, "}")
	f.Line(1, "return nil")
	f.Line(0, "}")
	f.Line(0, "")
}
