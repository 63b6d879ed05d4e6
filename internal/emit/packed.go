package emit

import (
	"fmt"
	"math/bits"

	"asngen/internal/schema"
)

// bitOpts separates the aligned variants from the unaligned one. OER rounds
// every width up to whole octets and keeps each component on a byte
// boundary; APER only pads around unbounded payloads.
type bitOpts struct {
	alignPreamble bool
	alignFields   bool
	alignUnsized  bool
	byteWidths    bool
	wideBool      bool
	prefixStrings bool
}

func uperOpts() bitOpts { return bitOpts{} }

func aperOpts() bitOpts { return bitOpts{alignUnsized: true} }

func oerOpts() bitOpts {
	return bitOpts{
		alignPreamble: true,
		alignFields:   true,
		alignUnsized:  true,
		byteWidths:    true,
		wideBool:      true,
		prefixStrings: true,
	}
}

// emitPacked generates the bit-packed encode/decode pair for UPER/APER.
func (e *typeEmitter) emitPacked() {
	opts := uperOpts()
	if e.plan.Aligned {
		opts = aperOpts()
	}
	b := &bitEmitter{typeEmitter: e, fam: e.methodSuffix(), opts: opts}
	b.emit()
}

// emitOER generates the octet-aligned encode/decode pair.
func (e *typeEmitter) emitOER() {
	b := &bitEmitter{typeEmitter: e, fam: e.methodSuffix(), opts: oerOpts()}
	b.emit()
}

type bitEmitter struct {
	*typeEmitter
	fam  string
	opts bitOpts
}

func (b *bitEmitter) emit() {
	if b.td.Kind == schema.KindChoice {
		b.emitChoiceEncode()
		b.emitChoiceDecode()
		return
	}
	b.emitStructEncode()
	b.emitStructDecode()
}

// width applies the family's rounding to a folded bit width.
func (b *bitEmitter) width(w int) int {
	if w <= 0 || !b.opts.byteWidths {
		return w
	}
	return (w + 7) / 8 * 8
}

func (b *bitEmitter) align(indent int) {
	b.f.Line(indent, "if err := w.Align(); err != nil {")
	b.f.Line(indent+1, "return err")
	b.f.Line(indent, "}")
}

func (b *bitEmitter) alignRead(indent int) {
	b.f.Line(indent, "if err := r.Align(); err != nil {")
	b.f.Line(indent+1, "return err")
	b.f.Line(indent, "}")
}

func (b *bitEmitter) emitStructEncode() {
	f := b.f
	td := b.td
	f.Line(0, "// Encode%s writes v under the %s rules. Optional and defaulted fields", b.fam, b.fam)
	f.Line(0, "// are signaled by the leading presence bitmap.")
	f.Line(0, "func (v *%s) Encode%s(w codec.BitWriter) error {", td.Name, b.fam)
	if td.Extensible {
		f.Line(1, "if err := w.WriteBit(false); err != nil {")
		f.Line(2, "return err")
		f.Line(1, "}")
	}
	for _, idx := range b.plan.BitmapSlots {
		f.Line(1, "if err := w.WriteBit(%s); err != nil {", presenceCond(&td.Fields[idx]))
		f.Line(2, "return err")
		f.Line(1, "}")
	}
	if b.opts.alignPreamble && (td.Extensible || len(b.plan.BitmapSlots) > 0) {
		b.align(1)
	}
	for _, i := range b.plan.Order {
		fld := &td.Fields[i]
		fold := b.foldView(i)
		if fld.Presence() {
			f.Line(1, "if %s {", presenceCond(fld))
		} else {
			f.Line(1, "{")
		}
		if b.opts.alignFields {
			b.align(2)
		}
		b.encodeContent(2, fld.Name, valueExpr(fld.Name, fld.Type), fld.Type, fold)
		f.Line(1, "}")
	}
	f.Line(1, "return nil")
	f.Line(0, "}")
	f.Line(0, "")
}

func (b *bitEmitter) encodeContent(indent int, name, expr string, ref schema.TypeRef, fold foldView) {
	f := b.f
	switch ref.Kind {
	case schema.RefNamed:
		f.Line(indent, "if err := v.%s.Encode%s(w); err != nil {", name, b.fam)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")

	case schema.RefSequenceOf:
		b.encodeCount(indent, name, "len(v."+name+")", fold)
		f.Line(indent, "for i := range v.%s {", name)
		b.encodeElem(indent+1, name, fmt.Sprintf("v.%s[i]", name), *ref.Elem, fold.elem())
		f.Line(indent, "}")

	case schema.RefPrimitive:
		b.encodePrimitive(indent, name, expr, ref.Primitive, fold)
	}
}

func (b *bitEmitter) encodeElem(indent int, name, expr string, elem schema.TypeRef, fold foldView) {
	f := b.f
	switch elem.Kind {
	case schema.RefNamed:
		f.Line(indent, "if err := %s.Encode%s(w); err != nil {", expr, b.fam)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
	case schema.RefSequenceOf:
		// inner lists have no size constraint of their own; a self-delimited
		// count keeps them decodable
		f.Line(indent, "if err := w.WriteUnconstrainedInt(int64(len(%s))); err != nil {", expr)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
		f.Line(indent, "for j := range %s {", expr)
		b.encodeElem(indent+1, name, expr+"[j]", *elem.Elem, foldView{})
		f.Line(indent, "}")
	case schema.RefPrimitive:
		b.encodePrimitive(indent, name, expr, elem.Primitive, fold)
	}
}

// foldView narrows a Folded to what one member needs; the zero value means
// fully unconstrained.
type foldView struct {
	valueWidth int
	valueLo    int64
	valueHi    int64
	sizeWidth  int
	sizeLo     int64
	sizeHi     int64
	extensible bool
}

// elem strips the size bound: it governs the element count of the list, not
// the lengths of the elements themselves.
func (fv foldView) elem() foldView {
	out := fv
	out.sizeWidth = -1
	return out
}

func (b *bitEmitter) foldView(i int) foldView {
	fd := b.foldOf(i)
	out := foldView{valueWidth: -1, sizeWidth: -1, extensible: fd.Extensible}
	if fd.Value.Bounded() {
		out.valueWidth = b.width(fd.ValueBitWidth())
		out.valueLo = fd.Value.Lo
		out.valueHi = fd.Value.Hi
	}
	if fd.Size.Bounded() {
		out.sizeWidth = b.width(fd.SizeBitWidth())
		out.sizeLo = fd.Size.Lo
		out.sizeHi = fd.Size.Hi
	}
	return out
}

func (b *bitEmitter) encodePrimitive(indent int, name, expr string, p schema.Primitive, fold foldView) {
	f := b.f
	check := func(call string) {
		f.Line(indent, "if err := %s; err != nil {", call)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
	}
	qname := b.td.Name + "." + name
	switch {
	case p == schema.PrimBool:
		if b.opts.wideBool {
			f.Line(indent, "var x uint64")
			f.Line(indent, "if %s {", expr)
			f.Line(indent+1, "x = 1")
			f.Line(indent, "}")
			check("w.WriteBits(8, x)")
		} else {
			check("w.WriteBit(" + expr + ")")
		}

	case p.Numeric():
		f.Line(indent, "x := int64(%s)", expr)
		switch {
		case fold.valueWidth == 0 && !fold.extensible:
			f.Import("fmt")
			f.Line(indent, "if x != %d {", fold.valueLo)
			f.Line(indent+1, "return fmt.Errorf(%q, x)", qname+": value %d outside constrained range")
			f.Line(indent, "}")
		case fold.valueWidth > 0 && fold.extensible:
			f.Line(indent, "if x >= %d && x <= %d {", fold.valueLo, fold.valueHi)
			f.Line(indent+1, "if err := w.WriteBit(false); err != nil {")
			f.Line(indent+2, "return err")
			f.Line(indent+1, "}")
			f.Line(indent+1, "if err := w.WriteBits(%d, uint64(x-%d)); err != nil {", fold.valueWidth, fold.valueLo)
			f.Line(indent+2, "return err")
			f.Line(indent+1, "}")
			f.Line(indent, "} else {")
			f.Line(indent+1, "if err := w.WriteBit(true); err != nil {")
			f.Line(indent+2, "return err")
			f.Line(indent+1, "}")
			f.Line(indent+1, "if err := w.WriteUnconstrainedInt(x); err != nil {")
			f.Line(indent+2, "return err")
			f.Line(indent+1, "}")
			f.Line(indent, "}")
		case fold.valueWidth > 0:
			f.Import("fmt")
			f.Line(indent, "if x < %d || x > %d {", fold.valueLo, fold.valueHi)
			f.Line(indent+1, "return fmt.Errorf(%q, x)", qname+": value %d outside constrained range")
			f.Line(indent, "}")
			check(fmt.Sprintf("w.WriteBits(%d, uint64(x-%d))", fold.valueWidth, fold.valueLo))
		default:
			if b.opts.alignUnsized {
				b.align(indent)
			}
			check("w.WriteUnconstrainedInt(x)")
		}

	case p == schema.PrimNull:
		f.Line(indent, "_ = %s", expr)

	case p == schema.PrimOctetString || p == schema.PrimBitString:
		b.encodeSized(indent, name, expr, fold, false)

	default: // character strings
		b.encodeSized(indent, name, expr, fold, true)
	}
}

// encodeSized writes a length-governed payload: a count in the folded size
// width followed by raw bytes, or a self-delimited fragment when the size is
// unbounded.
func (b *bitEmitter) encodeSized(indent int, name, expr string, fold foldView, isString bool) {
	f := b.f
	payload := expr
	if isString {
		payload = "[]byte(" + expr + ")"
	}
	if fold.sizeWidth < 0 || b.opts.prefixStrings {
		if b.opts.alignUnsized {
			b.align(indent)
		}
		f.Line(indent, "if err := w.WriteLengthPrefixed(%s); err != nil {", payload)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
		return
	}
	qname := b.td.Name + "." + name
	f.Import("fmt")
	f.Line(indent, "if n := len(%s); n < %d || n > %d {", expr, fold.sizeLo, fold.sizeHi)
	f.Line(indent+1, "return fmt.Errorf(%q, len(%s))", qname+": length %d outside constrained size", expr)
	f.Line(indent, "}")
	if fold.sizeWidth > 0 {
		f.Line(indent, "if err := w.WriteBits(%d, uint64(len(%s)-%d)); err != nil {", fold.sizeWidth, expr, fold.sizeLo)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
	}
	f.Line(indent, "if err := w.WriteRawBytes(%s); err != nil {", payload)
	f.Line(indent+1, "return err")
	f.Line(indent, "}")
}

// encodeCount writes the element count of a SEQUENCE OF in the folded size
// width. Unbounded counts are rejected before emission for these families.
func (b *bitEmitter) encodeCount(indent int, name, lenExpr string, fold foldView) {
	f := b.f
	qname := b.td.Name + "." + name
	f.Import("fmt")
	f.Line(indent, "if n := %s; n < %d || n > %d {", lenExpr, fold.sizeLo, fold.sizeHi)
	f.Line(indent+1, "return fmt.Errorf(%q, %s)", qname+": length %d outside constrained size", lenExpr)
	f.Line(indent, "}")
	if fold.sizeWidth > 0 {
		f.Line(indent, "if err := w.WriteBits(%d, uint64(%s-%d)); err != nil {", fold.sizeWidth, lenExpr, fold.sizeLo)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
	}
}

func (b *bitEmitter) emitStructDecode() {
	f := b.f
	td := b.td
	f.Line(0, "// Decode%s reads v under the %s rules.", b.fam, b.fam)
	f.Line(0, "func (v *%s) Decode%s(r codec.BitReader) error {", td.Name, b.fam)
	if td.Extensible {
		f.Line(1, "{")
		f.Line(2, "ext, err := r.ReadBit()")
		f.Line(2, "if err != nil {")
		f.Line(3, "return err")
		f.Line(2, "}")
		f.Line(2, "if ext {")
		f.Line(3, "return codec.NewDecodeError(codec.ErrUnknownField, %q)", td.Name+": extension additions present")
		f.Line(2, "}")
		f.Line(1, "}")
	}
	slots := b.plan.BitmapSlots
	if len(slots) > 0 {
		f.Line(1, "var present [%d]bool", len(slots))
		for s := range slots {
			f.Line(1, "{")
			f.Line(2, "b, err := r.ReadBit()")
			f.Line(2, "if err != nil {")
			f.Line(3, "return err")
			f.Line(2, "}")
			f.Line(2, "present[%d] = b", s)
			f.Line(1, "}")
		}
	}
	if b.opts.alignPreamble && (td.Extensible || len(slots) > 0) {
		b.alignRead(1)
	}
	for _, i := range b.plan.Order {
		fld := &td.Fields[i]
		fold := b.foldView(i)
		slot := b.plan.SlotOf(i)
		if slot >= 0 {
			f.Line(1, "if present[%d] {", slot)
		} else {
			f.Line(1, "{")
		}
		if b.opts.alignFields {
			b.alignRead(2)
		}
		b.decodeContent(2, fld.Name, fld.Type, fold)
		if slot >= 0 && fld.Default != nil {
			f.Line(1, "} else {")
			b.restoreDefault(2, fld)
		}
		f.Line(1, "}")
	}
	f.Line(1, "return nil")
	f.Line(0, "}")
	f.Line(0, "")
}

func (b *bitEmitter) decodeContent(indent int, name string, ref schema.TypeRef, fold foldView) {
	f := b.f
	switch ref.Kind {
	case schema.RefNamed:
		if ref.Pointer {
			f.Line(indent, "v.%s = new(%s)", name, baseGoType(ref))
		}
		f.Line(indent, "if err := v.%s.Decode%s(r); err != nil {", name, b.fam)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")

	case schema.RefSequenceOf:
		b.decodeCount(indent, fold)
		f.Line(indent, "v.%s = v.%s[:0]", name, name)
		f.Line(indent, "for i := int64(0); i < n; i++ {")
		f.Line(indent+1, "var elem %s", ref.Elem.GoType)
		b.decodeElem(indent+1, "elem", *ref.Elem, fold.elem())
		f.Line(indent+1, "v.%s = append(v.%s, elem)", name, name)
		f.Line(indent, "}")

	case schema.RefPrimitive:
		b.decodePrimitive(indent, "v."+name, ref, fold)
	}
}

// decodeCount declares n, the element count read back in the folded width.
func (b *bitEmitter) decodeCount(indent int, fold foldView) {
	f := b.f
	if fold.sizeWidth > 0 {
		f.Line(indent, "x, err := r.ReadBits(%d)", fold.sizeWidth)
		f.Line(indent, "if err != nil {")
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
		f.Line(indent, "n := int64(x) + %d", fold.sizeLo)
	} else {
		f.Line(indent, "n := int64(%d)", fold.sizeLo)
	}
}

func (b *bitEmitter) decodeElem(indent int, lvalue string, elem schema.TypeRef, fold foldView) {
	f := b.f
	switch elem.Kind {
	case schema.RefNamed:
		if elem.Pointer {
			f.Line(indent, "%s = new(%s)", lvalue, baseGoType(elem))
		}
		f.Line(indent, "if err := %s.Decode%s(r); err != nil {", lvalue, b.fam)
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
	case schema.RefSequenceOf:
		f.Line(indent, "{")
		f.Line(indent+1, "m, err := r.ReadUnconstrainedInt()")
		f.Line(indent+1, "if err != nil {")
		f.Line(indent+2, "return err")
		f.Line(indent+1, "}")
		f.Line(indent+1, "for j := int64(0); j < m; j++ {")
		f.Line(indent+2, "var inner %s", elem.Elem.GoType)
		b.decodeElem(indent+2, "inner", *elem.Elem, foldView{valueWidth: -1, sizeWidth: -1})
		f.Line(indent+2, "%s = append(%s, inner)", lvalue, lvalue)
		f.Line(indent+1, "}")
		f.Line(indent, "}")
	case schema.RefPrimitive:
		b.decodePrimitive(indent, lvalue, elem, fold)
	}
}

func (b *bitEmitter) decodePrimitive(indent int, lvalue string, ref schema.TypeRef, fold foldView) {
	f := b.f
	base := baseGoType(ref)
	assign := func(expr string) {
		if ref.Pointer {
			f.Line(indent, "tmp := %s", expr)
			f.Line(indent, "%s = &tmp", lvalue)
		} else {
			f.Line(indent, "%s = %s", lvalue, expr)
		}
	}
	conv := func(expr string) string {
		if base == "int64" {
			return expr
		}
		return base + "(" + expr + ")"
	}
	p := ref.Primitive
	switch {
	case p == schema.PrimBool:
		if b.opts.wideBool {
			f.Line(indent, "x, err := r.ReadBits(8)")
			f.Line(indent, "if err != nil {")
			f.Line(indent+1, "return err")
			f.Line(indent, "}")
			assign("x != 0")
		} else {
			f.Line(indent, "x, err := r.ReadBit()")
			f.Line(indent, "if err != nil {")
			f.Line(indent+1, "return err")
			f.Line(indent, "}")
			assign("x")
		}

	case p.Numeric():
		switch {
		case fold.valueWidth == 0 && !fold.extensible:
			assign(conv(fmt.Sprintf("%d", fold.valueLo)))
		case fold.valueWidth > 0 && fold.extensible:
			f.Line(indent, "ext, err := r.ReadBit()")
			f.Line(indent, "if err != nil {")
			f.Line(indent+1, "return err")
			f.Line(indent, "}")
			f.Line(indent, "var n int64")
			f.Line(indent, "if ext {")
			f.Line(indent+1, "n, err = r.ReadUnconstrainedInt()")
			f.Line(indent, "} else {")
			f.Line(indent+1, "var x uint64")
			f.Line(indent+1, "x, err = r.ReadBits(%d)", fold.valueWidth)
			f.Line(indent+1, "n = int64(x) + %d", fold.valueLo)
			f.Line(indent, "}")
			f.Line(indent, "if err != nil {")
			f.Line(indent+1, "return err")
			f.Line(indent, "}")
			assign(conv("n"))
		case fold.valueWidth > 0:
			f.Line(indent, "x, err := r.ReadBits(%d)", fold.valueWidth)
			f.Line(indent, "if err != nil {")
			f.Line(indent+1, "return err")
			f.Line(indent, "}")
			assign(conv(fmt.Sprintf("int64(x) + %d", fold.valueLo)))
		default:
			if b.opts.alignUnsized {
				b.alignRead(indent)
			}
			f.Line(indent, "x, err := r.ReadUnconstrainedInt()")
			f.Line(indent, "if err != nil {")
			f.Line(indent+1, "return err")
			f.Line(indent, "}")
			assign(conv("x"))
		}

	case p == schema.PrimNull:
		// no bits on the wire

	case p == schema.PrimOctetString || p == schema.PrimBitString:
		b.decodeSized(indent, fold)
		assign("buf")

	default:
		b.decodeSized(indent, fold)
		assign("string(buf)")
	}
}

// decodeSized declares buf, the raw payload read back under the folded size.
func (b *bitEmitter) decodeSized(indent int, fold foldView) {
	f := b.f
	if fold.sizeWidth < 0 || b.opts.prefixStrings {
		if b.opts.alignUnsized {
			b.alignRead(indent)
		}
		f.Line(indent, "buf, err := r.ReadLengthPrefixed()")
		f.Line(indent, "if err != nil {")
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
		return
	}
	if fold.sizeWidth > 0 {
		f.Line(indent, "x, err := r.ReadBits(%d)", fold.sizeWidth)
		f.Line(indent, "if err != nil {")
		f.Line(indent+1, "return err")
		f.Line(indent, "}")
		f.Line(indent, "buf, err := r.ReadRawBytes(int(x) + %d)", fold.sizeLo)
	} else {
		f.Line(indent, "buf, err := r.ReadRawBytes(%d)", fold.sizeLo)
	}
	f.Line(indent, "if err != nil {")
	f.Line(indent+1, "return err")
	f.Line(indent, "}")
}

func (b *bitEmitter) emitChoiceEncode() {
	f := b.f
	td := b.td
	n := len(td.Variants)
	idxWidth := b.width(bits.Len(uint(n - 1)))
	f.Import("fmt")
	f.Line(0, "// Encode%s writes the active alternative of v, led by its index.", b.fam)
	f.Line(0, "func (v *%s) Encode%s(w codec.BitWriter) error {", td.Name, b.fam)
	if td.Extensible {
		f.Line(1, "if err := w.WriteBit(false); err != nil {")
		f.Line(2, "return err")
		f.Line(1, "}")
	}
	f.Line(1, "switch {")
	for i := range td.Variants {
		vr := &td.Variants[i]
		f.Line(1, "case v.%s != nil:", vr.Name)
		if idxWidth > 0 {
			f.Line(2, "if err := w.WriteBits(%d, %d); err != nil {", idxWidth, i)
			f.Line(3, "return err")
			f.Line(2, "}")
		}
		b.encodeContent(2, vr.Name, valueExpr(vr.Name, vr.Type), vr.Type, b.foldView(i))
		f.Line(2, "return nil")
	}
	f.Line(1, "}")
	f.Line(1, "return fmt.Errorf(%q)", td.Name+": no alternative set")
	f.Line(0, "}")
	f.Line(0, "")
}

func (b *bitEmitter) emitChoiceDecode() {
	f := b.f
	td := b.td
	n := len(td.Variants)
	idxWidth := b.width(bits.Len(uint(n - 1)))
	f.Line(0, "// Decode%s reads the alternative index and dispatches.", b.fam)
	f.Line(0, "func (v *%s) Decode%s(r codec.BitReader) error {", td.Name, b.fam)
	if td.Extensible {
		f.Line(1, "{")
		f.Line(2, "ext, err := r.ReadBit()")
		f.Line(2, "if err != nil {")
		f.Line(3, "return err")
		f.Line(2, "}")
		f.Line(2, "if ext {")
		f.Line(3, "return codec.NewDecodeError(codec.ErrUnknownAlternative, %q)", td.Name+": extension alternative present")
		f.Line(2, "}")
		f.Line(1, "}")
	}
	if idxWidth > 0 {
		f.Line(1, "idx, err := r.ReadBits(%d)", idxWidth)
		f.Line(1, "if err != nil {")
		f.Line(2, "return err")
		f.Line(1, "}")
	} else {
		f.Line(1, "var idx uint64")
	}
	f.Line(1, "switch idx {")
	for i := range td.Variants {
		vr := &td.Variants[i]
		f.Line(1, "case %d:", i)
		b.decodeContent(2, vr.Name, vr.Type, b.foldView(i))
	}
	f.Line(1, "default:")
	f.Line(2, "return codec.NewDecodeError(codec.ErrUnknownAlternative, %q)", td.Name+": unknown alternative")
	f.Line(1, "}")
	f.Line(1, "return nil")
	f.Line(0, "}")
	f.Line(0, "")
}
