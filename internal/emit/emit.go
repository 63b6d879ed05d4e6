// Package emit generates encode/decode method source per encoding-rule
// family. Each backend consumes one resolved type definition together with
// its tags, folded constraints and encoding plan, and appends two method
// bodies to a GoFile. Backends share no mutable state; they differ only in
// the structural rules they apply.
package emit

import (
	"fmt"
	"sort"
	"strings"

	"asngen/internal/constraint"
	"asngen/internal/diag"
	"asngen/internal/plan"
	"asngen/internal/resolve"
	"asngen/internal/schema"
)

// Header marks every generated file.
const Header = "// Code generated by asngen. DO NOT EDIT."

// GoFile accumulates generated declarations and assembles a complete Go
// source file on demand.
type GoFile struct {
	pkg     string
	imports map[string]bool
	buf     strings.Builder
}

func NewGoFile(pkg string) *GoFile {
	return &GoFile{
		pkg:     pkg,
		imports: make(map[string]bool),
	}
}

// Import records an import path for the file header.
func (f *GoFile) Import(path string) {
	f.imports[path] = true
}

// Printf appends formatted source to the file body.
func (f *GoFile) Printf(format string, args ...any) {
	fmt.Fprintf(&f.buf, format, args...)
}

// Line appends one raw line with the given tab indentation.
func (f *GoFile) Line(indent int, format string, args ...any) {
	for i := 0; i < indent; i++ {
		f.buf.WriteByte('\t')
	}
	fmt.Fprintf(&f.buf, format, args...)
	f.buf.WriteByte('\n')
}

// Bytes assembles the header, package clause, sorted imports and body.
func (f *GoFile) Bytes() []byte {
	var out strings.Builder
	out.WriteString(Header)
	out.WriteString("\n\n")
	out.WriteString("package " + f.pkg + "\n\n")
	if len(f.imports) > 0 {
		paths := make([]string, 0, len(f.imports))
		for p := range f.imports {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		out.WriteString("import (\n")
		for _, p := range paths {
			out.WriteString("\t\"" + p + "\"\n")
		}
		out.WriteString(")\n\n")
	}
	out.WriteString(f.buf.String())
	return []byte(out.String())
}

// Context gives emitters read access to the whole compilation unit: the
// registry plus every type's resolved tags and folded constraints. Needed
// for members referencing other definitions (e.g. the variant tags of an
// untagged CHOICE field).
type Context struct {
	Reg    *schema.Registry
	Tables map[string]resolve.Table
	Folds  map[string][]constraint.Folded
	// RuntimePath is the import path of the runtime capability package.
	RuntimePath string
}

// NewContext creates an emission context with the default runtime path.
func NewContext(reg *schema.Registry) *Context {
	return &Context{
		Reg:         reg,
		Tables:      make(map[string]resolve.Table),
		Folds:       make(map[string][]constraint.Folded),
		RuntimePath: "asngen/codec",
	}
}

// EmitType appends the encode/decode pair of td for the plan's family.
// Emission is withheld entirely when the family cannot represent the
// resolved schema; the problems are reported and ok is false.
func EmitType(f *GoFile, ctx *Context, td *schema.TypeDefinition, tags resolve.Table, folded []constraint.Folded, p *plan.EncodingPlan, r diag.Reporter) bool {
	e := &typeEmitter{f: f, ctx: ctx, td: td, tags: tags, folded: folded, plan: p, rep: r}
	if !e.check() {
		return false
	}
	f.Import(ctx.RuntimePath)
	switch {
	case p.Family.TLV():
		e.emitTLV()
	case p.Family.Packed():
		e.emitPacked()
	case p.Family == plan.OER:
		e.emitOER()
	case p.Family == plan.XER:
		e.emitXER()
	}
	return true
}

type typeEmitter struct {
	f      *GoFile
	ctx    *Context
	td     *schema.TypeDefinition
	tags   resolve.Table
	folded []constraint.Folded
	plan   *plan.EncodingPlan
	rep    diag.Reporter
}

// check verifies the family can represent every member before anything is
// written, so a failing type never gets a partial emission.
func (e *typeEmitter) check() bool {
	ok := true
	family := e.plan.Family
	for i := range e.members() {
		ref := e.memberRef(i)
		fold := e.foldOf(i)
		site := e.td.Site(schema.FieldID(i))
		name := e.td.MemberName(schema.FieldID(i))
		if family.Packed() || family == plan.OER {
			if containsReal(ref) {
				diag.ReportError(e.rep, diag.EmitUnsupportedKind, site,
					fmt.Sprintf("%s.%s: REAL is not supported by the %s family", e.td.Name, name, family))
				ok = false
			}
			if ref.Kind == schema.RefSequenceOf && !fold.Size.Bounded() {
				diag.ReportError(e.rep, diag.EmitUnboundedPacked, site,
					fmt.Sprintf("%s.%s: %s requires a bounded size constraint on SEQUENCE OF", e.td.Name, name, family))
				ok = false
			}
		}
	}
	return ok
}

// containsReal walks the element chain of a member ref, so a REAL buried
// inside nested SEQUENCE OF levels is caught like a top-level one.
func containsReal(ref schema.TypeRef) bool {
	for {
		switch ref.Kind {
		case schema.RefPrimitive:
			return ref.Primitive == schema.PrimReal
		case schema.RefSequenceOf:
			ref = *ref.Elem
		default:
			return false
		}
	}
}

func (e *typeEmitter) members() []int {
	out := make([]int, e.td.Len())
	for i := range out {
		out[i] = i
	}
	return out
}

func (e *typeEmitter) memberRef(i int) schema.TypeRef {
	if e.td.Kind == schema.KindChoice {
		return e.td.Variants[i].Type
	}
	return e.td.Fields[i].Type
}

func (e *typeEmitter) foldOf(i int) constraint.Folded {
	if i < len(e.folded) {
		return e.folded[i]
	}
	return constraint.Folded{}
}

// methodSuffix is the family part of generated method names.
func (e *typeEmitter) methodSuffix() string {
	return strings.ToUpper(e.plan.Family.String())
}

// tagLit renders a codec.Tag literal.
func tagLit(t schema.Tag) string {
	return fmt.Sprintf("codec.Tag{Class: codec.Class%s, Number: %d}", classIdent(t.Class), t.Number)
}

func classIdent(c schema.Class) string {
	switch c {
	case schema.ClassUniversal:
		return "Universal"
	case schema.ClassApplication:
		return "Application"
	case schema.ClassContext:
		return "Context"
	case schema.ClassPrivate:
		return "Private"
	}
	return "Universal"
}

// baseGoType strips the pointer from a member's Go type.
func baseGoType(ref schema.TypeRef) string {
	return strings.TrimPrefix(ref.GoType, "*")
}

// presenceCond renders the "field has an explicit value" condition.
// Pointer and slice members test nil; defaulted value members compare
// against the default.
func presenceCond(f *schema.FieldSpec) string {
	if f.Type.Pointer || f.Type.Kind == schema.RefSequenceOf ||
		(f.Type.Kind == schema.RefPrimitive && f.Type.Primitive == schema.PrimOctetString) {
		return "v." + f.Name + " != nil"
	}
	if f.Default != nil {
		return fmt.Sprintf("v.%s != %s", f.Name, f.Default.Expr)
	}
	// unreachable for well-formed schemas: schema.Build requires optional
	// fields to be nilable or defaulted
	return "true"
}

// restoreDefault assigns the declared default to an absent field. Pointer
// fields take the address of a typed temporary; the block keeps tmp from
// colliding when several defaults restore in one body.
func (e *typeEmitter) restoreDefault(indent int, fld *schema.FieldSpec) {
	f := e.f
	if fld.Type.Pointer {
		f.Line(indent, "{")
		f.Line(indent+1, "tmp := %s(%s)", baseGoType(fld.Type), fld.Default.Expr)
		f.Line(indent+1, "v.%s = &tmp", fld.Name)
		f.Line(indent, "}")
		return
	}
	f.Line(indent, "v.%s = %s", fld.Name, fld.Default.Expr)
}

// valueExpr renders the dereferenced member expression.
func valueExpr(name string, ref schema.TypeRef) string {
	if ref.Pointer {
		return "(*v." + name + ")"
	}
	return "v." + name
}

// variantTagsOf returns the resolved variant tags of a referenced CHOICE
// definition, used to dispatch untagged CHOICE members in TLV decoding.
func (e *typeEmitter) variantTagsOf(name string) []schema.Tag {
	table, ok := e.ctx.Tables[name]
	if !ok {
		return nil
	}
	out := make([]schema.Tag, 0, len(table.Tags))
	for _, rt := range table.Tags {
		if !rt.Untagged {
			out = append(out, rt.Tag)
		}
	}
	return out
}

// isChoice reports whether a named ref points at a CHOICE definition.
func (e *typeEmitter) isChoice(ref schema.TypeRef) bool {
	if ref.Kind != schema.RefNamed {
		return false
	}
	def, ok := e.ctx.Reg.Lookup(ref.Name)
	return ok && def.Kind == schema.KindChoice
}
