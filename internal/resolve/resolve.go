// Package resolve assigns the final tag (class, number, mode) to every field
// or variant of a type definition, given its tagging environment.
package resolve

import (
	"fmt"

	"fortio.org/safecast"

	"asngen/internal/diag"
	"asngen/internal/schema"
)

// ResolvedTag is the final tag of one field or variant. Untagged marks a
// CHOICE-typed member with no annotation: the member has no tag of its own
// and is discriminated by its variants' tags.
type ResolvedTag struct {
	Tag      schema.Tag
	Mode     schema.TagMode
	Untagged bool
}

func (t ResolvedTag) String() string {
	if t.Untagged {
		return "<untagged choice>"
	}
	return fmt.Sprintf("%s %s", t.Tag, t.Mode)
}

// Table maps field/variant ids (declaration order) to resolved tags.
type Table struct {
	Tags []ResolvedTag
}

// Get returns the resolved tag for a member id.
func (t Table) Get(id schema.FieldID) ResolvedTag {
	return t.Tags[id]
}

// member is the pass-internal view of one field or variant.
type member struct {
	name     string
	typ      schema.TypeRef
	ann      *schema.TagAnnotation
	span     int // index, spans resolved through td.Site
}

// Tags resolves every member of td under its tagging environment.
//
// Explicit environment: unannotated members keep their natural universal
// tags. Implicit: an annotation replaces the natural tag without a wrapper.
// Automatic: when no member carries an annotation, ascending context tags
// 0..n-1 are assigned in declaration order; one annotated member disables
// automatic assignment for the whole type, which is diagnosed because the
// governing rules forbid the mix for these constructs.
//
// CHOICE has no tag of its own, so an implicit annotation on a CHOICE-typed
// member is an error and any other annotation wraps explicitly. A collision
// between the final tags of two members is fatal and reported with both
// member identities.
func Tags(td *schema.TypeDefinition, reg *schema.Registry, r diag.Reporter) (Table, bool) {
	members := collect(td)
	table := Table{Tags: make([]ResolvedTag, len(members))}
	ok := true

	automatic := td.Tagging == schema.EnvAutomatic
	if automatic {
		for _, m := range members {
			if m.ann != nil {
				automatic = false
				diag.ReportError(r, diag.TagMixedAutomatic, td.Site(schema.FieldID(m.span)),
					fmt.Sprintf("%s: explicit tag on %s disables automatic tagging for %s",
						td.Kind, m.name, td.Name))
				ok = false
				break
			}
		}
	}

	for i, m := range members {
		id := schema.FieldID(i)
		if automatic {
			num, err := safecast.Conv[uint32](i)
			if err != nil {
				diag.ReportError(r, diag.TagBadNumber, td.Site(id),
					fmt.Sprintf("%s: too many members for automatic tagging", td.Name))
				return table, false
			}
			mode := schema.ModeImplicit
			if isChoiceRef(m.typ, reg) {
				// CHOICE cannot be implicitly re-tagged; automatic falls
				// back to an explicit wrapper for these members.
				mode = schema.ModeExplicit
			}
			table.Tags[id] = ResolvedTag{Tag: schema.Tag{Class: schema.ClassContext, Number: num}, Mode: mode}
			continue
		}

		rt, memberOK := resolveMember(td, id, m, reg, r)
		if !memberOK {
			ok = false
			continue
		}
		table.Tags[id] = rt
	}

	if !checkCollisions(td, members, table, r) {
		ok = false
	}
	return table, ok
}

func collect(td *schema.TypeDefinition) []member {
	if td.Kind == schema.KindChoice {
		out := make([]member, len(td.Variants))
		for i := range td.Variants {
			v := &td.Variants[i]
			out[i] = member{name: v.Name, typ: v.Type, ann: v.Tag, span: i}
		}
		return out
	}
	out := make([]member, len(td.Fields))
	for i := range td.Fields {
		f := &td.Fields[i]
		out[i] = member{name: f.Name, typ: f.Type, ann: f.Tag, span: i}
	}
	return out
}

func isChoiceRef(ref schema.TypeRef, reg *schema.Registry) bool {
	if ref.Kind != schema.RefNamed {
		return false
	}
	def, ok := reg.Lookup(ref.Name)
	return ok && def.Kind == schema.KindChoice
}

func resolveMember(td *schema.TypeDefinition, id schema.FieldID, m member, reg *schema.Registry, r diag.Reporter) (ResolvedTag, bool) {
	choiceTyped := isChoiceRef(m.typ, reg)

	if m.ann == nil {
		natural, hasNatural := m.typ.NaturalTag(reg)
		if !hasNatural {
			if choiceTyped {
				return ResolvedTag{Untagged: true}, true
			}
			diag.ReportError(r, diag.TagBadNumber, td.Site(id),
				fmt.Sprintf("%s.%s has no resolvable natural tag", td.Name, m.name))
			return ResolvedTag{}, false
		}
		return ResolvedTag{Tag: natural, Mode: schema.ModeImplicit}, true
	}

	if m.ann.Class == schema.ClassUniversal {
		diag.ReportError(r, diag.TagBadClass, td.Site(id),
			fmt.Sprintf("%s.%s: universal class cannot be assigned by annotation", td.Name, m.name))
		return ResolvedTag{}, false
	}

	mode := m.ann.Mode
	if mode == schema.ModeUnspecified {
		if td.Tagging == schema.EnvImplicit {
			mode = schema.ModeImplicit
		} else {
			mode = schema.ModeExplicit
		}
	}
	if choiceTyped && mode == schema.ModeImplicit {
		diag.ReportError(r, diag.TagImplicitChoice, td.Site(id),
			fmt.Sprintf("%s.%s: CHOICE cannot be implicitly tagged; use an explicit wrapper", td.Name, m.name))
		return ResolvedTag{}, false
	}
	return ResolvedTag{Tag: schema.Tag{Class: m.ann.Class, Number: m.ann.Number}, Mode: mode}, true
}

// checkCollisions reports pairs of members whose final tags coincide where
// the encoding could not tell them apart. All members of a SET or CHOICE
// must carry distinct tags (decode dispatches on the tag alone). In a
// SEQUENCE order disambiguates, so only a field and the run of optional or
// defaulted fields immediately before it must differ. Untagged CHOICE
// members are skipped: their effective tags are the variant tags of the
// referenced type.
func checkCollisions(td *schema.TypeDefinition, members []member, table Table, r diag.Reporter) bool {
	if td.Kind != schema.KindSequence {
		return checkDistinct(td, members, table, r)
	}

	ok := true
	window := make(map[schema.Tag]int)
	for i := range members {
		rt := table.Tags[i]
		if rt.Untagged || (rt.Tag == schema.Tag{}) {
			continue
		}
		if prev, dup := window[rt.Tag]; dup {
			reportCollision(td, members, prev, i, rt.Tag, r)
			ok = false
		}
		f := &td.Fields[i]
		if f.Presence() {
			window[rt.Tag] = i
		} else {
			// a required field closes the ambiguity window
			window = make(map[schema.Tag]int)
		}
	}
	return ok
}

func checkDistinct(td *schema.TypeDefinition, members []member, table Table, r diag.Reporter) bool {
	ok := true
	seen := make(map[schema.Tag]int, len(members))
	for i := range members {
		rt := table.Tags[i]
		if rt.Untagged || (rt.Tag == schema.Tag{}) {
			continue
		}
		if prev, dup := seen[rt.Tag]; dup {
			reportCollision(td, members, prev, i, rt.Tag, r)
			ok = false
			continue
		}
		seen[rt.Tag] = i
	}
	return ok
}

func reportCollision(td *schema.TypeDefinition, members []member, prev, cur int, tag schema.Tag, r diag.Reporter) {
	code := diag.TagCollision
	what := "fields"
	if td.Kind == schema.KindChoice {
		code = diag.TagDuplicateVariant
		what = "variants"
	}
	r.Report(code, diag.SevError, td.Site(schema.FieldID(cur)),
		fmt.Sprintf("%s %s and %s of %s resolve to the same tag %s",
			what, members[prev].name, members[cur].name, td.Name, tag),
		[]diag.Note{{Span: td.Site(schema.FieldID(prev)), Msg: fmt.Sprintf("%s resolved here", members[prev].name)}})
}
