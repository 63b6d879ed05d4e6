// Package plan decides, per encoding-rule family, how optional and defaulted
// fields are signaled and in which order fields are laid out.
package plan

import (
	"fmt"
	"sort"

	"asngen/internal/constraint"
	"asngen/internal/diag"
	"asngen/internal/resolve"
	"asngen/internal/schema"
)

// Family is one complete set of structural encoding rules.
type Family uint8

const (
	BER Family = iota
	DER
	UPER
	APER
	OER
	XER
)

// Families lists every supported family in a stable order.
var Families = []Family{BER, DER, UPER, APER, OER, XER}

func (f Family) String() string {
	switch f {
	case BER:
		return "ber"
	case DER:
		return "der"
	case UPER:
		return "uper"
	case APER:
		return "aper"
	case OER:
		return "oer"
	case XER:
		return "xer"
	}
	return "unknown"
}

// ParseFamily maps a config/CLI name onto a Family.
func ParseFamily(s string) (Family, bool) {
	for _, f := range Families {
		if f.String() == s {
			return f, true
		}
	}
	return BER, false
}

// TLV reports whether the family is tag-length-value structured.
func (f Family) TLV() bool {
	return f == BER || f == DER
}

// Packed reports whether the family is bit-packed.
func (f Family) Packed() bool {
	return f == UPER || f == APER
}

// PresenceStrategy describes how optional/default fields are signaled.
type PresenceStrategy uint8

const (
	// PresenceNone: no optional fields, nothing to signal.
	PresenceNone PresenceStrategy = iota
	// PresenceBitmap: fixed-order bitmap before the payloads (packed
	// families).
	PresenceBitmap
	// PresenceTagAbsence: the tag simply does not appear in the stream
	// (TLV families).
	PresenceTagAbsence
	// PresenceFlags: per-field presence flags in the family's own layout
	// (OER).
	PresenceFlags
)

func (p PresenceStrategy) String() string {
	switch p {
	case PresenceNone:
		return "none"
	case PresenceBitmap:
		return "bitmap"
	case PresenceTagAbsence:
		return "tag-absence"
	case PresenceFlags:
		return "flags"
	}
	return "unknown"
}

// EncodingPlan is the per-family field layout of one type definition.
type EncodingPlan struct {
	Family   Family
	Presence PresenceStrategy
	// Order lists field indices in emission order. TLV canonical variants
	// reorder SET fields by ascending resolved tag; everything else keeps
	// declaration order.
	Order []int
	// BitmapSlots lists the optional-or-default field indices in
	// declaration order, one presence bit per entry.
	BitmapSlots []int
	// Aligned inserts octet-boundary padding between components.
	Aligned bool
	// StrictOrder makes out-of-order input a decode error instead of being
	// accepted.
	StrictOrder bool
}

// SlotOf returns the bitmap slot of a field index, or -1.
func (p *EncodingPlan) SlotOf(field int) int {
	for slot, idx := range p.BitmapSlots {
		if idx == field {
			return slot
		}
	}
	return -1
}

// Build computes the encoding plan of td for one family. CHOICE types have
// no field layout of their own: the plan degenerates to declaration order
// with no presence signaling.
func Build(td *schema.TypeDefinition, tags resolve.Table, folded []constraint.Folded, family Family, r diag.Reporter) (*EncodingPlan, bool) {
	p := &EncodingPlan{Family: family}
	ok := true

	n := td.Len()
	p.Order = make([]int, n)
	for i := range p.Order {
		p.Order[i] = i
	}

	if td.Kind == schema.KindChoice {
		p.Presence = PresenceNone
		return p, true
	}

	for i := range td.Fields {
		if td.Fields[i].Presence() {
			p.BitmapSlots = append(p.BitmapSlots, i)
		}
	}

	switch {
	case family.TLV():
		p.Presence = PresenceTagAbsence
		p.BitmapSlots = nil
		if family == DER {
			if td.Kind == schema.KindSet {
				p.Order = canonicalOrder(td, tags)
			}
			p.StrictOrder = true
		}
	case family.Packed():
		p.Presence = bitmapOrNone(p.BitmapSlots)
		p.Aligned = family == APER
	case family == OER:
		p.Presence = PresenceFlags
		if len(p.BitmapSlots) == 0 {
			p.Presence = PresenceNone
		}
		p.Aligned = true
	case family == XER:
		p.Presence = PresenceTagAbsence
		p.BitmapSlots = nil
	}

	if !checkDefaults(td, folded, r) {
		ok = false
	}
	return p, ok
}

func bitmapOrNone(slots []int) PresenceStrategy {
	if len(slots) == 0 {
		return PresenceNone
	}
	return PresenceBitmap
}

// canonicalOrder sorts field indices by ascending resolved tag, class first.
// Untagged members sort last by declaration order.
func canonicalOrder(td *schema.TypeDefinition, tags resolve.Table) []int {
	order := make([]int, len(td.Fields))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := tags.Get(schema.FieldID(order[a])), tags.Get(schema.FieldID(order[b]))
		if ta.Untagged != tb.Untagged {
			return tb.Untagged
		}
		if ta.Tag.Class != tb.Tag.Class {
			return ta.Tag.Class < tb.Tag.Class
		}
		return ta.Tag.Number < tb.Tag.Number
	})
	return order
}

// checkDefaults verifies that every declared default is representable within
// the field's folded root range.
func checkDefaults(td *schema.TypeDefinition, folded []constraint.Folded, r diag.Reporter) bool {
	ok := true
	for i := range td.Fields {
		f := &td.Fields[i]
		if f.Default == nil || f.Default.Kind != schema.DefaultInt || i >= len(folded) {
			continue
		}
		b := folded[i].Value
		if (b.LoSet && f.Default.Int < b.Lo) || (b.HiSet && f.Default.Int > b.Hi) {
			diag.ReportError(r, diag.PresenceDefaultUnrepresentable, f.Span,
				fmt.Sprintf("default %d of %s.%s lies outside the constrained range %s",
					f.Default.Int, td.Name, f.Name, b))
			ok = false
		}
	}
	return ok
}
