package driver

import (
	"context"

	"asngen/internal/constraint"
	"asngen/internal/resolve"
	"asngen/internal/schema"
	"asngen/internal/source"
)

// InspectTag is the resolved tag of one member as shown by `asngen inspect`.
type InspectTag struct {
	Class    string `json:"class"`
	Number   uint32 `json:"number"`
	Mode     string `json:"mode"`
	Untagged bool   `json:"untagged,omitempty"`
}

// InspectMember describes one field or variant of a resolved definition.
type InspectMember struct {
	Name     string      `json:"name"`
	GoType   string      `json:"go_type"`
	Optional bool        `json:"optional,omitempty"`
	Default  string      `json:"default,omitempty"`
	Tag      *InspectTag `json:"tag,omitempty"`
	Value    string      `json:"value_range,omitempty"`
	Size     string      `json:"size_range,omitempty"`
	Alphabet string      `json:"alphabet,omitempty"`
}

// InspectType is the resolved view of one type definition.
type InspectType struct {
	Name       string          `json:"name"`
	Kind       string          `json:"kind"`
	Tagging    string          `json:"tagging"`
	Extensible bool            `json:"extensible,omitempty"`
	Members    []InspectMember `json:"members"`
}

// InspectOutput is the root of the inspect report.
type InspectOutput struct {
	Types []InspectType `json:"types"`
}

// Inspect runs the analysis passes without emitting code and returns the
// resolved model. Definitions that failed a pass are omitted; the
// diagnostics in the run result explain why.
func Inspect(ctx context.Context, paths []string, opts Options) (*InspectOutput, *RunResult, error) {
	fileSet := source.NewFileSet()
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = 100
	}
	units, err := parseAll(ctx, fileSet, paths, maxDiags, opts.Jobs, opts.Timer)
	if err != nil {
		return nil, nil, err
	}
	reg, byName := buildSchemas(units, opts.Timer)
	ectx, bad := resolveAll(reg, byName, units, opts.Timer)

	out := &InspectOutput{}
	for _, u := range units {
		for _, d := range u.decls {
			if bad[d.Name] {
				continue
			}
			td, ok := byName[d.Name]
			if !ok {
				continue
			}
			out.Types = append(out.Types, inspectType(td, ectx.Tables[td.Name].Tags, ectx.Folds[td.Name]))
		}
	}
	return out, assembleWith(fileSet, units, maxDiags, opts.suffix()), nil
}

func inspectType(td *schema.TypeDefinition, tags []resolve.ResolvedTag, folds []constraint.Folded) InspectType {
	it := InspectType{
		Name:       td.Name,
		Kind:       kindName(td.Kind),
		Tagging:    taggingName(td.Tagging),
		Extensible: td.Extensible,
	}
	for i := range tags {
		id := schema.FieldID(i)
		m := InspectMember{Name: td.MemberName(id)}
		var fold constraint.Folded
		if i < len(folds) {
			fold = folds[i]
		}
		if td.Kind == schema.KindChoice {
			m.GoType = td.Variants[i].Type.GoType
		} else {
			f := &td.Fields[i]
			m.GoType = f.Type.GoType
			m.Optional = f.Optional
			if f.Default != nil {
				m.Default = f.Default.Expr
			}
		}
		rt := tags[i]
		if rt.Untagged {
			m.Tag = &InspectTag{Untagged: true}
		} else {
			m.Tag = &InspectTag{
				Class:  className(rt.Tag.Class),
				Number: rt.Tag.Number,
				Mode:   modeName(rt.Mode),
			}
		}
		if fold.Value.LoSet || fold.Value.HiSet {
			m.Value = fold.Value.String()
		}
		if fold.Size.LoSet || fold.Size.HiSet {
			m.Size = fold.Size.String()
		}
		m.Alphabet = fold.Alphabet
		it.Members = append(it.Members, m)
	}
	return it
}

func kindName(k schema.Kind) string {
	switch k {
	case schema.KindSet:
		return "set"
	case schema.KindChoice:
		return "choice"
	}
	return "sequence"
}

func taggingName(e schema.TaggingEnv) string {
	switch e {
	case schema.EnvImplicit:
		return "implicit"
	case schema.EnvAutomatic:
		return "automatic"
	}
	return "explicit"
}

func className(c schema.Class) string {
	switch c {
	case schema.ClassUniversal:
		return "universal"
	case schema.ClassApplication:
		return "application"
	case schema.ClassPrivate:
		return "private"
	}
	return "context"
}

func modeName(m schema.TagMode) string {
	switch m {
	case schema.ModeImplicit:
		return "implicit"
	case schema.ModeExplicit:
		return "explicit"
	}
	return ""
}
