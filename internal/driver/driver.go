// Package driver orchestrates the generation pipeline: parse annotated
// source, build and validate the schema model, resolve tags, fold
// constraints, plan each encoding family and emit the codec methods.
package driver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"asngen/internal/constraint"
	"asngen/internal/decl"
	"asngen/internal/diag"
	"asngen/internal/emit"
	"asngen/internal/observ"
	"asngen/internal/plan"
	"asngen/internal/project"
	"asngen/internal/resolve"
	"asngen/internal/schema"
	"asngen/internal/source"
)

// Options configures one generation run.
type Options struct {
	// Families lists the encoding-rule families to generate.
	Families []plan.Family
	// Suffix is appended to the input basename for the output path.
	Suffix string
	// MaxDiagnostics caps the per-run diagnostic count.
	MaxDiagnostics int
	// Jobs bounds parallel file processing; <=0 means GOMAXPROCS.
	Jobs int
	// Cache, when non-nil, short-circuits regeneration of unchanged runs.
	Cache *DiskCache
	// Timer, when non-nil, records phase durations.
	Timer *observ.Timer
}

func (o *Options) suffix() string {
	if o.Suffix == "" {
		return project.DefaultSuffix
	}
	return o.Suffix
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Path     string
	FileID   source.FileID
	OutPath  string
	Source   []byte // nil when the file produced nothing
	Types    []string
	Bag      *diag.Bag
	CacheHit bool
}

// RunResult is the outcome of one generation run.
type RunResult struct {
	FileSet *source.FileSet
	Files   []FileResult
	// Bag merges every file's diagnostics, sorted and deduplicated.
	Bag *diag.Bag
}

// HasErrors reports whether any file produced an error diagnostic.
func (r *RunResult) HasErrors() bool {
	return r.Bag.HasErrors()
}

// unit carries one file through the pipeline phases.
type unit struct {
	path   string
	fileID source.FileID
	pkg    string
	decls  []*decl.TypeDecl
	bag    *diag.Bag
	out    []byte
	types  []string
	hit    bool
}

// Generate runs the whole pipeline over the given input files. Types may
// reference each other across files within one run; tag resolution and
// emission see the complete registry.
func Generate(ctx context.Context, paths []string, opts Options) (*RunResult, error) {
	fileSet := source.NewFileSet()
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = 100
	}

	units, err := parseAll(ctx, fileSet, paths, maxDiags, opts.Jobs, opts.Timer)
	if err != nil {
		return nil, err
	}

	runKey := runFingerprint(fileSet, units, opts)
	if tryCache(units, runKey, opts) {
		return assembleWith(fileSet, units, maxDiags, opts.suffix()), nil
	}

	reg, byName := buildSchemas(units, opts.Timer)
	ectx, bad := resolveAll(reg, byName, units, opts.Timer)

	if err := emitAll(ctx, units, reg, ectx, bad, opts); err != nil {
		return nil, err
	}

	storeCache(units, runKey, opts)
	return assembleWith(fileSet, units, maxDiags, opts.suffix()), nil
}

// buildSchemas registers every declaration name first, so forward and cyclic
// references resolve, then builds the definitions in order.
func buildSchemas(units []*unit, timer *observ.Timer) (*schema.Registry, map[string]*schema.TypeDefinition) {
	phase := -1
	if timer != nil {
		phase = timer.Begin("schema")
	}
	reg := schema.NewRegistry()
	for _, u := range units {
		for _, d := range u.decls {
			reg.Begin(d.Name)
		}
	}
	byName := make(map[string]*schema.TypeDefinition)
	count := 0
	for _, u := range units {
		rep := diag.BagReporter{Bag: u.bag}
		for _, d := range u.decls {
			td, ok := schema.Build(d, reg, rep)
			reg.Finish(td)
			if ok {
				byName[td.Name] = td
				count++
			}
		}
	}
	if timer != nil {
		timer.End(phase, pluralTypes(count))
	}
	return reg, byName
}

// resolveAll computes tags and folded constraints for every well-formed
// definition and collects the names that failed any pass.
func resolveAll(reg *schema.Registry, byName map[string]*schema.TypeDefinition, units []*unit, timer *observ.Timer) (*emit.Context, map[string]bool) {
	phase := -1
	if timer != nil {
		phase = timer.Begin("resolve")
	}
	ectx := emit.NewContext(reg)
	bad := make(map[string]bool)
	for _, u := range units {
		rep := diag.BagReporter{Bag: u.bag}
		for _, d := range u.decls {
			td, ok := byName[d.Name]
			if !ok {
				bad[d.Name] = true
				continue
			}
			table, tagsOK := resolve.Tags(td, reg, rep)
			folded, foldOK := foldAll(td, rep)
			ectx.Tables[td.Name] = table
			ectx.Folds[td.Name] = folded
			if !tagsOK || !foldOK {
				bad[td.Name] = true
			}
		}
	}
	if timer != nil {
		timer.End(phase, "")
	}
	return ectx, bad
}

func foldAll(td *schema.TypeDefinition, rep diag.Reporter) ([]constraint.Folded, bool) {
	ok := true
	out := make([]constraint.Folded, td.Len())
	for i := range out {
		var cs schema.ConstraintSet
		if td.Kind == schema.KindChoice {
			cs = td.Variants[i].Constraints
		} else {
			cs = td.Fields[i].Constraints
		}
		f, fOK := constraint.Evaluate(cs, td.Site(schema.FieldID(i)), rep)
		if !fOK {
			ok = false
		}
		out[i] = f
	}
	return out, ok
}

// emitFile generates the output source of one unit. A type that fails any
// family's plan is withheld entirely; a type a single family cannot
// represent is withheld for that family only.
func emitFile(u *unit, reg *schema.Registry, ectx *emit.Context, bad map[string]bool, families []plan.Family) {
	rep := diag.BagReporter{Bag: u.bag}
	file := emit.NewGoFile(u.pkg)
	emitted := 0
	for _, d := range u.decls {
		if bad[d.Name] {
			continue
		}
		td, ok := reg.Lookup(d.Name)
		if !ok {
			continue
		}
		table := ectx.Tables[d.Name]
		folded := ectx.Folds[d.Name]

		plans := make([]*plan.EncodingPlan, 0, len(families))
		plansOK := true
		for _, fam := range families {
			p, ok := plan.Build(td, table, folded, fam, rep)
			if !ok {
				plansOK = false
			}
			plans = append(plans, p)
		}
		if !plansOK {
			continue
		}

		typeEmitted := false
		for _, p := range plans {
			if emit.EmitType(file, ectx, td, table, folded, p, rep) {
				typeEmitted = true
			}
		}
		if typeEmitted {
			u.types = append(u.types, td.Name)
			emitted++
		}
	}
	if emitted > 0 {
		u.out = file.Bytes()
	}
}

// runFingerprint keys the cache on every input's content plus the options
// that shape the output. Cross-file references make any content change
// invalidate the whole run.
func runFingerprint(fileSet *source.FileSet, units []*unit, opts Options) project.Digest {
	parts := make([][]byte, 0, len(units)+2)
	hashes := make([]string, 0, len(units))
	for _, u := range units {
		f := fileSet.Get(u.fileID)
		hashes = append(hashes, u.path+":"+project.Digest(f.Hash).String())
	}
	sort.Strings(hashes)
	for _, h := range hashes {
		parts = append(parts, []byte(h))
	}
	fams := make([]string, len(opts.Families))
	for i, f := range opts.Families {
		fams[i] = f.String()
	}
	parts = append(parts, []byte(strings.Join(fams, ",")), []byte(opts.suffix()))
	return project.HashParts(parts...)
}

func tryCache(units []*unit, key project.Digest, opts Options) bool {
	if opts.Cache == nil {
		return false
	}
	var payload DiskPayload
	hit, err := opts.Cache.Get(key, &payload)
	if err != nil || !hit || len(payload.Files) != len(units) {
		return false
	}
	byPath := make(map[string]*CachedFile, len(payload.Files))
	for i := range payload.Files {
		byPath[payload.Files[i].Path] = &payload.Files[i]
	}
	for _, u := range units {
		if _, ok := byPath[u.path]; !ok {
			return false
		}
	}
	for _, u := range units {
		cf := byPath[u.path]
		u.out = cf.Source
		u.types = cf.Types
		u.hit = true
	}
	return true
}

func storeCache(units []*unit, key project.Digest, opts Options) {
	if opts.Cache == nil {
		return
	}
	for _, u := range units {
		// diagnostics are not cached; a run that produced any is rebuilt
		// next time so they surface again
		if u.bag.Len() > 0 {
			return
		}
	}
	payload := DiskPayload{Schema: diskCacheSchemaVersion}
	for _, u := range units {
		payload.Files = append(payload.Files, CachedFile{
			Path:   u.path,
			Source: u.out,
			Types:  u.types,
		})
	}
	// best effort: a failed write only costs a rebuild
	_ = opts.Cache.Put(key, &payload)
}

func assembleWith(fileSet *source.FileSet, units []*unit, maxDiags int, suffix string) *RunResult {
	res := &RunResult{FileSet: fileSet, Bag: diag.NewBag(maxDiags)}
	for _, u := range units {
		outPath := ""
		if u.out != nil && strings.HasSuffix(u.path, ".go") {
			outPath = strings.TrimSuffix(u.path, ".go") + suffix
		}
		res.Files = append(res.Files, FileResult{
			Path:     u.path,
			FileID:   u.fileID,
			OutPath:  outPath,
			Source:   u.out,
			Types:    u.types,
			Bag:      u.bag,
			CacheHit: u.hit,
		})
		res.Bag.Merge(u.bag)
	}
	res.Bag.Sort()
	res.Bag.Dedup()
	return res
}

func pluralTypes(n int) string {
	if n == 1 {
		return "1 type"
	}
	return fmt.Sprintf("%d types", n)
}
