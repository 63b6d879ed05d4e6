package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"asngen/internal/diag"
	"asngen/internal/emit"
	"asngen/internal/frontend"
	"asngen/internal/observ"
	"asngen/internal/schema"
	"asngen/internal/source"
)

// ListInputs expands files and directories into the sorted list of
// annotated-source candidates. Generated output, test files and hidden
// directories are skipped.
func ListInputs(paths []string, suffix string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path != p && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(name, ".go") ||
				strings.HasSuffix(name, "_test.go") ||
				strings.HasSuffix(name, suffix) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// parseAll loads every input sequentially (the file set is not safe for
// concurrent writes) and parses them in parallel.
func parseAll(ctx context.Context, fileSet *source.FileSet, paths []string, maxDiags, jobs int, timer *observ.Timer) ([]*unit, error) {
	phase := -1
	if timer != nil {
		phase = timer.Begin("parse")
	}

	units := make([]*unit, len(paths))
	for i, path := range paths {
		id, err := fileSet.Load(path)
		if err != nil {
			bag := diag.NewBag(maxDiags)
			diag.ReportError(diag.BagReporter{Bag: bag}, diag.IOLoadFileError, source.Span{},
				"cannot read "+path+": "+err.Error())
			units[i] = &unit{path: path, bag: bag}
			continue
		}
		units[i] = &unit{path: path, fileID: id, bag: diag.NewBag(maxDiags)}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobCount(jobs, len(paths)))
	for _, u := range units {
		if u.bag.HasErrors() {
			continue
		}
		u := u
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := frontend.ParseLoaded(fileSet, u.fileID, diag.BagReporter{Bag: u.bag})
			if err != nil {
				diag.ReportError(diag.BagReporter{Bag: u.bag}, diag.IOLoadFileError, source.Span{File: u.fileID},
					err.Error())
				return nil
			}
			u.pkg = res.Package
			u.decls = res.Decls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if timer != nil {
		timer.End(phase, pluralFiles(len(paths)))
	}
	return units, nil
}

// emitAll generates each unit's output in parallel. The registry and
// emission context are read-only at this point.
func emitAll(ctx context.Context, units []*unit, reg *schema.Registry, ectx *emit.Context, bad map[string]bool, opts Options) error {
	phase := -1
	if opts.Timer != nil {
		phase = opts.Timer.Begin("emit")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobCount(opts.Jobs, len(units)))
	for _, u := range units {
		if len(u.decls) == 0 {
			continue
		}
		u := u
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			emitFile(u, reg, ectx, bad, opts.Families)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if opts.Timer != nil {
		opts.Timer.End(phase, "")
	}
	return nil
}

func jobCount(jobs, work int) int {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if work > 0 && jobs > work {
		jobs = work
	}
	if jobs < 1 {
		jobs = 1
	}
	return jobs
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}
