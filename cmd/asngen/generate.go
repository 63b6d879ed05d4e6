package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"asngen/internal/diagfmt"
	"asngen/internal/driver"
	"asngen/internal/observ"
	"asngen/internal/plan"
	"asngen/internal/project"
)

const noManifestMessage = "no asngen.toml found\nplease specify the inputs explicitly, e.g.:\n  asngen generate path/to/types"

var generateCmd = &cobra.Command{
	Use:   "generate [flags] [path...]",
	Short: "Generate codec methods for annotated types",
	Long: `Generate encode and decode methods for every annotated type found in the
given files or directories. Without arguments the inputs come from the
[generate] section of asngen.toml, located by walking up from the current
directory.`,
	Args: cobra.ArbitraryArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("families", "", "comma-separated encoding families (ber|der|uper|aper|oer|xer)")
	generateCmd.Flags().String("suffix", "", "generated-file suffix (default from manifest)")
	generateCmd.Flags().String("format", "pretty", "diagnostic output format (pretty|json)")
	generateCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	generateCmd.Flags().Bool("no-cache", false, "disable the generation disk cache")
	generateCmd.Flags().Bool("dry-run", false, "report what would be generated without writing files")
	generateCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	generateCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	familiesFlag, err := cmd.Flags().GetString("families")
	if err != nil {
		return fmt.Errorf("failed to get families flag: %w", err)
	}
	suffixFlag, err := cmd.Flags().GetString("suffix")
	if err != nil {
		return fmt.Errorf("failed to get suffix flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	switch format {
	case "pretty", "json":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	run, err := resolveRunSetup(args, familiesFlag, suffixFlag, noCache)
	if err != nil {
		return err
	}

	inputs, err := driver.ListInputs(run.paths, run.suffix)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		if !quiet {
			fmt.Fprintln(os.Stdout, "nothing to generate")
		}
		return nil
	}

	opts := driver.Options{
		Families:       run.families,
		Suffix:         run.suffix,
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		Cache:          run.cache,
	}
	if showTimings {
		opts.Timer = observ.NewTimer()
	}

	res, err := driver.Generate(cmd.Context(), inputs, opts)
	if err != nil {
		return err
	}

	if err := renderDiagnostics(cmd, res, format, withNotes, fullPath); err != nil {
		return err
	}

	written := 0
	for _, f := range res.Files {
		if f.Source == nil {
			continue
		}
		if !dryRun {
			if err := os.WriteFile(f.OutPath, f.Source, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", f.OutPath, err)
			}
		}
		written++
		if !quiet {
			verb := "wrote"
			if dryRun {
				verb = "would write"
			}
			fmt.Fprintf(os.Stdout, "%s %s (%s)\n", verb, displayPath(f.OutPath, run.root), pluralTypes(len(f.Types)))
		}
	}
	if !quiet && written == 0 {
		fmt.Fprintln(os.Stdout, "nothing to generate")
	}
	if showTimings {
		fmt.Fprint(os.Stdout, opts.Timer.Summary())
	}

	if res.HasErrors() {
		// Suppress cobra usage output on diagnostic errors
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - diagnostics already printed
	}
	return nil
}

// runSetup is the merged result of manifest configuration and flags.
type runSetup struct {
	paths    []string
	families []plan.Family
	suffix   string
	root     string
	cache    *driver.DiskCache
}

// resolveRunSetup merges the manifest with command-line overrides. Explicit
// paths bypass the manifest's input list but still honor its other settings
// when the manifest is found.
func resolveRunSetup(args []string, familiesFlag, suffixFlag string, noCache bool) (*runSetup, error) {
	manifest, found, err := project.Load(".")
	if err != nil {
		return nil, err
	}
	if !found && len(args) == 0 {
		return nil, errors.New(noManifestMessage)
	}

	run := &runSetup{}
	famNames := []string{"ber", "der"}
	cacheEnabled := true
	cacheDir := ""
	if found {
		run.root = manifest.Root
		run.suffix = manifest.Config.Generate.Suffix
		famNames = manifest.Config.Generate.Families
		cacheEnabled = manifest.Config.Cache.Enabled
		cacheDir = manifest.Config.Cache.Dir
	}
	if run.suffix == "" {
		run.suffix = project.DefaultSuffix
	}
	if suffixFlag != "" {
		run.suffix = suffixFlag
	}
	if familiesFlag != "" {
		famNames = strings.Split(familiesFlag, ",")
	}
	run.families, err = parseFamilies(famNames)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		run.paths = args
	} else {
		for _, in := range manifest.Config.Generate.Inputs {
			run.paths = append(run.paths, filepath.Join(manifest.Root, filepath.FromSlash(in)))
		}
	}

	if cacheEnabled && !noCache {
		if cacheDir != "" && !filepath.IsAbs(cacheDir) && run.root != "" {
			cacheDir = filepath.Join(run.root, cacheDir)
		}
		cache, err := driver.OpenDiskCache("asngen", cacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open disk cache: %w", err)
		}
		run.cache = cache
	}
	return run, nil
}

func parseFamilies(names []string) ([]plan.Family, error) {
	seen := make(map[plan.Family]bool)
	var out []plan.Family
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		f, ok := plan.ParseFamily(n)
		if !ok {
			return nil, fmt.Errorf("unknown encoding family %q (supported: ber, der, uper, aper, oer, xer)", n)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no encoding families selected")
	}
	return out, nil
}

func renderDiagnostics(cmd *cobra.Command, res *driver.RunResult, format string, withNotes, fullPath bool) error {
	if res.Bag.Len() == 0 && format == "pretty" {
		return nil
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	mode, err := readColorMode(colorFlag)
	if err != nil {
		return err
	}
	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	switch format {
	case "pretty":
		diagfmt.Pretty(os.Stderr, res.Bag, res.FileSet, diagfmt.PrettyOpts{
			Color:       shouldColorize(mode),
			PathMode:    pathMode,
			ShowNotes:   withNotes,
			ShowPreview: true,
		})
	case "json":
		if err := diagfmt.WriteJSON(os.Stdout, res.Bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
		}); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}
	return nil
}

func displayPath(path, root string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func pluralTypes(n int) string {
	if n == 1 {
		return "1 type"
	}
	return fmt.Sprintf("%d types", n)
}
