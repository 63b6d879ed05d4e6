package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"asngen/internal/driver"
	"asngen/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove the asngen generation cache",
	Long:  "Remove the disk cache asngen keeps to skip regeneration of unchanged projects.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func runClean(_ *cobra.Command, args []string) error {
	baseDir := "."
	if len(args) > 0 && args[0] != "" {
		baseDir = args[0]
	}
	cacheDir := ""
	manifest, found, err := project.Load(baseDir)
	if err != nil {
		return err
	}
	if found {
		cacheDir = manifest.Config.Cache.Dir
		if cacheDir != "" && !filepath.IsAbs(cacheDir) {
			cacheDir = filepath.Join(manifest.Root, cacheDir)
		}
	}
	cache, err := driver.OpenDiskCache("asngen", cacheDir)
	if err != nil {
		return fmt.Errorf("failed to open disk cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop cache: %w", err)
	}
	fmt.Fprintln(os.Stdout, "cache cleared")
	return nil
}
