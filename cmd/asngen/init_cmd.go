package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"asngen/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new asngen project",
	Long: `Initialize a new asngen project by creating a project manifest (asngen.toml)
and an annotated example file (types.go). If [path|name] is omitted, initializes
the current directory. If a non-existing name is provided, a directory will be
created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else {
		arg := args[0]
		if !filepath.IsAbs(arg) {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			target = filepath.Join(wd, arg)
		} else {
			target = arg
		}
	}

	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "asngen-project"
	}

	manifestPath := filepath.Join(target, "asngen.toml")
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}

	if err := os.WriteFile(manifestPath, []byte(project.DefaultManifest(name)), os.FileMode(0o600)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	typesPath := filepath.Join(target, "types.go")
	createdTypes := false
	if _, err := os.Stat(typesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(typesPath, []byte(defaultTypesGo(name)), 0o600); err != nil {
			return fmt.Errorf("failed to write types.go: %w", err)
		}
		createdTypes = true
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, target); err2 == nil {
			rel = r
		}
	}
	fmt.Fprintf(os.Stdout, "Initialized asngen project in %s\n", rel)
	fmt.Fprintf(os.Stdout, "  - asngen.toml\n")
	if createdTypes {
		fmt.Fprintf(os.Stdout, "  - types.go\n")
	} else {
		fmt.Fprintf(os.Stdout, "  - types.go (existing)\n")
	}
	return nil
}

// defaultTypesGo returns the annotated example written on init. It shows the
// tag, constraint and directive syntax in one small message.
func defaultTypesGo(name string) string {
	pkg := packageNameFrom(name)
	return fmt.Sprintf(`package %s

// Message is an annotated example. Run "asngen generate" to produce its
// codec methods, or "asngen inspect" to see the resolved layout.
//
// asn1:extensible
type Message struct {
	ID      int    `+"`asn1:\"tag:0,value:0..65535\"`"+`
	Body    string `+"`asn1:\"tag:1,size:1..256\"`"+`
	Urgent  *bool  `+"`asn1:\"tag:2\"`"+`
	Retries int    `+"`asn1:\"tag:3,default:3,value:0..10\"`"+`
}
`, pkg)
}

// packageNameFrom lowercases the project name and strips everything a Go
// package identifier cannot carry.
func packageNameFrom(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if b.Len() > 0 {
				b.WriteRune(r)
			}
		}
	}
	if b.Len() == 0 {
		return "types"
	}
	return b.String()
}
