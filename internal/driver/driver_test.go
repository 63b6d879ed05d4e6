package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"asngen/internal/diag"
	"asngen/internal/observ"
	"asngen/internal/plan"
)

const msgSrc = `package msg

type Ping struct {
	Seq     int    ` + "`asn1:\"tag:0,value:0..255\"`" + `
	Payload []byte ` + "`asn1:\"tag:1\"`" + `
}
`

func writeInput(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestGenerateProducesOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "msg.go", msgSrc)

	res, err := Generate(context.Background(), []string{path}, Options{
		Families: []plan.Family{plan.BER, plan.UPER},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	if len(res.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(res.Files))
	}

	f := res.Files[0]
	if f.OutPath != filepath.Join(dir, "msg_asn1.gen.go") {
		t.Errorf("out path = %q", f.OutPath)
	}
	if len(f.Types) != 1 || f.Types[0] != "Ping" {
		t.Errorf("types = %v, want [Ping]", f.Types)
	}
	src := string(f.Source)
	for _, want := range []string{
		"// Code generated by asngen. DO NOT EDIT.",
		"package msg",
		"func (v *Ping) EncodeBER(w codec.Writer) error {",
		"func (v *Ping) EncodeUPER(w codec.BitWriter) error {",
		"func (v *Ping) DecodeUPER(r codec.BitReader) error {",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestGenerateCrossFileReference(t *testing.T) {
	dir := t.TempDir()
	inner := writeInput(t, dir, "inner.go", `package msg

type Inner struct {
	N int ` + "`asn1:\"tag:0\"`" + `
}
`)
	outer := writeInput(t, dir, "outer.go", `package msg

type Outer struct {
	In Inner ` + "`asn1:\"tag:1,implicit\"`" + `
}
`)

	res, err := Generate(context.Background(), []string{inner, outer}, Options{
		Families: []plan.Family{plan.BER},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	var outerOut string
	for _, f := range res.Files {
		if strings.HasSuffix(f.Path, "outer.go") {
			outerOut = string(f.Source)
		}
	}
	if !strings.Contains(outerOut, "v.In.encodeBERFields(w)") {
		t.Fatalf("cross-file implicit retag missing:\n%s", outerOut)
	}
}

func TestGenerateBadTypeWithheld(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "mix.go", `package msg

type Good struct {
	N int ` + "`asn1:\"tag:0\"`" + `
}

type Bad struct {
	A *int ` + "`asn1:\"tag:3\"`" + `
	B int  ` + "`asn1:\"tag:3\"`" + `
}
`)

	res, err := Generate(context.Background(), []string{path}, Options{
		Families: []plan.Family{plan.DER},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.HasErrors() {
		t.Fatal("expected a tag collision diagnostic")
	}
	f := res.Files[0]
	if len(f.Types) != 1 || f.Types[0] != "Good" {
		t.Fatalf("types = %v, want only Good", f.Types)
	}
	if strings.Contains(string(f.Source), "Bad") {
		t.Fatalf("failing type must be withheld:\n%s", f.Source)
	}
	if got := firstErrorCode(res.Bag); got != diag.TagCollision {
		t.Fatalf("code = %s, want %s", got.ID(), diag.TagCollision.ID())
	}
}

func TestGenerateTimerPhases(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "msg.go", msgSrc)
	timer := observ.NewTimer()

	_, err := Generate(context.Background(), []string{path}, Options{
		Families: []plan.Family{plan.BER},
		Timer:    timer,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	report := timer.Report()
	names := make([]string, len(report.Phases))
	for i, p := range report.Phases {
		names[i] = p.Name
	}
	want := []string{"parse", "schema", "resolve", "emit"}
	if len(names) != len(want) {
		t.Fatalf("phases = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("phases = %v, want %v", names, want)
		}
	}
}

func TestParallelDiagnosticsMatchSerial(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 4; i++ {
		writeInput(t, dir, fmt.Sprintf("m%d.go", i), fmt.Sprintf(`package msg

type Bad%d struct {
	A *int `+"`asn1:\"tag:1\"`"+`
	B int  `+"`asn1:\"tag:1\"`"+`
}
`, i))
	}
	paths, err := ListInputs([]string{dir}, "_asn1.gen.go")
	if err != nil {
		t.Fatalf("ListInputs: %v", err)
	}

	serial, err := Generate(context.Background(), paths, Options{
		Families: []plan.Family{plan.BER}, Jobs: 1,
	})
	if err != nil {
		t.Fatalf("serial run: %v", err)
	}
	parallel, err := Generate(context.Background(), paths, Options{
		Families: []plan.Family{plan.BER}, Jobs: 4,
	})
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}

	want := diag.FormatGolden(serial.Bag.Items(), serial.FileSet, true)
	got := diag.FormatGolden(parallel.Bag.Items(), parallel.FileSet, true)
	if want == "" {
		t.Fatal("fixture must produce diagnostics")
	}
	if got != want {
		t.Fatalf("parallel diagnostics diverge from serial:\n%s\nwant:\n%s", got, want)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "msg.go", msgSrc)
	cache, err := OpenDiskCache("asngen-test", filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	opts := Options{Families: []plan.Family{plan.BER}, Cache: cache}

	first, err := Generate(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Files[0].CacheHit {
		t.Fatal("first run must not hit the cache")
	}

	second, err := Generate(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Files[0].CacheHit {
		t.Fatal("second run should hit the cache")
	}
	if string(first.Files[0].Source) != string(second.Files[0].Source) {
		t.Fatal("cached output differs from generated output")
	}

	// content change invalidates the run key
	writeInput(t, dir, "msg.go", msgSrc+"\n// touched\n")
	third, err := Generate(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.Files[0].CacheHit {
		t.Fatal("changed input must miss the cache")
	}
}

func TestListInputsFilters(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "a.go", "package p\n")
	writeInput(t, dir, "a_test.go", "package p\n")
	writeInput(t, dir, "a_asn1.gen.go", "package p\n")
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeInput(t, sub, "b.go", "package p\n")
	hidden := filepath.Join(dir, ".git")
	if err := os.MkdirAll(hidden, 0o755); err != nil {
		t.Fatal(err)
	}
	writeInput(t, hidden, "c.go", "package p\n")

	files, err := ListInputs([]string{dir}, "_asn1.gen.go")
	if err != nil {
		t.Fatalf("ListInputs: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want a.go and nested/b.go", files)
	}
	if !strings.HasSuffix(files[0], "a.go") || !strings.HasSuffix(files[1], filepath.Join("nested", "b.go")) {
		t.Fatalf("files = %v", files)
	}
}

func TestInspectResolvedModel(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "msg.go", `package msg

// asn1:automatic
type Person struct {
	Name string ` + "`asn1:\"size:1..64\"`" + `
	Age  *int   ` + "`asn1:\"value:0..150\"`" + `
}
`)

	out, res, err := Inspect(context.Background(), []string{path}, Options{})
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if res.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	if len(out.Types) != 1 {
		t.Fatalf("types = %d, want 1", len(out.Types))
	}
	ty := out.Types[0]
	if ty.Name != "Person" || ty.Kind != "sequence" || ty.Tagging != "automatic" {
		t.Fatalf("type = %+v", ty)
	}
	if len(ty.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(ty.Members))
	}
	name := ty.Members[0]
	if name.Tag == nil || name.Tag.Class != "context" || name.Tag.Number != 0 || name.Tag.Mode != "implicit" {
		t.Fatalf("automatic tag of first member = %+v", name.Tag)
	}
	if name.Size != "[1..64]" {
		t.Fatalf("size range = %q", name.Size)
	}
	age := ty.Members[1]
	if !age.Optional || age.Value != "[0..150]" {
		t.Fatalf("second member = %+v", age)
	}
}

func firstErrorCode(bag *diag.Bag) diag.Code {
	for _, d := range bag.Items() {
		if d.Severity == diag.SevError {
			return d.Code
		}
	}
	return 0
}
