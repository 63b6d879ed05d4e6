package main

import (
	"testing"

	"asngen/internal/plan"
)

func TestParseFamiliesDedup(t *testing.T) {
	fams, err := parseFamilies([]string{"ber", " der ", "ber", "uper"})
	if err != nil {
		t.Fatalf("parseFamilies: %v", err)
	}
	want := []plan.Family{plan.BER, plan.DER, plan.UPER}
	if len(fams) != len(want) {
		t.Fatalf("families = %v, want %v", fams, want)
	}
	for i := range want {
		if fams[i] != want[i] {
			t.Fatalf("families = %v, want %v", fams, want)
		}
	}
}

func TestParseFamiliesUnknown(t *testing.T) {
	if _, err := parseFamilies([]string{"cer"}); err == nil {
		t.Fatal("expected an error for an unsupported family")
	}
}

func TestParseFamiliesEmpty(t *testing.T) {
	if _, err := parseFamilies([]string{" ", ""}); err == nil {
		t.Fatal("expected an error when nothing is selected")
	}
}

func TestDisplayPath(t *testing.T) {
	cases := []struct {
		path, root, want string
	}{
		{"/proj/a/x.go", "/proj", "a/x.go"},
		{"/other/x.go", "/proj", "/other/x.go"},
		{"/proj/x.go", "", "/proj/x.go"},
	}
	for _, c := range cases {
		if got := displayPath(c.path, c.root); got != c.want {
			t.Errorf("displayPath(%q, %q) = %q, want %q", c.path, c.root, got, c.want)
		}
	}
}

func TestPackageNameFrom(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"My-Project", "myproject"},
		{"42nd_street", "nd_street"},
		{"---", "types"},
	}
	for _, c := range cases {
		if got := packageNameFrom(c.in); got != c.want {
			t.Errorf("packageNameFrom(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
