package codec

import "testing"

func TestDecodeErrorMessage(t *testing.T) {
	err := NewDecodeError(ErrTruncated, "Person.Name: missing required component")
	want := "truncated input: Person.Name: missing required component"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestDecodeErrorBareCode(t *testing.T) {
	err := &DecodeError{Code: ErrOutOfOrder}
	if got := err.Error(); got != "out-of-order component" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestTagString(t *testing.T) {
	tag := Tag{Class: ClassContext, Number: 3}
	if got := tag.String(); got != "[context 3]" {
		t.Fatalf("String() = %q", got)
	}
}
