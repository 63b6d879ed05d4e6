package codec

// BitWriter is the bit-packed writing capability shared by the aligned and
// unaligned packed families and the octet-aligned family.
type BitWriter interface {
	// WriteBit appends one presence or extension bit.
	WriteBit(v bool) error
	// WriteBits appends value in exactly width bits, most significant first.
	WriteBits(width int, value uint64) error
	// WriteRawBytes appends bytes with no length determinant; the count is
	// recoverable from a constraint-derived width.
	WriteRawBytes(v []byte) error
	// WriteLengthPrefixed appends a length determinant followed by raw
	// bytes, for unbounded fragments.
	WriteLengthPrefixed(v []byte) error
	// WriteUnconstrainedInt appends a self-delimited integer, used for
	// values outside any folded root range.
	WriteUnconstrainedInt(v int64) error
	// Align pads to the next octet boundary (aligned variants only).
	Align() error
}

// BitReader mirrors BitWriter for decoding.
type BitReader interface {
	ReadBit() (bool, error)
	ReadBits(width int) (uint64, error)
	ReadRawBytes(n int) ([]byte, error)
	ReadLengthPrefixed() ([]byte, error)
	ReadUnconstrainedInt() (int64, error)
	Align() error
}
