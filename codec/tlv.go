package codec

// Writer is the tag-length-value writing capability. WriteTagged frames the
// payload produced by the callback under the given tag; nesting builds
// constructed values.
type Writer interface {
	WriteTagged(tag Tag, payload func(Writer) error) error
	WriteBool(v bool) error
	WriteInt(v int64) error
	WriteBytes(v []byte) error
	WriteString(v string) error
	WriteNull() error
	WriteReal(v float64) error
}

// Reader is the tag-length-value reading capability. PeekTag returns the
// next component's tag without consuming it, or ErrEndOfContents at the end
// of the enclosing constructed value.
type Reader interface {
	PeekTag() (Tag, error)
	ReadTagged(tag Tag, payload func(Reader) error) error
	ReadBool() (bool, error)
	ReadInt() (int64, error)
	ReadBytes() ([]byte, error)
	ReadString() (string, error)
	ReadNull() error
	ReadReal() (float64, error)
	// Skip consumes the next component unexamined; decode paths use it for
	// unknown-but-ignorable components of extensible types.
	Skip() error
}
