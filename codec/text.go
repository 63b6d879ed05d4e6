package codec

// TextWriter is the markup writing capability for the text family. Element
// names derive from field identifiers.
type TextWriter interface {
	WriteElement(name string, payload func(TextWriter) error) error
	WriteText(v string) error
	WriteBoolText(v bool) error
	WriteIntText(v int64) error
	WriteBytesText(v []byte) error
	WriteRealText(v float64) error
}

// TextReader mirrors TextWriter. PeekElement returns the next child element
// name without consuming it, or ErrEndOfContents when the parent closes;
// decode is tolerant of attribute ordering by construction.
type TextReader interface {
	PeekElement() (string, error)
	ReadElement(name string, payload func(TextReader) error) error
	ReadText() (string, error)
	ReadBoolText() (bool, error)
	ReadIntText() (int64, error)
	ReadBytesText() ([]byte, error)
	ReadRealText() (float64, error)
	// SkipElement consumes the next child element unexamined.
	SkipElement() error
}
