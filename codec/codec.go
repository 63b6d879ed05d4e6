// Package codec declares the narrow runtime capability interfaces that
// generated encode/decode methods are written against. The generator never
// encodes or decodes data itself; a runtime library supplies implementations
// of these interfaces per encoding-rule family.
package codec

import (
	"fmt"
)

// Class is an ASN.1 tag class.
type Class uint8

const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContext
	ClassPrivate
)

func (c Class) String() string {
	switch c {
	case ClassUniversal:
		return "universal"
	case ClassApplication:
		return "application"
	case ClassContext:
		return "context"
	case ClassPrivate:
		return "private"
	}
	return "unknown"
}

// Tag is an identifying (class, number) pair.
type Tag struct {
	Class  Class
	Number uint32
}

func (t Tag) String() string {
	return fmt.Sprintf("[%s %d]", t.Class, t.Number)
}
