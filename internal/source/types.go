package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual marks files that were not loaded from disk (stdin, tests).
	FileVirtual FileFlags = 1 << iota
)

// File stores the content and derived metadata of one input source file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // byte offsets of '\n' for line/column resolution
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based line/column pair.
type LineCol struct {
	Line uint32
	Col  uint32
}
