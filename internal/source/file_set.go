package source

import (
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet manages the design files seen by a compiler session and
// resolves spans to line/column positions.
type FileSet struct {
	files []File
	index map[string]FileID
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// Add stores a file and returns its new FileID. A path may be added
// more than once; the index always points at the latest version.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	lenFiles, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    path,
		Content: content,
		LineIdx: buildLineIndex(content),
		Flags:   flags,
	})
	fs.index[path] = id
	return id
}

// Load reads a file from disk and calls Add.
func (fs *FileSet) Load(path string) (FileID, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fs.Add(path, content, 0), nil
}

// AddVirtual adds an in-memory file (tests, generated units).
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Get returns the file metadata for the given ID.
func (fs *FileSet) Get(id FileID) *File {
	return &fs.files[id]
}

// GetLatest returns the latest file ID for the given path, if any.
func (fs *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fs.index[path]
	return id, ok
}

// Resolve converts a span into start and end line/column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Position renders a span start as "path:line:col".
func (fs *FileSet) Position(span Span) string {
	if int(span.File) >= len(fs.files) {
		return "?"
	}
	f := fs.files[span.File]
	lc := toLineCol(f.LineIdx, span.Start)
	return fmt.Sprintf("%s:%d:%d", f.Path, lc.Line, lc.Col)
}

// buildLineIndex records the byte offset of each '\n'.
func buildLineIndex(content []byte) []uint32 {
	idx := make([]uint32, 0, 64)
	for i, b := range content {
		if b == '\n' {
			idx = append(idx, uint32(i))
		}
	}
	return idx
}

func toLineCol(lineIdx []uint32, offset uint32) LineCol {
	line := uint32(1)
	start := uint32(0)
	for _, nl := range lineIdx {
		if offset <= nl {
			break
		}
		line++
		start = nl + 1
	}
	return LineCol{Line: line, Col: offset - start + 1}
}
