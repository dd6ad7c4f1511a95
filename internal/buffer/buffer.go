// Package buffer holds the in-memory side of file transactions: the
// FileBuffer a pipeline loads into or saves from, and the versioned open-files
// and recent-files registries.
//
// Registries are mutated from the main control thread only. Every structural
// change bumps a version counter so list views can tell cheaply whether they
// are stale.
package buffer

import (
	"path/filepath"
	"strings"

	"github.com/rivo/uniseg"
)

// Untitled is the display name of a buffer without a file name.
const Untitled = "(Untitled)"

// Position is a 1-based line and column.
type Position struct {
	Line   int
	Column int
}

// FileBuffer is one open document.
type FileBuffer struct {
	name      string
	encoding  string
	text      string
	bom       bool
	modified  bool
	populated bool
	hasWindow bool
	highlight string
	cursor    Position
}

// New creates an empty, unpopulated buffer.
func New(name, encoding string) *FileBuffer {
	return &FileBuffer{
		name:      name,
		encoding:  encoding,
		highlight: DetectLanguage(name),
		cursor:    Position{Line: 1, Column: 1},
	}
}

// Name returns the file name, empty for an untitled buffer.
func (b *FileBuffer) Name() string { return b.name }

// DisplayName returns the file name or Untitled.
func (b *FileBuffer) DisplayName() string {
	if b.name == "" {
		return Untitled
	}
	return b.name
}

// Encoding returns the character set tag used to read and write the file.
func (b *FileBuffer) Encoding() string { return b.encoding }

// SetEncoding changes the character set of a buffer that has not been
// populated yet. It reports whether the change was applied.
func (b *FileBuffer) SetEncoding(tag string) bool {
	if b.populated {
		return false
	}
	b.encoding = tag
	return true
}

// Text returns the buffer content.
func (b *FileBuffer) Text() string { return b.text }

// BOM reports whether the file had a byte-order mark that is written back.
func (b *FileBuffer) BOM() bool { return b.bom }

// Populate sets the loaded content. The buffer becomes unmodified.
func (b *FileBuffer) Populate(text string, bom bool) {
	b.text = text
	b.bom = bom
	b.populated = true
	b.modified = false
}

// Populated reports whether content was loaded into the buffer.
func (b *FileBuffer) Populated() bool { return b.populated }

// Edit replaces the content and marks the buffer modified.
func (b *FileBuffer) Edit(text string) {
	b.text = text
	b.modified = true
	b.populated = true
}

// Modified reports whether the buffer has unsaved changes.
func (b *FileBuffer) Modified() bool { return b.modified }

// HasWindow reports whether the buffer is shown in a window.
func (b *FileBuffer) HasWindow() bool { return b.hasWindow }

// SetWindow records whether the buffer is shown in a window.
func (b *FileBuffer) SetWindow(shown bool) { b.hasWindow = shown }

// Highlight returns the syntax classification hint.
func (b *FileBuffer) Highlight() string { return b.highlight }

// SetHighlight sets the syntax classification hint.
func (b *FileBuffer) SetHighlight(lang string) { b.highlight = lang }

// Commit records the name and encoding a save-as transaction wrote the buffer
// under, and marks it unmodified.
func (b *FileBuffer) Commit(name, encoding string) {
	b.name = name
	b.encoding = encoding
	b.modified = false
}

// Cursor returns the cursor position.
func (b *FileBuffer) Cursor() Position { return b.cursor }

// GotoPos moves the cursor to line and column, clamped to the content.
// Columns count grapheme clusters. A column below 1 means the line start.
func (b *FileBuffer) GotoPos(line, column int) {
	lines := strings.Split(b.text, "\n")
	line = min(max(line, 1), len(lines))

	width := uniseg.GraphemeClusterCount(lines[line-1])
	column = min(max(column, 1), width+1)

	b.cursor = Position{Line: line, Column: column}
}

// SamePath reports whether two file names refer to the same path after
// cleaning and making them absolute.
func SamePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return absPath(a) == absPath(b)
}

func absPath(name string) string {
	abs, err := filepath.Abs(name)
	if err != nil {
		return filepath.Clean(name)
	}
	return abs
}
