package source

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"

	"fortio.org/safecast"
)

// FileID identifies one version of a file inside a FileSet.
type FileID uint32

// FileFlags records how a file's bytes were obtained.
type FileFlags uint8

const (
	// FileVirtual marks content that did not come from disk.
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM marks a file whose UTF-8 byte order mark was stripped on load.
	FileHadBOM
	// FileNormalizedCRLF marks a file that uses "\r\n" line endings.
	FileNormalizedCRLF
)

// File is a loaded document. Content is never mutated after Add.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	// LineIdx holds the offset of every '\n' in Content, ascending.
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based line and byte column.
type LineCol struct {
	Line uint32
	Col  uint32
}

// Line0 returns the line number counted from zero.
func (lc LineCol) Line0() uint32 {
	return max(lc.Line, 1) - 1
}

// Len returns the content length.
func (f *File) Len() uint32 {
	return mustU32(len(f.Content), "content length")
}

// LineCol resolves a byte offset.
func (f *File) LineCol(off uint32) LineCol {
	// newlines strictly before off
	line := sort.Search(len(f.LineIdx), func(i int) bool { return f.LineIdx[i] >= off })
	start := f.lineStart(line)
	return LineCol{Line: mustU32(line+1, "line"), Col: off - start + 1}
}

// Resolve converts both ends of span.
func (f *File) Resolve(span Span) (start, end LineCol) {
	return f.LineCol(span.Start), f.LineCol(span.End)
}

// Text returns the bytes under span, clamped to the file.
func (f *File) Text(span Span) string {
	end := min(span.End, f.Len())
	return string(f.Content[min(span.Start, end):end])
}

// Span builds a span of this file from int offsets.
func (f *File) Span(start, end int) Span {
	return Span{File: f.ID, Start: mustU32(start, "span start"), End: mustU32(end, "span end")}
}

// GetLine returns 1-based line lineNum without its terminator, or "" when
// the file has no such line.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 || int(lineNum-1) > len(f.LineIdx) {
		return ""
	}
	start := f.lineStart(int(lineNum - 1))
	end := f.Len()
	if int(lineNum-1) < len(f.LineIdx) {
		end = f.LineIdx[lineNum-1]
	}
	if start >= f.Len() {
		return ""
	}
	line := f.Content[start:end]
	return string(bytes.TrimSuffix(line, []byte{'\r'}))
}

// lineStart is the offset where 0-based line begins.
func (f *File) lineStart(line int) uint32 {
	if line == 0 {
		return 0
	}
	return f.LineIdx[line-1] + 1
}

// FormatPath renders Path in one of the modes "absolute", "relative",
// "basename" or "auto". baseDir only matters for "relative"; empty means
// the working directory.
func (f *File) FormatPath(mode, baseDir string) string {
	var (
		out string
		err error
	)
	switch mode {
	case "absolute":
		out, err = AbsolutePath(f.Path)
	case "relative":
		out, err = RelativePath(f.Path, baseDir)
	case "basename":
		return BaseName(f.Path)
	case "auto":
		if len(f.Path) >= 40 && filepath.IsAbs(f.Path) {
			return BaseName(f.Path)
		}
		return f.Path
	default:
		return f.Path
	}
	if err != nil {
		return f.Path
	}
	return out
}

// BOM is the UTF-8 byte order mark Load strips and FileHadBOM records.
const BOM = "\xEF\xBB\xBF"

func stripBOM(content []byte) ([]byte, bool) {
	if rest, ok := bytes.CutPrefix(content, []byte(BOM)); ok {
		return rest, true
	}
	return content, false
}

func indexLines(content []byte) []uint32 {
	idx := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for off := 0; ; {
		i := bytes.IndexByte(content[off:], '\n')
		if i < 0 {
			return idx
		}
		off += i
		idx = append(idx, mustU32(off, "line offset"))
		off++
	}
}

func mustU32(n int, what string) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("%s overflow: %w", what, err))
	}
	return v
}
