package source

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"
)

// FileSet owns every file a run has seen. Adding a path again creates a new
// version; older versions stay addressable by their FileID.
type FileSet struct {
	files   []File
	latest  map[string]FileID
	baseDir string
}

// NewFileSet returns an empty set that renders paths against the working
// directory.
func NewFileSet() *FileSet {
	return NewFileSetWithBase("")
}

// NewFileSetWithBase returns an empty set that renders relative paths
// against baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	return &FileSet{latest: make(map[string]FileID), baseDir: baseDir}
}

// SetBaseDir changes the directory relative paths are rendered against.
func (fs *FileSet) SetBaseDir(dir string) { fs.baseDir = dir }

// BaseDir returns the configured base, or the working directory when unset.
func (fs *FileSet) BaseDir() string {
	if fs.baseDir != "" {
		return fs.baseDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

// Len counts stored versions, superseded ones included.
func (fs *FileSet) Len() int { return len(fs.files) }

// Add stores content under path and returns the new version's ID.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	key := normalizePath(path)
	id := FileID(mustU32(len(fs.files), "file count"))
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    key,
		Content: content,
		LineIdx: indexLines(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.latest[key] = id
	return id
}

// AddVirtual stores an in-memory document.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Load reads path from disk and strips a leading BOM, recording it in
// FileHadBOM so writers can restore it. Line endings are kept so that fixes
// write back byte for byte.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- callers choose the path
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, hadBOM := stripBOM(raw)
	var flags FileFlags
	if hadBOM {
		flags |= FileHadBOM
	}
	if bytes.Contains(content, []byte("\r\n")) {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

// Get returns the file with id, or nil.
func (fs *FileSet) Get(id FileID) *File {
	if int(id) < len(fs.files) {
		return &fs.files[id]
	}
	return nil
}

// Latest returns the newest version stored for path.
func (fs *FileSet) Latest(path string) (FileID, bool) {
	id, ok := fs.latest[normalizePath(path)]
	return id, ok
}

// Resolve converts span into line and column positions; unknown files
// resolve to zero values.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	if f := fs.Get(span.File); f != nil {
		return f.Resolve(span)
	}
	return LineCol{}, LineCol{}
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
