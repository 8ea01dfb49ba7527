package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"greenlens/internal/diag"
	"greenlens/internal/messages"
	"greenlens/internal/rules"
	"greenlens/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 2

// Digest is a SHA-256 cache key.
type Digest [32]byte

// DiskCache stores the findings of earlier passes keyed by file content and
// rule options. Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached result of one file pass.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Path        string
	ContentHash Digest
	Findings    []diag.Diagnostic
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt opens a disk cache rooted at dir.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "findings", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			slog.Debug("cache: failed to remove temp file", "path", tmp, "err", rmErr)
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(tmp, p)
}

// Get reads and deserializes a payload from the disk cache. Payloads written
// with another schema version count as a miss.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = f.Close() }()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	if out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// CacheKey derives the key for a file pass: H(content || options).
func CacheKey(file *source.File, opts rules.Options, withFixes bool) Digest {
	h := sha256.New()
	_, _ = h.Write(file.Hash[:])
	_, _ = h.Write([]byte(optionsFingerprint(opts, withFixes)))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func optionsFingerprint(opts rules.Options, withFixes bool) string {
	disabled := make([]int, 0, len(opts.Disabled))
	for code, off := range opts.Disabled {
		if off {
			disabled = append(disabled, int(code))
		}
	}
	slices.Sort(disabled)
	p := opts.Messages
	if p == nil {
		p = messages.Default()
	}
	return fmt.Sprintf("schema=%d early=%d nesting=%d pos=%s disabled=%v lang=%s fixes=%t",
		diskCacheSchemaVersion, opts.EarlyBodyLine, opts.NestingLevel, opts.Positions,
		disabled, p.Language(), withFixes)
}

// findingsToPayload stores findings without their file identity.
func findingsToPayload(file *source.File, findings []diag.Diagnostic) *DiskPayload {
	return &DiskPayload{
		Schema:      diskCacheSchemaVersion,
		Path:        file.Path,
		ContentHash: Digest(file.Hash),
		Findings:    findings,
	}
}

// payloadToFindings rebinds cached findings to file.
func payloadToFindings(payload *DiskPayload, file *source.File) []diag.Diagnostic {
	if payload == nil || payload.Schema != diskCacheSchemaVersion || payload.ContentHash != Digest(file.Hash) {
		return nil
	}
	out := make([]diag.Diagnostic, len(payload.Findings))
	for i, d := range payload.Findings {
		d.Primary.File = file.ID
		if len(d.Notes) > 0 {
			notes := make([]diag.Note, len(d.Notes))
			for j, n := range d.Notes {
				n.Span.File = file.ID
				notes[j] = n
			}
			d.Notes = notes
		}
		if len(d.Fixes) > 0 {
			fixes := make([]diag.Fix, len(d.Fixes))
			for j, f := range d.Fixes {
				edits := make([]diag.TextEdit, len(f.Edits))
				for k, e := range f.Edits {
					e.Span.File = file.ID
					edits[k] = e
				}
				f.Edits = edits
				fixes[j] = f
			}
			d.Fixes = fixes
		}
		out[i] = d
	}
	return out
}
