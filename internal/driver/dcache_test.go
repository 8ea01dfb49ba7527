package driver

import (
	"path/filepath"
	"testing"

	"greenlens/internal/analysis"
	"greenlens/internal/messages"
	"greenlens/internal/rules"
	"greenlens/internal/source"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "c"))
	if err != nil {
		t.Fatalf("OpenDiskCacheAt: %v", err)
	}
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("index.html", []byte(headScriptPage)))
	findings := analysis.Check(file, rules.DefaultOptions())
	key := CacheKey(file, rules.DefaultOptions(), false)

	var out DiskPayload
	if hit, err := cache.Get(key, &out); err != nil || hit {
		t.Fatalf("empty cache: hit=%v err=%v", hit, err)
	}
	if err := cache.Put(key, findingsToPayload(file, findings)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	hit, err := cache.Get(key, &out)
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}

	// rebinding to a later version of the same content
	id := fs.AddVirtual("index.html", []byte(headScriptPage))
	got := payloadToFindings(&out, fs.Get(id))
	if len(got) != len(findings) || got[0].Primary.File != id {
		t.Fatalf("unexpected rebound findings: %+v", got)
	}

	other := fs.Get(fs.AddVirtual("other.html", []byte("<p></p>")))
	if payloadToFindings(&out, other) != nil {
		t.Fatal("payload must not bind to different content")
	}
}

func TestCacheKeyDependsOnOptions(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("a.html", []byte(headScriptPage)))
	base := rules.DefaultOptions()

	ko := base
	ko.Messages = messages.NewPrinter("ko")
	nesting := base
	nesting.NestingLevel = 5

	keys := map[Digest]string{}
	for name, k := range map[string]Digest{
		"base":    CacheKey(file, base, false),
		"fixes":   CacheKey(file, base, true),
		"korean":  CacheKey(file, ko, false),
		"nesting": CacheKey(file, nesting, false),
	} {
		if prev, dup := keys[k]; dup {
			t.Fatalf("%s and %s share a cache key", prev, name)
		}
		keys[k] = name
	}
	if CacheKey(file, base, false) != CacheKey(file, rules.DefaultOptions(), false) {
		t.Fatal("cache key must be stable")
	}
}

func TestNilDiskCache(t *testing.T) {
	var cache *DiskCache
	if err := cache.Put(Digest{}, &DiskPayload{}); err != nil {
		t.Fatalf("Put on nil cache: %v", err)
	}
	if hit, err := cache.Get(Digest{}, &DiskPayload{}); hit || err != nil {
		t.Fatalf("Get on nil cache: hit=%v err=%v", hit, err)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll on nil cache: %v", err)
	}
}
