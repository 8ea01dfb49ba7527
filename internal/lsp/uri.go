package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
)

// uriToPath maps a document URI to a local path. Bare paths are accepted
// as-is; URIs with any scheme other than file map to "".
func uriToPath(uri string) string {
	if uri == "" {
		return ""
	}
	if filepath.IsAbs(uri) || !strings.Contains(uri, ":") {
		return absPath(filepath.FromSlash(uri))
	}
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "file":
		// url.Parse has already unescaped Path
		return absPath(filepath.FromSlash(u.Path))
	case "":
		return absPath(filepath.FromSlash(uri))
	default:
		return ""
	}
}

func pathToURI(path string) string {
	if path == "" {
		return ""
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(absPath(path))}).String()
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// canonicalURI gives every spelling of a file URI one store key.
// untitled: and other schemes pass through untouched.
func canonicalURI(uri string) string {
	if !strings.HasPrefix(uri, "file:") {
		return uri
	}
	path := uriToPath(uri)
	if path == "" {
		return uri
	}
	return pathToURI(path)
}
