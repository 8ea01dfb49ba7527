package diagfmt

import (
	"fmt"
	"slices"
	"strings"

	"greenlens/internal/source"
)

// PathMode selects how file paths are printed.
type PathMode uint8

const (
	// PathModeAuto prints short paths as given and long absolute ones by
	// base name.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

var pathModeNames = []string{"auto", "absolute", "relative", "basename"}

func (m PathMode) String() string {
	if int(m) < len(pathModeNames) {
		return pathModeNames[m]
	}
	return "auto"
}

// ParsePathMode accepts the names printed by String; empty means auto.
func ParsePathMode(s string) (PathMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PathModeAuto, nil
	}
	if i := slices.Index(pathModeNames, s); i >= 0 {
		return PathMode(i), nil
	}
	return PathModeAuto, fmt.Errorf("unknown path mode %q (want one of %s)", s, strings.Join(pathModeNames, ", "))
}

// PrettyOpts configures the human readable renderer.
type PrettyOpts struct {
	Color    bool
	Context  int8 // source lines shown around the finding
	PathMode PathMode
	Width    uint8 // truncate source lines wider than this; 0 disables

	ShowNotes   bool
	ShowFixes   bool
	ShowPreview bool
}

// JSONOpts configures the JSON and msgpack renderers.
type JSONOpts struct {
	PathMode         PathMode
	Max              int // caps the printed findings, the bag is untouched
	IncludePositions bool
	IncludeNotes     bool
	IncludeFixes     bool
	IncludePreviews  bool
}

// SarifRunMeta describes the tool invocation recorded in a SARIF run.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}

func formatPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	if f == nil {
		return ""
	}
	base := ""
	if mode == PathModeRelative {
		base = fs.BaseDir()
	}
	return f.FormatPath(mode.String(), base)
}
