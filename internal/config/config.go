// Package config loads the project configuration file .greenlens.toml.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"

	"greenlens/internal/diag"
	"greenlens/internal/messages"
	"greenlens/internal/rules"
)

// FileName is the name searched for by Find.
const FileName = ".greenlens.toml"

// ErrNotFound is returned by Find when no configuration file exists.
var ErrNotFound = errors.New("no " + FileName + " found")

// Formats accepted by [output].format.
var Formats = []string{"pretty", "short", "json", "sarif", "msgpack"}

// ProgressModes accepted by [output].progress and `check --ui`.
var ProgressModes = []string{"auto", "on", "off"}

type Config struct {
	// Positions selects the position mode: source, search or ordered.
	Positions  string          `toml:"positions"`
	Rules      map[string]bool `toml:"rules"`
	Thresholds Thresholds      `toml:"thresholds"`
	Scan       Scan            `toml:"scan"`
	Output     Output          `toml:"output"`
	LSP        LSP             `toml:"lsp"`
}

type Thresholds struct {
	EarlyBodyLine int `toml:"early_body_line"`
	NestingLevel  int `toml:"nesting_level"`
}

type Scan struct {
	Extensions []string `toml:"extensions"`
	Exclude    []string `toml:"exclude"`
}

type Output struct {
	Format string `toml:"format"`
	Locale string `toml:"locale"`

	// Progress controls the progress view of directory checks.
	Progress string `toml:"progress"`
}

type LSP struct {
	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`
}

func Default() Config {
	ruleSet := make(map[string]bool)
	for _, code := range diag.Rules() {
		ruleSet[code.String()] = true
	}
	return Config{
		Positions: rules.PositionsSource.String(),
		Rules:     ruleSet,
		Thresholds: Thresholds{
			EarlyBodyLine: rules.DefaultEarlyBodyLine,
			NestingLevel:  rules.DefaultNestingLevel,
		},
		Scan: Scan{
			Extensions: []string{".html", ".htm"},
			Exclude:    []string{"node_modules", ".git"},
		},
		Output: Output{
			Format:   "pretty",
			Locale:   "en",
			Progress: "auto",
		},
		LSP: LSP{
			LogLevel: "info",
		},
	}
}

// Find walks upward from startDir looking for FileName.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrNotFound
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a configuration document over the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	meta, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Discover finds and loads the configuration for startDir. Without a file
// it returns the defaults and an empty path.
func Discover(startDir string) (Config, string, error) {
	path, err := Find(startDir)
	if errors.Is(err, ErrNotFound) {
		return Default(), "", nil
	}
	if err != nil {
		return Config{}, "", err
	}
	cfg, err := Load(path)
	if err != nil {
		return Config{}, path, err
	}
	return cfg, path, nil
}

func (c Config) Validate() error {
	if _, err := rules.ParsePositionMode(c.Positions); err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	for name := range c.Rules {
		if _, ok := diag.ParseRule(name); !ok {
			return fmt.Errorf("[rules]: unknown rule %q", name)
		}
	}
	if c.Thresholds.EarlyBodyLine < 0 {
		return fmt.Errorf("[thresholds].early_body_line must not be negative, got %d", c.Thresholds.EarlyBodyLine)
	}
	if c.Thresholds.NestingLevel <= 0 {
		return fmt.Errorf("[thresholds].nesting_level must be positive, got %d", c.Thresholds.NestingLevel)
	}
	if c.Output.Format != "" && !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("[output].format: unsupported format %q", c.Output.Format)
	}
	if c.Output.Progress != "" && !slices.Contains(ProgressModes, c.Output.Progress) {
		return fmt.Errorf("[output].progress: expected one of %s, got %q", strings.Join(ProgressModes, ", "), c.Output.Progress)
	}
	if c.Output.Locale != "" {
		if _, err := language.Parse(c.Output.Locale); err != nil {
			return fmt.Errorf("[output].locale: %w", err)
		}
	}
	return nil
}

// RuleOptions converts the configuration into rule options. p may be nil
// to select the printer for [output].locale.
func (c Config) RuleOptions(p *messages.Printer) (rules.Options, error) {
	mode, err := rules.ParsePositionMode(c.Positions)
	if err != nil {
		return rules.Options{}, err
	}
	if p == nil {
		p = messages.NewPrinter(c.Output.Locale)
	}
	opts := rules.Options{
		EarlyBodyLine: c.Thresholds.EarlyBodyLine,
		NestingLevel:  c.Thresholds.NestingLevel,
		Positions:     mode,
		Messages:      p,
	}
	for name, enabled := range c.Rules {
		if enabled {
			continue
		}
		code, ok := diag.ParseRule(name)
		if !ok {
			return rules.Options{}, fmt.Errorf("unknown rule %q", name)
		}
		if opts.Disabled == nil {
			opts.Disabled = make(map[diag.Code]bool)
		}
		opts.Disabled[code] = true
	}
	return opts, nil
}

// Extensions returns the scanned extensions lower-cased with a leading dot.
func (c Config) Extensions() []string {
	out := make([]string, 0, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// Excluded reports whether rel (slash or OS separated, relative to the scan
// root) matches an exclude pattern, either as a whole or by any element.
func (c Config) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")
	for _, pattern := range c.Scan.Exclude {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		for _, part := range parts {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}

// Write encodes c as TOML.
func Write(w io.Writer, c Config) error {
	return toml.NewEncoder(w).Encode(c)
}
