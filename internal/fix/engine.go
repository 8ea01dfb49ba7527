package fix

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"greenlens/internal/diag"
	"greenlens/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode selects which suggested fixes Apply uses.
type ApplyMode uint8

const (
	// ApplyModeOnce applies the first always-safe fix, or failing that the
	// first fix of any applicability.
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll applies every always-safe fix that does not conflict.
	ApplyModeAll
	// ApplyModeID applies the single fix named by ApplyOptions.TargetID.
	ApplyModeID
)

var applyModeNames = [...]string{"once", "all", "id"}

func (m ApplyMode) String() string {
	if int(m) < len(applyModeNames) {
		return applyModeNames[m]
	}
	return "unknown"
}

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// DryRun computes the new contents without writing files.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	EditCount     int
}

// SkippedFix is a fix that was not applied, with the reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	Path      string
	EditCount int
	// Content is the file after the edits.
	Content []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	finding diag.Diagnostic
	fix     diag.Fix
	seq     int
}

func (c candidate) skip(reason string) SkippedFix {
	return SkippedFix{ID: c.fix.ID, Title: c.fix.Title, Reason: reason}
}

// pending accumulates the accepted edits of one file. Edits stay in the
// coordinates of the loaded content and the output is rebuilt from it.
type pending struct {
	file  *source.File
	edits []diag.TextEdit
	out   string
}

// Apply collects fixes from diagnostics, selects a subset according to opts
// and applies them. Files are written unless opts.DryRun is set.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	res := &ApplyResult{}
	if fs == nil {
		return res, errors.New("fix: FileSet is nil")
	}

	cands, skipped := gatherCandidates(diagnostics)
	res.Skipped = append(res.Skipped, skipped...)
	if len(cands) == 0 {
		return res, ErrNoFixes
	}
	sortCandidates(cands)

	selected, skipped := selectCandidates(cands, opts)
	res.Skipped = append(res.Skipped, skipped...)

	files := make(map[source.FileID]*pending)
	for _, c := range selected {
		edits, reason := stage(fs, files, c, opts.DryRun)
		if reason != "" {
			res.Skipped = append(res.Skipped, c.skip(reason))
			continue
		}
		res.Applied = append(res.Applied, AppliedFix{
			ID:            c.fix.ID,
			Title:         c.fix.Title,
			Code:          c.finding.Code,
			Message:       c.finding.Message,
			Applicability: c.fix.Applicability,
			PrimaryPath:   displayPath(fs, c.finding.Primary.File),
			EditCount:     edits,
		})
	}
	if len(res.Applied) == 0 {
		return res, ErrNoFixes
	}

	changes, err := commit(fs, files, opts.DryRun)
	res.FileChanges = changes
	return res, err
}

// gatherCandidates flattens the fixes of diagnostics into candidates. Fixes
// without edits and repeated IDs are skipped; a missing ID is derived from
// the code, file, start and fix index.
func gatherCandidates(diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	var (
		cands []candidate
		skips []SkippedFix
	)
	seen := make(map[string]struct{})
	for _, d := range diagnostics {
		for i, f := range d.Fixes {
			if f.ID == "" && len(f.Edits) > 0 {
				f.ID = fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, i)
			}
			c := candidate{finding: d, fix: f, seq: len(cands)}
			if len(f.Edits) == 0 {
				skips = append(skips, c.skip("fix has no edits"))
				continue
			}
			if _, dup := seen[f.ID]; dup {
				skips = append(skips, c.skip("duplicate fix id"))
				continue
			}
			seen[f.ID] = struct{}{}
			cands = append(cands, c)
		}
	}
	return cands, skips
}

// sortCandidates orders by primary location, then discovery order, code,
// preferred first, ID and title.
func sortCandidates(cands []candidate) {
	slices.SortStableFunc(cands, func(a, b candidate) int {
		pa, pb := a.finding.Primary, b.finding.Primary
		if c := cmp.Or(
			cmp.Compare(pa.File, pb.File),
			cmp.Compare(pa.Start, pb.Start),
			cmp.Compare(pa.End, pb.End),
			cmp.Compare(a.seq, b.seq),
			cmp.Compare(a.finding.Code, b.finding.Code),
		); c != 0 {
			return c
		}
		if a.fix.IsPreferred != b.fix.IsPreferred {
			if a.fix.IsPreferred {
				return -1
			}
			return 1
		}
		return cmp.Or(strings.Compare(a.fix.ID, b.fix.ID), strings.Compare(a.fix.Title, b.fix.Title))
	})
}

func selectCandidates(cands []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	safe := func(c candidate) bool { return c.fix.Applicability == diag.FixApplicabilityAlwaysSafe }

	switch opts.Mode {
	case ApplyModeID:
		i := slices.IndexFunc(cands, func(c candidate) bool { return c.fix.ID == opts.TargetID })
		if i < 0 {
			return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}
		}
		return cands[i : i+1], nil
	case ApplyModeAll:
		var (
			picked []candidate
			skips  []SkippedFix
		)
		for _, c := range cands {
			if safe(c) {
				picked = append(picked, c)
			} else {
				skips = append(skips, c.skip("applicability is "+c.fix.Applicability.String()))
			}
		}
		return picked, skips
	case ApplyModeOnce:
		if i := slices.IndexFunc(cands, safe); i >= 0 {
			return cands[i : i+1], nil
		}
		return cands[:1], nil
	}
	return nil, nil
}

// stage adds c's edits to the pending files, all or nothing. It returns the
// edit count, or a skip reason when the fix cannot be applied.
func stage(fs *source.FileSet, files map[source.FileID]*pending, c candidate, dryRun bool) (int, string) {
	byFile := make(map[source.FileID][]diag.TextEdit)
	for _, e := range c.fix.Edits {
		byFile[e.Span.File] = append(byFile[e.Span.File], e)
	}

	staged := make(map[source.FileID]pending, len(byFile))
	for id, edits := range byFile {
		p := files[id]
		if p == nil {
			file := fs.Get(id)
			if file == nil {
				return 0, "target file is unknown"
			}
			p = &pending{file: file}
		}
		if p.file.Flags&source.FileVirtual != 0 && !dryRun {
			return 0, "target file is virtual"
		}
		merged := append(slices.Clone(p.edits), edits...)
		out, err := ApplyText(string(p.file.Content), merged)
		switch {
		case errors.Is(err, ErrConflict):
			return 0, "conflicts with previously applied edits in " + displayPath(fs, id)
		case errors.Is(err, ErrStale):
			return 0, ErrStale.Error()
		case err != nil:
			return 0, errOutOfRange.Error()
		}
		staged[id] = pending{file: p.file, edits: merged, out: out}
	}

	n := 0
	for id, p := range staged {
		files[id] = &p
		n += len(byFile[id])
	}
	return n, ""
}

func commit(fs *source.FileSet, files map[source.FileID]*pending, dryRun bool) ([]FileChange, error) {
	baseDir := fs.BaseDir()
	changes := make([]FileChange, 0, len(files))
	for _, p := range files {
		content := []byte(p.out)
		if p.file.Flags&source.FileHadBOM != 0 {
			content = append([]byte(source.BOM), content...)
		}
		if !dryRun {
			if err := writeKeepingMode(p.file.Path, content); err != nil {
				return changes, err
			}
		}
		changes = append(changes, FileChange{
			Path:      p.file.FormatPath("relative", baseDir),
			EditCount: len(p.edits),
			Content:   content,
		})
	}
	slices.SortFunc(changes, func(a, b FileChange) int { return strings.Compare(a.Path, b.Path) })
	return changes, nil
}

func writeKeepingMode(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func displayPath(fs *source.FileSet, id source.FileID) string {
	if file := fs.Get(id); file != nil {
		return file.FormatPath("auto", fs.BaseDir())
	}
	return ""
}
