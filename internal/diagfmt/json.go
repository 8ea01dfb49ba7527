package diagfmt

import (
	"encoding/json"
	"io"
	"sort"

	"greenlens/internal/diag"
	"greenlens/internal/source"
)

// LocationJSON is a file location.
type LocationJSON struct {
	File      string `json:"file" msgpack:"file"`
	StartByte uint32 `json:"start_byte" msgpack:"start_byte"`
	EndByte   uint32 `json:"end_byte" msgpack:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty" msgpack:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty" msgpack:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty" msgpack:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty" msgpack:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message" msgpack:"message"`
	Location LocationJSON `json:"location" msgpack:"location"`
}

type FixEditJSON struct {
	Location    LocationJSON `json:"location" msgpack:"location"`
	NewText     string       `json:"new_text" msgpack:"new_text"`
	OldText     string       `json:"old_text,omitempty" msgpack:"old_text,omitempty"`
	BeforeLines []string     `json:"before_lines,omitempty" msgpack:"before_lines,omitempty"`
	AfterLines  []string     `json:"after_lines,omitempty" msgpack:"after_lines,omitempty"`
}

type FixJSON struct {
	ID            string        `json:"id,omitempty" msgpack:"id,omitempty"`
	Title         string        `json:"title" msgpack:"title"`
	Kind          string        `json:"kind" msgpack:"kind"`
	Applicability string        `json:"applicability" msgpack:"applicability"`
	IsPreferred   bool          `json:"is_preferred,omitempty" msgpack:"is_preferred,omitempty"`
	Edits         []FixEditJSON `json:"edits,omitempty" msgpack:"edits,omitempty"`
}

type DiagnosticJSON struct {
	Severity string       `json:"severity" msgpack:"severity"`
	Code     string       `json:"code" msgpack:"code"`
	Rule     string       `json:"rule" msgpack:"rule"`
	Message  string       `json:"message" msgpack:"message"`
	Context  string       `json:"context,omitempty" msgpack:"context,omitempty"`
	Location LocationJSON `json:"location" msgpack:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty" msgpack:"notes,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty" msgpack:"fixes,omitempty"`
}

// DiagnosticsOutput is the root of the JSON and msgpack outputs.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics" msgpack:"diagnostics"`
	Count       int              `json:"count" msgpack:"count"`
}

func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode, includePositions bool) LocationJSON {
	f := fs.Get(span.File)
	loc := LocationJSON{
		File:      formatPath(fs, f, pathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if includePositions && f != nil {
		startPos, endPos := f.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}
	return loc
}

// sortedFixes orders fixes preferred first, then by applicability, kind, title and id.
func sortedFixes(in []diag.Fix) []diag.Fix {
	fixes := append([]diag.Fix(nil), in...)
	sort.SliceStable(fixes, func(i, j int) bool {
		fi, fj := fixes[i], fixes[j]
		if fi.IsPreferred != fj.IsPreferred {
			return fi.IsPreferred && !fj.IsPreferred
		}
		if fi.Applicability != fj.Applicability {
			return fi.Applicability < fj.Applicability
		}
		if fi.Kind != fj.Kind {
			return fi.Kind < fj.Kind
		}
		if fi.Title != fj.Title {
			return fi.Title < fj.Title
		}
		return fi.ID < fj.ID
	})
	return fixes
}

// BuildDiagnosticsOutput builds the output structure without serializing it.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}
	diagnostics := make([]DiagnosticJSON, 0, maxItems)

	for i := range maxItems {
		d := items[i]

		diagJSON := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Rule:     d.Code.String(),
			Message:  d.Message,
			Context:  d.Context,
			Location: makeLocation(d.Primary, fs, opts.PathMode, opts.IncludePositions),
		}

		if opts.IncludeNotes && len(d.Notes) > 0 {
			diagJSON.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				diagJSON.Notes[j] = NoteJSON{
					Message:  note.Msg,
					Location: makeLocation(note.Span, fs, opts.PathMode, opts.IncludePositions),
				}
			}
		}

		if opts.IncludeFixes && len(d.Fixes) > 0 {
			fixes := sortedFixes(d.Fixes)
			diagJSON.Fixes = make([]FixJSON, 0, len(fixes))
			for _, fix := range fixes {
				fixJSON := FixJSON{
					ID:            fix.ID,
					Title:         fix.Title,
					Kind:          fix.Kind.String(),
					Applicability: fix.Applicability.String(),
					IsPreferred:   fix.IsPreferred,
				}
				if len(fix.Edits) > 0 {
					fixJSON.Edits = make([]FixEditJSON, len(fix.Edits))
					for k, edit := range fix.Edits {
						editJSON := FixEditJSON{
							Location: makeLocation(edit.Span, fs, opts.PathMode, opts.IncludePositions),
							NewText:  edit.NewText,
							OldText:  edit.OldText,
						}
						if opts.IncludePreviews {
							if preview, err := previewEdit(fs, edit); err == nil {
								editJSON.BeforeLines = append([]string(nil), preview.before...)
								editJSON.AfterLines = append([]string(nil), preview.after...)
							}
						}
						fixJSON.Edits[k] = editJSON
					}
				}
				diagJSON.Fixes = append(diagJSON.Fixes, fixJSON)
			}
		}

		diagnostics = append(diagnostics, diagJSON)
	}

	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
	}
}

// JSON writes diagnostics as indented JSON.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}
