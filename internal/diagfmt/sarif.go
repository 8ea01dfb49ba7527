package diagfmt

import (
	"encoding/json"
	"io"
	"path/filepath"

	"greenlens/internal/diag"
	"greenlens/internal/messages"
	"greenlens/internal/source"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	ShortDescription sarifMessage `json:"shortDescription"`
	HelpURI          string       `json:"helpUri,omitempty"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine,omitempty"`
	StartColumn uint32 `json:"startColumn,omitempty"`
	EndLine     uint32 `json:"endLine,omitempty"`
	EndColumn   uint32 `json:"endColumn,omitempty"`
	ByteOffset  uint32 `json:"byteOffset"`
	ByteLength  uint32 `json:"byteLength"`
}

type sarifFix struct {
	Description     sarifMessage          `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Replacements     []sarifReplacement    `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion  `json:"deletedRegion"`
	InsertedContent sarifMessage `json:"insertedContent"`
}

func ruleHelpURI(code diag.Code) string {
	switch code {
	case diag.ScriptBlocking:
		return messages.ScriptInfoURL
	case diag.DivCount, diag.DivNesting:
		return messages.DOMInfoURL
	}
	return ""
}

func sarifLevel(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	}
	return "note"
}

func sarifURI(fs *source.FileSet, f *source.File) string {
	if f == nil {
		return ""
	}
	return filepath.ToSlash(f.FormatPath("relative", fs.BaseDir()))
}

func sarifRegionFor(f *source.File, span source.Span, withLines bool) sarifRegion {
	r := sarifRegion{ByteOffset: span.Start, ByteLength: span.Len()}
	if withLines && f != nil {
		start, end := f.Resolve(span)
		r.StartLine, r.StartColumn = start.Line, start.Col
		r.EndLine, r.EndColumn = end.Line, end.Col
	}
	return r
}

// Sarif writes diagnostics as a SARIF v2.1.0 log with a single run.
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) error {
	ruleIndex := make(map[diag.Code]int)
	driver := sarifDriver{
		Name:    meta.ToolName,
		Version: meta.ToolVersion,
		Rules:   make([]sarifRule, 0, len(diag.Rules())),
	}
	for i, code := range diag.Rules() {
		ruleIndex[code] = i
		driver.Rules = append(driver.Rules, sarifRule{
			ID:               code.ID(),
			Name:             code.String(),
			ShortDescription: sarifMessage{Text: code.Title()},
			HelpURI:          ruleHelpURI(code),
		})
	}

	results := make([]sarifResult, 0)
	if bag != nil {
		for _, d := range bag.Items() {
			f := fs.Get(d.Primary.File)
			idx, ok := ruleIndex[d.Code]
			if !ok {
				idx = len(driver.Rules)
				ruleIndex[d.Code] = idx
				driver.Rules = append(driver.Rules, sarifRule{
					ID:               d.Code.ID(),
					Name:             d.Code.String(),
					ShortDescription: sarifMessage{Text: d.Code.Title()},
				})
			}
			res := sarifResult{
				RuleID:    d.Code.ID(),
				RuleIndex: idx,
				Level:     sarifLevel(d.Severity),
				Message:   sarifMessage{Text: d.Message},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: sarifURI(fs, f)},
						Region:           sarifRegionFor(f, d.Primary, true),
					},
				}},
			}
			for _, fix := range sortedFixes(d.Fixes) {
				res.Fixes = append(res.Fixes, sarifFixFor(fs, fix))
			}
			results = append(results, res)
		}
	}

	log := sarifLog{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: driver},
			Invocations: []sarifInvocation{{
				Arguments:           meta.InvocationArgs,
				ExecutionSuccessful: true,
			}},
			Results: results,
		}},
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(log)
}

func sarifFixFor(fs *source.FileSet, fix diag.Fix) sarifFix {
	byFile := make(map[source.FileID]int)
	out := sarifFix{Description: sarifMessage{Text: fix.Title}}
	for _, e := range fix.Edits {
		idx, ok := byFile[e.Span.File]
		if !ok {
			idx = len(out.ArtifactChanges)
			byFile[e.Span.File] = idx
			out.ArtifactChanges = append(out.ArtifactChanges, sarifArtifactChange{
				ArtifactLocation: sarifArtifactLocation{URI: sarifURI(fs, fs.Get(e.Span.File))},
			})
		}
		change := &out.ArtifactChanges[idx]
		change.Replacements = append(change.Replacements, sarifReplacement{
			DeletedRegion:   sarifRegionFor(nil, e.Span, false),
			InsertedContent: sarifMessage{Text: e.NewText},
		})
	}
	return out
}
