package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"greenlens/internal/messages"
	"greenlens/internal/source"
)

func TestSarif(t *testing.T) {
	fs := source.NewFileSetWithBase("/srv/site")
	bag := checkedBag(t, fs, "/srv/site/pages/index.html", samplePage)

	var buf bytes.Buffer
	meta := SarifRunMeta{ToolName: "greenlens", ToolVersion: "1.0.0", InvocationArgs: []string{"check", "."}}
	if err := Sarif(&buf, bag, fs, meta); err != nil {
		t.Fatal(err)
	}

	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v\n%s", err, buf.String())
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("unexpected log header: %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "greenlens" || len(run.Tool.Driver.Rules) != 3 {
		t.Fatalf("unexpected driver: %+v", run.Tool.Driver)
	}
	if run.Tool.Driver.Rules[0].HelpURI != messages.ScriptInfoURL || run.Tool.Driver.Rules[2].HelpURI != messages.DOMInfoURL {
		t.Fatalf("unexpected help URIs: %+v", run.Tool.Driver.Rules)
	}
	if len(run.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(run.Results))
	}

	res := run.Results[0]
	if res.RuleID != "GL1001" || res.RuleIndex != 0 || res.Level != "warning" {
		t.Fatalf("unexpected result: %+v", res)
	}
	loc := res.Locations[0].PhysicalLocation
	if loc.ArtifactLocation.URI != "pages/index.html" || loc.Region.StartLine != 3 || loc.Region.ByteOffset != 16 {
		t.Fatalf("unexpected location: %+v", loc)
	}
	if len(res.Fixes) != 2 || res.Fixes[0].ArtifactChanges[0].Replacements[0].InsertedContent.Text != `<script defer src="app.js"></script>` {
		t.Fatalf("unexpected fixes: %+v", res.Fixes)
	}

	nest := run.Results[2]
	if nest.RuleID != "GL2002" || nest.RuleIndex != 2 {
		t.Fatalf("unexpected nesting result: %+v", nest)
	}
}
