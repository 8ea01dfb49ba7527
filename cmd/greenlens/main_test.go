package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"greenlens/internal/config"
	"greenlens/internal/diagfmt"
	"greenlens/internal/messages"
)

const blockingPage = `<html>
<head>
  <script src="app.js"></script>
</head>
<body></body>
</html>
`

// execute runs the CLI with args and restores every flag afterwards.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { resetFlags(rootCmd) })
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--color", "off", "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func writePage(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestCheckJSONReportsFindings(t *testing.T) {
	dir := t.TempDir()
	page := writePage(t, dir, "index.html", blockingPage)

	out, err := execute(t, "check", "--format", "json", "--ui", "off", page)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var payload diagfmt.DiagnosticsOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if payload.Count != 1 || payload.Diagnostics[0].Rule != "script-blocking" {
		t.Fatalf("unexpected findings: %+v", payload)
	}
	if payload.Diagnostics[0].Location.StartLine != 3 {
		t.Fatalf("expected the script on line 3, got %+v", payload.Diagnostics[0].Location)
	}

	_, err = execute(t, "check", "--format", "short", "--warnings-as-errors", "--ui", "off", page)
	if exitCode(err) != 1 {
		t.Fatalf("warnings-as-errors must exit 1, got %v", err)
	}
}

func TestCheckHonorsConfig(t *testing.T) {
	dir := t.TempDir()
	page := writePage(t, dir, "index.html", blockingPage)
	writePage(t, dir, config.FileName, "[rules]\nscript-blocking = false\n")

	out, err := execute(t, "check", "--format", "json", "--ui", "off", page)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, `"count": 0`) {
		t.Fatalf("disabled rule must not report:\n%s", out)
	}

	writePage(t, dir, config.FileName, "[rules]\nno-such-rule = true\n")
	if _, err := execute(t, "check", "--ui", "off", page); err == nil {
		t.Fatal("expected an error for an unknown rule")
	}
}

func TestCheckDirectoryPretty(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "a.html", blockingPage)
	writePage(t, dir, "b.html", "<html><body><p>ok</p></body></html>")
	writePage(t, dir, "notes.txt", blockingPage)

	out, err := execute(t, "check", "--ui", "off", dir)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "1 finding in 2 files") {
		t.Fatalf("missing summary:\n%s", out)
	}
	if !strings.Contains(out, "a.html") || strings.Contains(out, "notes.txt") {
		t.Fatalf("unexpected files in output:\n%s", out)
	}
}

func TestFixAppliesDefer(t *testing.T) {
	dir := t.TempDir()
	page := writePage(t, dir, "index.html", blockingPage)

	out, err := execute(t, "fix", "--dry-run", "--all", page)
	if err != nil {
		t.Fatalf("fix --dry-run: %v", err)
	}
	if !strings.Contains(out, "Would apply 1 fix(es)") {
		t.Fatalf("unexpected dry-run output:\n%s", out)
	}
	if data, _ := os.ReadFile(page); string(data) != blockingPage {
		t.Fatal("dry run must not write the file")
	}

	if _, err := execute(t, "fix", "--all", page); err != nil {
		t.Fatalf("fix --all: %v", err)
	}
	data, err := os.ReadFile(page)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `<script defer src="app.js"></script>`) {
		t.Fatalf("defer was not applied:\n%s", data)
	}
	if strings.Contains(string(data), "async") {
		t.Fatalf("async needs review and must not be applied by --all:\n%s", data)
	}
}

func TestFixByKindAndID(t *testing.T) {
	dir := t.TempDir()
	page := writePage(t, dir, "index.html", blockingPage)

	out, err := execute(t, "fix", "--list", "--kind", "async", page)
	if err != nil {
		t.Fatalf("fix --list: %v", err)
	}
	id := ""
	for _, line := range strings.Split(out, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 && strings.HasPrefix(fields[0], "GL1001-async-") {
			id = fields[0]
		}
	}
	if id == "" {
		t.Fatalf("no async fix listed:\n%s", out)
	}

	if _, err := execute(t, "fix", "--id", id, page); err != nil {
		t.Fatalf("fix --id: %v", err)
	}
	data, _ := os.ReadFile(page)
	if !strings.Contains(string(data), `<script async src="app.js">`) {
		t.Fatalf("async was not applied:\n%s", data)
	}

	if _, err := execute(t, "fix", "--kind", "sideways", page); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}

func TestInitWritesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	if _, err := execute(t, "init", "--quiet", dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Thresholds.NestingLevel != config.Default().Thresholds.NestingLevel {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, err := execute(t, "init", dir); err == nil {
		t.Fatal("second init must refuse to overwrite")
	}
	if _, err := execute(t, "init", "--force", dir); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}

func TestExplain(t *testing.T) {
	out, err := execute(t, "explain", "--format", "json", "GL2002")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	var payload []explainPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(payload) != 1 || payload[0].Topic != "dom" || payload[0].URL != messages.DOMInfoURL {
		t.Fatalf("unexpected payload %+v", payload)
	}

	out, err = execute(t, "explain", "--locale", "ko", "scripts")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.Contains(out, messages.ScriptInfoURL) || !strings.Contains(out, "defer") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if _, err := execute(t, "explain", "colors"); err == nil {
		t.Fatal("expected an error for an unknown topic")
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json", "--hash")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Tool != "greenlens" || payload.Version == "" || payload.GitCommit == "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestShowProgress(t *testing.T) {
	cases := []struct {
		name  string
		s     checkSettings
		isDir bool
		tty   bool
		want  bool
	}{
		{"auto on a terminal", checkSettings{format: "pretty"}, true, true, true},
		{"auto piped", checkSettings{format: "short"}, true, false, false},
		{"forced on", checkSettings{format: "pretty", progress: progressOn}, true, false, true},
		{"forced off", checkSettings{format: "pretty", progress: progressOff}, true, true, false},
		{"single file", checkSettings{format: "pretty", progress: progressOn}, false, true, false},
		{"machine format", checkSettings{format: "json", progress: progressOn}, true, true, false},
		{"quiet", checkSettings{format: "pretty", quiet: true, progress: progressOn}, true, true, false},
	}
	for _, tc := range cases {
		if got := tc.s.showProgress(tc.isDir, tc.tty); got != tc.want {
			t.Errorf("%s: showProgress = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestProgressModeFromConfig(t *testing.T) {
	dir := t.TempDir()
	page := writePage(t, dir, "index.html", blockingPage)
	writePage(t, dir, config.FileName, "[output]\nprogress = \"off\"\n")
	if _, err := execute(t, "check", "--format", "json", page); err != nil {
		t.Fatalf("check with [output].progress: %v", err)
	}
	if _, err := execute(t, "check", "--format", "json", "--ui", "sometimes", page); err == nil {
		t.Fatal("an invalid --ui must override the config and fail")
	}
}

func TestHelpers(t *testing.T) {
	if _, err := parseProgressView("sometimes"); err == nil {
		t.Fatal("expected invalid --ui to fail")
	}
	if mode, _ := parseProgressView(" ON "); mode != progressOn {
		t.Fatalf("parseProgressView = %d", mode)
	}
	if _, err := parseLogLevel("loud"); err == nil {
		t.Fatal("expected invalid level to fail")
	}
	if exitCode(exitError{code: 3}) != 3 || exitCode(errors.New("boom")) != 1 {
		t.Fatal("unexpected exit codes")
	}
	if got := plural(1, "file") + "," + plural(2, "file"); got != "1 file,2 files" {
		t.Fatalf("plural = %q", got)
	}
}

func TestCheckWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	page := writePage(t, dir, "index.html", blockingPage)
	cpu := filepath.Join(dir, "cpu.pprof")
	heap := filepath.Join(dir, "heap.pprof")

	if _, err := execute(t, "--cpu-profile", cpu, "--mem-profile", heap, "check", "--format", "short", "--ui", "off", page); err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, path := range []string{cpu, heap} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("missing profile %s: %v", path, err)
		}
	}
}
