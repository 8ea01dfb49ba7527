package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"greenlens/internal/config"
	"greenlens/internal/diagfmt"
	"greenlens/internal/driver"
	"greenlens/internal/fix"
	"greenlens/internal/version"
	"greenlens/internal/watch"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.html|directory>",
	Short: "Report render-blocking scripts and excessive divs",
	Long: `Check a single HTML file, or every HTML file within a directory, for external
scripts that block rendering and for div-heavy markup.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "", "output format (pretty|short|json|sarif|msgpack); default from config")
	checkCmd.Flags().String("path-mode", "auto", "how file paths are shown (auto|absolute|relative|basename)")
	checkCmd.Flags().String("locale", "", "message locale (en|ko); default from config")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory checks (0=auto)")
	checkCmd.Flags().Bool("warnings-as-errors", false, "exit with status 1 when any finding is reported")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("preview", false, "show the patched line for each suggestion")
	checkCmd.Flags().Bool("with-notes", false, "include finding notes in output")
	checkCmd.Flags().Bool("cache", false, "reuse findings cached on disk for unchanged files")
	checkCmd.Flags().Bool("clear-cache", false, "drop the findings cache before checking")
	checkCmd.Flags().String("ui", "auto", "progress view for directory checks (auto|on|off), overrides [output].progress")
	checkCmd.Flags().Bool("watch", false, "re-check files when they change")
	checkCmd.Flags().Duration("debounce", watch.DefaultDebounce, "delay before re-checking after a change")
}

type checkSettings struct {
	format           string
	pathMode         diagfmt.PathMode
	color            bool
	suggest          bool
	preview          bool
	withNotes        bool
	warningsAsErrors bool
	timings          bool
	quiet            bool
	progress         progressView
}

func runCheck(cmd *cobra.Command, args []string) error {
	target := args[0]
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	cfg, _, err := loadConfig(cmd, target)
	if err != nil {
		return err
	}
	settings, err := readCheckSettings(cmd, cfg)
	if err != nil {
		return err
	}
	opts, err := checkOptions(cmd, cfg, settings)
	if err != nil {
		return err
	}

	watchMode, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	if !watchMode {
		exit, err := checkOnce(cmd.Context(), cmd.OutOrStdout(), target, info.IsDir(), opts, settings)
		if err != nil {
			return err
		}
		if exit != 0 {
			return exitError{code: exit}
		}
		return nil
	}

	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}
	return watchAndCheck(cmd, target, info.IsDir(), cfg, opts, settings, debounce)
}

func readCheckSettings(cmd *cobra.Command, cfg config.Config) (checkSettings, error) {
	var s checkSettings
	var err error

	s.format, err = cmd.Flags().GetString("format")
	if err != nil {
		return s, err
	}
	if s.format == "" {
		s.format = cfg.Output.Format
	}
	s.format = strings.ToLower(s.format)
	if s.format == "" {
		s.format = "pretty"
	}
	if !slices.Contains(config.Formats, s.format) {
		return s, fmt.Errorf("unknown format: %s", s.format)
	}

	pathMode, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return s, err
	}
	if s.pathMode, err = diagfmt.ParsePathMode(pathMode); err != nil {
		return s, err
	}

	if s.color, err = colorEnabled(cmd); err != nil {
		return s, err
	}
	if s.suggest, err = cmd.Flags().GetBool("suggest"); err != nil {
		return s, err
	}
	if s.preview, err = cmd.Flags().GetBool("preview"); err != nil {
		return s, err
	}
	if s.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return s, err
	}
	if s.warningsAsErrors, err = cmd.Flags().GetBool("warnings-as-errors"); err != nil {
		return s, err
	}
	if s.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return s, err
	}
	s.quiet = quiet(cmd)

	mode := cfg.Output.Progress
	if cmd.Flags().Changed("ui") {
		if mode, err = cmd.Flags().GetString("ui"); err != nil {
			return s, err
		}
	}
	if s.progress, err = parseProgressView(mode); err != nil {
		return s, err
	}
	return s, nil
}

func checkOptions(cmd *cobra.Command, cfg config.Config, s checkSettings) (driver.Options, error) {
	ruleOpts, printer, err := ruleOptions(cmd, cfg)
	if err != nil {
		return driver.Options{}, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return driver.Options{}, err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return driver.Options{}, err
	}

	opts := driver.Options{
		Rules:          ruleOpts,
		Extensions:     cfg.Extensions(),
		Exclude:        excludeFunc(cfg),
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		EnableTimings:  s.timings,
	}
	if s.suggest || s.preview {
		opts.Suggest = fix.Generator{Messages: printer}.Suggest
	}

	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return driver.Options{}, err
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return driver.Options{}, err
	}
	if useCache || clearCache {
		cache, err := driver.OpenDiskCache("greenlens")
		if err != nil {
			return driver.Options{}, fmt.Errorf("open cache: %w", err)
		}
		if clearCache {
			if err := cache.DropAll(); err != nil {
				return driver.Options{}, fmt.Errorf("clear cache: %w", err)
			}
			slog.Info("cache cleared", "dir", cache.Dir())
		}
		if useCache {
			opts.Cache = cache
		}
	}
	return opts, nil
}

// checkOnce runs one pass over target and renders the result. It returns the
// exit code the findings call for.
func checkOnce(ctx context.Context, out io.Writer, target string, isDir bool, opts driver.Options, s checkSettings) (int, error) {
	var (
		res *driver.Result
		err error
	)
	if s.showProgress(isDir, isTerminal(os.Stdout)) {
		var files []string
		files, err = driver.ListFiles(target, opts.Extensions, opts.Exclude)
		if err != nil {
			return 0, fmt.Errorf("list %s: %w", target, err)
		}
		res, err = runCheckWithUI(ctx, "greenlens check "+target, target, files, opts)
	} else {
		res, err = driver.Check(ctx, target, opts)
	}
	if err != nil {
		return 0, fmt.Errorf("check failed: %w", err)
	}
	if err := render(out, res, s); err != nil {
		return 0, err
	}
	if s.timings && res.Timing != nil {
		fmt.Fprint(os.Stderr, res.Timing.Summary())
	}
	return findingsExitCode(res, s), nil
}

func findingsExitCode(res *driver.Result, s checkSettings) int {
	if res.Bag.HasErrors() {
		return 1
	}
	if s.warningsAsErrors && res.Bag.Len() > 0 {
		return 1
	}
	return 0
}

func render(out io.Writer, res *driver.Result, s checkSettings) error {
	showFixes := s.suggest || s.preview
	switch s.format {
	case "pretty":
		diagfmt.Pretty(out, res.Bag, res.FileSet, diagfmt.PrettyOpts{
			Color:       s.color,
			Context:     2,
			PathMode:    s.pathMode,
			ShowNotes:   s.withNotes,
			ShowFixes:   showFixes,
			ShowPreview: s.preview,
		})
		if !s.quiet {
			fmt.Fprintln(out, summaryLine(res))
		}
	case "short":
		if err := diagfmt.Short(out, res.Bag, res.FileSet, s.withNotes); err != nil {
			return fmt.Errorf("failed to format findings: %w", err)
		}
	case "json", "msgpack":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         s.pathMode,
			IncludeNotes:     s.withNotes,
			IncludeFixes:     showFixes,
			IncludePreviews:  s.preview,
		}
		encode := diagfmt.JSON
		if s.format == "msgpack" {
			encode = diagfmt.Msgpack
		}
		if err := encode(out, res.Bag, res.FileSet, jsonOpts); err != nil {
			return fmt.Errorf("failed to format findings: %w", err)
		}
	case "sarif":
		meta := diagfmt.SarifRunMeta{
			ToolName:       "greenlens",
			ToolVersion:    version.Current(),
			InvocationArgs: os.Args[1:],
		}
		if err := diagfmt.Sarif(out, res.Bag, res.FileSet, meta); err != nil {
			return fmt.Errorf("failed to format findings: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", s.format)
	}
	return nil
}

func summaryLine(res *driver.Result) string {
	cached := 0
	for _, fr := range res.Files {
		if fr.Cached {
			cached++
		}
	}
	line := fmt.Sprintf("%s in %s", plural(res.Bag.Len(), "finding"), plural(len(res.Files), "file"))
	if cached > 0 {
		line += fmt.Sprintf(" (%d cached)", cached)
	}
	return line
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// watchAndCheck checks target once, then re-checks changed files until
// interrupted.
func watchAndCheck(cmd *cobra.Command, target string, isDir bool, cfg config.Config, opts driver.Options, s checkSettings, debounce time.Duration) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// the progress view would fight the re-check output
	s.progress = progressOff
	out := cmd.OutOrStdout()
	if _, err := checkOnce(ctx, out, target, isDir, opts, s); err != nil {
		return err
	}

	root := target
	var only string
	if !isDir {
		root = targetDir(target)
		only = target
	}
	w, err := watch.New(root, watch.Options{
		Extensions: opts.Extensions,
		Exclude:    excludeFunc(cfg),
		Debounce:   debounce,
	})
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	if !s.quiet {
		fmt.Fprintf(os.Stderr, "watching %s for changes (ctrl+c to stop)\n", root)
	}
	err = w.Run(ctx, func(paths []string) {
		if only != "" {
			paths = filterPaths(paths, only)
		}
		paths = existingFiles(paths)
		if len(paths) == 0 {
			return
		}
		slog.Debug("re-checking", "files", len(paths))
		res, err := driver.CheckFiles(ctx, root, paths, opts)
		if err != nil {
			slog.Warn("re-check failed", "err", err)
			return
		}
		if !s.quiet {
			fmt.Fprintf(out, "\n== %s ==\n", time.Now().Format(time.TimeOnly))
		}
		if err := render(out, res, s); err != nil {
			slog.Warn("render failed", "err", err)
		}
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func filterPaths(paths []string, only string) []string {
	var out []string
	for _, p := range paths {
		if sameFile(p, only) {
			out = append(out, p)
		}
	}
	return out
}

// existingFiles drops paths removed before the debounce fired.
func existingFiles(paths []string) []string {
	out := paths[:0]
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}
