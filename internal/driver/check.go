// Package driver loads files and directories and runs the rule pass over
// them, in parallel across files.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"greenlens/internal/analysis"
	"greenlens/internal/diag"
	"greenlens/internal/observ"
	"greenlens/internal/rules"
	"greenlens/internal/source"
)

// Options configures a check run.
type Options struct {
	Rules rules.Options
	// Extensions of files picked up from directories; nil selects
	// analysis.DefaultExtensions.
	Extensions []string
	// Exclude receives paths relative to the scanned directory.
	Exclude        func(rel string) bool
	MaxDiagnostics int
	Jobs           int
	EnableTimings  bool
	// Suggest, when set, attaches fixes to every finding.
	Suggest  func(file *source.File, d diag.Diagnostic) []diag.Fix
	Cache    *DiskCache
	Progress ProgressSink
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path     string
	FileID   source.FileID
	Findings []diag.Diagnostic
	Cached   bool
	Err      error
}

// Result is the outcome of a check run.
type Result struct {
	FileSet *source.FileSet
	Bag     *diag.Bag
	Files   []FileResult
	Timing  *observ.Report
}

// Check analyzes path, which may be a file or a directory. A file is checked
// regardless of its extension.
func Check(ctx context.Context, path string, opts Options) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return CheckFiles(ctx, "", []string{path}, opts)
	}

	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	var files []string
	timer.Measure("discover", func() string {
		files, err = ListFiles(path, opts.Extensions, opts.Exclude)
		return fmt.Sprintf("files=%d", len(files))
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return checkFiles(ctx, path, files, opts, timer)
}

// CheckFiles analyzes the given files. baseDir is used for relative paths in
// output; empty selects the working directory.
func CheckFiles(ctx context.Context, baseDir string, files []string, opts Options) (*Result, error) {
	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	return checkFiles(ctx, baseDir, files, opts, timer)
}

func checkFiles(ctx context.Context, baseDir string, files []string, opts Options, timer *observ.Timer) (*Result, error) {
	fileSet := source.NewFileSet()
	if baseDir != "" {
		fileSet.SetBaseDir(baseDir)
	}
	res := &Result{
		FileSet: fileSet,
		Bag:     diag.NewBag(opts.MaxDiagnostics),
		Files:   make([]FileResult, len(files)),
	}
	if len(files) == 0 {
		if timer != nil {
			report := timer.Report()
			res.Timing = &report
		}
		return res, nil
	}

	for _, path := range files {
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
	}

	// FileSet is not safe for concurrent Add: load everything up front.
	loadErrors := make(map[int]error)
	timer.Measure("load", func() string {
		for i, path := range files {
			start := time.Now()
			id, err := fileSet.Load(path)
			if err != nil {
				// placeholder so the finding resolves to the path
				id = fileSet.AddVirtual(path, nil)
				loadErrors[i] = err
			}
			res.Files[i] = FileResult{Path: path, FileID: id}
			emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusDone, Elapsed: time.Since(start)})
		}
		return fmt.Sprintf("errors=%d", len(loadErrors))
	})

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var waitErr error
	timer.Measure("check", func() string {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(jobs, len(files)))

		for i := range files {
			g.Go(func() error {
				// cancellation is checked between files only
				if err := gctx.Err(); err != nil {
					return err
				}
				// each goroutine owns res.Files[i]
				fr := &res.Files[i]
				file := fileSet.Get(fr.FileID)
				if loadErr, failed := loadErrors[i]; failed {
					fr.Err = loadErr
					fr.Findings = []diag.Diagnostic{loadFailure(file, loadErr)}
					emit(opts.Progress, Event{File: fr.Path, Stage: StageLoad, Status: StatusError, Err: loadErr})
					return nil
				}
				start := time.Now()
				emit(opts.Progress, Event{File: fr.Path, Stage: StageCheck, Status: StatusWorking})
				fr.Findings, fr.Cached = checkOne(file, opts)
				emit(opts.Progress, Event{
					File:     fr.Path,
					Stage:    StageCheck,
					Status:   StatusDone,
					Findings: len(fr.Findings),
					Cached:   fr.Cached,
					Elapsed:  time.Since(start),
				})
				return nil
			})
		}
		waitErr = g.Wait()
		return fmt.Sprintf("jobs=%d", min(jobs, len(files)))
	})

	total := 0
	timer.Measure("collect", func() string {
		for _, fr := range res.Files {
			total += len(fr.Findings)
			res.Bag.AddAll(fr.Findings)
		}
		res.Bag.Sort()
		return fmt.Sprintf("findings=%d", total)
	})
	emit(opts.Progress, Event{Stage: StageCheck, Status: StatusDone, Findings: total})

	if timer != nil {
		report := timer.Report()
		res.Timing = &report
	}
	return res, waitErr
}

// checkOne runs the pass over a single file, consulting the cache first.
func checkOne(file *source.File, opts Options) ([]diag.Diagnostic, bool) {
	var key Digest
	if opts.Cache != nil {
		key = CacheKey(file, opts.Rules, opts.Suggest != nil)
		var payload DiskPayload
		hit, err := opts.Cache.Get(key, &payload)
		if err != nil {
			slog.Debug("cache: read failed", "path", file.Path, "err", err)
		}
		if hit {
			return payloadToFindings(&payload, file), true
		}
	}

	findings := analysis.Check(file, opts.Rules)
	if opts.Suggest != nil {
		for i := range findings {
			findings[i] = findings[i].WithFixes(opts.Suggest(file, findings[i])...)
		}
	}

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, findingsToPayload(file, findings)); err != nil {
			slog.Debug("cache: write failed", "path", file.Path, "err", err)
		}
	}
	return findings, false
}

func loadFailure(file *source.File, err error) diag.Diagnostic {
	var sp source.Span
	if file != nil {
		sp = source.Span{File: file.ID}
	}
	return diag.New(diag.SevError, diag.IOLoadFileError, sp, "failed to load file: "+err.Error())
}
