package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"greenlens/internal/diag"
	"greenlens/internal/driver"
	"greenlens/internal/fix"
	"greenlens/internal/source"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <file.html|directory>",
	Short: "Apply suggested fixes to a file or directory",
	Long: `Check the target, collect the suggested fixes, and apply them according to
the chosen strategy. Script findings offer defer and async; div findings
offer a grid or flex layout rule.`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply all safe fixes")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default)")
	fixCmd.Flags().String("id", "", "apply the fix with a specific identifier")
	fixCmd.Flags().String("kind", "", "only generate fixes of one kind (defer|async|grid|flex)")
	fixCmd.Flags().Bool("list", false, "list available fixes without applying them")
	fixCmd.Flags().Bool("dry-run", false, "report what would change without writing files")
	fixCmd.Flags().String("locale", "", "message locale (en|ko); default from config")
}

func runFix(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	applyOnceFlag, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	kindFlag, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}

	if targetID != "" && (applyAll || applyOnceFlag) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnceFlag {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll {
		mode = fix.ApplyModeAll
	}
	applyOpts := fix.ApplyOptions{
		Mode:     mode,
		TargetID: targetID,
		DryRun:   dryRun,
	}

	cfg, _, err := loadConfig(cmd, targetPath)
	if err != nil {
		return err
	}
	ruleOpts, printer, err := ruleOptions(cmd, cfg)
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	gen := fix.Generator{Messages: printer}
	suggest := gen.Suggest
	if kindFlag != "" {
		kind, err := fix.ParseKind(kindFlag)
		if err != nil {
			return err
		}
		suggest = func(file *source.File, d diag.Diagnostic) []diag.Fix {
			f, err := gen.Generate(file, d, kind)
			if err != nil {
				return nil
			}
			return []diag.Fix{f}
		}
	}

	res, err := driver.Check(cmd.Context(), targetPath, driver.Options{
		Rules:          ruleOpts,
		Extensions:     cfg.Extensions(),
		Exclude:        excludeFunc(cfg),
		MaxDiagnostics: maxDiagnostics,
		EnableTimings:  showTimings,
		Suggest:        suggest,
	})
	if err != nil {
		return fmt.Errorf("fix: check failed: %w", err)
	}
	if showTimings && res.Timing != nil {
		defer fmt.Fprint(os.Stderr, res.Timing.Summary())
	}

	out := cmd.OutOrStdout()
	if list {
		return listFixes(out, res)
	}
	applyRes, applyErr := fix.Apply(res.FileSet, res.Bag.Items(), applyOpts)
	return handleApplyResult(out, applyRes, applyErr, dryRun)
}

func listFixes(out io.Writer, res *driver.Result) error {
	n := 0
	for _, d := range res.Bag.Items() {
		if len(d.Fixes) == 0 {
			continue
		}
		location := ""
		if file := res.FileSet.Get(d.Primary.File); file != nil {
			start, _ := res.FileSet.Resolve(d.Primary)
			location = fmt.Sprintf("%s:%d:%d", file.FormatPath("auto", res.FileSet.BaseDir()), start.Line, start.Col)
		}
		fmt.Fprintf(out, "%s %s: %s\n", location, d.Code.ID(), d.Message)
		for _, f := range d.Fixes {
			fmt.Fprintf(out, "  %s  %s (%s)\n", f.ID, f.Title, f.Applicability)
			n++
		}
	}
	if n == 0 {
		fmt.Fprintln(out, "No fixes available.")
	}
	return nil
}

func handleApplyResult(out io.Writer, res *fix.ApplyResult, applyErr error, dryRun bool) error {
	if res == nil {
		return applyErr
	}

	appliedVerb, updatedVerb := "Applied", "Updated files:"
	if dryRun {
		appliedVerb, updatedVerb = "Would apply", "Would update files:"
	}

	if len(res.Applied) > 0 {
		fmt.Fprintf(out, "%s %d fix(es):\n", appliedVerb, len(res.Applied))
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(out, "  %s [%s] %s (%d edits, %s)\n",
				item.Title, item.ID, location, item.EditCount, item.Applicability.String())
		}
	}

	if len(res.FileChanges) > 0 {
		fmt.Fprintln(out, updatedVerb)
		for _, change := range res.FileChanges {
			fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount)
		}
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintln(out, "Skipped fixes:")
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				fmt.Fprintf(out, "  [%s]: %s\n", id, skip.Reason)
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			fmt.Fprintln(out, "No applicable fixes found.")
			return nil
		}
		return applyErr
	}
	if len(res.Applied) == 0 {
		fmt.Fprintln(out, "No fixes applied.")
	}
	return nil
}
