// Package diag defines the finding model shared by the rules, the fix
// generator, the formatters and the language server.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning, Error. Rule findings are always warnings.
//   - Code: numeric identifier with a stable short ID ("GL1001") and a rule
//     identifier ("script-blocking") returned by String.
//   - Message: localized human text.
//   - Primary: the source.Span of the offending element.
//   - Context: placement of a script finding ("head", "early-body").
//   - Snippet: the element text the finding was located from. Fix builders
//     rewrite it instead of re-reading the document.
//   - Notes, Fixes: optional secondary spans and suggested corrections.
//
// # Fix suggestions
//
// Fix carries a Title, a Kind, an Applicability (AlwaysSafe,
// SafeWithHeuristics, ManualReview), an IsPreferred flag and concrete
// TextEdits. TextEdit.OldText guards the edit: the fix engine refuses to
// apply an edit whose span no longer holds the expected text.
//
// # Emitting
//
// Rules emit through a Reporter, usually via ReportWarning(...).WithContext(...).Emit().
// SliceReporter collects a pass into a plain slice; a Bag gathers the results
// of many files under a limit.
//
// Package diag performs no formatting or IO; rendering lives in
// internal/diagfmt and edit application in internal/fix.
package diag
