package diagfmt

import (
	"testing"

	"greenlens/internal/analysis"
	"greenlens/internal/diag"
	"greenlens/internal/fix"
	"greenlens/internal/rules"
	"greenlens/internal/source"
)

const samplePage = "<html>\n<head>\n  <script src=\"app.js\"></script>\n</head>\n<body>\n<div><div><div>x</div></div></div>\n</body>\n</html>\n"

// checkedBag analyzes content as path and returns the sorted findings with fixes.
func checkedBag(t *testing.T, fs *source.FileSet, path, content string) *diag.Bag {
	t.Helper()
	file := fs.Get(fs.AddVirtual(path, []byte(content)))
	bag := diag.NewBag(0)
	for _, d := range analysis.Check(file, rules.DefaultOptions()) {
		d.Fixes = fix.Suggest(file, d)
		bag.Add(d)
	}
	bag.Sort()
	return bag
}
