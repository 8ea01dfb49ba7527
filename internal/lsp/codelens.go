package lsp

import (
	"encoding/json"

	"greenlens/internal/markup"
	"greenlens/internal/messages"
	"greenlens/internal/rules"
)

// handleCodeLens offers an info lens on every blocking script and on the
// first div of body.
func (s *Server) handleCodeLens(msg *rpcMessage) error {
	var params codeLensParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	uri := canonicalURI(params.TextDocument.URI)
	res, ok := s.agg.Result(uri)
	if !ok || res.File == nil {
		return s.sendResponse(msg.ID, []codeLens{})
	}

	p := s.currentPrinter()
	loc := rules.NewLocator(res.File, s.agg.Options().Positions)
	doc := markup.Parse(string(res.File.Content))
	lenses := make([]codeLens, 0)

	for _, n := range rules.BlockingScripts(doc) {
		sp, ok := loc.Span(n)
		if !ok {
			continue
		}
		rng := rangeForSpan(res.File, sp)
		lenses = append(lenses, codeLens{
			Range: rng,
			Command: &command{
				Title:     p.Sprintf(messages.LensScriptInfo),
				Command:   CommandShowScriptInfo,
				Arguments: []any{uri, rng, res.File.Text(sp)},
			},
		})
	}

	if div := rules.FirstBodyDiv(doc); div != nil {
		if sp, ok := loc.Span(div); ok {
			rng := rangeForSpan(res.File, sp)
			lenses = append(lenses, codeLens{
				Range: rng,
				Command: &command{
					Title:     p.Sprintf(messages.LensDivAnalysis),
					Command:   CommandShowDivAnalysis,
					Arguments: []any{uri, rng},
				},
			})
		}
	}
	return s.sendResponse(msg.ID, lenses)
}
