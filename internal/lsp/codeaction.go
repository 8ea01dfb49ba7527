package lsp

import (
	"encoding/json"
	"strings"

	"greenlens/internal/diag"
	"greenlens/internal/fix"
	"greenlens/internal/source"
)

func (s *Server) handleCodeAction(msg *rpcMessage) error {
	var params codeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	uri := canonicalURI(params.TextDocument.URI)
	res, ok := s.agg.Result(uri)
	if !ok || res.File == nil {
		return s.sendResponse(msg.ID, []codeAction{})
	}

	gen := fix.Generator{Messages: s.currentPrinter()}
	actions := make([]codeAction, 0)
	for _, d := range res.Findings {
		ld := toLSPDiagnostic(res.File, d)
		if !rangesOverlap(ld.Range, params.Range) {
			continue
		}
		for _, f := range gen.Suggest(res.File, d) {
			kind := f.Kind.String()
			if !kindRequested(kind, params.Context.Only) {
				continue
			}
			actions = append(actions, codeAction{
				Title:       f.Title,
				Kind:        kind,
				Diagnostics: []lspDiagnostic{ld},
				IsPreferred: f.IsPreferred,
				Edit:        workspaceEditFor(uri, res.File, f.Edits),
			})
		}
	}
	return s.sendResponse(msg.ID, actions)
}

// kindRequested reports whether kind falls under one of the requested kinds;
// "refactor" covers "refactor.rewrite".
func kindRequested(kind string, only []string) bool {
	if len(only) == 0 {
		return true
	}
	for _, want := range only {
		if kind == want || strings.HasPrefix(kind, want+".") {
			return true
		}
	}
	return false
}

func workspaceEditFor(uri string, file *source.File, edits []diag.TextEdit) *workspaceEdit {
	list := make([]textEdit, 0, len(edits))
	for _, e := range edits {
		list = append(list, textEdit{
			Range:   rangeForSpan(file, e.Span),
			NewText: e.NewText,
		})
	}
	return &workspaceEdit{Changes: map[string][]textEdit{uri: list}}
}
