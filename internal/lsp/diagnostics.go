package lsp

import (
	"greenlens/internal/analysis"
	"greenlens/internal/diag"
	"greenlens/internal/messages"
	"greenlens/internal/source"
)

// analyzeAndPublish runs a full pass over the current text of uri and
// publishes the result. Non-HTML documents are cleared once and then ignored.
func (s *Server) analyzeAndPublish(uri string) {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		s.mu.Unlock()
		return
	}
	snapshot := analysis.Document{
		ID:         uri,
		Path:       uriToPath(uri),
		LanguageID: doc.languageID,
		Text:       doc.text,
	}
	version := doc.version
	s.mu.Unlock()

	if snapshot.Path == "" {
		snapshot.Path = uri
	}
	if !snapshot.IsTarget() {
		s.agg.Remove(uri)
		s.mu.Lock()
		_, had := s.published[uri]
		delete(s.published, uri)
		s.mu.Unlock()
		if had {
			if err := s.sendPublish(uri, &version, nil); err != nil {
				s.log.Warn("failed to clear diagnostics", "uri", uri, "err", err)
			}
		}
		return
	}

	findings := s.agg.Analyze(snapshot)
	res, _ := s.agg.Result(uri)
	list := make([]lspDiagnostic, 0, len(findings))
	for _, d := range findings {
		list = append(list, toLSPDiagnostic(res.File, d))
	}
	s.log.Debug("analyzed", "uri", uri, "version", version, "findings", len(list))

	s.mu.Lock()
	s.published[uri] = struct{}{}
	s.mu.Unlock()
	if err := s.sendPublish(uri, &version, list); err != nil {
		s.log.Warn("failed to publish diagnostics", "uri", uri, "err", err)
	}
}

func toLSPDiagnostic(file *source.File, d diag.Diagnostic) lspDiagnostic {
	out := lspDiagnostic{
		Range:    rangeForSpan(file, d.Primary),
		Severity: lspSeverity(d.Severity),
		Code:     d.Code.String(),
		Source:   sourceName,
		Message:  d.Message,
	}
	if href := helpURL(d.Code); href != "" {
		out.CodeDescription = &codeDescription{Href: href}
	}
	return out
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return severityError
	case diag.SevWarning:
		return severityWarning
	default:
		return severityInformation
	}
}

func helpURL(code diag.Code) string {
	switch code {
	case diag.ScriptBlocking:
		return messages.ScriptInfoURL
	case diag.DivCount, diag.DivNesting:
		return messages.DOMInfoURL
	}
	return ""
}

func (s *Server) sendPublish(uri string, version *int, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	return s.sendNotification("textDocument/publishDiagnostics", publishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: list,
	})
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	if len(s.published) == 0 {
		s.mu.Unlock()
		return
	}
	prev := s.published
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	for uri := range prev {
		s.agg.Remove(uri)
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.log.Warn("failed to clear diagnostics", "uri", uri, "err", err)
		}
	}
}

// notifyUser shows a plain message without actions.
func (s *Server) notifyUser(kind int, text string) {
	if err := s.sendNotification("window/showMessage", showMessageParams{Type: kind, Message: text}); err != nil {
		s.log.Warn("failed to show message", "err", err)
	}
}
