package lsp

import (
	"encoding/json"
	"errors"
	"fmt"

	"greenlens/internal/diag"
	"greenlens/internal/fix"
	"greenlens/internal/messages"
)

// Commands accepted by workspace/executeCommand.
const (
	CommandShowScriptInfo  = "greenlens.showScriptOptimizationInfo"
	CommandShowDivAnalysis = "greenlens.showDivAnalysis"
	CommandAddDefer        = "greenlens.addDeferAttribute"
	CommandAddAsync        = "greenlens.addAsyncAttribute"
	CommandConvertGrid     = "greenlens.convertToGrid"
	CommandConvertFlex     = "greenlens.convertToFlex"
)

var fixCommands = map[string]fix.Kind{
	CommandAddDefer:    fix.KindDefer,
	CommandAddAsync:    fix.KindAsync,
	CommandConvertGrid: fix.KindGrid,
	CommandConvertFlex: fix.KindFlex,
}

// Commands lists every command the server executes.
func Commands() []string {
	return []string{
		CommandShowScriptInfo,
		CommandShowDivAnalysis,
		CommandAddDefer,
		CommandAddAsync,
		CommandConvertGrid,
		CommandConvertFlex,
	}
}

var errDocumentNotOpen = errors.New("document is not open")

func (s *Server) handleExecuteCommand(msg *rpcMessage) error {
	var params executeCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	p := s.currentPrinter()

	switch params.Command {
	case CommandShowScriptInfo:
		s.showInfo(p.ScriptInfo())
		return s.sendResponse(msg.ID, nil)
	case CommandShowDivAnalysis:
		s.showInfo(p.DOMInfo())
		return s.sendResponse(msg.ID, nil)
	}

	kind, ok := fixCommands[params.Command]
	if !ok {
		return s.sendError(msg.ID, codeInvalidParams, fmt.Sprintf("unknown command %q", params.Command))
	}
	uri, edit, title, err := s.commandEdit(kind, params.Arguments)
	if err != nil {
		s.log.Warn("command failed", "command", params.Command, "err", err)
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	}
	err = s.sendRequest("workspace/applyEdit", applyWorkspaceEditParams{Label: title, Edit: *edit},
		func(result json.RawMessage, rpcErr *rpcError) {
			if rpcErr != nil {
				s.log.Warn("applyEdit failed", "uri", uri, "err", rpcErr.Message)
				return
			}
			var applied applyWorkspaceEditResult
			if err := json.Unmarshal(result, &applied); err == nil && !applied.Applied {
				s.log.Info("applyEdit rejected", "uri", uri, "reason", applied.FailureReason)
			}
		})
	if err != nil {
		return s.sendError(msg.ID, codeInternalError, err.Error())
	}
	return s.sendResponse(msg.ID, nil)
}

// commandEdit builds the edit for a fix command. Arguments are
// (uri, range, scriptText); scriptText is only read by attribute fixes and
// falls back to the document text at range.
func (s *Server) commandEdit(kind fix.Kind, args []json.RawMessage) (string, *workspaceEdit, string, error) {
	if len(args) < 2 {
		return "", nil, "", fmt.Errorf("%s: expected (uri, range[, scriptText]) arguments", kind)
	}
	var (
		rawURI string
		rng    lspRange
		text   string
	)
	if err := json.Unmarshal(args[0], &rawURI); err != nil {
		return "", nil, "", fmt.Errorf("uri argument: %w", err)
	}
	if err := json.Unmarshal(args[1], &rng); err != nil {
		return "", nil, "", fmt.Errorf("range argument: %w", err)
	}
	if len(args) > 2 {
		if err := json.Unmarshal(args[2], &text); err != nil {
			return "", nil, "", fmt.Errorf("scriptText argument: %w", err)
		}
	}

	uri := canonicalURI(rawURI)
	res, ok := s.agg.Result(uri)
	if !ok || res.File == nil {
		return "", nil, "", fmt.Errorf("%s: %w", uri, errDocumentNotOpen)
	}
	d := diag.Diagnostic{
		Code:    kind.Codes()[0],
		Primary: spanForRange(res.File, rng),
		Snippet: text,
	}
	f, err := fix.Generator{Messages: s.currentPrinter()}.Generate(res.File, d, kind)
	if err != nil {
		return "", nil, "", err
	}
	return uri, workspaceEditFor(uri, res.File, f.Edits), f.Title, nil
}

// showInfo asks the client to show info with a "Learn more" action that
// opens info.URL externally when chosen.
func (s *Server) showInfo(info messages.Info) {
	params := showMessageRequestParams{
		Type:    messageInfo,
		Message: info.Text(),
		Actions: []messageActionItem{{Title: info.LearnMore}},
	}
	err := s.sendRequest("window/showMessageRequest", params, func(result json.RawMessage, rpcErr *rpcError) {
		if rpcErr != nil {
			return
		}
		var chosen *messageActionItem
		if err := json.Unmarshal(result, &chosen); err != nil || chosen == nil || chosen.Title != info.LearnMore {
			return
		}
		if err := s.sendRequest("window/showDocument", showDocumentParams{URI: info.URL, External: true}, nil); err != nil {
			s.log.Warn("failed to open documentation", "url", info.URL, "err", err)
		}
	})
	if err != nil {
		s.log.Warn("failed to show info", "err", err)
	}
}
