// Package lsp adapts the analysis to editors over the Language Server
// Protocol on stdio.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"

	"greenlens/internal/analysis"
	"greenlens/internal/config"
	"greenlens/internal/messages"
	"greenlens/internal/rules"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// sourceName is reported as the source of every published diagnostic.
const sourceName = "greenlens"

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	// Config supplies thresholds, rules and locale until the client sends
	// settings or the workspace carries its own .greenlens.toml.
	Config *config.Config
	Logger *slog.Logger
	// Version is reported in serverInfo.
	Version string
}

type document struct {
	languageID string
	version    int
	text       string
}

// responseHandler receives the client's answer to a server-initiated request.
type responseHandler func(result json.RawMessage, rpcErr *rpcError)

// Server handles stdio JSON-RPC for the greenlens language server. Messages
// are handled sequentially and every change is analyzed synchronously.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu                sync.Mutex
	docs              map[string]*document
	published         map[string]struct{}
	pending           map[string]responseHandler
	nextID            int64
	cfg               config.Config
	clientLocale      string
	printer           *messages.Printer
	workspaceRoot     string
	shutdownRequested bool

	agg     *analysis.Aggregator
	log     *slog.Logger
	version string
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		in:        bufio.NewReader(in),
		out:       bufio.NewWriter(out),
		docs:      make(map[string]*document),
		published: make(map[string]struct{}),
		pending:   make(map[string]responseHandler),
		log:       logger,
		version:   opts.Version,
	}
	s.agg = analysis.NewAggregator(rules.DefaultOptions())
	if err := s.setConfig(cfg); err != nil {
		s.log.Warn("invalid configuration, using defaults", "err", err)
		_ = s.setConfig(config.Default())
	}
	return s
}

// Run serves LSP requests until exit or end of input.
func (s *Server) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.Warn("failed to parse message", "err", err)
			continue
		}
		if msg.Method == "" {
			s.handleResponse(&msg)
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	s.log.Debug("message", "method", msg.Method, "request", len(msg.ID) > 0)

	s.mu.Lock()
	shuttingDown := s.shutdownRequested
	s.mu.Unlock()
	if shuttingDown && msg.Method != "exit" {
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
		}
		return nil
	}

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if shuttingDown {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	case "textDocument/codeLens":
		return s.handleCodeLens(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	s.mu.Lock()
	s.workspaceRoot = root
	s.clientLocale = params.Locale
	cfg := s.cfg
	s.mu.Unlock()

	if root != "" {
		switch found, path, err := config.Discover(root); {
		case err != nil:
			s.log.Warn("workspace configuration ignored", "root", root, "err", err)
		case path != "":
			s.log.Info("workspace configuration", "path", path)
			cfg = found
		}
	}
	if len(params.InitializationOptions) > 0 {
		cfg = s.mergeSettings(cfg, params.InitializationOptions)
	}
	if err := s.setConfig(cfg); err != nil {
		s.log.Warn("invalid configuration", "err", err)
	}

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			CodeActionProvider: &codeActionOptions{
				CodeActionKinds: []string{"quickfix", "refactor.rewrite"},
			},
			CodeLensProvider: &codeLensOptions{},
			ExecuteCommandProvider: &executeCommandOptions{
				Commands: Commands(),
			},
		},
		ServerInfo: &serverInfo{Name: sourceName, Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("invalid didOpen params", "err", err)
		return nil
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.docs[uri] = &document{
		languageID: params.TextDocument.LanguageID,
		version:    params.TextDocument.Version,
		text:       params.TextDocument.Text,
	}
	s.mu.Unlock()
	s.analyzeAndPublish(uri)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("invalid didChange params", "err", err)
		return nil
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &document{}
		s.docs[uri] = doc
	}
	doc.text = applyChanges(doc.text, params.ContentChanges)
	doc.version = params.TextDocument.Version
	s.mu.Unlock()
	s.analyzeAndPublish(uri)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("invalid didSave params", "err", err)
		return nil
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if ok && params.Text != nil {
		doc.text = *params.Text
	}
	s.mu.Unlock()
	if ok {
		s.analyzeAndPublish(uri)
	}
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("invalid didClose params", "err", err)
		return nil
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.docs, uri)
	delete(s.published, uri)
	s.mu.Unlock()
	s.agg.Remove(uri)
	if err := s.sendPublish(uri, nil, nil); err != nil {
		s.log.Warn("failed to clear diagnostics", "uri", uri, "err", err)
	}
	return nil
}

// handleResponse dispatches a client response to the pending request.
func (s *Server) handleResponse(msg *rpcMessage) {
	if len(msg.ID) == 0 {
		return
	}
	key := string(msg.ID)
	s.mu.Lock()
	handler, ok := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()
	if !ok {
		s.log.Debug("response to unknown request", "id", key)
		return
	}
	if handler != nil {
		handler(msg.Result, msg.Error)
	}
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendNotification(method string, params any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}
	return s.send(msg)
}

// sendRequest issues a server-to-client request; handler runs when the
// response arrives and may be nil.
func (s *Server) sendRequest(method string, params any, handler responseHandler) error {
	s.mu.Lock()
	s.nextID++
	id := json.RawMessage(strconv.FormatInt(s.nextID, 10))
	s.pending[string(id)] = handler
	s.mu.Unlock()

	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}
	if err := s.send(msg); err != nil {
		s.mu.Lock()
		delete(s.pending, string(id))
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}
