package lsp

import (
	"encoding/json"
	"sort"

	"greenlens/internal/config"
	"greenlens/internal/messages"
)

// lspSettings mirrors the client's "greenlens" settings section. Unset
// fields keep the current configuration.
type lspSettings struct {
	Greenlens *greenlensSettings `json:"greenlens"`
}

type greenlensSettings struct {
	Positions     *string         `json:"positions,omitempty"`
	EarlyBodyLine *int            `json:"earlyBodyLine,omitempty"`
	NestingLevel  *int            `json:"nestingLevel,omitempty"`
	Locale        *string         `json:"locale,omitempty"`
	Rules         map[string]bool `json:"rules,omitempty"`
}

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("invalid configuration params", "err", err)
		return nil
	}
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	cfg = s.mergeSettings(cfg, params.Settings)
	if err := s.setConfig(cfg); err != nil {
		s.log.Warn("configuration rejected", "err", err)
		s.notifyUser(messageWarning, "greenlens: "+err.Error())
		return nil
	}
	s.reanalyzeOpenDocuments()
	return nil
}

// mergeSettings overlays raw settings, wrapped in "greenlens" or not, on cfg.
func (s *Server) mergeSettings(cfg config.Config, raw json.RawMessage) config.Config {
	if len(raw) == 0 {
		return cfg
	}
	var wrapped lspSettings
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		s.log.Warn("invalid settings", "err", err)
		return cfg
	}
	settings := wrapped.Greenlens
	if settings == nil {
		settings = &greenlensSettings{}
		if err := json.Unmarshal(raw, settings); err != nil {
			return cfg
		}
	}

	if settings.Positions != nil {
		cfg.Positions = *settings.Positions
	}
	if settings.EarlyBodyLine != nil {
		cfg.Thresholds.EarlyBodyLine = *settings.EarlyBodyLine
	}
	if settings.NestingLevel != nil {
		cfg.Thresholds.NestingLevel = *settings.NestingLevel
	}
	if settings.Locale != nil {
		cfg.Output.Locale = *settings.Locale
	}
	if len(settings.Rules) > 0 {
		merged := make(map[string]bool, len(cfg.Rules)+len(settings.Rules))
		for name, on := range cfg.Rules {
			merged[name] = on
		}
		for name, on := range settings.Rules {
			merged[name] = on
		}
		cfg.Rules = merged
	}
	return cfg
}

// setConfig validates cfg and makes it current for later passes.
func (s *Server) setConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	locale := cfg.Output.Locale
	if locale == "" {
		locale = s.clientLocale
	}
	s.mu.Unlock()

	p := messages.NewPrinter(locale)
	opts, err := cfg.RuleOptions(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.printer = p
	s.mu.Unlock()
	s.agg.SetOptions(opts)
	return nil
}

func (s *Server) currentPrinter() *messages.Printer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.printer
}

func (s *Server) reanalyzeOpenDocuments() {
	s.mu.Lock()
	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	s.mu.Unlock()
	sort.Strings(uris)
	for _, uri := range uris {
		s.analyzeAndPublish(uri)
	}
}
