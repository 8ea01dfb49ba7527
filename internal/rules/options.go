package rules

import (
	"fmt"
	"strings"

	"greenlens/internal/diag"
	"greenlens/internal/messages"
)

// Defaults used when no configuration overrides them.
const (
	DefaultEarlyBodyLine = 10
	DefaultNestingLevel  = 3
)

// Options tunes a rule pass.
type Options struct {
	// EarlyBodyLine is the last 0-based line on which a body script is still
	// considered early. Later body scripts are not evaluated.
	EarlyBodyLine int
	// NestingLevel is the div nesting level from which every div is flagged.
	NestingLevel int
	Positions    PositionMode
	// Disabled rules are skipped by Run.
	Disabled map[diag.Code]bool
	Messages *messages.Printer
}

func DefaultOptions() Options {
	return Options{
		EarlyBodyLine: DefaultEarlyBodyLine,
		NestingLevel:  DefaultNestingLevel,
		Positions:     PositionsSource,
		Messages:      messages.Default(),
	}
}

// Enabled reports whether the rule with code should run.
func (o Options) Enabled(code diag.Code) bool {
	return !o.Disabled[code]
}

func (o Options) printer() *messages.Printer {
	if o.Messages == nil {
		return messages.Default()
	}
	return o.Messages
}

func (o Options) nestingLevel() int {
	if o.NestingLevel <= 0 {
		return DefaultNestingLevel
	}
	return o.NestingLevel
}

// PositionMode selects how element ranges are recovered.
type PositionMode uint8

const (
	// PositionsSource uses the ranges recorded by the tree builder.
	PositionsSource PositionMode = iota
	// PositionsSearch locates every element by searching the document for
	// its serialized text; identical elements resolve to the first one.
	PositionsSearch
	// PositionsOrdered searches like PositionsSearch but never before the
	// previous match, so identical elements resolve in document order.
	PositionsOrdered
)

func (m PositionMode) String() string {
	switch m {
	case PositionsSource:
		return "source"
	case PositionsSearch:
		return "search"
	case PositionsOrdered:
		return "ordered"
	}
	return "unknown"
}

// ParsePositionMode parses "source", "search" or "ordered". Empty selects source.
func ParsePositionMode(s string) (PositionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "source":
		return PositionsSource, nil
	case "search":
		return PositionsSearch, nil
	case "ordered":
		return PositionsOrdered, nil
	}
	return PositionsSource, fmt.Errorf("unknown position mode %q (want source, search or ordered)", s)
}
