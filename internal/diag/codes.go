package diag

import (
	"fmt"
	"strings"
)

type Code uint16

const (
	UnknownCode Code = 0

	// script loading
	ScriptInfo     Code = 1000
	ScriptBlocking Code = 1001

	// DOM structure
	DOMInfo    Code = 2000
	DivCount   Code = 2001
	DivNesting Code = 2002

	IOLoadFileError Code = 4001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:     "Unknown error",
		ScriptInfo:      "Script loading information",
		ScriptBlocking:  "render-blocking external script",
		DOMInfo:         "DOM structure information",
		DivCount:        "div elements in body",
		DivNesting:      "deeply nested div",
		IOLoadFileError: "I/O load file error",
	}

	codeRule = map[Code]string{
		ScriptBlocking:  "script-blocking",
		DivCount:        "div-count",
		DivNesting:      "div-nesting",
		IOLoadFileError: "io-load",
	}
)

// Rules lists the rule codes in stable order.
func Rules() []Code {
	return []Code{ScriptBlocking, DivCount, DivNesting}
}

// ParseRule maps a rule identifier ("script-blocking") or ID ("GL1001") to its code.
func ParseRule(name string) (Code, bool) {
	name = strings.TrimSpace(name)
	for c, rule := range codeRule {
		if strings.EqualFold(rule, name) || strings.EqualFold(c.ID(), name) {
			return c, true
		}
	}
	return UnknownCode, false
}

func (c Code) ID() string {
	if c == UnknownCode {
		return "GL0000"
	}
	return fmt.Sprintf("GL%04d", int(c))
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

// String returns the rule identifier used in configuration and editor diagnostics.
func (c Code) String() string {
	if r, ok := codeRule[c]; ok {
		return r
	}
	return "unknown"
}
