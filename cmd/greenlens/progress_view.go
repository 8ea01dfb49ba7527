package main

import (
	"fmt"
	"slices"
	"strings"

	"greenlens/internal/config"
)

// progressView is the resolved `--ui` / [output].progress setting, indexed
// like config.ProgressModes.
type progressView uint8

const (
	progressAuto progressView = iota
	progressOn
	progressOff
)

func parseProgressView(value string) (progressView, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return progressAuto, nil
	}
	if i := slices.Index(config.ProgressModes, v); i >= 0 {
		return progressView(i), nil
	}
	return progressAuto, fmt.Errorf("invalid progress mode %q (expected %s)", value, strings.Join(config.ProgressModes, "|"))
}

// showProgress reports whether a check renders the progress view instead
// of streaming output. Only directory checks in a human format qualify and
// quiet runs never do; auto follows whether stdout is a terminal.
func (s checkSettings) showProgress(isDir, stdoutTTY bool) bool {
	if !isDir || s.quiet || (s.format != "pretty" && s.format != "short") {
		return false
	}
	switch s.progress {
	case progressOn:
		return true
	case progressOff:
		return false
	}
	return stdoutTTY
}
