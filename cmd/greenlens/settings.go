package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"greenlens/internal/config"
	"greenlens/internal/messages"
	"greenlens/internal/rules"
)

const configFileHint = config.FileName

// exitError carries a process exit code without printing anything more.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitCode(err error) int {
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// loadConfig returns the configuration selected by --config, or discovered
// upward from target. The returned path is empty when defaults are used.
func loadConfig(cmd *cobra.Command, target string) (config.Config, string, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, "", err
	}
	if explicit != "" {
		cfg, err := config.Load(explicit)
		if err != nil {
			return config.Config{}, explicit, fmt.Errorf("config: %w", err)
		}
		return cfg, explicit, nil
	}
	if target == "" {
		target = "."
	}
	cfg, path, err := config.Discover(target)
	if err != nil {
		return config.Config{}, path, fmt.Errorf("config: %w", err)
	}
	if path != "" {
		slog.Debug("config loaded", "path", path)
	}
	return cfg, path, nil
}

// ruleOptions applies the command's --locale override and converts cfg.
func ruleOptions(cmd *cobra.Command, cfg config.Config) (rules.Options, *messages.Printer, error) {
	if f := cmd.Flags().Lookup("locale"); f != nil && f.Changed {
		cfg.Output.Locale = f.Value.String()
	}
	p := messages.NewPrinter(cfg.Output.Locale)
	opts, err := cfg.RuleOptions(p)
	if err != nil {
		return rules.Options{}, nil, fmt.Errorf("config: %w", err)
	}
	return opts, p, nil
}

// excludeFunc matches paths relative to the scanned directory.
func excludeFunc(cfg config.Config) func(rel string) bool {
	if len(cfg.Scan.Exclude) == 0 {
		return nil
	}
	return cfg.Excluded
}

func colorEnabled(cmd *cobra.Command) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(colorFlag) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return isTerminal(os.Stdout), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
}

func quiet(cmd *cobra.Command) bool {
	q, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && q
}

// targetDir is the directory config discovery starts from.
func targetDir(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
