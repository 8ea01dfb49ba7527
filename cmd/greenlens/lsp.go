package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"greenlens/internal/config"
	"greenlens/internal/lsp"
	"greenlens/internal/version"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the greenlens language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	lspCmd.Flags().String("log-file", "", "write logs to a rotating file instead of stderr")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	var cfgPtr *config.Config
	cfg, path, err := loadConfig(cmd, ".")
	switch {
	case err != nil:
		// the workspace root sent on initialize may still carry a usable file
		slog.Warn("configuration ignored", "err", err)
		cfg = config.Default()
	case path != "":
		cfgPtr = &cfg
	}

	logFile, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return err
	}
	if logFile == "" {
		logFile = cfg.LSP.LogFile
	}
	levelText := cfg.LSP.LogLevel
	if f := cmd.Root().PersistentFlags().Lookup("log-level"); f != nil && (f.Changed || levelText == "") {
		levelText = f.Value.String()
	}
	level, err := parseLogLevel(levelText)
	if err != nil {
		return err
	}

	logCfg := LogConfig{}
	if logFile != "" {
		logCfg = defaultLogConfig(logFile)
	}
	logger, closer, err := newLogger(level, logCfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger = logger.With("component", "lsp", "pid", os.Getpid())
	logger.Info("starting", "version", version.Current())

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Config:  cfgPtr,
		Logger:  logger,
		Version: version.Current(),
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
