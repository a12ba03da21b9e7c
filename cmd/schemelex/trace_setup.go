package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"schemelex/internal/trace"
)

// crashRingSize is how many recent records are kept for the panic dump.
const crashRingSize = 512

// setupLogging inspects log-related flags and config and builds the logger.
func (a *app) setupLogging(cmd *cobra.Command) error {
	levelStr, err := stringSetting(cmd, "log-level", a.cfg.Log.Level)
	if err != nil {
		return err
	}
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	logFile, err := stringSetting(cmd, "log-file", a.cfg.Log.File)
	if err != nil {
		return err
	}

	cfg := trace.Config{
		Level:    level,
		Stderr:   cmd.ErrOrStderr(),
		FilePath: logFile,
		RingSize: crashRingSize,
	}
	if logFile != "" {
		// в файл пишем подробно, на экран — по уровню
		debug := slog.LevelDebug
		cfg.FileLevel = &debug
	}

	logger, err := trace.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger

	ctx := trace.WithLogger(cmd.Context(), logger.Logger)
	cmd.SetContext(ctx)
	if a.cfgPath != "" {
		logger.Debug("config loaded", "path", a.cfgPath)
	}
	return nil
}
