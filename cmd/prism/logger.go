package main

import (
	"fmt"
	"os"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/logger"
)

// setupLogging initializes the logger for a run. CLI flags win over config
// file values; PRISM_LOG_LEVEL has already been folded into the config by
// the loader.
func setupLogging(cli *CLI, cfg *config.Config) (func(), error) {
	level := cli.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	file := cli.LogFile
	if file == "" {
		file = cfg.Logging.File
	}
	format := cli.LogFormat
	if format == "" {
		format = cfg.Logging.Format
	}

	parsed, err := logger.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	output := os.Stderr
	var cleanup func()
	if file != "" {
		logFile, cleanupFn, err := logger.OpenLogFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = logFile
		cleanup = cleanupFn
	}

	logger.Init(parsed, output, format)
	return cleanup, nil
}
