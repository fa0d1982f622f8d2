package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/beacons/internal/config"
)

// configureLogger creates a logger with the appropriate log level based on flags.
// --log-level takes precedence, then the configured level, then --verbose.
// Returns a configured logger or error if the log-level is invalid.
func configureLogger(cmd *cobra.Command, verboseFlagName string, configured string) (*logrus.Logger, error) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	if logLevelStr == "" {
		logLevelStr = configured
	}

	// Default to panic level (essentially silent for normal operations)
	logLevel, err := config.ParseLogLevel(logLevelStr)
	if err != nil {
		return nil, err
	}
	if logLevelStr == "" {
		// Fall back to --verbose flag if no level specified
		if verbose, _ := cmd.Flags().GetBool(verboseFlagName); verbose {
			logLevel = logrus.DebugLevel
		}
	}

	// Create logger with configured level
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(logLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger, nil
}
