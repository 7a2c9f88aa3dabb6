// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) for a CLI tool driving remote APIs.
//
// # Run Correlation
//
// The WithRunID helper attaches a generated run identifier to the logger,
// ensuring that all logs related to a specific sync run can be correlated
// after the fact.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log, runID := logger.WithRunID(log)
//	log.Info("Sync started")
package logger
