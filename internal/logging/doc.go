// Package logging provides a simple leveled logging interface for the
// image viewer.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=1. Pipeline stages log through a Component
// obtained from For so that walker, fetcher and coordinator lines can be
// told apart:
//
//	log := logging.For("fetch")
//	log.Warn("unable to fetch %s: %v", uri, err)
package logging
