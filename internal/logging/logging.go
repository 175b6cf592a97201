// Package logging provides the leveled loggers used across wavstream.
// Verbosity follows pion/logging's PION_LOG_TRACE, PION_LOG_DEBUG,
// PION_LOG_INFO, PION_LOG_WARN and PION_LOG_ERROR environment variables,
// each holding a comma separated list of scopes or "all".
package logging

import (
	"github.com/pion/logging"
)

var loggerFactory = logging.NewDefaultLoggerFactory()

// NewLogger returns a logger for the given scope.
func NewLogger(scope string) logging.LeveledLogger {
	return loggerFactory.NewLogger(scope)
}
