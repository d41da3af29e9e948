// Package logging supplies the logr verbosity levels and the colored sink
// used across the decoder, mirroring the shape of iso-kit's pkg/logging.
package logging

import "github.com/go-logr/logr"

// Verbosity levels passed to logr.Logger.V(). logr treats 0 as the default
// "always shown at Info" level; higher numbers are progressively more
// verbose and are normally filtered out unless a sink opts in.
const (
	DEBUG = 1
	TRACE = 2
)

// Discard returns a no-op logger, the default used whenever a caller of
// isofs.Open does not supply one via WithLogger.
func Discard() logr.Logger {
	return logr.Discard()
}
