// Package logger provides the structured logging interface used across
// devaudience. It wraps zerolog with a small field-oriented API:
//
//	log := logger.GetLogger().WithField("component", "loader")
//	log.InfoWithFields("followers loaded", map[string]interface{}{
//	    "count":    412,
//	    "degraded": 3,
//	})
//
// Console output is written to stderr; when LoggingConfig.File is set the same
// events are also appended to that file. NewNopLogger and NewTestLogger are
// meant for tests.
package logger
