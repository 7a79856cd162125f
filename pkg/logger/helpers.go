package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogPage logs one fetched page of a paginated listing
func LogPage(l Logger, api, endpoint string, page, records int) {
	l.DebugWithFields("page fetched", map[string]interface{}{
		"api":      api,
		"endpoint": endpoint,
		"page":     page,
		"records":  records,
	})
}

// LogRateLimit logs a rate-limited response before backing off
func LogRateLimit(l Logger, api string, page, attempt int, delay time.Duration) {
	l.WarnWithFields("rate limit reached, backing off", map[string]interface{}{
		"api":      api,
		"page":     page,
		"attempt":  attempt,
		"delay_ms": delay.Milliseconds(),
		"action":   "rate_limited",
	})
}

// LogDegraded logs a follower record whose detail or enrichment fetch failed
func LogDegraded(l Logger, username, stage string, err error) {
	l.WithError(err).WarnWithFields("follower record degraded", map[string]interface{}{
		"username": username,
		"stage":    stage,
	})
}

// LogCache logs a cache decision (hit, miss, write, expired)
func LogCache(l Logger, key, path, action string, rows int) {
	l.InfoWithFields("snapshot "+action, map[string]interface{}{
		"key":  key,
		"path": path,
		"rows": rows,
	})
}

// LogComponentStart logs when a pipeline stage starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("stage started", config)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
