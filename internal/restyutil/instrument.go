// Package restyutil holds the resty plumbing shared by the API clients.
package restyutil

import (
	"github.com/go-resty/resty/v2"

	"devaudience/pkg/logger"
)

// Instrument logs every completed request at debug level and every transport
// failure at error level. A nil logger makes it a no-op.
func Instrument(client *resty.Client, log logger.Logger) {
	if log == nil {
		return
	}

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		log.DebugWithFields("HTTP request completed", map[string]interface{}{
			"method":   res.Request.Method,
			"url":      res.Request.URL,
			"status":   res.StatusCode(),
			"duration": res.Time(),
		})
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		log.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
			"error":  err.Error(),
		})
	})
}

// Preview shortens a response body for error messages
func Preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
