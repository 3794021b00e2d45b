package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"ReelMarket/pkg/correlation"

	"github.com/gin-gonic/gin"
)

const maxBody = 8 * 1024 // 8KB

func limit(b []byte) []byte {
	if len(b) > maxBody {
		return b[:maxBody]
	}
	return b
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// CorrelationMiddleware extracts X-Correlation-ID from request header or generates a new one.
// It stores the ID in the request context and echoes it in the response header.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		corrID := c.GetHeader(correlation.HeaderName)
		if corrID == "" {
			corrID = correlation.NewID()
		}

		ctx := correlation.WithID(c.Request.Context(), corrID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(correlation.HeaderName, corrID)

		c.Next()
	}
}

// RequestLogger logs every request. Bodies are attached only for responses
// with status >= 400, and never for paths listed in skipBodies (webhook
// payloads, secrets).
func RequestLogger(skipBodies ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipBodies))
	for _, p := range skipBodies {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		responseBuffer := &bytes.Buffer{}
		c.Writer = &responseBodyWriter{
			body:           responseBuffer,
			ResponseWriter: c.Writer,
		}

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		}

		if _, skipped := skip[c.FullPath()]; !skipped && status >= 400 {
			attrs = append(attrs,
				"request_body", maybeJSON(limit(requestBody)),
				"response_body", maybeJSON(limit(responseBuffer.Bytes())),
			)
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "HTTP Request", attrs...)
	}
}

// maybeJSON keeps valid JSON bodies structured in the log record.
func maybeJSON(b []byte) any {
	bb := bytes.TrimSpace(b)
	if len(bb) == 0 {
		return nil
	}
	if json.Valid(bb) {
		return json.RawMessage(bb)
	}
	return string(bb)
}
