package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger provides structured JSON logging for the service.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger writing to stdout.
func NewLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs one HTTP request.
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScoringLogger logs one completed scoring operation.
func (l *Logger) ScoringLogger(scoreType string, developerID int64, label string, duration time.Duration) {
	l.Info("Scoring Completed",
		"score_type", scoreType,
		"developer_id", developerID,
		"label", label,
		"duration_ms", duration.Milliseconds(),
	)
}

// APIErrorLogger logs a request-scoped error.
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}

// IngestLogger logs the outcome of an ingestion run.
func (l *Logger) IngestLogger(source string, fetched, inserted int, duration time.Duration) {
	l.Info("Ingestion Completed",
		"source", source,
		"fetched", fetched,
		"inserted", inserted,
		"duration_ms", duration.Milliseconds(),
	)
}

// SystemLogger logs system-level events.
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

var startTime = time.Now()
