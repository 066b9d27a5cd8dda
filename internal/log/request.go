package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// RequestLogger logs start and completion of every HTTP request with its
// status and duration. Completion escalates to Warn on 4xx and Error on 5xx.
type RequestLogger struct {
	logger *Logger
}

// NewRequestLogger creates a request logger stamped with the http component.
func NewRequestLogger(logger *Logger) *RequestLogger {
	return &RequestLogger{logger: &Logger{Logger: logger.Logger, component: ComponentHTTP}}
}

// LogHTTPStart logs the start of an HTTP request
func (rl *RequestLogger) LogHTTPStart(ctx context.Context, r *http.Request, requestID, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path).
		WithRequestID(requestID).
		WithClientIP(clientIP)

	rl.logger.InfoContext(ctx, "Request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request
func (rl *RequestLogger) LogHTTPEnd(ctx context.Context, r *http.Request, requestID, clientIP string, statusCode int, duration time.Duration) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path).
		WithRequestID(requestID).
		WithClientIP(clientIP).
		WithHTTPResponse(statusCode, duration.Milliseconds(), statusCode < 400)

	args := append([]any{FieldComponent, rl.logger.component}, fields.ToSlice()...)
	rl.logger.Logger.Log(ctx, level, "Request completed", args...)
}
