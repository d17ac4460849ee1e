// Package mwlogger provides UUID-logging to every request and every background task
package mwlogger

import (
	"context"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/helpers"
	"github.com/wb-go/wbf/zlog"
)

type ctxLoggerKey struct{}

// NewMWLogger - обёртка для логирования запросов с присвоением UUID каждому запросу и пробросу логгера в контекст запроса
func NewMWLogger(next *ginext.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Fetching/generating UUID for request
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = helpers.CreateUUID()
		}
		w.Header().Set("X-Request-Id", reqID)

		logger := zlog.Logger.With().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		r = r.WithContext(context.WithValue(r.Context(), ctxLoggerKey{}, logger))
		next.ServeHTTP(w, r)
	})
}

// WithTaskLogger - то же самое для воркера: HTTP-запроса нет, метим логи id задачи
func WithTaskLogger(ctx context.Context, taskID string) context.Context {
	logger := LoggerFromContext(ctx).With().
		Str("task_uid", taskID).
		Logger()
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// LoggerFromContext extracts logger from context - used in service-layer
func LoggerFromContext(ctx context.Context) zlog.Zerolog {
	if l, ok := ctx.Value(ctxLoggerKey{}).(zlog.Zerolog); ok {
		return l
	}
	return zlog.Logger
}
