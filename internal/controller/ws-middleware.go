package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime"
	"time"

	"github.com/watchparty/synchub/internal/metrics"
	"github.com/watchparty/synchub/pkg/ctxlogger"
	"github.com/watchparty/synchub/pkg/wsrouter"
)

func (c controller) wsRequestIdWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc) wsrouter.HandlerFunc {
		return func(ctx context.Context, payload json.RawMessage) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_request_id", c.generateTimeBasedId()))
			return next(ctx, payload)
		}
	}
}

func (c controller) loggerWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc) wsrouter.HandlerFunc {
		return func(ctx context.Context, payload json.RawMessage) error {
			messageType := wsrouter.GetMessageTypeFromCtx(ctx)
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", messageType))
			c.logger.DebugContext(ctx, "websocket message received", "payload_size", len(payload))

			start := time.Now()

			err := next(ctx, payload)

			elapsed := time.Since(start)
			status := "ok"
			if err != nil {
				status = "error"
			}
			metrics.RecordWSMessage(messageType, status, elapsed)

			c.logger.InfoContext(ctx, "websocket message handled",
				"status", status,
				"processing_time_us", elapsed.Microseconds(),
				"goroutines", runtime.NumGoroutine(),
			)

			return err
		}
	}
}
