// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"context"

	"go.uber.org/zap"
)

type (
	loggerKey    struct{}
	requestIDKey struct{}
)

// WithRequest derives a request-scoped logger from base, tagged with
// request_id when one is set, and stores both in ctx.
func WithRequest(ctx context.Context, base *zap.Logger, requestID string) context.Context {
	l := OrNop(base)
	if requestID != "" {
		l = l.With(zap.String("request_id", requestID))
		ctx = context.WithValue(ctx, requestIDKey{}, requestID)
	}
	return context.WithValue(ctx, loggerKey{}, l)
}

// RequestID returns the id stored by WithRequest, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// FromContext returns the request logger stored by WithRequest. Code
// reached outside a request gets a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
