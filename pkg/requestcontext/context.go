// Package requestcontext carries request-scoped values from middleware to the
// registry service: the authenticated caller, the request ID and the request
// clock. It does not import net/http.
package requestcontext

import (
	"context"
	"time"

	id "registrar/pkg/domain"
)

type key int

const (
	callerKey key = iota
	requestIDKey
	requestTimeKey
)

// Caller returns the authenticated caller, or the empty Identity for an
// anonymous request.
func Caller(ctx context.Context) id.Identity {
	caller, _ := ctx.Value(callerKey).(id.Identity)
	return caller
}

// Authenticated reports whether ctx carries a caller.
func Authenticated(ctx context.Context) bool {
	return Caller(ctx) != ""
}

func WithCaller(ctx context.Context, caller id.Identity) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

func RequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now returns the time pinned by the request middleware, or the wall clock
// outside a request.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
