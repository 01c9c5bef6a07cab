// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them, and tests
// inject them without touching net/http.
package requestcontext

import (
	"context"
	"time"

	"beatvault/pkg/domain"
)

type (
	buyerKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Buyer retrieves the authenticated buyer from the context. Returns the zero
// value when unauthenticated.
func Buyer(ctx context.Context) domain.BuyerIdentity {
	if buyer, ok := ctx.Value(buyerKey{}).(domain.BuyerIdentity); ok {
		return buyer
	}
	return domain.BuyerIdentity{}
}

// WithBuyer injects the authenticated buyer into the context.
func WithBuyer(ctx context.Context, buyer domain.BuyerIdentity) context.Context {
	return context.WithValue(ctx, buyerKey{}, buyer)
}

// RequestID retrieves the request correlation id, or "" when unset.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request correlation id into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Now returns the request-fixed time when middleware set one, otherwise the
// wall clock. Tests use WithTime for deterministic timestamps.
func Now(ctx context.Context) time.Time {
	if ts, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return ts
	}
	return time.Now()
}

// WithTime pins the request time in the context.
func WithTime(ctx context.Context, ts time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, ts)
}
