package booking

import (
	"context"
	"strings"
)

type idempotencyKeyCtx struct{}

// NewContextWithIdempotencyKey marks the reservation request carried by ctx with
// a client-chosen key. Retrying Reserve under the same key returns the
// reservation committed the first time.
func NewContextWithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyCtx{}, strings.TrimSpace(key))
}

func IdempotencyKeyFromContext(ctx context.Context) (string, bool) {
	if key, ok := ctx.Value(idempotencyKeyCtx{}).(string); ok && key != "" {
		return key, true
	}

	return "", false
}
