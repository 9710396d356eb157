package logging

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// WithRequestID stores the request correlation id in ctx. Both adapters
// attach it to every record logged with that context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func withRequestID(ctx context.Context, args []any) []any {
	if id := RequestIDFromContext(ctx); id != "" {
		return append(args, "request_id", id)
	}
	return args
}

// MaxRequestIDLength bounds caller-supplied request ids.
const MaxRequestIDLength = 64

// RequestIDOrNew returns id when it is a usable correlation id: 1 to
// MaxRequestIDLength characters from [A-Za-z0-9._-]. Anything else is
// replaced by a fresh uuid so it is never echoed or logged.
func RequestIDOrNew(id string) string {
	if id == "" || len(id) > MaxRequestIDLength {
		return uuid.NewString()
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return uuid.NewString()
		}
	}
	return id
}
