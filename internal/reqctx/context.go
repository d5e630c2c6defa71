// Package reqctx carries request-scoped values used to correlate log lines.
package reqctx

import "context"

type ctxKey string

const (
	keyRID ctxKey = "rid"
	keyUID ctxKey = "uid"
)

// WithRID stores the request id assigned by the HTTP layer.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns the request id, or "-" outside a request.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	if v == "" {
		return "-"
	}
	return v
}

// WithUID stores the authenticated caller.
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, keyUID, uid)
}

// UID returns the authenticated caller if present.
func UID(ctx context.Context) string {
	v, _ := ctx.Value(keyUID).(string)
	return v
}
