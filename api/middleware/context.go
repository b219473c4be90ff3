package middleware

import "context"

type ctxKey string

const ctxSessionID ctxKey = "session_id"

// SessionIDFromContext returns the authenticated session id, or empty.
func SessionIDFromContext(ctx context.Context) string {
	if value, ok := ctx.Value(ctxSessionID).(string); ok {
		return value
	}
	return ""
}
