package middleware

import (
	"context"

	"github.com/jirapatw/courselab-api/services/user-service/pkg/types"
)

type callerContextKey struct{}

type requestIDContextKey struct{}

type clientIPContextKey struct{}

// CallerFromContext returns the verified caller established by the auth
// middleware.
func CallerFromContext(ctx context.Context) (types.Caller, bool) {
	caller, ok := ctx.Value(callerContextKey{}).(types.Caller)
	return caller, ok
}

// RequestIDFromContext returns the request id assigned by the request id
// middleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// ClientIPFromContext returns the client address recorded for the request.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
