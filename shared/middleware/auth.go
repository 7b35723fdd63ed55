package middleware

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"

	"github.com/jirapatw/courselab-api/services/user-service/pkg/types"
	"github.com/jirapatw/courselab-api/shared/auth"
	"github.com/jirapatw/courselab-api/shared/utilities"
)

// NewAuthMiddleware returns a middleware that validates the bearer session
// token and places the verified caller into the request context. Handlers
// behind it can assume an authenticated caller; routes that must stay open
// are simply mounted outside of it.
func NewAuthMiddleware(jwtAuth auth.JWTAuthenticator, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := extractCaller(r, jwtAuth, secret)
			if err != nil {
				utilities.RespondError(w, codes.Unauthenticated, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), callerContextKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractCaller(r *http.Request, jwtAuth auth.JWTAuthenticator, secret string) (types.Caller, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return types.Caller{}, errMissingAuthHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return types.Caller{}, errInvalidAuthHeader
	}

	claims := &types.SessionClaims{}
	if _, err := jwtAuth.ValidateTokenWithClaims(parts[1], secret, claims); err != nil {
		return types.Caller{}, err
	}

	if claims.UserID == "" {
		return types.Caller{}, errMissingSubject
	}

	return types.Caller{
		ID:        claims.UserID,
		RoleClaim: claims.Role,
	}, nil
}
