package types

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the claims carried by a session access token issued by
// the identity collaborator.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// EmailVerificationClaims are the claims carried by an email verification
// token. Verification tokens are signed with their own secret so a session
// token can never be replayed as a verification link.
type EmailVerificationClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
