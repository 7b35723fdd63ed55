package handler

import "time"

// CreateInstructorAccountRequest is the payload for provisioning an
// instructor account.
type CreateInstructorAccountRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required"`
	DisplayName string `json:"display_name" validate:"required"`
}

// CreateInstructorAccountResponse reports the id of the provisioned
// identity.
type CreateInstructorAccountResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// SetUserRoleRequest is the payload for changing a user's role. The target
// id travels in the URL.
type SetUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user instructor admin"`
}

// SetUserRoleResponse acknowledges a role change.
type SetUserRoleResponse struct {
	Success bool `json:"success"`
}

// ReconcileUserRoleResponse reports whether the profile record had to be
// repaired.
type ReconcileUserRoleResponse struct {
	Success  bool `json:"success"`
	Repaired bool `json:"repaired"`
}

// VerifyUserRoleResponse is the merged identity/profile view returned to
// the caller. The role always reflects the resolved claim.
type VerifyUserRoleResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"display_name"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	CreatedBy     string     `json:"created_by,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	UpdatedBy     string     `json:"updated_by,omitempty"`
}

// VerifyEmailResponse acknowledges an email verification.
type VerifyEmailResponse struct {
	Success bool `json:"success"`
}
