package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jirapatw/courselab-api/services/user-service/internal/config"
	"github.com/jirapatw/courselab-api/services/user-service/internal/model"
	"github.com/jirapatw/courselab-api/services/user-service/internal/repository"
	"github.com/jirapatw/courselab-api/services/user-service/pkg/types"
	"github.com/jirapatw/courselab-api/shared/auth"
	"github.com/jirapatw/courselab-api/shared/mailer"
)

// RBACUsecase defines the business logic for role-based account operations.
// Every method takes the verified caller explicitly; there is no ambient
// caller state.
type RBACUsecase interface {
	// CreateInstructorAccount provisions a new instructor identity with a
	// mirrored profile record. Admin only.
	CreateInstructorAccount(ctx context.Context, caller types.Caller, params CreateInstructorAccountParams) (string, error)

	// SetUserRole changes the role claim of an existing identity and
	// updates its mirrored profile. Admin only.
	SetUserRole(ctx context.Context, caller types.Caller, params SetUserRoleParams) error

	// VerifyUserRole resolves the caller's own role and merges it with the
	// caller's profile record. Read-only.
	VerifyUserRole(ctx context.Context, caller types.Caller) (*RoleVerification, error)

	// ReconcileUserRole repairs a profile record whose mirrored role has
	// drifted from the authoritative role claim. Admin only.
	ReconcileUserRole(ctx context.Context, caller types.Caller, targetID string) (bool, error)

	// VerifyEmail confirms an identity's email address from a verification
	// token. The token itself is the credential.
	VerifyEmail(ctx context.Context, token string) error
}

// CreateInstructorAccountParams defines the parameters for provisioning an
// instructor account.
type CreateInstructorAccountParams struct {
	Email       string
	Password    string
	DisplayName string
}

// SetUserRoleParams defines the parameters for changing a user's role.
type SetUserRoleParams struct {
	TargetID string
	Role     string
}

// RoleVerification is the merged view of an identity and its profile
// record. Role always carries the claim-resolved role; a stale mirrored
// role in the profile never shadows it. Profile fields overwrite the base
// identity fields when present.
type RoleVerification struct {
	ID            string
	Email         string
	DisplayName   string
	Role          model.Role
	EmailVerified bool
	CreatedAt     *time.Time
	CreatedBy     string
	UpdatedAt     *time.Time
	UpdatedBy     string
}

var (
	ErrUnauthenticated = errors.New("you must be signed in to perform this action")

	ErrPermissionDenied = errors.New("only administrators can perform this action")

	ErrInstructorFieldsRequired = errors.New("email, password, and display name are required")

	ErrWeakPassword = errors.New(
		"password must be at least 8 characters long and include uppercase, lowercase, number, and special character",
	)

	ErrTargetRoleRequired = errors.New("user ID and role are required")

	ErrTargetRequired = errors.New("user ID is required")

	ErrUserNotFound = errors.New("user not found")

	ErrInvalidVerificationToken = errors.New("invalid email verification token")
)

type rbacUsecase struct {
	identityRepo   repository.IdentityRepository
	profileRepo    repository.ProfileRepository
	auditRepo      repository.AuditRepository
	jwtAuth        auth.JWTAuthenticator
	mailer         *mailer.Mailer
	logger         *zerolog.Logger
	userServiceCfg *config.UserServiceConfig
}

// NewRBACUsecase creates a new instance of RBACUsecase. The mailer may be
// nil, in which case verification emails are skipped.
func NewRBACUsecase(
	identityRepo repository.IdentityRepository,
	profileRepo repository.ProfileRepository,
	auditRepo repository.AuditRepository,
	jwtAuth auth.JWTAuthenticator,
	mailer *mailer.Mailer,
	logger *zerolog.Logger,
	userServiceCfg *config.UserServiceConfig,
) RBACUsecase {
	return &rbacUsecase{
		identityRepo:   identityRepo,
		profileRepo:    profileRepo,
		auditRepo:      auditRepo,
		jwtAuth:        jwtAuth,
		mailer:         mailer,
		logger:         logger,
		userServiceCfg: userServiceCfg,
	}
}

// requireAdmin checks that a verified caller is established and that the
// caller's claim-resolved role is admin. The role claim carried by the
// session token is ignored here: the identity store is the authority.
func (u *rbacUsecase) requireAdmin(ctx context.Context, caller types.Caller) error {
	if !caller.Authenticated() {
		return ErrUnauthenticated
	}

	identity, err := u.identityRepo.GetIdentity(ctx, caller.ID)
	if err != nil {
		return fmt.Errorf("resolve caller role: %w", err)
	}

	if identity.ResolvedRole() != model.RoleAdmin {
		return ErrPermissionDenied
	}

	return nil
}
