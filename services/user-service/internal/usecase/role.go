package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jirapatw/courselab-api/services/user-service/internal/model"
	"github.com/jirapatw/courselab-api/services/user-service/internal/repository"
	"github.com/jirapatw/courselab-api/services/user-service/pkg/types"
	"github.com/jirapatw/courselab-api/shared/middleware"
)

// auditRoleNone is recorded as the old role when the target had no claim
// yet. Authorization treats an absent claim as "user", but the audit trail
// preserves the distinction.
const auditRoleNone = "none"

func (u *rbacUsecase) SetUserRole(ctx context.Context, caller types.Caller, params SetUserRoleParams) error {
	if err := u.requireAdmin(ctx, caller); err != nil {
		return err
	}

	if params.TargetID == "" || params.Role == "" {
		return ErrTargetRoleRequired
	}

	role, err := model.ParseRole(params.Role)
	if err != nil {
		return err
	}

	target, err := u.identityRepo.GetIdentity(ctx, params.TargetID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get target identity: %w", err)
	}

	// The old role is read before the mutation so the audit entry records
	// what the claim actually was.
	oldRole := auditRoleNone
	if target.Role != "" {
		oldRole = target.Role.String()
	}

	if err := u.identityRepo.SetRoleClaim(ctx, params.TargetID, role); err != nil {
		return fmt.Errorf("set role claim: %w", err)
	}

	if err := u.profileRepo.UpdateRole(ctx, params.TargetID, repository.UpdateProfileRoleParams{
		Role:      role,
		UpdatedBy: caller.ID,
	}); err != nil {
		return fmt.Errorf("update profile record: %w", err)
	}

	if err := u.auditRepo.Append(ctx, &model.AuditEntry{
		ActorID: caller.ID,
		Action:  model.AuditActionSetUserRole,
		Details: model.AuditDetails{
			TargetID: params.TargetID,
			Email:    target.Email,
			OldRole:  oldRole,
			NewRole:  role.String(),
		},
		Timestamp: time.Now(),
		IPAddress: middleware.ClientIPFromContext(ctx),
		RequestID: middleware.RequestIDFromContext(ctx),
	}); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	return nil
}

func (u *rbacUsecase) VerifyUserRole(ctx context.Context, caller types.Caller) (*RoleVerification, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}

	identity, err := u.identityRepo.GetIdentity(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("get caller identity: %w", err)
	}

	role := identity.ResolvedRole()

	verification := &RoleVerification{
		ID:            caller.ID,
		Email:         identity.Email,
		DisplayName:   identity.DisplayName,
		Role:          role,
		EmailVerified: identity.EmailVerified,
	}

	profile, err := u.profileRepo.GetProfile(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return verification, nil
		}
		return nil, fmt.Errorf("get caller profile: %w", err)
	}

	// Profile fields overwrite the identity fields, except the role: the
	// claim stays authoritative even when the mirror is stale. Drift is
	// logged and repaired through ReconcileUserRole.
	if profile.Email != "" {
		verification.Email = profile.Email
	}
	if profile.DisplayName != "" {
		verification.DisplayName = profile.DisplayName
	}
	if !profile.CreatedAt.IsZero() {
		createdAt := profile.CreatedAt
		verification.CreatedAt = &createdAt
	}
	verification.CreatedBy = profile.CreatedBy
	if !profile.UpdatedAt.IsZero() {
		updatedAt := profile.UpdatedAt
		verification.UpdatedAt = &updatedAt
	}
	verification.UpdatedBy = profile.UpdatedBy

	if profile.Role != role {
		u.logger.Warn().
			Str("user_id", caller.ID).
			Str("claim_role", role.String()).
			Str("profile_role", profile.Role.String()).
			Msg("profile role has drifted from role claim")
	}

	return verification, nil
}

func (u *rbacUsecase) ReconcileUserRole(ctx context.Context, caller types.Caller, targetID string) (bool, error) {
	if err := u.requireAdmin(ctx, caller); err != nil {
		return false, err
	}

	if targetID == "" {
		return false, ErrTargetRequired
	}

	target, err := u.identityRepo.GetIdentity(ctx, targetID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("get target identity: %w", err)
	}

	claimRole := target.ResolvedRole()

	oldRole := auditRoleNone
	profile, err := u.profileRepo.GetProfile(ctx, targetID)
	switch {
	case err != nil && errors.Is(err, mongo.ErrNoDocuments):
		// The mirror is missing entirely; rebuild it from the identity.
		if err := u.profileRepo.SetProfile(ctx, &model.Profile{
			ID:          targetID,
			Email:       target.Email,
			DisplayName: target.DisplayName,
			Role:        claimRole,
			CreatedAt:   time.Now(),
			CreatedBy:   caller.ID,
		}); err != nil {
			return false, fmt.Errorf("rebuild profile record: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("get target profile: %w", err)
	case profile.Role == claimRole:
		return false, nil
	default:
		oldRole = profile.Role.String()
		if err := u.profileRepo.UpdateRole(ctx, targetID, repository.UpdateProfileRoleParams{
			Role:      claimRole,
			UpdatedBy: caller.ID,
		}); err != nil {
			return false, fmt.Errorf("repair profile record: %w", err)
		}
	}

	if err := u.auditRepo.Append(ctx, &model.AuditEntry{
		ActorID: caller.ID,
		Action:  model.AuditActionReconcileUserRole,
		Details: model.AuditDetails{
			TargetID: targetID,
			Email:    target.Email,
			OldRole:  oldRole,
			NewRole:  claimRole.String(),
		},
		Timestamp: time.Now(),
		IPAddress: middleware.ClientIPFromContext(ctx),
		RequestID: middleware.RequestIDFromContext(ctx),
	}); err != nil {
		return false, fmt.Errorf("append audit entry: %w", err)
	}

	return true, nil
}
