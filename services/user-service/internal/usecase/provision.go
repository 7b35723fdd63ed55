package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jirapatw/courselab-api/services/user-service/internal/model"
	"github.com/jirapatw/courselab-api/services/user-service/pkg/types"
	"github.com/jirapatw/courselab-api/shared/middleware"
	"github.com/jirapatw/courselab-api/shared/security"
)

func (u *rbacUsecase) CreateInstructorAccount(
	ctx context.Context,
	caller types.Caller,
	params CreateInstructorAccountParams,
) (string, error) {
	if err := u.requireAdmin(ctx, caller); err != nil {
		return "", err
	}

	if params.Email == "" || params.Password == "" || params.DisplayName == "" {
		return "", ErrInstructorFieldsRequired
	}

	if !security.IsStrongPassword(params.Password) {
		return "", ErrWeakPassword
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	// Instructors must verify their email before it counts as trusted.
	identity, err := u.identityRepo.CreateIdentity(ctx, &model.Identity{
		Email:         params.Email,
		DisplayName:   params.DisplayName,
		PasswordHash:  passwordHash,
		EmailVerified: false,
	})
	if err != nil {
		return "", fmt.Errorf("create identity: %w", err)
	}

	targetID := identity.ID.Hex()

	// Claim first, then profile. A failure between the two leaves the
	// claim authoritative and the profile reconcilable; nothing is rolled
	// back here.
	if err := u.identityRepo.SetRoleClaim(ctx, targetID, model.RoleInstructor); err != nil {
		return "", fmt.Errorf("assign instructor role claim: %w", err)
	}

	if err := u.profileRepo.SetProfile(ctx, &model.Profile{
		ID:          targetID,
		Email:       params.Email,
		DisplayName: params.DisplayName,
		Role:        model.RoleInstructor,
		CreatedAt:   time.Now(),
		CreatedBy:   caller.ID,
	}); err != nil {
		return "", fmt.Errorf("write profile record: %w", err)
	}

	if err := u.auditRepo.Append(ctx, &model.AuditEntry{
		ActorID: caller.ID,
		Action:  model.AuditActionCreateInstructor,
		Details: model.AuditDetails{
			TargetID:    targetID,
			Email:       params.Email,
			DisplayName: params.DisplayName,
		},
		Timestamp: time.Now(),
		IPAddress: middleware.ClientIPFromContext(ctx),
		RequestID: middleware.RequestIDFromContext(ctx),
	}); err != nil {
		return "", fmt.Errorf("append audit entry: %w", err)
	}

	if u.mailer != nil {
		if err := u.sendVerificationEmail(targetID, params.Email, params.DisplayName); err != nil {
			u.logger.Warn().Err(err).Str("target_id", targetID).Msg("failed to send verification email")
		}
	}

	return targetID, nil
}

func (u *rbacUsecase) sendVerificationEmail(targetID, email, displayName string) error {
	tokenStr, err := u.generateEmailVerificationToken(targetID, email)
	if err != nil {
		return err
	}

	verificationLink := fmt.Sprintf("%s?token=%s", u.userServiceCfg.AppEmailVerificationURL, tokenStr)
	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>An instructor account has been created for you on Courselab.</p>
		<p>Please click the link below to verify your email address:</p>

		<p><a href="%s">%s</a></p>

		<p>This link will expire in %s.</p>

		<p>Thank you,</p>
		<p>Courselab Team</p>
	`, displayName, verificationLink, verificationLink, u.userServiceCfg.Token.EmailVerificationTokenExpiresIn)

	return u.mailer.SendHTML([]string{email}, "Verify Your Courselab Account", htmlBody)
}

// generateEmailVerificationToken creates an email verification JWT scoped
// by its own signing secret.
func (u *rbacUsecase) generateEmailVerificationToken(targetID, email string) (string, error) {
	now := time.Now()
	claims := types.EmailVerificationClaims{
		UserID: targetID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    u.userServiceCfg.Token.Issuer,
			Audience:  jwt.ClaimStrings{u.userServiceCfg.Token.Issuer},
			Subject:   targetID,
			ExpiresAt: jwt.NewNumericDate(now.Add(u.userServiceCfg.Token.EmailVerificationTokenExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return u.jwtAuth.GenerateToken(claims, u.userServiceCfg.Token.EmailVerificationTokenSecret)
}
