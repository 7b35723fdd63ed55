package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jirapatw/courselab-api/services/user-service/pkg/types"
)

func (u *rbacUsecase) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidVerificationToken
	}

	claims := &types.EmailVerificationClaims{}
	if _, err := u.jwtAuth.ValidateTokenWithClaims(
		token,
		u.userServiceCfg.Token.EmailVerificationTokenSecret,
		claims,
	); err != nil {
		return ErrInvalidVerificationToken
	}

	if claims.UserID == "" {
		return ErrInvalidVerificationToken
	}

	if err := u.identityRepo.SetEmailVerified(ctx, claims.UserID, true); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return fmt.Errorf("mark email verified: %w", err)
	}

	return nil
}
