package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jirapatw/courselab-api/services/user-service/internal/config"
	"github.com/jirapatw/courselab-api/services/user-service/internal/model"
	"github.com/jirapatw/courselab-api/services/user-service/internal/repository"
	"github.com/jirapatw/courselab-api/services/user-service/internal/usecase"
	"github.com/jirapatw/courselab-api/services/user-service/pkg/types"
	"github.com/jirapatw/courselab-api/shared/auth"
	"github.com/jirapatw/courselab-api/shared/security"
)

type fakeIdentityRepo struct {
	identities map[string]*model.Identity
	getCalls   int
}

func newFakeIdentityRepo() *fakeIdentityRepo {
	return &fakeIdentityRepo{identities: make(map[string]*model.Identity)}
}

func (f *fakeIdentityRepo) CreateIdentity(_ context.Context, identity *model.Identity) (*model.Identity, error) {
	for _, existing := range f.identities {
		if existing.Email == identity.Email {
			return nil, errors.New("email address is already in use")
		}
	}

	identity.ID = bson.NewObjectID()
	now := time.Now()
	identity.CreatedAt = now
	identity.UpdatedAt = now
	f.identities[identity.ID.Hex()] = identity

	return identity, nil
}

func (f *fakeIdentityRepo) GetIdentity(_ context.Context, id string) (*model.Identity, error) {
	f.getCalls++

	identity, ok := f.identities[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	return identity, nil
}

func (f *fakeIdentityRepo) GetIdentityByEmail(_ context.Context, email string) (*model.Identity, error) {
	for _, identity := range f.identities {
		if identity.Email == email {
			return identity, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (f *fakeIdentityRepo) SetRoleClaim(_ context.Context, id string, role model.Role) error {
	identity, ok := f.identities[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	identity.Role = role
	identity.UpdatedAt = time.Now()

	return nil
}

func (f *fakeIdentityRepo) SetEmailVerified(_ context.Context, id string, verified bool) error {
	identity, ok := f.identities[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	identity.EmailVerified = verified
	identity.UpdatedAt = time.Now()

	return nil
}

type fakeProfileRepo struct {
	profiles  map[string]*model.Profile
	setErr    error
	updateErr error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (f *fakeProfileRepo) SetProfile(_ context.Context, profile *model.Profile) error {
	if f.setErr != nil {
		return f.setErr
	}

	f.profiles[profile.ID] = profile

	return nil
}

func (f *fakeProfileRepo) GetProfile(_ context.Context, id string) (*model.Profile, error) {
	profile, ok := f.profiles[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	return profile, nil
}

func (f *fakeProfileRepo) UpdateRole(_ context.Context, id string, params repository.UpdateProfileRoleParams) error {
	if f.updateErr != nil {
		return f.updateErr
	}

	profile, ok := f.profiles[id]
	if !ok {
		return mongo.ErrNoDocuments
	}

	profile.Role = params.Role
	profile.UpdatedAt = time.Now()
	profile.UpdatedBy = params.UpdatedBy

	return nil
}

type fakeAuditRepo struct {
	entries []*model.AuditEntry
}

func (f *fakeAuditRepo) Append(_ context.Context, entry *model.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type testEnv struct {
	rbac         usecase.RBACUsecase
	identityRepo *fakeIdentityRepo
	profileRepo  *fakeProfileRepo
	auditRepo    *fakeAuditRepo
	jwtAuth      auth.JWTAuthenticator
	cfg          *config.UserServiceConfig
}

func newTestEnv() *testEnv {
	identityRepo := newFakeIdentityRepo()
	profileRepo := newFakeProfileRepo()
	auditRepo := &fakeAuditRepo{}

	cfg := &config.UserServiceConfig{
		Token: config.TokenConfig{
			Issuer:                          "courselab",
			AccessTokenSecret:               "access-secret",
			EmailVerificationTokenSecret:    "verification-secret",
			EmailVerificationTokenExpiresIn: time.Hour,
		},
	}

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer)
	log := zerolog.Nop()

	return &testEnv{
		rbac:         usecase.NewRBACUsecase(identityRepo, profileRepo, auditRepo, jwtAuth, nil, &log, cfg),
		identityRepo: identityRepo,
		profileRepo:  profileRepo,
		auditRepo:    auditRepo,
		jwtAuth:      jwtAuth,
		cfg:          cfg,
	}
}

func (e *testEnv) seedIdentity(t *testing.T, email string, role model.Role) string {
	t.Helper()

	identity, err := e.identityRepo.CreateIdentity(context.Background(), &model.Identity{
		Email:       email,
		DisplayName: "Seeded User",
	})
	require.NoError(t, err)

	if role != "" {
		require.NoError(t, e.identityRepo.SetRoleClaim(context.Background(), identity.ID.Hex(), role))
	}

	return identity.ID.Hex()
}

func (e *testEnv) adminCaller(t *testing.T) types.Caller {
	t.Helper()
	return types.Caller{ID: e.seedIdentity(t, "admin@courselab.dev", model.RoleAdmin), RoleClaim: "admin"}
}

func validInstructorParams() usecase.CreateInstructorAccountParams {
	return usecase.CreateInstructorAccountParams{
		Email:       "instructor@courselab.dev",
		Password:    "Abcdef1!",
		DisplayName: "New Instructor",
	}
}

func TestCreateInstructorAccount(t *testing.T) {
	env := newTestEnv()
	admin := env.adminCaller(t)

	id, err := env.rbac.CreateInstructorAccount(context.Background(), admin, validInstructorParams())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	identity, err := env.identityRepo.GetIdentity(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, model.RoleInstructor, identity.Role)
	require.False(t, identity.EmailVerified)

	ok, err := security.VerifyPassword("Abcdef1!", identity.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	profile, err := env.profileRepo.GetProfile(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, model.RoleInstructor, profile.Role)
	require.Equal(t, "instructor@courselab.dev", profile.Email)
	require.Equal(t, admin.ID, profile.CreatedBy)
	require.False(t, profile.CreatedAt.IsZero())

	require.Len(t, env.auditRepo.entries, 1)
	entry := env.auditRepo.entries[0]
	require.Equal(t, model.AuditActionCreateInstructor, entry.Action)
	require.Equal(t, admin.ID, entry.ActorID)
	require.Equal(t, id, entry.Details.TargetID)
	require.Equal(t, "instructor@courselab.dev", entry.Details.Email)
}

func TestCreateInstructorAccountUnauthenticated(t *testing.T) {
	env := newTestEnv()

	_, err := env.rbac.CreateInstructorAccount(context.Background(), types.Caller{}, validInstructorParams())
	require.ErrorIs(t, err, usecase.ErrUnauthenticated)

	// The caller check happens before any store access.
	require.Zero(t, env.identityRepo.getCalls)
	require.Empty(t, env.identityRepo.identities)
}

func TestCreateInstructorAccountPermissionDenied(t *testing.T) {
	env := newTestEnv()

	// Permission is checked before input validation, so even a garbage
	// payload fails with PermissionDenied for a non-admin caller.
	invalidParams := usecase.CreateInstructorAccountParams{Password: "weak"}

	for _, role := range []model.Role{"", model.RoleUser, model.RoleInstructor} {
		callerID := env.seedIdentity(t, string(role)+"caller@courselab.dev", role)

		for _, params := range []usecase.CreateInstructorAccountParams{validInstructorParams(), invalidParams} {
			_, err := env.rbac.CreateInstructorAccount(context.Background(), types.Caller{ID: callerID}, params)
			require.ErrorIs(t, err, usecase.ErrPermissionDenied)
		}
	}

	require.Empty(t, env.auditRepo.entries)
}

func TestCreateInstructorAccountMissingFields(t *testing.T) {
	env := newTestEnv()
	admin := env.adminCaller(t)
	seeded := len(env.identityRepo.identities)

	tests := []usecase.CreateInstructorAccountParams{
		{Password: "Abcdef1!", DisplayName: "No Email"},
		{Email: "a@b.dev", DisplayName: "No Password"},
		{Email: "a@b.dev", Password: "Abcdef1!"},
	}

	for _, params := range tests {
		_, err := env.rbac.CreateInstructorAccount(context.Background(), admin, params)
		require.ErrorIs(t, err, usecase.ErrInstructorFieldsRequired)
	}

	require.Len(t, env.identityRepo.identities, seeded)
}

func TestCreateInstructorAccountWeakPassword(t *testing.T) {
	env := newTestEnv()
	admin := env.adminCaller(t)
	seeded := len(env.identityRepo.identities)

	params := validInstructorParams()
	params.Password = "abcdefgh"

	_, err := env.rbac.CreateInstructorAccount(context.Background(), admin, params)
	require.ErrorIs(t, err, usecase.ErrWeakPassword)
	require.Len(t, env.identityRepo.identities, seeded)
}

func TestCreateInstructorAccountDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	admin := env.adminCaller(t)

	_, err := env.rbac.CreateInstructorAccount(context.Background(), admin, validInstructorParams())
	require.NoError(t, err)

	// The identity store rejects the duplicate; the failure surfaces with
	// the underlying message and no sentinel kind.
	_, err = env.rbac.CreateInstructorAccount(context.Background(), admin, validInstructorParams())
	require.Error(t, err)
	require.ErrorContains(t, err, "already in use")
	require.Len(t, env.auditRepo.entries, 1)
}

func TestCreateInstructorAccountProfileWriteFailure(t *testing.T) {
	env := newTestEnv()
	admin := env.adminCaller(t)
	env.profileRepo.setErr = errors.New("record store unavailable")

	_, err := env.rbac.CreateInstructorAccount(context.Background(), admin, validInstructorParams())
	require.Error(t, err)

	// Claim is written before the record, so the identity keeps the
	// instructor claim even though the mirror write failed.
	identity, err := env.identityRepo.GetIdentityByEmail(context.Background(), "instructor@courselab.dev")
	require.NoError(t, err)
	require.Equal(t, model.RoleInstructor, identity.Role)
}

func TestSetUserRoleIdempotent(t *testing.T) {
	env := newTestEnv()
	admin := env.adminCaller(t)
	targetID := env.seedIdentity(t, "target@courselab.dev", "")
	require.NoError(t, env.profileRepo.SetProfile(context.Background(), &model.Profile{
		ID:   targetID,
		Role: model.RoleUser,
	}))

	params := usecase.SetUserRoleParams{TargetID: targetID, Role: "instructor"}

	require.NoError(t, env.rbac.SetUserRole(context.Background(), admin, params))
	require.NoError(t, env.rbac.SetUserRole(context.Background(), admin, params))

	identity, err := env.identityRepo.GetIdentity(context.Background(), targetID)
	require.NoError(t, err)
	require.Equal(t, model.RoleInstructor, identity.Role)

	profile, err := env.profileRepo.GetProfile(context.Background(), targetID)
	require.NoError(t, err)
	require.Equal(t, model.RoleInstructor, profile.Role)
	require.Equal(t, admin.ID, profile.UpdatedBy)

	require.Len(t, env.auditRepo.entries, 2)
	require.Equal(t, "none", env.auditRepo.entries[0].Details.OldRole)
	require.Equal(t, "instructor", env.auditRepo.entries[0].Details.NewRole)
	require.Equal(t, "instructor", env.auditRepo.entries[1].Details.OldRole)
}

func TestSetUserRoleAuditRecordsRoleBeforeMutation(t *testing.T) {
	env := newTestEnv()
	admin := env.adminCaller(t)
	targetID := env.seedIdentity(t, "target@courselab.dev", model.RoleUser)
	require.NoError(t, env.profileRepo.SetProfile(context.Background(), &model.Profile{
		ID:   targetID,
		Role: model.RoleUser,
	}))

	err := env.rbac.SetUserRole(context.Background(), admin, usecase.SetUserRoleParams{
		TargetID: targetID,
		Role:     "admin",
	})
	require.NoError(t, err)

	require.Len(t, env.auditRepo.entries, 1)
	require.Equal(t, model.AuditActionSetUserRole, env.auditRepo.entries[0].Action)
	require.Equal(t, "user", env.auditRepo.entries[0].Details.OldRole)
	require.Equal(t, "admin", env.auditRepo.entries[0].Details.NewRole)

	// The promoted user now verifies as admin.
	verification, err := env.rbac.VerifyUserRole(context.Background(), types.Caller{ID: targetID})
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, verification.Role)
}

func TestSetUserRoleProfileUpdateFailure(t *testing.T) {
	env := newTestEnv()
	admin := env.adminCaller(t)
	targetID := env.seedIdentity(t, "target@courselab.dev", "")
	require.NoError(t, env.profileRepo.SetProfile(context.Background(), &model.Profile{
		ID:   targetID,
		Role: model.RoleUser,
	}))
	env.profileRepo.updateErr = errors.New("record store unavailable")

	err := env.rbac.SetUserRole(context.Background(), admin, usecase.SetUserRoleParams{
		TargetID: targetID,
		Role:     "instructor",
	})
	require.Error(t, err)

	// Claim first, then profile: the claim mutation sticks and the drift
	// is left for reconciliation. Nothing is audited for the failed call.
	identity, err := env.identityRepo.GetIdentity(context.Background(), targetID)
	require.NoError(t, err)
	require.Equal(t, model.RoleInstructor, identity.Role)
	require.Empty(t, env.auditRepo.entries)
}

func TestSetUserRoleInvalidRole(t *testing.T) {
	env := newTestEnv()
	admin := env.adminCaller(t)
	targetID := env.seedIdentity(t, "target@courselab.dev", "")

	err := env.rbac.SetUserRole(context.Background(), admin, usecase.SetUserRoleParams{
		TargetID: targetID,
		Role:     "superuser",
	})
	require.ErrorIs(t, err, model.ErrInvalidRole)
	require.Empty(t, env.auditRepo.entries)
}

func TestSetUserRolePermissionDenied(t *testing.T) {
	env := newTestEnv()
	callerID := env.seedIdentity(t, "caller@courselab.dev", model.RoleInstructor)
	targetID := env.seedIdentity(t, "target@courselab.dev", "")

	err := env.rbac.SetUserRole(context.Background(), types.Caller{ID: callerID}, usecase.SetUserRoleParams{
		TargetID: targetID,
		Role:     "admin",
	})
	require.ErrorIs(t, err, usecase.ErrPermissionDenied)

	identity, err := env.identityRepo.GetIdentity(context.Background(), targetID)
	require.NoError(t, err)
	require.Equal(t, model.Role(""), identity.Role)
}

func TestSetUserRoleTargetNotFound(t *testing.T) {
	env := newTestEnv()
	admin := env.adminCaller(t)

	err := env.rbac.SetUserRole(context.Background(), admin, usecase.SetUserRoleParams{
		TargetID: bson.NewObjectID().Hex(),
		Role:     "instructor",
	})
	require.ErrorIs(t, err, usecase.ErrUserNotFound)
}

func TestVerifyUserRoleDefaultsToUser(t *testing.T) {
	env := newTestEnv()
	callerID := env.seedIdentity(t, "plain@courselab.dev", "")

	verification, err := env.rbac.VerifyUserRole(context.Background(), types.Caller{ID: callerID})
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, verification.Role)
	require.Equal(t, "plain@courselab.dev", verification.Email)
	require.Nil(t, verification.CreatedAt)
}

func TestVerifyUserRoleProfileNeverShadowsClaim(t *testing.T) {
	env := newTestEnv()
	callerID := env.seedIdentity(t, "caller@courselab.dev", model.RoleAdmin)

	// A stale mirror: the profile still says instructor and carries a
	// newer display name.
	require.NoError(t, env.profileRepo.SetProfile(context.Background(), &model.Profile{
		ID:          callerID,
		Email:       "caller@courselab.dev",
		DisplayName: "Renamed In Profile",
		Role:        model.RoleInstructor,
		CreatedAt:   time.Now().Add(-time.Hour),
		CreatedBy:   "bootstrap",
	}))

	verification, err := env.rbac.VerifyUserRole(context.Background(), types.Caller{ID: callerID})
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, verification.Role)
	require.Equal(t, "Renamed In Profile", verification.DisplayName)
	require.Equal(t, "bootstrap", verification.CreatedBy)
	require.NotNil(t, verification.CreatedAt)
}

func TestVerifyUserRoleUnauthenticated(t *testing.T) {
	env := newTestEnv()

	_, err := env.rbac.VerifyUserRole(context.Background(), types.Caller{})
	require.ErrorIs(t, err, usecase.ErrUnauthenticated)
}

func TestReconcileUserRole(t *testing.T) {
	env := newTestEnv()
	admin := env.adminCaller(t)
	targetID := env.seedIdentity(t, "target@courselab.dev", model.RoleAdmin)
	require.NoError(t, env.profileRepo.SetProfile(context.Background(), &model.Profile{
		ID:   targetID,
		Role: model.RoleInstructor,
	}))

	repaired, err := env.rbac.ReconcileUserRole(context.Background(), admin, targetID)
	require.NoError(t, err)
	require.True(t, repaired)

	profile, err := env.profileRepo.GetProfile(context.Background(), targetID)
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, profile.Role)

	require.Len(t, env.auditRepo.entries, 1)
	require.Equal(t, model.AuditActionReconcileUserRole, env.auditRepo.entries[0].Action)
	require.Equal(t, "instructor", env.auditRepo.entries[0].Details.OldRole)
	require.Equal(t, "admin", env.auditRepo.entries[0].Details.NewRole)

	// A consistent pair is a no-op and is not audited again.
	repaired, err = env.rbac.ReconcileUserRole(context.Background(), admin, targetID)
	require.NoError(t, err)
	require.False(t, repaired)
	require.Len(t, env.auditRepo.entries, 1)
}

func TestReconcileUserRoleRebuildsMissingProfile(t *testing.T) {
	env := newTestEnv()
	admin := env.adminCaller(t)
	targetID := env.seedIdentity(t, "target@courselab.dev", model.RoleInstructor)

	repaired, err := env.rbac.ReconcileUserRole(context.Background(), admin, targetID)
	require.NoError(t, err)
	require.True(t, repaired)

	profile, err := env.profileRepo.GetProfile(context.Background(), targetID)
	require.NoError(t, err)
	require.Equal(t, model.RoleInstructor, profile.Role)
	require.Equal(t, admin.ID, profile.CreatedBy)
}

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv()
	targetID := env.seedIdentity(t, "target@courselab.dev", model.RoleInstructor)

	now := time.Now()
	token, err := env.jwtAuth.GenerateToken(types.EmailVerificationClaims{
		UserID: targetID,
		Email:  "target@courselab.dev",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    env.cfg.Token.Issuer,
			Audience:  jwt.ClaimStrings{env.cfg.Token.Issuer},
			Subject:   targetID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}, env.cfg.Token.EmailVerificationTokenSecret)
	require.NoError(t, err)

	require.NoError(t, env.rbac.VerifyEmail(context.Background(), token))

	identity, err := env.identityRepo.GetIdentity(context.Background(), targetID)
	require.NoError(t, err)
	require.True(t, identity.EmailVerified)
}

func TestVerifyEmailInvalidToken(t *testing.T) {
	env := newTestEnv()

	require.ErrorIs(t, env.rbac.VerifyEmail(context.Background(), ""), usecase.ErrInvalidVerificationToken)
	require.ErrorIs(
		t,
		env.rbac.VerifyEmail(context.Background(), "not-a-token"),
		usecase.ErrInvalidVerificationToken,
	)
}

func TestVerifyEmailRejectsSessionSecret(t *testing.T) {
	env := newTestEnv()
	targetID := env.seedIdentity(t, "target@courselab.dev", "")

	// A session token signed with the access secret must not pass as a
	// verification link.
	now := time.Now()
	token, err := env.jwtAuth.GenerateToken(types.EmailVerificationClaims{
		UserID: targetID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    env.cfg.Token.Issuer,
			Audience:  jwt.ClaimStrings{env.cfg.Token.Issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}, env.cfg.Token.AccessTokenSecret)
	require.NoError(t, err)

	require.ErrorIs(t, env.rbac.VerifyEmail(context.Background(), token), usecase.ErrInvalidVerificationToken)
}
