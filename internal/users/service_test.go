package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kitarena/kitarena-backend/pkg/auth"
	"github.com/kitarena/kitarena-backend/pkg/auth/session"
	"github.com/kitarena/kitarena-backend/pkg/config"
	"github.com/kitarena/kitarena-backend/pkg/db/models"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	"github.com/kitarena/kitarena-backend/pkg/pagination"
	"github.com/kitarena/kitarena-backend/pkg/security"
)

type stubUsersRepo struct {
	createFn      func(ctx context.Context, user *models.User) (*models.User, error)
	findByIDFn    func(ctx context.Context, id uuid.UUID) (*models.User, error)
	findByEmailFn func(ctx context.Context, email string) (*models.User, error)
	listFn        func(ctx context.Context, params pagination.Params, filters ListFilters) (*UserList, error)
	updateFn      func(ctx context.Context, id uuid.UUID, updates map[string]any) error

	lastUpdates map[string]any
}

func (s *stubUsersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return user, nil
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.findByEmailFn != nil {
		return s.findByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*UserList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params, filters)
	}
	return &UserList{}, nil
}

func (s *stubUsersRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.lastUpdates = updates
	if s.updateFn != nil {
		return s.updateFn(ctx, id, updates)
	}
	return nil
}

type fakeSessions struct {
	generated []string
	revoked   []string

	rotateFn func(ctx context.Context, oldAccessID, provided string) (string, string, error)
}

func (f *fakeSessions) Generate(ctx context.Context, accessID string) (string, error) {
	f.generated = append(f.generated, accessID)
	return "refresh-" + accessID, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateFn != nil {
		return f.rotateFn(ctx, oldAccessID, provided)
	}
	return "", "", session.ErrInvalidRefreshToken
}

func (f *fakeSessions) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "kitarena-test",
		ExpirationMinutes: 60,
		RefreshTokenDays:  30,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func newUsersService(t *testing.T, repo *stubUsersRepo, sessions *fakeSessions) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error")})
	svc, err := NewService(repo, sessions, testJWTConfig(), testPasswordConfig(), logg)
	require.NoError(t, err)
	return svc
}

func seededUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	require.NoError(t, err)
	return &models.User{
		ID:           uuid.New(),
		Email:        "mario@kitarena.it",
		PasswordHash: hash,
		FirstName:    "Mario",
		LastName:     "Verdi",
		Role:         enums.UserRolePremium,
		Language:     enums.LanguageItalian,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestRegisterHashesPasswordAndDefaultsRole(t *testing.T) {
	var created *models.User
	repo := &stubUsersRepo{
		createFn: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = uuid.New()
			created = user
			return user, nil
		},
	}
	svc := newUsersService(t, repo, &fakeSessions{})

	dto, err := svc.Register(context.Background(), RegisterInput{
		Email:     "  Anna@KitArena.it ",
		Password:  "correct-horse",
		FirstName: "Anna",
		LastName:  "Bianchi",
	})
	require.NoError(t, err)

	assert.Equal(t, "anna@kitarena.it", dto.Email)
	assert.Equal(t, enums.UserRoleUser, dto.Role)
	assert.Equal(t, enums.LanguageItalian, dto.Language)
	assert.True(t, dto.IsActive)

	require.NotNil(t, created)
	assert.NotEqual(t, "correct-horse", created.PasswordHash)
	ok, err := security.VerifyPassword("correct-horse", created.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newUsersService(t, &stubUsersRepo{}, &fakeSessions{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "anna@kitarena.it",
		Password:  "short",
		FirstName: "Anna",
		LastName:  "Bianchi",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := &stubUsersRepo{
		createFn: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}
		},
	}
	svc := newUsersService(t, repo, &fakeSessions{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "anna@kitarena.it",
		Password:  "correct-horse",
		FirstName: "Anna",
		LastName:  "Bianchi",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestLoginIssuesTokenPairAndRecordsLogin(t *testing.T) {
	user := seededUser(t, "correct-horse")
	repo := &stubUsersRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, "mario@kitarena.it", email)
			return user, nil
		},
	}
	sessions := &fakeSessions{}
	svc := newUsersService(t, repo, sessions)

	result, err := svc.Login(context.Background(), "Mario@KitArena.it", "correct-horse")
	require.NoError(t, err)

	require.Len(t, sessions.generated, 1)
	assert.Equal(t, "refresh-"+sessions.generated[0], result.RefreshToken)
	assert.NotNil(t, result.User.LastLoginAt)
	assert.Contains(t, repo.lastUpdates, "last_login_at")

	claims, err := auth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.UserRolePremium, claims.Role)
	assert.Equal(t, sessions.generated[0], claims.ID)
}

func TestLoginWrongPasswordIsUnauthorized(t *testing.T) {
	user := seededUser(t, "correct-horse")
	repo := &stubUsersRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	sessions := &fakeSessions{}
	svc := newUsersService(t, repo, sessions)

	_, err := svc.Login(context.Background(), "mario@kitarena.it", "wrong-password")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	assert.Empty(t, sessions.generated)
}

func TestLoginUnknownEmailIsUnauthorized(t *testing.T) {
	svc := newUsersService(t, &stubUsersRepo{}, &fakeSessions{})

	_, err := svc.Login(context.Background(), "nobody@kitarena.it", "whatever-pass")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginDeactivatedAccountIsForbidden(t *testing.T) {
	user := seededUser(t, "correct-horse")
	user.IsActive = false
	repo := &stubUsersRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc := newUsersService(t, repo, &fakeSessions{})

	_, err := svc.Login(context.Background(), "mario@kitarena.it", "correct-horse")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestRefreshSessionRotatesAndMintsNewToken(t *testing.T) {
	user := seededUser(t, "correct-horse")
	oldAccessID := session.NewAccessID()

	expired, err := auth.MintAccessToken(testJWTConfig(), time.Now().Add(-2*time.Hour), auth.AccessTokenPayload{
		UserID:   user.ID,
		Role:     user.Role,
		Language: user.Language,
		JTI:      oldAccessID,
	})
	require.NoError(t, err)

	newAccessID := session.NewAccessID()
	sessions := &fakeSessions{
		rotateFn: func(ctx context.Context, gotAccessID, provided string) (string, string, error) {
			assert.Equal(t, oldAccessID, gotAccessID)
			assert.Equal(t, "refresh-old", provided)
			return newAccessID, "refresh-new", nil
		},
	}
	repo := &stubUsersRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			assert.Equal(t, user.ID, id)
			return user, nil
		},
	}
	svc := newUsersService(t, repo, sessions)

	result, err := svc.RefreshSession(context.Background(), expired, "refresh-old")
	require.NoError(t, err)

	assert.Equal(t, "refresh-new", result.RefreshToken)
	claims, err := auth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, newAccessID, claims.ID)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRefreshSessionRejectsBadRefreshToken(t *testing.T) {
	user := seededUser(t, "correct-horse")
	expired, err := auth.MintAccessToken(testJWTConfig(), time.Now(), auth.AccessTokenPayload{
		UserID:   user.ID,
		Role:     user.Role,
		Language: user.Language,
		JTI:      session.NewAccessID(),
	})
	require.NoError(t, err)

	svc := newUsersService(t, &stubUsersRepo{}, &fakeSessions{})

	_, err = svc.RefreshSession(context.Background(), expired, "stolen-token")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshSessionRevokesWhenAccountDeactivated(t *testing.T) {
	user := seededUser(t, "correct-horse")
	user.IsActive = false

	expired, err := auth.MintAccessToken(testJWTConfig(), time.Now(), auth.AccessTokenPayload{
		UserID:   user.ID,
		Role:     user.Role,
		Language: user.Language,
		JTI:      session.NewAccessID(),
	})
	require.NoError(t, err)

	newAccessID := session.NewAccessID()
	sessions := &fakeSessions{
		rotateFn: func(ctx context.Context, oldAccessID, provided string) (string, string, error) {
			return newAccessID, "refresh-new", nil
		},
	}
	repo := &stubUsersRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return user, nil
		},
	}
	svc := newUsersService(t, repo, sessions)

	_, err = svc.RefreshSession(context.Background(), expired, "refresh-old")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
	assert.Equal(t, []string{newAccessID}, sessions.revoked)
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &fakeSessions{}
	svc := newUsersService(t, &stubUsersRepo{}, sessions)

	require.NoError(t, svc.Logout(context.Background(), "access-123"))
	assert.Equal(t, []string{"access-123"}, sessions.revoked)
}

func TestSetRoleRequiresAdmin(t *testing.T) {
	svc := newUsersService(t, &stubUsersRepo{}, &fakeSessions{})

	_, err := svc.SetRole(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRolePremium}, uuid.New(), enums.UserRoleJournalist)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestSetRoleRejectsSelfChange(t *testing.T) {
	adminID := uuid.New()
	svc := newUsersService(t, &stubUsersRepo{}, &fakeSessions{})

	_, err := svc.SetRole(context.Background(), Actor{UserID: adminID, Role: enums.UserRoleAdmin}, adminID, enums.UserRoleUser)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestSetRolePromotesUser(t *testing.T) {
	target := seededUser(t, "correct-horse")
	repo := &stubUsersRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			target.Role = enums.UserRoleJournalist
			return target, nil
		},
	}
	svc := newUsersService(t, repo, &fakeSessions{})

	dto, err := svc.SetRole(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}, target.ID, enums.UserRoleJournalist)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleJournalist, dto.Role)
	assert.Equal(t, map[string]any{"role": enums.UserRoleJournalist}, repo.lastUpdates)
}

func TestSetActiveRejectsSelfDeactivation(t *testing.T) {
	adminID := uuid.New()
	svc := newUsersService(t, &stubUsersRepo{}, &fakeSessions{})

	_, err := svc.SetActive(context.Background(), Actor{UserID: adminID, Role: enums.UserRoleAdmin}, adminID, false)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestUpdateProfileRejectsUnknownLanguage(t *testing.T) {
	svc := newUsersService(t, &stubUsersRepo{}, &fakeSessions{})

	bad := enums.Language("de")
	_, err := svc.UpdateProfile(context.Background(), uuid.New(), UpdateProfileInput{Language: &bad})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestListUsersRequiresAdmin(t *testing.T) {
	svc := newUsersService(t, &stubUsersRepo{}, &fakeSessions{})

	_, err := svc.ListUsers(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, pagination.Params{}, ListFilters{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}
