package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kitarena/kitarena-backend/pkg/auth"
	"github.com/kitarena/kitarena-backend/pkg/auth/session"
	"github.com/kitarena/kitarena-backend/pkg/config"
	"github.com/kitarena/kitarena-backend/pkg/db"
	"github.com/kitarena/kitarena-backend/pkg/db/models"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	"github.com/kitarena/kitarena-backend/pkg/pagination"
	"github.com/kitarena/kitarena-backend/pkg/security"
)

const minPasswordLength = 8

// sessionStore is the slice of the session manager this service needs.
type sessionStore interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service exposes account lifecycle and authentication operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*UserDTO, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshSession(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, accessID string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	ListUsers(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*UserList, error)
	SetRole(ctx context.Context, actor Actor, userID uuid.UUID, role enums.UserRole) (*UserDTO, error)
	SetActive(ctx context.Context, actor Actor, userID uuid.UUID, active bool) (*UserDTO, error)
}

type service struct {
	repo     Repository
	sessions sessionStore
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the users service with its dependencies.
func NewService(repo Repository, sessions sessionStore, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		sessions: sessions,
		jwtCfg:   jwtCfg,
		pwCfg:    pwCfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateRegistration(email, input); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         enums.UserRoleUser,
		Language:     input.Language.OrDefault(),
		IsActive:     true,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating user")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": created.ID.String()})
	s.logg.Info(ctx, "user registered")
	return FromModel(created), nil
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is deactivated")
	}

	result, err := s.issueCredentials(ctx, user, session.NewAccessID())
	if err != nil {
		return nil, err
	}

	loginAt := s.now().UTC()
	if err := s.repo.Update(ctx, user.ID, map[string]any{"last_login_at": loginAt}); err != nil {
		s.logg.Error(ctx, "recording last login failed", err)
	} else {
		result.User.LastLoginAt = &loginAt
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": user.ID.String()})
	s.logg.Info(ctx, "user logged in")
	return result, nil
}

func (s *service) RefreshSession(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	claims, err := auth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	accessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotating session")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		_ = s.sessions.Revoke(ctx, accessID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	if !user.IsActive {
		_ = s.sessions.Revoke(ctx, accessID)
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is deactivated")
	}

	signed, expiresAt, err := s.mintToken(user, accessID)
	if err != nil {
		_ = s.sessions.Revoke(ctx, accessID)
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": user.ID.String()})
	s.logg.Info(ctx, "session refreshed")
	return &AuthResult{
		User:         FromModel(user),
		AccessToken:  signed,
		RefreshToken: newRefresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking session")
	}
	return nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	updates := map[string]any{}
	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name cannot be empty")
		}
		updates["first_name"] = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name cannot be empty")
		}
		updates["last_name"] = name
	}
	if input.Language != nil {
		if !input.Language.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported language %q", *input.Language))
		}
		updates["language"] = *input.Language
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no profile fields to update")
	}

	if err := s.applyUpdate(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

func (s *service) ListUsers(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*UserList, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing users")
	}
	return list, nil
}

func (s *service) SetRole(ctx context.Context, actor Actor, userID uuid.UUID, role enums.UserRole) (*UserDTO, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown role %q", role))
	}
	if actor.UserID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot change own role")
	}

	if err := s.applyUpdate(ctx, userID, map[string]any{"role": role}); err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "role": string(role)})
	s.logg.Info(ctx, "user role changed")
	return s.GetProfile(ctx, userID)
}

func (s *service) SetActive(ctx context.Context, actor Actor, userID uuid.UUID, active bool) (*UserDTO, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if actor.UserID == userID && !active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot deactivate own account")
	}

	if err := s.applyUpdate(ctx, userID, map[string]any{"is_active": active}); err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "active": active})
	s.logg.Info(ctx, "user active flag changed")
	return s.GetProfile(ctx, userID)
}

func (s *service) issueCredentials(ctx context.Context, user *models.User, accessID string) (*AuthResult, error) {
	signed, expiresAt, err := s.mintToken(user, accessID)
	if err != nil {
		return nil, err
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating refresh session")
	}

	return &AuthResult{
		User:         FromModel(user),
		AccessToken:  signed,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *service) mintToken(user *models.User, accessID string) (string, time.Time, error) {
	now := s.now().UTC()
	signed, err := auth.MintAccessToken(s.jwtCfg, now, auth.AccessTokenPayload{
		UserID:   user.ID,
		Role:     user.Role,
		Language: user.Language,
		JTI:      accessID,
	})
	if err != nil {
		return "", time.Time{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}
	return signed, now.Add(s.jwtCfg.TokenTTL()), nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return user, nil
}

func (s *service) applyUpdate(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating user")
	}
	return nil
}

func requireAdmin(actor Actor) error {
	if actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

func validateRegistration(email string, input RegisterInput) error {
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is not valid")
	}
	if len(input.Password) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	if input.Language != "" && !input.Language.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported language %q", input.Language))
	}
	return nil
}
