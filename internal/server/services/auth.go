// Package services contains server-side business logic. This file implements
// AuthService, which handles signup, login with refresh-token rotation and
// minting access tokens from stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// Auth event names reported to the Recorder.
const (
	EventSignup  = "signup"
	EventLogin   = "login"
	EventRefresh = "refresh"
)

// TokenPair is the result of a successful login.
type TokenPair struct {
	UserID                int64
	Email                 string
	Roles                 []string
	AccessToken           string
	AccessTokenExpiresIn  int64
	RefreshToken          string
	RefreshTokenExpiresIn int64
}

// AccessToken is the result of a successful refresh.
type AccessToken struct {
	Token     string
	ExpiresIn int64
}

// LoginLimiter throttles repeated failed logins per key.
type LoginLimiter interface {
	// Allow returns an error matching common.ErrRateLimited while key is
	// locked out.
	Allow(ctx context.Context, key string) error
	Failure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// Recorder receives the outcome of every auth operation.
type Recorder interface {
	RecordAuthEvent(ctx context.Context, event string, err error)
}

type AuthService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	codec         *auth.Codec
	hasher        password.Hasher
	authenticator *password.Authenticator
	logger        logging.Logger
	limiter       LoginLimiter
	recorder      Recorder
	now           func() time.Time
}

type Option func(*AuthService)

func WithLoginLimiter(l LoginLimiter) Option {
	return func(s *AuthService) { s.limiter = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *AuthService) { s.recorder = r }
}

// WithClock overrides the time source used for stored refresh expiry checks.
// Pass the same clock to the codec.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, hasher password.Hasher,
	logger logging.Logger, opts ...Option) (*AuthService, error) {
	authenticator, err := password.NewAuthenticator(hasher)
	if err != nil {
		return nil, err
	}
	s := &AuthService{
		db:            db,
		repomanager:   m,
		codec:         codec,
		hasher:        hasher,
		authenticator: authenticator,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates an identity holding the default role. An email that is
// already taken yields common.ErrDuplicateEmail and writes nothing; a missing
// default role yields common.ErrRoleNotConfigured.
func (s *AuthService) Register(ctx context.Context, email, rawPassword string) (user *models.User, err error) {
	defer func() { s.record(ctx, EventSignup, err) }()

	email = normalizeEmail(email)
	if email == "" || rawPassword == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrInvalidInput)
	}
	if len(rawPassword) > password.MaxLength {
		return nil, fmt.Errorf("%w: password longer than %d bytes", common.ErrInvalidInput, password.MaxLength)
	}

	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		if _, err := users.GetUserByEmail(ctx, email); err == nil {
			return common.ErrDuplicateEmail
		} else if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("lookup user: %w", err)
		}

		role, err := s.repomanager.Roles(tx).GetByName(ctx, common.DefaultRoleName)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrRoleNotConfigured
			}
			return fmt.Errorf("lookup role: %w", err)
		}

		created, err := users.Create(ctx, &models.User{Email: email, PasswordHash: hash})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrDuplicateEmail
			}
			return fmt.Errorf("create user: %w", err)
		}
		if err := users.AddRole(ctx, created.ID, role.ID); err != nil {
			return fmt.Errorf("assign role: %w", err)
		}
		created.Roles = []string{role.Name}
		user = created
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrRoleNotConfigured) {
			s.logger.Error(ctx, "default role missing", "role", common.DefaultRoleName)
		}
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a fresh token pair. Unknown email
// and wrong password are reported identically as common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (pair *TokenPair, err error) {
	defer func() { s.record(ctx, EventLogin, err) }()

	email = normalizeEmail(email)
	if email == "" || rawPassword == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrInvalidInput)
	}

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, email); err != nil {
			return nil, err
		}
	}

	user, err := s.authenticator.Authenticate(ctx, s.repomanager.Users(s.db), email, rawPassword)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) && s.limiter != nil {
			if lerr := s.limiter.Failure(ctx, email); lerr != nil {
				s.logger.Warn(ctx, "login limiter failure", "error", lerr)
			}
		}
		return nil, err
	}

	if s.limiter != nil {
		if lerr := s.limiter.Reset(ctx, email); lerr != nil {
			s.logger.Warn(ctx, "login limiter reset", "error", lerr)
		}
	}

	return s.IssueTokens(ctx, user)
}

// IssueTokens mints an access/refresh pair for user and replaces every
// refresh record the user had with the new one, atomically. The user row is
// locked for the duration so concurrent logins serialize.
func (s *AuthService) IssueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	policy := s.codec.Policy()
	roles := auth.NormalizeRoles(user.Roles)

	access, _, err := s.codec.IssueAccess(user.ID, user.Email, roles)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshClaims, err := s.codec.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).LockByID(ctx, user.ID); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		tokens := s.repomanager.RefreshTokens(tx)
		if err := tokens.DeleteAllForUser(ctx, user.ID); err != nil {
			return fmt.Errorf("revoke refresh tokens: %w", err)
		}
		return tokens.Create(ctx, &models.RefreshToken{
			UserID:    user.ID,
			Token:     refresh,
			IssuedAt:  refreshClaims.IssuedAt.Time,
			ExpiresAt: refreshClaims.ExpiresAt.Time,
		})
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		UserID:                user.ID,
		Email:                 user.Email,
		Roles:                 roles,
		AccessToken:           access,
		AccessTokenExpiresIn:  int64(policy.AccessTTL() / time.Second),
		RefreshToken:          refresh,
		RefreshTokenExpiresIn: int64(policy.RefreshTTL() / time.Second),
	}, nil
}

// RefreshAccessToken mints a new access token for the owner of an active
// refresh token. The refresh token itself stays valid and nothing is
// written, so the call may be repeated until the token expires or a login
// rotates it out.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (out *AccessToken, err error) {
	defer func() { s.record(ctx, EventRefresh, err) }()

	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", common.ErrInvalidInput)
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rec, err := s.repomanager.RefreshTokens(tx).FindActive(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrRefreshTokenNotFound
			}
			return fmt.Errorf("find refresh token: %w", err)
		}
		if rec.ExpiredAt(s.now()) {
			return common.ErrRefreshTokenExpired
		}

		claims, err := s.codec.Decode(refreshToken)
		if err != nil {
			s.logger.Debug(ctx, "stored refresh token failed verification", "error", err)
			return common.ErrRefreshTokenInvalid
		}
		if claims.Kind() != auth.KindRefresh || claims.UserID() != rec.UserID {
			return common.ErrRefreshTokenInvalid
		}

		user, err = s.repomanager.Users(tx).GetUserByID(ctx, rec.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrRefreshTokenInvalid
			}
			return fmt.Errorf("load user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, _, err := s.codec.IssueAccess(user.ID, user.Email, user.Roles)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &AccessToken{
		Token:     token,
		ExpiresIn: int64(s.codec.Policy().AccessTTL() / time.Second),
	}, nil
}

// Me returns the authenticated principal stored in ctx.
func (s *AuthService) Me(ctx context.Context) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, common.ErrUnauthenticated
	}
	return p, nil
}

func (s *AuthService) record(ctx context.Context, event string, err error) {
	if s.recorder != nil {
		s.recorder.RecordAuthEvent(ctx, event, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
