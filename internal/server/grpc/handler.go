package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/authrpc"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AuthService is the business API the handlers call.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*services.AccessToken, error)
}

type handler struct {
	auth   AuthService
	logger logging.Logger
}

func (h *handler) Signup(ctx context.Context, req *authrpc.SignupRequest) (*authrpc.UserReply, error) {
	if !validSignup(req) {
		return nil, status.Error(codes.InvalidArgument, "invalid_request")
	}

	user, err := h.auth.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, h.mapError(ctx, err)
	}

	return &authrpc.UserReply{ID: user.ID, Email: user.Email, Roles: nonNil(user.Roles)}, nil
}

// signupInput carries the same rules as the HTTP signup binding.
type signupInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

var validate = validator.New()

// validSignup accepts a bare email address and a password bcrypt can hash.
// The byte bound is checked separately since min/max count runes.
func validSignup(req *authrpc.SignupRequest) bool {
	if err := validate.Struct(signupInput{Email: req.Email, Password: req.Password}); err != nil {
		return false
	}
	return len(req.Password) <= password.MaxLength
}

func (h *handler) Login(ctx context.Context, req *authrpc.LoginRequest) (*authrpc.LoginReply, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "invalid_request")
	}

	pair, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, h.mapError(ctx, err)
	}

	return &authrpc.LoginReply{
		ID:                    pair.UserID,
		Email:                 pair.Email,
		Roles:                 nonNil(pair.Roles),
		AccessToken:           pair.AccessToken,
		AccessTokenExpiresIn:  pair.AccessTokenExpiresIn,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: pair.RefreshTokenExpiresIn,
	}, nil
}

func (h *handler) Refresh(ctx context.Context, req *authrpc.RefreshRequest) (*authrpc.RefreshReply, error) {
	if req.RefreshToken == "" {
		return nil, status.Error(codes.InvalidArgument, "invalid_request")
	}

	at, err := h.auth.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, h.mapError(ctx, err)
	}

	return &authrpc.RefreshReply{AccessToken: at.Token, AccessTokenExpiresIn: at.ExpiresIn}, nil
}

func (h *handler) Me(ctx context.Context, _ *authrpc.MeRequest) (*authrpc.UserReply, error) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}
	return &authrpc.UserReply{ID: p.UserID, Email: p.Email, Roles: nonNil(p.Roles)}, nil
}

func (h *handler) Ping(ctx context.Context, _ *authrpc.PingRequest) (*authrpc.PingReply, error) {
	return &authrpc.PingReply{Status: "OK"}, nil
}

// CodeFor maps a service error onto a gRPC status code.
func CodeFor(err error) codes.Code {
	switch {
	case errors.Is(err, common.ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, common.ErrConflict):
		return codes.AlreadyExists
	case errors.Is(err, common.ErrUnauthenticated):
		return codes.Unauthenticated
	case errors.Is(err, common.ErrRateLimited):
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}

func (h *handler) mapError(ctx context.Context, err error) error {
	code := CodeFor(err)
	switch code {
	case codes.InvalidArgument:
		return status.Error(code, "invalid_request")
	case codes.AlreadyExists:
		return status.Error(code, "email_already_registered")
	case codes.Unauthenticated:
		return status.Error(code, unauthenticatedMessage(err))
	case codes.ResourceExhausted:
		return status.Error(code, "too_many_requests")
	default:
		h.logger.Error(ctx, "request failed", "error", err.Error())
		return status.Error(codes.Internal, "internal_error")
	}
}

// unauthenticatedMessage keeps authentication failures indistinguishable,
// except that an expired access token is announced so clients know to
// refresh.
func unauthenticatedMessage(err error) string {
	if errors.Is(err, common.ErrTokenExpired) {
		return common.ErrTokenExpired.Error()
	}
	return "unauthorized"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
