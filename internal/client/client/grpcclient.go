// Package client talks to the gophauth gRPC endpoint and keeps the session
// tokens between calls.
package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/authrpc"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      authrpc.AuthServiceClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the access token to every call. When the
// server reports the token as expired it refreshes once and retries.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if method == authrpc.MethodRefresh {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, refresh := s.tokens()

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	if _, rerr := s.refresh(ctx, refresh); rerr != nil {
		return err
	}

	access, _ = s.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// NewAuthClient connects lazily to endpointURL. Extra dial options are
// appended to the defaults.
func NewAuthClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpointURL, err)
	}
	c.conn = conn
	c.client = authrpc.NewAuthServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

// LoggedIn reports whether a refresh token is held.
func (s *GRPCClient) LoggedIn() bool {
	_, refresh := s.tokens()
	return refresh != ""
}

func (s *GRPCClient) Signup(ctx context.Context, email, password string) (*authrpc.UserReply, error) {
	resp, err := s.client.Signup(ctx, &authrpc.SignupRequest{Email: email, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (*authrpc.LoginReply, error) {
	resp, err := s.client.Login(ctx, &authrpc.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}

	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return resp, nil
}

// Refresh exchanges the held refresh token for a new access token.
func (s *GRPCClient) Refresh(ctx context.Context) (*authrpc.RefreshReply, error) {
	_, refresh := s.tokens()
	if refresh == "" {
		return nil, ErrNotLoggedIn
	}
	resp, err := s.refresh(ctx, refresh)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) refresh(ctx context.Context, refreshToken string) (*authrpc.RefreshReply, error) {
	resp, err := s.client.Refresh(ctx, &authrpc.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	s.setTokens(resp.AccessToken, refreshToken)
	return resp, nil
}

func (s *GRPCClient) Me(ctx context.Context) (*authrpc.UserReply, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	resp, err := s.client.Me(ctx, &authrpc.MeRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &authrpc.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

// Logout forgets the held tokens. The server keeps the refresh token until
// the next login or until it expires.
func (s *GRPCClient) Logout() {
	s.setTokens("", "")
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.AlreadyExists:
		return ErrAlreadyRegistered
	case codes.InvalidArgument:
		return ErrInvalidInput
	case codes.ResourceExhausted:
		return ErrTooManyRequests
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
