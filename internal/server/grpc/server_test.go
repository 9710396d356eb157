package grpc

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/authrpc"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

var testNow = time.Unix(1_700_000_000, 0)

type fakeAuth struct {
	registerUser *models.User
	registerErr  error
	registerArgs []string

	loginPair *services.TokenPair
	loginErr  error

	refreshOut *services.AccessToken
	refreshErr error
}

func (f *fakeAuth) Register(_ context.Context, email, password string) (*models.User, error) {
	f.registerArgs = []string{email, password}
	return f.registerUser, f.registerErr
}

func (f *fakeAuth) Login(context.Context, string, string) (*services.TokenPair, error) {
	return f.loginPair, f.loginErr
}

func (f *fakeAuth) RefreshAccessToken(context.Context, string) (*services.AccessToken, error) {
	return f.refreshOut, f.refreshErr
}

func newTestCodec(t *testing.T, now time.Time) *auth.Codec {
	t.Helper()
	p, err := auth.NewPolicy(bytes.Repeat([]byte("k"), 32), "test", 300*time.Second, time.Hour)
	require.NoError(t, err)
	return auth.NewCodec(p, auth.WithClock(func() time.Time { return now }))
}

// startServer serves fa over an in-memory listener and returns a client.
func startServer(t *testing.T, fa *fakeAuth, codec *auth.Codec) authrpc.AuthServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer("bufnet", logging.Nop(), fa, auth.NewExtractor(codec, logging.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})

	return authrpc.NewAuthServiceClient(conn)
}

func withToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, token)
}

func TestSignup_Success(t *testing.T) {
	fa := &fakeAuth{registerUser: &models.User{ID: 3, Email: "a@b.com", Roles: []string{"ROLE_USER"}}}
	c := startServer(t, fa, newTestCodec(t, testNow))

	resp, err := c.Signup(context.Background(), &authrpc.SignupRequest{Email: "a@b.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.ID)
	assert.Equal(t, []string{"ROLE_USER"}, resp.Roles)
	assert.Equal(t, []string{"a@b.com", "password1"}, fa.registerArgs)
}

func TestSignup_RejectsBadInputBeforeService(t *testing.T) {
	fa := &fakeAuth{}
	c := startServer(t, fa, newTestCodec(t, testNow))

	tests := []struct {
		name string
		req  *authrpc.SignupRequest
	}{
		{"bad email", &authrpc.SignupRequest{Email: "nope", Password: "password1"}},
		{"short password", &authrpc.SignupRequest{Email: "a@b.com", Password: "short"}},
		{"display name", &authrpc.SignupRequest{Email: "Bob <bob@x.com>", Password: "password1"}},
		{"angle brackets", &authrpc.SignupRequest{Email: "<bob@x.com>", Password: "password1"}},
		{"padded email", &authrpc.SignupRequest{Email: " bob@x.com", Password: "password1"}},
		{"password over bcrypt limit", &authrpc.SignupRequest{Email: "a@b.com", Password: strings.Repeat("x", 73)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Signup(context.Background(), tt.req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
	assert.Nil(t, fa.registerArgs)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    codes.Code
		message string
	}{
		{"duplicate", common.ErrDuplicateEmail, codes.AlreadyExists, "email_already_registered"},
		{"invalid input", common.ErrInvalidInput, codes.InvalidArgument, "invalid_request"},
		{"bad credentials", common.ErrInvalidCredentials, codes.Unauthenticated, "unauthorized"},
		{"rate limited", common.NewKindError(common.ErrRateLimited, "slow down"), codes.ResourceExhausted, "too_many_requests"},
		{"internal", assert.AnError, codes.Internal, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := startServer(t, &fakeAuth{registerErr: tt.err}, newTestCodec(t, testNow))

			_, err := c.Signup(context.Background(), &authrpc.SignupRequest{Email: "a@b.com", Password: "password1"})
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
			assert.Equal(t, tt.message, st.Message())
		})
	}
}

func TestLogin_ReturnsPair(t *testing.T) {
	fa := &fakeAuth{loginPair: &services.TokenPair{
		UserID: 1, Email: "a@b.com", AccessToken: "at", AccessTokenExpiresIn: 300,
		RefreshToken: "rt", RefreshTokenExpiresIn: 3600,
	}}
	c := startServer(t, fa, newTestCodec(t, testNow))

	resp, err := c.Login(context.Background(), &authrpc.LoginRequest{Email: "a@b.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "at", resp.AccessToken)
	assert.Equal(t, "rt", resp.RefreshToken)
	assert.Equal(t, int64(300), resp.AccessTokenExpiresIn)
	assert.Equal(t, []string{}, resp.Roles)
}

func TestRefresh(t *testing.T) {
	c := startServer(t, &fakeAuth{refreshOut: &services.AccessToken{Token: "new", ExpiresIn: 300}}, newTestCodec(t, testNow))

	resp, err := c.Refresh(context.Background(), &authrpc.RefreshRequest{RefreshToken: "rt"})
	require.NoError(t, err)
	assert.Equal(t, "new", resp.AccessToken)

	_, err = c.Refresh(context.Background(), &authrpc.RefreshRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestMe(t *testing.T) {
	codec := newTestCodec(t, testNow)
	access, _, err := codec.IssueAccess(9, "me@b.com", []string{"ROLE_USER"})
	require.NoError(t, err)
	refresh, _, err := codec.IssueRefresh(9)
	require.NoError(t, err)

	c := startServer(t, &fakeAuth{}, codec)

	t.Run("valid access token", func(t *testing.T) {
		resp, err := c.Me(withToken(context.Background(), access), &authrpc.MeRequest{})
		require.NoError(t, err)
		assert.Equal(t, int64(9), resp.ID)
		assert.Equal(t, "me@b.com", resp.Email)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := c.Me(context.Background(), &authrpc.MeRequest{})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("refresh token is not accepted", func(t *testing.T) {
		_, err := c.Me(withToken(context.Background(), refresh), &authrpc.MeRequest{})
		st, _ := status.FromError(err)
		assert.Equal(t, codes.Unauthenticated, st.Code())
		assert.Equal(t, "unauthorized", st.Message())
	})
}

func TestMe_ExpiredTokenIsAnnounced(t *testing.T) {
	issued := newTestCodec(t, testNow)
	access, _, err := issued.IssueAccess(9, "me@b.com", nil)
	require.NoError(t, err)

	c := startServer(t, &fakeAuth{}, newTestCodec(t, testNow.Add(301*time.Second)))

	_, err = c.Me(withToken(context.Background(), access), &authrpc.MeRequest{})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, common.ErrTokenExpired.Error(), st.Message())
}

func TestPing(t *testing.T) {
	c := startServer(t, &fakeAuth{}, newTestCodec(t, testNow))

	resp, err := c.Ping(context.Background(), &authrpc.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)
}

func TestRequestID_EchoedInHeader(t *testing.T) {
	c := startServer(t, &fakeAuth{}, newTestCodec(t, testNow))

	ctx := metadata.AppendToOutgoingContext(context.Background(), common.RequestIDHeaderName, "rid-7")
	var header metadata.MD
	_, err := c.Ping(ctx, &authrpc.PingRequest{}, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"rid-7"}, header.Get(common.RequestIDHeaderName))

	header = nil
	_, err = c.Ping(context.Background(), &authrpc.PingRequest{}, grpc.Header(&header))
	require.NoError(t, err)
	require.Len(t, header.Get(common.RequestIDHeaderName), 1)
	assert.NotEmpty(t, header.Get(common.RequestIDHeaderName)[0])
}

func TestRequestID_MalformedIsReplaced(t *testing.T) {
	c := startServer(t, &fakeAuth{}, newTestCodec(t, testNow))

	sent := "id with spaces"
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.RequestIDHeaderName, sent)
	var header metadata.MD
	_, err := c.Ping(ctx, &authrpc.PingRequest{}, grpc.Header(&header))
	require.NoError(t, err)

	got := header.Get(common.RequestIDHeaderName)
	require.Len(t, got, 1)
	assert.NotEqual(t, sent, got[0])
	assert.LessOrEqual(t, len(got[0]), logging.MaxRequestIDLength)
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop(), &fakeAuth{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, srv.Run(ctx))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:0", logging.Nop(), &fakeAuth{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}
