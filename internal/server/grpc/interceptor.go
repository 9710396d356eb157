package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/authrpc"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// PrincipalExtractor verifies access tokens.
type PrincipalExtractor interface {
	Extract(ctx context.Context, token string) (*auth.Principal, error)
}

// protected lists the methods that need a verified access token.
var protected = map[string]bool{
	authrpc.MethodMe: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if !protected[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	principal, err := s.extractor.Extract(ctx, accessToken)
	if err != nil {
		s.logger.Debug(ctx, "access token rejected", "method", info.FullMethod, "reason", err.Error())
		return nil, status.Error(codes.Unauthenticated, unauthenticatedMessage(err))
	}

	return handler(auth.WithPrincipal(ctx, principal), req)
}

// loggingInterceptor tags the call with the caller's request id when it is
// well formed, or a fresh one, echoes it back in the response header and logs the outcome.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	var id string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.RequestIDHeaderName); len(values) > 0 {
			id = values[0]
		}
	}
	id = logging.RequestIDOrNew(id)
	_ = grpc.SetHeader(ctx, metadata.Pairs(common.RequestIDHeaderName, id))
	ctx = logging.WithRequestID(ctx, id)

	resp, err := handler(ctx, req)
	s.logger.Info(ctx, "grpc request",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}
