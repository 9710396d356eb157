package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/authrpc"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	auth      AuthService
	extractor PrincipalExtractor
	logger    logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, as AuthService, ex PrincipalExtractor) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		auth:      as,
		extractor: ex,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	authrpc.RegisterAuthServiceServer(srv, &handler{auth: s.auth, logger: s.logger})

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
