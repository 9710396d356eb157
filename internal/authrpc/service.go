package authrpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "gophauth.AuthService"

// Full method names, as seen by interceptors in grpc.UnaryServerInfo.
const (
	MethodSignup  = "/" + ServiceName + "/Signup"
	MethodLogin   = "/" + ServiceName + "/Login"
	MethodRefresh = "/" + ServiceName + "/Refresh"
	MethodMe      = "/" + ServiceName + "/Me"
	MethodPing    = "/" + ServiceName + "/Ping"
)

// AuthServiceServer is implemented by the gRPC transport.
type AuthServiceServer interface {
	Signup(context.Context, *SignupRequest) (*UserReply, error)
	Login(context.Context, *LoginRequest) (*LoginReply, error)
	Refresh(context.Context, *RefreshRequest) (*RefreshReply, error)
	Me(context.Context, *MeRequest) (*UserReply, error)
	Ping(context.Context, *PingRequest) (*PingReply, error)
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary adapts a typed method to grpc.MethodHandler.
func unary[Req any, Resp any](fullMethod string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Signup", Handler: unary(MethodSignup, AuthServiceServer.Signup)},
		{MethodName: "Login", Handler: unary(MethodLogin, AuthServiceServer.Login)},
		{MethodName: "Refresh", Handler: unary(MethodRefresh, AuthServiceServer.Refresh)},
		{MethodName: "Me", Handler: unary(MethodMe, AuthServiceServer.Me)},
		{MethodName: "Ping", Handler: unary(MethodPing, AuthServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/auth.json",
}

// AuthServiceClient is the client API for AuthService.
type AuthServiceClient interface {
	Signup(ctx context.Context, in *SignupRequest, opts ...grpc.CallOption) (*UserReply, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginReply, error)
	Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*RefreshReply, error)
	Me(ctx context.Context, in *MeRequest, opts ...grpc.CallOption) (*UserReply, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingReply, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authServiceClient) Signup(ctx context.Context, in *SignupRequest, opts ...grpc.CallOption) (*UserReply, error) {
	return invoke[UserReply](ctx, c.cc, MethodSignup, in, opts)
}

func (c *authServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginReply, error) {
	return invoke[LoginReply](ctx, c.cc, MethodLogin, in, opts)
}

func (c *authServiceClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*RefreshReply, error) {
	return invoke[RefreshReply](ctx, c.cc, MethodRefresh, in, opts)
}

func (c *authServiceClient) Me(ctx context.Context, in *MeRequest, opts ...grpc.CallOption) (*UserReply, error) {
	return invoke[UserReply](ctx, c.cc, MethodMe, in, opts)
}

func (c *authServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingReply, error) {
	return invoke[PingReply](ctx, c.cc, MethodPing, in, opts)
}
