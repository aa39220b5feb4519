package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AdminServiceServer is the local operator surface consumed by the `meshrib
// peer`/`meshrib route` CLI subcommands — distinct from PeerServiceServer,
// which only ever talks to other mesh nodes.
type AdminServiceServer interface {
	PeerAdd(context.Context, *PeerAddRequest) (*Ack, error)
	PeerRemove(context.Context, *PeerRemoveRequest) (*Ack, error)
	PeerList(context.Context, *Ack) (*PeerListResponse, error)
	RouteAdd(context.Context, *RouteAddRequest) (*Ack, error)
	RouteRemove(context.Context, *RouteRemoveRequest) (*Ack, error)
	RouteList(context.Context, *Ack) (*RouteListResponse, error)
}

type UnimplementedAdminServiceServer struct{}

func (UnimplementedAdminServiceServer) PeerAdd(context.Context, *PeerAddRequest) (*Ack, error) {
	return nil, status.Error(codes.Unimplemented, "method PeerAdd not implemented")
}
func (UnimplementedAdminServiceServer) PeerRemove(context.Context, *PeerRemoveRequest) (*Ack, error) {
	return nil, status.Error(codes.Unimplemented, "method PeerRemove not implemented")
}
func (UnimplementedAdminServiceServer) PeerList(context.Context, *Ack) (*PeerListResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PeerList not implemented")
}
func (UnimplementedAdminServiceServer) RouteAdd(context.Context, *RouteAddRequest) (*Ack, error) {
	return nil, status.Error(codes.Unimplemented, "method RouteAdd not implemented")
}
func (UnimplementedAdminServiceServer) RouteRemove(context.Context, *RouteRemoveRequest) (*Ack, error) {
	return nil, status.Error(codes.Unimplemented, "method RouteRemove not implemented")
}
func (UnimplementedAdminServiceServer) RouteList(context.Context, *Ack) (*RouteListResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RouteList not implemented")
}

func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&AdminService_ServiceDesc, srv)
}

func _AdminService_PeerAdd_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PeerAddRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).PeerAdd(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/meshrib.AdminService/PeerAdd"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServiceServer).PeerAdd(ctx, req.(*PeerAddRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AdminService_PeerRemove_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PeerRemoveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).PeerRemove(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/meshrib.AdminService/PeerRemove"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServiceServer).PeerRemove(ctx, req.(*PeerRemoveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AdminService_PeerList_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Ack)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).PeerList(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/meshrib.AdminService/PeerList"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServiceServer).PeerList(ctx, req.(*Ack))
	}
	return interceptor(ctx, in, info, handler)
}

func _AdminService_RouteAdd_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RouteAddRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).RouteAdd(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/meshrib.AdminService/RouteAdd"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServiceServer).RouteAdd(ctx, req.(*RouteAddRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AdminService_RouteRemove_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RouteRemoveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).RouteRemove(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/meshrib.AdminService/RouteRemove"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServiceServer).RouteRemove(ctx, req.(*RouteRemoveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AdminService_RouteList_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Ack)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).RouteList(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/meshrib.AdminService/RouteList"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServiceServer).RouteList(ctx, req.(*Ack))
	}
	return interceptor(ctx, in, info, handler)
}

var AdminService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "meshrib.AdminService",
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PeerAdd", Handler: _AdminService_PeerAdd_Handler},
		{MethodName: "PeerRemove", Handler: _AdminService_PeerRemove_Handler},
		{MethodName: "PeerList", Handler: _AdminService_PeerList_Handler},
		{MethodName: "RouteAdd", Handler: _AdminService_RouteAdd_Handler},
		{MethodName: "RouteRemove", Handler: _AdminService_RouteRemove_Handler},
		{MethodName: "RouteList", Handler: _AdminService_RouteList_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "meshrib/admin.proto",
}

// AdminServiceClient is the client stub used by the `meshrib peer`/`meshrib
// route` CLI subcommands.
type AdminServiceClient interface {
	PeerAdd(ctx context.Context, in *PeerAddRequest, opts ...grpc.CallOption) (*Ack, error)
	PeerRemove(ctx context.Context, in *PeerRemoveRequest, opts ...grpc.CallOption) (*Ack, error)
	PeerList(ctx context.Context, in *Ack, opts ...grpc.CallOption) (*PeerListResponse, error)
	RouteAdd(ctx context.Context, in *RouteAddRequest, opts ...grpc.CallOption) (*Ack, error)
	RouteRemove(ctx context.Context, in *RouteRemoveRequest, opts ...grpc.CallOption) (*Ack, error)
	RouteList(ctx context.Context, in *Ack, opts ...grpc.CallOption) (*RouteListResponse, error)
}

type adminServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAdminServiceClient(cc grpc.ClientConnInterface) AdminServiceClient {
	return &adminServiceClient{cc: cc}
}

func (c *adminServiceClient) PeerAdd(ctx context.Context, in *PeerAddRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/meshrib.AdminService/PeerAdd", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminServiceClient) PeerRemove(ctx context.Context, in *PeerRemoveRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/meshrib.AdminService/PeerRemove", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminServiceClient) PeerList(ctx context.Context, in *Ack, opts ...grpc.CallOption) (*PeerListResponse, error) {
	out := new(PeerListResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/meshrib.AdminService/PeerList", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminServiceClient) RouteAdd(ctx context.Context, in *RouteAddRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/meshrib.AdminService/RouteAdd", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminServiceClient) RouteRemove(ctx context.Context, in *RouteRemoveRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/meshrib.AdminService/RouteRemove", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminServiceClient) RouteList(ctx context.Context, in *Ack, opts ...grpc.CallOption) (*RouteListResponse, error) {
	out := new(RouteListResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/meshrib.AdminService/RouteList", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
