package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PeerServiceServer is the node-to-node peering surface: one unary RPC per
// propagation kind in spec.md §6 (open/update/keepalive/close). Shaped the
// way protoc-gen-go-grpc emits a <Service>Server interface.
type PeerServiceServer interface {
	Open(context.Context, *OpenRequest) (*OpenResponse, error)
	Update(context.Context, *UpdateRequest) (*UpdateResponse, error)
	Keepalive(context.Context, *KeepaliveRequest) (*KeepaliveResponse, error)
	Close(context.Context, *CloseRequest) (*CloseResponse, error)
}

// UnimplementedPeerServiceServer can be embedded to satisfy PeerServiceServer
// ahead of implementing every method, matching the forward-compatibility
// convention of generated gRPC service code.
type UnimplementedPeerServiceServer struct{}

func (UnimplementedPeerServiceServer) Open(context.Context, *OpenRequest) (*OpenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Open not implemented")
}

func (UnimplementedPeerServiceServer) Update(context.Context, *UpdateRequest) (*UpdateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Update not implemented")
}

func (UnimplementedPeerServiceServer) Keepalive(context.Context, *KeepaliveRequest) (*KeepaliveResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Keepalive not implemented")
}

func (UnimplementedPeerServiceServer) Close(context.Context, *CloseRequest) (*CloseResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Close not implemented")
}

func RegisterPeerServiceServer(s grpc.ServiceRegistrar, srv PeerServiceServer) {
	s.RegisterService(&PeerService_ServiceDesc, srv)
}

func _PeerService_Open_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(OpenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PeerServiceServer).Open(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/meshrib.PeerService/Open"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PeerServiceServer).Open(ctx, req.(*OpenRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PeerService_Update_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PeerServiceServer).Update(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/meshrib.PeerService/Update"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PeerServiceServer).Update(ctx, req.(*UpdateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PeerService_Keepalive_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(KeepaliveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PeerServiceServer).Keepalive(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/meshrib.PeerService/Keepalive"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PeerServiceServer).Keepalive(ctx, req.(*KeepaliveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PeerService_Close_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CloseRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PeerServiceServer).Close(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/meshrib.PeerService/Close"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PeerServiceServer).Close(ctx, req.(*CloseRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var PeerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "meshrib.PeerService",
	HandlerType: (*PeerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Open", Handler: _PeerService_Open_Handler},
		{MethodName: "Update", Handler: _PeerService_Update_Handler},
		{MethodName: "Keepalive", Handler: _PeerService_Keepalive_Handler},
		{MethodName: "Close", Handler: _PeerService_Close_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "meshrib/peer.proto",
}

// PeerServiceClient is the client stub used by internal/sink to deliver
// propagations to a peer node.
type PeerServiceClient interface {
	Open(ctx context.Context, in *OpenRequest, opts ...grpc.CallOption) (*OpenResponse, error)
	Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error)
	Keepalive(ctx context.Context, in *KeepaliveRequest, opts ...grpc.CallOption) (*KeepaliveResponse, error)
	Close(ctx context.Context, in *CloseRequest, opts ...grpc.CallOption) (*CloseResponse, error)
}

type peerServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPeerServiceClient(cc grpc.ClientConnInterface) PeerServiceClient {
	return &peerServiceClient{cc: cc}
}

func (c *peerServiceClient) Open(ctx context.Context, in *OpenRequest, opts ...grpc.CallOption) (*OpenResponse, error) {
	out := new(OpenResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/meshrib.PeerService/Open", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *peerServiceClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error) {
	out := new(UpdateResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/meshrib.PeerService/Update", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *peerServiceClient) Keepalive(ctx context.Context, in *KeepaliveRequest, opts ...grpc.CallOption) (*KeepaliveResponse, error) {
	out := new(KeepaliveResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/meshrib.PeerService/Keepalive", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *peerServiceClient) Close(ctx context.Context, in *CloseRequest, opts ...grpc.CallOption) (*CloseResponse, error) {
	out := new(CloseResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/meshrib.PeerService/Close", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
