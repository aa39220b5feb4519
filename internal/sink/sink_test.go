package sink_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/malbeclabs/meshrib/api/proto"
	"github.com/malbeclabs/meshrib/internal/ribcore"
	"github.com/malbeclabs/meshrib/internal/sink"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

type fakePeerServer struct {
	proto.UnimplementedPeerServiceServer

	mu        sync.Mutex
	opens     []*proto.OpenRequest
	updates   []*proto.UpdateRequest
	keepalive int
	closes    []*proto.CloseRequest
	authHdrs  []string
	rejectAll bool
}

func (f *fakePeerServer) recordAuth(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		vals := md.Get("authorization")
		if len(vals) > 0 {
			f.authHdrs = append(f.authHdrs, vals[0])
		}
	}
}

func (f *fakePeerServer) Open(ctx context.Context, req *proto.OpenRequest) (*proto.OpenResponse, error) {
	f.recordAuth(ctx)
	f.mu.Lock()
	f.opens = append(f.opens, req)
	f.mu.Unlock()
	return &proto.OpenResponse{Accepted: !f.rejectAll}, nil
}

func (f *fakePeerServer) Update(ctx context.Context, req *proto.UpdateRequest) (*proto.UpdateResponse, error) {
	f.recordAuth(ctx)
	f.mu.Lock()
	f.updates = append(f.updates, req)
	f.mu.Unlock()
	return &proto.UpdateResponse{Accepted: !f.rejectAll}, nil
}

func (f *fakePeerServer) Keepalive(ctx context.Context, req *proto.KeepaliveRequest) (*proto.KeepaliveResponse, error) {
	f.mu.Lock()
	f.keepalive++
	f.mu.Unlock()
	return &proto.KeepaliveResponse{Accepted: !f.rejectAll}, nil
}

func (f *fakePeerServer) Close(ctx context.Context, req *proto.CloseRequest) (*proto.CloseResponse, error) {
	f.mu.Lock()
	f.closes = append(f.closes, req)
	f.mu.Unlock()
	return &proto.CloseResponse{Accepted: !f.rejectAll}, nil
}

// newTestServer starts a PeerService backed by fakePeerServer over an
// in-memory bufconn listener, grounded on the pack's bufconn + passthrough
// dialer pattern for exercising a real gRPC server without a TCP port.
func newTestServer(t *testing.T, srv *fakePeerServer) sink.Dialer {
	t.Helper()
	listener := bufconn.Listen(1024 * 1024)
	server := grpc.NewServer()
	proto.RegisterPeerServiceServer(server, srv)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	return func(ctx context.Context, endpoint string) (*grpc.ClientConn, error) {
		opts := []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
				return listener.Dial()
			}),
		}
		return grpc.NewClient("passthrough://bufnet", opts...)
	}
}

func TestSink_FanOut_SendsOpen(t *testing.T) {
	srv := &fakePeerServer{}
	dialer := newTestServer(t, srv)
	s := sink.New(sink.Config{NodeName: "A", Dialer: dialer}, nil)

	outcomes := s.FanOut(context.Background(), []ribcore.Propagation{
		{Kind: ribcore.PropagationOpen, Peer: ribcore.PeerRecord{Name: "B", Endpoint: "bufnet", PeerToken: "tok-b"}, LocalNode: "A"},
	})

	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	require.False(t, outcomes[0].Rejected)
	require.Len(t, srv.opens, 1)
	require.Equal(t, "A", srv.opens[0].NodeName)
	require.Contains(t, srv.authHdrs, "Bearer tok-b")
}

func TestSink_FanOut_UsesNodeTokenFallback(t *testing.T) {
	srv := &fakePeerServer{}
	dialer := newTestServer(t, srv)
	s := sink.New(sink.Config{NodeName: "A", NodeToken: "node-tok", Dialer: dialer}, nil)

	outcomes := s.FanOut(context.Background(), []ribcore.Propagation{
		{Kind: ribcore.PropagationOpen, Peer: ribcore.PeerRecord{Name: "B", Endpoint: "bufnet"}, LocalNode: "A"},
	})

	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	require.Contains(t, srv.authHdrs, "Bearer node-tok")
}

func TestSink_FanOut_Update_TranslatesEntries(t *testing.T) {
	srv := &fakePeerServer{}
	dialer := newTestServer(t, srv)
	s := sink.New(sink.Config{NodeName: "A", Dialer: dialer}, nil)

	outcomes := s.FanOut(context.Background(), []ribcore.Propagation{
		{
			Kind: ribcore.PropagationUpdate,
			Peer: ribcore.PeerRecord{Name: "B", Endpoint: "bufnet", PeerToken: "tok"},
			Updates: []ribcore.UpdateEntry{
				{Action: ribcore.UpdateEntryAdd, Route: ribcore.LocalRoute{Name: "svc", Protocol: ribcore.ProtocolHTTP, EnvoyPort: 9000}, NodePath: []string{"A"}},
				{Action: ribcore.UpdateEntryRemove, Route: ribcore.LocalRoute{Name: "old"}},
			},
		},
	})

	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	require.Len(t, srv.updates, 1)
	entries := srv.updates[0].Entries
	require.Len(t, entries, 2)
	require.Equal(t, "add", entries[0].Action)
	require.Equal(t, "svc", entries[0].Name)
	require.Equal(t, 9000, entries[0].EnvoyPort)
	require.Equal(t, []string{"A"}, entries[0].NodePath)
	require.Equal(t, "remove", entries[1].Action)
}

func TestSink_FanOut_Close(t *testing.T) {
	srv := &fakePeerServer{}
	dialer := newTestServer(t, srv)
	s := sink.New(sink.Config{NodeName: "A", Dialer: dialer}, nil)

	outcomes := s.FanOut(context.Background(), []ribcore.Propagation{
		{Kind: ribcore.PropagationClose, Peer: ribcore.PeerRecord{Name: "B", Endpoint: "bufnet"}, Code: 1, Reason: "shutdown"},
	})

	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	require.Len(t, srv.closes, 1)
	require.Equal(t, 1, srv.closes[0].Code)
	require.Equal(t, "shutdown", srv.closes[0].Reason)
}

func TestSink_FanOut_RejectedByPeer(t *testing.T) {
	srv := &fakePeerServer{rejectAll: true}
	dialer := newTestServer(t, srv)
	s := sink.New(sink.Config{NodeName: "A", Dialer: dialer, ReconnectMax: 100 * time.Millisecond}, nil)

	outcomes := s.FanOut(context.Background(), []ribcore.Propagation{
		{Kind: ribcore.PropagationOpen, Peer: ribcore.PeerRecord{Name: "B", Endpoint: "bufnet"}},
	})

	require.Len(t, outcomes, 1)
	require.True(t, outcomes[0].Rejected)
	require.Error(t, outcomes[0].Err)
}

func TestSink_FanOut_MultiplePeersConcurrently(t *testing.T) {
	srvB := &fakePeerServer{}
	srvC := &fakePeerServer{}
	dialerB := newTestServer(t, srvB)
	dialerC := newTestServer(t, srvC)

	dial := func(ctx context.Context, endpoint string) (*grpc.ClientConn, error) {
		if endpoint == "peer-b" {
			return dialerB(ctx, endpoint)
		}
		return dialerC(ctx, endpoint)
	}
	s := sink.New(sink.Config{NodeName: "A", Dialer: dial}, nil)

	outcomes := s.FanOut(context.Background(), []ribcore.Propagation{
		{Kind: ribcore.PropagationKeepalive, Peer: ribcore.PeerRecord{Name: "B", Endpoint: "peer-b"}},
		{Kind: ribcore.PropagationKeepalive, Peer: ribcore.PeerRecord{Name: "C", Endpoint: "peer-c"}},
	})

	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		require.NoError(t, o.Err)
	}
	require.Equal(t, 1, srvB.keepalive)
	require.Equal(t, 1, srvC.keepalive)
}

func TestSink_FanOut_ReusesConnectionPerEndpoint(t *testing.T) {
	srv := &fakePeerServer{}
	dialCount := 0
	baseDialer := newTestServer(t, srv)
	dial := func(ctx context.Context, endpoint string) (*grpc.ClientConn, error) {
		dialCount++
		return baseDialer(ctx, endpoint)
	}
	s := sink.New(sink.Config{NodeName: "A", Dialer: dial}, nil)

	for i := 0; i < 3; i++ {
		outcomes := s.FanOut(context.Background(), []ribcore.Propagation{
			{Kind: ribcore.PropagationKeepalive, Peer: ribcore.PeerRecord{Name: "B", Endpoint: "bufnet"}},
		})
		require.NoError(t, outcomes[0].Err)
	}

	require.Equal(t, 1, dialCount)
	require.NoError(t, s.Close())
}
