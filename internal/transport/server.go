// Package transport implements the node-to-node PeerService gRPC surface
// and the local AdminService surface, translating RPCs into ribcore actions
// submitted to the action queue. Styled on controller.Controller's Option +
// Run construction.
package transport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/malbeclabs/meshrib/api/proto"
	"github.com/malbeclabs/meshrib/internal/authtoken"
	"github.com/malbeclabs/meshrib/internal/ribcore"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var ErrListenerRequired = errors.New("transport: listener is required")

// Submitter is the subset of queue.Queue the server depends on.
type Submitter interface {
	SubmitWait(ctx context.Context, action ribcore.Action) (ribcore.CommitResult, error)
}

// RIBQuery is the subset of ribcore.RIB the AdminService read RPCs depend on.
type RIBQuery interface {
	Current() *ribcore.State
	Metadata() map[string]ribcore.LocRibEntry
}

// Server hosts PeerService (peer-to-peer) and AdminService (local CLI) on
// one gRPC listener.
type Server struct {
	proto.UnimplementedPeerServiceServer
	proto.UnimplementedAdminServiceServer

	log       *slog.Logger
	queue     Submitter
	rib       RIBQuery
	verifier  *authtoken.Verifier
	thisNode  string
	listener  net.Listener
	tlsConfig *credentials.TransportCredentials
	clock     func() int64

	srvMetrics *grpcprom.ServerMetrics
}

type Option func(*Server)

func WithListener(l net.Listener) Option {
	return func(s *Server) { s.listener = l }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

func WithTransportCredentials(creds credentials.TransportCredentials) Option {
	return func(s *Server) { s.tlsConfig = &creds }
}

func WithClock(clock func() int64) Option {
	return func(s *Server) { s.clock = clock }
}

func New(thisNode string, queue Submitter, rib RIBQuery, verifier *authtoken.Verifier, opts ...Option) (*Server, error) {
	s := &Server{
		thisNode: thisNode,
		queue:    queue,
		rib:      rib,
		verifier: verifier,
		clock:    func() int64 { return time.Now().UnixMilli() },
	}
	for _, o := range opts {
		o(s)
	}
	if s.listener == nil {
		return nil, ErrListenerRequired
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.srvMetrics = grpcprom.NewServerMetrics(
		grpcprom.WithServerHandlingTimeHistogram(
			grpcprom.WithHistogramBuckets(prometheus.DefBuckets),
		),
	)
	if err := prometheus.Register(s.srvMetrics); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		s.srvMetrics = already.ExistingCollector.(*grpcprom.ServerMetrics)
	}
	return s, nil
}

func (s *Server) loggerFunc() logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		args := append([]any{"level", lvl.String()}, fields...)
		s.log.Debug(msg, args...)
	})
}

// Run serves PeerService and AdminService until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			logging.UnaryServerInterceptor(s.loggerFunc()),
			s.srvMetrics.UnaryServerInterceptor(),
		),
	}
	if s.tlsConfig != nil {
		opts = append(opts, grpc.Creds(*s.tlsConfig))
	}
	server := grpc.NewServer(opts...)
	proto.RegisterPeerServiceServer(server, s)
	proto.RegisterAdminServiceServer(server, s)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(s.listener); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		server.GracefulStop()
		return nil
	case err := <-errChan:
		return err
	}
}

func tokenFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	const prefix = "Bearer "
	if len(vals[0]) > len(prefix) && vals[0][:len(prefix)] == prefix {
		return vals[0][len(prefix):]
	}
	return vals[0]
}

func (s *Server) authenticate(ctx context.Context, peerName string) error {
	token := tokenFromContext(ctx)
	if token == "" {
		return status.Error(codes.Unauthenticated, "missing token")
	}
	if _, err := s.verifier.Verify(token, peerName); err != nil {
		return status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
	}
	return nil
}

func (s *Server) Open(ctx context.Context, req *proto.OpenRequest) (*proto.OpenResponse, error) {
	if err := s.authenticate(ctx, req.NodeName); err != nil {
		return nil, err
	}
	_, err := s.queue.SubmitWait(ctx, ribcore.NewInternalProtocolOpen(s.clock(), ribcore.PeerInfo{
		Name:      req.NodeName,
		PeerToken: req.Token,
	}))
	if err != nil {
		return &proto.OpenResponse{Accepted: false, Reason: err.Error()}, nil
	}
	return &proto.OpenResponse{Accepted: true}, nil
}

func (s *Server) Update(ctx context.Context, req *proto.UpdateRequest) (*proto.UpdateResponse, error) {
	if err := s.authenticate(ctx, req.NodeName); err != nil {
		return nil, err
	}
	entries := make([]ribcore.UpdateEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		action := ribcore.UpdateEntryAdd
		if e.Action == "remove" {
			action = ribcore.UpdateEntryRemove
		}
		entries = append(entries, ribcore.UpdateEntry{
			Action: action,
			Route: ribcore.LocalRoute{
				Name:      e.Name,
				Protocol:  ribcore.Protocol(e.Protocol),
				Endpoint:  e.Endpoint,
				EnvoyPort: e.EnvoyPort,
			},
			NodePath: e.NodePath,
		})
	}
	_, err := s.queue.SubmitWait(ctx, ribcore.NewInternalProtocolUpdate(s.clock(), ribcore.PeerInfo{Name: req.NodeName}, entries))
	if err != nil {
		return &proto.UpdateResponse{Accepted: false, Reason: err.Error()}, nil
	}
	return &proto.UpdateResponse{Accepted: true}, nil
}

func (s *Server) Keepalive(ctx context.Context, req *proto.KeepaliveRequest) (*proto.KeepaliveResponse, error) {
	if err := s.authenticate(ctx, req.NodeName); err != nil {
		return nil, err
	}
	_, err := s.queue.SubmitWait(ctx, ribcore.NewInternalProtocolUpdate(s.clock(), ribcore.PeerInfo{Name: req.NodeName}, nil))
	if err != nil {
		return &proto.KeepaliveResponse{Accepted: false}, nil
	}
	return &proto.KeepaliveResponse{Accepted: true}, nil
}

func (s *Server) Close(ctx context.Context, req *proto.CloseRequest) (*proto.CloseResponse, error) {
	if err := s.authenticate(ctx, req.NodeName); err != nil {
		return nil, err
	}
	_, err := s.queue.SubmitWait(ctx, ribcore.NewInternalProtocolClose(s.clock(), ribcore.PeerInfo{Name: req.NodeName}, req.Code, req.Reason))
	if err != nil {
		return &proto.CloseResponse{Accepted: false}, nil
	}
	return &proto.CloseResponse{Accepted: true}, nil
}
