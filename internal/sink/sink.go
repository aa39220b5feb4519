// Package sink delivers ribcore propagations to peer nodes over the
// PeerService gRPC surface (api/proto), fanning out concurrent deliveries
// across peers with a bounded worker pool and reconnect backoff on the
// initial Open handshake.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/malbeclabs/meshrib/api/proto"
	"github.com/malbeclabs/meshrib/internal/ribcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Dialer abstracts connection establishment so tests can substitute an
// in-memory bufconn dialer instead of a real TCP dial.
type Dialer func(ctx context.Context, endpoint string) (*grpc.ClientConn, error)

func defaultDialer(ctx context.Context, endpoint string) (*grpc.ClientConn, error) {
	return grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// Outcome reports one peer's delivery result from a fan-out call.
type Outcome struct {
	Peer     string
	Rejected bool
	Err      error
}

// Config controls the sink's dial and fan-out behavior.
type Config struct {
	NodeName     string
	NodeToken    string // fallback Bearer value when a peer has no PeerToken
	Dialer       Dialer
	PoolSize     int // worker pool size; values below 8 (including 0) use 8
	DialTimeout  time.Duration
	RPCTimeout   time.Duration
	ReconnectMax time.Duration // max elapsed time for the Open backoff retry loop
}

// Sink owns one lazily-established gRPC connection per peer endpoint and
// fans propagations out across them.
type Sink struct {
	cfg  Config
	log  *slog.Logger
	pool pond.ResultPool[Outcome]

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

func New(cfg Config, log *slog.Logger) *Sink {
	if cfg.Dialer == nil {
		cfg.Dialer = defaultDialer
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.RPCTimeout == 0 {
		cfg.RPCTimeout = 5 * time.Second
	}
	if cfg.ReconnectMax == 0 {
		cfg.ReconnectMax = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sink{
		cfg:   cfg,
		log:   log,
		pool:  pond.NewResultPool[Outcome](maxInt(cfg.PoolSize, 8)),
		conns: make(map[string]*grpc.ClientConn),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// FanOut delivers each propagation to its target peer concurrently and
// returns one Outcome per propagation, in the same order.
func (s *Sink) FanOut(ctx context.Context, props []ribcore.Propagation) []Outcome {
	group := s.pool.NewGroupContext(ctx)
	for _, p := range props {
		p := p
		group.SubmitErr(func() (Outcome, error) {
			return s.deliver(ctx, p), nil
		})
	}
	results, _ := group.Wait()
	return results
}

func (s *Sink) deliver(ctx context.Context, p ribcore.Propagation) Outcome {
	conn, err := s.connFor(ctx, p.Peer.Endpoint)
	if err != nil {
		return Outcome{Peer: p.Peer.Name, Rejected: true, Err: err}
	}
	client := proto.NewPeerServiceClient(conn)
	ctx = s.withToken(ctx, p.Peer.PeerToken)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RPCTimeout)
	defer cancel()

	switch p.Kind {
	case ribcore.PropagationOpen:
		return s.sendOpen(ctx, client, p)
	case ribcore.PropagationUpdate:
		return s.sendUpdate(ctx, client, p)
	case ribcore.PropagationKeepalive:
		return s.sendKeepalive(ctx, client, p)
	case ribcore.PropagationClose:
		return s.sendClose(ctx, client, p)
	default:
		return Outcome{Peer: p.Peer.Name, Rejected: true, Err: fmt.Errorf("sink: unknown propagation kind %v", p.Kind)}
	}
}

// withToken attaches the peer's token as a Bearer value, falling back to
// the locally-configured node token per spec.md §6.
func (s *Sink) withToken(ctx context.Context, peerToken string) context.Context {
	token := peerToken
	if token == "" {
		token = s.cfg.NodeToken
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func (s *Sink) sendOpen(ctx context.Context, client proto.PeerServiceClient, p ribcore.Propagation) Outcome {
	var resp *proto.OpenResponse
	err := s.withReconnect(ctx, func() error {
		var callErr error
		resp, callErr = client.Open(ctx, &proto.OpenRequest{NodeName: s.cfg.NodeName, Token: p.Peer.PeerToken})
		return callErr
	})
	return outcomeFrom(p.Peer.Name, err, resp != nil && !resp.Accepted, respReason(resp))
}

func (s *Sink) sendUpdate(ctx context.Context, client proto.PeerServiceClient, p ribcore.Propagation) Outcome {
	entries := make([]proto.Entry, 0, len(p.Updates))
	for _, u := range p.Updates {
		entries = append(entries, proto.Entry{
			Action:    entryActionString(u.Action),
			Name:      u.Route.Name,
			Protocol:  string(u.Route.Protocol),
			Endpoint:  u.Route.Endpoint,
			EnvoyPort: u.Route.EnvoyPort,
			NodePath:  u.NodePath,
		})
	}
	resp, err := client.Update(ctx, &proto.UpdateRequest{NodeName: s.cfg.NodeName, Entries: entries})
	return outcomeFrom(p.Peer.Name, err, resp != nil && !resp.Accepted, respReason(resp))
}

func (s *Sink) sendKeepalive(ctx context.Context, client proto.PeerServiceClient, p ribcore.Propagation) Outcome {
	resp, err := client.Keepalive(ctx, &proto.KeepaliveRequest{NodeName: s.cfg.NodeName})
	return outcomeFrom(p.Peer.Name, err, resp != nil && !resp.Accepted, "")
}

func (s *Sink) sendClose(ctx context.Context, client proto.PeerServiceClient, p ribcore.Propagation) Outcome {
	resp, err := client.Close(ctx, &proto.CloseRequest{NodeName: s.cfg.NodeName, Code: p.Code, Reason: p.Reason})
	return outcomeFrom(p.Peer.Name, err, resp != nil && !resp.Accepted, "")
}

// withReconnect retries fn with exponential backoff, bounded by
// cfg.ReconnectMax — only the initial Open handshake pays this cost, since a
// peer may not have come up yet when its first propagation fires.
func (s *Sink) withReconnect(ctx context.Context, fn func() error) error {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(200*time.Millisecond),
		backoff.WithMaxInterval(5*time.Second),
		backoff.WithMaxElapsedTime(s.cfg.ReconnectMax),
	)
	return backoff.Retry(fn, backoff.WithContext(b, ctx))
}

func (s *Sink) connFor(ctx context.Context, endpoint string) (*grpc.ClientConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conn, ok := s.conns[endpoint]; ok {
		return conn, nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
	defer cancel()
	conn, err := s.cfg.Dialer(dialCtx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("sink: dial %s: %w", endpoint, err)
	}
	s.conns[endpoint] = conn
	return conn, nil
}

// Close tears down every pooled connection.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for endpoint, conn := range s.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("sink: close %s: %w", endpoint, err)
		}
	}
	s.conns = make(map[string]*grpc.ClientConn)
	return firstErr
}

func outcomeFrom(peer string, err error, rejected bool, reason string) Outcome {
	if err != nil {
		return Outcome{Peer: peer, Rejected: true, Err: err}
	}
	if rejected {
		return Outcome{Peer: peer, Rejected: true, Err: fmt.Errorf("sink: peer %s rejected: %s", peer, reason)}
	}
	return Outcome{Peer: peer}
}

func respReason(resp *proto.OpenResponse) string {
	if resp == nil {
		return ""
	}
	return resp.Reason
}

func entryActionString(a ribcore.UpdateEntryAction) string {
	if a == ribcore.UpdateEntryRemove {
		return "remove"
	}
	return "add"
}
