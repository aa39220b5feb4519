package transport

import (
	"context"

	"github.com/malbeclabs/meshrib/api/proto"
	"github.com/malbeclabs/meshrib/internal/ribcore"
)

// AdminService is the local operator surface behind `meshrib peer`/`meshrib
// route`. Unlike PeerService it is not authenticated against a peer token —
// it is expected to listen on a loopback/admin address only.

func (s *Server) PeerAdd(ctx context.Context, req *proto.PeerAddRequest) (*proto.Ack, error) {
	_, err := s.queue.SubmitWait(ctx, ribcore.NewLocalPeerCreate(s.clock(), ribcore.LocalPeerCreatePayload{
		Name:      req.Name,
		Endpoint:  req.Endpoint,
		Domains:   req.Domains,
		PeerToken: req.PeerToken,
		HoldTime:  req.HoldTime,
	}))
	if err != nil {
		return &proto.Ack{Ok: false, Reason: err.Error()}, nil
	}
	return &proto.Ack{Ok: true}, nil
}

func (s *Server) PeerRemove(ctx context.Context, req *proto.PeerRemoveRequest) (*proto.Ack, error) {
	_, err := s.queue.SubmitWait(ctx, ribcore.NewLocalPeerDelete(s.clock(), ribcore.LocalPeerDeletePayload{Name: req.Name}))
	if err != nil {
		return &proto.Ack{Ok: false, Reason: err.Error()}, nil
	}
	return &proto.Ack{Ok: true}, nil
}

func (s *Server) PeerList(ctx context.Context, _ *proto.Ack) (*proto.PeerListResponse, error) {
	state := s.rib.Current()
	resp := &proto.PeerListResponse{Peers: make([]proto.PeerStatus, 0, len(state.Peers.Items))}
	for _, p := range state.Peers.Items {
		resp.Peers = append(resp.Peers, proto.PeerStatus{
			Name:             p.Name,
			Endpoint:         p.Endpoint,
			ConnectionStatus: p.ConnectionStatus.String(),
			LastConnected:    p.LastConnected,
			LastReceived:     p.LastReceived,
			LastSent:         p.LastSent,
		})
	}
	return resp, nil
}

func (s *Server) RouteAdd(ctx context.Context, req *proto.RouteAddRequest) (*proto.Ack, error) {
	_, err := s.queue.SubmitWait(ctx, ribcore.NewLocalRouteCreate(s.clock(), ribcore.LocalRoute{
		Name:      req.Name,
		Protocol:  ribcore.Protocol(req.Protocol),
		Endpoint:  req.Endpoint,
		EnvoyPort: req.EnvoyPort,
	}))
	if err != nil {
		return &proto.Ack{Ok: false, Reason: err.Error()}, nil
	}
	return &proto.Ack{Ok: true}, nil
}

func (s *Server) RouteRemove(ctx context.Context, req *proto.RouteRemoveRequest) (*proto.Ack, error) {
	_, err := s.queue.SubmitWait(ctx, ribcore.NewLocalRouteDelete(s.clock(), req.Name))
	if err != nil {
		return &proto.Ack{Ok: false, Reason: err.Error()}, nil
	}
	return &proto.Ack{Ok: true}, nil
}

func (s *Server) RouteList(ctx context.Context, _ *proto.Ack) (*proto.RouteListResponse, error) {
	state := s.rib.Current()
	metadata := s.rib.Metadata()

	resp := &proto.RouteListResponse{
		Local:    make([]proto.LocalRouteStatus, 0, len(state.Local.Items)),
		Internal: make([]proto.InternalRouteStatus, 0, len(state.Internal.Items)),
	}
	for _, r := range state.Local.Items {
		resp.Local = append(resp.Local, proto.LocalRouteStatus{
			Name:      r.Name,
			Protocol:  string(r.Protocol),
			Endpoint:  r.Endpoint,
			EnvoyPort: r.EnvoyPort,
		})
	}
	for _, r := range state.Internal.Items {
		entry, ok := metadata[r.Name]
		best := ok && entry.BestPath.PeerName == r.PeerName
		resp.Internal = append(resp.Internal, proto.InternalRouteStatus{
			Name:      r.Name,
			PeerName:  r.PeerName,
			EnvoyPort: r.EnvoyPort,
			NodePath:  r.NodePath,
			BestPath:  best,
		})
	}
	return resp, nil
}
