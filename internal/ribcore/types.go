// Package ribcore implements the mesh node's Routing Information Base: the
// deterministic plan/commit state machine, route selection, and the
// propagation rules that drive peer updates. It has no knowledge of gRPC,
// tokens, or the data plane — those live in sibling packages and consume
// ribcore's outputs.
package ribcore

// Protocol tags a route's wire protocol so the data-plane adapter can choose
// between an HTTP connection manager and a TCP passthrough listener.
type Protocol string

const (
	ProtocolHTTP        Protocol = "http"
	ProtocolHTTPGraphQL Protocol = "http:graphql"
	ProtocolTCP         Protocol = "tcp"
)

// LocalRoute is a service terminated on this node and advertised to peers.
type LocalRoute struct {
	Name      string
	Protocol  Protocol
	Endpoint  string
	EnvoyPort int // 0 means unstamped
}

// PeerInfo is the wire-level identity of a peer, carried inside propagations
// and inside internal routes learned from that peer.
type PeerInfo struct {
	Name      string
	Endpoint  string
	Domains   []string
	PeerToken string
}

// InternalRoute is a service reachable via a peer, learned from an update.
type InternalRoute struct {
	Name      string
	Protocol  Protocol
	Endpoint  string
	EnvoyPort int
	PeerName  string
	Peer      PeerInfo
	NodePath  []string
}

// Key returns the internal-route uniqueness key: (name, peerName).
func (r InternalRoute) Key() InternalRouteKey {
	return InternalRouteKey{Name: r.Name, PeerName: r.PeerName}
}

type InternalRouteKey struct {
	Name     string
	PeerName string
}

// EgressKey is the port-allocator key for this route's locally-allocated
// egress port.
func (r InternalRoute) EgressKey() string {
	return EgressKey(r.Name, r.PeerName)
}

// EgressKey builds the allocator key for a (routeName, sourcePeer) pair.
func EgressKey(routeName, peerName string) string {
	return "egress_" + routeName + "_via_" + peerName
}

// ConnectionStatus is a peer session's lifecycle state.
type ConnectionStatus int

const (
	ConnectionStatusInitializing ConnectionStatus = iota
	ConnectionStatusConnected
)

func (s ConnectionStatus) String() string {
	switch s {
	case ConnectionStatusInitializing:
		return "initializing"
	case ConnectionStatusConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// PeerRecord is a configured peering session and its timers.
type PeerRecord struct {
	Name             string
	Endpoint         string
	Domains          []string
	PeerToken        string
	ConnectionStatus ConnectionStatus

	// Millisecond epoch timestamps. Nil means "never".
	LastConnected *int64
	LastReceived  *int64
	LastSent      *int64

	// HoldTime is in seconds, nil means no hold timer configured for this peer.
	HoldTime *int64
}

// RouteSet wraps an immutable, ordered slice of T. Two RouteSets are
// considered the "same snapshot" iff they are the same *RouteSet pointer —
// this is the cheap structural-sharing identity check routesChanged relies
// on, not a deep-equality comparison.
type RouteSet[T any] struct {
	Items []T
}

func newRouteSet[T any](items []T) *RouteSet[T] {
	return &RouteSet[T]{Items: items}
}

// State is an immutable snapshot of the route table. A Plan call never
// mutates a State; it returns a fresh one (with unchanged sub-structures
// reusing the prior pointer).
type State struct {
	Local    *RouteSet[LocalRoute]
	Internal *RouteSet[InternalRoute]
	Peers    *RouteSet[PeerRecord]
}

// NewEmptyState returns a State with no routes and no peers.
func NewEmptyState() *State {
	return &State{
		Local:    newRouteSet[LocalRoute](nil),
		Internal: newRouteSet[InternalRoute](nil),
		Peers:    newRouteSet[PeerRecord](nil),
	}
}

// clone returns a shallow copy of s: a new State holding the same RouteSet
// pointers, so callers can selectively replace Local/Internal/Peers without
// touching the others. The RouteSets and their Items slices stay shared until
// a field is actually replaced by withLocal/withInternal/withPeers.
func (s *State) clone() *State {
	cp := *s
	return &cp
}

func (s *State) withLocal(items []LocalRoute) *State {
	cp := s.clone()
	cp.Local = newRouteSet(items)
	return cp
}

func (s *State) withInternal(items []InternalRoute) *State {
	cp := s.clone()
	cp.Internal = newRouteSet(items)
	return cp
}

func (s *State) withPeers(items []PeerRecord) *State {
	cp := s.clone()
	cp.Peers = newRouteSet(items)
	return cp
}

// FindPeer returns the peer record with the given name, or (zero, false).
func (s *State) FindPeer(name string) (PeerRecord, bool) {
	for _, p := range s.Peers.Items {
		if p.Name == name {
			return p, true
		}
	}
	return PeerRecord{}, false
}

// FindLocalRoute returns the local route with the given name, or (zero, false).
func (s *State) FindLocalRoute(name string) (LocalRoute, bool) {
	for _, r := range s.Local.Items {
		if r.Name == name {
			return r, true
		}
	}
	return LocalRoute{}, false
}

// ConnectedPeers returns the names of all peers currently connected.
func (s *State) ConnectedPeers() []string {
	var names []string
	for _, p := range s.Peers.Items {
		if p.ConnectionStatus == ConnectionStatusConnected {
			names = append(names, p.Name)
		}
	}
	return names
}

// RoutesChanged reports whether next's local or internal route sets are a
// different snapshot (by pointer identity) than prev's — invariant 7.
func RoutesChanged(prev, next *State) bool {
	return prev.Local != next.Local || prev.Internal != next.Internal
}
