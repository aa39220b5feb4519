package ribcore

import (
	"errors"
	"fmt"
)

var (
	ErrRouteAlreadyExists  = errors.New("Route already exists")
	ErrRouteNotFound       = errors.New("route not found")
	ErrPeerAlreadyExists   = errors.New("peer already exists")
	ErrPeerNotFound        = errors.New("peer not found")
	ErrPeerTokenRequired   = errors.New("peerToken is required to create a peer")
	ErrPeerNotConfigured   = errors.New("peer is not configured locally")
	ErrUnknownActionKind   = errors.New("unknown action kind")
)

// PortOpType distinguishes an allocator reservation from a release.
type PortOpType int

const (
	PortOpAllocate PortOpType = iota
	PortOpRelease
)

// PortOp is a read-only-against-the-allocator instruction derived by Plan;
// Commit is the only component that actually executes it.
type PortOp struct {
	Type PortOpType
	Key  string
}

// SelectionReason explains why a LocRIB entry's best path was chosen.
type SelectionReason string

const (
	SelectionReasonOnlyCandidate    SelectionReason = "only candidate"
	SelectionReasonShortestNodePath SelectionReason = "shortest nodePath"
)

// LocRibEntry is the per-route-name selection result.
type LocRibEntry struct {
	BestPath        InternalRoute
	Alternatives    []InternalRoute
	SelectionReason SelectionReason
}

// PlanResult is the pure output of Plan: either a candidate next state with
// derived effects, or an error. It never mutates the state passed to Plan.
type PlanResult struct {
	Success        bool
	Error          error
	NewState       *State
	PortOperations []PortOp
	RouteMetadata  map[string]LocRibEntry
}

func planError(err error) PlanResult {
	return PlanResult{Success: false, Error: err}
}

// Engine carries the parameters Plan and the propagation computer need
// beyond the (action, state) pair: principally this node's own name, used
// for loop rejection and node-path construction.
type Engine struct {
	ThisNode string
}

func NewEngine(thisNode string) *Engine {
	return &Engine{ThisNode: thisNode}
}

// Plan computes the pure state transition for action against current. It
// never mutates current, and two calls with the same arguments always
// produce deep-equal results (determinism, property 3 in spec §8).
func (e *Engine) Plan(action Action, current *State) PlanResult {
	switch action.Kind {
	case ActionLocalPeerCreate:
		return e.planLocalPeerCreate(action, current)
	case ActionLocalPeerUpdate:
		return e.planLocalPeerUpdate(action, current)
	case ActionLocalPeerDelete:
		return e.planLocalPeerDelete(action, current)
	case ActionLocalRouteCreate:
		return e.planLocalRouteCreate(action, current)
	case ActionLocalRouteDelete:
		return e.planLocalRouteDelete(action, current)
	case ActionInternalProtocolOpen:
		return e.planInternalProtocolOpen(action, current)
	case ActionInternalProtocolConnected:
		return e.planInternalProtocolConnected(action, current)
	case ActionInternalProtocolUpdate:
		return e.planInternalProtocolUpdate(action, current)
	case ActionInternalProtocolClose:
		return e.planInternalProtocolClose(action, current)
	case ActionTick:
		return e.planTick(action, current)
	default:
		return planError(fmt.Errorf("%w: %v", ErrUnknownActionKind, action.Kind))
	}
}

func (e *Engine) planLocalPeerCreate(action Action, current *State) PlanResult {
	p := action.Payload.(LocalPeerCreatePayload)
	if p.PeerToken == "" {
		return planError(ErrPeerTokenRequired)
	}
	if _, ok := current.FindPeer(p.Name); ok {
		return planError(fmt.Errorf("%w: %s", ErrPeerAlreadyExists, p.Name))
	}
	rec := PeerRecord{
		Name:             p.Name,
		Endpoint:         p.Endpoint,
		Domains:          append([]string(nil), p.Domains...),
		PeerToken:        p.PeerToken,
		ConnectionStatus: ConnectionStatusInitializing,
		HoldTime:         p.HoldTime,
	}
	next := current.withPeers(append(append([]PeerRecord(nil), current.Peers.Items...), rec))
	return e.finish(action, current, next, nil)
}

func (e *Engine) planLocalPeerUpdate(action Action, current *State) PlanResult {
	p := action.Payload.(LocalPeerUpdatePayload)
	idx := indexOfPeer(current.Peers.Items, p.Name)
	if idx < 0 {
		return planError(fmt.Errorf("%w: %s", ErrPeerNotFound, p.Name))
	}
	items := append([]PeerRecord(nil), current.Peers.Items...)
	existing := items[idx]
	items[idx] = PeerRecord{
		Name:             existing.Name,
		Endpoint:         p.Endpoint,
		Domains:          append([]string(nil), p.Domains...),
		PeerToken:        p.PeerToken,
		ConnectionStatus: ConnectionStatusInitializing,
		LastConnected:    nil,
		LastReceived:     existing.LastReceived,
		LastSent:         existing.LastSent,
		HoldTime:         p.HoldTime,
	}
	next := current.withPeers(items)
	return e.finish(action, current, next, nil)
}

func (e *Engine) planLocalPeerDelete(action Action, current *State) PlanResult {
	p := action.Payload.(LocalPeerDeletePayload)
	idx := indexOfPeer(current.Peers.Items, p.Name)
	if idx < 0 {
		return planError(fmt.Errorf("%w: %s", ErrPeerNotFound, p.Name))
	}
	peers := removePeerAt(current.Peers.Items, idx)
	internal, removedKeys := removeInternalRoutesFromPeer(current.Internal.Items, p.Name)

	next := current.withPeers(peers).withInternal(internal)

	var ops []PortOp
	for _, k := range removedKeys {
		ops = append(ops, PortOp{Type: PortOpRelease, Key: k})
	}
	return e.finish(action, current, next, ops)
}

func (e *Engine) planLocalRouteCreate(action Action, current *State) PlanResult {
	p := action.Payload.(LocalRouteCreatePayload)
	if _, ok := current.FindLocalRoute(p.Route.Name); ok {
		return planError(ErrRouteAlreadyExists)
	}
	items := append(append([]LocalRoute(nil), current.Local.Items...), p.Route)
	next := current.withLocal(items)
	return e.finish(action, current, next, nil)
}

func (e *Engine) planLocalRouteDelete(action Action, current *State) PlanResult {
	p := action.Payload.(LocalRouteDeletePayload)
	idx := -1
	for i, r := range current.Local.Items {
		if r.Name == p.Name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return planError(fmt.Errorf("%w: %s", ErrRouteNotFound, p.Name))
	}
	items := append([]LocalRoute(nil), current.Local.Items...)
	items = append(items[:idx], items[idx+1:]...)
	next := current.withLocal(items)
	ops := []PortOp{{Type: PortOpRelease, Key: p.Name}}
	return e.finish(action, current, next, ops)
}

func (e *Engine) planInternalProtocolOpen(action Action, current *State) PlanResult {
	p := action.Payload.(InternalProtocolOpenPayload)
	idx := indexOfPeer(current.Peers.Items, p.PeerInfo.Name)
	if idx < 0 {
		return planError(fmt.Errorf("%w: %s", ErrPeerNotConfigured, p.PeerInfo.Name))
	}
	items := append([]PeerRecord(nil), current.Peers.Items...)
	items[idx] = withConnected(items[idx], action.At)
	next := current.withPeers(items)
	return e.finish(action, current, next, nil)
}

func (e *Engine) planInternalProtocolConnected(action Action, current *State) PlanResult {
	p := action.Payload.(InternalProtocolConnectedPayload)
	idx := indexOfPeer(current.Peers.Items, p.PeerInfo.Name)
	if idx < 0 {
		// Unknown peer: silent no-op, the outbound connection may race with
		// local configuration. Zero propagations, unchanged state.
		return e.finish(action, current, current, nil)
	}
	items := append([]PeerRecord(nil), current.Peers.Items...)
	items[idx] = withConnected(items[idx], action.At)
	next := current.withPeers(items)
	return e.finish(action, current, next, nil)
}

func withConnected(p PeerRecord, at int64) PeerRecord {
	p.ConnectionStatus = ConnectionStatusConnected
	now := at
	p.LastReceived = &now
	connectedAt := at
	p.LastConnected = &connectedAt
	return p
}

func (e *Engine) planInternalProtocolUpdate(action Action, current *State) PlanResult {
	p := action.Payload.(InternalProtocolUpdatePayload)
	peerIdx := indexOfPeer(current.Peers.Items, p.PeerInfo.Name)
	if peerIdx < 0 {
		return planError(fmt.Errorf("%w: %s", ErrPeerNotConfigured, p.PeerInfo.Name))
	}

	internal := append([]InternalRoute(nil), current.Internal.Items...)
	var ops []PortOp

	for _, entry := range p.Updates {
		switch entry.Action {
		case UpdateEntryAdd:
			if containsString(entry.NodePath, e.ThisNode) {
				// Loop: this route has already traversed us. Drop.
				continue
			}
			route := InternalRoute{
				Name:      entry.Route.Name,
				Protocol:  entry.Route.Protocol,
				Endpoint:  entry.Route.Endpoint,
				EnvoyPort: entry.Route.EnvoyPort,
				PeerName:  p.PeerInfo.Name,
				Peer:      p.PeerInfo,
				NodePath:  append([]string(nil), entry.NodePath...),
			}
			idx := indexOfInternalRoute(internal, route.Key())
			if idx >= 0 {
				internal[idx] = route
			} else {
				internal = append(internal, route)
				ops = append(ops, PortOp{Type: PortOpAllocate, Key: route.EgressKey()})
			}
		case UpdateEntryRemove:
			key := InternalRouteKey{Name: entry.Route.Name, PeerName: p.PeerInfo.Name}
			idx := indexOfInternalRoute(internal, key)
			if idx >= 0 {
				ops = append(ops, PortOp{Type: PortOpRelease, Key: internal[idx].EgressKey()})
				internal = append(internal[:idx], internal[idx+1:]...)
			}
		}
	}

	peers := append([]PeerRecord(nil), current.Peers.Items...)
	lastReceived := action.At
	peers[peerIdx].LastReceived = &lastReceived

	next := current.withInternal(internal).withPeers(peers)

	return e.finish(action, current, next, ops)
}

func (e *Engine) planInternalProtocolClose(action Action, current *State) PlanResult {
	p := action.Payload.(InternalProtocolClosePayload)
	idx := indexOfPeer(current.Peers.Items, p.PeerInfo.Name)
	if idx < 0 {
		return planError(fmt.Errorf("%w: %s", ErrPeerNotFound, p.PeerInfo.Name))
	}
	peers := removePeerAt(current.Peers.Items, idx)
	internal, removedKeys := removeInternalRoutesFromPeer(current.Internal.Items, p.PeerInfo.Name)
	next := current.withPeers(peers).withInternal(internal)

	var ops []PortOp
	for _, k := range removedKeys {
		ops = append(ops, PortOp{Type: PortOpRelease, Key: k})
	}
	return e.finish(action, current, next, ops)
}

func (e *Engine) planTick(action Action, current *State) PlanResult {
	p := action.Payload.(TickPayload)
	_ = p

	var expired []string
	for _, peer := range current.Peers.Items {
		if peer.ConnectionStatus != ConnectionStatusConnected {
			continue
		}
		if peer.HoldTime == nil || peer.LastReceived == nil {
			continue
		}
		if action.At-*peer.LastReceived > *peer.HoldTime*1000 {
			expired = append(expired, peer.Name)
		}
	}

	if len(expired) == 0 {
		return e.finish(action, current, current, nil)
	}

	expiredSet := make(map[string]bool, len(expired))
	for _, n := range expired {
		expiredSet[n] = true
	}

	var peers []PeerRecord
	for _, p := range current.Peers.Items {
		if !expiredSet[p.Name] {
			peers = append(peers, p)
		}
	}

	var internal []InternalRoute
	var ops []PortOp
	for _, r := range current.Internal.Items {
		if expiredSet[r.PeerName] {
			ops = append(ops, PortOp{Type: PortOpRelease, Key: r.EgressKey()})
			continue
		}
		internal = append(internal, r)
	}

	next := current.withPeers(peers).withInternal(internal)
	return e.finish(action, current, next, ops)
}

// finish derives port-allocate ops for local routes without a stamped port
// (applies to every successful transition, per §4.2) and computes fresh
// LocRIB metadata from next, then packages the PlanResult.
func (e *Engine) finish(action Action, current, next *State, ops []PortOp) PlanResult {
	allOps := append([]PortOp(nil), allocateMissingLocalPorts(next)...)
	allOps = append(allOps, ops...)

	return PlanResult{
		Success:        true,
		NewState:       next,
		PortOperations: allOps,
		RouteMetadata:  SelectBestPaths(next),
	}
}

func allocateMissingLocalPorts(s *State) []PortOp {
	var ops []PortOp
	for _, r := range s.Local.Items {
		if r.EnvoyPort == 0 {
			ops = append(ops, PortOp{Type: PortOpAllocate, Key: r.Name})
		}
	}
	return ops
}

func indexOfPeer(peers []PeerRecord, name string) int {
	for i, p := range peers {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func indexOfInternalRoute(routes []InternalRoute, key InternalRouteKey) int {
	for i, r := range routes {
		if r.Key() == key {
			return i
		}
	}
	return -1
}

func removePeerAt(peers []PeerRecord, idx int) []PeerRecord {
	out := append([]PeerRecord(nil), peers[:idx]...)
	out = append(out, peers[idx+1:]...)
	return out
}

// removeInternalRoutesFromPeer drops every internal route sourced from
// peerName and returns the surviving routes plus the egress keys to release.
func removeInternalRoutesFromPeer(routes []InternalRoute, peerName string) ([]InternalRoute, []string) {
	var kept []InternalRoute
	var releasedKeys []string
	for _, r := range routes {
		if r.PeerName == peerName {
			releasedKeys = append(releasedKeys, r.EgressKey())
			continue
		}
		kept = append(kept, r)
	}
	return kept, releasedKeys
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
