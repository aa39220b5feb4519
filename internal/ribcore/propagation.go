package ribcore

// PropagationKind is one of the four outbound message kinds the core emits.
type PropagationKind int

const (
	PropagationOpen PropagationKind = iota
	PropagationUpdate
	PropagationKeepalive
	PropagationClose
)

func (k PropagationKind) String() string {
	switch k {
	case PropagationOpen:
		return "open"
	case PropagationUpdate:
		return "update"
	case PropagationKeepalive:
		return "keepalive"
	case PropagationClose:
		return "close"
	default:
		return "unknown"
	}
}

// Propagation is an outbound message the core wants delivered to Peer. The
// sink (a sibling package) is the only consumer; the queue never inspects
// Propagation contents beyond handing them off.
type Propagation struct {
	Kind      PropagationKind
	Peer      PeerRecord
	LocalNode string
	Updates   []UpdateEntry // populated for PropagationUpdate only
	Code      int           // populated for PropagationClose only
	Reason    string        // populated for PropagationClose only
}

// PortGetter lets the propagation computer rewrite a route's envoyPort to
// the locally-allocated egress port, without giving it write access to the
// allocator.
type PortGetter func(key string) (int, bool)

// ComputePropagations derives the outbound messages produced by committing
// action, given the state before (prev) and after (next) the transition.
func (e *Engine) ComputePropagations(action Action, prev, next *State, getPort PortGetter) []Propagation {
	switch action.Kind {
	case ActionLocalPeerCreate:
		return e.propagateLocalPeerCreate(action, next)
	case ActionLocalPeerUpdate:
		return nil
	case ActionLocalPeerDelete:
		return e.propagateLocalPeerDelete(action, prev, next)
	case ActionLocalRouteCreate:
		return e.propagateLocalRouteCreate(action, next)
	case ActionLocalRouteDelete:
		return e.propagateLocalRouteDelete(action, next)
	case ActionInternalProtocolOpen:
		p := action.Payload.(InternalProtocolOpenPayload)
		return e.propagateFullSync(p.PeerInfo.Name, next, getPort)
	case ActionInternalProtocolConnected:
		p := action.Payload.(InternalProtocolConnectedPayload)
		return e.propagateFullSync(p.PeerInfo.Name, next, getPort)
	case ActionInternalProtocolUpdate:
		return e.propagateInternalProtocolUpdate(action, next, getPort)
	case ActionInternalProtocolClose:
		return e.propagateInternalProtocolClose(action, prev, next)
	case ActionTick:
		return e.propagateTick(action, prev, next)
	default:
		return nil
	}
}

func (e *Engine) propagateLocalPeerCreate(action Action, next *State) []Propagation {
	p := action.Payload.(LocalPeerCreatePayload)
	peer, ok := next.FindPeer(p.Name)
	if !ok {
		return nil
	}
	return []Propagation{{Kind: PropagationOpen, Peer: peer, LocalNode: e.ThisNode}}
}

// propagateFullSync builds the single full-sync update sent to a peer that
// just opened or connected: all local routes plus internal routes whose
// node-path doesn't already contain the target (split-horizon), each
// rewritten to the local egress port and with thisNode prepended.
func (e *Engine) propagateFullSync(targetPeer string, next *State, getPort PortGetter) []Propagation {
	peer, ok := next.FindPeer(targetPeer)
	if !ok {
		return nil
	}
	if peer.PeerToken == "" {
		return nil
	}
	entries := e.fullSyncEntries(next, targetPeer, getPort)
	return []Propagation{{Kind: PropagationUpdate, Peer: peer, LocalNode: e.ThisNode, Updates: entries}}
}

func (e *Engine) fullSyncEntries(next *State, targetPeer string, getPort PortGetter) []UpdateEntry {
	var entries []UpdateEntry
	for _, lr := range next.Local.Items {
		entries = append(entries, UpdateEntry{
			Action:   UpdateEntryAdd,
			Route:    LocalRoute{Name: lr.Name, Protocol: lr.Protocol, Endpoint: lr.Endpoint, EnvoyPort: lr.EnvoyPort},
			NodePath: []string{e.ThisNode},
		})
	}
	for _, ir := range next.Internal.Items {
		if containsString(ir.NodePath, targetPeer) {
			continue
		}
		route := LocalRoute{Name: ir.Name, Protocol: ir.Protocol, Endpoint: ir.Endpoint, EnvoyPort: ir.EnvoyPort}
		if port, ok := getPort(EgressKey(ir.Name, ir.PeerName)); ok {
			route.EnvoyPort = port
		}
		newPath := append([]string{e.ThisNode}, ir.NodePath...)
		entries = append(entries, UpdateEntry{Action: UpdateEntryAdd, Route: route, NodePath: newPath})
	}
	return entries
}

func (e *Engine) propagateLocalPeerDelete(action Action, prev, next *State) []Propagation {
	p := action.Payload.(LocalPeerDeletePayload)
	deletedPeer, ok := prev.FindPeer(p.Name)
	if !ok {
		return nil
	}
	props := []Propagation{{
		Kind:      PropagationClose,
		Peer:      deletedPeer,
		LocalNode: e.ThisNode,
		Code:      1000,
		Reason:    "Peer removed",
	}}
	entries := withdrawalEntries(prev.Internal.Items, p.Name)
	props = append(props, updateToEachConnectedPeer(e.ThisNode, next, entries)...)
	return props
}

func (e *Engine) propagateLocalRouteCreate(action Action, next *State) []Propagation {
	p := action.Payload.(LocalRouteCreatePayload)
	entry := UpdateEntry{Action: UpdateEntryAdd, Route: p.Route, NodePath: []string{e.ThisNode}}
	return updateToEachConnectedPeer(e.ThisNode, next, []UpdateEntry{entry})
}

func (e *Engine) propagateLocalRouteDelete(action Action, next *State) []Propagation {
	p := action.Payload.(LocalRouteDeletePayload)
	entry := UpdateEntry{Action: UpdateEntryRemove, Route: LocalRoute{Name: p.Name}}
	return updateToEachConnectedPeer(e.ThisNode, next, []UpdateEntry{entry})
}

func (e *Engine) propagateInternalProtocolUpdate(action Action, next *State, getPort PortGetter) []Propagation {
	p := action.Payload.(InternalProtocolUpdatePayload)
	sourcePeer := p.PeerInfo.Name

	var props []Propagation
	for _, peerName := range next.ConnectedPeers() {
		if peerName == sourcePeer {
			continue
		}
		var entries []UpdateEntry
		for _, u := range p.Updates {
			switch u.Action {
			case UpdateEntryRemove:
				entries = append(entries, u)
			case UpdateEntryAdd:
				if containsString(u.NodePath, e.ThisNode) || containsString(u.NodePath, peerName) {
					continue
				}
				route := u.Route
				if port, ok := getPort(EgressKey(u.Route.Name, sourcePeer)); ok {
					route.EnvoyPort = port
				}
				newPath := append([]string{e.ThisNode}, u.NodePath...)
				entries = append(entries, UpdateEntry{Action: UpdateEntryAdd, Route: route, NodePath: newPath})
			}
		}
		if len(entries) == 0 {
			continue
		}
		peer, _ := next.FindPeer(peerName)
		props = append(props, Propagation{Kind: PropagationUpdate, Peer: peer, LocalNode: e.ThisNode, Updates: entries})
	}
	return props
}

func (e *Engine) propagateInternalProtocolClose(action Action, prev, next *State) []Propagation {
	p := action.Payload.(InternalProtocolClosePayload)
	entries := withdrawalEntries(prev.Internal.Items, p.PeerInfo.Name)
	return updateToEachConnectedPeer(e.ThisNode, next, entries)
}

func (e *Engine) propagateTick(action Action, prev, next *State) []Propagation {
	var props []Propagation

	expiredNames := diffPeerNames(prev.Peers.Items, next.Peers.Items)
	if len(expiredNames) > 0 {
		var entries []UpdateEntry
		for _, name := range expiredNames {
			entries = append(entries, withdrawalEntries(prev.Internal.Items, name)...)
		}
		props = append(props, updateToEachConnectedPeer(e.ThisNode, next, entries)...)
	}

	for _, peer := range next.Peers.Items {
		if peer.ConnectionStatus != ConnectionStatusConnected {
			continue
		}
		if peer.HoldTime == nil || peer.LastSent == nil {
			continue
		}
		threshold := float64(*peer.HoldTime) / 3 * 1000
		if float64(action.At-*peer.LastSent) > threshold {
			props = append(props, Propagation{Kind: PropagationKeepalive, Peer: peer, LocalNode: e.ThisNode})
		}
	}

	return props
}

func updateToEachConnectedPeer(thisNode string, next *State, entries []UpdateEntry) []Propagation {
	if len(entries) == 0 {
		return nil
	}
	var props []Propagation
	for _, peerName := range next.ConnectedPeers() {
		peer, ok := next.FindPeer(peerName)
		if !ok {
			continue
		}
		props = append(props, Propagation{Kind: PropagationUpdate, Peer: peer, LocalNode: thisNode, Updates: entries})
	}
	return props
}

func withdrawalEntries(internal []InternalRoute, peerName string) []UpdateEntry {
	var entries []UpdateEntry
	for _, r := range internal {
		if r.PeerName == peerName {
			entries = append(entries, UpdateEntry{Action: UpdateEntryRemove, Route: LocalRoute{Name: r.Name}})
		}
	}
	return entries
}

func diffPeerNames(prevPeers, nextPeers []PeerRecord) []string {
	nextSet := make(map[string]bool, len(nextPeers))
	for _, p := range nextPeers {
		nextSet[p.Name] = true
	}
	var out []string
	for _, p := range prevPeers {
		if !nextSet[p.Name] {
			out = append(out, p.Name)
		}
	}
	return out
}
