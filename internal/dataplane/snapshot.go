// Package dataplane renders the RIB's committed state into the shape a data
// plane (e.g. an envoy listener set) would consume. There is no real xDS
// discovery service here — Snapshot is a debug artifact, grounded on
// controller.renderConfig's pattern of turning cached state into a rendered
// device configuration, minus the wire format.
package dataplane

import (
	"sort"

	"github.com/malbeclabs/meshrib/internal/ribcore"
)

// ListenerKind mirrors ribcore.Protocol, naming the envoy listener shape a
// route should render to.
type ListenerKind string

const (
	ListenerHTTP        ListenerKind = "http_connection_manager"
	ListenerHTTPGraphQL ListenerKind = "http_connection_manager:graphql"
	ListenerTCP         ListenerKind = "tcp_proxy"
)

// Upstream is one backend a listener forwards to.
type Upstream struct {
	Endpoint string `json:"endpoint"`
	// Via is empty for a local route's own endpoint, or the peer name the
	// route was learned from for a best-path internal route.
	Via string `json:"via,omitempty"`
}

// ListenerSpec is one rendered listener: a local route terminated here, or
// the best path to a route learned from a peer.
type ListenerSpec struct {
	Name      string       `json:"name"`
	Port      int          `json:"port"`
	Kind      ListenerKind `json:"kind"`
	Upstreams []Upstream   `json:"upstreams"`
}

// Snapshot is the full rendered data-plane configuration for this node at a
// point in time.
type Snapshot struct {
	Listeners []ListenerSpec `json:"listeners"`
}

func kindOf(p ribcore.Protocol) ListenerKind {
	switch p {
	case ribcore.ProtocolHTTPGraphQL:
		return ListenerHTTPGraphQL
	case ribcore.ProtocolTCP:
		return ListenerTCP
	default:
		return ListenerHTTP
	}
}

// Render builds a Snapshot from the RIB's current state and LocRIB
// metadata: one listener per local route (terminated here) plus one per
// route name with a selected best path (forwarded to the peer that
// advertised it). Unstamped routes (EnvoyPort == 0) are skipped — they have
// no listener to bind yet.
func Render(state *ribcore.State, metadata map[string]ribcore.LocRibEntry) Snapshot {
	var listeners []ListenerSpec

	for _, r := range state.Local.Items {
		if r.EnvoyPort == 0 {
			continue
		}
		listeners = append(listeners, ListenerSpec{
			Name:      r.Name,
			Port:      r.EnvoyPort,
			Kind:      kindOf(r.Protocol),
			Upstreams: []Upstream{{Endpoint: r.Endpoint}},
		})
	}

	names := make([]string, 0, len(metadata))
	for name := range metadata {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := metadata[name]
		best := entry.BestPath
		if best.EnvoyPort == 0 {
			continue
		}
		listeners = append(listeners, ListenerSpec{
			Name:      name,
			Port:      best.EnvoyPort,
			Kind:      kindOf(best.Protocol),
			Upstreams: []Upstream{{Endpoint: best.Endpoint, Via: best.PeerName}},
		})
	}

	sort.SliceStable(listeners, func(i, j int) bool { return listeners[i].Name < listeners[j].Name })
	return Snapshot{Listeners: listeners}
}
