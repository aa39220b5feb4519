// Package proto defines the wire messages and gRPC service surface for
// node-to-node peering. In the source system these would be generated by
// protoc from a .proto IDL; since no protoc toolchain is available here, the
// message structs, service interfaces, and registration glue below are
// hand-written in the same shape protoc-gen-go-grpc would produce, and
// transported over a JSON gRPC codec (see codec.go) instead of the wire
// protobuf encoding.
package proto

// Entry mirrors ribcore.UpdateEntry on the wire: an advertisement or
// withdrawal for a single route, with the node-path attribute that drives
// loop prevention.
type Entry struct {
	Action    string   `json:"action"` // "add" | "remove"
	Name      string   `json:"name"`
	Protocol  string   `json:"protocol,omitempty"`
	Endpoint  string   `json:"endpoint,omitempty"`
	EnvoyPort int      `json:"envoyPort,omitempty"`
	NodePath  []string `json:"nodePath,omitempty"`
}

// OpenRequest is sent by the initiating node once it has dialed a peer,
// carrying the capability token minted for that peer.
type OpenRequest struct {
	NodeName string `json:"nodeName"`
	Token    string `json:"token"`
}

type OpenResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// UpdateRequest carries a batch of route advertisements/withdrawals from the
// sending node's RIB.
type UpdateRequest struct {
	NodeName string  `json:"nodeName"`
	Token    string  `json:"token"`
	Entries  []Entry `json:"entries"`
}

type UpdateResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type KeepaliveRequest struct {
	NodeName string `json:"nodeName"`
	Token    string `json:"token"`
}

type KeepaliveResponse struct {
	Accepted bool `json:"accepted"`
}

type CloseRequest struct {
	NodeName string `json:"nodeName"`
	Token    string `json:"token"`
	Code     int    `json:"code"`
	Reason   string `json:"reason"`
}

type CloseResponse struct {
	Accepted bool `json:"accepted"`
}

// Admin surface (distinct from the peer-to-peer PeerService): used by the
// `meshrib peer`/`meshrib route` CLI subcommands against a node's own admin
// listener.

type PeerAddRequest struct {
	Name      string   `json:"name"`
	Endpoint  string   `json:"endpoint"`
	Domains   []string `json:"domains,omitempty"`
	PeerToken string   `json:"peerToken"`
	HoldTime  *int64   `json:"holdTime,omitempty"`
}

type PeerRemoveRequest struct {
	Name string `json:"name"`
}

type PeerListResponse struct {
	Peers []PeerStatus `json:"peers"`
}

type PeerStatus struct {
	Name             string `json:"name"`
	Endpoint         string `json:"endpoint"`
	ConnectionStatus string `json:"connectionStatus"`
	LastConnected    *int64 `json:"lastConnected,omitempty"`
	LastReceived     *int64 `json:"lastReceived,omitempty"`
	LastSent         *int64 `json:"lastSent,omitempty"`
}

type RouteAddRequest struct {
	Name      string `json:"name"`
	Protocol  string `json:"protocol"`
	Endpoint  string `json:"endpoint"`
	EnvoyPort int    `json:"envoyPort,omitempty"`
}

type RouteRemoveRequest struct {
	Name string `json:"name"`
}

type RouteListResponse struct {
	Local    []LocalRouteStatus    `json:"local"`
	Internal []InternalRouteStatus `json:"internal"`
}

type LocalRouteStatus struct {
	Name      string `json:"name"`
	Protocol  string `json:"protocol"`
	Endpoint  string `json:"endpoint"`
	EnvoyPort int    `json:"envoyPort"`
}

type InternalRouteStatus struct {
	Name      string   `json:"name"`
	PeerName  string   `json:"peerName"`
	EnvoyPort int      `json:"envoyPort"`
	NodePath  []string `json:"nodePath"`
	BestPath  bool     `json:"bestPath"`
}

type Ack struct {
	Ok     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}
