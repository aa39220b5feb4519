package ribcore

// ActionKind tags the variant carried by an Action. Plan and the propagation
// computer both switch on this tag rather than using dynamic dispatch.
type ActionKind int

const (
	ActionLocalPeerCreate ActionKind = iota
	ActionLocalPeerUpdate
	ActionLocalPeerDelete
	ActionLocalRouteCreate
	ActionLocalRouteDelete
	ActionInternalProtocolOpen
	ActionInternalProtocolConnected
	ActionInternalProtocolUpdate
	ActionInternalProtocolClose
	ActionTick
)

func (k ActionKind) String() string {
	switch k {
	case ActionLocalPeerCreate:
		return "LocalPeerCreate"
	case ActionLocalPeerUpdate:
		return "LocalPeerUpdate"
	case ActionLocalPeerDelete:
		return "LocalPeerDelete"
	case ActionLocalRouteCreate:
		return "LocalRouteCreate"
	case ActionLocalRouteDelete:
		return "LocalRouteDelete"
	case ActionInternalProtocolOpen:
		return "InternalProtocolOpen"
	case ActionInternalProtocolConnected:
		return "InternalProtocolConnected"
	case ActionInternalProtocolUpdate:
		return "InternalProtocolUpdate"
	case ActionInternalProtocolClose:
		return "InternalProtocolClose"
	case ActionTick:
		return "Tick"
	default:
		return "Unknown"
	}
}

// Action is a tagged variant. At is the wall-clock time (milliseconds since
// epoch) the action is considered to occur at — it is supplied by the caller
// (ultimately the action queue) rather than sampled inside Plan, so that Plan
// stays a pure function of its two arguments.
type Action struct {
	Kind    ActionKind
	At      int64
	Payload any
}

type LocalPeerCreatePayload struct {
	Name      string
	Endpoint  string
	Domains   []string
	PeerToken string
	HoldTime  *int64
}

func NewLocalPeerCreate(at int64, p LocalPeerCreatePayload) Action {
	return Action{Kind: ActionLocalPeerCreate, At: at, Payload: p}
}

type LocalPeerUpdatePayload struct {
	Name      string
	Endpoint  string
	Domains   []string
	PeerToken string
	HoldTime  *int64
}

func NewLocalPeerUpdate(at int64, p LocalPeerUpdatePayload) Action {
	return Action{Kind: ActionLocalPeerUpdate, At: at, Payload: p}
}

type LocalPeerDeletePayload struct {
	Name string
}

func NewLocalPeerDelete(at int64, p LocalPeerDeletePayload) Action {
	return Action{Kind: ActionLocalPeerDelete, At: at, Payload: p}
}

type LocalRouteCreatePayload struct {
	Route LocalRoute
}

func NewLocalRouteCreate(at int64, route LocalRoute) Action {
	return Action{Kind: ActionLocalRouteCreate, At: at, Payload: LocalRouteCreatePayload{Route: route}}
}

type LocalRouteDeletePayload struct {
	Name string
}

func NewLocalRouteDelete(at int64, name string) Action {
	return Action{Kind: ActionLocalRouteDelete, At: at, Payload: LocalRouteDeletePayload{Name: name}}
}

type InternalProtocolOpenPayload struct {
	PeerInfo PeerInfo
}

func NewInternalProtocolOpen(at int64, peer PeerInfo) Action {
	return Action{Kind: ActionInternalProtocolOpen, At: at, Payload: InternalProtocolOpenPayload{PeerInfo: peer}}
}

type InternalProtocolConnectedPayload struct {
	PeerInfo PeerInfo
}

func NewInternalProtocolConnected(at int64, peer PeerInfo) Action {
	return Action{Kind: ActionInternalProtocolConnected, At: at, Payload: InternalProtocolConnectedPayload{PeerInfo: peer}}
}

// UpdateEntryAction distinguishes add vs. remove entries inside an update
// batch from a peer.
type UpdateEntryAction int

const (
	UpdateEntryAdd UpdateEntryAction = iota
	UpdateEntryRemove
)

type UpdateEntry struct {
	Action   UpdateEntryAction
	Route    LocalRoute // name/protocol/endpoint/envoyPort as advertised
	NodePath []string   // present for Add; ignored for Remove
}

type InternalProtocolUpdatePayload struct {
	PeerInfo PeerInfo
	Updates  []UpdateEntry
}

func NewInternalProtocolUpdate(at int64, peer PeerInfo, updates []UpdateEntry) Action {
	return Action{Kind: ActionInternalProtocolUpdate, At: at, Payload: InternalProtocolUpdatePayload{PeerInfo: peer, Updates: updates}}
}

type InternalProtocolClosePayload struct {
	PeerInfo PeerInfo
	Code     int
	Reason   string
}

func NewInternalProtocolClose(at int64, peer PeerInfo, code int, reason string) Action {
	return Action{Kind: ActionInternalProtocolClose, At: at, Payload: InternalProtocolClosePayload{PeerInfo: peer, Code: code, Reason: reason}}
}

type TickPayload struct{}

func NewTick(at int64) Action {
	return Action{Kind: ActionTick, At: at, Payload: TickPayload{}}
}
