package ribcore_test

import (
	"testing"

	"github.com/malbeclabs/meshrib/internal/ribcore"
	"github.com/stretchr/testify/require"
)

func fixedPort(port int) ribcore.PortGetter {
	return func(string) (int, bool) { return port, true }
}

func noPort() ribcore.PortGetter {
	return func(string) (int, bool) { return 0, false }
}

func TestComputePropagations_LocalPeerCreate_SendsOpen(t *testing.T) {
	e := newEngine("A")
	action := ribcore.NewLocalPeerCreate(0, ribcore.LocalPeerCreatePayload{Name: "B", PeerToken: "tok"})
	plan := e.Plan(action, ribcore.NewEmptyState())
	require.True(t, plan.Success)

	props := e.ComputePropagations(action, ribcore.NewEmptyState(), plan.NewState, noPort())
	require.Len(t, props, 1)
	require.Equal(t, ribcore.PropagationOpen, props[0].Kind)
	require.Equal(t, "B", props[0].Peer.Name)
}

func TestComputePropagations_FullSync_SkipsWithoutToken(t *testing.T) {
	e := newEngine("A")
	action := ribcore.NewLocalPeerCreate(0, ribcore.LocalPeerCreatePayload{Name: "B", PeerToken: "tok"})
	created := e.Plan(action, ribcore.NewEmptyState())
	require.True(t, created.Success)

	// Simulate a peer whose token got cleared by a later update before Open fires.
	items := append([]ribcore.PeerRecord(nil), created.NewState.Peers.Items...)
	items[0].PeerToken = ""
	noToken := &ribcore.State{Local: created.NewState.Local, Internal: created.NewState.Internal, Peers: &ribcore.RouteSet[ribcore.PeerRecord]{Items: items}}

	openAction := ribcore.NewInternalProtocolOpen(0, ribcore.PeerInfo{Name: "B"})
	props := e.ComputePropagations(openAction, noToken, noToken, noPort())
	require.Empty(t, props)
}

func TestComputePropagations_FullSync_IncludesLocalAndInternalRoutes(t *testing.T) {
	e := newEngine("A")
	state := createPeer(t, e, ribcore.NewEmptyState(), "B")
	state = stateWithLocalRoute(state, ribcore.LocalRoute{Name: "svc-local", EnvoyPort: 100})
	state = stateWithInternal(state, ribcore.InternalRoute{Name: "svc-remote", PeerName: "C", NodePath: []string{"C"}})

	openAction := ribcore.NewInternalProtocolOpen(0, ribcore.PeerInfo{Name: "B"})
	props := e.ComputePropagations(openAction, state, state, fixedPort(5555))
	require.Len(t, props, 1)
	require.Equal(t, ribcore.PropagationUpdate, props[0].Kind)
	require.Len(t, props[0].Updates, 2)

	var sawLocal, sawRemote bool
	for _, u := range props[0].Updates {
		switch u.Route.Name {
		case "svc-local":
			sawLocal = true
			require.Equal(t, []string{"A"}, u.NodePath)
			require.Equal(t, 100, u.Route.EnvoyPort)
		case "svc-remote":
			sawRemote = true
			require.Equal(t, []string{"A", "C"}, u.NodePath)
			require.Equal(t, 5555, u.Route.EnvoyPort)
		}
	}
	require.True(t, sawLocal)
	require.True(t, sawRemote)
}

func TestComputePropagations_FullSync_SplitHorizon(t *testing.T) {
	e := newEngine("A")
	state := createPeer(t, e, ribcore.NewEmptyState(), "B")
	state = stateWithInternal(state, ribcore.InternalRoute{Name: "via-b", PeerName: "B", NodePath: []string{"B"}})

	openAction := ribcore.NewInternalProtocolOpen(0, ribcore.PeerInfo{Name: "B"})
	props := e.ComputePropagations(openAction, state, state, fixedPort(1))
	require.Len(t, props, 1)
	require.Empty(t, props[0].Updates)
}

func TestComputePropagations_InternalProtocolUpdate_SplitHorizonAndLoop(t *testing.T) {
	e := newEngine("A")
	state := createPeer(t, e, ribcore.NewEmptyState(), "B")
	state = createPeer(t, e, state, "C")

	action := ribcore.NewInternalProtocolUpdate(0, ribcore.PeerInfo{Name: "B"}, []ribcore.UpdateEntry{
		{Action: ribcore.UpdateEntryAdd, Route: ribcore.LocalRoute{Name: "svc"}, NodePath: []string{"B"}},
	})
	plan := e.Plan(action, state)
	require.True(t, plan.Success)

	props := e.ComputePropagations(action, state, plan.NewState, fixedPort(7777))
	// Only C should receive it (split-horizon excludes B, the source).
	require.Len(t, props, 1)
	require.Equal(t, "C", props[0].Peer.Name)
	require.Len(t, props[0].Updates, 1)
	require.Equal(t, []string{"A", "B"}, props[0].Updates[0].NodePath)
	require.Equal(t, 7777, props[0].Updates[0].Route.EnvoyPort)
}

func TestComputePropagations_InternalProtocolUpdate_RemoveAlwaysForwarded(t *testing.T) {
	e := newEngine("A")
	state := createPeer(t, e, ribcore.NewEmptyState(), "B")
	state = createPeer(t, e, state, "C")

	action := ribcore.NewInternalProtocolUpdate(0, ribcore.PeerInfo{Name: "B"}, []ribcore.UpdateEntry{
		{Action: ribcore.UpdateEntryRemove, Route: ribcore.LocalRoute{Name: "svc"}},
	})
	plan := e.Plan(action, state)
	require.True(t, plan.Success)

	props := e.ComputePropagations(action, state, plan.NewState, noPort())
	require.Len(t, props, 1)
	require.Equal(t, "C", props[0].Peer.Name)
	require.Equal(t, ribcore.UpdateEntryRemove, props[0].Updates[0].Action)
}

func TestComputePropagations_LocalPeerDelete_SendsCloseAndWithdrawal(t *testing.T) {
	e := newEngine("A")
	state := createPeer(t, e, ribcore.NewEmptyState(), "B")
	state = createPeer(t, e, state, "C")
	state = stateWithInternal(state, ribcore.InternalRoute{Name: "via-b", PeerName: "B", NodePath: []string{"B"}})

	action := ribcore.NewLocalPeerDelete(0, ribcore.LocalPeerDeletePayload{Name: "B"})
	plan := e.Plan(action, state)
	require.True(t, plan.Success)

	props := e.ComputePropagations(action, state, plan.NewState, noPort())
	require.Len(t, props, 2)

	var gotClose, gotWithdrawal bool
	for _, p := range props {
		switch p.Kind {
		case ribcore.PropagationClose:
			gotClose = true
			require.Equal(t, "B", p.Peer.Name)
			require.Equal(t, 1000, p.Code)
		case ribcore.PropagationUpdate:
			gotWithdrawal = true
			require.Equal(t, "C", p.Peer.Name)
			require.Equal(t, ribcore.UpdateEntryRemove, p.Updates[0].Action)
		}
	}
	require.True(t, gotClose)
	require.True(t, gotWithdrawal)
}

func TestComputePropagations_Tick_BatchesMultipleExpiredWithdrawals(t *testing.T) {
	e := newEngine("A")
	state := createPeerWithHoldTime(t, e, ribcore.NewEmptyState(), "B", holdTime(10))
	state = createPeerWithHoldTime(t, e, state, "C", holdTime(10))
	state = createPeer(t, e, state, "D") // no hold time: never expires
	state = markReceived(t, state, "B", 0)
	state = markReceived(t, state, "C", 0)
	state = stateWithInternal(state,
		ribcore.InternalRoute{Name: "via-b", PeerName: "B", NodePath: []string{"B"}},
		ribcore.InternalRoute{Name: "via-c", PeerName: "C", NodePath: []string{"C"}},
	)

	action := ribcore.NewTick(20000)
	plan := e.Plan(action, state)
	require.True(t, plan.Success)
	require.Len(t, plan.NewState.Peers.Items, 1)
	require.Equal(t, "D", plan.NewState.Peers.Items[0].Name)

	props := e.ComputePropagations(action, state, plan.NewState, noPort())
	require.Len(t, props, 1) // single batched update to the one surviving connected peer, D
	require.Equal(t, "D", props[0].Peer.Name)
	require.Len(t, props[0].Updates, 2)
	for _, u := range props[0].Updates {
		require.Equal(t, ribcore.UpdateEntryRemove, u.Action)
	}
}

func TestComputePropagations_Tick_KeepaliveOnStaleness(t *testing.T) {
	e := newEngine("A")
	state := createPeerWithHoldTime(t, e, ribcore.NewEmptyState(), "B", holdTime(30))
	// stampLastSent equivalent: manually mark LastSent far in the past.
	items := append([]ribcore.PeerRecord(nil), state.Peers.Items...)
	sentAt := int64(0)
	items[0].LastSent = &sentAt
	state = stateWithPeers(state, items)

	action := ribcore.NewTick(11000) // threshold = 30/3*1000 = 10000ms
	plan := e.Plan(action, state)
	require.True(t, plan.Success)

	props := e.ComputePropagations(action, state, plan.NewState, noPort())
	require.Len(t, props, 1)
	require.Equal(t, ribcore.PropagationKeepalive, props[0].Kind)
	require.Equal(t, "B", props[0].Peer.Name)
}

func TestComputePropagations_Tick_NoKeepaliveWhenFresh(t *testing.T) {
	e := newEngine("A")
	state := createPeerWithHoldTime(t, e, ribcore.NewEmptyState(), "B", holdTime(30))
	items := append([]ribcore.PeerRecord(nil), state.Peers.Items...)
	sentAt := int64(9000)
	items[0].LastSent = &sentAt
	state = stateWithPeers(state, items)

	action := ribcore.NewTick(11000)
	plan := e.Plan(action, state)
	require.True(t, plan.Success)

	props := e.ComputePropagations(action, state, plan.NewState, noPort())
	require.Empty(t, props)
}

func stateWithLocalRoute(s *ribcore.State, routes ...ribcore.LocalRoute) *ribcore.State {
	cp := ribcore.NewEmptyState()
	cp.Internal = s.Internal
	cp.Peers = s.Peers
	cp.Local = &ribcore.RouteSet[ribcore.LocalRoute]{Items: routes}
	return cp
}
