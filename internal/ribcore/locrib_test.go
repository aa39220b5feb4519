package ribcore_test

import (
	"testing"

	"github.com/malbeclabs/meshrib/internal/ribcore"
	"github.com/stretchr/testify/require"
)

func TestSelectBestPaths_Empty(t *testing.T) {
	entries := ribcore.SelectBestPaths(ribcore.NewEmptyState())
	require.Empty(t, entries)
}

func TestSelectBestPaths_OnlyCandidate(t *testing.T) {
	s := ribcore.NewEmptyState()
	s = stateWithInternal(s, ribcore.InternalRoute{Name: "svc", PeerName: "B", NodePath: []string{"B"}})

	entries := ribcore.SelectBestPaths(s)
	require.Len(t, entries, 1)
	entry := entries["svc"]
	require.Equal(t, ribcore.SelectionReasonOnlyCandidate, entry.SelectionReason)
	require.Equal(t, "B", entry.BestPath.PeerName)
	require.Empty(t, entry.Alternatives)
}

func TestSelectBestPaths_ShortestNodePathWins(t *testing.T) {
	s := ribcore.NewEmptyState()
	s = stateWithInternal(s,
		ribcore.InternalRoute{Name: "svc", PeerName: "B", NodePath: []string{"B", "C"}},
		ribcore.InternalRoute{Name: "svc", PeerName: "D", NodePath: []string{"D"}},
	)

	entries := ribcore.SelectBestPaths(s)
	entry := entries["svc"]
	require.Equal(t, ribcore.SelectionReasonShortestNodePath, entry.SelectionReason)
	require.Equal(t, "D", entry.BestPath.PeerName)
	require.Len(t, entry.Alternatives, 1)
	require.Equal(t, "B", entry.Alternatives[0].PeerName)
}

func TestSelectBestPaths_LexicographicTiebreak(t *testing.T) {
	s := ribcore.NewEmptyState()
	s = stateWithInternal(s,
		ribcore.InternalRoute{Name: "svc", PeerName: "Z", NodePath: []string{"Z"}},
		ribcore.InternalRoute{Name: "svc", PeerName: "A", NodePath: []string{"A"}},
	)

	entries := ribcore.SelectBestPaths(s)
	entry := entries["svc"]
	require.Equal(t, "A", entry.BestPath.PeerName)
	require.Equal(t, "Z", entry.Alternatives[0].PeerName)
}

func TestSelectBestPaths_OneEntryPerRouteName(t *testing.T) {
	s := ribcore.NewEmptyState()
	s = stateWithInternal(s,
		ribcore.InternalRoute{Name: "zeta", PeerName: "B", NodePath: []string{"B"}},
		ribcore.InternalRoute{Name: "alpha", PeerName: "B", NodePath: []string{"B"}},
	)
	entries := ribcore.SelectBestPaths(s)
	require.Contains(t, entries, "zeta")
	require.Contains(t, entries, "alpha")
}

func stateWithInternal(s *ribcore.State, routes ...ribcore.InternalRoute) *ribcore.State {
	cp := ribcore.NewEmptyState()
	cp.Local = s.Local
	cp.Peers = s.Peers
	cp.Internal = &ribcore.RouteSet[ribcore.InternalRoute]{Items: routes}
	return cp
}
