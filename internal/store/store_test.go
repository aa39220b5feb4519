package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/malbeclabs/meshrib/internal/ribcore"
	"github.com/malbeclabs/meshrib/internal/store"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsEmptyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	s := store.New(path, nil)

	state, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, state.Local.Items)
	require.Empty(t, state.Internal.Items)
	require.Empty(t, state.Peers.Items)
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	s := store.New(path, nil)

	state := &ribcore.State{
		Local: &ribcore.RouteSet[ribcore.LocalRoute]{Items: []ribcore.LocalRoute{
			{Name: "svc", Protocol: ribcore.ProtocolHTTP, Endpoint: "127.0.0.1:8080", EnvoyPort: 9000},
		}},
		Internal: &ribcore.RouteSet[ribcore.InternalRoute]{Items: []ribcore.InternalRoute{
			{Name: "remote", PeerName: "B", Endpoint: "10.0.0.1:80", NodePath: []string{"B"}},
		}},
		Peers: &ribcore.RouteSet[ribcore.PeerRecord]{Items: []ribcore.PeerRecord{
			{Name: "B", Endpoint: "node-b:4000"},
		}},
	}

	s.Save(state)

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Local.Items, 1)
	require.Equal(t, "svc", loaded.Local.Items[0].Name)
	require.Len(t, loaded.Internal.Items, 1)
	require.Equal(t, "remote", loaded.Internal.Items[0].Name)
	require.Len(t, loaded.Peers.Items, 1)
	require.Equal(t, "B", loaded.Peers.Items[0].Name)
}

func TestSave_LeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")
	s := store.New(path, nil)

	s.Save(ribcore.NewEmptyState())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "checkpoint.json", entries[0].Name())
}

func TestSave_OverwritesPreviousCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	s := store.New(path, nil)

	s.Save(&ribcore.State{
		Local:    &ribcore.RouteSet[ribcore.LocalRoute]{Items: []ribcore.LocalRoute{{Name: "first"}}},
		Internal: &ribcore.RouteSet[ribcore.InternalRoute]{},
		Peers:    &ribcore.RouteSet[ribcore.PeerRecord]{},
	})
	s.Save(&ribcore.State{
		Local:    &ribcore.RouteSet[ribcore.LocalRoute]{Items: []ribcore.LocalRoute{{Name: "second"}}},
		Internal: &ribcore.RouteSet[ribcore.InternalRoute]{},
		Peers:    &ribcore.RouteSet[ribcore.PeerRecord]{},
	})

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Local.Items, 1)
	require.Equal(t, "second", loaded.Local.Items[0].Name)
}
