package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_RegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	require.ElementsMatch(t, []string{"serve", "peer", "route", "version"}, names)
}

func TestNewRootCmd_PersistentFlagsHaveDefaults(t *testing.T) {
	root := newRootCmd()

	config, err := root.PersistentFlags().GetString("config")
	require.NoError(t, err)
	require.Equal(t, "node.yaml", config)

	verbose, err := root.PersistentFlags().GetBool("verbose")
	require.NoError(t, err)
	require.False(t, verbose)
}

func TestNewPeerCmd_RegistersAddRemoveList(t *testing.T) {
	peer := newPeerCmd()

	names := make([]string, 0)
	for _, c := range peer.Commands() {
		names = append(names, c.Name())
	}
	require.Subset(t, names, []string{"add", "remove", "list"})
}

func TestNewRouteCmd_RegistersAddRemoveList(t *testing.T) {
	route := newRouteCmd()

	names := make([]string, 0)
	for _, c := range route.Commands() {
		names = append(names, c.Name())
	}
	require.Subset(t, names, []string{"add", "remove", "list"})
}
