package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/malbeclabs/meshrib/internal/config"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
node:
  name: node-a
  endpoint: node-a.mesh:4000
envoyConfig:
  portRange:
    - lo: 20000
      hi: 20100
holdTime: 90
peers:
  - name: node-b
    endpoint: node-b.mesh:4000
    peerToken: tok-b
listenAddr: 0.0.0.0:4000
adminAddr: 127.0.0.1:4001
metricsAddr: 127.0.0.1:2112
logLevel: info
sharedSecret: shared-secret
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ParsesFullConfig(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "node-a", cfg.Node.Name)
	require.Equal(t, "node-a.mesh:4000", cfg.Node.Endpoint)
	require.Len(t, cfg.EnvoyConfig.PortRanges, 1)
	require.Equal(t, 20000, cfg.EnvoyConfig.PortRanges[0].Lo)
	require.Equal(t, 20100, cfg.EnvoyConfig.PortRanges[0].Hi)
	require.NotNil(t, cfg.HoldTime)
	require.Equal(t, int64(90), *cfg.HoldTime)
	require.Len(t, cfg.Peers, 1)
	require.Equal(t, "node-b", cfg.Peers[0].Name)
	require.Equal(t, "tok-b", cfg.Peers[0].PeerToken)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "shared-secret", cfg.SharedSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestReload_OnlyRefreshesLogLevelAndMetricsAddr(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	updated := `
node:
  name: node-a-renamed
logLevel: debug
metricsAddr: 127.0.0.1:9999
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
	require.NoError(t, cfg.Reload())

	require.Equal(t, "debug", cfg.CurrentLogLevel())
	require.Equal(t, "127.0.0.1:9999", cfg.CurrentMetricsAddr())
	require.Equal(t, "node-a", cfg.Node.Name)
}
