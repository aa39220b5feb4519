// Package config loads the node's YAML configuration file: identity,
// bootstrap peers, port range, and listener addresses. Hot-reload (via
// Reload) only refreshes LogLevel and MetricsAddr, matching the narrow,
// intentionally-scoped hot-reload surface of
// client/doublezerod/internal/config.Config (which only hot-reloads the
// ledger RPC URL and program ID, not its whole structure).
package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

type PortRange struct {
	Lo int `yaml:"lo"`
	Hi int `yaml:"hi"`
}

type PeerBootstrap struct {
	Name      string   `yaml:"name"`
	Endpoint  string   `yaml:"endpoint"`
	Domains   []string `yaml:"domains,omitempty"`
	PeerToken string   `yaml:"peerToken"`
	HoldTime  *int64   `yaml:"holdTime,omitempty"`
}

type NodeConfig struct {
	Name     string   `yaml:"name"`
	Endpoint string   `yaml:"endpoint"`
	Domains  []string `yaml:"domains,omitempty"`
}

type EnvoyConfig struct {
	PortRanges []PortRange `yaml:"portRange"`
}

// Config is the root of node.yaml.
type Config struct {
	Node          NodeConfig      `yaml:"node"`
	EnvoyConfig   EnvoyConfig     `yaml:"envoyConfig"`
	HoldTime      *int64          `yaml:"holdTime,omitempty"`
	Peers         []PeerBootstrap `yaml:"peers,omitempty"`
	ListenAddr    string          `yaml:"listenAddr"`
	AdminAddr     string          `yaml:"adminAddr"`
	MetricsAddr   string          `yaml:"metricsAddr"`
	LogLevel      string          `yaml:"logLevel"`
	CheckpointDir string          `yaml:"checkpointDir,omitempty"`
	SharedSecret  string          `yaml:"sharedSecret"`

	path string
	mu   sync.RWMutex
}

// Load reads and parses path into a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{path: path}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Reload re-reads path and refreshes only LogLevel and MetricsAddr in
// place — the bootstrap peer list and listen addresses require a process
// restart to take effect, since they're consumed once at startup.
func (c *Config) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("config: reload %s: %w", c.path, err)
	}
	var next Config
	if err := yaml.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("config: parse %s: %w", c.path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.LogLevel = next.LogLevel
	c.MetricsAddr = next.MetricsAddr
	return nil
}

func (c *Config) CurrentLogLevel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LogLevel
}

func (c *Config) CurrentMetricsAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.MetricsAddr
}
