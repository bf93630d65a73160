package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Peer struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address" validate:"required,url"`
}

type DiscoveryConfig struct {
	Enabled                 bool   `yaml:"enabled"`
	MulticastAddr           string `yaml:"multicast_addr" validate:"required,hostname_port"`
	AnnounceIntervalSeconds int    `yaml:"announce_interval_seconds" validate:"gte=1"`
}

type MainConfig struct {
	Port                string          `yaml:"port" validate:"required"`
	WebPath             string          `yaml:"web_path" validate:"required,startswith=/"`
	LogPath             string          `yaml:"log_path"`
	NodeName            string          `yaml:"node_name" validate:"required"`
	Peers               []Peer          `yaml:"peers" validate:"dive"`
	TrustTransportOrder bool            `yaml:"trust_transport_order"`
	SeenCacheSize       int             `yaml:"seen_cache_size" validate:"gte=1"`
	Discovery           DiscoveryConfig `yaml:"discovery"`
}

// LoadMainConfig Read the configuration file and return the configuration object
func LoadMainConfig(basePath string) (*MainConfig, error) {

	defaultCfg := MainConfig{
		Port:          "25585",
		WebPath:       "/mesh",
		LogPath:       "",
		NodeName:      fmt.Sprintf("songmesh-%d", os.Getpid()),
		SeenCacheSize: 4096,
		Discovery: DiscoveryConfig{
			Enabled:                 false,
			MulticastAddr:           "239.255.255.250:25586",
			AnnounceIntervalSeconds: 5,
		},
	}

	exePath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	if basePath == "" {
		basePath = filepath.Dir(exePath)
	}
	configPath := filepath.Join(basePath, "config", "songmesh.yml")

	cfg := defaultCfg
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// No config file: run on defaults.
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the structural constraints on a configuration.
func Validate(cfg *MainConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
