package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	defaultPort            = 8080
	defaultBridgePath      = "/bridge"
	defaultRequestTimeout  = 2 * time.Minute
	defaultRPCTimeout      = 30 * time.Second
	defaultConfirmInterval = 2 * time.Second
	defaultSeedTTL         = 24 * time.Hour
	defaultStakeAmount     = "0.1"
	defaultNearMethod      = "deposit_and_stake"
	defaultNearGas         = 30_000_000_000_000 // 30 TGas
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Bridge.Path == "" {
		cfg.Bridge.Path = defaultBridgePath
	}
	if cfg.Bridge.RequestTimeout == 0 {
		cfg.Bridge.RequestTimeout = defaultRequestTimeout
	}

	if cfg.Solana.Network == "" {
		cfg.Solana.Network = "devnet"
	}
	if cfg.Solana.RPC.Timeout == 0 {
		cfg.Solana.RPC.Timeout = defaultRPCTimeout
	}
	if cfg.Solana.StakeAmount == "" {
		cfg.Solana.StakeAmount = defaultStakeAmount
	}
	if cfg.Solana.ConfirmInterval == 0 {
		cfg.Solana.ConfirmInterval = defaultConfirmInterval
	}
	if cfg.Solana.SeedStore.TTL == 0 {
		cfg.Solana.SeedStore.TTL = defaultSeedTTL
	}

	if cfg.Near.Network == "" {
		cfg.Near.Network = "mainnet"
	}
	if cfg.Near.RPC.Timeout == 0 {
		cfg.Near.RPC.Timeout = defaultRPCTimeout
	}
	if cfg.Near.Method == "" {
		cfg.Near.Method = defaultNearMethod
	}
	if cfg.Near.Gas == 0 {
		cfg.Near.Gas = defaultNearGas
	}
	if cfg.Near.Deposit == "" {
		cfg.Near.Deposit = "0"
	}
}
