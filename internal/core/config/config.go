package config

import (
	"time"

	redisclient "github.com/vietddude/dappwallet/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Solana  SolanaConfig  `yaml:"solana"`
	Near    NearConfig    `yaml:"near"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// BridgeConfig holds settings for the extension relay endpoint.
type BridgeConfig struct {
	Path           string        `yaml:"path"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"` // empty = any origin
}

// RPCConfig lists JSON-RPC endpoints for a chain, tried in order.
type RPCConfig struct {
	Timeout   time.Duration    `yaml:"timeout"`
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for an RPC provider.
type ProviderConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// SolanaConfig holds stake delegation settings.
type SolanaConfig struct {
	Network         string          `yaml:"network"`
	RPC             RPCConfig       `yaml:"rpc"`
	Validator       string          `yaml:"validator"`    // vote account, base58
	StakeAmount     string          `yaml:"stake_amount"` // SOL, decimal string
	ConfirmInterval time.Duration   `yaml:"confirm_interval"`
	SeedStore       SeedStoreConfig `yaml:"seed_store"`
}

// SeedStoreConfig enables cross-process stake seed reservation.
type SeedStoreConfig struct {
	Redis redisclient.Config `yaml:"redis"` // empty URL = timestamp seeds only
	TTL   time.Duration      `yaml:"ttl"`
}

// NearConfig holds function-call settings.
type NearConfig struct {
	Network  string    `yaml:"network"`
	RPC      RPCConfig `yaml:"rpc"`
	Receiver string    `yaml:"receiver"`
	Method   string    `yaml:"method"`
	Gas      uint64    `yaml:"gas"`
	Deposit  string    `yaml:"deposit"` // yoctoNEAR, decimal string
}
