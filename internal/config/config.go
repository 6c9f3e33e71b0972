package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Network    NetworkConfig    `yaml:"network"`
	Contracts  ContractsConfig  `yaml:"contracts"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	CoinGecko  CoinGeckoConfig  `yaml:"coinGecko"`
	PriceCache PriceCacheConfig `yaml:"priceCache"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// NetworkConfig holds the configuration of the single chain the dashboard
// talks to.
type NetworkConfig struct {
	Name           string `yaml:"name"`
	ChainID        int64  `yaml:"chainID"`
	ProviderURL    string `yaml:"providerURL"`
	RPCTimeoutMs   int64  `yaml:"rpcTimeoutMs"`
	ConnectTimeout int    `yaml:"connectTimeoutSeconds"`
}

// ContractsConfig holds the two deployed contract addresses.
type ContractsConfig struct {
	TokenAddress    string `yaml:"tokenAddress"`
	ExchangeAddress string `yaml:"exchangeAddress"`
}

// ExchangeConfig holds configuration for the connection & transaction
// manager.
type ExchangeConfig struct {
	ConfirmTimeoutSeconds int `yaml:"confirmTimeoutSeconds"`
	ReceiptPollMs         int `yaml:"receiptPollMs"`
	BalanceRefreshSeconds int `yaml:"balanceRefreshSeconds"`
}

// CoinGeckoConfig holds the configuration for the CoinGecko client.
type CoinGeckoConfig struct {
	BaseURL              string `yaml:"baseURL"`
	ApiKey               string `yaml:"apiKey"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	VsCurrency           string `yaml:"vsCurrency"`
}

// PriceCacheConfig holds configuration for the price cache & retry layer.
type PriceCacheConfig struct {
	TTLSeconds       int   `yaml:"ttlSeconds"`
	RateLimitDelayMs int64 `yaml:"rateLimitDelayMs"`
	MaxRetries       int   `yaml:"maxRetries"`
	RetryDelayMs     int64 `yaml:"retryDelayMs"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// LoadConfig loads configuration from a YAML file and applies defaults for
// anything not set.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if cfg.Contracts.TokenAddress == "" || cfg.Contracts.ExchangeAddress == "" {
		return nil, fmt.Errorf("contracts.tokenAddress and contracts.exchangeAddress must be configured")
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}

	if cfg.Network.RPCTimeoutMs == 0 {
		cfg.Network.RPCTimeoutMs = 10000
	}
	if cfg.Network.ConnectTimeout == 0 {
		cfg.Network.ConnectTimeout = 10
	}

	if cfg.Exchange.ConfirmTimeoutSeconds == 0 {
		cfg.Exchange.ConfirmTimeoutSeconds = 300 // 5 minutes, UX bound not a chain-state fact
		logrus.Infof("Exchange.ConfirmTimeoutSeconds not set, defaulting to %d", cfg.Exchange.ConfirmTimeoutSeconds)
	}
	if cfg.Exchange.ReceiptPollMs == 0 {
		cfg.Exchange.ReceiptPollMs = 2000
	}
	if cfg.Exchange.BalanceRefreshSeconds == 0 {
		cfg.Exchange.BalanceRefreshSeconds = 30
		logrus.Infof("Exchange.BalanceRefreshSeconds not set, defaulting to %d", cfg.Exchange.BalanceRefreshSeconds)
	}

	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
		logrus.Infof("CoinGecko.BaseURL not set, defaulting to %s", cfg.CoinGecko.BaseURL)
	}
	if cfg.CoinGecko.RequestTimeoutMillis == 0 {
		cfg.CoinGecko.RequestTimeoutMillis = 10000
	}
	if cfg.CoinGecko.VsCurrency == "" {
		cfg.CoinGecko.VsCurrency = "usd"
	}
	if key := os.Getenv("COINGECKO_API_KEY"); key != "" {
		cfg.CoinGecko.ApiKey = key
	}

	if cfg.PriceCache.TTLSeconds == 0 {
		cfg.PriceCache.TTLSeconds = 60
	}
	if cfg.PriceCache.RateLimitDelayMs == 0 {
		cfg.PriceCache.RateLimitDelayMs = 1000
	}
	if cfg.PriceCache.MaxRetries == 0 {
		cfg.PriceCache.MaxRetries = 3
	}
	if cfg.PriceCache.RetryDelayMs == 0 {
		cfg.PriceCache.RetryDelayMs = 1000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
