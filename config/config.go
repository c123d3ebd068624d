package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultRPCTimeout         = 30 * time.Second
	defaultBlockIndexInterval = time.Minute
	defaultMaxBlockRangeSize  = 1000
	defaultCacheSize          = 100
	defaultTokenName          = "Token"
)

var (
	ErrUnknownChain        = errors.New("unknown chain")
	ErrInvalidRoute        = errors.New("invalid bridge route")
	ErrUnknownReadStrategy = errors.New("unknown read strategy")
)

// ReadStrategy selects the block at which the L1 escrow balance is read.
type ReadStrategy string

const (
	// ReadStrategyHead reads at the chain head observed at evaluation time.
	ReadStrategyHead ReadStrategy = "head"
	// ReadStrategyPinned reads the L1 balance at the block of the triggering transfer.
	ReadStrategyPinned ReadStrategy = "pinned"
)

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
	RPS     float64       `yaml:"rps"`
}

type ChainConfig struct {
	RPC                *RPCConfig    `yaml:"rpc"`
	ChainID            string        `yaml:"chain_id"`
	BlockTime          time.Duration `yaml:"block_time"`
	BlockIndexInterval time.Duration `yaml:"block_index_interval"`
	SafeLogsRequest    bool          `yaml:"safe_logs_request"`
}

// L1Config describes the L1 side watched for token transfers touching escrows.
type L1Config struct {
	ChainName          string         `yaml:"chain"`
	Chain              *ChainConfig   `yaml:"-"`
	TokenAddress       common.Address `yaml:"token_address"`
	TokenName          string         `yaml:"token_name"`
	StartBlock         uint           `yaml:"start_block"`
	BlockConfirmations uint           `yaml:"required_block_confirmations"`
	MaxBlockRangeSize  uint           `yaml:"max_block_range_size"`
}

// RouteConfig is a single L1 escrow / L2 token pair.
type RouteConfig struct {
	ID              string         `yaml:"id"`
	Name            string         `yaml:"name"`
	AlertPrefix     string         `yaml:"alert_prefix"`
	ChainName       string         `yaml:"chain"`
	Chain           *ChainConfig   `yaml:"-"`
	L1EscrowAddress common.Address `yaml:"l1_escrow_address"`
	L1TokenAddress  common.Address `yaml:"l1_token_address"`
	L2TokenAddress  common.Address `yaml:"l2_token_address"`
}

type CacheConfig struct {
	BalanceSize int `yaml:"balance_size"`
	SupplySize  int `yaml:"supply_size"`
}

type DBConfig struct {
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	DB               string `yaml:"database"`
	SSLMode          string `yaml:"sslmode"`
	MaxOpenConns     int    `yaml:"max_open_conns"`
	MaxIdleConns     int    `yaml:"max_idle_conns"`
	MigrationsSource string `yaml:"migrations_source"`
}

type PresenterConfig struct {
	Host string `yaml:"host"`
}

type MetricsConfig struct {
	Host string `yaml:"host"`
}

// AlertConfig tunes a periodic alert job evaluated over stored findings.
type AlertConfig struct {
	Window           time.Duration    `yaml:"window"`
	Threshold        string           `yaml:"threshold"`
	IgnoredAddresses []common.Address `yaml:"ignored_addresses"`
}

type Config struct {
	Chains       map[string]*ChainConfig `yaml:"chains"`
	L1           *L1Config               `yaml:"l1"`
	Routes       []*RouteConfig          `yaml:"routes"`
	ReadStrategy ReadStrategy            `yaml:"read_strategy"`
	Cache        *CacheConfig            `yaml:"cache"`
	DBConfig     *DBConfig               `yaml:"postgres"`
	LogLevel     logrus.Level            `yaml:"log_level"`
	Presenter    *PresenterConfig        `yaml:"presenter"`
	Metrics      *MetricsConfig          `yaml:"metrics"`
	Alerts       map[string]*AlertConfig `yaml:"alerts"`
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't access config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	return ReadConfig([]byte(os.ExpandEnv(string(blob))))
}

// ReadConfig decodes blob strictly, unknown fields are rejected.
func ReadConfig(blob []byte) (*Config, error) {
	cfg := &Config{LogLevel: logrus.InfoLevel}
	dec := yaml.NewDecoder(bytes.NewReader(blob))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("can't parse yaml: %w", err)
	}
	if err := cfg.init(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) init() error {
	for name, chain := range cfg.Chains {
		if chain.RPC == nil || chain.RPC.Host == "" {
			return fmt.Errorf("chain %s has no rpc host configured", name)
		}
		if chain.RPC.Timeout == 0 {
			chain.RPC.Timeout = defaultRPCTimeout
		}
		if chain.BlockIndexInterval == 0 {
			chain.BlockIndexInterval = defaultBlockIndexInterval
		}
	}

	if cfg.L1 == nil {
		return errors.New("l1 section is required")
	}
	var ok bool
	if cfg.L1.Chain, ok = cfg.Chains[cfg.L1.ChainName]; !ok {
		return fmt.Errorf("l1 chain %q: %w", cfg.L1.ChainName, ErrUnknownChain)
	}
	if cfg.L1.TokenAddress == (common.Address{}) {
		return errors.New("l1 token address is required")
	}
	if cfg.L1.TokenName == "" {
		cfg.L1.TokenName = defaultTokenName
	}
	if cfg.L1.MaxBlockRangeSize == 0 {
		cfg.L1.MaxBlockRangeSize = defaultMaxBlockRangeSize
	}

	if len(cfg.Routes) == 0 {
		return fmt.Errorf("at least one route is required: %w", ErrInvalidRoute)
	}
	ids := make(map[string]bool, len(cfg.Routes))
	escrows := make(map[common.Address]bool, len(cfg.Routes))
	prefixes := make(map[string]bool, len(cfg.Routes))
	for i, route := range cfg.Routes {
		if route.ID == "" {
			return fmt.Errorf("route #%d has no id: %w", i, ErrInvalidRoute)
		}
		if ids[route.ID] {
			return fmt.Errorf("duplicate route id %s: %w", route.ID, ErrInvalidRoute)
		}
		ids[route.ID] = true
		if route.Chain, ok = cfg.Chains[route.ChainName]; !ok {
			return fmt.Errorf("route %s chain %q: %w", route.ID, route.ChainName, ErrUnknownChain)
		}
		if route.L1EscrowAddress == (common.Address{}) || route.L2TokenAddress == (common.Address{}) {
			return fmt.Errorf("route %s must define escrow and l2 token addresses: %w", route.ID, ErrInvalidRoute)
		}
		if escrows[route.L1EscrowAddress] {
			return fmt.Errorf("route %s reuses escrow %s: %w", route.ID, route.L1EscrowAddress, ErrInvalidRoute)
		}
		escrows[route.L1EscrowAddress] = true
		if route.L1TokenAddress == (common.Address{}) {
			route.L1TokenAddress = cfg.L1.TokenAddress
		}
		if route.Name == "" {
			route.Name = route.ID
		}
		if route.AlertPrefix == "" {
			route.AlertPrefix = strings.ToUpper(route.ID)
		}
		if prefixes[route.AlertPrefix] {
			return fmt.Errorf("route %s reuses alert prefix %s: %w", route.ID, route.AlertPrefix, ErrInvalidRoute)
		}
		prefixes[route.AlertPrefix] = true
	}

	switch cfg.ReadStrategy {
	case "":
		cfg.ReadStrategy = ReadStrategyHead
	case ReadStrategyHead, ReadStrategyPinned:
	default:
		return fmt.Errorf("%q: %w", cfg.ReadStrategy, ErrUnknownReadStrategy)
	}

	if cfg.Cache == nil {
		cfg.Cache = new(CacheConfig)
	}
	if cfg.Cache.BalanceSize <= 0 {
		cfg.Cache.BalanceSize = defaultCacheSize
	}
	if cfg.Cache.SupplySize <= 0 {
		cfg.Cache.SupplySize = defaultCacheSize
	}
	return nil
}

// EscrowAddresses returns the escrow of every route in configuration order.
func (cfg *Config) EscrowAddresses() []common.Address {
	addresses := make([]common.Address, len(cfg.Routes))
	for i, route := range cfg.Routes {
		addresses[i] = route.L1EscrowAddress
	}
	return addresses
}

// TokenAddresses returns the distinct L1 token contracts to watch.
func (cfg *Config) TokenAddresses() []common.Address {
	addresses := []common.Address{cfg.L1.TokenAddress}
	seen := map[common.Address]bool{cfg.L1.TokenAddress: true}
	for _, route := range cfg.Routes {
		if !seen[route.L1TokenAddress] {
			seen[route.L1TokenAddress] = true
			addresses = append(addresses, route.L1TokenAddress)
		}
	}
	return addresses
}
