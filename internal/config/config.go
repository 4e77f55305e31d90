package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/itsib/0x-swap-api/internal/chain"
)

const (
	NullAddress            = "0x0000000000000000000000000000000000000000"
	DefaultNativeSentinel  = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"
	defaultHTTPPort        = 3000
	defaultRPCTimeoutMs    = 5000
	defaultRoutingTimeout  = 10000
	defaultPayTakerNonce   = 7
	defaultRedisStream     = "swap:quotes"
	defaultRedisActiveKey  = "swap:pairs:active"
	defaultRedisMaxLen     = 100_000
	defaultDepthMaxSamples = 50
)

type HTTPCfg struct {
	Port            int `yaml:"port"`
	HealthCheckPort int `yaml:"health_check_port"`
	ReadTimeoutMs   int `yaml:"read_timeout_ms"`
}

type ChainCfg struct {
	ID           uint64 `yaml:"id"`
	RPCURL       string `yaml:"rpc_url"`
	RPCTimeoutMs int    `yaml:"rpc_timeout_ms"`
	// StateOverrides forces call-time state override support on or off.
	// Unset means "as the chain usually does".
	StateOverrides *bool `yaml:"state_overrides"`
}

type ContractsCfg struct {
	ExchangeProxy            string `yaml:"exchange_proxy"`
	WrappedNativeToken       string `yaml:"wrapped_native_token"`
	Multicall                string `yaml:"multicall"`
	FeeRecipient             string `yaml:"fee_recipient"`
	NativeTokenSentinel      string `yaml:"native_token_sentinel"`
	PayTakerTransformerNonce uint32 `yaml:"pay_taker_transformer_nonce"`
}

type RoutingCfg struct {
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type GasEstimationCfg struct {
	FakeTakerBytecode  string          `yaml:"fake_taker_bytecode"`
	EstimateMultiplier decimal.Decimal `yaml:"estimate_multiplier"`
	BalanceMultiplier  decimal.Decimal `yaml:"balance_multiplier"`
	BufferMultiplier   decimal.Decimal `yaml:"buffer_multiplier"`
	DefaultGasLimit    uint64          `yaml:"default_gas_limit"`
	ValidationGasLimit uint64          `yaml:"validation_gas_limit"`
}

type QuoteCfg struct {
	DefaultSlippage         decimal.Decimal `yaml:"default_slippage"`
	DepthMaxSamples         int             `yaml:"depth_max_samples"`
	DepthDistributionBase   decimal.Decimal `yaml:"depth_distribution_base"`
	DepthMaxEndSlippagePerc decimal.Decimal `yaml:"depth_max_end_slippage_perc"`
}

type RedisCfg struct {
	Addr      string `yaml:"addr"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Stream    string `yaml:"stream"`
	ActiveKey string `yaml:"active_key"`
	MaxLen    int64  `yaml:"max_len"`
}

type TokenCfg struct {
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Address  string `yaml:"address"`
	Decimals int32  `yaml:"decimals"`
}

type Config struct {
	LogLevel string `yaml:"log_level"`

	HTTP          HTTPCfg          `yaml:"http"`
	Chain         ChainCfg         `yaml:"chain"`
	Contracts     ContractsCfg     `yaml:"contracts"`
	Routing       RoutingCfg       `yaml:"routing"`
	GasEstimation GasEstimationCfg `yaml:"gas_estimation"`
	Quote         QuoteCfg         `yaml:"quote"`
	Redis         RedisCfg         `yaml:"redis"`
	Tokens        []TokenCfg       `yaml:"tokens"`
}

// Load reads the YAML file at path (optional when empty), then a .env file
// in the working directory if present, then the process environment.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	c.setDefaults()
	return &c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs error
	integer := func(key string, set func(int64)) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		set(n)
	}

	integer("CHAIN_ID", func(n int64) { c.Chain.ID = uint64(n) })
	integer("HTTP_PORT", func(n int64) { c.HTTP.Port = int(n) })
	integer("HEALTH_CHECK_HTTP_PORT", func(n int64) { c.HTTP.HealthCheckPort = int(n) })
	str("ETHEREUM_RPC_URL", &c.Chain.RPCURL)
	str("FEE_RECIPIENT_ADDRESS", &c.Contracts.FeeRecipient)
	str("EXCHANGE_PROXY_ADDRESS", &c.Contracts.ExchangeProxy)
	str("LOG_LEVEL", &c.LogLevel)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("ROUTING_ENGINE_URL", &c.Routing.URL)
	return errs
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Chain.ID == 0 {
		c.Chain.ID = uint64(chain.Kovan)
	}
	if c.Chain.RPCTimeoutMs == 0 {
		c.Chain.RPCTimeoutMs = defaultRPCTimeoutMs
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = defaultHTTPPort
	}
	if c.HTTP.HealthCheckPort == 0 {
		c.HTTP.HealthCheckPort = c.HTTP.Port
	}
	if c.HTTP.ReadTimeoutMs == 0 {
		c.HTTP.ReadTimeoutMs = 6000
	}
	if c.Routing.TimeoutMs == 0 {
		c.Routing.TimeoutMs = defaultRoutingTimeout
	}
	if c.Contracts.FeeRecipient == "" {
		c.Contracts.FeeRecipient = NullAddress
	}
	if c.Contracts.NativeTokenSentinel == "" {
		c.Contracts.NativeTokenSentinel = DefaultNativeSentinel
	}
	if c.Contracts.PayTakerTransformerNonce == 0 {
		c.Contracts.PayTakerTransformerNonce = defaultPayTakerNonce
	}
	g := &c.GasEstimation
	if g.EstimateMultiplier.IsZero() {
		g.EstimateMultiplier = decimal.RequireFromString("1.5")
	}
	if g.BalanceMultiplier.IsZero() {
		g.BalanceMultiplier = decimal.RequireFromString("1.1")
	}
	if g.BufferMultiplier.IsZero() {
		g.BufferMultiplier = decimal.RequireFromString("1.2")
	}
	if g.DefaultGasLimit == 0 {
		g.DefaultGasLimit = 350_000
	}
	if g.ValidationGasLimit == 0 {
		g.ValidationGasLimit = 10_000_000
	}
	q := &c.Quote
	if q.DefaultSlippage.IsZero() {
		q.DefaultSlippage = decimal.RequireFromString("0.01")
	}
	if q.DepthMaxSamples == 0 {
		q.DepthMaxSamples = defaultDepthMaxSamples
	}
	if q.DepthDistributionBase.IsZero() {
		q.DepthDistributionBase = decimal.RequireFromString("1.05")
	}
	if q.DepthMaxEndSlippagePerc.IsZero() {
		q.DepthMaxEndSlippagePerc = decimal.NewFromInt(20)
	}
	if c.Redis.Stream == "" {
		c.Redis.Stream = defaultRedisStream
	}
	if c.Redis.ActiveKey == "" {
		c.Redis.ActiveKey = defaultRedisActiveKey
	}
	if c.Redis.MaxLen == 0 {
		c.Redis.MaxLen = defaultRedisMaxLen
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf(format, args...))
	}
	if !chain.ID(c.Chain.ID).IsSupported() {
		add("chain.id %d is not supported", c.Chain.ID)
	}
	if c.Chain.RPCURL == "" {
		add("chain.rpc_url (ETHEREUM_RPC_URL) is required")
	}
	if c.Routing.URL == "" {
		add("routing.url (ROUTING_ENGINE_URL) is required")
	}
	for name, addr := range map[string]string{
		"contracts.exchange_proxy":        c.Contracts.ExchangeProxy,
		"contracts.wrapped_native_token":  c.Contracts.WrappedNativeToken,
		"contracts.fee_recipient":         c.Contracts.FeeRecipient,
		"contracts.native_token_sentinel": c.Contracts.NativeTokenSentinel,
	} {
		if !common.IsHexAddress(addr) {
			add("%s: invalid address %q", name, addr)
		}
	}
	if c.Contracts.Multicall != "" && !common.IsHexAddress(c.Contracts.Multicall) {
		add("contracts.multicall: invalid address %q", c.Contracts.Multicall)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		add("http.port %d out of range", c.HTTP.Port)
	}
	if c.HTTP.HealthCheckPort <= 0 || c.HTTP.HealthCheckPort > 65535 {
		add("http.health_check_port %d out of range", c.HTTP.HealthCheckPort)
	}
	if c.GasEstimation.FakeTakerBytecode != "" && !strings.HasPrefix(c.GasEstimation.FakeTakerBytecode, "0x") {
		add("gas_estimation.fake_taker_bytecode must be 0x-prefixed hex")
	}
	if c.GasEstimation.EstimateMultiplier.LessThan(decimal.NewFromInt(1)) {
		add("gas_estimation.estimate_multiplier must be >= 1")
	}
	if c.GasEstimation.BalanceMultiplier.LessThan(decimal.NewFromInt(1)) {
		add("gas_estimation.balance_multiplier must be >= 1")
	}
	if c.Quote.DefaultSlippage.IsNegative() || c.Quote.DefaultSlippage.GreaterThan(decimal.NewFromInt(1)) {
		add("quote.default_slippage must be within [0, 1]")
	}
	for i, t := range c.Tokens {
		if t.Symbol == "" {
			add("tokens[%d]: symbol is required", i)
		}
		if !common.IsHexAddress(t.Address) {
			add("tokens[%d] %s: invalid address %q", i, t.Symbol, t.Address)
		}
		if t.Decimals < 0 || t.Decimals > 255 {
			add("tokens[%d] %s: decimals %d out of range", i, t.Symbol, t.Decimals)
		}
	}
	return errs
}

func (c *Config) RPCTimeout() time.Duration {
	return time.Duration(c.Chain.RPCTimeoutMs) * time.Millisecond
}

func (c *Config) RoutingTimeout() time.Duration {
	return time.Duration(c.Routing.TimeoutMs) * time.Millisecond
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.HTTP.ReadTimeoutMs) * time.Millisecond
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}

// HealthAddr is empty when health checks share the API port.
func (c *Config) HealthAddr() string {
	if c.HTTP.HealthCheckPort == c.HTTP.Port {
		return ""
	}
	return fmt.Sprintf(":%d", c.HTTP.HealthCheckPort)
}
