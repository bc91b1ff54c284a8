// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper fron a config file or environement variables.
type Config struct {
	DBDriver      string `mapstructure:"DB_DRIVER"`
	DBSource      string `mapstructure:"DB_SOURCE"`
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	Environement  string `mapstructure:"GO_ENV"`

	PollInterval time.Duration `mapstructure:"POLL_INTERVAL"`

	BTCRPCHost string `mapstructure:"BTC_RPC_HOST"`
	BTCRPCUser string `mapstructure:"BTC_RPC_USER"`
	BTCRPCPass string `mapstructure:"BTC_RPC_PASS"`
	LTCRPCHost string `mapstructure:"LTC_RPC_HOST"`
	LTCRPCUser string `mapstructure:"LTC_RPC_USER"`
	LTCRPCPass string `mapstructure:"LTC_RPC_PASS"`

	EthRPCURL     string  `mapstructure:"ETH_RPC_URL"`
	ERC20Contract string  `mapstructure:"ERC20_CONTRACT"`
	EVMBatchSize  int64   `mapstructure:"EVM_BATCH_SIZE"`
	EVMMaxBatches int     `mapstructure:"EVM_MAX_BATCHES"`
	TronAPIURL    string  `mapstructure:"TRON_API_URL"`
	TronAPIKey    string  `mapstructure:"TRON_API_KEY"`
	TRC20Contract string  `mapstructure:"TRC20_CONTRACT"`
	CustodyURL    string  `mapstructure:"CUSTODY_URL"`
	RPCRatePerSec float64 `mapstructure:"RPC_RATE_PER_SEC"`

	RatesURL             string        `mapstructure:"RATES_URL"`
	RatesRefreshInterval time.Duration `mapstructure:"RATES_REFRESH_INTERVAL"`
	SwapMargin           string        `mapstructure:"SWAP_MARGIN"`

	KafkaBrokers []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string        `mapstructure:"KAFKA_TOPIC"`
	RedisAddress string        `mapstructure:"REDIS_ADDRESS"`
	RedisLockTTL time.Duration `mapstructure:"REDIS_LOCK_TTL"`
}

// Load read configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("POLL_INTERVAL", 30*time.Second)
	viper.SetDefault("EVM_BATCH_SIZE", 500)
	viper.SetDefault("EVM_MAX_BATCHES", 10)
	viper.SetDefault("RPC_RATE_PER_SEC", 10)
	viper.SetDefault("RATES_REFRESH_INTERVAL", time.Minute)
	viper.SetDefault("SWAP_MARGIN", "0.005")
	viper.SetDefault("KAFKA_TOPIC", "ledger_events")
	viper.SetDefault("REDIS_LOCK_TTL", 5*time.Minute)

	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = viper.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}

// NetworkFee holds the withdrawal fee and the minimal withdrawal amount of a network.
type NetworkFee struct {
	Fee       string `mapstructure:"fee"`
	MinAmount string `mapstructure:"min_amount"`
}

// DailyLimit holds rolling 24h withdrawal limits of a currency per verification tier.
type DailyLimit struct {
	Unverified string `mapstructure:"unverified"`
	Verified   string `mapstructure:"verified"`
}

// Policy is the raw withdrawal fee and limit tables.
type Policy struct {
	Fees   map[string]NetworkFee `mapstructure:"fees"`
	Limits map[string]DailyLimit `mapstructure:"limits"`
}

// LoadPolicy reads withdrawal tables from policy.yaml in the given path.
//
// It uses its own viper instance so it does not mix with the env config.
func LoadPolicy(path string) (Policy, error) {
	var p Policy

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("policy")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return p, err
	}

	if err := v.Unmarshal(&p); err != nil {
		return p, err
	}

	return p, nil
}
