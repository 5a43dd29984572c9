package config

import (
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Funding    FundingConfig    `mapstructure:"funding"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// FundingConfig holds the platform-wide per-contribution bounds in minor
// units. A campaign may narrow them with its own non-zero bounds.
type FundingConfig struct {
	MinContribution int64 `mapstructure:"min_contribution"`
	MaxContribution int64 `mapstructure:"max_contribution"`
}

// SettlementConfig configures the external Escrow Settlement Service.
type SettlementConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	APIKey         string `mapstructure:"api_key"`
}

func (s SettlementConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ChainConfig configures read-only access to the settlement chain used by
// the reconciliation monitor.
type ChainConfig struct {
	RPCURL        string `mapstructure:"rpc_url"`        // RPC node URL
	ContractAddr  string `mapstructure:"contract_addr"`  // escrow contract address
	StartBlock    uint64 `mapstructure:"start_block"`    // first block to scan
	Confirmations int    `mapstructure:"confirmations"`  // depth before a tx counts as settled
	Enabled       bool   `mapstructure:"enabled"`        // monitor off when no chain is reachable
}

type SchedulerConfig struct {
	Interval int `mapstructure:"interval"` // seconds
}

type NotifyConfig struct {
	Workers int `mapstructure:"workers"`
}

// AuthConfig lists the addresses holding the administrative capability.
// Identity itself comes from the external provider.
type AuthConfig struct {
	Admins []string `mapstructure:"admins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // stdout or file
	File   string `mapstructure:"file"`   // log file path when output is file
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/boundless")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "boundless")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("funding.min_contribution", 100)
	viper.SetDefault("funding.max_contribution", 0)
	viper.SetDefault("settlement.base_url", "http://localhost:9090")
	viper.SetDefault("settlement.timeout_seconds", 10)
	viper.SetDefault("chain.start_block", 0)
	viper.SetDefault("chain.confirmations", 12)
	viper.SetDefault("chain.enabled", false)
	viper.SetDefault("scheduler.interval", 60)
	viper.SetDefault("notify.workers", 8)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
