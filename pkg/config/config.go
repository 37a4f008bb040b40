package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Provider names accepted in market_data.providers.
const (
	ProviderAlphaVantage = "alphavantage"
	ProviderYahoo        = "yahoo"
	ProviderClickHouse   = "clickhouse"
)

// Model backends.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		Path          string        `yaml:"path" default:"/metrics"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"1s"`
	} `yaml:"metrics"`
	Forecast struct {
		Ticker string `yaml:"ticker" default:"PETR4.SA"`
	} `yaml:"forecast"`
	Model struct {
		Backend          string `yaml:"backend" default:"local"`
		Path             string `yaml:"path" default:"models/lstm_model.keras"`
		InputScalerPath  string `yaml:"input_scaler_path" default:"models/scaler_x.json"`
		OutputScalerPath string `yaml:"output_scaler_path" default:"models/scaler_y.json"`
		Remote           struct {
			URL       string        `yaml:"url"`
			ModelName string        `yaml:"model_name" default:"lstm_model"`
			Timeout   time.Duration `yaml:"timeout" default:"3s"`
		} `yaml:"remote"`
	} `yaml:"model"`
	MarketData struct {
		Providers   []string      `yaml:"providers"`
		Timeout     time.Duration `yaml:"timeout" default:"4s"`
		Budget      time.Duration `yaml:"budget" default:"8s"`
		CacheTTL    time.Duration `yaml:"cache_ttl" default:"1h"`
		RefreshCron string        `yaml:"refresh_cron"`
		RateLimit   struct {
			Capacity     float64 `yaml:"capacity" default:"5"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"0.0833"`
		} `yaml:"rate_limit"`
	} `yaml:"market_data"`
	AlphaVantage struct {
		APIKey     string `yaml:"api_key"`
		BaseURL    string `yaml:"base_url" default:"https://www.alphavantage.co"`
		Symbol     string `yaml:"symbol" default:"PETR4.SAO"`
		OutputSize string `yaml:"output_size" default:"compact"`
	} `yaml:"alphavantage"`
	Yahoo struct {
		BaseURL string `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		Symbol  string `yaml:"symbol" default:"PETR4.SA"`
		Range   string `yaml:"range" default:"6mo"`
		Proxy   string `yaml:"proxy"`
	} `yaml:"yahoo"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"forecast"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"daily_closes"`
		Symbol           string        `yaml:"symbol" default:"PETR4.SA"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"10s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"forecast.predictions"`
		RequiredAcks int           `yaml:"required_acks" default:"1"`
		Compression  string        `yaml:"compression" default:"snappy"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"100ms"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		Async        bool          `yaml:"async" default:"true"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"forecast"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	var c Config
	// Defaults first so explicit false or zero values in the file survive.
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if len(c.MarketData.Providers) == 0 {
		c.MarketData.Providers = []string{ProviderAlphaVantage}
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML, overrides with environment variables and validates.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("MODEL_BACKEND"); v != "" {
		c.Model.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Forecast.Ticker == "" {
		return fmt.Errorf("forecast.ticker is required")
	}
	switch c.Model.Backend {
	case BackendLocal:
		if c.Model.Path == "" {
			return fmt.Errorf("model.path is required for the local backend")
		}
	case BackendRemote:
		if c.Model.Remote.URL == "" {
			return fmt.Errorf("model.remote.url is required for the remote backend")
		}
	default:
		return fmt.Errorf("model.backend must be '%s' or '%s', got '%s'", BackendLocal, BackendRemote, c.Model.Backend)
	}
	for _, p := range c.MarketData.Providers {
		switch p {
		case ProviderAlphaVantage, ProviderYahoo, ProviderClickHouse:
		default:
			return fmt.Errorf("market_data.providers: unknown provider '%s'", p)
		}
	}
	if err := c.validateMarketDataTimeouts(); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

// validateMarketDataTimeouts keeps /sample-data answering before the server write deadline.
func (c *Config) validateMarketDataTimeouts() error {
	md := c.MarketData
	if md.Timeout <= 0 {
		return fmt.Errorf("market_data.timeout must be positive")
	}
	if md.Budget <= 0 {
		return fmt.Errorf("market_data.budget must be positive")
	}
	wt := c.Server.WriteTimeout
	if wt <= 0 {
		return nil
	}
	if md.Budget >= wt {
		return fmt.Errorf("market_data.budget (%s) must be below server.write_timeout (%s)", md.Budget, wt)
	}
	if worst := time.Duration(len(md.Providers)) * md.Timeout; worst >= wt {
		return fmt.Errorf("%d providers x market_data.timeout (%s) = %s must be below server.write_timeout (%s)",
			len(md.Providers), md.Timeout, worst, wt)
	}
	return nil
}

// HasProvider reports whether name is part of the configured provider chain.
func (c *Config) HasProvider(name string) bool {
	for _, p := range c.MarketData.Providers {
		if p == name {
			return true
		}
	}
	return false
}
