package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
		RateLimitRPS    float64       `yaml:"rate_limit_rps" default:"10" validate:"gt=0"`
		RateLimitBurst  int           `yaml:"rate_limit_burst" default:"20" validate:"gte=1"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Analysis   Analysis   `yaml:"analysis"`
	MarketData MarketData `yaml:"market_data"`
	Cache      struct {
		Type  string `yaml:"type" default:"memory" validate:"oneof=memory redis layered"`
		Redis struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"quantlab"`
			PoolSize int    `yaml:"pool_size" default:"10" validate:"gte=1"`
		} `yaml:"redis"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"512" validate:"gte=1"`
		MemoryCleanup time.Duration `yaml:"memory_cleanup" default:"1m" validate:"gt=0"`
	} `yaml:"cache"`
	Forecast struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout" default:"30s"`
		Retries int           `yaml:"retries" default:"2" validate:"gte=1"`
	} `yaml:"forecast"`
	Reports struct {
		Sinks         []string `yaml:"sinks" validate:"dive,oneof=file sqlite clickhouse kafka"`
		FilePath      string   `yaml:"file_path" default:"daily_reports.txt"`
		DefaultTicker string   `yaml:"default_ticker" default:"AAPL"`
		LookbackDays  int      `yaml:"lookback_days" default:"365" validate:"gte=2"`
		SQLitePath    string   `yaml:"sqlite_path" default:"quantlab.db"`
		KafkaTopic    string   `yaml:"kafka_topic" default:"quantlab.backtests"`
		ClickHouseTbl string   `yaml:"clickhouse_table" default:"backtest_runs"`
	} `yaml:"reports"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"quantlab"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		UseHTTP     bool          `yaml:"use_http"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"10s"`
		AsyncInsert bool          `yaml:"async_insert" default:"true"`
	} `yaml:"clickhouse"`
}

// Analysis holds the constants threaded into the metrics engine, the
// portfolio aggregator and the strategy defaults.
type Analysis struct {
	TradingDays   int     `yaml:"trading_days" default:"252" validate:"gte=1"`
	RiskFreeRate  float64 `yaml:"risk_free_rate" default:"0.04" validate:"gte=0,lt=1"`
	PortfolioBase float64 `yaml:"portfolio_base" default:"100" validate:"gt=0"`

	MomentumFast    int     `yaml:"momentum_fast" default:"20" validate:"gte=1"`
	MomentumSlow    int     `yaml:"momentum_slow" default:"50" validate:"gte=1"`
	MeanRevWindow   int     `yaml:"mean_reversion_window" default:"20" validate:"gte=2"`
	MeanRevThresh   float64 `yaml:"mean_reversion_threshold" default:"2.0"`
	RegimeTrend     int     `yaml:"regime_trend_window" default:"200" validate:"gte=1"`
	ForecastHorizon int     `yaml:"forecast_horizon" default:"30" validate:"gte=1,lte=365"`
}

// MarketData configures the price and rate collaborators.
type MarketData struct {
	BaseURL        string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
	Timeout        time.Duration `yaml:"timeout" default:"15s"`
	RequestsPerSec float64       `yaml:"requests_per_sec" default:"2" validate:"gt=0"`
	Burst          int           `yaml:"burst" default:"4" validate:"gte=1"`
	CacheTTL       time.Duration `yaml:"cache_ttl" default:"5m"`
	RateCacheTTL   time.Duration `yaml:"rate_cache_ttl" default:"1h"`
	ArchiveDir     string        `yaml:"archive_dir"`
	RiskFreeTicker string        `yaml:"risk_free_ticker" default:"^TNX"`
}

var validate = validator.New()

// Load reads a YAML configuration file, fills defaults and validates it.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Default returns a Config populated only from default tags.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error: defaults plus environment are used.
func LoadWithEnv(path string) (*Config, error) {
	var c *Config
	if _, err := os.Stat(path); err == nil {
		c, err = Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		c = Default()
	}

	if v := os.Getenv("QUANTLAB_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("DEFAULT_TICKER"); v != "" {
		c.Reports.DefaultTicker = strings.ToUpper(v)
	}
	if v := os.Getenv("RISK_FREE_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("RISK_FREE_RATE: %w", err)
		}
		c.Analysis.RiskFreeRate = rate
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("FORECAST_URL"); v != "" {
		c.Forecast.URL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Analysis.MomentumFast >= c.Analysis.MomentumSlow {
		return fmt.Errorf("analysis.momentum_fast (%d) must be below analysis.momentum_slow (%d)",
			c.Analysis.MomentumFast, c.Analysis.MomentumSlow)
	}
	for _, s := range c.Reports.Sinks {
		switch s {
		case "kafka":
			if len(c.Kafka.Brokers) == 0 {
				return fmt.Errorf("reports.sinks contains kafka but kafka.brokers is empty")
			}
		case "clickhouse":
			if c.ClickHouse.Host == "" {
				return fmt.Errorf("reports.sinks contains clickhouse but clickhouse.host is empty")
			}
		}
	}
	return nil
}

// HasSink reports whether the named run sink is enabled.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Reports.Sinks {
		if s == name {
			return true
		}
	}
	return false
}
