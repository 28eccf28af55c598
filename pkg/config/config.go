package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"CoinSense/pkg/cache"
	"CoinSense/pkg/clickhouse"
	applogger "CoinSense/pkg/logger"
)

// Recorder backends.
const (
	RecorderKafka      = "kafka"
	RecorderClickHouse = "clickhouse"
	RecorderNone       = "none"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
		CORS            bool          `yaml:"cors" default:"true"`
		RateLimit       struct {
			Enabled bool    `yaml:"enabled" default:"true"`
			RPS     float64 `yaml:"rps" default:"5"`
			Burst   int     `yaml:"burst" default:"10"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Log          applogger.Config `yaml:"log"`
	LogCollector struct {
		Enabled   bool          `yaml:"enabled"`
		Topic     string        `yaml:"topic" default:"coinsense.logs"`
		Interval  time.Duration `yaml:"interval" default:"30s"`
		Threshold int           `yaml:"threshold" default:"100"`
	} `yaml:"log_collector"`
	Recorder struct {
		Backend       string        `yaml:"backend" default:"none" validate:"oneof=kafka clickhouse none"`
		Topic         string        `yaml:"topic" default:"coinsense.decisions"`
		BufferSize    int           `yaml:"buffer_size" default:"256"`
		BatchSize     int           `yaml:"batch_size" default:"50"`
		FlushInterval time.Duration `yaml:"flush_interval" default:"2s"`
	} `yaml:"recorder"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		AutoCreate   bool     `yaml:"auto_create_topics"`
		Chat         struct {
			Enabled      bool   `yaml:"enabled"`
			RequestTopic string `yaml:"request_topic" default:"coinsense.chat.requests"`
			ReplyTopic   string `yaml:"reply_topic" default:"coinsense.chat.replies"`
		} `yaml:"chat"`
		Consumer struct {
			GroupID     string        `yaml:"group_id" default:"coinsense"`
			StartOffset string        `yaml:"start_offset" default:"latest" validate:"oneof=earliest latest"`
			Workers     int           `yaml:"workers" default:"4"`
			BufferSize  int           `yaml:"buffer_size" default:"64"`
			RetryMax    int           `yaml:"retry_max" default:"3"`
			BackoffMin  time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax  time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic    string        `yaml:"dlq_topic" default:"coinsense.chat.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse clickhouse.Config `yaml:"clickhouse"`
	Cache      cache.Config      `yaml:"cache"`
	CoinGecko  struct {
		APIKey   string        `yaml:"api_key"`
		Pro      bool          `yaml:"pro"`
		BaseURL  string        `yaml:"base_url"`
		Timeout  time.Duration `yaml:"timeout" default:"10s"`
		RPS      float64       `yaml:"rps" default:"0.5"`
		Burst    int           `yaml:"burst" default:"5"`
		ListTTL  time.Duration `yaml:"list_ttl" default:"1h"`
		PriceTTL time.Duration `yaml:"price_ttl" default:"30s"`
	} `yaml:"coingecko"`
	RapidTwitter struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url" default:"https://twitter154.p.rapidapi.com"`
		Timeout time.Duration `yaml:"timeout" default:"10s"`
		RPS     float64       `yaml:"rps" default:"1"`
		Limit   int           `yaml:"limit" default:"10"`
	} `yaml:"rapid_twitter"`
	Codex struct {
		APIKey   string        `yaml:"api_key"`
		URL      string        `yaml:"url" default:"https://graph.codex.io/graphql"`
		Networks []int         `yaml:"networks" default:"[1,42161,8453]"`
		Timeout  time.Duration `yaml:"timeout" default:"10s"`
		RPS      float64       `yaml:"rps" default:"1"`
	} `yaml:"codex"`
	Decision DecisionConfig `yaml:"decision"`
}

// DecisionConfig is the yaml side of the decision engine settings. Zero weights
// mean "use the engine defaults" so a config file may omit the block entirely.
type DecisionConfig struct {
	Policy           string  `yaml:"policy" default:"single" validate:"oneof=single dual"`
	RankSource       string  `yaml:"rank_source" default:"market_cap" validate:"oneof=market_cap trending"`
	RankCeiling      float64 `yaml:"rank_ceiling" default:"500" validate:"gt=0"`
	MarketCapCeiling float64 `yaml:"market_cap_ceiling" default:"1000000000" validate:"gt=0"`
	VolumeCeiling    float64 `yaml:"volume_ceiling" default:"10000000" validate:"gt=0"`
	ClampTrending    bool    `yaml:"clamp_trending"`
	Weights          struct {
		Trending  float64 `yaml:"trending"`
		MarketCap float64 `yaml:"market_cap"`
		Liquidity float64 `yaml:"liquidity"`
		Stability float64 `yaml:"stability"`
	} `yaml:"weights"`
	Thresholds struct {
		Buy              float64 `yaml:"buy" default:"50"`
		High             float64 `yaml:"high" default:"70"`
		StabilityFloor   float64 `yaml:"stability_floor" default:"70"`
		StabilityCeiling float64 `yaml:"stability_ceiling" default:"50"`
	} `yaml:"thresholds"`
	DefaultPersona string `yaml:"default_persona" default:"bizyugo"`

	// Personas overrides rank ceilings per persona name.
	Personas map[string]float64 `yaml:"personas"`
	Seed     int64              `yaml:"seed"`
}

// HasWeights reports whether any weight was configured.
func (d DecisionConfig) HasWeights() bool {
	w := d.Weights
	return w.Trending != 0 || w.MarketCap != 0 || w.Liquidity != 0 || w.Stability != 0
}

var validate = validator.New()

// Default returns a config with every default applied and no file read.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads a YAML file, applies defaults and validates. An empty path yields defaults.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets and endpoints from the environment.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := getenv("COINGECKO_PRO"); v != "" {
		pro, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COINGECKO_PRO: %w", err)
		}
		c.CoinGecko.Pro = pro
	}
	if v := getenv("RAPID_API_KEY"); v != "" {
		c.RapidTwitter.APIKey = v
	}
	if v := getenv("CODEX_API_KEY"); v != "" {
		c.Codex.APIKey = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("RECORDER_BACKEND"); v != "" {
		c.Recorder.Backend = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR port: %w", err)
		}
		c.Cache.Host, c.Cache.Port = host, p
		if c.Cache.Driver == cache.DriverMemory {
			c.Cache.Driver = cache.DriverLayered
		}
	}
	return nil
}

// Validate checks tags first, then the rules that span sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	needsKafka := c.Recorder.Backend == RecorderKafka || c.Kafka.Chat.Enabled || c.LogCollector.Enabled
	if needsKafka && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when the kafka recorder, chat consumer or log collector is enabled")
	}
	if c.Recorder.Backend == RecorderClickHouse && c.ClickHouse.Host == "" {
		return errors.New("clickhouse.host is required for the clickhouse recorder")
	}
	if c.Decision.HasWeights() {
		w := c.Decision.Weights
		sum := w.Trending + w.MarketCap + w.Liquidity + w.Stability
		if sum < 1-1e-6 || sum > 1+1e-6 {
			return fmt.Errorf("decision.weights must sum to 1, got %v", sum)
		}
	}
	for name, ceiling := range c.Decision.Personas {
		if ceiling <= 0 {
			return fmt.Errorf("decision.personas.%s must be > 0", name)
		}
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
