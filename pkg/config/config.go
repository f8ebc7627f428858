package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logger"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		EventsTopic  string   `yaml:"events_topic"`
		AuditTopic   string   `yaml:"audit_topic"`
		LogsTopic    string   `yaml:"logs_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	MarketData struct {
		BaseURL        string        `yaml:"base_url"`
		APIKey         string        `yaml:"api_key"`
		Timeout        time.Duration `yaml:"timeout"`
		WebSocketURL   string        `yaml:"websocket_url"`
		StreamEnabled  bool          `yaml:"stream_enabled"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"marketdata"`
	Enrichment struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"enrichment"`
	Engine EngineConfig `yaml:"engine"`
}

// EngineConfig is the auditable scoring and intervention policy. Weights
// and caps are configuration, not hard-coded constants, so each signal can
// be tuned and tested in isolation.
type EngineConfig struct {
	Weights struct {
		ActionRate     float64 `yaml:"action_rate"`
		CancelRatio    float64 `yaml:"cancel_ratio"`
		LossStreak     float64 `yaml:"loss_streak"`
		SizeEscalation float64 `yaml:"size_escalation"`
		Volatility     float64 `yaml:"volatility"`
	} `yaml:"weights"`
	Caps struct {
		ActionRate     float64 `yaml:"action_rate"`     // actions/min at which the signal saturates
		LossStreak     float64 `yaml:"loss_streak"`     // streak length at saturation
		SizeEscalation float64 `yaml:"size_escalation"` // escalation factor at saturation
		Volatility     float64 `yaml:"volatility"`      // volatility proxy at saturation
	} `yaml:"caps"`
	Thresholds struct {
		SoftNudge float64 `yaml:"soft_nudge"`
		Critical  float64 `yaml:"critical"`
		HardLock  float64 `yaml:"hard_lock"`
	} `yaml:"thresholds"`
	LockDuration     time.Duration `yaml:"lock_duration"`
	RevengeLossFloor float64       `yaml:"revenge_loss_floor"`
	FomoKeywords     []string      `yaml:"fomo_keywords"`
}

// Defaults fills zero-valued engine policy fields with the shipped policy.
func (e *EngineConfig) Defaults() {
	if e.Weights.ActionRate == 0 {
		e.Weights.ActionRate = 2.0
	}
	if e.Weights.CancelRatio == 0 {
		e.Weights.CancelRatio = 2.5
	}
	if e.Weights.LossStreak == 0 {
		e.Weights.LossStreak = 3.0
	}
	if e.Weights.SizeEscalation == 0 {
		e.Weights.SizeEscalation = 1.5
	}
	if e.Weights.Volatility == 0 {
		e.Weights.Volatility = 1.0
	}
	if e.Caps.ActionRate == 0 {
		e.Caps.ActionRate = 10
	}
	if e.Caps.LossStreak == 0 {
		e.Caps.LossStreak = 5
	}
	if e.Caps.SizeEscalation == 0 {
		e.Caps.SizeEscalation = 3
	}
	if e.Caps.Volatility == 0 {
		e.Caps.Volatility = 0.05
	}
	if e.Thresholds.SoftNudge == 0 {
		e.Thresholds.SoftNudge = 3
	}
	if e.Thresholds.Critical == 0 {
		e.Thresholds.Critical = 6
	}
	if e.Thresholds.HardLock == 0 {
		e.Thresholds.HardLock = 8.5
	}
	if e.LockDuration == 0 {
		e.LockDuration = 300 * time.Second
	}
	if e.RevengeLossFloor == 0 {
		e.RevengeLossFloor = 100
	}
	if len(e.FomoKeywords) == 0 {
		e.FomoKeywords = []string{"FOMO", "revenge", "rushed", "panic", "fear"}
	}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.Engine.Defaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("MARKETDATA_API_KEY"); v != "" {
		c.MarketData.APIKey = v
	}
	if v := os.Getenv("ENRICHMENT_URL"); v != "" {
		c.Enrichment.BaseURL = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.MarketData.StreamEnabled && c.MarketData.WebSocketURL == "" {
		return fmt.Errorf("marketdata.websocket_url is required when streaming is enabled")
	}
	t := c.Engine.Thresholds
	if !(t.SoftNudge < t.Critical && t.Critical < t.HardLock) {
		return fmt.Errorf("engine.thresholds must be strictly increasing, got %v/%v/%v",
			t.SoftNudge, t.Critical, t.HardLock)
	}
	return nil
}
