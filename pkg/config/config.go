package config

import (
	"fmt"
	"os"
	"time"

	"morpheus/pkg/circuitbreaker"
	"morpheus/pkg/retry"
	"morpheus/pkg/tracing"
	"morpheus/pkg/validation"

	"gopkg.in/yaml.v2"
)

const (
	TransportWebSocket = "websocket"
	TransportRedis     = "redis"
)

type Config struct {
	Transport struct {
		Kind string `yaml:"kind"`
	} `yaml:"transport"`

	Signal struct {
		URL          string        `yaml:"url"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		PingInterval time.Duration `yaml:"ping_interval"`
		PongTimeout  time.Duration `yaml:"pong_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		EventBuffer  int           `yaml:"event_buffer"`
		Dial         retry.Config  `yaml:"dial_retry"`

		DialBreaker circuitbreaker.Config `yaml:"dial_breaker"`

		Outbound struct {
			MessagesPerSecond float64 `yaml:"messages_per_second"`
			Burst             int     `yaml:"burst"`
		} `yaml:"outbound"`
	} `yaml:"signal"`

	Session struct {
		EnterRoomDelay        time.Duration `yaml:"enter_room_delay"`
		NotificationDebounce  time.Duration `yaml:"notification_debounce"`
		PresenceNotifications bool          `yaml:"presence_notifications"`

		AudioCue struct {
			ElementID string  `yaml:"element_id"`
			Volume    float64 `yaml:"volume"`
		} `yaml:"audio_cue"`
	} `yaml:"session"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Token     string `yaml:"token"`
	} `yaml:"auth"`

	Debug struct {
		Enabled     bool   `yaml:"enabled"`
		Address     string `yaml:"address"`
		RequireAuth bool   `yaml:"require_auth"`

		RateLimit struct {
			Enabled           bool    `yaml:"enabled"`
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"debug"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing tracing.Config `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Transport
	switch c.Transport.Kind {
	case TransportWebSocket:
		if err := validation.ValidateURL(c.Signal.URL); err != nil {
			return fmt.Errorf("signal.url: %w", err)
		}
	case TransportRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("transport.kind=redis requires redis.enabled=true")
		}
	default:
		return fmt.Errorf("transport.kind must be %q or %q, got %q", TransportWebSocket, TransportRedis, c.Transport.Kind)
	}

	// Signal
	if c.Signal.DialTimeout <= 0 {
		return fmt.Errorf("signal.dial_timeout must be > 0")
	}
	if c.Signal.PingInterval <= 0 {
		return fmt.Errorf("signal.ping_interval must be > 0")
	}
	if c.Signal.PongTimeout <= c.Signal.PingInterval {
		return fmt.Errorf("signal.pong_timeout must be > signal.ping_interval")
	}
	if c.Signal.WriteTimeout <= 0 {
		return fmt.Errorf("signal.write_timeout must be > 0")
	}
	if c.Signal.EventBuffer <= 0 {
		return fmt.Errorf("signal.event_buffer must be > 0")
	}
	if c.Signal.Dial.MaxAttempts < 1 {
		return fmt.Errorf("signal.dial_retry.max_attempts must be >= 1")
	}
	if c.Signal.DialBreaker.FailureThreshold < 1 {
		return fmt.Errorf("signal.dial_breaker.failure_threshold must be >= 1")
	}
	if c.Signal.DialBreaker.Timeout <= 0 {
		return fmt.Errorf("signal.dial_breaker.timeout must be > 0")
	}
	if c.Signal.Outbound.MessagesPerSecond <= 0 {
		return fmt.Errorf("signal.outbound.messages_per_second must be > 0")
	}
	if c.Signal.Outbound.Burst <= 0 {
		return fmt.Errorf("signal.outbound.burst must be > 0")
	}

	// Session
	if c.Session.EnterRoomDelay < 0 {
		return fmt.Errorf("session.enter_room_delay must be >= 0")
	}
	if c.Session.NotificationDebounce <= 0 {
		return fmt.Errorf("session.notification_debounce must be > 0")
	}
	if c.Session.AudioCue.ElementID == "" {
		return fmt.Errorf("session.audio_cue.element_id must not be empty")
	}
	if err := validation.ValidateVolume(c.Session.AudioCue.Volume); err != nil {
		return fmt.Errorf("session.audio_cue.volume: %w", err)
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
		if c.Redis.Channel == "" {
			return fmt.Errorf("redis.channel must not be empty when redis.enabled=true")
		}
	}

	// Debug
	if c.Debug.Enabled && c.Debug.Address == "" {
		return fmt.Errorf("debug.address must not be empty when debug.enabled=true")
	}
	if c.Debug.RequireAuth && c.Auth.JWTSecret == "" {
		return fmt.Errorf("debug.require_auth needs auth.jwt_secret")
	}
	if c.Debug.RateLimit.Enabled && (c.Debug.RateLimit.RequestsPerSecond <= 0 || c.Debug.RateLimit.Burst <= 0) {
		return fmt.Errorf("debug.rate_limit needs requests_per_second > 0 and burst > 0")
	}

	// Tracing
	if c.Tracing.Enabled && (c.Tracing.SampleRate <= 0 || c.Tracing.SampleRate > 1) {
		return fmt.Errorf("tracing.sample_rate must be in (0, 1] when tracing is enabled")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Transport.Kind = TransportWebSocket

	cfg.Signal.URL = "ws://localhost:8081/ws"
	cfg.Signal.DialTimeout = 10 * time.Second
	cfg.Signal.PingInterval = 30 * time.Second
	cfg.Signal.PongTimeout = 60 * time.Second
	cfg.Signal.WriteTimeout = 10 * time.Second
	cfg.Signal.EventBuffer = 64
	cfg.Signal.Dial = retry.DefaultConfig()
	cfg.Signal.DialBreaker = circuitbreaker.DefaultConfig()
	cfg.Signal.Outbound.MessagesPerSecond = 20
	cfg.Signal.Outbound.Burst = 40

	// The enter-room emit only needs to land after the route transition.
	cfg.Session.EnterRoomDelay = time.Millisecond
	cfg.Session.NotificationDebounce = 500 * time.Millisecond
	cfg.Session.PresenceNotifications = false
	cfg.Session.AudioCue.ElementID = "audio-enter-meeting"
	cfg.Session.AudioCue.Volume = 0.1

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10
	cfg.Redis.Channel = "morpheus:events"

	cfg.Debug.Enabled = true
	cfg.Debug.Address = "127.0.0.1:9091"
	cfg.Debug.RateLimit.Enabled = true
	cfg.Debug.RateLimit.RequestsPerSecond = 10
	cfg.Debug.RateLimit.Burst = 20

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing = tracing.DefaultConfig()

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if kind := os.Getenv("MORPHEUS_TRANSPORT"); kind != "" {
		c.Transport.Kind = kind
	}
	if url := os.Getenv("MORPHEUS_SIGNAL_URL"); url != "" {
		c.Signal.URL = url
	}
	if token := os.Getenv("MORPHEUS_TOKEN"); token != "" {
		c.Auth.Token = token
	}
	if level := os.Getenv("MORPHEUS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("MORPHEUS_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
}
