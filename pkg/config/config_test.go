package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got error: %v", err)
	}
}

func TestDefaultConfig_SessionTiming(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Session.EnterRoomDelay != time.Millisecond {
		t.Errorf("expected enter_room_delay 1ms, got %v", cfg.Session.EnterRoomDelay)
	}
	if cfg.Session.NotificationDebounce != 500*time.Millisecond {
		t.Errorf("expected notification_debounce 500ms, got %v", cfg.Session.NotificationDebounce)
	}
	if cfg.Session.PresenceNotifications {
		t.Error("presence notifications should be off by default")
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "unknown transport",
			mutate: func(c *Config) { c.Transport.Kind = "carrier-pigeon" },
		},
		{
			name:   "redis transport without redis",
			mutate: func(c *Config) { c.Transport.Kind = TransportRedis },
		},
		{
			name:   "signal url scheme",
			mutate: func(c *Config) { c.Signal.URL = "ftp://example.com" },
		},
		{
			name:   "pong timeout not above ping interval",
			mutate: func(c *Config) { c.Signal.PongTimeout = c.Signal.PingInterval },
		},
		{
			name:   "dial attempts",
			mutate: func(c *Config) { c.Signal.Dial.MaxAttempts = 0 },
		},
		{
			name:   "dial breaker threshold",
			mutate: func(c *Config) { c.Signal.DialBreaker.FailureThreshold = 0 },
		},
		{
			name:   "outbound rate",
			mutate: func(c *Config) { c.Signal.Outbound.MessagesPerSecond = 0 },
		},
		{
			name:   "negative enter room delay",
			mutate: func(c *Config) { c.Session.EnterRoomDelay = -time.Millisecond },
		},
		{
			name:   "zero debounce",
			mutate: func(c *Config) { c.Session.NotificationDebounce = 0 },
		},
		{
			name:   "audio volume above 1",
			mutate: func(c *Config) { c.Session.AudioCue.Volume = 2 },
		},
		{
			name: "redis without channel",
			mutate: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.Channel = ""
			},
		},
		{
			name: "tracing sample rate",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.SampleRate = 0
			},
		},
		{
			name: "debug auth without secret",
			mutate: func(c *Config) {
				c.Debug.RequireAuth = true
				c.Auth.JWTSecret = ""
			},
		},
		{
			name:   "debug rate limit burst",
			mutate: func(c *Config) { c.Debug.RateLimit.Burst = 0 },
		},
		{
			name:   "empty log level",
			mutate: func(c *Config) { c.Logging.Level = "" },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)

			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for case %q, got nil", tc.name)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Signal.URL != "ws://localhost:8081/ws" {
		t.Errorf("unexpected signal url %q", cfg.Signal.URL)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
signal:
  url: wss://office.example.com/events
session:
  notification_debounce: 250ms
  presence_notifications: true
  audio_cue:
    element_id: chime
    volume: 0.3
logging:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("MORPHEUS_LOG_LEVEL", "warn")
	t.Setenv("MORPHEUS_TOKEN", "token-from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Signal.URL != "wss://office.example.com/events" {
		t.Errorf("unexpected signal url %q", cfg.Signal.URL)
	}
	if cfg.Session.NotificationDebounce != 250*time.Millisecond {
		t.Errorf("unexpected debounce %v", cfg.Session.NotificationDebounce)
	}
	if !cfg.Session.PresenceNotifications {
		t.Error("expected presence notifications enabled from file")
	}
	if cfg.Session.AudioCue.ElementID != "chime" || cfg.Session.AudioCue.Volume != 0.3 {
		t.Errorf("unexpected audio cue %+v", cfg.Session.AudioCue)
	}
	// Defaults survive for keys the file does not set.
	if cfg.Session.EnterRoomDelay != time.Millisecond {
		t.Errorf("unexpected enter room delay %v", cfg.Session.EnterRoomDelay)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected env override to win, got %q", cfg.Logging.Level)
	}
	if cfg.Auth.Token != "token-from-env" {
		t.Errorf("expected token from env, got %q", cfg.Auth.Token)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("signal: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}
