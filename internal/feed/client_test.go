package feed

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mod     func(*Config)
		wantErr error
	}{
		{name: "defaults are valid", mod: func(c *Config) {}},
		{name: "empty url", mod: func(c *Config) { c.URL = "" }, wantErr: ErrEmptyURL},
		{name: "zero base delay", mod: func(c *Config) { c.BaseDelay = 0 }, wantErr: ErrInvalidDelay},
		{name: "max below base", mod: func(c *Config) { c.MaxDelay = c.BaseDelay / 2 }, wantErr: ErrInvalidMaxDelay},
		{name: "jitter above one", mod: func(c *Config) { c.JitterFactor = 1.5 }, wantErr: ErrInvalidJitter},
		{name: "negative jitter", mod: func(c *Config) { c.JitterFactor = -0.1 }, wantErr: ErrInvalidJitter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("ws://feed.example.com/stream")
			tt.mod(&cfg)
			if err := cfg.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewClient(Config{}, nil, logger); err == nil {
		t.Error("expected an error for an empty config")
	}
}

func TestComputeBackoff_GrowsAndCaps(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := DefaultConfig("ws://feed.example.com/stream")
	cfg.JitterFactor = 0 // deterministic for the test
	client, err := NewClient(cfg, nil, logger)
	if err != nil {
		t.Fatal(err)
	}

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}
	for i, expected := range want {
		client.reconnectCount = int64(i)
		if got := client.computeBackoff(); got != expected {
			t.Errorf("attempt %d: backoff = %v, want %v", i, got, expected)
		}
	}

	// Far past the cap point the delay stays at MaxDelay.
	client.reconnectCount = 50
	if got := client.computeBackoff(); got != cfg.MaxDelay {
		t.Errorf("capped backoff = %v, want %v", got, cfg.MaxDelay)
	}
}

func TestComputeBackoff_JitterStaysInRange(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := DefaultConfig("ws://feed.example.com/stream")
	client, err := NewClient(cfg, nil, logger)
	if err != nil {
		t.Fatal(err)
	}

	client.reconnectCount = 3
	base := 800 * time.Millisecond
	lo := time.Duration(float64(base) * (1 - cfg.JitterFactor/2))
	hi := time.Duration(float64(base) * (1 + cfg.JitterFactor/2))

	for i := 0; i < 100; i++ {
		got := client.computeBackoff()
		if got < lo || got > hi {
			t.Fatalf("backoff %v outside [%v, %v]", got, lo, hi)
		}
	}
}

func TestClient_IsConnectedInitiallyFalse(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := NewClient(DefaultConfig("ws://feed.example.com/stream"), nil, logger)
	if err != nil {
		t.Fatal(err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true before any connection")
	}
}
