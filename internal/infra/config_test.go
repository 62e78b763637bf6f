package infra

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
app:
  name: tradebot
  version: 0.1.0
trading:
  mode: paper
assets:
  - symbol: BTCUSDT
    timeframes: [5m, 15m]
paper:
  starting_cash: 5000
  fee_rate: 0.001
risk:
  max_exposure_pct: 0.3
sizing:
  mode: AUTO_RISK
  risk_per_trade_pct: 0.02
auto:
  conf_entry: 0.65
feed:
  provider: binance
telegram:
  enabled: false
logging:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfig error = %v", err)
	}
	if cfg.Paper.StartingCash != 5000 {
		t.Errorf("starting cash = %v, want 5000", cfg.Paper.StartingCash)
	}
	if cfg.Risk.MaxExposurePct != 0.3 {
		t.Errorf("max exposure = %v, want 0.3", cfg.Risk.MaxExposurePct)
	}
	if cfg.Size.Mode != "AUTO_RISK" {
		t.Errorf("size mode = %v, want AUTO_RISK", cfg.Size.Mode)
	}
	if cfg.Auto.ConfEntry != 0.65 {
		t.Errorf("conf entry = %v, want 0.65", cfg.Auto.ConfEntry)
	}
	// Unset fields keep their defaults.
	if cfg.Risk.MaxTrades != 1000 {
		t.Errorf("max trades = %v, want default 1000", cfg.Risk.MaxTrades)
	}
	if cfg.Auto.CooldownSec != 120 {
		t.Errorf("cooldown = %v, want default 120", cfg.Auto.CooldownSec)
	}
}

func TestLoadConfigEnvOverridesSecrets(t *testing.T) {
	t.Setenv("TRADEBOT_BINANCE_KEY", "env-key")
	t.Setenv("TRADEBOT_TELEGRAM_TOKEN", "env-token")
	t.Setenv("TRADEBOT_TELEGRAM_CHAT_ID", "12345")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfig error = %v", err)
	}
	if cfg.Feed.APIKey != "env-key" {
		t.Errorf("api key = %q, want env-key", cfg.Feed.APIKey)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Errorf("token = %q, want env-token", cfg.Telegram.Token)
	}
	if cfg.Telegram.ChatID != 12345 {
		t.Errorf("chat id = %d, want 12345", cfg.Telegram.ChatID)
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Trading.Mode = "real" }},
		{"no assets", func(c *Config) { c.Assets = nil }},
		{"empty symbol", func(c *Config) { c.Assets[0].Symbol = "" }},
		{"no timeframes", func(c *Config) { c.Assets[0].Timeframes = nil }},
		{"zero cash", func(c *Config) { c.Paper.StartingCash = 0 }},
		{"negative fee", func(c *Config) { c.Paper.FeeRate = -1 }},
		{"kill switch out of range", func(c *Config) { c.Risk.KillSwitchLossPct = 1.5 }},
		{"zero trade limit", func(c *Config) { c.Risk.MaxTrades = 0 }},
		{"conf out of range", func(c *Config) { c.Auto.ConfEntry = 1.2 }},
		{"unknown provider", func(c *Config) { c.Feed.Provider = "kraken" }},
		{"csv without dir", func(c *Config) { c.Feed.Provider = "csv"; c.Feed.DataDir = "" }},
		{"telegram missing token", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.ChatID = 1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate, got %v", err)
	}
}
