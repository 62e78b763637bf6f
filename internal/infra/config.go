package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Bich992/Trading-BOT/internal/engine"
	"github.com/Bich992/Trading-BOT/internal/execution"
	"github.com/Bich992/Trading-BOT/internal/risk"
)

// AssetConfig names one watched symbol.
type AssetConfig struct {
	Symbol     string   `yaml:"symbol"`
	Timeframes []string `yaml:"timeframes"`
}

// Config holds every runtime setting. Secrets may live in the file but
// environment variables always win.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		Mode string `yaml:"mode"` // paper | backtest
	} `yaml:"trading"`

	Assets []AssetConfig `yaml:"assets"`

	Paper execution.Config  `yaml:"paper"`
	Risk  risk.GateConfig   `yaml:"risk"`
	Size  risk.SizeConfig   `yaml:"sizing"`
	Auto  engine.AutoConfig `yaml:"auto"`

	Feed struct {
		Provider  string `yaml:"provider"` // binance | csv
		APIKey    string `yaml:"api_key"`
		SecretKey string `yaml:"secret_key"`
		DataDir   string `yaml:"data_dir"`
	} `yaml:"feed"`

	Storage struct {
		DBPath       string `yaml:"db_path"`
		SnapshotDir  string `yaml:"snapshot_dir"`
		SnapshotKeep int    `yaml:"snapshot_keep"`
	} `yaml:"storage"`

	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		Token   string `yaml:"token"`
		ChatID  int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns a runnable paper-mode configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "tradebot"
	cfg.App.Version = "dev"
	cfg.Trading.Mode = "paper"
	cfg.Assets = []AssetConfig{{Symbol: "BTCUSDT", Timeframes: []string{"5m", "15m", "1h"}}}
	cfg.Paper = execution.DefaultConfig()
	cfg.Risk = risk.DefaultGateConfig()
	cfg.Size = risk.DefaultSizeConfig()
	cfg.Auto = engine.DefaultAutoConfig()
	cfg.Feed.Provider = "binance"
	cfg.Storage.DBPath = "trades.db"
	cfg.Storage.SnapshotDir = "snapshots"
	cfg.Storage.SnapshotKeep = 5
	cfg.Logging.Level = "info"
	return cfg
}

// LoadConfig reads, env-overrides and validates the config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	mode := strings.ToLower(c.Trading.Mode)
	if mode != "paper" && mode != "backtest" {
		return fmt.Errorf("unknown trading mode: %s", c.Trading.Mode)
	}
	if len(c.Assets) == 0 {
		return fmt.Errorf("at least one asset is required")
	}
	for _, a := range c.Assets {
		if a.Symbol == "" {
			return fmt.Errorf("asset symbol must not be empty")
		}
		if len(a.Timeframes) == 0 {
			return fmt.Errorf("asset %s needs at least one timeframe", a.Symbol)
		}
	}
	if c.Paper.StartingCash <= 0 {
		return fmt.Errorf("starting cash must be positive")
	}
	if c.Paper.FeeRate < 0 || c.Paper.SlippageBps < 0 {
		return fmt.Errorf("fee rate and slippage must not be negative")
	}
	if c.Risk.KillSwitchLossPct < 0 || c.Risk.KillSwitchLossPct > 1 {
		return fmt.Errorf("kill switch loss pct must be within [0,1]")
	}
	if c.Risk.MaxTrades < 1 || c.Risk.MaxConcurrentLegs < 1 {
		return fmt.Errorf("trade and leg limits must be at least 1")
	}
	if c.Auto.ConfEntry < 0 || c.Auto.ConfEntry > 1 || c.Auto.ConfAdd < 0 || c.Auto.ConfAdd > 1 {
		return fmt.Errorf("confidence thresholds must be within [0,1]")
	}
	switch strings.ToLower(c.Feed.Provider) {
	case "binance":
	case "csv":
		if c.Feed.DataDir == "" {
			return fmt.Errorf("csv feed requires data_dir")
		}
	default:
		return fmt.Errorf("unknown feed provider: %s", c.Feed.Provider)
	}
	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram requires token and chat_id")
	}
	return nil
}

// overrideWithEnv replaces secrets from the environment when present.
// Environment variables take precedence over the config file.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("TRADEBOT_BINANCE_KEY"); key != "" {
		cfg.Feed.APIKey = key
	}
	if secret := os.Getenv("TRADEBOT_BINANCE_SECRET"); secret != "" {
		cfg.Feed.SecretKey = secret
	}
	if token := os.Getenv("TRADEBOT_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if chat := os.Getenv("TRADEBOT_TELEGRAM_CHAT_ID"); chat != "" {
		if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
}
