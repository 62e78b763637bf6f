// Package app wires configuration, storage, feeds and the trading
// engine into a runnable process.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Bich992/Trading-BOT/internal/engine"
	"github.com/Bich992/Trading-BOT/internal/execution"
	"github.com/Bich992/Trading-BOT/internal/feed"
	"github.com/Bich992/Trading-BOT/internal/infra"
	"github.com/Bich992/Trading-BOT/internal/live"
	"github.com/Bich992/Trading-BOT/internal/notify"
	"github.com/Bich992/Trading-BOT/internal/risk"
	"github.com/Bich992/Trading-BOT/internal/storage"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config    *infra.Config
	Journal   *storage.TradeJournal
	Snapshots *storage.SnapshotManager
	Engine    *engine.TradingEngine
	Live      *live.StateBuffer

	stream    *feed.KlineStream
	unlock    func()
	persisted int
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads config, sets up logging and storage, and assembles
// the trading engine.
func (b *Bootstrap) Initialize(configPath string) error {
	// .env is optional; environment variables win over the file either way.
	_ = godotenv.Load()

	if configPath == "" {
		configPath = infra.ResolveConfigPath()
	}
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	infra.PrintBanner(cfg)

	mode := strings.ToLower(cfg.Trading.Mode)
	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data", mode)
	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// One process per workspace keeps the WAL journal single-writer.
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	dbPath := filepath.Join(dataDir, cfg.Storage.DBPath)
	journal, err := storage.NewTradeJournal(dbPath)
	if err != nil {
		return err
	}
	b.Journal = journal
	slog.Info("trade journal ready", slog.String("path", dbPath), slog.String("mode", mode))

	b.Snapshots = storage.NewSnapshotManager(filepath.Join(dataDir, cfg.Storage.SnapshotDir))

	dataFeed, err := buildFeed(cfg, logger)
	if err != nil {
		return err
	}

	broker := execution.NewPaperBroker(cfg.Paper, logger)
	gate := risk.NewGate(cfg.Risk, cfg.Paper.StartingCash, logger)
	sizer := risk.NewPositionSizer(cfg.Size)

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	assets := make([]engine.Asset, 0, len(cfg.Assets))
	for _, a := range cfg.Assets {
		assets = append(assets, engine.Asset{Symbol: a.Symbol, Timeframes: a.Timeframes})
	}

	b.Live = live.NewStateBuffer()
	b.Engine = engine.NewTradingEngine(engine.Options{
		Assets:   assets,
		Feed:     dataFeed,
		Broker:   broker,
		Gate:     gate,
		Sizer:    sizer,
		AutoCfg:  cfg.Auto,
		Notifier: notifier,
		Live:     b.Live,
		Logger:   logger,
	})

	return b.restorePortfolio(broker)
}

// StartStreams opens the live kline websocket and keeps engine marks
// current between loop ticks. It is a no-op for offline feeds.
func (b *Bootstrap) StartStreams(ctx context.Context) {
	if strings.ToLower(b.Config.Feed.Provider) != "binance" {
		return
	}
	symbols := make([]string, 0, len(b.Config.Assets))
	for _, a := range b.Config.Assets {
		symbols = append(symbols, a.Symbol)
	}
	timeframe := b.Config.Assets[0].Timeframes[0]

	b.stream = feed.NewKlineStream("", symbols, timeframe, slog.Default())
	b.stream.Start(ctx)
	go func() {
		for c := range b.stream.Candles() {
			b.Engine.State().SetPrice(c.Symbol, c.Candle.Close)
		}
	}()
	slog.Info("kline stream started",
		slog.Int("symbols", len(symbols)),
		slog.String("timeframe", timeframe))
}

// restorePortfolio rehydrates cash and open books from the latest
// snapshot, if any.
func (b *Bootstrap) restorePortfolio(broker *execution.PaperBroker) error {
	snap, err := b.Snapshots.LoadLatest()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap == nil {
		return nil
	}
	broker.Portfolio().Restore(snap.Cash, snap.Books)
	slog.Info("portfolio restored",
		slog.Int("trade_count", snap.TradeCount),
		slog.Float64("cash", snap.Cash))
	return nil
}

// PersistState journals new trades, writes a fresh snapshot and prunes
// old ones. Safe to call repeatedly; only unseen trades are saved.
func (b *Bootstrap) PersistState(ctx context.Context) error {
	p := b.Engine.State().Portfolio()
	trades := p.Trades()
	if b.persisted > len(trades) {
		b.persisted = len(trades)
	}
	for _, t := range trades[b.persisted:] {
		if err := b.Journal.SaveTrade(ctx, t); err != nil {
			return fmt.Errorf("failed to journal trade %s: %w", t.ID, err)
		}
	}
	b.persisted = len(trades)

	snap := storage.CreateSnapshot(b.persisted, p.Cash(), p.Books())
	if err := b.Snapshots.Save(snap); err != nil {
		return err
	}
	return b.Snapshots.Cleanup(b.Config.Storage.SnapshotKeep)
}

// Shutdown persists state, records the recap and releases resources.
func (b *Bootstrap) Shutdown(ctx context.Context) error {
	var firstErr error
	if b.stream != nil {
		b.stream.Stop()
	}
	if b.Engine != nil && b.Journal != nil {
		if err := b.PersistState(ctx); err != nil {
			firstErr = err
		}
		if err := b.Journal.SaveRecap(ctx, b.Engine.Summary()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if b.Journal != nil {
		if err := b.Journal.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if b.unlock != nil {
		b.unlock()
	}
	return firstErr
}

func buildFeed(cfg *infra.Config, log *slog.Logger) (engine.DataFeed, error) {
	switch strings.ToLower(cfg.Feed.Provider) {
	case "binance":
		return feed.NewBinanceFeed(cfg.Feed.APIKey, cfg.Feed.SecretKey, log), nil
	case "csv":
		return feed.NewCSVFeed(cfg.Feed.DataDir), nil
	default:
		return nil, fmt.Errorf("unknown feed provider: %s", cfg.Feed.Provider)
	}
}

func buildNotifier(cfg *infra.Config) (notify.Notifier, error) {
	if !cfg.Telegram.Enabled {
		return notify.Nop{}, nil
	}
	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to start telegram notifier: %w", err)
	}
	return tg, nil
}
