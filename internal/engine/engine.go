// Package engine runs the trading loop: data in, decisions out, fills
// booked on the paper portfolio.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Bich992/Trading-BOT/internal/backtest"
	"github.com/Bich992/Trading-BOT/internal/decision"
	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/execution"
	"github.com/Bich992/Trading-BOT/internal/live"
	"github.com/Bich992/Trading-BOT/internal/notify"
	"github.com/Bich992/Trading-BOT/internal/risk"
	"github.com/Bich992/Trading-BOT/internal/strategy"
)

// DataFeed supplies candle history. Implementations live in the feed
// package; the engine only cares about this surface.
type DataFeed interface {
	LatestOHLC(ctx context.Context, symbol, timeframe string) (domain.Series, error)
}

// Asset names a symbol and the timeframes it is watched on.
type Asset struct {
	Symbol     string
	Timeframes []string
}

// Options wires the engine's collaborators.
type Options struct {
	Assets   []Asset
	Feed     DataFeed
	Broker   *execution.PaperBroker
	Gate     *risk.Gate
	Sizer    *risk.PositionSizer
	AutoCfg  AutoConfig
	Notifier notify.Notifier
	Live     *live.StateBuffer
	Logger   *slog.Logger
}

// Recap summarizes the portfolio after a run.
type Recap struct {
	Trades   int     `json:"trades"`
	Fees     float64 `json:"fees"`
	Realized float64 `json:"realized"`
	Equity   float64 `json:"equity"`
}

// TradingEngine owns one loop over the configured assets. Strategy
// signals and the auto-manager share the same portfolio, risk gate and
// broker.
type TradingEngine struct {
	assets   []Asset
	feed     DataFeed
	registry *strategy.Registry
	broker   *execution.PaperBroker
	gate     *risk.Gate
	sizer    *risk.PositionSizer
	state    *EngineState
	auto     *AutoManager
	autoCfg  AutoConfig
	notifier notify.Notifier
	liveBuf  *live.StateBuffer
	log      *slog.Logger
}

// NewTradingEngine assembles the loop from Options. Nil optional fields
// get quiet defaults.
func NewTradingEngine(opts Options) *TradingEngine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	state := NewEngineState(opts.Broker.Portfolio())
	auto := NewAutoManager(decision.NewEngine(0, 0), opts.Broker.Portfolio(), opts.Gate, log)
	return &TradingEngine{
		assets:   opts.Assets,
		feed:     opts.Feed,
		registry: strategy.NewRegistry(nil),
		broker:   opts.Broker,
		gate:     opts.Gate,
		sizer:    opts.Sizer,
		state:    state,
		auto:     auto,
		autoCfg:  opts.AutoCfg,
		notifier: notifier,
		liveBuf:  opts.Live,
		log:      log,
	}
}

// State exposes the read view over prices and positions.
func (e *TradingEngine) State() *EngineState { return e.state }

// RunStep executes one strategy pass: fetch candles, generate signals,
// size, gate and fill. It returns a log line per action taken.
func (e *TradingEngine) RunStep(ctx context.Context) ([]string, error) {
	series := make(map[string]domain.Series, len(e.assets))
	for _, asset := range e.assets {
		if len(asset.Timeframes) == 0 {
			continue
		}
		s, err := e.feed.LatestOHLC(ctx, asset.Symbol, asset.Timeframes[0])
		if err != nil {
			e.log.Warn("feed fetch failed",
				slog.String("symbol", asset.Symbol),
				slog.Any("error", err))
			continue
		}
		if len(s) == 0 {
			continue
		}
		series[asset.Symbol] = s
		e.state.SetPrice(asset.Symbol, s.LastClose())
	}

	var actions []string
	for _, asset := range e.assets {
		s, ok := series[asset.Symbol]
		if !ok || len(s) < 50 {
			continue
		}
		sig := e.registry.Active(asset.Symbol).GenerateSignal(s)
		if sig.Action == domain.ActionHold {
			continue
		}
		price := s.LastClose()
		qty := e.sizer.Size(e.state.Equity(), price, sig.StopLoss)
		if !e.gate.Allow(e.broker.Portfolio(), e.state.LastPrices(), asset.Symbol, qty) {
			actions = append(actions, fmt.Sprintf("%s: blocked by risk limits", asset.Symbol))
			continue
		}
		dec := domain.TradeDecision{
			Action:     sig.Action,
			Symbol:     asset.Symbol,
			Timeframe:  asset.Timeframes[0],
			StopLoss:   sig.StopLoss,
			TakeProfit: sig.TakeProfit,
			Confidence: sig.Confidence,
		}
		fill, err := e.broker.Execute(dec, qty, price)
		if err != nil {
			e.log.Warn("execution failed",
				slog.String("symbol", asset.Symbol),
				slog.Any("error", err))
			continue
		}
		if fill != nil {
			actions = append(actions, fmt.Sprintf("%s: %s qty=%.6f price=%.4f",
				asset.Symbol, sig.Action, qty, fill.Price))
		}
	}
	return actions, nil
}

// RunAutoStep fetches all timeframes per asset, picks the best one and
// delegates position management to the auto-manager.
func (e *TradingEngine) RunAutoStep(ctx context.Context, now time.Time) ([]string, error) {
	watchlist := make([]string, 0, len(e.assets))
	seriesBySymbol := make(map[string]domain.Series, len(e.assets))
	bestTF := make(map[string]TFScore, len(e.assets))

	for _, asset := range e.assets {
		frames := make(map[string]domain.Series, len(asset.Timeframes))
		for _, tf := range asset.Timeframes {
			s, err := e.feed.LatestOHLC(ctx, asset.Symbol, tf)
			if err != nil {
				e.log.Warn("feed fetch failed",
					slog.String("symbol", asset.Symbol),
					slog.String("timeframe", tf),
					slog.Any("error", err))
				continue
			}
			if len(s) > 0 {
				frames[tf] = s
			}
		}
		if len(frames) == 0 {
			continue
		}
		choice := ChooseBestTimeframe(frames)
		chosen, ok := frames[choice.Timeframe]
		if !ok {
			// Sentinel choice: fall back to any available frame.
			for _, s := range frames {
				chosen = s
				break
			}
		}
		watchlist = append(watchlist, asset.Symbol)
		seriesBySymbol[asset.Symbol] = chosen
		bestTF[asset.Symbol] = choice
		e.state.SetPrice(asset.Symbol, chosen.LastClose())
	}

	tradesBefore := len(e.broker.Portfolio().Trades())
	logs := e.auto.Step(watchlist, seriesBySymbol, now, e.autoCfg, bestTF)
	for _, line := range logs {
		if err := e.notifier.Notify(ctx, line); err != nil {
			e.log.Warn("notify failed", slog.Any("error", err))
		}
	}
	e.publishLive(watchlist, seriesBySymbol, tradesBefore)
	return logs, nil
}

// publishLive mirrors the step into the shared UI buffer: the first
// watched symbol's frame plus markers for trades booked this step.
func (e *TradingEngine) publishLive(watchlist []string, seriesBySymbol map[string]domain.Series, tradesBefore int) {
	if e.liveBuf == nil || len(watchlist) == 0 {
		return
	}
	if s, ok := seriesBySymbol[watchlist[0]]; ok {
		e.liveBuf.PushFrame(s)
	}
	p := e.broker.Portfolio()
	trades := p.Trades()
	for _, t := range trades[tradesBefore:] {
		status := "CLOSED"
		if strings.HasPrefix(t.Note, "OPEN") {
			status = "OPEN"
		}
		e.liveBuf.PushMarker(live.MarkerFromTrade(t, p.AvgEntry(t.Symbol), status))
	}
}

// RunLoop ticks RunAutoStep until ctx is canceled or iterations (when
// positive) are exhausted.
func (e *TradingEngine) RunLoop(ctx context.Context, iterations int) error {
	interval := time.Duration(e.autoCfg.IntervalSec) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; iterations <= 0 || i < iterations; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			logs, err := e.RunAutoStep(ctx, now)
			if err != nil {
				return err
			}
			for _, line := range logs {
				e.log.Info(line)
			}
		}
	}
	return nil
}

// Summary reports trade count, fees, realized PnL and final equity
// from the trade tape.
func (e *TradingEngine) Summary() Recap {
	p := e.broker.Portfolio()
	trades := p.Trades()
	curve := backtest.EquityCurveFromTrades(trades, p.Cash())
	return Recap{
		Trades:   len(trades),
		Fees:     p.TotalFees(),
		Realized: p.RealizedPnL(),
		Equity:   curve[len(curve)-1],
	}
}
