package backtest

import (
	"log/slog"
	"sort"

	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/execution"
	"github.com/Bich992/Trading-BOT/internal/risk"
	"github.com/Bich992/Trading-BOT/internal/strategy"
)

// Result bundles what a replay produced.
type Result struct {
	EquityCurve []float64
	Sharpe      float64
	MaxDrawdown float64
	Trades      []domain.Trade
}

// Runner replays historical candles bar by bar through the same
// strategy, sizing, gate and broker path live trading uses.
type Runner struct {
	execCfg  execution.Config
	gateCfg  risk.GateConfig
	sizeCfg  risk.SizeConfig
	registry *strategy.Registry
	log      *slog.Logger
}

// NewRunner builds a runner. A nil registry defaults every symbol to
// the stock strategy.
func NewRunner(execCfg execution.Config, gateCfg risk.GateConfig, sizeCfg risk.SizeConfig, registry *strategy.Registry, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if registry == nil {
		registry = strategy.NewRegistry(nil)
	}
	return &Runner{
		execCfg:  execCfg,
		gateCfg:  gateCfg,
		sizeCfg:  sizeCfg,
		registry: registry,
		log:      log,
	}
}

// Run replays every symbol's series in symbol order. Each bar the
// strategy sees only history up to that bar; rejected orders are
// skipped, never retried.
func (r *Runner) Run(historical map[string]domain.Series) Result {
	broker := execution.NewPaperBroker(r.execCfg, r.log)
	portfolio := broker.Portfolio()
	gate := risk.NewGate(r.gateCfg, r.execCfg.StartingCash, r.log)
	sizer := risk.NewPositionSizer(r.sizeCfg)

	symbols := make([]string, 0, len(historical))
	for sym := range historical {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	lastPrices := make(map[string]float64)
	for _, symbol := range symbols {
		series := historical[symbol]
		strat := r.registry.Active(symbol)
		for i := range series {
			price := series[i].Close
			lastPrices[symbol] = price

			sig := strat.GenerateSignal(series[:i+1])
			if sig.Action == domain.ActionHold {
				continue
			}
			qty := sizer.Size(portfolio.Equity(lastPrices), price, sig.StopLoss)
			if !gate.Allow(portfolio, lastPrices, symbol, qty) {
				continue
			}
			dec := domain.TradeDecision{
				Action:     sig.Action,
				Symbol:     symbol,
				StopLoss:   sig.StopLoss,
				TakeProfit: sig.TakeProfit,
				Confidence: sig.Confidence,
				Reasons:    []string{"backtest " + strat.Name()},
			}
			if _, err := broker.Execute(dec, qty, price); err != nil {
				r.log.Warn("backtest fill rejected",
					slog.String("symbol", symbol),
					slog.String("action", string(sig.Action)),
					slog.Any("error", err))
			}
		}
	}

	trades := portfolio.Trades()
	curve := EquityCurveFromTrades(trades, r.execCfg.StartingCash)
	return Result{
		EquityCurve: curve,
		Sharpe:      SharpeRatio(Returns(curve), 0),
		MaxDrawdown: MaxDrawdown(curve),
		Trades:      trades,
	}
}
