package risk

import (
	"log/slog"

	"github.com/Bich992/Trading-BOT/internal/ledger"
)

// GateConfig bounds what the gate lets through.
type GateConfig struct {
	MaxExposurePct    float64 `yaml:"max_exposure_pct"`
	MaxTrades         int     `yaml:"max_trades"`
	MaxConcurrentLegs int     `yaml:"max_concurrent_legs"`
	KillSwitchLossPct float64 `yaml:"kill_switch_loss_pct"`
}

// DefaultGateConfig returns the stock limits.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxExposurePct:    0.25,
		MaxTrades:         1000,
		MaxConcurrentLegs: 6,
		KillSwitchLossPct: 0.25,
	}
}

// Gate is the pre-trade check. The kill switch compares equity against
// the cash the portfolio started with, so a drawdown cannot be hidden
// by churn.
type Gate struct {
	cfg         GateConfig
	initialCash float64
	log         *slog.Logger
}

// NewGate records the starting cash the kill switch measures against.
func NewGate(cfg GateConfig, initialCash float64, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{cfg: cfg, initialCash: initialCash, log: log}
}

// Allow reports whether a new order of qty on symbol may proceed.
// Every rejection is logged with the tripped limit.
func (g *Gate) Allow(p *ledger.PaperPortfolio, lastPrices map[string]float64, symbol string, qty float64) bool {
	if qty <= 0 {
		g.log.Warn("risk gate rejected order", slog.String("symbol", symbol), slog.String("limit", "non_positive_qty"))
		return false
	}
	if exp := exposurePct(p, lastPrices, symbol); exp >= g.cfg.MaxExposurePct {
		g.log.Warn("risk gate rejected order",
			slog.String("symbol", symbol),
			slog.String("limit", "max_exposure"),
			slog.Float64("exposure_pct", exp))
		return false
	}
	if len(p.Trades()) >= g.cfg.MaxTrades {
		g.log.Warn("risk gate rejected order", slog.String("symbol", symbol), slog.String("limit", "max_trades"))
		return false
	}
	if eq := p.Equity(lastPrices); eq <= (1-g.cfg.KillSwitchLossPct)*g.initialCash {
		g.log.Warn("risk gate rejected order",
			slog.String("symbol", symbol),
			slog.String("limit", "kill_switch"),
			slog.Float64("equity", eq),
			slog.Float64("initial_cash", g.initialCash))
		return false
	}
	if p.LegCount(symbol) >= g.cfg.MaxConcurrentLegs {
		g.log.Warn("risk gate rejected order", slog.String("symbol", symbol), slog.String("limit", "max_concurrent_legs"))
		return false
	}
	return true
}

func exposurePct(p *ledger.PaperPortfolio, lastPrices map[string]float64, symbol string) float64 {
	price := lastPrices[symbol]
	equity := p.Equity(lastPrices)
	if equity <= 0 || price <= 0 {
		return 0
	}
	qty := p.NetQty(symbol)
	if qty < 0 {
		qty = -qty
	}
	return qty * price / equity
}
