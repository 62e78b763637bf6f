package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Bich992/Trading-BOT/internal/decision"
	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/indicator"
	"github.com/Bich992/Trading-BOT/internal/ledger"
	"github.com/Bich992/Trading-BOT/internal/risk"
	"github.com/Bich992/Trading-BOT/pkg/floats"
)

// stepMinBars is the smallest history the manager will act on. Below
// this the slow EMA and regime diagnostics are still settling.
const stepMinBars = 120

// scaleOutFraction is closed on an opposite-direction signal.
const scaleOutFraction = 0.50

// meanRevAddFraction shrinks mean-reversion adds relative to a fresh entry.
const meanRevAddFraction = 0.6

// AutoConfig tunes the automatic position manager.
type AutoConfig struct {
	IntervalSec   int     `yaml:"interval_sec"`
	ConfEntry     float64 `yaml:"conf_entry"`
	ConfAdd       float64 `yaml:"conf_add"`
	MaxOpenAssets int     `yaml:"max_open_assets"`

	MaxLegsPerAsset int            `yaml:"max_legs_per_asset"`
	AddMode         domain.AddMode `yaml:"add_mode"`
	AllowShort      bool           `yaml:"allow_short"`

	SizeMode        domain.SizeMode `yaml:"size_mode"`
	FixedNotional   float64         `yaml:"fixed_notional"`
	RiskPerTradePct float64         `yaml:"risk_per_trade_pct"`

	CooldownSec      int     `yaml:"cooldown_sec"`
	PyramidingATR    float64 `yaml:"pyramiding_atr"`
	MeanRevRSIAdd    float64 `yaml:"meanrev_rsi_add"`
	MeanRevRSIAddSht float64 `yaml:"meanrev_rsi_add_short"`
}

// DefaultAutoConfig returns the stock manager tuning.
func DefaultAutoConfig() AutoConfig {
	return AutoConfig{
		IntervalSec:      10,
		ConfEntry:        0.70,
		ConfAdd:          0.80,
		MaxOpenAssets:    6,
		MaxLegsPerAsset:  3,
		AddMode:          domain.AddPyramid,
		AllowShort:       true,
		SizeMode:         domain.SizeFixed,
		FixedNotional:    50,
		RiskPerTradePct:  0.01,
		CooldownSec:      120,
		PyramidingATR:    0.8,
		MeanRevRSIAdd:    28,
		MeanRevRSIAddSht: 72,
	}
}

// AutoManager walks a watchlist each tick and manages entries, adds and
// scale-outs against the portfolio. Every open passes the risk gate
// first; closes always go through because they reduce risk.
type AutoManager struct {
	engine    *decision.Engine
	portfolio *ledger.PaperPortfolio
	gate      *risk.Gate
	log       *slog.Logger

	mu            sync.Mutex
	lastTradeTime map[string]time.Time
}

// NewAutoManager wires the decision engine, portfolio and risk gate.
func NewAutoManager(eng *decision.Engine, p *ledger.PaperPortfolio, gate *risk.Gate, log *slog.Logger) *AutoManager {
	if log == nil {
		log = slog.Default()
	}
	return &AutoManager{
		engine:        eng,
		portfolio:     p,
		gate:          gate,
		lastTradeTime: make(map[string]time.Time),
		log:           log,
	}
}

func (m *AutoManager) cooldownOK(symbol string, now time.Time, cooldown time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.lastTradeTime[symbol]
	if !ok {
		return true
	}
	return now.Sub(t) >= cooldown
}

func (m *AutoManager) markTraded(symbol string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTradeTime[symbol] = now
}

func (m *AutoManager) openAssetCount() int {
	n := 0
	for sym := range m.portfolio.Books() {
		if math.Abs(m.portfolio.NetQty(sym)) > 0 {
			n++
		}
	}
	return n
}

func computeQty(cfg AutoConfig, price float64, sl *float64, equity float64) float64 {
	sizer := risk.NewPositionSizer(risk.SizeConfig{
		Mode:            string(cfg.SizeMode),
		FixedNotional:   cfg.FixedNotional,
		RiskPerTradePct: cfg.RiskPerTradePct,
	})
	return sizer.Size(equity, price, sl)
}

// Step runs one management pass over the watchlist and returns a log
// line per action taken. Symbols in cooldown or with short history are
// skipped.
func (m *AutoManager) Step(watchlist []string, seriesBySymbol map[string]domain.Series, now time.Time, cfg AutoConfig, bestTimeframes map[string]TFScore) []string {
	var logs []string

	prices := make(map[string]float64, len(seriesBySymbol))
	for sym, s := range seriesBySymbol {
		if len(s) > 0 {
			prices[sym] = s.LastClose()
		}
	}
	equity := m.portfolio.Equity(prices)
	openAssets := m.openAssetCount()
	cooldown := time.Duration(cfg.CooldownSec) * time.Second

	for _, symbol := range watchlist {
		s := seriesBySymbol[symbol]
		if len(s) < stepMinBars {
			continue
		}
		price := s.LastClose()
		atrLast := floats.LastOr(indicator.ATR(s, 14), 0)

		nq := m.portfolio.NetQty(symbol)
		direction := domain.SideFlat
		switch {
		case nq > 0:
			direction = domain.SideLong
		case nq < 0:
			direction = domain.SideShort
		}

		if !m.cooldownOK(symbol, now, cooldown) {
			continue
		}

		timeframe := "auto"
		if tf, ok := bestTimeframes[symbol]; ok {
			timeframe = tf.Timeframe
		}
		d, err := m.engine.Decide(symbol, timeframe, s)
		if err != nil {
			m.log.Warn("decision failed", slog.String("symbol", symbol), slog.Any("error", err))
			continue
		}

		if direction != domain.SideFlat {
			if line := m.manageOpen(symbol, direction, nq, price, atrLast, d, cfg, equity, prices, now); line != "" {
				logs = append(logs, line)
			}
			continue
		}

		// Entry path.
		if openAssets >= cfg.MaxOpenAssets || d.Action == domain.ActionHold || d.Confidence < cfg.ConfEntry {
			continue
		}
		if d.Action == domain.ActionSell && !cfg.AllowShort {
			continue
		}
		qty := computeQty(cfg, price, d.StopLoss, equity)
		if qty <= 0 || !m.gate.Allow(m.portfolio, prices, symbol, qty) {
			continue
		}
		side := domain.SideLong
		if d.Action == domain.ActionSell {
			side = domain.SideShort
		}
		if _, err := m.portfolio.OpenLeg(ledger.OpenLegParams{
			Symbol: symbol, Side: side, Qty: qty, Price: price, Ts: now,
			StopLoss: d.StopLoss, TakeProfit: d.TakeProfit,
			Confidence: d.Confidence, Regime: d.Regime, Reason: "ENTRY",
		}); err != nil {
			m.log.Warn("entry rejected", slog.String("symbol", symbol), slog.Any("error", err))
			continue
		}
		m.markTraded(symbol, now)
		openAssets++
		logs = append(logs, fmt.Sprintf("%s: ENTRY %s | qty=%.6f conf=%.2f regime=%s tf=%s",
			symbol, side.Upper(), qty, d.Confidence, d.Regime, timeframe))
	}
	return logs
}

// manageOpen handles an existing position: opposite signals scale out
// half, same-direction signals may add a leg per the configured mode.
func (m *AutoManager) manageOpen(symbol string, direction domain.Side, nq, price, atrLast float64, d domain.TradeDecision, cfg AutoConfig, equity float64, prices map[string]float64, now time.Time) string {
	if d.Action == domain.ActionHold {
		return ""
	}

	opposite := (direction == domain.SideLong && d.Action == domain.ActionSell) ||
		(direction == domain.SideShort && d.Action == domain.ActionBuy)
	if opposite {
		qtyToClose := math.Abs(nq) * scaleOutFraction
		t, err := m.portfolio.CloseQtyFIFO(symbol, qtyToClose, price, now, "auto", "Signal flip scale-out 50%")
		if err != nil {
			m.log.Warn("scale-out failed", slog.String("symbol", symbol), slog.Any("error", err))
			return ""
		}
		m.markTraded(symbol, now)
		return fmt.Sprintf("%s: SCALE-OUT 50%% on flip | pnlR=%.4f reg=%s", symbol, t.PnLRealized, d.Regime)
	}

	if cfg.AddMode == domain.AddOff {
		return ""
	}
	if m.portfolio.LegCount(symbol) >= cfg.MaxLegsPerAsset {
		return ""
	}

	switch cfg.AddMode {
	case domain.AddPyramid:
		if atrLast <= 0 {
			return ""
		}
		avg := m.portfolio.AvgEntry(symbol)
		var movedOK, wantAction bool
		if direction == domain.SideLong {
			movedOK = price-avg >= cfg.PyramidingATR*atrLast
			wantAction = d.Action == domain.ActionBuy && d.Confidence >= cfg.ConfAdd
		} else {
			movedOK = avg-price >= cfg.PyramidingATR*atrLast
			wantAction = d.Action == domain.ActionSell && d.Confidence >= cfg.ConfAdd && cfg.AllowShort
		}
		if !movedOK || !wantAction {
			return ""
		}
		qty := computeQty(cfg, price, d.StopLoss, equity)
		return m.addLeg(symbol, direction, qty, price, d, prices, now, "PYRAMID add")

	case domain.AddMeanRev:
		if d.Regime != domain.RegimeRange {
			return ""
		}
		var wantAction bool
		if direction == domain.SideLong {
			wantAction = d.Action == domain.ActionBuy && d.Confidence >= cfg.ConfAdd
		} else {
			wantAction = d.Action == domain.ActionSell && d.Confidence >= cfg.ConfAdd && cfg.AllowShort
		}
		if !wantAction {
			return ""
		}
		qty := computeQty(cfg, price, d.StopLoss, equity) * meanRevAddFraction
		return m.addLeg(symbol, direction, qty, price, d, prices, now, "MEANREV add")
	}
	return ""
}

func (m *AutoManager) addLeg(symbol string, side domain.Side, qty, price float64, d domain.TradeDecision, prices map[string]float64, now time.Time, reason string) string {
	if qty <= 0 {
		return ""
	}
	if !m.gate.Allow(m.portfolio, prices, symbol, qty) {
		return ""
	}
	if _, err := m.portfolio.OpenLeg(ledger.OpenLegParams{
		Symbol: symbol, Side: side, Qty: qty, Price: price, Ts: now,
		StopLoss: d.StopLoss, TakeProfit: d.TakeProfit,
		Confidence: d.Confidence, Regime: d.Regime, Reason: reason,
	}); err != nil {
		m.log.Warn("add rejected", slog.String("symbol", symbol), slog.Any("error", err))
		return ""
	}
	m.markTraded(symbol, now)
	return fmt.Sprintf("%s: %s %s | qty=%.6f reg=%s", symbol, reason, side.Upper(), qty, d.Regime)
}
