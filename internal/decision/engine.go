// Package decision turns indicator and regime readings into explainable
// trade decisions. Every decision carries the list of reasons that produced
// it so the engine recap can show why a trade was (or was not) taken.
package decision

import (
	"fmt"

	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/indicator"
	"github.com/Bich992/Trading-BOT/internal/regime"
	"github.com/Bich992/Trading-BOT/pkg/floats"
)

const (
	baselineConfidence = 0.35
	slowSpanFull       = 200
	slowSpanShort      = 100
	slowSpanMinBars    = 220
)

// Engine applies regime-aware heuristics over a candle series.
// The zero value is not usable; construct with NewEngine.
type Engine struct {
	atrMultSL float64
	rewardR   float64
}

// NewEngine builds an engine with the given ATR stop multiple and
// reward multiple. Non-positive inputs fall back to the defaults
// (1.8 ATR stop, 2R target).
func NewEngine(atrMultSL, rewardR float64) *Engine {
	if atrMultSL <= 0 {
		atrMultSL = 1.8
	}
	if rewardR <= 0 {
		rewardR = 2.0
	}
	return &Engine{atrMultSL: atrMultSL, rewardR: rewardR}
}

// Decide evaluates the series and returns a decision for the last bar.
// It never mutates the series. An error is returned only when the series
// is too short for regime classification.
func (e *Engine) Decide(symbol, timeframe string, s domain.Series) (domain.TradeDecision, error) {
	reg, diag, err := regime.Detect(s)
	if err != nil {
		return domain.TradeDecision{}, fmt.Errorf("decide %s %s: %w", symbol, timeframe, err)
	}

	closes := s.Closes()
	lastClose := closes[len(closes)-1]

	e20 := indicator.EMA(closes, 20)
	e50 := indicator.EMA(closes, 50)
	slowSpan := slowSpanShort
	if len(s) >= slowSpanMinBars {
		slowSpan = slowSpanFull
	}
	e200 := indicator.EMA(closes, slowSpan)

	rsiVals := indicator.RSI(closes, 14)
	macdLine, sigLine, hist := indicator.MACD(closes, 12, 26, 9)
	atrLast := floats.LastOr(indicator.ATR(s, 14), 0)

	rsiLast := floats.LastOr(rsiVals, 50)
	histLast := hist[len(hist)-1]
	histPrev := floats.At(hist, len(hist)-2, histLast)

	trendUp := e20[len(e20)-1] > e50[len(e50)-1] && e50[len(e50)-1] > e200[len(e200)-1]
	trendDn := e20[len(e20)-1] < e50[len(e50)-1] && e50[len(e50)-1] < e200[len(e200)-1]
	macdUp := macdLine[len(macdLine)-1] > sigLine[len(sigLine)-1] && histLast > 0
	macdDn := macdLine[len(macdLine)-1] < sigLine[len(sigLine)-1] && histLast < 0

	action := domain.ActionHold
	confidence := baselineConfidence
	var reasons []string

	switch reg {
	case domain.RegimeTrend:
		reasons = append(reasons, fmt.Sprintf("Regime TREND (slope=%.2f)", diag.SlopeNorm))
		confidence += 0.15
		switch {
		case trendUp && macdUp && rsiLast > 45:
			action = domain.ActionBuy
			confidence += 0.25
			reasons = append(reasons,
				"EMA alignment bullish (20>50>200)",
				"MACD bullish",
				fmt.Sprintf("RSI=%.1f supports trend", rsiLast))
		case trendDn && macdDn && rsiLast < 55:
			action = domain.ActionSell
			confidence += 0.25
			reasons = append(reasons,
				"EMA alignment bearish (20<50<200)",
				"MACD bearish",
				fmt.Sprintf("RSI=%.1f supports trend", rsiLast))
		default:
			reasons = append(reasons, "Trend not confirmed by MACD/RSI -> HOLD")
			confidence -= 0.05
		}

	case domain.RegimeRange:
		reasons = append(reasons, "Regime RANGE (mean-reversion priority)")
		confidence += 0.10
		switch {
		case rsiLast < 32 && histLast > histPrev:
			action = domain.ActionBuy
			confidence += 0.20
			reasons = append(reasons,
				fmt.Sprintf("RSI oversold=%.1f", rsiLast),
				"MACD histogram improving")
		case rsiLast > 68 && histLast < histPrev:
			action = domain.ActionSell
			confidence += 0.20
			reasons = append(reasons,
				fmt.Sprintf("RSI overbought=%.1f", rsiLast),
				"MACD histogram weakening")
		default:
			reasons = append(reasons, fmt.Sprintf("RSI mid-range=%.1f -> HOLD", rsiLast))
			confidence -= 0.05
		}

	default: // CHOP
		reasons = append(reasons, "Regime CHOP (avoid trading)")
		confidence -= 0.15
	}

	confidence = floats.Clamp(confidence, 0, 1)

	dec := domain.TradeDecision{
		Action:     action,
		Symbol:     symbol,
		Timeframe:  timeframe,
		Confidence: confidence,
		Regime:     reg,
		Reasons:    reasons,
	}

	if action == domain.ActionHold {
		return dec, nil
	}

	entry := lastClose
	dec.Entry = &entry
	if atrLast > 0 {
		var sl, tp float64
		if action == domain.ActionBuy {
			sl = entry - e.atrMultSL*atrLast
			tp = entry + e.rewardR*(entry-sl)
		} else {
			sl = entry + e.atrMultSL*atrLast
			tp = entry - e.rewardR*(sl-entry)
		}
		dec.StopLoss = &sl
		dec.TakeProfit = &tp
	}
	dec.Reasons = append(dec.Reasons, fmt.Sprintf("ATR=%.4f -> SL/TP computed", atrLast))
	return dec, nil
}
