// Package backtest replays historical candles through the live decision
// path and measures the result.
package backtest

import (
	"math"

	"github.com/Bich992/Trading-BOT/internal/domain"
)

// EquityCurveFromTrades folds realized PnL over the trade tape starting
// from startingCash. The curve always has len(trades)+1 points.
func EquityCurveFromTrades(trades []domain.Trade, startingCash float64) []float64 {
	equity := startingCash
	curve := make([]float64, 0, len(trades)+1)
	curve = append(curve, equity)
	for _, t := range trades {
		equity += t.PnLRealized
		curve = append(curve, equity)
	}
	return curve
}

// Returns converts an equity curve into simple per-step returns.
// Steps starting from a non-positive equity produce a zero return.
func Returns(curve []float64) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1]
		if prev == 0 {
			continue
		}
		out[i-1] = (curve[i] - prev) / prev
	}
	return out
}

// SharpeRatio annualizes mean excess return over population stddev with
// a 252-step year. A flat return series scores 0.
func SharpeRatio(returns []float64, riskFree float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return (mean - riskFree) / std * math.Sqrt(252)
}

// MaxDrawdown returns the largest peak-to-trough fraction of the curve.
func MaxDrawdown(curve []float64) float64 {
	peak := math.Inf(-1)
	var maxDD float64
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
