// Package indicator provides the stateless series math consumed by the
// regime classifier and the decision engine. All functions return a slice
// aligned with the input; positions inside an indicator's warmup window
// carry NaN, so tails are read through floats.LastOr.
package indicator

import (
	"math"

	"github.com/Bich992/Trading-BOT/internal/domain"
)

// EMA computes an exponential moving average seeded with the first value,
// smoothing factor 2/(span+1).
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	k := 2.0 / (float64(span) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// RSI computes the relative strength index over rolling-mean gains and
// losses. Indices below period are NaN. A window with zero average loss but
// positive gains pins the oscillator at 100; a window with no movement at
// all reads as the neutral midpoint 50.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if len(closes) < period+1 {
		return out
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}
	for i := period; i < len(closes); i++ {
		var g, l float64
		for j := i - period + 1; j <= i; j++ {
			g += gains[j]
			l += losses[j]
		}
		avgGain := g / float64(period)
		avgLoss := l / float64(period)
		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = 50
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - (100 / (1 + rs))
		}
	}
	return out
}

// MACD returns the divergence line (EMA fast − EMA slow), its signal EMA,
// and the histogram (macd − signal).
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	ef := EMA(closes, fast)
	es := EMA(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = ef[i] - es[i]
	}
	sig = EMA(macd, signal)
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - sig[i]
	}
	return macd, sig, hist
}

// ATR computes the average true range: rolling mean of
// max(h−l, |h−prevClose|, |l−prevClose|) over period. The first bar has no
// previous close, so its true range is just high−low. Indices below
// period−1 are NaN.
func ATR(s domain.Series, period int) []float64 {
	out := nanSlice(len(s))
	if len(s) < period {
		return out
	}
	tr := make([]float64, len(s))
	tr[0] = s[0].High - s[0].Low
	for i := 1; i < len(s); i++ {
		prevClose := s[i-1].Close
		tr[i] = math.Max(s[i].High-s[i].Low,
			math.Max(math.Abs(s[i].High-prevClose), math.Abs(s[i].Low-prevClose)))
	}
	for i := period - 1; i < len(s); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += tr[j]
		}
		out[i] = sum / float64(period)
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
