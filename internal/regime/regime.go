// Package regime classifies market conditions from a price series.
package regime

import (
	"fmt"

	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/indicator"
	"github.com/Bich992/Trading-BOT/pkg/floats"
)

// minBars is the shortest series the classifier accepts; the slow average
// needs roughly this much history before its slope means anything.
const minBars = 50

const epsilon = 1e-9

// Diagnostics carries the scalars behind a classification, for downstream
// confidence scoring and display.
type Diagnostics struct {
	SlopeNorm float64 `json:"slope_norm"`
	ATR       float64 `json:"atr"`
	DirBias   float64 `json:"dir_bias"`
}

// Detect classifies the series as TREND, RANGE, or CHOP.
//
// slope_norm is the 10-bar delta of the slow (50) average normalized by
// ATR; dir_bias is the fast/slow (20/50) average spread normalized the
// same way. TREND requires both a steep slope and a clear bias, RANGE
// requires both to be small with live volatility, everything else is CHOP.
func Detect(s domain.Series) (domain.Regime, Diagnostics, error) {
	if len(s) < minBars {
		return "", Diagnostics{}, fmt.Errorf("regime: %d bars (<%d): %w", len(s), minBars, domain.ErrInsufficientData)
	}

	closes := s.Closes()
	e20 := indicator.EMA(closes, 20)
	e50 := indicator.EMA(closes, 50)
	atr := indicator.ATR(s, 14)

	n := len(s) - 1
	atrLast := floats.LastOr(atr, 0)

	slopeNorm := 0.0
	if n-10 >= 0 {
		slopeNorm = (e50[n] - e50[n-10]) / (atrLast + epsilon)
	}
	dirBias := (e20[n] - e50[n]) / (atrLast + epsilon)

	diag := Diagnostics{SlopeNorm: slopeNorm, ATR: atrLast, DirBias: dirBias}

	var r domain.Regime
	switch {
	case abs(slopeNorm) > 0.8 && abs(dirBias) > 0.4:
		r = domain.RegimeTrend
	case atrLast > 0 && abs(slopeNorm) < 0.35 && abs(dirBias) < 0.25:
		r = domain.RegimeRange
	default:
		r = domain.RegimeChop
	}
	return r, diag, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
