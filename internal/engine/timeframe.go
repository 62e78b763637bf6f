package engine

import (
	"math"

	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/regime"
)

const tfMinBars = 80

// TFScore is a timeframe ranked by how tradable its regime looks.
type TFScore struct {
	Timeframe string             `json:"timeframe"`
	Regime    domain.Regime      `json:"regime"`
	Score     float64            `json:"score"`
	Diag      regime.Diagnostics `json:"diag"`
}

// ChooseBestTimeframe ranks the candidate frames and returns the best.
// TREND scores highest, clean RANGE next, CHOP is penalized. Mid
// timeframes get a small nudge over 1m noise. Frames shorter than 80
// bars are skipped; if nothing qualifies a sentinel 5m/CHOP score is
// returned.
func ChooseBestTimeframe(frames map[string]domain.Series) TFScore {
	best := TFScore{Timeframe: "5m", Regime: domain.RegimeChop, Score: -999}
	found := false

	for tf, s := range frames {
		if len(s) < tfMinBars {
			continue
		}
		reg, diag, err := regime.Detect(s)
		if err != nil {
			continue
		}
		slope := math.Abs(diag.SlopeNorm)
		dirb := math.Abs(diag.DirBias)

		var score float64
		switch reg {
		case domain.RegimeTrend:
			score = 1.0 + 0.6*math.Min(slope, 2.0) + 0.4*math.Min(dirb, 2.0)
		case domain.RegimeRange:
			score = 0.9 + 0.3*(1.0-math.Min(slope, 1.0))
		default:
			score = -(0.6 + 0.3*math.Min(slope, 2.0))
		}

		switch tf {
		case "5m", "15m":
			score += 0.15
		case "1m":
			score -= 0.10
		}

		if !found || score > best.Score {
			best = TFScore{Timeframe: tf, Regime: reg, Score: score, Diag: diag}
			found = true
		}
	}
	return best
}
