package strategy

import (
	"github.com/Bich992/Trading-BOT/internal/domain"
	"github.com/Bich992/Trading-BOT/internal/indicator"
	"github.com/Bich992/Trading-BOT/pkg/floats"
)

// EMARSIParams tunes the EMA/RSI mix strategy.
type EMARSIParams struct {
	Fast    int
	Slow    int
	ATRMult float64
}

// DefaultEMARSIParams returns the stock tuning.
func DefaultEMARSIParams() EMARSIParams {
	return EMARSIParams{Fast: 20, Slow: 50, ATRMult: 1.5}
}

// EMARSIMix trades EMA alignment confirmed by RSI, with ATR-derived
// stop and a 2R target.
type EMARSIMix struct {
	params EMARSIParams
}

// NewEMARSIMix builds the strategy; zero params fall back to defaults.
func NewEMARSIMix(params EMARSIParams) *EMARSIMix {
	if params.Fast <= 0 || params.Slow <= 0 || params.Fast >= params.Slow {
		params = DefaultEMARSIParams()
	}
	if params.ATRMult <= 0 {
		params.ATRMult = 1.5
	}
	return &EMARSIMix{params: params}
}

func (e *EMARSIMix) Name() string { return "ema_rsi_mix" }

// GenerateSignal reads the last bar. Fast EMA above slow with RSI past
// 55 buys; fast below slow with RSI under 45 sells; anything else holds.
func (e *EMARSIMix) GenerateSignal(s domain.Series) Signal {
	if len(s) < e.params.Slow {
		return Signal{Action: domain.ActionHold, Confidence: 0}
	}

	closes := s.Closes()
	eFast := indicator.EMA(closes, e.params.Fast)
	eSlow := indicator.EMA(closes, e.params.Slow)
	rsiLast := floats.LastOr(indicator.RSI(closes, 14), 50)
	atrLast := floats.LastOr(indicator.ATR(s, 14), 0)

	action := domain.ActionHold
	confidence := 0.25
	switch {
	case eFast[len(eFast)-1] > eSlow[len(eSlow)-1] && rsiLast > 55:
		action = domain.ActionBuy
		confidence = 0.65
	case eFast[len(eFast)-1] < eSlow[len(eSlow)-1] && rsiLast < 45:
		action = domain.ActionSell
		confidence = 0.65
	}

	sig := Signal{Action: action, Confidence: confidence}
	if action == domain.ActionHold || atrLast <= 0 {
		return sig
	}

	entry := s.LastClose()
	var sl, tp float64
	if action == domain.ActionBuy {
		sl = entry - e.params.ATRMult*atrLast
		tp = entry + 2*(entry-sl)
	} else {
		sl = entry + e.params.ATRMult*atrLast
		tp = entry - 2*(sl-entry)
	}
	sig.StopLoss = &sl
	sig.TakeProfit = &tp
	return sig
}
