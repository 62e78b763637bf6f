// Package risk owns position sizing and the pre-trade gate every order
// passes before it reaches the portfolio.
package risk

import "math"

// SizeConfig selects between a fixed notional and risk-derived sizing.
type SizeConfig struct {
	Mode            string  `yaml:"mode"`
	FixedNotional   float64 `yaml:"fixed_notional"`
	RiskPerTradePct float64 `yaml:"risk_per_trade_pct"`
}

// DefaultSizeConfig returns the stock sizing parameters.
func DefaultSizeConfig() SizeConfig {
	return SizeConfig{Mode: "FIXED", FixedNotional: 100, RiskPerTradePct: 0.01}
}

// PositionSizer converts equity, price and stop distance into a quantity.
type PositionSizer struct {
	cfg SizeConfig
}

// NewPositionSizer builds a sizer; a zero config falls back to defaults.
func NewPositionSizer(cfg SizeConfig) *PositionSizer {
	if cfg == (SizeConfig{}) {
		cfg = DefaultSizeConfig()
	}
	return &PositionSizer{cfg: cfg}
}

// Size returns the quantity to trade. Fixed mode, a missing stop, or a
// stop equal to price all size by fixed notional. Risk mode sizes so a
// stop-out loses risk_per_trade_pct of equity. Non-positive prices size
// to zero.
func (s *PositionSizer) Size(equity, price float64, stopLoss *float64) float64 {
	if price <= 0 {
		return 0
	}
	fixed := math.Max(s.cfg.FixedNotional, 0) / price
	if s.cfg.Mode == "FIXED" || stopLoss == nil || *stopLoss == price {
		return fixed
	}
	stopDist := math.Abs(price - *stopLoss)
	if stopDist <= 0 {
		return fixed
	}
	riskAmt := math.Max(equity*s.cfg.RiskPerTradePct, 0)
	return riskAmt / stopDist
}
