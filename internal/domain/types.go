package domain

import "strings"

// Side is the direction of an open leg.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Upper returns the side in uppercase for trade notes.
func (s Side) Upper() string {
	return strings.ToUpper(string(s))
}

// Action is what the decision engine wants done right now.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Regime classifies current market conditions and selects the rule set
// the decision engine applies.
type Regime string

const (
	RegimeTrend Regime = "TREND"
	RegimeRange Regime = "RANGE"
	RegimeChop  Regime = "CHOP"
)

// AddMode controls how the auto-manager adds to an open position.
type AddMode string

const (
	AddOff     AddMode = "OFF"
	AddPyramid AddMode = "PYRAMID"
	AddMeanRev AddMode = "MEANREV"
)

// SizeMode selects between fixed-notional and risk-derived sizing.
type SizeMode string

const (
	SizeFixed    SizeMode = "FIXED"
	SizeAutoRisk SizeMode = "AUTO_RISK"
)
