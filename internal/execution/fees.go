// Package execution models fills against the paper portfolio: slippage,
// maker/taker fees and simulated latency.
package execution

import (
	"math"
	"strings"

	"github.com/Bich992/Trading-BOT/internal/domain"
)

// FeeModel prices the friction of a fill.
type FeeModel struct {
	MakerFee    float64
	TakerFee    float64
	SlippageBps float64
}

// DefaultFeeModel returns typical spot exchange friction.
func DefaultFeeModel() FeeModel {
	return FeeModel{MakerFee: 0.0002, TakerFee: 0.0006, SlippageBps: 1.5}
}

// ApplySlippage moves price against the order: buys fill higher, sells
// fill lower. A non-positive slippage setting returns price unchanged.
func (f FeeModel) ApplySlippage(price float64, side domain.Action) float64 {
	if f.SlippageBps <= 0 {
		return price
	}
	slip := price * (f.SlippageBps / 10_000)
	if strings.EqualFold(string(side), string(domain.ActionBuy)) {
		return price + slip
	}
	return price - slip
}

// Fee returns the fee on notional at the taker or maker rate.
func (f FeeModel) Fee(notional float64, taker bool) float64 {
	rate := f.MakerFee
	if taker {
		rate = f.TakerFee
	}
	return math.Abs(notional) * rate
}
