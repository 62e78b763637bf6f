package domain

import (
	"fmt"
	"time"
)

// qtyEpsilon is the threshold below which a leg counts as fully closed.
const qtyEpsilon = 1e-12

// Leg is one open lot of a position. It is owned exclusively by a
// PositionBook: FIFO closing shrinks its quantity and removes it once the
// quantity reaches zero.
type Leg struct {
	Ts         time.Time `json:"ts"`
	Side       Side      `json:"side"`
	Qty        float64   `json:"qty"` // always > 0
	Entry      float64   `json:"entry"`
	StopLoss   *float64  `json:"stop_loss,omitempty"`
	TakeProfit *float64  `json:"take_profit,omitempty"`
	Confidence float64   `json:"confidence"`
	Regime     Regime    `json:"regime"`
	Reason     string    `json:"reason"`
}

// PositionBook holds the open legs of one instrument, insertion-ordered
// (oldest first). After FIFO closing nets opposing legs out, only one
// side's legs ever remain.
type PositionBook struct {
	Symbol string `json:"symbol"`
	Legs   []Leg  `json:"legs"`
}

// NetQty is the signed sum over remaining legs: long quantities minus
// short quantities.
func (b *PositionBook) NetQty() float64 {
	q := 0.0
	for _, l := range b.Legs {
		if l.Side == SideLong {
			q += l.Qty
		} else {
			q -= l.Qty
		}
	}
	return q
}

// AvgEntry is the quantity-weighted average entry price over the legs on
// the net side only. Returns 0 for a flat book.
func (b *PositionBook) AvgEntry() float64 {
	nq := b.NetQty()
	if nq == 0 {
		return 0
	}
	side := SideLong
	if nq < 0 {
		side = SideShort
	}
	var total, qty float64
	for _, l := range b.Legs {
		if l.Side == side {
			total += l.Qty * l.Entry
			qty += l.Qty
		}
	}
	if qty == 0 {
		return 0
	}
	return total / qty
}

// LegCount returns the number of open legs. Fully closed legs are removed,
// so every counted leg carries quantity.
func (b *PositionBook) LegCount() int {
	return len(b.Legs)
}

// Direction reports long, short, or flat based on net quantity.
func (b *PositionBook) Direction() Side {
	nq := b.NetQty()
	switch {
	case nq > 0:
		return SideLong
	case nq < 0:
		return SideShort
	default:
		return SideFlat
	}
}

// SideFlat is the direction of an empty or fully netted book.
const SideFlat Side = "flat"

// VerifyOneSided panics if the book holds non-zero quantity on both sides
// at once. FIFO closing must net opposing legs out, so a two-sided book
// means ledger corruption.
func (b *PositionBook) VerifyOneSided() {
	var long, short float64
	for _, l := range b.Legs {
		if l.Side == SideLong {
			long += l.Qty
		} else {
			short += l.Qty
		}
	}
	if long > qtyEpsilon && short > qtyEpsilon {
		panic(fmt.Sprintf("position book %s holds both sides: long=%f short=%f", b.Symbol, long, short))
	}
}
