package domain

import "time"

// Trade is the immutable record of one ledger mutation. The append-only
// trade list is the source of truth for history, the equity curve, and
// reporting.
type Trade struct {
	ID          string    `json:"id"`
	Ts          time.Time `json:"ts"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"` // "buy" or "sell" as executed
	Qty         float64   `json:"qty"`
	Price       float64   `json:"price"`
	Fee         float64   `json:"fee"`
	OrderType   string    `json:"order_type"`
	PnLRealized float64   `json:"pnl_realized"`
	Note        string    `json:"note"`
}

// TradeDecision is one decision-engine output. Created fresh per call,
// never persisted beyond the caller's use. Reasons are for logging and
// explainability only, never control flow.
type TradeDecision struct {
	Action     Action
	Symbol     string
	Timeframe  string
	Entry      *float64
	StopLoss   *float64
	TakeProfit *float64
	Confidence float64 // clamped to [0,1]
	Regime     Regime
	Reasons    []string
}
