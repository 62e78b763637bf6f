package engine

import (
	"math"
	"sort"
	"sync"

	"github.com/Bich992/Trading-BOT/internal/ledger"
)

// PositionState is a read-only snapshot of one open position.
type PositionState struct {
	Symbol     string  `json:"symbol"`
	NetQty     float64 `json:"net_qty"`
	AvgEntry   float64 `json:"avg_entry"`
	Unrealized float64 `json:"unrealized"`
}

// EngineState bundles the portfolio with the latest marks. It is the
// view risk checks and UIs read from; all mutation goes through the
// portfolio itself.
type EngineState struct {
	mu         sync.RWMutex
	portfolio  *ledger.PaperPortfolio
	lastPrices map[string]float64
}

// NewEngineState wraps an existing portfolio.
func NewEngineState(p *ledger.PaperPortfolio) *EngineState {
	return &EngineState{
		portfolio:  p,
		lastPrices: make(map[string]float64),
	}
}

// Portfolio returns the underlying portfolio.
func (s *EngineState) Portfolio() *ledger.PaperPortfolio { return s.portfolio }

// SetPrice records the latest mark for symbol.
func (s *EngineState) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPrices[symbol] = price
}

// LastPrices returns a copy of the current marks.
func (s *EngineState) LastPrices() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.lastPrices))
	for k, v := range s.lastPrices {
		out[k] = v
	}
	return out
}

// Equity marks the portfolio against the latest prices.
func (s *EngineState) Equity() float64 {
	return s.portfolio.Equity(s.LastPrices())
}

// ExposurePct returns |net notional| of symbol relative to equity,
// 0 when equity or the mark is missing or non-positive.
func (s *EngineState) ExposurePct(symbol string) float64 {
	prices := s.LastPrices()
	price := prices[symbol]
	equity := s.portfolio.Equity(prices)
	if equity <= 0 || price <= 0 {
		return 0
	}
	return math.Abs(s.portfolio.NetQty(symbol)*price) / equity
}

// Positions snapshots every open position, sorted by symbol.
func (s *EngineState) Positions() []PositionState {
	prices := s.LastPrices()
	var out []PositionState
	for sym, book := range s.portfolio.Books() {
		nq := book.NetQty()
		if math.Abs(nq) < 1e-9 {
			continue
		}
		out = append(out, PositionState{
			Symbol:     sym,
			NetQty:     nq,
			AvgEntry:   book.AvgEntry(),
			Unrealized: s.portfolio.UnrealizedPnL(sym, prices[sym]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
