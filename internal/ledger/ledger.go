// Package ledger keeps the paper portfolio: cash, per-symbol position
// books built from legs, and the full trade history. All mutations are
// validated before any state changes so a failed call leaves the
// portfolio untouched.
package ledger

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bich992/Trading-BOT/internal/domain"
)

const qtyEpsilon = 1e-12

// OpenLegParams carries everything recorded on a new leg.
type OpenLegParams struct {
	Symbol     string
	Side       domain.Side
	Qty        float64
	Price      float64
	Ts         time.Time
	StopLoss   *float64
	TakeProfit *float64
	Confidence float64
	Regime     domain.Regime
	Reason     string
	OrderType  string
}

// PaperPortfolio is the single source of truth for simulated money.
// Safe for concurrent use.
type PaperPortfolio struct {
	mu      sync.Mutex
	cash    float64
	feeRate float64
	books   map[string]*domain.PositionBook
	trades  []domain.Trade
	log     *slog.Logger
}

// NewPaperPortfolio starts a portfolio with the given cash and
// proportional fee rate.
func NewPaperPortfolio(cash, feeRate float64, log *slog.Logger) *PaperPortfolio {
	if log == nil {
		log = slog.Default()
	}
	return &PaperPortfolio{
		cash:    cash,
		feeRate: feeRate,
		books:   make(map[string]*domain.PositionBook),
		log:     log,
	}
}

func (p *PaperPortfolio) fee(notional float64) float64 {
	return math.Abs(notional) * p.feeRate
}

func (p *PaperPortfolio) book(symbol string) *domain.PositionBook {
	b, ok := p.books[symbol]
	if !ok {
		b = &domain.PositionBook{Symbol: symbol}
		p.books[symbol] = b
	}
	return b
}

// Cash returns the free cash balance.
func (p *PaperPortfolio) Cash() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cash
}

// NetQty returns the signed net quantity for symbol, 0 when flat.
func (p *PaperPortfolio) NetQty(symbol string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book(symbol).NetQty()
}

// AvgEntry returns the quantity-weighted entry of the net direction.
func (p *PaperPortfolio) AvgEntry(symbol string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book(symbol).AvgEntry()
}

// LegCount returns the number of open legs for symbol.
func (p *PaperPortfolio) LegCount(symbol string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book(symbol).LegCount()
}

// Book returns a deep copy of the position book for symbol.
func (p *PaperPortfolio) Book(symbol string) domain.PositionBook {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.book(symbol)
	out := domain.PositionBook{Symbol: b.Symbol, Legs: make([]domain.Leg, len(b.Legs))}
	copy(out.Legs, b.Legs)
	return out
}

// Books returns deep copies of every non-empty position book.
func (p *PaperPortfolio) Books() map[string]domain.PositionBook {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]domain.PositionBook, len(p.books))
	for sym, b := range p.books {
		if len(b.Legs) == 0 {
			continue
		}
		cp := domain.PositionBook{Symbol: b.Symbol, Legs: make([]domain.Leg, len(b.Legs))}
		copy(cp.Legs, b.Legs)
		out[sym] = cp
	}
	return out
}

// Trades returns a copy of the full trade history, oldest first.
func (p *PaperPortfolio) Trades() []domain.Trade {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Trade, len(p.trades))
	copy(out, p.trades)
	return out
}

// Equity marks every open book to the given prices and adds free cash.
// Books with no price in the map are skipped.
func (p *PaperPortfolio) Equity(prices map[string]float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	eq := p.cash
	for sym, b := range p.books {
		nq := b.NetQty()
		if nq == 0 {
			continue
		}
		if px, ok := prices[sym]; ok {
			eq += nq * px
		}
	}
	return eq
}

// TotalFees returns the sum of fees across all trades.
func (p *PaperPortfolio) TotalFees() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var sum float64
	for _, t := range p.trades {
		sum += t.Fee
	}
	return sum
}

// RealizedPnL returns the sum of realized PnL across all trades.
// Opens contribute their negative fee.
func (p *PaperPortfolio) RealizedPnL() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var sum float64
	for _, t := range p.trades {
		sum += t.PnLRealized
	}
	return sum
}

// UnrealizedPnL marks the symbol's net position against price.
func (p *PaperPortfolio) UnrealizedPnL(symbol string, price float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.book(symbol)
	nq := b.NetQty()
	if nq == 0 {
		return 0
	}
	ae := b.AvgEntry()
	if nq > 0 {
		return (price - ae) * nq
	}
	return (ae - price) * math.Abs(nq)
}

// Restore replaces cash and open books from a snapshot. The trade tape
// is not restored; history lives in the journal.
func (p *PaperPortfolio) Restore(cash float64, books map[string]domain.PositionBook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cash = cash
	p.books = make(map[string]*domain.PositionBook, len(books))
	for sym, b := range books {
		cp := &domain.PositionBook{Symbol: b.Symbol, Legs: make([]domain.Leg, len(b.Legs))}
		copy(cp.Legs, b.Legs)
		p.books[sym] = cp
	}
}

// OpenLeg opens or adds a leg. Long opens debit notional plus fee and
// require enough cash. Short opens credit notional minus fee with no
// margin requirement, which is a deliberate simplification of the cash
// model.
func (p *PaperPortfolio) OpenLeg(params OpenLegParams) (domain.Trade, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if params.Qty <= 0 {
		return domain.Trade{}, fmt.Errorf("open %s: %w", params.Symbol, domain.ErrInvalidQty)
	}
	notional := params.Qty * params.Price
	fee := p.fee(notional)

	switch params.Side {
	case domain.SideLong:
		if p.cash < notional+fee {
			return domain.Trade{}, fmt.Errorf("open long %s: need %.2f, have %.2f: %w",
				params.Symbol, notional+fee, p.cash, domain.ErrInsufficientFunds)
		}
		p.cash -= notional + fee
	case domain.SideShort:
		p.cash += notional - fee
	default:
		return domain.Trade{}, fmt.Errorf("open %s: side %q: %w", params.Symbol, params.Side, domain.ErrUnknownSide)
	}

	b := p.book(params.Symbol)
	b.Legs = append(b.Legs, domain.Leg{
		Ts:         params.Ts,
		Side:       params.Side,
		Qty:        params.Qty,
		Entry:      params.Price,
		StopLoss:   params.StopLoss,
		TakeProfit: params.TakeProfit,
		Confidence: params.Confidence,
		Regime:     params.Regime,
		Reason:     params.Reason,
	})

	side := "buy"
	if params.Side == domain.SideShort {
		side = "sell"
	}
	orderType := params.OrderType
	if orderType == "" {
		orderType = "auto"
	}
	t := domain.Trade{
		ID:          uuid.NewString(),
		Ts:          params.Ts,
		Symbol:      params.Symbol,
		Side:        side,
		Qty:         params.Qty,
		Price:       params.Price,
		Fee:         fee,
		OrderType:   orderType,
		PnLRealized: -fee,
		Note:        fmt.Sprintf("OPEN %s LEG", params.Side.Upper()),
	}
	p.trades = append(p.trades, t)

	p.log.Info("leg opened",
		slog.String("symbol", params.Symbol),
		slog.String("side", string(params.Side)),
		slog.Float64("qty", params.Qty),
		slog.Float64("price", params.Price),
		slog.Float64("fee", fee),
		slog.Float64("cash", p.cash))
	return t, nil
}

// CloseQtyFIFO closes up to qtyToClose of the net position at price,
// matching the oldest legs of the net direction first. Closing more
// than the open quantity closes everything. Realized PnL is the sum
// over matched lots minus the full closing fee.
func (p *PaperPortfolio) CloseQtyFIFO(symbol string, qtyToClose, price float64, ts time.Time, orderType, note string) (domain.Trade, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if qtyToClose <= 0 {
		return domain.Trade{}, fmt.Errorf("close %s: %w", symbol, domain.ErrInvalidQty)
	}
	b := p.book(symbol)
	nq := b.NetQty()
	if nq == 0 {
		return domain.Trade{}, fmt.Errorf("close %s: %w", symbol, domain.ErrNoPosition)
	}

	direction := domain.SideLong
	if nq < 0 {
		direction = domain.SideShort
	}
	qty := math.Min(qtyToClose, math.Abs(nq))
	notional := qty * price
	fee := p.fee(notional)

	if direction == domain.SideShort && p.cash < notional+fee {
		return domain.Trade{}, fmt.Errorf("close short %s: need %.2f, have %.2f: %w",
			symbol, notional+fee, p.cash, domain.ErrInsufficientFunds)
	}

	// Closing a long sells: credit notional minus fee.
	// Closing a short buys back: debit notional plus fee.
	if direction == domain.SideLong {
		p.cash += notional - fee
	} else {
		p.cash -= notional + fee
	}

	var realized float64
	remaining := qty
	kept := b.Legs[:0]
	for _, leg := range b.Legs {
		if remaining <= 0 || leg.Side != direction {
			kept = append(kept, leg)
			continue
		}
		take := math.Min(leg.Qty, remaining)
		if direction == domain.SideLong {
			realized += (price - leg.Entry) * take
		} else {
			realized += (leg.Entry - price) * take
		}
		leg.Qty -= take
		remaining -= take
		if leg.Qty > qtyEpsilon {
			kept = append(kept, leg)
		}
	}
	b.Legs = kept
	b.VerifyOneSided()
	realized -= fee

	side := "sell"
	if direction == domain.SideShort {
		side = "buy"
	}
	if orderType == "" {
		orderType = "auto"
	}
	if note == "" {
		note = fmt.Sprintf("CLOSE %s FIFO", direction.Upper())
	}
	t := domain.Trade{
		ID:          uuid.NewString(),
		Ts:          ts,
		Symbol:      symbol,
		Side:        side,
		Qty:         qty,
		Price:       price,
		Fee:         fee,
		OrderType:   orderType,
		PnLRealized: realized,
		Note:        note,
	}
	p.trades = append(p.trades, t)

	p.log.Info("position closed",
		slog.String("symbol", symbol),
		slog.String("direction", string(direction)),
		slog.Float64("qty", qty),
		slog.Float64("price", price),
		slog.Float64("realized", realized),
		slog.Float64("cash", p.cash))
	return t, nil
}
