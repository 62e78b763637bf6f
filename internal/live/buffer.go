// Package live holds the shared state a UI or monitor reads while the
// engine runs: the latest candle frame, trade markers and the last price.
package live

import (
	"sync"

	"github.com/Bich992/Trading-BOT/internal/domain"
)

// markerCap bounds memory on long sessions; older markers are dropped.
const markerCap = 300

// Marker is a rendered trade overlay point.
type Marker struct {
	Ts     int64   `json:"ts"`
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Qty    float64 `json:"qty"`
	Price  float64 `json:"price"`
	Entry  float64 `json:"entry"`
	Exit   float64 `json:"exit"`
	Fee    float64 `json:"fee"`
	PnL    float64 `json:"pnl"`
	PnLPct float64 `json:"pnl_pct"`
	Status string  `json:"status"`
}

// MarkerFromTrade renders a trade as an overlay marker. Open trades get
// status OPEN and exit equal to price.
func MarkerFromTrade(t domain.Trade, entry float64, status string) Marker {
	return Marker{
		Ts:     t.Ts.UnixMilli(),
		Symbol: t.Symbol,
		Side:   t.Side,
		Qty:    t.Qty,
		Price:  t.Price,
		Entry:  entry,
		Exit:   t.Price,
		Fee:    t.Fee,
		PnL:    t.PnLRealized,
		Status: status,
	}
}

// StateBuffer is a thread-safe buffer between producer goroutines and a
// reader tick. Readers always get copies; pushed data is never aliased.
type StateBuffer struct {
	mu        sync.Mutex
	frame     domain.Series
	markers   []Marker
	lastPrice float64
	hasPrice  bool
}

// NewStateBuffer returns an empty buffer.
func NewStateBuffer() *StateBuffer {
	return &StateBuffer{}
}

// PushFrame replaces the candle frame and updates the last price.
func (b *StateBuffer) PushFrame(s domain.Series) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = s.Copy()
	if len(s) > 0 {
		b.lastPrice = s.LastClose()
		b.hasPrice = true
	}
}

// PushMarker appends one marker, trimming to the cap.
func (b *StateBuffer) PushMarker(m Marker) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.markers = append(b.markers, m)
	b.trimLocked()
}

// ExtendMarkers appends several markers, trimming to the cap.
func (b *StateBuffer) ExtendMarkers(markers []Marker) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.markers = append(b.markers, markers...)
	b.trimLocked()
}

// ClearMarkers drops all markers.
func (b *StateBuffer) ClearMarkers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.markers = nil
}

func (b *StateBuffer) trimLocked() {
	if len(b.markers) > markerCap {
		kept := make([]Marker, markerCap)
		copy(kept, b.markers[len(b.markers)-markerCap:])
		b.markers = kept
	}
}

// Snapshot returns copies of the frame and markers plus the last price.
// Calling it has no effect on the buffer; repeated calls with no writes
// in between return equal results.
func (b *StateBuffer) Snapshot() (domain.Series, []Marker, float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	frame := b.frame.Copy()
	markers := make([]Marker, len(b.markers))
	copy(markers, b.markers)
	return frame, markers, b.lastPrice, b.hasPrice
}
