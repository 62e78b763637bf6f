package live

import (
	"fmt"
	"testing"
	"time"

	"github.com/Bich992/Trading-BOT/internal/domain"
)

func candles(n int) domain.Series {
	base := time.Now()
	s := make(domain.Series, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		s[i] = domain.Candle{Ts: base.Add(time.Duration(i) * time.Minute), Open: c, High: c, Low: c, Close: c}
	}
	return s
}

func TestStateBuffer_PushFrameAndSnapshot(t *testing.T) {
	b := NewStateBuffer()
	b.PushFrame(candles(5))

	frame, markers, last, ok := b.Snapshot()
	if len(frame) != 5 {
		t.Fatalf("frame len = %d, want 5", len(frame))
	}
	if !ok || last != 104 {
		t.Errorf("last price = %v (%v), want 104", last, ok)
	}
	if len(markers) != 0 {
		t.Errorf("markers = %v, want none", markers)
	}
}

func TestStateBuffer_SnapshotIsIdempotent(t *testing.T) {
	b := NewStateBuffer()
	b.PushFrame(candles(3))
	b.PushMarker(Marker{Symbol: "BTCUSDT", Price: 100})

	f1, m1, p1, _ := b.Snapshot()
	f2, m2, p2, _ := b.Snapshot()
	if len(f1) != len(f2) || len(m1) != len(m2) || p1 != p2 {
		t.Error("back-to-back snapshots must be equal")
	}

	// Mutating a snapshot must not leak into the buffer.
	f1[0].Close = -1
	m1[0].Price = -1
	f3, m3, _, _ := b.Snapshot()
	if f3[0].Close == -1 || m3[0].Price == -1 {
		t.Error("snapshot shares storage with the buffer")
	}
}

func TestStateBuffer_MarkerCap(t *testing.T) {
	b := NewStateBuffer()
	for i := 0; i < markerCap+50; i++ {
		b.PushMarker(Marker{Symbol: fmt.Sprintf("m-%d", i)})
	}
	_, markers, _, _ := b.Snapshot()
	if len(markers) != markerCap {
		t.Fatalf("markers = %d, want cap %d", len(markers), markerCap)
	}
	// Oldest dropped, newest kept.
	if markers[len(markers)-1].Symbol != fmt.Sprintf("m-%d", markerCap+49) {
		t.Errorf("last marker = %v, want newest", markers[len(markers)-1].Symbol)
	}
	if markers[0].Symbol != "m-50" {
		t.Errorf("first marker = %v, want m-50", markers[0].Symbol)
	}
}

func TestStateBuffer_ExtendAndClear(t *testing.T) {
	b := NewStateBuffer()
	b.ExtendMarkers([]Marker{{Symbol: "a"}, {Symbol: "b"}})
	_, markers, _, _ := b.Snapshot()
	if len(markers) != 2 {
		t.Fatalf("markers = %d, want 2", len(markers))
	}
	b.ClearMarkers()
	_, markers, _, _ = b.Snapshot()
	if len(markers) != 0 {
		t.Errorf("markers after clear = %d, want 0", len(markers))
	}
}
