package domain

import (
	"testing"
	"time"
)

func leg(side Side, qty, entry float64) Leg {
	return Leg{Ts: time.Now(), Side: side, Qty: qty, Entry: entry}
}

func TestPositionBook_NetQty(t *testing.T) {
	tests := []struct {
		name string
		legs []Leg
		want float64
	}{
		{"Empty", nil, 0},
		{"SingleLong", []Leg{leg(SideLong, 2, 10)}, 2},
		{"SingleShort", []Leg{leg(SideShort, 3, 10)}, -3},
		{"ManyLongs", []Leg{leg(SideLong, 1, 10), leg(SideLong, 2, 11)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &PositionBook{Symbol: "BTCUSDT", Legs: tt.legs}
			if got := b.NetQty(); got != tt.want {
				t.Errorf("NetQty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPositionBook_AvgEntry(t *testing.T) {
	b := &PositionBook{Symbol: "BTCUSDT", Legs: []Leg{
		leg(SideLong, 1, 10),
		leg(SideLong, 3, 14),
	}}
	// (1*10 + 3*14) / 4 = 13
	if got := b.AvgEntry(); got != 13 {
		t.Errorf("AvgEntry() = %v, want 13", got)
	}
}

func TestPositionBook_AvgEntry_FlatIsZero(t *testing.T) {
	b := &PositionBook{Symbol: "ETHUSDT"}
	if got := b.AvgEntry(); got != 0 {
		t.Errorf("AvgEntry() on flat book = %v, want 0", got)
	}
}

func TestPositionBook_Direction(t *testing.T) {
	tests := []struct {
		name string
		legs []Leg
		want Side
	}{
		{"Flat", nil, SideFlat},
		{"Long", []Leg{leg(SideLong, 1, 10)}, SideLong},
		{"Short", []Leg{leg(SideShort, 1, 10)}, SideShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &PositionBook{Symbol: "X", Legs: tt.legs}
			if got := b.Direction(); got != tt.want {
				t.Errorf("Direction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPositionBook_VerifyOneSided_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for two-sided book")
		}
	}()
	b := &PositionBook{Symbol: "X", Legs: []Leg{
		leg(SideLong, 1, 10),
		leg(SideShort, 1, 10),
	}}
	b.VerifyOneSided()
}
