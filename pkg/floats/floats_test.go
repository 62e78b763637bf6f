package floats

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{"Below", -0.5, 0},
		{"Inside", 0.4, 0.4},
		{"Above", 1.7, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, 0, 1); got != tt.want {
				t.Errorf("Clamp(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestLastOr(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"Empty", nil, 42},
		{"Finite", []float64{1, 2, 3}, 3},
		{"TrailingNaN", []float64{1, math.NaN()}, 42},
		{"TrailingInf", []float64{1, math.Inf(1)}, 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LastOr(tt.values, 42); got != tt.want {
				t.Errorf("LastOr() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAt(t *testing.T) {
	vals := []float64{1, math.NaN(), 3}
	if got := At(vals, 2, 9); got != 3 {
		t.Errorf("At(2) = %v, want 3", got)
	}
	if got := At(vals, 1, 9); got != 9 {
		t.Errorf("At(NaN index) = %v, want fallback 9", got)
	}
	if got := At(vals, 5, 9); got != 9 {
		t.Errorf("At(out of range) = %v, want fallback 9", got)
	}
}
