package domain

import "time"

// Candle is one OHLCV price bar.
type Candle struct {
	Ts     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is a time-ordered list of candles, oldest first.
type Series []Candle

// Closes extracts the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Close
	}
	return out
}

// Highs extracts the high column.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].High
	}
	return out
}

// Lows extracts the low column.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Low
	}
	return out
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s Series) LastClose() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Close
}

// Copy returns an independent copy of the series.
func (s Series) Copy() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}
