package domain

import "errors"

// Ledger and decision error taxonomy. A failed ledger call never leaves a
// partial mutation behind; callers at the tick boundary log and move on to
// the next instrument.
var (
	ErrInvalidQty        = errors.New("quantity must be > 0")
	ErrInsufficientFunds = errors.New("insufficient cash")
	ErrNoPosition        = errors.New("no position to close")
	ErrInsufficientData  = errors.New("price series too short")
	ErrUnknownSide       = errors.New("side must be long or short")
)
