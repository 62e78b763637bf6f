// Package notify pushes engine events to the operator.
package notify

import "context"

// Notifier delivers a human-readable message. Implementations must be
// safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }
