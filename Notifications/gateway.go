package Notifications

import (
	"context"
	"errors"
)

// Priority indicates how urgent a notification is
type Priority string

const (
	PriorityNormal   Priority = "normal"   // Gentle reminder
	PriorityHigh     Priority = "high"     // Needs attention soon
	PriorityCritical Priority = "critical" // Parents must act now
)

// Notification is a delivery request for one member's devices.
type Notification struct {
	MemberID uint              // Target member
	Title    string            // Short summary (one line)
	Body     string            // Detailed message
	Priority Priority          // Delivery urgency
	Data     map[string]string // Payload for the app (task id, level, etc.)
}

// Gateway is the interface for delivering notifications. Delivery is
// best-effort; callers log failures and never roll back state over them.
type Gateway interface {
	// Send delivers the notification. Implementations should respect
	// context cancellation.
	Send(ctx context.Context, n Notification) error

	// Name returns the gateway type for logging
	Name() string
}

// Fanout forwards every notification to all configured gateways and
// reports the combined failures.
type Fanout struct {
	Gateways []Gateway
}

func (f *Fanout) Send(ctx context.Context, n Notification) error {
	var errs []error
	for _, g := range f.Gateways {
		if err := g.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Name() string {
	return "fanout"
}
