// Package notification delivers triggered price-alert events to
// external channels (Telegram, webhooks) or, in development, the log.
package notification

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Event describes one triggered price alert.
type Event struct {
	AlertID     string    `json:"alert_id"`
	Symbol      string    `json:"symbol"`
	Condition   string    `json:"condition"` // "above" | "below"
	TargetPrice float64   `json:"target_price"`
	Price       float64   `json:"price"` // price that tripped the alert
	TriggeredAt time.Time `json:"triggered_at"`
}

// Title renders a short human-readable headline for the event.
func (e Event) Title() string {
	return fmt.Sprintf("%s crossed %s %.2f", e.Symbol, e.Condition, e.TargetPrice)
}

// Notifier is the interface for all delivery backends.
type Notifier interface {
	// Send delivers an event. Returns error if delivery fails.
	Send(ctx context.Context, ev Event) error
}

// LogNotifier logs events instead of delivering them (useful for
// development and as the always-on default).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, ev Event) error {
	log.Printf("[notify] alert %s: %s at %.2f", ev.AlertID, ev.Title(), ev.Price)
	return nil
}
