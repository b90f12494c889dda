package model

import "time"

// Alert conditions.
const (
	AlertAbove = "above"
	AlertBelow = "below"
)

// PriceAlert is a user-created price threshold alert.
type PriceAlert struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Condition    string    `json:"condition"` // "above" or "below"
	TargetPrice  float64   `json:"target_price"`
	CurrentPrice float64   `json:"current_price"`
	Triggered    bool      `json:"triggered"`
	CreatedAt    time.Time `json:"created_at"`
}

// Matches reports whether the given price satisfies the alert condition.
func (a PriceAlert) Matches(price float64) bool {
	switch a.Condition {
	case AlertAbove:
		return price >= a.TargetPrice
	case AlertBelow:
		return price <= a.TargetPrice
	default:
		return false
	}
}
