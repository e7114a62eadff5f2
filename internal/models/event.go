package models

import (
	"encoding/json"
	"fmt"
)

type EventType string

const (
	// EventTypeOddsBoost is the hour-scoped rare-weight multiplier + discount
	// on one randomly chosen case.
	EventTypeOddsBoost EventType = "odds_boost"
	// EventTypeEarningsBoost is the day-scoped earnings/streak multiplier +
	// discount for everyone.
	EventTypeEarningsBoost EventType = "earnings_boost"
)

// GlobalEvent is an append-only time-windowed modifier. The window is
// half-open: active means StartAt <= now < EndAt. Timestamps are UTC RFC 3339
// strings, so lexicographic comparison matches chronological order.
type GlobalEvent struct {
	ID          int64     `json:"id"`
	Type        EventType `json:"type"`
	StartAt     string    `json:"start_at"`
	EndAt       string    `json:"end_at"`
	PayloadJSON string    `json:"-"`

	// Payload mirrors PayloadJSON for API responses.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OddsBoostPayload is the payload for odds_boost events.
type OddsBoostPayload struct {
	CaseID         int64   `json:"case_id"`
	CaseSlug       string  `json:"case_slug"`
	CaseName       string  `json:"case_name"`
	RareWeightMult float64 `json:"rare_weight_mult"`
	Discount       float64 `json:"discount"`
}

// EarningsBoostPayload is the payload for earnings_boost events.
type EarningsBoostPayload struct {
	GemEarnMult float64 `json:"gem_earn_mult"`
	StreakMult  float64 `json:"streak_mult"`
	Discount    float64 `json:"discount"`
}

// ActiveAt reports whether the event window contains the given UTC RFC 3339
// instant, using the half-open [StartAt, EndAt) rule.
func (e *GlobalEvent) ActiveAt(nowISO string) bool {
	return e.StartAt <= nowISO && e.EndAt > nowISO
}

// OddsPayload decodes the payload of an odds_boost event.
func (e *GlobalEvent) OddsPayload() (*OddsBoostPayload, error) {
	if e.Type != EventTypeOddsBoost {
		return nil, fmt.Errorf("event %d is %s, not %s", e.ID, e.Type, EventTypeOddsBoost)
	}
	var p OddsBoostPayload
	if err := json.Unmarshal([]byte(e.PayloadJSON), &p); err != nil {
		return nil, fmt.Errorf("decode odds payload for event %d: %w", e.ID, err)
	}
	return &p, nil
}

// EarningsPayload decodes the payload of an earnings_boost event.
func (e *GlobalEvent) EarningsPayload() (*EarningsBoostPayload, error) {
	if e.Type != EventTypeEarningsBoost {
		return nil, fmt.Errorf("event %d is %s, not %s", e.ID, e.Type, EventTypeEarningsBoost)
	}
	var p EarningsBoostPayload
	if err := json.Unmarshal([]byte(e.PayloadJSON), &p); err != nil {
		return nil, fmt.Errorf("decode earnings payload for event %d: %w", e.ID, err)
	}
	return &p, nil
}

// ActiveEvents is the pair of at-most-one active event per type.
type ActiveEvents struct {
	Odds     *GlobalEvent `json:"odds,omitempty"`
	Earnings *GlobalEvent `json:"earnings,omitempty"`
}
