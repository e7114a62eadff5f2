package models

// LedgerCause tags a ledger entry by what produced it.
type LedgerCause string

const (
	LedgerOpenSpend     LedgerCause = "open_spend"
	LedgerOpenEarn      LedgerCause = "open_earn"
	LedgerStreakClaim   LedgerCause = "streak_claim"
	LedgerInventorySell LedgerCause = "inventory_sell"
	LedgerGiveawayEntry LedgerCause = "giveaway_entry"
)

// LedgerEntry is one append-only signed-amount transaction log row. Spend and
// earn from the same opening are written as two distinct entries, never netted.
type LedgerEntry struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	Cause       LedgerCause `json:"cause"`
	AmountCents int64       `json:"amount_cents"`
	MetaJSON    string      `json:"meta,omitempty"`
	CreatedAt   string      `json:"created_at"`
}

// Giveaway is a prize raffle gated by reward-pool tier.
type Giveaway struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	TierRequired int    `json:"tier_required"`
	PrizeText    string `json:"prize_text"`
	StartsAt     string `json:"starts_at"`
	EndsAt       string `json:"ends_at"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	TotalEntries int64  `json:"total_entries"`
}
