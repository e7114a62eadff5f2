package models

// Account is the authoritative per-user ledger state. Balance is integer minor
// units and must stay >= 0 at every observable point. ServerSeed is the
// currently committed secret; its hash is public, the plaintext is revealed
// only after the seed has been consumed and rotated.
type Account struct {
	ID          int64  `json:"id"`
	SteamID     string `json:"steam_id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
	CreatedAt   string `json:"created_at"`
	LastLoginAt string `json:"last_login_at"`

	GemsCents  int64 `json:"gems_cents"`
	TotalOpens int64 `json:"total_opens"`
	IsAdmin    bool  `json:"is_admin"`

	StreakDay       int    `json:"streak_day"`
	LastStreakClaim string `json:"last_streak_claim,omitempty"` // UTC date key, YYYY-MM-DD

	ServerSeed     string `json:"-"`
	ServerSeedHash string `json:"server_seed_hash"`
	Nonce          int64  `json:"nonce"`

	// Rolling daily earnings counter; resets when the date key changes.
	DailyEarnedCents int64  `json:"daily_earned_cents"`
	DailyEarnedDate  string `json:"daily_earned_date,omitempty"`
}

// MasteryRecord tracks per (account, case) progression. XP and Level are
// monotonically non-decreasing.
type MasteryRecord struct {
	UserID    int64  `json:"user_id"`
	CaseID    int64  `json:"case_id"`
	XP        int64  `json:"xp"`
	Level     int    `json:"level"`
	UpdatedAt string `json:"updated_at"`
}

// Holding is one item instance in an account's inventory, linked back to the
// opening that produced it.
type Holding struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	ItemID     int64  `json:"item_id"`
	OpenID     int64  `json:"open_id"`
	ObtainedAt string `json:"obtained_at"`
	IsSold     bool   `json:"is_sold"`
	SoldAt     string `json:"sold_at,omitempty"`
	SoldFor    int64  `json:"sold_for_cents,omitempty"`
}
