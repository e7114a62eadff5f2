package models

// OddsModifier is the per-opening snapshot of an odds event that targeted the
// opened case: just the fields that influence price and weights.
type OddsModifier struct {
	RareWeightMult float64 `json:"rare_weight_mult"`
	Discount       float64 `json:"discount"`
}

// ModifierSnapshot is persisted verbatim with every opening so verification
// never depends on live event state. The fingerprint is always written by the
// open path; the fallback of re-hashing the snapshot exists only for rows that
// predate the field.
type ModifierSnapshot struct {
	Fingerprint string                `json:"fingerprint"`
	Odds        *OddsModifier         `json:"odds,omitempty"`
	Earnings    *EarningsBoostPayload `json:"earnings,omitempty"`
}

// OpeningRecord is the immutable audit row written exactly once per opening.
// It is the sole input to verification replay.
type OpeningRecord struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	CaseID      int64  `json:"case_id"`
	ItemID      int64  `json:"item_id"`
	SpentCents  int64  `json:"spent_cents"`
	EarnedCents int64  `json:"earned_cents"`
	CreatedAt   string `json:"created_at"`

	ServerSeedHash string `json:"server_seed_hash"`
	ServerSeed     string `json:"server_seed"`
	ClientSeed     string `json:"client_seed"`
	Nonce          int64  `json:"nonce"`
	Roll           int64  `json:"roll"`
	ModifiersJSON  string `json:"-"`
}

// Reveal is the commit-reveal bundle returned with every opening so the caller
// can verify the roll immediately.
type Reveal struct {
	ServerSeedHash string `json:"server_seed_hash"`
	ServerSeed     string `json:"server_seed"`
	ClientSeed     string `json:"client_seed"`
	Nonce          int64  `json:"nonce"`
}

// OpenResult is the full outcome of one case opening.
type OpenResult struct {
	OpenID             int64          `json:"open_id"`
	Case               *Case          `json:"case"`
	Item               *CaseRow       `json:"item"`
	SpentCents         int64          `json:"spent_cents"`
	EarnedCents        int64          `json:"earned_cents"`
	BalanceCents       int64          `json:"balance_cents"`
	Roll               int64          `json:"roll"`
	Reveal             Reveal         `json:"reveal"`
	NextServerSeedHash string         `json:"next_server_seed_hash"`
	Mastery            *MasteryRecord `json:"mastery"`
	Pool               *PoolStatus    `json:"pool"`
}

// VerificationReport is the read-only audit result for a stored opening.
// Matches is false on any divergence; nothing is ever corrected.
type VerificationReport struct {
	OpenID       int64  `json:"open_id"`
	CaseSlug     string `json:"case_slug"`
	ComputedItem int64  `json:"computed_item_id"`
	StoredItem   int64  `json:"stored_item_id"`
	ComputedRoll int64  `json:"computed_roll"`
	StoredRoll   int64  `json:"stored_roll"`
	ComputedHMAC string `json:"computed_hmac"`
	Fingerprint  string `json:"fingerprint"`
	Matches      bool   `json:"matches"`
}

// PoolStatus is the community reward-pool snapshot. Tier is the highest
// threshold index not exceeding cumulative spend, so it never decreases.
type PoolStatus struct {
	ProgressCents   int64   `json:"progress_cents"`
	Tier            int     `json:"tier"`
	TierName        string  `json:"tier_name"`
	ThresholdsCents []int64 `json:"thresholds_cents"`
	NextThreshold   int64   `json:"next_threshold_cents"`
}
