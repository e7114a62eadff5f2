package fair

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"

	"gemcase-backend/internal/models"
)

// Deterministic outcome engine: everything here is a pure function of its
// inputs so verification replay can reproduce a recorded opening exactly.

// AdjustWeights applies an odds-event rare-weight multiplier to the rows of
// the event's target case. Only multipliers above 1 have any effect; adjusted
// weights are rounded to the nearest integer and floored at 1. Rows are
// returned in the input order, untouched rows copied as-is.
func AdjustWeights(rows []models.CaseRow, mult float64) []models.CaseRow {
	if !(mult > 1) || math.IsInf(mult, 0) {
		return rows
	}
	out := make([]models.CaseRow, len(rows))
	for i, r := range rows {
		if r.Rarity.IsRare() {
			w := int64(math.Round(float64(r.Weight) * mult))
			if w < 1 {
				w = 1
			}
			r.Weight = w
		}
		out[i] = r
	}
	return out
}

// TotalWeight sums the (possibly adjusted) weights of the rows.
func TotalWeight(rows []models.CaseRow) int64 {
	var total int64
	for _, r := range rows {
		total += r.Weight
	}
	return total
}

// fingerprintPayload is the canonical structure hashed into the modifiers
// fingerprint. Field order is fixed by the struct; absent modifiers encode as
// explicit nulls so the digest is stable.
type fingerprintPayload struct {
	Case     int64                        `json:"case"`
	Odds     *models.OddsModifier         `json:"odds"`
	Earnings *models.EarningsBoostPayload `json:"earnings"`
}

// Fingerprint binds a roll to the exact modifier state in effect: the case id,
// the odds modifier if this case was the odds event's target, and the full
// earnings payload if one was active.
func Fingerprint(caseID int64, odds *models.OddsModifier, earnings *models.EarningsBoostPayload) string {
	data, _ := json.Marshal(fingerprintPayload{Case: caseID, Odds: odds, Earnings: earnings})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SnapshotDigest hashes an entire stored modifier snapshot. Verification falls
// back to this only for openings recorded before fingerprints were persisted.
func SnapshotDigest(snapshot *models.ModifierSnapshot) string {
	data, _ := json.Marshal(snapshot)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RollMessage concatenates the public roll inputs with a fixed delimiter.
func RollMessage(clientSeed string, nonce, caseID int64, fingerprint string) string {
	return fmt.Sprintf("%s:%d:%d:%s", clientSeed, nonce, caseID, fingerprint)
}

// Roll derives the roll value: HMAC-SHA256 of the message keyed by the
// committed server seed, the whole digest taken as a big unsigned integer
// reduced modulo totalWeight. A non-positive totalWeight yields roll 0; an
// empty or zero-weight case must be rejected before ever reaching here.
func Roll(serverSeed, message string, totalWeight int64) (roll int64, digest string) {
	mac := hmac.New(sha256.New, []byte(serverSeed))
	mac.Write([]byte(message))
	digest = hex.EncodeToString(mac.Sum(nil))
	if totalWeight <= 0 {
		return 0, digest
	}
	n := new(big.Int).SetBytes(mac.Sum(nil))
	return new(big.Int).Mod(n, big.NewInt(totalWeight)).Int64(), digest
}

// Select walks the cumulative weight distribution in row order and returns the
// first row whose running sum exceeds the roll. If the roll lands at or beyond
// the accumulated total the last row is returned rather than erroring.
func Select(rows []models.CaseRow, roll int64) *models.CaseRow {
	if len(rows) == 0 {
		return nil
	}
	var acc int64
	for i := range rows {
		acc += rows[i].Weight
		if roll < acc {
			return &rows[i]
		}
	}
	return &rows[len(rows)-1]
}
