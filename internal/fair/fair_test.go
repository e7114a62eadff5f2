package fair

import (
	"strings"
	"testing"

	"gemcase-backend/internal/models"
)

func testRows() []models.CaseRow {
	return []models.CaseRow{
		{ItemID: 1, Name: "P250 Sand Dune", Rarity: models.RarityMilSpec, Weight: 90},
		{ItemID: 2, Name: "AWP Lightning Strike", Rarity: models.RarityCovert, Weight: 10},
	}
}

func TestSeedCommitment(t *testing.T) {
	seed, err := NewServerSeed()
	if err != nil {
		t.Fatalf("NewServerSeed: %v", err)
	}
	if len(seed) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(seed))
	}

	other, _ := NewServerSeed()
	if seed == other {
		t.Error("two generated seeds should not collide")
	}

	hash := HashSeed(seed)
	if len(hash) != 64 {
		t.Errorf("expected 64 hex chars of commitment, got %d", len(hash))
	}
	if hash != HashSeed(seed) {
		t.Error("commitment must be deterministic")
	}
	if hash == HashSeed(other) {
		t.Error("different seeds must commit differently")
	}
}

func TestSelectCumulativeWalk(t *testing.T) {
	rows := testRows()

	// totalWeight=100: roll 50 lands in the weight-90 row, roll 95 in the
	// weight-10 row.
	if got := Select(rows, 50); got.ItemID != 1 {
		t.Errorf("roll 50 should select item 1, got %d", got.ItemID)
	}
	if got := Select(rows, 95); got.ItemID != 2 {
		t.Errorf("roll 95 should select item 2, got %d", got.ItemID)
	}
	if got := Select(rows, 0); got.ItemID != 1 {
		t.Errorf("roll 0 should select item 1, got %d", got.ItemID)
	}
	if got := Select(rows, 89); got.ItemID != 1 {
		t.Errorf("roll 89 should select item 1, got %d", got.ItemID)
	}
	if got := Select(rows, 90); got.ItemID != 2 {
		t.Errorf("roll 90 should select item 2, got %d", got.ItemID)
	}

	// A roll at or past the total falls back to the last row.
	if got := Select(rows, 100); got.ItemID != 2 {
		t.Errorf("out-of-range roll should fall back to last row, got %d", got.ItemID)
	}
	if got := Select(nil, 0); got != nil {
		t.Error("selecting from no rows should return nil")
	}
}

func TestAdjustWeights(t *testing.T) {
	rows := []models.CaseRow{
		{ItemID: 1, Rarity: models.RarityMilSpec, Weight: 80},
		{ItemID: 2, Rarity: models.RarityRestricted, Weight: 15},
		{ItemID: 3, Rarity: models.RarityClassified, Weight: 4},
		{ItemID: 4, Rarity: models.RarityCovert, Weight: 1},
	}

	adjusted := AdjustWeights(rows, 2)
	want := []int64{80, 15, 8, 2}
	for i, w := range want {
		if adjusted[i].Weight != w {
			t.Errorf("row %d: expected weight %d, got %d", i, w, adjusted[i].Weight)
		}
	}
	// Input rows are not mutated.
	if rows[2].Weight != 4 {
		t.Errorf("input rows mutated: %d", rows[2].Weight)
	}

	// Multiplier <= 1 is a no-op.
	same := AdjustWeights(rows, 1)
	if same[3].Weight != 1 {
		t.Errorf("mult 1 should not change weights, got %d", same[3].Weight)
	}

	// Rounding floors at 1.
	tiny := AdjustWeights([]models.CaseRow{{Rarity: models.RarityCovert, Weight: 0}}, 1.2)
	if tiny[0].Weight != 1 {
		t.Errorf("adjusted rare weight should floor at 1, got %d", tiny[0].Weight)
	}
}

func TestFingerprintCanonical(t *testing.T) {
	odds := &models.OddsModifier{RareWeightMult: 2, Discount: 0.1}
	earn := &models.EarningsBoostPayload{GemEarnMult: 1.25, StreakMult: 1.5, Discount: 0.1}

	a := Fingerprint(7, odds, earn)
	b := Fingerprint(7, &models.OddsModifier{RareWeightMult: 2, Discount: 0.1}, earn)
	if a != b {
		t.Error("equal modifier state must fingerprint identically")
	}
	if Fingerprint(7, nil, earn) == a {
		t.Error("absent odds modifier must change the fingerprint")
	}
	if Fingerprint(8, odds, earn) == a {
		t.Error("case id must be bound into the fingerprint")
	}
	if len(a) != 64 {
		t.Errorf("expected sha256 hex fingerprint, got %d chars", len(a))
	}
}

func TestRollDeterminism(t *testing.T) {
	seed := "a4f8c2d6e0b14397a4f8c2d6e0b14397a4f8c2d6e0b14397a4f8c2d6e0b14397"
	fp := Fingerprint(3, nil, nil)
	msg := RollMessage("player-seed-1", 1, 3, fp)

	if !strings.HasPrefix(msg, "player-seed-1:1:3:") {
		t.Errorf("unexpected roll message format: %s", msg)
	}

	roll1, digest1 := Roll(seed, msg, 100)
	roll2, digest2 := Roll(seed, msg, 100)
	if roll1 != roll2 || digest1 != digest2 {
		t.Error("roll must be deterministic for identical inputs")
	}
	if roll1 < 0 || roll1 >= 100 {
		t.Errorf("roll out of range: %d", roll1)
	}
	if len(digest1) != 64 {
		t.Errorf("expected 64 hex digest chars, got %d", len(digest1))
	}

	// A different nonce moves the roll message and, with overwhelming
	// probability, the digest.
	_, digest3 := Roll(seed, RollMessage("player-seed-1", 2, 3, fp), 100)
	if digest3 == digest1 {
		t.Error("digest should change with the nonce")
	}

	// Zero total weight is the defined caller-error fallback.
	roll, _ := Roll(seed, msg, 0)
	if roll != 0 {
		t.Errorf("zero total weight must roll 0, got %d", roll)
	}
}

func TestRollDistributionCoversAllRows(t *testing.T) {
	rows := testRows()
	total := TotalWeight(rows)
	if total != 100 {
		t.Fatalf("expected total weight 100, got %d", total)
	}

	seed, _ := NewServerSeed()
	fp := Fingerprint(1, nil, nil)
	seen := map[int64]int{}
	for nonce := int64(1); nonce <= 500; nonce++ {
		roll, _ := Roll(seed, RollMessage("distribution-seed", nonce, 1, fp), total)
		seen[Select(rows, roll).ItemID]++
	}
	if seen[1] == 0 || seen[2] == 0 {
		t.Errorf("500 rolls should hit both rows, got %v", seen)
	}
	if seen[1] < seen[2] {
		t.Errorf("weight-90 row should dominate the weight-10 row, got %v", seen)
	}
}
