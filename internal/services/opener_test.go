package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gemcase-backend/internal/config"
	"gemcase-backend/internal/fair"
	"gemcase-backend/internal/models"
	"gemcase-backend/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret",
		EventSecret:         "test-event-secret",
		StartingGemsCents:   1500,
		EarnRate:            0.25,
		PerOpenCapCents:     5000,
		DailyCapCents:       25000,
		SellRate:            0.60,
		OddsRareWeightMult:  2.0,
		OddsDiscount:        0.10,
		EarningsProb:        0.15,
		EarningsGemEarnMult: 1.25,
		EarningsStreakMult:  1.50,
		EarningsDiscount:    0.10,
		PoolThresholdsCents: []int64{0, 50000, 200000, 750000, 2000000},
		SchedulerInterval:   time.Minute,
	}
}

func newTestEngine(t *testing.T, cfg *config.Config) (*Engine, *storage.Store) {
	t.Helper()
	store, err := storage.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewEngine(store, cfg, nil), store
}

// seedCatalog creates one case with a single guaranteed outcome so roll
// results are deterministic regardless of seeds.
func seedCatalog(t *testing.T, store *storage.Store, itemPriceCents int64) int64 {
	t.Helper()
	ctx := context.Background()
	var caseID int64
	err := store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		caseID, err = q.UpsertCase(ctx, &models.Case{
			Slug: "clutch", Name: "Clutch Case",
			CasePriceCents: 200, KeyPriceCents: 100, Active: true,
		})
		if err != nil {
			return err
		}
		itemID, err := q.UpsertItem(ctx, &models.Item{
			Name: "P250 | Sand Dune", Rarity: models.RarityMilSpec, PriceCents: itemPriceCents,
		})
		if err != nil {
			return err
		}
		return q.LinkCaseItem(ctx, caseID, itemID, 1)
	})
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return caseID
}

func seedAccount(t *testing.T, store *storage.Store, cents int64) *models.Account {
	t.Helper()
	seed, err := fair.NewServerSeed()
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}
	account, err := store.Q().CreateAccount(context.Background(),
		"7656119900000042", "tester", "", cents, seed, fair.HashSeed(seed), time.Now())
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

func TestOpenFullFlow(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	ctx := context.Background()

	seedCatalog(t, store, 480) // earn = floor(480*0.25) = 120
	account := seedAccount(t, store, 1000)

	result, err := engine.Open(ctx, account.ID, "clutch", "my-client-seed")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if result.SpentCents != 300 {
		t.Errorf("spent = %d, want 300", result.SpentCents)
	}
	if result.EarnedCents != 120 {
		t.Errorf("earned = %d, want 120", result.EarnedCents)
	}
	if result.BalanceCents != 820 {
		t.Errorf("balance = %d, want 820", result.BalanceCents)
	}
	if result.Reveal.ServerSeed == "" || result.Reveal.ServerSeedHash == "" {
		t.Error("reveal must include the consumed seed and its commitment")
	}
	if result.Reveal.Nonce != 1 {
		t.Errorf("nonce = %d, want 1", result.Reveal.Nonce)
	}
	if result.NextServerSeedHash == "" || result.NextServerSeedHash == result.Reveal.ServerSeedHash {
		t.Error("a fresh commitment must be issued after the opening")
	}
	if result.Mastery.XP != 1 || result.Mastery.Level != 0 {
		t.Errorf("mastery = xp %d level %d, want 1/0", result.Mastery.XP, result.Mastery.Level)
	}
	if result.Pool.ProgressCents != 300 {
		t.Errorf("pool progress = %d, want 300", result.Pool.ProgressCents)
	}

	after, err := store.Q().GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if after.GemsCents != 820 {
		t.Errorf("stored balance = %d, want 820", after.GemsCents)
	}
	if after.Nonce != 0 {
		t.Errorf("nonce after rotation = %d, want 0", after.Nonce)
	}
	if after.ServerSeed == account.ServerSeed {
		t.Error("server seed must rotate after an opening")
	}

	inv, err := store.Q().ListInventory(ctx, account.ID)
	if err != nil {
		t.Fatalf("list inventory: %v", err)
	}
	if len(inv) != 1 || inv[0].Item.Name != "P250 | Sand Dune" {
		t.Errorf("inventory = %+v", inv)
	}
}

func TestOpenInsufficientFunds(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	seedCatalog(t, store, 480)
	account := seedAccount(t, store, 299) // one cent short of 300

	_, err := engine.Open(context.Background(), account.ID, "clutch", "my-client-seed")
	if err != ErrInsufficientFunds {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}

	// Nothing moved.
	after, _ := store.Q().GetAccount(context.Background(), account.ID)
	if after.GemsCents != 299 || after.Nonce != 0 {
		t.Errorf("account mutated on failed open: %+v", after)
	}
}

func TestOpenRejectsBadClientSeed(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	seedCatalog(t, store, 480)
	account := seedAccount(t, store, 1000)

	for _, seed := range []string{"", "short", strings.Repeat("x", 65), "has space"} {
		if _, err := engine.Open(context.Background(), account.ID, "clutch", seed); err == nil {
			t.Errorf("seed %q accepted, want rejection", seed)
		}
	}
}

func TestOpenUnknownCase(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	account := seedAccount(t, store, 1000)

	_, err := engine.Open(context.Background(), account.ID, "no-such-case", "my-client-seed")
	if err != ErrCaseNotFound {
		t.Fatalf("error = %v, want ErrCaseNotFound", err)
	}
}

func TestOpenPerOpenCap(t *testing.T) {
	cfg := testConfig()
	cfg.PerOpenCapCents = 50
	engine, store := newTestEngine(t, cfg)
	seedCatalog(t, store, 480) // raw earn 120, capped to 50
	account := seedAccount(t, store, 1000)

	result, err := engine.Open(context.Background(), account.ID, "clutch", "my-client-seed")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if result.EarnedCents != 50 {
		t.Errorf("earned = %d, want 50 (per-open cap)", result.EarnedCents)
	}
}

func TestOpenDailyCap(t *testing.T) {
	cfg := testConfig()
	cfg.DailyCapCents = 150
	engine, store := newTestEngine(t, cfg)
	seedCatalog(t, store, 480) // 120 per open
	account := seedAccount(t, store, 10000)

	first, err := engine.Open(context.Background(), account.ID, "clutch", "my-client-seed")
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if first.EarnedCents != 120 {
		t.Errorf("first earned = %d, want 120", first.EarnedCents)
	}

	// Only 30 of the daily allowance remains; spend still happens in full.
	second, err := engine.Open(context.Background(), account.ID, "clutch", "my-client-seed")
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	if second.EarnedCents != 30 {
		t.Errorf("second earned = %d, want 30 (daily cap remainder)", second.EarnedCents)
	}
	if second.SpentCents != 300 {
		t.Errorf("second spent = %d, want 300", second.SpentCents)
	}

	third, err := engine.Open(context.Background(), account.ID, "clutch", "my-client-seed")
	if err != nil {
		t.Fatalf("third open: %v", err)
	}
	if third.EarnedCents != 0 {
		t.Errorf("third earned = %d, want 0 (cap exhausted)", third.EarnedCents)
	}
}

func TestOpenDuringOddsEvent(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	account := seedAccount(t, store, 10000)
	ctx := context.Background()
	now := time.Now()

	// Two cases, each with a common and a rare row so the weight transform has
	// something to act on.
	var targetID, otherID int64
	err := store.WithTx(ctx, func(q *storage.Queries) error {
		for _, c := range []struct {
			slug string
			id   *int64
		}{{"target-case", &targetID}, {"other-case", &otherID}} {
			caseID, err := q.UpsertCase(ctx, &models.Case{
				Slug: c.slug, Name: c.slug,
				CasePriceCents: 200, KeyPriceCents: 100, Active: true,
			})
			if err != nil {
				return err
			}
			*c.id = caseID
			common, err := q.UpsertItem(ctx, &models.Item{
				Name: c.slug + " common", Rarity: models.RarityMilSpec, PriceCents: 400,
			})
			if err != nil {
				return err
			}
			rare, err := q.UpsertItem(ctx, &models.Item{
				Name: c.slug + " rare", Rarity: models.RarityCovert, PriceCents: 4000,
			})
			if err != nil {
				return err
			}
			if err := q.LinkCaseItem(ctx, caseID, common, 90); err != nil {
				return err
			}
			if err := q.LinkCaseItem(ctx, caseID, rare, 10); err != nil {
				return err
			}
		}
		payload, err := json.Marshal(&models.OddsBoostPayload{
			CaseID: targetID, CaseSlug: "target-case", CaseName: "target-case",
			RareWeightMult: 2.0, Discount: 0.10,
		})
		if err != nil {
			return err
		}
		return q.InsertEvent(ctx, models.EventTypeOddsBoost,
			now.Add(-time.Minute), now.Add(time.Hour), string(payload))
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	// The targeted case gets the 10% discount on both price components.
	result, err := engine.Open(ctx, account.ID, "target-case", "my-client-seed")
	if err != nil {
		t.Fatalf("open target: %v", err)
	}
	if result.SpentCents != 270 {
		t.Errorf("discounted spend = %d, want 270", result.SpentCents)
	}

	// The audit row pins the odds modifier so replay adjusts the same weights.
	rec, _, err := store.Q().GetOpening(ctx, result.OpenID)
	if err != nil {
		t.Fatalf("get opening: %v", err)
	}
	var snapshot models.ModifierSnapshot
	if err := json.Unmarshal([]byte(rec.ModifiersJSON), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.Odds == nil || snapshot.Odds.RareWeightMult != 2.0 || snapshot.Odds.Discount != 0.10 {
		t.Errorf("snapshot odds = %+v, want the event modifier", snapshot.Odds)
	}
	report, err := engine.Verify(ctx, result.OpenID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !report.Matches {
		t.Errorf("replay with adjusted weights should match: %+v", report)
	}

	// A case the event does not target pays full price and records no odds
	// modifier.
	other, err := engine.Open(ctx, account.ID, "other-case", "my-client-seed")
	if err != nil {
		t.Fatalf("open other: %v", err)
	}
	if other.SpentCents != 300 {
		t.Errorf("untargeted spend = %d, want 300", other.SpentCents)
	}
	rec, _, err = store.Q().GetOpening(ctx, other.OpenID)
	if err != nil {
		t.Fatalf("get opening: %v", err)
	}
	snapshot = models.ModifierSnapshot{}
	if err := json.Unmarshal([]byte(rec.ModifiersJSON), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.Odds != nil {
		t.Errorf("untargeted opening recorded odds modifier: %+v", snapshot.Odds)
	}
	if report, err := engine.Verify(ctx, other.OpenID); err != nil || !report.Matches {
		t.Errorf("untargeted replay should match: %+v err=%v", report, err)
	}
}

func TestVerifyAfterOpen(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	seedCatalog(t, store, 480)
	account := seedAccount(t, store, 1000)
	ctx := context.Background()

	result, err := engine.Open(ctx, account.ID, "clutch", "my-client-seed")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	report, err := engine.Verify(ctx, result.OpenID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !report.Matches {
		t.Errorf("replay should match stored outcome: %+v", report)
	}
	if report.ComputedRoll != result.Roll {
		t.Errorf("computed roll = %d, stored %d", report.ComputedRoll, result.Roll)
	}
	if report.ComputedItem != result.Item.ItemID {
		t.Errorf("computed item = %d, stored %d", report.ComputedItem, result.Item.ItemID)
	}
	if report.Fingerprint == "" {
		t.Error("fingerprint must be persisted with the opening")
	}

	if _, err := engine.Verify(ctx, 99999); err != ErrOpeningNotFound {
		t.Errorf("missing opening error = %v, want ErrOpeningNotFound", err)
	}
}

func TestSellHolding(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	seedCatalog(t, store, 480)
	account := seedAccount(t, store, 1000)
	ctx := context.Background()

	open, err := engine.Open(ctx, account.ID, "clutch", "my-client-seed")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	inv, _ := store.Q().ListInventory(ctx, account.ID)
	if len(inv) != 1 {
		t.Fatalf("inventory = %+v", inv)
	}

	sale, err := engine.Sell(ctx, account.ID, inv[0].Holding.ID)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	want := int64(float64(480) * 0.60) // 288
	if sale.ProceedsCents != want {
		t.Errorf("proceeds = %d, want %d", sale.ProceedsCents, want)
	}
	if sale.BalanceCents != open.BalanceCents+want {
		t.Errorf("balance = %d, want %d", sale.BalanceCents, open.BalanceCents+want)
	}

	if _, err := engine.Sell(ctx, account.ID, inv[0].Holding.ID); err != ErrAlreadySold {
		t.Errorf("second sale error = %v, want ErrAlreadySold", err)
	}
}

func TestClaimStreakOncePerDay(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	account := seedAccount(t, store, 1000)
	ctx := context.Background()

	first, err := engine.ClaimStreak(ctx, account.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if first.Day != 1 {
		t.Errorf("day = %d, want 1", first.Day)
	}
	if first.RewardCents != 1000 { // day 1 pays 10.00 gems
		t.Errorf("reward = %d, want 1000", first.RewardCents)
	}
	if first.BalanceCents != 2000 {
		t.Errorf("balance = %d, want 2000", first.BalanceCents)
	}

	if _, err := engine.ClaimStreak(ctx, account.ID); err != ErrAlreadyClaimed {
		t.Errorf("second claim error = %v, want ErrAlreadyClaimed", err)
	}
}

func TestClaimStreakGapResets(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	account := seedAccount(t, store, 1000)
	ctx := context.Background()

	// Simulate a claim two days ago on day 5.
	twoDaysAgo := models.UTCDateKey(time.Now().AddDate(0, 0, -2))
	if err := store.Q().SetStreak(ctx, account.ID, 1000, 5, twoDaysAgo); err != nil {
		t.Fatalf("set streak: %v", err)
	}

	result, err := engine.ClaimStreak(ctx, account.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.Day != 1 {
		t.Errorf("day after gap = %d, want 1", result.Day)
	}
}

func TestClaimStreakConsecutiveAdvances(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	account := seedAccount(t, store, 0)
	ctx := context.Background()

	yesterday := models.UTCDateKey(time.Now().AddDate(0, 0, -1))
	if err := store.Q().SetStreak(ctx, account.ID, 0, 3, yesterday); err != nil {
		t.Fatalf("set streak: %v", err)
	}

	result, err := engine.ClaimStreak(ctx, account.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.Day != 4 {
		t.Errorf("day = %d, want 4", result.Day)
	}
	if result.RewardCents != 1700 { // day 4 pays 17.00 gems
		t.Errorf("reward = %d, want 1700", result.RewardCents)
	}
}

func TestEnterGiveaway(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	account := seedAccount(t, store, 1000)
	ctx := context.Background()
	now := time.Now()

	gid, err := store.Q().InsertGiveaway(ctx, &models.Giveaway{
		Title: "Launch", PrizeText: "Knife", TierRequired: 0,
		StartsAt: models.ISOTime(now.Add(-time.Hour)),
		EndsAt:   models.ISOTime(now.Add(time.Hour)),
		Status:   "active", CreatedAt: models.ISOTime(now),
	})
	if err != nil {
		t.Fatalf("insert giveaway: %v", err)
	}

	result, err := engine.EnterGiveaway(ctx, account.ID, gid, 3)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	if result.CostCents != 300 {
		t.Errorf("cost = %d, want 300", result.CostCents)
	}
	if result.BalanceCents != 700 {
		t.Errorf("balance = %d, want 700", result.BalanceCents)
	}

	// Tier-gated giveaway is locked while the pool sits at tier 0.
	locked, err := store.Q().InsertGiveaway(ctx, &models.Giveaway{
		Title: "High Roller", PrizeText: "Gloves", TierRequired: 3,
		StartsAt: models.ISOTime(now.Add(-time.Hour)),
		EndsAt:   models.ISOTime(now.Add(time.Hour)),
		Status:   "active", CreatedAt: models.ISOTime(now),
	})
	if err != nil {
		t.Fatalf("insert giveaway: %v", err)
	}
	if _, err := engine.EnterGiveaway(ctx, account.ID, locked, 1); err != ErrTierLocked {
		t.Errorf("tier gate error = %v, want ErrTierLocked", err)
	}

	if _, err := engine.EnterGiveaway(ctx, account.ID, gid, 0); err != ErrBadEntries {
		t.Errorf("zero entries error = %v, want ErrBadEntries", err)
	}
}
