package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gemcase-backend/internal/config"
	"gemcase-backend/internal/economy"
	"gemcase-backend/internal/fair"
	"gemcase-backend/internal/models"
	"gemcase-backend/internal/storage"
)

// Engine executes the economy's state-changing operations against the store.
// Every mutation runs inside one transaction; operations on the same account
// are serialized through a keyed mutex so balance, nonce, seed and daily-cap
// updates never interleave.
type Engine struct {
	store *storage.Store
	cfg   *config.Config
	pool  *Pool
	feed  Broadcaster

	locks sync.Map // account id -> *sync.Mutex
}

func NewEngine(store *storage.Store, cfg *config.Config, feed Broadcaster) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg,
		pool:  NewPool(cfg.PoolThresholdsCents),
		feed:  feed,
	}
}

func (e *Engine) Pool() *Pool {
	return e.pool
}

func (e *Engine) lockAccount(id int64) func() {
	mu, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// activeModifiers resolves the event state for "now" into the typed modifiers
// that apply to the given case. A payload that fails to decode is logged and
// treated as absent; it cannot be allowed to block openings.
func activeModifiers(ctx context.Context, q *storage.Queries, caseID int64, now time.Time) (*models.OddsModifier, *models.EarningsBoostPayload, error) {
	var odds *models.OddsModifier
	var earnings *models.EarningsBoostPayload

	if ev, err := q.ActiveEvent(ctx, models.EventTypeOddsBoost, now); err != nil {
		return nil, nil, err
	} else if ev != nil {
		p, err := ev.OddsPayload()
		if err != nil {
			zap.L().Warn("Skipping undecodable odds payload", zap.Int64("event_id", ev.ID), zap.Error(err))
		} else if p.CaseID == caseID {
			odds = &models.OddsModifier{RareWeightMult: p.RareWeightMult, Discount: p.Discount}
		}
	}

	if ev, err := q.ActiveEvent(ctx, models.EventTypeEarningsBoost, now); err != nil {
		return nil, nil, err
	} else if ev != nil {
		p, err := ev.EarningsPayload()
		if err != nil {
			zap.L().Warn("Skipping undecodable earnings payload", zap.Int64("event_id", ev.ID), zap.Error(err))
		} else {
			earnings = p
		}
	}

	return odds, earnings, nil
}

// Open performs one case opening: commit-phase roll against the account's
// committed seed, full economy arithmetic, audit rows, and seed rotation, all
// inside a single transaction.
func (e *Engine) Open(ctx context.Context, accountID int64, caseSlug, clientSeed string) (*models.OpenResult, error) {
	req := models.OpenRequest{ClientSeed: clientSeed}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadClientSeed, err)
	}

	unlock := e.lockAccount(accountID)
	defer unlock()

	now := time.Now()
	var result *models.OpenResult
	var drop *DropFeedItem

	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		account, err := q.GetAccount(ctx, accountID)
		if err != nil {
			if err == storage.ErrNotFound {
				return ErrAccountNotFound
			}
			return err
		}

		c, err := q.GetCaseBySlug(ctx, caseSlug)
		if err != nil {
			if err == storage.ErrNotFound {
				return ErrCaseNotFound
			}
			return err
		}

		odds, earnings, err := activeModifiers(ctx, q, c.ID, now)
		if err != nil {
			return err
		}

		// Stacked discount from both events, capped, applied per component.
		discount := 0.0
		if odds != nil {
			discount = economy.CombineDiscounts(discount, odds.Discount)
		}
		if earnings != nil {
			discount = economy.CombineDiscounts(discount, earnings.Discount)
		}
		casePrice, keyPrice := economy.ApplyDiscount(c.CasePriceCents, c.KeyPriceCents, discount)
		totalCost := casePrice + keyPrice

		if account.GemsCents < totalCost {
			return ErrInsufficientFunds
		}

		rows, err := q.GetCaseRows(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return ErrCaseEmpty
		}
		if odds != nil {
			rows = fair.AdjustWeights(rows, odds.RareWeightMult)
		}
		totalWeight := fair.TotalWeight(rows)
		if totalWeight <= 0 {
			return ErrCaseEmpty
		}

		nonce := account.Nonce + 1
		fingerprint := fair.Fingerprint(c.ID, odds, earnings)
		message := fair.RollMessage(clientSeed, nonce, c.ID, fingerprint)
		roll, _ := fair.Roll(account.ServerSeed, message, totalWeight)
		selected := fair.Select(rows, roll)

		mastery, err := q.GetMastery(ctx, account.ID, c.ID)
		if err != nil {
			return err
		}

		// Earn pipeline: base rate, mastery bonus, event multiplier, each
		// floored. Then the per-open ceiling and the remaining daily
		// allowance.
		earned := int64(float64(selected.PriceCents) * e.cfg.EarnRate)
		earned = int64(float64(earned) * economy.MasteryBonusMultiplier(mastery.Level))
		if earnings != nil {
			earned = int64(float64(earned) * earnings.GemEarnMult)
		}
		if earned > e.cfg.PerOpenCapCents {
			earned = e.cfg.PerOpenCapCents
		}
		dateKey := models.UTCDateKey(now)
		dailyEarned := account.DailyEarnedCents
		if account.DailyEarnedDate != dateKey {
			dailyEarned = 0
		}
		remaining := e.cfg.DailyCapCents - dailyEarned
		if remaining < 0 {
			remaining = 0
		}
		credited := earned
		if credited > remaining {
			credited = remaining
		}

		newBalance := account.GemsCents - totalCost + credited
		if err := q.ApplyOpening(ctx, account.ID, newBalance, credited, dateKey); err != nil {
			return err
		}

		// Spend and earn are two distinct signed entries, never netted.
		spendMeta, _ := json.Marshal(map[string]string{"case": c.Slug})
		if err := q.InsertLedger(ctx, account.ID, models.LedgerOpenSpend, -totalCost, string(spendMeta), now); err != nil {
			return err
		}
		earnMeta, _ := json.Marshal(map[string]string{"item": selected.Name})
		if err := q.InsertLedger(ctx, account.ID, models.LedgerOpenEarn, credited, string(earnMeta), now); err != nil {
			return err
		}

		snapshot := models.ModifierSnapshot{Fingerprint: fingerprint, Odds: odds, Earnings: earnings}
		snapshotJSON, err := json.Marshal(&snapshot)
		if err != nil {
			return fmt.Errorf("encode modifier snapshot: %w", err)
		}
		openID, err := q.InsertOpening(ctx, &models.OpeningRecord{
			UserID:         account.ID,
			CaseID:         c.ID,
			ItemID:         selected.ItemID,
			SpentCents:     totalCost,
			EarnedCents:    credited,
			CreatedAt:      models.ISOTime(now),
			ServerSeedHash: account.ServerSeedHash,
			ServerSeed:     account.ServerSeed,
			ClientSeed:     clientSeed,
			Nonce:          nonce,
			Roll:           roll,
			ModifiersJSON:  string(snapshotJSON),
		})
		if err != nil {
			return err
		}

		if _, err := q.InsertHolding(ctx, account.ID, selected.ItemID, openID, now); err != nil {
			return err
		}

		newXP := mastery.XP + 1
		newLevel := economy.MasteryLevel(newXP)
		if err := q.UpsertMastery(ctx, account.ID, c.ID, newXP, newLevel, now); err != nil {
			return err
		}

		poolStatus, err := e.pool.Add(ctx, q, totalCost)
		if err != nil {
			return err
		}

		// Rotate last: the seed just consumed is revealed in the response, so
		// a fresh commitment must be in place before this transaction lands.
		nextSeed, err := fair.NewServerSeed()
		if err != nil {
			return err
		}
		nextHash := fair.HashSeed(nextSeed)
		if err := q.RotateSeed(ctx, account.ID, nextSeed, nextHash); err != nil {
			return err
		}

		result = &models.OpenResult{
			OpenID:       openID,
			Case:         c,
			Item:         selected,
			SpentCents:   totalCost,
			EarnedCents:  credited,
			BalanceCents: newBalance,
			Roll:         roll,
			Reveal: models.Reveal{
				ServerSeedHash: account.ServerSeedHash,
				ServerSeed:     account.ServerSeed,
				ClientSeed:     clientSeed,
				Nonce:          nonce,
			},
			NextServerSeedHash: nextHash,
			Mastery: &models.MasteryRecord{
				UserID: account.ID, CaseID: c.ID,
				XP: newXP, Level: newLevel,
				UpdatedAt: models.ISOTime(now),
			},
			Pool: poolStatus,
		}
		drop = &DropFeedItem{
			OpenID:      openID,
			DisplayName: account.DisplayName,
			CaseSlug:    c.Slug,
			CaseName:    c.Name,
			ItemName:    selected.Name,
			Rarity:      selected.Rarity,
			OpenedAt:    models.ISOTime(now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Case opened",
		zap.Int64("user_id", accountID),
		zap.String("case", caseSlug),
		zap.Int64("open_id", result.OpenID),
		zap.Int64("spent_cents", result.SpentCents),
		zap.Int64("earned_cents", result.EarnedCents))

	if e.feed != nil {
		e.feed.BroadcastDrop(drop)
	}
	return result, nil
}
