package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gemcase-backend/internal/economy"
	"gemcase-backend/internal/fair"
	"gemcase-backend/internal/models"
	"gemcase-backend/internal/storage"
)

// StreakResult is the outcome of a successful daily streak claim.
type StreakResult struct {
	Day          int   `json:"day"`
	RewardCents  int64 `json:"reward_cents"`
	BalanceCents int64 `json:"balance_cents"`
}

// ClaimStreak credits the daily streak reward. One claim per UTC date;
// consecutive dates advance the day up to 15, a gap of two or more days
// resets to day 1.
func (e *Engine) ClaimStreak(ctx context.Context, accountID int64) (*StreakResult, error) {
	unlock := e.lockAccount(accountID)
	defer unlock()

	now := time.Now()
	today := models.UTCDateKey(now)
	var result *StreakResult

	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		account, err := q.GetAccount(ctx, accountID)
		if err != nil {
			if err == storage.ErrNotFound {
				return ErrAccountNotFound
			}
			return err
		}
		if account.LastStreakClaim == today {
			return ErrAlreadyClaimed
		}

		nextDay := 1
		if account.LastStreakClaim != "" {
			last, err := time.Parse("2006-01-02", account.LastStreakClaim)
			if err == nil && models.StartOfUTCDay(now).Sub(last) == 24*time.Hour {
				nextDay = account.StreakDay + 1
			}
		}
		if nextDay > economy.MaxStreakDay {
			nextDay = economy.MaxStreakDay
		}

		reward := economy.StreakReward(nextDay)
		if ev, err := q.ActiveEvent(ctx, models.EventTypeEarningsBoost, now); err != nil {
			return err
		} else if ev != nil {
			if p, err := ev.EarningsPayload(); err != nil {
				zap.L().Warn("Skipping undecodable earnings payload", zap.Int64("event_id", ev.ID), zap.Error(err))
			} else {
				reward = int64(float64(reward) * p.StreakMult)
			}
		}

		newBalance := account.GemsCents + reward
		if err := q.SetStreak(ctx, account.ID, newBalance, nextDay, today); err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]int{"day": nextDay})
		if err := q.InsertLedger(ctx, account.ID, models.LedgerStreakClaim, reward, string(meta), now); err != nil {
			return err
		}

		result = &StreakResult{Day: nextDay, RewardCents: reward, BalanceCents: newBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Streak claimed",
		zap.Int64("user_id", accountID),
		zap.Int("day", result.Day),
		zap.Int64("reward_cents", result.RewardCents))
	return result, nil
}

// SellResult is the outcome of selling one inventory holding.
type SellResult struct {
	HoldingID     int64  `json:"holding_id"`
	ItemName      string `json:"item_name"`
	ProceedsCents int64  `json:"proceeds_cents"`
	BalanceCents  int64  `json:"balance_cents"`
}

// Sell converts a holding into gems at the fixed sell rate of its indexed
// value, floored. A holding can be sold exactly once.
func (e *Engine) Sell(ctx context.Context, accountID, holdingID int64) (*SellResult, error) {
	unlock := e.lockAccount(accountID)
	defer unlock()

	now := time.Now()
	var result *SellResult

	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		account, err := q.GetAccount(ctx, accountID)
		if err != nil {
			if err == storage.ErrNotFound {
				return ErrAccountNotFound
			}
			return err
		}
		holding, err := q.GetHoldingForSale(ctx, holdingID, accountID)
		if err != nil {
			if err == storage.ErrNotFound {
				return ErrHoldingNotFound
			}
			return err
		}
		if holding.IsSold {
			return ErrAlreadySold
		}

		proceeds := int64(float64(holding.PriceCents) * e.cfg.SellRate)
		newBalance := account.GemsCents + proceeds

		if err := q.MarkHoldingSold(ctx, holding.ID, proceeds, now); err != nil {
			return err
		}
		if err := q.SetBalance(ctx, account.ID, newBalance); err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]any{"holding_id": holding.ID, "item": holding.ItemName})
		if err := q.InsertLedger(ctx, account.ID, models.LedgerInventorySell, proceeds, string(meta), now); err != nil {
			return err
		}

		result = &SellResult{
			HoldingID:     holding.ID,
			ItemName:      holding.ItemName,
			ProceedsCents: proceeds,
			BalanceCents:  newBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GiveawayEntryCostCents is the price of one giveaway entry.
const GiveawayEntryCostCents int64 = 100

// GiveawayEntryResult is the outcome of buying giveaway entries.
type GiveawayEntryResult struct {
	GiveawayID   int64 `json:"giveaway_id"`
	Entries      int64 `json:"entries"`
	CostCents    int64 `json:"cost_cents"`
	BalanceCents int64 `json:"balance_cents"`
}

// EnterGiveaway buys entries into a live giveaway, gated by the community
// reward-pool tier.
func (e *Engine) EnterGiveaway(ctx context.Context, accountID, giveawayID, entries int64) (*GiveawayEntryResult, error) {
	if entries <= 0 || entries > 1000 {
		return nil, ErrBadEntries
	}

	unlock := e.lockAccount(accountID)
	defer unlock()

	now := time.Now()
	nowISO := models.ISOTime(now)
	var result *GiveawayEntryResult

	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		account, err := q.GetAccount(ctx, accountID)
		if err != nil {
			if err == storage.ErrNotFound {
				return ErrAccountNotFound
			}
			return err
		}
		g, err := q.GetGiveaway(ctx, giveawayID)
		if err != nil {
			if err == storage.ErrNotFound {
				return ErrGiveawayNotFound
			}
			return err
		}
		if g.Status != "active" || g.StartsAt > nowISO || g.EndsAt <= nowISO {
			return ErrGiveawayNotLive
		}
		pool, err := e.pool.Status(ctx, q)
		if err != nil {
			return err
		}
		if pool.Tier < g.TierRequired {
			return ErrTierLocked
		}

		cost := entries * GiveawayEntryCostCents
		if account.GemsCents < cost {
			return ErrInsufficientFunds
		}

		if err := q.SetBalance(ctx, account.ID, account.GemsCents-cost); err != nil {
			return err
		}
		if err := q.AddGiveawayEntries(ctx, g.ID, account.ID, entries, now); err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]int64{"giveaway_id": g.ID, "entries": entries})
		if err := q.InsertLedger(ctx, account.ID, models.LedgerGiveawayEntry, -cost, string(meta), now); err != nil {
			return err
		}

		result = &GiveawayEntryResult{
			GiveawayID:   g.ID,
			Entries:      entries,
			CostCents:    cost,
			BalanceCents: account.GemsCents - cost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EnsureAccount looks up the account for a verified identity, creating it with
// the starting balance and a first committed seed on first login.
func (e *Engine) EnsureAccount(ctx context.Context, steamID, displayName, avatar string) (*models.Account, error) {
	now := time.Now()
	var account *models.Account
	err := e.store.WithTx(ctx, func(q *storage.Queries) error {
		existing, err := q.GetAccountBySteamID(ctx, steamID)
		if err == nil {
			if err := q.TouchLogin(ctx, existing.ID, displayName, avatar, now); err != nil {
				return err
			}
			account, err = q.GetAccount(ctx, existing.ID)
			return err
		}
		if err != storage.ErrNotFound {
			return err
		}

		seed, err := fair.NewServerSeed()
		if err != nil {
			return err
		}
		account, err = q.CreateAccount(ctx, steamID, displayName, avatar,
			e.cfg.StartingGemsCents, seed, fair.HashSeed(seed), now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}
	return account, nil
}

// Account returns the current account state.
func (e *Engine) Account(ctx context.Context, accountID int64) (*models.Account, error) {
	account, err := e.store.Q().GetAccount(ctx, accountID)
	if err == storage.ErrNotFound {
		return nil, ErrAccountNotFound
	}
	return account, err
}
