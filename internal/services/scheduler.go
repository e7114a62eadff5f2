package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gemcase-backend/internal/config"
	"gemcase-backend/internal/models"
	"gemcase-backend/internal/storage"
)

// Scheduler materializes the global event calendar. Each tick independently
// ensures the hourly odds boost and the daily earnings-boost decision; a
// failure in one never blocks the other.
type Scheduler struct {
	store *storage.Store
	cfg   *config.Config
	feed  Broadcaster
}

func NewScheduler(store *storage.Store, cfg *config.Config, feed Broadcaster) *Scheduler {
	return &Scheduler{store: store, cfg: cfg, feed: feed}
}

// Start runs the tick loop until the context is cancelled. The first tick is
// immediate so a restart mid-hour repairs the calendar right away.
func (s *Scheduler) Start(ctx context.Context) {
	s.tick(ctx)
	ticker := time.NewTicker(s.cfg.SchedulerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()
	if err := s.EnsureOddsEvent(ctx, now); err != nil {
		zap.L().Error("Odds event tick failed", zap.Error(err))
	}
	if err := s.EnsureEarningsEvent(ctx, now); err != nil {
		zap.L().Error("Earnings event tick failed", zap.Error(err))
	}
}

// EnsureOddsEvent creates this hour's odds boost if none is active: one
// randomly chosen active case gets boosted rare weights and a discount for the
// hour-aligned window.
func (s *Scheduler) EnsureOddsEvent(ctx context.Context, now time.Time) error {
	hourStart := models.FloorToHour(now)
	hourKey := models.ISOTime(hourStart)
	var created *models.GlobalEvent

	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		active, err := q.ActiveEvent(ctx, models.EventTypeOddsBoost, now)
		if err != nil {
			return err
		}
		if active != nil {
			return nil
		}

		cases, err := q.ListActiveCases(ctx)
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			return nil
		}
		chosen := cases[rand.Intn(len(cases))]

		payload, err := json.Marshal(&models.OddsBoostPayload{
			CaseID:         chosen.ID,
			CaseSlug:       chosen.Slug,
			CaseName:       chosen.Name,
			RareWeightMult: s.cfg.OddsRareWeightMult,
			Discount:       s.cfg.OddsDiscount,
		})
		if err != nil {
			return fmt.Errorf("encode odds payload: %w", err)
		}
		end := hourStart.Add(time.Hour)
		if err := q.InsertEvent(ctx, models.EventTypeOddsBoost, hourStart, end, string(payload)); err != nil {
			return err
		}
		if err := q.SetGlobal(ctx, "last_odds_hour", hourKey); err != nil {
			return err
		}
		created = &models.GlobalEvent{
			Type:        models.EventTypeOddsBoost,
			StartAt:     hourKey,
			EndAt:       models.ISOTime(end),
			PayloadJSON: string(payload),
		}
		return nil
	})
	if err != nil || created == nil {
		return err
	}

	zap.L().Info("Odds boost scheduled", zap.String("hour", hourKey))
	if s.feed != nil {
		s.feed.BroadcastEvent(created)
	}
	return nil
}

// EarningsBoostDue is the deterministic daily coin flip: the first 48 bits of
// SHA-256(dateKey + "|" + secret), read as a fraction of 2^48, compared against
// the configured probability. Every process derives the same answer for the
// same date, so no coordination is needed.
func EarningsBoostDue(dateKey, secret string, prob float64) bool {
	sum := sha256.Sum256([]byte(dateKey + "|" + secret))
	hex := fmt.Sprintf("%x", sum[:6])
	n, _ := strconv.ParseUint(hex, 16, 64)
	return float64(n)/float64(uint64(1)<<48) < prob
}

// EnsureEarningsEvent runs the daily decision once per UTC date. The date
// marker is written whether or not the boost fires, so a "no" day is never
// re-rolled.
func (s *Scheduler) EnsureEarningsEvent(ctx context.Context, now time.Time) error {
	dateKey := models.UTCDateKey(now)
	var created *models.GlobalEvent

	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		decided, err := q.GetGlobal(ctx, "last_earnings_date", "")
		if err != nil {
			return err
		}
		if decided == dateKey {
			return nil
		}
		if err := q.SetGlobal(ctx, "last_earnings_date", dateKey); err != nil {
			return err
		}
		if !EarningsBoostDue(dateKey, s.cfg.EventSecret, s.cfg.EarningsProb) {
			return nil
		}

		payload, err := json.Marshal(&models.EarningsBoostPayload{
			GemEarnMult: s.cfg.EarningsGemEarnMult,
			StreakMult:  s.cfg.EarningsStreakMult,
			Discount:    s.cfg.EarningsDiscount,
		})
		if err != nil {
			return fmt.Errorf("encode earnings payload: %w", err)
		}
		start := models.StartOfUTCDay(now)
		end := start.Add(24 * time.Hour)
		if err := q.InsertEvent(ctx, models.EventTypeEarningsBoost, start, end, string(payload)); err != nil {
			return err
		}
		created = &models.GlobalEvent{
			Type:        models.EventTypeEarningsBoost,
			StartAt:     models.ISOTime(start),
			EndAt:       models.ISOTime(end),
			PayloadJSON: string(payload),
		}
		return nil
	})
	if err != nil || created == nil {
		return err
	}

	zap.L().Info("Earnings boost scheduled", zap.String("date", dateKey))
	if s.feed != nil {
		s.feed.BroadcastEvent(created)
	}
	return nil
}

// ActiveEvents returns the at-most-one active event of each type.
func (e *Engine) ActiveEvents(ctx context.Context, now time.Time) (*models.ActiveEvents, error) {
	q := e.store.Q()
	odds, err := q.ActiveEvent(ctx, models.EventTypeOddsBoost, now)
	if err != nil {
		return nil, err
	}
	earnings, err := q.ActiveEvent(ctx, models.EventTypeEarningsBoost, now)
	if err != nil {
		return nil, err
	}
	if odds != nil {
		odds.Payload = json.RawMessage(odds.PayloadJSON)
	}
	if earnings != nil {
		earnings.Payload = json.RawMessage(earnings.PayloadJSON)
	}
	return &models.ActiveEvents{Odds: odds, Earnings: earnings}, nil
}
