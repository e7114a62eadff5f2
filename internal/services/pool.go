package services

import (
	"context"
	"strconv"

	"gemcase-backend/internal/models"
	"gemcase-backend/internal/storage"
)

var tierNames = []string{"Bronze", "Silver", "Gold", "Diamond", "Mythic"}

// Pool tracks community-wide spend against fixed tier thresholds. Progress and
// tier live in global_state; every mutation happens inside the caller's
// transaction so concurrent opens never lose an increment.
type Pool struct {
	thresholds []int64
}

func NewPool(thresholdsCents []int64) *Pool {
	return &Pool{thresholds: thresholdsCents}
}

// recomputeTier returns the highest threshold index not exceeding progress.
// Cumulative spend only grows, so the tier never decreases.
func (p *Pool) recomputeTier(progressCents int64) int {
	tier := 0
	for i, threshold := range p.thresholds {
		if progressCents >= threshold {
			tier = i
		}
	}
	return tier
}

func (p *Pool) Status(ctx context.Context, q *storage.Queries) (*models.PoolStatus, error) {
	rawProgress, err := q.GetGlobal(ctx, "pool_progress_cents", "0")
	if err != nil {
		return nil, err
	}
	rawTier, err := q.GetGlobal(ctx, "pool_tier", "0")
	if err != nil {
		return nil, err
	}
	progress, _ := strconv.ParseInt(rawProgress, 10, 64)
	tier, _ := strconv.Atoi(rawTier)
	return p.status(progress, tier), nil
}

func (p *Pool) status(progressCents int64, tier int) *models.PoolStatus {
	name := "Tier " + strconv.Itoa(tier)
	if tier < len(tierNames) {
		name = tierNames[tier]
	}
	next := int64(0)
	if len(p.thresholds) > 0 {
		idx := tier + 1
		if idx >= len(p.thresholds) {
			idx = len(p.thresholds) - 1
		}
		next = p.thresholds[idx]
	}
	return &models.PoolStatus{
		ProgressCents:   progressCents,
		Tier:            tier,
		TierName:        name,
		ThresholdsCents: p.thresholds,
		NextThreshold:   next,
	}
}

// Add advances the community spend counter and rederives the tier. Must run
// inside the same transaction as the opening it accounts for.
func (p *Pool) Add(ctx context.Context, q *storage.Queries, spentCents int64) (*models.PoolStatus, error) {
	current, err := p.Status(ctx, q)
	if err != nil {
		return nil, err
	}
	progress := current.ProgressCents + spentCents
	tier := p.recomputeTier(progress)
	if err := q.SetGlobal(ctx, "pool_progress_cents", strconv.FormatInt(progress, 10)); err != nil {
		return nil, err
	}
	if err := q.SetGlobal(ctx, "pool_tier", strconv.Itoa(tier)); err != nil {
		return nil, err
	}
	return p.status(progress, tier), nil
}
