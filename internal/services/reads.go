package services

import (
	"context"
	"time"

	"gemcase-backend/internal/fair"
	"gemcase-backend/internal/models"
	"gemcase-backend/internal/storage"
)

// CaseDetail is a case with its weighted outcome table and the odds each row
// carries right now, events included.
type CaseDetail struct {
	Case  *models.Case         `json:"case"`
	Items []CaseDetailItem     `json:"items"`
	Boost *models.OddsModifier `json:"boost,omitempty"`
}

type CaseDetailItem struct {
	models.CaseRow
	Odds float64 `json:"odds"`
}

func (e *Engine) Cases(ctx context.Context) ([]models.Case, error) {
	return e.store.Q().ListActiveCases(ctx)
}

// CaseDetail resolves a case with live odds. The same weight adjustment the
// opener applies is shown here so displayed odds always match rolled odds.
func (e *Engine) CaseDetail(ctx context.Context, slug string, now time.Time) (*CaseDetail, error) {
	q := e.store.Q()
	c, err := q.GetCaseBySlug(ctx, slug)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	rows, err := q.GetCaseRows(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	odds, _, err := activeModifiers(ctx, q, c.ID, now)
	if err != nil {
		return nil, err
	}
	if odds != nil {
		rows = fair.AdjustWeights(rows, odds.RareWeightMult)
	}
	total := float64(0)
	for _, r := range rows {
		total += float64(r.Weight)
	}

	detail := &CaseDetail{Case: c, Boost: odds}
	for _, r := range rows {
		item := CaseDetailItem{CaseRow: r}
		if total > 0 {
			item.Odds = float64(r.Weight) / total
		}
		detail.Items = append(detail.Items, item)
	}
	return detail, nil
}

func (e *Engine) Inventory(ctx context.Context, accountID int64) ([]storage.InventoryItem, error) {
	return e.store.Q().ListInventory(ctx, accountID)
}

func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]storage.LeaderboardRow, error) {
	return e.store.Q().Leaderboard(ctx, limit)
}

func (e *Engine) Giveaways(ctx context.Context) ([]models.Giveaway, error) {
	return e.store.Q().ListGiveaways(ctx)
}

func (e *Engine) PoolStatus(ctx context.Context) (*models.PoolStatus, error) {
	return e.pool.Status(ctx, e.store.Q())
}
