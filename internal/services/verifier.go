package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gemcase-backend/internal/fair"
	"gemcase-backend/internal/models"
	"gemcase-backend/internal/storage"
)

// Verify replays a stored opening from its audit row alone. The catalog rows
// and the persisted modifier snapshot are the only inputs; live event state is
// never consulted. The report never mutates anything, even on mismatch.
func (e *Engine) Verify(ctx context.Context, openID int64) (*models.VerificationReport, error) {
	q := e.store.Q()

	rec, slug, err := q.GetOpening(ctx, openID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, ErrOpeningNotFound
		}
		return nil, err
	}

	var snapshot models.ModifierSnapshot
	if rec.ModifiersJSON != "" {
		if err := json.Unmarshal([]byte(rec.ModifiersJSON), &snapshot); err != nil {
			return nil, fmt.Errorf("decode modifier snapshot for open %d: %w", openID, err)
		}
	}
	fingerprint := snapshot.Fingerprint
	if fingerprint == "" {
		// Rows written before the fingerprint was stored inline.
		fingerprint = fair.SnapshotDigest(&snapshot)
	}

	rows, err := q.GetCaseRows(ctx, rec.CaseID)
	if err != nil {
		return nil, err
	}
	if snapshot.Odds != nil {
		rows = fair.AdjustWeights(rows, snapshot.Odds.RareWeightMult)
	}
	totalWeight := fair.TotalWeight(rows)
	if totalWeight <= 0 {
		return nil, ErrCaseEmpty
	}

	message := fair.RollMessage(rec.ClientSeed, rec.Nonce, rec.CaseID, fingerprint)
	roll, digest := fair.Roll(rec.ServerSeed, message, totalWeight)
	selected := fair.Select(rows, roll)

	report := &models.VerificationReport{
		OpenID:       rec.ID,
		CaseSlug:     slug,
		StoredItem:   rec.ItemID,
		StoredRoll:   rec.Roll,
		ComputedRoll: roll,
		ComputedHMAC: digest,
		Fingerprint:  fingerprint,
	}
	if selected != nil {
		report.ComputedItem = selected.ItemID
	}
	report.Matches = fair.HashSeed(rec.ServerSeed) == rec.ServerSeedHash &&
		report.ComputedRoll == report.StoredRoll &&
		report.ComputedItem == report.StoredItem
	return report, nil
}
