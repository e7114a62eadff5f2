package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gemcase-backend/internal/models"
)

// InsertOpening writes the immutable audit row for one opening. The row is
// never updated after this.
func (q *Queries) InsertOpening(ctx context.Context, rec *models.OpeningRecord) (int64, error) {
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO opens(user_id, case_id, item_id, spent_cents, earned_cents, created_at,
			server_seed_hash, server_seed, client_seed, nonce, rng_roll, modifiers_json)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.UserID, rec.CaseID, rec.ItemID, rec.SpentCents, rec.EarnedCents, rec.CreatedAt,
		rec.ServerSeedHash, rec.ServerSeed, rec.ClientSeed, rec.Nonce, rec.Roll, rec.ModifiersJSON)
	if err != nil {
		return 0, fmt.Errorf("insert opening: %w", err)
	}
	return res.LastInsertId()
}

// GetOpening loads an opening with the slug of its case for reporting.
func (q *Queries) GetOpening(ctx context.Context, id int64) (*models.OpeningRecord, string, error) {
	var rec models.OpeningRecord
	var slug string
	err := q.q.QueryRowContext(ctx, `
		SELECT o.id, o.user_id, o.case_id, o.item_id, o.spent_cents, o.earned_cents, o.created_at,
			o.server_seed_hash, o.server_seed, o.client_seed, o.nonce, o.rng_roll, o.modifiers_json,
			c.slug
		FROM opens o JOIN cases c ON c.id = o.case_id
		WHERE o.id=?`, id).
		Scan(&rec.ID, &rec.UserID, &rec.CaseID, &rec.ItemID, &rec.SpentCents, &rec.EarnedCents,
			&rec.CreatedAt, &rec.ServerSeedHash, &rec.ServerSeed, &rec.ClientSeed, &rec.Nonce,
			&rec.Roll, &rec.ModifiersJSON, &slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("get opening %d: %w", id, err)
	}
	return &rec, slug, nil
}

// InsertLedger appends one signed-amount ledger entry.
func (q *Queries) InsertLedger(ctx context.Context, userID int64, cause models.LedgerCause, amountCents int64, metaJSON string, now time.Time) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT INTO ledger(user_id, cause, amount_cents, meta_json, created_at) VALUES(?,?,?,?,?)`,
		userID, cause, amountCents, metaJSON, models.ISOTime(now))
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// InsertHolding adds a won item to the account's inventory.
func (q *Queries) InsertHolding(ctx context.Context, userID, itemID, openID int64, now time.Time) (int64, error) {
	res, err := q.q.ExecContext(ctx,
		`INSERT INTO inventory(user_id, item_id, open_id, obtained_at) VALUES(?,?,?,?)`,
		userID, itemID, openID, models.ISOTime(now))
	if err != nil {
		return 0, fmt.Errorf("insert holding: %w", err)
	}
	return res.LastInsertId()
}

// HoldingForSale is a holding joined with the indexed value needed to price a
// sale.
type HoldingForSale struct {
	ID         int64
	ItemID     int64
	ItemName   string
	PriceCents int64
	IsSold     bool
}

func (q *Queries) GetHoldingForSale(ctx context.Context, holdingID, userID int64) (*HoldingForSale, error) {
	var h HoldingForSale
	var sold int
	err := q.q.QueryRowContext(ctx, `
		SELECT inv.id, inv.item_id, i.name, i.price_cents, inv.is_sold
		FROM inventory inv JOIN items i ON i.id = inv.item_id
		WHERE inv.id=? AND inv.user_id=?`, holdingID, userID).
		Scan(&h.ID, &h.ItemID, &h.ItemName, &h.PriceCents, &sold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get holding %d: %w", holdingID, err)
	}
	h.IsSold = sold != 0
	return &h, nil
}

func (q *Queries) MarkHoldingSold(ctx context.Context, holdingID, soldForCents int64, now time.Time) error {
	_, err := q.q.ExecContext(ctx,
		`UPDATE inventory SET is_sold=1, sold_at=?, sold_for_cents=? WHERE id=?`,
		models.ISOTime(now), soldForCents, holdingID)
	if err != nil {
		return fmt.Errorf("mark holding sold: %w", err)
	}
	return nil
}

// InventoryItem is one row of the inventory listing.
type InventoryItem struct {
	Holding models.Holding `json:"holding"`
	Item    models.Item    `json:"item"`
}

func (q *Queries) ListInventory(ctx context.Context, userID int64) ([]InventoryItem, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT inv.id, inv.item_id, COALESCE(inv.open_id,0), inv.obtained_at, inv.is_sold,
			COALESCE(inv.sold_at,''), COALESCE(inv.sold_for_cents,0),
			i.name, i.rarity, COALESCE(i.image_url,''), i.price_cents
		FROM inventory inv JOIN items i ON i.id = inv.item_id
		WHERE inv.user_id=? ORDER BY inv.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var out []InventoryItem
	for rows.Next() {
		var it InventoryItem
		var sold int
		it.Holding.UserID = userID
		if err := rows.Scan(&it.Holding.ID, &it.Holding.ItemID, &it.Holding.OpenID,
			&it.Holding.ObtainedAt, &sold, &it.Holding.SoldAt, &it.Holding.SoldFor,
			&it.Item.Name, &it.Item.Rarity, &it.Item.ImageURL, &it.Item.PriceCents); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		it.Holding.IsSold = sold != 0
		it.Item.ID = it.Holding.ItemID
		out = append(out, it)
	}
	return out, rows.Err()
}

// LeaderboardRow is a read-only ranking entry.
type LeaderboardRow struct {
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
	TotalOpens  int64  `json:"total_opens"`
	SpentCents  int64  `json:"spent_cents"`
}

// Leaderboard lists the top accounts by lifetime spend from the ledger.
func (q *Queries) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	rows, err := q.q.QueryContext(ctx, `
		SELECT COALESCE(a.display_name,''), COALESCE(a.avatar,''), a.total_opens,
			COALESCE((SELECT -SUM(amount_cents) FROM ledger l WHERE l.user_id=a.id AND l.cause='open_spend'), 0)
		FROM accounts a
		ORDER BY a.total_opens DESC, a.id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.DisplayName, &r.Avatar, &r.TotalOpens, &r.SpentCents); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
