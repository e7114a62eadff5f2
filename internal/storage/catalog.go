package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gemcase-backend/internal/models"
)

func (q *Queries) GetCaseBySlug(ctx context.Context, slug string) (*models.Case, error) {
	var c models.Case
	var active int
	err := q.q.QueryRowContext(ctx, `
		SELECT id, slug, name, COALESCE(image_url,''), case_price_cents, key_price_cents, active
		FROM cases WHERE slug=? AND active=1`, slug).
		Scan(&c.ID, &c.Slug, &c.Name, &c.ImageURL, &c.CasePriceCents, &c.KeyPriceCents, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get case %s: %w", slug, err)
	}
	c.Active = active != 0
	return &c, nil
}

func (q *Queries) ListActiveCases(ctx context.Context) ([]models.Case, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, slug, name, COALESCE(image_url,''), case_price_cents, key_price_cents
		FROM cases WHERE active=1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []models.Case
	for rows.Next() {
		c := models.Case{Active: true}
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.ImageURL, &c.CasePriceCents, &c.KeyPriceCents); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// GetCaseRows loads the weighted outcome rows of a case in a fixed, stable
// order (item id), the order the cumulative selection walk depends on.
func (q *Queries) GetCaseRows(ctx context.Context, caseID int64) ([]models.CaseRow, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT ci.weight, i.id, i.name, i.rarity, COALESCE(i.image_url,''), i.price_cents
		FROM case_items ci
		JOIN items i ON i.id = ci.item_id
		WHERE ci.case_id=?
		ORDER BY i.id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("get case rows: %w", err)
	}
	defer rows.Close()

	var out []models.CaseRow
	for rows.Next() {
		var r models.CaseRow
		if err := rows.Scan(&r.Weight, &r.ItemID, &r.Name, &r.Rarity, &r.ImageURL, &r.PriceCents); err != nil {
			return nil, fmt.Errorf("scan case row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertCase inserts or refreshes a catalog case by slug; used by the seeder.
func (q *Queries) UpsertCase(ctx context.Context, c *models.Case) (int64, error) {
	active := 0
	if c.Active {
		active = 1
	}
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO cases(slug, name, image_url, case_price_cents, key_price_cents, active)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(slug) DO UPDATE SET name=excluded.name, image_url=excluded.image_url,
			case_price_cents=excluded.case_price_cents, key_price_cents=excluded.key_price_cents,
			active=excluded.active`,
		c.Slug, c.Name, c.ImageURL, c.CasePriceCents, c.KeyPriceCents, active)
	if err != nil {
		return 0, fmt.Errorf("upsert case %s: %w", c.Slug, err)
	}
	var id int64
	if err := q.q.QueryRowContext(ctx, `SELECT id FROM cases WHERE slug=?`, c.Slug).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert case id %s: %w", c.Slug, err)
	}
	return id, nil
}

// UpsertItem inserts or refreshes a catalog item keyed by (name, rarity) and
// returns its id, so re-running the seeder never duplicates items.
func (q *Queries) UpsertItem(ctx context.Context, item *models.Item) (int64, error) {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO items(name, rarity, image_url, price_cents) VALUES(?,?,?,?)
		ON CONFLICT(name, rarity) DO UPDATE SET image_url=excluded.image_url,
			price_cents=excluded.price_cents`,
		item.Name, item.Rarity, item.ImageURL, item.PriceCents)
	if err != nil {
		return 0, fmt.Errorf("upsert item %s: %w", item.Name, err)
	}
	var id int64
	err = q.q.QueryRowContext(ctx, `SELECT id FROM items WHERE name=? AND rarity=?`,
		item.Name, item.Rarity).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert item id %s: %w", item.Name, err)
	}
	return id, nil
}

// ClearCaseItems drops all outcome rows of a case before the seeder relinks
// them, so items removed from the catalog file do not linger.
func (q *Queries) ClearCaseItems(ctx context.Context, caseID int64) error {
	if _, err := q.q.ExecContext(ctx, `DELETE FROM case_items WHERE case_id=?`, caseID); err != nil {
		return fmt.Errorf("clear case items: %w", err)
	}
	return nil
}

// LinkCaseItem writes one weighted case outcome row; used by the seeder.
func (q *Queries) LinkCaseItem(ctx context.Context, caseID, itemID, weight int64) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO case_items(case_id, item_id, weight) VALUES(?,?,?)
		ON CONFLICT(case_id, item_id) DO UPDATE SET weight=excluded.weight`,
		caseID, itemID, weight)
	if err != nil {
		return fmt.Errorf("link case item: %w", err)
	}
	return nil
}
