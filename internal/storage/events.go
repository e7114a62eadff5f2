package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gemcase-backend/internal/models"
)

// ActiveEvent returns the newest event of the given type whose half-open
// window [start_at, end_at) contains now, or nil if none is active. This query
// is the authoritative duplicate-prevention gate for the scheduler.
func (q *Queries) ActiveEvent(ctx context.Context, typ models.EventType, now time.Time) (*models.GlobalEvent, error) {
	iso := models.ISOTime(now)
	var e models.GlobalEvent
	err := q.q.QueryRowContext(ctx, `
		SELECT id, type, start_at, end_at, payload_json
		FROM events WHERE type=? AND start_at<=? AND end_at>?
		ORDER BY id DESC LIMIT 1`, typ, iso, iso).
		Scan(&e.ID, &e.Type, &e.StartAt, &e.EndAt, &e.PayloadJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active event %s: %w", typ, err)
	}
	return &e, nil
}

// InsertEvent appends a new global event.
func (q *Queries) InsertEvent(ctx context.Context, typ models.EventType, start, end time.Time, payloadJSON string) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT INTO events(type, start_at, end_at, payload_json) VALUES(?,?,?,?)`,
		typ, models.ISOTime(start), models.ISOTime(end), payloadJSON)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", typ, err)
	}
	return nil
}

// GetGlobal reads one global_state value, returning fallback when absent.
func (q *Queries) GetGlobal(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := q.q.QueryRowContext(ctx, `SELECT value FROM global_state WHERE key=?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("get global %s: %w", key, err)
	}
	return value, nil
}

// SetGlobal upserts one global_state value.
func (q *Queries) SetGlobal(ctx context.Context, key, value string) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT INTO global_state(key, value) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("set global %s: %w", key, err)
	}
	return nil
}

// ListGiveaways returns active giveaways with their entry totals.
func (q *Queries) ListGiveaways(ctx context.Context) ([]models.Giveaway, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT g.id, g.title, COALESCE(g.description,''), g.tier_required, g.prize_text,
			g.starts_at, g.ends_at, g.status, g.created_at,
			(SELECT COALESCE(SUM(entries),0) FROM giveaway_entries ge WHERE ge.giveaway_id=g.id)
		FROM giveaways g WHERE g.status='active' ORDER BY g.ends_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list giveaways: %w", err)
	}
	defer rows.Close()

	var out []models.Giveaway
	for rows.Next() {
		var g models.Giveaway
		if err := rows.Scan(&g.ID, &g.Title, &g.Description, &g.TierRequired, &g.PrizeText,
			&g.StartsAt, &g.EndsAt, &g.Status, &g.CreatedAt, &g.TotalEntries); err != nil {
			return nil, fmt.Errorf("scan giveaway: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (q *Queries) GetGiveaway(ctx context.Context, id int64) (*models.Giveaway, error) {
	var g models.Giveaway
	err := q.q.QueryRowContext(ctx, `
		SELECT g.id, g.title, COALESCE(g.description,''), g.tier_required, g.prize_text,
			g.starts_at, g.ends_at, g.status, g.created_at,
			(SELECT COALESCE(SUM(entries),0) FROM giveaway_entries ge WHERE ge.giveaway_id=g.id)
		FROM giveaways g WHERE g.id=?`, id).
		Scan(&g.ID, &g.Title, &g.Description, &g.TierRequired, &g.PrizeText,
			&g.StartsAt, &g.EndsAt, &g.Status, &g.CreatedAt, &g.TotalEntries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get giveaway %d: %w", id, err)
	}
	return &g, nil
}

// AddGiveawayEntries accumulates entries for (giveaway, user).
func (q *Queries) AddGiveawayEntries(ctx context.Context, giveawayID, userID, entries int64, now time.Time) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO giveaway_entries(giveaway_id, user_id, entries, created_at) VALUES(?,?,?,?)
		ON CONFLICT(giveaway_id, user_id) DO UPDATE SET entries=entries+excluded.entries`,
		giveawayID, userID, entries, models.ISOTime(now))
	if err != nil {
		return fmt.Errorf("add giveaway entries: %w", err)
	}
	return nil
}

// InsertGiveaway creates a giveaway; used by seeding and admin tooling.
func (q *Queries) InsertGiveaway(ctx context.Context, g *models.Giveaway) (int64, error) {
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO giveaways(title, description, tier_required, prize_text, starts_at, ends_at, status, created_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		g.Title, g.Description, g.TierRequired, g.PrizeText, g.StartsAt, g.EndsAt, g.Status, g.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert giveaway: %w", err)
	}
	return res.LastInsertId()
}
