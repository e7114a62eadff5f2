package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gemcase-backend/internal/models"
)

// ErrNotFound is returned by lookups that matched no row.
var ErrNotFound = errors.New("not found")

const accountColumns = `id, steam_id, COALESCE(display_name,''), COALESCE(avatar,''),
	created_at, COALESCE(last_login_at,''), gems_cents, streak_day,
	COALESCE(last_streak_claim,''), total_opens, is_admin,
	COALESCE(server_seed,''), COALESCE(server_seed_hash,''), nonce,
	daily_earned_cents, COALESCE(daily_earned_date,'')`

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	var isAdmin int
	err := row.Scan(&a.ID, &a.SteamID, &a.DisplayName, &a.Avatar,
		&a.CreatedAt, &a.LastLoginAt, &a.GemsCents, &a.StreakDay,
		&a.LastStreakClaim, &a.TotalOpens, &isAdmin,
		&a.ServerSeed, &a.ServerSeedHash, &a.Nonce,
		&a.DailyEarnedCents, &a.DailyEarnedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.IsAdmin = isAdmin != 0
	return &a, nil
}

func (q *Queries) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	return scanAccount(q.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id=?`, id))
}

func (q *Queries) GetAccountBySteamID(ctx context.Context, steamID string) (*models.Account, error) {
	return scanAccount(q.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE steam_id=?`, steamID))
}

// CreateAccount inserts a new account with its first committed seed and the
// starting balance. Called on first login.
func (q *Queries) CreateAccount(ctx context.Context, steamID, displayName, avatar string, startingCents int64, seed, seedHash string, now time.Time) (*models.Account, error) {
	iso := models.ISOTime(now)
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO accounts(steam_id, display_name, avatar, created_at, last_login_at,
			gems_cents, server_seed, server_seed_hash, nonce)
		VALUES(?,?,?,?,?,?,?,?,0)`,
		steamID, displayName, avatar, iso, iso, startingCents, seed, seedHash)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create account id: %w", err)
	}
	return q.GetAccount(ctx, id)
}

// TouchLogin refreshes profile fields on a returning login.
func (q *Queries) TouchLogin(ctx context.Context, id int64, displayName, avatar string, now time.Time) error {
	_, err := q.q.ExecContext(ctx,
		`UPDATE accounts SET display_name=?, avatar=?, last_login_at=? WHERE id=?`,
		displayName, avatar, models.ISOTime(now), id)
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	return nil
}

// RotateSeed atomically replaces the committed seed and resets the nonce.
// Called in the same transaction that finalizes the opening that consumed the
// previous seed.
func (q *Queries) RotateSeed(ctx context.Context, id int64, seed, seedHash string) error {
	_, err := q.q.ExecContext(ctx,
		`UPDATE accounts SET server_seed=?, server_seed_hash=?, nonce=0 WHERE id=?`,
		seed, seedHash, id)
	if err != nil {
		return fmt.Errorf("rotate seed: %w", err)
	}
	return nil
}

// SetBalance writes the computed balance. The caller is responsible for the
// balance >= 0 precondition; intermediate arithmetic never reaches the store.
func (q *Queries) SetBalance(ctx context.Context, id, gemsCents int64) error {
	_, err := q.q.ExecContext(ctx, `UPDATE accounts SET gems_cents=? WHERE id=?`, gemsCents, id)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

// ApplyOpening records the account-side effects of one opening: new balance,
// lifetime open count, and the daily earnings counter advanced by exactly the
// credited amount for the given date key.
func (q *Queries) ApplyOpening(ctx context.Context, id, newBalance, creditedCents int64, dateKey string) error {
	_, err := q.q.ExecContext(ctx, `
		UPDATE accounts SET gems_cents=?, total_opens=total_opens+1,
			daily_earned_cents=CASE WHEN daily_earned_date=? THEN daily_earned_cents+? ELSE ? END,
			daily_earned_date=?
		WHERE id=?`,
		newBalance, dateKey, creditedCents, creditedCents, dateKey, id)
	if err != nil {
		return fmt.Errorf("apply opening to account: %w", err)
	}
	return nil
}

// SetStreak records a successful streak claim.
func (q *Queries) SetStreak(ctx context.Context, id, newBalance int64, day int, dateKey string) error {
	_, err := q.q.ExecContext(ctx,
		`UPDATE accounts SET gems_cents=?, streak_day=?, last_streak_claim=? WHERE id=?`,
		newBalance, day, dateKey, id)
	if err != nil {
		return fmt.Errorf("set streak: %w", err)
	}
	return nil
}

// GetMastery returns the mastery record, or a zero-valued one if none exists.
func (q *Queries) GetMastery(ctx context.Context, userID, caseID int64) (*models.MasteryRecord, error) {
	var m models.MasteryRecord
	err := q.q.QueryRowContext(ctx,
		`SELECT user_id, case_id, xp, level, updated_at FROM mastery WHERE user_id=? AND case_id=?`,
		userID, caseID).Scan(&m.UserID, &m.CaseID, &m.XP, &m.Level, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.MasteryRecord{UserID: userID, CaseID: caseID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mastery: %w", err)
	}
	return &m, nil
}

// UpsertMastery writes the advanced mastery state for one opening.
func (q *Queries) UpsertMastery(ctx context.Context, userID, caseID, xp int64, level int, now time.Time) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO mastery(user_id, case_id, xp, level, updated_at) VALUES(?,?,?,?,?)
		ON CONFLICT(user_id, case_id) DO UPDATE SET xp=excluded.xp, level=excluded.level, updated_at=excluded.updated_at`,
		userID, caseID, xp, level, models.ISOTime(now))
	if err != nil {
		return fmt.Errorf("upsert mastery: %w", err)
	}
	return nil
}
