package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"resumeai.app/backend/internal/common"
)

// Store — персистентность подписок.
type Store interface {
	Create(ctx context.Context, sub *Subscription) error
	GetActive(ctx context.Context, userID uuid.UUID) (*Subscription, error)
	Cancel(ctx context.Context, userID uuid.UUID) error
	Due(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
	Advance(ctx context.Context, subID uuid.UUID, next time.Time) error
}

// Repository — доступ к таблице subscriptions.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, sub *Subscription) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (id, user_id, plan, tokens_per_month, active, next_grant_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		RETURNING started_at`,
		sub.ID, sub.UserID, sub.Plan, sub.TokensPerMonth, sub.NextGrantAt).
		Scan(&sub.StartedAt)
	if err != nil {
		return fmt.Errorf("%w: создание подписки: %v", common.ErrStorageUnavailable, err)
	}
	sub.Active = true
	return nil
}

// GetActive возвращает активную подписку пользователя.
func (r *Repository) GetActive(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	var sub Subscription
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, plan, tokens_per_month, active, next_grant_at, started_at, cancelled_at
		FROM subscriptions WHERE user_id = $1 AND active`,
		userID).
		Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.TokensPerMonth, &sub.Active,
			&sub.NextGrantAt, &sub.StartedAt, &sub.CancelledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNoActiveSubscription
	}
	if err != nil {
		return nil, fmt.Errorf("%w: чтение подписки: %v", common.ErrStorageUnavailable, err)
	}
	return &sub, nil
}

// Cancel деактивирует подписку пользователя.
func (r *Repository) Cancel(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriptions SET active = FALSE, cancelled_at = NOW()
		WHERE user_id = $1 AND active`,
		userID)
	if err != nil {
		return fmt.Errorf("%w: отмена подписки: %v", common.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNoActiveSubscription
	}
	return nil
}

// Due возвращает подписки, по которым пора начислить месячные токены.
func (r *Repository) Due(ctx context.Context, now time.Time, limit int) ([]*Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, plan, tokens_per_month, active, next_grant_at, started_at, cancelled_at
		FROM subscriptions
		WHERE active AND next_grant_at <= $1 AND tokens_per_month > 0
		ORDER BY next_grant_at
		LIMIT $2`,
		now, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: выборка подписок к начислению: %v", common.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []*Subscription
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.TokensPerMonth, &sub.Active,
			&sub.NextGrantAt, &sub.StartedAt, &sub.CancelledAt); err != nil {
			return nil, fmt.Errorf("%w: выборка подписок к начислению: %v", common.ErrStorageUnavailable, err)
		}
		out = append(out, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: выборка подписок к начислению: %v", common.ErrStorageUnavailable, err)
	}
	return out, nil
}

// Advance сдвигает дату следующего начисления. Сдвиг происходит ДО записи
// транзакции начисления: повторное начисление хуже пропущенного, пропуск
// поймает следующий прогон планировщика после ручного отката даты.
func (r *Repository) Advance(ctx context.Context, subID uuid.UUID, next time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE subscriptions SET next_grant_at = $2 WHERE id = $1`,
		subID, next)
	if err != nil {
		return fmt.Errorf("%w: сдвиг даты начисления: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}
