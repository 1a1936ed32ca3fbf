// Package tokens — repository.go выполняет все операции с таблицами
// token_balances, token_transactions и refund_queue в PostgreSQL.
// Все денежные операции выполняются в транзакциях БД для целостности данных.
//
// Ключевой момент: списание — это ОДИН условный UPDATE
// (WHERE balance >= amount), поэтому два конкурентных списания не могут
// увести счёт в минус даже из разных процессов.
package tokens

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"resumeai.app/backend/internal/common"
)

// Repository предоставляет методы для работы с балансами и транзакциями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий леджера.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// интерфейс обязаны реализовать обе реализации хранилища
var _ Store = (*Repository)(nil)

// EnsureBalance создаёт счёт со стартовым начислением, если его ещё нет.
// INSERT ... ON CONFLICT DO NOTHING RETURNING возвращает строку только если
// вставка реально произошла — так отличаем первый вызов от повторного без
// гонки между проверкой и созданием.
func (r *Repository) EnsureBalance(ctx context.Context, userID uuid.UUID, grant int64, description string) (int64, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("%w: начало транзакции: %v", common.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		INSERT INTO token_balances (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING balance
	`, userID, grant).Scan(&balance)

	created := true
	if errors.Is(err, pgx.ErrNoRows) {
		// Счёт уже существует — просто читаем баланс
		created = false
		err = tx.QueryRow(ctx,
			`SELECT balance FROM token_balances WHERE user_id = $1`, userID,
		).Scan(&balance)
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: создание счёта: %v", common.ErrStorageUnavailable, err)
	}

	// Стартовое начисление документируем транзакцией, чтобы баланс всегда
	// сходился с суммой истории
	if created && grant > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO token_transactions (user_id, kind, amount, description, metadata)
			VALUES ($1, $2, $3, $4, $5)
		`, userID, KindReward, grant, description, Metadata{MetaOperation: "signup_grant"})
		if err != nil {
			return 0, false, fmt.Errorf("%w: запись стартовой транзакции: %v", common.ErrStorageUnavailable, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("%w: фиксация транзакции: %v", common.ErrStorageUnavailable, err)
	}
	return balance, created, nil
}

// ApplyCredit начисляет токены и дописывает транзакцию в историю.
func (r *Repository) ApplyCredit(ctx context.Context, userID uuid.UUID, amount int64, kind Kind, description string, meta Metadata) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: начало транзакции: %v", common.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		UPDATE token_balances
		SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance
	`, userID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, common.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: начисление: %v", common.ErrStorageUnavailable, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO token_transactions (user_id, kind, amount, description, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, kind, amount, description, meta)
	if err != nil {
		return 0, fmt.Errorf("%w: запись транзакции: %v", common.ErrStorageUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: фиксация транзакции: %v", common.ErrStorageUnavailable, err)
	}
	return balance, nil
}

// ApplyDebit списывает токены, если их хватает.
// Проверка и списание — один UPDATE с условием balance >= amount:
// при конкурентных списаниях PostgreSQL пропустит только те,
// для которых условие выполняется после предыдущих.
func (r *Repository) ApplyDebit(ctx context.Context, userID uuid.UUID, amount int64, kind Kind, description string, meta Metadata) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: начало транзакции: %v", common.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		UPDATE token_balances
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`, userID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Либо счёта нет, либо токенов не хватило — различаем
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM token_balances WHERE user_id = $1)`, userID,
		).Scan(&exists); err != nil {
			return 0, fmt.Errorf("%w: проверка счёта: %v", common.ErrStorageUnavailable, err)
		}
		if !exists {
			return 0, common.ErrUserNotFound
		}
		return 0, common.ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("%w: списание: %v", common.ErrStorageUnavailable, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO token_transactions (user_id, kind, amount, description, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, kind, -amount, description, meta)
	if err != nil {
		return 0, fmt.Errorf("%w: запись транзакции: %v", common.ErrStorageUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: фиксация транзакции: %v", common.ErrStorageUnavailable, err)
	}
	return balance, nil
}

// Transactions возвращает до limit транзакций пользователя, новые первыми.
// beforeID — курсор для постраничной выборки (0 — с самого начала).
func (r *Repository) Transactions(ctx context.Context, userID uuid.UUID, limit int, beforeID int64) ([]*Transaction, error) {
	query := `
		SELECT id, user_id, kind, amount, description, metadata, created_at
		FROM token_transactions
		WHERE user_id = $1 AND ($3 = 0 OR id < $3)
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit, beforeID)
	if err != nil {
		return nil, fmt.Errorf("%w: выборка транзакций: %v", common.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Kind, &t.Amount,
			&t.Description, &t.Metadata, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}

// EnqueueRefund кладёт несостоявшийся возврат в очередь на повтор.
func (r *Repository) EnqueueRefund(ctx context.Context, ref *PendingRefund) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refund_queue (user_id, amount, description, metadata)
		VALUES ($1, $2, $3, $4)
	`, ref.UserID, ref.Amount, ref.Description, ref.Metadata)
	if err != nil {
		return fmt.Errorf("%w: запись в очередь возвратов: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

// PendingRefunds возвращает возвраты из очереди, старые первыми.
func (r *Repository) PendingRefunds(ctx context.Context, limit int) ([]*PendingRefund, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, amount, description, metadata, attempts, created_at
		FROM refund_queue
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: выборка очереди возвратов: %v", common.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var refunds []*PendingRefund
	for rows.Next() {
		var ref PendingRefund
		err := rows.Scan(
			&ref.ID, &ref.UserID, &ref.Amount,
			&ref.Description, &ref.Metadata, &ref.Attempts, &ref.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования возврата: %w", err)
		}
		refunds = append(refunds, &ref)
	}
	return refunds, rows.Err()
}

// ResolveRefund убирает проведённый возврат из очереди.
func (r *Repository) ResolveRefund(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refund_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: удаление возврата из очереди: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

// BumpRefundAttempt увеличивает счётчик неудачных попыток возврата.
func (r *Repository) BumpRefundAttempt(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE refund_queue SET attempts = attempts + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: обновление счётчика попыток: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}
