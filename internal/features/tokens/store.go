// Package tokens — store.go описывает контракт хранилища леджера.
// Реализации: Repository (PostgreSQL, боевая) и MemoryStore (тесты, локалка).
package tokens

import (
	"context"

	"github.com/google/uuid"
)

// Store — атомарные примитивы хранилища, на которых держится корректность
// леджера. Проверка «хватает ли токенов» и само списание обязаны быть одной
// атомарной операцией на уровне хранилища: леджер работает из нескольких
// процессов, и внутрипроцессный мьютекс здесь ничего не гарантирует.
type Store interface {
	// EnsureBalance создаёт счёт со стартовым начислением, если его ещё нет.
	// Повторные вызовы ничего не меняют. Возвращает текущий баланс и признак
	// того, что счёт был создан этим вызовом.
	EnsureBalance(ctx context.Context, userID uuid.UUID, grant int64, description string) (int64, bool, error)

	// ApplyCredit атомарно увеличивает баланс на amount (> 0) и дописывает
	// транзакцию с суммой +amount. Возвращает новый баланс.
	ApplyCredit(ctx context.Context, userID uuid.UUID, amount int64, kind Kind, description string, meta Metadata) (int64, error)

	// ApplyDebit атомарно проверяет balance >= amount и уменьшает баланс,
	// дописывая транзакцию с суммой -amount. Если токенов не хватает —
	// возвращает common.ErrInsufficientBalance, не меняя НИЧЕГО.
	ApplyDebit(ctx context.Context, userID uuid.UUID, amount int64, kind Kind, description string, meta Metadata) (int64, error)

	// Transactions возвращает до limit транзакций пользователя, новые первыми.
	// beforeID — курсор: отдавать только транзакции с id < beforeID (0 — с начала).
	Transactions(ctx context.Context, userID uuid.UUID, limit int, beforeID int64) ([]*Transaction, error)

	// EnqueueRefund кладёт несостоявшийся возврат в очередь на повтор.
	EnqueueRefund(ctx context.Context, r *PendingRefund) error

	// PendingRefunds возвращает до limit возвратов из очереди, старые первыми.
	PendingRefunds(ctx context.Context, limit int) ([]*PendingRefund, error)

	// ResolveRefund убирает проведённый возврат из очереди.
	ResolveRefund(ctx context.Context, id int64) error

	// BumpRefundAttempt увеличивает счётчик неудачных попыток возврата.
	BumpRefundAttempt(ctx context.Context, id int64) error
}
