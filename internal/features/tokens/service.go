// Package tokens — service.go содержит бизнес-логику леджера.
// Валидация сумм, ленивое создание счёта, история транзакций,
// проведение отложенных возвратов.
package tokens

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"resumeai.app/backend/internal/common"
)

// Сколько возвратов из очереди обрабатываем за один проход планировщика.
const refundBatchSize = 50

// Ledger — единственный владелец баланса пользователя.
// Баланс меняется только через Credit/Debit, история только дописывается.
type Ledger struct {
	store Store
	grant int64 // стартовое начисление при создании счёта
}

// NewLedger создаёт леджер поверх хранилища.
// grant — сколько токенов получает новый пользователь при первом обращении.
func NewLedger(store Store, grant int64) *Ledger {
	return &Ledger{store: store, grant: grant}
}

// GetBalance возвращает текущий баланс пользователя.
// Если счёта ещё нет — создаёт его со стартовым начислением.
func (l *Ledger) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	balance, created, err := l.store.EnsureBalance(ctx, userID, l.grant, "Бесплатные токены при регистрации")
	if err != nil {
		return 0, err
	}
	if created {
		log.WithFields(log.Fields{
			"user_id": userID,
			"grant":   l.grant,
		}).Info("Создан счёт токенов")
	}
	return balance, nil
}

// Credit начисляет токены пользователю и возвращает новый баланс.
// Используется для покупок, реферальных бонусов, подписок и возвратов.
func (l *Ledger) Credit(ctx context.Context, userID uuid.UUID, amount int64, kind Kind, description string, meta Metadata) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	if _, err := l.GetBalance(ctx, userID); err != nil {
		return 0, err
	}
	return l.store.ApplyCredit(ctx, userID, amount, kind, description, meta)
}

// Debit списывает токены и возвращает новый баланс.
// Если токенов не хватает — возвращает ErrInsufficientBalance,
// не меняя ни баланс, ни историю.
func (l *Ledger) Debit(ctx context.Context, userID uuid.UUID, amount int64, kind Kind, description string, meta Metadata) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	if _, err := l.GetBalance(ctx, userID); err != nil {
		return 0, err
	}
	return l.store.ApplyDebit(ctx, userID, amount, kind, description, meta)
}

// History возвращает страницу истории транзакций, новые первыми.
// Вторым значением отдаёт курсор для следующей страницы (0 — история кончилась).
// Выборка перезапускаемая: с тем же курсором всегда вернётся то же продолжение.
func (l *Ledger) History(ctx context.Context, userID uuid.UUID, limit int, beforeID int64) ([]*Transaction, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	txs, err := l.store.Transactions(ctx, userID, limit, beforeID)
	if err != nil {
		return nil, 0, err
	}
	var next int64
	if len(txs) == limit {
		next = txs[len(txs)-1].ID
	}
	return txs, next, nil
}

// ProcessPendingRefunds проводит отложенные возвраты из очереди.
// Вызывается планировщиком. Возвращает число успешно проведённых.
func (l *Ledger) ProcessPendingRefunds(ctx context.Context) (int, error) {
	pending, err := l.store.PendingRefunds(ctx, refundBatchSize)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, ref := range pending {
		_, err := l.Credit(ctx, ref.UserID, ref.Amount, KindRefund, ref.Description, ref.Metadata)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"refund_id": ref.ID,
				"user_id":   ref.UserID,
				"attempts":  ref.Attempts,
			}).Error("Отложенный возврат снова не прошёл")
			if err := l.store.BumpRefundAttempt(ctx, ref.ID); err != nil {
				log.WithError(err).Error("Не удалось обновить счётчик попыток возврата")
			}
			continue
		}
		if err := l.store.ResolveRefund(ctx, ref.ID); err != nil {
			// Возврат уже проведён; если его не убрать из очереди,
			// следующий проход начислит токены второй раз
			log.WithError(err).WithField("refund_id", ref.ID).
				Error("Возврат проведён, но не убран из очереди — требуется ручная сверка")
			continue
		}
		done++
	}

	if done > 0 {
		log.WithField("count", done).Info("Отложенные возвраты проведены")
	}
	return done, nil
}
