// Package tokens — meter.go оборачивает платные операции в цикл
// «списать → выполнить → при сбое вернуть».
//
// Списываем ДО вызова: предварительная проверка баланса отдельным запросом
// давала бы гонку, при которой два конкурентных запроса тратят одни и те же
// токены дважды. Цена такого порядка — обязанность гарантированно вернуть
// токены, если операция не удалась.
package tokens

import (
	"context"
	"errors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"resumeai.app/backend/internal/common"
)

// Meter навешивает тарификацию на произвольную операцию.
type Meter struct {
	ledger *Ledger
}

// NewMeter создаёт обёртку тарификации поверх леджера.
func NewMeter(ledger *Ledger) *Meter {
	return &Meter{ledger: ledger}
}

// Operation — тарифицируемая операция. Обычно это сетевой вызов AI-модели,
// поэтому никакие блокировки на время её выполнения не держатся.
type Operation[T any] func(ctx context.Context) (T, error)

// Metered выполняет op как платную операцию стоимостью cost токенов.
//
//  1. Списывает cost со счёта (kind=usage). При нехватке токенов или
//     недоступном хранилище op вообще не вызывается — чужие ресурсы
//     не тратим впустую.
//  2. Вызывает op.
//  3. Успех — списание остаётся, результат наружу.
//  4. Сбой — компенсирующее начисление (kind=refund) и исходная ошибка
//     наружу. Если начисление не прошло, возврат встаёт в очередь для
//     планировщика; если не удалось даже это — наружу RefundFailedError.
func Metered[T any](ctx context.Context, m *Meter, userID uuid.UUID, cost int64, description string, meta Metadata, op Operation[T]) (T, error) {
	var zero T

	if _, err := m.ledger.Debit(ctx, userID, cost, KindUsage, description, meta); err != nil {
		return zero, err
	}

	result, opErr := op(ctx)
	if opErr == nil {
		return result, nil
	}

	// Возврат обязан пройти, даже если вызывающего уже отменили:
	// токены списаны, бросить их нельзя
	refundCtx := context.WithoutCancel(ctx)

	_, refundErr := m.ledger.Credit(refundCtx, userID, cost, KindRefund, "Возврат: "+description, meta)
	if refundErr == nil {
		log.WithFields(log.Fields{
			"user_id": userID,
			"cost":    cost,
			"op":      description,
		}).WithError(opErr).Warn("Платная операция не удалась, токены возвращены")
		return zero, opErr
	}

	queueErr := m.ledger.store.EnqueueRefund(refundCtx, &PendingRefund{
		UserID:      userID,
		Amount:      cost,
		Description: "Возврат: " + description,
		Metadata:    meta,
	})
	if queueErr == nil {
		log.WithFields(log.Fields{
			"user_id": userID,
			"cost":    cost,
			"op":      description,
		}).WithError(refundErr).Error("Возврат не прошёл, поставлен в очередь на повтор")
		return zero, opErr
	}

	// Худший случай: токены списаны, а возврат не зафиксирован нигде.
	// Молчать нельзя — отдаём отдельную ошибку для алертинга.
	failure := &common.RefundFailedError{
		OpErr:     opErr,
		RefundErr: errors.Join(refundErr, queueErr),
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"cost":    cost,
		"op":      description,
	}).WithError(failure).Error("ТОКЕНЫ ПОД УГРОЗОЙ: возврат не записан и не поставлен в очередь")
	return zero, failure
}
