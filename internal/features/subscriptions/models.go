// Package subscriptions — платные планы с ежемесячным начислением токенов.
package subscriptions

import (
	"time"

	"github.com/google/uuid"
)

// Plan — тарифный план.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

// TokensPerMonth — месячное начисление токенов по плану.
func (p Plan) TokensPerMonth() int64 {
	switch p {
	case PlanPro:
		return 50
	case PlanPremium:
		return 150
	default:
		return 0
	}
}

// Valid сообщает, известен ли план.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanPremium:
		return true
	}
	return false
}

// Subscription — активная подписка пользователя. У пользователя может быть
// не больше одной активной подписки.
type Subscription struct {
	ID             uuid.UUID  `db:"id"`
	UserID         uuid.UUID  `db:"user_id"`
	Plan           Plan       `db:"plan"`
	TokensPerMonth int64      `db:"tokens_per_month"`
	Active         bool       `db:"active"`
	NextGrantAt    time.Time  `db:"next_grant_at"`
	StartedAt      time.Time  `db:"started_at"`
	CancelledAt    *time.Time `db:"cancelled_at"`
}
