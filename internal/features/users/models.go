// Package users управляет аккаунтами пользователей платформы.
// models.go описывает структуру записи пользователя.
package users

import (
	"time"

	"github.com/google/uuid"
)

// User представляет зарегистрированного пользователя.
// Пароль храним только как bcrypt-хеш. ReferralCode — короткий код,
// по которому пригласивший получает бонусные токены.
type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"` // Уникальный, в нижнем регистре
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	ReferralCode string    `db:"referral_code"` // 8 символов
	IsActive     bool      `db:"is_active"`     // Деактивированные аккаунты не удаляем — история токенов должна жить
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
