// Package users — service.go содержит бизнес-логику аккаунтов.
// Регистрация с bcrypt-хешированием пароля, стартовое начисление токенов,
// реферальные бонусы. Выдача JWT и OAuth живут в отдельном шлюзе.
package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"resumeai.app/backend/internal/common"
	"resumeai.app/backend/internal/features/tokens"
)

// Service управляет аккаунтами пользователей.
type Service struct {
	repo          Store
	ledger        *tokens.Ledger
	referralBonus int64
}

// NewService создаёт сервис аккаунтов.
func NewService(repo Store, ledger *tokens.Ledger, referralBonus int64) *Service {
	return &Service{repo: repo, ledger: ledger, referralBonus: referralBonus}
}

// Register создаёт пользователя, материализует счёт токенов со стартовым
// начислением и, если указан чужой реферальный код, начисляет бонус
// пригласившему.
func (s *Service) Register(ctx context.Context, name, email, password, referredBy string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("email и пароль обязательны")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		ReferralCode: newReferralCode(),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	// Создаём счёт сразу — стартовое начисление попадает в историю
	// транзакцией reward
	if _, err := s.ledger.GetBalance(ctx, u.ID); err != nil {
		// Аккаунт уже есть, счёт доберётся лениво при первом обращении
		log.WithError(err).WithField("user_id", u.ID).
			Warn("Счёт токенов не создан при регистрации")
	}

	if referredBy != "" {
		s.creditReferrer(ctx, u, referredBy)
	}

	log.WithFields(log.Fields{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("Пользователь зарегистрирован")
	return u, nil
}

// creditReferrer начисляет бонус владельцу реферального кода.
// Любая проблема здесь не должна ломать регистрацию.
func (s *Service) creditReferrer(ctx context.Context, newUser *User, code string) {
	referrer, err := s.repo.GetByReferralCode(ctx, strings.TrimSpace(code))
	if err != nil {
		log.WithError(err).WithField("code", code).Warn("Реферальный код не найден")
		return
	}
	if referrer.ID == newUser.ID {
		return
	}
	_, err = s.ledger.Credit(ctx, referrer.ID, s.referralBonus, tokens.KindReferral,
		"Бонус за приглашённого пользователя",
		tokens.Metadata{tokens.MetaUserID: newUser.ID.String()},
	)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"referrer": referrer.ID,
			"invited":  newUser.ID,
		}).Error("Реферальный бонус не начислен")
	}
}

// Authenticate проверяет пару email/пароль и возвращает пользователя.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, common.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrWrongPassword
	}
	return u, nil
}

// GetByID возвращает пользователя по ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Deactivate отключает аккаунт, сохраняя его данные и историю токенов.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}

// newReferralCode возвращает короткий реферальный код — первые 8 символов UUID.
func newReferralCode() string {
	return uuid.New().String()[:8]
}
