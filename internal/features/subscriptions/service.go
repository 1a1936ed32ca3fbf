package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"resumeai.app/backend/internal/common"
	"resumeai.app/backend/internal/features/tokens"
)

// Service — оформление подписок и ежемесячное начисление токенов.
type Service struct {
	repo   Store
	ledger *tokens.Ledger
}

func NewService(repo Store, ledger *tokens.Ledger) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// Subscribe оформляет подписку на план. Токены первого месяца начисляются
// сразу, следующее начисление через месяц.
func (s *Service) Subscribe(ctx context.Context, userID uuid.UUID, plan Plan) (*Subscription, error) {
	if !plan.Valid() || plan == PlanFree {
		return nil, fmt.Errorf("недоступный для оформления план %q", plan)
	}
	if _, err := s.repo.GetActive(ctx, userID); err == nil {
		return nil, common.ErrSubscriptionExists
	} else if !errors.Is(err, common.ErrNoActiveSubscription) {
		return nil, err
	}

	sub := &Subscription{
		ID:             uuid.New(),
		UserID:         userID,
		Plan:           plan,
		TokensPerMonth: plan.TokensPerMonth(),
		NextGrantAt:    time.Now().AddDate(0, 1, 0),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	if _, err := s.ledger.Credit(ctx, userID, sub.TokensPerMonth, tokens.KindSubscription,
		fmt.Sprintf("Подписка %s: токены за первый месяц", plan), nil); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"plan":    plan,
		"tokens":  sub.TokensPerMonth,
	}).Info("Оформлена подписка")
	return sub, nil
}

// Current возвращает активную подписку либо ErrNoActiveSubscription.
func (s *Service) Current(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	return s.repo.GetActive(ctx, userID)
}

// Cancel отменяет подписку. Уже начисленные токены остаются у пользователя.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Cancel(ctx, userID); err != nil {
		return err
	}
	log.WithField("user_id", userID).Info("Подписка отменена")
	return nil
}

// GrantDueAllowances начисляет месячные токены по всем подпискам с
// наступившей датой. Вызывается планировщиком раз в сутки.
// Возвращает число обработанных подписок.
func (s *Service) GrantDueAllowances(ctx context.Context) (int, error) {
	due, err := s.repo.Due(ctx, time.Now(), 500)
	if err != nil {
		return 0, err
	}

	granted := 0
	for _, sub := range due {
		// сначала сдвигаем дату: двойное начисление хуже пропуска
		if err := s.repo.Advance(ctx, sub.ID, sub.NextGrantAt.AddDate(0, 1, 0)); err != nil {
			log.WithError(err).WithField("subscription_id", sub.ID).
				Error("Не удалось сдвинуть дату начисления, подписка пропущена")
			continue
		}
		if _, err := s.ledger.Credit(ctx, sub.UserID, sub.TokensPerMonth, tokens.KindSubscription,
			fmt.Sprintf("Подписка %s: ежемесячные токены", sub.Plan), nil); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"subscription_id": sub.ID,
				"user_id":         sub.UserID,
			}).Error("Месячные токены не начислены")
			continue
		}
		granted++
	}

	if granted > 0 {
		log.WithField("granted", granted).Info("Начислены месячные токены по подпискам")
	}
	return granted, nil
}
