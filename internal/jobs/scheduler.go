// Package jobs — фоновые задачи по расписанию: повтор зависших возвратов
// токенов и ежемесячные начисления по подпискам.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"resumeai.app/backend/internal/config"
	"resumeai.app/backend/internal/features/subscriptions"
	"resumeai.app/backend/internal/features/tokens"
)

// Scheduler — обёртка над cron со всеми задачами приложения.
type Scheduler struct {
	cron          *cron.Cron
	ledger        *tokens.Ledger
	subscriptions *subscriptions.Service
}

func NewScheduler(ledger *tokens.Ledger, subs *subscriptions.Service) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		ledger:        ledger,
		subscriptions: subs,
	}
}

// Start регистрирует задачи и запускает планировщик.
func (s *Scheduler) Start(ctx context.Context, cfg *config.Config) error {
	// Возвраты, не прошедшие в момент сбоя платной операции.
	// Частый прогон: пользователь ждёт свои токены.
	_, err := s.cron.AddFunc(cfg.RefundRetrySchedule, func() {
		processed, err := s.ledger.ProcessPendingRefunds(ctx)
		if err != nil {
			log.WithError(err).Error("Прогон очереди возвратов завершился ошибкой")
			return
		}
		if processed > 0 {
			log.WithField("processed", processed).Info("Очередь возвратов обработана")
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(cfg.SubscriptionGrantSchedule, func() {
		if _, err := s.subscriptions.GrantDueAllowances(ctx); err != nil {
			log.WithError(err).Error("Начисление токенов по подпискам завершилось ошибкой")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Info("Планировщик фоновых задач запущен")
	return nil
}

// Stop останавливает планировщик и дожидается завершения текущих задач.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("Планировщик фоновых задач остановлен")
}
