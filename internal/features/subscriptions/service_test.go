package subscriptions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"resumeai.app/backend/internal/common"
	"resumeai.app/backend/internal/features/tokens"
)

// memStore хранит подписки в памяти.
type memStore struct {
	subs map[uuid.UUID]*Subscription // по id подписки
}

func newMemStore() *memStore {
	return &memStore{subs: make(map[uuid.UUID]*Subscription)}
}

func (m *memStore) Create(_ context.Context, sub *Subscription) error {
	sub.Active = true
	sub.StartedAt = time.Now()
	cp := *sub
	m.subs[sub.ID] = &cp
	return nil
}

func (m *memStore) GetActive(_ context.Context, userID uuid.UUID) (*Subscription, error) {
	for _, sub := range m.subs {
		if sub.UserID == userID && sub.Active {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, common.ErrNoActiveSubscription
}

func (m *memStore) Cancel(_ context.Context, userID uuid.UUID) error {
	for _, sub := range m.subs {
		if sub.UserID == userID && sub.Active {
			sub.Active = false
			now := time.Now()
			sub.CancelledAt = &now
			return nil
		}
	}
	return common.ErrNoActiveSubscription
}

func (m *memStore) Due(_ context.Context, now time.Time, limit int) ([]*Subscription, error) {
	var out []*Subscription
	for _, sub := range m.subs {
		if sub.Active && sub.TokensPerMonth > 0 && !sub.NextGrantAt.After(now) {
			cp := *sub
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) Advance(_ context.Context, subID uuid.UUID, next time.Time) error {
	sub, ok := m.subs[subID]
	if !ok {
		return common.ErrNoActiveSubscription
	}
	sub.NextGrantAt = next
	return nil
}

func newTestService() (*Service, *memStore, *tokens.Ledger) {
	store := newMemStore()
	ledger := tokens.NewLedger(tokens.NewMemoryStore(), 10)
	return NewService(store, ledger), store, ledger
}

func TestSubscribeCreditsFirstMonth(t *testing.T) {
	ctx := context.Background()
	svc, _, ledger := newTestService()
	userID := uuid.New()

	sub, err := svc.Subscribe(ctx, userID, PlanPro)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if sub.TokensPerMonth != 50 {
		t.Errorf("tokens_per_month = %d, ожидалось 50", sub.TokensPerMonth)
	}

	balance, _ := ledger.GetBalance(ctx, userID)
	if balance != 60 {
		t.Errorf("баланс = %d, ожидалось 60 (10 стартовых + 50 за месяц)", balance)
	}
}

func TestSubscribeTwiceRejected(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	userID := uuid.New()

	if _, err := svc.Subscribe(ctx, userID, PlanPro); err != nil {
		t.Fatalf("первое оформление: %v", err)
	}
	_, err := svc.Subscribe(ctx, userID, PlanPremium)
	if !errors.Is(err, common.ErrSubscriptionExists) {
		t.Errorf("ошибка = %v, ожидалась ErrSubscriptionExists", err)
	}
}

func TestSubscribeFreePlanRejected(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Subscribe(context.Background(), uuid.New(), PlanFree); err == nil {
		t.Error("план free нельзя оформить как подписку")
	}
}

func TestGrantDueAllowances(t *testing.T) {
	ctx := context.Background()
	svc, store, ledger := newTestService()
	userID := uuid.New()

	sub, err := svc.Subscribe(ctx, userID, PlanPremium)
	if err != nil {
		t.Fatalf("оформление: %v", err)
	}
	// месячное начисление наступило
	store.subs[sub.ID].NextGrantAt = time.Now().Add(-time.Hour)

	granted, err := svc.GrantDueAllowances(ctx)
	if err != nil {
		t.Fatalf("начисление: %v", err)
	}
	if granted != 1 {
		t.Errorf("обработано подписок: %d, ожидалась 1", granted)
	}

	balance, _ := ledger.GetBalance(ctx, userID)
	if balance != 310 {
		t.Errorf("баланс = %d, ожидалось 310 (10 + 150 + 150)", balance)
	}

	// дата сдвинута, повторный прогон ничего не начисляет
	granted, err = svc.GrantDueAllowances(ctx)
	if err != nil {
		t.Fatalf("повторное начисление: %v", err)
	}
	if granted != 0 {
		t.Errorf("повторный прогон обработал %d подписок, ожидалось 0", granted)
	}
}

func TestCancelKeepsGrantedTokens(t *testing.T) {
	ctx := context.Background()
	svc, _, ledger := newTestService()
	userID := uuid.New()

	if _, err := svc.Subscribe(ctx, userID, PlanPro); err != nil {
		t.Fatalf("оформление: %v", err)
	}
	if err := svc.Cancel(ctx, userID); err != nil {
		t.Fatalf("отмена: %v", err)
	}

	if _, err := svc.Current(ctx, userID); !errors.Is(err, common.ErrNoActiveSubscription) {
		t.Errorf("после отмены ожидалась ErrNoActiveSubscription, получено %v", err)
	}

	balance, _ := ledger.GetBalance(ctx, userID)
	if balance != 60 {
		t.Errorf("баланс = %d, ожидалось 60: начисленные токены остаются", balance)
	}

	// отменённая подписка не попадает в начисления
	granted, _ := svc.GrantDueAllowances(ctx)
	if granted != 0 {
		t.Errorf("отменённая подписка обработана в начислениях")
	}
}
