// Package tokens — memory.go содержит хранилище леджера в памяти.
// Используется в тестах и для локальной разработки без PostgreSQL.
// Семантика полностью повторяет Repository, атомарность обеспечивает мьютекс.
package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"resumeai.app/backend/internal/common"
)

// MemoryStore — реализация Store в памяти.
type MemoryStore struct {
	mu sync.Mutex

	balances map[uuid.UUID]*Balance
	txs      []*Transaction
	refunds  map[int64]*PendingRefund

	nextBalanceID int64
	nextTxID      int64
	nextRefundID  int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances: make(map[uuid.UUID]*Balance),
		refunds:  make(map[int64]*PendingRefund),
	}
}

// Как и боевое хранилище, уважаем отмену контекста: вызов с отменённым
// контекстом не должен менять состояние.
func (s *MemoryStore) ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return common.ErrStorageUnavailable
	}
	return nil
}

func (s *MemoryStore) appendTx(userID uuid.UUID, kind Kind, amount int64, description string, meta Metadata) {
	s.nextTxID++
	s.txs = append(s.txs, &Transaction{
		ID:          s.nextTxID,
		UserID:      userID,
		Kind:        kind,
		Amount:      amount,
		Description: description,
		Metadata:    meta,
		CreatedAt:   time.Now().UTC(),
	})
}

func (s *MemoryStore) EnsureBalance(ctx context.Context, userID uuid.UUID, grant int64, description string) (int64, bool, error) {
	if err := s.ctxErr(ctx); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.balances[userID]; ok {
		return b.Balance, false, nil
	}

	now := time.Now().UTC()
	s.nextBalanceID++
	s.balances[userID] = &Balance{
		ID:        s.nextBalanceID,
		UserID:    userID,
		Balance:   grant,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if grant > 0 {
		s.appendTx(userID, KindReward, grant, description, Metadata{MetaOperation: "signup_grant"})
	}
	return grant, true, nil
}

func (s *MemoryStore) ApplyCredit(ctx context.Context, userID uuid.UUID, amount int64, kind Kind, description string, meta Metadata) (int64, error) {
	if err := s.ctxErr(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[userID]
	if !ok {
		return 0, common.ErrUserNotFound
	}
	b.Balance += amount
	b.UpdatedAt = time.Now().UTC()
	s.appendTx(userID, kind, amount, description, meta)
	return b.Balance, nil
}

func (s *MemoryStore) ApplyDebit(ctx context.Context, userID uuid.UUID, amount int64, kind Kind, description string, meta Metadata) (int64, error) {
	if err := s.ctxErr(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[userID]
	if !ok {
		return 0, common.ErrUserNotFound
	}
	if b.Balance < amount {
		return 0, common.ErrInsufficientBalance
	}
	b.Balance -= amount
	b.UpdatedAt = time.Now().UTC()
	s.appendTx(userID, kind, -amount, description, meta)
	return b.Balance, nil
}

func (s *MemoryStore) Transactions(ctx context.Context, userID uuid.UUID, limit int, beforeID int64) ([]*Transaction, error) {
	if err := s.ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Новые первыми — идём по журналу с конца
	var out []*Transaction
	for i := len(s.txs) - 1; i >= 0 && len(out) < limit; i-- {
		t := s.txs[i]
		if t.UserID != userID {
			continue
		}
		if beforeID != 0 && t.ID >= beforeID {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) EnqueueRefund(ctx context.Context, ref *PendingRefund) error {
	if err := s.ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRefundID++
	cp := *ref
	cp.ID = s.nextRefundID
	cp.CreatedAt = time.Now().UTC()
	s.refunds[cp.ID] = &cp
	return nil
}

func (s *MemoryStore) PendingRefunds(ctx context.Context, limit int) ([]*PendingRefund, error) {
	if err := s.ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*PendingRefund
	for id := int64(1); id <= s.nextRefundID && len(out) < limit; id++ {
		if ref, ok := s.refunds[id]; ok {
			cp := *ref
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) ResolveRefund(ctx context.Context, id int64) error {
	if err := s.ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.refunds, id)
	return nil
}

func (s *MemoryStore) BumpRefundAttempt(ctx context.Context, id int64) error {
	if err := s.ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref, ok := s.refunds[id]; ok {
		ref.Attempts++
	}
	return nil
}
