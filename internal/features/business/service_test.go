package business

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"resumeai.app/backend/internal/common"
)

// memStore хранит контакты в памяти.
type memStore struct {
	connections map[uuid.UUID]*Connection
}

func newMemStore() *memStore {
	return &memStore{connections: make(map[uuid.UUID]*Connection)}
}

func (m *memStore) Create(_ context.Context, c *Connection) error {
	cp := *c
	m.connections[c.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, userID, connectionID uuid.UUID) (*Connection, error) {
	c, ok := m.connections[connectionID]
	if !ok || c.UserID != userID {
		return nil, common.ErrConnectionNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) List(_ context.Context, userID uuid.UUID, status Status) ([]*Connection, error) {
	var out []*Connection
	for _, c := range m.connections {
		if c.UserID == userID && (status == "" || c.Status == status) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, c *Connection) error {
	existing, ok := m.connections[c.ID]
	if !ok || existing.UserID != c.UserID {
		return common.ErrConnectionNotFound
	}
	cp := *c
	m.connections[c.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, userID, connectionID uuid.UUID) error {
	c, ok := m.connections[connectionID]
	if !ok || c.UserID != userID {
		return common.ErrConnectionNotFound
	}
	delete(m.connections, connectionID)
	return nil
}

func TestCreateStartsPending(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore())
	userID := uuid.New()

	c, err := svc.Create(ctx, userID, CreateInput{
		CompanyName:   "  Рога и Копыта  ",
		ContactPerson: "Остап",
		Email:         "HR@Roga.example",
	})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if c.Status != StatusPending {
		t.Errorf("статус = %q, ожидался pending", c.Status)
	}
	if c.CompanyName != "Рога и Копыта" {
		t.Errorf("название компании = %q, пробелы должны обрезаться", c.CompanyName)
	}
	if c.Email != "hr@roga.example" {
		t.Errorf("email = %q, ожидался нормализованный", c.Email)
	}
}

func TestCreateRequiresCompanyName(t *testing.T) {
	svc := NewService(newMemStore())
	if _, err := svc.Create(context.Background(), uuid.New(), CreateInput{CompanyName: "   "}); err == nil {
		t.Error("пустое название компании должно отклоняться")
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore())
	userID := uuid.New()

	c, err := svc.Create(ctx, userID, CreateInput{CompanyName: "Компания"})
	if err != nil {
		t.Fatalf("создание: %v", err)
	}

	updated, err := svc.UpdateStatus(ctx, userID, c.ID, StatusConnected)
	if err != nil {
		t.Fatalf("смена статуса: %v", err)
	}
	if updated.Status != StatusConnected {
		t.Errorf("статус = %q, ожидался connected", updated.Status)
	}

	if _, err := svc.UpdateStatus(ctx, userID, c.ID, Status("в_раздумьях")); err == nil {
		t.Error("неизвестный статус должен отклоняться")
	}
}

func TestOwnerScoping(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore())
	owner := uuid.New()
	stranger := uuid.New()

	c, err := svc.Create(ctx, owner, CreateInput{CompanyName: "Компания"})
	if err != nil {
		t.Fatalf("создание: %v", err)
	}

	if _, err := svc.Get(ctx, stranger, c.ID); !errors.Is(err, common.ErrConnectionNotFound) {
		t.Errorf("чужой контакт: ошибка = %v, ожидалась ErrConnectionNotFound", err)
	}
	if err := svc.Delete(ctx, stranger, c.ID); !errors.Is(err, common.ErrConnectionNotFound) {
		t.Errorf("чужое удаление: ошибка = %v, ожидалась ErrConnectionNotFound", err)
	}

	list, err := svc.List(ctx, stranger, "")
	if err != nil {
		t.Fatalf("список: %v", err)
	}
	if len(list) != 0 {
		t.Error("чужие контакты не должны попадать в список")
	}
}

func TestListFilterByStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore())
	userID := uuid.New()

	a, _ := svc.Create(ctx, userID, CreateInput{CompanyName: "А"})
	if _, err := svc.Create(ctx, userID, CreateInput{CompanyName: "Б"}); err != nil {
		t.Fatalf("создание: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, userID, a.ID, StatusRejected); err != nil {
		t.Fatalf("смена статуса: %v", err)
	}

	rejected, err := svc.List(ctx, userID, StatusRejected)
	if err != nil {
		t.Fatalf("список: %v", err)
	}
	if len(rejected) != 1 || rejected[0].ID != a.ID {
		t.Errorf("фильтр по статусу вернул %d контактов", len(rejected))
	}
}
