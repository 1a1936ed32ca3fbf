package resumes

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"resumeai.app/backend/internal/common"
	"resumeai.app/backend/internal/features/tokens"
)

// memRepo хранит резюме в памяти.
type memRepo struct {
	resumes map[uuid.UUID]*Resume
	failure error // если задана, Create возвращает её
}

func newMemRepo() *memRepo {
	return &memRepo{resumes: make(map[uuid.UUID]*Resume)}
}

func (m *memRepo) Create(_ context.Context, r *Resume) error {
	if m.failure != nil {
		return m.failure
	}
	cp := *r
	m.resumes[r.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, userID, resumeID uuid.UUID) (*Resume, error) {
	r, ok := m.resumes[resumeID]
	if !ok || r.UserID != userID {
		return nil, common.ErrResumeNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, userID uuid.UUID) ([]*Resume, error) {
	var out []*Resume
	for _, r := range m.resumes {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateRawText(_ context.Context, resumeID uuid.UUID, text string) error {
	r, ok := m.resumes[resumeID]
	if !ok {
		return common.ErrResumeNotFound
	}
	r.RawText = text
	return nil
}

func (m *memRepo) SetATSScore(_ context.Context, resumeID uuid.UUID, score int) error {
	r, ok := m.resumes[resumeID]
	if !ok {
		return common.ErrResumeNotFound
	}
	r.ATSScore = &score
	return nil
}

func (m *memRepo) Delete(_ context.Context, userID, resumeID uuid.UUID) error {
	r, ok := m.resumes[resumeID]
	if !ok || r.UserID != userID {
		return common.ErrResumeNotFound
	}
	delete(m.resumes, resumeID)
	return nil
}

// memStorage — объектное хранилище в памяти.
type memStorage struct {
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("объект не найден")
	}
	return data, nil
}

func (m *memStorage) Upload(_ context.Context, key string, body []byte, _ string) error {
	m.objects[key] = body
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func newTestService(repo Store, storage ObjectStorage, grant int64) (*Service, *tokens.Ledger) {
	ledger := tokens.NewLedger(tokens.NewMemoryStore(), grant)
	return NewService(repo, storage, tokens.NewMeter(ledger), 1), ledger
}

func TestIngestDebitsAndStores(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	storage := newMemStorage()
	svc, ledger := newTestService(repo, storage, 10)
	userID := uuid.New()

	resume, err := svc.Ingest(ctx, userID, "cv.txt", "text/plain", []byte("Иван Иванов, Go-разработчик"))
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if resume.RawText != "Иван Иванов, Go-разработчик" {
		t.Errorf("извлечённый текст = %q", resume.RawText)
	}
	if _, ok := repo.resumes[resume.ID]; !ok {
		t.Error("запись резюме не сохранена")
	}
	if _, ok := storage.objects[resume.FileKey]; !ok {
		t.Error("файл резюме не загружен в хранилище")
	}

	balance, _ := ledger.GetBalance(ctx, userID)
	if balance != 9 {
		t.Errorf("баланс = %d, ожидалось 9 (10 - 1)", balance)
	}
}

func TestIngestUnsupportedTypeRefunds(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestService(newMemRepo(), newMemStorage(), 10)
	userID := uuid.New()

	_, err := svc.Ingest(ctx, userID, "cv.jpg", "image/jpeg", []byte{0xFF, 0xD8})
	if !errors.Is(err, common.ErrUnsupportedFileType) {
		t.Fatalf("ошибка = %v, ожидалась ErrUnsupportedFileType", err)
	}

	balance, _ := ledger.GetBalance(ctx, userID)
	if balance != 10 {
		t.Errorf("баланс = %d, ожидалось 10: неудачное извлечение не тарифицируется", balance)
	}
}

func TestIngestDBFailureCleansUpObject(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	repo.failure = errors.New("база недоступна")
	storage := newMemStorage()
	svc, ledger := newTestService(repo, storage, 10)
	userID := uuid.New()

	_, err := svc.Ingest(ctx, userID, "cv.txt", "text/plain", []byte("текст"))
	if err == nil {
		t.Fatal("ожидалась ошибка базы")
	}
	if len(storage.objects) != 0 {
		t.Error("осиротевший файл должен удаляться из хранилища")
	}

	balance, _ := ledger.GetBalance(ctx, userID)
	if balance != 10 {
		t.Errorf("баланс = %d, ожидалось 10", balance)
	}
}

func TestDeleteRemovesRecordAndFile(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	storage := newMemStorage()
	svc, _ := newTestService(repo, storage, 10)
	userID := uuid.New()

	resume, err := svc.Ingest(ctx, userID, "cv.txt", "text/plain", []byte("текст"))
	if err != nil {
		t.Fatalf("загрузка: %v", err)
	}

	if err := svc.Delete(ctx, userID, resume.ID); err != nil {
		t.Fatalf("удаление: %v", err)
	}
	if len(repo.resumes) != 0 {
		t.Error("запись резюме не удалена")
	}
	if len(storage.objects) != 0 {
		t.Error("файл резюме не удалён из хранилища")
	}
}

func TestDeleteForeignResume(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc, _ := newTestService(repo, newMemStorage(), 10)
	owner := uuid.New()

	resume, err := svc.Ingest(ctx, owner, "cv.txt", "text/plain", []byte("текст"))
	if err != nil {
		t.Fatalf("загрузка: %v", err)
	}

	err = svc.Delete(ctx, uuid.New(), resume.ID)
	if !errors.Is(err, common.ErrResumeNotFound) {
		t.Errorf("ошибка = %v, ожидалась ErrResumeNotFound", err)
	}
	if len(repo.resumes) != 1 {
		t.Error("чужое резюме не должно удаляться")
	}
}
