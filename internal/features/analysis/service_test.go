package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"resumeai.app/backend/internal/common"
	"resumeai.app/backend/internal/features/resumes"
	"resumeai.app/backend/internal/features/tokens"
)

// fakeProvider отдаёт заготовленный ответ вместо похода в Gemini.
type fakeProvider struct {
	response string
	err      error
	calls    int
}

func (f *fakeProvider) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// memStore копит сохранённые результаты в памяти.
type memStore struct {
	checks     []*CheckResult
	roadmaps   []*Roadmap
	detections []*FakeDetection
}

func (m *memStore) SaveCheck(_ context.Context, c *CheckResult) error {
	m.checks = append(m.checks, c)
	return nil
}

func (m *memStore) SaveRoadmap(_ context.Context, r *Roadmap) error {
	m.roadmaps = append(m.roadmaps, r)
	return nil
}

func (m *memStore) SaveDetection(_ context.Context, d *FakeDetection) error {
	m.detections = append(m.detections, d)
	return nil
}

// fakeResumes отдаёт одно резюме и запоминает выставленную ATS-оценку.
type fakeResumes struct {
	resume    *resumes.Resume
	lastScore int
}

func (f *fakeResumes) Get(_ context.Context, userID, resumeID uuid.UUID) (*resumes.Resume, error) {
	if f.resume == nil || f.resume.ID != resumeID || f.resume.UserID != userID {
		return nil, common.ErrResumeNotFound
	}
	return f.resume, nil
}

func (f *fakeResumes) SetATSScore(_ context.Context, _ uuid.UUID, score int) error {
	f.lastScore = score
	return nil
}

var testCosts = Costs{ResumeCheck: 2, Roadmap: 3, FakeDetection: 3, SectionImprove: 1}

func newTestService(t *testing.T, grant int64, provider Provider) (*Service, *memStore, *fakeResumes, *tokens.Ledger, uuid.UUID, uuid.UUID) {
	t.Helper()
	ledger := tokens.NewLedger(tokens.NewMemoryStore(), grant)
	userID := uuid.New()
	resumeID := uuid.New()
	store := &memStore{}
	src := &fakeResumes{resume: &resumes.Resume{
		ID:      resumeID,
		UserID:  userID,
		RawText: "Иван Иванов, Golang разработчик, 5 лет опыта",
	}}
	svc := NewService(store, provider, tokens.NewMeter(ledger), src, testCosts)
	return svc, store, src, ledger, userID, resumeID
}

const checkJSON = `{
  "overall_score": 78,
  "sections": [{"name": "experience", "score": 80, "feedback": "ок", "suggestions": ["добавить цифры"]}],
  "keyword_matches": [{"keyword": "golang", "found": true, "importance": "high"}],
  "improvement_suggestions": ["сократить вступление"]
}`

func TestCheckResumeDebitsAndStores(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{response: "```json\n" + checkJSON + "\n```"}
	svc, store, src, ledger, userID, resumeID := newTestService(t, 10, provider)

	result, err := svc.CheckResume(ctx, userID, resumeID, "ищем Go-разработчика")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if result.OverallScore != 78 {
		t.Errorf("overall_score = %d, ожидалось 78", result.OverallScore)
	}
	if len(store.checks) != 1 {
		t.Fatalf("сохранено проверок: %d, ожидалась 1", len(store.checks))
	}
	if store.checks[0].ID != result.ID || store.checks[0].ResumeID != resumeID {
		t.Error("сохранённый результат не совпадает с возвращённым")
	}
	if src.lastScore != 78 {
		t.Errorf("ATS-оценка резюме = %d, ожидалось 78", src.lastScore)
	}

	balance, err := ledger.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("баланс: %v", err)
	}
	if balance != 8 {
		t.Errorf("баланс = %d, ожидалось 8 (10 - 2)", balance)
	}
}

func TestCheckResumeMalformedResponseRefunds(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{response: "Извините, не могу помочь с этим запросом."}
	svc, store, _, ledger, userID, resumeID := newTestService(t, 10, provider)

	_, err := svc.CheckResume(ctx, userID, resumeID, "")
	if !errors.Is(err, common.ErrMalformedAIResponse) {
		t.Fatalf("ошибка = %v, ожидалась ErrMalformedAIResponse", err)
	}
	if len(store.checks) != 0 {
		t.Error("нечитаемый результат не должен сохраняться")
	}

	balance, err := ledger.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("баланс: %v", err)
	}
	if balance != 10 {
		t.Errorf("баланс = %d, ожидалось 10: токены за сбой возвращаются", balance)
	}
}

func TestCheckResumeInsufficientTokensSkipsProvider(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{response: checkJSON}
	svc, _, _, _, userID, resumeID := newTestService(t, 1, provider)

	_, err := svc.CheckResume(ctx, userID, resumeID, "")
	if !errors.Is(err, common.ErrInsufficientBalance) {
		t.Fatalf("ошибка = %v, ожидалась ErrInsufficientBalance", err)
	}
	if provider.calls != 0 {
		t.Errorf("модель вызвана %d раз при пустом балансе, ожидалось 0", provider.calls)
	}
}

func TestCheckResumeForeignResumeNotBilled(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{response: checkJSON}
	svc, _, _, ledger, userID, _ := newTestService(t, 10, provider)

	_, err := svc.CheckResume(ctx, userID, uuid.New(), "")
	if !errors.Is(err, common.ErrResumeNotFound) {
		t.Fatalf("ошибка = %v, ожидалась ErrResumeNotFound", err)
	}

	balance, _ := ledger.GetBalance(ctx, userID)
	if balance != 10 {
		t.Errorf("баланс = %d, ожидалось 10: чужое резюме не тарифицируется", balance)
	}
}

func TestGenerateRoadmapProviderErrorRefunds(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{err: errors.New("модель перегружена")}
	svc, store, _, ledger, userID, _ := newTestService(t, 10, provider)

	_, err := svc.GenerateRoadmap(ctx, userID, RoadmapRequest{
		CurrentPosition: "Junior Go developer",
		TargetPosition:  "Senior Go developer",
		Timeframe:       "2 years",
	})
	if err == nil {
		t.Fatal("ожидалась ошибка провайдера")
	}
	if len(store.roadmaps) != 0 {
		t.Error("роадмап не должен сохраняться при сбое модели")
	}

	balance, _ := ledger.GetBalance(ctx, userID)
	if balance != 10 {
		t.Errorf("баланс = %d, ожидалось 10", balance)
	}
}

func TestDetectFakeParsesAuthenticity(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{response: `{
		"authenticity": {"score": 42, "flags": [{"section": "experience", "issue": "пересекающиеся даты", "confidence": 90}]},
		"verification_suggestions": ["запросить рекомендации"]
	}`}
	svc, store, _, ledger, userID, resumeID := newTestService(t, 10, provider)

	d, err := svc.DetectFake(ctx, userID, resumeID)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if d.Authenticity.Score != 42 || len(d.Authenticity.Flags) != 1 {
		t.Errorf("разбор подлинности: score=%d, flags=%d", d.Authenticity.Score, len(d.Authenticity.Flags))
	}
	if len(store.detections) != 1 {
		t.Errorf("сохранено проверок подлинности: %d, ожидалась 1", len(store.detections))
	}

	balance, _ := ledger.GetBalance(ctx, userID)
	if balance != 7 {
		t.Errorf("баланс = %d, ожидалось 7 (10 - 3)", balance)
	}
}

func TestImproveSectionStripsFences(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{response: "```\nРуководил командой из 5 инженеров.\n```"}
	svc, _, _, ledger, userID, _ := newTestService(t, 10, provider)

	improved, err := svc.ImproveSection(ctx, userID, "experience", "Был начальником.")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if improved != "Руководил командой из 5 инженеров." {
		t.Errorf("улучшенный текст = %q", improved)
	}

	balance, _ := ledger.GetBalance(ctx, userID)
	if balance != 9 {
		t.Errorf("баланс = %d, ожидалось 9 (10 - 1)", balance)
	}
}

func TestCleanJSON(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"без ограждений", `{"a":1}`, `{"a":1}`},
		{"json-ограждение", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"пустое ограждение", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"пробелы вокруг", "  \n{\"a\":1}\n  ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanJSON(tc.in); got != tc.want {
				t.Errorf("CleanJSON(%q) = %q, ожидалось %q", tc.in, got, tc.want)
			}
		})
	}
}
