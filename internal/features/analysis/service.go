package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"resumeai.app/backend/internal/common"
	"resumeai.app/backend/internal/features/resumes"
	"resumeai.app/backend/internal/features/tokens"
)

// ResumeSource — доступ к резюме пользователя. Реализуется сервисом резюме,
// в тестах подменяется заглушкой.
type ResumeSource interface {
	Get(ctx context.Context, userID, resumeID uuid.UUID) (*resumes.Resume, error)
	SetATSScore(ctx context.Context, resumeID uuid.UUID, score int) error
}

// Costs — стоимость операций в токенах. Значения приходят из конфига.
type Costs struct {
	ResumeCheck    int64
	Roadmap        int64
	FakeDetection  int64
	SectionImprove int64
}

// Service — платные AI-операции. Каждая обёрнута в тарификацию:
// списание до вызова модели, возврат при любом сбое.
type Service struct {
	store    Store
	provider Provider
	meter    *tokens.Meter
	resumes  ResumeSource
	costs    Costs
}

func NewService(store Store, provider Provider, meter *tokens.Meter, resumes ResumeSource, costs Costs) *Service {
	return &Service{
		store:    store,
		provider: provider,
		meter:    meter,
		resumes:  resumes,
		costs:    costs,
	}
}

// CheckResume прогоняет резюме через ATS-анализ. jobDescription опционален:
// с ним анализ учитывает соответствие конкретной вакансии.
func (s *Service) CheckResume(ctx context.Context, userID, resumeID uuid.UUID, jobDescription string) (*CheckResult, error) {
	resume, err := s.resumes.Get(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}

	// ID результата известен до списания, чтобы попасть в метаданные транзакции
	checkID := uuid.New()
	meta := tokens.Metadata{
		tokens.MetaOperation: "resume_check",
		tokens.MetaResumeID:  resumeID.String(),
		tokens.MetaCheckID:   checkID.String(),
	}

	result, err := tokens.Metered(ctx, s.meter, userID, s.costs.ResumeCheck, "Проверка резюме", meta,
		func(ctx context.Context) (*CheckResult, error) {
			raw, err := s.provider.Generate(ctx, checkResumePrompt(resume.RawText, jobDescription))
			if err != nil {
				return nil, err
			}
			c, err := parseJSON[CheckResult](raw)
			if err != nil {
				return nil, err
			}
			c.ID = checkID
			c.UserID = userID
			c.ResumeID = resumeID
			c.TokensUsed = s.costs.ResumeCheck
			if err := s.store.SaveCheck(ctx, c); err != nil {
				return nil, err
			}
			return c, nil
		})
	if err != nil {
		return nil, err
	}

	// Оценка на карточке резюме обновляется по свежей проверке.
	// Сбой здесь не откатывает уже оплаченный и сохранённый результат.
	if err := s.resumes.SetATSScore(ctx, resumeID, result.OverallScore); err != nil {
		log.WithError(err).WithField("resume_id", resumeID).
			Warn("Не удалось обновить ATS-оценку резюме")
	}
	return result, nil
}

// GenerateRoadmap строит карьерный план по текущей и целевой позиции.
func (s *Service) GenerateRoadmap(ctx context.Context, userID uuid.UUID, req RoadmapRequest) (*Roadmap, error) {
	if strings.TrimSpace(req.CurrentPosition) == "" || strings.TrimSpace(req.TargetPosition) == "" {
		return nil, fmt.Errorf("текущая и целевая позиции обязательны")
	}

	roadmapID := uuid.New()
	meta := tokens.Metadata{
		tokens.MetaOperation: "career_roadmap",
		tokens.MetaRoadmapID: roadmapID.String(),
	}

	return tokens.Metered(ctx, s.meter, userID, s.costs.Roadmap, "Карьерный роадмап", meta,
		func(ctx context.Context) (*Roadmap, error) {
			raw, err := s.provider.Generate(ctx, roadmapPrompt(req))
			if err != nil {
				return nil, err
			}
			rm, err := parseJSON[Roadmap](raw)
			if err != nil {
				return nil, err
			}
			rm.ID = roadmapID
			rm.UserID = userID
			rm.TokensUsed = s.costs.Roadmap
			if err := s.store.SaveRoadmap(ctx, rm); err != nil {
				return nil, err
			}
			return rm, nil
		})
}

// DetectFake проверяет резюме на признаки фальсификации.
func (s *Service) DetectFake(ctx context.Context, userID, resumeID uuid.UUID) (*FakeDetection, error) {
	resume, err := s.resumes.Get(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}

	detectionID := uuid.New()
	meta := tokens.Metadata{
		tokens.MetaOperation: "fake_detection",
		tokens.MetaResumeID:  resumeID.String(),
		tokens.MetaCheckID:   detectionID.String(),
	}

	return tokens.Metered(ctx, s.meter, userID, s.costs.FakeDetection, "Проверка подлинности резюме", meta,
		func(ctx context.Context) (*FakeDetection, error) {
			raw, err := s.provider.Generate(ctx, fakeDetectionPrompt(resume.RawText))
			if err != nil {
				return nil, err
			}
			d, err := parseJSON[FakeDetection](raw)
			if err != nil {
				return nil, err
			}
			d.ID = detectionID
			d.UserID = userID
			d.ResumeID = resumeID
			d.TokensUsed = s.costs.FakeDetection
			if err := s.store.SaveDetection(ctx, d); err != nil {
				return nil, err
			}
			return d, nil
		})
}

// ImproveSection переписывает одну секцию резюме. Ответ модели здесь
// обычный текст, а не JSON.
func (s *Service) ImproveSection(ctx context.Context, userID uuid.UUID, sectionType, sectionText string) (string, error) {
	if strings.TrimSpace(sectionText) == "" {
		return "", fmt.Errorf("текст секции пуст")
	}

	meta := tokens.Metadata{tokens.MetaOperation: "section_improve"}

	return tokens.Metered(ctx, s.meter, userID, s.costs.SectionImprove, "Улучшение секции резюме", meta,
		func(ctx context.Context) (string, error) {
			raw, err := s.provider.Generate(ctx, improveSectionPrompt(sectionType, sectionText))
			if err != nil {
				return "", err
			}
			improved := strings.TrimSpace(CleanJSON(raw))
			if improved == "" {
				return "", fmt.Errorf("%w: пустой текст секции", common.ErrMalformedAIResponse)
			}
			return improved, nil
		})
}
