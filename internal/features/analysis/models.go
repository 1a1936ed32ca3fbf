// Package analysis — платные AI-функции платформы: проверка резюме,
// карьерные роадмапы, детектор фейковых резюме, улучшение секций.
// models.go описывает структуры результатов анализа.
package analysis

import (
	"time"

	"github.com/google/uuid"
)

// SectionFeedback — оценка одной секции резюме.
type SectionFeedback struct {
	Name        string   `json:"name"`
	Score       int      `json:"score"` // 0–100
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions"`
}

// KeywordMatch — найдено ли ключевое слово вакансии в резюме.
type KeywordMatch struct {
	Keyword    string `json:"keyword"`
	Found      bool   `json:"found"`
	Importance string `json:"importance"` // high, medium, low
}

// CheckResult — результат проверки резюме.
type CheckResult struct {
	ID                     uuid.UUID         `db:"id" json:"-"`
	UserID                 uuid.UUID         `db:"user_id" json:"-"`
	ResumeID               uuid.UUID         `db:"resume_id" json:"-"`
	OverallScore           int               `db:"-" json:"overall_score"`
	Sections               []SectionFeedback `db:"-" json:"sections"`
	KeywordMatches         []KeywordMatch    `db:"-" json:"keyword_matches"`
	ImprovementSuggestions []string          `db:"-" json:"improvement_suggestions"`
	TokensUsed             int64             `db:"tokens_used" json:"-"`
	CreatedAt              time.Time         `db:"created_at" json:"-"`
}

// RoadmapMilestone — этап карьерного роадмапа.
type RoadmapMilestone struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Timeframe   string   `json:"timeframe"`
	Skills      []string `json:"skills"`
	Completed   bool     `json:"completed"`
}

// RoadmapResource — материал для прокачки навыка.
type RoadmapResource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"` // course, book, article, ...
}

// RoadmapSkill — навык с приоритетом и материалами.
type RoadmapSkill struct {
	Name      string            `json:"name"`
	Category  string            `json:"category"` // technical, soft
	Priority  string            `json:"priority"` // high, medium, low
	Resources []RoadmapResource `json:"resources"`
}

// Roadmap — сгенерированный карьерный план.
type Roadmap struct {
	ID         uuid.UUID          `db:"id" json:"-"`
	UserID     uuid.UUID          `db:"user_id" json:"-"`
	Title      string             `db:"-" json:"title"`
	Milestones []RoadmapMilestone `db:"-" json:"milestones"`
	Skills     []RoadmapSkill     `db:"-" json:"skills"`
	TokensUsed int64              `db:"tokens_used" json:"-"`
	CreatedAt  time.Time          `db:"created_at" json:"-"`
}

// RoadmapRequest — входные данные для генерации роадмапа.
type RoadmapRequest struct {
	CurrentPosition string
	TargetPosition  string
	Timeframe       string
	Skills          []string
	ExperienceYears int
}

// AuthenticityFlag — подозрительное место в резюме.
type AuthenticityFlag struct {
	Section    string `json:"section"`
	Issue      string `json:"issue"`
	Confidence int    `json:"confidence"` // 0–100
}

// Authenticity — итоговая оценка подлинности.
type Authenticity struct {
	Score int                `json:"score"` // 100 — полностью подлинное
	Flags []AuthenticityFlag `json:"flags"`
}

// FakeDetection — результат проверки резюме на фейковость.
type FakeDetection struct {
	ID                      uuid.UUID    `db:"id" json:"-"`
	UserID                  uuid.UUID    `db:"user_id" json:"-"`
	ResumeID                uuid.UUID    `db:"resume_id" json:"-"`
	Authenticity            Authenticity `db:"-" json:"authenticity"`
	VerificationSuggestions []string     `db:"-" json:"verification_suggestions"`
	TokensUsed              int64        `db:"tokens_used" json:"-"`
	CreatedAt               time.Time    `db:"created_at" json:"-"`
}
