package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"resumeai.app/backend/internal/common"
)

// Store — персистентность результатов анализа. Сервису достаточно
// записи, чтение нужно хендлерам истории.
type Store interface {
	SaveCheck(ctx context.Context, c *CheckResult) error
	SaveRoadmap(ctx context.Context, r *Roadmap) error
	SaveDetection(ctx context.Context, d *FakeDetection) error
}

// Repository — реализация Store на PostgreSQL. Тело результата лежит
// в колонке payload (JSONB), метаданные вынесены в отдельные колонки.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) SaveCheck(ctx context.Context, c *CheckResult) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("сериализация результата проверки: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO resume_checks (id, user_id, resume_id, payload, tokens_used)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.UserID, c.ResumeID, payload, c.TokensUsed)
	if err != nil {
		return fmt.Errorf("%w: сохранение проверки резюме: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *Repository) SaveRoadmap(ctx context.Context, rm *Roadmap) error {
	payload, err := json.Marshal(rm)
	if err != nil {
		return fmt.Errorf("сериализация роадмапа: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO roadmaps (id, user_id, payload, tokens_used)
		VALUES ($1, $2, $3, $4)`,
		rm.ID, rm.UserID, payload, rm.TokensUsed)
	if err != nil {
		return fmt.Errorf("%w: сохранение роадмапа: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *Repository) SaveDetection(ctx context.Context, d *FakeDetection) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("сериализация проверки подлинности: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO fake_detections (id, user_id, resume_id, payload, tokens_used)
		VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.UserID, d.ResumeID, payload, d.TokensUsed)
	if err != nil {
		return fmt.Errorf("%w: сохранение проверки подлинности: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

// GetCheck возвращает сохранённый результат проверки владельцу.
func (r *Repository) GetCheck(ctx context.Context, userID, checkID uuid.UUID) (*CheckResult, error) {
	var (
		c       CheckResult
		payload []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, resume_id, payload, tokens_used, created_at
		FROM resume_checks WHERE id = $1 AND user_id = $2`,
		checkID, userID).
		Scan(&c.ID, &c.UserID, &c.ResumeID, &payload, &c.TokensUsed, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrCheckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: чтение проверки резюме: %v", common.ErrStorageUnavailable, err)
	}
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("десериализация результата проверки: %w", err)
	}
	return &c, nil
}

// ListRoadmaps возвращает роадмапы пользователя, новые первыми.
func (r *Repository) ListRoadmaps(ctx context.Context, userID uuid.UUID) ([]*Roadmap, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, payload, tokens_used, created_at
		FROM roadmaps WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("%w: чтение роадмапов: %v", common.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []*Roadmap
	for rows.Next() {
		var (
			rm      Roadmap
			payload []byte
		)
		if err := rows.Scan(&rm.ID, &rm.UserID, &payload, &rm.TokensUsed, &rm.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: чтение роадмапов: %v", common.ErrStorageUnavailable, err)
		}
		if err := json.Unmarshal(payload, &rm); err != nil {
			return nil, fmt.Errorf("десериализация роадмапа: %w", err)
		}
		out = append(out, &rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: чтение роадмапов: %v", common.ErrStorageUnavailable, err)
	}
	return out, nil
}
