package resumes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"resumeai.app/backend/internal/common"
)

// Store — персистентность резюме. В тестах подменяется на in-memory
// реализацию.
type Store interface {
	Create(ctx context.Context, resume *Resume) error
	Get(ctx context.Context, userID, resumeID uuid.UUID) (*Resume, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Resume, error)
	UpdateRawText(ctx context.Context, resumeID uuid.UUID, text string) error
	SetATSScore(ctx context.Context, resumeID uuid.UUID, score int) error
	Delete(ctx context.Context, userID, resumeID uuid.UUID) error
}

// Repository — доступ к таблице resumes.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, resume *Resume) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO resumes (id, user_id, file_name, file_key, mime_type, raw_text)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		resume.ID, resume.UserID, resume.FileName, resume.FileKey, resume.MimeType, resume.RawText).
		Scan(&resume.CreatedAt, &resume.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: сохранение резюме: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

// Get возвращает резюме только его владельцу.
func (r *Repository) Get(ctx context.Context, userID, resumeID uuid.UUID) (*Resume, error) {
	var res Resume
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, file_name, file_key, mime_type, raw_text, ats_score, created_at, updated_at
		FROM resumes WHERE id = $1 AND user_id = $2`,
		resumeID, userID).
		Scan(&res.ID, &res.UserID, &res.FileName, &res.FileKey, &res.MimeType,
			&res.RawText, &res.ATSScore, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrResumeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: чтение резюме: %v", common.ErrStorageUnavailable, err)
	}
	return &res, nil
}

// List возвращает резюме пользователя без тяжёлого поля raw_text.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]*Resume, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, file_name, file_key, mime_type, ats_score, created_at, updated_at
		FROM resumes WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("%w: список резюме: %v", common.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []*Resume
	for rows.Next() {
		var res Resume
		if err := rows.Scan(&res.ID, &res.UserID, &res.FileName, &res.FileKey,
			&res.MimeType, &res.ATSScore, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: список резюме: %v", common.ErrStorageUnavailable, err)
		}
		out = append(out, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: список резюме: %v", common.ErrStorageUnavailable, err)
	}
	return out, nil
}

func (r *Repository) UpdateRawText(ctx context.Context, resumeID uuid.UUID, text string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE resumes SET raw_text = $2, updated_at = NOW() WHERE id = $1`,
		resumeID, text)
	if err != nil {
		return fmt.Errorf("%w: обновление текста резюме: %v", common.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrResumeNotFound
	}
	return nil
}

func (r *Repository) SetATSScore(ctx context.Context, resumeID uuid.UUID, score int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE resumes SET ats_score = $2, updated_at = NOW() WHERE id = $1`,
		resumeID, score)
	if err != nil {
		return fmt.Errorf("%w: обновление ATS-оценки: %v", common.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrResumeNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, userID, resumeID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM resumes WHERE id = $1 AND user_id = $2`,
		resumeID, userID)
	if err != nil {
		return fmt.Errorf("%w: удаление резюме: %v", common.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrResumeNotFound
	}
	return nil
}
