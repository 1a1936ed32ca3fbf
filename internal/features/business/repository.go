package business

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"resumeai.app/backend/internal/common"
)

// Store — персистентность бизнес-контактов.
type Store interface {
	Create(ctx context.Context, c *Connection) error
	Get(ctx context.Context, userID, connectionID uuid.UUID) (*Connection, error)
	List(ctx context.Context, userID uuid.UUID, status Status) ([]*Connection, error)
	Update(ctx context.Context, c *Connection) error
	Delete(ctx context.Context, userID, connectionID uuid.UUID) error
}

// Repository — доступ к таблице business_connections.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, c *Connection) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO business_connections
			(id, user_id, company_name, contact_person, email, phone, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.CompanyName, c.ContactPerson, c.Email, c.Phone, c.Notes, c.Status).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: сохранение бизнес-контакта: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, userID, connectionID uuid.UUID) (*Connection, error) {
	var c Connection
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, company_name, contact_person, email, phone, notes, status, created_at, updated_at
		FROM business_connections WHERE id = $1 AND user_id = $2`,
		connectionID, userID).
		Scan(&c.ID, &c.UserID, &c.CompanyName, &c.ContactPerson, &c.Email,
			&c.Phone, &c.Notes, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: чтение бизнес-контакта: %v", common.ErrStorageUnavailable, err)
	}
	return &c, nil
}

// List возвращает контакты пользователя, опционально отфильтрованные по статусу.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, status Status) ([]*Connection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, company_name, contact_person, email, phone, notes, status, created_at, updated_at
		FROM business_connections
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`,
		userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("%w: список бизнес-контактов: %v", common.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []*Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.ID, &c.UserID, &c.CompanyName, &c.ContactPerson, &c.Email,
			&c.Phone, &c.Notes, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: список бизнес-контактов: %v", common.ErrStorageUnavailable, err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: список бизнес-контактов: %v", common.ErrStorageUnavailable, err)
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, c *Connection) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE business_connections
		SET company_name = $3, contact_person = $4, email = $5, phone = $6,
		    notes = $7, status = $8, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`,
		c.ID, c.UserID, c.CompanyName, c.ContactPerson, c.Email, c.Phone, c.Notes, c.Status)
	if err != nil {
		return fmt.Errorf("%w: обновление бизнес-контакта: %v", common.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrConnectionNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, userID, connectionID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM business_connections WHERE id = $1 AND user_id = $2`,
		connectionID, userID)
	if err != nil {
		return fmt.Errorf("%w: удаление бизнес-контакта: %v", common.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrConnectionNotFound
	}
	return nil
}
