// Package business — контакты с работодателями: пользователь ведёт список
// компаний, с которыми общается, и статус по каждой.
package business

import (
	"time"

	"github.com/google/uuid"
)

// Status — статус общения с компанией.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConnected Status = "connected"
	StatusRejected  Status = "rejected"
)

// Valid сообщает, входит ли статус в допустимый набор.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConnected, StatusRejected:
		return true
	}
	return false
}

// Connection — один бизнес-контакт пользователя.
type Connection struct {
	ID            uuid.UUID `db:"id"`
	UserID        uuid.UUID `db:"user_id"`
	CompanyName   string    `db:"company_name"`
	ContactPerson string    `db:"contact_person"`
	Email         string    `db:"email"`
	Phone         string    `db:"phone"`
	Notes         string    `db:"notes"`
	Status        Status    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
