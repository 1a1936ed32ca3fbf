package business

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Service — владельческий CRUD бизнес-контактов. Все операции ограничены
// контактами самого пользователя.
type Service struct {
	repo Store
}

func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// CreateInput — данные нового контакта.
type CreateInput struct {
	CompanyName   string
	ContactPerson string
	Email         string
	Phone         string
	Notes         string
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*Connection, error) {
	if strings.TrimSpace(in.CompanyName) == "" {
		return nil, fmt.Errorf("название компании обязательно")
	}

	c := &Connection{
		ID:            uuid.New(),
		UserID:        userID,
		CompanyName:   strings.TrimSpace(in.CompanyName),
		ContactPerson: strings.TrimSpace(in.ContactPerson),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:         strings.TrimSpace(in.Phone),
		Notes:         in.Notes,
		Status:        StatusPending,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"company": c.CompanyName,
	}).Info("Создан бизнес-контакт")
	return c, nil
}

func (s *Service) Get(ctx context.Context, userID, connectionID uuid.UUID) (*Connection, error) {
	return s.repo.Get(ctx, userID, connectionID)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, status Status) ([]*Connection, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("неизвестный статус %q", status)
	}
	return s.repo.List(ctx, userID, status)
}

// UpdateStatus переводит контакт в новый статус.
func (s *Service) UpdateStatus(ctx context.Context, userID, connectionID uuid.UUID, status Status) (*Connection, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("неизвестный статус %q", status)
	}
	c, err := s.repo.Get(ctx, userID, connectionID)
	if err != nil {
		return nil, err
	}
	c.Status = status
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateNotes заменяет заметки по контакту.
func (s *Service) UpdateNotes(ctx context.Context, userID, connectionID uuid.UUID, notes string) (*Connection, error) {
	c, err := s.repo.Get(ctx, userID, connectionID)
	if err != nil {
		return nil, err
	}
	c.Notes = notes
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, userID, connectionID uuid.UUID) error {
	return s.repo.Delete(ctx, userID, connectionID)
}
