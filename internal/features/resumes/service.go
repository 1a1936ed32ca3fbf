package resumes

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"resumeai.app/backend/internal/features/tokens"
)

// Service — сценарии работы с резюме: приём файла, чтение, удаление.
type Service struct {
	repo        Store
	storage     ObjectStorage
	meter       *tokens.Meter
	extractCost int64
}

func NewService(repo Store, storage ObjectStorage, meter *tokens.Meter, extractCost int64) *Service {
	return &Service{repo: repo, storage: storage, meter: meter, extractCost: extractCost}
}

// Ingest принимает загруженный файл: кладёт его в R2, извлекает текст
// и сохраняет запись в базе. Извлечение — платная операция, при любом
// сбое (включая неподдерживаемый формат) токены возвращаются.
func (s *Service) Ingest(ctx context.Context, userID uuid.UUID, fileName, mimeType string, data []byte) (*Resume, error) {
	resumeID := uuid.New()
	meta := tokens.Metadata{
		tokens.MetaOperation: "text_extraction",
		tokens.MetaResumeID:  resumeID.String(),
	}

	return tokens.Metered(ctx, s.meter, userID, s.extractCost, "Извлечение текста резюме", meta,
		func(ctx context.Context) (*Resume, error) {
			text, err := ExtractText(data, mimeType)
			if err != nil {
				return nil, err
			}

			fileKey := fmt.Sprintf("resumes/%s/%s%s", userID, resumeID, path.Ext(fileName))
			if err := s.storage.Upload(ctx, fileKey, data, mimeType); err != nil {
				return nil, err
			}

			resume := &Resume{
				ID:       resumeID,
				UserID:   userID,
				FileName: fileName,
				FileKey:  fileKey,
				MimeType: mimeType,
				RawText:  text,
			}
			if err := s.repo.Create(ctx, resume); err != nil {
				// файл уже в R2, запись не создана: чистим за собой
				if delErr := s.storage.Delete(ctx, fileKey); delErr != nil {
					log.WithError(delErr).WithField("file_key", fileKey).
						Warn("Осиротевший файл резюме остался в R2")
				}
				return nil, err
			}

			log.WithFields(log.Fields{
				"user_id":   userID,
				"resume_id": resumeID,
				"file_name": fileName,
			}).Info("Резюме загружено")
			return resume, nil
		})
}

// Reingest перечитывает файл из R2 и обновляет извлечённый текст.
// Нужен после обновления парсеров. Повторное извлечение уже оплаченного
// файла бесплатно.
func (s *Service) Reingest(ctx context.Context, userID, resumeID uuid.UUID) (*Resume, error) {
	resume, err := s.repo.Get(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	data, err := s.storage.Download(ctx, resume.FileKey)
	if err != nil {
		return nil, err
	}
	text, err := ExtractText(data, resume.MimeType)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRawText(ctx, resumeID, text); err != nil {
		return nil, err
	}
	resume.RawText = text
	return resume, nil
}

func (s *Service) Get(ctx context.Context, userID, resumeID uuid.UUID) (*Resume, error) {
	return s.repo.Get(ctx, userID, resumeID)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*Resume, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) SetATSScore(ctx context.Context, resumeID uuid.UUID, score int) error {
	return s.repo.SetATSScore(ctx, resumeID, score)
}

// Delete удаляет запись и файл. Файл удаляется после записи: осиротевший
// объект в R2 безвреднее записи без файла.
func (s *Service) Delete(ctx context.Context, userID, resumeID uuid.UUID) error {
	resume, err := s.repo.Get(ctx, userID, resumeID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, resumeID); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, resume.FileKey); err != nil {
		log.WithError(err).WithField("file_key", resume.FileKey).
			Warn("Файл удалённого резюме остался в R2")
	}
	return nil
}
