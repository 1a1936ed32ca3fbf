// Package resumes — загрузка и хранение резюме пользователей.
// Файл лежит в объектном хранилище (Cloudflare R2), извлечённый текст
// и метаданные — в PostgreSQL.
package resumes

import (
	"time"

	"github.com/google/uuid"
)

// Resume — загруженное резюме.
type Resume struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	FileName  string    `db:"file_name"` // исходное имя файла
	FileKey   string    `db:"file_key"`  // ключ объекта в R2
	MimeType  string    `db:"mime_type"`
	RawText   string    `db:"raw_text"` // извлечённый текст для анализа
	ATSScore  *int      `db:"ats_score"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
