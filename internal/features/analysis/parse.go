package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumeai.app/backend/internal/common"
)

// CleanJSON убирает markdown-ограждения вокруг JSON, которые модель
// добавляет несмотря на инструкции в промпте.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```json")
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseJSON разбирает ответ модели в структуру. Любая ошибка разбора
// оборачивается в ErrMalformedAIResponse, чтобы вызов тарифицировался
// как неудачный и токены вернулись пользователю.
func parseJSON[T any](raw string) (*T, error) {
	var v T
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedAIResponse, err)
	}
	return &v, nil
}
