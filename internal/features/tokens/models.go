// Package tokens управляет токенами — внутренней валютой, которой
// оплачиваются AI-функции (проверка резюме, роадмапы, детектор фейков).
// models.go описывает структуры для балансов и транзакций.
package tokens

import (
	"time"

	"github.com/google/uuid"
)

// Balance представляет счёт пользователя.
// Каждый пользователь имеет ровно одну запись в таблице token_balances;
// запись создаётся лениво при первом обращении со стартовым начислением.
type Balance struct {
	ID        int64     `db:"id"`         // ID записи
	UserID    uuid.UUID `db:"user_id"`    // ID пользователя
	Balance   int64     `db:"balance"`    // Текущий баланс (никогда не отрицательный)
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Kind — тип транзакции.
type Kind string

// Допустимые типы транзакций
const (
	KindReward       Kind = "reward"       // Бесплатные токены (регистрация, акции)
	KindPurchase     Kind = "purchase"     // Покупка токенов
	KindUsage        Kind = "usage"        // Списание за платную AI-операцию
	KindReferral     Kind = "referral"     // Бонус за приглашённого пользователя
	KindSubscription Kind = "subscription" // Ежемесячное начисление по подписке
	KindRefund       Kind = "refund"       // Возврат за неудавшуюся операцию
)

// Metadata связывает транзакцию с ресурсом, за который списаны токены.
// Хранится как JSONB. Ключи документированы константами Meta*.
type Metadata map[string]string

// Документированные ключи метаданных.
const (
	MetaOperation = "operation"  // машинное имя операции (resume_check, roadmap, ...)
	MetaResumeID  = "resume_id"  // резюме, по которому шла операция
	MetaCheckID   = "check_id"   // результат проверки резюме
	MetaRoadmapID = "roadmap_id" // сгенерированный роадмап
	MetaUserID    = "user_id"    // связанный пользователь (реферальные бонусы)
)

// Transaction представляет одну операцию с токенами.
// Записи неизменяемые: историю никогда не редактируем, только дописываем.
// Сумма со знаком: положительная — начисление, отрицательная — списание.
type Transaction struct {
	ID          int64     `db:"id"`          // ID транзакции (монотонно растёт в рамках БД)
	UserID      uuid.UUID `db:"user_id"`     // Чей счёт
	Kind        Kind      `db:"kind"`        // Тип: reward, purchase, usage, referral, subscription, refund
	Amount      int64     `db:"amount"`      // Сумма со знаком
	Description string    `db:"description"` // Описание для отображения
	Metadata    Metadata  `db:"metadata"`    // Связь с оплаченным ресурсом
	CreatedAt   time.Time `db:"created_at"`  // Время транзакции
}

// PendingRefund — возврат, который не удалось записать сразу.
// Лежит в очереди, пока планировщик не проведёт его через леджер.
type PendingRefund struct {
	ID          int64     `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Amount      int64     `db:"amount"` // Всегда положительная — сколько вернуть
	Description string    `db:"description"`
	Metadata    Metadata  `db:"metadata"`
	Attempts    int       `db:"attempts"` // Сколько раз уже пробовали
	CreatedAt   time.Time `db:"created_at"`
}
