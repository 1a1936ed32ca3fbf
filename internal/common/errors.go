// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бэкенда.
// Эти ошибки позволяют вызывающему коду различать типы проблем
// и возвращать пользователю понятные сообщения.
package common

import (
	"errors"
	"fmt"
)

// Ошибки токен-леджера
var (
	// ErrInsufficientBalance — недостаточно токенов на счёте
	ErrInsufficientBalance = errors.New("недостаточно токенов на счёте")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrStorageUnavailable — хранилище недоступно, операцию можно повторить
	ErrStorageUnavailable = errors.New("хранилище недоступно")
)

// Ошибки аккаунтов
var (
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrEmailTaken — email уже зарегистрирован
	ErrEmailTaken = errors.New("email уже зарегистрирован")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
)

// Ошибки резюме и бизнес-контактов
var (
	// ErrResumeNotFound — резюме не найдено или принадлежит другому пользователю
	ErrResumeNotFound = errors.New("резюме не найдено")
	// ErrConnectionNotFound — бизнес-контакт не найден
	ErrConnectionNotFound = errors.New("бизнес-контакт не найден")
	// ErrUnsupportedFileType — неподдерживаемый формат файла резюме
	ErrUnsupportedFileType = errors.New("неподдерживаемый формат файла")
	// ErrNoActiveSubscription — у пользователя нет активной подписки
	ErrNoActiveSubscription = errors.New("нет активной подписки")
	// ErrSubscriptionExists — активная подписка уже есть
	ErrSubscriptionExists = errors.New("активная подписка уже оформлена")
)

// Ошибки AI-анализа
var (
	// ErrMalformedAIResponse — ответ модели не удалось разобрать.
	// Для биллинга это сбой операции: за нечитаемый ответ не списываем.
	ErrMalformedAIResponse = errors.New("ответ AI-модели не удалось разобрать")
	// ErrCheckNotFound — результат проверки резюме не найден
	ErrCheckNotFound = errors.New("результат проверки не найден")
)

// RefundFailedError — компенсирующее начисление после сбоя платной операции
// не удалось ни записать, ни поставить в очередь на повтор.
// Единственная ошибка, которую нельзя глотать: токены пользователя под угрозой.
type RefundFailedError struct {
	OpErr     error // исходная ошибка платной операции
	RefundErr error // ошибка записи компенсации
}

func (e *RefundFailedError) Error() string {
	return fmt.Sprintf("возврат токенов не записан: %v (исходная ошибка операции: %v)", e.RefundErr, e.OpErr)
}

func (e *RefundFailedError) Unwrap() []error {
	return []error{e.OpErr, e.RefundErr}
}
