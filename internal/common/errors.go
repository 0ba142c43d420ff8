// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import (
	"errors"
	"fmt"
)

// Ошибки профиля
var (
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrInvalidProfile — отрицательные очки/стрик/счётчик заданий
	ErrInvalidProfile = errors.New("некорректные значения профиля")
)

// Ошибки заданий
var (
	// ErrTaskNotFound — задание уже выполнено или не существует (двойное нажатие)
	ErrTaskNotFound = errors.New("задание не найдено")
)

// Ошибки хранилища
var (
	// ErrStorageUnavailable — база недоступна, запрос завершается с общей ошибкой
	ErrStorageUnavailable = errors.New("хранилище недоступно")
)

// Ошибки друзей
var (
	// ErrInvalidReferral — реферальный код не расшифровывается
	ErrInvalidReferral = errors.New("некорректный реферальный код")
)

// StorageError оборачивает ошибку драйвера в ErrStorageUnavailable.
// errors.Is работает и с ErrStorageUnavailable, и с исходной ошибкой.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
