// Package profile — service.go: агрегатор профилей и лидерборда.
package profile

import (
	"context"
	"errors"
	"fmt"
	"slices"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fitmates-bot/internal/common"
)

// Store — хранилище профилей (PostgreSQL или память).
type Store interface {
	AddUser(ctx context.Context, userID int64, username, lang string) error
	GetUser(ctx context.Context, userID int64) (*User, error)
	UpdateUser(ctx context.Context, userID int64, points int64, streak, tasksCompleted int) error
	// Leaderboard отдаёт строки уже упорядоченными: очки DESC, id ASC.
	Leaderboard(ctx context.Context) ([]Entry, error)
	GetStreakTimestamp(ctx context.Context, userID int64) (int64, bool, error)
	SetStreakTimestamp(ctx context.Context, userID int64, ts int64) error
}

// Service управляет профилями и лидербордом.
type Service struct {
	store Store
}

// NewService создаёт новый сервис профилей.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register создаёт профиль при первом выборе языка.
// Повторный выбор языка только меняет язык — очки и стрик не трогаются.
func (s *Service) Register(ctx context.Context, userID int64, username, lang string) error {
	if err := s.store.AddUser(ctx, userID, username, lang); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"lang":    lang,
	}).Info("Пользователь зарегистрирован")
	return nil
}

// Exists сообщает, есть ли профиль пользователя.
func (s *Service) Exists(ctx context.Context, userID int64) (bool, error) {
	_, err := s.store.GetUser(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// GetProfile возвращает профиль пользователя.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*User, error) {
	return s.store.GetUser(ctx, userID)
}

// UpdateProfile перезаписывает три счётчика профиля целиком (не дельтой).
func (s *Service) UpdateProfile(ctx context.Context, userID int64, points int64, streak, tasksCompleted int) error {
	if points < 0 || streak < 0 || tasksCompleted < 0 {
		return fmt.Errorf("points=%d streak=%d tasks=%d: %w", points, streak, tasksCompleted, common.ErrInvalidProfile)
	}
	return s.store.UpdateUser(ctx, userID, points, streak, tasksCompleted)
}

// Leaderboard возвращает всех пользователей по убыванию очков.
// Порядок задаёт хранилище (см. SortEntries). Без пагинации.
func (s *Service) Leaderboard(ctx context.Context) ([]Entry, error) {
	return s.store.Leaderboard(ctx)
}

// Rank возвращает место пользователя в лидерборде (с 1).
func (s *Service) Rank(ctx context.Context, userID int64) (int, error) {
	entries, err := s.Leaderboard(ctx)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if e.UserID == userID {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("user_id=%d: %w", userID, common.ErrUserNotFound)
}

// StreakTimestamp возвращает время последнего действия для стрика.
func (s *Service) StreakTimestamp(ctx context.Context, userID int64) (int64, bool, error) {
	return s.store.GetStreakTimestamp(ctx, userID)
}

// SetStreakTimestamp записывает время последнего действия для стрика.
func (s *Service) SetStreakTimestamp(ctx context.Context, userID int64, ts int64) error {
	return s.store.SetStreakTimestamp(ctx, userID, ts)
}

// SortEntries упорядочивает строки лидерборда: очки по убыванию, при равенстве — по id.
func SortEntries(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		switch {
		case a.Points > b.Points:
			return -1
		case a.Points < b.Points:
			return 1
		case a.UserID < b.UserID:
			return -1
		case a.UserID > b.UserID:
			return 1
		}
		return 0
	})
}
