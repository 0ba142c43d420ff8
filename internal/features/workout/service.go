// Package workout — service.go содержит основную бизнес-логику заданий:
// выдачу ежедневной пачки и выполнение задания (стрик → очки → профиль).
package workout

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/fitmates-bot/internal/common"
	"serotonyl.ru/fitmates-bot/internal/features/profile"
)

// TaskStore — хранилище заданий.
type TaskStore interface {
	AddTaskBatch(ctx context.Context, userID int64, tasks []Task) error
	GetPendingTasks(ctx context.Context, userID int64) ([]Task, error)
	CommitCompletion(ctx context.Context, rec CompletionRecord) error
	DeleteStalePending(ctx context.Context, before int64) (int64, error)
}

// CompletionRecord — всё, что записывается при выполнении задания.
// Хранилище применяет запись целиком или не применяет вовсе.
type CompletionRecord struct {
	UserID         int64
	Code           string // Задание, которое переходит pending → completed
	CompletedAt    int64  // Оно же новый streak_timestamp
	Points         int64  // Новые значения профиля, не дельта
	Streak         int
	TasksCompleted int
}

// Profiles — агрегатор профилей. Реализуется *profile.Service.
type Profiles interface {
	GetProfile(ctx context.Context, userID int64) (*profile.User, error)
	StreakTimestamp(ctx context.Context, userID int64) (int64, bool, error)
}

// Completion — результат выполнения задания.
type Completion struct {
	Task    Task
	Points  int64         // Начислено за это задание
	Profile *profile.User // Профиль после начисления
}

// Service управляет заданиями пользователей.
type Service struct {
	tasks     TaskStore
	profiles  Profiles
	generator *Generator
	locks     *common.KeyedMutex
	now       func() time.Time
}

// NewService создаёт новый сервис заданий.
func NewService(tasks TaskStore, profiles Profiles, generator *Generator, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		tasks:     tasks,
		profiles:  profiles,
		generator: generator,
		locks:     common.NewKeyedMutex(),
		now:       now,
	}
}

// GetTasks возвращает текущую пачку заданий.
// Если невыполненных заданий нет — генерирует и сохраняет новую.
func (s *Service) GetTasks(ctx context.Context, userID int64) ([]Task, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	tasks, err := s.tasks.GetPendingTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(tasks) > 0 {
		return tasks, nil
	}

	user, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	batch := s.generator.Generate(userID, user.StrengthModifier)
	if len(batch) == 0 {
		log.WithField("user_id", userID).Warn("Каталог пуст — задания не созданы")
		return nil, nil
	}
	if err := s.tasks.AddTaskBatch(ctx, userID, batch); err != nil {
		return nil, fmt.Errorf("сохранение заданий: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"count":   len(batch),
	}).Info("Созданы задания на день")

	// Перечитываем, чтобы получить ID из хранилища
	return s.tasks.GetPendingTasks(ctx, userID)
}

// CompleteTask выполняет задание с позицией index.
//
// Алгоритм (под блокировкой пользователя):
//  1. Ищем невыполненное задание с этим index (нет — common.ErrTaskNotFound)
//  2. Пересчитываем стрик по streak_timestamp
//  3. Считаем очки с учётом нового стрика
//  4. Одной записью отмечаем задание и обновляем профиль
//
// Если запись не удалась, задание остаётся невыполненным и профиль не меняется.
func (s *Service) CompleteTask(ctx context.Context, userID int64, index int) (*Completion, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	pending, err := s.tasks.GetPendingTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	task, ok := findByIndex(pending, index)
	if !ok {
		return nil, fmt.Errorf("user_id=%d index=%d: %w", userID, index, common.ErrTaskNotFound)
	}

	user, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	last, hasLast, err := s.profiles.StreakTimestamp(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().Unix()
	streak := EvaluateStreak(user.Streak, last, hasLast, now)
	points := ScoreTask(task.Multiplier, user.StrengthModifier, streak)

	rec := CompletionRecord{
		UserID:         userID,
		Code:           task.Code,
		CompletedAt:    now,
		Points:         addPoints(user.Points, points),
		Streak:         streak,
		TasksCompleted: user.TasksCompleted + 1,
	}
	if err := s.tasks.CommitCompletion(ctx, rec); err != nil {
		return nil, err
	}

	if streak != user.Streak {
		log.WithFields(log.Fields{
			"user_id": userID,
			"from":    user.Streak,
			"to":      streak,
		}).Debug("Стрик изменён")
	}
	user.Points = rec.Points
	user.Streak = rec.Streak
	user.TasksCompleted = rec.TasksCompleted
	task.Status = StatusCompleted
	task.CompletedAt = &now

	log.WithFields(log.Fields{
		"user_id": userID,
		"task":    task.Code,
		"points":  points,
		"streak":  user.Streak,
	}).Info("Задание выполнено")

	return &Completion{Task: task, Points: points, Profile: user}, nil
}

// RotateStale удаляет невыполненные задания, созданные раньше before.
// Вызывается кроном в полночь.
func (s *Service) RotateStale(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.tasks.DeleteStalePending(ctx, before.Unix())
	if err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{
		"before":  before.Format(time.RFC3339),
		"deleted": n,
	}).Info("Ротация заданий завершена")
	return n, nil
}

func findByIndex(tasks []Task, index int) (Task, bool) {
	for _, t := range tasks {
		if t.Index == index {
			return t, true
		}
	}
	return Task{}, false
}
