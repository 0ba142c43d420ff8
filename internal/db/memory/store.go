// Package memory — хранилище в памяти процесса.
// Используется при STORAGE_DRIVER=memory (локальная отладка без PostgreSQL)
// и как хранилище в тестах. Данные теряются при перезапуске.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"serotonyl.ru/fitmates-bot/internal/common"
	"serotonyl.ru/fitmates-bot/internal/features/profile"
	"serotonyl.ru/fitmates-bot/internal/features/workout"
)

type userRecord struct {
	user    profile.User
	streakT *int64 // NULL = ещё не записано
}

type friendKey struct{ a, b int64 }

// Store реализует profile.Store, workout.TaskStore и friends.Store.
type Store struct {
	mu      sync.RWMutex
	users   map[int64]*userRecord
	tasks   []workout.Task
	nextID  int64
	friends map[friendKey]struct{}

	// Fail — если задано, операции возвращают ErrStorageUnavailable.
	Fail error
	// FailOp сужает Fail до одной операции (например, OpUpdateUser).
	FailOp string
}

// Операции, которые можно уронить через FailOp.
const (
	OpMarkTask        = "отметка задания"
	OpUpdateUser      = "обновление пользователя"
	OpStreakTimestamp = "запись streak_timestamp"
)

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		users:   make(map[int64]*userRecord),
		friends: make(map[friendKey]struct{}),
	}
}

func (s *Store) check(op string) error {
	if s.Fail != nil && (s.FailOp == "" || s.FailOp == op) {
		return common.StorageError(op, s.Fail)
	}
	return nil
}

// AddUser создаёт пользователя или обновляет язык.
// Новый пользователь получает streak_timestamp = 0, как и в схеме PostgreSQL.
func (s *Store) AddUser(_ context.Context, userID int64, username, lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("создание пользователя"); err != nil {
		return err
	}
	if rec, ok := s.users[userID]; ok {
		rec.user.Lang = lang
		return nil
	}
	zero := int64(0)
	s.users[userID] = &userRecord{
		user: profile.User{
			ID:               userID,
			Username:         username,
			Lang:             lang,
			StrengthModifier: profile.DefaultStrengthModifier,
			CreatedAt:        time.Now(),
		},
		streakT: &zero,
	}
	return nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (*profile.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("чтение пользователя"); err != nil {
		return nil, err
	}
	rec, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user_id=%d: %w", userID, common.ErrUserNotFound)
	}
	u := rec.user
	return &u, nil
}

func (s *Store) UpdateUser(_ context.Context, userID int64, points int64, streak, tasksCompleted int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpUpdateUser); err != nil {
		return err
	}
	rec, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user_id=%d: %w", userID, common.ErrUserNotFound)
	}
	rec.user.Points = points
	rec.user.Streak = streak
	rec.user.TasksCompleted = tasksCompleted
	return nil
}

func (s *Store) Leaderboard(_ context.Context) ([]profile.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("лидерборд"); err != nil {
		return nil, err
	}
	out := make([]profile.Entry, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, entryOf(rec.user))
	}
	profile.SortEntries(out)
	return out, nil
}

func (s *Store) GetStreakTimestamp(_ context.Context, userID int64) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("чтение streak_timestamp"); err != nil {
		return 0, false, err
	}
	rec, ok := s.users[userID]
	if !ok {
		return 0, false, fmt.Errorf("user_id=%d: %w", userID, common.ErrUserNotFound)
	}
	if rec.streakT == nil {
		return 0, false, nil
	}
	return *rec.streakT, true, nil
}

func (s *Store) SetStreakTimestamp(_ context.Context, userID int64, ts int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpStreakTimestamp); err != nil {
		return err
	}
	rec, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user_id=%d: %w", userID, common.ErrUserNotFound)
	}
	rec.streakT = &ts
	return nil
}

func (s *Store) AddTaskBatch(_ context.Context, userID int64, tasks []workout.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("запись пачки заданий"); err != nil {
		return err
	}
	for _, t := range tasks {
		s.nextID++
		t.ID = s.nextID
		t.UserID = userID
		t.Status = workout.StatusPending
		t.CompletedAt = nil
		s.tasks = append(s.tasks, t)
	}
	return nil
}

// GetPendingTasks возвращает невыполненные задания по порядку Index.
func (s *Store) GetPendingTasks(_ context.Context, userID int64) ([]workout.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("чтение заданий"); err != nil {
		return nil, err
	}
	var out []workout.Task
	for _, t := range s.tasks {
		if t.UserID == userID && t.Status == workout.StatusPending {
			out = append(out, t)
		}
	}
	sortByIndex(out)
	return out, nil
}

// CommitCompletion — аналог транзакции PostgreSQL: все проверки выполняются
// до первой записи, поэтому при ошибке хранилище не меняется.
func (s *Store) CommitCompletion(_ context.Context, c workout.CompletionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(OpMarkTask); err != nil {
		return err
	}
	task := s.findPending(c.UserID, c.Code)
	if task == nil {
		return fmt.Errorf("user_id=%d code=%s: %w", c.UserID, c.Code, common.ErrTaskNotFound)
	}
	if err := s.check(OpUpdateUser); err != nil {
		return err
	}
	rec, ok := s.users[c.UserID]
	if !ok {
		return fmt.Errorf("user_id=%d: %w", c.UserID, common.ErrUserNotFound)
	}
	if err := s.check(OpStreakTimestamp); err != nil {
		return err
	}

	at := c.CompletedAt
	task.Status = workout.StatusCompleted
	task.CompletedAt = &at
	rec.user.Points = c.Points
	rec.user.Streak = c.Streak
	rec.user.TasksCompleted = c.TasksCompleted
	ts := c.CompletedAt
	rec.streakT = &ts
	return nil
}

func (s *Store) findPending(userID int64, code string) *workout.Task {
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.UserID == userID && t.Code == code && t.Status == workout.StatusPending {
			return t
		}
	}
	return nil
}

func (s *Store) DeleteStalePending(_ context.Context, before int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ротация заданий"); err != nil {
		return 0, err
	}
	kept := s.tasks[:0]
	var deleted int64
	for _, t := range s.tasks {
		if t.Status == workout.StatusPending && t.CreatedAt < before {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	return deleted, nil
}

func (s *Store) AcceptFriend(_ context.Context, userA, userB int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("запись дружбы"); err != nil {
		return err
	}
	s.friends[friendKey{userA, userB}] = struct{}{}
	s.friends[friendKey{userB, userA}] = struct{}{}
	return nil
}

// GetFriends — аналог JOIN friends/users: друзья без профиля пропускаются.
func (s *Store) GetFriends(_ context.Context, userID int64) ([]profile.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("чтение друзей"); err != nil {
		return nil, err
	}
	var out []profile.Entry
	for k := range s.friends {
		if k.a != userID {
			continue
		}
		if rec, ok := s.users[k.b]; ok {
			out = append(out, entryOf(rec.user))
		}
	}
	profile.SortEntries(out)
	return out, nil
}

func entryOf(u profile.User) profile.Entry {
	return profile.Entry{UserID: u.ID, Username: u.Username, Points: u.Points, Streak: u.Streak}
}

func sortByIndex(tasks []workout.Task) {
	slices.SortStableFunc(tasks, func(a, b workout.Task) int { return cmp.Compare(a.Index, b.Index) })
}
