package memory

import "serotonyl.ru/fitmates-bot/internal/features/workout"

// Хуки для тестов и отладки с STORAGE_DRIVER=memory.
// В PostgreSQL то же самое делается вручную через SQL.

// SetStrengthModifier меняет модификатор силы.
func (s *Store) SetStrengthModifier(userID int64, modifier float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.users[userID]; ok {
		rec.user.StrengthModifier = modifier
	}
}

// ClearStreakTimestamp выставляет streak_timestamp в NULL.
func (s *Store) ClearStreakTimestamp(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.users[userID]; ok {
		rec.streakT = nil
	}
}

// CompletedTasks возвращает выполненные задания пользователя (история).
func (s *Store) CompletedTasks(userID int64) []workout.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []workout.Task
	for _, t := range s.tasks {
		if t.UserID == userID && t.Status == workout.StatusCompleted {
			out = append(out, t)
		}
	}
	return out
}
