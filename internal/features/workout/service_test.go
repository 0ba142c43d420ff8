package workout_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"serotonyl.ru/fitmates-bot/internal/common"
	"serotonyl.ru/fitmates-bot/internal/db/memory"
	"serotonyl.ru/fitmates-bot/internal/features/profile"
	"serotonyl.ru/fitmates-bot/internal/features/workout"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *memory.Store
	profiles *profile.Service
	svc      *workout.Service
	clock    *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	profiles := profile.NewService(store)
	c := &clock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	gen := workout.NewGenerator(workout.Catalog, rand.New(rand.NewPCG(1, 2)), c.Now)
	return &fixture{
		store:    store,
		profiles: profiles,
		svc:      workout.NewService(store, profiles, gen, c.Now),
		clock:    c,
	}
}

func (f *fixture) register(t *testing.T, userID int64) {
	t.Helper()
	if err := f.profiles.Register(context.Background(), userID, "user", "en"); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestGetTasksCreatesAndReusesBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)

	first, err := f.svc.GetTasks(ctx, 1)
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(first) != workout.TasksPerDay {
		t.Fatalf("len=%d, want %d", len(first), workout.TasksPerDay)
	}
	for i, task := range first {
		if task.ID == 0 {
			t.Fatalf("task %d has no storage id", i)
		}
		if task.Index != i {
			t.Fatalf("task %d index=%d", i, task.Index)
		}
	}

	second, err := f.svc.GetTasks(ctx, 1)
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("batch regenerated: %+v vs %+v", first[i], second[i])
		}
	}
}

func TestGetTasksUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetTasks(context.Background(), 404)
	if !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("err=%v, want ErrUserNotFound", err)
	}
}

func TestCompleteTaskFirstCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)

	tasks, err := f.svc.GetTasks(ctx, 1)
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}

	res, err := f.svc.CompleteTask(ctx, 1, 1)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if res.Task.Code != tasks[1].Code || res.Task.Status != workout.StatusCompleted {
		t.Fatalf("completed %+v, want %s", res.Task, tasks[1].Code)
	}

	// Новый пользователь: streak_timestamp = 0 → стрик 1
	if res.Profile.Streak != 1 {
		t.Fatalf("streak=%d, want 1", res.Profile.Streak)
	}
	want := workout.ScoreTask(tasks[1].Multiplier, 1.0, 1)
	if res.Points != want {
		t.Fatalf("points=%d, want %d", res.Points, want)
	}

	u, err := f.profiles.GetProfile(ctx, 1)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if u.Points != want || u.TasksCompleted != 1 || u.Streak != 1 {
		t.Fatalf("profile=%+v", u)
	}

	ts, ok, err := f.profiles.StreakTimestamp(ctx, 1)
	if err != nil || !ok || ts != f.clock.Now().Unix() {
		t.Fatalf("streak timestamp=%d ok=%v err=%v", ts, ok, err)
	}

	pending, err := f.svc.GetTasks(ctx, 1)
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending=%d, want 2", len(pending))
	}
	for _, p := range pending {
		if p.Code == res.Task.Code {
			t.Fatalf("completed task %s reappeared", p.Code)
		}
	}
}

func TestCompleteTaskTwiceScoresOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	if _, err := f.svc.GetTasks(ctx, 1); err != nil {
		t.Fatalf("GetTasks: %v", err)
	}

	res, err := f.svc.CompleteTask(ctx, 1, 0)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	_, err = f.svc.CompleteTask(ctx, 1, 0)
	if !errors.Is(err, common.ErrTaskNotFound) {
		t.Fatalf("second completion err=%v, want ErrTaskNotFound", err)
	}

	u, _ := f.profiles.GetProfile(ctx, 1)
	if u.Points != res.Points || u.TasksCompleted != 1 {
		t.Fatalf("profile=%+v, want points=%d tasks=1", u, res.Points)
	}
	if n := len(f.store.CompletedTasks(1)); n != 1 {
		t.Fatalf("completed=%d, want 1", n)
	}
}

func TestCompleteTaskConcurrentSameIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	if _, err := f.svc.GetTasks(ctx, 1); err != nil {
		t.Fatalf("GetTasks: %v", err)
	}

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		notFound  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CompleteTask(ctx, 1, 2)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, common.ErrTaskNotFound):
				notFound++
			default:
				t.Errorf("unexpected err: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || notFound != workers-1 {
		t.Fatalf("successes=%d notFound=%d", successes, notFound)
	}
	u, _ := f.profiles.GetProfile(ctx, 1)
	if u.TasksCompleted != 1 {
		t.Fatalf("tasks_completed=%d, want 1", u.TasksCompleted)
	}
}

func TestGetTasksConcurrentCreatesSingleBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.GetTasks(ctx, 1); err != nil {
				t.Errorf("GetTasks: %v", err)
			}
		}()
	}
	wg.Wait()

	pending, err := f.store.GetPendingTasks(ctx, 1)
	if err != nil {
		t.Fatalf("GetPendingTasks: %v", err)
	}
	if len(pending) != workout.TasksPerDay {
		t.Fatalf("pending=%d, want %d", len(pending), workout.TasksPerDay)
	}
}

func TestCompleteTaskMissingIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)

	if _, err := f.svc.CompleteTask(ctx, 1, 0); !errors.Is(err, common.ErrTaskNotFound) {
		t.Fatalf("no batch: err=%v, want ErrTaskNotFound", err)
	}
	if _, err := f.svc.GetTasks(ctx, 1); err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	for _, idx := range []int{-1, 3, 99} {
		if _, err := f.svc.CompleteTask(ctx, 1, idx); !errors.Is(err, common.ErrTaskNotFound) {
			t.Fatalf("index %d: err=%v, want ErrTaskNotFound", idx, err)
		}
	}
	u, _ := f.profiles.GetProfile(ctx, 1)
	if u.Points != 0 || u.TasksCompleted != 0 {
		t.Fatalf("profile changed: %+v", u)
	}
}

func TestCompleteTaskStreakBeforeScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	tasks, _ := f.svc.GetTasks(ctx, 1)

	// Стрик 4 и последнее действие 30 часов назад → стрик станет 1 до начисления
	now := f.clock.Now().Unix()
	if err := f.profiles.UpdateProfile(ctx, 1, 100, 4, 10); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if err := f.profiles.SetStreakTimestamp(ctx, 1, now-30*3600); err != nil {
		t.Fatalf("SetStreakTimestamp: %v", err)
	}

	res, err := f.svc.CompleteTask(ctx, 1, 0)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	want := workout.ScoreTask(tasks[0].Multiplier, 1.0, 1)
	if res.Points != want {
		t.Fatalf("points=%d, want %d (scored with new streak)", res.Points, want)
	}
	if res.Profile.Streak != 1 || res.Profile.Points != 100+want || res.Profile.TasksCompleted != 11 {
		t.Fatalf("profile=%+v", res.Profile)
	}
}

func TestCompleteTaskBrokenStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	tasks, _ := f.svc.GetTasks(ctx, 1)

	now := f.clock.Now().Unix()
	_ = f.profiles.UpdateProfile(ctx, 1, 0, 3, 0)
	_ = f.profiles.SetStreakTimestamp(ctx, 1, now-3*workout.Day)

	res, err := f.svc.CompleteTask(ctx, 1, 2)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if res.Profile.Streak != 0 {
		t.Fatalf("streak=%d, want 0", res.Profile.Streak)
	}
	if want := workout.ScoreTask(tasks[2].Multiplier, 1.0, 0); res.Points != want {
		t.Fatalf("points=%d, want %d", res.Points, want)
	}
}

func TestCompleteTaskSameDayKeepsStreakAndMovesTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	if _, err := f.svc.GetTasks(ctx, 1); err != nil {
		t.Fatalf("GetTasks: %v", err)
	}

	if _, err := f.svc.CompleteTask(ctx, 1, 0); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	f.clock.Advance(2 * time.Hour)
	res, err := f.svc.CompleteTask(ctx, 1, 1)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if res.Profile.Streak != 1 {
		t.Fatalf("streak=%d, want 1", res.Profile.Streak)
	}
	ts, _, _ := f.profiles.StreakTimestamp(ctx, 1)
	if ts != f.clock.Now().Unix() {
		t.Fatalf("timestamp=%d, want %d", ts, f.clock.Now().Unix())
	}
}

func TestCompleteTaskUnsetTimestampKeepsStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	if _, err := f.svc.GetTasks(ctx, 1); err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	f.store.ClearStreakTimestamp(1)

	res, err := f.svc.CompleteTask(ctx, 1, 0)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if res.Profile.Streak != 0 {
		t.Fatalf("streak=%d, want 0", res.Profile.Streak)
	}
	if _, ok, _ := f.profiles.StreakTimestamp(ctx, 1); !ok {
		t.Fatal("timestamp must be written even when streak is unchanged")
	}
}

func TestCompleteTaskUsesStrengthModifier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	f.store.SetStrengthModifier(1, 2.0)

	tasks, err := f.svc.GetTasks(ctx, 1)
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	res, err := f.svc.CompleteTask(ctx, 1, 0)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if want := workout.ScoreTask(tasks[0].Multiplier, 2.0, 1); res.Points != want {
		t.Fatalf("points=%d, want %d", res.Points, want)
	}
}

func TestStorageFailurePropagates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	if _, err := f.svc.GetTasks(ctx, 1); err != nil {
		t.Fatalf("GetTasks: %v", err)
	}

	f.store.Fail = errors.New("connection refused")
	if _, err := f.svc.GetTasks(ctx, 1); !errors.Is(err, common.ErrStorageUnavailable) {
		t.Fatalf("GetTasks err=%v, want ErrStorageUnavailable", err)
	}
	if _, err := f.svc.CompleteTask(ctx, 1, 0); !errors.Is(err, common.ErrStorageUnavailable) {
		t.Fatalf("CompleteTask err=%v, want ErrStorageUnavailable", err)
	}

	f.store.Fail = nil
	u, _ := f.profiles.GetProfile(ctx, 1)
	if u.Points != 0 || u.TasksCompleted != 0 {
		t.Fatalf("profile changed after failure: %+v", u)
	}
}

func TestCompleteTaskWriteFailureKeepsTaskPending(t *testing.T) {
	for _, op := range []string{memory.OpMarkTask, memory.OpUpdateUser, memory.OpStreakTimestamp} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.register(t, 1)
			if _, err := f.svc.GetTasks(ctx, 1); err != nil {
				t.Fatalf("GetTasks: %v", err)
			}

			f.store.Fail, f.store.FailOp = errors.New("connection refused"), op
			if _, err := f.svc.CompleteTask(ctx, 1, 0); !errors.Is(err, common.ErrStorageUnavailable) {
				t.Fatalf("CompleteTask err=%v, want ErrStorageUnavailable", err)
			}
			f.store.Fail, f.store.FailOp = nil, ""

			pending, _ := f.store.GetPendingTasks(ctx, 1)
			if len(pending) != workout.TasksPerDay {
				t.Fatalf("pending=%d, want %d", len(pending), workout.TasksPerDay)
			}
			u, _ := f.profiles.GetProfile(ctx, 1)
			if u.Points != 0 || u.Streak != 0 || u.TasksCompleted != 0 {
				t.Fatalf("profile changed after failure: %+v", u)
			}
			if ts, _, _ := f.profiles.StreakTimestamp(ctx, 1); ts != 0 {
				t.Fatalf("streak timestamp=%d, want 0", ts)
			}

			// Повтор после восстановления засчитывает задание
			res, err := f.svc.CompleteTask(ctx, 1, 0)
			if err != nil {
				t.Fatalf("retry: %v", err)
			}
			u, _ = f.profiles.GetProfile(ctx, 1)
			if u.Points != res.Points || u.TasksCompleted != 1 {
				t.Fatalf("profile after retry=%+v, want points=%d", u, res.Points)
			}
		})
	}
}

// flakyProfiles роняет одно из чтений профиля.
type flakyProfiles struct {
	workout.Profiles
	failProfile   bool
	failTimestamp bool
}

func (p *flakyProfiles) GetProfile(ctx context.Context, userID int64) (*profile.User, error) {
	if p.failProfile {
		return nil, common.StorageError("чтение пользователя", errors.New("timeout"))
	}
	return p.Profiles.GetProfile(ctx, userID)
}

func (p *flakyProfiles) StreakTimestamp(ctx context.Context, userID int64) (int64, bool, error) {
	if p.failTimestamp {
		return 0, false, common.StorageError("чтение streak_timestamp", errors.New("timeout"))
	}
	return p.Profiles.StreakTimestamp(ctx, userID)
}

func TestCompleteTaskReadFailureKeepsTaskPending(t *testing.T) {
	tests := []struct {
		name  string
		flaky flakyProfiles
	}{
		{"profile", flakyProfiles{failProfile: true}},
		{"streak timestamp", flakyProfiles{failTimestamp: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.register(t, 1)

			flaky := tt.flaky
			flaky.Profiles = f.profiles
			gen := workout.NewGenerator(workout.Catalog, rand.New(rand.NewPCG(1, 2)), f.clock.Now)
			svc := workout.NewService(f.store, &flaky, gen, f.clock.Now)
			if _, err := f.svc.GetTasks(ctx, 1); err != nil {
				t.Fatalf("GetTasks: %v", err)
			}

			if _, err := svc.CompleteTask(ctx, 1, 1); !errors.Is(err, common.ErrStorageUnavailable) {
				t.Fatalf("CompleteTask err=%v, want ErrStorageUnavailable", err)
			}
			if pending, _ := f.store.GetPendingTasks(ctx, 1); len(pending) != workout.TasksPerDay {
				t.Fatalf("pending=%d, want %d", len(pending), workout.TasksPerDay)
			}
			if u, _ := f.profiles.GetProfile(ctx, 1); u.TasksCompleted != 0 {
				t.Fatalf("profile changed: %+v", u)
			}
		})
	}
}

func TestCompleteTaskPointsSaturate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	if _, err := f.svc.GetTasks(ctx, 1); err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if err := f.profiles.UpdateProfile(ctx, 1, math.MaxInt64-5, 0, 0); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	res, err := f.svc.CompleteTask(ctx, 1, 0)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if res.Profile.Points != math.MaxInt64 {
		t.Fatalf("points=%d, want MaxInt64", res.Profile.Points)
	}
	if u, _ := f.profiles.GetProfile(ctx, 1); u.Points != math.MaxInt64 || u.TasksCompleted != 1 {
		t.Fatalf("profile=%+v", u)
	}
}

func TestRotateStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1)
	if _, err := f.svc.GetTasks(ctx, 1); err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if _, err := f.svc.CompleteTask(ctx, 1, 0); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	f.clock.Advance(24 * time.Hour)
	midnight := common.StartOfDay(f.clock.Now(), time.UTC)
	n, err := f.svc.RotateStale(ctx, midnight)
	if err != nil {
		t.Fatalf("RotateStale: %v", err)
	}
	if n != 2 {
		t.Fatalf("deleted=%d, want 2", n)
	}
	if got := len(f.store.CompletedTasks(1)); got != 1 {
		t.Fatalf("completed history=%d, want 1", got)
	}

	fresh, err := f.svc.GetTasks(ctx, 1)
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(fresh) != workout.TasksPerDay {
		t.Fatalf("fresh batch=%d, want %d", len(fresh), workout.TasksPerDay)
	}
}
