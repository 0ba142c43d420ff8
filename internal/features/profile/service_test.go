package profile_test

import (
	"context"
	"errors"
	"testing"

	"serotonyl.ru/fitmates-bot/internal/common"
	"serotonyl.ru/fitmates-bot/internal/db/memory"
	"serotonyl.ru/fitmates-bot/internal/features/profile"
)

func seed(t *testing.T, svc *profile.Service, users map[int64]int64) {
	t.Helper()
	ctx := context.Background()
	for id, points := range users {
		if err := svc.Register(ctx, id, "u", "ru"); err != nil {
			t.Fatalf("Register(%d): %v", id, err)
		}
		if err := svc.UpdateProfile(ctx, id, points, 0, 0); err != nil {
			t.Fatalf("UpdateProfile(%d): %v", id, err)
		}
	}
}

func TestLeaderboardOrder(t *testing.T) {
	svc := profile.NewService(memory.New())
	seed(t, svc, map[int64]int64{7: 150, 3: 200, 5: 150, 9: 0})

	entries, err := svc.Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	want := []int64{3, 5, 7, 9}
	if len(entries) != len(want) {
		t.Fatalf("len=%d, want %d", len(entries), len(want))
	}
	for i, id := range want {
		if entries[i].UserID != id {
			t.Fatalf("position %d: id=%d, want %d (%+v)", i, entries[i].UserID, id, entries)
		}
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Points < entries[i].Points {
			t.Fatalf("not sorted by points: %+v", entries)
		}
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	entries, err := profile.NewService(memory.New()).Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries=%+v", entries)
	}
}

func TestRank(t *testing.T) {
	svc := profile.NewService(memory.New())
	seed(t, svc, map[int64]int64{1: 10, 2: 30, 3: 20})
	ctx := context.Background()

	for id, want := range map[int64]int{2: 1, 3: 2, 1: 3} {
		got, err := svc.Rank(ctx, id)
		if err != nil {
			t.Fatalf("Rank(%d): %v", id, err)
		}
		if got != want {
			t.Fatalf("Rank(%d)=%d, want %d", id, got, want)
		}
	}
	if _, err := svc.Rank(ctx, 100); !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("unknown user err=%v", err)
	}
}

func TestUpdateProfileRejectsNegative(t *testing.T) {
	svc := profile.NewService(memory.New())
	ctx := context.Background()
	seed(t, svc, map[int64]int64{1: 50})

	cases := [][3]int64{{-1, 0, 0}, {0, -1, 0}, {0, 0, -1}}
	for _, c := range cases {
		err := svc.UpdateProfile(ctx, 1, c[0], int(c[1]), int(c[2]))
		if !errors.Is(err, common.ErrInvalidProfile) {
			t.Fatalf("UpdateProfile(%v) err=%v, want ErrInvalidProfile", c, err)
		}
	}
	u, err := svc.GetProfile(ctx, 1)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if u.Points != 50 {
		t.Fatalf("points=%d, want 50", u.Points)
	}
}

func TestUpdateProfileOverwrites(t *testing.T) {
	svc := profile.NewService(memory.New())
	ctx := context.Background()
	seed(t, svc, map[int64]int64{1: 50})

	if err := svc.UpdateProfile(ctx, 1, 10, 2, 4); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	u, _ := svc.GetProfile(ctx, 1)
	if u.Points != 10 || u.Streak != 2 || u.TasksCompleted != 4 {
		t.Fatalf("profile=%+v", u)
	}
	if err := svc.UpdateProfile(ctx, 2, 1, 1, 1); !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("unknown user err=%v", err)
	}
}

func TestRegisterKeepsProgress(t *testing.T) {
	svc := profile.NewService(memory.New())
	ctx := context.Background()
	seed(t, svc, map[int64]int64{1: 120})

	if err := svc.Register(ctx, 1, "u", "en"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	u, _ := svc.GetProfile(ctx, 1)
	if u.Lang != "en" || u.Points != 120 {
		t.Fatalf("profile=%+v", u)
	}
	if u.StrengthModifier != profile.DefaultStrengthModifier {
		t.Fatalf("modifier=%v", u.StrengthModifier)
	}
}

func TestExists(t *testing.T) {
	store := memory.New()
	svc := profile.NewService(store)
	ctx := context.Background()
	seed(t, svc, map[int64]int64{1: 0})

	if ok, err := svc.Exists(ctx, 1); err != nil || !ok {
		t.Fatalf("Exists(1)=%v, %v", ok, err)
	}
	if ok, err := svc.Exists(ctx, 2); err != nil || ok {
		t.Fatalf("Exists(2)=%v, %v", ok, err)
	}

	store.Fail = errors.New("down")
	if _, err := svc.Exists(ctx, 1); !errors.Is(err, common.ErrStorageUnavailable) {
		t.Fatalf("err=%v, want ErrStorageUnavailable", err)
	}
}

func TestSortEntriesStable(t *testing.T) {
	entries := []profile.Entry{
		{UserID: 4, Points: 10},
		{UserID: 2, Points: 10},
		{UserID: 1, Points: 5},
		{UserID: 3, Points: 20},
	}
	profile.SortEntries(entries)
	want := []int64{3, 2, 4, 1}
	for i, id := range want {
		if entries[i].UserID != id {
			t.Fatalf("position %d: id=%d, want %d", i, entries[i].UserID, id)
		}
	}
}

// orderedStore отдаёт лидерборд в заранее заданном порядке.
type orderedStore struct {
	profile.Store
	entries []profile.Entry
}

func (s orderedStore) Leaderboard(context.Context) ([]profile.Entry, error) {
	return s.entries, nil
}

func TestLeaderboardKeepsStoreOrder(t *testing.T) {
	store := orderedStore{entries: []profile.Entry{
		{UserID: 2, Points: 50},
		{UserID: 1, Points: 50},
		{UserID: 3, Points: 10},
	}}
	svc := profile.NewService(store)

	entries, err := svc.Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	for i, id := range []int64{2, 1, 3} {
		if entries[i].UserID != id {
			t.Fatalf("position %d: id=%d, want %d", i, entries[i].UserID, id)
		}
	}
	if rank, err := svc.Rank(context.Background(), 1); err != nil || rank != 2 {
		t.Fatalf("Rank(1)=%d, %v, want 2", rank, err)
	}
}
