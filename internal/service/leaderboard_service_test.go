package service

import (
	"context"
	"testing"
	"time"

	"gamified_ds_backend/internal/model"
	"gamified_ds_backend/internal/repository"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

func newTestLeaderboardService(t *testing.T) (*LeaderboardService, *ProgressService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	progressRepo := repository.NewProgressRepository(db)
	userRepo := repository.NewUserRepository(db)
	board := NewLeaderboardService(progressRepo, userRepo, nil, 0)
	return board, NewProgressService(progressRepo, board), db
}

func newCachedLeaderboardService(t *testing.T) (*LeaderboardService, *ProgressService, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	db := newTestDB(t)
	progressRepo := repository.NewProgressRepository(db)
	userRepo := repository.NewUserRepository(db)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	board := NewLeaderboardService(progressRepo, userRepo, client, time.Minute)
	return board, NewProgressService(progressRepo, board), db, mr
}

func seedProgress(t *testing.T, db *gorm.DB, user *model.User, p model.Progress) {
	t.Helper()
	p.UserID = user.ID
	if p.CurrentLevel == 0 {
		p.CurrentLevel = 1
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed progress for %s: %v", user.Username, err)
	}
}

func TestEmptyLeaderboard(t *testing.T) {
	board, _, _ := newTestLeaderboardService(t)

	got, err := board.GetLeaderboard(context.Background(), "")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}

	if len(got.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(got.Entries))
	}
	if got.TotalPlayers != 0 {
		t.Errorf("totalPlayers = %d, want 0", got.TotalPlayers)
	}
	if got.Message != EmptyLeaderboardMessage {
		t.Errorf("message = %q, want %q", got.Message, EmptyLeaderboardMessage)
	}
}

func TestLeaderboardMessages(t *testing.T) {
	board, svc, db := newTestLeaderboardService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	if _, err := svc.SubmitQuizResult(ctx, alice.ID, QuizSubmission{Topic: "Stack", Score: 5, MaxScore: 10}); err != nil {
		t.Fatal(err)
	}

	got, err := board.GetLeaderboard(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Message != "1 player competing" {
		t.Errorf("message = %q, want %q", got.Message, "1 player competing")
	}

	bob := createTestUser(t, db, "bob")
	if _, err := svc.SubmitQuizResult(ctx, bob.ID, QuizSubmission{Topic: "Array", Score: 3, MaxScore: 10}); err != nil {
		t.Fatal(err)
	}

	got, err = board.GetLeaderboard(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Message != "2 players competing" {
		t.Errorf("message = %q, want %q", got.Message, "2 players competing")
	}
}

func TestLeaderboardOrderingAndRanks(t *testing.T) {
	board, _, db := newTestLeaderboardService(t)

	// Distinct totals: ranks follow totalScore descending.
	seedProgress(t, db, createTestUser(t, db, "low"), model.Progress{TotalScore: 5, XP: 50})
	seedProgress(t, db, createTestUser(t, db, "high"), model.Progress{TotalScore: 20, XP: 200})
	seedProgress(t, db, createTestUser(t, db, "mid"), model.Progress{TotalScore: 12, XP: 120})

	got, err := board.GetLeaderboard(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}

	wantOrder := []string{"high", "mid", "low"}
	if len(got.Entries) != len(wantOrder) {
		t.Fatalf("entries = %d, want %d", len(got.Entries), len(wantOrder))
	}
	for i, want := range wantOrder {
		e := got.Entries[i]
		if e.Username != want {
			t.Errorf("entry %d = %q, want %q", i, e.Username, want)
		}
		if e.Rank != i+1 {
			t.Errorf("entry %d rank = %d, want %d", i, e.Rank, i+1)
		}
	}
}

func TestLeaderboardTieBreaks(t *testing.T) {
	board, _, db := newTestLeaderboardService(t)

	// All four tie on totalScore. levelup wins on level, then xp breaks the
	// remaining tie, and a full tie keeps insertion order (older first).
	seedProgress(t, db, createTestUser(t, db, "xplow"), model.Progress{TotalScore: 10, XP: 40, CurrentLevel: 1})
	seedProgress(t, db, createTestUser(t, db, "levelup"), model.Progress{TotalScore: 10, XP: 40, CurrentLevel: 3})
	seedProgress(t, db, createTestUser(t, db, "xphigh"), model.Progress{TotalScore: 10, XP: 90, CurrentLevel: 1})
	seedProgress(t, db, createTestUser(t, db, "xplow2"), model.Progress{TotalScore: 10, XP: 40, CurrentLevel: 1})

	got, err := board.GetLeaderboard(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}

	wantOrder := []string{"levelup", "xphigh", "xplow", "xplow2"}
	for i, want := range wantOrder {
		if got.Entries[i].Username != want {
			t.Errorf("entry %d = %q, want %q", i, got.Entries[i].Username, want)
		}
	}
}

func TestLeaderboardDeterministic(t *testing.T) {
	board, _, db := newTestLeaderboardService(t)

	seedProgress(t, db, createTestUser(t, db, "p1"), model.Progress{TotalScore: 10, XP: 40})
	seedProgress(t, db, createTestUser(t, db, "p2"), model.Progress{TotalScore: 10, XP: 40})
	seedProgress(t, db, createTestUser(t, db, "p3"), model.Progress{TotalScore: 10, XP: 40})

	ctx := context.Background()
	first, err := board.GetLeaderboard(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := board.GetLeaderboard(ctx, "")
		if err != nil {
			t.Fatal(err)
		}
		for j := range first.Entries {
			if again.Entries[j].Username != first.Entries[j].Username {
				t.Fatalf("run %d entry %d = %q, want %q (order must be stable)",
					i, j, again.Entries[j].Username, first.Entries[j].Username)
			}
		}
	}
}

func TestLeaderboardTopicFilter(t *testing.T) {
	board, _, db := newTestLeaderboardService(t)

	// stacker leads on Stack, arrayer leads on Array and on the global total.
	seedProgress(t, db, createTestUser(t, db, "stacker"), model.Progress{
		StackScore: 9, StackMissionScore: 5, TotalScore: 14, XP: 140,
	})
	seedProgress(t, db, createTestUser(t, db, "arrayer"), model.Progress{
		ArrayScore: 10, ArrayMissionScore: 8, TotalScore: 18, XP: 180,
	})

	ctx := context.Background()

	global, err := board.GetLeaderboard(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if global.Entries[0].Username != "arrayer" {
		t.Errorf("global leader = %q, want arrayer", global.Entries[0].Username)
	}

	stack, err := board.GetLeaderboard(ctx, model.TopicStack)
	if err != nil {
		t.Fatal(err)
	}
	if stack.Entries[0].Username != "stacker" {
		t.Errorf("stack leader = %q, want stacker", stack.Entries[0].Username)
	}
	if stack.Entries[0].StackOverallScore != 14 {
		t.Errorf("stack overall = %d, want 14", stack.Entries[0].StackOverallScore)
	}

	array, err := board.GetLeaderboard(ctx, model.TopicArray)
	if err != nil {
		t.Fatal(err)
	}
	if array.Entries[0].Username != "arrayer" {
		t.Errorf("array leader = %q, want arrayer", array.Entries[0].Username)
	}
}

func TestLeaderboardExcludesDeletedUsers(t *testing.T) {
	board, _, db := newTestLeaderboardService(t)

	keep := createTestUser(t, db, "keep")
	gone := createTestUser(t, db, "gone")
	seedProgress(t, db, keep, model.Progress{TotalScore: 5, XP: 50})
	seedProgress(t, db, gone, model.Progress{TotalScore: 50, XP: 500})

	if err := db.Delete(&model.User{}, gone.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	got, err := board.GetLeaderboard(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(got.Entries))
	}
	if got.Entries[0].Username != "keep" || got.Entries[0].Rank != 1 {
		t.Errorf("entry = %+v, want keep at rank 1", got.Entries[0])
	}
}

func TestLeaderboardCacheInvalidatedOnSubmission(t *testing.T) {
	board, svc, db, _ := newCachedLeaderboardService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	if _, err := svc.SubmitQuizResult(ctx, alice.ID, QuizSubmission{Topic: "Stack", Score: 5, MaxScore: 10}); err != nil {
		t.Fatal(err)
	}

	first, err := board.GetLeaderboard(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if first.TotalPlayers != 1 {
		t.Fatalf("totalPlayers = %d, want 1", first.TotalPlayers)
	}

	bob := createTestUser(t, db, "bob")
	if _, err := svc.SubmitQuizResult(ctx, bob.ID, QuizSubmission{Topic: "Array", Score: 3, MaxScore: 10}); err != nil {
		t.Fatal(err)
	}

	after, err := board.GetLeaderboard(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if after.TotalPlayers != 2 {
		t.Errorf("totalPlayers = %d, want 2 (cached board must not outlive the write)", after.TotalPlayers)
	}
}

func TestLeaderboardUnknownTopicServesFreshGlobalBoard(t *testing.T) {
	board, svc, db, mr := newCachedLeaderboardService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	if _, err := svc.SubmitQuizResult(ctx, alice.ID, QuizSubmission{Topic: "Stack", Score: 5, MaxScore: 10}); err != nil {
		t.Fatal(err)
	}

	// Prime the cache through an unnormalized topic value.
	primed, err := board.GetLeaderboard(ctx, "Queue")
	if err != nil {
		t.Fatal(err)
	}
	if primed.TotalPlayers != 1 {
		t.Fatalf("totalPlayers = %d, want 1", primed.TotalPlayers)
	}

	bob := createTestUser(t, db, "bob")
	if _, err := svc.SubmitQuizResult(ctx, bob.ID, QuizSubmission{Topic: "Array", Score: 3, MaxScore: 10}); err != nil {
		t.Fatal(err)
	}

	for _, topic := range []model.Topic{"Queue", "stack", ""} {
		got, err := board.GetLeaderboard(ctx, topic)
		if err != nil {
			t.Fatal(err)
		}
		if got.TotalPlayers != 2 {
			t.Errorf("topic %q totalPlayers = %d, want 2 (must rank as the freshly invalidated global board)", topic, got.TotalPlayers)
		}
	}

	// Client-supplied topics must not mint cache keys of their own.
	allowed := map[string]bool{
		"leaderboard:global":      true,
		"leaderboard:topic:Stack": true,
		"leaderboard:topic:Array": true,
	}
	for _, key := range mr.Keys() {
		if !allowed[key] {
			t.Errorf("unexpected cache key %q", key)
		}
	}
}

func TestLeaderboardEntryFields(t *testing.T) {
	board, svc, db := newTestLeaderboardService(t)
	ctx := context.Background()

	user := createTestUser(t, db, "fields")
	if _, err := svc.SubmitQuizResult(ctx, user.ID, QuizSubmission{Topic: "Stack", Score: 6, MaxScore: 10}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitMissionResult(ctx, user.ID, MissionSubmission{Topic: "Array", Score: 4, MaxScore: 10}); err != nil {
		t.Fatal(err)
	}

	got, err := board.GetLeaderboard(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(got.Entries))
	}

	e := got.Entries[0]
	if e.StackScore != 6 || e.ArrayMissionScore != 4 {
		t.Errorf("scores = %d/%d, want 6/4", e.StackScore, e.ArrayMissionScore)
	}
	if e.MissionTotal != 4 {
		t.Errorf("missionTotal = %d, want 4", e.MissionTotal)
	}
	if e.Total != 10 {
		t.Errorf("total = %d, want 10", e.Total)
	}
	if e.XP != 100 {
		t.Errorf("xp = %d, want 100", e.XP)
	}
	if e.Level != 2 {
		t.Errorf("level = %d, want 2", e.Level)
	}
	if e.TotalQuizzes != 1 || e.TotalMissions != 1 {
		t.Errorf("counts = %d/%d, want 1/1", e.TotalQuizzes, e.TotalMissions)
	}
}
