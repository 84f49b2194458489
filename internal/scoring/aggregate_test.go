package scoring

import (
	"reflect"
	"testing"

	"gamified_ds_backend/internal/model"
)

func attempt(topic string, score int) model.QuizAttempt {
	return model.QuizAttempt{Topic: topic, Score: score, MaxScore: 10}
}

func mission(topic string, score int) model.MissionCompletion {
	return model.MissionCompletion{Topic: topic, Score: score, MaxScore: 10}
}

func TestRecomputeBestScores(t *testing.T) {
	p := &model.Progress{
		QuizAttempts: []model.QuizAttempt{
			attempt("Stack", 6),
			attempt("Stack", 8),
			attempt("Stack", 4), // regression must not lower the best
			attempt("Array", 3),
		},
		MissionsCompleted: []model.MissionCompletion{
			mission("Array", 5),
		},
	}

	Recompute(p)

	if p.StackScore != 8 {
		t.Errorf("StackScore = %d, want 8", p.StackScore)
	}
	if p.ArrayScore != 3 {
		t.Errorf("ArrayScore = %d, want 3", p.ArrayScore)
	}
	if p.ArrayMissionScore != 5 {
		t.Errorf("ArrayMissionScore = %d, want 5", p.ArrayMissionScore)
	}
	if p.StackOverallScore != 8 {
		t.Errorf("StackOverallScore = %d, want 8", p.StackOverallScore)
	}
	if p.ArrayOverallScore != 8 {
		t.Errorf("ArrayOverallScore = %d, want 8", p.ArrayOverallScore)
	}
	if p.MissionTotalScore != 5 {
		t.Errorf("MissionTotalScore = %d, want 5", p.MissionTotalScore)
	}
	if p.TotalScore != 16 {
		t.Errorf("TotalScore = %d, want 16", p.TotalScore)
	}
}

func TestRecomputeSumInvariants(t *testing.T) {
	p := &model.Progress{
		QuizAttempts: []model.QuizAttempt{
			attempt("Stack", 7),
			attempt("Array", 9),
		},
		MissionsCompleted: []model.MissionCompletion{
			mission("Stack", 2),
			mission("Array", 6),
		},
	}

	Recompute(p)

	if p.StackOverallScore != p.StackScore+p.StackMissionScore {
		t.Errorf("StackOverallScore %d != StackScore %d + StackMissionScore %d",
			p.StackOverallScore, p.StackScore, p.StackMissionScore)
	}
	if p.ArrayOverallScore != p.ArrayScore+p.ArrayMissionScore {
		t.Errorf("ArrayOverallScore %d != ArrayScore %d + ArrayMissionScore %d",
			p.ArrayOverallScore, p.ArrayScore, p.ArrayMissionScore)
	}
	if p.TotalScore != p.StackOverallScore+p.ArrayOverallScore {
		t.Errorf("TotalScore %d != StackOverallScore %d + ArrayOverallScore %d",
			p.TotalScore, p.StackOverallScore, p.ArrayOverallScore)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	p := &model.Progress{
		QuizAttempts:      []model.QuizAttempt{attempt("Stack", 6), attempt("Array", 4)},
		MissionsCompleted: []model.MissionCompletion{mission("Stack", 3)},
		XP:                130,
		CurrentLevel:      2,
	}

	Recompute(p)
	first := withoutHistory(*p)
	Recompute(p)

	if !reflect.DeepEqual(withoutHistory(*p), first) {
		t.Errorf("second recompute changed aggregates: got %+v, want %+v", withoutHistory(*p), first)
	}
}

func TestRecomputeIgnoresUnknownTopic(t *testing.T) {
	p := &model.Progress{
		QuizAttempts: []model.QuizAttempt{
			attempt("Queue", 9),
			attempt("Stack", 2),
		},
		MissionsCompleted: []model.MissionCompletion{
			mission("", 7),
		},
	}

	Recompute(p)

	if p.StackScore != 2 || p.ArrayScore != 0 {
		t.Errorf("unknown topic leaked into best scores: stack=%d array=%d", p.StackScore, p.ArrayScore)
	}
	if p.MissionTotalScore != 0 {
		t.Errorf("unknown topic leaked into mission total: %d", p.MissionTotalScore)
	}
}

func TestRecomputeEmptyHistory(t *testing.T) {
	p := &model.Progress{}
	Recompute(p)

	if p.TotalScore != 0 || p.StackOverallScore != 0 || p.ArrayOverallScore != 0 {
		t.Errorf("empty history should yield zero aggregates, got %+v", withoutHistory(*p))
	}
}

func TestApplyLevelHighWaterMark(t *testing.T) {
	p := &model.Progress{XP: 300, CurrentLevel: 1}
	ApplyLevel(p)
	if p.CurrentLevel != 3 {
		t.Fatalf("CurrentLevel = %d, want 3", p.CurrentLevel)
	}

	// A stored level above the XP-implied one is never lowered.
	p = &model.Progress{XP: 50, CurrentLevel: 4}
	ApplyLevel(p)
	if p.CurrentLevel != 4 {
		t.Fatalf("CurrentLevel dropped to %d", p.CurrentLevel)
	}
}

func TestRankingScoreSelection(t *testing.T) {
	p := &model.Progress{
		StackScore:        8,
		StackMissionScore: 3,
		StackOverallScore: 11,
		ArrayScore:        5,
		ArrayMissionScore: 4,
		ArrayOverallScore: 9,
		TotalScore:        20,
	}

	if got := RankingScore(p, model.TopicStack); got != 11 {
		t.Errorf("stack ranking score = %d, want 11", got)
	}
	if got := RankingScore(p, model.TopicArray); got != 9 {
		t.Errorf("array ranking score = %d, want 9", got)
	}
	if got := RankingScore(p, ""); got != 20 {
		t.Errorf("global ranking score = %d, want 20", got)
	}

	// Zero-default overall columns fall back to the defining sum.
	legacy := &model.Progress{StackScore: 6, StackMissionScore: 2}
	if got := RankingScore(legacy, model.TopicStack); got != 8 {
		t.Errorf("fallback ranking score = %d, want 8", got)
	}
}

func TestEffectiveAndDisplayLevel(t *testing.T) {
	// Unset stored level falls back to the XP formula for tie-breaks.
	p := &model.Progress{XP: 350}
	if got := EffectiveLevel(p); got != 3 {
		t.Errorf("EffectiveLevel = %d, want 3", got)
	}

	// Display never shows less than either the stored mark or current XP.
	p = &model.Progress{XP: 700, CurrentLevel: 2}
	if got := DisplayLevel(p); got != 5 {
		t.Errorf("DisplayLevel = %d, want 5", got)
	}
	p = &model.Progress{XP: 50, CurrentLevel: 4}
	if got := DisplayLevel(p); got != 4 {
		t.Errorf("DisplayLevel = %d, want 4", got)
	}
}

// withoutHistory strips the slice fields so Progress values compare with ==.
func withoutHistory(p model.Progress) model.Progress {
	p.QuizAttempts = nil
	p.MissionsCompleted = nil
	return p
}
