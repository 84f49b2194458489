package service

import (
	"context"
	"sync"
	"time"

	"gamified_ds_backend/internal/model"
	"gamified_ds_backend/internal/repository"
	"gamified_ds_backend/internal/scoring"
	"gamified_ds_backend/internal/util"
	"gamified_ds_backend/pkg/monitoring"
)

// ProgressService is the submission API: it appends immutable history entries,
// applies the cumulative XP rule, and triggers the aggregate recompute, all
// inside one per-user serialized transaction.
type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	Leaderboard  *LeaderboardService

	// Submissions for the same user are serialized in-process so concurrent
	// submits (double-click, parallel tabs) cannot lose XP increments. Ranking
	// reads need no lock; they see each record's last persisted state.
	locksMu sync.Mutex
	locks   map[uint]*sync.Mutex
}

func NewProgressService(progressRepo *repository.ProgressRepository, leaderboard *LeaderboardService) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		Leaderboard:  leaderboard,
		locks:        make(map[uint]*sync.Mutex),
	}
}

// Aggregates is the wire shape returned by both submit operations. Field names
// are keyed into by the frontend and must not change.
type Aggregates struct {
	StackScore        int `json:"stackScore"`
	ArrayScore        int `json:"arrayScore"`
	StackMissionScore int `json:"stackMissionScore"`
	ArrayMissionScore int `json:"arrayMissionScore"`
	StackOverallScore int `json:"stackOverallScore"`
	ArrayOverallScore int `json:"arrayOverallScore"`
	TotalScore        int `json:"totalScore"`
	MissionTotalScore int `json:"missionTotalScore"`
	XP                int `json:"xp"`
}

// ProgressData is the wire shape of the progress query.
type ProgressData struct {
	Aggregates
	Streak        int `json:"streak"`
	CurrentLevel  int `json:"currentLevel"`
	NextLevelXP   int `json:"nextLevelXp"`
	TotalQuizzes  int `json:"totalQuizzes"`
	StackQuizzes  int `json:"stackQuizzes"`
	ArrayQuizzes  int `json:"arrayQuizzes"`
	TotalMissions int `json:"totalMissions"`
	StackMissions int `json:"stackMissions"`
	ArrayMissions int `json:"arrayMissions"`
}

// QuizSubmission carries one quiz result with defaults already resolved
// (maxScore 10, timeTaken 0 when omitted).
type QuizSubmission struct {
	Topic     string
	Score     int
	MaxScore  int
	TimeTaken int
}

// MissionSubmission carries one story-mission result.
type MissionSubmission struct {
	Topic    string
	Score    int
	MaxScore int
}

// SubmitQuizResult appends a quiz attempt to the user's history, adds 10 XP per
// point (cumulative; regressions still earn XP), recomputes the best-score
// aggregates, and persists everything atomically. The progress record is
// created on first submission.
func (s *ProgressService) SubmitQuizResult(ctx context.Context, userID uint, sub QuizSubmission) (*Aggregates, error) {
	if sub.Topic == "" {
		return nil, util.ErrTopicAndScoreRequired
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	attempt := &model.QuizAttempt{
		Topic:       sub.Topic,
		Score:       sub.Score,
		MaxScore:    sub.MaxScore,
		TimeTaken:   sub.TimeTaken,
		CompletedAt: now,
	}

	progress, err := s.ProgressRepo.AppendQuizAttempt(userID, attempt, func(p *model.Progress) {
		p.XP += scoring.XPPerPoint * sub.Score
		touchStreak(p, now)
		p.LastActivityDate = now
		scoring.Recompute(p)
		scoring.ApplyLevel(p)
	})
	if err != nil {
		return nil, util.NewStorageError("submit quiz result", err)
	}

	monitoring.SubmissionCounter.WithLabelValues("quiz", topicLabel(sub.Topic)).Inc()
	s.invalidateLeaderboard(ctx)

	return aggregatesOf(progress), nil
}

// SubmitMissionResult is the story-mission counterpart of SubmitQuizResult.
func (s *ProgressService) SubmitMissionResult(ctx context.Context, userID uint, sub MissionSubmission) (*Aggregates, error) {
	if sub.Topic == "" {
		return nil, util.ErrTopicAndScoreRequired
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	completion := &model.MissionCompletion{
		Topic:       sub.Topic,
		Score:       sub.Score,
		MaxScore:    sub.MaxScore,
		CompletedAt: now,
	}

	progress, err := s.ProgressRepo.AppendMissionCompletion(userID, completion, func(p *model.Progress) {
		p.XP += scoring.XPPerPoint * sub.Score
		touchStreak(p, now)
		p.LastActivityDate = now
		scoring.Recompute(p)
		scoring.ApplyLevel(p)
	})
	if err != nil {
		return nil, util.NewStorageError("submit mission result", err)
	}

	monitoring.SubmissionCounter.WithLabelValues("mission", topicLabel(sub.Topic)).Inc()
	s.invalidateLeaderboard(ctx)

	return aggregatesOf(progress), nil
}

// GetProgress returns the user's aggregates and per-topic history counts,
// lazily creating a zeroed record on first query.
func (s *ProgressService) GetProgress(userID uint) (*ProgressData, error) {
	progress, err := s.ProgressRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return nil, util.NewStorageError("load progress", err)
	}

	stackQuizzes, arrayQuizzes := countQuizzesByTopic(progress.QuizAttempts)
	stackMissions, arrayMissions := countMissionsByTopic(progress.MissionsCompleted)

	return &ProgressData{
		Aggregates:    *aggregatesOf(progress),
		Streak:        progress.Streak,
		CurrentLevel:  progress.CurrentLevel,
		NextLevelXP:   scoring.XPThresholdForLevel(progress.CurrentLevel + 1),
		TotalQuizzes:  len(progress.QuizAttempts),
		StackQuizzes:  stackQuizzes,
		ArrayQuizzes:  arrayQuizzes,
		TotalMissions: len(progress.MissionsCompleted),
		StackMissions: stackMissions,
		ArrayMissions: arrayMissions,
	}, nil
}

func (s *ProgressService) userLock(userID uint) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *ProgressService) invalidateLeaderboard(ctx context.Context) {
	if s.Leaderboard != nil {
		s.Leaderboard.InvalidateCache(ctx)
	}
}

// touchStreak maintains the day-based activity streak: same-day activity keeps
// it, next-day activity extends it, a gap resets it to 1.
func touchStreak(p *model.Progress, now time.Time) {
	if p.LastActivityDate.IsZero() {
		p.Streak = 1
		return
	}

	last := dayOf(p.LastActivityDate)
	today := dayOf(now)

	switch days := int(today.Sub(last).Hours() / 24); {
	case days == 0:
		if p.Streak == 0 {
			p.Streak = 1
		}
	case days == 1:
		p.Streak++
	default:
		p.Streak = 1
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func aggregatesOf(p *model.Progress) *Aggregates {
	return &Aggregates{
		StackScore:        p.StackScore,
		ArrayScore:        p.ArrayScore,
		StackMissionScore: p.StackMissionScore,
		ArrayMissionScore: p.ArrayMissionScore,
		StackOverallScore: p.StackOverallScore,
		ArrayOverallScore: p.ArrayOverallScore,
		TotalScore:        p.TotalScore,
		MissionTotalScore: p.MissionTotalScore,
		XP:                p.XP,
	}
}

func countQuizzesByTopic(attempts []model.QuizAttempt) (stack, array int) {
	for _, a := range attempts {
		switch model.Topic(a.Topic) {
		case model.TopicStack:
			stack++
		case model.TopicArray:
			array++
		}
	}
	return stack, array
}

func countMissionsByTopic(missions []model.MissionCompletion) (stack, array int) {
	for _, m := range missions {
		switch model.Topic(m.Topic) {
		case model.TopicStack:
			stack++
		case model.TopicArray:
			array++
		}
	}
	return stack, array
}

// topicLabel caps metric label cardinality: anything but a known topic is
// bucketed as "other".
func topicLabel(topic string) string {
	if model.Topic(topic).Known() {
		return topic
	}
	return "other"
}
