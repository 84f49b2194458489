package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"gamified_ds_backend/internal/model"
	"gamified_ds_backend/internal/repository"
	"gamified_ds_backend/internal/scoring"
	"gamified_ds_backend/internal/util"
	"gamified_ds_backend/pkg/logger"
	"gamified_ds_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// EmptyLeaderboardMessage is returned when nobody has scored yet.
const EmptyLeaderboardMessage = "No players yet. Be the first to complete a quiz!"

// LeaderboardService ranks the full player population on demand. Every board
// it serves is an exact recomputation over all progress records; Redis only
// caches already-exact results and is invalidated on every submission.
type LeaderboardService struct {
	ProgressRepo *repository.ProgressRepository
	UserRepo     *repository.UserRepository
	Redis        *redis.Client

	ttlMu    sync.RWMutex
	cacheTTL time.Duration
}

func NewLeaderboardService(progressRepo *repository.ProgressRepository, userRepo *repository.UserRepository, rdb *redis.Client, cacheTTL time.Duration) *LeaderboardService {
	return &LeaderboardService{
		ProgressRepo: progressRepo,
		UserRepo:     userRepo,
		Redis:        rdb,
		cacheTTL:     cacheTTL,
	}
}

// LeaderboardEntry is one ranked row. Ranks are strictly positional and
// 1-based; ties do not share a rank. Field names are keyed into by the
// frontend and must not change.
type LeaderboardEntry struct {
	Rank              int    `json:"rank"`
	Username          string `json:"username"`
	Avatar            string `json:"avatar"`
	StackScore        int    `json:"stackScore"`
	ArrayScore        int    `json:"arrayScore"`
	StackMissionScore int    `json:"stackMissionScore"`
	ArrayMissionScore int    `json:"arrayMissionScore"`
	StackOverallScore int    `json:"stackOverallScore"`
	ArrayOverallScore int    `json:"arrayOverallScore"`
	MissionTotal      int    `json:"missionTotal"`
	Total             int    `json:"total"`
	XP                int    `json:"xp"`
	Level             int    `json:"level"`
	Streak            int    `json:"streak"`
	TotalQuizzes      int    `json:"totalQuizzes"`
	StackQuizzes      int    `json:"stackQuizzes"`
	ArrayQuizzes      int    `json:"arrayQuizzes"`
	TotalMissions     int    `json:"totalMissions"`
	StackMissions     int    `json:"stackMissions"`
	ArrayMissions     int    `json:"arrayMissions"`
}

// Leaderboard is the wire shape of the leaderboard query.
type Leaderboard struct {
	Entries      []LeaderboardEntry `json:"entries"`
	TotalPlayers int                `json:"totalPlayers"`
	Message      string             `json:"message"`
}

// rankedRecord pairs a progress record with its owner for ranking.
type rankedRecord struct {
	Progress model.Progress
	User     model.User
}

// GetLeaderboard returns the ranked board, optionally filtered to one topic's
// overall score. Progress records whose owning user was deleted are excluded.
// An empty population is a valid board, not an error.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, topic model.Topic) (*Leaderboard, error) {
	// Unknown topics rank as the global board; normalizing here keeps the
	// cache keyspace to the three variants InvalidateCache deletes, so no
	// client-supplied topic string can mint a key that outlives a write.
	if !topic.Known() {
		topic = ""
	}

	if board := s.cacheGet(ctx, topic); board != nil {
		monitoring.LeaderboardCacheCounter.WithLabelValues("hit").Inc()
		return board, nil
	}
	monitoring.LeaderboardCacheCounter.WithLabelValues("miss").Inc()

	records, err := s.ProgressRepo.FindAll()
	if err != nil {
		return nil, util.NewStorageError("load leaderboard records", err)
	}

	ids := make([]uint, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.UserID)
	}
	users, err := s.UserRepo.FindByIDs(ids)
	if err != nil {
		return nil, util.NewStorageError("load leaderboard users", err)
	}

	ranked := make([]rankedRecord, 0, len(records))
	for _, r := range records {
		user, ok := users[r.UserID]
		if !ok {
			continue
		}
		ranked = append(ranked, rankedRecord{Progress: r, User: user})
	}

	board := rankBoard(ranked, topic)
	s.cacheSet(ctx, topic, board)
	return board, nil
}

// InvalidateCache drops every cached board variant. Called after each score
// submission so no stale board outlives a write.
func (s *LeaderboardService) InvalidateCache(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	keys := []string{
		cacheKey(""),
		cacheKey(model.TopicStack),
		cacheKey(model.TopicArray),
	}
	if err := s.Redis.Del(ctx, keys...).Err(); err != nil {
		logger.Log.Warn("Failed to invalidate leaderboard cache", zap.Error(err))
	}
}

// SetCacheTTL adjusts the cache TTL at runtime (config hot reload).
func (s *LeaderboardService) SetCacheTTL(ttl time.Duration) {
	s.ttlMu.Lock()
	s.cacheTTL = ttl
	s.ttlMu.Unlock()
}

func (s *LeaderboardService) currentTTL() time.Duration {
	s.ttlMu.RLock()
	defer s.ttlMu.RUnlock()
	return s.cacheTTL
}

// rankBoard sorts and formats the board. The sort is stable: ranking score
// descending, then level (stored high-water mark, or the XP formula when
// unset), then XP; records equal on all three keys keep their input order.
func rankBoard(records []rankedRecord, topic model.Topic) *Leaderboard {
	sort.SliceStable(records, func(i, j int) bool {
		pi, pj := &records[i].Progress, &records[j].Progress

		si, sj := scoring.RankingScore(pi, topic), scoring.RankingScore(pj, topic)
		if si != sj {
			return si > sj
		}

		li, lj := scoring.EffectiveLevel(pi), scoring.EffectiveLevel(pj)
		if li != lj {
			return li > lj
		}

		return pi.XP > pj.XP
	})

	entries := make([]LeaderboardEntry, 0, len(records))
	for i, r := range records {
		p := r.Progress

		stackQuizzes, arrayQuizzes := countQuizzesByTopic(p.QuizAttempts)
		stackMissions, arrayMissions := countMissionsByTopic(p.MissionsCompleted)

		entries = append(entries, LeaderboardEntry{
			Rank:              i + 1,
			Username:          r.User.Username,
			Avatar:            r.User.Avatar,
			StackScore:        p.StackScore,
			ArrayScore:        p.ArrayScore,
			StackMissionScore: p.StackMissionScore,
			ArrayMissionScore: p.ArrayMissionScore,
			StackOverallScore: p.StackScore + p.StackMissionScore,
			ArrayOverallScore: p.ArrayScore + p.ArrayMissionScore,
			MissionTotal:      p.StackMissionScore + p.ArrayMissionScore,
			Total:             p.TotalScore,
			XP:                p.XP,
			Level:             scoring.DisplayLevel(&p),
			Streak:            p.Streak,
			TotalQuizzes:      len(p.QuizAttempts),
			StackQuizzes:      stackQuizzes,
			ArrayQuizzes:      arrayQuizzes,
			TotalMissions:     len(p.MissionsCompleted),
			StackMissions:     stackMissions,
			ArrayMissions:     arrayMissions,
		})
	}

	return &Leaderboard{
		Entries:      entries,
		TotalPlayers: len(entries),
		Message:      boardMessage(len(entries)),
	}
}

func boardMessage(players int) string {
	switch players {
	case 0:
		return EmptyLeaderboardMessage
	case 1:
		return "1 player competing"
	default:
		return fmt.Sprintf("%d players competing", players)
	}
}

func cacheKey(topic model.Topic) string {
	if topic == "" {
		return "leaderboard:global"
	}
	return "leaderboard:topic:" + string(topic)
}

func (s *LeaderboardService) cacheGet(ctx context.Context, topic model.Topic) *Leaderboard {
	if s.Redis == nil {
		return nil
	}
	raw, err := s.Redis.Get(ctx, cacheKey(topic)).Bytes()
	if err != nil {
		return nil
	}
	var board Leaderboard
	if err := json.Unmarshal(raw, &board); err != nil {
		return nil
	}
	return &board
}

func (s *LeaderboardService) cacheSet(ctx context.Context, topic model.Topic, board *Leaderboard) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(board)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, cacheKey(topic), raw, s.currentTTL()).Err(); err != nil {
		logger.Log.Warn("Failed to cache leaderboard", zap.Error(err))
	}
}
