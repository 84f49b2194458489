package scoring

import (
	"gamified_ds_backend/internal/model"
)

// Recompute derives every best-score aggregate on p from its full quiz and
// mission history. It is deterministic and idempotent: calling it twice on the
// same history yields the same aggregates. XP and CurrentLevel are cumulative
// and are not touched here; the caller applies the XP delta for a new entry and
// then calls ApplyLevel. Entries with an unknown topic count toward neither
// best score. MaxScore is informational and plays no part in the math.
func Recompute(p *model.Progress) {
	stackQuiz, arrayQuiz := 0, 0
	for _, a := range p.QuizAttempts {
		switch model.Topic(a.Topic) {
		case model.TopicStack:
			if a.Score > stackQuiz {
				stackQuiz = a.Score
			}
		case model.TopicArray:
			if a.Score > arrayQuiz {
				arrayQuiz = a.Score
			}
		}
	}

	stackMission, arrayMission := 0, 0
	for _, m := range p.MissionsCompleted {
		switch model.Topic(m.Topic) {
		case model.TopicStack:
			if m.Score > stackMission {
				stackMission = m.Score
			}
		case model.TopicArray:
			if m.Score > arrayMission {
				arrayMission = m.Score
			}
		}
	}

	p.StackScore = stackQuiz
	p.ArrayScore = arrayQuiz
	p.StackMissionScore = stackMission
	p.ArrayMissionScore = arrayMission

	p.StackOverallScore = p.StackScore + p.StackMissionScore
	p.ArrayOverallScore = p.ArrayScore + p.ArrayMissionScore
	p.MissionTotalScore = p.StackMissionScore + p.ArrayMissionScore
	p.TotalScore = p.StackOverallScore + p.ArrayOverallScore
}

// ApplyLevel raises CurrentLevel to the level implied by XP. It never lowers
// it: the stored level is a high-water mark.
func ApplyLevel(p *model.Progress) {
	if lvl := LevelFromXP(p.XP); lvl > p.CurrentLevel {
		p.CurrentLevel = lvl
	}
}

// RankingScore selects the leaderboard sort key for a record under an optional
// topic filter. The per-topic overalls fall back to their defining sum when the
// stored column is zero; both are defined identically, so this is a consistency
// guard rather than alternate logic.
func RankingScore(p *model.Progress, topic model.Topic) int {
	switch topic {
	case model.TopicStack:
		if p.StackOverallScore != 0 {
			return p.StackOverallScore
		}
		return p.StackScore + p.StackMissionScore
	case model.TopicArray:
		if p.ArrayOverallScore != 0 {
			return p.ArrayOverallScore
		}
		return p.ArrayScore + p.ArrayMissionScore
	default:
		return p.TotalScore
	}
}

// EffectiveLevel is the level used for ranking tie-breaks: the stored
// high-water mark, or the level implied by XP when no level was ever stored.
func EffectiveLevel(p *model.Progress) int {
	if p.CurrentLevel > 0 {
		return p.CurrentLevel
	}
	return LevelFromXP(p.XP)
}

// DisplayLevel is the level shown to players: never below either the stored
// high-water mark or the level implied by current XP.
func DisplayLevel(p *model.Progress) int {
	calculated := LevelFromXP(p.XP)
	if p.CurrentLevel > calculated {
		return p.CurrentLevel
	}
	return calculated
}
