package model

import (
	"time"
)

// Topic identifies a tutorial track. Submissions carry a topic string verbatim;
// values other than the known topics are stored but contribute to neither
// per-topic best score.
type Topic string

const (
	TopicStack Topic = "Stack"
	TopicArray Topic = "Array"
)

func (t Topic) Known() bool {
	return t == TopicStack || t == TopicArray
}

// Progress is the single per-user progress record. The score columns are
// aggregates derived from the quiz and mission history by scoring.Recompute;
// they are never written independently. XP is a cumulative accumulator (10 XP
// per point on every submission, repeats included) and CurrentLevel is a
// high-water mark over the level implied by XP. Neither is derivable from the
// history, which only feeds the best-score aggregates.
// swagger:model Progress
type Progress struct {
	BaseModel
	UserID uint `gorm:"uniqueIndex;not null" json:"userId"`

	StackScore        int `gorm:"default:0" json:"stackScore"`
	ArrayScore        int `gorm:"default:0" json:"arrayScore"`
	StackMissionScore int `gorm:"default:0" json:"stackMissionScore"`
	ArrayMissionScore int `gorm:"default:0" json:"arrayMissionScore"`
	StackOverallScore int `gorm:"default:0" json:"stackOverallScore"`
	ArrayOverallScore int `gorm:"default:0" json:"arrayOverallScore"`
	MissionTotalScore int `gorm:"default:0" json:"missionTotalScore"`
	TotalScore        int `gorm:"default:0;index" json:"totalScore"`

	XP           int `gorm:"column:xp;default:0" json:"xp"`
	CurrentLevel int `gorm:"default:1" json:"currentLevel"`
	Streak       int `gorm:"default:0" json:"streak"`

	LastActivityDate time.Time `json:"lastActivityDate"`

	QuizAttempts      []QuizAttempt       `gorm:"foreignKey:ProgressID" json:"quizAttempts"`
	MissionsCompleted []MissionCompletion `gorm:"foreignKey:ProgressID" json:"missionsCompleted"`
}

func (Progress) TableName() string {
	return "progress"
}

// QuizAttempt is one row of append-only quiz history. Rows are immutable once
// recorded and never deleted; insertion order is chronological.
// swagger:model QuizAttempt
type QuizAttempt struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProgressID  uint      `gorm:"index;not null" json:"-"`
	Topic       string    `gorm:"size:20;not null" json:"topic"`
	Score       int       `gorm:"not null" json:"score"`
	MaxScore    int       `gorm:"default:10" json:"maxScore"`
	TimeTaken   int       `json:"timeTaken"` // seconds
	CompletedAt time.Time `json:"completedAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// MissionCompletion is one row of append-only story-mission history, with the
// same immutability semantics as QuizAttempt.
// swagger:model MissionCompletion
type MissionCompletion struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProgressID  uint      `gorm:"index;not null" json:"-"`
	Topic       string    `gorm:"size:20;not null" json:"topic"`
	Score       int       `gorm:"not null" json:"score"`
	MaxScore    int       `gorm:"default:10" json:"maxScore"`
	CompletedAt time.Time `json:"completedAt"`
}

func (MissionCompletion) TableName() string {
	return "mission_completions"
}
