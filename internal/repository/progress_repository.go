package repository

import (
	"errors"
	"time"

	"gamified_ds_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// withHistory preloads both history associations in insertion order, which is
// the chronological order the aggregates and counts are defined over.
func withHistory(db *gorm.DB) *gorm.DB {
	return db.
		Preload("QuizAttempts", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_attempts.id ASC")
		}).
		Preload("MissionsCompleted", func(db *gorm.DB) *gorm.DB {
			return db.Order("mission_completions.id ASC")
		})
}

func (r *ProgressRepository) FindByUserID(userID uint) (*model.Progress, error) {
	return findByUserID(r.DB, userID)
}

func findByUserID(db *gorm.DB, userID uint) (*model.Progress, error) {
	var progress model.Progress
	err := withHistory(db).Where("user_id = ?", userID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// FindOrCreateByUserID lazily creates a zeroed progress record on first access.
// There is no not-found outcome for progress.
func (r *ProgressRepository) FindOrCreateByUserID(userID uint) (*model.Progress, error) {
	return findOrCreateByUserID(r.DB, userID)
}

func findOrCreateByUserID(db *gorm.DB, userID uint) (*model.Progress, error) {
	progress, err := findByUserID(db, userID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &model.Progress{
		UserID:           userID,
		CurrentLevel:     1,
		LastActivityDate: time.Now(),
	}
	if err := db.Create(fresh).Error; err != nil {
		return nil, err
	}
	return fresh, nil
}

// FindAll returns every progress record with its full history, for ranking.
func (r *ProgressRepository) FindAll() ([]model.Progress, error) {
	var records []model.Progress
	err := withHistory(r.DB).Order("id ASC").Find(&records).Error
	return records, err
}

// AppendQuizAttempt runs the whole read-modify-write submission for one quiz
// attempt as a single transaction: load or create the record, append the
// immutable history row, then let mutate update the in-memory record (XP,
// streak, recomputed aggregates) before the row is saved. Either everything is
// persisted or nothing is.
func (r *ProgressRepository) AppendQuizAttempt(userID uint, attempt *model.QuizAttempt, mutate func(p *model.Progress)) (*model.Progress, error) {
	var result *model.Progress
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		progress, err := findOrCreateByUserID(tx, userID)
		if err != nil {
			return err
		}

		attempt.ProgressID = progress.ID
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		progress.QuizAttempts = append(progress.QuizAttempts, *attempt)

		mutate(progress)

		if err := saveAggregates(tx, progress); err != nil {
			return err
		}
		result = progress
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AppendMissionCompletion mirrors AppendQuizAttempt for story missions.
func (r *ProgressRepository) AppendMissionCompletion(userID uint, completion *model.MissionCompletion, mutate func(p *model.Progress)) (*model.Progress, error) {
	var result *model.Progress
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		progress, err := findOrCreateByUserID(tx, userID)
		if err != nil {
			return err
		}

		completion.ProgressID = progress.ID
		if err := tx.Create(completion).Error; err != nil {
			return err
		}
		progress.MissionsCompleted = append(progress.MissionsCompleted, *completion)

		mutate(progress)

		if err := saveAggregates(tx, progress); err != nil {
			return err
		}
		result = progress
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// saveAggregates persists the progress row itself. History rows are immutable
// and already written, so the associations are omitted.
func saveAggregates(tx *gorm.DB, p *model.Progress) error {
	return tx.Omit("QuizAttempts", "MissionsCompleted").Save(p).Error
}
