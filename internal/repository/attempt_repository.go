package repository

import (
	"context"
	"time"

	"github.com/lshigami/skillcheck/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository interface {
	WithTx(tx *gorm.DB) AttemptRepository
	Create(ctx context.Context, attempt *model.Attempt) error
	FindByID(ctx context.Context, id string) (*model.Attempt, error)
	FindByIDWithAnswers(ctx context.Context, id string) (*model.Attempt, error)
	TouchInProgress(ctx context.Context, id string, now time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id string, now time.Time) (bool, error)
	MarkExpired(ctx context.Context, id string, now time.Time) (bool, error)
	SaveResult(ctx context.Context, id string, score float64, passed, billingPending bool) error
	ClearBillingPending(ctx context.Context, id string) error
	UpsertAnswer(ctx context.Context, answer *model.AttemptAnswer) error
	ListAnswers(ctx context.Context, attemptID string) ([]model.AttemptAnswer, error)
	SaveAnswerScore(ctx context.Context, answerID uint, correct bool, points float64) error
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]model.Attempt, error)
	FindBillingPending(ctx context.Context, limit int) ([]model.Attempt, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) WithTx(tx *gorm.DB) AttemptRepository {
	return &attemptRepository{db: tx}
}

func (r *attemptRepository) Create(ctx context.Context, attempt *model.Attempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) FindByID(ctx context.Context, id string) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByIDWithAnswers(ctx context.Context, id string) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("attempt_answers.id ASC")
		}).
		First(&attempt, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &attempt, nil
}

// TouchInProgress bumps updated_at only if the attempt is still IN_PROGRESS and within its deadline.
func (r *attemptRepository) TouchInProgress(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Attempt{}).
		Where("id = ? AND status = ? AND deadline >= ?", id, model.AttemptInProgress, now).
		Update("updated_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkCompleted is the submit CAS: IN_PROGRESS to COMPLETED while the deadline has not passed.
func (r *attemptRepository) MarkCompleted(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Attempt{}).
		Where("id = ? AND status = ? AND deadline >= ?", id, model.AttemptInProgress, now).
		Updates(map[string]any{
			"status":       model.AttemptCompleted,
			"submitted_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkExpired is the sweeper CAS: IN_PROGRESS to EXPIRED once the deadline is behind now.
func (r *attemptRepository) MarkExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Attempt{}).
		Where("id = ? AND status = ? AND deadline < ?", id, model.AttemptInProgress, now).
		Updates(map[string]any{
			"status":     model.AttemptExpired,
			"expired_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *attemptRepository) SaveResult(ctx context.Context, id string, score float64, passed, billingPending bool) error {
	return r.db.WithContext(ctx).
		Model(&model.Attempt{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"score":           score,
			"passed":          passed,
			"billing_pending": billingPending,
		}).Error
}

func (r *attemptRepository) ClearBillingPending(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Attempt{}).
		Where("id = ?", id).
		Update("billing_pending", false).Error
}

// UpsertAnswer stores the answer, replacing any earlier one for the same question.
func (r *attemptRepository) UpsertAnswer(ctx context.Context, answer *model.AttemptAnswer) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"answer", "updated_at"}),
		}).
		Create(answer).Error
}

func (r *attemptRepository) ListAnswers(ctx context.Context, attemptID string) ([]model.AttemptAnswer, error) {
	var answers []model.AttemptAnswer
	err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("id ASC").
		Find(&answers).Error
	return answers, err
}

func (r *attemptRepository) SaveAnswerScore(ctx context.Context, answerID uint, correct bool, points float64) error {
	return r.db.WithContext(ctx).
		Model(&model.AttemptAnswer{}).
		Where("id = ?", answerID).
		Updates(map[string]any{
			"correct":        correct,
			"points_awarded": points,
		}).Error
}

func (r *attemptRepository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.WithContext(ctx).
		Where("status = ? AND deadline < ?", model.AttemptInProgress, now).
		Order("deadline ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) FindBillingPending(ctx context.Context, limit int) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.WithContext(ctx).
		Where("billing_pending = ?", true).
		Order("submitted_at ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}
