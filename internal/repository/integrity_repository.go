package repository

import (
	"context"

	"github.com/lshigami/skillcheck/internal/model"
	"gorm.io/gorm"
)

// FlagTotal is the summed occurrence count for one flag type.
type FlagTotal struct {
	Type  model.FlagType
	Total int
}

type IntegrityRepository interface {
	Append(ctx context.Context, flag *model.IntegrityFlag) error
	ListByAttempt(ctx context.Context, attemptID string) ([]model.IntegrityFlag, error)
	TotalsByType(ctx context.Context, attemptID string) ([]FlagTotal, error)
}

type integrityRepository struct {
	db *gorm.DB
}

func NewIntegrityRepository(db *gorm.DB) IntegrityRepository {
	return &integrityRepository{db: db}
}

func (r *integrityRepository) Append(ctx context.Context, flag *model.IntegrityFlag) error {
	return r.db.WithContext(ctx).Create(flag).Error
}

func (r *integrityRepository) ListByAttempt(ctx context.Context, attemptID string) ([]model.IntegrityFlag, error) {
	var flags []model.IntegrityFlag
	err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("timestamp ASC, id ASC").
		Find(&flags).Error
	return flags, err
}

func (r *integrityRepository) TotalsByType(ctx context.Context, attemptID string) ([]FlagTotal, error) {
	var totals []FlagTotal
	err := r.db.WithContext(ctx).
		Model(&model.IntegrityFlag{}).
		Select("type, COALESCE(SUM(occurrence_count), 0) AS total").
		Where("attempt_id = ?", attemptID).
		Group("type").
		Order("type ASC").
		Scan(&totals).Error
	return totals, err
}
