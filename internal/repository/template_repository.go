package repository

import (
	"context"
	"errors"

	"github.com/lshigami/skillcheck/internal/model"
	"gorm.io/gorm"
)

// ErrNotFound is returned by Find* methods when no row matches.
var ErrNotFound = errors.New("record not found")

type TemplateRepository interface {
	WithTx(tx *gorm.DB) TemplateRepository
	Create(ctx context.Context, template *model.AssessmentTemplate) error
	FindByID(ctx context.Context, id string) (*model.AssessmentTemplate, error)
	FindByCompany(ctx context.Context, companyID string) ([]model.AssessmentTemplate, error)
	ReplaceContent(ctx context.Context, template *model.AssessmentTemplate) error
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) WithTx(tx *gorm.DB) TemplateRepository {
	return &templateRepository{db: tx}
}

func (r *templateRepository) Create(ctx context.Context, template *model.AssessmentTemplate) error {
	// Questions are created through the association.
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *templateRepository) FindByID(ctx context.Context, id string) (*model.AssessmentTemplate, error) {
	var template model.AssessmentTemplate
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("template_questions.position ASC")
		}).
		First(&template, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &template, nil
}

func (r *templateRepository) FindByCompany(ctx context.Context, companyID string) ([]model.AssessmentTemplate, error) {
	var templates []model.AssessmentTemplate
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&templates).Error
	return templates, err
}

// ReplaceContent overwrites the template's fields and swaps its question set.
func (r *templateRepository) ReplaceContent(ctx context.Context, template *model.AssessmentTemplate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", template.ID).Delete(&model.TemplateQuestion{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(template).Error
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
