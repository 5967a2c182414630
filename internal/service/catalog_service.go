package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lshigami/skillcheck/internal/apperr"
	"github.com/lshigami/skillcheck/internal/dto"
	"github.com/lshigami/skillcheck/internal/model"
	"github.com/lshigami/skillcheck/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CatalogService manages assessment templates. A template becomes read-only once any invite
// references it.
type CatalogService interface {
	Publish(ctx context.Context, companyID string, req dto.TemplatePublishRequest) (*dto.TemplateResponse, error)
	Update(ctx context.Context, companyID, templateID string, req dto.TemplatePublishRequest) (*dto.TemplateResponse, error)
	Get(ctx context.Context, templateID string) (*dto.TemplateResponse, error)
	List(ctx context.Context, companyID string) ([]dto.TemplateSummary, error)
	IsReferenced(ctx context.Context, templateID string) (bool, error)
}

type catalogService struct {
	templateRepo repository.TemplateRepository
	inviteRepo   repository.InviteRepository
	db           *gorm.DB
	clock        Clock
}

func NewCatalogService(templateRepo repository.TemplateRepository, inviteRepo repository.InviteRepository, db *gorm.DB, clock Clock) CatalogService {
	return &catalogService{templateRepo: templateRepo, inviteRepo: inviteRepo, db: db, clock: clock}
}

func (s *catalogService) Publish(ctx context.Context, companyID string, req dto.TemplatePublishRequest) (*dto.TemplateResponse, error) {
	if err := validateTemplate(req); err != nil {
		return nil, err
	}

	now := s.clock()
	template := &model.AssessmentTemplate{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		CreatedAt: now,
	}
	applyTemplateRequest(template, req, now)

	if err := s.templateRepo.Create(ctx, template); err != nil {
		log.Error().Err(err).Str("companyID", companyID).Msg("Failed to create template in database")
		return nil, fmt.Errorf("database error creating template: %w", err)
	}
	log.Info().Str("templateID", template.ID).Str("companyID", companyID).Int("questions", len(template.Questions)).Msg("Template published")
	return toTemplateResponse(template, false)
}

// Update replaces the template's definition and questions while nothing references it.
func (s *catalogService) Update(ctx context.Context, companyID, templateID string, req dto.TemplatePublishRequest) (*dto.TemplateResponse, error) {
	if err := validateTemplate(req); err != nil {
		return nil, err
	}

	var template *model.AssessmentTemplate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		templates := s.templateRepo.WithTx(tx)
		var err error
		template, err = templates.FindByID(ctx, templateID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		if err != nil {
			return fmt.Errorf("find template: %w", err)
		}
		if template.CompanyID != companyID {
			return ErrForbidden
		}

		referenced, err := s.inviteRepo.WithTx(tx).ExistsForTemplate(ctx, templateID)
		if err != nil {
			return fmt.Errorf("check template references: %w", err)
		}
		if referenced {
			return ErrTemplateLocked
		}

		applyTemplateRequest(template, req, s.clock())
		return templates.ReplaceContent(ctx, template)
	})
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeInternal {
			log.Error().Err(err).Str("templateID", templateID).Msg("Failed to update template")
		}
		return nil, err
	}
	return toTemplateResponse(template, false)
}

func (s *catalogService) Get(ctx context.Context, templateID string) (*dto.TemplateResponse, error) {
	template, err := s.templateRepo.FindByID(ctx, templateID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("templateID", templateID).Msg("Failed to get template from repository")
		return nil, fmt.Errorf("error fetching template: %w", err)
	}
	referenced, err := s.IsReferenced(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return toTemplateResponse(template, referenced)
}

func (s *catalogService) List(ctx context.Context, companyID string) ([]dto.TemplateSummary, error) {
	templates, err := s.templateRepo.FindByCompany(ctx, companyID)
	if err != nil {
		log.Error().Err(err).Str("companyID", companyID).Msg("Failed to list templates")
		return nil, fmt.Errorf("error fetching templates: %w", err)
	}
	summaries := make([]dto.TemplateSummary, 0, len(templates))
	if err := copier.Copy(&summaries, &templates); err != nil {
		return nil, fmt.Errorf("error preparing template list: %w", err)
	}
	return summaries, nil
}

func (s *catalogService) IsReferenced(ctx context.Context, templateID string) (bool, error) {
	referenced, err := s.inviteRepo.ExistsForTemplate(ctx, templateID)
	if err != nil {
		log.Error().Err(err).Str("templateID", templateID).Msg("Failed to check template references")
		return false, fmt.Errorf("check template references: %w", err)
	}
	return referenced, nil
}

// validateTemplate applies the tag rules plus the cross-field rules tags cannot express.
func validateTemplate(req dto.TemplatePublishRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}

	var details []string
	if len(req.Questions) != req.TotalQuestions {
		details = append(details, fmt.Sprintf("total_questions is %d but %d questions were given", req.TotalQuestions, len(req.Questions)))
	}
	maxPoints := 0.0
	for i, q := range req.Questions {
		maxPoints += q.Points
		if q.Kind == model.QuestionMultipleChoice {
			if len(q.Options) < 2 {
				details = append(details, fmt.Sprintf("questions[%d] needs at least two options", i))
			} else if !slices.Contains(q.Options, q.ExpectedAnswer) {
				details = append(details, fmt.Sprintf("questions[%d] expected_answer must be one of its options", i))
			}
		}
	}
	if maxPoints <= 0 {
		details = append(details, "questions must be worth more than zero points in total")
	}
	if len(details) > 0 {
		return apperr.WithDetails(ErrValidation, details...)
	}
	return nil
}

func applyTemplateRequest(template *model.AssessmentTemplate, req dto.TemplatePublishRequest, now time.Time) {
	template.Title = req.Title
	template.Description = req.Description
	template.TotalQuestions = req.TotalQuestions
	template.TimeLimitMinutes = req.TimeLimitMinutes
	template.PassingScorePercent = req.PassingScorePercent
	template.CostSchedule = model.CostSchedule(req.CostSchedule)
	template.UpdatedAt = now

	template.Questions = make([]model.TemplateQuestion, 0, len(req.Questions))
	for i, q := range req.Questions {
		template.Questions = append(template.Questions, model.TemplateQuestion{
			ID:             uuid.NewString(),
			TemplateID:     template.ID,
			Position:       i + 1,
			Kind:           q.Kind,
			Prompt:         q.Prompt,
			Options:        datatypes.JSONSlice[string](q.Options),
			ExpectedAnswer: q.ExpectedAnswer,
			Points:         q.Points,
		})
	}
}

func toTemplateResponse(template *model.AssessmentTemplate, referenced bool) (*dto.TemplateResponse, error) {
	var resp dto.TemplateResponse
	if err := copier.Copy(&resp, template); err != nil {
		log.Error().Err(err).Msg("Failed to copy template model to TemplateResponse")
		return nil, fmt.Errorf("error preparing template response: %w", err)
	}
	resp.Referenced = referenced
	return &resp, nil
}
