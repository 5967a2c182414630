package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/skillcheck/internal/dto"
	"github.com/lshigami/skillcheck/internal/repository"
	"github.com/rs/zerolog/log"
)

// Viewer is who is asking for a result. CandidateID is set for candidates, CompanyID for
// recruiters.
type Viewer struct {
	CandidateID string
	CompanyID   string
	Admin       bool
}

type ResultsService interface {
	Get(ctx context.Context, viewer Viewer, attemptID string) (*dto.AttemptResultResponse, error)
}

type resultsService struct {
	attemptRepo  repository.AttemptRepository
	templateRepo repository.TemplateRepository
	integrity    IntegrityService
}

func NewResultsService(attemptRepo repository.AttemptRepository, templateRepo repository.TemplateRepository, integrity IntegrityService) ResultsService {
	return &resultsService{attemptRepo: attemptRepo, templateRepo: templateRepo, integrity: integrity}
}

// Get returns the attempt with a per-question breakdown. Only the candidate who took it,
// a recruiter of the issuing company, or an admin may read it.
func (s *resultsService) Get(ctx context.Context, viewer Viewer, attemptID string) (*dto.AttemptResultResponse, error) {
	attempt, err := s.attemptRepo.FindByIDWithAnswers(ctx, attemptID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("attemptID", attemptID).Msg("Failed to get attempt from repository")
		return nil, fmt.Errorf("error fetching attempt: %w", err)
	}

	allowed := viewer.Admin ||
		(viewer.CandidateID != "" && viewer.CandidateID == attempt.CandidateID) ||
		(viewer.CompanyID != "" && viewer.CompanyID == attempt.CompanyID)
	if !allowed {
		return nil, ErrForbidden
	}

	template, err := s.templateRepo.FindByID(ctx, attempt.TemplateID)
	if err != nil {
		log.Error().Err(err).Str("templateID", attempt.TemplateID).Msg("Failed to get template for attempt")
		return nil, fmt.Errorf("error fetching template: %w", err)
	}
	integrity, err := s.integrity.Summary(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	resp := &dto.AttemptResultResponse{
		AttemptID:      attempt.ID,
		InviteID:       attempt.InviteID,
		TemplateID:     attempt.TemplateID,
		CandidateID:    attempt.CandidateID,
		Status:         attempt.Status,
		StartedAt:      attempt.StartedAt,
		Deadline:       attempt.Deadline,
		SubmittedAt:    attempt.SubmittedAt,
		Score:          attempt.Score,
		Passed:         attempt.Passed,
		BillingPending: attempt.BillingPending,
		Integrity:      integrity,
		Answers:        make([]dto.AnswerBreakdown, 0, len(template.Questions)),
	}

	byQuestion := make(map[string]int, len(attempt.Answers))
	for i, a := range attempt.Answers {
		byQuestion[a.QuestionID] = i
	}
	for _, q := range template.Questions {
		item := dto.AnswerBreakdown{
			QuestionID: q.ID,
			Position:   q.Position,
			Kind:       q.Kind,
			MaxPoints:  q.Points,
		}
		if i, ok := byQuestion[q.ID]; ok {
			a := attempt.Answers[i]
			item.Answered = true
			item.Answer = a.Answer
			item.PointsAwarded = a.PointsAwarded
			item.Correct = a.Correct != nil && *a.Correct
		}
		resp.Answers = append(resp.Answers, item)
	}
	return resp, nil
}
