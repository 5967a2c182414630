package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/skillcheck/internal/apperr"
	"github.com/lshigami/skillcheck/internal/dto"
	"github.com/lshigami/skillcheck/internal/model"
	"github.com/lshigami/skillcheck/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AttemptService drives an attempt through IN_PROGRESS -> COMPLETED. Expiry belongs to the Sweeper.
type AttemptService interface {
	// Start creates the attempt for a freshly redeemed invite inside the redeeming transaction.
	Start(ctx context.Context, tx *gorm.DB, invite *model.Invite, template *model.AssessmentTemplate) (*model.Attempt, error)
	RecordAnswer(ctx context.Context, candidateID, attemptID string, req dto.RecordAnswerRequest) error
	Submit(ctx context.Context, candidateID, attemptID string) (*dto.SubmitResponse, error)
}

type attemptService struct {
	attemptRepo  repository.AttemptRepository
	templateRepo repository.TemplateRepository
	inviteRepo   repository.InviteRepository
	ledger       LedgerService
	scorer       Scorer
	db           *gorm.DB
	clock        Clock
}

func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	templateRepo repository.TemplateRepository,
	inviteRepo repository.InviteRepository,
	ledger LedgerService,
	scorer Scorer,
	db *gorm.DB,
	clock Clock,
) AttemptService {
	return &attemptService{
		attemptRepo:  attemptRepo,
		templateRepo: templateRepo,
		inviteRepo:   inviteRepo,
		ledger:       ledger,
		scorer:       scorer,
		db:           db,
		clock:        clock,
	}
}

func (s *attemptService) Start(ctx context.Context, tx *gorm.DB, invite *model.Invite, template *model.AssessmentTemplate) (*model.Attempt, error) {
	now := s.clock()
	attempt := &model.Attempt{
		ID:          uuid.NewString(),
		InviteID:    invite.ID,
		CompanyID:   invite.CompanyID,
		CandidateID: invite.CandidateID,
		TemplateID:  template.ID,
		Status:      model.AttemptInProgress,
		StartedAt:   now,
		Deadline:    now.Add(template.TimeLimit()),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.attemptRepo.WithTx(tx).Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	log.Info().Str("attemptID", attempt.ID).Str("inviteID", invite.ID).Time("deadline", attempt.Deadline).Msg("Attempt started")
	return attempt, nil
}

// RecordAnswer stores the candidate's latest answer for a question. Writes are accepted only
// while the attempt is IN_PROGRESS and its deadline has not passed.
func (s *attemptService) RecordAnswer(ctx context.Context, candidateID, attemptID string, req dto.RecordAnswerRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempts := s.attemptRepo.WithTx(tx)
		attempt, err := s.ownedAttempt(ctx, attempts, candidateID, attemptID)
		if err != nil {
			return err
		}

		template, err := s.templateRepo.WithTx(tx).FindByID(ctx, attempt.TemplateID)
		if err != nil {
			return fmt.Errorf("find template %s: %w", attempt.TemplateID, err)
		}
		if _, ok := template.Question(req.QuestionID); !ok {
			return apperr.WithDetails(ErrValidation, fmt.Sprintf("question %s is not part of this assessment", req.QuestionID))
		}

		now := s.clock()
		open, err := attempts.TouchInProgress(ctx, attemptID, now)
		if err != nil {
			return fmt.Errorf("lock attempt: %w", err)
		}
		if !open {
			current, err := attempts.FindByID(ctx, attemptID)
			if err != nil {
				return fmt.Errorf("reload attempt: %w", err)
			}
			if now.After(current.Deadline) {
				return ErrDeadlinePassed
			}
			return ErrAttemptNotInProgress
		}

		return attempts.UpsertAnswer(ctx, &model.AttemptAnswer{
			AttemptID:  attemptID,
			QuestionID: req.QuestionID,
			Answer:     req.Answer,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
}

// Submit finalizes the attempt exactly once: it scores the answers, charges the completion fee
// and completes the invite in one transaction. A company that cannot cover the fee above its
// reservation still gets a COMPLETED attempt, flagged billingPending for the sweeper to retry.
func (s *attemptService) Submit(ctx context.Context, candidateID, attemptID string) (*dto.SubmitResponse, error) {
	var resp *dto.SubmitResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempts := s.attemptRepo.WithTx(tx)
		attempt, err := s.ownedAttempt(ctx, attempts, candidateID, attemptID)
		if err != nil {
			return err
		}

		// 1. Win the IN_PROGRESS -> COMPLETED transition.
		now := s.clock()
		won, err := attempts.MarkCompleted(ctx, attemptID, now)
		if err != nil {
			return fmt.Errorf("complete attempt: %w", err)
		}
		if !won {
			current, err := attempts.FindByID(ctx, attemptID)
			if err != nil {
				return fmt.Errorf("reload attempt: %w", err)
			}
			return submitConflict(current, now)
		}

		// 2. Score the recorded answers.
		template, err := s.templateRepo.WithTx(tx).FindByID(ctx, attempt.TemplateID)
		if err != nil {
			return fmt.Errorf("find template %s: %w", attempt.TemplateID, err)
		}
		answers, err := attempts.ListAnswers(ctx, attemptID)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		result := s.scorer.Score(template, answers)
		for _, a := range answers {
			qs := result.Questions[a.QuestionID]
			if err := attempts.SaveAnswerScore(ctx, a.ID, qs.Correct, qs.Points); err != nil {
				return fmt.Errorf("save answer score: %w", err)
			}
		}

		// 3. Charge the completion fee.
		invites := s.inviteRepo.WithTx(tx)
		invite, err := invites.FindByID(ctx, attempt.InviteID)
		if err != nil {
			return fmt.Errorf("find invite %s: %w", attempt.InviteID, err)
		}
		billingPending := false
		if err := s.ledger.WithTx(tx).Settle(ctx, invite.ReservationID, template.CostSchedule.CompleteCredits); err != nil {
			if !errors.Is(err, ErrSettlementShortfall) {
				return fmt.Errorf("settle completion charge: %w", err)
			}
			billingPending = true
			log.Warn().Str("attemptID", attemptID).Str("companyID", attempt.CompanyID).
				Stringer("charge", template.CostSchedule.CompleteCredits).
				Msg("Completion charge deferred, attempt flagged billing pending")
		}
		if err := attempts.SaveResult(ctx, attemptID, result.Score, result.Passed, billingPending); err != nil {
			return fmt.Errorf("save result: %w", err)
		}

		// 4. Close the invite.
		ok, err := invites.Transition(ctx, invite.ID, model.InviteStarted, model.InviteCompleted, map[string]any{"closed_at": now, "updated_at": now})
		if err != nil {
			return fmt.Errorf("complete invite: %w", err)
		}
		if !ok {
			return fmt.Errorf("complete invite %s: invite is %s, expected %s", invite.ID, invite.Status, model.InviteStarted)
		}

		resp = &dto.SubmitResponse{
			AttemptID:      attemptID,
			Score:          result.Score,
			Passed:         result.Passed,
			BillingPending: billingPending,
		}
		return nil
	})
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeInternal {
			log.Error().Err(err).Str("attemptID", attemptID).Msg("Submit failed")
		}
		return nil, err
	}

	log.Info().Str("attemptID", attemptID).Float64("score", resp.Score).Bool("passed", resp.Passed).Msg("Attempt submitted")
	return resp, nil
}

func (s *attemptService) ownedAttempt(ctx context.Context, attempts repository.AttemptRepository, candidateID, attemptID string) (*model.Attempt, error) {
	attempt, err := attempts.FindByID(ctx, attemptID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find attempt: %w", err)
	}
	if attempt.CandidateID != candidateID {
		return nil, ErrForbidden
	}
	return attempt, nil
}

// submitConflict explains why the submit transition was lost.
func submitConflict(attempt *model.Attempt, now time.Time) error {
	switch attempt.Status {
	case model.AttemptCompleted:
		return ErrAlreadySubmitted
	case model.AttemptExpired:
		return ErrAttemptNotInProgress
	default:
		if now.After(attempt.Deadline) {
			return ErrDeadlinePassed
		}
		return ErrAttemptNotInProgress
	}
}
