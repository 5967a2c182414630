package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/skillcheck/config"
	"github.com/lshigami/skillcheck/internal/dto"
	"github.com/lshigami/skillcheck/internal/model"
	"github.com/jinzhu/copier"
	"github.com/lshigami/skillcheck/internal/repository"
	"github.com/rs/zerolog/log"
)

// IntegrityService collects anti-cheat signals. Flags are advisory: they never change an
// attempt's state, score or billing.
type IntegrityService interface {
	RecordFlag(ctx context.Context, candidateID, attemptID string, req dto.RecordFlagRequest) error
	IsSuspicious(ctx context.Context, attemptID string) (bool, error)
	Summary(ctx context.Context, attemptID string) (dto.IntegritySummary, error)
}

type integrityService struct {
	flagRepo    repository.IntegrityRepository
	attemptRepo repository.AttemptRepository
	clock       Clock
	threshold   int
}

func NewIntegrityService(flagRepo repository.IntegrityRepository, attemptRepo repository.AttemptRepository, clock Clock, cfg *config.Config) IntegrityService {
	return &integrityService{
		flagRepo:    flagRepo,
		attemptRepo: attemptRepo,
		clock:       clock,
		threshold:   cfg.Policy.SuspiciousTabSwitches,
	}
}

// RecordFlag appends a signal for an attempt in any state.
func (s *integrityService) RecordFlag(ctx context.Context, candidateID, attemptID string, req dto.RecordFlagRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}

	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrAttemptNotFound
	}
	if err != nil {
		return fmt.Errorf("find attempt: %w", err)
	}
	if attempt.CandidateID != candidateID {
		return ErrForbidden
	}

	flag := &model.IntegrityFlag{
		AttemptID:       attemptID,
		Type:            req.Type,
		OccurrenceCount: req.OccurrenceCount,
		Timestamp:       s.clock(),
	}
	if flag.OccurrenceCount == 0 {
		flag.OccurrenceCount = 1
	}
	if req.Timestamp != nil {
		flag.Timestamp = req.Timestamp.UTC()
	}
	if err := s.flagRepo.Append(ctx, flag); err != nil {
		log.Error().Err(err).Str("attemptID", attemptID).Str("type", string(req.Type)).Msg("Failed to record integrity flag")
		return fmt.Errorf("record integrity flag: %w", err)
	}
	return nil
}

// IsSuspicious reports whether the attempt's tab switches exceed the configured threshold.
func (s *integrityService) IsSuspicious(ctx context.Context, attemptID string) (bool, error) {
	summary, err := s.Summary(ctx, attemptID)
	if err != nil {
		return false, err
	}
	return summary.Suspicious, nil
}

func (s *integrityService) Summary(ctx context.Context, attemptID string) (dto.IntegritySummary, error) {
	totals, err := s.flagRepo.TotalsByType(ctx, attemptID)
	if err != nil {
		return dto.IntegritySummary{}, fmt.Errorf("sum integrity flags: %w", err)
	}
	summary := dto.IntegritySummary{Totals: make(map[model.FlagType]int, len(totals))}
	for _, t := range totals {
		summary.Totals[t.Type] = t.Total
	}
	summary.Suspicious = summary.Totals[model.FlagTabSwitch] > s.threshold

	flags, err := s.flagRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return dto.IntegritySummary{}, fmt.Errorf("list integrity flags: %w", err)
	}
	summary.Events = make([]dto.IntegrityEvent, 0, len(flags))
	if err := copier.Copy(&summary.Events, &flags); err != nil {
		return dto.IntegritySummary{}, fmt.Errorf("map integrity flags: %w", err)
	}
	return summary, nil
}
