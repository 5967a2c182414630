package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lshigami/skillcheck/config"
	"github.com/lshigami/skillcheck/internal/model"
	"github.com/lshigami/skillcheck/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SweepReport counts what one sweep changed.
type SweepReport struct {
	InvitesExpired  int
	AttemptsExpired int
	BillingSettled  int
	BillingDeferred int
	Failures        int
}

// Sweeper is the only place deadline-driven transitions and refunds happen. Each item is
// handled in its own transaction behind a status compare-and-swap, so a failing item does not
// block the others and a re-run never settles anything twice.
type Sweeper struct {
	inviteRepo   repository.InviteRepository
	attemptRepo  repository.AttemptRepository
	templateRepo repository.TemplateRepository
	ledger       LedgerService
	db           *gorm.DB
	clock        Clock
	batchSize    int

	mu sync.Mutex
}

func NewSweeper(
	inviteRepo repository.InviteRepository,
	attemptRepo repository.AttemptRepository,
	templateRepo repository.TemplateRepository,
	ledger LedgerService,
	db *gorm.DB,
	clock Clock,
	cfg *config.Config,
) *Sweeper {
	return &Sweeper{
		inviteRepo:   inviteRepo,
		attemptRepo:  attemptRepo,
		templateRepo: templateRepo,
		ledger:       ledger,
		db:           db,
		clock:        clock,
		batchSize:    cfg.Sweeper.BatchSize,
	}
}

// Sweep runs one pass. Concurrent calls are serialized.
func (s *Sweeper) Sweep(ctx context.Context) SweepReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report SweepReport
	now := s.clock()

	invites, err := s.inviteRepo.FindExpiredPending(ctx, now, s.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("Sweeper: failed to list expired invites")
		report.Failures++
	}
	for i := range invites {
		expired, err := s.expireInvite(ctx, &invites[i])
		switch {
		case err != nil:
			report.Failures++
			log.Error().Err(err).Str("inviteID", invites[i].ID).Msg("Sweeper: failed to expire invite")
		case expired:
			report.InvitesExpired++
		}
	}

	attempts, err := s.attemptRepo.FindOverdue(ctx, now, s.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("Sweeper: failed to list overdue attempts")
		report.Failures++
	}
	for i := range attempts {
		expired, err := s.expireAttempt(ctx, &attempts[i])
		switch {
		case err != nil:
			report.Failures++
			log.Error().Err(err).Str("attemptID", attempts[i].ID).Msg("Sweeper: failed to expire attempt")
		case expired:
			report.AttemptsExpired++
		}
	}

	pending, err := s.attemptRepo.FindBillingPending(ctx, s.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("Sweeper: failed to list billing pending attempts")
		report.Failures++
	}
	for i := range pending {
		settled, err := s.settleBilling(ctx, &pending[i])
		switch {
		case err != nil:
			report.Failures++
			log.Error().Err(err).Str("attemptID", pending[i].ID).Msg("Sweeper: failed to settle pending billing")
		case settled:
			report.BillingSettled++
		default:
			report.BillingDeferred++
		}
	}

	if report != (SweepReport{}) {
		log.Info().
			Int("invitesExpired", report.InvitesExpired).
			Int("attemptsExpired", report.AttemptsExpired).
			Int("billingSettled", report.BillingSettled).
			Int("billingDeferred", report.BillingDeferred).
			Int("failures", report.Failures).
			Msg("Sweep finished")
	}
	return report
}

// expireInvite moves an unredeemed invite to EXPIRED and releases its reservation.
func (s *Sweeper) expireInvite(ctx context.Context, invite *model.Invite) (bool, error) {
	var expired bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock()
		won, err := s.inviteRepo.WithTx(tx).Transition(ctx, invite.ID, model.InvitePending, model.InviteExpired, map[string]any{"closed_at": now, "updated_at": now})
		if err != nil {
			return fmt.Errorf("expire invite: %w", err)
		}
		if !won {
			return nil
		}
		if err := s.ledger.WithTx(tx).Release(ctx, invite.ReservationID); err != nil && !errors.Is(err, ErrReservationNotFound) {
			return fmt.Errorf("release reservation %s: %w", invite.ReservationID, err)
		}
		expired = true
		return nil
	})
	return expired, err
}

// expireAttempt closes an attempt whose time box elapsed. The reserve fee stays charged and any
// remainder of the reservation is released.
func (s *Sweeper) expireAttempt(ctx context.Context, attempt *model.Attempt) (bool, error) {
	var expired bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock()
		won, err := s.attemptRepo.WithTx(tx).MarkExpired(ctx, attempt.ID, now)
		if err != nil {
			return fmt.Errorf("expire attempt: %w", err)
		}
		if !won {
			return nil
		}

		invites := s.inviteRepo.WithTx(tx)
		invite, err := invites.FindByID(ctx, attempt.InviteID)
		if err != nil {
			return fmt.Errorf("find invite %s: %w", attempt.InviteID, err)
		}
		if _, err := invites.Transition(ctx, invite.ID, model.InviteStarted, model.InviteExpired, map[string]any{"closed_at": now, "updated_at": now}); err != nil {
			return fmt.Errorf("expire invite: %w", err)
		}

		template, err := s.templateRepo.WithTx(tx).FindByID(ctx, attempt.TemplateID)
		if err != nil {
			return fmt.Errorf("find template %s: %w", attempt.TemplateID, err)
		}
		err = s.ledger.WithTx(tx).Consume(ctx, invite.ReservationID, template.CostSchedule.ReserveCredits)
		if err != nil && !errors.Is(err, ErrReservationNotFound) {
			return fmt.Errorf("charge reserve fee: %w", err)
		}
		expired = true
		return nil
	})
	return expired, err
}

// settleBilling retries the completion charge of an attempt flagged billingPending.
// It reports false, without error, while the company still cannot cover the charge.
func (s *Sweeper) settleBilling(ctx context.Context, attempt *model.Attempt) (bool, error) {
	var settled bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invite, err := s.inviteRepo.WithTx(tx).FindByID(ctx, attempt.InviteID)
		if err != nil {
			return fmt.Errorf("find invite %s: %w", attempt.InviteID, err)
		}
		template, err := s.templateRepo.WithTx(tx).FindByID(ctx, attempt.TemplateID)
		if err != nil {
			return fmt.Errorf("find template %s: %w", attempt.TemplateID, err)
		}

		err = s.ledger.WithTx(tx).Settle(ctx, invite.ReservationID, template.CostSchedule.CompleteCredits)
		switch {
		case errors.Is(err, ErrSettlementShortfall):
			return nil
		case errors.Is(err, ErrReservationNotFound):
			log.Warn().Str("attemptID", attempt.ID).Msg("Sweeper: billing pending attempt has no active reservation, clearing flag")
		case err != nil:
			return fmt.Errorf("settle completion charge: %w", err)
		}
		if err := s.attemptRepo.WithTx(tx).ClearBillingPending(ctx, attempt.ID); err != nil {
			return fmt.Errorf("clear billing pending: %w", err)
		}
		settled = true
		return nil
	})
	return settled, err
}
