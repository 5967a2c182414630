package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lshigami/skillcheck/internal/apperr"
	"github.com/lshigami/skillcheck/internal/dto"
	"github.com/lshigami/skillcheck/internal/model"
	"github.com/lshigami/skillcheck/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	defaultEntryLimit = 100
	maxEntryLimit     = 500
)

// ErrSettlementShortfall is returned by Settle when available credits cannot cover the charge
// above the reservation. It shares its code with ErrInsufficientCredits.
var ErrSettlementShortfall = apperr.New(apperr.CodeInsufficientCredits, "company has insufficient credits to settle the completion charge")

// LedgerService is the only writer of CreditBalance rows. Each operation runs in its own
// transaction, or in a savepoint when the service is bound to an outer transaction with WithTx.
type LedgerService interface {
	WithTx(tx *gorm.DB) LedgerService
	Grant(ctx context.Context, companyID string, amount model.Credits) (*dto.CreditBalanceResponse, error)
	Reserve(ctx context.Context, companyID string, amount model.Credits, inviteID string) (string, error)
	Consume(ctx context.Context, reservationID string, amount model.Credits) error
	Settle(ctx context.Context, reservationID string, amount model.Credits) error
	Release(ctx context.Context, reservationID string) error
	Balance(ctx context.Context, companyID string) (*dto.CreditBalanceResponse, error)
	Entries(ctx context.Context, companyID string, limit int) ([]dto.LedgerEntryResponse, error)
}

type ledgerService struct {
	repo  repository.LedgerRepository
	db    *gorm.DB
	clock Clock
}

func NewLedgerService(repo repository.LedgerRepository, db *gorm.DB, clock Clock) LedgerService {
	return &ledgerService{repo: repo, db: db, clock: clock}
}

func (s *ledgerService) WithTx(tx *gorm.DB) LedgerService {
	return &ledgerService{repo: s.repo, db: tx, clock: s.clock}
}

func (s *ledgerService) Grant(ctx context.Context, companyID string, amount model.Credits) (*dto.CreditBalanceResponse, error) {
	if companyID == "" || amount <= 0 {
		return nil, apperr.WithDetails(ErrValidation, "grant amount must be positive")
	}

	var balance *model.CreditBalance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.EnsureBalance(ctx, companyID); err != nil {
			return fmt.Errorf("ensure balance: %w", err)
		}
		ok, err := repo.ApplyDelta(ctx, companyID, repository.BalanceDelta{Available: amount, Granted: amount})
		if err != nil {
			return fmt.Errorf("grant credits: %w", err)
		}
		if !ok {
			return fmt.Errorf("grant credits: balance row for company %s rejected the update", companyID)
		}
		balance, err = s.appendEntry(ctx, repo, companyID, nil, model.EntryGrant, amount)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("companyID", companyID).Msg("Grant failed")
		return nil, err
	}

	log.Info().Str("companyID", companyID).Stringer("amount", amount).Msg("Credits granted")
	return toBalanceResponse(balance), nil
}

// Reserve moves amount from available to reserved and opens a reservation for the invite.
func (s *ledgerService) Reserve(ctx context.Context, companyID string, amount model.Credits, inviteID string) (string, error) {
	if amount < 0 {
		return "", apperr.WithDetails(ErrValidation, "reserve amount must not be negative")
	}

	var reservationID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.EnsureBalance(ctx, companyID); err != nil {
			return fmt.Errorf("ensure balance: %w", err)
		}
		ok, err := repo.ApplyDelta(ctx, companyID, repository.BalanceDelta{Available: -amount, Reserved: amount})
		if err != nil {
			return fmt.Errorf("reserve credits: %w", err)
		}
		if !ok {
			return ErrInsufficientCredits
		}

		now := s.clock()
		reservation := &model.Reservation{
			ID:        uuid.NewString(),
			CompanyID: companyID,
			InviteID:  inviteID,
			Amount:    amount,
			Status:    model.ReservationActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.CreateReservation(ctx, reservation); err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}
		if _, err := s.appendEntry(ctx, repo, companyID, &reservation.ID, model.EntryReserve, amount); err != nil {
			return err
		}
		reservationID = reservation.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return reservationID, nil
}

// Consume charges amount from the reservation and releases the unspent remainder.
// amount may not exceed what was reserved.
func (s *ledgerService) Consume(ctx context.Context, reservationID string, amount model.Credits) error {
	return s.settle(ctx, reservationID, amount, false)
}

// Settle is Consume for charges that may exceed the reservation; the difference is drawn from
// available credits and ErrSettlementShortfall is returned, with nothing changed, if they do not cover it.
func (s *ledgerService) Settle(ctx context.Context, reservationID string, amount model.Credits) error {
	return s.settle(ctx, reservationID, amount, true)
}

func (s *ledgerService) settle(ctx context.Context, reservationID string, amount model.Credits, drawAvailable bool) error {
	if amount < 0 {
		return apperr.WithDetails(ErrValidation, "consume amount must not be negative")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reservation, err := repo.FindReservation(ctx, reservationID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReservationNotFound
		}
		if err != nil {
			return fmt.Errorf("find reservation: %w", err)
		}
		// A settled reservation no longer holds credits.
		if reservation.Status != model.ReservationActive {
			return ErrReservationNotFound
		}
		if amount > reservation.Amount && !drawAvailable {
			return ErrAmountExceedsReserved
		}

		won, err := repo.SettleReservation(ctx, reservationID, model.ReservationConsumed, amount, s.clock())
		if err != nil {
			return fmt.Errorf("settle reservation: %w", err)
		}
		if !won {
			return ErrReservationNotFound
		}

		remainder := reservation.Amount - amount
		ok, err := repo.ApplyDelta(ctx, reservation.CompanyID, repository.BalanceDelta{
			Reserved:  -reservation.Amount,
			Spent:     amount,
			Available: remainder,
		})
		if err != nil {
			return fmt.Errorf("consume credits: %w", err)
		}
		if !ok {
			if remainder < 0 {
				return ErrSettlementShortfall
			}
			return fmt.Errorf("consume credits: balance of company %s cannot absorb reservation %s", reservation.CompanyID, reservationID)
		}

		if _, err := s.appendEntry(ctx, repo, reservation.CompanyID, &reservation.ID, model.EntryConsume, amount); err != nil {
			return err
		}
		if remainder > 0 {
			if _, err := s.appendEntry(ctx, repo, reservation.CompanyID, &reservation.ID, model.EntryRelease, remainder); err != nil {
				return err
			}
		}
		return nil
	})
}

// Release returns whatever the reservation still holds to available. Releasing a reservation
// that is already settled is a no-op.
func (s *ledgerService) Release(ctx context.Context, reservationID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reservation, err := repo.FindReservation(ctx, reservationID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReservationNotFound
		}
		if err != nil {
			return fmt.Errorf("find reservation: %w", err)
		}
		if reservation.Status != model.ReservationActive {
			return nil
		}

		won, err := repo.SettleReservation(ctx, reservationID, model.ReservationReleased, 0, s.clock())
		if err != nil {
			return fmt.Errorf("release reservation: %w", err)
		}
		if !won {
			return nil
		}

		ok, err := repo.ApplyDelta(ctx, reservation.CompanyID, repository.BalanceDelta{
			Available: reservation.Amount,
			Reserved:  -reservation.Amount,
		})
		if err != nil {
			return fmt.Errorf("release credits: %w", err)
		}
		if !ok {
			return fmt.Errorf("release credits: balance of company %s cannot return reservation %s", reservation.CompanyID, reservationID)
		}
		_, err = s.appendEntry(ctx, repo, reservation.CompanyID, &reservation.ID, model.EntryRelease, reservation.Amount)
		return err
	})
}

func (s *ledgerService) Balance(ctx context.Context, companyID string) (*dto.CreditBalanceResponse, error) {
	balance, err := s.repo.WithTx(s.db).FindBalance(ctx, companyID)
	if errors.Is(err, repository.ErrNotFound) {
		return &dto.CreditBalanceResponse{CompanyID: companyID}, nil
	}
	if err != nil {
		log.Error().Err(err).Str("companyID", companyID).Msg("Failed to load credit balance")
		return nil, fmt.Errorf("load balance: %w", err)
	}
	return toBalanceResponse(balance), nil
}

func (s *ledgerService) Entries(ctx context.Context, companyID string, limit int) ([]dto.LedgerEntryResponse, error) {
	if limit <= 0 {
		limit = defaultEntryLimit
	}
	if limit > maxEntryLimit {
		limit = maxEntryLimit
	}
	entries, err := s.repo.WithTx(s.db).ListEntries(ctx, companyID, limit)
	if err != nil {
		log.Error().Err(err).Str("companyID", companyID).Msg("Failed to list ledger entries")
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}

	resp := make([]dto.LedgerEntryResponse, 0, len(entries))
	if err := copier.Copy(&resp, &entries); err != nil {
		return nil, fmt.Errorf("error preparing ledger entries: %w", err)
	}
	return resp, nil
}

// appendEntry records an audit row carrying the balance as it stands after the change.
func (s *ledgerService) appendEntry(ctx context.Context, repo repository.LedgerRepository, companyID string, reservationID *string, kind model.EntryKind, amount model.Credits) (*model.CreditBalance, error) {
	balance, err := repo.FindBalance(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("read balance for ledger entry: %w", err)
	}
	entry := &model.LedgerEntry{
		CompanyID:     companyID,
		ReservationID: reservationID,
		Kind:          kind,
		Amount:        amount,
		Available:     balance.Available,
		Reserved:      balance.Reserved,
		Spent:         balance.Spent,
		CreatedAt:     s.clock(),
	}
	if err := repo.AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}
	return balance, nil
}

func toBalanceResponse(b *model.CreditBalance) *dto.CreditBalanceResponse {
	return &dto.CreditBalanceResponse{
		CompanyID:       b.CompanyID,
		Available:       b.Available,
		Reserved:        b.Reserved,
		Spent:           b.Spent,
		LifetimeGranted: b.LifetimeGranted,
	}
}
