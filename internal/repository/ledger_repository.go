package repository

import (
	"context"
	"time"

	"github.com/lshigami/skillcheck/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BalanceDelta is a signed change applied to a CreditBalance in one statement.
type BalanceDelta struct {
	Available model.Credits
	Reserved  model.Credits
	Spent     model.Credits
	Granted   model.Credits
}

type LedgerRepository interface {
	WithTx(tx *gorm.DB) LedgerRepository
	EnsureBalance(ctx context.Context, companyID string) error
	FindBalance(ctx context.Context, companyID string) (*model.CreditBalance, error)
	ApplyDelta(ctx context.Context, companyID string, delta BalanceDelta) (bool, error)
	CreateReservation(ctx context.Context, reservation *model.Reservation) error
	FindReservation(ctx context.Context, id string) (*model.Reservation, error)
	SettleReservation(ctx context.Context, id string, to model.ReservationStatus, consumed model.Credits, at time.Time) (bool, error)
	AppendEntry(ctx context.Context, entry *model.LedgerEntry) error
	ListEntries(ctx context.Context, companyID string, limit int) ([]model.LedgerEntry, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) WithTx(tx *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: tx}
}

// EnsureBalance creates an empty balance row if the company has none.
func (r *ledgerRepository) EnsureBalance(ctx context.Context, companyID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.CreditBalance{CompanyID: companyID}).Error
}

func (r *ledgerRepository) FindBalance(ctx context.Context, companyID string) (*model.CreditBalance, error) {
	var balance model.CreditBalance
	if err := r.db.WithContext(ctx).First(&balance, "company_id = ?", companyID).Error; err != nil {
		return nil, notFound(err)
	}
	return &balance, nil
}

// ApplyDelta adds delta to the company balance in a single conditional UPDATE. The WHERE clause
// keeps every column non-negative, so the row is either moved as a whole or left untouched;
// false means the guard failed (or the row does not exist).
func (r *ledgerRepository) ApplyDelta(ctx context.Context, companyID string, delta BalanceDelta) (bool, error) {
	available, reserved, spent, granted := int64(delta.Available), int64(delta.Reserved), int64(delta.Spent), int64(delta.Granted)
	res := r.db.WithContext(ctx).
		Model(&model.CreditBalance{}).
		Where("company_id = ?", companyID).
		Where("available + ? >= 0 AND reserved + ? >= 0 AND spent + ? >= 0", available, reserved, spent).
		Updates(map[string]any{
			"available":        gorm.Expr("available + ?", available),
			"reserved":         gorm.Expr("reserved + ?", reserved),
			"spent":            gorm.Expr("spent + ?", spent),
			"lifetime_granted": gorm.Expr("lifetime_granted + ?", granted),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ledgerRepository) CreateReservation(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *ledgerRepository) FindReservation(ctx context.Context, id string) (*model.Reservation, error) {
	var reservation model.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &reservation, nil
}

// SettleReservation moves an ACTIVE reservation to a terminal status. Only one caller can win.
func (r *ledgerRepository) SettleReservation(ctx context.Context, id string, to model.ReservationStatus, consumed model.Credits, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND status = ?", id, model.ReservationActive).
		Updates(map[string]any{
			"status":     to,
			"consumed":   int64(consumed),
			"settled_at": at,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ledgerRepository) AppendEntry(ctx context.Context, entry *model.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) ListEntries(ctx context.Context, companyID string, limit int) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	q := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&entries).Error
	return entries, err
}
