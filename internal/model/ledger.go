package model

import "time"

// CreditBalance is the per-company projection of the ledger.
// Invariant: Available + Reserved + Spent == LifetimeGranted.
type CreditBalance struct {
	CompanyID       string    `gorm:"primaryKey;type:varchar(64)" json:"company_id"`
	Available       Credits   `gorm:"not null;default:0" json:"available"`
	Reserved        Credits   `gorm:"not null;default:0" json:"reserved"`
	Spent           Credits   `gorm:"not null;default:0" json:"spent"`
	LifetimeGranted Credits   `gorm:"not null;default:0" json:"lifetime_granted"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Balanced reports whether the balance satisfies the ledger invariant.
func (b *CreditBalance) Balanced() bool {
	return b.Available+b.Reserved+b.Spent == b.LifetimeGranted &&
		b.Available >= 0 && b.Reserved >= 0 && b.Spent >= 0
}

type ReservationStatus string

const (
	ReservationActive   ReservationStatus = "ACTIVE"
	ReservationConsumed ReservationStatus = "CONSUMED"
	ReservationReleased ReservationStatus = "RELEASED"
)

// Reservation is a provisional hold on company credits, keyed by the invite that created it.
type Reservation struct {
	ID        string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CompanyID string            `gorm:"type:varchar(64);not null;index" json:"company_id"`
	InviteID  string            `gorm:"type:varchar(36);index" json:"invite_id"`
	Amount    Credits           `gorm:"not null" json:"amount"`
	Status    ReservationStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Consumed  Credits           `gorm:"not null;default:0" json:"consumed"`
	SettledAt *time.Time        `json:"settled_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type EntryKind string

const (
	EntryGrant   EntryKind = "GRANT"
	EntryReserve EntryKind = "RESERVE"
	EntryConsume EntryKind = "CONSUME"
	EntryRelease EntryKind = "RELEASE"
)

// LedgerEntry is an immutable audit row. Available/Reserved/Spent hold the balance right after the entry.
type LedgerEntry struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	CompanyID     string    `gorm:"type:varchar(64);not null;index" json:"company_id"`
	ReservationID *string   `gorm:"type:varchar(36);index" json:"reservation_id,omitempty"`
	Kind          EntryKind `gorm:"type:varchar(16);not null" json:"kind"`
	Amount        Credits   `gorm:"not null" json:"amount"`
	Available     Credits   `gorm:"not null" json:"available"`
	Reserved      Credits   `gorm:"not null" json:"reserved"`
	Spent         Credits   `gorm:"not null" json:"spent"`
	CreatedAt     time.Time `json:"created_at"`
}
