package dto

import (
	"time"

	"github.com/lshigami/skillcheck/internal/model"
)

type CreditBalanceResponse struct {
	CompanyID       string        `json:"company_id"`
	Available       model.Credits `json:"available"`
	Reserved        model.Credits `json:"reserved"`
	Spent           model.Credits `json:"spent"`
	LifetimeGranted model.Credits `json:"lifetime_granted"`
}

type GrantCreditsRequest struct {
	Amount model.Credits `json:"amount" validate:"gt=0"`
}

type LedgerEntryResponse struct {
	ID            uint            `json:"id"`
	ReservationID *string         `json:"reservation_id,omitempty"`
	Kind          model.EntryKind `json:"kind"`
	Amount        model.Credits   `json:"amount"`
	Available     model.Credits   `json:"available"`
	Reserved      model.Credits   `json:"reserved"`
	Spent         model.Credits   `json:"spent"`
	CreatedAt     time.Time       `json:"created_at"`
}
