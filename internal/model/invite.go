package model

import (
	"strings"
	"time"
)

type InviteStatus string

const (
	InvitePending   InviteStatus = "PENDING"
	InviteStarted   InviteStatus = "STARTED"
	InviteCompleted InviteStatus = "COMPLETED"
	InviteExpired   InviteStatus = "EXPIRED"
)

// Terminal reports whether no further transition is possible.
func (s InviteStatus) Terminal() bool {
	return s == InviteCompleted || s == InviteExpired
}

// Invite binds a candidate and an application to a template through a single-use token.
//
// ActiveKey is set while the invite is PENDING or STARTED and cleared on terminal
// transitions; its unique index enforces one live invite per (template, candidate, application).
type Invite struct {
	ID             string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TemplateID     string       `gorm:"type:varchar(36);not null;index" json:"template_id"`
	CompanyID      string       `gorm:"type:varchar(64);not null;index" json:"company_id"`
	CandidateID    string       `gorm:"type:varchar(64);not null;index" json:"candidate_id"`
	ApplicationID  string       `gorm:"type:varchar(64);not null" json:"application_id"`
	CandidateEmail string       `json:"candidate_email,omitempty"`
	Token          string       `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	ActiveKey      *string      `gorm:"type:varchar(200);uniqueIndex" json:"-"`
	ReservationID  string       `gorm:"type:varchar(36);not null" json:"reservation_id"`
	Status         InviteStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	ExpiresAt      time.Time    `gorm:"not null;index" json:"expires_at"`
	RedeemedAt     *time.Time   `json:"redeemed_at,omitempty"`
	ClosedAt       *time.Time   `json:"closed_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// InviteKey is the ActiveKey value for a (template, candidate, application) tuple.
func InviteKey(templateID, candidateID, applicationID string) string {
	return strings.Join([]string{templateID, candidateID, applicationID}, "|")
}
