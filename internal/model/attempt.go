package model

import "time"

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptCompleted  AttemptStatus = "COMPLETED"
	AttemptExpired    AttemptStatus = "EXPIRED"
)

// Attempt is one candidate's timed run against an invite.
// BillingPending marks a completed attempt whose completion charge could not be settled.
type Attempt struct {
	ID             string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	InviteID       string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"invite_id"`
	CompanyID      string          `gorm:"type:varchar(64);not null;index" json:"company_id"`
	CandidateID    string          `gorm:"type:varchar(64);not null;index" json:"candidate_id"`
	TemplateID     string          `gorm:"type:varchar(36);not null;index" json:"template_id"`
	Status         AttemptStatus   `gorm:"type:varchar(16);not null;index" json:"status"`
	StartedAt      time.Time       `gorm:"not null" json:"started_at"`
	Deadline       time.Time       `gorm:"not null;index" json:"deadline"`
	SubmittedAt    *time.Time      `json:"submitted_at,omitempty"`
	ExpiredAt      *time.Time      `json:"expired_at,omitempty"`
	Score          *float64        `json:"score,omitempty"`
	Passed         *bool           `json:"passed,omitempty"`
	BillingPending bool            `gorm:"not null;default:false;index" json:"billing_pending"`
	Answers        []AttemptAnswer `gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"answers,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AttemptAnswer holds the latest answer per question. Correct and PointsAwarded are set at submission.
type AttemptAnswer struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	AttemptID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_attempt_question" json:"attempt_id"`
	QuestionID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_attempt_question" json:"question_id"`
	Answer        string    `gorm:"type:text;not null" json:"answer"`
	Correct       *bool     `json:"correct,omitempty"`
	PointsAwarded float64   `gorm:"not null;default:0" json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
