package dto

import (
	"time"

	"github.com/lshigami/skillcheck/internal/model"
)

type RecordAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     string `json:"answer" validate:"max=65536"`
}

type SubmitResponse struct {
	AttemptID      string  `json:"attempt_id"`
	Score          float64 `json:"score"`
	Passed         bool    `json:"passed"`
	BillingPending bool    `json:"billing_pending"`
}

type RecordFlagRequest struct {
	Type            model.FlagType `json:"type" validate:"required,oneof=TAB_SWITCH FULLSCREEN_EXIT COPY_PASTE"`
	OccurrenceCount int            `json:"occurrence_count,omitempty" validate:"omitempty,min=1,max=1000"`
	Timestamp       *time.Time     `json:"timestamp,omitempty"`
}

type AnswerBreakdown struct {
	QuestionID    string             `json:"question_id"`
	Position      int                `json:"position"`
	Kind          model.QuestionKind `json:"kind"`
	Answer        string             `json:"answer"`
	Answered      bool               `json:"answered"`
	Correct       bool               `json:"correct"`
	PointsAwarded float64            `json:"points_awarded"`
	MaxPoints     float64            `json:"max_points"`
}

type IntegrityEvent struct {
	Type            model.FlagType `json:"type"`
	OccurrenceCount int            `json:"occurrence_count"`
	Timestamp       time.Time      `json:"timestamp"`
}

type IntegritySummary struct {
	Totals     map[model.FlagType]int `json:"totals"`
	Suspicious bool                   `json:"suspicious"`
	Events     []IntegrityEvent       `json:"events"`
}

// AttemptResultResponse is the scored view of an attempt for its candidate, the company, or an admin.
type AttemptResultResponse struct {
	AttemptID      string              `json:"attempt_id"`
	InviteID       string              `json:"invite_id"`
	TemplateID     string              `json:"template_id"`
	CandidateID    string              `json:"candidate_id"`
	Status         model.AttemptStatus `json:"status"`
	StartedAt      time.Time           `json:"started_at"`
	Deadline       time.Time           `json:"deadline"`
	SubmittedAt    *time.Time          `json:"submitted_at,omitempty"`
	Score          *float64            `json:"score,omitempty"`
	Passed         *bool               `json:"passed,omitempty"`
	BillingPending bool                `json:"billing_pending"`
	Answers        []AnswerBreakdown   `json:"answers"`
	Integrity      IntegritySummary    `json:"integrity"`
}
