package dto

import (
	"time"

	"github.com/lshigami/skillcheck/internal/model"
)

// CostScheduleDTO mirrors model.CostSchedule so the two convert directly.
type CostScheduleDTO struct {
	ReserveCredits  model.Credits `json:"reserve_credits" validate:"gte=0"`
	CompleteCredits model.Credits `json:"complete_credits" validate:"gte=0"`
}

// QuestionRequest is one question of a published template.
type QuestionRequest struct {
	Kind           model.QuestionKind `json:"kind" validate:"required,oneof=MULTIPLE_CHOICE SHORT_ANSWER CODING"`
	Prompt         string             `json:"prompt" validate:"required"`
	Options        []string           `json:"options,omitempty" validate:"omitempty,dive,required"`
	ExpectedAnswer string             `json:"expected_answer" validate:"required"`
	Points         float64            `json:"points" validate:"gte=0"`
}

// TemplatePublishRequest creates or replaces an assessment template.
type TemplatePublishRequest struct {
	Title               string            `json:"title" validate:"required,max=200"`
	Description         string            `json:"description,omitempty"`
	TotalQuestions      int               `json:"total_questions" validate:"gt=0"`
	TimeLimitMinutes    int               `json:"time_limit_minutes" validate:"gt=0"`
	PassingScorePercent float64           `json:"passing_score_percent" validate:"gte=0,lte=100"`
	CostSchedule        CostScheduleDTO   `json:"cost_schedule"`
	Questions           []QuestionRequest `json:"questions" validate:"required,dive"`
}

// QuestionResponse hides the expected answer from every reader.
type QuestionResponse struct {
	ID       string             `json:"id"`
	Position int                `json:"position"`
	Kind     model.QuestionKind `json:"kind"`
	Prompt   string             `json:"prompt"`
	Options  []string           `json:"options,omitempty"`
	Points   float64            `json:"points"`
}

type TemplateResponse struct {
	ID                  string             `json:"id"`
	CompanyID           string             `json:"company_id"`
	Title               string             `json:"title"`
	Description         string             `json:"description,omitempty"`
	TotalQuestions      int                `json:"total_questions"`
	TimeLimitMinutes    int                `json:"time_limit_minutes"`
	PassingScorePercent float64            `json:"passing_score_percent"`
	CostSchedule        CostScheduleDTO    `json:"cost_schedule"`
	Questions           []QuestionResponse `json:"questions,omitempty"`
	Referenced          bool               `json:"referenced"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// TemplateSummary is used when listing a company's templates.
type TemplateSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	TotalQuestions   int       `json:"total_questions"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	CreatedAt        time.Time `json:"created_at"`
}
