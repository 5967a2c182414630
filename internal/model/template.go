package model

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionKind is the closed set of question types a template may contain.
type QuestionKind string

const (
	QuestionMultipleChoice QuestionKind = "MULTIPLE_CHOICE"
	QuestionShortAnswer    QuestionKind = "SHORT_ANSWER"
	QuestionCoding         QuestionKind = "CODING"
)

// Valid reports whether k is one of the known kinds.
func (k QuestionKind) Valid() bool {
	switch k {
	case QuestionMultipleChoice, QuestionShortAnswer, QuestionCoding:
		return true
	}
	return false
}

// CostSchedule is what a single candidate costs the company: ReserveCredits are held when the
// invite is issued, CompleteCredits are charged in total when the attempt is submitted.
type CostSchedule struct {
	ReserveCredits  Credits `json:"reserve_credits" gorm:"not null;default:0"`
	CompleteCredits Credits `json:"complete_credits" gorm:"not null;default:0"`
}

type AssessmentTemplate struct {
	ID                  string             `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CompanyID           string             `gorm:"type:varchar(64);not null;index" json:"company_id"`
	Title               string             `gorm:"not null" json:"title"`
	Description         string             `gorm:"type:text" json:"description,omitempty"`
	TotalQuestions      int                `gorm:"not null" json:"total_questions"`
	TimeLimitMinutes    int                `gorm:"not null" json:"time_limit_minutes"`
	PassingScorePercent float64            `gorm:"not null" json:"passing_score_percent"`
	CostSchedule        CostSchedule       `gorm:"embedded;embeddedPrefix:cost_" json:"cost_schedule"`
	Questions           []TemplateQuestion `gorm:"foreignKey:TemplateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"questions,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// TimeLimit is the attempt time box.
func (t *AssessmentTemplate) TimeLimit() time.Duration {
	return time.Duration(t.TimeLimitMinutes) * time.Minute
}

// MaxPoints is the sum of all question points.
func (t *AssessmentTemplate) MaxPoints() float64 {
	total := 0.0
	for _, q := range t.Questions {
		total += q.Points
	}
	return total
}

// Question returns the question with the given id, if it belongs to the template.
func (t *AssessmentTemplate) Question(id string) (TemplateQuestion, bool) {
	for _, q := range t.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return TemplateQuestion{}, false
}

type TemplateQuestion struct {
	ID             string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TemplateID     string                      `gorm:"type:varchar(36);not null;index" json:"template_id"`
	Position       int                         `gorm:"not null" json:"position"`
	Kind           QuestionKind                `gorm:"type:varchar(32);not null" json:"kind"`
	Prompt         string                      `gorm:"type:text;not null" json:"prompt"`
	Options        datatypes.JSONSlice[string] `json:"options,omitempty"`
	ExpectedAnswer string                      `gorm:"type:text;not null" json:"-"`
	Points         float64                     `gorm:"not null" json:"points"`
}
