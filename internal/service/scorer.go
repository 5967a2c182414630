package service

import (
	"math"
	"strings"

	"github.com/lshigami/skillcheck/internal/model"
	"github.com/rs/zerolog/log"
)

// QuestionScore is the grading outcome of one answered question.
type QuestionScore struct {
	Correct bool
	Points  float64
}

// ScoreResult is the outcome of grading a whole attempt.
type ScoreResult struct {
	Score     float64 // percent of max points, two decimals
	Passed    bool
	Awarded   float64
	MaxPoints float64
	Questions map[string]QuestionScore // keyed by question id
}

type Scorer interface {
	Score(template *model.AssessmentTemplate, answers []model.AttemptAnswer) ScoreResult
}

type scorer struct{}

func NewScorer() Scorer {
	return &scorer{}
}

// Score awards a question's full points when its answer matches, nothing otherwise.
// Unanswered questions count toward the maximum.
func (s *scorer) Score(template *model.AssessmentTemplate, answers []model.AttemptAnswer) ScoreResult {
	byQuestion := make(map[string]string, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Answer
	}

	result := ScoreResult{
		MaxPoints: template.MaxPoints(),
		Questions: make(map[string]QuestionScore, len(template.Questions)),
	}
	for _, q := range template.Questions {
		answer, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		qs := QuestionScore{Correct: matches(q, answer)}
		if qs.Correct {
			qs.Points = q.Points
			result.Awarded += q.Points
		}
		result.Questions[q.ID] = qs
	}

	if result.MaxPoints > 0 {
		result.Score = math.Round(result.Awarded/result.MaxPoints*100*100) / 100
	}
	result.Passed = result.Score >= template.PassingScorePercent
	return result
}

func matches(q model.TemplateQuestion, answer string) bool {
	switch q.Kind {
	case model.QuestionMultipleChoice:
		return strings.TrimSpace(answer) == strings.TrimSpace(q.ExpectedAnswer)
	case model.QuestionShortAnswer:
		return strings.EqualFold(collapseSpace(answer), collapseSpace(q.ExpectedAnswer))
	case model.QuestionCoding:
		return collapseSpace(answer) == collapseSpace(q.ExpectedAnswer)
	default:
		log.Error().Str("questionID", q.ID).Str("kind", string(q.Kind)).Msg("Unknown question kind, answer not scored")
		return false
	}
}

// collapseSpace trims s and folds every run of whitespace into a single space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
