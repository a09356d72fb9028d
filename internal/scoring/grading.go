package scoring

import (
	"github.com/noah-isme/certify-api/internal/models"
	apperrors "github.com/noah-isme/certify-api/pkg/errors"
)

var (
	// ErrNegativeScore rejects manual scores below zero.
	ErrNegativeScore = apperrors.Derive(apperrors.ErrValidation, "NEGATIVE_SCORE", "score cannot be negative")
	// ErrRejectedRequiresOverride guards against silently lifting a rejection.
	ErrRejectedRequiresOverride = apperrors.Derive(apperrors.ErrInvalidState, "REJECTION_OVERRIDE_REQUIRED", "submission is rejected; an explicit override is required")
)

// QuestionResult is the credit awarded for one question.
type QuestionResult struct {
	QuestionID string  `json:"question_id"`
	Awarded    float64 `json:"awarded"`
	MaxMarks   float64 `json:"max_marks"`
}

// Evaluation is the outcome of auto-grading one submission.
type Evaluation struct {
	AutoScore  float64
	TotalScore float64
	Flags      models.SubmissionFlags
	Status     models.SubmissionStatus
	Results    []QuestionResult
}

// Engine grades submitted answers against an assignment's answer key.
type Engine struct {
	matcher AnswerMatcher
}

// NewEngine builds an engine; a nil matcher falls back to SubstringMatcher.
func NewEngine(matcher AnswerMatcher) Engine {
	if matcher == nil {
		matcher = SubstringMatcher
	}
	return Engine{matcher: matcher}
}

// Evaluate scores the answers and derives the anti-cheat flags and status.
// Answers for unknown questions are ignored and only the first answer per
// question counts. manualScore is any score already awarded by a verifier.
func (e Engine) Evaluate(assignment models.Assignment, answers []models.Answer, tabSwitchCount int, elapsedMinutes float64, manualScore float64) Evaluation {
	matcher := e.matcher
	if matcher == nil {
		matcher = SubstringMatcher
	}

	seen := make(map[string]struct{}, len(answers))
	results := make([]QuestionResult, 0, len(answers))
	var autoScore float64

	for _, answer := range answers {
		question, ok := assignment.Question(answer.QuestionID)
		if !ok {
			continue
		}
		if _, dup := seen[question.ID]; dup {
			continue
		}
		seen[question.ID] = struct{}{}

		awarded := 0.0
		if questionEarnsCredit(question, answer, matcher) {
			awarded = question.MaxMarks
		}
		autoScore += awarded
		results = append(results, QuestionResult{QuestionID: question.ID, Awarded: awarded, MaxMarks: question.MaxMarks})
	}

	if tabSwitchCount < 0 {
		tabSwitchCount = 0
	}
	timeExceeded := elapsedMinutes > float64(assignment.TimeLimitMinutes)
	flags := models.SubmissionFlags{
		TabSwitchCount:    tabSwitchCount,
		TimeExceeded:      timeExceeded,
		CheatingSuspected: tabSwitchCount > assignment.AntiCheat.MaxTabSwitches || timeExceeded,
	}

	status := models.SubmissionStatusEvaluated
	if flags.CheatingSuspected {
		status = models.SubmissionStatusRejected
	}

	return Evaluation{
		AutoScore:  autoScore,
		TotalScore: autoScore + manualScore,
		Flags:      flags,
		Status:     status,
		Results:    results,
	}
}

func questionEarnsCredit(question models.Question, answer models.Answer, matcher AnswerMatcher) bool {
	switch question.Type {
	case models.QuestionTypeMCQ:
		if question.CorrectOptionIndex == nil || answer.SelectedOptionIndex == nil {
			return false
		}
		return *answer.SelectedOptionIndex == *question.CorrectOptionIndex
	case models.QuestionTypeShort, models.QuestionTypeCode:
		return matcher(answer.AnswerText, question.AnswerExplanation)
	default:
		return false
	}
}

// Evaluate grades with the default substring matcher.
func Evaluate(assignment models.Assignment, answers []models.Answer, tabSwitchCount int, elapsedMinutes float64, manualScore float64) Evaluation {
	return NewEngine(nil).Evaluate(assignment, answers, tabSwitchCount, elapsedMinutes, manualScore)
}

// ApplyManualScore records a verifier's score. A pending submission becomes
// evaluated; a rejected one only when override is set.
func ApplyManualScore(submission *models.Submission, manualScore float64, override bool) error {
	if manualScore < 0 {
		return ErrNegativeScore
	}
	if submission.Status == models.SubmissionStatusRejected && !override {
		return ErrRejectedRequiresOverride
	}

	submission.ManualScore = manualScore
	submission.TotalScore = submission.AutoScore + submission.ManualScore
	submission.Status = models.SubmissionStatusEvaluated
	if override {
		submission.RejectionReason = ""
	}
	return nil
}
