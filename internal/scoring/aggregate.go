package scoring

import (
	"math"

	"github.com/noah-isme/certify-api/internal/models"
)

const (
	// TrackCeilingWithPractical is the share each track scales to when the
	// course has a practical session.
	TrackCeilingWithPractical = 50.0
	// TheoryCeilingAlone is the theory scale for theory-only courses.
	TheoryCeilingAlone = 100.0
)

// SubmissionScore is the aggregation input for one evaluated submission.
type SubmissionScore struct {
	Type       models.AssignmentType
	TotalScore float64
	MaxScore   float64
}

// Scores holds both raw track totals and the scaled enrollment scores.
type Scores struct {
	RawTheory    float64 `json:"raw_theory"`
	MaxTheory    float64 `json:"max_theory"`
	RawPractical float64 `json:"raw_practical"`
	MaxPractical float64 `json:"max_practical"`
	Theory       float64 `json:"theory_score"`
	Practical    float64 `json:"practical_score"`
	Final        float64 `json:"final_score"`
}

// Aggregate sums evaluated submissions per track and scales them. A supplied
// practical score takes precedence over the practical track; it is capped at
// 50. With no graded theory marks available the raw theory sum is used as is.
//
// Without a supplied score, a course with a practical session takes its
// practical share from the evaluated practical submissions, scaled to 50.
// This is an extension of the supplied-score rule: callers that only accept
// verifier-entered practical marks must pass suppliedPractical, as
// certificate issuance does.
func Aggregate(items []SubmissionScore, hasPracticalSession bool, suppliedPractical *float64) Scores {
	var scores Scores
	for _, item := range items {
		switch item.Type {
		case models.AssignmentTypePractical:
			scores.RawPractical += item.TotalScore
			scores.MaxPractical += item.MaxScore
		default:
			scores.RawTheory += item.TotalScore
			scores.MaxTheory += item.MaxScore
		}
	}

	theoryCeiling := TheoryCeilingAlone
	if hasPracticalSession {
		theoryCeiling = TrackCeilingWithPractical
	}
	scores.Theory = scale(scores.RawTheory, scores.MaxTheory, theoryCeiling)

	if hasPracticalSession {
		switch {
		case suppliedPractical != nil:
			scores.Practical = math.Min(TrackCeilingWithPractical, math.Max(0, *suppliedPractical))
		case scores.MaxPractical > 0:
			scores.Practical = scale(scores.RawPractical, scores.MaxPractical, TrackCeilingWithPractical)
		default:
			scores.Practical = math.Min(TrackCeilingWithPractical, scores.RawPractical)
		}
	}

	scores.Final = scores.Theory + scores.Practical
	return scores
}

func scale(raw, max, ceiling float64) float64 {
	if max <= 0 {
		return raw
	}
	return raw * ceiling / max
}
