package scoring

import "github.com/noah-isme/certify-api/internal/models"

var gradeThresholds = []struct {
	min   float64
	grade models.Grade
}{
	{90, models.GradeA},
	{80, models.GradeB},
	{70, models.GradeC},
	{60, models.GradeD},
}

// GradeFor maps a 0-100 final score to a letter grade. Thresholds are
// inclusive lower bounds.
func GradeFor(finalScore float64) models.Grade {
	for _, t := range gradeThresholds {
		if finalScore >= t.min {
			return t.grade
		}
	}
	return models.GradeF
}
