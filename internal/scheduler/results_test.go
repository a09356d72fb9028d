package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
)

type stubCourses struct {
	courses []models.Course
	err     error
	asked   time.Time
}

func (s *stubCourses) ListDueForResults(_ context.Context, now time.Time) ([]models.Course, error) {
	s.asked = now
	return s.courses, s.err
}

type stubResults struct {
	failFor map[uint]bool
	calls   []uint
}

func (s *stubResults) GenerateCourseResults(_ context.Context, courseID uint) (dto.CourseResultsSummary, error) {
	s.calls = append(s.calls, courseID)
	if s.failFor[courseID] {
		return dto.CourseResultsSummary{}, errors.New("boom")
	}
	return dto.CourseResultsSummary{CourseID: courseID, Processed: 2}, nil
}

func TestSweepGeneratesDueCourses(t *testing.T) {
	courses := &stubCourses{courses: []models.Course{{ID: 1}, {ID: 2}, {ID: 3}}}
	results := &stubResults{failFor: map[uint]bool{2: true}}

	sweeper := NewResultsSweeper(courses, results, zerolog.Nop())
	fixed := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return fixed }

	processed, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, processed)
	require.Equal(t, []uint{1, 2, 3}, results.calls)
	require.Equal(t, fixed, courses.asked)
}

func TestSweepListFailure(t *testing.T) {
	sweeper := NewResultsSweeper(&stubCourses{err: errors.New("db down")}, &stubResults{}, zerolog.Nop())

	_, err := sweeper.Sweep(context.Background())
	require.ErrorContains(t, err, "db down")
}

func TestStartRejectsBadSpec(t *testing.T) {
	sweeper := NewResultsSweeper(&stubCourses{}, &stubResults{}, zerolog.Nop())

	require.Error(t, sweeper.Start("every tuesday"))
}

func TestStartAndStop(t *testing.T) {
	sweeper := NewResultsSweeper(&stubCourses{}, &stubResults{}, zerolog.Nop())
	require.NoError(t, sweeper.Start("*/5 * * * *"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sweeper.Stop(ctx)
}
