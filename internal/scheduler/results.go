package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
)

// DueCourseLister finds courses whose results are ready to be generated.
type DueCourseLister interface {
	ListDueForResults(ctx context.Context, now time.Time) ([]models.Course, error)
}

// ResultsGenerator computes the results sheet of one course.
type ResultsGenerator interface {
	GenerateCourseResults(ctx context.Context, courseID uint) (dto.CourseResultsSummary, error)
}

// ResultsSweeper periodically generates results for courses that have ended.
type ResultsSweeper struct {
	courses DueCourseLister
	results ResultsGenerator
	logger  zerolog.Logger
	timeout time.Duration
	now     func() time.Time
	cron    *cron.Cron
}

// NewResultsSweeper constructs a sweeper. Call Start to schedule it.
func NewResultsSweeper(courses DueCourseLister, results ResultsGenerator, logger zerolog.Logger) *ResultsSweeper {
	logger = logger.With().Str("component", "results_sweeper").Logger()
	cronLogger := cronLogger{logger: logger}

	return &ResultsSweeper{
		courses: courses,
		results: results,
		logger:  logger,
		timeout: 5 * time.Minute,
		now:     time.Now,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}
}

// Start schedules the sweep with a standard five-field cron spec.
func (s *ResultsSweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("invalid results cron spec %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info().Str("spec", spec).Msg("results sweeper started")
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to expire.
func (s *ResultsSweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("results sweep still running at shutdown")
	}
}

func (s *ResultsSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error().Err(err).Msg("results sweep failed")
	}
}

// Sweep generates results for every due course and returns how many courses
// were processed. A failing course is logged and skipped.
func (s *ResultsSweeper) Sweep(ctx context.Context) (int, error) {
	courses, err := s.courses.ListDueForResults(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("list due courses: %w", err)
	}

	processed := 0
	for _, course := range courses {
		summary, err := s.results.GenerateCourseResults(ctx, course.ID)
		if err != nil {
			s.logger.Error().Err(err).Uint("course_id", course.ID).Msg("course results generation failed")
			continue
		}
		processed++
		s.logger.Info().
			Uint("course_id", course.ID).
			Int("enrollments", summary.Processed).
			Int("failures", len(summary.Failures)).
			Msg("course results generated")
	}

	return processed, nil
}

type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
