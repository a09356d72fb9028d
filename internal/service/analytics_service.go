package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/repository"
)

const (
	analyticsOverviewKey = "analytics:overview"
	analyticsCoursesKey  = "analytics:courses"
	analyticsCollegesKey = "analytics:colleges"
	unknownCollege       = "Unknown"
)

// AnalyticsService aggregates enrollment and certification figures for admins.
type AnalyticsService interface {
	Overview(ctx context.Context) (dto.AnalyticsOverviewResponse, error)
	Courses(ctx context.Context) (dto.CourseAnalyticsListResponse, error)
	Colleges(ctx context.Context) (dto.CollegeAnalyticsListResponse, error)
}

type analyticsService struct {
	repo     repository.AnalyticsRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewAnalyticsService constructs the analytics service. A nil cache disables caching.
func NewAnalyticsService(repo repository.AnalyticsRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "analytics_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/certify-api/internal/service/analytics"),
	}
}

func (s *analyticsService) Overview(ctx context.Context) (dto.AnalyticsOverviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.overview")
	defer span.End()

	var response dto.AnalyticsOverviewResponse
	if s.readCache(ctx, span, analyticsOverviewKey, &response) {
		response.CacheHit = true
		return response, nil
	}

	counts, err := s.repo.Overview(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "overview_failed")
		return dto.AnalyticsOverviewResponse{}, err
	}

	grades, err := s.repo.GradeDistribution(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_distribution_failed")
		return dto.AnalyticsOverviewResponse{}, err
	}

	response = dto.AnalyticsOverviewResponse{
		TotalStudents:        counts.TotalStudents,
		TotalCourses:         counts.TotalCourses,
		TotalEnrollments:     counts.TotalEnrollments,
		CompletedEnrollments: counts.CompletedEnrollments,
		CompletionRate:       completionRate(counts.CompletedEnrollments, counts.TotalEnrollments),
		TotalCertificates:    counts.TotalCertificates,
		GradeDistribution:    gradeDistribution(grades),
	}
	span.SetAttributes(attribute.Int64("analytics.total_enrollments", counts.TotalEnrollments))

	s.writeCache(ctx, span, analyticsOverviewKey, response)
	return response, nil
}

func (s *analyticsService) Courses(ctx context.Context) (dto.CourseAnalyticsListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.courses")
	defer span.End()

	var response dto.CourseAnalyticsListResponse
	if s.readCache(ctx, span, analyticsCoursesKey, &response) {
		response.CacheHit = true
		return response, nil
	}

	stats, err := s.repo.CourseStats(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_stats_failed")
		return dto.CourseAnalyticsListResponse{}, err
	}

	items := make([]dto.CourseAnalyticsResponse, 0, len(stats))
	for _, stat := range stats {
		courseID := stat.CourseID
		grades, err := s.repo.GradeDistribution(ctx, &courseID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "grade_distribution_failed")
			return dto.CourseAnalyticsListResponse{}, err
		}

		item := dto.CourseAnalyticsResponse{
			CourseID:           stat.CourseID,
			Title:              stat.Title,
			Code:               stat.Code,
			TotalEnrollments:   stat.TotalEnrollments,
			Completed:          stat.Completed,
			Failed:             stat.Failed,
			CertificatesIssued: stat.CertificatesIssued,
			CompletionRate:     completionRate(stat.Completed, stat.TotalEnrollments),
			GradeDistribution:  gradeDistribution(grades),
		}
		if stat.AverageFinalScore != nil {
			item.AverageFinalScore = roundScore(*stat.AverageFinalScore)
		}
		items = append(items, item)
	}
	span.SetAttributes(attribute.Int("analytics.course_count", len(items)))

	response = dto.CourseAnalyticsListResponse{Items: items}
	s.writeCache(ctx, span, analyticsCoursesKey, response)
	return response, nil
}

// Colleges groups enrollments by the college captured at enrollment; blank
// colleges are reported as "Unknown".
func (s *analyticsService) Colleges(ctx context.Context) (dto.CollegeAnalyticsListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.colleges")
	defer span.End()

	var response dto.CollegeAnalyticsListResponse
	if s.readCache(ctx, span, analyticsCollegesKey, &response) {
		response.CacheHit = true
		return response, nil
	}

	stats, err := s.repo.CollegeStats(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "college_stats_failed")
		return dto.CollegeAnalyticsListResponse{}, err
	}

	items := make([]dto.CollegeAnalyticsResponse, 0, len(stats))
	for _, stat := range stats {
		college := strings.TrimSpace(stat.College)
		if college == "" {
			college = unknownCollege
		}
		items = append(items, dto.CollegeAnalyticsResponse{
			College:              college,
			TotalStudents:        stat.TotalStudents,
			TotalEnrollments:     stat.TotalEnrollments,
			CompletedEnrollments: stat.CompletedEnrollments,
			CompletionRate:       completionRate(stat.CompletedEnrollments, stat.TotalEnrollments),
		})
	}

	response = dto.CollegeAnalyticsListResponse{Items: items}
	s.writeCache(ctx, span, analyticsCollegesKey, response)
	return response, nil
}

func (s *analyticsService) readCache(ctx context.Context, span trace.Span, key string, target interface{}) bool {
	span.SetAttributes(attribute.String("analytics.cache_key", key))
	if s.cache == nil {
		return false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read analytics cache")
			span.RecordError(err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(cached), target); err != nil {
		return false
	}
	span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
	return true
}

func (s *analyticsService) writeCache(ctx context.Context, span trace.Span, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store analytics cache")
		span.RecordError(err)
	}
}

// completionRate is a percentage rounded to two decimals.
func completionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return roundScore(float64(completed) / float64(total) * 100)
}

func gradeDistribution(counts []repository.GradeCount) map[string]int64 {
	distribution := map[string]int64{
		string(models.GradeA): 0,
		string(models.GradeB): 0,
		string(models.GradeC): 0,
		string(models.GradeD): 0,
		string(models.GradeF): 0,
	}
	for _, count := range counts {
		distribution[string(count.Grade)] += count.Total
	}
	return distribution
}
