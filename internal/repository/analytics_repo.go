package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/models"
)

// OverviewCounts are the platform-wide totals behind the analytics overview.
type OverviewCounts struct {
	TotalStudents        int64
	TotalCourses         int64
	TotalEnrollments     int64
	CompletedEnrollments int64
	TotalCertificates    int64
}

// CourseStat aggregates enrollments and certificates for one course.
type CourseStat struct {
	CourseID           uint
	Title              string
	Code               string
	TotalEnrollments   int64
	Completed          int64
	Failed             int64
	CertificatesIssued int64
	AverageFinalScore  *float64
}

// CollegeStat aggregates enrollments by the college captured at enrollment.
type CollegeStat struct {
	College              string
	TotalStudents        int64
	TotalEnrollments     int64
	CompletedEnrollments int64
}

// GradeCount is the number of issued certificates carrying a grade.
type GradeCount struct {
	Grade models.Grade
	Total int64
}

// AnalyticsRepository runs the aggregate queries for the admin analytics.
type AnalyticsRepository interface {
	Overview(ctx context.Context) (OverviewCounts, error)
	CourseStats(ctx context.Context) ([]CourseStat, error)
	CollegeStats(ctx context.Context) ([]CollegeStat, error)
	GradeDistribution(ctx context.Context, courseID *uint) ([]GradeCount, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Overview(ctx context.Context) (OverviewCounts, error) {
	var counts OverviewCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&counts.TotalStudents).Error; err != nil {
		return OverviewCounts{}, err
	}
	if err := db.Model(&models.Course{}).Count(&counts.TotalCourses).Error; err != nil {
		return OverviewCounts{}, err
	}
	if err := db.Model(&models.Enrollment{}).Count(&counts.TotalEnrollments).Error; err != nil {
		return OverviewCounts{}, err
	}
	if err := db.Model(&models.Enrollment{}).
		Where("status = ?", models.EnrollmentStatusCompleted).
		Count(&counts.CompletedEnrollments).Error; err != nil {
		return OverviewCounts{}, err
	}
	if err := db.Model(&models.Certificate{}).Count(&counts.TotalCertificates).Error; err != nil {
		return OverviewCounts{}, err
	}
	return counts, nil
}

func (r *analyticsRepository) CourseStats(ctx context.Context) ([]CourseStat, error) {
	var stats []CourseStat
	err := r.db.WithContext(ctx).
		Table("courses AS c").
		Select(`c.id AS course_id, c.title AS title, c.code AS code,
			COUNT(e.id) AS total_enrollments,
			COALESCE(SUM(CASE WHEN e.status = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN e.status = ? THEN 1 ELSE 0 END), 0) AS failed,
			AVG(CASE WHEN e.status = ? THEN e.final_score END) AS average_final_score,
			(SELECT COUNT(*) FROM certificates ct WHERE ct.course_id = c.id) AS certificates_issued`,
			models.EnrollmentStatusCompleted, models.EnrollmentStatusFailed, models.EnrollmentStatusCompleted).
		Joins("LEFT JOIN enrollments e ON e.course_id = c.id").
		Group("c.id, c.title, c.code").
		Order("c.id ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *analyticsRepository) CollegeStats(ctx context.Context) ([]CollegeStat, error) {
	var stats []CollegeStat
	err := r.db.WithContext(ctx).
		Table("enrollments").
		Select(`TRIM(profile_college) AS college,
			COUNT(DISTINCT student_id) AS total_students,
			COUNT(id) AS total_enrollments,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed_enrollments`,
			models.EnrollmentStatusCompleted).
		Group("TRIM(profile_college)").
		Order("total_enrollments DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *analyticsRepository) GradeDistribution(ctx context.Context, courseID *uint) ([]GradeCount, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Select("grade, COUNT(*) AS total").
		Where("status = ?", models.CertificateStatusIssued)
	if courseID != nil {
		query = query.Where("course_id = ?", *courseID)
	}

	var counts []GradeCount
	if err := query.Group("grade").Order("grade ASC").Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}
