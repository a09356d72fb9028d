package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/config"
	"github.com/noah-isme/certify-api/internal/database"
	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/handler"
	"github.com/noah-isme/certify-api/internal/middleware"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/repository"
	"github.com/noah-isme/certify-api/internal/router"
	"github.com/noah-isme/certify-api/internal/service"
)

const jwtSecret = "workflow-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	app      *fiber.App
	cache    *miniredis.Miniredis
	admin    models.User
	verifier models.User
	student  models.User
}

func setupApp(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		admin:    models.User{Name: "Ada Admin", Email: "admin@certify.test", Role: models.RoleAdmin, Active: true},
		verifier: models.User{Name: "Vera Verifier", Email: "verifier@certify.test", Role: models.RoleVerifier, Active: true},
		student:  models.User{Name: "Sam Student", Email: "sam@certify.test", Role: models.RoleStudent, Active: true},
	}
	require.NoError(t, db.Create(&env.admin).Error)
	require.NoError(t, db.Create(&env.verifier).Error)
	require.NoError(t, db.Create(&env.student).Error)

	env.cache = miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: env.cache.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	doubtRepo := repository.NewDoubtRepository(db)

	scores := service.NewScoreService(enrollmentRepo, submissionRepo, courseRepo, certificateRepo, logger)
	certificates := service.NewCertificateService(service.CertificateDependencies{
		Enrollments:  enrollmentRepo,
		Certificates: certificateRepo,
		Scores:       scores,
		Cache:        cache,
		BaseURL:      "https://certify.example.com",
	}, logger)
	courses := service.NewCourseService(courseRepo, userRepo, validate, logger)
	assignments := service.NewAssignmentService(assignmentRepo, courseRepo, validate, logger)
	enrollments := service.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, certificateRepo, certificates, validate, logger)
	submissions := service.NewSubmissionService(submissionRepo, assignmentRepo, enrollmentRepo, courseRepo, scores, nil, validate, logger)
	evaluations := service.NewEvaluationService(submissionRepo, enrollmentRepo, courseRepo, scores, nil, validate, logger)
	doubts := service.NewDoubtService(doubtRepo, enrollmentRepo, courseRepo, nil, validate, logger)
	analytics := service.NewAnalyticsService(repository.NewAnalyticsRepository(db), cache, time.Minute, logger)
	dashboards := service.NewDashboardService(service.DashboardDependencies{
		Enrollments:  enrollmentRepo,
		Courses:      courseRepo,
		Certificates: certificateRepo,
		Submissions:  submissionRepo,
		Doubts:       doubtRepo,
	}, logger)
	users := service.NewUserService(userRepo, validate, logger)
	applications := service.NewVerifierRequestService(repository.NewVerifierRequestRepository(db), nil, nil, validate, logger)

	env.app = fiber.New()
	middleware.Register(env.app, middleware.Config{Logger: &logger})
	router.Register(env.app, config.Config{AppName: "Certify Test", AppEnv: "test"}, router.Dependencies{
		CourseHandler:         handler.NewCourseHandler(courses, logger),
		AssignmentHandler:     handler.NewAssignmentHandler(assignments, logger),
		SubmissionHandler:     handler.NewSubmissionHandler(submissions, logger),
		EvaluationHandler:     handler.NewEvaluationHandler(evaluations, logger),
		EnrollmentHandler:     handler.NewEnrollmentHandler(enrollments, logger),
		CertificateHandler:    handler.NewCertificateHandler(certificates, validate, logger),
		ResultsHandler:        handler.NewResultsHandler(scores, logger),
		DoubtHandler:          handler.NewDoubtHandler(doubts, logger),
		AnalyticsHandler:      handler.NewAnalyticsHandler(analytics, logger),
		DashboardHandler:      handler.NewDashboardHandler(dashboards, logger),
		UserHandler:           handler.NewUserHandler(users, logger),
		VerifierHandler:       handler.NewVerifierRequestHandler(applications, logger),
		JWTMiddleware:         middleware.JWTProtected(jwtSecret),
		OptionalJWTMiddleware: middleware.JWTOptional(jwtSecret),
	})

	return env
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"role": string(user.Role),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return token
}

func (e *testEnv) call(t *testing.T, method, path string, user *models.User, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, *user))
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var out envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func decodeData(t *testing.T, env envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, target))
}

func TestCertificationWorkflow(t *testing.T) {
	env := setupApp(t)

	resp, body := env.call(t, http.MethodPost, "/api/v1/courses", &env.admin, map[string]interface{}{
		"title":        "Concurrency in Go",
		"code":         "go-201",
		"verifier_ids": []uint{env.verifier.ID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var course dto.CourseResponse
	decodeData(t, body, &course)
	require.Equal(t, "GO-201", course.Code)
	require.Equal(t, "draft", course.Status)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/lessons", course.ID), &env.admin, map[string]interface{}{"title": "Channels"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var lesson dto.LessonResponse
	decodeData(t, body, &lesson)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/lessons/%d/modules", lesson.ID), &env.admin, map[string]interface{}{"title": "Select statements"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var module dto.ModuleResponse
	decodeData(t, body, &module)
	require.Equal(t, course.ID, module.CourseID)

	resp, body = env.call(t, http.MethodPost, "/api/v1/assignments", &env.admin, map[string]interface{}{
		"module_id": module.ID,
		"type":      "theory",
		"questions": []map[string]interface{}{{
			"id":                   "q1",
			"q_type":               "mcq",
			"question_text":        "Which primitive hands values between goroutines?",
			"options":              []string{"Mutex", "Channel"},
			"correct_option_index": 1,
			"max_marks":            5,
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var assignment dto.AssignmentResponse
	decodeData(t, body, &assignment)
	require.Equal(t, float64(5), assignment.MaxScore)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", course.ID), &env.student, enrollPayload(env.student))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "COURSE_NOT_PUBLISHED", body.Code)

	resp, _ = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/publish", course.ID), &env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", course.ID), &env.student, enrollPayload(env.student))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var enrollment dto.EnrollmentResponse
	decodeData(t, body, &enrollment)
	require.NotNil(t, enrollment.VerifierID)
	require.Equal(t, env.verifier.ID, *enrollment.VerifierID)

	resp, body = env.call(t, http.MethodGet, fmt.Sprintf("/api/v1/assignments/modules/%d", module.ID), &env.student, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotContains(t, string(body.Data), "correct_option_index")

	resp, _ = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/start", assignment.ID), &env.student, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submit", assignment.ID), &env.student, map[string]interface{}{
		"answers":          []map[string]interface{}{{"question_id": "q1", "selected_option_index": 1}},
		"tab_switch_count": 0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	var submission dto.SubmissionResponse
	decodeData(t, body, &submission)
	require.Equal(t, "evaluated", submission.Status)
	require.Equal(t, float64(5), submission.TotalScore)

	resp, _ = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/enrollments/%d/complete", enrollment.ID), &env.student, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/enrollments/%d/finalize", enrollment.ID), &env.verifier, map[string]interface{}{"pass": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	var finalized dto.FinalizeEnrollmentResponse
	decodeData(t, body, &finalized)
	require.NotNil(t, finalized.Certificate)
	certificate := *finalized.Certificate
	require.Equal(t, float64(100), certificate.TotalScore)
	require.Equal(t, "A", certificate.Grade)
	require.NotEmpty(t, certificate.VerificationHash)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/enrollments/%d/certificate", enrollment.ID), &env.verifier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "certificate already issued", body.Message)

	verification := env.verify(t, certificate.VerificationHash)
	require.True(t, verification.Valid)
	require.Equal(t, certificate.CertificateNumber, verification.CertificateNumber)
	require.Equal(t, "Concurrency in Go", verification.CourseTitle)

	resp, body = env.call(t, http.MethodGet, "/api/v1/certificates", &env.student, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []dto.CertificateResponse
	decodeData(t, body, &mine)
	require.Len(t, mine, 1)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/certificates/%d/revoke", certificate.ID), &env.admin, map[string]interface{}{"reason": "issued in error"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)

	verification = env.verify(t, certificate.VerificationHash)
	require.False(t, verification.Valid)
	require.Equal(t, dto.VerificationReasonRevoked, verification.Reason)
}

func enrollPayload(user models.User) map[string]interface{} {
	return map[string]interface{}{
		"name":       user.Name,
		"email":      user.Email,
		"class_year": "2026",
		"college":    "Northfield Institute",
		"mobile":     "+15550100",
	}
}

func (e *testEnv) verify(t *testing.T, hash string) dto.VerificationResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/certificates/verify/"+hash, nil)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result dto.VerificationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.NoError(t, resp.Body.Close())
	return result
}

func TestVerifyUnknownHashIsPublic(t *testing.T) {
	env := setupApp(t)

	result := env.verify(t, "does-not-exist")
	require.False(t, result.Valid)
	require.Equal(t, dto.VerificationReasonNotFound, result.Reason)
}

func TestRouteGuards(t *testing.T) {
	env := setupApp(t)

	resp, _ := env.call(t, http.MethodGet, "/api/v1/courses", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.call(t, http.MethodPost, "/api/v1/courses", &env.student, map[string]interface{}{"title": "Nope", "code": "NOPE"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.call(t, http.MethodGet, "/api/v1/certificates", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.call(t, http.MethodGet, "/api/v1/certificates", &env.verifier, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.call(t, http.MethodPost, "/api/v1/courses/1/results", &env.verifier, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := env.call(t, http.MethodGet, "/api/v1/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, body.Success)
}

func TestValidationErrorsRenderDetails(t *testing.T) {
	env := setupApp(t)

	resp, body := env.call(t, http.MethodPost, "/api/v1/courses", &env.admin, map[string]interface{}{"code": "X"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "VALIDATION_ERROR", body.Code)
}

func TestDoubtsDashboardsAndAdministration(t *testing.T) {
	env := setupApp(t)

	resp, body := env.call(t, http.MethodPost, "/api/v1/courses", &env.admin, map[string]interface{}{
		"title":        "Distributed Systems",
		"code":         "ds-301",
		"verifier_ids": []uint{env.verifier.ID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var course dto.CourseResponse
	decodeData(t, body, &course)

	resp, _ = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/publish", course.ID), &env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/doubts", course.ID), &env.student, map[string]interface{}{"message": "Before enrolling?"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "NOT_ENROLLED", body.Code)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", course.ID), &env.student, enrollPayload(env.student))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/doubts", course.ID), &env.student, map[string]interface{}{"message": "How are quorum reads graded?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var doubt dto.DoubtResponse
	decodeData(t, body, &doubt)
	require.Equal(t, "open", doubt.Status)

	resp, body = env.call(t, http.MethodGet, "/api/v1/doubts/assigned", &env.verifier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var assigned []dto.DoubtResponse
	decodeData(t, body, &assigned)
	require.Len(t, assigned, 1)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/doubts/%d/answers", doubt.ID), &env.verifier, map[string]interface{}{"message": "By the verifier, out of 50."})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	decodeData(t, body, &doubt)
	require.Equal(t, "answered", doubt.Status)
	require.Len(t, doubt.Answers, 1)

	resp, body = env.call(t, http.MethodGet, "/api/v1/dashboard/student", &env.student, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var studentDashboard dto.StudentDashboardResponse
	decodeData(t, body, &studentDashboard)
	require.Zero(t, studentDashboard.OpenDoubts)
	require.Empty(t, studentDashboard.UpcomingCourses)

	resp, body = env.call(t, http.MethodGet, "/api/v1/dashboard/verifier", &env.verifier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verifierDashboard dto.VerifierOverviewResponse
	decodeData(t, body, &verifierDashboard)
	require.Equal(t, 1, verifierDashboard.TotalCandidates)

	resp, _ = env.call(t, http.MethodGet, "/api/v1/analytics/overview", &env.verifier, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = env.call(t, http.MethodGet, "/api/v1/analytics/overview", &env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var overview dto.AnalyticsOverviewResponse
	decodeData(t, body, &overview)
	require.False(t, overview.CacheHit)
	require.Equal(t, int64(1), overview.TotalEnrollments)

	_, body = env.call(t, http.MethodGet, "/api/v1/analytics/overview", &env.admin, nil)
	decodeData(t, body, &overview)
	require.True(t, overview.CacheHit)

	resp, body = env.call(t, http.MethodPost, "/api/v1/verifier-requests", nil, map[string]interface{}{
		"name":    "Nia Reviewer",
		"email":   "Nia@Certify.test",
		"college": "Northfield Institute",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var application dto.VerifierRequestResponse
	decodeData(t, body, &application)
	require.Equal(t, "nia@certify.test", application.Email)

	resp, _ = env.call(t, http.MethodGet, "/api/v1/verifier-requests", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = env.call(t, http.MethodPost, fmt.Sprintf("/api/v1/verifier-requests/%d/accept", application.ID), &env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	var accepted dto.AcceptVerifierResponse
	decodeData(t, body, &accepted)
	require.Equal(t, "verifier", accepted.User.Role)

	resp, body = env.call(t, http.MethodGet, "/api/v1/users?role=verifier", &env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verifiers []dto.UserResponse
	decodeData(t, body, &verifiers)
	require.Len(t, verifiers, 2)

	resp, _ = env.call(t, http.MethodGet, "/api/v1/users", &env.student, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = env.call(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", env.admin.ID), &env.admin, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "CANNOT_DEACTIVATE_SELF", body.Code)
}
