package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/repository"
	"github.com/noah-isme/certify-api/pkg/mailer"
	"github.com/noah-isme/certify-api/pkg/pdf"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func ptr[T any](v T) *T {
	return &v
}

// store is a shared in-memory database for the fake repositories.
type store struct {
	mu           sync.Mutex
	nextID       uint
	users        map[uint]models.User
	courses      map[uint]models.Course
	lessons      map[uint]models.Lesson
	modules      map[uint]models.Module
	assignments  map[uint]models.Assignment
	enrollments  map[uint]models.Enrollment
	submissions  map[uint]models.Submission
	certificates map[uint]models.Certificate
	doubts       map[uint]models.Doubt
	applications map[uint]models.VerifierRequest
}

func newStore() *store {
	return &store{
		users:        map[uint]models.User{},
		courses:      map[uint]models.Course{},
		lessons:      map[uint]models.Lesson{},
		modules:      map[uint]models.Module{},
		assignments:  map[uint]models.Assignment{},
		enrollments:  map[uint]models.Enrollment{},
		submissions:  map[uint]models.Submission{},
		certificates: map[uint]models.Certificate{},
		doubts:       map[uint]models.Doubt{},
		applications: map[uint]models.VerifierRequest{},
	}
}

func (s *store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *store) addUser(user models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.id()
	user.Active = true
	s.users[user.ID] = user
	return user
}

func (s *store) addCourse(course models.Course) models.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	course.ID = s.id()
	s.courses[course.ID] = course
	return course
}

func (s *store) addAssignment(assignment models.Assignment) models.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignment.ID = s.id()
	if assignment.ModuleID == 0 {
		assignment.ModuleID = s.id()
	}
	s.assignments[assignment.ID] = assignment
	return assignment
}

func (s *store) addEnrollment(enrollment models.Enrollment) models.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	enrollment.ID = s.id()
	s.enrollments[enrollment.ID] = enrollment
	return s.hydrateEnrollment(enrollment)
}

func (s *store) addSubmission(submission models.Submission) models.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	submission.ID = s.id()
	s.submissions[submission.ID] = submission
	return submission
}

func (s *store) hydrateEnrollment(enrollment models.Enrollment) models.Enrollment {
	enrollment.Course = s.courses[enrollment.CourseID]
	enrollment.Student = s.users[enrollment.StudentID]
	return enrollment
}

func (s *store) hydrateCertificate(certificate models.Certificate) models.Certificate {
	certificate.Student = s.users[certificate.StudentID]
	certificate.Course = s.courses[certificate.CourseID]
	return certificate
}

type fakeUserRepo struct{ s *store }

func (r fakeUserRepo) GetByID(_ context.Context, id uint) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r fakeUserRepo) ListByIDs(_ context.Context, ids []uint) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := r.s.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r fakeUserRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (r fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var users []models.User
	for _, user := range r.s.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.College != "" && !strings.Contains(strings.ToLower(user.College), strings.ToLower(filter.College)) {
			continue
		}
		if filter.ClassYear != "" && user.ClassYear != filter.ClassYear {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })

	total := int64(len(users))
	if filter.PageSize > 0 {
		start := (filter.Page - 1) * filter.PageSize
		if start > len(users) {
			start = len(users)
		}
		end := start + filter.PageSize
		if end > len(users) {
			end = len(users)
		}
		users = users[start:end]
	}
	return users, total, nil
}

func (r fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[user.ID] = *user
	return nil
}

type fakeCourseRepo struct{ s *store }

func (r fakeCourseRepo) GetByID(_ context.Context, id uint) (models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	course, ok := r.s.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (r fakeCourseRepo) List(_ context.Context, status *models.CourseStatus) ([]models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var courses []models.Course
	for _, course := range r.s.courses {
		if status == nil || course.Status == *status {
			courses = append(courses, course)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func (r fakeCourseRepo) Create(_ context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.courses {
		if existing.Code == course.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	course.ID = r.s.id()
	r.s.courses[course.ID] = *course
	return nil
}

func (r fakeCourseRepo) Update(_ context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.courses[course.ID] = *course
	return nil
}

func (r fakeCourseRepo) ReplaceVerifiers(_ context.Context, course *models.Course, verifiers []models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := r.s.courses[course.ID]
	stored.Verifiers = verifiers
	r.s.courses[course.ID] = stored
	return nil
}

func (r fakeCourseRepo) ListForVerifier(_ context.Context, verifierID uint) ([]models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var courses []models.Course
	for _, course := range r.s.courses {
		if course.HasVerifier(verifierID) && course.Status != models.CourseStatusArchived {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

func (r fakeCourseRepo) ListDueForResults(_ context.Context, now time.Time) ([]models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var courses []models.Course
	for _, course := range r.s.courses {
		if course.IsPublished() && !course.ResultsGenerated && course.EndAt != nil && !course.EndAt.After(now) {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

func (r fakeCourseRepo) MarkResultsGenerated(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	course, ok := r.s.courses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	course.ResultsGenerated = true
	r.s.courses[id] = course
	return nil
}

func (r fakeCourseRepo) CreateLesson(_ context.Context, lesson *models.Lesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lesson.ID = r.s.id()
	r.s.lessons[lesson.ID] = *lesson
	return nil
}

func (r fakeCourseRepo) GetLesson(_ context.Context, id uint) (models.Lesson, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lesson, ok := r.s.lessons[id]
	if !ok {
		return models.Lesson{}, gorm.ErrRecordNotFound
	}
	return lesson, nil
}

func (r fakeCourseRepo) ListLessons(_ context.Context, courseID uint) ([]models.Lesson, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var lessons []models.Lesson
	for _, lesson := range r.s.lessons {
		if lesson.CourseID == courseID {
			lessons = append(lessons, lesson)
		}
	}
	return lessons, nil
}

func (r fakeCourseRepo) CreateModule(_ context.Context, module *models.Module) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	module.ID = r.s.id()
	r.s.modules[module.ID] = *module
	return nil
}

func (r fakeCourseRepo) GetModule(_ context.Context, id uint) (models.Module, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	module, ok := r.s.modules[id]
	if !ok {
		return models.Module{}, gorm.ErrRecordNotFound
	}
	return module, nil
}

type fakeAssignmentRepo struct{ s *store }

func (r fakeAssignmentRepo) GetByID(_ context.Context, id uint) (models.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	assignment, ok := r.s.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (r fakeAssignmentRepo) GetByModule(_ context.Context, moduleID uint) (models.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, assignment := range r.s.assignments {
		if assignment.ModuleID == moduleID {
			return assignment, nil
		}
	}
	return models.Assignment{}, gorm.ErrRecordNotFound
}

func (r fakeAssignmentRepo) ListByIDs(_ context.Context, ids []uint) ([]models.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var assignments []models.Assignment
	for _, id := range ids {
		if assignment, ok := r.s.assignments[id]; ok {
			assignments = append(assignments, assignment)
		}
	}
	return assignments, nil
}

func (r fakeAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	assignment.ID = r.s.id()
	r.s.assignments[assignment.ID] = *assignment
	return nil
}

func (r fakeAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.assignments[assignment.ID] = *assignment
	return nil
}

type fakeSubmissionRepo struct{ s *store }

func (r fakeSubmissionRepo) withAssignment(submission models.Submission) models.Submission {
	submission.Assignment = r.s.assignments[submission.AssignmentID]
	return submission
}

func (r fakeSubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var submissions []models.Submission
	for _, submission := range r.s.submissions {
		if filter.CourseID != nil && submission.CourseID != *filter.CourseID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.ModuleID != nil && submission.ModuleID != *filter.ModuleID {
			continue
		}
		if filter.EnrollmentID != nil && submission.EnrollmentID != *filter.EnrollmentID {
			continue
		}
		if filter.VerifierID != nil {
			enrollment := r.s.enrollments[submission.EnrollmentID]
			if enrollment.VerifierID == nil || *enrollment.VerifierID != *filter.VerifierID {
				continue
			}
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		submissions = append(submissions, r.withAssignment(submission))
	}
	sort.Slice(submissions, func(i, j int) bool { return submissions[i].ID < submissions[j].ID })
	return submissions, nil
}

func (r fakeSubmissionRepo) ListEvaluatedByEnrollment(ctx context.Context, enrollmentID uint) ([]models.Submission, error) {
	status := models.SubmissionStatusEvaluated
	return r.List(ctx, repository.SubmissionFilter{EnrollmentID: &enrollmentID, Status: &status})
}

func (r fakeSubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	submission, ok := r.s.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return r.withAssignment(submission), nil
}

func (r fakeSubmissionRepo) GetByAssignmentAndStudent(_ context.Context, assignmentID, studentID uint) (models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, submission := range r.s.submissions {
		if submission.AssignmentID == assignmentID && submission.StudentID == studentID {
			return r.withAssignment(submission), nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (r fakeSubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.submissions {
		if existing.AssignmentID == submission.AssignmentID && existing.StudentID == submission.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = r.s.id()
	stored := *submission
	stored.Assignment = models.Assignment{}
	r.s.submissions[submission.ID] = stored
	return nil
}

func (r fakeSubmissionRepo) Update(_ context.Context, submission *models.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *submission
	stored.Assignment = models.Assignment{}
	r.s.submissions[submission.ID] = stored
	return nil
}

type fakeEnrollmentRepo struct {
	s           *store
	updateCalls int
}

func (r *fakeEnrollmentRepo) GetByID(_ context.Context, id uint) (models.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	enrollment, ok := r.s.enrollments[id]
	if !ok {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}
	return r.s.hydrateEnrollment(enrollment), nil
}

func (r *fakeEnrollmentRepo) GetByStudentAndCourse(_ context.Context, studentID, courseID uint) (models.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, enrollment := range r.s.enrollments {
		if enrollment.StudentID == studentID && enrollment.CourseID == courseID {
			return r.s.hydrateEnrollment(enrollment), nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (r *fakeEnrollmentRepo) LatestForStudent(_ context.Context, studentID uint) (models.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *models.Enrollment
	for _, enrollment := range r.s.enrollments {
		enrollment := enrollment
		if enrollment.StudentID == studentID && (latest == nil || enrollment.ID > latest.ID) {
			latest = &enrollment
		}
	}
	if latest == nil {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}
	return r.s.hydrateEnrollment(*latest), nil
}

func (r *fakeEnrollmentRepo) List(_ context.Context, filter repository.EnrollmentFilter) ([]models.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var enrollments []models.Enrollment
	for _, enrollment := range r.s.enrollments {
		if filter.CourseID != nil && enrollment.CourseID != *filter.CourseID {
			continue
		}
		if filter.StudentID != nil && enrollment.StudentID != *filter.StudentID {
			continue
		}
		if filter.VerifierID != nil && (enrollment.VerifierID == nil || *enrollment.VerifierID != *filter.VerifierID) {
			continue
		}
		if filter.Status != nil && enrollment.Status != *filter.Status {
			continue
		}
		enrollments = append(enrollments, r.s.hydrateEnrollment(enrollment))
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].ID < enrollments[j].ID })
	return enrollments, nil
}

func (r *fakeEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.enrollments {
		if existing.StudentID == enrollment.StudentID && existing.CourseID == enrollment.CourseID {
			return gorm.ErrDuplicatedKey
		}
	}
	enrollment.ID = r.s.id()
	r.s.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (r *fakeEnrollmentRepo) Update(_ context.Context, enrollment *models.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (r *fakeEnrollmentRepo) UpdateScores(_ context.Context, id uint, scores repository.EnrollmentScores) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	enrollment, ok := r.s.enrollments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.updateCalls++
	enrollment.TheoryScore = scores.Theory
	enrollment.PracticalScore = scores.Practical
	enrollment.FinalScore = scores.Final
	r.s.enrollments[id] = enrollment
	return nil
}

type fakeCertificateRepo struct {
	s *store
	// issueHook runs before the insert and may return an error to simulate races.
	issueHook  func(certificate *models.Certificate) error
	issueCalls int
}

func (r *fakeCertificateRepo) Issue(_ context.Context, certificate *models.Certificate, scores repository.EnrollmentScores) error {
	r.issueCalls++
	if r.issueHook != nil {
		if err := r.issueHook(certificate); err != nil {
			return err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.certificates {
		if existing.EnrollmentID == certificate.EnrollmentID ||
			existing.CertificateNumber == certificate.CertificateNumber ||
			existing.VerificationHash == certificate.VerificationHash {
			return gorm.ErrDuplicatedKey
		}
	}
	enrollment, ok := r.s.enrollments[certificate.EnrollmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	certificate.ID = r.s.id()
	r.s.certificates[certificate.ID] = *certificate
	enrollment.TheoryScore = scores.Theory
	enrollment.PracticalScore = scores.Practical
	enrollment.FinalScore = scores.Final
	r.s.enrollments[enrollment.ID] = enrollment
	return nil
}

func (r *fakeCertificateRepo) insert(certificate models.Certificate) models.Certificate {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	certificate.ID = r.s.id()
	r.s.certificates[certificate.ID] = certificate
	return certificate
}

func (r *fakeCertificateRepo) GetByID(_ context.Context, id uint) (models.Certificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	certificate, ok := r.s.certificates[id]
	if !ok {
		return models.Certificate{}, gorm.ErrRecordNotFound
	}
	return r.s.hydrateCertificate(certificate), nil
}

func (r *fakeCertificateRepo) GetByEnrollment(_ context.Context, enrollmentID uint) (models.Certificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, certificate := range r.s.certificates {
		if certificate.EnrollmentID == enrollmentID {
			return r.s.hydrateCertificate(certificate), nil
		}
	}
	return models.Certificate{}, gorm.ErrRecordNotFound
}

func (r *fakeCertificateRepo) GetByHash(_ context.Context, hash string) (models.Certificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, certificate := range r.s.certificates {
		if certificate.VerificationHash == hash {
			return r.s.hydrateCertificate(certificate), nil
		}
	}
	return models.Certificate{}, gorm.ErrRecordNotFound
}

func (r *fakeCertificateRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Certificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var certificates []models.Certificate
	for _, certificate := range r.s.certificates {
		if certificate.StudentID == studentID {
			certificates = append(certificates, r.s.hydrateCertificate(certificate))
		}
	}
	return certificates, nil
}

func (r *fakeCertificateRepo) Update(_ context.Context, certificate *models.Certificate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.certificates[certificate.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = certificate.Status
	stored.DownloadURL = certificate.DownloadURL
	stored.RevokedAt = certificate.RevokedAt
	stored.RevocationReason = certificate.RevocationReason
	r.s.certificates[certificate.ID] = stored
	return nil
}

// fixedIdentity returns queued identities in order and repeats the last one.
type fixedIdentity struct {
	queue []CertificateIdentity
	calls int
}

func (f *fixedIdentity) Next(studentID uint) CertificateIdentity {
	idx := f.calls
	if idx >= len(f.queue) {
		idx = len(f.queue) - 1
	}
	f.calls++
	return f.queue[idx]
}

type fakeRenderer struct {
	err   error
	calls int
	last  pdf.CertificateData
}

func (f *fakeRenderer) Render(data pdf.CertificateData) ([]byte, error) {
	f.calls++
	f.last = data
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.3 fake"), nil
}

type fakeStorage struct {
	err   error
	names []string
}

func (f *fakeStorage) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", err
	}
	f.names = append(f.names, name)
	return "https://cdn.example.com/" + name, nil
}

type fakeMailer struct {
	err  error
	sent []mailer.CertificateMessage
}

func (f *fakeMailer) SendCertificate(_ context.Context, msg mailer.CertificateMessage) error {
	f.sent = append(f.sent, msg)
	return f.err
}

type publishedEvent struct {
	subject string
	payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []publishedEvent
}

func (f *fakePublisher) Publish(_ context.Context, subject string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{subject: subject, payload: payload})
	return f.err
}

func (f *fakePublisher) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.subject)
	}
	return out
}

var errBoom = errors.New("boom")

type fakeDoubtRepo struct{ s *store }

func (r fakeDoubtRepo) hydrate(doubt models.Doubt) models.Doubt {
	doubt.Course = r.s.courses[doubt.CourseID]
	doubt.Answers = append([]models.DoubtAnswer(nil), doubt.Answers...)
	return doubt
}

func (r fakeDoubtRepo) Create(_ context.Context, doubt *models.Doubt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doubt.ID = r.s.id()
	r.s.doubts[doubt.ID] = *doubt
	return nil
}

func (r fakeDoubtRepo) GetByID(_ context.Context, id uint) (models.Doubt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doubt, ok := r.s.doubts[id]
	if !ok {
		return models.Doubt{}, gorm.ErrRecordNotFound
	}
	return r.hydrate(doubt), nil
}

func (r fakeDoubtRepo) List(_ context.Context, filter repository.DoubtFilter) ([]models.Doubt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var doubts []models.Doubt
	for _, doubt := range r.s.doubts {
		if filter.StudentID != nil && doubt.StudentID != *filter.StudentID {
			continue
		}
		if filter.VerifierID != nil {
			routed := doubt.VerifierID != nil && *doubt.VerifierID == *filter.VerifierID
			if !routed && !r.s.courses[doubt.CourseID].HasVerifier(*filter.VerifierID) {
				continue
			}
		}
		if filter.CourseID != nil && doubt.CourseID != *filter.CourseID {
			continue
		}
		if filter.Status != nil && doubt.Status != *filter.Status {
			continue
		}
		doubts = append(doubts, r.hydrate(doubt))
	}
	sort.Slice(doubts, func(i, j int) bool { return doubts[i].ID > doubts[j].ID })
	return doubts, nil
}

func (r fakeDoubtRepo) AddAnswer(_ context.Context, answer *models.DoubtAnswer, status models.DoubtStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doubt, ok := r.s.doubts[answer.DoubtID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	answer.ID = r.s.id()
	doubt.Answers = append(doubt.Answers, *answer)
	doubt.Status = status
	r.s.doubts[doubt.ID] = doubt
	return nil
}

func (r fakeDoubtRepo) UpdateStatus(_ context.Context, id uint, status models.DoubtStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doubt, ok := r.s.doubts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	doubt.Status = status
	r.s.doubts[id] = doubt
	return nil
}

type fakeVerifierRequestRepo struct{ s *store }

func (r fakeVerifierRequestRepo) Create(_ context.Context, request *models.VerifierRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.applications {
		if existing.Email == request.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	request.ID = r.s.id()
	r.s.applications[request.ID] = *request
	return nil
}

func (r fakeVerifierRequestRepo) GetByID(_ context.Context, id uint) (models.VerifierRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	request, ok := r.s.applications[id]
	if !ok {
		return models.VerifierRequest{}, gorm.ErrRecordNotFound
	}
	return request, nil
}

func (r fakeVerifierRequestRepo) List(_ context.Context, status *models.VerifierRequestStatus) ([]models.VerifierRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var requests []models.VerifierRequest
	for _, request := range r.s.applications {
		if status == nil || request.Status == *status {
			requests = append(requests, request)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID > requests[j].ID })
	return requests, nil
}

func (r fakeVerifierRequestRepo) Update(_ context.Context, request *models.VerifierRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.applications[request.ID] = *request
	return nil
}

func (r fakeVerifierRequestRepo) Accept(_ context.Context, request *models.VerifierRequest) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var user models.User
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, request.Email) {
			user = existing
			break
		}
	}
	if user.ID == 0 {
		user = models.User{ID: r.s.id(), Email: request.Email}
	}
	user.Name = request.Name
	user.College = request.College
	user.Role = models.RoleVerifier
	user.Active = true
	r.s.users[user.ID] = user

	request.UserID = &user.ID
	r.s.applications[request.ID] = *request
	return user, nil
}

// fakeAnalyticsRepo computes the aggregates from the store the way the SQL does.
type fakeAnalyticsRepo struct {
	s     *store
	calls int
}

func (r *fakeAnalyticsRepo) Overview(_ context.Context) (repository.OverviewCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.calls++
	var counts repository.OverviewCounts
	for _, user := range r.s.users {
		if user.Role == models.RoleStudent {
			counts.TotalStudents++
		}
	}
	counts.TotalCourses = int64(len(r.s.courses))
	for _, enrollment := range r.s.enrollments {
		counts.TotalEnrollments++
		if enrollment.IsCompleted() {
			counts.CompletedEnrollments++
		}
	}
	counts.TotalCertificates = int64(len(r.s.certificates))
	return counts, nil
}

func (r *fakeAnalyticsRepo) CourseStats(_ context.Context) ([]repository.CourseStat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.calls++
	var stats []repository.CourseStat
	for _, course := range r.s.courses {
		stat := repository.CourseStat{CourseID: course.ID, Title: course.Title, Code: course.Code}
		var sum float64
		for _, enrollment := range r.s.enrollments {
			if enrollment.CourseID != course.ID {
				continue
			}
			stat.TotalEnrollments++
			switch enrollment.Status {
			case models.EnrollmentStatusCompleted:
				stat.Completed++
				sum += enrollment.FinalScore
			case models.EnrollmentStatusFailed:
				stat.Failed++
			}
		}
		if stat.Completed > 0 {
			stat.AverageFinalScore = ptr(sum / float64(stat.Completed))
		}
		for _, certificate := range r.s.certificates {
			if certificate.CourseID == course.ID {
				stat.CertificatesIssued++
			}
		}
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].CourseID < stats[j].CourseID })
	return stats, nil
}

func (r *fakeAnalyticsRepo) CollegeStats(_ context.Context) ([]repository.CollegeStat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.calls++
	byCollege := map[string]*repository.CollegeStat{}
	students := map[string]map[uint]struct{}{}
	for _, enrollment := range r.s.enrollments {
		college := strings.TrimSpace(enrollment.Profile.College)
		stat, ok := byCollege[college]
		if !ok {
			stat = &repository.CollegeStat{College: college}
			byCollege[college] = stat
			students[college] = map[uint]struct{}{}
		}
		stat.TotalEnrollments++
		if enrollment.IsCompleted() {
			stat.CompletedEnrollments++
		}
		students[college][enrollment.StudentID] = struct{}{}
	}

	stats := make([]repository.CollegeStat, 0, len(byCollege))
	for college, stat := range byCollege {
		stat.TotalStudents = int64(len(students[college]))
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalEnrollments != stats[j].TotalEnrollments {
			return stats[i].TotalEnrollments > stats[j].TotalEnrollments
		}
		return stats[i].College < stats[j].College
	})
	return stats, nil
}

func (r *fakeAnalyticsRepo) GradeDistribution(_ context.Context, courseID *uint) ([]repository.GradeCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	totals := map[models.Grade]int64{}
	for _, certificate := range r.s.certificates {
		if certificate.IsRevoked() {
			continue
		}
		if courseID != nil && certificate.CourseID != *courseID {
			continue
		}
		totals[certificate.Grade]++
	}

	counts := make([]repository.GradeCount, 0, len(totals))
	for grade, total := range totals {
		counts = append(counts, repository.GradeCount{Grade: grade, Total: total})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Grade < counts[j].Grade })
	return counts, nil
}
