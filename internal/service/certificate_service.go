package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/observability"
	"github.com/noah-isme/certify-api/internal/repository"
	"github.com/noah-isme/certify-api/internal/scoring"
	"github.com/noah-isme/certify-api/pkg/mailer"
	"github.com/noah-isme/certify-api/pkg/pdf"
)

const (
	verificationCachePrefix = "certify:verify:"
	maxIssueAttempts        = 2
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// CertificateRenderer turns certificate data into a printable document.
type CertificateRenderer interface {
	Render(data pdf.CertificateData) ([]byte, error)
}

// CertificateMailer notifies students about issued certificates.
type CertificateMailer interface {
	SendCertificate(ctx context.Context, msg mailer.CertificateMessage) error
}

// CertificateService issues, verifies and revokes certificates.
type CertificateService interface {
	Issue(ctx context.Context, actor Actor, enrollmentID uint, practicalScore *float64) (dto.CertificateResponse, bool, error)
	Verify(ctx context.Context, hash string) (dto.VerificationResponse, error)
	Revoke(ctx context.Context, actor Actor, certificateID uint, reason string) (dto.CertificateResponse, error)
	Get(ctx context.Context, actor Actor, certificateID uint) (dto.CertificateResponse, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.CertificateResponse, error)
	DownloadURL(ctx context.Context, actor Actor, certificateID uint) (string, error)
}

// CertificateDependencies groups the collaborators of the certificate service.
type CertificateDependencies struct {
	Enrollments  repository.EnrollmentRepository
	Certificates repository.CertificateRepository
	Scores       ScoreService
	Identity     IdentityGenerator
	Renderer     CertificateRenderer
	Storage      FileStorage
	Mailer       CertificateMailer
	Events       EventPublisher
	Cache        *redis.Client
	CacheTTL     time.Duration
	BaseURL      string
}

type certificateService struct {
	enrollments  repository.EnrollmentRepository
	certificates repository.CertificateRepository
	scores       ScoreService
	identity     IdentityGenerator
	renderer     CertificateRenderer
	storage      FileStorage
	mailer       CertificateMailer
	events       EventPublisher
	cache        *redis.Client
	cacheTTL     time.Duration
	baseURL      string
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewCertificateService constructs a CertificateService. Renderer, storage,
// mailer, events and cache are optional.
func NewCertificateService(deps CertificateDependencies, logger zerolog.Logger) CertificateService {
	identity := deps.Identity
	if identity == nil {
		identity = NewIdentityGenerator()
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	events := deps.Events
	if events == nil {
		events = NewLogPublisher(logger)
	}

	return &certificateService{
		enrollments:  deps.Enrollments,
		certificates: deps.Certificates,
		scores:       deps.Scores,
		identity:     identity,
		renderer:     deps.Renderer,
		storage:      deps.Storage,
		mailer:       deps.Mailer,
		events:       events,
		cache:        deps.Cache,
		cacheTTL:     ttl,
		baseURL:      strings.TrimRight(deps.BaseURL, "/"),
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "certificate_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/certify-api/internal/service/certificate"),
		now:          time.Now,
	}
}

// Issue creates the certificate for a completed enrollment. The second return
// value is false when an existing certificate is returned instead.
func (s *certificateService) Issue(ctx context.Context, actor Actor, enrollmentID uint, practicalScore *float64) (dto.CertificateResponse, bool, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.issue")
	defer span.End()
	span.SetAttributes(
		attribute.Int("enrollment.id", int(enrollmentID)),
		attribute.Int("actor.id", int(actor.ID)),
	)

	certificate, created, err := s.issue(ctx, actor, enrollmentID, practicalScore)
	if err != nil {
		observability.CertificateFailures().WithLabelValues(KindLabel(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "issue failed")
		return dto.CertificateResponse{}, false, err
	}

	if created {
		observability.CertificatesIssued().Inc()
		s.afterIssue(ctx, &certificate)
	}
	span.SetAttributes(attribute.Bool("certificate.created", created))
	span.SetStatus(codes.Ok, "issued")

	return dto.NewCertificateResponse(certificate), created, nil
}

func (s *certificateService) issue(ctx context.Context, actor Actor, enrollmentID uint, practicalScore *float64) (models.Certificate, bool, error) {
	if err := actor.require(models.CapIssueCertificates); err != nil {
		return models.Certificate{}, false, err
	}
	if practicalScore != nil && *practicalScore < 0 {
		return models.Certificate{}, false, ErrInvalidPracticalScore
	}

	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return models.Certificate{}, false, notFoundAs(err, ErrEnrollmentNotFound)
	}

	if enrollment.VerifierID == nil {
		return models.Certificate{}, false, ErrNoVerifierAssigned
	}
	if !actor.IsAdmin() && *enrollment.VerifierID != actor.ID {
		return models.Certificate{}, false, ErrNotAssignedVerifier
	}

	existing, err := s.certificates.GetByEnrollment(ctx, enrollmentID)
	if err == nil {
		s.logger.Info().Uint("enrollment_id", enrollmentID).Str("certificate_number", existing.CertificateNumber).Msg("certificate already issued")
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Certificate{}, false, err
	}

	if !enrollment.IsCompleted() {
		return models.Certificate{}, false, ErrEnrollmentNotCompleted
	}
	if enrollment.Course.HasPracticalSession && practicalScore == nil {
		return models.Certificate{}, false, ErrPracticalScoreRequired
	}

	scores, err := s.scores.Preview(ctx, enrollment, practicalScore)
	if err != nil {
		return models.Certificate{}, false, err
	}
	grade := scoring.GradeFor(scores.Final)
	frozen := repository.EnrollmentScores{Theory: scores.Theory, Practical: scores.Practical, Final: scores.Final}

	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		identity := s.identity.Next(enrollment.StudentID)
		certificate := models.Certificate{
			EnrollmentID:      enrollment.ID,
			StudentID:         enrollment.StudentID,
			CourseID:          enrollment.CourseID,
			CertificateNumber: identity.Number,
			VerificationHash:  identity.Hash,
			TheoryScore:       scores.Theory,
			PracticalScore:    scores.Practical,
			TotalScore:        scores.Final,
			Grade:             grade,
			Status:            models.CertificateStatusIssued,
			IssueDate:         s.now().UTC(),
		}

		err := s.certificates.Issue(ctx, &certificate, frozen)
		if err == nil {
			stored, loadErr := s.certificates.GetByID(ctx, certificate.ID)
			if loadErr != nil {
				s.logger.Warn().Err(loadErr).Uint("certificate_id", certificate.ID).Msg("failed to reload issued certificate")
				certificate.Student = enrollment.Student
				certificate.Course = enrollment.Course
				stored = certificate
			}
			s.logger.Info().
				Uint("enrollment_id", enrollment.ID).
				Str("certificate_number", stored.CertificateNumber).
				Float64("total_score", stored.TotalScore).
				Str("grade", string(stored.Grade)).
				Msg("certificate issued")
			return stored, true, nil
		}
		if !isDuplicateKey(err) {
			return models.Certificate{}, false, err
		}

		// A concurrent issuer may have won the enrollment row.
		winner, lookupErr := s.certificates.GetByEnrollment(ctx, enrollment.ID)
		if lookupErr == nil {
			return winner, false, nil
		}
		if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return models.Certificate{}, false, lookupErr
		}

		s.logger.Warn().Int("attempt", attempt).Uint("enrollment_id", enrollment.ID).Msg("certificate identifier collision")
	}

	return models.Certificate{}, false, ErrCertificateCollision
}

// afterIssue renders, stores, mails and announces the certificate. Failures
// are logged and never undo the issuance.
func (s *certificateService) afterIssue(ctx context.Context, certificate *models.Certificate) {
	if url, err := s.renderAndStore(ctx, certificate); err != nil {
		s.logger.Warn().Err(err).Str("certificate_number", certificate.CertificateNumber).Msg("certificate document not stored")
	} else if url != "" {
		certificate.DownloadURL = url
	}

	if s.mailer != nil && certificate.Student.Email != "" {
		err := s.mailer.SendCertificate(ctx, mailer.CertificateMessage{
			ToName:            certificate.Student.Name,
			ToEmail:           certificate.Student.Email,
			CourseTitle:       certificate.Course.Title,
			CertificateNumber: certificate.CertificateNumber,
			DownloadURL:       certificate.DownloadURL,
			VerifyURL:         s.verifyURL(certificate.VerificationHash),
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("certificate_number", certificate.CertificateNumber).Msg("failed to send certificate email")
		}
	}

	if err := s.events.Publish(ctx, SubjectCertificateIssued, CertificateIssuedEvent{
		CertificateID:     certificate.ID,
		CertificateNumber: certificate.CertificateNumber,
		EnrollmentID:      certificate.EnrollmentID,
		StudentID:         certificate.StudentID,
		CourseID:          certificate.CourseID,
		TotalScore:        certificate.TotalScore,
		Grade:             string(certificate.Grade),
	}); err != nil {
		s.logger.Warn().Err(err).Str("certificate_number", certificate.CertificateNumber).Msg("failed to publish certificate event")
	}
}

func (s *certificateService) renderAndStore(ctx context.Context, certificate *models.Certificate) (string, error) {
	if s.renderer == nil || s.storage == nil {
		return "", nil
	}

	document, err := s.renderer.Render(pdf.CertificateData{
		StudentName:       certificate.Student.Name,
		CourseTitle:       certificate.Course.Title,
		CertificateNumber: certificate.CertificateNumber,
		TheoryScore:       certificate.TheoryScore,
		PracticalScore:    certificate.PracticalScore,
		TotalScore:        certificate.TotalScore,
		Grade:             string(certificate.Grade),
		HasPractical:      certificate.Course.HasPracticalSession,
		IssueDate:         certificate.IssueDate,
		VerifyURL:         s.verifyURL(certificate.VerificationHash),
	})
	if err != nil {
		return "", err
	}

	url, err := s.storage.Upload(ctx, strings.ToLower(certificate.CertificateNumber)+".pdf", bytes.NewReader(document))
	if err != nil {
		return "", err
	}

	certificate.DownloadURL = url
	if err := s.certificates.Update(ctx, certificate); err != nil {
		certificate.DownloadURL = ""
		return "", fmt.Errorf("persist download url: %w", err)
	}
	return url, nil
}

func (s *certificateService) verifyURL(hash string) string {
	if s.baseURL == "" {
		return ""
	}
	return s.baseURL + "/api/v1/certificates/verify/" + hash
}

// Verify looks a certificate up by its public hash. Unknown hashes are not an error.
func (s *certificateService) Verify(ctx context.Context, hash string) (dto.VerificationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.verify")
	defer span.End()

	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		observability.Verifications().WithLabelValues(dto.VerificationReasonNotFound).Inc()
		return notFoundVerification(), nil
	}

	cacheKey := verificationCachePrefix + hash
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.VerificationResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				span.SetAttributes(attribute.Bool("verify.cache_hit", true))
				observability.Verifications().WithLabelValues(verificationLabel(response)).Inc()
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read verification cache")
		}
	}

	certificate, err := s.certificates.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.Verifications().WithLabelValues(dto.VerificationReasonNotFound).Inc()
			return notFoundVerification(), nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return dto.VerificationResponse{}, err
	}

	var response dto.VerificationResponse
	if certificate.IsRevoked() {
		response = dto.VerificationResponse{
			Valid:   false,
			Reason:  dto.VerificationReasonRevoked,
			Message: "Certificate has been revoked",
		}
	} else {
		response = dto.VerificationResponse{
			Valid:             true,
			StudentName:       certificate.Student.Name,
			CourseTitle:       certificate.Course.Title,
			IssueDate:         certificate.IssueDate.UTC().Format("2006-01-02"),
			CertificateNumber: certificate.CertificateNumber,
		}
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store verification cache")
			}
		}
	}

	observability.Verifications().WithLabelValues(verificationLabel(response)).Inc()
	return response, nil
}

func notFoundVerification() dto.VerificationResponse {
	return dto.VerificationResponse{
		Valid:   false,
		Reason:  dto.VerificationReasonNotFound,
		Message: "Certificate not found",
	}
}

func verificationLabel(response dto.VerificationResponse) string {
	if response.Valid {
		return "valid"
	}
	return response.Reason
}

func (s *certificateService) Revoke(ctx context.Context, actor Actor, certificateID uint, reason string) (dto.CertificateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.revoke")
	defer span.End()
	span.SetAttributes(attribute.Int("certificate.id", int(certificateID)))

	if err := actor.require(models.CapRevokeCertificates); err != nil {
		return dto.CertificateResponse{}, err
	}

	certificate, err := s.certificates.GetByID(ctx, certificateID)
	if err != nil {
		return dto.CertificateResponse{}, notFoundAs(err, ErrCertificateNotFound)
	}
	if certificate.IsRevoked() {
		return dto.CertificateResponse{}, ErrCertificateAlreadyRevoked
	}

	revokedAt := s.now().UTC()
	certificate.Status = models.CertificateStatusRevoked
	certificate.RevokedAt = &revokedAt
	certificate.RevocationReason = strings.TrimSpace(s.sanitizer.Sanitize(reason))

	if err := s.certificates.Update(ctx, &certificate); err != nil {
		span.RecordError(err)
		return dto.CertificateResponse{}, notFoundAs(err, ErrCertificateNotFound)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, verificationCachePrefix+certificate.VerificationHash).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate verification cache")
		}
	}

	if err := s.events.Publish(ctx, SubjectCertificateRevoked, CertificateRevokedEvent{
		CertificateID:     certificate.ID,
		CertificateNumber: certificate.CertificateNumber,
		Reason:            certificate.RevocationReason,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish revocation event")
	}

	observability.CertificatesRevoked().Inc()
	s.logger.Info().
		Str("certificate_number", certificate.CertificateNumber).
		Uint("revoked_by", actor.ID).
		Msg("certificate revoked")

	return dto.NewCertificateResponse(certificate), nil
}

func (s *certificateService) Get(ctx context.Context, actor Actor, certificateID uint) (dto.CertificateResponse, error) {
	certificate, err := s.load(ctx, actor, certificateID)
	if err != nil {
		return dto.CertificateResponse{}, err
	}
	return dto.NewCertificateResponse(certificate), nil
}

func (s *certificateService) load(ctx context.Context, actor Actor, certificateID uint) (models.Certificate, error) {
	if err := actor.require(models.CapViewCertificates); err != nil {
		return models.Certificate{}, err
	}

	certificate, err := s.certificates.GetByID(ctx, certificateID)
	if err != nil {
		return models.Certificate{}, notFoundAs(err, ErrCertificateNotFound)
	}

	if actor.Role == models.RoleStudent && certificate.StudentID != actor.ID {
		return models.Certificate{}, ErrCertificateAccessDenied
	}
	return certificate, nil
}

func (s *certificateService) ListForStudent(ctx context.Context, studentID uint) ([]dto.CertificateResponse, error) {
	certificates, err := s.certificates.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return dto.NewCertificateResponseSlice(certificates), nil
}

// DownloadURL returns where the certificate document can be fetched,
// rendering it first when an earlier attempt failed.
func (s *certificateService) DownloadURL(ctx context.Context, actor Actor, certificateID uint) (string, error) {
	certificate, err := s.load(ctx, actor, certificateID)
	if err != nil {
		return "", err
	}
	if certificate.IsRevoked() {
		return "", ErrCertificateRevoked
	}
	if certificate.DownloadURL != "" {
		return certificate.DownloadURL, nil
	}

	url, err := s.renderAndStore(ctx, &certificate)
	if err != nil {
		s.logger.Warn().Err(err).Str("certificate_number", certificate.CertificateNumber).Msg("failed to render certificate on demand")
		return "", ErrCertificateNotRendered
	}
	if url == "" {
		return "", ErrCertificateNotRendered
	}
	return url, nil
}
