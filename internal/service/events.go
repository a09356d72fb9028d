package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event subjects published after state changes.
const (
	SubjectCertificateIssued   = "certify.certificate.issued"
	SubjectCertificateRevoked  = "certify.certificate.revoked"
	SubjectSubmissionEvaluated = "certify.submission.evaluated"
	SubjectDoubtRaised         = "certify.doubt.raised"
	SubjectDoubtAnswered       = "certify.doubt.answered"
	SubjectVerifierAccepted    = "certify.verifier.accepted"
)

// EventPublisher broadcasts domain events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

type eventEnvelope struct {
	Subject    string      `json:"subject"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// CertificateIssuedEvent is published once per new certificate.
type CertificateIssuedEvent struct {
	CertificateID     uint    `json:"certificate_id"`
	CertificateNumber string  `json:"certificate_number"`
	EnrollmentID      uint    `json:"enrollment_id"`
	StudentID         uint    `json:"student_id"`
	CourseID          uint    `json:"course_id"`
	TotalScore        float64 `json:"total_score"`
	Grade             string  `json:"grade"`
}

// CertificateRevokedEvent is published when a certificate is revoked.
type CertificateRevokedEvent struct {
	CertificateID     uint   `json:"certificate_id"`
	CertificateNumber string `json:"certificate_number"`
	Reason            string `json:"reason"`
}

// SubmissionEvaluatedEvent is published when a submission gets a grade or rejection.
type SubmissionEvaluatedEvent struct {
	SubmissionID uint    `json:"submission_id"`
	EnrollmentID uint    `json:"enrollment_id"`
	StudentID    uint    `json:"student_id"`
	Status       string  `json:"status"`
	TotalScore   float64 `json:"total_score"`
}

// DoubtEvent is published when a doubt is raised or answered.
type DoubtEvent struct {
	DoubtID     uint   `json:"doubt_id"`
	CourseID    uint   `json:"course_id"`
	StudentID   uint   `json:"student_id"`
	VerifierID  *uint  `json:"verifier_id,omitempty"`
	ResponderID uint   `json:"responder_id,omitempty"`
	Status      string `json:"status"`
}

// VerifierAcceptedEvent is published when an application becomes a verifier account.
type VerifierAcceptedEvent struct {
	RequestID uint   `json:"request_id"`
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
	now    func() time.Time
}

// NewNATSPublisher publishes events on a NATS connection. A nil connection
// yields a publisher that only logs.
func NewNATSPublisher(conn *nats.Conn, logger zerolog.Logger) EventPublisher {
	if conn == nil {
		return NewLogPublisher(logger)
	}
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
		now:    time.Now,
	}
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(eventEnvelope{Subject: subject, OccurredAt: p.now().UTC(), Data: payload})
	if err != nil {
		return err
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return err
	}

	p.logger.Debug().Str("subject", subject).Msg("event published")
	return nil
}

type logPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher returns a publisher that records events in the log only.
func NewLogPublisher(logger zerolog.Logger) EventPublisher {
	return &logPublisher{logger: logger.With().Str("component", "event_publisher").Logger()}
}

func (p *logPublisher) Publish(_ context.Context, subject string, payload interface{}) error {
	p.logger.Info().Str("subject", subject).Interface("payload", payload).Msg("event recorded")
	return nil
}
