package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// CertificateMessage describes the notification sent to a certified student.
type CertificateMessage struct {
	ToName            string
	ToEmail           string
	CourseTitle       string
	CertificateNumber string
	DownloadURL       string
	VerifyURL         string
}

// Config holds SendGrid credentials and the sender identity.
type Config struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridMailer delivers messages through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
	logger zerolog.Logger
}

// NewSendGrid constructs a SendGrid backed mailer.
func NewSendGrid(cfg Config, logger zerolog.Logger) (*SendGridMailer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key must be provided")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, fmt.Errorf("sender email must be provided")
	}

	return &SendGridMailer{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger.With().Str("component", "sendgrid_mailer").Logger(),
	}, nil
}

// SendCertificate emails the student a link to the issued certificate.
func (m *SendGridMailer) SendCertificate(ctx context.Context, msg CertificateMessage) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return fmt.Errorf("recipient email is required")
	}

	subject, plain, htmlBody := certificateContent(msg)
	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail(msg.ToName, msg.ToEmail), plain, htmlBody)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send certificate email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected message: status %d", resp.StatusCode)
	}

	m.logger.Info().Str("certificate_number", msg.CertificateNumber).Msg("certificate email sent")
	return nil
}

// LogMailer records messages in the log instead of sending them.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer constructs a logging mailer.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "log_mailer").Logger()}
}

// SendCertificate logs the message and returns nil.
func (m *LogMailer) SendCertificate(_ context.Context, msg CertificateMessage) error {
	m.logger.Info().
		Str("certificate_number", msg.CertificateNumber).
		Str("course", msg.CourseTitle).
		Msg("email delivery not configured; certificate email skipped")
	return nil
}

func certificateContent(msg CertificateMessage) (subject, plain, htmlBody string) {
	subject = "Certificate Issued: " + msg.CourseTitle
	link := msg.DownloadURL
	if link == "" {
		link = msg.VerifyURL
	}

	plain = fmt.Sprintf("Congratulations %s! You have successfully completed %s. Certificate number: %s. View your certificate: %s",
		msg.ToName, msg.CourseTitle, msg.CertificateNumber, link)

	htmlBody = fmt.Sprintf(`<h2>Congratulations %s!</h2>
<p>You have successfully completed the course: <strong>%s</strong></p>
<p>Certificate number: %s</p>
<p><a href="%s">View your certificate</a></p>`,
		html.EscapeString(msg.ToName),
		html.EscapeString(msg.CourseTitle),
		html.EscapeString(msg.CertificateNumber),
		html.EscapeString(link))

	return subject, plain, htmlBody
}
