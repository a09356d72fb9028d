package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/repository"
)

// VerifierRequestService handles applications to become a verifier.
type VerifierRequestService interface {
	Create(ctx context.Context, payload dto.CreateVerifierRequest) (dto.VerifierRequestResponse, error)
	List(ctx context.Context, actor Actor, status *models.VerifierRequestStatus) ([]dto.VerifierRequestResponse, error)
	Accept(ctx context.Context, actor Actor, id uint) (dto.AcceptVerifierResponse, error)
	Reject(ctx context.Context, actor Actor, id uint) (dto.VerifierRequestResponse, error)
}

type verifierRequestService struct {
	requests       repository.VerifierRequestRepository
	events         EventPublisher
	allowedDomains []string
	validator      *validator.Validate
	logger         zerolog.Logger
	now            func() time.Time
}

// NewVerifierRequestService constructs a VerifierRequestService. An empty
// domain list accepts any email domain.
func NewVerifierRequestService(
	requests repository.VerifierRequestRepository,
	events EventPublisher,
	allowedDomains []string,
	validate *validator.Validate,
	logger zerolog.Logger,
) VerifierRequestService {
	domains := make([]string, 0, len(allowedDomains))
	for _, domain := range allowedDomains {
		domain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@"))
		if domain != "" {
			domains = append(domains, domain)
		}
	}

	return &verifierRequestService{
		requests:       requests,
		events:         events,
		allowedDomains: domains,
		validator:      validate,
		logger:         logger.With().Str("component", "verifier_request_service").Logger(),
		now:            time.Now,
	}
}

func (s *verifierRequestService) Create(ctx context.Context, payload dto.CreateVerifierRequest) (dto.VerifierRequestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.VerifierRequestResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if !s.domainAllowed(email) {
		return dto.VerifierRequestResponse{}, ErrVerifierEmailDomain
	}

	request := models.VerifierRequest{
		Name:    strings.TrimSpace(payload.Name),
		Email:   email,
		Phone:   strings.TrimSpace(payload.Phone),
		College: strings.TrimSpace(payload.College),
		Status:  models.VerifierRequestPending,
	}
	if err := s.requests.Create(ctx, &request); err != nil {
		if isDuplicateKey(err) {
			return dto.VerifierRequestResponse{}, ErrVerifierRequestExists
		}
		return dto.VerifierRequestResponse{}, err
	}

	s.logger.Info().Uint("request_id", request.ID).Str("college", request.College).Msg("verifier request received")
	return dto.NewVerifierRequestResponse(request), nil
}

func (s *verifierRequestService) List(ctx context.Context, actor Actor, status *models.VerifierRequestStatus) ([]dto.VerifierRequestResponse, error) {
	if err := actor.require(models.CapManageUsers); err != nil {
		return nil, err
	}

	requests, err := s.requests.List(ctx, status)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.VerifierRequestResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, dto.NewVerifierRequestResponse(request))
	}
	return responses, nil
}

// Accept turns the application into a verifier account, promoting an
// existing account with the same email. Rejected requests can still be
// accepted later.
func (s *verifierRequestService) Accept(ctx context.Context, actor Actor, id uint) (dto.AcceptVerifierResponse, error) {
	if err := actor.require(models.CapManageUsers); err != nil {
		return dto.AcceptVerifierResponse{}, err
	}

	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return dto.AcceptVerifierResponse{}, notFoundAs(err, ErrVerifierRequestNotFound)
	}
	if request.Status == models.VerifierRequestAccepted {
		return dto.AcceptVerifierResponse{}, ErrVerifierRequestProcessed
	}

	s.markProcessed(&request, actor, models.VerifierRequestAccepted)
	user, err := s.requests.Accept(ctx, &request)
	if err != nil {
		return dto.AcceptVerifierResponse{}, err
	}

	if s.events != nil {
		event := VerifierAcceptedEvent{RequestID: request.ID, UserID: user.ID, Email: user.Email}
		if err := s.events.Publish(ctx, SubjectVerifierAccepted, event); err != nil {
			s.logger.Warn().Err(err).Uint("request_id", request.ID).Msg("failed to publish verifier accepted event")
		}
	}

	s.logger.Info().Uint("request_id", request.ID).Uint("user_id", user.ID).Uint("actor_id", actor.ID).Msg("verifier request accepted")
	return dto.AcceptVerifierResponse{
		Request: dto.NewVerifierRequestResponse(request),
		User:    dto.NewUserResponse(user),
	}, nil
}

func (s *verifierRequestService) Reject(ctx context.Context, actor Actor, id uint) (dto.VerifierRequestResponse, error) {
	if err := actor.require(models.CapManageUsers); err != nil {
		return dto.VerifierRequestResponse{}, err
	}

	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return dto.VerifierRequestResponse{}, notFoundAs(err, ErrVerifierRequestNotFound)
	}
	if request.Status != models.VerifierRequestPending {
		return dto.VerifierRequestResponse{}, ErrVerifierRequestProcessed
	}

	s.markProcessed(&request, actor, models.VerifierRequestRejected)
	if err := s.requests.Update(ctx, &request); err != nil {
		return dto.VerifierRequestResponse{}, err
	}

	s.logger.Info().Uint("request_id", request.ID).Uint("actor_id", actor.ID).Msg("verifier request rejected")
	return dto.NewVerifierRequestResponse(request), nil
}

func (s *verifierRequestService) markProcessed(request *models.VerifierRequest, actor Actor, status models.VerifierRequestStatus) {
	processedAt := s.now().UTC()
	processedBy := actor.ID
	request.Status = status
	request.ProcessedAt = &processedAt
	request.ProcessedByID = &processedBy
}

func (s *verifierRequestService) domainAllowed(email string) bool {
	if len(s.allowedDomains) == 0 {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	for _, allowed := range s.allowedDomains {
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			return true
		}
	}
	return false
}
