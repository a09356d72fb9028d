package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/repository"
	apperrors "github.com/noah-isme/certify-api/pkg/errors"
)

const (
	defaultTimeLimitMinutes = 60
	defaultMaxTabSwitches   = 3
)

// AssignmentService manages module assignments.
type AssignmentService interface {
	Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	GetForModule(ctx context.Context, actor Actor, moduleID uint) (interface{}, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(assignments repository.AssignmentRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		courses:     courses,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	module, err := s.courses.GetModule(ctx, payload.ModuleID)
	if err != nil {
		return dto.AssignmentResponse{}, notFoundAs(err, ErrModuleNotFound)
	}

	if _, err := s.assignments.GetByModule(ctx, module.ID); err == nil {
		return dto.AssignmentResponse{}, ErrModuleHasAssignment
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AssignmentResponse{}, err
	}

	questions, err := buildQuestions(payload.Questions)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		CourseID:         module.CourseID,
		ModuleID:         module.ID,
		Type:             models.AssignmentType(payload.Type),
		Description:      strings.TrimSpace(payload.Description),
		Questions:        questions,
		TimeLimitMinutes: defaultTimeLimitMinutes,
		AntiCheat:        models.AntiCheatConfig{MaxTabSwitches: defaultMaxTabSwitches},
	}
	if payload.MaxScore != nil {
		assignment.MaxScore = *payload.MaxScore
	}
	if payload.TimeLimitMinutes != nil {
		assignment.TimeLimitMinutes = *payload.TimeLimitMinutes
	}
	applyAntiCheat(&assignment.AntiCheat, payload.AntiCheat)
	s.syncMaxScore(&assignment)

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		if isDuplicateKey(err) {
			return dto.AssignmentResponse{}, ErrModuleHasAssignment
		}
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Uint("module_id", assignment.ModuleID).
		Int("questions", len(assignment.Questions)).
		Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, notFoundAs(err, ErrAssignmentNotFound)
	}

	if payload.Type != nil {
		assignment.Type = models.AssignmentType(*payload.Type)
	}
	if payload.Description != nil {
		assignment.Description = strings.TrimSpace(*payload.Description)
	}
	if payload.Questions != nil {
		questions, err := buildQuestions(payload.Questions)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.Questions = questions
	}
	if payload.MaxScore != nil {
		assignment.MaxScore = *payload.MaxScore
	}
	if payload.TimeLimitMinutes != nil {
		assignment.TimeLimitMinutes = *payload.TimeLimitMinutes
	}
	applyAntiCheat(&assignment.AntiCheat, payload.AntiCheat)
	s.syncMaxScore(&assignment)

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")
	return dto.NewAssignmentResponse(assignment), nil
}

// syncMaxScore stores the question total so the column never disagrees with it.
func (s *assignmentService) syncMaxScore(assignment *models.Assignment) {
	if len(assignment.Questions) == 0 {
		return
	}
	derived := assignment.DerivedMaxScore()
	if assignment.MaxScore != 0 && assignment.MaxScore != derived {
		s.logger.Warn().
			Uint("assignment_id", assignment.ID).
			Float64("supplied", assignment.MaxScore).
			Float64("derived", derived).
			Msg("max score replaced by question total")
	}
	assignment.MaxScore = derived
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, notFoundAs(err, ErrAssignmentNotFound)
	}
	return dto.NewAssignmentResponse(assignment), nil
}

// GetForModule returns the answer-free view to students and the full view to staff.
func (s *assignmentService) GetForModule(ctx context.Context, actor Actor, moduleID uint) (interface{}, error) {
	assignment, err := s.assignments.GetByModule(ctx, moduleID)
	if err != nil {
		return nil, notFoundAs(err, ErrAssignmentNotFound)
	}
	if actor.Role == models.RoleStudent {
		return dto.NewStudentAssignmentResponse(assignment), nil
	}
	return dto.NewAssignmentResponse(assignment), nil
}

func applyAntiCheat(target *models.AntiCheatConfig, payload *dto.AntiCheatRequest) {
	if payload == nil {
		return
	}
	if payload.MaxTabSwitches != nil {
		target.MaxTabSwitches = *payload.MaxTabSwitches
	}
	if payload.AllowCopyPaste != nil {
		target.AllowCopyPaste = *payload.AllowCopyPaste
	}
}

func buildQuestions(items []dto.QuestionRequest) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for i, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = uuid.NewString()
		}
		if _, dup := seen[id]; dup {
			return nil, apperrors.Clone(ErrInvalidQuestion, fmt.Sprintf("question %d reuses id %q", i+1, id))
		}
		seen[id] = struct{}{}

		question := models.Question{
			ID:                 id,
			Type:               models.QuestionType(item.Type),
			Text:               strings.TrimSpace(item.Text),
			CorrectOptionIndex: item.CorrectOptionIndex,
			AnswerExplanation:  strings.TrimSpace(item.AnswerExplanation),
			MaxMarks:           item.MaxMarks,
		}

		if question.Type == models.QuestionTypeMCQ {
			question.Options = append([]string(nil), item.Options...)
			if question.CorrectOptionIndex != nil && *question.CorrectOptionIndex >= len(question.Options) {
				return nil, apperrors.Clone(ErrInvalidQuestion, fmt.Sprintf("question %d correct option is out of range", i+1))
			}
		}

		questions = append(questions, question)
	}

	return questions, nil
}
