package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
)

type assessmentTypeRepository interface {
	List(ctx context.Context) ([]models.AssessmentType, error)
	FindByID(ctx context.Context, id int64) (*models.AssessmentType, error)
	Create(ctx context.Context, at *models.AssessmentType) error
	Update(ctx context.Context, at *models.AssessmentType) error
	Delete(ctx context.Context, id int64) (bool, error)
	CountScores(ctx context.Context, id int64) (int, error)
}

// AssessmentTypeService manages assessment types and their weights.
type AssessmentTypeService struct {
	repo      assessmentTypeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssessmentTypeService creates the service.
func NewAssessmentTypeService(repo assessmentTypeRepository, validate *validator.Validate, logger *zap.Logger) *AssessmentTypeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentTypeService{repo: repo, validator: validate, logger: logger}
}

// List returns all assessment types ordered by id.
func (s *AssessmentTypeService) List(ctx context.Context) ([]models.AssessmentType, error) {
	types, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assessment types")
	}
	return types, nil
}

// Create adds an assessment type.
func (s *AssessmentTypeService) Create(ctx context.Context, req dto.CreateAssessmentTypeRequest) (*models.AssessmentType, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment type payload")
	}
	at := &models.AssessmentType{Name: req.Name, Weight: req.Weight}
	if err := s.repo.Create(ctx, at); err != nil {
		return nil, appErrors.Internal(err, "failed to create assessment type")
	}
	return at, nil
}

// Update merges the provided fields. Stored averages are not recomputed; the new weight applies on the next score write.
func (s *AssessmentTypeService) Update(ctx context.Context, id int64, req dto.UpdateAssessmentTypeRequest) (*models.AssessmentType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment type payload")
	}
	at, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment type not found")
		}
		return nil, appErrors.Internal(err, "failed to load assessment type")
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Validation("name must not be empty")
		}
		at.Name = name
	}
	if req.Weight != nil {
		at.Weight = *req.Weight
	}
	if err := s.repo.Update(ctx, at); err != nil {
		return nil, appErrors.Internal(err, "failed to update assessment type")
	}
	return at, nil
}

// Delete removes an assessment type that no score references.
func (s *AssessmentTypeService) Delete(ctx context.Context, id int64) error {
	count, err := s.repo.CountScores(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check assessment type usage")
	}
	if count > 0 {
		return appErrors.Validation("assessment type has scores and cannot be deleted")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to delete assessment type")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "assessment type not found")
	}
	return nil
}
