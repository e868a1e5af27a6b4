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

type gradeLevelRepository interface {
	List(ctx context.Context) ([]models.GradeLevel, error)
	ListClassesByGradeLevels(ctx context.Context, ids []int64) (map[int64][]models.SchoolClass, error)
	FindByID(ctx context.Context, id int64) (*models.GradeLevel, error)
	Create(ctx context.Context, level *models.GradeLevel) error
	Update(ctx context.Context, level *models.GradeLevel) error
	Delete(ctx context.Context, id int64) (bool, error)
	CountClasses(ctx context.Context, id int64) (int, error)
}

// GradeLevelService manages grade levels.
type GradeLevelService struct {
	repo      gradeLevelRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeLevelService creates a new grade level service.
func NewGradeLevelService(repo gradeLevelRepository, validate *validator.Validate, logger *zap.Logger) *GradeLevelService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeLevelService{repo: repo, validator: validate, logger: logger}
}

// List returns every grade level, with their classes when includeClasses is set.
func (s *GradeLevelService) List(ctx context.Context, includeClasses bool) ([]models.GradeLevel, error) {
	levels, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list grade levels")
	}
	if !includeClasses || len(levels) == 0 {
		return levels, nil
	}

	ids := make([]int64, 0, len(levels))
	for _, level := range levels {
		ids = append(ids, level.ID)
	}
	classes, err := s.repo.ListClassesByGradeLevels(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list grade level classes")
	}
	for i := range levels {
		levels[i].Classes = classes[levels[i].ID]
		if levels[i].Classes == nil {
			levels[i].Classes = []models.SchoolClass{}
		}
	}
	return levels, nil
}

// Create adds a grade level.
func (s *GradeLevelService) Create(ctx context.Context, req dto.CreateGradeLevelRequest) (*models.GradeLevel, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade level payload")
	}
	level := &models.GradeLevel{Name: req.Name, ClassCount: req.ClassCount}
	if err := s.repo.Create(ctx, level); err != nil {
		return nil, appErrors.Internal(err, "failed to create grade level")
	}
	return level, nil
}

// Update merges the provided fields onto an existing grade level.
func (s *GradeLevelService) Update(ctx context.Context, id int64, req dto.UpdateGradeLevelRequest) (*models.GradeLevel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade level payload")
	}
	level, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Validation("name must not be empty")
		}
		level.Name = name
	}
	if req.ClassCount != nil {
		level.ClassCount = req.ClassCount
	}
	if err := s.repo.Update(ctx, level); err != nil {
		return nil, appErrors.Internal(err, "failed to update grade level")
	}
	return level, nil
}

// Delete removes a grade level that no class references.
func (s *GradeLevelService) Delete(ctx context.Context, id int64) error {
	count, err := s.repo.CountClasses(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check grade level usage")
	}
	if count > 0 {
		return appErrors.Validation("grade level still has classes")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to delete grade level")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "grade level not found")
	}
	return nil
}

func (s *GradeLevelService) get(ctx context.Context, id int64) (*models.GradeLevel, error) {
	level, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade level not found")
		}
		return nil, appErrors.Internal(err, "failed to load grade level")
	}
	return level, nil
}
