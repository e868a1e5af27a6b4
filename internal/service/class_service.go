package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
)

type classRepository interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.SchoolClass, error)
	Create(ctx context.Context, class *models.SchoolClass) error
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassSummary, error)
}

type gradeLevelLookup interface {
	FindByID(ctx context.Context, id int64) (*models.GradeLevel, error)
}

// ClassService manages school classes.
type ClassService struct {
	repo        classRepository
	gradeLevels gradeLevelLookup
	years       academicYearRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewClassService constructs the class service.
func NewClassService(repo classRepository, gradeLevels gradeLevelLookup, years academicYearRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, gradeLevels: gradeLevels, years: years, validator: validate, logger: logger}
}

// List returns classes with their grade level name. A semester filter adds the enrolled head count.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassSummary, error) {
	classes, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list classes")
	}
	if classes == nil {
		classes = []models.ClassSummary{}
	}
	return classes, nil
}

// Get returns a class by id.
func (s *ClassService) Get(ctx context.Context, id int64) (*models.SchoolClass, error) {
	class, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	return class, nil
}

// Create adds a class to a grade level and academic year.
func (s *ClassService) Create(ctx context.Context, req dto.CreateClassRequest) (*models.SchoolClass, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if _, err := s.gradeLevels.FindByID(ctx, req.GradeLevelID); err != nil {
		return nil, notFoundOr(err, "grade level not found", "failed to load grade level")
	}
	if _, err := s.years.FindByID(ctx, nil, req.AcademicYearID); err != nil {
		return nil, notFoundOr(err, "academic year not found", "failed to load academic year")
	}

	class := &models.SchoolClass{
		Name:           req.Name,
		GradeLevelID:   req.GradeLevelID,
		AcademicYearID: req.AcademicYearID,
		DeclaredSize:   req.DeclaredSize,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Internal(err, "failed to create class")
	}
	return class, nil
}
