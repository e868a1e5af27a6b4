package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
	"github.com/noah-isme/sma-gradebook-api/pkg/database"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
)

type yearParametersRepository interface {
	List(ctx context.Context, academicYearID int64) ([]models.YearParameters, error)
	FindByYear(ctx context.Context, exec sqlx.ExtContext, academicYearID int64) (*models.YearParameters, error)
	FindByID(ctx context.Context, id int64) (*models.YearParameters, error)
	Create(ctx context.Context, exec sqlx.ExtContext, params *models.YearParameters) error
	Update(ctx context.Context, exec sqlx.ExtContext, params *models.YearParameters) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// YearParametersService enforces one parameter set per academic year.
type YearParametersService struct {
	db     txProvider
	repo   yearParametersRepository
	years  academicYearRepository
	logger *zap.Logger
}

// NewYearParametersService constructs the service.
func NewYearParametersService(db txProvider, repo yearParametersRepository, years academicYearRepository, logger *zap.Logger) *YearParametersService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YearParametersService{db: db, repo: repo, years: years, logger: logger}
}

// List returns every parameter set, optionally for one academic year.
func (s *YearParametersService) List(ctx context.Context, academicYearID int64) ([]models.YearParameters, error) {
	params, err := s.repo.List(ctx, academicYearID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list year parameters")
	}
	if params == nil {
		params = []models.YearParameters{}
	}
	return params, nil
}

// GetByYear returns the parameter set of an academic year.
func (s *YearParametersService) GetByYear(ctx context.Context, academicYearID int64) (*models.YearParameters, error) {
	params, err := s.repo.FindByYear(ctx, nil, academicYearID)
	if err != nil {
		return nil, notFoundOr(err, "year parameters not found", "failed to load year parameters")
	}
	return params, nil
}

// GetByID returns a parameter set by id.
func (s *YearParametersService) GetByID(ctx context.Context, id int64) (*models.YearParameters, error) {
	params, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "year parameters not found", "failed to load year parameters")
	}
	return params, nil
}

// Create inserts the parameter set of a year and fails with a conflict when one already exists.
func (s *YearParametersService) Create(ctx context.Context, academicYearID int64, input models.YearParametersInput) (*models.YearParameters, error) {
	params := &models.YearParameters{AcademicYearID: academicYearID}
	input.Apply(params)
	if err := validateYearParameters(params); err != nil {
		return nil, err
	}

	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.ensureYear(ctx, tx, academicYearID); err != nil {
			return err
		}
		_, err := s.repo.FindByYear(ctx, tx, academicYearID)
		switch {
		case err == nil:
			return appErrors.Clone(appErrors.ErrConflict, "year parameters already exist for this academic year")
		case !errors.Is(err, sql.ErrNoRows):
			return appErrors.Internal(err, "failed to load year parameters")
		}
		return s.create(ctx, tx, params)
	})
	if err != nil {
		return nil, err
	}
	return params, nil
}

// Upsert creates the parameter set of a year or replaces every value of the existing one.
// Fields absent from input are stored as null. created reports whether a row was inserted.
func (s *YearParametersService) Upsert(ctx context.Context, academicYearID int64, input models.YearParametersInput) (params *models.YearParameters, created bool, err error) {
	params = &models.YearParameters{AcademicYearID: academicYearID}
	input.Apply(params)
	if err := validateYearParameters(params); err != nil {
		return nil, false, err
	}

	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.ensureYear(ctx, tx, academicYearID); err != nil {
			return err
		}
		existing, err := s.repo.FindByYear(ctx, tx, academicYearID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return appErrors.Internal(err, "failed to load year parameters")
			}
			created = true
			return s.create(ctx, tx, params)
		}
		params.ID = existing.ID
		params.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, tx, params); err != nil {
			return appErrors.Internal(err, "failed to update year parameters")
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return params, created, nil
}

// UpdateByYear merges the present fields onto the parameter set of a year.
func (s *YearParametersService) UpdateByYear(ctx context.Context, academicYearID int64, input models.YearParametersInput) (*models.YearParameters, error) {
	var params *models.YearParameters
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		existing, err := s.repo.FindByYear(ctx, tx, academicYearID)
		if err != nil {
			return notFoundOr(err, "year parameters not found", "failed to load year parameters")
		}
		params = existing
		return s.merge(ctx, tx, params, input)
	})
	if err != nil {
		return nil, err
	}
	return params, nil
}

// UpdateByID merges the present fields onto a parameter set.
func (s *YearParametersService) UpdateByID(ctx context.Context, id int64, input models.YearParametersInput) (*models.YearParameters, error) {
	params, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.merge(ctx, tx, params, input)
	})
	if err != nil {
		return nil, err
	}
	return params, nil
}

// DeleteByYear removes the parameter set of a year.
func (s *YearParametersService) DeleteByYear(ctx context.Context, academicYearID int64) error {
	params, err := s.GetByYear(ctx, academicYearID)
	if err != nil {
		return err
	}
	return s.DeleteByID(ctx, params.ID)
}

// DeleteByID removes a parameter set.
func (s *YearParametersService) DeleteByID(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to delete year parameters")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "year parameters not found")
	}
	return nil
}

func (s *YearParametersService) ensureYear(ctx context.Context, exec sqlx.ExtContext, academicYearID int64) error {
	if academicYearID <= 0 {
		return appErrors.Validation("academic_year_id is required")
	}
	if _, err := s.years.FindByID(ctx, exec, academicYearID); err != nil {
		return notFoundOr(err, "academic year not found", "failed to load academic year")
	}
	return nil
}

func (s *YearParametersService) create(ctx context.Context, exec sqlx.ExtContext, params *models.YearParameters) error {
	if err := s.repo.Create(ctx, exec, params); err != nil {
		if database.IsUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "year parameters already exist for this academic year")
		}
		return appErrors.Internal(err, "failed to create year parameters")
	}
	s.logger.Info("year parameters created", zap.Int64("academic_year_id", params.AcademicYearID))
	return nil
}

func (s *YearParametersService) merge(ctx context.Context, exec sqlx.ExtContext, params *models.YearParameters, input models.YearParametersInput) error {
	input.Apply(params)
	if err := validateYearParameters(params); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, exec, params); err != nil {
		return appErrors.Internal(err, "failed to update year parameters")
	}
	return nil
}

func validateYearParameters(p *models.YearParameters) error {
	if p.MinAge != nil && p.MaxAge != nil && *p.MinAge > *p.MaxAge {
		return appErrors.Validation("min_age must not exceed max_age")
	}
	if p.MinScore != nil && p.MaxScore != nil && *p.MinScore > *p.MaxScore {
		return appErrors.Validation("min_score must not exceed max_score")
	}
	if p.MaxClassSize != nil && *p.MaxClassSize < 1 {
		return appErrors.Validation("max_class_size must be positive")
	}
	return nil
}

// notFoundOr maps sql.ErrNoRows to a 404 and anything else to a 500.
func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}
