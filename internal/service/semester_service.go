package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
)

type semesterRepository interface {
	List(ctx context.Context, academicYearID int64) ([]models.Semester, error)
	FindByID(ctx context.Context, id int64) (*models.Semester, error)
	Create(ctx context.Context, exec sqlx.ExtContext, semester *models.Semester) error
	Update(ctx context.Context, exec sqlx.ExtContext, semester *models.Semester) error
	Delete(ctx context.Context, id int64) (bool, error)
	CountUsages(ctx context.Context, id int64) (int, error)
}

type academicYearRepository interface {
	FindOrCreate(ctx context.Context, exec sqlx.ExtContext, startYear, endYear int) (*models.AcademicYear, error)
	FindByYears(ctx context.Context, startYear, endYear int) (*models.AcademicYear, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.AcademicYear, error)
}

var yearLabelPattern = regexp.MustCompile(`^(\d{4})\s*[-/–—]\s*(\d{4})$`)

// ParseYearLabel parses "2024-2025" (also "2024/2025" and dash variants) into its start and end year.
// The years must be consecutive.
func ParseYearLabel(label string) (int, int, error) {
	m := yearLabelPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return 0, 0, appErrors.Validation("year label must look like YYYY-YYYY")
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if end != start+1 {
		return 0, 0, appErrors.Validation("academic year must span two consecutive years")
	}
	return start, end, nil
}

// SemesterService manages semesters and the academic years derived from their labels.
type SemesterService struct {
	db        txProvider
	repo      semesterRepository
	years     academicYearRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs the service.
func NewSemesterService(db txProvider, repo semesterRepository, years academicYearRepository, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{db: db, repo: repo, years: years, validator: validate, logger: logger}
}

// List returns semesters filtered by year label or academic year id. An unknown year yields an empty list.
func (s *SemesterService) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, error) {
	yearID := filter.AcademicYearID
	if label := strings.TrimSpace(filter.YearLabel); label != "" {
		start, end, err := ParseYearLabel(label)
		if err != nil {
			return nil, err
		}
		year, err := s.years.FindByYears(ctx, start, end)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return []models.Semester{}, nil
			}
			return nil, appErrors.Internal(err, "failed to load academic year")
		}
		yearID = year.ID
	}

	semesters, err := s.repo.List(ctx, yearID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list semesters")
	}
	return semesters, nil
}

// Get returns a semester with its academic year.
func (s *SemesterService) Get(ctx context.Context, id int64) (*models.Semester, error) {
	semester, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Internal(err, "failed to load semester")
	}
	return semester, nil
}

// Create validates the label and dates, then find-or-creates the academic year and inserts the semester
// in one transaction.
func (s *SemesterService) Create(ctx context.Context, req dto.CreateSemesterRequest) (*models.Semester, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	start, end, err := ParseYearLabel(req.YearLabel)
	if err != nil {
		return nil, err
	}
	semester := &models.Semester{Name: req.Name, StartDate: req.StartDate.Ptr(), EndDate: req.EndDate.Ptr()}
	if err := validateDateOrder(semester.StartDate, semester.EndDate); err != nil {
		return nil, err
	}

	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		year, err := s.years.FindOrCreate(ctx, tx, start, end)
		if err != nil {
			return appErrors.Internal(err, "failed to resolve academic year")
		}
		semester.AcademicYearID = year.ID
		semester.AcademicYear = year
		if err := s.repo.Create(ctx, tx, semester); err != nil {
			return appErrors.Internal(err, "failed to create semester")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("semester created", zap.Int64("semester_id", semester.ID), zap.Int64("academic_year_id", semester.AcademicYearID))
	return semester, nil
}

// Update merges the provided fields. A year label is resolved (find-or-create) inside the same transaction
// as the update; otherwise an explicit academic year id must exist.
func (s *SemesterService) Update(ctx context.Context, id int64, req dto.UpdateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	semester, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var start, end int
	relabel := req.YearLabel != nil && strings.TrimSpace(*req.YearLabel) != ""
	if relabel {
		if start, end, err = ParseYearLabel(*req.YearLabel); err != nil {
			return nil, err
		}
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Validation("name must not be empty")
		}
		semester.Name = name
	}
	if req.StartDate != nil {
		semester.StartDate = req.StartDate.Ptr()
	}
	if req.EndDate != nil {
		semester.EndDate = req.EndDate.Ptr()
	}
	if err := validateDateOrder(semester.StartDate, semester.EndDate); err != nil {
		return nil, err
	}

	err = inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		switch {
		case relabel:
			year, err := s.years.FindOrCreate(ctx, tx, start, end)
			if err != nil {
				return appErrors.Internal(err, "failed to resolve academic year")
			}
			semester.AcademicYearID = year.ID
			semester.AcademicYear = year
		case req.AcademicYearID != nil && *req.AcademicYearID != semester.AcademicYearID:
			year, err := s.years.FindByID(ctx, tx, *req.AcademicYearID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
				}
				return appErrors.Internal(err, "failed to load academic year")
			}
			semester.AcademicYearID = year.ID
			semester.AcademicYear = year
		}
		if err := s.repo.Update(ctx, tx, semester); err != nil {
			return appErrors.Internal(err, "failed to update semester")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return semester, nil
}

// Delete removes a semester that has neither enrollments nor gradebooks.
func (s *SemesterService) Delete(ctx context.Context, id int64) error {
	count, err := s.repo.CountUsages(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check semester usage")
	}
	if count > 0 {
		return appErrors.Validation("semester is in use and cannot be deleted")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to delete semester")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}
	return nil
}

func validateDateOrder(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return appErrors.Validation("start_date must not be after end_date")
	}
	return nil
}
