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

type studentScoreCleaner interface {
	DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) error
}

// StudentService updates, removes and searches students.
type StudentService struct {
	db          txProvider
	students    studentRepository
	enrollments enrollmentRepository
	accounts    accountRepository
	scores      studentScoreCleaner
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(db txProvider, students studentRepository, enrollments enrollmentRepository, accounts accountRepository, scores studentScoreCleaner, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		db:          db,
		students:    students,
		enrollments: enrollments,
		accounts:    accounts,
		scores:      scores,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	return student, nil
}

// Update merges the provided fields onto the student.
func (s *StudentService) Update(ctx context.Context, id string, req dto.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := models.StudentPatch{
		FullName:   trimmedOrNil(req.FullName),
		Sex:        trimmedOrNil(req.Sex),
		BirthDate:  req.BirthDate.Ptr(),
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		AdmittedAt: req.AdmittedAt.Ptr(),
		Notes:      req.Notes,
	}
	patch.Apply(student)

	if err := s.students.Update(ctx, student); err != nil {
		return nil, appErrors.Internal(err, "failed to update student")
	}
	s.cache.Invalidate(ctx, lookupCachePattern(id))
	return student, nil
}

// Remove deletes a student with their scores, enrollments and login in one transaction.
func (s *StudentService) Remove(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.scores.DeleteByStudent(ctx, tx, id); err != nil {
			return appErrors.Internal(err, "failed to delete student scores")
		}
		if err := s.enrollments.DeleteByStudent(ctx, tx, id); err != nil {
			return appErrors.Internal(err, "failed to delete student enrollments")
		}
		if err := s.accounts.DeleteByStudent(ctx, tx, id); err != nil {
			return appErrors.Internal(err, "failed to delete student account")
		}
		if err := s.students.Delete(ctx, tx, id); err != nil {
			return appErrors.Internal(err, "failed to delete student")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, lookupCachePattern(id))
	s.logger.Info("student removed", zap.String("student_id", id))
	return nil
}

// Search matches students by name, id, email or phone. An empty query returns no rows.
func (s *StudentService) Search(ctx context.Context, q string) ([]models.StudentSearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.StudentSearchResult{}, nil
	}
	results, err := s.students.Search(ctx, q)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to search students")
	}
	if results == nil {
		results = []models.StudentSearchResult{}
	}
	return results, nil
}
