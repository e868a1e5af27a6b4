package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
	"github.com/noah-isme/sma-gradebook-api/pkg/jobs"
	"github.com/noah-isme/sma-gradebook-api/pkg/mailer"
)

const (
	temporaryPasswordLength  = 10
	temporaryPasswordCharset = "abcdefghijklmnopqrstuvwxyz0123456789"
)

type studentRepository interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Student, error)
	Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
	Search(ctx context.Context, q string) ([]models.StudentSearchResult, error)
}

type enrollmentRepository interface {
	Exists(ctx context.Context, exec sqlx.ExtContext, studentID string, classID, semesterID int64) (bool, error)
	Count(ctx context.Context, exec sqlx.ExtContext, classID, semesterID int64) (int, error)
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	ListStudents(ctx context.Context, classID, semesterID int64) ([]models.EnrolledStudent, error)
	ListStudentIDs(ctx context.Context, exec sqlx.ExtContext, classID, semesterID int64) ([]string, error)
	DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) error
}

type classSizeLookup interface {
	MaxClassSizeForClass(ctx context.Context, exec sqlx.ExtContext, classID int64) (*int, error)
}

type semesterLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Semester, error)
}

type accountRepository interface {
	ExistsForStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) (bool, error)
	UsernameTaken(ctx context.Context, exec sqlx.ExtContext, username string) (bool, error)
	FindGroupByName(ctx context.Context, exec sqlx.ExtContext, name string) (*models.UserGroup, error)
	Create(ctx context.Context, exec sqlx.ExtContext, account *models.UserAccount) error
	DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) error
}

// EnrollmentService places students into class semesters and provisions their logins.
type EnrollmentService struct {
	db          txProvider
	students    studentRepository
	enrollments enrollmentRepository
	classSizes  classSizeLookup
	semesters   semesterLookup
	accounts    accountRepository
	outbox      jobEnqueuer
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
	hashCost    int
}

// EnrollmentServiceParams groups the collaborators of EnrollmentService.
type EnrollmentServiceParams struct {
	DB          txProvider
	Students    studentRepository
	Enrollments enrollmentRepository
	ClassSizes  classSizeLookup
	Semesters   semesterLookup
	Accounts    accountRepository
	Outbox      jobEnqueuer
	Cache       *CacheService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(p EnrollmentServiceParams) *EnrollmentService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &EnrollmentService{
		db:          p.DB,
		students:    p.Students,
		enrollments: p.Enrollments,
		classSizes:  p.ClassSizes,
		semesters:   p.Semesters,
		accounts:    p.Accounts,
		outbox:      p.Outbox,
		cache:       p.Cache,
		validator:   p.Validator,
		logger:      p.Logger,
		now:         time.Now,
		hashCost:    bcrypt.DefaultCost,
	}
}

// Enroll adds a student to (class, semester), creating the student first when the id is unknown.
// Capacity and uniqueness are checked in the same transaction as the insert. When the student has an
// email and no login yet, an account is provisioned and its temporary password is returned once.
func (s *EnrollmentService) Enroll(ctx context.Context, classID, semesterID int64, req dto.EnrollStudentRequest) (*models.EnrollmentResult, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if classID <= 0 || semesterID <= 0 {
		return nil, appErrors.Validation("class_id and semester_id are required")
	}
	if _, err := s.semesters.FindByID(ctx, semesterID); err != nil {
		return nil, notFoundOr(err, "semester not found", "failed to load semester")
	}

	result := &models.EnrollmentResult{}
	var password string
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		student, created, err := s.findOrCreateStudent(ctx, tx, req)
		if err != nil {
			return err
		}
		result.Student = *student
		result.StudentCreated = created

		exists, err := s.enrollments.Exists(ctx, tx, student.ID, classID, semesterID)
		if err != nil {
			return appErrors.Internal(err, "failed to check enrollment")
		}
		if exists {
			return appErrors.Validation("student is already enrolled in this class this semester")
		}

		if err := s.checkCapacity(ctx, tx, classID, semesterID); err != nil {
			return err
		}

		enrollment := &models.Enrollment{StudentID: student.ID, ClassID: classID, SemesterID: semesterID}
		if err := s.enrollments.Create(ctx, tx, enrollment); err != nil {
			return appErrors.Internal(err, "failed to create enrollment")
		}
		result.Enrollment = *enrollment

		if !student.HasEmail() {
			return nil
		}
		has, err := s.accounts.ExistsForStudent(ctx, tx, student.ID)
		if err != nil {
			return appErrors.Internal(err, "failed to check student account")
		}
		if has {
			return nil
		}
		account, plain, err := s.provisionAccount(ctx, tx, student)
		if err != nil {
			return err
		}
		password = plain
		result.Account = &models.ProvisionedAccount{
			Username:          account.Username,
			TemporaryPassword: plain,
			Email:             *student.Email,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("student enrolled",
		zap.String("student_id", result.Student.ID),
		zap.Int64("class_id", classID),
		zap.Int64("semester_id", semesterID),
		zap.Bool("student_created", result.StudentCreated),
		zap.Bool("account_created", result.Account != nil),
	)
	s.cache.Invalidate(ctx, lookupCachePattern(result.Student.ID))
	if result.Account != nil {
		s.notifyAccountCreated(result.Student, result.Account.Username, password)
	}
	return result, nil
}

// ListStudents returns the roster of (class, semester) ordered by student id.
func (s *EnrollmentService) ListStudents(ctx context.Context, classID, semesterID int64) ([]models.EnrolledStudent, error) {
	students, err := s.enrollments.ListStudents(ctx, classID, semesterID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class students")
	}
	if students == nil {
		students = []models.EnrolledStudent{}
	}
	return students, nil
}

func (s *EnrollmentService) findOrCreateStudent(ctx context.Context, tx *sqlx.Tx, req dto.EnrollStudentRequest) (*models.Student, bool, error) {
	student, err := s.students.FindByID(ctx, tx, req.StudentID)
	if err == nil {
		return student, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, appErrors.Internal(err, "failed to load student")
	}

	if req.FullName == nil || strings.TrimSpace(*req.FullName) == "" || req.Sex == nil || strings.TrimSpace(*req.Sex) == "" || req.BirthDate == nil {
		return nil, false, appErrors.Validation("full_name, sex and birth_date are required for a new student")
	}
	student = &models.Student{
		ID:         req.StudentID,
		FullName:   strings.TrimSpace(*req.FullName),
		Sex:        strings.TrimSpace(*req.Sex),
		BirthDate:  req.BirthDate.Time,
		Email:      trimmedOrNil(req.Email),
		Phone:      trimmedOrNil(req.Phone),
		Address:    req.Address,
		AdmittedAt: req.AdmittedAt.Ptr(),
		Notes:      req.Notes,
	}
	if err := s.students.Create(ctx, tx, student); err != nil {
		return nil, false, appErrors.Internal(err, "failed to create student")
	}
	return student, true, nil
}

func (s *EnrollmentService) checkCapacity(ctx context.Context, tx *sqlx.Tx, classID, semesterID int64) error {
	limit, err := s.classSizes.MaxClassSizeForClass(ctx, tx, classID)
	if err != nil {
		return notFoundOr(err, "class not found", "failed to load class parameters")
	}
	if limit == nil {
		return nil
	}
	count, err := s.enrollments.Count(ctx, tx, classID, semesterID)
	if err != nil {
		return appErrors.Internal(err, "failed to count enrollments")
	}
	if count+1 > *limit {
		return appErrors.Validation(fmt.Sprintf("class is full (maximum %d students)", *limit))
	}
	return nil
}

func (s *EnrollmentService) provisionAccount(ctx context.Context, tx *sqlx.Tx, student *models.Student) (*models.UserAccount, string, error) {
	group, err := s.accounts.FindGroupByName(ctx, tx, models.GroupStudent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrPrecondition, "user group \"student\" is missing")
		}
		return nil, "", appErrors.Internal(err, "failed to load student user group")
	}

	username := student.ID
	taken, err := s.accounts.UsernameTaken(ctx, tx, username)
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to check username")
	}
	if taken {
		username = fmt.Sprintf("hs%s_%04d", student.ID, s.now().UnixMilli()%10000)
	}

	plain, err := generateTemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to generate password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.hashCost)
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to hash password")
	}

	studentID := student.ID
	account := &models.UserAccount{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     student.FullName,
		Email:        student.Email,
		GroupID:      group.ID,
		GroupName:    group.Name,
		StudentID:    &studentID,
		Active:       true,
	}
	if err := s.accounts.Create(ctx, tx, account); err != nil {
		return nil, "", appErrors.Internal(err, "failed to create student account")
	}
	return account, plain, nil
}

// notifyAccountCreated runs after commit. Failures are logged and never surface to the caller.
func (s *EnrollmentService) notifyAccountCreated(student models.Student, username, password string) {
	if s.outbox == nil {
		return
	}
	err := s.outbox.Enqueue(jobs.Job{
		Type: JobTypeAccountCreated,
		Payload: mailer.AccountCreated{
			Email:    *student.Email,
			FullName: student.FullName,
			Username: username,
			Password: password,
			UserType: "học sinh",
		},
	})
	if err != nil {
		s.logger.Warn("failed to queue account email", zap.String("student_id", student.ID), zap.Error(err))
	}
}

func generateTemporaryPassword(n int) (string, error) {
	size := big.NewInt(int64(len(temporaryPasswordCharset)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		buf[i] = temporaryPasswordCharset[idx.Int64()]
	}
	return string(buf), nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
