package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
)

type studentFinder interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Student, error)
}

type studentClassLister interface {
	ListStudentClasses(ctx context.Context, studentID string, semesterID int64) ([]models.StudentClass, error)
}

type scoreProjectionReader interface {
	ListSubjectRecords(ctx context.Context, studentID string, filter models.LookupFilter) ([]models.SubjectRecordRow, error)
	ListScoreDetails(ctx context.Context, recordIDs []int64) ([]models.ScoreDetailRow, error)
}

func lookupCachePattern(studentID string) string {
	return fmt.Sprintf("lookup:student:%s:*", studentID)
}

func lookupCacheKey(studentID string, filter models.LookupFilter) string {
	return fmt.Sprintf("lookup:student:%s:scores:%d:%d", studentID, filter.SemesterID, filter.SubjectID)
}

func classesCacheKey(studentID string, semesterID int64) string {
	return fmt.Sprintf("lookup:student:%s:classes:%d", studentID, semesterID)
}

// LookupService serves read-only score projections. Results are cached per student.
type LookupService struct {
	students    studentFinder
	enrollments studentClassLister
	scores      scoreProjectionReader
	cache       *CacheService
	logger      *zap.Logger
}

// NewLookupService constructs the lookup service.
func NewLookupService(students studentFinder, enrollments studentClassLister, scores scoreProjectionReader, cache *CacheService, logger *zap.Logger) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{students: students, enrollments: enrollments, scores: scores, cache: cache, logger: logger}
}

// LookupScoresOfStudent returns, per enrollment, every subject gradebook of the class with the student's
// average, display bucket averages and raw score details. Gradebooks without a record for the student
// carry a nil average and no details.
func (s *LookupService) LookupScoresOfStudent(ctx context.Context, studentID string, filter models.LookupFilter) (*models.StudentScoreLookup, error) {
	if studentID == "" {
		return nil, appErrors.Validation("student_id is required")
	}
	key := lookupCacheKey(studentID, filter)
	var cached models.StudentScoreLookup
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	student, err := s.students.FindByID(ctx, nil, studentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}

	classes, err := s.enrollments.ListStudentClasses(ctx, studentID, filter.SemesterID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollments")
	}
	records, err := s.scores.ListSubjectRecords(ctx, studentID, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load subject records")
	}

	recordIDs := make([]int64, 0, len(records))
	for _, r := range records {
		if r.RecordID != nil {
			recordIDs = append(recordIDs, *r.RecordID)
		}
	}
	detailRows, err := s.scores.ListScoreDetails(ctx, recordIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load score details")
	}
	details := groupScoreDetails(detailRows)

	bySemesterClass := make(map[[2]int64][]models.SubjectScores, len(classes))
	for _, r := range records {
		subject := models.SubjectScores{
			GradebookID:    r.GradebookID,
			SubjectID:      r.SubjectID,
			Coefficient:    1,
			SubjectAverage: r.SubjectAverage,
		}
		if r.RecordID != nil {
			subject.Details = details[*r.RecordID]
		}
		if r.SubjectName != nil {
			subject.SubjectName = *r.SubjectName
		}
		if r.Coefficient != nil && *r.Coefficient > 0 {
			subject.Coefficient = *r.Coefficient
		}
		if subject.Details == nil {
			subject.Details = []models.ScoreDetail{}
		}
		subject.Buckets = bucketAverages(subject.Details)
		key := [2]int64{r.ClassID, r.SemesterID}
		bySemesterClass[key] = append(bySemesterClass[key], subject)
	}

	lookup := &models.StudentScoreLookup{
		StudentID:   student.ID,
		FullName:    student.FullName,
		Enrollments: make([]models.ClassScores, 0, len(classes)),
	}
	for _, c := range classes {
		subjects := bySemesterClass[[2]int64{c.ClassID, c.SemesterID}]
		if subjects == nil {
			subjects = []models.SubjectScores{}
		}
		lookup.Enrollments = append(lookup.Enrollments, models.ClassScores{StudentClass: c, Subjects: subjects})
	}

	s.cache.Set(ctx, key, lookup)
	return lookup, nil
}

// MyClasses lists the classes the student is enrolled in, optionally for one semester.
func (s *LookupService) MyClasses(ctx context.Context, studentID string, semesterID int64) ([]models.StudentClass, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a student")
	}
	key := classesCacheKey(studentID, semesterID)
	var cached []models.StudentClass
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	classes, err := s.enrollments.ListStudentClasses(ctx, studentID, semesterID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load classes")
	}
	if classes == nil {
		classes = []models.StudentClass{}
	}
	s.cache.Set(ctx, key, classes)
	return classes, nil
}

// MyScoresBySemester is the self-service score lookup of one semester.
func (s *LookupService) MyScoresBySemester(ctx context.Context, studentID string, semesterID int64) (*models.StudentScoreLookup, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a student")
	}
	if semesterID <= 0 {
		return nil, appErrors.Validation("semester_id is required")
	}
	return s.LookupScoresOfStudent(ctx, studentID, models.LookupFilter{SemesterID: semesterID})
}

// groupScoreDetails classifies raw score rows and groups them by record, keeping repository order.
func groupScoreDetails(rows []models.ScoreDetailRow) map[int64][]models.ScoreDetail {
	out := make(map[int64][]models.ScoreDetail)
	for _, row := range rows {
		detail := models.ScoreDetail{
			AssessmentTypeID: row.AssessmentTypeID,
			Attempt:          row.Attempt,
			Score:            row.Score,
		}
		if row.AssessmentTypeName != nil {
			detail.AssessmentTypeName = *row.AssessmentTypeName
		}
		if bucket, ok := classifyAssessment(row.AssessmentTypeID, detail.AssessmentTypeName); ok {
			detail.Bucket = bucket
		}
		out[row.RecordID] = append(out[row.RecordID], detail)
	}
	return out
}
