package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/models"
	"github.com/noah-isme/sma-gradebook-api/pkg/database"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
)

type scoreLedger interface {
	FindOrCreateGradebook(ctx context.Context, exec sqlx.ExtContext, classID, semesterID, subjectID int64) (*models.SubjectGradebook, error)
	FindOrCreateRecord(ctx context.Context, exec sqlx.ExtContext, gradebookID int64, studentID string) (*models.StudentSubjectRecord, error)
	UpsertScore(ctx context.Context, exec sqlx.ExtContext, recordID, assessmentTypeID int64, attempt int, score *float64) error
	EnsureScore(ctx context.Context, exec sqlx.ExtContext, recordID, assessmentTypeID int64, attempt int) error
}

type classLookup interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.SchoolClass, error)
}

type subjectLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

type averageRecomputer interface {
	RecomputeSubjectAverage(ctx context.Context, exec sqlx.ExtContext, recordID int64) (*float64, error)
	RecomputeSemesterAverages(ctx context.Context, exec sqlx.ExtContext, classID, semesterID int64) (map[string]*float64, error)
}

// GradebookService records raw scores and triggers the average recomputation for the touched scope.
type GradebookService struct {
	db        txProvider
	ledger    scoreLedger
	engine    averageRecomputer
	classes   classLookup
	semesters semesterLookup
	subjects  subjectLookup
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// GradebookServiceParams groups the collaborators of GradebookService.
type GradebookServiceParams struct {
	DB        txProvider
	Ledger    scoreLedger
	Engine    averageRecomputer
	Classes   classLookup
	Semesters semesterLookup
	Subjects  subjectLookup
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewGradebookService constructs the score ledger service.
func NewGradebookService(p GradebookServiceParams) *GradebookService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &GradebookService{
		db:        p.DB,
		ledger:    p.Ledger,
		engine:    p.Engine,
		classes:   p.Classes,
		semesters: p.Semesters,
		subjects:  p.Subjects,
		cache:     p.Cache,
		metrics:   p.Metrics,
		validator: p.Validator,
		logger:    p.Logger,
	}
}

// EnterScores upserts a batch of scores for one (class, semester, subject) and recomputes averages.
// Rows missing a student id, assessment type or attempt are skipped and reported. The whole batch,
// including every recomputed average, commits or rolls back together.
func (s *GradebookService) EnterScores(ctx context.Context, classID, semesterID, subjectID int64, req dto.EnterScoresRequest) (*models.ScoreBatchResult, error) {
	if classID <= 0 || semesterID <= 0 || subjectID <= 0 {
		return nil, appErrors.Validation("class_id, semester_id and subject_id are required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "entries must be an array")
	}
	if _, err := s.classes.FindByID(ctx, nil, classID); err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	if _, err := s.semesters.FindByID(ctx, semesterID); err != nil {
		return nil, notFoundOr(err, "semester not found", "failed to load semester")
	}
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		return nil, notFoundOr(err, "subject not found", "failed to load subject")
	}

	inputs, skipped := req.ToInput()
	result := &models.ScoreBatchResult{
		Accepted: make([]models.AcceptedRow, 0, len(inputs)),
		Skipped:  skipped,
		Averages: make([]models.StudentAverage, 0, len(inputs)),
	}
	if result.Skipped == nil {
		result.Skipped = []models.SkippedRow{}
	}

	var semesterAverages map[string]*float64
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		gradebook, err := s.ledger.FindOrCreateGradebook(ctx, tx, classID, semesterID, subjectID)
		if err != nil {
			return appErrors.Internal(err, "failed to open gradebook")
		}
		result.GradebookID = gradebook.ID

		for _, in := range inputs {
			record, err := s.ledger.FindOrCreateRecord(ctx, tx, gradebook.ID, in.StudentID)
			if err != nil {
				if database.IsForeignKeyViolation(err) {
					return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", in.StudentID))
				}
				return appErrors.Internal(err, "failed to open student record")
			}
			for _, d := range in.Details {
				if d.ScoreSet {
					err = s.ledger.UpsertScore(ctx, tx, record.ID, d.AssessmentTypeID, d.Attempt, d.Score)
				} else {
					err = s.ledger.EnsureScore(ctx, tx, record.ID, d.AssessmentTypeID, d.Attempt)
				}
				if err != nil {
					if database.IsForeignKeyViolation(err) {
						return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("assessment type %d not found", d.AssessmentTypeID))
					}
					return appErrors.Internal(err, "failed to store score")
				}
			}

			average, err := s.engine.RecomputeSubjectAverage(ctx, tx, record.ID)
			if err != nil {
				return err
			}
			result.Accepted = append(result.Accepted, models.AcceptedRow{
				RowIndex:  in.RowIndex,
				StudentID: in.StudentID,
				RecordID:  record.ID,
				Details:   len(in.Details),
			})
			result.Averages = append(result.Averages, models.StudentAverage{StudentID: in.StudentID, SubjectAverage: average})
		}

		semesterAverages, err = s.engine.RecomputeSemesterAverages(ctx, tx, classID, semesterID)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.OK = true

	s.metrics.RecordScoreBatch(len(result.Accepted), len(result.Skipped))
	s.logger.Info("scores entered",
		zap.Int64("class_id", classID),
		zap.Int64("semester_id", semesterID),
		zap.Int64("subject_id", subjectID),
		zap.Int64("gradebook_id", result.GradebookID),
		zap.Int("accepted", len(result.Accepted)),
		zap.Int("skipped", len(result.Skipped)),
	)
	s.invalidateLookups(ctx, inputs, semesterAverages)
	return result, nil
}

func (s *GradebookService) invalidateLookups(ctx context.Context, inputs []models.StudentScoresInput, enrolled map[string]*float64) {
	if !s.cache.Enabled() {
		return
	}
	seen := make(map[string]struct{}, len(inputs)+len(enrolled))
	patterns := make([]string, 0, len(inputs)+len(enrolled))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		patterns = append(patterns, lookupCachePattern(id))
	}
	for _, in := range inputs {
		add(in.StudentID)
	}
	for id := range enrolled {
		add(id)
	}
	s.cache.Invalidate(ctx, patterns...)
}
