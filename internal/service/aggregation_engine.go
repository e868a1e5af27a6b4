package service

import (
	"context"
	"math"
	"sort"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
)

type aggregationStore interface {
	ListWeightedScores(ctx context.Context, exec sqlx.ExtContext, recordID int64) ([]models.WeightedScore, error)
	SetSubjectAverage(ctx context.Context, exec sqlx.ExtContext, recordID int64, average *float64) error
	ListSubjectAverages(ctx context.Context, exec sqlx.ExtContext, classID, semesterID int64) ([]models.SubjectAverageRow, error)
	SetSemesterAverage(ctx context.Context, exec sqlx.ExtContext, classID, semesterID int64, studentID string, average *float64) error
}

type enrollmentRoster interface {
	ListStudentIDs(ctx context.Context, exec sqlx.ExtContext, classID, semesterID int64) ([]string, error)
}

// weightedValue is one term of a weighted mean. Key fixes the accumulation order.
type weightedValue struct {
	key    [2]int64
	value  *float64
	weight *float64
}

// weightedMean returns round2(Σ v·w / Σ w) over terms with a non-nil value, accumulated in ascending key order.
// A nil or non-positive weight counts as 1. It returns nil when no term has a value.
func weightedMean(values []weightedValue) *float64 {
	sorted := make([]weightedValue, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].key[0] != sorted[j].key[0] {
			return sorted[i].key[0] < sorted[j].key[0]
		}
		return sorted[i].key[1] < sorted[j].key[1]
	})

	var sum, weights float64
	for _, v := range sorted {
		if v.value == nil {
			continue
		}
		w := 1.0
		if v.weight != nil && *v.weight > 0 {
			w = *v.weight
		}
		sum += *v.value * w
		weights += w
	}
	if weights == 0 {
		return nil
	}
	avg := round2(sum / weights)
	return &avg
}

// round2 rounds half away from zero at the second decimal. The 1e-9 nudge absorbs binary
// representation error so 7.325 rounds to 7.33.
func round2(v float64) float64 {
	return math.Round(v*100+math.Copysign(1e-9, v)) / 100
}

// AggregationEngine owns subject and semester averages. Every recompute reads the full current scope.
type AggregationEngine struct {
	store       aggregationStore
	enrollments enrollmentRoster
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewAggregationEngine constructs the engine.
func NewAggregationEngine(store aggregationStore, enrollments enrollmentRoster, metrics *MetricsService, logger *zap.Logger) *AggregationEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregationEngine{store: store, enrollments: enrollments, metrics: metrics, logger: logger}
}

// RecomputeSubjectAverage rebuilds the subject average of one record from all of its score entries.
func (e *AggregationEngine) RecomputeSubjectAverage(ctx context.Context, exec sqlx.ExtContext, recordID int64) (*float64, error) {
	scores, err := e.store.ListWeightedScores(ctx, exec, recordID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load scores")
	}

	values := make([]weightedValue, 0, len(scores))
	for _, s := range scores {
		values = append(values, weightedValue{
			key:    [2]int64{s.AssessmentTypeID, int64(s.Attempt)},
			value:  s.Score,
			weight: s.Weight,
		})
	}
	average := weightedMean(values)

	if err := e.store.SetSubjectAverage(ctx, exec, recordID, average); err != nil {
		return nil, appErrors.Internal(err, "failed to store subject average")
	}
	e.metrics.RecordRecompute("subject", 1)
	return average, nil
}

// RecomputeSemesterAverages rebuilds the semester average of every enrollment in (class, semester).
// Students without any graded subject get a nil average.
func (e *AggregationEngine) RecomputeSemesterAverages(ctx context.Context, exec sqlx.ExtContext, classID, semesterID int64) (map[string]*float64, error) {
	studentIDs, err := e.enrollments.ListStudentIDs(ctx, exec, classID, semesterID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollments")
	}
	rows, err := e.store.ListSubjectAverages(ctx, exec, classID, semesterID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load subject averages")
	}

	byStudent := make(map[string][]weightedValue, len(studentIDs))
	for _, row := range rows {
		byStudent[row.StudentID] = append(byStudent[row.StudentID], weightedValue{
			key:    [2]int64{row.SubjectID, 0},
			value:  row.SubjectAverage,
			weight: row.Coefficient,
		})
	}

	result := make(map[string]*float64, len(studentIDs))
	for _, studentID := range studentIDs {
		average := weightedMean(byStudent[studentID])
		if err := e.store.SetSemesterAverage(ctx, exec, classID, semesterID, studentID, average); err != nil {
			return nil, appErrors.Internal(err, "failed to store semester average")
		}
		result[studentID] = average
	}

	e.metrics.RecordRecompute("semester", len(studentIDs))
	e.logger.Debug("semester averages recomputed",
		zap.Int64("class_id", classID),
		zap.Int64("semester_id", semesterID),
		zap.Int("students", len(studentIDs)),
	)
	return result, nil
}
