package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
)

func strPtr(v string) *string { return &v }

type studentFinderStub map[string]*models.Student

func (s studentFinderStub) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Student, error) {
	if st, ok := s[id]; ok {
		return st, nil
	}
	return nil, sql.ErrNoRows
}

type projectionStub struct {
	classes     []models.StudentClass
	records     []models.SubjectRecordRow
	details     []models.ScoreDetailRow
	calls       int
	lastFilter  models.LookupFilter
	lastRecords []int64
}

func (p *projectionStub) ListStudentClasses(ctx context.Context, studentID string, semesterID int64) ([]models.StudentClass, error) {
	p.calls++
	var out []models.StudentClass
	for _, c := range p.classes {
		if semesterID == 0 || c.SemesterID == semesterID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (p *projectionStub) ListSubjectRecords(ctx context.Context, studentID string, filter models.LookupFilter) ([]models.SubjectRecordRow, error) {
	p.lastFilter = filter
	var out []models.SubjectRecordRow
	for _, r := range p.records {
		if filter.SemesterID != 0 && r.SemesterID != filter.SemesterID {
			continue
		}
		if filter.SubjectID != 0 && r.SubjectID != filter.SubjectID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (p *projectionStub) ListScoreDetails(ctx context.Context, recordIDs []int64) ([]models.ScoreDetailRow, error) {
	p.lastRecords = recordIDs
	return p.details, nil
}

func newProjectionStub() *projectionStub {
	return &projectionStub{
		classes: []models.StudentClass{
			{ClassID: 10, ClassName: "10A1", SemesterID: 20, SemesterName: "HK1", StartYear: 2024, EndYear: 2025, SemesterAverage: ptrFloat(8)},
			{ClassID: 10, ClassName: "10A1", SemesterID: 21, SemesterName: "HK2", StartYear: 2024, EndYear: 2025},
		},
		records: []models.SubjectRecordRow{
			{ClassID: 10, SemesterID: 20, GradebookID: 1, SubjectID: 1, SubjectName: strPtr("Toán"), Coefficient: ptrFloat(2), RecordID: int64Ptr(100), SubjectAverage: ptrFloat(7.5)},
			{ClassID: 10, SemesterID: 20, GradebookID: 2, SubjectID: 2, SubjectName: nil, Coefficient: nil, RecordID: int64Ptr(101), SubjectAverage: ptrFloat(9)},
			{ClassID: 10, SemesterID: 20, GradebookID: 3, SubjectID: 3, SubjectName: strPtr("Anh"), Coefficient: ptrFloat(1)},
		},
		details: []models.ScoreDetailRow{
			{RecordID: 100, AssessmentTypeID: 1, AssessmentTypeName: strPtr("Miệng"), Attempt: 1, Score: ptrFloat(6)},
			{RecordID: 100, AssessmentTypeID: 1, AssessmentTypeName: strPtr("Miệng"), Attempt: 2, Score: ptrFloat(7)},
			{RecordID: 100, AssessmentTypeID: 2, AssessmentTypeName: strPtr("Kiểm tra 15 phút"), Attempt: 1, Score: nil},
			{RecordID: 100, AssessmentTypeID: 5, AssessmentTypeName: strPtr("Cuối kỳ"), Attempt: 1, Score: ptrFloat(8)},
			{RecordID: 100, AssessmentTypeID: 9, AssessmentTypeName: strPtr("Project"), Attempt: 1, Score: ptrFloat(10)},
			{RecordID: 101, AssessmentTypeID: 4, AssessmentTypeName: nil, Attempt: 1, Score: ptrFloat(9)},
		},
	}
}

func newLookupFixture(cache *CacheService) (*LookupService, *projectionStub) {
	proj := newProjectionStub()
	students := studentFinderStub{"S1": {ID: "S1", FullName: "Nguyễn Văn A"}}
	return NewLookupService(students, proj, proj, cache, nil), proj
}

func TestLookupScoresOfStudentBuildsProjection(t *testing.T) {
	svc, proj := newLookupFixture(nil)

	lookup, err := svc.LookupScoresOfStudent(context.Background(), "S1", models.LookupFilter{})
	require.NoError(t, err)

	assert.Equal(t, "Nguyễn Văn A", lookup.FullName)
	require.Len(t, lookup.Enrollments, 2)
	assert.Equal(t, []int64{100, 101}, proj.lastRecords)

	hk1 := lookup.Enrollments[0]
	assert.Equal(t, 8.0, *hk1.SemesterAverage)
	require.Len(t, hk1.Subjects, 3)

	math := hk1.Subjects[0]
	assert.Equal(t, "Toán", math.SubjectName)
	assert.Equal(t, 2.0, math.Coefficient)
	assert.Equal(t, 7.5, *math.SubjectAverage)
	assert.Equal(t, 6.5, *math.Buckets.Oral)
	assert.Nil(t, math.Buckets.FifteenMinute)
	assert.Nil(t, math.Buckets.OnePeriod)
	assert.Equal(t, 8.0, *math.Buckets.Final)
	require.Len(t, math.Details, 5)
	assert.Equal(t, models.BucketFifteenMinute, math.Details[2].Bucket)
	assert.Empty(t, math.Details[4].Bucket)

	literature := hk1.Subjects[1]
	assert.Equal(t, 1.0, literature.Coefficient)
	assert.Equal(t, 9.0, *literature.Buckets.Midterm)

	english := hk1.Subjects[2]
	assert.Equal(t, "Anh", english.SubjectName)
	assert.Nil(t, english.SubjectAverage)
	assert.NotNil(t, english.Details)
	assert.Empty(t, english.Details)
	assert.Nil(t, english.Buckets.Oral)

	hk2 := lookup.Enrollments[1]
	assert.NotNil(t, hk2.Subjects)
	assert.Empty(t, hk2.Subjects)
}

func TestLookupScoresOfStudentPassesFilter(t *testing.T) {
	svc, proj := newLookupFixture(nil)

	lookup, err := svc.LookupScoresOfStudent(context.Background(), "S1", models.LookupFilter{SemesterID: 20, SubjectID: 2})
	require.NoError(t, err)
	assert.Equal(t, models.LookupFilter{SemesterID: 20, SubjectID: 2}, proj.lastFilter)
	require.Len(t, lookup.Enrollments, 1)
	require.Len(t, lookup.Enrollments[0].Subjects, 1)
	assert.Equal(t, int64(2), lookup.Enrollments[0].Subjects[0].SubjectID)
}

func TestLookupScoresOfStudentUnknownStudent(t *testing.T) {
	svc, _ := newLookupFixture(nil)

	_, err := svc.LookupScoresOfStudent(context.Background(), "NOPE", models.LookupFilter{})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.LookupScoresOfStudent(context.Background(), "", models.LookupFilter{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestLookupScoresAreCachedUntilInvalidated(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc, proj := newLookupFixture(cache)
	ctx := context.Background()

	first, err := svc.LookupScoresOfStudent(ctx, "S1", models.LookupFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, proj.calls)

	second, err := svc.LookupScoresOfStudent(ctx, "S1", models.LookupFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, proj.calls)
	assert.Equal(t, *first.Enrollments[0].Subjects[0].SubjectAverage, *second.Enrollments[0].Subjects[0].SubjectAverage)

	cache.Invalidate(ctx, lookupCachePattern("S1"))
	_, err = svc.LookupScoresOfStudent(ctx, "S1", models.LookupFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, proj.calls)
}

func TestMyClassesAndScores(t *testing.T) {
	svc, _ := newLookupFixture(nil)
	ctx := context.Background()

	classes, err := svc.MyClasses(ctx, "S1", 21)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "HK2", classes[0].SemesterName)

	_, err = svc.MyClasses(ctx, "", 0)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.MyScoresBySemester(ctx, "S1", 0)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	scores, err := svc.MyScoresBySemester(ctx, "S1", 20)
	require.NoError(t, err)
	require.Len(t, scores.Enrollments, 1)
	assert.Len(t, scores.Enrollments[0].Subjects, 3)
}

func TestLookupCacheKeysShareStudentPattern(t *testing.T) {
	assert.Equal(t, "lookup:student:S1:*", lookupCachePattern("S1"))
	assert.Equal(t, "lookup:student:S1:scores:20:0", lookupCacheKey("S1", models.LookupFilter{SemesterID: 20}))
	assert.Equal(t, "lookup:student:S1:classes:0", classesCacheKey("S1", 0))
}
