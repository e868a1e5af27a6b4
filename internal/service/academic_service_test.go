package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
)

func intPtr(v int) *int { return &v }

type academicYearRepoStub struct {
	years  map[int64]*models.AcademicYear
	nextID int64
}

func newAcademicYearRepoStub() *academicYearRepoStub {
	return &academicYearRepoStub{years: map[int64]*models.AcademicYear{}, nextID: 1}
}

func (r *academicYearRepoStub) FindOrCreate(ctx context.Context, exec sqlx.ExtContext, start, end int) (*models.AcademicYear, error) {
	if y, err := r.FindByYears(ctx, start, end); err == nil {
		return y, nil
	}
	y := &models.AcademicYear{ID: r.nextID, StartYear: start, EndYear: end}
	r.years[y.ID] = y
	r.nextID++
	return y, nil
}

func (r *academicYearRepoStub) FindByYears(ctx context.Context, start, end int) (*models.AcademicYear, error) {
	for _, y := range r.years {
		if y.StartYear == start && y.EndYear == end {
			return y, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *academicYearRepoStub) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.AcademicYear, error) {
	if y, ok := r.years[id]; ok {
		return y, nil
	}
	return nil, sql.ErrNoRows
}

type semesterRepoStub struct {
	semesters map[int64]*models.Semester
	usages    map[int64]int
	nextID    int64
}

func newSemesterRepoStub() *semesterRepoStub {
	return &semesterRepoStub{semesters: map[int64]*models.Semester{}, usages: map[int64]int{}, nextID: 1}
}

func (r *semesterRepoStub) List(ctx context.Context, yearID int64) ([]models.Semester, error) {
	var out []models.Semester
	for _, s := range r.semesters {
		if yearID == 0 || s.AcademicYearID == yearID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *semesterRepoStub) FindByID(ctx context.Context, id int64) (*models.Semester, error) {
	if s, ok := r.semesters[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (r *semesterRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, s *models.Semester) error {
	s.ID = r.nextID
	r.nextID++
	clone := *s
	r.semesters[s.ID] = &clone
	return nil
}

func (r *semesterRepoStub) Update(ctx context.Context, exec sqlx.ExtContext, s *models.Semester) error {
	clone := *s
	r.semesters[s.ID] = &clone
	return nil
}

func (r *semesterRepoStub) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := r.semesters[id]; !ok {
		return false, nil
	}
	delete(r.semesters, id)
	return true, nil
}

func (r *semesterRepoStub) CountUsages(ctx context.Context, id int64) (int, error) {
	return r.usages[id], nil
}

func TestParseYearLabel(t *testing.T) {
	start, end, err := ParseYearLabel("2024-2025")
	require.NoError(t, err)
	assert.Equal(t, 2024, start)
	assert.Equal(t, 2025, end)

	start, end, err = ParseYearLabel(" 2023 – 2024 ")
	require.NoError(t, err)
	assert.Equal(t, []int{2023, 2024}, []int{start, end})

	_, _, err = ParseYearLabel("2024/2025")
	assert.NoError(t, err)

	_, _, err = ParseYearLabel("2024-2026")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = ParseYearLabel("2024")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSemesterCreateFindsOrCreatesYearInTransaction(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	years := newAcademicYearRepoStub()
	semesters := newSemesterRepoStub()
	svc := NewSemesterService(provider, semesters, years, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()
	first, err := svc.Create(context.Background(), dto.CreateSemesterRequest{Name: "HK1", YearLabel: "2024-2025"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.AcademicYearID)
	assert.Equal(t, 2024, first.AcademicYear.StartYear)

	mock.ExpectBegin()
	mock.ExpectCommit()
	second, err := svc.Create(context.Background(), dto.CreateSemesterRequest{Name: "HK2", YearLabel: "2024 - 2025"})
	require.NoError(t, err)
	assert.Equal(t, first.AcademicYearID, second.AcademicYearID)
	assert.Len(t, years.years, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterCreateValidation(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	svc := NewSemesterService(provider, newSemesterRepoStub(), newAcademicYearRepoStub(), nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateSemesterRequest{Name: "HK1", YearLabel: "2024-2026"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	start := dto.Date{Time: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}
	end := dto.Date{Time: time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC)}
	_, err = svc.Create(context.Background(), dto.CreateSemesterRequest{Name: "HK1", YearLabel: "2024-2025", StartDate: &start, EndDate: &end})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), dto.CreateSemesterRequest{YearLabel: "2024-2025"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterUpdateRelabelsAndChecksDates(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	years := newAcademicYearRepoStub()
	semesters := newSemesterRepoStub()
	svc := NewSemesterService(provider, semesters, years, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()
	sem, err := svc.Create(context.Background(), dto.CreateSemesterRequest{Name: "HK1", YearLabel: "2024-2025"})
	require.NoError(t, err)

	label := "2025-2026"
	mock.ExpectBegin()
	mock.ExpectCommit()
	updated, err := svc.Update(context.Background(), sem.ID, dto.UpdateSemesterRequest{YearLabel: &label})
	require.NoError(t, err)
	assert.Equal(t, 2025, updated.AcademicYear.StartYear)
	assert.NotEqual(t, sem.AcademicYearID, updated.AcademicYearID)

	missing := int64(99)
	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Update(context.Background(), sem.ID, dto.UpdateSemesterRequest{AcademicYearID: &missing})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	start := dto.Date{Time: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)}
	end := dto.Date{Time: time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC)}
	_, err = svc.Update(context.Background(), sem.ID, dto.UpdateSemesterRequest{StartDate: &start, EndDate: &end})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Update(context.Background(), 404, dto.UpdateSemesterRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterListByUnknownLabelIsEmpty(t *testing.T) {
	svc := NewSemesterService(noopTxProvider{}, newSemesterRepoStub(), newAcademicYearRepoStub(), nil, nil)

	list, err := svc.List(context.Background(), models.SemesterFilter{YearLabel: "2030-2031"})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestSemesterDeleteGuards(t *testing.T) {
	semesters := newSemesterRepoStub()
	semesters.semesters[1] = &models.Semester{ID: 1}
	semesters.usages[1] = 3
	svc := NewSemesterService(noopTxProvider{}, semesters, newAcademicYearRepoStub(), nil, nil)

	assert.ErrorIs(t, svc.Delete(context.Background(), 1), appErrors.ErrValidation)
	assert.ErrorIs(t, svc.Delete(context.Background(), 2), appErrors.ErrNotFound)

	semesters.usages[1] = 0
	assert.NoError(t, svc.Delete(context.Background(), 1))
}

type gradeLevelRepoStub struct {
	levels  map[int64]*models.GradeLevel
	classes map[int64][]models.SchoolClass
}

func (r *gradeLevelRepoStub) List(ctx context.Context) ([]models.GradeLevel, error) {
	var out []models.GradeLevel
	for id := int64(1); id <= int64(len(r.levels)); id++ {
		if l, ok := r.levels[id]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *gradeLevelRepoStub) ListClassesByGradeLevels(ctx context.Context, ids []int64) (map[int64][]models.SchoolClass, error) {
	return r.classes, nil
}

func (r *gradeLevelRepoStub) FindByID(ctx context.Context, id int64) (*models.GradeLevel, error) {
	if l, ok := r.levels[id]; ok {
		clone := *l
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (r *gradeLevelRepoStub) Create(ctx context.Context, level *models.GradeLevel) error {
	level.ID = int64(len(r.levels) + 1)
	r.levels[level.ID] = level
	return nil
}

func (r *gradeLevelRepoStub) Update(ctx context.Context, level *models.GradeLevel) error {
	r.levels[level.ID] = level
	return nil
}

func (r *gradeLevelRepoStub) Delete(ctx context.Context, id int64) (bool, error) {
	_, ok := r.levels[id]
	delete(r.levels, id)
	return ok, nil
}

func (r *gradeLevelRepoStub) CountClasses(ctx context.Context, id int64) (int, error) {
	return len(r.classes[id]), nil
}

func TestGradeLevelDeleteRefusesReferencedLevel(t *testing.T) {
	repo := &gradeLevelRepoStub{
		levels:  map[int64]*models.GradeLevel{1: {ID: 1, Name: "Khối 10"}, 2: {ID: 2, Name: "Khối 11"}},
		classes: map[int64][]models.SchoolClass{1: {{ID: 7, Name: "10A1", GradeLevelID: 1}}},
	}
	svc := NewGradeLevelService(repo, nil, nil)

	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	require.NoError(t, svc.Delete(context.Background(), 2))
	assert.ErrorIs(t, svc.Delete(context.Background(), 2), appErrors.ErrNotFound)
}

func TestGradeLevelListIncludesClasses(t *testing.T) {
	repo := &gradeLevelRepoStub{
		levels:  map[int64]*models.GradeLevel{1: {ID: 1, Name: "Khối 10"}, 2: {ID: 2, Name: "Khối 11"}},
		classes: map[int64][]models.SchoolClass{1: {{ID: 7, Name: "10A1", GradeLevelID: 1}}},
	}
	svc := NewGradeLevelService(repo, nil, nil)

	levels, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Len(t, levels[0].Classes, 1)
	assert.NotNil(t, levels[1].Classes)
	assert.Empty(t, levels[1].Classes)
}

func TestGradeLevelCreateAndPartialUpdate(t *testing.T) {
	repo := &gradeLevelRepoStub{levels: map[int64]*models.GradeLevel{}}
	svc := NewGradeLevelService(repo, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateGradeLevelRequest{Name: "  "})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	level, err := svc.Create(context.Background(), dto.CreateGradeLevelRequest{Name: "Khối 10", ClassCount: intPtr(4)})
	require.NoError(t, err)

	name := "Khối 10 (mới)"
	updated, err := svc.Update(context.Background(), level.ID, dto.UpdateGradeLevelRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, 4, *updated.ClassCount)
}

type subjectRepoStub struct {
	subjects   map[int64]*models.Subject
	gradebooks map[int64]int
}

func (r *subjectRepoStub) List(ctx context.Context) ([]models.Subject, error) { return nil, nil }

func (r *subjectRepoStub) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	if s, ok := r.subjects[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (r *subjectRepoStub) Create(ctx context.Context, s *models.Subject) error {
	s.ID = int64(len(r.subjects) + 1)
	r.subjects[s.ID] = s
	return nil
}

func (r *subjectRepoStub) Update(ctx context.Context, s *models.Subject) error {
	r.subjects[s.ID] = s
	return nil
}

func (r *subjectRepoStub) Delete(ctx context.Context, id int64) (bool, error) {
	_, ok := r.subjects[id]
	delete(r.subjects, id)
	return ok, nil
}

func (r *subjectRepoStub) CountGradebooks(ctx context.Context, id int64) (int, error) {
	return r.gradebooks[id], nil
}

func TestSubjectCreateValidatesCoefficient(t *testing.T) {
	svc := NewSubjectService(&subjectRepoStub{subjects: map[int64]*models.Subject{}}, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateSubjectRequest{Name: "Toán", Coefficient: 0})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	code := " toan "
	subject, err := svc.Create(context.Background(), dto.CreateSubjectRequest{Name: "Toán", Code: &code, Coefficient: 2})
	require.NoError(t, err)
	assert.Equal(t, "TOAN", *subject.Code)
	assert.Equal(t, 2.0, subject.Coefficient)
}

func TestSubjectDeleteGuards(t *testing.T) {
	repo := &subjectRepoStub{
		subjects:   map[int64]*models.Subject{1: {ID: 1, Name: "Toán", Coefficient: 2}},
		gradebooks: map[int64]int{1: 1},
	}
	svc := NewSubjectService(repo, nil, nil)

	assert.ErrorIs(t, svc.Delete(context.Background(), 1), appErrors.ErrValidation)
	assert.ErrorIs(t, svc.Delete(context.Background(), 9), appErrors.ErrNotFound)
}

type yearParametersRepoStub struct {
	byYear map[int64]*models.YearParameters
	nextID int64
}

func newYearParametersRepoStub() *yearParametersRepoStub {
	return &yearParametersRepoStub{byYear: map[int64]*models.YearParameters{}, nextID: 1}
}

func (r *yearParametersRepoStub) List(ctx context.Context, yearID int64) ([]models.YearParameters, error) {
	return nil, nil
}

func (r *yearParametersRepoStub) FindByYear(ctx context.Context, exec sqlx.ExtContext, yearID int64) (*models.YearParameters, error) {
	if p, ok := r.byYear[yearID]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (r *yearParametersRepoStub) FindByID(ctx context.Context, id int64) (*models.YearParameters, error) {
	for _, p := range r.byYear {
		if p.ID == id {
			clone := *p
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *yearParametersRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, p *models.YearParameters) error {
	p.ID = r.nextID
	r.nextID++
	clone := *p
	r.byYear[p.AcademicYearID] = &clone
	return nil
}

func (r *yearParametersRepoStub) Update(ctx context.Context, exec sqlx.ExtContext, p *models.YearParameters) error {
	clone := *p
	r.byYear[p.AcademicYearID] = &clone
	return nil
}

func (r *yearParametersRepoStub) Delete(ctx context.Context, id int64) (bool, error) {
	for year, p := range r.byYear {
		if p.ID == id {
			delete(r.byYear, year)
			return true, nil
		}
	}
	return false, nil
}

func newYearParametersFixture(t *testing.T) (*YearParametersService, *yearParametersRepoStub, *txProviderMock) {
	provider, _ := newTxProviderMock(t)
	years := newAcademicYearRepoStub()
	years.years[1] = &models.AcademicYear{ID: 1, StartYear: 2024, EndYear: 2025}
	repo := newYearParametersRepoStub()
	return NewYearParametersService(provider, repo, years, nil), repo, provider
}

func TestYearParametersStrictCreateConflicts(t *testing.T) {
	svc, _, provider := newYearParametersFixture(t)
	input := models.YearParametersInput{MaxClassSize: models.OptionalInt{Set: true, Value: intPtr(40)}}

	provider.mock.ExpectBegin()
	provider.mock.ExpectCommit()
	_, err := svc.Create(context.Background(), 1, input)
	require.NoError(t, err)

	provider.mock.ExpectBegin()
	provider.mock.ExpectRollback()
	_, err = svc.Create(context.Background(), 1, input)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	require.NoError(t, provider.mock.ExpectationsWereMet())
}

func TestYearParametersUpsertTwiceLastWins(t *testing.T) {
	svc, repo, provider := newYearParametersFixture(t)

	provider.mock.ExpectBegin()
	provider.mock.ExpectCommit()
	first, created, err := svc.Upsert(context.Background(), 1, models.YearParametersInput{
		MinAge:       models.OptionalInt{Set: true, Value: intPtr(15)},
		MaxClassSize: models.OptionalInt{Set: true, Value: intPtr(40)},
	})
	require.NoError(t, err)
	assert.True(t, created)

	provider.mock.ExpectBegin()
	provider.mock.ExpectCommit()
	second, created, err := svc.Upsert(context.Background(), 1, models.YearParametersInput{
		MaxClassSize: models.OptionalInt{Set: true, Value: intPtr(35)},
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 35, *repo.byYear[1].MaxClassSize)
	assert.Nil(t, repo.byYear[1].MinAge)
	require.NoError(t, provider.mock.ExpectationsWereMet())
}

func TestYearParametersRangeValidation(t *testing.T) {
	svc, _, _ := newYearParametersFixture(t)

	_, _, err := svc.Upsert(context.Background(), 1, models.YearParametersInput{
		MinAge: models.OptionalInt{Set: true, Value: intPtr(20)},
		MaxAge: models.OptionalInt{Set: true, Value: intPtr(15)},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), 1, models.YearParametersInput{
		MinScore: models.OptionalInt{Set: true, Value: intPtr(10)},
		MaxScore: models.OptionalInt{Set: true, Value: intPtr(0)},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestYearParametersUnknownYear(t *testing.T) {
	svc, _, provider := newYearParametersFixture(t)

	provider.mock.ExpectBegin()
	provider.mock.ExpectRollback()
	_, _, err := svc.Upsert(context.Background(), 42, models.YearParametersInput{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestYearParametersPartialUpdateAndDelete(t *testing.T) {
	svc, repo, provider := newYearParametersFixture(t)
	repo.byYear[1] = &models.YearParameters{ID: 5, AcademicYearID: 1, MinAge: intPtr(15), MaxAge: intPtr(20)}

	provider.mock.ExpectBegin()
	provider.mock.ExpectCommit()
	updated, err := svc.UpdateByYear(context.Background(), 1, models.YearParametersInput{
		MaxAge: models.OptionalInt{Set: true, Value: intPtr(18)},
	})
	require.NoError(t, err)
	assert.Equal(t, 15, *updated.MinAge)
	assert.Equal(t, 18, *updated.MaxAge)

	provider.mock.ExpectBegin()
	provider.mock.ExpectRollback()
	_, err = svc.UpdateByID(context.Background(), 5, models.YearParametersInput{
		MinAge: models.OptionalInt{Set: true, Value: intPtr(30)},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	require.NoError(t, svc.DeleteByYear(context.Background(), 1))
	assert.ErrorIs(t, svc.DeleteByYear(context.Background(), 1), appErrors.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteByID(context.Background(), 5), appErrors.ErrNotFound)
	require.NoError(t, provider.mock.ExpectationsWereMet())
}
