package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
	"github.com/noah-isme/sma-gradebook-api/pkg/storage"
)

type reportRowsStub struct {
	rows []models.GradebookReportRow
	err  error
}

func (r reportRowsStub) ListReportRows(ctx context.Context, classID, semesterID int64) ([]models.GradebookReportRow, error) {
	return r.rows, r.err
}

type subjectCatalogStub []models.Subject

func (s subjectCatalogStub) List(ctx context.Context) ([]models.Subject, error) {
	return s, nil
}

func int64Ptr(v int64) *int64 { return &v }

func newReportFixture(t *testing.T, rows []models.GradebookReportRow) (*ReportService, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	semesters := newSemesterRepoStub()
	semesters.semesters[20] = &models.Semester{ID: 20, Name: "HK1"}

	svc := NewReportService(ReportServiceParams{
		Rows:      reportRowsStub{rows: rows},
		Subjects:  subjectCatalogStub{{ID: 1, Name: "Toán"}, {ID: 2, Name: "Văn"}},
		Classes:   classFinderStub{ids: map[int64]bool{10: true}},
		Semesters: semesters,
		Storage:   store,
		Signer:    storage.NewSignedURLSigner("report-secret", time.Hour),
		Config:    ReportServiceConfig{APIPrefix: "/api/v1/", Retention: time.Hour},
	})
	return svc, dir
}

func sampleReportRows() []models.GradebookReportRow {
	return []models.GradebookReportRow{
		{StudentID: "S1", FullName: "An", SubjectID: int64Ptr(1), SubjectAverage: ptrFloat(7.5), SemesterAverage: ptrFloat(8)},
		{StudentID: "S1", FullName: "An", SubjectID: int64Ptr(2), SubjectAverage: ptrFloat(9), SemesterAverage: ptrFloat(8)},
		{StudentID: "S2", FullName: "Bình", SubjectID: int64Ptr(1), SubjectAverage: nil, SemesterAverage: nil},
		{StudentID: "S3", FullName: "Chi", SubjectID: nil},
	}
}

func TestReportBuildDatasetPivotsSubjects(t *testing.T) {
	svc, _ := newReportFixture(t, sampleReportRows())

	dataset, err := svc.buildDataset(context.Background(), &models.SchoolClass{ID: 10, Name: "10A1"}, &models.Semester{ID: 20, Name: "HK1"})
	require.NoError(t, err)

	assert.Equal(t, "Gradebook 10A1 - HK1", dataset.Title)
	assert.Equal(t, []string{"Student ID", "Full name", "Toán", "Văn", "Semester average"}, dataset.Headers)
	require.Len(t, dataset.Rows, 3)
	assert.Equal(t, "7.50", dataset.Rows[0]["Toán"])
	assert.Equal(t, "9.00", dataset.Rows[0]["Văn"])
	assert.Equal(t, "8.00", dataset.Rows[0]["Semester average"])
	assert.Equal(t, "", dataset.Rows[1]["Toán"])
	assert.Equal(t, "Chi", dataset.Rows[2]["Full name"])
}

func TestReportGenerateAndDownloadCSV(t *testing.T) {
	svc, dir := newReportFixture(t, sampleReportRows())
	ctx := context.Background()

	link, err := svc.GenerateGradebookReport(ctx, dto.GradebookReportRequest{ClassID: 10, SemesterID: 20, Format: " CSV "})
	require.NoError(t, err)
	assert.Equal(t, "csv", link.Format)
	assert.True(t, strings.HasPrefix(link.URL, "/api/v1/reports/download/"))
	assert.True(t, link.ExpiresAt.After(time.Now()))

	matches, err := filepath.Glob(filepath.Join(dir, "gradebook", "*", link.FileID+".csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	download, err := svc.Download(ctx, link.Token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	assert.Equal(t, "gradebook-"+link.FileID+".csv", download.Filename)

	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Student ID,Full name,Toán,Văn,Semester average")
	assert.Contains(t, string(body), "S1,An,7.50,9.00,8.00")
}

func TestReportGenerateValidation(t *testing.T) {
	svc, _ := newReportFixture(t, nil)
	ctx := context.Background()

	_, err := svc.GenerateGradebookReport(ctx, dto.GradebookReportRequest{ClassID: 10, SemesterID: 20, Format: "docx"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.GenerateGradebookReport(ctx, dto.GradebookReportRequest{ClassID: 11, SemesterID: 20, Format: "pdf"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.GenerateGradebookReport(ctx, dto.GradebookReportRequest{ClassID: 10, SemesterID: 99, Format: "pdf"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestReportDownloadRejectsBadTokens(t *testing.T) {
	svc, _ := newReportFixture(t, nil)

	_, err := svc.Download(context.Background(), "garbage")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	foreign := storage.NewSignedURLSigner("other-secret", time.Hour)
	token, _, err := foreign.Generate("file", "gradebook/x.csv")
	require.NoError(t, err)
	_, err = svc.Download(context.Background(), token)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	own := storage.NewSignedURLSigner("report-secret", time.Hour)
	token, _, err = own.Generate("file", "gradebook/missing.csv")
	require.NoError(t, err)
	_, err = svc.Download(context.Background(), token)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestReportCleanupExpired(t *testing.T) {
	svc, dir := newReportFixture(t, sampleReportRows())
	ctx := context.Background()

	_, err := svc.GenerateGradebookReport(ctx, dto.GradebookReportRequest{ClassID: 10, SemesterID: 20, Format: "xlsx"})
	require.NoError(t, err)

	removed, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		return os.Chtimes(path, old, old)
	}))

	removed, err = svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestStartReportCleanupRejectsBadSchedule(t *testing.T) {
	svc, _ := newReportFixture(t, nil)

	_, err := StartReportCleanup("not a schedule", svc, nil)
	assert.Error(t, err)

	c, err := StartReportCleanup("@every 1h", svc, nil)
	require.NoError(t, err)
	c.Stop()
}
