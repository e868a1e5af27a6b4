package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
	"github.com/noah-isme/sma-gradebook-api/pkg/export"
	"github.com/noah-isme/sma-gradebook-api/pkg/storage"
)

const (
	reportHeaderStudentID = "Student ID"
	reportHeaderFullName  = "Full name"
	reportHeaderSemester  = "Semester average"
)

type reportRowReader interface {
	ListReportRows(ctx context.Context, classID, semesterID int64) ([]models.GradebookReportRow, error)
}

type subjectCatalog interface {
	List(ctx context.Context) ([]models.Subject, error)
}

type reportStorage interface {
	Save(relPath string, data []byte) error
	Open(relPath string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type reportSigner interface {
	Generate(fileID, relPath string) (string, time.Time, error)
	Parse(token string) (string, string, error)
}

// ReportServiceConfig governs download links and retention.
type ReportServiceConfig struct {
	APIPrefix string
	Retention time.Duration
}

// ReportDownload is an opened report file ready to stream.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
}

// ReportService renders class gradebooks to files and serves them through signed links.
type ReportService struct {
	rows      reportRowReader
	subjects  subjectCatalog
	classes   classLookup
	semesters semesterLookup
	storage   reportStorage
	signer    reportSigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// ReportServiceParams groups the collaborators of ReportService.
type ReportServiceParams struct {
	Rows      reportRowReader
	Subjects  subjectCatalog
	Classes   classLookup
	Semesters semesterLookup
	Storage   reportStorage
	Signer    reportSigner
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(p ReportServiceParams) *ReportService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Config.Retention <= 0 {
		p.Config.Retention = 72 * time.Hour
	}
	return &ReportService{
		rows:      p.Rows,
		subjects:  p.Subjects,
		classes:   p.Classes,
		semesters: p.Semesters,
		storage:   p.Storage,
		signer:    p.Signer,
		metrics:   p.Metrics,
		validator: p.Validator,
		logger:    p.Logger,
		cfg:       p.Config,
		now:       time.Now,
	}
}

// GenerateGradebookReport renders the gradebook of (class, semester) and returns a signed download link.
func (s *ReportService) GenerateGradebookReport(ctx context.Context, req dto.GradebookReportRequest) (*models.ReportLink, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}
	class, err := s.classes.FindByID(ctx, nil, req.ClassID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	semester, err := s.semesters.FindByID(ctx, req.SemesterID)
	if err != nil {
		return nil, notFoundOr(err, "semester not found", "failed to load semester")
	}

	dataset, err := s.buildDataset(ctx, class, semester)
	if err != nil {
		return nil, err
	}

	format := export.Format(req.Format)
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Validation(err.Error())
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render report")
	}

	fileID := uuid.NewString()
	relPath := path.Join("gradebook", s.now().UTC().Format("20060102"), fileID+format.Extension())
	if err := s.storage.Save(relPath, payload); err != nil {
		return nil, appErrors.Internal(err, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(fileID, relPath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign report link")
	}

	s.metrics.RecordReport(string(format))
	s.logger.Info("gradebook report generated",
		zap.Int64("class_id", class.ID),
		zap.Int64("semester_id", semester.ID),
		zap.String("format", string(format)),
		zap.String("file_id", fileID),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &models.ReportLink{
		FileID:    fileID,
		Format:    string(format),
		Token:     token,
		URL:       fmt.Sprintf("%s/reports/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

// Download verifies a signed token and opens the report file it points at.
func (s *ReportService) Download(ctx context.Context, token string) (*ReportDownload, error) {
	fileID, relPath, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link has expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report file not found")
		}
		return nil, appErrors.Internal(err, "failed to open report")
	}
	ext := path.Ext(relPath)
	return &ReportDownload{
		File:        file,
		Filename:    "gradebook-" + fileID + ext,
		ContentType: export.Format(strings.TrimPrefix(ext, ".")).ContentType(),
	}, nil
}

// CleanupExpired removes report files older than the configured retention.
func (s *ReportService) CleanupExpired(ctx context.Context) (int, error) {
	removed, err := s.storage.CleanupOlderThan(s.cfg.Retention)
	if err != nil {
		return 0, err
	}
	if len(removed) > 0 {
		s.logger.Info("expired reports removed", zap.Int("files", len(removed)))
	}
	return len(removed), nil
}

// buildDataset pivots report rows into one line per student with a column per subject.
func (s *ReportService) buildDataset(ctx context.Context, class *models.SchoolClass, semester *models.Semester) (export.Dataset, error) {
	rows, err := s.rows.ListReportRows(ctx, class.ID, semester.ID)
	if err != nil {
		return export.Dataset{}, appErrors.Internal(err, "failed to load gradebook rows")
	}
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return export.Dataset{}, appErrors.Internal(err, "failed to load subjects")
	}
	names := make(map[int64]string, len(subjects))
	for _, subj := range subjects {
		names[subj.ID] = subj.Name
	}

	var subjectOrder []int64
	columns := map[int64]string{}
	used := map[string]bool{reportHeaderStudentID: true, reportHeaderFullName: true, reportHeaderSemester: true}
	for _, row := range rows {
		if row.SubjectID == nil {
			continue
		}
		id := *row.SubjectID
		if _, ok := columns[id]; ok {
			continue
		}
		header := names[id]
		if header == "" {
			header = "Subject"
		}
		if used[header] {
			header = fmt.Sprintf("%s #%d", header, id)
		}
		used[header] = true
		columns[id] = header
		subjectOrder = append(subjectOrder, id)
	}
	sort.Slice(subjectOrder, func(i, j int) bool { return subjectOrder[i] < subjectOrder[j] })

	headers := []string{reportHeaderStudentID, reportHeaderFullName}
	for _, id := range subjectOrder {
		headers = append(headers, columns[id])
	}
	headers = append(headers, reportHeaderSemester)

	dataset := export.Dataset{
		Title:   fmt.Sprintf("Gradebook %s - %s", class.Name, semester.Name),
		Headers: headers,
	}
	index := map[string]int{}
	for _, row := range rows {
		i, ok := index[row.StudentID]
		if !ok {
			i = len(dataset.Rows)
			index[row.StudentID] = i
			dataset.Rows = append(dataset.Rows, map[string]string{
				reportHeaderStudentID: row.StudentID,
				reportHeaderFullName:  row.FullName,
				reportHeaderSemester:  formatScore(row.SemesterAverage),
			})
		}
		if row.SubjectID != nil {
			dataset.Rows[i][columns[*row.SubjectID]] = formatScore(row.SubjectAverage)
		}
	}
	return dataset, nil
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
