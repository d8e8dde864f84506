package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
	"github.com/axis-edu/axis-api/pkg/export"
)

// ReportFormat selects the rendered output type.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

type gradeViewCompiler interface {
	Compile(ctx context.Context, sectionID, studentID int64) (*models.GradeView, error)
}

type rosterReader interface {
	Roster(ctx context.Context, sectionID int64) (*SectionRoster, error)
}

type sectionPreviewReader interface {
	SectionPreview(ctx context.Context, sectionID int64) (*models.SectionPreview, error)
}

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(table export.Table, title string) ([]byte, error)
}

// ExportResult carries a rendered report ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders section mastery reports from compiled grade views.
type ExportService struct {
	compiler gradeViewCompiler
	roster   rosterReader
	previews sectionPreviewReader
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(compiler gradeViewCompiler, roster rosterReader, previews sectionPreviewReader, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		compiler: compiler,
		roster:   roster,
		previews: previews,
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
	}
}

// SectionMasteryReport renders one row per (student, point) across the
// whole section. Each student's grade view is compiled through the same
// path the live screens use, so exported statuses always match what the
// screens show, synthesized Not Attempted rows included.
func (s *ExportService) SectionMasteryReport(ctx context.Context, sectionID int64, format ReportFormat) (*ExportResult, error) {
	preview, err := s.previews.SectionPreview(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	roster, err := s.roster.Roster(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(roster.Students)*8)
	for _, student := range roster.Students {
		view, err := s.compiler.Compile(ctx, sectionID, student.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("failed to compile view for student %d", student.ID))
		}
		records = append(records, flattenView(student, view)...)
	}

	table := export.Table{
		Headers: masteryHeaders,
		Records: records,
	}
	title := fmt.Sprintf("Mastery Report %s (%s %d)", preview.CourseName, preview.Season, preview.Year)

	payload, contentType, err := s.render(table, title, format)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Filename:    buildFilename(preview, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

var masteryHeaders = []string{"Student", "Topic", "Concept", "Point Type", "Status", "Last Updated"}

func flattenView(student models.User, view *models.GradeView) [][]string {
	records := make([][]string, 0, 16)
	for _, topic := range view.Topics {
		for _, concept := range topic.Concepts {
			for _, point := range concept.Points {
				pointType := "Check"
				if point.IsTestPoint {
					pointType = "Test"
				}
				records = append(records, []string{
					student.FullName(),
					topic.Topic.Name,
					concept.Concept.Name,
					pointType,
					point.StatusLabel,
					formatReportTime(point.LastUpdated),
				})
			}
		}
	}
	return records
}

func (s *ExportService) render(table export.Table, title string, format ReportFormat) ([]byte, string, error) {
	switch format {
	case ReportFormatCSV:
		payload, err := s.csv.Render(table)
		return payload, "text/csv", err
	case ReportFormatPDF:
		payload, err := s.pdf.Render(table, title)
		return payload, "application/pdf", err
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
}

func buildFilename(preview *models.SectionPreview, format ReportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	course := sanitizeFilename(preview.Identifier)
	return fmt.Sprintf("mastery_%s_%s_%d_%s.%s",
		course, strings.ToLower(preview.Season), preview.Year, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func formatReportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
