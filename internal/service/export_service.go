package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ward-mar-api/internal/dto"
	"github.com/noah-isme/ward-mar-api/pkg/export"
	appErrors "github.com/noah-isme/ward-mar-api/pkg/errors"
)

// Supported export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
	ExportFormatXLSX = "xlsx"
)

var exportContentTypes = map[string]string{
	ExportFormatCSV:  "text/csv; charset=utf-8",
	ExportFormatPDF:  "application/pdf",
	ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

var marExportHeaders = []string{
	"Visit ID", "Department", "Patient", "Room", "Bed", "Attending",
	"Total", "Pending", "Missed", "Return Pending",
}

type marReporter interface {
	Report(ctx context.Context, query dto.MarReportQuery) (*dto.MarReport, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered report ready to stream to the caller.
type ExportResult struct {
	Filename    string
	ContentType string
	Format      string
	Payload     []byte
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Reports   marReporter
	Renderers map[string]datasetRenderer
	Metrics   *MetricsService
	Logger    *zap.Logger
}

// ExportService renders MAR reports as downloadable documents.
type ExportService struct {
	reports   marReporter
	renderers map[string]datasetRenderer
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. Renderers default to the CSV, PDF and XLSX exporters.
func NewExportService(params ExportServiceParams) *ExportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderers := params.Renderers
	if renderers == nil {
		renderers = map[string]datasetRenderer{
			ExportFormatCSV:  export.NewCSVExporter(),
			ExportFormatPDF:  export.NewPDFExporter(),
			ExportFormatXLSX: export.NewXLSXExporter("MAR"),
		}
	}
	return &ExportService{
		reports:   params.Reports,
		renderers: renderers,
		metrics:   params.Metrics,
		logger:    logger,
	}
}

// Export computes a report for the query and renders it in the requested format.
func (s *ExportService) Export(ctx context.Context, query dto.MarExportQuery) (*ExportResult, error) {
	format := strings.ToLower(strings.TrimSpace(query.Format))
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("format must be one of: %s %s %s", ExportFormatCSV, ExportFormatPDF, ExportFormatXLSX))
	}

	report, err := s.reports.Report(ctx, query.MarReportQuery)
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(BuildMarDataset(report))
	if err != nil {
		s.logger.Error("render mar export", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.metrics.RecordExport(format)

	return &ExportResult{
		Filename:    exportFilename(report, format),
		ContentType: exportContentTypes[format],
		Format:      format,
		Payload:     payload,
	}, nil
}

// BuildMarDataset flattens a report into export rows.
func BuildMarDataset(report *dto.MarReport) export.Dataset {
	dataset := export.Dataset{
		Title:   "MAR Status Report",
		Headers: marExportHeaders,
	}
	if report == nil {
		return dataset
	}
	dept := report.DeptCode
	if dept == "" {
		dept = "all departments"
	}
	dataset.Subtitle = fmt.Sprintf("%s | %s | window includes today: %s", dept, report.Today, yesNo(report.GateOpen))
	dataset.Rows = make([]map[string]string, 0, len(report.Visits))
	for _, visit := range report.Visits {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Visit ID":       visit.ID,
			"Department":     visit.DeptCode,
			"Patient":        visit.PatientName,
			"Room":           deref(visit.RoomNo),
			"Bed":            deref(visit.BedNo),
			"Attending":      deref(visit.AttendingPhysician),
			"Total":          strconv.Itoa(visit.MarSummary.Total),
			"Pending":        strconv.Itoa(visit.MarSummary.Pending),
			"Missed":         strconv.Itoa(visit.MarSummary.Missed),
			"Return Pending": strconv.Itoa(visit.MarSummary.ReturnPending),
		})
	}
	return dataset
}

func exportFilename(report *dto.MarReport, format string) string {
	dept := "all"
	day := time.Now().UTC().Format(DateLayout)
	if report != nil {
		if report.DeptCode != "" {
			dept = sanitizeFilename(report.DeptCode)
		}
		day = report.Today
	}
	return fmt.Sprintf("mar_%s_%s.%s", strings.ToLower(dept), day, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 64 {
		return result[:64]
	}
	return result
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
