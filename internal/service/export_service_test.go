package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ward-mar-api/internal/dto"
	"github.com/noah-isme/ward-mar-api/internal/models"
	appErrors "github.com/noah-isme/ward-mar-api/pkg/errors"
)

type stubReporter struct {
	report *dto.MarReport
	err    error
	query  dto.MarReportQuery
}

func (s *stubReporter) Report(_ context.Context, query dto.MarReportQuery) (*dto.MarReport, error) {
	s.query = query
	return s.report, s.err
}

func sampleReport() *dto.MarReport {
	return &dto.MarReport{
		Today:    "2024-03-10",
		GateOpen: true,
		DeptCode: "ICU",
		Visits: []dto.VisitMarReport{
			{
				Visit:      models.Visit{ID: "V1", DeptCode: "ICU", PatientName: "Siti", RoomNo: strPtr("12")},
				MarSummary: models.MarSummary{Total: 3, Pending: 1, Missed: 1, ReturnPending: 1},
			},
		},
	}
}

func TestExportServiceCSV(t *testing.T) {
	metrics := NewMetricsService()
	reporter := &stubReporter{report: sampleReport()}
	svc := NewExportService(ExportServiceParams{Reports: reporter, Metrics: metrics, Logger: zap.NewNop()})

	query := dto.MarExportQuery{MarReportQuery: dto.MarReportQuery{DeptCode: "ICU"}, Format: "CSV"}
	result, err := svc.Export(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, "mar_icu_2024-03-10.csv", result.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)
	assert.Equal(t, "ICU", reporter.query.DeptCode)

	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Visit ID,Department,Patient,Room,Bed,Attending,Total,Pending,Missed,Return Pending", lines[0])
	assert.Equal(t, "V1,ICU,Siti,12,,,3,1,1,1", lines[1])
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.exports.WithLabelValues("csv")))
}

func TestExportServicePDFAndXLSX(t *testing.T) {
	svc := NewExportService(ExportServiceParams{Reports: &stubReporter{report: sampleReport()}})

	pdf, err := svc.Export(context.Background(), dto.MarExportQuery{Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.NotEmpty(t, pdf.Payload)

	xlsx, err := svc.Export(context.Background(), dto.MarExportQuery{Format: "xlsx"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(xlsx.Filename, ".xlsx"))
	assert.NotEmpty(t, xlsx.Payload)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	reporter := &stubReporter{report: sampleReport()}
	svc := NewExportService(ExportServiceParams{Reports: reporter})

	_, err := svc.Export(context.Background(), dto.MarExportQuery{Format: "docx"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, reporter.query.DeptCode)
}

func TestExportServicePropagatesReportErrors(t *testing.T) {
	svc := NewExportService(ExportServiceParams{Reports: &stubReporter{err: appErrors.ErrUpstreamUnavailable}})

	_, err := svc.Export(context.Background(), dto.MarExportQuery{Format: "csv"})
	assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))
}

func TestBuildMarDatasetGateClosedSubtitle(t *testing.T) {
	report := sampleReport()
	report.GateOpen = false
	report.DeptCode = ""
	dataset := BuildMarDataset(report)
	assert.Equal(t, "all departments | 2024-03-10 | window includes today: no", dataset.Subtitle)
	require.Len(t, dataset.Rows, 1)
}
