package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ward-mar-api/internal/dto"
	"github.com/noah-isme/ward-mar-api/internal/middleware"
	"github.com/noah-isme/ward-mar-api/internal/models"
	"github.com/noah-isme/ward-mar-api/internal/service"
	appErrors "github.com/noah-isme/ward-mar-api/pkg/errors"
	"github.com/noah-isme/ward-mar-api/pkg/response"
)

type marService interface {
	Report(ctx context.Context, query dto.MarReportQuery) (*dto.MarReport, error)
	Detail(ctx context.Context, query dto.MarDetailQuery) ([]models.MedicationItem, error)
}

type marExporter interface {
	Export(ctx context.Context, query dto.MarExportQuery) (*service.ExportResult, error)
}

// MarHandler exposes MAR status reports over HTTP.
type MarHandler struct {
	service  marService
	exporter marExporter
}

// NewMarHandler constructs the handler. A nil exporter disables the export route.
func NewMarHandler(service marService, exporter marExporter) *MarHandler {
	return &MarHandler{service: service, exporter: exporter}
}

// Report godoc
// @Summary List visits with MAR status summaries
// @Description Summaries are populated only when the date window includes today; otherwise every count is zero.
// @Tags MAR
// @Produce json
// @Param fromDate query string false "Window start (YYYY-MM-DD)"
// @Param toDate query string false "Window end (YYYY-MM-DD)"
// @Param deptCode query string false "Department code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /mar/patients [get]
func (h *MarHandler) Report(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	report, err := h.service.Report(c.Request.Context(), reportQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "today", report.Today)
	middleware.SetMeta(c, "gateOpen", report.GateOpen)
	middleware.SetMeta(c, "visitCount", len(report.Visits))
	middleware.SetMeta(c, "processing_time_ms", time.Since(start).Milliseconds())
	response.JSON(c, http.StatusOK, report.Visits, middleware.ExtractMeta(c))
}

// Detail godoc
// @Summary List raw medication items for a visit
// @Description The date window never applies to detail lookups.
// @Tags MAR
// @Produce json
// @Param visitId query string true "Visit ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /mar/details [get]
func (h *MarHandler) Detail(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	visitID := strings.TrimSpace(c.Query("visitId"))
	if visitID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "visitId is required"))
		return
	}
	items, err := h.service.Detail(c.Request.Context(), dto.MarDetailQuery{VisitID: visitID})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "visitId", visitID)
	middleware.SetMeta(c, "itemCount", len(items))
	response.JSON(c, http.StatusOK, items, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Download the MAR status report
// @Tags MAR
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string true "csv, pdf or xlsx"
// @Param fromDate query string false "Window start (YYYY-MM-DD)"
// @Param toDate query string false "Window end (YYYY-MM-DD)"
// @Param deptCode query string false "Department code"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /mar/patients/export [get]
func (h *MarHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "mar export is disabled"))
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if format == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format is required"))
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), dto.MarExportQuery{MarReportQuery: reportQuery(c), Format: format})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Payload)
}

func reportQuery(c *gin.Context) dto.MarReportQuery {
	return dto.MarReportQuery{
		FromDate: strings.TrimSpace(c.Query("fromDate")),
		ToDate:   strings.TrimSpace(c.Query("toDate")),
		DeptCode: strings.TrimSpace(c.Query("deptCode")),
	}
}
