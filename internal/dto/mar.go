package dto

import (
	"time"

	"github.com/noah-isme/ward-mar-api/internal/models"
)

// MarReportQuery captures GET /mar/patients query parameters.
type MarReportQuery struct {
	FromDate string `form:"fromDate" validate:"omitempty,datetime=2006-01-02"`
	ToDate   string `form:"toDate" validate:"omitempty,datetime=2006-01-02"`
	DeptCode string `form:"deptCode"`
}

// MarDetailQuery captures GET /mar/details query parameters.
type MarDetailQuery struct {
	VisitID string `form:"visitId" validate:"required"`
}

// MarExportQuery extends the report query with an output format.
type MarExportQuery struct {
	MarReportQuery
	Format string `form:"format" validate:"required,oneof=csv pdf xlsx"`
}

// VisitMarReport is a visit annotated with its MAR summary.
type VisitMarReport struct {
	models.Visit
	MarSummary models.MarSummary `json:"marSummary"`
}

// MarReport is the computed report together with the gate decision it was computed under.
type MarReport struct {
	Today    string           `json:"today"`
	GateOpen bool             `json:"gateOpen"`
	DeptCode string           `json:"deptCode,omitempty"`
	TakenAt  time.Time        `json:"takenAt"`
	Visits   []VisitMarReport `json:"visits"`
}
