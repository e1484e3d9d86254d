package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ward-mar-api/internal/dto"
	"github.com/noah-isme/ward-mar-api/internal/models"
	"github.com/noah-isme/ward-mar-api/pkg/clock"
	appErrors "github.com/noah-isme/ward-mar-api/pkg/errors"
)

// MarSource hands over the ward's visit and medication item collections.
type MarSource interface {
	Snapshot(ctx context.Context) (*models.MarSnapshot, error)
	MedicationItems(ctx context.Context) ([]models.MedicationItem, error)
}

// MarServiceParams groups constructor dependencies.
type MarServiceParams struct {
	Source     MarSource
	SourceName string
	Location   *time.Location
	Clock      clock.Clock
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
}

// MarService computes MAR status reports over one snapshot per request. It keeps no state between requests.
type MarService struct {
	source     MarSource
	sourceName string
	loc        *time.Location
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewMarService constructs a MarService with sane defaults.
func NewMarService(params MarServiceParams) *MarService {
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	clk := params.Clock
	if clk == nil {
		clk = clock.System()
	}
	validate := params.Validator
	if validate == nil {
		validate = NewQueryValidator()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sourceName := params.SourceName
	if sourceName == "" {
		sourceName = "unknown"
	}
	return &MarService{
		source:     params.Source,
		sourceName: sourceName,
		loc:        loc,
		metrics:    params.Metrics,
		validator:  validate,
		logger:     logger,
		now:        clk.Now,
	}
}

// NewQueryValidator returns a validator that reports fields by their query parameter names.
func NewQueryValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return validate
}

// Today returns the calendar date the engine currently treats as its single day of data.
func (s *MarService) Today() string {
	return clock.Today(clock.Func(s.now), s.loc)
}

// Report filters visits by department and summarises each against a single gate decision.
func (s *MarService) Report(ctx context.Context, query dto.MarReportQuery) (*dto.MarReport, error) {
	if err := s.validate(query); err != nil {
		return nil, err
	}
	today := s.Today()
	gateOpen := reportWindow(query).Includes(today)

	snapshot, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	visits := FilterVisitsByDept(snapshot.Visits, query.DeptCode)
	summaries := AggregateMar(visits, snapshot.Items, gateOpen)

	report := &dto.MarReport{
		Today:    today,
		GateOpen: gateOpen,
		DeptCode: query.DeptCode,
		TakenAt:  snapshot.TakenAt,
		Visits:   make([]dto.VisitMarReport, 0, len(summaries)),
	}
	for _, entry := range summaries {
		report.Visits = append(report.Visits, dto.VisitMarReport{Visit: entry.Visit, MarSummary: entry.Summary})
	}

	s.metrics.RecordMarReport(gateOpen, len(report.Visits))
	s.logger.Debug("mar report computed",
		zap.String("today", today),
		zap.Bool("gate_open", gateOpen),
		zap.String("dept_code", query.DeptCode),
		zap.Int("visits", len(report.Visits)),
		zap.Int("items", len(snapshot.Items)),
	)
	return report, nil
}

// Detail returns the raw medication items of one visit. The date window never applies here.
func (s *MarService) Detail(ctx context.Context, query dto.MarDetailQuery) ([]models.MedicationItem, error) {
	if err := s.validate(query); err != nil {
		return nil, err
	}
	if s.source == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "mar source unavailable")
	}
	start := time.Now()
	items, err := s.source.MedicationItems(ctx)
	s.metrics.ObserveSnapshotLoad(s.sourceName, err, time.Since(start))
	if err != nil {
		return nil, s.sourceError(err)
	}
	return ItemsForVisit(items, query.VisitID), nil
}

func (s *MarService) loadSnapshot(ctx context.Context) (*models.MarSnapshot, error) {
	if s.source == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "mar source unavailable")
	}
	start := time.Now()
	snapshot, err := s.source.Snapshot(ctx)
	s.metrics.ObserveSnapshotLoad(s.sourceName, err, time.Since(start))
	if err != nil {
		return nil, s.sourceError(err)
	}
	if snapshot == nil {
		return &models.MarSnapshot{TakenAt: s.now().UTC()}, nil
	}
	return snapshot, nil
}

func (s *MarService) sourceError(err error) error {
	s.logger.Error("mar source read failed", zap.String("source", s.sourceName), zap.Error(err))
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load MAR data")
}

func (s *MarService) validate(payload interface{}) error {
	err := s.validator.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters")
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeFieldError(fe))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must be a calendar date formatted YYYY-MM-DD", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// reportWindow maps query parameters onto a DateWindow; an empty parameter is an absent bound.
func reportWindow(query dto.MarReportQuery) DateWindow {
	var window DateWindow
	if from := strings.TrimSpace(query.FromDate); from != "" {
		window.From = &from
	}
	if to := strings.TrimSpace(query.ToDate); to != "" {
		window.To = &to
	}
	return window
}
