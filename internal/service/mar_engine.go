package service

import (
	"github.com/noah-isme/ward-mar-api/internal/models"
)

// DateLayout is the ISO calendar date format used for window bounds and "today".
const DateLayout = "2006-01-02"

// DateWindow bounds a report by inclusive calendar dates. A nil bound leaves the window open.
type DateWindow struct {
	From *string
	To   *string
}

// Constrained reports whether both bounds were supplied.
func (w DateWindow) Constrained() bool {
	return w.From != nil && w.To != nil
}

// Includes decides whether the single day of MAR data (today) is inside the window.
// ISO dates compare correctly as strings. An inverted window never includes today.
func (w DateWindow) Includes(today string) bool {
	if !w.Constrained() {
		return true
	}
	return *w.From <= today && today <= *w.To
}

// VisitMarSummary pairs a visit with its computed summary.
type VisitMarSummary struct {
	Visit   models.Visit
	Summary models.MarSummary
}

// FilterVisitsByDept keeps visits whose department matches deptCode, preserving order.
// An empty deptCode returns the input unchanged.
func FilterVisitsByDept(visits []models.Visit, deptCode string) []models.Visit {
	if deptCode == "" {
		return visits
	}
	filtered := make([]models.Visit, 0, len(visits))
	for _, visit := range visits {
		if visit.DeptCode == deptCode {
			filtered = append(filtered, visit)
		}
	}
	return filtered
}

// SummariseItems reduces a visit's items into status bucket counts.
func SummariseItems(items []models.MedicationItem) models.MarSummary {
	summary := models.MarSummary{Total: len(items)}
	for _, item := range items {
		switch item.Status {
		case models.MedicationStatusScheduled:
			summary.Pending++
		case models.MedicationStatusMissed:
			summary.Missed++
		case models.MedicationStatusReturnPending:
			summary.ReturnPending++
		}
	}
	return summary
}

// AggregateMar computes one summary per visit against a single gate decision and item snapshot.
// A closed gate yields the zero summary for every visit: only today's schedule exists, so an
// out-of-window request reports no activity rather than leaking today's counts.
func AggregateMar(visits []models.Visit, items []models.MedicationItem, gateOpen bool) []VisitMarSummary {
	result := make([]VisitMarSummary, 0, len(visits))
	if !gateOpen {
		for _, visit := range visits {
			result = append(result, VisitMarSummary{Visit: visit})
		}
		return result
	}

	byVisit := make(map[string][]models.MedicationItem, len(visits))
	for _, item := range items {
		byVisit[item.VisitID] = append(byVisit[item.VisitID], item)
	}
	for _, visit := range visits {
		result = append(result, VisitMarSummary{
			Visit:   visit,
			Summary: SummariseItems(byVisit[visit.ID]),
		})
	}
	return result
}

// ItemsForVisit projects the items belonging to visitID in source order. It is never gated.
func ItemsForVisit(items []models.MedicationItem, visitID string) []models.MedicationItem {
	selected := make([]models.MedicationItem, 0)
	for _, item := range items {
		if item.VisitID == visitID {
			selected = append(selected, item)
		}
	}
	return selected
}
