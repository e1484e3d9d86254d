package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MedicationStatus is the closed set of dose states a MAR entry can carry.
type MedicationStatus string

const (
	MedicationStatusScheduled     MedicationStatus = "SCHEDULED"
	MedicationStatusMissed        MedicationStatus = "MISSED"
	MedicationStatusReturnPending MedicationStatus = "RETURN_PENDING"
	MedicationStatusAdministered  MedicationStatus = "ADMINISTERED"
	MedicationStatusHeld          MedicationStatus = "HELD"
	MedicationStatusDiscontinued  MedicationStatus = "DISCONTINUED"
)

// Valid returns true when the status is a supported value.
func (s MedicationStatus) Valid() bool {
	switch s {
	case MedicationStatusScheduled,
		MedicationStatusMissed,
		MedicationStatusReturnPending,
		MedicationStatusAdministered,
		MedicationStatusHeld,
		MedicationStatusDiscontinued:
		return true
	default:
		return false
	}
}

// ParseMedicationStatus normalises raw source values into the enumeration.
func ParseMedicationStatus(raw string) (MedicationStatus, error) {
	status := MedicationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown medication status %q", raw)
	}
	return status, nil
}

// UnmarshalJSON rejects statuses outside the enumeration.
func (s *MedicationStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("medication status must be a string: %w", err)
	}
	parsed, err := ParseMedicationStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Visit is an encounter that owns a MAR. Fields other than ID and DeptCode are passed through untouched.
type Visit struct {
	ID                 string     `db:"id" json:"id"`
	DeptCode           string     `db:"dept_code" json:"deptCode"`
	PatientID          string     `db:"patient_id" json:"patientId,omitempty"`
	PatientName        string     `db:"patient_name" json:"patientName,omitempty"`
	RoomNo             *string    `db:"room_no" json:"roomNo,omitempty"`
	BedNo              *string    `db:"bed_no" json:"bedNo,omitempty"`
	AttendingPhysician *string    `db:"attending_physician" json:"attendingPhysician,omitempty"`
	AdmittedAt         *time.Time `db:"admitted_at" json:"admittedAt,omitempty"`
}

// MedicationItem is one scheduled dose on a visit's MAR.
type MedicationItem struct {
	ID          string           `db:"id" json:"id"`
	VisitID     string           `db:"visit_id" json:"visitId"`
	Status      MedicationStatus `db:"status" json:"status"`
	DrugName    string           `db:"drug_name" json:"drugName,omitempty"`
	Dose        *string          `db:"dose" json:"dose,omitempty"`
	Route       *string          `db:"route" json:"route,omitempty"`
	ScheduledAt *time.Time       `db:"scheduled_at" json:"scheduledAt,omitempty"`
}

// MarSummary counts a visit's doses by status bucket. It is derived per request and never stored.
type MarSummary struct {
	Total         int `json:"total"`
	Pending       int `json:"pending"`
	Missed        int `json:"missed"`
	ReturnPending int `json:"returnPending"`
}

// MarSnapshot is one coherent read of both collections.
type MarSnapshot struct {
	Visits  []Visit          `json:"visits"`
	Items   []MedicationItem `json:"items"`
	TakenAt time.Time        `json:"takenAt"`
}
