package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ward-mar-api/internal/models"
	"github.com/noah-isme/ward-mar-api/pkg/database"
	appErrors "github.com/noah-isme/ward-mar-api/pkg/errors"
)

const (
	listVisitsQuery = `SELECT id, dept_code, patient_id, patient_name, room_no, bed_no, attending_physician, admitted_at
FROM visits
ORDER BY room_no NULLS LAST, bed_no NULLS LAST, id`

	listMedicationItemsQuery = `SELECT id, visit_id, status, drug_name, dose, route, scheduled_at
FROM medication_items
ORDER BY scheduled_at NULLS LAST, id`
)

type queryer interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// medicationItemRow keeps the raw status so unknown values surface as data errors, not scan errors.
type medicationItemRow struct {
	ID          string     `db:"id"`
	VisitID     string     `db:"visit_id"`
	Status      string     `db:"status"`
	DrugName    string     `db:"drug_name"`
	Dose        *string    `db:"dose"`
	Route       *string    `db:"route"`
	ScheduledAt *time.Time `db:"scheduled_at"`
}

// MarRepository reads the ward's visits and today's medication schedule from PostgreSQL.
type MarRepository struct {
	db *sqlx.DB
}

// NewMarRepository constructs the repository.
func NewMarRepository(db *sqlx.DB) *MarRepository {
	return &MarRepository{db: db}
}

// Snapshot loads visits and medication items inside one read-only REPEATABLE READ transaction.
func (r *MarRepository) Snapshot(ctx context.Context) (*models.MarSnapshot, error) {
	snapshot := &models.MarSnapshot{}
	err := database.WithSnapshot(ctx, r.db, func(tx *sqlx.Tx) error {
		visits, err := r.listVisits(ctx, tx)
		if err != nil {
			return err
		}
		items, err := r.listMedicationItems(ctx, tx)
		if err != nil {
			return err
		}
		snapshot.Visits = visits
		snapshot.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	snapshot.TakenAt = time.Now().UTC()
	return snapshot, nil
}

// MedicationItems returns the full medication item collection.
func (r *MarRepository) MedicationItems(ctx context.Context) ([]models.MedicationItem, error) {
	return r.listMedicationItems(ctx, r.db)
}

func (r *MarRepository) listVisits(ctx context.Context, q queryer) ([]models.Visit, error) {
	visits := make([]models.Visit, 0)
	if err := q.SelectContext(ctx, &visits, listVisitsQuery); err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return visits, nil
}

func (r *MarRepository) listMedicationItems(ctx context.Context, q queryer) ([]models.MedicationItem, error) {
	var rows []medicationItemRow
	if err := q.SelectContext(ctx, &rows, listMedicationItemsQuery); err != nil {
		return nil, fmt.Errorf("list medication items: %w", err)
	}
	items := make([]models.MedicationItem, 0, len(rows))
	for _, row := range rows {
		status, err := models.ParseMedicationStatus(row.Status)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidUpstreamData.Code, appErrors.ErrInvalidUpstreamData.Status,
				fmt.Sprintf("medication item %s has an unsupported status", row.ID))
		}
		items = append(items, models.MedicationItem{
			ID:          row.ID,
			VisitID:     row.VisitID,
			Status:      status,
			DrugName:    row.DrugName,
			Dose:        row.Dose,
			Route:       row.Route,
			ScheduledAt: row.ScheduledAt,
		})
	}
	return items, nil
}
