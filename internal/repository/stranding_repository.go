package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dbca-wa/wastd-sub002/internal/db"
	"github.com/dbca-wa/wastd-sub002/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type strandingRepository struct {
	conn *db.Connection
}

// NewStrandingRepository wires a repository backed by a pooled connection.
func NewStrandingRepository(conn *db.Connection) StrandingRepository {
	return &strandingRepository{conn: conn}
}

const strandingColumns = `id, record_id, species_id, scientific_name, incident_date, incident_time,
	incident_type, latitude, longitude, location_name, number_of_animals, mass_incident,
	genetically_confirmed, sex, age_class, condition, outcome, length_cm::text, weight_kg::text,
	weight_estimated, carcass_fate, entanglement_gear, dbca_attended, photos_taken, samples_taken,
	post_mortem, cause_of_death, comments, created_at, updated_at`

// Create persists a stranding record in its own transaction. The commit
// happens before Create returns, so the row is immediately visible to later
// duplicate checks within the same import run.
func (r *strandingRepository) Create(ctx context.Context, record domain.StrandingRecord) (domain.StrandingRecord, error) {
	if r.conn == nil || r.conn.Pool == nil {
		return domain.StrandingRecord{}, fmt.Errorf("stranding repository not initialized")
	}

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(
			ctx,
			`INSERT INTO strandings (
			id, record_id, species_id, scientific_name, incident_date, incident_time,
			incident_type, latitude, longitude, location_name, number_of_animals, mass_incident,
			genetically_confirmed, sex, age_class, condition, outcome, length_cm, weight_kg,
			weight_estimated, carcass_fate, entanglement_gear, dbca_attended, photos_taken,
			samples_taken, post_mortem, cause_of_death, comments, created_at, updated_at
			) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18::numeric, $19::numeric, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30
			)`,
			record.ID,
			record.RecordID,
			record.SpeciesID,
			record.ScientificName,
			record.IncidentDate,
			encodeTimeOfDay(record.IncidentTime),
			record.IncidentType,
			record.Latitude,
			record.Longitude,
			record.LocationName,
			record.NumberOfAnimals,
			record.MassIncident,
			record.GeneticallyConfirmed,
			record.Sex,
			record.AgeClass,
			record.Condition,
			record.Outcome,
			encodeDecimal(record.LengthCM),
			encodeDecimal(record.WeightKG),
			record.WeightEstimated,
			record.CarcassFate,
			record.EntanglementGear,
			record.DBCAAttended,
			record.PhotosTaken,
			record.SamplesTaken,
			record.PostMortem,
			record.CauseOfDeath,
			record.Comments,
			record.CreatedAt,
			record.UpdatedAt,
		)
		return execErr
	})
	if err != nil {
		return domain.StrandingRecord{}, fmt.Errorf("failed to create stranding record: %w", err)
	}

	return record, nil
}

func (r *strandingRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.StrandingRecord, error) {
	if r.conn == nil || r.conn.Pool == nil {
		return domain.StrandingRecord{}, fmt.Errorf("stranding repository not initialized")
	}

	row := r.conn.Pool.QueryRow(
		ctx,
		`SELECT `+strandingColumns+` FROM strandings WHERE id = $1`,
		id,
	)
	record, err := scanStranding(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StrandingRecord{}, fmt.Errorf("stranding %s: %w", id, ErrNotFound)
		}
		return domain.StrandingRecord{}, fmt.Errorf("failed to get stranding record: %w", err)
	}
	return record, nil
}

func (r *strandingRepository) ExistsByRecordID(ctx context.Context, recordID string) (bool, error) {
	if r.conn == nil || r.conn.Pool == nil {
		return false, fmt.Errorf("stranding repository not initialized")
	}

	var exists bool
	err := r.conn.Pool.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM strandings WHERE record_id = $1)`,
		recordID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check record id: %w", err)
	}
	return exists, nil
}

// ExistsMatching applies the composite identity check. The point clause is
// skipped entirely when the key carries no coordinates, so two point-less
// records with identical species, date, time, and type match each other.
func (r *strandingRepository) ExistsMatching(ctx context.Context, key domain.CompositeKey) (bool, error) {
	if r.conn == nil || r.conn.Pool == nil {
		return false, fmt.Errorf("stranding repository not initialized")
	}

	hasPoint := key.Latitude != nil && key.Longitude != nil

	var exists bool
	err := r.conn.Pool.QueryRow(
		ctx,
		`SELECT EXISTS (
			SELECT 1 FROM strandings
			WHERE species_id = $1
			  AND incident_date = $2
			  AND incident_time IS NOT DISTINCT FROM $3
			  AND incident_type = $4
			  AND (NOT $5::boolean OR (latitude = $6 AND longitude = $7))
		)`,
		key.SpeciesID,
		key.IncidentDate,
		encodeTimeOfDay(key.IncidentTime),
		key.IncidentType,
		hasPoint,
		key.Latitude,
		key.Longitude,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check composite identity: %w", err)
	}
	return exists, nil
}

func (r *strandingRepository) List(ctx context.Context, filter *domain.StrandingFilter, limit, offset int) ([]domain.StrandingRecord, int, error) {
	if r.conn == nil || r.conn.Pool == nil {
		return nil, 0, fmt.Errorf("stranding repository not initialized")
	}

	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if filter == nil {
		filter = &domain.StrandingFilter{}
	}

	where := `WHERE ($1 = '' OR scientific_name = $1)
	  AND ($2 = '' OR incident_type = $2)
	  AND ($3::date IS NULL OR incident_date >= $3)
	  AND ($4::date IS NULL OR incident_date <= $4)`
	args := []any{filter.ScientificName, filter.IncidentType, filter.DateFrom, filter.DateTo}

	var total int
	if err := r.conn.Pool.QueryRow(ctx, `SELECT count(*) FROM strandings `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count stranding records: %w", err)
	}

	rows, err := r.conn.Pool.Query(
		ctx,
		`SELECT `+strandingColumns+` FROM strandings `+where+`
		 ORDER BY incident_date, created_at
		 LIMIT $5 OFFSET $6`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stranding records: %w", err)
	}
	defer rows.Close()

	records := []domain.StrandingRecord{}
	for rows.Next() {
		record, scanErr := scanStranding(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("failed to scan stranding record: %w", scanErr)
		}
		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, fmt.Errorf("failed to iterate stranding records: %w", rowsErr)
	}

	return records, total, nil
}

func scanStranding(row pgx.Row) (domain.StrandingRecord, error) {
	var (
		record       domain.StrandingRecord
		recordID     pgtype.Text
		incidentTime pgtype.Time
		latitude     pgtype.Float8
		longitude    pgtype.Float8
		lengthCM     pgtype.Text
		weightKG     pgtype.Text
	)

	if err := row.Scan(
		&record.ID,
		&recordID,
		&record.SpeciesID,
		&record.ScientificName,
		&record.IncidentDate,
		&incidentTime,
		&record.IncidentType,
		&latitude,
		&longitude,
		&record.LocationName,
		&record.NumberOfAnimals,
		&record.MassIncident,
		&record.GeneticallyConfirmed,
		&record.Sex,
		&record.AgeClass,
		&record.Condition,
		&record.Outcome,
		&lengthCM,
		&weightKG,
		&record.WeightEstimated,
		&record.CarcassFate,
		&record.EntanglementGear,
		&record.DBCAAttended,
		&record.PhotosTaken,
		&record.SamplesTaken,
		&record.PostMortem,
		&record.CauseOfDeath,
		&record.Comments,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return domain.StrandingRecord{}, err
	}

	if recordID.Valid {
		value := recordID.String
		record.RecordID = &value
	}
	if incidentTime.Valid {
		value := decodeTimeOfDay(incidentTime)
		record.IncidentTime = &value
	}
	if latitude.Valid {
		value := latitude.Float64
		record.Latitude = &value
	}
	if longitude.Valid {
		value := longitude.Float64
		record.Longitude = &value
	}
	if lengthCM.Valid {
		parsed, err := decimal.NewFromString(lengthCM.String)
		if err != nil {
			return domain.StrandingRecord{}, fmt.Errorf("invalid stored length: %w", err)
		}
		record.LengthCM = &parsed
	}
	if weightKG.Valid {
		parsed, err := decimal.NewFromString(weightKG.String)
		if err != nil {
			return domain.StrandingRecord{}, fmt.Errorf("invalid stored weight: %w", err)
		}
		record.WeightKG = &parsed
	}

	return record, nil
}

func encodeTimeOfDay(value *time.Time) pgtype.Time {
	if value == nil {
		return pgtype.Time{}
	}
	micros := int64(value.Hour())*3600_000_000 +
		int64(value.Minute())*60_000_000 +
		int64(value.Second())*1_000_000
	return pgtype.Time{Microseconds: micros, Valid: true}
}

func decodeTimeOfDay(value pgtype.Time) time.Time {
	seconds := value.Microseconds / 1_000_000
	return time.Date(0, time.January, 1,
		int(seconds/3600), int(seconds/60%60), int(seconds%60), 0, time.UTC)
}

func encodeDecimal(value *decimal.Decimal) *string {
	if value == nil {
		return nil
	}
	fixed := value.StringFixed(2)
	return &fixed
}
