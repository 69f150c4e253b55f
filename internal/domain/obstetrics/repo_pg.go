package obstetrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/anc/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type priorPregnancyRepoPG struct{ pool *pgxpool.Pool }

func NewPriorPregnancyRepoPG(pool *pgxpool.Pool) PriorPregnancyRepository {
	return &priorPregnancyRepoPG{pool: pool}
}

func (r *priorPregnancyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const priorCols = `id, patient_id, pregnancy_index, gestational_age_months, outcome,
	delivery_mode, infant_sex, birth_weight_kg, place_of_delivery, baby_current_status,
	created_at, updated_at`

func (r *priorPregnancyRepoPG) scanRecord(row pgx.Row) (*PregnancyRecord, error) {
	var p PregnancyRecord
	err := row.Scan(&p.ID, &p.PatientID, &p.Index, &p.GestationalAgeMonths, &p.Outcome,
		&p.DeliveryMode, &p.InfantSex, &p.BirthWeightKg, &p.PlaceOfDelivery, &p.BabyCurrentStatus,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *priorPregnancyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PregnancyRecord, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+priorCols+` FROM prior_pregnancy WHERE id = $1`, id))
}

func (r *priorPregnancyRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*PregnancyRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+priorCols+` FROM prior_pregnancy WHERE patient_id = $1 ORDER BY pregnancy_index`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PregnancyRecord
	for rows.Next() {
		p, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *priorPregnancyRepoPG) ReplaceForPatient(ctx context.Context, patientID uuid.UUID, records []*PregnancyRecord) error {
	return pgx.BeginFunc(ctx, r.conn(ctx), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM prior_pregnancy WHERE patient_id = $1`, patientID); err != nil {
			return fmt.Errorf("clear prior pregnancies: %w", err)
		}
		for _, p := range records {
			p.ID = uuid.New()
			p.PatientID = patientID
			err := tx.QueryRow(ctx, `
				INSERT INTO prior_pregnancy (id, patient_id, pregnancy_index, gestational_age_months, outcome,
					delivery_mode, infant_sex, birth_weight_kg, place_of_delivery, baby_current_status)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
				RETURNING created_at, updated_at`,
				p.ID, p.PatientID, p.Index, p.GestationalAgeMonths, p.Outcome,
				p.DeliveryMode, p.InfantSex, p.BirthWeightKg, p.PlaceOfDelivery, p.BabyCurrentStatus,
			).Scan(&p.CreatedAt, &p.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert prior pregnancy %d: %w", p.Index, err)
			}
		}
		return nil
	})
}
