package emergency

import (
	"context"
	"errors"

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
}

type assessmentRepoPG struct{ pool *pgxpool.Pool }

func NewAssessmentRepoPG(pool *pgxpool.Pool) AssessmentRepository {
	return &assessmentRepoPG{pool: pool}
}

func (r *assessmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const assessmentCols = `id, patient_id, session_id, danger_sign_mode, danger_signs, referral_reasons,
	emergency_referral, recorded_by, assessed_at, created_at`

func (r *assessmentRepoPG) scanAssessment(row pgx.Row) (*AssessmentRecord, error) {
	var a AssessmentRecord
	var mode string
	var signs, reasons []string
	err := row.Scan(&a.ID, &a.PatientID, &a.SessionID, &mode, &signs, &reasons,
		&a.EmergencyReferral, &a.RecordedBy, &a.AssessedAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Mode = Mode(mode)
	a.DangerSigns = make([]DangerSign, len(signs))
	for i, s := range signs {
		a.DangerSigns[i] = DangerSign(s)
	}
	a.ReferralReasons = make([]ReferralReason, len(reasons))
	for i, s := range reasons {
		a.ReferralReasons[i] = ReferralReason(s)
	}
	return &a, nil
}

func (r *assessmentRepoPG) Create(ctx context.Context, a *AssessmentRecord) error {
	a.ID = uuid.New()
	signs := make([]string, len(a.DangerSigns))
	for i, s := range a.DangerSigns {
		signs[i] = string(s)
	}
	reasons := make([]string, len(a.ReferralReasons))
	for i, s := range a.ReferralReasons {
		reasons[i] = string(s)
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO danger_sign_assessment (id, patient_id, session_id, danger_sign_mode, danger_signs,
			referral_reasons, emergency_referral, recorded_by, assessed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		a.ID, a.PatientID, a.SessionID, string(a.Mode), signs,
		reasons, a.EmergencyReferral, a.RecordedBy, a.AssessedAt,
	).Scan(&a.CreatedAt)
}

func (r *assessmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*AssessmentRecord, error) {
	return r.scanAssessment(r.conn(ctx).QueryRow(ctx, `SELECT `+assessmentCols+` FROM danger_sign_assessment WHERE id = $1`, id))
}

func (r *assessmentRepoPG) List(ctx context.Context, limit, offset int) ([]*AssessmentRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM danger_sign_assessment`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+assessmentCols+` FROM danger_sign_assessment ORDER BY assessed_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*AssessmentRecord
	for rows.Next() {
		a, err := r.scanAssessment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *assessmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*AssessmentRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM danger_sign_assessment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+assessmentCols+` FROM danger_sign_assessment WHERE patient_id = $1 ORDER BY assessed_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*AssessmentRecord
	for rows.Next() {
		a, err := r.scanAssessment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
