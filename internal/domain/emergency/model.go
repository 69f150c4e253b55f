package emergency

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentRecord maps to the danger_sign_assessment table. One row is
// written per submitted ANC form.
type AssessmentRecord struct {
	ID                uuid.UUID        `db:"id" json:"id"`
	PatientID         uuid.UUID        `db:"patient_id" json:"patient_id"`
	SessionID         *uuid.UUID       `db:"session_id" json:"session_id,omitempty"`
	Mode              Mode             `db:"danger_sign_mode" json:"danger_sign_mode"`
	DangerSigns       []DangerSign     `db:"danger_signs" json:"danger_signs"`
	ReferralReasons   []ReferralReason `db:"referral_reasons" json:"referral_reasons"`
	EmergencyReferral bool             `db:"emergency_referral" json:"emergency_referral"`
	RecordedBy        *string          `db:"recorded_by" json:"recorded_by,omitempty"`
	AssessedAt        time.Time        `db:"assessed_at" json:"assessed_at"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
}
