package obstetrics

import (
	"context"

	"github.com/google/uuid"
)

type PriorPregnancyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*PregnancyRecord, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*PregnancyRecord, error)
	// ReplaceForPatient swaps the patient's stored history for records.
	ReplaceForPatient(ctx context.Context, patientID uuid.UUID, records []*PregnancyRecord) error
}
