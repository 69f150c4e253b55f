package emergency

import (
	"context"

	"github.com/google/uuid"
)

type AssessmentRepository interface {
	Create(ctx context.Context, a *AssessmentRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*AssessmentRecord, error)
	List(ctx context.Context, limit, offset int) ([]*AssessmentRecord, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*AssessmentRecord, int, error)
}
