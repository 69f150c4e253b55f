package emergency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	assessments AssessmentRepository
}

func NewService(assessments AssessmentRepository) *Service {
	return &Service{assessments: assessments}
}

func (s *Service) Vocabulary() Vocabulary {
	return PublishedVocabulary()
}

// RecordAssessment stores the final state of an assessment for a patient.
func (s *Service) RecordAssessment(ctx context.Context, patientID uuid.UUID, sessionID *uuid.UUID, a *Assessment, recordedBy string) (*AssessmentRecord, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if a.Mode != ModeNone && a.Mode != ModePresent {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMode, a.Mode)
	}
	rec := &AssessmentRecord{
		PatientID:         patientID,
		SessionID:         sessionID,
		Mode:              a.Mode,
		DangerSigns:       append([]DangerSign{}, a.DangerSigns...),
		ReferralReasons:   append([]ReferralReason{}, a.ReferralReasons...),
		EmergencyReferral: a.EmergencyReferral,
		AssessedAt:        time.Now().UTC(),
	}
	if recordedBy != "" {
		rec.RecordedBy = &recordedBy
	}
	if err := s.assessments.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("store danger sign assessment: %w", err)
	}
	return rec, nil
}

func (s *Service) GetAssessment(ctx context.Context, id uuid.UUID) (*AssessmentRecord, error) {
	return s.assessments.GetByID(ctx, id)
}

func (s *Service) ListAssessments(ctx context.Context, limit, offset int) ([]*AssessmentRecord, int, error) {
	return s.assessments.List(ctx, limit, offset)
}

func (s *Service) ListAssessmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*AssessmentRecord, int, error) {
	return s.assessments.ListByPatient(ctx, patientID, limit, offset)
}
