package obstetrics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	priors PriorPregnancyRepository
	now    func() time.Time
}

func NewService(priors PriorPregnancyRepository) *Service {
	return &Service{priors: priors, now: time.Now}
}

// ViabilityAssessment answers which outcome choices a gestational age opens.
type ViabilityAssessment struct {
	GestationalAgeMonths int       `json:"gestational_age_months"`
	Viability            Viability `json:"viability"`
	ShowOutcomeField     bool      `json:"show_outcome_field"`
	OutcomeOptions       []Outcome `json:"outcome_options"`
}

func (s *Service) AssessViability(raw string) (*ViabilityAssessment, error) {
	months, err := ParseGestationalAgeMonths(raw)
	if err != nil {
		return nil, err
	}
	if months == nil {
		return nil, fmt.Errorf("%w: months is required", ErrInvalidGestationalAge)
	}
	v := Classify(*months)
	shown, opts := OutcomeOptions(v)
	if opts == nil {
		opts = []Outcome{}
	}
	return &ViabilityAssessment{
		GestationalAgeMonths: *months,
		Viability:            v,
		ShowOutcomeField:     shown,
		OutcomeOptions:       opts,
	}, nil
}

func (s *Service) BirthWeightGuidance(kg float64) (*WeightGuidance, error) {
	if !validBirthWeight(kg) {
		return nil, fmt.Errorf("%w: birth weight %.2f kg", ErrInvalidValue, kg)
	}
	g := ClassifyBirthWeight(kg)
	return &g, nil
}

func (s *Service) Dating(lmp time.Time) (*Dating, error) {
	return DateFromLMP(lmp, s.now())
}

func (s *Service) GetPriorPregnancy(ctx context.Context, id uuid.UUID) (*PregnancyRecord, error) {
	return s.priors.GetByID(ctx, id)
}

func (s *Service) ListPriorPregnancies(ctx context.Context, patientID uuid.UUID) ([]*PregnancyRecord, error) {
	return s.priors.ListByPatient(ctx, patientID)
}

// LoadHistory rebuilds the editable history from what is stored for a patient.
func (s *Service) LoadHistory(ctx context.Context, patientID uuid.UUID) (*History, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	records, err := s.priors.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load prior pregnancies: %w", err)
	}
	return NewHistory(records), nil
}

// SaveHistory stores the tracked records of h for a patient. Incomplete
// records are refused.
func (s *Service) SaveHistory(ctx context.Context, patientID uuid.UUID, h *History) error {
	if patientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if missing := h.Missing(); len(missing) > 0 {
		return &IncompleteError{Missing: missing}
	}
	active := h.Active()
	records := make([]*PregnancyRecord, len(active))
	for i, r := range active {
		c := *r
		records[i] = &c
	}
	return s.priors.ReplaceForPatient(ctx, patientID, records)
}

// IncompleteError lists required answers still missing per pregnancy index.
type IncompleteError struct {
	Missing map[int][]string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("pregnancy history incomplete: %d pregnancies have unanswered required fields", len(e.Missing))
}
